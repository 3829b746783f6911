package evaluate

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/taurusgroup/sum-of-products/internal/round"
	"github.com/taurusgroup/sum-of-products/pkg/math/group"
	"github.com/taurusgroup/sum-of-products/pkg/node"
	"github.com/taurusgroup/sum-of-products/pkg/party"
	"github.com/taurusgroup/sum-of-products/pkg/pool"
	"github.com/taurusgroup/sum-of-products/pkg/protocol"
	"github.com/taurusgroup/sum-of-products/pkg/topology"
)

const (
	protocolID                  = "sop/evaluate"
	protocolRounds round.Number = 2
)

// StartEvaluate creates the first round of the evaluation for selfID.
func StartEvaluate(selfID party.ID, grp *group.Group, topo *topology.Topology, material *Material, pl *pool.Pool, log zerolog.Logger) protocol.StartFunc {
	return StartEvaluateNode(node.New(selfID, grp, log), grp, topo, material, pl, log)
}

// StartEvaluateNode is like StartEvaluate, but records the party's state in n,
// so that it can be inspected once the protocol is over.
func StartEvaluateNode(n *node.Node, grp *group.Group, topo *topology.Topology, material *Material, pl *pool.Pool, log zerolog.Logger) protocol.StartFunc {
	return func(sessionID []byte) (round.Session, error) {
		if n == nil {
			return nil, errors.New("evaluate: nil node")
		}
		if err := topo.Validate(); err != nil {
			return nil, fmt.Errorf("evaluate: %w", err)
		}
		if material == nil {
			return nil, fmt.Errorf("evaluate: %w", ErrMissingMaterial)
		}
		info := round.Info{
			ProtocolID:       protocolID,
			FinalRoundNumber: protocolRounds,
			SelfID:           n.ID(),
			PartyIDs:         topo.Parties,
			Group:            grp,
		}
		helper, err := round.NewSession(info, sessionID, pl, topo)
		if err != nil {
			return nil, fmt.Errorf("evaluate: %w", err)
		}
		return &round1{
			Helper:   helper,
			topology: topo,
			node:     n,
			material: material,
			log:      log,
		}, nil
	}
}

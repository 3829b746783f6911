package simulation

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/taurusgroup/sum-of-products/internal/test"
	"github.com/taurusgroup/sum-of-products/internal/types"
	"github.com/taurusgroup/sum-of-products/pkg/node"
	"github.com/taurusgroup/sum-of-products/pkg/pool"
	"github.com/taurusgroup/sum-of-products/pkg/protocol"
	"github.com/taurusgroup/sum-of-products/protocols/sop"
	"golang.org/x/sync/errgroup"
)

// ErrDisagreement is returned when two parties reconstruct different values.
var ErrDisagreement = errors.New("simulation: parties disagree on z")

// RunLocal evaluates the scenario with an Orchestrator, and checks the result against Expected.
// pl may be nil, in which case nodes are processed sequentially.
// The orchestrator is returned even when the check fails, so that its nodes can be inspected.
func RunLocal(s *Scenario, pl *pool.Pool, log zerolog.Logger) (*sop.Orchestrator, *sop.Result, error) {
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}
	o, err := sop.New(s.Group, s.Topology, sop.WithPool(pl), sop.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}
	result, err := o.Run(s.Inputs, s.Lambdas)
	if err != nil {
		return o, nil, err
	}
	return o, result, Validate(s.Expected(), result.Z)
}

// RunRounds evaluates the scenario with one protocol.Handler per party, exchanging messages over an in-memory network.
// All parties must reconstruct the same value, which is checked against Expected.
// If sessionID is empty, a random one is used.
// The nodes of the parties are returned in increasing order of their id, including when the check fails.
func RunRounds(s *Scenario, sessionID []byte, pl *pool.Pool, log zerolog.Logger) (*sop.Result, []*node.Node, error) {
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}
	if len(sessionID) == 0 {
		rid, err := types.NewRID(rand.Reader)
		if err != nil {
			return nil, nil, err
		}
		sessionID = rid
	}
	materials, err := sop.Deal(s.Topology, s.Inputs, s.Lambdas)
	if err != nil {
		return nil, nil, err
	}

	parties := s.Topology.Parties
	nodes := make([]*node.Node, len(parties))
	handlers := make([]*protocol.Handler, len(parties))
	for i, id := range parties {
		nodes[i] = node.New(id, s.Group, log)
		h, err := protocol.NewHandler(sop.StartNode(nodes[i], s.Group, s.Topology, materials[id], pl, log), sessionID, log)
		if err != nil {
			return nil, nil, err
		}
		handlers[i] = h
	}

	network := test.NewNetwork(parties)
	var errGroup errgroup.Group
	for i, id := range parties {
		id, h := id, handlers[i]
		errGroup.Go(func() error {
			test.HandlerLoop(id, h, network)
			if _, err := h.Result(); err != nil {
				return fmt.Errorf("party %d: %w", id, err)
			}
			return nil
		})
	}
	if err = errGroup.Wait(); err != nil {
		return nil, nodes, err
	}

	var first *sop.Result
	for i, h := range handlers {
		r, _ := h.Result()
		result, ok := r.(*sop.Result)
		if !ok {
			return nil, nodes, fmt.Errorf("party %d: unexpected result %T", parties[i], r)
		}
		if first == nil {
			first = result
		} else if first.Z.Eq(result.Z) != 1 {
			return nil, nodes, fmt.Errorf("%w: party %d", ErrDisagreement, parties[i])
		}
	}
	return first, nodes, Validate(s.Expected(), first.Z)
}

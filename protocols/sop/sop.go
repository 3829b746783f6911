package sop

import (
	"github.com/cronokirby/saferith"
	"github.com/rs/zerolog"
	"github.com/taurusgroup/sum-of-products/pkg/math/group"
	"github.com/taurusgroup/sum-of-products/pkg/node"
	"github.com/taurusgroup/sum-of-products/pkg/party"
	"github.com/taurusgroup/sum-of-products/pkg/pool"
	"github.com/taurusgroup/sum-of-products/pkg/protocol"
	"github.com/taurusgroup/sum-of-products/pkg/topology"
	"github.com/taurusgroup/sum-of-products/protocols/sop/evaluate"
)

type (
	Result   = evaluate.Result
	Material = evaluate.Material
)

var (
	ErrMissingCorrection = evaluate.ErrMissingCorrection
	ErrMissingMaterial   = evaluate.ErrMissingMaterial
)

// Deal splits the inputs and blinding exponents between the parties of topo,
// so that each party only learns what it needs to run Start.
func Deal(topo *topology.Topology, inputs, lambdas map[topology.InputID]*saferith.Nat) (map[party.ID]*Material, error) {
	return evaluate.Deal(topo, inputs, lambdas)
}

// Start initiates the evaluation of the sum of products described by topo,
// with every node running as an isolated party.
//
// In the first round, each party removes the blinding from its inputs and, for the terms it leads,
// aggregates the blinding exponents into a correction value.
// Both are broadcast, and in the second round every party reconstructs z.
//
// pl may be nil.
func Start(selfID party.ID, grp *group.Group, topo *topology.Topology, material *Material, pl *pool.Pool, log zerolog.Logger) protocol.StartFunc {
	return evaluate.StartEvaluate(selfID, grp, topo, material, pl, log)
}

// StartNode is like Start, with the party's stores kept in n.
func StartNode(n *node.Node, grp *group.Group, topo *topology.Topology, material *Material, pl *pool.Pool, log zerolog.Logger) protocol.StartFunc {
	return evaluate.StartEvaluateNode(n, grp, topo, material, pl, log)
}

package sop

import (
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/rs/zerolog"
	"github.com/taurusgroup/sum-of-products/pkg/math/group"
	"github.com/taurusgroup/sum-of-products/pkg/node"
	"github.com/taurusgroup/sum-of-products/pkg/party"
	"github.com/taurusgroup/sum-of-products/pkg/pool"
	"github.com/taurusgroup/sum-of-products/pkg/topology"
	"github.com/taurusgroup/sum-of-products/protocols/sop/evaluate"
)

// Orchestrator drives the nodes of a topology through the three phases of the protocol,
// with global visibility over their stores.
//
// Each phase is a barrier: all nodes finish a phase before any node starts the next one.
type Orchestrator struct {
	group    *group.Group
	topology *topology.Topology
	nodes    map[party.ID]*node.Node

	pool *pool.Pool
	log  zerolog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPool makes nodes advance concurrently within a phase.
func WithPool(pl *pool.Pool) Option {
	return func(o *Orchestrator) { o.pool = pl }
}

// WithLogger sets the logger passed to the nodes.
func WithLogger(log zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// New creates one empty node per party of topo.
func New(grp *group.Group, topo *topology.Topology, opts ...Option) (*Orchestrator, error) {
	if grp == nil {
		return nil, fmt.Errorf("sop: nil group")
	}
	if err := topo.Validate(); err != nil {
		return nil, fmt.Errorf("sop: %w", err)
	}
	o := &Orchestrator{
		group:    grp,
		topology: topo,
		nodes:    make(map[party.ID]*node.Node, len(topo.Parties)),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.With().Str("protocol", "sop").Str("group", grp.Name()).Logger()
	for _, id := range topo.Parties {
		o.nodes[id] = node.New(id, grp, o.log)
	}
	return o, nil
}

// forEach runs f on every node, in parallel if a pool was given.
func (o *Orchestrator) forEach(f func(id party.ID, n *node.Node) error) error {
	parties := o.topology.Parties
	return o.pool.Run(len(parties), func(i int) error {
		id := parties[i]
		return f(id, o.nodes[id])
	})
}

// Preprocess delivers every input to its owner, and then gives each term leader
// the blinding exponents of the term's inputs.
func (o *Orchestrator) Preprocess(inputs, lambdas map[topology.InputID]*saferith.Nat) error {
	for _, input := range o.topology.InputIDs() {
		if inputs[input] == nil || lambdas[input] == nil {
			return fmt.Errorf("%w: input %d", ErrMissingMaterial, input)
		}
	}
	err := o.forEach(func(id party.ID, n *node.Node) error {
		for _, input := range o.topology.InputsOf(id) {
			if err := n.ReceiveInput(input, inputs[input], lambdas[input]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	err = o.forEach(func(id party.ID, n *node.Node) error {
		for _, term := range o.topology.TermsLedBy(id) {
			ls := make([]*saferith.Nat, 0, len(term.Inputs))
			for _, input := range term.Inputs {
				ls = append(ls, lambdas[input])
			}
			n.ComputeCorrectionValue(term.ID, ls)
		}
		return nil
	})
	if err != nil {
		return err
	}
	o.log.Debug().Msg("preprocessing done")
	return nil
}

// Compute has every owner record a partial product for each term its inputs feed.
func (o *Orchestrator) Compute() {
	_ = o.forEach(func(id party.ID, n *node.Node) error {
		for _, input := range o.topology.InputsOf(id) {
			for _, term := range o.topology.TermsOf(input) {
				n.ComputePartialProduct(term, input)
			}
		}
		return nil
	})
	o.log.Debug().Msg("computation done")
}

// Reconstruct combines the values recorded by the nodes into z.
func (o *Orchestrator) Reconstruct() (*Result, error) {
	result, err := evaluate.Reconstruct(o.group, o.topology, o, o.log)
	if err != nil {
		return nil, err
	}
	o.log.Debug().Str("z", result.Z.Big().String()).Msg("reconstructed")
	return result, nil
}

// Run executes Preprocess, Compute and Reconstruct.
func (o *Orchestrator) Run(inputs, lambdas map[topology.InputID]*saferith.Nat) (*Result, error) {
	if err := o.Preprocess(inputs, lambdas); err != nil {
		return nil, err
	}
	o.Compute()
	return o.Reconstruct()
}

// PartialProduct implements evaluate.Source by reading from the owner of input.
func (o *Orchestrator) PartialProduct(term topology.TermID, input topology.InputID) (*saferith.Nat, bool) {
	owner, ok := o.topology.Owners[input]
	if !ok {
		return nil, false
	}
	return o.nodes[owner].PartialProduct(term, input)
}

// CorrectionValue implements evaluate.Source by reading from the leader of term.
func (o *Orchestrator) CorrectionValue(term topology.TermID) (*saferith.Nat, bool) {
	t, ok := o.topology.Term(term)
	if !ok {
		return nil, false
	}
	return o.nodes[t.Leader].CorrectionValue(term)
}

// Nodes returns the nodes in increasing order of their id.
func (o *Orchestrator) Nodes() []*node.Node {
	nodes := make([]*node.Node, 0, len(o.nodes))
	for _, id := range o.topology.Parties {
		nodes = append(nodes, o.nodes[id])
	}
	return nodes
}

// Node returns the node with the given id, or nil.
func (o *Orchestrator) Node(id party.ID) *node.Node { return o.nodes[id] }

// Group returns the domain parameters.
func (o *Orchestrator) Group() *group.Group { return o.group }

// Topology returns the evaluated topology.
func (o *Orchestrator) Topology() *topology.Topology { return o.topology }

package evaluate

import (
	"errors"
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/rs/zerolog"
	"github.com/taurusgroup/sum-of-products/pkg/math/group"
	"github.com/taurusgroup/sum-of-products/pkg/party"
	"github.com/taurusgroup/sum-of-products/pkg/topology"
)

var (
	// ErrMissingCorrection is returned when a term's leader has no correction value,
	// so the term cannot be unblinded.
	ErrMissingCorrection = errors.New("sop: missing correction value")
	// ErrMissingMaterial is returned when a party was not given the inputs or exponents it needs.
	ErrMissingMaterial = errors.New("sop: missing preprocessing material")
)

// Result is the output of an evaluation.
type Result struct {
	// Terms[t] = ∏_{i ∈ t} xᵢ (mod p)
	Terms map[topology.TermID]*saferith.Nat
	// Z = ∑ₜ Terms[t] (mod p)
	Z *saferith.Nat
}

// Material is the output of the preprocessing phase for a single party.
type Material struct {
	// Inputs are the private inputs received by the party.
	Inputs map[topology.InputID]*saferith.Nat
	// Lambdas are the blinding exponents of the party's inputs.
	Lambdas map[topology.InputID]*saferith.Nat
	// TermLambdas holds, for each term led by the party, the exponents of the term's inputs.
	TermLambdas map[topology.TermID][]*saferith.Nat
}

// Deal splits the inputs and blinding exponents between the parties of topo.
func Deal(topo *topology.Topology, inputs, lambdas map[topology.InputID]*saferith.Nat) (map[party.ID]*Material, error) {
	if err := topo.Validate(); err != nil {
		return nil, err
	}
	materials := make(map[party.ID]*Material, len(topo.Parties))
	for _, id := range topo.Parties {
		materials[id] = &Material{
			Inputs:      map[topology.InputID]*saferith.Nat{},
			Lambdas:     map[topology.InputID]*saferith.Nat{},
			TermLambdas: map[topology.TermID][]*saferith.Nat{},
		}
	}
	for _, input := range topo.InputIDs() {
		x, lambda := inputs[input], lambdas[input]
		if x == nil || lambda == nil {
			return nil, fmt.Errorf("%w: input %d", ErrMissingMaterial, input)
		}
		m := materials[topo.Owners[input]]
		m.Inputs[input] = x
		m.Lambdas[input] = lambda
	}
	for _, term := range topo.Terms {
		ls := make([]*saferith.Nat, 0, len(term.Inputs))
		for _, input := range term.Inputs {
			ls = append(ls, lambdas[input])
		}
		materials[term.Leader].TermLambdas[term.ID] = ls
	}
	return materials, nil
}

// Source gives read access to the partial products and correction values published by the nodes.
type Source interface {
	// PartialProduct returns the partial product recorded by the owner of input for term.
	PartialProduct(term topology.TermID, input topology.InputID) (*saferith.Nat, bool)
	// CorrectionValue returns γ as recorded by the leader of term.
	CorrectionValue(term topology.TermID) (*saferith.Nat, bool)
}

// Reconstruct combines the partial products of each term, removes the blinding with g^γ,
// and sums the terms:
//
//	yₜ = g^γₜ ⋅ ∏ partial products of t (mod p)
//	z  = ∑ₜ yₜ (mod p)
//
// Partial products are collected by iterating over the parties in increasing order.
// A missing partial product contributes nothing, a missing correction value is an error.
func Reconstruct(grp *group.Group, topo *topology.Topology, src Source, log zerolog.Logger) (*Result, error) {
	result := &Result{
		Terms: make(map[topology.TermID]*saferith.Nat, len(topo.Terms)),
		Z:     new(saferith.Nat).SetUint64(0),
	}
	for _, term := range topo.Terms {
		y := new(saferith.Nat).SetUint64(1)
		found := 0
		for _, id := range topo.Parties {
			for _, input := range topo.InputsOf(id) {
				partial, ok := src.PartialProduct(term.ID, input)
				if !ok {
					continue
				}
				y = grp.Mul(y, partial)
				found++
			}
		}
		if found != len(term.Inputs) {
			log.Warn().
				Str("term", term.Label).
				Int("expected", len(term.Inputs)).
				Int("found", found).
				Msg("incomplete partial products")
		}

		gamma, ok := src.CorrectionValue(term.ID)
		if !ok {
			return nil, fmt.Errorf("%w: %s on node %d", ErrMissingCorrection, term.Label, term.Leader)
		}
		y = grp.Mul(y, grp.Exp(gamma))
		result.Terms[term.ID] = y
		result.Z = grp.Add(result.Z, y)
	}
	return result, nil
}

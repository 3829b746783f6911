package evaluate

import (
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/rs/zerolog"
	"github.com/taurusgroup/sum-of-products/internal/round"
	"github.com/taurusgroup/sum-of-products/pkg/node"
	"github.com/taurusgroup/sum-of-products/pkg/topology"
)

var _ round.Round = (*round1)(nil)

type round1 struct {
	*round.Helper

	topology *topology.Topology
	node     *node.Node
	material *Material
	log      zerolog.Logger
}

// VerifyMessage implements round.Round.
func (r *round1) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (r *round1) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round
//
// - unblind the party's inputs xᵢ⋅g⁻ᵝ with β = λᵢ.
// - as a leader, aggregate γₜ = ∑ λᵢ (mod p-1).
// - copy the shares into the partial product store.
// - broadcast the partial products and correction values.
func (r *round1) Finalize(out chan<- *round.Message) (round.Session, error) {
	self := r.SelfID()
	for _, input := range r.topology.InputsOf(self) {
		x, lambda := r.material.Inputs[input], r.material.Lambdas[input]
		if x == nil || lambda == nil {
			return r, fmt.Errorf("%w: input %d", ErrMissingMaterial, input)
		}
		if err := r.node.ReceiveInput(input, x, lambda); err != nil {
			return r, err
		}
	}

	for _, term := range r.topology.TermsLedBy(self) {
		lambdas, ok := r.material.TermLambdas[term.ID]
		if !ok || len(lambdas) != len(term.Inputs) {
			return r, fmt.Errorf("%w: exponents for %s", ErrMissingMaterial, term.Label)
		}
		r.node.ComputeCorrectionValue(term.ID, lambdas)
	}

	for _, input := range r.topology.InputsOf(self) {
		for _, term := range r.topology.TermsOf(input) {
			r.node.ComputePartialProduct(term, input)
		}
	}

	msg := &broadcast2{}
	partials := make(map[node.PartialKey]*saferith.Nat)
	for key, value := range r.node.PartialProducts() {
		partials[key] = value
		msg.Partials = append(msg.Partials, PartialEntry{Term: key.Term, Input: key.Input, Value: value})
	}
	corrections := make(map[topology.TermID]*saferith.Nat)
	for term, gamma := range r.node.CorrectionValues() {
		corrections[term] = gamma
		msg.Corrections = append(msg.Corrections, CorrectionEntry{Term: term, Value: gamma})
	}

	if err := r.BroadcastMessage(out, msg); err != nil {
		return r, err
	}

	return &round2{
		round1:      r,
		partials:    partials,
		corrections: corrections,
	}, nil
}

// MessageContent implements round.Round.
func (round1) MessageContent() round.Content { return nil }

// Number implements round.Round.
func (round1) Number() round.Number { return 1 }

package evaluate

import (
	"errors"
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/sum-of-products/internal/round"
	"github.com/taurusgroup/sum-of-products/pkg/node"
	"github.com/taurusgroup/sum-of-products/pkg/topology"
)

var _ round.Round = (*round2)(nil)

type round2 struct {
	*round1

	// partials and corrections hold the values published by all parties, including ourselves.
	partials    map[node.PartialKey]*saferith.Nat
	corrections map[topology.TermID]*saferith.Nat
}

// PartialEntry is a published partial product.
type PartialEntry struct {
	Term  topology.TermID
	Input topology.InputID
	Value *saferith.Nat
}

// CorrectionEntry is a published correction value.
type CorrectionEntry struct {
	Term  topology.TermID
	Value *saferith.Nat
}

type broadcast2 struct {
	Partials    []PartialEntry
	Corrections []CorrectionEntry
}

// VerifyMessage implements round.Round.
//
// - a partial product must be for an input owned by the sender, and a term it feeds.
// - a correction value must be for a term led by the sender.
// - values must be reduced.
func (r *round2) VerifyMessage(msg round.Message) error {
	from := msg.From
	body, ok := msg.Content.(*broadcast2)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}

	seen := make(map[node.PartialKey]bool, len(body.Partials))
	for _, p := range body.Partials {
		key := node.PartialKey{Term: p.Term, Input: p.Input}
		if seen[key] {
			return fmt.Errorf("duplicate partial product for term %d, input %d", p.Term, p.Input)
		}
		seen[key] = true
		if owner, ok := r.topology.Owners[p.Input]; !ok || owner != from {
			return fmt.Errorf("input %d is not owned by %d", p.Input, from)
		}
		if !r.topology.Feeds(p.Input, p.Term) {
			return fmt.Errorf("input %d does not feed term %d", p.Input, p.Term)
		}
		if !r.Group().IsUnit(p.Value) {
			return errors.New("partial product is not a unit")
		}
	}

	seenTerms := make(map[topology.TermID]bool, len(body.Corrections))
	for _, c := range body.Corrections {
		if seenTerms[c.Term] {
			return fmt.Errorf("duplicate correction value for term %d", c.Term)
		}
		seenTerms[c.Term] = true
		term, ok := r.topology.Term(c.Term)
		if !ok || term.Leader != from {
			return fmt.Errorf("term %d is not led by %d", c.Term, from)
		}
		if !r.Group().IsExponent(c.Value) {
			return errors.New("correction value is not reduced")
		}
	}
	return nil
}

// StoreMessage implements round.Round.
func (r *round2) StoreMessage(msg round.Message) error {
	body := msg.Content.(*broadcast2)
	for _, p := range body.Partials {
		r.partials[node.PartialKey{Term: p.Term, Input: p.Input}] = p.Value
	}
	for _, c := range body.Corrections {
		r.corrections[c.Term] = c.Value
	}
	return nil
}

// Finalize implements round.Round
//
// - reconstruct z from all published values.
func (r *round2) Finalize(chan<- *round.Message) (round.Session, error) {
	result, err := Reconstruct(r.Group(), r.topology, r, r.log)
	if err != nil {
		return r.AbortRound(err), nil
	}
	return r.ResultRound(result), nil
}

// PartialProduct implements Source.
func (r *round2) PartialProduct(term topology.TermID, input topology.InputID) (*saferith.Nat, bool) {
	v, ok := r.partials[node.PartialKey{Term: term, Input: input}]
	return v, ok
}

// CorrectionValue implements Source.
func (r *round2) CorrectionValue(term topology.TermID) (*saferith.Nat, bool) {
	v, ok := r.corrections[term]
	return v, ok
}

// RoundNumber implements round.Content.
func (broadcast2) RoundNumber() round.Number { return 2 }

// MessageContent implements round.Round.
func (round2) MessageContent() round.Content { return &broadcast2{} }

// Number implements round.Round.
func (round2) Number() round.Number { return 2 }

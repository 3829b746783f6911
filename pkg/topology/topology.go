package topology

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"github.com/taurusgroup/sum-of-products/pkg/party"
)

// InputID identifies a private input.
type InputID uint16

// TermID identifies a product term of the expression.
type TermID uint8

// Term is one summand of the expression: the product of its inputs.
type Term struct {
	ID TermID
	// Label is a human readable name, such as "term1".
	Label string
	// Leader is the node which aggregates the blinding exponents of this term.
	Leader party.ID
	// Inputs are the factors of this term.
	Inputs []InputID
}

// Topology fixes which node owns which input, and how inputs combine into terms.
// The expression evaluated is ∑ₜ ∏_{i ∈ t.Inputs} xᵢ.
type Topology struct {
	Parties party.IDSlice
	// Owners maps each input to the node that receives it.
	Owners map[InputID]party.ID
	// Terms are evaluated in this order during reconstruction.
	Terms []Term
}

var (
	ErrInvalidParties = errors.New("topology: parties must be non empty, sorted and unique")
	ErrUnknownParty   = errors.New("topology: unknown party")
	ErrUnknownInput   = errors.New("topology: unknown input")
	ErrEmptyTerm      = errors.New("topology: term has no inputs")
	ErrDuplicateTerm  = errors.New("topology: duplicate term")
	ErrNoTerms        = errors.New("topology: no terms")
	ErrRepeatedInput  = errors.New("topology: input appears twice in a term")
)

// Default returns the four node topology computing x₀⋅x₁ + x₂⋅x₃.
// Node i receives input i, node 0 leads "term1" and node 2 leads "term2".
func Default() *Topology {
	return &Topology{
		Parties: party.Range(4),
		Owners: map[InputID]party.ID{
			0: 0,
			1: 1,
			2: 2,
			3: 3,
		},
		Terms: []Term{
			{ID: 1, Label: "term1", Leader: 0, Inputs: []InputID{0, 1}},
			{ID: 2, Label: "term2", Leader: 2, Inputs: []InputID{2, 3}},
		},
	}
}

// Validate checks that the topology is consistent.
func (t *Topology) Validate() error {
	if !t.Parties.Valid() {
		return ErrInvalidParties
	}
	for input, owner := range t.Owners {
		if !t.Parties.Contains(owner) {
			return fmt.Errorf("%w: %d owns input %d", ErrUnknownParty, owner, input)
		}
	}
	if len(t.Terms) == 0 {
		return ErrNoTerms
	}
	ids := make(map[TermID]bool, len(t.Terms))
	labels := make(map[string]bool, len(t.Terms))
	for _, term := range t.Terms {
		if ids[term.ID] || labels[term.Label] {
			return fmt.Errorf("%w: %d (%q)", ErrDuplicateTerm, term.ID, term.Label)
		}
		ids[term.ID] = true
		labels[term.Label] = true

		if !t.Parties.Contains(term.Leader) {
			return fmt.Errorf("%w: %d leads %s", ErrUnknownParty, term.Leader, term.Label)
		}
		if len(term.Inputs) == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyTerm, term.Label)
		}
		seen := make(map[InputID]bool, len(term.Inputs))
		for _, input := range term.Inputs {
			if _, ok := t.Owners[input]; !ok {
				return fmt.Errorf("%w: %d in %s", ErrUnknownInput, input, term.Label)
			}
			if seen[input] {
				return fmt.Errorf("%w: %d in %s", ErrRepeatedInput, input, term.Label)
			}
			seen[input] = true
		}
	}
	return nil
}

// Term returns the term with the given id.
func (t *Topology) Term(id TermID) (Term, bool) {
	for _, term := range t.Terms {
		if term.ID == id {
			return term, true
		}
	}
	return Term{}, false
}

// InputIDs returns all inputs in increasing order.
func (t *Topology) InputIDs() []InputID {
	inputs := make([]InputID, 0, len(t.Owners))
	for input := range t.Owners {
		inputs = append(inputs, input)
	}
	sort.Slice(inputs, func(i, j int) bool { return inputs[i] < inputs[j] })
	return inputs
}

// InputsOf returns the inputs received by id, in increasing order.
func (t *Topology) InputsOf(id party.ID) []InputID {
	var inputs []InputID
	for _, input := range t.InputIDs() {
		if t.Owners[input] == id {
			inputs = append(inputs, input)
		}
	}
	return inputs
}

// TermsLedBy returns the terms whose leader is id.
func (t *Topology) TermsLedBy(id party.ID) []Term {
	var terms []Term
	for _, term := range t.Terms {
		if term.Leader == id {
			terms = append(terms, term)
		}
	}
	return terms
}

// TermsOf returns the ids of the terms input is a factor of.
func (t *Topology) TermsOf(input InputID) []TermID {
	var terms []TermID
	for _, term := range t.Terms {
		for _, i := range term.Inputs {
			if i == input {
				terms = append(terms, term.ID)
				break
			}
		}
	}
	return terms
}

// Feeds returns true if input is a factor of the term with the given id.
func (t *Topology) Feeds(input InputID, id TermID) bool {
	term, ok := t.Term(id)
	if !ok {
		return false
	}
	for _, i := range term.Inputs {
		if i == input {
			return true
		}
	}
	return false
}

// WriteTo implements io.WriterTo and should be used within the hash.Hash function.
func (t *Topology) WriteTo(w io.Writer) (int64, error) {
	var total int64
	put := func(v interface{}) error {
		if err := binary.Write(w, binary.BigEndian, v); err != nil {
			return err
		}
		total += int64(binary.Size(v))
		return nil
	}
	n, err := t.Parties.WriteTo(w)
	total += n
	if err != nil {
		return total, err
	}
	for _, input := range t.InputIDs() {
		if err = put([]uint16{uint16(input), uint16(t.Owners[input])}); err != nil {
			return total, err
		}
	}
	for _, term := range t.Terms {
		if err = put([]uint16{uint16(term.ID), uint16(term.Leader), uint16(len(term.Inputs))}); err != nil {
			return total, err
		}
		for _, input := range term.Inputs {
			if err = put(uint16(input)); err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// Domain implements hash.WriterToWithDomain.
func (*Topology) Domain() string { return "Topology" }

// MarshalBinary implements encoding.BinaryMarshaler.
func (t *Topology) MarshalBinary() ([]byte, error) {
	type plain Topology
	return cbor.Marshal((*plain)(t))
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
// The decoded topology is validated.
func (t *Topology) UnmarshalBinary(data []byte) error {
	type plain Topology
	var decoded plain
	if err := cbor.Unmarshal(data, &decoded); err != nil {
		return err
	}
	topo := Topology(decoded)
	if err := topo.Validate(); err != nil {
		return err
	}
	*t = topo
	return nil
}

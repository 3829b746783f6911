package node

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cronokirby/saferith"
	"github.com/rs/zerolog"
	"github.com/taurusgroup/sum-of-products/pkg/math/group"
	"github.com/taurusgroup/sum-of-products/pkg/party"
	"github.com/taurusgroup/sum-of-products/pkg/topology"
)

// ErrInvalidInput is returned by ReceiveInput when the value is not in [1, p).
var ErrInvalidInput = errors.New("node: input must satisfy 0 < x < p")

// PartialKey indexes the partial product store.
type PartialKey struct {
	Term  topology.TermID
	Input topology.InputID
}

// Node holds the private state of one participant.
//
// All three stores are last-write-wins and are never cleared.
// The methods of a Node may be called concurrently.
type Node struct {
	id    party.ID
	group *group.Group
	log   zerolog.Logger

	mtx sync.RWMutex
	// shares[i] = xᵢ⋅g⁻ᵝ (mod p), where β = λᵢ
	shares map[topology.InputID]*saferith.Nat
	// corrections[t] = γₜ = ∑ λᵢ (mod p-1)
	corrections map[topology.TermID]*saferith.Nat
	partials    map[PartialKey]*saferith.Nat

	// missed counts ComputePartialProduct calls for which no share was stored.
	missed atomic.Int64
}

// New creates an empty node. The logger receives the node's id as context.
func New(id party.ID, grp *group.Group, log zerolog.Logger) *Node {
	return &Node{
		id:          id,
		group:       grp,
		log:         log.With().Stringer("node", id).Logger(),
		shares:      map[topology.InputID]*saferith.Nat{},
		corrections: map[topology.TermID]*saferith.Nat{},
		partials:    map[PartialKey]*saferith.Nat{},
	}
}

// ID returns the node's identifier.
func (n *Node) ID() party.ID { return n.id }

// ReceiveInput removes the blinding g^λ from value, and stores
//
//	share = value ⋅ (g⁻¹)^λ (mod p)
//
// under input. A previous share for the same input is replaced.
func (n *Node) ReceiveInput(input topology.InputID, value, lambda *saferith.Nat) error {
	if !n.group.IsUnit(value) {
		return fmt.Errorf("%w (input %d)", ErrInvalidInput, input)
	}
	if lambda == nil {
		return fmt.Errorf("node: nil blinding exponent for input %d", input)
	}
	share := n.group.Mul(value, n.group.ExpInverse(lambda))

	n.mtx.Lock()
	defer n.mtx.Unlock()
	if _, ok := n.shares[input]; ok {
		n.log.Debug().Uint16("input", uint16(input)).Msg("replacing share")
	}
	n.shares[input] = share
	return nil
}

// ComputeCorrectionValue stores γ = ∑ lambdas (mod p-1) for term.
func (n *Node) ComputeCorrectionValue(term topology.TermID, lambdas []*saferith.Nat) {
	gamma := n.group.SumExponents(lambdas)

	n.mtx.Lock()
	defer n.mtx.Unlock()
	n.corrections[term] = gamma
}

// ComputePartialProduct copies the share of input into the partial product store under (term, input).
// If no share was received for input, nothing is stored, a warning is logged and false is returned.
func (n *Node) ComputePartialProduct(term topology.TermID, input topology.InputID) bool {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	share, ok := n.shares[input]
	if !ok {
		n.missed.Add(1)
		n.log.Warn().
			Uint8("term", uint8(term)).
			Uint16("input", uint16(input)).
			Msg("no share for partial product")
		return false
	}
	n.partials[PartialKey{Term: term, Input: input}] = new(saferith.Nat).SetNat(share)
	return true
}

// Missed returns the number of partial products skipped because of a missing share.
func (n *Node) Missed() int64 { return n.missed.Load() }

// SharedValue returns a copy of the share for input.
func (n *Node) SharedValue(input topology.InputID) (*saferith.Nat, bool) {
	n.mtx.RLock()
	defer n.mtx.RUnlock()
	return get(n.shares, input)
}

// CorrectionValue returns a copy of γ for term.
func (n *Node) CorrectionValue(term topology.TermID) (*saferith.Nat, bool) {
	n.mtx.RLock()
	defer n.mtx.RUnlock()
	return get(n.corrections, term)
}

// PartialProduct returns a copy of the partial product for (term, input).
func (n *Node) PartialProduct(term topology.TermID, input topology.InputID) (*saferith.Nat, bool) {
	n.mtx.RLock()
	defer n.mtx.RUnlock()
	return get(n.partials, PartialKey{Term: term, Input: input})
}

// SharedValues returns a copy of the shared value store.
func (n *Node) SharedValues() map[topology.InputID]*saferith.Nat {
	n.mtx.RLock()
	defer n.mtx.RUnlock()
	return copyMap(n.shares)
}

// CorrectionValues returns a copy of the correction value store.
func (n *Node) CorrectionValues() map[topology.TermID]*saferith.Nat {
	n.mtx.RLock()
	defer n.mtx.RUnlock()
	return copyMap(n.corrections)
}

// PartialProducts returns a copy of the partial product store.
func (n *Node) PartialProducts() map[PartialKey]*saferith.Nat {
	n.mtx.RLock()
	defer n.mtx.RUnlock()
	return copyMap(n.partials)
}

func get[K comparable](m map[K]*saferith.Nat, k K) (*saferith.Nat, bool) {
	v, ok := m[k]
	if !ok {
		return nil, false
	}
	return new(saferith.Nat).SetNat(v), true
}

func copyMap[K comparable](m map[K]*saferith.Nat) map[K]*saferith.Nat {
	out := make(map[K]*saferith.Nat, len(m))
	for k, v := range m {
		out[k] = new(saferith.Nat).SetNat(v)
	}
	return out
}

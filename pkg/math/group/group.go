package group

import (
	"errors"
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/taurusgroup/sum-of-products/pkg/math/arith"
)

// primalityRounds is the number of Miller-Rabin rounds used to check p.
const primalityRounds = 20

var (
	ErrNotPrime      = errors.New("group: p is not prime")
	ErrEvenModulus   = errors.New("group: modulus must be an odd prime")
	ErrInvalidBase   = errors.New("group: g must be a nonzero element mod p")
	ErrNotInitalized = errors.New("group: nil parameter")
)

// Group is the multiplicative group ℤₚˣ together with a fixed base g.
// Exponents live in ℤₚ₋₁, the order of the group.
//
// A Group is immutable once created and can be shared by all nodes.
type Group struct {
	p     *saferith.Modulus
	order *saferith.Modulus
	// pNat and orderNat are only ever read through copies.
	pNat     *saferith.Nat
	orderNat *saferith.Nat
	g        *saferith.Nat
	// gInv = g⁻¹ (mod p)
	gInv *saferith.Nat
}

// New validates p and g and creates the Group ℤₚˣ with base g.
func New(p, g *saferith.Nat) (*Group, error) {
	if p == nil || g == nil {
		return nil, ErrNotInitalized
	}
	pBig := p.Big()
	if pBig.Bit(0) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrEvenModulus, pBig)
	}
	if !pBig.ProbablyPrime(primalityRounds) {
		return nil, fmt.Errorf("%w: %v", ErrNotPrime, pBig)
	}
	pMod := saferith.ModulusFromNat(p)
	gReduced := new(saferith.Nat).Mod(g, pMod)
	gInv, err := arith.ModInverse(gReduced, pMod)
	if err != nil {
		return nil, ErrInvalidBase
	}
	orderNat := new(saferith.Nat).Sub(p, new(saferith.Nat).SetUint64(1), -1)
	return &Group{
		p:        pMod,
		order:    saferith.ModulusFromNat(orderNat),
		pNat:     new(saferith.Nat).SetNat(p),
		orderNat: new(saferith.Nat).SetNat(orderNat),
		g:        gReduced,
		gInv:     gInv,
	}, nil
}

// FromUint64 is a convenience wrapper around New for small parameters.
func FromUint64(p, g uint64) (*Group, error) {
	return New(new(saferith.Nat).SetUint64(p), new(saferith.Nat).SetUint64(g))
}

// Default returns ℤₚˣ with p = 982451653 and g = 2.
func Default() *Group {
	return mustFromUint64(982451653, 2)
}

// Toy returns ℤₚˣ with p = 101 and g = 3, small enough to check by hand.
func Toy() *Group {
	return mustFromUint64(101, 3)
}

func mustFromUint64(p, g uint64) *Group {
	grp, err := FromUint64(p, g)
	if err != nil {
		panic(err)
	}
	return grp
}

// Modulus returns p.
func (g *Group) Modulus() *saferith.Modulus { return g.p }

// Order returns p-1, the modulus for exponents.
func (g *Group) Order() *saferith.Modulus { return g.order }

// Generator returns a copy of g.
func (g *Group) Generator() *saferith.Nat { return new(saferith.Nat).SetNat(g.g) }

// Name returns a short description of the parameters, used for domain separation.
func (g *Group) Name() string {
	return fmt.Sprintf("Z_%s^*/%s", g.p.Big().String(), g.g.Big().String())
}

// Exp returns gᵉ (mod p).
func (g *Group) Exp(e *saferith.Nat) *saferith.Nat {
	return arith.ModPow(g.g, e, g.p)
}

// ExpInverse returns g⁻ᵉ (mod p), computed as (g⁻¹)ᵉ.
func (g *Group) ExpInverse(e *saferith.Nat) *saferith.Nat {
	return arith.ModPow(g.gInv, e, g.p)
}

// Mul returns x⋅y (mod p).
func (g *Group) Mul(x, y *saferith.Nat) *saferith.Nat {
	return arith.ModMul(x, y, g.p)
}

// Add returns x + y (mod p).
func (g *Group) Add(x, y *saferith.Nat) *saferith.Nat {
	return arith.ModSum([]*saferith.Nat{x, y}, g.p)
}

// Reduce returns x (mod p).
func (g *Group) Reduce(x *saferith.Nat) *saferith.Nat {
	return new(saferith.Nat).Mod(x, g.p)
}

// SumExponents returns ∑ᵢ eᵢ (mod p-1).
func (g *Group) SumExponents(es []*saferith.Nat) *saferith.Nat {
	return arith.ModSum(es, g.order)
}

// IsUnit returns true if 0 < x < p.
func (g *Group) IsUnit(x *saferith.Nat) bool {
	if x == nil || x.EqZero() == 1 {
		return false
	}
	return less(x, g.pNat)
}

// Contains returns true if 0 <= x < p.
func (g *Group) Contains(x *saferith.Nat) bool {
	if x == nil {
		return false
	}
	return less(x, g.pNat)
}

// IsExponent returns true if 0 <= e < p-1.
func (g *Group) IsExponent(e *saferith.Nat) bool {
	if e == nil {
		return false
	}
	return less(e, g.orderNat)
}

// less returns true if x < bound.
// Comparisons resize the limbs of their operands, so both sides are copied
// and the Group can be used from several goroutines.
func less(x, bound *saferith.Nat) bool {
	_, _, lt := new(saferith.Nat).SetNat(x).Cmp(new(saferith.Nat).SetNat(bound))
	return lt == 1
}

// WriteTo implements io.WriterTo and should be used within the hash.Hash function.
func (g *Group) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, b := range [][]byte{g.p.Bytes(), g.g.Bytes()} {
		n, err := w.Write(b)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Domain implements hash.WriterToWithDomain.
func (*Group) Domain() string { return "Group" }

type groupMarshal struct {
	P, G *saferith.Nat
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (g *Group) MarshalBinary() ([]byte, error) {
	return cbor.Marshal(&groupMarshal{
		P: g.p.Nat(),
		G: g.g,
	})
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
// The decoded parameters are validated as in New.
func (g *Group) UnmarshalBinary(data []byte) error {
	var gm groupMarshal
	if err := cbor.Unmarshal(data, &gm); err != nil {
		return err
	}
	decoded, err := New(gm.P, gm.G)
	if err != nil {
		return err
	}
	*g = *decoded
	return nil
}

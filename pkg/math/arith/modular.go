package arith

import (
	"errors"

	"github.com/cronokirby/saferith"
)

// ErrInvalidInput is returned when an argument violates the precondition of an operation,
// such as inverting 0.
var ErrInvalidInput = errors.New("arith: invalid input")

var two = new(saferith.Nat).SetUint64(2)

// ModPow returns baseᵉ (mod m), with the result in [0, m).
// base may be larger than m, it is reduced first.
func ModPow(base, exponent *saferith.Nat, m *saferith.Modulus) *saferith.Nat {
	b := new(saferith.Nat).Mod(base, m)
	return new(saferith.Nat).Exp(b, exponent, m)
}

// ModInverse returns base⁻¹ (mod p) computed as baseᵖ⁻² (mod p).
// p must be prime, and ErrInvalidInput is returned when base ≡ 0 (mod p).
func ModInverse(base *saferith.Nat, p *saferith.Modulus) (*saferith.Nat, error) {
	b := new(saferith.Nat).Mod(base, p)
	if b.EqZero() == 1 {
		return nil, ErrInvalidInput
	}
	pMinus2 := new(saferith.Nat).Sub(p.Nat(), two, -1)
	return new(saferith.Nat).Exp(b, pMinus2, p), nil
}

// ModSum returns ∑ᵢ values[i] (mod m).
// The result does not depend on the order of values.
func ModSum(values []*saferith.Nat, m *saferith.Modulus) *saferith.Nat {
	sum := new(saferith.Nat).SetUint64(0)
	sum.Mod(sum, m)
	for _, v := range values {
		reduced := new(saferith.Nat).Mod(v, m)
		sum.ModAdd(sum, reduced, m)
	}
	return sum
}

// ModMul returns x⋅y (mod m).
func ModMul(x, y *saferith.Nat, m *saferith.Modulus) *saferith.Nat {
	xm := new(saferith.Nat).Mod(x, m)
	ym := new(saferith.Nat).Mod(y, m)
	return new(saferith.Nat).ModMul(xm, ym, m)
}

package simulation

import (
	"fmt"

	"github.com/cronokirby/saferith"
)

// Expected computes ∑ₜ ∏_{i ∈ t} xᵢ (mod p) in the clear.
func (s *Scenario) Expected() *saferith.Nat {
	z := new(saferith.Nat).SetUint64(0)
	for _, term := range s.Topology.Terms {
		y := new(saferith.Nat).SetUint64(1)
		for _, input := range term.Inputs {
			y = s.Group.Mul(y, s.Inputs[input])
		}
		z = s.Group.Add(z, y)
	}
	return z
}

// MismatchError is returned when the reconstructed value differs from the expected one.
type MismatchError struct {
	Expected, Actual *saferith.Nat
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("simulation: expected z = %s, got %s", e.Expected.Big(), e.Actual.Big())
}

// Validate returns a *MismatchError if actual differs from expected.
func Validate(expected, actual *saferith.Nat) error {
	if actual == nil || expected.Eq(actual) != 1 {
		if actual == nil {
			actual = new(saferith.Nat)
		}
		return &MismatchError{Expected: expected, Actual: actual}
	}
	return nil
}

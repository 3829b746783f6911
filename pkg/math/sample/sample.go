package sample

import (
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/sum-of-products/pkg/math/group"
	"golang.org/x/crypto/sha3"
)

const maxIterations = 255

var ErrMaxIterations = fmt.Errorf("sample: failed to generate after %d iterations", maxIterations)

func mustReadBits(rand io.Reader, buf []byte) {
	for i := 0; i < maxIterations; i++ {
		if _, err := io.ReadFull(rand, buf); err == nil {
			return
		}
	}
	panic(ErrMaxIterations)
}

// ModN samples an element of ℤₙ.
func ModN(rand io.Reader, n *saferith.Modulus) *saferith.Nat {
	out := new(saferith.Nat)
	buf := make([]byte, (n.BitLen()+7)/8)
	// mask the top byte so that rejection succeeds with probability > 1/2
	mask := byte(0xff) >> ((8 - n.BitLen()%8) % 8)
	for {
		mustReadBits(rand, buf)
		buf[0] &= mask
		out.SetBytes(buf)
		_, _, lt := out.CmpMod(n)
		if lt == 1 {
			return out
		}
	}
}

// NonZeroModN samples an element of [1, n).
func NonZeroModN(rand io.Reader, n *saferith.Modulus) *saferith.Nat {
	for i := 0; i < maxIterations; i++ {
		x := ModN(rand, n)
		if x.EqZero() != 1 {
			return x
		}
	}
	panic(ErrMaxIterations)
}

// Input samples a private input uniformly from [1, p).
func Input(rand io.Reader, grp *group.Group) *saferith.Nat {
	return NonZeroModN(rand, grp.Modulus())
}

// Lambda samples a blinding exponent uniformly from [1, p).
func Lambda(rand io.Reader, grp *group.Group) *saferith.Nat {
	return NonZeroModN(rand, grp.Modulus())
}

// NewSeededReader returns a deterministic stream of bytes derived from seed.
// It is meant for reproducible simulations, never for real secrets.
func NewSeededReader(seed []byte) io.Reader {
	h := sha3.NewCShake128(nil, []byte("sum-of-products seed"))
	_, _ = h.Write(seed)
	return h
}

package arith

import (
	"math/big"
	mrand "math/rand"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nat(x uint64) *saferith.Nat {
	return new(saferith.Nat).SetUint64(x)
}

func TestModPow(t *testing.T) {
	tests := []struct {
		name           string
		base, exponent uint64
		modulus        uint64
		want           uint64
	}{
		{"zero exponent", 7, 0, 101, 1},
		{"zero exponent zero base", 0, 0, 101, 1},
		{"one exponent", 7, 1, 101, 7},
		{"one exponent reduces base", 205, 1, 101, 3},
		{"small", 3, 5, 101, 243 % 101},
		{"fermat", 3, 100, 101, 1},
		{"large exponent", 2, 982451651, 982451653, new(big.Int).Exp(big.NewInt(2), big.NewInt(982451651), big.NewInt(982451653)).Uint64()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := saferith.ModulusFromUint64(tt.modulus)
			got := ModPow(nat(tt.base), nat(tt.exponent), m)
			assert.Equal(t, tt.want, got.Big().Uint64())
		})
	}
}

func TestModPowMatchesBig(t *testing.T) {
	r := mrand.New(mrand.NewSource(0))
	p := big.NewInt(982451653)
	m := saferith.ModulusFromNat(new(saferith.Nat).SetBig(p, p.BitLen()))
	for i := 0; i < 50; i++ {
		b := new(big.Int).Rand(r, p)
		e := new(big.Int).Rand(r, new(big.Int).Lsh(p, 64))
		expected := new(big.Int).Exp(b, e, p)
		got := ModPow(new(saferith.Nat).SetBig(b, b.BitLen()), new(saferith.Nat).SetBig(e, e.BitLen()), m)
		assert.Equal(t, 0, expected.Cmp(got.Big()), "b=%v e=%v", b, e)
	}
}

func TestModInverse(t *testing.T) {
	m := saferith.ModulusFromUint64(101)
	for a := uint64(1); a < 101; a++ {
		inv, err := ModInverse(nat(a), m)
		require.NoError(t, err)
		product := ModMul(nat(a), inv, m)
		assert.Equal(t, uint64(1), product.Big().Uint64(), "a = %d", a)
	}
}

func TestModInverseZero(t *testing.T) {
	m := saferith.ModulusFromUint64(101)
	_, err := ModInverse(nat(0), m)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = ModInverse(nat(202), m)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestModSumOrderIndependent(t *testing.T) {
	m := saferith.ModulusFromUint64(100)
	values := []*saferith.Nat{nat(99), nat(57), nat(3), nat(250)}
	expected := ModSum(values, m)
	assert.Equal(t, uint64((99+57+3+250)%100), expected.Big().Uint64())

	r := mrand.New(mrand.NewSource(1))
	for i := 0; i < 10; i++ {
		shuffled := append([]*saferith.Nat(nil), values...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.True(t, expected.Eq(ModSum(shuffled, m)) == 1)
	}

	// (a + b) + c == a + (b + c)
	left := ModSum([]*saferith.Nat{ModSum(values[:2], m), values[2]}, m)
	right := ModSum([]*saferith.Nat{values[0], ModSum(values[1:3], m)}, m)
	assert.True(t, left.Eq(right) == 1)

	assert.Equal(t, uint64(0), ModSum(nil, m).Big().Uint64())
}

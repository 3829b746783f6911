package group

import (
	"sync"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		p, g    uint64
		wantErr error
	}{
		{"toy", 101, 3, nil},
		{"default", 982451653, 2, nil},
		{"composite", 100, 3, ErrNotPrime},
		{"even prime", 2, 1, ErrEvenModulus},
		{"even composite", 102, 5, ErrEvenModulus},
		{"zero base", 101, 0, ErrInvalidBase},
		{"base multiple of p", 101, 202, ErrInvalidBase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromUint64(tt.p, tt.g)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}

	_, err := New(nil, nil)
	assert.ErrorIs(t, err, ErrNotInitalized)
}

func TestGroup_ExpInverse(t *testing.T) {
	grp := Toy()
	for e := uint64(0); e < 250; e++ {
		eNat := new(saferith.Nat).SetUint64(e)
		one := grp.Mul(grp.Exp(eNat), grp.ExpInverse(eNat))
		assert.Equal(t, uint64(1), one.Big().Uint64(), "e = %d", e)
	}
}

func TestGroup_Order(t *testing.T) {
	grp := Toy()
	assert.Equal(t, uint64(100), grp.Order().Big().Uint64())
	assert.Equal(t, uint64(101), grp.Modulus().Big().Uint64())
	assert.Equal(t, uint64(3), grp.Generator().Big().Uint64())

	// gᵖ⁻¹ = 1
	assert.Equal(t, uint64(1), grp.Exp(grp.Order().Nat()).Big().Uint64())

	sum := grp.SumExponents([]*saferith.Nat{
		new(saferith.Nat).SetUint64(60),
		new(saferith.Nat).SetUint64(70),
	})
	assert.Equal(t, uint64(30), sum.Big().Uint64())
}

func TestGroup_IsUnit(t *testing.T) {
	grp := Toy()
	assert.False(t, grp.IsUnit(new(saferith.Nat).SetUint64(0)))
	assert.True(t, grp.IsUnit(new(saferith.Nat).SetUint64(1)))
	assert.True(t, grp.IsUnit(new(saferith.Nat).SetUint64(100)))
	assert.False(t, grp.IsUnit(new(saferith.Nat).SetUint64(101)))
	assert.False(t, grp.IsUnit(nil))
	assert.True(t, grp.Contains(new(saferith.Nat).SetUint64(0)))
	assert.True(t, grp.IsExponent(new(saferith.Nat).SetUint64(99)))
	assert.False(t, grp.IsExponent(new(saferith.Nat).SetUint64(100)))
}

func TestGroup_ConcurrentChecks(t *testing.T) {
	grp := Default()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			x := new(saferith.Nat).SetUint64(uint64(i + 1))
			assert.True(t, grp.IsUnit(x))
			assert.True(t, grp.Contains(x))
			assert.True(t, grp.IsExponent(x))
			assert.NotNil(t, grp.Mul(x, grp.ExpInverse(x)))
		}(i)
	}
	wg.Wait()
}

func TestGroup_Marshal(t *testing.T) {
	grp := Default()
	data, err := grp.MarshalBinary()
	require.NoError(t, err)

	var decoded Group
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.Equal(t, grp.Name(), decoded.Name())
	assert.True(t, grp.Order().Nat().Eq(decoded.Order().Nat()) == 1)
}

package node

import (
	"sync"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/sum-of-products/pkg/math/group"
	"github.com/taurusgroup/sum-of-products/pkg/topology"
)

func nat(x uint64) *saferith.Nat {
	return new(saferith.Nat).SetUint64(x)
}

func TestNode_ReceiveInput(t *testing.T) {
	grp := group.Toy()
	n := New(0, grp, zerolog.Nop())

	require.NoError(t, n.ReceiveInput(0, nat(5), nat(2)))
	share, ok := n.SharedValue(0)
	require.True(t, ok)
	// 5 ⋅ 3⁻² = 5 ⋅ 45 = 23 (mod 101)
	assert.Equal(t, uint64(23), share.Big().Uint64())
	// share ⋅ g^λ = x
	assert.Equal(t, uint64(5), grp.Mul(share, grp.Exp(nat(2))).Big().Uint64())

	// λ = 0 leaves the value untouched
	require.NoError(t, n.ReceiveInput(1, nat(7), nat(0)))
	share, _ = n.SharedValue(1)
	assert.Equal(t, uint64(7), share.Big().Uint64())

	// last write wins
	require.NoError(t, n.ReceiveInput(0, nat(5), nat(0)))
	share, _ = n.SharedValue(0)
	assert.Equal(t, uint64(5), share.Big().Uint64())
	assert.Len(t, n.SharedValues(), 2)
}

func TestNode_ReceiveInputInvalid(t *testing.T) {
	n := New(0, group.Toy(), zerolog.Nop())
	assert.ErrorIs(t, n.ReceiveInput(0, nat(0), nat(2)), ErrInvalidInput)
	assert.ErrorIs(t, n.ReceiveInput(0, nat(101), nat(2)), ErrInvalidInput)
	assert.Error(t, n.ReceiveInput(0, nat(5), nil))
	assert.Empty(t, n.SharedValues())
}

func TestNode_ComputeCorrectionValue(t *testing.T) {
	n := New(0, group.Toy(), zerolog.Nop())
	n.ComputeCorrectionValue(1, []*saferith.Nat{nat(2), nat(3)})
	gamma, ok := n.CorrectionValue(1)
	require.True(t, ok)
	assert.Equal(t, uint64(5), gamma.Big().Uint64())

	// reduced mod p-1 = 100
	n.ComputeCorrectionValue(2, []*saferith.Nat{nat(60), nat(99), nat(45)})
	gamma, _ = n.CorrectionValue(2)
	assert.Equal(t, uint64(4), gamma.Big().Uint64())

	// order independent
	n.ComputeCorrectionValue(3, []*saferith.Nat{nat(45), nat(60), nat(99)})
	other, _ := n.CorrectionValue(3)
	assert.True(t, gamma.Eq(other) == 1)

	_, ok = n.CorrectionValue(4)
	assert.False(t, ok)
	assert.Len(t, n.CorrectionValues(), 3)
}

func TestNode_ComputePartialProduct(t *testing.T) {
	n := New(1, group.Toy(), zerolog.Nop())
	require.NoError(t, n.ReceiveInput(1, nat(3), nat(3)))

	assert.True(t, n.ComputePartialProduct(1, 1))
	share, _ := n.SharedValue(1)
	partial, ok := n.PartialProduct(1, 1)
	require.True(t, ok)
	assert.True(t, share.Eq(partial) == 1)
	assert.Equal(t, int64(0), n.Missed())

	// missing share is a no-op
	before := n.PartialProducts()
	assert.False(t, n.ComputePartialProduct(2, 3))
	assert.Equal(t, before, n.PartialProducts())
	_, ok = n.PartialProduct(2, 3)
	assert.False(t, ok)
	assert.Equal(t, int64(1), n.Missed())
}

func TestNode_CopiesAreIndependent(t *testing.T) {
	n := New(0, group.Toy(), zerolog.Nop())
	require.NoError(t, n.ReceiveInput(0, nat(5), nat(2)))
	share, _ := n.SharedValue(0)
	share.SetUint64(99)
	again, _ := n.SharedValue(0)
	assert.Equal(t, uint64(23), again.Big().Uint64())
}

func TestNode_Concurrent(t *testing.T) {
	n := New(0, group.Default(), zerolog.Nop())
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			input := topology.InputID(i)
			assert.NoError(t, n.ReceiveInput(input, nat(uint64(i+1)), nat(uint64(i))))
			n.ComputePartialProduct(topology.TermID(i%2), input)
		}(i)
	}
	wg.Wait()
	assert.Len(t, n.SharedValues(), 16)
	assert.Len(t, n.PartialProducts(), 16)
}

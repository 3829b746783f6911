package evaluate

import (
	"sync"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/sum-of-products/internal/round"
	"github.com/taurusgroup/sum-of-products/internal/test"
	"github.com/taurusgroup/sum-of-products/pkg/math/group"
	"github.com/taurusgroup/sum-of-products/pkg/math/sample"
	"github.com/taurusgroup/sum-of-products/pkg/party"
	"github.com/taurusgroup/sum-of-products/pkg/pool"
	"github.com/taurusgroup/sum-of-products/pkg/protocol"
	"github.com/taurusgroup/sum-of-products/pkg/topology"
)

func nats(xs ...uint64) map[topology.InputID]*saferith.Nat {
	m := make(map[topology.InputID]*saferith.Nat, len(xs))
	for i, x := range xs {
		m[topology.InputID(i)] = new(saferith.Nat).SetUint64(x)
	}
	return m
}

func toyMaterials(t *testing.T) map[party.ID]*Material {
	materials, err := Deal(topology.Default(), nats(5, 3, 7, 4), nats(2, 3, 6, 8))
	require.NoError(t, err)
	return materials
}

func startRounds(t *testing.T, grp *group.Group, topo *topology.Topology, materials map[party.ID]*Material, pl *pool.Pool) []round.Session {
	rounds := make([]round.Session, 0, len(topo.Parties))
	for _, id := range topo.Parties {
		r, err := StartEvaluate(id, grp, topo, materials[id], pl, zerolog.Nop())(nil)
		require.NoError(t, err, "round creation should not result in an error")
		rounds = append(rounds, r)
	}
	return rounds
}

func runRounds(t *testing.T, rounds []round.Session, rule test.Rule) {
	for {
		done, err := test.Rounds(rounds, rule)
		require.NoError(t, err, "failed to process round")
		if done {
			return
		}
	}
}

func checkOutput(t *testing.T, rounds []round.Session) *Result {
	var first *Result
	for _, r := range rounds {
		require.IsType(t, &round.Output{}, r, "expected result round")
		resultRound := r.(*round.Output)
		require.IsType(t, &Result{}, resultRound.Result, "expected evaluation result")
		result := resultRound.Result.(*Result)
		if first == nil {
			first = result
			continue
		}
		assert.True(t, first.Z.Eq(result.Z) == 1, "parties disagree on z")
	}
	return first
}

func TestDeal(t *testing.T) {
	materials := toyMaterials(t)
	require.Len(t, materials, 4)
	assert.Len(t, materials[0].TermLambdas, 1)
	assert.Empty(t, materials[1].TermLambdas)
	assert.Len(t, materials[2].TermLambdas[2], 2)
	assert.Equal(t, uint64(7), materials[2].Inputs[2].Big().Uint64())

	_, err := Deal(topology.Default(), nats(5, 3, 7), nats(2, 3, 6, 8))
	assert.ErrorIs(t, err, ErrMissingMaterial)
}

func TestEvaluate(t *testing.T) {
	pl := pool.NewPool(0)
	defer pl.TearDown()

	rounds := startRounds(t, group.Toy(), topology.Default(), toyMaterials(t), pl)
	runRounds(t, rounds, nil)
	result := checkOutput(t, rounds)

	assert.Equal(t, uint64(43), result.Z.Big().Uint64())
	assert.Equal(t, uint64(15), result.Terms[1].Big().Uint64())
	assert.Equal(t, uint64(28), result.Terms[2].Big().Uint64())
}

func TestEvaluate_Random(t *testing.T) {
	grp := group.Default()
	topo := topology.Default()
	rand := sample.NewSeededReader([]byte("evaluate"))
	for i := 0; i < 5; i++ {
		inputs := map[topology.InputID]*saferith.Nat{}
		lambdas := map[topology.InputID]*saferith.Nat{}
		for _, input := range topo.InputIDs() {
			inputs[input] = sample.Input(rand, grp)
			lambdas[input] = sample.Lambda(rand, grp)
		}
		materials, err := Deal(topo, inputs, lambdas)
		require.NoError(t, err)

		rounds := startRounds(t, grp, topo, materials, nil)
		runRounds(t, rounds, nil)
		result := checkOutput(t, rounds)

		expected := grp.Add(grp.Mul(inputs[0], inputs[1]), grp.Mul(inputs[2], inputs[3]))
		assert.True(t, expected.Eq(result.Z) == 1)
	}
}

func TestStartEvaluate_Invalid(t *testing.T) {
	topo := topology.Default()
	_, err := StartEvaluate(0, group.Toy(), topo, nil, nil, zerolog.Nop())(nil)
	assert.ErrorIs(t, err, ErrMissingMaterial)

	_, err = StartEvaluate(7, group.Toy(), topo, &Material{}, nil, zerolog.Nop())(nil)
	assert.Error(t, err)

	_, err = StartEvaluateNode(nil, group.Toy(), topo, &Material{}, nil, zerolog.Nop())(nil)
	assert.Error(t, err)

	bad := topology.Default()
	bad.Terms = nil
	_, err = StartEvaluate(0, group.Toy(), bad, &Material{}, nil, zerolog.Nop())(nil)
	assert.ErrorIs(t, err, topology.ErrNoTerms)
}

func TestEvaluate_MissingLeaderExponents(t *testing.T) {
	materials := toyMaterials(t)
	delete(materials[2].TermLambdas, 2)
	rounds := startRounds(t, group.Toy(), topology.Default(), materials, nil)
	_, err := test.Rounds(rounds, nil)
	assert.ErrorIs(t, err, ErrMissingMaterial)
}

type forgeCorrection struct{}

func (forgeCorrection) ModifyBefore(round.Session) {}

func (forgeCorrection) ModifyMessage(msg *round.Message) {
	body, ok := msg.Content.(*broadcast2)
	if !ok || msg.From != 1 {
		return
	}
	// node 1 leads no term
	body.Corrections = append(body.Corrections, CorrectionEntry{Term: 1, Value: new(saferith.Nat).SetUint64(0)})
}

type forgePartial struct{}

func (forgePartial) ModifyBefore(round.Session) {}

func (forgePartial) ModifyMessage(msg *round.Message) {
	body, ok := msg.Content.(*broadcast2)
	if !ok || msg.From != 3 {
		return
	}
	// input 3 does not feed term 1
	body.Partials = append(body.Partials, PartialEntry{Term: 1, Input: 3, Value: new(saferith.Nat).SetUint64(1)})
}

func TestEvaluate_RejectsForgedMessages(t *testing.T) {
	for name, rule := range map[string]test.Rule{
		"correction": forgeCorrection{},
		"partial":    forgePartial{},
	} {
		t.Run(name, func(t *testing.T) {
			rounds := startRounds(t, group.Toy(), topology.Default(), toyMaterials(t), nil)
			_, err := test.Rounds(rounds, rule)
			assert.Error(t, err)
		})
	}
}

func TestEvaluate_Handler(t *testing.T) {
	topo := topology.Default()
	grp := group.Toy()
	materials := toyMaterials(t)
	network := test.NewNetwork(topo.Parties)
	sessionID := []byte("handler test")

	var wg sync.WaitGroup
	results := make([]*Result, len(topo.Parties))
	for i, id := range topo.Parties {
		h, err := protocol.NewHandler(StartEvaluate(id, grp, topo, materials[id], nil, zerolog.Nop()), sessionID, zerolog.Nop())
		require.NoError(t, err)
		wg.Add(1)
		go func(i int, id party.ID, h *protocol.Handler) {
			defer wg.Done()
			test.HandlerLoop(id, h, network)
			r, err := h.Result()
			if assert.NoError(t, err) {
				results[i] = r.(*Result)
			}
		}(i, id, h)
	}
	wg.Wait()

	for _, result := range results {
		require.NotNil(t, result)
		assert.Equal(t, uint64(43), result.Z.Big().Uint64())
	}
}

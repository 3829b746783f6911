package round_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/sum-of-products/internal/round"
	"github.com/taurusgroup/sum-of-products/internal/test"
	"github.com/taurusgroup/sum-of-products/pkg/math/group"
	"github.com/taurusgroup/sum-of-products/pkg/party"
)

func TestNewSession(t *testing.T) {
	RNumber := round.Number(5)
	N := 6
	partyIDs := test.PartyIDs(N)
	selfID := partyIDs[0]
	tests := []struct {
		name        string
		roundNumber round.Number
		selfID      party.ID
		partyIDs    []party.ID
		group       *group.Group
		wantErr     bool
	}{
		{
			"valid",
			RNumber,
			selfID,
			partyIDs,
			group.Toy(),
			false,
		},
		{
			"unsorted partyIDs",
			RNumber,
			selfID,
			[]party.ID{3, 1, 0, 2},
			group.Toy(),
			false,
		},
		{
			"selfID not included",
			RNumber,
			party.ID(N + 1),
			partyIDs,
			group.Toy(),
			true,
		},
		{
			"duplicate selfID",
			RNumber,
			selfID,
			append(partyIDs.Copy(), selfID),
			group.Toy(),
			true,
		},
		{
			"duplicate partyIDs",
			RNumber,
			selfID,
			append(partyIDs.Copy(), partyIDs...),
			group.Toy(),
			true,
		},
		{
			"no parties",
			RNumber,
			selfID,
			nil,
			group.Toy(),
			true,
		},
		{
			"no group",
			RNumber,
			selfID,
			partyIDs,
			nil,
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := round.Info{
				ProtocolID:       "TEST",
				FinalRoundNumber: tt.roundNumber,
				SelfID:           tt.selfID,
				PartyIDs:         tt.partyIDs,
				Group:            tt.group,
			}
			_, err := round.NewSession(info, nil, nil)
			if tt.wantErr == (err == nil) {
				t.Error(err)
			}
		})
	}
}

func TestSSID(t *testing.T) {
	partyIDs := test.PartyIDs(4)
	info := round.Info{
		ProtocolID:       "TEST",
		FinalRoundNumber: 2,
		SelfID:           partyIDs[0],
		PartyIDs:         partyIDs,
		Group:            group.Toy(),
	}
	a, err := round.NewSession(info, nil, nil)
	require.NoError(t, err)

	// every party agrees on the SSID
	info.SelfID = partyIDs[3]
	b, err := round.NewSession(info, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, a.SSID(), b.SSID())
	assert.Equal(t, partyIDs.Remove(partyIDs[3]), b.OtherPartyIDs())
	assert.Equal(t, 4, b.N())

	// a different session id or group changes it
	c, err := round.NewSession(info, []byte("session"), nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.SSID(), c.SSID())

	info.Group = group.Default()
	d, err := round.NewSession(info, nil, nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.SSID(), d.SSID())
}

func TestHelper_Messages(t *testing.T) {
	partyIDs := test.PartyIDs(2)
	h, err := round.NewSession(round.Info{
		ProtocolID: "TEST",
		SelfID:     partyIDs[0],
		PartyIDs:   partyIDs,
		Group:      group.Toy(),
	}, nil, nil)
	require.NoError(t, err)

	out := make(chan *round.Message, 1)
	require.NoError(t, h.BroadcastMessage(out, nil))
	assert.ErrorIs(t, h.SendMessage(out, nil, partyIDs[1]), round.ErrOutChanFull)

	msg := <-out
	assert.True(t, msg.IsFor(partyIDs[1]))
	assert.False(t, msg.IsFor(partyIDs[0]))
}

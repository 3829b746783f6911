package protocol

import (
	"fmt"

	"github.com/taurusgroup/sum-of-products/internal/hash"
	"github.com/taurusgroup/sum-of-products/internal/round"
	"github.com/taurusgroup/sum-of-products/pkg/party"
)

// Message is a serialized round message, ready to be sent over the wire.
type Message struct {
	// SSID is a byte string which uniquely identifies the session this message belongs to.
	SSID []byte
	// From is the party.ID of the sender
	From party.ID
	// To is the intended recipient for this message, ignored when Broadcast is set.
	To party.ID
	// Broadcast is true if the message is intended for all other parties.
	Broadcast bool
	// Protocol identifies the protocol this message belongs to
	Protocol string
	// RoundNumber is the index of the round this message belongs to
	RoundNumber round.Number
	// Data is the cbor encoded content consumed by the round.
	Data []byte
}

// String implements fmt.Stringer.
func (m Message) String() string {
	to := m.To.String()
	if m.Broadcast {
		to = "all"
	}
	return fmt.Sprintf("message: round %d, from: %s, to %s, protocol: %s", m.RoundNumber, m.From, to, m.Protocol)
}

// IsFor returns true if the message is intended for the designated party.
func (m Message) IsFor(id party.ID) bool {
	if m.From == id {
		return false
	}
	return m.Broadcast || m.To == id
}

// Hash returns a digest of the message content, including the headers.
func (m Message) Hash() []byte {
	h := hash.New(
		hash.BytesWithDomain{TheDomain: "SSID", Bytes: m.SSID},
		m.From,
		m.To,
		hash.BytesWithDomain{TheDomain: "Protocol", Bytes: []byte(m.Protocol)},
		m.RoundNumber,
		hash.BytesWithDomain{TheDomain: "Content", Bytes: m.Data},
	)
	if m.Broadcast {
		_ = h.WriteAny(&hash.BytesWithDomain{TheDomain: "Broadcast", Bytes: []byte{1}})
	}
	return h.Sum()
}

package round

import (
	"github.com/taurusgroup/sum-of-products/pkg/party"
)

// Content represents the message, either broadcast or P2P returned by a round
// during finalization.
type Content interface {
	RoundNumber() Number
}

// Message is a round message before serialization.
// If Broadcast is set, To is ignored and the message is intended for all other parties.
type Message struct {
	From, To  party.ID
	Broadcast bool
	Content   Content
}

// IsFor returns true if the message is intended for the designated party.
func (m Message) IsFor(id party.ID) bool {
	if m.From == id {
		return false
	}
	return m.Broadcast || m.To == id
}

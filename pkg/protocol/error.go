package protocol

import (
	"errors"
	"fmt"

	"github.com/taurusgroup/sum-of-products/internal/round"
	"github.com/taurusgroup/sum-of-products/pkg/party"
)

var (
	ErrNotFinished      = errors.New("protocol: not finished")
	ErrWrongSSID        = errors.New("protocol: SSID mismatch")
	ErrWrongProtocolID  = errors.New("protocol: wrong protocol ID")
	ErrWrongDestination = errors.New("protocol: message is not intended for selfID")
	ErrUnknownSender    = errors.New("protocol: unknown sender")
	ErrInvalidRound     = errors.New("protocol: round number is invalid for this protocol")
	ErrDuplicate        = errors.New("protocol: message was already handled")
)

// Error is a custom error for protocols which contains information about the responsible round in which it occurred,
// and the parties responsible.
type Error struct {
	// RoundNumber where the error occurred
	RoundNumber round.Number
	// Culprits is empty if the identity of the misbehaving party cannot be known
	Culprits []party.ID
	// Err is the underlying error
	Err error
}

func (e Error) Error() string {
	if len(e.Culprits) == 0 {
		return fmt.Sprintf("round %d: %s", e.RoundNumber, e.Err)
	}
	return fmt.Sprintf("round %d: culprits %v: %s", e.RoundNumber, e.Culprits, e.Err)
}

func (e Error) Unwrap() error {
	return e.Err
}

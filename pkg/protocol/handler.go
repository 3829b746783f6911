package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"
	"github.com/taurusgroup/sum-of-products/internal/round"
	"github.com/taurusgroup/sum-of-products/pkg/party"
)

// StartFunc is function that creates the first round of a protocol.
// If the creation fails (likely due to misconfiguration), and error is returned.
type StartFunc func(sessionID []byte) (round.Session, error)

// Handler represents an execution of a given protocol.
// It provides a simple interface for the user to receive/deliver protocol messages.
type Handler struct {
	currentRound round.Session
	// messages holds the messages received for each round, indexed by sender.
	// processed messages for the current round are marked in received.
	messages map[round.Number]map[party.ID]*Message
	received map[party.ID]bool

	log zerolog.Logger

	result interface{}
	err    error

	out  chan *Message
	done bool
	mtx  sync.Mutex
}

// NewHandler expects a StartFunc for the desired protocol. It returns a handler that the user can interact with.
func NewHandler(create StartFunc, sessionID []byte, log zerolog.Logger) (*Handler, error) {
	r, err := create(sessionID)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to create round: %w", err)
	}
	n := r.N()
	h := &Handler{
		currentRound: r,
		messages:     make(map[round.Number]map[party.ID]*Message, r.FinalRoundNumber()),
		out:          make(chan *Message, (int(r.FinalRoundNumber())+1)*n),
	}
	h.log = log.With().
		Str("protocol", r.ProtocolID()).
		Stringer("party", r.SelfID()).
		Int("round", int(r.Number())).
		Logger()
	h.log.Debug().Msg("start")

	h.mtx.Lock()
	defer h.mtx.Unlock()
	h.resetReceived()
	if h.receivedAll() {
		h.finalize()
	}
	return h, nil
}

// Listen returns a channel with outgoing messages that must be sent to other parties.
// The channel is closed when either the protocol finishes or an error occurs.
func (h *Handler) Listen() <-chan *Message {
	return h.out
}

// Result returns the protocol result if the protocol completed successfully. Otherwise an error is returned.
func (h *Handler) Result() (interface{}, error) {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	if h.result != nil {
		return h.result, nil
	}
	if h.err != nil {
		return nil, h.err
	}
	return nil, ErrNotFinished
}

// CanAccept returns true if the message is designated for this protocol execution.
func (h *Handler) CanAccept(msg *Message) bool {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	return h.validate(msg) == nil
}

// Accept tries to process the given message. If an abort occurs, the channel returned by Listen() is closed,
// and an error is returned by Result().
//
// This function may be called concurrently from different threads but may block until all previous calls have finished.
func (h *Handler) Accept(msg *Message) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	if h.done {
		return
	}
	if err := h.validate(msg); err != nil {
		h.log.Warn().Err(err).Stringer("msg", msg).Msg("rejected message")
		return
	}
	if _, ok := h.messages[msg.RoundNumber][msg.From]; ok {
		h.log.Warn().Err(ErrDuplicate).Stringer("msg", msg).Msg("rejected message")
		return
	}
	if h.messages[msg.RoundNumber] == nil {
		h.messages[msg.RoundNumber] = make(map[party.ID]*Message, h.currentRound.N())
	}
	h.messages[msg.RoundNumber][msg.From] = msg

	if msg.RoundNumber != h.currentRound.Number() {
		h.log.Debug().Stringer("msg", msg).Msg("queued message for later round")
		return
	}
	if !h.process(msg) {
		return
	}
	if h.receivedAll() {
		h.finalize()
	}
}

// Stop cancels the current execution of the protocol, and alerts the other users.
func (h *Handler) Stop() {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	if h.err == nil && h.result == nil {
		h.abort(errors.New("aborted by user"))
	}
}

func (h *Handler) validate(msg *Message) error {
	if msg == nil {
		return errors.New("protocol: nil message")
	}
	if !msg.IsFor(h.currentRound.SelfID()) {
		return ErrWrongDestination
	}
	if !bytes.Equal(msg.SSID, h.currentRound.SSID()) {
		return ErrWrongSSID
	}
	if msg.Protocol != h.currentRound.ProtocolID() {
		return ErrWrongProtocolID
	}
	if !h.currentRound.OtherPartyIDs().Contains(msg.From) {
		return ErrUnknownSender
	}
	if msg.RoundNumber == 0 || msg.RoundNumber > h.currentRound.FinalRoundNumber() {
		return ErrInvalidRound
	}
	if msg.RoundNumber < h.currentRound.Number() {
		return ErrDuplicate
	}
	return nil
}

// process decodes the message and hands it to the current round.
// It returns false if the protocol was aborted.
func (h *Handler) process(msg *Message) bool {
	content := h.currentRound.MessageContent()
	if content == nil {
		h.abort(round.ErrInvalidContent, msg.From)
		return false
	}
	if err := cbor.Unmarshal(msg.Data, content); err != nil {
		h.abort(fmt.Errorf("decode: %w", err), msg.From)
		return false
	}
	roundMsg := round.Message{
		From:      msg.From,
		To:        msg.To,
		Broadcast: msg.Broadcast,
		Content:   content,
	}
	if err := h.currentRound.VerifyMessage(roundMsg); err != nil {
		h.abort(err, msg.From)
		return false
	}
	if err := h.currentRound.StoreMessage(roundMsg); err != nil {
		h.abort(err, msg.From)
		return false
	}
	h.received[msg.From] = true
	return true
}

func (h *Handler) finalize() {
	out := make(chan *round.Message, h.currentRound.N()+1)
	r, err := h.currentRound.Finalize(out)
	close(out)
	if err != nil || r == nil {
		if err == nil {
			err = errors.New("round returned no successor")
		}
		h.abort(err)
		return
	}

	for roundMsg := range out {
		data, err := cbor.Marshal(roundMsg.Content)
		if err != nil {
			h.abort(fmt.Errorf("encode: %w", err))
			return
		}
		msg := &Message{
			SSID:        r.SSID(),
			From:        r.SelfID(),
			To:          roundMsg.To,
			Broadcast:   roundMsg.Broadcast,
			Protocol:    r.ProtocolID(),
			RoundNumber: roundMsg.Content.RoundNumber(),
			Data:        data,
		}
		h.out <- msg
	}

	switch R := r.(type) {
	case *round.Abort:
		h.abort(R.Err, R.Culprits...)
		return
	case *round.Output:
		h.result = R.Result
		h.log.Debug().Msg("finished")
		h.stop()
		return
	}

	h.currentRound = r
	h.log = h.log.With().Int("round", int(r.Number())).Logger()
	h.log.Debug().Msg("round advanced")

	h.resetReceived()
	for _, msg := range h.messages[r.Number()] {
		if !h.process(msg) {
			return
		}
	}
	if h.receivedAll() {
		h.finalize()
	}
}

func (h *Handler) resetReceived() {
	h.received = make(map[party.ID]bool, h.currentRound.N())
	if h.currentRound.MessageContent() == nil {
		return
	}
	for _, id := range h.currentRound.OtherPartyIDs() {
		h.received[id] = false
	}
}

func (h *Handler) receivedAll() bool {
	for _, received := range h.received {
		if !received {
			return false
		}
	}
	return true
}

// abort records an Error about the current round and a possible culprit, and stops the handler.
func (h *Handler) abort(err error, culprits ...party.ID) {
	if h.err == nil {
		h.err = Error{
			RoundNumber: h.currentRound.Number(),
			Culprits:    culprits,
			Err:         err,
		}
		h.log.Error().Err(h.err).Msg("protocol aborted")
	}
	h.stop()
}

func (h *Handler) stop() {
	if !h.done {
		h.done = true
		close(h.out)
	}
}

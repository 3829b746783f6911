package test

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/taurusgroup/sum-of-products/internal/round"
	"golang.org/x/sync/errgroup"
)

// Rule describes various hooks that can be applied to a protocol execution.
type Rule interface {
	// ModifyBefore modifies r before r.Finalize() is called.
	ModifyBefore(r round.Session)
	// ModifyMessage modifies a message before it is delivered to the other parties.
	ModifyMessage(msg *round.Message)
}

// Rounds advances every session by one round, delivering the messages produced by each party to the others
// after a cbor round trip.
// It returns true once all sessions have reached an Output or Abort round.
func Rounds(rounds []round.Session, rule Rule) (bool, error) {
	var (
		err      error
		errGroup errgroup.Group
		N        = len(rounds)
		out      = make(chan *round.Message, N*(N+1))
	)

	if _, err = checkAllRoundsSame(rounds); err != nil {
		return false, err
	}
	for idx := range rounds {
		idx := idx
		r := rounds[idx]
		errGroup.Go(func() error {
			if rule != nil {
				rule.ModifyBefore(r)
			}
			rNew, err := r.Finalize(out)
			if err != nil {
				return err
			}
			if rNew != nil {
				rounds[idx] = rNew
			}
			return nil
		})
	}
	if err = errGroup.Wait(); err != nil {
		return false, err
	}
	close(out)

	roundType, err := checkAllRoundsSame(rounds)
	if err != nil {
		return false, err
	}
	if roundType == reflect.TypeOf(&round.Output{}) || roundType == reflect.TypeOf(&round.Abort{}) {
		return true, nil
	}

	for msg := range out {
		if rule != nil {
			rule.ModifyMessage(msg)
		}
		msgBytes, err := cbor.Marshal(msg.Content)
		if err != nil {
			return false, err
		}
		for _, r := range rounds {
			r := r
			if !msg.IsFor(r.SelfID()) || msg.Content.RoundNumber() != r.Number() {
				continue
			}
			m := *msg
			errGroup.Go(func() error {
				m.Content = r.MessageContent()
				if err := cbor.Unmarshal(msgBytes, m.Content); err != nil {
					return err
				}
				if err := r.VerifyMessage(m); err != nil {
					return err
				}
				return r.StoreMessage(m)
			})
		}
		if err = errGroup.Wait(); err != nil {
			return false, err
		}
	}

	return false, nil
}

func checkAllRoundsSame(rounds []round.Session) (reflect.Type, error) {
	var t reflect.Type
	for _, r := range rounds {
		t2 := reflect.TypeOf(r)
		if t == nil {
			t = t2
		} else if t != t2 {
			return t, fmt.Errorf("two different rounds: %s %s", t, t2)
		}
	}
	return t, nil
}

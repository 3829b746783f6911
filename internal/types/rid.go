package types

import (
	"errors"
	"fmt"
	"io"
)

// RIDSize is the length in bytes of a RID.
const RIDSize = 32

// RID is a random identifier used to separate protocol executions. An empty slice is considered invalid.
type RID []byte

// NewRID reads a fresh RID from r.
func NewRID(r io.Reader) (RID, error) {
	rid := make(RID, RIDSize)
	if _, err := io.ReadFull(r, rid); err != nil {
		return nil, fmt.Errorf("rid: %w", err)
	}
	return rid, nil
}

// WriteTo implements io.WriterTo interface.
func (rid RID) WriteTo(w io.Writer) (int64, error) {
	if rid == nil {
		return 0, io.ErrUnexpectedEOF
	}
	n, err := w.Write(rid)
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (RID) Domain() string { return "RID" }

// Validate ensure that the RID is the correct length and is not identically 0.
func (rid RID) Validate() error {
	if l := len(rid); l != RIDSize {
		return fmt.Errorf("rid: incorrect length (got %d, expected %d)", l, RIDSize)
	}
	for _, b := range rid {
		if b != 0 {
			return nil
		}
	}
	return errors.New("rid: rid is 0")
}

package party

import (
	"encoding/binary"
	"io"
	"strconv"
)

// ByteSize is the number of bytes required to store an ID.
const ByteSize = 2

// ID represents the identifier of a particular node.
// IDs are small integers, by convention in [0, n) for n nodes.
type ID uint16

// Bytes returns a []byte slice of length party.ByteSize
func (id ID) Bytes() []byte {
	bytes := make([]byte, ByteSize)
	binary.BigEndian.PutUint16(bytes, uint16(id))
	return bytes
}

// String returns a base 10 representation of ID.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// FromString reads a base 10 string and attempts to generate an ID from it.
func FromString(str string) (ID, error) {
	p, err := strconv.ParseUint(str, 10, 16)
	if err != nil {
		return 0, err
	}
	return ID(p), nil
}

// WriteTo implements io.WriterTo interface.
func (id ID) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(id.Bytes())
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (ID) Domain() string { return "ID" }

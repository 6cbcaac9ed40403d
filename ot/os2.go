package ot

import (
	"encoding/binary"
	"errors"
)

// firstCharIndexOffset and lastCharIndexOffset are the byte offsets of
// usFirstCharIndex/usLastCharIndex within an OS/2 table, unchanged since
// OS/2 version 0.
const (
	firstCharIndexOffset = 64
	lastCharIndexOffset  = 66
	minOS2Length         = lastCharIndexOffset + 2
)

// ErrMalformedOS2 is returned when an OS/2 table is too short to hold the
// char-index range fields.
var ErrMalformedOS2 = errors.New("ot: malformed OS/2 table")

// OS2 holds the two OS/2 fields the cmap format-4 parser reads and may
// widen (spec §4.2). The cmap sanitizer treats the rest of the OS/2 table
// as opaque; OS2 is not a full OS/2 table model.
type OS2 struct {
	FirstCharIndex uint16
	LastCharIndex  uint16
}

// ReadOS2 extracts the char-index range from a raw "OS/2" table.
func ReadOS2(data []byte) (*OS2, error) {
	if len(data) < minOS2Length {
		return nil, ErrMalformedOS2
	}
	return &OS2{
		FirstCharIndex: binary.BigEndian.Uint16(data[firstCharIndexOffset:]),
		LastCharIndex:  binary.BigEndian.Uint16(data[lastCharIndexOffset:]),
	}, nil
}

// Patch writes the (possibly widened) char-index range back into a raw
// "OS/2" table in place.
func (o *OS2) Patch(data []byte) error {
	if len(data) < minOS2Length {
		return ErrMalformedOS2
	}
	binary.BigEndian.PutUint16(data[firstCharIndexOffset:], o.FirstCharIndex)
	binary.BigEndian.PutUint16(data[lastCharIndexOffset:], o.LastCharIndex)
	return nil
}

package ot

import "encoding/binary"

// Writer is the output stream the serialiser writes a canonical table into.
// It is a growable, seekable byte buffer that also accumulates an OpenType
// table checksum (the 32-bit sum of the table's content, taken 4 bytes at
// a time) as bytes are written, because the serialiser needs to rewrite the
// subtable directory after the bodies that follow it are already written
// and checksummed (spec §4.7, §5).
//
// Grounded on the checksum arithmetic in subset/serialize.go's
// calcChecksum and the save/patch idiom in
// seehuhn-go-pdf/sfnt/header/write.go, combined into a stream that exposes
// Tell/Seek/Pad and an explicit checksum snapshot so a caller can seek
// backwards, overwrite already-emitted bytes, and resume without corrupting
// the running checksum.
type Writer struct {
	buf      []byte
	pos      int
	checksum uint32
	pending  []byte // 0-3 bytes carried over from the last Write, not yet a full word
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the accumulated output. The returned slice aliases the
// Writer's internal buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Tell returns the current write position.
func (w *Writer) Tell() int {
	return w.pos
}

// Seek moves the write cursor to an absolute position within already
// written bytes, or exactly at the end (to resume appending). It cannot
// seek past the end of what has been written so far.
func (w *Writer) Seek(pos int) error {
	if pos < 0 || pos > len(w.buf) {
		return ErrInvalidOffset
	}
	w.pos = pos
	return nil
}

// ChecksumState is an opaque snapshot of the running checksum, produced by
// SaveChecksumState and consumed by RestoreChecksum.
type ChecksumState struct {
	sum     uint32
	pending []byte
}

// SaveChecksumState snapshots the running checksum, including any bytes not
// yet folded into a full word.
func (w *Writer) SaveChecksumState() ChecksumState {
	return ChecksumState{sum: w.checksum, pending: append([]byte(nil), w.pending...)}
}

// ResetChecksum zeroes the running checksum, so that bytes written next are
// not folded into a total that will be discarded (used before rewriting an
// already-checksummed region, per spec §4.7).
func (w *Writer) ResetChecksum() {
	w.checksum = 0
	w.pending = nil
}

// RestoreChecksum restores a previously saved checksum, discarding whatever
// accumulated since the snapshot was taken.
func (w *Writer) RestoreChecksum(s ChecksumState) {
	w.checksum = s.sum
	w.pending = append([]byte(nil), s.pending...)
}

// Write appends (or overwrites, if the cursor is not at the end) raw
// bytes, folding them into the running checksum four bytes at a time.
func (w *Writer) Write(p []byte) error {
	w.ensure(len(p))
	copy(w.buf[w.pos:], p)
	w.pos += len(p)
	w.foldChecksum(p)
	return nil
}

// WriteU16 appends a big-endian uint16.
func (w *Writer) WriteU16(v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return w.Write(b[:])
}

// WriteU32 appends a big-endian uint32.
func (w *Writer) WriteU32(v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return w.Write(b[:])
}

// Pad appends n zero bytes.
func (w *Writer) Pad(n int) error {
	if n < 0 {
		return ErrInvalidOffset
	}
	return w.Write(make([]byte, n))
}

// ensure grows the buffer so that n more bytes can be written at w.pos.
func (w *Writer) ensure(n int) {
	need := w.pos + n
	if need <= len(w.buf) {
		return
	}
	grown := make([]byte, need)
	copy(grown, w.buf)
	w.buf = grown
}

// foldChecksum folds p into the running 32-bit checksum, four bytes at a
// time, matching the OpenType table-checksum algorithm (big-endian uint32
// words, short final word zero-padded on the right). Leftover bytes from a
// short Write (e.g. two consecutive WriteU16 calls forming one word, or a
// verbatim subtable copy of odd length) carry over in w.pending so a word
// split across two Write calls still folds correctly.
func (w *Writer) foldChecksum(p []byte) {
	buf := append(w.pending, p...)
	i := 0
	for ; i+4 <= len(buf); i += 4 {
		w.checksum += binary.BigEndian.Uint32(buf[i:])
	}
	w.pending = append([]byte(nil), buf[i:]...)
}

// FinalChecksum folds any leftover partial word (zero-padded on the right)
// into the running checksum and returns the total. Call it once, after all
// writes to the stream are done.
func (w *Writer) FinalChecksum() uint32 {
	if len(w.pending) > 0 {
		var last [4]byte
		copy(last[:], w.pending)
		w.checksum += binary.BigEndian.Uint32(last[:])
		w.pending = nil
	}
	return w.checksum
}

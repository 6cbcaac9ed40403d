package ot

import (
	"encoding/binary"
	"testing"
)

func buildMaxp(version uint32, numGlyphs uint16) []byte {
	b := make([]byte, 6)
	binary.BigEndian.PutUint32(b[0:], version)
	binary.BigEndian.PutUint16(b[4:], numGlyphs)
	return b
}

func TestNumGlyphsVersion05(t *testing.T) {
	n, err := NumGlyphs(buildMaxp(0x00005000, 42))
	if err != nil || n != 42 {
		t.Fatalf("got (%d, %v), want (42, nil)", n, err)
	}
}

func TestNumGlyphsVersion1(t *testing.T) {
	n, err := NumGlyphs(buildMaxp(0x00010000, 500))
	if err != nil || n != 500 {
		t.Fatalf("got (%d, %v), want (500, nil)", n, err)
	}
}

func TestNumGlyphsRejectsUnknownVersion(t *testing.T) {
	if _, err := NumGlyphs(buildMaxp(0x00020000, 10)); err != ErrMalformedMaxp {
		t.Fatalf("got %v, want ErrMalformedMaxp", err)
	}
}

func TestNumGlyphsRejectsZero(t *testing.T) {
	if _, err := NumGlyphs(buildMaxp(0x00005000, 0)); err != ErrMalformedMaxp {
		t.Fatalf("got %v, want ErrMalformedMaxp", err)
	}
}

func TestNumGlyphsRejectsShortTable(t *testing.T) {
	if _, err := NumGlyphs([]byte{0, 0, 0}); err != ErrMalformedMaxp {
		t.Fatalf("got %v, want ErrMalformedMaxp", err)
	}
}

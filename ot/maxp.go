package ot

import "errors"

// ErrMalformedMaxp is returned by NumGlyphs when the maxp table is too
// short, carries an unrecognised version, or declares zero glyphs.
var ErrMalformedMaxp = errors.New("ot: malformed maxp table")

// NumGlyphs reads the numGlyphs field from a "maxp" table. The cmap
// sanitizer treats maxp as an external collaborator (see spec §1); this
// reader exists only so that callers assembling a full pipeline have a
// ready-made way to produce the num_glyphs argument cmap.Parse expects.
func NumGlyphs(data []byte) (int, error) {
	if len(data) < 6 {
		return 0, ErrMalformedMaxp
	}
	version := uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])
	if version != 0x00005000 && version != 0x00010000 {
		return 0, ErrMalformedMaxp
	}
	n := int(data[4])<<8 | int(data[5])
	if n == 0 {
		return 0, ErrMalformedMaxp
	}
	return n, nil
}

package cmap

import (
	"encoding/binary"
	"errors"

	"github.com/boxesandglue/cmapsan/ot"
)

// ErrBadFormat4Header is returned when a format 4 subtable's segment-count
// header fields (searchRange/entrySelector/rangeShift) are inconsistent
// with segCount, segCount itself is malformed, the reserved padding word is
// non-zero, or a segment other than the final one has an odd
// id_range_offset.
var ErrBadFormat4Header = errors.New("cmap: malformed format 4 header")

// ErrBadFormat4Segments is returned when a format 4 subtable's segments are
// not strictly increasing, don't end at 0xFFFF, or reference an
// out-of-range glyph id.
var ErrBadFormat4Segments = errors.New("cmap: malformed format 4 segments")

// parseFormat4 validates a format 4 (segmented BMP) subtable in place. It
// never decodes the subtable into a lookup table; on success the caller
// stores the input slice verbatim. As a side effect it widens os2's
// char-index range to cover the segments it accepts (excluding the first
// segment, matching the upstream sanitizer this is grounded on).
func parseFormat4(data []byte, numGlyphs int, os2 *ot.OS2) ([]Warning, error) {
	if os2 == nil {
		return nil, ErrMissingOS2
	}

	r := ot.NewReader(data)

	if err := r.Skip(4); err != nil { // format, length
		return nil, err
	}
	language, err := r.U16()
	if err != nil {
		return nil, err
	}
	if language != 0 {
		return nil, ErrNonZeroLanguage
	}

	segCountX2, err := r.U16()
	if err != nil {
		return nil, err
	}
	searchRange, err := r.U16()
	if err != nil {
		return nil, err
	}
	entrySelector, err := r.U16()
	if err != nil {
		return nil, err
	}
	rangeShift, err := r.U16()
	if err != nil {
		return nil, err
	}

	if segCountX2&1 != 0 || searchRange&1 != 0 {
		return nil, ErrBadFormat4Header
	}
	segCount := int(segCountX2 >> 1)
	if segCount < 1 {
		return nil, ErrBadFormat4Header
	}

	log2segcount := 0
	for uint(1)<<(log2segcount+1) <= uint(segCount) {
		log2segcount++
	}
	expectedSearchRange := uint16(2 * (1 << uint(log2segcount)))
	if searchRange != expectedSearchRange {
		return nil, ErrBadFormat4Header
	}
	if int(entrySelector) != log2segcount {
		return nil, ErrBadFormat4Header
	}
	if rangeShift != segCountX2-searchRange {
		return nil, ErrBadFormat4Header
	}

	endCode := make([]uint16, segCount)
	endCodeAt := make([]int, segCount)
	for i := range endCode {
		endCodeAt[i] = r.Offset()
		if endCode[i], err = r.U16(); err != nil {
			return nil, err
		}
	}

	padding, err := r.U16()
	if err != nil {
		return nil, err
	}
	if padding != 0 {
		return nil, ErrBadFormat4Header
	}

	startCode := make([]uint16, segCount)
	for i := range startCode {
		if startCode[i], err = r.U16(); err != nil {
			return nil, err
		}
	}
	idDelta := make([]int16, segCount)
	for i := range idDelta {
		if idDelta[i], err = r.I16(); err != nil {
			return nil, err
		}
	}

	idRangeOffset := make([]uint16, segCount)
	idRangeOffsetAt := make([]int, segCount)
	var warnings []Warning
	for i := range idRangeOffset {
		idRangeOffsetAt[i] = r.Offset()
		v, err := r.U16()
		if err != nil {
			return nil, err
		}
		if v&1 != 0 {
			// Some font generators put 65535 in id_range_offset for the
			// final 0xFFFF-0xFFFF range.
			if i == segCount-1 {
				warnings = append(warnings, Warning{Reason: "format 4: bad id_range_offset in final segment", Offset: idRangeOffsetAt[i]})
				v = 0
			} else {
				return nil, ErrBadFormat4Header
			}
		}
		idRangeOffset[i] = v
	}

	for i := 1; i < segCount; i++ {
		if i == segCount-1 &&
			startCode[i-1] == 0xFFFF && endCode[i-1] == 0xFFFF &&
			startCode[i] == 0xFFFF && endCode[i] == 0xFFFF {
			// Some fonts have multiple 0xFFFF terminators.
			warnings = append(warnings, Warning{Reason: "format 4: multiple 0xFFFF terminators", Offset: endCodeAt[i]})
			continue
		}

		if endCode[i] <= endCode[i-1] {
			return nil, ErrBadFormat4Segments
		}
		if startCode[i] <= endCode[i-1] {
			return nil, ErrBadFormat4Segments
		}

		if os2.FirstCharIndex != 0xFFFF && startCode[i] != 0xFFFF && os2.FirstCharIndex > startCode[i] {
			os2.FirstCharIndex = startCode[i]
		}
		if os2.LastCharIndex != 0xFFFF && endCode[i] != 0xFFFF && os2.LastCharIndex < endCode[i] {
			os2.LastCharIndex = endCode[i]
		}
	}

	if endCode[segCount-1] != 0xFFFF {
		return nil, ErrBadFormat4Segments
	}

	// A format 4 subtable is complex enough that the only way to be sure it
	// never drives a caller out of bounds is to simulate a lookup at every
	// codepoint it declares.
	for i := 1; i < segCount; i++ {
		for cp := uint32(startCode[i]); cp <= uint32(endCode[i]); cp++ {
			codePoint := uint16(cp)
			if idRangeOffset[i] == 0 {
				// Overflow here is explicitly allowed by the format.
				glyph := codePoint + uint16(idDelta[i])
				if uint32(glyph) >= uint32(numGlyphs) {
					return nil, ErrBadFormat4Segments
				}
				continue
			}

			rangeDelta := uint32(codePoint) - uint32(startCode[i])
			// The offset is relative to the location of the offset field
			// itself, not to the start of the subtable.
			glyphAddr := idRangeOffsetAt[i] + int(idRangeOffset[i]) + int(rangeDelta)*2
			if glyphAddr < 0 || glyphAddr+2 > len(data) {
				return nil, ErrBadFormat4Segments
			}
			glyph := binary.BigEndian.Uint16(data[glyphAddr:])
			if uint32(glyph) >= uint32(numGlyphs) {
				return nil, ErrBadFormat4Segments
			}
		}
	}

	return warnings, nil
}

package cmap

import (
	"errors"

	"github.com/boxesandglue/cmapsan/ot"
)

// ErrBadGroupCount is returned when a format 12 or 13 subtable declares
// zero groups or more than maxCMAPGroups.
var ErrBadGroupCount = errors.New("cmap: bad group count")

// ErrBadGroup is returned when a format 12 or 13 group violates a codepoint
// or glyph-id bound.
var ErrBadGroup = errors.New("cmap: malformed group")

// ErrUnsortedGroups is returned when format 12 or 13 groups are not
// strictly increasing and non-overlapping by start codepoint.
var ErrUnsortedGroups = errors.New("cmap: groups are not strictly ordered")

// ErrNonZeroLanguage is returned when a subtable that must carry
// language == 0 (platform 3 and Unicode subtables never localize) does not.
var ErrNonZeroLanguage = errors.New("cmap: subtable language must be zero")

// parseFormat12 validates and decodes a format 12 (32-bit segmented
// coverage) subtable.
func parseFormat12(data []byte, numGlyphs int) ([]RangeGroup, error) {
	r := ot.NewReader(data)

	if err := r.Skip(8); err != nil { // format, reserved, length
		return nil, err
	}
	language, err := r.U32()
	if err != nil {
		return nil, err
	}
	if language != 0 {
		return nil, ErrNonZeroLanguage
	}

	numGroups, err := r.U32()
	if err != nil {
		return nil, err
	}
	if numGroups == 0 || numGroups > maxCMAPGroups {
		return nil, ErrBadGroupCount
	}

	groups := make([]RangeGroup, numGroups)
	for i := range groups {
		start, err := r.U32()
		if err != nil {
			return nil, err
		}
		end, err := r.U32()
		if err != nil {
			return nil, err
		}
		startGlyph, err := r.U32()
		if err != nil {
			return nil, err
		}

		if start > maxUnicode || end > maxUnicode || startGlyph > 0xFFFF {
			return nil, ErrBadGroup
		}
		if ot.InSurrogateRange(start) || ot.InSurrogateRange(end) {
			return nil, ErrBadGroup
		}
		if start < ot.SurrogateLow && end > ot.SurrogateHigh {
			return nil, ErrBadGroup
		}
		if end < start {
			return nil, ErrBadGroup
		}
		if (end-start)+startGlyph > uint32(numGlyphs) {
			return nil, ErrBadGroup
		}

		groups[i] = RangeGroup{StartCode: start, EndCode: end, StartGlyphID: startGlyph}
	}

	for i := 1; i < len(groups); i++ {
		if groups[i].StartCode <= groups[i-1].StartCode {
			return nil, ErrUnsortedGroups
		}
		if groups[i].StartCode <= groups[i-1].EndCode {
			return nil, ErrUnsortedGroups
		}
	}

	return groups, nil
}

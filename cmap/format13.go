package cmap

import "github.com/boxesandglue/cmapsan/ot"

// parseFormat13 validates and decodes a format 13 (many-to-one fallback)
// subtable. It is structurally identical to format 12 except that its
// language field is 16 bits wide and every group maps its entire codepoint
// range to a single glyph id, so the codepoint width does not bound the
// glyph id: only start_glyph_id itself must be < numGlyphs. Format 13
// imposes no surrogate exclusion.
func parseFormat13(data []byte, numGlyphs int) ([]RangeGroup, error) {
	r := ot.NewReader(data)

	if err := r.Skip(8); err != nil { // format, reserved, length
		return nil, err
	}
	language, err := r.U16()
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
		if startGlyph >= uint32(numGlyphs) {
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

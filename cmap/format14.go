package cmap

import (
	"errors"

	"github.com/boxesandglue/cmapsan/ot"
)

// ErrBadVariationRecord is returned when a format 14 variation selector
// record, or one of its nested UVS tables, violates an offset, ordering,
// or glyph-id bound.
var ErrBadVariationRecord = errors.New("cmap: malformed format 14 variation record")

const (
	offsetVarSelectorRecords = 10
	sizeOfVarSelectorRecord  = 11
)

// parseFormat14 validates a format 14 (Unicode variation sequences)
// subtable in place; the caller stores the input slice verbatim on
// success.
func parseFormat14(data []byte, numGlyphs int) ([]Warning, error) {
	r := ot.NewReader(data)

	if err := r.Skip(6); err != nil { // format, length
		return nil, err
	}
	numRecords, err := r.U32()
	if err != nil {
		return nil, err
	}
	length := uint32(len(data))
	if (length-offsetVarSelectorRecords)/sizeOfVarSelectorRecord < numRecords {
		return nil, ErrBadVariationRecord
	}

	var prevSelector uint32
	for i := uint32(0); i < numRecords; i++ {
		varSelector, err := r.U24()
		if err != nil {
			return nil, err
		}
		defUVSOffset, err := r.U32()
		if err != nil {
			return nil, err
		}
		nonDefUVSOffset, err := r.U32()
		if err != nil {
			return nil, err
		}

		if varSelector <= prevSelector || varSelector > maxUnicode {
			return nil, ErrBadVariationRecord
		}
		if defUVSOffset > length-4 || nonDefUVSOffset > length-4 {
			return nil, ErrBadVariationRecord
		}
		prevSelector = varSelector

		if defUVSOffset != 0 {
			if err := parseDefaultUVSTable(data[defUVSOffset:]); err != nil {
				return nil, err
			}
		}
		if nonDefUVSOffset != 0 {
			if err := parseNonDefaultUVSTable(data[nonDefUVSOffset:], numGlyphs); err != nil {
				return nil, err
			}
		}
	}

	return nil, nil
}

// parseDefaultUVSTable validates a Default UVS table: a sequence of
// strictly increasing, non-overlapping Unicode ranges.
func parseDefaultUVSTable(data []byte) error {
	r := ot.NewReader(data)

	numRanges, err := r.U32()
	if err != nil {
		return err
	}

	var prevEnd uint32
	for j := uint32(0); j < numRanges; j++ {
		start, err := r.U24()
		if err != nil {
			return err
		}
		additional, err := r.U8()
		if err != nil {
			return err
		}
		end := start + uint32(additional)

		if (j > 0 && start <= prevEnd) || end > maxUnicode {
			return ErrBadVariationRecord
		}
		prevEnd = end
	}
	return nil
}

// parseNonDefaultUVSTable validates a Non-Default UVS table: a sequence of
// strictly increasing (codepoint, glyph id) mappings.
func parseNonDefaultUVSTable(data []byte, numGlyphs int) error {
	r := ot.NewReader(data)

	numMappings, err := r.U32()
	if err != nil {
		return err
	}

	var prevUnicode uint32
	for j := uint32(0); j < numMappings; j++ {
		unicodeValue, err := r.U24()
		if err != nil {
			return err
		}
		if (j > 0 && unicodeValue <= prevUnicode) || unicodeValue > maxUnicode {
			return ErrBadVariationRecord
		}
		glyph, err := r.U16()
		if err != nil {
			return err
		}
		if uint32(glyph) >= uint32(numGlyphs) {
			return ErrBadVariationRecord
		}
		prevUnicode = unicodeValue
	}
	return nil
}

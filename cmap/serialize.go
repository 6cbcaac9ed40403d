package cmap

import (
	"errors"

	"github.com/boxesandglue/cmapsan/ot"
)

// ErrNoSurvivingSubtable is returned by Serialise when neither an MS
// Symbol (3,0,4) nor an MS Unicode BMP (3,1,4) subtable survived parsing.
// Fonts that carry neither are not supported downstream.
var ErrNoSurvivingSubtable = errors.New("cmap: no 3,0,4 or 3,1,4 subtable to serialise")

const format0ArraySize = 256

// Serialise writes a canonical cmap table containing only the subtables t
// holds. When both a Symbol and a Unicode BMP subtable are present, the
// Unicode BMP one is dropped: the two must not coexist in the output.
func Serialise(w *ot.Writer, t *Table) error {
	have0514 := t.Variation != nil
	have100 := t.Format0 != nil
	have304 := t.Symbol != nil
	have314 := !have304 && t.UnicodeBMP != nil
	have31012 := len(t.UCS4) > 0
	have31013 := len(t.UCS4Fallback) > 0

	if !have304 && !have314 {
		return ErrNoSurvivingSubtable
	}

	numSubtables := 0
	for _, have := range []bool{have0514, have100, have304, have314, have31012, have31013} {
		if have {
			numSubtables++
		}
	}

	tableStart := w.Tell()

	if err := w.WriteU16(0); err != nil {
		return err
	}
	if err := w.WriteU16(uint16(numSubtables)); err != nil {
		return err
	}

	recordOffset := w.Tell()
	if err := w.Pad(numSubtables * 8); err != nil {
		return err
	}

	offset100 := w.Tell()
	if have100 {
		if err := w.WriteU16(0); err != nil { // format
			return err
		}
		if err := w.WriteU16(6 + format0ArraySize); err != nil { // length
			return err
		}
		if err := w.WriteU16(0); err != nil { // language
			return err
		}
		if err := w.Write(t.Format0[:]); err != nil {
			return err
		}
	}

	offset304 := w.Tell()
	if have304 {
		if err := w.Write(t.Symbol); err != nil {
			return err
		}
	}

	offset314 := w.Tell()
	if have314 {
		if err := w.Write(t.UnicodeBMP); err != nil {
			return err
		}
	}

	offset31012 := w.Tell()
	if have31012 {
		if err := writeGroupSubtable(w, 12, 16, t.UCS4); err != nil {
			return err
		}
	}

	offset31013 := w.Tell()
	if have31013 {
		// This length literal matches the upstream sanitizer's own
		// serialiser exactly; it differs from format 12's by two bytes
		// even though the two headers are laid out identically.
		if err := writeGroupSubtable(w, 13, 14, t.UCS4Fallback); err != nil {
			return err
		}
	}

	offset0514 := w.Tell()
	if have0514 {
		if err := w.Write(t.Variation); err != nil {
			return err
		}
	}

	tableEnd := w.Tell()

	saved := w.SaveChecksumState()
	w.ResetChecksum()

	if err := w.Seek(recordOffset); err != nil {
		return err
	}

	if have0514 {
		if err := writeDirectoryRecord(w, 0, 5, offset0514-tableStart); err != nil {
			return err
		}
	}
	if have100 {
		if err := writeDirectoryRecord(w, 1, 0, offset100-tableStart); err != nil {
			return err
		}
	}
	if have304 {
		if err := writeDirectoryRecord(w, 3, 0, offset304-tableStart); err != nil {
			return err
		}
	}
	if have314 {
		if err := writeDirectoryRecord(w, 3, 1, offset314-tableStart); err != nil {
			return err
		}
	}
	if have31012 {
		if err := writeDirectoryRecord(w, 3, 10, offset31012-tableStart); err != nil {
			return err
		}
	}
	if have31013 {
		if err := writeDirectoryRecord(w, 3, 10, offset31013-tableStart); err != nil {
			return err
		}
	}

	if err := w.Seek(tableEnd); err != nil {
		return err
	}
	w.RestoreChecksum(saved)

	return nil
}

func writeDirectoryRecord(w *ot.Writer, platform, encoding uint16, offset int) error {
	if err := w.WriteU16(platform); err != nil {
		return err
	}
	if err := w.WriteU16(encoding); err != nil {
		return err
	}
	return w.WriteU32(uint32(offset))
}

// writeGroupSubtable writes a format 12/13-shaped group array subtable.
// headerConst is the length literal added to 12*len(groups) (16 for format
// 12, 14 for format 13, per the upstream serialiser).
func writeGroupSubtable(w *ot.Writer, format uint16, headerConst uint32, groups []RangeGroup) error {
	if err := w.WriteU16(format); err != nil {
		return err
	}
	if err := w.WriteU16(0); err != nil { // reserved
		return err
	}
	if err := w.WriteU32(uint32(len(groups))*12 + headerConst); err != nil { // length
		return err
	}
	if err := w.WriteU32(0); err != nil { // language
		return err
	}
	if err := w.WriteU32(uint32(len(groups))); err != nil { // numGroups
		return err
	}
	for _, g := range groups {
		if err := w.WriteU32(g.StartCode); err != nil {
			return err
		}
		if err := w.WriteU32(g.EndCode); err != nil {
			return err
		}
		if err := w.WriteU32(g.StartGlyphID); err != nil {
			return err
		}
	}
	return nil
}

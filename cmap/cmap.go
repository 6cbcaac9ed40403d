// Package cmap sanitizes the OpenType "cmap" character-to-glyph mapping
// table: it validates untrusted cmap bytes against every structural and
// semantic invariant the format demands and, on success, re-emits a
// canonical table containing only the subtables it accepted.
//
// Only the subset of (platform, encoding, format) triples Microsoft
// recommends is understood; everything else is silently dropped. Formats 4
// and 14 are validated exhaustively but never decoded — they are re-emitted
// byte for byte because rebuilding them canonically is not worth the
// complexity. Formats 0, 12 and 13 are decoded into plain Go values and
// rebuilt from scratch on serialisation.
package cmap

import (
	"errors"
	"slices"
	"sort"

	"github.com/boxesandglue/cmapsan/ot"
)

// Errors returned by Parse. Each corresponds to a structural violation with
// no tolerated recovery; the whole cmap table is rejected.
var (
	ErrUnsupportedVersion = errors.New("cmap: unsupported table version")
	ErrNoSubtables        = errors.New("cmap: no subtables")
	ErrBadDirectoryOrder  = errors.New("cmap: subtable directory is not strictly ordered by (platform, encoding)")
	ErrBadOffset          = errors.New("cmap: subtable offset out of bounds")
	ErrBadLength          = errors.New("cmap: subtable length out of bounds")
	ErrOverlap            = errors.New("cmap: subtables overlap")
	ErrMissingOS2         = errors.New("cmap: a format 4 subtable requires an OS/2 collaborator")
)

// maxTableOffset bounds subtable offsets and lengths well below what could
// overflow the 32-bit arithmetic used to add them together.
const maxTableOffset = 1 << 30

// maxCMAPGroups bounds the number of groups a format 12 or 13 subtable may
// declare. 0xFFFF is the maximum number of glyphs in a single font file.
const maxCMAPGroups = 0xFFFF

// maxUnicode is the upper limit of the Unicode code point space.
const maxUnicode = 0x10FFFF

// RangeGroup is one entry of a format 12 or format 13 group array: a
// contiguous codepoint range starting at StartCode and mapped to glyph ids
// starting at StartGlyphID.
type RangeGroup struct {
	StartCode, EndCode uint32
	StartGlyphID       uint32
}

// Table holds the subtables a cmap table sanitizes to. A field is populated
// only when a subtable targeting that slot was present and accepted; the
// opaque fields (Symbol, UnicodeBMP, Variation) alias the input slice given
// to Parse and must not be used once that slice is discarded or mutated.
type Table struct {
	Format0      *[256]byte   // platform 1, encoding 0, format 0 (Mac Roman)
	Symbol       []byte       // platform 3, encoding 0, format 4 (MS Symbol), opaque
	UnicodeBMP   []byte       // platform 3, encoding 1, format 4 (MS Unicode BMP), opaque
	UCS4         []RangeGroup // platform 3, encoding 10, format 12 (MS Unicode UCS-4)
	UCS4Fallback []RangeGroup // platform 3, encoding 10, format 13 (MS UCS-4 fallback)
	Variation    []byte       // platform 0, encoding 5, format 14 (Unicode variation sequences), opaque
}

// Warning records a tolerated anomaly: something the input got wrong that
// this package recovers from instead of rejecting the table.
type Warning struct {
	Reason string
	Offset int
}

// subtableRecord is one entry of the cmap subtable directory, augmented
// with the format and length recovered from the subtable body itself.
type subtableRecord struct {
	platform, encoding uint16
	offset, length     uint32
	format             uint16
}

func (r subtableRecord) key() uint32 {
	return uint32(r.platform)<<16 | uint32(r.encoding)
}

// Parse validates raw cmap table bytes and, on success, returns the
// subtables it accepted plus any tolerated anomalies encountered along the
// way. numGlyphs is the num_glyphs field of the font's maxp table; os2, if
// any format 4 subtable is present, has its FirstCharIndex/LastCharIndex
// widened in place to cover the segments that subtable declares.
func Parse(data []byte, numGlyphs int, os2 *ot.OS2) (*Table, []Warning, error) {
	r := ot.NewReader(data)

	version, err := r.U16()
	if err != nil {
		return nil, nil, err
	}
	if version != 0 {
		return nil, nil, ErrUnsupportedVersion
	}
	numTables, err := r.U16()
	if err != nil {
		return nil, nil, err
	}
	if numTables == 0 {
		return nil, nil, ErrNoSubtables
	}

	records := make([]subtableRecord, numTables)
	for i := range records {
		platform, err := r.U16()
		if err != nil {
			return nil, nil, err
		}
		encoding, err := r.U16()
		if err != nil {
			return nil, nil, err
		}
		offset, err := r.U32()
		if err != nil {
			return nil, nil, err
		}
		records[i] = subtableRecord{platform: platform, encoding: encoding, offset: offset}
	}

	dataOffset := uint32(r.Offset())

	var lastKey uint32
	for i, rec := range records {
		if rec.offset >= maxTableOffset {
			return nil, nil, ErrBadOffset
		}
		if rec.offset < dataOffset || rec.offset >= uint32(len(data)) {
			return nil, nil, ErrBadOffset
		}
		if i != 0 && lastKey >= rec.key() {
			return nil, nil, ErrBadDirectoryOrder
		}
		lastKey = rec.key()
	}

	for i := range records {
		rec := &records[i]
		if err := r.Seek(int(rec.offset)); err != nil {
			return nil, nil, err
		}
		format, err := r.U16()
		if err != nil {
			return nil, nil, err
		}
		rec.format = format

		var length uint32
		switch format {
		case 0, 4:
			l, err := r.U16()
			if err != nil {
				return nil, nil, err
			}
			length = uint32(l)
		case 12, 13:
			if err := r.Skip(2); err != nil {
				return nil, nil, err
			}
			l, err := r.U32()
			if err != nil {
				return nil, nil, err
			}
			length = l
		case 14:
			l, err := r.U32()
			if err != nil {
				return nil, nil, err
			}
			length = l
		default:
			length = 0
		}
		rec.length = length
	}

	for _, rec := range records {
		if rec.length == 0 {
			continue
		}
		if rec.length >= maxTableOffset {
			return nil, nil, ErrBadLength
		}
		if rec.offset+rec.length > uint32(len(data)) {
			return nil, nil, ErrBadLength
		}
	}

	if err := checkOverlap(records); err != nil {
		return nil, nil, err
	}

	table := &Table{}
	var warnings []Warning

	for _, rec := range records {
		if rec.length == 0 {
			continue
		}
		sub := data[rec.offset : rec.offset+rec.length]

		switch {
		case rec.platform == 0 && (rec.encoding == 0 || rec.encoding == 3) && rec.format == 4:
			// 0-0-4 and 0-3-4 both fold into the 3,1,4 slot. Sometimes the
			// 0-0-4 table actually points to MS symbol data; that is
			// recovered by the 3,0,4/3,1,4 mutual exclusion at
			// serialisation time rather than here.
			ws, err := parseFormat4(sub, numGlyphs, os2)
			if err != nil {
				return nil, nil, err
			}
			table.UnicodeBMP = sub
			warnings = append(warnings, ws...)

		case rec.platform == 0 && rec.encoding == 3 && rec.format == 12:
			groups, err := parseFormat12(sub, numGlyphs)
			if err != nil {
				return nil, nil, err
			}
			table.UCS4 = groups

		case rec.platform == 0 && rec.encoding == 5 && rec.format == 14:
			ws, err := parseFormat14(sub, numGlyphs)
			if err != nil {
				return nil, nil, err
			}
			table.Variation = sub
			warnings = append(warnings, ws...)

		case rec.platform == 1 && rec.encoding == 0 && rec.format == 0:
			arr, ws, err := parseFormat0(sub)
			if err != nil {
				return nil, nil, err
			}
			table.Format0 = arr
			warnings = append(warnings, ws...)

		case rec.platform == 3 && (rec.encoding == 0 || rec.encoding == 1) && rec.format == 4:
			ws, err := parseFormat4(sub, numGlyphs, os2)
			if err != nil {
				return nil, nil, err
			}
			if rec.encoding == 0 {
				table.Symbol = sub
			} else {
				table.UnicodeBMP = sub
			}
			warnings = append(warnings, ws...)

		case rec.platform == 3 && rec.encoding == 10 && rec.format == 12:
			groups, err := parseFormat12(sub, numGlyphs)
			if err != nil {
				return nil, nil, err
			}
			table.UCS4 = groups

		case rec.platform == 3 && rec.encoding == 10 && rec.format == 13:
			groups, err := parseFormat13(sub, numGlyphs)
			if err != nil {
				return nil, nil, err
			}
			table.UCS4Fallback = groups

		default:
			// Unsupported (platform, encoding, format) triple: dropped.
		}
	}

	return table, warnings, nil
}

// ShouldSerialise reports whether t holds anything worth emitting. It
// mirrors the upstream sanitizer's null-check on its parsed cmap record.
func ShouldSerialise(t *Table) bool {
	return t != nil
}

// byteExtent is a subtable's [start, end) byte range within the cmap table.
type byteExtent struct{ start, end uint32 }

// checkOverlap rejects subtable byte extents that overlap, tolerating pairs
// of records that share an identical extent (some fonts point both a
// Unicode and an MS table at the same bytes).
func checkOverlap(records []subtableRecord) error {
	var extents []byteExtent
	for _, rec := range records {
		if rec.length == 0 {
			continue
		}
		ext := byteExtent{rec.offset, rec.offset + rec.length}

		idx := sort.Search(len(extents), func(i int) bool { return extents[i].start >= ext.start })
		if idx < len(extents) && extents[idx] == ext {
			continue
		}
		extents = slices.Insert(extents, idx, ext)
	}

	for i := 1; i < len(extents); i++ {
		if extents[i].start < extents[i-1].end {
			return ErrOverlap
		}
	}
	return nil
}

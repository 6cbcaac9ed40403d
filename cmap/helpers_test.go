package cmap

import "encoding/binary"

// seg4 describes one format 4 segment for buildFormat4Body.
type seg4 struct {
	start, end    uint16
	idDelta       int16
	idRangeOffset uint16
}

// log2Segcount mirrors the header arithmetic parseFormat4 checks: the
// largest k such that 2^(k+1) <= segCount.
func log2Segcount(segCount int) int {
	log2 := 0
	for uint(1)<<uint(log2+1) <= uint(segCount) {
		log2++
	}
	return log2
}

// buildFormat4Body assembles a self-contained format 4 subtable body
// (including its own format/length header) from a segment list, computing
// the searchRange/entrySelector/rangeShift fields so the result passes
// header validation.
func buildFormat4Body(segs []seg4, language uint16) []byte {
	segCount := len(segs)
	segCountX2 := uint16(segCount * 2)
	log2 := log2Segcount(segCount)
	searchRange := uint16(2 * (1 << uint(log2)))
	entrySelector := uint16(log2)
	rangeShift := segCountX2 - searchRange

	body := make([]byte, 4) // format, length placeholders
	body = binary.BigEndian.AppendUint16(body, language)
	body = binary.BigEndian.AppendUint16(body, segCountX2)
	body = binary.BigEndian.AppendUint16(body, searchRange)
	body = binary.BigEndian.AppendUint16(body, entrySelector)
	body = binary.BigEndian.AppendUint16(body, rangeShift)
	for _, s := range segs {
		body = binary.BigEndian.AppendUint16(body, s.end)
	}
	body = binary.BigEndian.AppendUint16(body, 0) // reserved padding
	for _, s := range segs {
		body = binary.BigEndian.AppendUint16(body, s.start)
	}
	for _, s := range segs {
		body = binary.BigEndian.AppendUint16(body, uint16(s.idDelta))
	}
	for _, s := range segs {
		body = binary.BigEndian.AppendUint16(body, s.idRangeOffset)
	}

	binary.BigEndian.PutUint16(body[0:], 4)
	binary.BigEndian.PutUint16(body[2:], uint16(len(body)))
	return body
}

// buildFormat12Body assembles a format 12 subtable body from a group list.
// Format 13 bodies come from buildFormat13Body.
func buildFormat12Body(groups []RangeGroup) []byte {
	body := make([]byte, 0, 16+len(groups)*12)
	body = binary.BigEndian.AppendUint16(body, 12)
	body = binary.BigEndian.AppendUint16(body, 0)
	body = binary.BigEndian.AppendUint32(body, uint32(len(groups))*12+16)
	body = binary.BigEndian.AppendUint32(body, 0)
	body = binary.BigEndian.AppendUint32(body, uint32(len(groups)))
	for _, g := range groups {
		body = binary.BigEndian.AppendUint32(body, g.StartCode)
		body = binary.BigEndian.AppendUint32(body, g.EndCode)
		body = binary.BigEndian.AppendUint32(body, g.StartGlyphID)
	}
	return body
}

// buildFormat13Body assembles a format 13 (many-to-one fallback) subtable
// body from a group list. It differs from buildFormat12Body only in its
// format number, 16-bit language field, and length literal.
func buildFormat13Body(groups []RangeGroup) []byte {
	body := make([]byte, 0, 14+len(groups)*12)
	body = binary.BigEndian.AppendUint16(body, 13)
	body = binary.BigEndian.AppendUint16(body, 0)
	body = binary.BigEndian.AppendUint32(body, uint32(len(groups))*12+14)
	body = binary.BigEndian.AppendUint16(body, 0) // language, 16-bit for format 13
	body = binary.BigEndian.AppendUint32(body, uint32(len(groups)))
	for _, g := range groups {
		body = binary.BigEndian.AppendUint32(body, g.StartCode)
		body = binary.BigEndian.AppendUint32(body, g.EndCode)
		body = binary.BigEndian.AppendUint32(body, g.StartGlyphID)
	}
	return body
}

// dirRecord describes one subtable directory entry for buildCmapTable.
type dirRecord struct {
	platform, encoding uint16
	body               []byte
	shareOffsetOf      int // 1-based index into the records slice, or 0
}

// buildCmapTable assembles a full cmap table: header, directory, and
// subtable bodies laid out sequentially, except that a record with
// shareOffsetOf set points at another record's already-placed body
// instead of appending its own copy.
func buildCmapTable(records []dirRecord) []byte {
	numTables := len(records)
	dirSize := numTables * 8
	dataOffset := 4 + dirSize

	out := make([]byte, 4+dirSize)
	binary.BigEndian.PutUint16(out[0:], 0)
	binary.BigEndian.PutUint16(out[2:], uint16(numTables))

	offsets := make([]int, numTables)
	cursor := dataOffset
	for i, rec := range records {
		if rec.shareOffsetOf != 0 {
			offsets[i] = offsets[rec.shareOffsetOf-1]
			continue
		}
		offsets[i] = cursor
		cursor += len(rec.body)
	}

	bodies := make([]byte, cursor-dataOffset)
	for i, rec := range records {
		if rec.shareOffsetOf != 0 {
			continue
		}
		copy(bodies[offsets[i]-dataOffset:], rec.body)
	}
	out = append(out, bodies...)

	for i, rec := range records {
		off := 4 + i*8
		binary.BigEndian.PutUint16(out[off:], rec.platform)
		binary.BigEndian.PutUint16(out[off+2:], rec.encoding)
		binary.BigEndian.PutUint32(out[off+4:], uint32(offsets[i]))
	}

	return out
}

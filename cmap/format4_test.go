package cmap

import (
	"testing"

	"github.com/boxesandglue/cmapsan/ot"
)

// Scenario 6: the final segment carries an odd id_range_offset. This is
// coerced to zero for the purposes of the safety simulation, with one
// warning, but the stored bytes are never mutated.
func TestParseFormat4TolerantOfOddFinalRangeOffset(t *testing.T) {
	body := buildFormat4Body([]seg4{
		{start: 0x41, end: 0x41, idDelta: 0},
		{start: 0xFFFF, end: 0xFFFF, idDelta: 1, idRangeOffset: 1},
	}, 0)
	data := buildCmapTable([]dirRecord{
		{platform: 3, encoding: 1, body: body},
	})

	table, warnings, err := Parse(data, 5, freshOS2())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1: %v", len(warnings), warnings)
	}
	if string(table.UnicodeBMP) != string(body) {
		t.Fatal("subtable bytes must be preserved verbatim despite the coercion")
	}
}

func TestParseFormat4RejectsOddNonFinalRangeOffset(t *testing.T) {
	body := buildFormat4Body([]seg4{
		{start: 0x41, end: 0x41, idDelta: 0, idRangeOffset: 1},
		{start: 0x50, end: 0x50, idDelta: 0},
		{start: 0xFFFF, end: 0xFFFF, idDelta: 0},
	}, 0)
	data := buildCmapTable([]dirRecord{
		{platform: 3, encoding: 1, body: body},
	})

	_, _, err := Parse(data, 5, freshOS2())
	if err == nil {
		t.Fatal("expected an error for an odd id_range_offset outside the final segment")
	}
}

func TestParseFormat4RequiresOS2(t *testing.T) {
	body := buildFormat4Body([]seg4{{start: 0xFFFF, end: 0xFFFF, idDelta: 0}}, 0)
	data := buildCmapTable([]dirRecord{
		{platform: 3, encoding: 1, body: body},
	})

	_, _, err := Parse(data, 5, nil)
	if err != ErrMissingOS2 {
		t.Fatalf("got %v, want ErrMissingOS2", err)
	}
}

func TestParseFormat4WidensOS2Range(t *testing.T) {
	body := buildFormat4Body([]seg4{
		{start: 0x41, end: 0x50, idDelta: 0},
		{start: 0x60, end: 0x70, idDelta: 0},
		{start: 0xFFFF, end: 0xFFFF, idDelta: 1},
	}, 0)
	data := buildCmapTable([]dirRecord{
		{platform: 3, encoding: 1, body: body},
	})

	os2 := &ot.OS2{FirstCharIndex: 0x65, LastCharIndex: 0x10}
	_, _, err := Parse(data, 0x71, os2)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if os2.FirstCharIndex != 0x60 {
		t.Fatalf("FirstCharIndex = %#x, want 0x60", os2.FirstCharIndex)
	}
	if os2.LastCharIndex != 0x70 {
		t.Fatalf("LastCharIndex = %#x, want 0x70", os2.LastCharIndex)
	}
}

package cmap

import "github.com/boxesandglue/cmapsan/ot"

// parseFormat0 validates a format 0 (Mac Roman) subtable and decodes its
// 256-entry glyph array.
func parseFormat0(data []byte) (*[256]byte, []Warning, error) {
	r := ot.NewReader(data)

	if err := r.Skip(4); err != nil { // format, length
		return nil, nil, err
	}
	language, err := r.U16()
	if err != nil {
		return nil, nil, err
	}

	var warnings []Warning
	if language != 0 {
		// simsun.ttf and others ship a non-zero language id here.
		warnings = append(warnings, Warning{Reason: "format 0: language id should be zero", Offset: 4})
	}

	var arr [256]byte
	for i := range arr {
		b, err := r.U8()
		if err != nil {
			return nil, nil, err
		}
		arr[i] = b
	}

	return &arr, warnings, nil
}

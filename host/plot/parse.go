// Package plot turns the board's text stream back into readings and draws
// them as a two-series terminal plot (level against the reference line).
package plot

import (
	"fmt"
	"strconv"

	"github.com/google/shlex"
)

// LineKind classifies a received line.
type LineKind uint8

const (
	KindEmpty      LineKind = iota
	KindData                // "<level> <reference>"
	KindDiagnostic          // Startup report or anything else
)

// Line is one parsed line from the board.
type Line struct {
	Kind      LineKind
	Level     float64
	Reference float64
	Text      string
}

// ParseLine tokenizes raw and recognizes data lines: exactly two numeric
// tokens. Everything else is returned as a diagnostic with the text kept;
// two tokens starting with a number but not both numeric also report an error.
func ParseLine(raw string) (Line, error) {
	tokens, err := shlex.Split(raw)
	if err != nil {
		// Unbalanced quotes in a diagnostic, keep it verbatim
		return Line{Kind: KindDiagnostic, Text: raw}, nil
	}
	if len(tokens) == 0 {
		return Line{Kind: KindEmpty}, nil
	}
	if len(tokens) != 2 {
		return Line{Kind: KindDiagnostic, Text: raw}, nil
	}

	level, errLevel := strconv.ParseFloat(tokens[0], 64)
	if errLevel != nil {
		// Words first, e.g. "Retry 3"
		return Line{Kind: KindDiagnostic, Text: raw}, nil
	}
	ref, errRef := strconv.ParseFloat(tokens[1], 64)
	if errRef != nil {
		// Numeric level with a garbled reference: a corrupted data line
		return Line{Kind: KindDiagnostic, Text: raw}, fmt.Errorf("malformed data line %q", raw)
	}
	return Line{Kind: KindData, Level: level, Reference: ref}, nil
}

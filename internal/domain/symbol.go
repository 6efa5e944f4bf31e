package domain

import (
	"strings"

	"github.com/rivo/uniseg"
)

// Symbol is the per-player mark shown in a cell: one uppercased letter or a
// single emoji grapheme.
type Symbol string

// Empty marks an unoccupied cell.
const Empty Symbol = ""

// Default symbols used when input normalizes to nothing.
const (
	DefaultPlayer1 Symbol = "X"
	DefaultPlayer2 Symbol = "O"
)

// NormalizeSymbol reduces user input to a single grapheme. The first grapheme
// containing an emoji codepoint wins; otherwise the first grapheme is
// uppercased. Blank input yields Empty.
func NormalizeSymbol(in string) Symbol {
	in = strings.TrimSpace(in)
	if in == "" {
		return Empty
	}
	var first string
	gr := uniseg.NewGraphemes(in)
	for gr.Next() {
		if first == "" {
			first = gr.Str()
		}
		for _, r := range gr.Runes() {
			if isEmoji(r) {
				return Symbol(gr.Str())
			}
		}
	}
	return Symbol(strings.ToUpper(first))
}

// NormalizeSymbols normalizes a pair, substituting defaults for blanks. ok is
// false when the resulting symbols collide.
func NormalizeSymbols(p1, p2 string) (s1, s2 Symbol, ok bool) {
	s1 = NormalizeSymbol(p1)
	if s1 == Empty {
		s1 = DefaultPlayer1
	}
	s2 = NormalizeSymbol(p2)
	if s2 == Empty {
		s2 = DefaultPlayer2
	}
	return s1, s2, s1 != s2
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1F9FF:
		return true
	case r >= 0x2600 && r <= 0x26FF:
		return true
	case r >= 0x2700 && r <= 0x27BF:
		return true
	}
	return false
}

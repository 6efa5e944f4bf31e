// Package theme holds the static catalog of retro color palettes.
package theme

import (
	"fmt"
	"strconv"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Palette is a named set of display colors. Colors are #rrggbb, Dim may
// carry an alpha byte (#rrggbbaa).
type Palette struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Background string `json:"background"`
	Foreground string `json:"foreground"`
	Dim        string `json:"dim"`
	Accent     string `json:"accent"`
}

var catalog = []Palette{
	{ID: "crt-green", Name: "CRT Green", Background: "#0d1b0d", Foreground: "#00ff41", Dim: "#00802080", Accent: "#00ff41"},
	{ID: "amber", Name: "Amber Terminal", Background: "#1a0f00", Foreground: "#ffb000", Dim: "#80580080", Accent: "#ffb000"},
	{ID: "commodore", Name: "Commodore 64", Background: "#3e31a2", Foreground: "#7c70da", Dim: "#5a4fb380", Accent: "#a59fef"},
	{ID: "arcade", Name: "Arcade Purple", Background: "#1a001a", Foreground: "#ff00ff", Dim: "#80008080", Accent: "#ff00ff"},
	{ID: "monochrome", Name: "Monochrome", Background: "#000000", Foreground: "#ffffff", Dim: "#808080", Accent: "#cccccc"},
	{ID: "white-paper", Name: "White Paper", Background: "#ffffff", Foreground: "#000000", Dim: "#808080", Accent: "#333333"},
}

// All returns a copy of the catalog in display order.
func All() []Palette {
	out := make([]Palette, len(catalog))
	copy(out, catalog)
	return out
}

// Default is the first palette of the catalog.
func Default() Palette { return catalog[0] }

// Lookup finds a palette by id.
func Lookup(id string) (Palette, bool) {
	for _, p := range catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Palette{}, false
}

// Colors are the parsed palette colors, with Dim flattened onto Background.
type Colors struct {
	Background colorful.Color
	Foreground colorful.Color
	Dim        colorful.Color
	Accent     colorful.Color
}

// Colors parses the palette. Dim's alpha is blended over the background so
// the result can be shown on outputs without transparency.
func (p Palette) Colors() (Colors, error) {
	var c Colors
	var err error
	if c.Background, _, err = parseHex(p.Background); err != nil {
		return Colors{}, fmt.Errorf("palette %s background: %w", p.ID, err)
	}
	if c.Foreground, _, err = parseHex(p.Foreground); err != nil {
		return Colors{}, fmt.Errorf("palette %s foreground: %w", p.ID, err)
	}
	if c.Accent, _, err = parseHex(p.Accent); err != nil {
		return Colors{}, fmt.Errorf("palette %s accent: %w", p.ID, err)
	}
	dim, alpha, err := parseHex(p.Dim)
	if err != nil {
		return Colors{}, fmt.Errorf("palette %s dim: %w", p.ID, err)
	}
	c.Dim = c.Background.BlendRgb(dim, alpha).Clamped()
	return c, nil
}

func parseHex(s string) (colorful.Color, float64, error) {
	alpha := 1.0
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return colorful.Color{}, 0, fmt.Errorf("alpha %q: %w", s[7:], err)
		}
		alpha = float64(a) / 255
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, 0, err
	}
	return c, alpha, nil
}

// Package term is a line-based terminal front end for the engine.
package term

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/muesli/termenv"

	"github.com/jaminalder/retro-tic-tac-toe/internal/app"
	"github.com/jaminalder/retro-tic-tac-toe/internal/theme"
)

// Renderer draws states with the active palette's colors.
type Renderer struct {
	out *termenv.Output
}

// NewRenderer renders for w. Pass termenv.Ascii for uncolored output.
func NewRenderer(w io.Writer, p termenv.Profile) *Renderer {
	return &Renderer{out: termenv.NewOutput(w, termenv.WithProfile(p))}
}

type styles struct {
	fg, dim, accent termenv.Color
}

func (r *Renderer) styles(p theme.Palette) styles {
	c, err := p.Colors()
	if err != nil {
		c, _ = theme.Default().Colors()
	}
	return styles{
		fg:     r.out.Color(c.Foreground.Hex()),
		dim:    r.out.Color(c.Dim.Hex()),
		accent: r.out.Color(c.Accent.Hex()),
	}
}

// Board renders the grid plus status and score lines.
func (r *Renderer) Board(st app.State) string {
	s := r.styles(st.Palette)
	sep := r.out.String("---+---+---").Foreground(s.dim).String()
	var b strings.Builder
	for row := 0; row < 3; row++ {
		if row > 0 {
			b.WriteString(sep + "\n")
		}
		for col := 0; col < 3; col++ {
			if col > 0 {
				b.WriteString(r.out.String("|").Foreground(s.dim).String())
			}
			i := row*3 + col
			if sym := st.Board[i]; sym != "" {
				b.WriteString(" " + r.out.String(sym).Foreground(s.fg).Bold().String() + " ")
			} else {
				b.WriteString(" " + r.out.String(strconv.Itoa(i)).Foreground(s.dim).String() + " ")
			}
		}
		b.WriteString("\n")
	}
	b.WriteString(r.out.String(status(st)).Foreground(s.accent).String() + "\n")
	score := fmt.Sprintf("%s %d : %d %s   games %d", st.Player1Symbol, st.Player1Score, st.Player2Score, st.Player2Symbol, st.GamesPlayed)
	b.WriteString(r.out.String(score).Foreground(s.fg).String() + "\n")
	return b.String()
}

func status(st app.State) string {
	switch st.Result {
	case "won":
		return st.Winner + " WINS"
	case "draw":
		return "DRAW"
	}
	line := "TURN " + st.TurnSymbol
	if st.Thinking {
		line += " (thinking)"
	}
	if st.RemainingMs > 0 {
		line += fmt.Sprintf("  %.1fs", float64(st.RemainingMs)/1000)
	}
	return line
}

// Message renders a one-line notice in the accent color.
func (r *Renderer) Message(p theme.Palette, msg string) string {
	return r.out.String(msg).Foreground(r.styles(p).accent).String() + "\n"
}

package web

import (
	"bytes"
	"html/template"

	"github.com/jaminalder/retro-tic-tac-toe/internal/app"
	"github.com/jaminalder/retro-tic-tac-toe/internal/theme"
)

type templates struct {
	page  *template.Template
	board *template.Template
}

type cellView struct {
	Index    int
	Symbol   string
	Erasable bool
}

type colorsView struct {
	Background string
	Foreground string
	Dim        string
	Accent     string
}

type view struct {
	State  app.State
	Colors colorsView
	Rows   [3][3]cellView
}

func newView(st app.State) view {
	v := view{State: st}
	c, err := st.Palette.Colors()
	if err != nil {
		c, _ = theme.Default().Colors()
	}
	v.Colors = colorsView{
		Background: c.Background.Hex(),
		Foreground: c.Foreground.Hex(),
		Dim:        c.Dim.Hex(),
		Accent:     c.Accent.Hex(),
	}
	opponent := st.Player2Symbol
	if st.Turn == "player2" {
		opponent = st.Player1Symbol
	}
	for i, s := range st.Board {
		v.Rows[i/3][i%3] = cellView{
			Index:    i,
			Symbol:   s,
			Erasable: st.Rules.Eraser && st.Result == "in_progress" && s != "" && s == opponent,
		}
	}
	return v
}

func loadTemplates() *templates {
	page := template.Must(template.New("page").Parse(pageTemplate))
	template.Must(page.New("board").Parse(boardTemplate))
	board := template.Must(template.New("board_only").Parse(boardTemplate))
	return &templates{page: page, board: board}
}

func renderTemplate(t *template.Template, st app.State) []byte {
	var buf bytes.Buffer
	_ = t.Execute(&buf, newView(st))
	return buf.Bytes()
}

const pageTemplate = `<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Retro Tic-Tac-Toe</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
<style>
body{background:{{.Colors.Background}};color:{{.Colors.Foreground}};font-family:monospace}
.grid{display:inline-block}
.row{display:flex}
.cell button{width:4em;height:4em;background:none;color:{{.Colors.Foreground}};border:1px solid {{.Colors.Dim}};font-size:1.5em}
.erase{color:{{.Colors.Accent}};border:none;background:none}
</style>
</head><body>
<h1>TIC-TAC-TOE</h1>
<div hx-ext="sse" sse-connect="/events">
  <div hx-get="/board" hx-trigger="sse:state, sse:time_up" hx-swap="outerHTML" hx-target="#board"></div>
  {{template "board" .}}
</div>
</body></html>`

const boardTemplate = `
<div id="board">
  <p class="status">
  {{if eq .State.Result "won"}}{{.State.Winner}} WINS{{else if eq .State.Result "draw"}}DRAW{{else}}TURN {{.State.TurnSymbol}}{{if .State.Thinking}} ...{{end}}{{end}}
  {{if .State.RemainingMs}} {{.State.RemainingMs}}ms{{end}}
  </p>
  <p class="score">{{.State.Player1Symbol}} {{.State.Player1Score}} : {{.State.Player2Score}} {{.State.Player2Symbol}} / {{.State.GamesPlayed}}</p>
  <div class="grid">
  {{range .Rows}}
  <div class="row">
    {{range .}}
    <form class="cell" hx-post="/play" hx-target="#board" hx-swap="outerHTML" method="post">
      <input type="hidden" name="index" value="{{.Index}}">
      <button type="submit" name="action" value="tap">{{.Symbol}}</button>
      {{if .Erasable}}<button class="erase" type="submit" name="action" value="erase">erase</button>{{end}}
    </form>
    {{end}}
  </div>
  {{end}}
  </div>
</div>
`

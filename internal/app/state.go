package app

import (
	"github.com/jaminalder/retro-tic-tac-toe/internal/theme"
)

// Rules mirrors domain.Rules for JSON output.
type Rules struct {
	Eraser bool `json:"eraser"`
	Switch bool `json:"switch"`
	Speed  bool `json:"speed"`
}

// State is a snapshot of everything a front end needs to draw.
type State struct {
	Board         [9]string     `json:"board"`
	Turn          string        `json:"turn"`
	TurnSymbol    string        `json:"turnSymbol"`
	Result        string        `json:"result"`
	Winner        string        `json:"winner,omitempty"`
	Player1Symbol string        `json:"player1Symbol"`
	Player2Symbol string        `json:"player2Symbol"`
	Player1Score  int           `json:"player1Score"`
	Player2Score  int           `json:"player2Score"`
	GamesPlayed   int           `json:"gamesPlayed"`
	Mode          Mode          `json:"mode"`
	Rules         Rules         `json:"rules"`
	Palette       theme.Palette `json:"palette"`
	Thinking      bool          `json:"thinking"`
	RemainingMs   int64         `json:"remainingMs,omitempty"`
}

// State returns the current snapshot.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Engine) stateLocked() State {
	st := State{
		Turn:          e.game.Turn.String(),
		TurnSymbol:    string(e.game.SymbolOf(e.game.Turn)),
		Result:        e.game.Result.String(),
		Winner:        string(e.game.WinnerSymbol()),
		Player1Symbol: string(e.game.Symbols[0]),
		Player2Symbol: string(e.game.Symbols[1]),
		Player1Score:  e.scores.Player1,
		Player2Score:  e.scores.Player2,
		GamesPlayed:   e.scores.GamesPlayed,
		Mode:          e.mode,
		Rules:         Rules{Eraser: e.game.Rules.Eraser, Switch: e.game.Rules.Switch, Speed: e.game.Rules.Speed},
		Palette:       e.palette,
		Thinking:      e.aiTimer != nil,
	}
	for i, c := range e.game.Board {
		st.Board[i] = string(c)
	}
	if e.countdown != nil {
		st.RemainingMs = durationMs(e.countdown.remaining)
	}
	return st
}

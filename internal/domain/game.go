package domain

import "errors"

// Player identifies a seat.
type Player uint8

const (
	NoPlayer Player = iota
	Player1
	Player2
)

// Other returns the opposing seat.
func (p Player) Other() Player {
	if p == Player1 {
		return Player2
	}
	return Player1
}

func (p Player) String() string {
	switch p {
	case Player1:
		return "player1"
	case Player2:
		return "player2"
	default:
		return "none"
	}
}

// Result is the state of the current match.
type Result uint8

const (
	InProgress Result = iota
	Won
	Draw
)

func (r Result) String() string {
	switch r {
	case Won:
		return "won"
	case Draw:
		return "draw"
	default:
		return "in_progress"
	}
}

// Terminal reports whether the match is finished.
func (r Result) Terminal() bool { return r != InProgress }

// Board is a fixed 3x3 board stored row-major. An empty string is an empty cell.
type Board [9]Symbol

// Rules holds the freely combinable rule variants.
type Rules struct {
	Eraser bool
	Switch bool
	Speed  bool
}

// Game holds the current state of a match.
type Game struct {
	Board   Board
	Turn    Player
	Result  Result
	Winner  Player
	Moves   int
	Symbols [2]Symbol
	Rules   Rules
}

// Errors returned by domain operations.
var (
	ErrOutOfBounds  = errors.New("out of bounds")
	ErrOccupied     = errors.New("cell occupied")
	ErrGameOver     = errors.New("game over")
	ErrRuleDisabled = errors.New("rule variant disabled")
	ErrNotOpponent  = errors.New("cell does not hold the opponent's symbol")
)

// New returns a fresh match with Player1 to move.
func New(p1, p2 Symbol, rules Rules) Game {
	return Game{Turn: Player1, Symbols: [2]Symbol{p1, p2}, Rules: rules}
}

// Reset clears the board, turn and result. Symbols and rules are kept.
func (g *Game) Reset() {
	*g = New(g.Symbols[0], g.Symbols[1], g.Rules)
}

// SymbolOf returns the symbol used by p.
func (g *Game) SymbolOf(p Player) Symbol {
	if p == Player2 {
		return g.Symbols[1]
	}
	return g.Symbols[0]
}

// WinnerSymbol returns the winning symbol, or Empty if the match is not won.
func (g *Game) WinnerSymbol() Symbol {
	if g.Result != Won {
		return Empty
	}
	return g.SymbolOf(g.Winner)
}

// Place writes the mover's symbol into an empty cell.
func (g *Game) Place(idx int) error {
	if err := g.check(idx); err != nil {
		return err
	}
	if g.Board[idx] != Empty {
		return ErrOccupied
	}
	g.Board[idx] = g.SymbolOf(g.Turn)
	g.Moves++
	g.settle()
	return nil
}

// Erase clears a cell holding the opponent's symbol and passes the turn.
func (g *Game) Erase(idx int) error {
	if !g.Rules.Eraser {
		return ErrRuleDisabled
	}
	if err := g.check(idx); err != nil {
		return err
	}
	if g.Board[idx] != g.SymbolOf(g.Turn.Other()) {
		return ErrNotOpponent
	}
	g.Board[idx] = Empty
	g.Moves++
	g.Turn = g.Turn.Other()
	return nil
}

// Switch captures a cell holding the opponent's symbol.
func (g *Game) Switch(idx int) error {
	if !g.Rules.Switch {
		return ErrRuleDisabled
	}
	if err := g.check(idx); err != nil {
		return err
	}
	opp := g.SymbolOf(g.Turn.Other())
	if !g.Board.Holds(opp) || g.Board[idx] != opp {
		return ErrNotOpponent
	}
	g.Board[idx] = g.SymbolOf(g.Turn)
	g.Moves++
	g.settle()
	return nil
}

func (g *Game) check(idx int) error {
	if g.Result.Terminal() {
		return ErrGameOver
	}
	if idx < 0 || idx >= len(g.Board) {
		return ErrOutOfBounds
	}
	return nil
}

// settle evaluates the board after a placing move and flips the turn if
// the match continues.
func (g *Game) settle() {
	winner, res := Evaluate(g.Board)
	switch res {
	case Won:
		g.Result = Won
		if winner == g.Symbols[0] {
			g.Winner = Player1
		} else {
			g.Winner = Player2
		}
	case Draw:
		g.Result = Draw
	default:
		g.Turn = g.Turn.Other()
	}
}

// Lines lists the 8 winning triples in canonical order.
var Lines = [8][3]int{
	// rows
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	// cols
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	// diags
	{0, 4, 8}, {2, 4, 6},
}

// Evaluate returns the winning symbol of the first complete line, or Draw
// when the board is full, or InProgress.
func Evaluate(b Board) (Symbol, Result) {
	for _, ln := range Lines {
		s := b[ln[0]]
		if s != Empty && s == b[ln[1]] && s == b[ln[2]] {
			return s, Won
		}
	}
	if b.Full() {
		return Empty, Draw
	}
	return Empty, InProgress
}

// Full reports whether every cell is occupied.
func (b Board) Full() bool {
	for _, c := range b {
		if c == Empty {
			return false
		}
	}
	return true
}

// Holds reports whether any cell holds s.
func (b Board) Holds(s Symbol) bool {
	for _, c := range b {
		if c == s {
			return true
		}
	}
	return false
}

// EmptyCells returns the indices of empty cells in ascending order.
func (b Board) EmptyCells() []int {
	out := make([]int, 0, len(b))
	for i, c := range b {
		if c == Empty {
			out = append(out, i)
		}
	}
	return out
}

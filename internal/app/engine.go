package app

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/jaminalder/retro-tic-tac-toe/internal/domain"
	"github.com/jaminalder/retro-tic-tac-toe/internal/store"
	"github.com/jaminalder/retro-tic-tac-toe/internal/theme"
)

// Mode selects who plays Player2.
type Mode string

const (
	ModeAI     Mode = "ai"
	ModePlayer Mode = "player"
)

// ErrInvalidMode is returned for a mode other than ai or player.
var ErrInvalidMode = errors.New("invalid game mode")

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAI, ModePlayer:
		return Mode(s), nil
	}
	return "", ErrInvalidMode
}

// Timing holds the engine's scheduled delays.
type Timing struct {
	AIDelay      time.Duration
	SpeedLimit   time.Duration
	SpeedTick    time.Duration
	SaveDebounce time.Duration
}

// DefaultTiming returns the stock delays.
func DefaultTiming() Timing {
	return Timing{
		AIDelay:      500 * time.Millisecond,
		SpeedLimit:   2 * time.Second,
		SpeedTick:    100 * time.Millisecond,
		SaveDebounce: 100 * time.Millisecond,
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock, typically with clock.NewMock().
func WithClock(c clock.Clock) Option { return func(e *Engine) { e.clock = c } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.log = l } }

// WithRand sets the source used by the opponent's random picks.
func WithRand(r *rand.Rand) Option { return func(e *Engine) { e.rng = r } }

// WithTiming overrides the scheduled delays.
func WithTiming(t Timing) Option { return func(e *Engine) { e.timing = t } }

// Engine owns all game state. Every mutator and every timer callback runs
// under mu, so transitions never interleave.
type Engine struct {
	mu     sync.Mutex
	saveMu sync.Mutex

	store  store.Store
	clock  clock.Clock
	log    *zap.Logger
	rng    *rand.Rand
	timing Timing

	game    domain.Game
	scores  domain.ScoreBoard
	mode    Mode
	palette theme.Palette

	aiTimer   *clock.Timer
	aiSeq     uint64
	countdown *countdown
	saveTimer *clock.Timer
	saveSeq   uint64
	dirty     bool

	subs   map[*subscriber]struct{}
	closed bool
}

// New builds an engine and restores the saved settings record from st.
// Load failures are logged and leave defaults in place.
func New(ctx context.Context, st store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  st,
		clock:  clock.New(),
		log:    zap.NewNop(),
		timing: DefaultTiming(),
		subs:   make(map[*subscriber]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(e.clock.Now().UnixNano()))
	}
	e.load(ctx)
	return e
}

// Place puts the mover's symbol into an empty cell.
func (e *Engine) Place(idx int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.aiTurnLocked() {
		e.log.Debug("move ignored", zap.String("move", "place"), zap.Int("index", idx), zap.String("reason", "opponent is thinking"))
		return false
	}
	return e.applyLocked("place", idx, e.game.Place)
}

// Erase clears an opponent cell. Only accepted with the eraser rule on.
func (e *Engine) Erase(idx int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.aiTurnLocked() {
		return false
	}
	return e.applyLocked("erase", idx, e.game.Erase)
}

// Switch captures an opponent cell. Only accepted with the switch rule on.
func (e *Engine) Switch(idx int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.aiTurnLocked() {
		return false
	}
	return e.applyLocked("switch", idx, e.game.Switch)
}

// Tap routes a single tap: with the switch rule on, a tap on an opponent cell
// switches it; otherwise the tap places. When eraser and switch are both on,
// switch takes precedence for taps and erase needs an explicit Erase.
func (e *Engine) Tap(idx int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.aiTurnLocked() {
		return false
	}
	if e.game.Rules.Switch && idx >= 0 && idx < len(e.game.Board) &&
		e.game.Board[idx] != domain.Empty && e.game.Board[idx] == e.game.SymbolOf(e.game.Turn.Other()) {
		return e.applyLocked("switch", idx, e.game.Switch)
	}
	return e.applyLocked("place", idx, e.game.Place)
}

// SwitchAlong tries each cell of a drag path in order and stops at the
// first accepted switch.
func (e *Engine) SwitchAlong(cells []int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.aiTurnLocked() {
		return false
	}
	for _, idx := range cells {
		if e.applyLocked("switch", idx, e.game.Switch) {
			return true
		}
	}
	return false
}

func (e *Engine) applyLocked(kind string, idx int, move func(int) error) bool {
	if e.closed {
		return false
	}
	if err := move(idx); err != nil {
		e.log.Debug("move ignored", zap.String("move", kind), zap.Int("index", idx), zap.Error(err))
		return false
	}
	e.stopCountdownLocked()
	if e.game.Result.Terminal() {
		e.scores.Record(e.game.Winner)
		e.markDirtyLocked()
		e.log.Info("match finished",
			zap.String("result", e.game.Result.String()),
			zap.String("winner", string(e.game.WinnerSymbol())),
			zap.Int("games_played", e.scores.GamesPlayed))
	}
	e.scheduleLocked()
	e.publishLocked(Event{Kind: EventState})
	return true
}

func (e *Engine) aiTurnLocked() bool {
	return e.mode == ModeAI && e.game.Turn == domain.Player2 && !e.game.Result.Terminal()
}

// ResetGame clears board, turn and result. Scores and settings are untouched.
func (e *Engine) ResetGame() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetGameLocked()
}

func (e *Engine) resetGameLocked() {
	e.game.Reset()
	e.cancelAILocked()
	e.stopCountdownLocked()
	e.publishLocked(Event{Kind: EventState})
}

// ResetScores zeroes both players' wins. The tally is kept.
func (e *Engine) ResetScores() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scores.Player1, e.scores.Player2 = 0, 0
	e.markDirtyLocked()
	e.publishLocked(Event{Kind: EventState})
}

// HardReset zeroes both scores and the games-played tally.
func (e *Engine) HardReset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scores = domain.ScoreBoard{}
	e.markDirtyLocked()
	e.publishLocked(Event{Kind: EventState})
}

// ChangeGameMode switches between AI and two-player and starts a new match.
func (e *Engine) ChangeGameMode(m Mode) error {
	if _, err := ParseMode(string(m)); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = m
	e.markDirtyLocked()
	e.resetGameLocked()
	return nil
}

// ChangeSymbols normalizes and applies both symbols and starts a new match.
// It returns false, changing nothing, when the symbols would collide.
func (e *Engine) ChangeSymbols(p1, p2 string) bool {
	s1, s2, ok := domain.NormalizeSymbols(p1, p2)
	if !ok {
		e.log.Debug("symbols rejected", zap.String("player1", p1), zap.String("player2", p2))
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.game.Symbols = [2]domain.Symbol{s1, s2}
	e.markDirtyLocked()
	e.resetGameLocked()
	return true
}

// ChangePalette selects a palette from the catalog by id.
func (e *Engine) ChangePalette(id string) bool {
	p, ok := theme.Lookup(id)
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.palette = p
	e.markDirtyLocked()
	e.publishLocked(Event{Kind: EventState})
	return true
}

// ToggleEraser flips the eraser rule and returns its new value.
func (e *Engine) ToggleEraser() bool {
	return e.toggle(func(r *domain.Rules) *bool { return &r.Eraser })
}

// ToggleSwitch flips the switch rule and returns its new value.
func (e *Engine) ToggleSwitch() bool {
	return e.toggle(func(r *domain.Rules) *bool { return &r.Switch })
}

// ToggleSpeed flips the speed rule and returns its new value.
func (e *Engine) ToggleSpeed() bool {
	return e.toggle(func(r *domain.Rules) *bool { return &r.Speed })
}

// toggle never resets the match in progress.
func (e *Engine) toggle(flag func(*domain.Rules) *bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := flag(&e.game.Rules)
	*p = !*p
	e.markDirtyLocked()
	e.scheduleLocked()
	e.publishLocked(Event{Kind: EventState})
	return *p
}

// Close cancels all timers, closes subscribers and writes a pending save.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.cancelAILocked()
	e.stopCountdownLocked()
	if e.saveTimer != nil {
		e.saveTimer.Stop()
		e.saveTimer = nil
	}
	e.saveSeq++
	for sub := range e.subs {
		delete(e.subs, sub)
		sub.close()
	}
	if !e.dirty {
		e.mu.Unlock()
		return nil
	}
	e.dirty = false
	rec := e.recordLocked()
	e.saveMu.Lock()
	e.mu.Unlock()
	defer e.saveMu.Unlock()
	return e.save(ctx, rec)
}

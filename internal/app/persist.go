package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jaminalder/retro-tic-tac-toe/internal/domain"
	"github.com/jaminalder/retro-tic-tac-toe/internal/store"
	"github.com/jaminalder/retro-tic-tac-toe/internal/theme"
)

const saveTimeout = 5 * time.Second

func defaultRecord() store.Record {
	return store.Record{
		Player1Symbol: string(domain.DefaultPlayer1),
		Player2Symbol: string(domain.DefaultPlayer2),
		Palette:       theme.Default().ID,
		GameMode:      string(ModeAI),
	}
}

func (e *Engine) load(ctx context.Context) {
	rec := defaultRecord()
	b, err := e.store.Get(ctx, store.Key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		e.log.Info("no saved state, starting fresh")
	case err != nil:
		e.log.Warn("failed to load saved state", zap.Error(err))
	default:
		if rec, err = store.DecodeRecord(b, rec); err != nil {
			e.log.Warn("saved state is malformed, using defaults", zap.Error(err))
		}
	}
	e.apply(rec)
}

// apply installs a decoded record, replacing values that fail validation.
func (e *Engine) apply(rec store.Record) {
	s1, s2, ok := domain.NormalizeSymbols(rec.Player1Symbol, rec.Player2Symbol)
	if !ok {
		e.log.Warn("saved symbols collide, using defaults", zap.String("symbol", string(s1)))
		s1, s2 = domain.DefaultPlayer1, domain.DefaultPlayer2
	}
	mode, err := ParseMode(rec.GameMode)
	if err != nil {
		mode = ModeAI
	}
	pal, ok := theme.Lookup(rec.Palette)
	if !ok {
		pal = theme.Default()
	}
	games := rec.GamesPlayed
	if games >= domain.TallyRollover {
		games = 0
	}
	e.mode = mode
	e.palette = pal
	e.scores = domain.ScoreBoard{Player1: rec.Player1Score, Player2: rec.Player2Score, GamesPlayed: games}
	e.game = domain.New(s1, s2, domain.Rules{Eraser: rec.EraserMode, Switch: rec.SwitchMode, Speed: rec.SpeedMode})
}

func (e *Engine) recordLocked() store.Record {
	return store.Record{
		GamesPlayed:   e.scores.GamesPlayed,
		Player1Score:  e.scores.Player1,
		Player2Score:  e.scores.Player2,
		Player1Symbol: string(e.game.Symbols[0]),
		Player2Symbol: string(e.game.Symbols[1]),
		Palette:       e.palette.ID,
		GameMode:      string(e.mode),
		EraserMode:    e.game.Rules.Eraser,
		SwitchMode:    e.game.Rules.Switch,
		SpeedMode:     e.game.Rules.Speed,
	}
}

// markDirtyLocked (re)starts the save debounce so a burst of changes
// produces a single write.
func (e *Engine) markDirtyLocked() {
	if e.closed {
		return
	}
	e.dirty = true
	if e.saveTimer != nil {
		e.saveTimer.Stop()
	}
	e.saveSeq++
	seq := e.saveSeq
	e.saveTimer = e.clock.AfterFunc(e.timing.SaveDebounce, func() { e.flush(seq) })
}

func (e *Engine) flush(seq uint64) {
	e.mu.Lock()
	if seq != e.saveSeq || !e.dirty {
		e.mu.Unlock()
		return
	}
	e.dirty = false
	e.saveTimer = nil
	rec := e.recordLocked()
	e.saveMu.Lock()
	e.mu.Unlock()
	defer e.saveMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	_ = e.save(ctx, rec)
}

// save writes rec; failures are logged and returned for callers that care.
func (e *Engine) save(ctx context.Context, rec store.Record) error {
	b, err := rec.Marshal()
	if err != nil {
		e.log.Error("failed to encode state", zap.Error(err))
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := e.store.Set(ctx, store.Key, b); err != nil {
		e.log.Error("failed to save state", zap.Error(err))
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

package app

import (
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/jaminalder/retro-tic-tac-toe/internal/domain"
)

// scheduleLocked arms the timers the current state needs and cancels the
// ones it no longer does. A running countdown is left alone.
func (e *Engine) scheduleLocked() {
	if e.closed || e.game.Result.Terminal() {
		e.cancelAILocked()
		e.stopCountdownLocked()
		return
	}
	if e.aiTurnLocked() {
		e.stopCountdownLocked()
		if e.aiTimer == nil {
			e.scheduleAILocked()
		}
		return
	}
	e.cancelAILocked()
	switch {
	case !e.game.Rules.Speed || e.game.Moves == 0:
		e.stopCountdownLocked()
	case e.countdown == nil:
		e.armCountdownLocked()
	}
}

func (e *Engine) scheduleAILocked() {
	e.aiSeq++
	seq := e.aiSeq
	e.aiTimer = e.clock.AfterFunc(e.timing.AIDelay, func() { e.fireAI(seq) })
}

func (e *Engine) cancelAILocked() {
	if e.aiTimer != nil {
		e.aiTimer.Stop()
		e.aiTimer = nil
	}
	e.aiSeq++
}

// fireAI plays the opponent's move unless the turn it was scheduled for is gone.
func (e *Engine) fireAI(seq uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || seq != e.aiSeq || !e.aiTurnLocked() {
		return
	}
	e.aiTimer = nil
	idx, ok := domain.ChooseMove(e.game.Board, e.game.SymbolOf(domain.Player2), e.game.SymbolOf(domain.Player1), e.rng)
	if !ok {
		return
	}
	e.log.Debug("opponent move", zap.Int("index", idx))
	e.applyLocked("place", idx, e.game.Place)
}

type countdown struct {
	ticker    *clock.Ticker
	stop      chan struct{}
	deadline  time.Time
	remaining time.Duration
	player    domain.Player
}

func (e *Engine) armCountdownLocked() {
	e.stopCountdownLocked()
	cd := &countdown{
		ticker:    e.clock.Ticker(e.timing.SpeedTick),
		stop:      make(chan struct{}),
		deadline:  e.clock.Now().Add(e.timing.SpeedLimit),
		remaining: e.timing.SpeedLimit,
		player:    e.game.Turn,
	}
	e.countdown = cd
	go e.runCountdown(cd)
}

func (e *Engine) stopCountdownLocked() {
	if e.countdown == nil {
		return
	}
	e.countdown.ticker.Stop()
	close(e.countdown.stop)
	e.countdown = nil
}

func (e *Engine) runCountdown(cd *countdown) {
	for {
		select {
		case <-cd.stop:
			return
		case now := <-cd.ticker.C:
			if e.tick(cd, now) {
				return
			}
		}
	}
}

// tick updates the remaining time and reports whether the countdown is over.
func (e *Engine) tick(cd *countdown, now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.countdown != cd {
		return true
	}
	cd.remaining = cd.deadline.Sub(now)
	if cd.remaining > 0 {
		e.publishLocked(Event{Kind: EventTick, RemainingMs: durationMs(cd.remaining)})
		return false
	}
	cd.remaining = 0
	e.stopCountdownLocked()
	e.log.Info("turn timed out", zap.String("loser", cd.player.String()))
	e.publishLocked(Event{Kind: EventTimeUp, Loser: cd.player.String()})
	e.resetGameLocked()
	return true
}

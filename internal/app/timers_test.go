package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaminalder/retro-tic-tac-toe/internal/store"
)

const settle = 20 * time.Millisecond

func boardAt(e *Engine, i int) func() bool {
	return func() bool { return e.State().Board[i] != "" }
}

func nextEvent(t *testing.T, ch <-chan Event, kind EventKind) Event {
	t.Helper()
	timeout := time.After(waitFor)
	for {
		select {
		case ev, ok := <-ch:
			require.True(t, ok, "subscription closed while waiting for %s", kind)
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %s event", kind)
		}
	}
}

func TestAIMovesAfterDelay(t *testing.T) {
	e, mock := newEngine(t, store.NewMemory())
	place(t, e, 0)
	assert.True(t, e.State().Thinking)
	assert.False(t, e.Place(1), "human cannot move for the opponent")

	mock.Add(499 * time.Millisecond)
	time.Sleep(settle)
	assert.Equal(t, "", e.State().Board[4])

	mock.Add(time.Millisecond)
	require.Eventually(t, boardAt(e, 4), waitFor, time.Millisecond)
	s := e.State()
	assert.Equal(t, "O", s.Board[4], "quiet board: opponent takes the center")
	assert.Equal(t, "player1", s.Turn)
	assert.False(t, s.Thinking)
}

func TestAIBlocksThenWins(t *testing.T) {
	e, mock := newEngine(t, store.NewMemory())
	place(t, e, 0)
	mock.Add(500 * time.Millisecond)
	require.Eventually(t, boardAt(e, 4), waitFor, time.Millisecond)

	// X X _ : the opponent must block at 2
	place(t, e, 1)
	mock.Add(500 * time.Millisecond)
	require.Eventually(t, boardAt(e, 2), waitFor, time.Millisecond)
	assert.Equal(t, "O", e.State().Board[2])

	// O holds 2 and 4, so 6 completes the anti-diagonal
	place(t, e, 5)
	mock.Add(500 * time.Millisecond)
	require.Eventually(t, boardAt(e, 6), waitFor, time.Millisecond)
	s := e.State()
	assert.Equal(t, "won", s.Result)
	assert.Equal(t, "O", s.Winner)
	assert.Equal(t, 1, s.Player2Score)
	assert.False(t, s.Thinking)
}

func TestAICancelledByReset(t *testing.T) {
	e, mock := newEngine(t, store.NewMemory())
	place(t, e, 0)
	e.ResetGame()
	assert.False(t, e.State().Thinking)

	mock.Add(time.Second)
	time.Sleep(settle)
	assert.Equal(t, [9]string{}, e.State().Board)
}

func TestAICancelledByModeChange(t *testing.T) {
	e, mock := newEngine(t, store.NewMemory())
	place(t, e, 0)
	require.NoError(t, e.ChangeGameMode(ModePlayer))

	mock.Add(time.Second)
	time.Sleep(settle)
	assert.Equal(t, [9]string{}, e.State().Board)
}

func TestAIRespondsToErase(t *testing.T) {
	e, mock := newEngine(t, store.NewMemory())
	e.ToggleEraser()
	place(t, e, 0)
	mock.Add(500 * time.Millisecond)
	require.Eventually(t, boardAt(e, 4), waitFor, time.Millisecond)

	require.True(t, e.Erase(4))
	assert.True(t, e.State().Thinking)
	mock.Add(500 * time.Millisecond)
	require.Eventually(t, boardAt(e, 4), waitFor, time.Millisecond)
	assert.Equal(t, "player1", e.State().Turn)
}

func TestDebounceCoalescesWrites(t *testing.T) {
	st := &countingStore{Memory: store.NewMemory()}
	e, mock := newEngine(t, st)

	e.ToggleEraser()
	mock.Add(50 * time.Millisecond)
	e.ToggleSwitch()
	mock.Add(50 * time.Millisecond)
	require.True(t, e.ChangePalette("amber"))
	time.Sleep(settle)
	assert.Zero(t, st.count(), "writes wait for a quiet period")

	mock.Add(100 * time.Millisecond)
	require.Eventually(t, func() bool { return st.count() == 1 }, waitFor, time.Millisecond)
	time.Sleep(settle)
	assert.Equal(t, 1, st.count())

	b, err := st.Get(context.Background(), store.Key)
	require.NoError(t, err)
	got, err := store.DecodeRecord(b, store.Record{})
	require.NoError(t, err)
	assert.True(t, got.EraserMode)
	assert.True(t, got.SwitchMode)
	assert.Equal(t, "amber", got.Palette)
}

func TestBoardIsNeverPersisted(t *testing.T) {
	st := store.NewMemory()
	e, mock := twoPlayer(t, st)
	place(t, e, 4, 0)
	mock.Add(100 * time.Millisecond)
	var b []byte
	require.Eventually(t, func() bool {
		var err error
		b, err = st.Get(context.Background(), store.Key)
		return err == nil
	}, waitFor, time.Millisecond)
	assert.NotContains(t, string(b), "board")
	assert.NotContains(t, string(b), "turn")
	assert.Contains(t, string(b), `"gameMode":"player"`)
}

func TestCloseFlushesPendingSave(t *testing.T) {
	st := store.NewMemory()
	e, _ := newEngine(t, st)
	require.True(t, e.ChangeSymbols("k", "z"))
	require.NoError(t, e.Close(context.Background()))

	b, err := st.Get(context.Background(), store.Key)
	require.NoError(t, err)
	rec, err := store.DecodeRecord(b, store.Record{})
	require.NoError(t, err)
	assert.Equal(t, "K", rec.Player1Symbol)
	assert.Equal(t, "Z", rec.Player2Symbol)

	restored := New(context.Background(), st)
	defer restored.Close(context.Background())
	assert.Equal(t, "K", restored.State().Player1Symbol)
}

func TestSpeedCountdownTimesOut(t *testing.T) {
	e, mock := twoPlayer(t, store.NewMemory())
	e.ToggleSpeed()
	assert.Zero(t, e.State().RemainingMs, "countdown waits for the first move")

	ch, unsub := e.Subscribe(context.Background())
	defer unsub()
	place(t, e, 0)
	assert.Equal(t, int64(2000), e.State().RemainingMs)

	mock.Add(100 * time.Millisecond)
	tick := nextEvent(t, ch, EventTick)
	assert.Equal(t, int64(1900), tick.RemainingMs)

	mock.Add(2 * time.Second)
	ev := nextEvent(t, ch, EventTimeUp)
	assert.Equal(t, "player2", ev.Loser)
	require.Eventually(t, func() bool { return e.State().Board == [9]string{} }, waitFor, time.Millisecond)
	s := e.State()
	assert.Zero(t, s.Player1Score+s.Player2Score, "running out of time is not scored")
	assert.Zero(t, s.RemainingMs)
}

func TestSpeedCountdownRestartsOnMove(t *testing.T) {
	e, mock := twoPlayer(t, store.NewMemory())
	e.ToggleSpeed()
	place(t, e, 0)

	mock.Add(1500 * time.Millisecond)
	require.Eventually(t, func() bool { return e.State().RemainingMs <= 500 }, waitFor, time.Millisecond)

	place(t, e, 1)
	assert.Equal(t, int64(2000), e.State().RemainingMs)
	mock.Add(1500 * time.Millisecond)
	time.Sleep(settle)
	s := e.State()
	assert.Equal(t, "X", s.Board[0])
	assert.Equal(t, "O", s.Board[1])
}

func TestSpeedDisabledStopsCountdown(t *testing.T) {
	e, mock := twoPlayer(t, store.NewMemory())
	e.ToggleSpeed()
	place(t, e, 0)
	assert.False(t, e.ToggleSpeed())
	assert.Zero(t, e.State().RemainingMs)

	mock.Add(3 * time.Second)
	time.Sleep(settle)
	assert.Equal(t, "X", e.State().Board[0])
}

func TestSpeedPausedDuringAITurn(t *testing.T) {
	e, mock := newEngine(t, store.NewMemory())
	e.ToggleSpeed()
	place(t, e, 0)
	assert.Zero(t, e.State().RemainingMs, "no countdown while the opponent thinks")

	mock.Add(500 * time.Millisecond)
	require.Eventually(t, boardAt(e, 4), waitFor, time.Millisecond)
	assert.Equal(t, int64(2000), e.State().RemainingMs)
}

func TestSpeedEnabledMidMatchStartsCountdown(t *testing.T) {
	e, _ := twoPlayer(t, store.NewMemory())
	place(t, e, 0)
	e.ToggleSpeed()
	assert.Equal(t, int64(2000), e.State().RemainingMs)
}

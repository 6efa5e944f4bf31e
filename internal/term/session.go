package term

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/muesli/termenv"

	"github.com/jaminalder/retro-tic-tac-toe/internal/app"
	"github.com/jaminalder/retro-tic-tac-toe/internal/theme"
)

const help = `commands:
  p N            place on cell N (0-8)
  e N            erase opponent cell N
  s N            switch opponent cell N
  new            new match, scores kept
  mode ai|player
  symbols A B
  palette ID     (palettes lists them)
  eraser | switch | speed   toggle a rule
  reset-scores | hard-reset
  quit`

// Session reads commands from in and draws every state change to out.
type Session struct {
	eng *app.Engine
	in  io.Reader
	out io.Writer
	r   *Renderer
	mu  sync.Mutex
}

// NewSession binds a session to the engine; p selects the color profile.
func NewSession(e *app.Engine, in io.Reader, out io.Writer, p termenv.Profile) *Session {
	return &Session{eng: e, in: in, out: out, r: NewRenderer(out, p)}
}

// Run blocks until quit, end of input or ctx is done.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events, unsub := s.eng.Subscribe(ctx)
	watched := make(chan struct{})
	go func() {
		defer close(watched)
		s.watch(events)
	}()
	defer func() {
		unsub()
		<-watched
	}()

	st := s.eng.State()
	s.write(s.r.Board(st) + s.r.Message(st.Palette, "type help for commands"))

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(s.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-scanErr:
			return err
		case line := <-lines:
			quit, msg := s.exec(line)
			if msg != "" {
				s.write(s.r.Message(s.eng.State().Palette, msg))
			}
			if quit {
				return nil
			}
		}
	}
}

func (s *Session) watch(events <-chan app.Event) {
	for ev := range events {
		switch ev.Kind {
		case app.EventState:
			s.write(s.r.Board(ev.State))
		case app.EventTimeUp:
			s.write(s.r.Message(ev.State.Palette, "TIME'S UP: "+loserSymbol(ev)+" loses"))
		}
	}
}

func loserSymbol(ev app.Event) string {
	if ev.Loser == "player2" {
		return ev.State.Player2Symbol
	}
	return ev.State.Player1Symbol
}

func (s *Session) write(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.out, text)
}

// exec runs one command line and returns a reply for the user.
func (s *Session) exec(line string) (quit bool, msg string) {
	f := strings.Fields(strings.ToLower(line))
	if len(f) == 0 {
		return false, ""
	}
	switch f[0] {
	case "quit", "q", "exit":
		return true, "bye"
	case "help", "?":
		return false, help
	case "p", "e", "s":
		if len(f) != 2 {
			return false, "usage: " + f[0] + " N"
		}
		idx, err := strconv.Atoi(f[1])
		if err != nil {
			return false, "cell must be a number 0-8"
		}
		move := map[string]func(int) bool{"p": s.eng.Place, "e": s.eng.Erase, "s": s.eng.Switch}[f[0]]
		if !move(idx) {
			return false, "not allowed"
		}
		return false, ""
	case "new":
		s.eng.ResetGame()
	case "reset-scores":
		s.eng.ResetScores()
	case "hard-reset":
		s.eng.HardReset()
	case "mode":
		if len(f) != 2 {
			return false, "usage: mode ai|player"
		}
		m, err := app.ParseMode(f[1])
		if err != nil {
			return false, err.Error()
		}
		if err := s.eng.ChangeGameMode(m); err != nil {
			return false, err.Error()
		}
	case "symbols":
		if len(f) != 3 {
			return false, "usage: symbols A B"
		}
		if !s.eng.ChangeSymbols(f[1], f[2]) {
			return false, "symbols must differ"
		}
	case "palette":
		if len(f) != 2 || !s.eng.ChangePalette(f[1]) {
			return false, "unknown palette, try palettes"
		}
	case "palettes":
		var b strings.Builder
		for _, p := range theme.All() {
			fmt.Fprintf(&b, "%-12s %s\n", p.ID, p.Name)
		}
		return false, strings.TrimRight(b.String(), "\n")
	case "eraser":
		return false, "eraser " + onOff(s.eng.ToggleEraser())
	case "switch":
		return false, "switch " + onOff(s.eng.ToggleSwitch())
	case "speed":
		return false, "speed " + onOff(s.eng.ToggleSpeed())
	default:
		return false, "unknown command " + strconv.Quote(f[0])
	}
	return false, ""
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

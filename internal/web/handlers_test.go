package web

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jaminalder/retro-tic-tac-toe/internal/app"
	"github.com/jaminalder/retro-tic-tac-toe/internal/store"
)

func newTestServer(t *testing.T) (*app.Engine, http.Handler) {
	t.Helper()
	e := app.New(context.Background(), store.NewMemory(),
		app.WithClock(clock.NewMock()),
		app.WithLogger(zaptest.NewLogger(t)),
	)
	t.Cleanup(func() { _ = e.Close(context.Background()) })
	if err := e.ChangeGameMode(app.ModePlayer); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	return e, NewServer(e, zaptest.NewLogger(t))
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeState(t *testing.T, rr *httptest.ResponseRecorder) app.State {
	t.Helper()
	var st app.State
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	return st
}

func TestIndexPage(t *testing.T) {
	_, h := newTestServer(t)
	rr := do(t, h, "GET", "/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `hx-ext="sse"`) || !strings.Contains(body, `sse-connect="/events"`) {
		t.Fatalf("expected SSE wiring in page; got body: %q", body)
	}
	if !strings.Contains(body, `id="board"`) || strings.Count(body, `name="index"`) != 9 {
		t.Fatalf("expected a 3x3 board; got body: %q", body)
	}
	if strings.Count(body, `class="row"`) != 3 || !strings.Contains(body, ".row{display:flex}") {
		t.Fatalf("expected cells laid out in three rows; got body: %q", body)
	}
	if !strings.Contains(body, "#0d1b0d") {
		t.Fatalf("expected default palette colors; got body: %q", body)
	}
}

func TestPlayReturnsBoardFragment(t *testing.T) {
	e, h := newTestServer(t)
	form := url.Values{"index": {"4"}, "action": {"tap"}}
	req := httptest.NewRequest("POST", "/play", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if strings.Contains(body, "<html") || !strings.Contains(body, `id="board"`) {
		t.Fatalf("expected board fragment; got body: %q", body)
	}
	if e.State().Board[4] != "X" {
		t.Fatalf("expected X at 4, got %q", e.State().Board[4])
	}
}

func TestPlayShowsEraseForOpponentCells(t *testing.T) {
	e, h := newTestServer(t)
	e.ToggleEraser()
	require.True(t, e.Place(0))
	body := do(t, h, "GET", "/board", "").Body.String()
	assert.Equal(t, 1, strings.Count(body, `value="erase"`))
}

func TestBoardRowsKeepCellOrder(t *testing.T) {
	_, h := newTestServer(t)
	body := do(t, h, "GET", "/board", "").Body.String()
	rows := strings.Split(body, `class="row"`)[1:]
	require.Len(t, rows, 3)
	for r, row := range rows {
		assert.Equal(t, 3, strings.Count(row, `name="index"`), "row %d", r)
		for c := 0; c < 3; c++ {
			assert.Contains(t, row, `name="index" value="`+strconv.Itoa(r*3+c)+`"`, "row %d", r)
		}
	}
}

func TestStateEndpoint(t *testing.T) {
	_, h := newTestServer(t)
	rr := do(t, h, "GET", "/api/state", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	st := decodeState(t, rr)
	assert.Equal(t, "player1", st.Turn)
	assert.Equal(t, app.ModePlayer, st.Mode)
	assert.Equal(t, "crt-green", st.Palette.ID)
}

func TestPalettesEndpoint(t *testing.T) {
	_, h := newTestServer(t)
	rr := do(t, h, "GET", "/api/palettes", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var ps []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ps))
	assert.Len(t, ps, 6)
}

func TestMoveEndpoint(t *testing.T) {
	_, h := newTestServer(t)
	rr := do(t, h, "POST", "/api/cells/4/place", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var res moveResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.True(t, res.Accepted)
	assert.Equal(t, "X", res.State.Board[4])

	rr = do(t, h, "POST", "/api/cells/4/place", "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.False(t, res.Accepted, "occupied cell is a no-op")
	assert.Equal(t, "player2", res.State.Turn)

	rr = do(t, h, "POST", "/api/cells/9/tap", "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.False(t, res.Accepted)
}

func TestMoveEndpointRejectsBadRequests(t *testing.T) {
	_, h := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/api/cells/x/place", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/api/cells/1/jump", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/api/switch-path", "{").Code)
}

func TestSwitchPathEndpoint(t *testing.T) {
	e, h := newTestServer(t)
	e.ToggleSwitch()
	require.True(t, e.Place(0))
	require.True(t, e.Place(4))
	// 0 is X's own cell, so the first accepted switch along the path is 4
	rr := do(t, h, "POST", "/api/switch-path", `{"cells":[0,4]}`)
	var res moveResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.True(t, res.Accepted)
	assert.Equal(t, [9]string{0: "X", 4: "X"}, res.State.Board)
	assert.Equal(t, "player2", res.State.Turn)
}

func TestSettingsEndpoints(t *testing.T) {
	e, h := newTestServer(t)
	for _, i := range []int{0, 3, 1, 4, 2} {
		require.True(t, e.Place(i))
	}

	rr := do(t, h, "PUT", "/api/symbols", `{"player1":"a","player2":"b"}`)
	var res moveResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.True(t, res.Accepted)
	assert.Equal(t, "A", res.State.Player1Symbol)

	rr = do(t, h, "PUT", "/api/symbols", `{"player1":"q","player2":"Q"}`)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.False(t, res.Accepted)
	assert.Equal(t, "B", res.State.Player2Symbol)

	assert.Equal(t, "amber", decodeState(t, do(t, h, "PUT", "/api/palette", `{"id":"amber"}`)).Palette.ID)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, h, "PUT", "/api/palette", `{"id":"neon"}`).Code)

	assert.Equal(t, app.ModeAI, decodeState(t, do(t, h, "PUT", "/api/mode", `{"mode":"ai"}`)).Mode)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, h, "PUT", "/api/mode", `{"mode":"chess"}`).Code)

	assert.True(t, decodeState(t, do(t, h, "POST", "/api/rules/eraser/toggle", "")).Rules.Eraser)
	assert.True(t, decodeState(t, do(t, h, "POST", "/api/rules/switch/toggle", "")).Rules.Switch)
	assert.True(t, decodeState(t, do(t, h, "POST", "/api/rules/speed/toggle", "")).Rules.Speed)
	assert.Equal(t, http.StatusNotFound, do(t, h, "POST", "/api/rules/gravity/toggle", "").Code)

	st := decodeState(t, do(t, h, "POST", "/api/hard-reset", ""))
	assert.Zero(t, st.Player1Score)
	assert.Zero(t, st.GamesPlayed)
	assert.Equal(t, "A", st.Player1Symbol, "hard reset keeps settings")
	assert.Equal(t, "amber", st.Palette.ID)
}

func TestResetEndpoints(t *testing.T) {
	e, h := newTestServer(t)
	for _, i := range []int{0, 3, 1, 4, 2} {
		require.True(t, e.Place(i))
	}
	require.Equal(t, 1, e.State().Player1Score)

	st := decodeState(t, do(t, h, "POST", "/api/reset", ""))
	assert.Equal(t, [9]string{}, st.Board)
	assert.Equal(t, 1, st.Player1Score)

	st = decodeState(t, do(t, h, "POST", "/api/scores/reset", ""))
	assert.Zero(t, st.Player1Score)
	assert.Equal(t, 1, st.GamesPlayed, "the tally survives a score reset")
}

func TestEventsHeaders(t *testing.T) {
	_, h := newTestServer(t)
	rr := do(t, h, "GET", "/events", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %q", ct)
	}
}

func TestEventsStream(t *testing.T) {
	e, h := newTestServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/events", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/event-stream")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.True(t, e.Place(4))

	sc := bufio.NewScanner(resp.Body)
	var id, kind, data string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "id: "):
			id = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "event: "):
			kind = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
		if data != "" {
			break
		}
	}
	assert.NotEmpty(t, id)
	assert.Equal(t, "state", kind)
	var ev app.Event
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.Equal(t, "X", ev.State.Board[4])
}

func TestWebSocketMoves(t *testing.T) {
	e, h := newTestServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	idx := 4
	require.NoError(t, conn.WriteJSON(wsCommand{Action: "place", Index: &idx}))
	var gotReply, gotEvent bool
	for !gotReply || !gotEvent {
		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg))
		switch msg.Type {
		case "result":
			assert.True(t, msg.Accepted)
			gotReply = true
		case "event":
			require.NotNil(t, msg.Event)
			assert.Equal(t, "X", msg.Event.State.Board[4])
			gotEvent = true
		}
	}

	// a tap at the centre of the bottom-right cell of a 100px board
	require.NoError(t, conn.WriteJSON(wsCommand{Action: "tap", X: 250, Y: 250, Size: 100}))
	for {
		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == "result" {
			assert.True(t, msg.Accepted)
			break
		}
	}
	assert.Equal(t, "O", e.State().Board[8])

	// a point far outside the grid hits no cell
	require.NoError(t, conn.WriteJSON(wsCommand{Action: "tap", X: 1e19, Y: 1e19, Size: 1}))
	for {
		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == "result" {
			assert.False(t, msg.Accepted)
			break
		}
	}
	assert.Equal(t, "", e.State().Board[0])

	require.NoError(t, conn.WriteJSON(wsCommand{Action: "fly", Index: &idx}))
	for {
		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == "result" {
			assert.False(t, msg.Accepted)
			assert.NotEmpty(t, msg.Error)
			break
		}
	}
}

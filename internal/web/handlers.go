package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jaminalder/retro-tic-tac-toe/internal/app"
	"github.com/jaminalder/retro-tic-tac-toe/internal/theme"
)

var errUnknownAction = errors.New("unknown action")

type handlers struct {
	eng *app.Engine
	tpl *templates
	log *zap.Logger
}

type moveResponse struct {
	Accepted bool      `json:"accepted"`
	State    app.State `json:"state"`
}

// apply routes a move request to the engine.
func (h *handlers) apply(action string, idx int) (bool, error) {
	switch action {
	case "place":
		return h.eng.Place(idx), nil
	case "erase":
		return h.eng.Erase(idx), nil
	case "switch":
		return h.eng.Switch(idx), nil
	case "tap":
		return h.eng.Tap(idx), nil
	}
	return false, errUnknownAction
}

func (h *handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn("failed to write response", zap.Error(err))
	}
}

func (h *handlers) writeState(w http.ResponseWriter) {
	h.writeJSON(w, http.StatusOK, h.eng.State())
}

func (h *handlers) state(w http.ResponseWriter, r *http.Request) { h.writeState(w) }

func (h *handlers) palettes(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, theme.All())
}

func (h *handlers) move(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "index must be a number", http.StatusBadRequest)
		return
	}
	ok, err := h.apply(chi.URLParam(r, "action"), idx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, http.StatusOK, moveResponse{Accepted: ok, State: h.eng.State()})
}

func (h *handlers) switchPath(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Cells []int `json:"cells"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	ok := h.eng.SwitchAlong(body.Cells)
	h.writeJSON(w, http.StatusOK, moveResponse{Accepted: ok, State: h.eng.State()})
}

func (h *handlers) reset(w http.ResponseWriter, r *http.Request) {
	h.eng.ResetGame()
	h.writeState(w)
}

func (h *handlers) resetScores(w http.ResponseWriter, r *http.Request) {
	h.eng.ResetScores()
	h.writeState(w)
}

func (h *handlers) hardReset(w http.ResponseWriter, r *http.Request) {
	h.eng.HardReset()
	h.writeState(w)
}

func (h *handlers) setMode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := h.eng.ChangeGameMode(app.Mode(body.Mode)); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	h.writeState(w)
}

func (h *handlers) setSymbols(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Player1 string `json:"player1"`
		Player2 string `json:"player2"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	ok := h.eng.ChangeSymbols(body.Player1, body.Player2)
	h.writeJSON(w, http.StatusOK, moveResponse{Accepted: ok, State: h.eng.State()})
}

func (h *handlers) setPalette(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if !h.eng.ChangePalette(body.ID) {
		http.Error(w, "unknown palette", http.StatusUnprocessableEntity)
		return
	}
	h.writeState(w)
}

func (h *handlers) toggleRule(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "rule") {
	case "eraser":
		h.eng.ToggleEraser()
	case "switch":
		h.eng.ToggleSwitch()
	case "speed":
		h.eng.ToggleSpeed()
	default:
		http.NotFound(w, r)
		return
	}
	h.writeState(w)
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(renderTemplate(h.tpl.page, h.eng.State()))
}

func (h *handlers) board(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(renderTemplate(h.tpl.board, h.eng.State()))
}

// play is the htmx form endpoint; it answers with the board fragment.
func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	idx, err := strconv.Atoi(r.Form.Get("index"))
	if err != nil {
		idx = -1
	}
	action := r.Form.Get("action")
	if action == "" {
		action = "tap"
	}
	if _, err := h.apply(action, idx); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.board(w, r)
}

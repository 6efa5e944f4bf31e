package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/jaminalder/retro-tic-tac-toe/internal/app"
)

// NewServer wires routes and returns an http.Handler.
func NewServer(e *app.Engine, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	h := &handlers{eng: e, tpl: loadTemplates(), log: log}
	r.Get("/", h.index)
	r.Get("/board", h.board)
	r.Post("/play", h.play)
	r.Get("/events", h.events)
	r.Get("/ws", h.ws)
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.state)
		r.Get("/palettes", h.palettes)
		r.Post("/cells/{index}/{action}", h.move)
		r.Post("/switch-path", h.switchPath)
		r.Post("/reset", h.reset)
		r.Post("/scores/reset", h.resetScores)
		r.Post("/hard-reset", h.hardReset)
		r.Put("/mode", h.setMode)
		r.Put("/symbols", h.setSymbols)
		r.Put("/palette", h.setPalette)
		r.Post("/rules/{rule}/toggle", h.toggleRule)
	})
	return r
}

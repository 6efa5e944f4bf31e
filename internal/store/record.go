package store

import (
	"encoding/json"
	"fmt"
)

// Key is the single key the settings record lives under.
const Key = "@tictactoe_state"

// Record is the durable part of a session. Board, turn and match result are
// never part of it.
type Record struct {
	GamesPlayed   int    `json:"gamesPlayed"`
	Player1Score  int    `json:"player1Score"`
	Player2Score  int    `json:"player2Score"`
	Player1Symbol string `json:"player1Symbol"`
	Player2Symbol string `json:"player2Symbol"`
	Palette       string `json:"palette"`
	GameMode      string `json:"gameMode"`
	EraserMode    bool   `json:"eraserMode"`
	SwitchMode    bool   `json:"switchMode"`
	SpeedMode     bool   `json:"speedMode"`
}

// Marshal encodes the record as JSON.
func (r Record) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// DecodeRecord overlays the fields found in b onto def. Fields that are
// missing, of the wrong type or out of range keep their default. An error is
// returned only when b is not a JSON object at all.
func DecodeRecord(b []byte, def Record) (Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return def, fmt.Errorf("failed to decode record: %w", err)
	}
	r := def
	count(raw, "gamesPlayed", &r.GamesPlayed)
	count(raw, "player1Score", &r.Player1Score)
	count(raw, "player2Score", &r.Player2Score)
	field(raw, "player1Symbol", &r.Player1Symbol)
	field(raw, "player2Symbol", &r.Player2Symbol)
	field(raw, "gameMode", &r.GameMode)
	field(raw, "eraserMode", &r.EraserMode)
	field(raw, "switchMode", &r.SwitchMode)
	field(raw, "speedMode", &r.SpeedMode)
	if v, ok := raw["palette"]; ok {
		r.Palette = paletteID(v, def.Palette)
	}
	return r, nil
}

func field[T any](raw map[string]json.RawMessage, key string, dst *T) {
	v, ok := raw[key]
	if !ok || string(v) == "null" {
		return
	}
	var out T
	if err := json.Unmarshal(v, &out); err != nil {
		return
	}
	*dst = out
}

func count(raw map[string]json.RawMessage, key string, dst *int) {
	n := *dst
	field(raw, key, &n)
	if n >= 0 {
		*dst = n
	}
}

// paletteID accepts a bare id or an object carrying one.
func paletteID(v json.RawMessage, def string) string {
	var id string
	if err := json.Unmarshal(v, &id); err == nil && id != "" {
		return id
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(v, &obj); err == nil && obj.ID != "" {
		return obj.ID
	}
	return def
}

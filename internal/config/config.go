// Package config holds runtime settings for the tictactoe command.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"

	"github.com/jaminalder/retro-tic-tac-toe/internal/app"
	"github.com/jaminalder/retro-tic-tac-toe/internal/store"
)

// Env names read by the command.
const (
	EnvAddr         = "TTT_ADDR"
	EnvDataDir      = "TTT_DATA_DIR"
	EnvDebug        = "TTT_DEBUG"
	EnvAIDelay      = "TTT_AI_DELAY"
	EnvSpeedLimit   = "TTT_SPEED_LIMIT"
	EnvSpeedTick    = "TTT_SPEED_TICK"
	EnvSaveDebounce = "TTT_SAVE_DEBOUNCE"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the resolved runtime configuration.
type Config struct {
	Addr    string
	DataDir string
	Debug   bool
	Timing  app.Timing
}

// Default returns the stock settings.
func Default() Config {
	return Config{
		Addr:    "localhost:8080",
		DataDir: "data",
		Timing:  app.DefaultTiming(),
	}
}

// Validate rejects non-positive durations and a tick longer than the limit.
func (c Config) Validate() error {
	d := map[string]time.Duration{
		"ai delay":      c.Timing.AIDelay,
		"speed limit":   c.Timing.SpeedLimit,
		"speed tick":    c.Timing.SpeedTick,
		"save debounce": c.Timing.SaveDebounce,
	}
	for name, v := range d {
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalid, name, v)
		}
	}
	if c.Timing.SpeedTick > c.Timing.SpeedLimit {
		return fmt.Errorf("%w: speed tick %s exceeds speed limit %s", ErrInvalid, c.Timing.SpeedTick, c.Timing.SpeedLimit)
	}
	return nil
}

// Store opens the file store under DataDir, or an in-memory store when
// DataDir is empty.
func (c Config) Store() (store.Store, error) {
	if c.DataDir == "" {
		return store.NewMemory(), nil
	}
	return store.NewFile(c.DataDir)
}

// LoadEnv loads .env files into the process environment. Missing files
// are not an error; variables already set are kept.
func LoadEnv(files ...string) (bool, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	err := godotenv.Load(files...)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load env: %w", err)
	}
	return true, nil
}

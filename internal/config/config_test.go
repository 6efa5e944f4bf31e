package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaminalder/retro-tic-tac-toe/internal/store"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, "localhost:8080", c.Addr)
	assert.Equal(t, 500*time.Millisecond, c.Timing.AIDelay)
	assert.Equal(t, 2*time.Second, c.Timing.SpeedLimit)
	assert.Equal(t, 100*time.Millisecond, c.Timing.SpeedTick)
	assert.Equal(t, 100*time.Millisecond, c.Timing.SaveDebounce)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero ai delay", func(c *Config) { c.Timing.AIDelay = 0 }},
		{"negative debounce", func(c *Config) { c.Timing.SaveDebounce = -time.Millisecond }},
		{"zero tick", func(c *Config) { c.Timing.SpeedTick = 0 }},
		{"tick above limit", func(c *Config) { c.Timing.SpeedTick = 3 * time.Second }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalid)
		})
	}
}

func TestStoreSelection(t *testing.T) {
	c := Default()
	c.DataDir = ""
	st, err := c.Store()
	require.NoError(t, err)
	assert.IsType(t, &store.Memory{}, st)

	c.DataDir = filepath.Join(t.TempDir(), "state")
	st, err = c.Store()
	require.NoError(t, err)
	assert.IsType(t, &store.File{}, st)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	loaded, err := LoadEnv(filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.False(t, loaded)

	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("TTT_TEST_ADDR=0.0.0.0:9000\n"), 0o600))
	t.Setenv("TTT_TEST_ADDR", "")
	require.NoError(t, os.Unsetenv("TTT_TEST_ADDR"))
	loaded, err = LoadEnv(path)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, "0.0.0.0:9000", os.Getenv("TTT_TEST_ADDR"))
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Default().Validate())
}

func TestLoadFromFile_YAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "config.yaml", `
server:
  base_url: https://signals.example.com
  secret: hunter2
  poll_interval: 30s
risk:
  max_open_trades: 3
  max_lot_size: 0.5
  order_tag: agent-7
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://signals.example.com", cfg.Server.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Server.PollInterval.Std())
	assert.Equal(t, 3, cfg.Risk.MaxOpenTrades)
	assert.InDelta(t, 0.5, cfg.Risk.MaxLotSize, 1e-12)
	assert.Equal(t, "agent-7", cfg.Risk.OrderTag)
	// Untouched sections keep their defaults.
	assert.Equal(t, ModePaper, cfg.Venue.Mode)
	assert.NotEmpty(t, cfg.Venue.PaperQuotes)
}

func TestLoadFromFile_JSON(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "config.json",
		`{"server":{"base_url":"http://sig.local","poll_interval":"1m"}}`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://sig.local", cfg.Server.BaseURL)
	assert.Equal(t, time.Minute, cfg.Server.PollInterval.Std())
}

func TestLoadFromFile_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			"missing base url",
			`server: {base_url: "", poll_interval: 60s}`,
			"server.base_url",
		},
		{
			"zero poll interval",
			`server: {base_url: "http://x", poll_interval: 0s}`,
			"poll_interval",
		},
		{
			"bad venue mode",
			"server: {base_url: \"http://x\", poll_interval: 60s}\nvenue: {mode: fix}",
			"venue.mode",
		},
		{
			"metaapi missing token",
			"server: {base_url: \"http://x\", poll_interval: 60s}\nvenue: {mode: metaapi, api_url: \"http://y\"}",
			"venue.api_url",
		},
		{
			"crossed paper quote",
			"server: {base_url: \"http://x\", poll_interval: 60s}\nvenue:\n  mode: paper\n  paper_quotes: [{symbol: EURUSD, bid: 1.1, ask: 1.0, digits: 5}]",
			"ask > bid",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadFromFile(writeConfig(t, "c.yaml", tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Default().SaveToFile(path))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDurationAcceptsNanosecondNumbers(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "c.yaml",
		"server: {base_url: \"http://x\", poll_interval: 60000000000}")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.Server.PollInterval.Std())
}

// Package config loads the agent's immutable configuration. It is read once
// at process start and passed by pointer into each component; nothing mutates
// it afterwards.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Venue modes.
const (
	ModePaper   = "paper"
	ModeMetaAPI = "metaapi"
)

// Config is the complete agent configuration.
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	Venue   VenueConfig   `json:"venue" yaml:"venue"`
	Risk    RiskConfig    `json:"risk" yaml:"risk"`
	Trade   TradeConfig   `json:"trade" yaml:"trade"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Status  StatusConfig  `json:"status" yaml:"status"`
}

// ServerConfig is the remote signal server connection.
type ServerConfig struct {
	BaseURL      string   `json:"base_url" yaml:"base_url"`
	Secret       string   `json:"secret" yaml:"secret"`
	PollInterval Duration `json:"poll_interval" yaml:"poll_interval"`
	Timeout      Duration `json:"timeout" yaml:"timeout"`
}

// VenueConfig selects and configures the trading venue binding.
type VenueConfig struct {
	Mode      string   `json:"mode" yaml:"mode"`
	APIURL    string   `json:"api_url,omitempty" yaml:"api_url,omitempty"`
	Token     string   `json:"token,omitempty" yaml:"token,omitempty"`
	AccountID string   `json:"account_id,omitempty" yaml:"account_id,omitempty"`
	Timeout   Duration `json:"timeout" yaml:"timeout"`

	// Paper mode only.
	PaperBalance float64      `json:"paper_balance,omitempty" yaml:"paper_balance,omitempty"`
	PaperQuotes  []PaperQuote `json:"paper_quotes,omitempty" yaml:"paper_quotes,omitempty"`
}

// PaperQuote is one instrument in the paper venue's static quote table.
type PaperQuote struct {
	Symbol string  `json:"symbol" yaml:"symbol"`
	Bid    float64 `json:"bid" yaml:"bid"`
	Ask    float64 `json:"ask" yaml:"ask"`
	Digits int     `json:"digits" yaml:"digits"`
}

// RiskConfig are the hard limits consulted before any order is placed.
type RiskConfig struct {
	MaxOpenTrades int     `json:"max_open_trades" yaml:"max_open_trades"`
	MaxLotSize    float64 `json:"max_lot_size" yaml:"max_lot_size"`
	MaxSlippage   float64 `json:"max_slippage" yaml:"max_slippage"`
	OrderTag      string  `json:"order_tag" yaml:"order_tag"`
}

// TradeConfig are optional defaults substituted into sparse signals. Zeros
// leave the corresponding field or protective leg suppressed.
type TradeConfig struct {
	DefaultLotSize float64 `json:"default_lot_size" yaml:"default_lot_size"`
	DefaultSLPips  float64 `json:"default_sl_pips" yaml:"default_sl_pips"`
	DefaultTPPips  float64 `json:"default_tp_pips" yaml:"default_tp_pips"`
}

// JournalConfig enables the persistent outcome journal.
type JournalConfig struct {
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// StatusConfig enables the local read-only status listener.
type StatusConfig struct {
	Listen string `json:"listen,omitempty" yaml:"listen,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration, YAML unless the extension says JSON.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	if c.Server.PollInterval <= 0 {
		return fmt.Errorf("server.poll_interval must be positive")
	}
	if c.Risk.MaxOpenTrades <= 0 {
		return fmt.Errorf("risk.max_open_trades must be positive")
	}
	if c.Risk.MaxLotSize <= 0 {
		return fmt.Errorf("risk.max_lot_size must be positive")
	}
	if c.Risk.MaxSlippage < 0 {
		return fmt.Errorf("risk.max_slippage must not be negative")
	}

	switch c.Venue.Mode {
	case ModePaper:
		if len(c.Venue.PaperQuotes) == 0 {
			return fmt.Errorf("venue.paper_quotes must list at least one instrument in paper mode")
		}
		for _, q := range c.Venue.PaperQuotes {
			if q.Symbol == "" {
				return fmt.Errorf("venue.paper_quotes: symbol is required")
			}
			if q.Bid <= 0 || q.Ask <= q.Bid {
				return fmt.Errorf("venue.paper_quotes %s: need ask > bid > 0", q.Symbol)
			}
		}
	case ModeMetaAPI:
		if c.Venue.APIURL == "" || c.Venue.Token == "" || c.Venue.AccountID == "" {
			return fmt.Errorf("venue.api_url, venue.token and venue.account_id are required in metaapi mode")
		}
	default:
		return fmt.Errorf("venue.mode must be %q or %q", ModePaper, ModeMetaAPI)
	}

	return nil
}

// Default returns a configuration with sensible defaults: paper venue, the
// shipped quote table, and conservative risk limits.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:      "http://localhost:5000",
			PollInterval: Duration(60 * time.Second),
			Timeout:      Duration(30 * time.Second),
		},
		Venue: VenueConfig{
			Mode:         ModePaper,
			Timeout:      Duration(30 * time.Second),
			PaperBalance: 100000,
			PaperQuotes: []PaperQuote{
				{Symbol: "EURUSD", Bid: 1.08490, Ask: 1.08510, Digits: 5},
				{Symbol: "GBPUSD", Bid: 1.26480, Ask: 1.26500, Digits: 5},
				{Symbol: "USDJPY", Bid: 149.980, Ask: 150.000, Digits: 3},
				{Symbol: "XAUUSD", Bid: 2319.50, Ask: 2320.00, Digits: 2},
			},
		},
		Risk: RiskConfig{
			MaxOpenTrades: 5,
			MaxLotSize:    1.0,
			MaxSlippage:   3,
			OrderTag:      "sigagent",
		},
		Trade: TradeConfig{
			DefaultLotSize: 0.01,
		},
	}
}

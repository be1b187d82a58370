package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tradewire/sigagent/agent"
	"github.com/tradewire/sigagent/config"
	"github.com/tradewire/sigagent/executor"
	"github.com/tradewire/sigagent/journal"
	"github.com/tradewire/sigagent/risk"
	"github.com/tradewire/sigagent/server"
	"github.com/tradewire/sigagent/statusd"
	"github.com/tradewire/sigagent/venue"
	"github.com/tradewire/sigagent/venue/metaapi"
	"github.com/tradewire/sigagent/venue/paper"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the signal-execution loop",
	Long: `Run the agent: poll the signal server on the configured interval,
gate each signal against the risk limits, execute it against the venue, and
confirm the outcome. Stops cleanly on SIGINT/SIGTERM; a cycle in flight runs
to completion.

Example:
  sigagent run -f config.yaml`,
	RunE: runRun,
}

var (
	runConfigPath string
	runPaper      bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.Flags().BoolVar(&runPaper, "paper", false, "force the paper venue regardless of config")
	runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if runPaper {
		cfg.Venue.Mode = config.ModePaper
		if len(cfg.Venue.PaperQuotes) == 0 {
			for _, q := range paper.DefaultQuotes() {
				cfg.Venue.PaperQuotes = append(cfg.Venue.PaperQuotes, config.PaperQuote{
					Symbol: q.Symbol, Bid: q.Bid, Ask: q.Ask, Digits: q.Digits,
				})
			}
		}
	}

	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	v, err := buildVenue(cfg, log)
	if err != nil {
		return err
	}

	limits := risk.Limits{
		MaxOpenTrades: cfg.Risk.MaxOpenTrades,
		MaxLotSize:    cfg.Risk.MaxLotSize,
		MaxSlippage:   cfg.Risk.MaxSlippage,
		OrderTag:      cfg.Risk.OrderTag,
	}

	j, err := buildJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	src := server.NewClient(cfg.Server.BaseURL, cfg.Server.Secret, cfg.Server.Timeout.Std(), log)
	gate := risk.NewGate(limits, v, log)
	exec := executor.New(v, limits, executor.Defaults{
		StopLossPips:   cfg.Trade.DefaultSLPips,
		TakeProfitPips: cfg.Trade.DefaultTPPips,
	}, log)

	a := agent.New(agent.Config{
		PollInterval:   cfg.Server.PollInterval.Std(),
		DefaultLotSize: cfg.Trade.DefaultLotSize,
	}, src, gate, exec, j, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Status.Listen != "" {
		sd := statusd.New(cfg.Status.Listen, v, j, Version, log)
		go func() {
			if err := sd.Start(); err != nil && err != http.ErrServerClosed {
				log.Error("status listener failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = sd.Shutdown(shutdownCtx)
		}()
	}

	log.Info("sigagent starting",
		zap.String("version", Version),
		zap.String("server", cfg.Server.BaseURL),
		zap.String("venue", cfg.Venue.Mode),
		zap.Duration("poll_interval", cfg.Server.PollInterval.Std()),
		zap.Int("max_open_trades", cfg.Risk.MaxOpenTrades),
		zap.Float64("max_lot_size", cfg.Risk.MaxLotSize))

	a.Run(ctx)
	return nil
}

func newLogger() (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.EncoderConfig.TimeKey = "time"
	return zcfg.Build()
}

func buildVenue(cfg *config.Config, log *zap.Logger) (venue.Venue, error) {
	switch cfg.Venue.Mode {
	case config.ModePaper:
		quotes := make([]venue.Quote, 0, len(cfg.Venue.PaperQuotes))
		for _, q := range cfg.Venue.PaperQuotes {
			quotes = append(quotes, venue.Quote{Symbol: q.Symbol, Bid: q.Bid, Ask: q.Ask, Digits: q.Digits})
		}
		return paper.NewEngine(quotes, cfg.Venue.PaperBalance, log), nil
	case config.ModeMetaAPI:
		return metaapi.NewClient(cfg.Venue.APIURL, cfg.Venue.Token, cfg.Venue.AccountID, cfg.Venue.Timeout.Std()), nil
	default:
		return nil, fmt.Errorf("unknown venue mode %q", cfg.Venue.Mode)
	}
}

func buildJournal(cfg *config.Config) (journal.Journal, error) {
	ring := journal.NewRing(journal.DefaultRingSize)
	if cfg.Journal.DBPath == "" {
		return ring, nil
	}

	db, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return nil, err
	}
	return journal.Tee{ring, db}, nil
}

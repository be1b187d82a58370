// Package statusd serves a small read-only status surface on localhost:
// health, account snapshot with open positions, and recent trade outcomes.
// Signals are never accepted here; they arrive only by polling.
package statusd

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tradewire/sigagent/journal"
	"github.com/tradewire/sigagent/venue"
)

type Server struct {
	venue   venue.Venue
	journal journal.Journal
	version string
	log     *zap.Logger

	httpServer *http.Server
}

func New(addr string, v venue.Venue, j journal.Journal, version string, log *zap.Logger) *Server {
	s := &Server{venue: v, journal: j, version: version, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleHome)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /trades", s.handleTrades)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until Shutdown. It returns http.ErrServerClosed on a clean
// stop, like the underlying server.
func (s *Server) Start() error {
	s.log.Info("status listener started", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "running",
		"bot":     "sigagent",
		"version": s.version,
		"endpoints": map[string]string{
			"health": "GET /",
			"status": "GET /status",
			"trades": "GET /trades",
		},
	})
}

type positionView struct {
	Ticket       string  `json:"ticket"`
	Symbol       string  `json:"symbol"`
	Side         string  `json:"side"`
	Volume       float64 `json:"volume"`
	OpenPrice    float64 `json:"open_price"`
	CurrentPrice float64 `json:"current_price"`
	Profit       float64 `json:"profit"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	acct, err := s.venue.GetAccount(ctx)
	if err != nil {
		s.log.Warn("status: account fetch failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	open, err := s.venue.ListOpenPositions(ctx, "")
	if err != nil {
		s.log.Warn("status: position fetch failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	views := make([]positionView, 0, len(open))
	for _, p := range open {
		views = append(views, positionView{
			Ticket:       p.Ticket,
			Symbol:       p.Symbol,
			Side:         p.Side.String(),
			Volume:       p.Volume,
			OpenPrice:    p.OpenPrice,
			CurrentPrice: p.CurrentPrice,
			Profit:       p.Profit,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"account": map[string]any{
			"id":          acct.ID,
			"currency":    acct.Currency,
			"balance":     acct.Balance,
			"equity":      acct.Equity,
			"margin":      acct.Margin,
			"free_margin": acct.FreeMargin,
		},
		"open_positions":  views,
		"positions_count": len(views),
	})
}

type tradeView struct {
	ID        string    `json:"id"`
	Time      time.Time `json:"time"`
	Action    string    `json:"action"`
	Symbol    string    `json:"symbol,omitempty"`
	LotSize   float64   `json:"lot_size,omitempty"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Confirmed bool      `json:"confirmed"`
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	entries, err := s.journal.Recent(journal.DefaultRingSize)
	if err != nil {
		s.log.Warn("status: journal read failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	views := make([]tradeView, 0, len(entries))
	for _, e := range entries {
		views = append(views, tradeView(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"trades": views,
		"total":  len(views),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

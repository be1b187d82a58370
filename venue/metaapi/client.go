// Package metaapi binds venue.Venue to a MetaApi-style MT5 cloud gateway.
// The gateway exposes the MetaTrader account over REST, so the agent runs
// anywhere without a local terminal.
package metaapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tradewire/sigagent/venue"
)

// Success return codes for trade requests, per the MT5 trade server.
const (
	retcodeDone   = "TRADE_RETCODE_DONE"
	retcodePlaced = "TRADE_RETCODE_PLACED"
)

type Client struct {
	baseURL   string
	token     string
	accountID string

	httpClient *http.Client
}

func NewClient(baseURL, token, accountID string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		accountID:  accountID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// priceResponse and specResponse together resolve an instrument.
type priceResponse struct {
	Symbol string  `json:"symbol"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
}

type specResponse struct {
	Symbol string `json:"symbol"`
	Digits int    `json:"digits"`
}

type apiPosition struct {
	ID           string  `json:"id"`
	Symbol       string  `json:"symbol"`
	Type         string  `json:"type"` // POSITION_TYPE_BUY / POSITION_TYPE_SELL
	Volume       float64 `json:"volume"`
	OpenPrice    float64 `json:"openPrice"`
	CurrentPrice float64 `json:"currentPrice"`
	Profit       float64 `json:"profit"`
	ClientID     string  `json:"clientId"`
}

type tradeRequest struct {
	ActionType string  `json:"actionType"`
	Symbol     string  `json:"symbol,omitempty"`
	Volume     float64 `json:"volume,omitempty"`
	StopLoss   float64 `json:"stopLoss,omitempty"`
	TakeProfit float64 `json:"takeProfit,omitempty"`
	Slippage   float64 `json:"slippage,omitempty"`
	ClientID   string  `json:"clientId,omitempty"`
	PositionID string  `json:"positionId,omitempty"`
}

type tradeResponse struct {
	NumericCode int    `json:"numericCode"`
	StringCode  string `json:"stringCode"`
	Message     string `json:"message"`
	OrderID     string `json:"orderId"`
	PositionID  string `json:"positionId"`
}

type accountResponse struct {
	Login      string  `json:"login"`
	Currency   string  `json:"currency"`
	Balance    float64 `json:"balance"`
	Equity     float64 `json:"equity"`
	Margin     float64 `json:"margin"`
	FreeMargin float64 `json:"freeMargin"`
}

func (c *Client) ResolveInstrument(ctx context.Context, symbol string) (venue.Quote, error) {
	var price priceResponse
	err := c.get(ctx, fmt.Sprintf("/symbols/%s/current-price", symbol), &price)
	if err != nil {
		if isNotFound(err) {
			return venue.Quote{}, fmt.Errorf("%w: %s", venue.ErrSymbolNotFound, symbol)
		}
		return venue.Quote{}, fmt.Errorf("current price %s: %w", symbol, err)
	}

	var spec specResponse
	if err := c.get(ctx, fmt.Sprintf("/symbols/%s/specification", symbol), &spec); err != nil {
		if isNotFound(err) {
			return venue.Quote{}, fmt.Errorf("%w: %s", venue.ErrSymbolNotFound, symbol)
		}
		return venue.Quote{}, fmt.Errorf("specification %s: %w", symbol, err)
	}

	return venue.Quote{Symbol: symbol, Bid: price.Bid, Ask: price.Ask, Digits: spec.Digits}, nil
}

func (c *Client) SubmitMarketOrder(ctx context.Context, req venue.OrderRequest) (venue.OrderResult, error) {
	actionType := "ORDER_TYPE_BUY"
	if req.Side == venue.Short {
		actionType = "ORDER_TYPE_SELL"
	}

	var resp tradeResponse
	err := c.post(ctx, "/trade", tradeRequest{
		ActionType: actionType,
		Symbol:     req.Symbol,
		Volume:     req.Volume,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		Slippage:   req.MaxSlippage,
		ClientID:   req.Tag,
	}, &resp)
	if err != nil {
		return venue.OrderResult{}, fmt.Errorf("submit order: %w", err)
	}

	accepted := resp.StringCode == retcodeDone || resp.StringCode == retcodePlaced
	return venue.OrderResult{
		Accepted: accepted,
		Ticket:   resp.PositionID,
		Code:     resp.StringCode,
		Text:     resp.Message,
	}, nil
}

func (c *Client) ListOpenPositions(ctx context.Context, tag string) ([]venue.Position, error) {
	var raw []apiPosition
	if err := c.get(ctx, "/positions", &raw); err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}

	out := make([]venue.Position, 0, len(raw))
	for _, p := range raw {
		if tag != "" && p.ClientID != tag {
			continue
		}
		side := venue.Long
		if p.Type == "POSITION_TYPE_SELL" {
			side = venue.Short
		}
		out = append(out, venue.Position{
			Ticket:       p.ID,
			Symbol:       p.Symbol,
			Volume:       p.Volume,
			Side:         side,
			Tag:          p.ClientID,
			OpenPrice:    p.OpenPrice,
			CurrentPrice: p.CurrentPrice,
			Profit:       p.Profit,
		})
	}
	return out, nil
}

func (c *Client) ClosePosition(ctx context.Context, ticket string) error {
	var resp tradeResponse
	err := c.post(ctx, "/trade", tradeRequest{
		ActionType: "POSITION_CLOSE_ID",
		PositionID: ticket,
	}, &resp)
	if err != nil {
		return fmt.Errorf("close position %s: %w", ticket, err)
	}
	if resp.StringCode != retcodeDone {
		return fmt.Errorf("close position %s: %s %s", ticket, resp.StringCode, resp.Message)
	}
	return nil
}

func (c *Client) GetAccount(ctx context.Context) (venue.Account, error) {
	var resp accountResponse
	if err := c.get(ctx, "/account-information", &resp); err != nil {
		return venue.Account{}, fmt.Errorf("account information: %w", err)
	}
	return venue.Account{
		ID:         resp.Login,
		Currency:   resp.Currency,
		Balance:    resp.Balance,
		Equity:     resp.Equity,
		Margin:     resp.Margin,
		FreeMargin: resp.FreeMargin,
	}, nil
}

// statusError preserves the HTTP status so callers can tell "unknown symbol"
// apart from transport trouble.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("metaapi http %d: %s", e.status, e.body)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.status == http.StatusNotFound
}

func (c *Client) accountPath(path string) string {
	return fmt.Sprintf("%s/users/current/accounts/%s%s", c.baseURL, c.accountID, path)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.accountPath(path), nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.accountPath(path), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("auth-token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(b))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

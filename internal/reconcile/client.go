// internal/reconcile/client.go
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL — REST-эндпоинт биржи для сверки top-of-book.
const DefaultBaseURL = "https://api.binance.com"

const defaultTimeout = 5 * time.Second

// Book — результат одной REST-сверки top-of-book.
type Book struct {
	Symbol    string
	BidPrice  float64
	BidVolume float64
	AskPrice  float64
	AskVolume float64
}

// Client выполняет одноразовые REST-запросы top-of-book.
// Каждый вызов ограничен таймаутом; ошибки не ретраятся здесь —
// планировщик просто логирует их и ждёт следующего тика.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient создаёт клиент; пустой baseURL → DefaultBaseURL,
// timeout <= 0 → 5s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// TopOfBook запрашивает лучший bid/ask символа и возвращает разобранный
// результат вместе с длительностью полного round-trip.
func (c *Client) TopOfBook(ctx context.Context, symbol string) (Book, time.Duration, error) {
	endpoint := fmt.Sprintf("%s/api/v3/ticker/bookTicker?symbol=%s",
		c.baseURL, url.QueryEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Book{}, 0, fmt.Errorf("reconcile: build request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return Book{}, elapsed, fmt.Errorf("reconcile: fetch %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Book{}, elapsed, fmt.Errorf("reconcile: fetch %s: status %d: %s",
			symbol, resp.StatusCode, body)
	}

	var raw struct {
		Symbol   string `json:"symbol"`
		BidPrice string `json:"bidPrice"`
		BidQty   string `json:"bidQty"`
		AskPrice string `json:"askPrice"`
		AskQty   string `json:"askQty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Book{}, elapsed, fmt.Errorf("reconcile: decode %s: %w", symbol, err)
	}

	book := Book{Symbol: raw.Symbol}
	for _, f := range []struct {
		src string
		dst *float64
	}{
		{raw.BidPrice, &book.BidPrice},
		{raw.BidQty, &book.BidVolume},
		{raw.AskPrice, &book.AskPrice},
		{raw.AskQty, &book.AskVolume},
	} {
		v, err := strconv.ParseFloat(f.src, 64)
		if err != nil {
			return Book{}, elapsed, fmt.Errorf("reconcile: parse %q: %w", f.src, err)
		}
		*f.dst = v
	}
	return book, elapsed, nil
}

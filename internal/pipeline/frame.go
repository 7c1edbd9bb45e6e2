// internal/pipeline/frame.go
package pipeline

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Типы кадров, нормализуемых пайплайном.
const (
	FrameTypeDepth  = "depth"
	FrameTypeTicker = "ticker"
)

// bookUpdate — нормализованный top-of-book из одного кадра.
// HasEventTime различает depth-кадры (биржа сообщает event time)
// и ticker-кадры (его нет, push-задержка не измерима). UpdateID —
// сквозной номер обновления, сохраняется для диагностики пропусков.
type bookUpdate struct {
	Symbol       string
	Bid          float64
	BidVolume    float64
	Ask          float64
	AskVolume    float64
	UpdateID     int64
	EventTime    time.Time
	HasEventTime bool
}

func parseLevel(pair []string) (price, qty float64, err error) {
	if len(pair) < 2 {
		return 0, 0, fmt.Errorf("malformed level: %v", pair)
	}
	price, err = strconv.ParseFloat(pair[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("price=%q: %w", pair[0], err)
	}
	qty, err = strconv.ParseFloat(pair[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("quantity=%q: %w", pair[1], err)
	}
	return price, qty, nil
}

// parseDepth разбирает depth-кадр и берёт лучший уровень каждой
// стороны. Пустая сторона книги — malformed: кадр отбрасывается
// целиком, состояние не меняется.
func parseDepth(data []byte) (bookUpdate, error) {
	var raw struct {
		Symbol    string     `json:"symbol"`
		EventTime int64      `json:"eventTime"`
		UpdateID  int64      `json:"updateId"`
		Bids      [][]string `json:"bids"`
		Asks      [][]string `json:"asks"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return bookUpdate{}, fmt.Errorf("unmarshal depth: %w", err)
	}
	if raw.Symbol == "" {
		return bookUpdate{}, fmt.Errorf("depth frame without symbol")
	}
	if len(raw.Bids) == 0 {
		return bookUpdate{Symbol: raw.Symbol}, fmt.Errorf("empty bids")
	}
	if len(raw.Asks) == 0 {
		return bookUpdate{Symbol: raw.Symbol}, fmt.Errorf("empty asks")
	}

	bid, bidQty, err := parseLevel(raw.Bids[0])
	if err != nil {
		return bookUpdate{Symbol: raw.Symbol}, fmt.Errorf("best bid: %w", err)
	}
	ask, askQty, err := parseLevel(raw.Asks[0])
	if err != nil {
		return bookUpdate{Symbol: raw.Symbol}, fmt.Errorf("best ask: %w", err)
	}

	return bookUpdate{
		Symbol:       raw.Symbol,
		Bid:          bid,
		BidVolume:    bidQty,
		Ask:          ask,
		AskVolume:    askQty,
		UpdateID:     raw.UpdateID,
		EventTime:    time.UnixMilli(raw.EventTime),
		HasEventTime: true,
	}, nil
}

// parseTicker разбирает ticker-кадр. Event time биржа не сообщает:
// в качестве прокси используется локальное время приёма.
func parseTicker(data []byte) (bookUpdate, error) {
	var raw struct {
		Symbol   string `json:"symbol"`
		UpdateID int64  `json:"updateId"`
		BidPrice string `json:"bidPrice"`
		BidQty   string `json:"bidQty"`
		AskPrice string `json:"askPrice"`
		AskQty   string `json:"askQty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return bookUpdate{}, fmt.Errorf("unmarshal ticker: %w", err)
	}
	if raw.Symbol == "" {
		return bookUpdate{}, fmt.Errorf("ticker frame without symbol")
	}
	if raw.BidPrice == "" || raw.AskPrice == "" {
		return bookUpdate{Symbol: raw.Symbol}, fmt.Errorf("empty book side")
	}

	u := bookUpdate{Symbol: raw.Symbol, UpdateID: raw.UpdateID}
	for _, f := range []struct {
		src string
		dst *float64
	}{
		{raw.BidPrice, &u.Bid},
		{raw.BidQty, &u.BidVolume},
		{raw.AskPrice, &u.Ask},
		{raw.AskQty, &u.AskVolume},
	} {
		v, err := strconv.ParseFloat(f.src, 64)
		if err != nil {
			return bookUpdate{Symbol: raw.Symbol}, fmt.Errorf("field=%q: %w", f.src, err)
		}
		*f.dst = v
	}
	return u, nil
}

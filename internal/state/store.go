// internal/state/store.go
package state

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/vietvo371/Binane-test/internal/latency"
)

// ErrMalformedUpdate сигнализирует о невалидных полях обновления.
// Состояние символа при этом не затрагивается; ошибка не фатальна.
var ErrMalformedUpdate = errors.New("malformed update")

// Snapshot — неизменяемый снимок top-of-book символа.
// Нулевые цены означают "символ ещё не наблюдался".
type Snapshot struct {
	Symbol      string    `json:"symbol"`
	BidPrice    float64   `json:"bid_price"`
	BidVolume   float64   `json:"bid_volume"`
	AskPrice    float64   `json:"ask_price"`
	AskVolume   float64   `json:"ask_volume"`
	SpreadPct   float64   `json:"spread_pct"`
	UpdateID    int64     `json:"update_id,omitempty"`
	EventTime   time.Time `json:"event_time"`
	ReceiveTime time.Time `json:"receive_time"`
}

// Update — валидируемый вход Apply. UpdateID — сквозной номер
// обновления от биржи, хранится для диагностики пропусков.
type Update struct {
	Bid         float64
	BidVolume   float64
	Ask         float64
	AskVolume   float64
	UpdateID    int64
	EventTime   time.Time
	ReceiveTime time.Time
}

// LatencySnapshot — снимки окон задержек символа по категориям.
type LatencySnapshot struct {
	Push latency.Snapshot `json:"push"`
	Get  latency.Snapshot `json:"get"`
}

type entry struct {
	mu   sync.Mutex
	snap Snapshot
	push *latency.Window
	get  *latency.Window
}

// Store хранит состояния всех отслеживаемых символов.
// Мутация состояния одного символа сериализуется per-symbol мьютексом:
// пайплайн пишет из одной горутины, планировщик и reconcile читают
// и пишут get-задержки конкурентно.
type Store struct {
	mu        sync.RWMutex
	entries   map[string]*entry
	windowCap int
}

// NewStore создаёт хранилище; windowCap <= 0 → latency.DefaultCapacity.
func NewStore(windowCap int) *Store {
	if windowCap <= 0 {
		windowCap = latency.DefaultCapacity
	}
	return &Store{
		entries:   make(map[string]*entry),
		windowCap: windowCap,
	}
}

// getOrCreate возвращает существующую запись или нулевую свежую.
func (s *Store) getOrCreate(symbol string) *entry {
	s.mu.RLock()
	e, ok := s.entries[symbol]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[symbol]; ok {
		return e
	}
	e = &entry{
		snap: Snapshot{Symbol: symbol},
		push: latency.NewWindow(s.windowCap),
		get:  latency.NewWindow(s.windowCap),
	}
	s.entries[symbol] = e
	return e
}

func validate(u Update) error {
	for name, v := range map[string]float64{
		"bid": u.Bid, "bid_volume": u.BidVolume,
		"ask": u.Ask, "ask_volume": u.AskVolume,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrMalformedUpdate, name)
		}
		if v < 0 {
			return fmt.Errorf("%w: %s is negative", ErrMalformedUpdate, name)
		}
	}
	return nil
}

// SpreadPct — относительный разрыв ask-bid в процентах от bid.
func SpreadPct(bid, ask float64) float64 {
	if bid == 0 {
		return 0
	}
	return (ask - bid) / bid * 100
}

// Apply валидирует обновление и при успехе перезаписывает состояние,
// возвращая снимки до и после. Невалидный вход оставляет состояние
// нетронутым и возвращает ErrMalformedUpdate.
func (s *Store) Apply(symbol string, u Update) (previous, current Snapshot, err error) {
	if err := validate(u); err != nil {
		return Snapshot{}, Snapshot{}, err
	}

	e := s.getOrCreate(symbol)
	e.mu.Lock()
	defer e.mu.Unlock()

	previous = e.snap
	e.snap = Snapshot{
		Symbol:      symbol,
		BidPrice:    u.Bid,
		BidVolume:   u.BidVolume,
		AskPrice:    u.Ask,
		AskVolume:   u.AskVolume,
		SpreadPct:   SpreadPct(u.Bid, u.Ask),
		UpdateID:    u.UpdateID,
		EventTime:   u.EventTime,
		ReceiveTime: u.ReceiveTime,
	}
	return previous, e.snap, nil
}

// RecordPushLatency добавляет сэмпл push-задержки символа (мс).
func (s *Store) RecordPushLatency(symbol string, sampleMs float64) {
	e := s.getOrCreate(symbol)
	e.mu.Lock()
	e.push.Record(sampleMs)
	e.mu.Unlock()
}

// RecordGetLatency добавляет сэмпл задержки запрос/ответ (мс).
func (s *Store) RecordGetLatency(symbol string, sampleMs float64) {
	e := s.getOrCreate(symbol)
	e.mu.Lock()
	e.get.Record(sampleMs)
	e.mu.Unlock()
}

// Latency возвращает снимки окон задержек символа.
func (s *Store) Latency(symbol string) LatencySnapshot {
	e := s.getOrCreate(symbol)
	e.mu.Lock()
	defer e.mu.Unlock()
	return LatencySnapshot{
		Push: e.push.Snapshot(),
		Get:  e.get.Snapshot(),
	}
}

// Snapshot возвращает текущее состояние символа (нулевое, если
// символ ещё не наблюдался).
func (s *Store) Snapshot(symbol string) Snapshot {
	e := s.getOrCreate(symbol)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap
}

// Symbols возвращает отсортированный список известных символов.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.entries))
	for sym := range s.entries {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

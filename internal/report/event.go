// internal/report/event.go
package report

import (
	"context"
	"time"

	"github.com/vietvo371/Binane-test/internal/state"
)

// Kind — категория структурированного события наблюдателя.
type Kind string

const (
	// KindUpdate — значимое обновление top-of-book одного символа.
	KindUpdate Kind = "update"
	// KindStatsDump — полный дамп скользящей статистики по всем символам.
	KindStatsDump Kind = "stats-dump"
	// KindStaleness — периодический отчёт о свежести данных символа.
	KindStaleness Kind = "staleness-report"
	// KindMalformed — предупреждение об отброшенном кадре.
	KindMalformed Kind = "malformed-warning"
)

// Символьные статусы отчёта о свежести. Это наблюдаемая метка,
// а не enforced-автомат: переходы не отклоняются.
const (
	StatusUninitialized = "uninitialized"
	StatusActive        = "active"
	StatusStale         = "stale"
)

// SymbolStats — строка дампа статистики по одному символу.
type SymbolStats struct {
	State   state.Snapshot        `json:"state"`
	Latency state.LatencySnapshot `json:"latency"`
}

// Event — единица вывода наблюдателя. Заполняются только поля,
// относящиеся к Kind; остальные опускаются при сериализации.
type Event struct {
	Kind   Kind      `json:"kind"`
	Symbol string    `json:"symbol,omitempty"`
	Time   time.Time `json:"time"`

	// KindUpdate.
	State   *state.Snapshot        `json:"state,omitempty"`
	Latency *state.LatencySnapshot `json:"latency,omitempty"`

	// KindStatsDump.
	Stats []SymbolStats `json:"stats,omitempty"`

	// KindStaleness.
	Status          string        `json:"status,omitempty"`
	SinceLastUpdate time.Duration `json:"since_last_update,omitempty"`

	// KindMalformed.
	Reason string `json:"reason,omitempty"`
}

// Sink потребляет структурированные события. Ошибка эмиссии не
// фатальна для пайплайна: вызывающий её логирует и продолжает.
type Sink interface {
	Emit(ctx context.Context, evt Event) error
}

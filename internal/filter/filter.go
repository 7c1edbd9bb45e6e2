// internal/filter/filter.go
package filter

import (
	"math"

	"github.com/vietvo371/Binane-test/internal/state"
)

// Thresholds — пороги значимости обновления. Оба параметра задаются
// конфигурацией, не константами.
type Thresholds struct {
	PriceChangePct float64
	Volume         float64
}

// DefaultThresholds — значения по умолчанию: 0.1% по цене, 1.0 по объёму.
func DefaultThresholds() Thresholds {
	return Thresholds{PriceChangePct: 0.1, Volume: 1.0}
}

// PriceChangePct — относительное изменение цены в процентах.
// prev == 0 — сентинел "символ ещё не наблюдался": такой переход
// всегда трактуется как 100%, чтобы первое обновление было значимым.
func PriceChangePct(prev, cur float64) float64 {
	if prev == 0 {
		return 100
	}
	return math.Abs((cur - prev) / prev * 100)
}

// Significant — чистая функция без побочных эффектов: обновление
// значимо, если bid или ask сдвинулись сильнее порога либо любой из
// новых объёмов превышает порог.
func Significant(prev, cur state.Snapshot, t Thresholds) bool {
	if PriceChangePct(prev.BidPrice, cur.BidPrice) > t.PriceChangePct {
		return true
	}
	if PriceChangePct(prev.AskPrice, cur.AskPrice) > t.PriceChangePct {
		return true
	}
	return cur.BidVolume > t.Volume || cur.AskVolume > t.Volume
}

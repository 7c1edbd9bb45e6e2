// internal/latency/window.go
package latency

import "github.com/gammazero/deque"

// DefaultCapacity — ёмкость окна по умолчанию.
const DefaultCapacity = 100

// Window — кольцевой буфер сэмплов задержки фиксированной ёмкости.
// Вставка сверх ёмкости вытесняет самый старый сэмпл. Отрицательные
// сэмплы (рассинхронизация часов) записываются как есть.
//
// Window не потокобезопасен: сериализацию обеспечивает владелец
// (per-symbol запись в state.Store).
type Window struct {
	samples deque.Deque[float64]
	cap     int
	sum     float64
}

// Snapshot — статистика по текущему содержимому окна.
// При Count == 0 остальные поля не определены и равны нулю.
type Snapshot struct {
	Count int     `json:"count"`
	Avg   float64 `json:"avg,omitempty"`
	Min   float64 `json:"min,omitempty"`
	Max   float64 `json:"max,omitempty"`
}

// NewWindow создаёт окно заданной ёмкости (<=0 → DefaultCapacity).
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Window{cap: capacity}
}

// Capacity возвращает максимальную длину окна.
func (w *Window) Capacity() int { return w.cap }

// Len возвращает текущее число сэмплов.
func (w *Window) Len() int { return w.samples.Len() }

// Record добавляет сэмпл; при переполнении вытесняет самый старый.
func (w *Window) Record(sample float64) {
	w.samples.PushBack(sample)
	w.sum += sample
	if w.samples.Len() > w.cap {
		w.sum -= w.samples.PopFront()
	}
}

// Snapshot считает count/avg/min/max по текущему содержимому.
// Пустое окно — валидный результат "нет данных", а не ошибка.
func (w *Window) Snapshot() Snapshot {
	n := w.samples.Len()
	if n == 0 {
		return Snapshot{}
	}

	min := w.samples.At(0)
	max := min
	for i := 1; i < n; i++ {
		s := w.samples.At(i)
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}

	return Snapshot{
		Count: n,
		Avg:   w.sum / float64(n),
		Min:   min,
		Max:   max,
	}
}

// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/vietvo371/Binane-test/internal/filter"
	"github.com/vietvo371/Binane-test/internal/metrics"
	"github.com/vietvo371/Binane-test/internal/report"
	"github.com/vietvo371/Binane-test/internal/state"
	"github.com/vietvo371/Binane-test/pkg/logger"
	"github.com/vietvo371/Binane-test/pkg/stream"
)

var tracer = otel.Tracer("bookwatch/pipeline")

// Pipeline нормализует кадры потока в обновления состояния.
// Все мутации состояния идут через одну горутину Run: конкурентной
// записи по одному символу не бывает. Любая паника внутри обработки
// одного кадра гасится на границе кадра и не валит весь цикл.
type Pipeline struct {
	store      *state.Store
	thresholds filter.Thresholds
	reporter   *report.Reporter
	log        *logger.Logger
}

// New создаёт пайплайн.
func New(store *state.Store, thresholds filter.Thresholds, reporter *report.Reporter, log *logger.Logger) *Pipeline {
	return &Pipeline{
		store:      store,
		thresholds: thresholds,
		reporter:   reporter,
		log:        log.Named("pipeline"),
	}
}

// Run читает кадры до закрытия канала. Разрыв потока проявляется как
// пауза в кадрах: состояние при этом не трогается, после переподключения
// обработка продолжается с первого нового кадра.
func (p *Pipeline) Run(ctx context.Context, in <-chan stream.RawFrame) error {
	for frame := range in {
		p.handleFrame(ctx, frame)
	}
	return nil
}

func (p *Pipeline) handleFrame(ctx context.Context, frame stream.RawFrame) {
	defer func() {
		if r := recover(); r != nil {
			metrics.PanicsRecovered.Inc()
			p.log.WithContext(ctx).Error("panic recovered in frame handler",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()

	ctx, span := tracer.Start(ctx, "HandleFrame",
		trace.WithAttributes(attribute.String("frame.type", frame.Type)))
	defer span.End()

	metrics.FramesTotal.Inc()
	receiveTime := time.Now()

	var (
		u   bookUpdate
		err error
	)
	switch frame.Type {
	case FrameTypeDepth:
		u, err = parseDepth(frame.Data)
	case FrameTypeTicker:
		u, err = parseTicker(frame.Data)
	default:
		metrics.UnsupportedFrames.Inc()
		p.log.WithContext(ctx).Debug("unsupported frame, skipping",
			zap.String("type", frame.Type))
		return
	}
	if err != nil {
		metrics.ParseErrors.Inc()
		span.RecordError(err)
		p.reporter.Malformed(ctx, u.Symbol, err.Error())
		return
	}

	// Push-задержка измерима только для кадров с event time биржи.
	if u.HasEventTime {
		lat := receiveTime.Sub(u.EventTime)
		p.store.RecordPushLatency(u.Symbol, float64(lat.Milliseconds()))
		metrics.PushLatency.Observe(lat.Seconds())
	}

	prev, cur, err := p.store.Apply(u.Symbol, state.Update{
		Bid:         u.Bid,
		BidVolume:   u.BidVolume,
		Ask:         u.Ask,
		AskVolume:   u.AskVolume,
		UpdateID:    u.UpdateID,
		EventTime:   u.EventTime,
		ReceiveTime: receiveTime,
	})
	if err != nil {
		metrics.ParseErrors.Inc()
		span.RecordError(err)
		p.reporter.Malformed(ctx, u.Symbol, err.Error())
		return
	}

	if !filter.Significant(prev, cur, p.thresholds) {
		metrics.FilteredUpdates.Inc()
		return
	}
	p.reporter.Update(ctx, cur, p.store.Latency(u.Symbol))
}

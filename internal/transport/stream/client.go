// internal/transport/stream/client.go
package stream

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/vietvo371/Binane-test/pkg/logger"
	pkgstream "github.com/vietvo371/Binane-test/pkg/stream"
)

var tracer = otel.Tracer("bookwatch/transport/stream")

// StreamWithMetrics оборачивает коннектор учётом кадров: счётчики по
// типам, gauge подключения и времени последнего кадра, учёт потерь
// при переполнении буфера потребителя. Выходной канал закрывается
// вместе с входным.
func StreamWithMetrics(ctx context.Context, conn pkgstream.Connector, log *logger.Logger) (<-chan pkgstream.RawFrame, error) {
	ctx, span := tracer.Start(ctx, "stream.connect")
	defer span.End()

	frameCh, err := conn.Stream(ctx)
	if err != nil {
		connects.WithLabelValues("error").Inc()
		span.RecordError(err)
		return nil, err
	}
	connects.WithLabelValues("ok").Inc()
	connected.Set(1)
	span.SetAttributes(attribute.Int("buffer_cap", cap(frameCh)))

	log = log.Named("stream-transport")
	out := make(chan pkgstream.RawFrame, cap(frameCh))
	go func() {
		defer close(out)
		defer connected.Set(0)

		for frame := range frameCh {
			frames.WithLabelValues(frame.Type).Inc()
			lastFrameAt.Set(float64(time.Now().Unix()))

			select {
			case out <- frame:
			default:
				drops.WithLabelValues(frame.Type).Inc()
				log.WithContext(ctx).Warn("consumer buffer full, dropping frame",
					zap.String("type", frame.Type))
			}
		}
	}()
	return out, nil
}

// internal/report/logsink.go
package report

import (
	"context"

	"go.uber.org/zap"

	"github.com/vietvo371/Binane-test/pkg/logger"
)

// LogSink пишет события в структурированный лог.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink создаёт синк поверх именованного логгера.
func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log.Named("report")}
}

// Emit сериализует событие в поля zap. Malformed-предупреждения идут
// уровнем Warn, остальные — Info.
func (s *LogSink) Emit(ctx context.Context, evt Event) error {
	fields := []zap.Field{
		zap.String("kind", string(evt.Kind)),
		zap.Time("time", evt.Time),
	}
	if evt.Symbol != "" {
		fields = append(fields, zap.String("symbol", evt.Symbol))
	}

	switch evt.Kind {
	case KindUpdate:
		if evt.State != nil {
			fields = append(fields,
				zap.Int64("update_id", evt.State.UpdateID),
				zap.Float64("bid", evt.State.BidPrice),
				zap.Float64("bid_volume", evt.State.BidVolume),
				zap.Float64("ask", evt.State.AskPrice),
				zap.Float64("ask_volume", evt.State.AskVolume),
				zap.Float64("spread_pct", evt.State.SpreadPct),
			)
		}
		if evt.Latency != nil {
			fields = append(fields, zap.Any("latency", evt.Latency))
		}
		s.log.WithContext(ctx).Info("significant update", fields...)

	case KindStatsDump:
		fields = append(fields, zap.Any("stats", evt.Stats))
		s.log.WithContext(ctx).Info("rolling statistics dump", fields...)

	case KindStaleness:
		fields = append(fields,
			zap.String("status", evt.Status),
			zap.Duration("since_last_update", evt.SinceLastUpdate),
		)
		s.log.WithContext(ctx).Info("staleness report", fields...)

	case KindMalformed:
		fields = append(fields, zap.String("reason", evt.Reason))
		s.log.WithContext(ctx).Warn("malformed update dropped", fields...)

	default:
		s.log.WithContext(ctx).Info("event", fields...)
	}
	return nil
}

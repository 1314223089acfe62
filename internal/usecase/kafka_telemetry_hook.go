package usecase

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	domrepo "AfriPulse/internal/domain/repository"
	pkgkafka "AfriPulse/pkg/kafka"
	applogger "AfriPulse/pkg/logger"
)

// ConsumerTelemetryHook wraps message handling with latency and error
// metrics. Trace ids from message headers are threaded into the context so
// handler logs correlate with the producer's.
type ConsumerTelemetryHook struct {
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewConsumerTelemetryHook(m domrepo.Metrics, l *applogger.Logger) *ConsumerTelemetryHook {
	return &ConsumerTelemetryHook{metrics: m, l: l}
}

func (h *ConsumerTelemetryHook) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	ctx = pkgkafka.WithStartTime(ctx, time.Now())
	ctx = pkgkafka.WithTraceID(ctx, pkgkafka.ExtractTraceID(km))
	return ctx, km, data, nil
}

func (h *ConsumerTelemetryHook) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	if start, ok := ctx.Value(pkgkafka.CtxStartTime).(time.Time); ok {
		h.metrics.RecordLatency("kafka_handle_seconds", time.Since(start).Seconds())
	}
}

func (h *ConsumerTelemetryHook) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	h.metrics.RecordError("kafka_consume")
	traceID, _ := ctx.Value(pkgkafka.CtxTraceID).(string)
	h.l.Error("kafka message failed",
		applogger.String("topic", topic),
		applogger.Int("partition", km.Partition),
		applogger.String("trace_id", traceID),
		applogger.Error(err),
	)
}

var _ pkgkafka.ConsumerHook = (*ConsumerTelemetryHook)(nil)

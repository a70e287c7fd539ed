// Package sinks provides audit Sink implementations for logs and metrics.
package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/seoforge/keyword-engine/internal/audit"
)

// LogSink emits structured logs for audit streams. It is useful during
// development or reviews where a durable store is unavailable.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch using structured fields.
func (s *LogSink) Consume(_ context.Context, batch []audit.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("run_id", evt.RunUUID().String()),
			zap.String("kind", string(evt.Kind)),
			zap.String("stage", evt.Stage),
		}
		switch evt.Kind {
		case audit.KindItemFault:
			fields = append(fields,
				zap.String("term", evt.Term),
				zap.String("fault", string(evt.Fault)),
				zap.String("note", evt.Note),
			)
		case audit.KindBatchDone:
			fields = append(fields,
				zap.Int("input", evt.Counts.Input),
				zap.Int("accepted", evt.Counts.Accepted),
				zap.Int("rejected", evt.Counts.Rejected),
				zap.Int("errored", evt.Counts.Errored),
				zap.Duration("dur", evt.Dur),
			)
		case audit.KindBatchStart:
			fields = append(fields, zap.Int("input", evt.Counts.Input))
		}
		s.logger.Info("audit event", fields...)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}

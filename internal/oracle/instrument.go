package oracle

import (
	"context"
	"time"

	"go.uber.org/zap"

	"docqa-backend/internal/shared/metrics"
	"docqa-backend/internal/shared/telemetry"
)

// Instrumented bounds each call by Timeout and records metrics and logs.
type Instrumented struct {
	Next    Oracle
	Timeout time.Duration
	Name    string
}

// Instrument wraps next. A zero timeout leaves calls unbounded.
func Instrument(next Oracle, name string, timeout time.Duration) *Instrumented {
	return &Instrumented{Next: next, Timeout: timeout, Name: name}
}

// ExtractText implements Extractor.
func (o *Instrumented) ExtractText(ctx context.Context, f File) (string, error) {
	ctx, cancel := o.bound(ctx)
	defer cancel()

	start := time.Now()
	text, err := o.Next.ExtractText(ctx, f)
	o.observe(ctx, "extract", start, err,
		zap.String("media_type", f.MediaType),
		zap.Int("bytes", len(f.Data)),
	)
	return text, err
}

// Answer implements Answerer.
func (o *Instrumented) Answer(ctx context.Context, text, question string) (Answer, error) {
	ctx, cancel := o.bound(ctx)
	defer cancel()

	start := time.Now()
	ans, err := o.Next.Answer(ctx, text, question)
	o.observe(ctx, "answer", start, err,
		zap.Int("text_chars", len(text)),
		zap.Int("citations", len(ans.Citations)),
	)
	return ans, err
}

func (o *Instrumented) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, o.Timeout)
}

func (o *Instrumented) observe(ctx context.Context, op string, start time.Time, err error, fields ...zap.Field) {
	d := time.Since(start)
	metrics.ObserveOracleCall(op, d, err)

	fields = append(fields,
		zap.String("provider", o.Name),
		zap.String("op", op),
		zap.Int64("duration_ms", d.Milliseconds()),
	)
	logger := telemetry.FromContext(ctx)
	if err != nil {
		logger.Warn("oracle.call_failed", append(fields, zap.Error(err))...)
		return
	}
	logger.Debug("oracle.call", fields...)
}

var _ Oracle = (*Instrumented)(nil)

// Package audit flattens completed submissions into append-only rows and
// hands them to the configured sink.
package audit

import (
	"context"
	"time"

	apperrors "intent-classifier/internal/common/errors"
	"intent-classifier/internal/common/metrics"
	"intent-classifier/internal/models"
)

// DefaultLabel is the first column of every row.
const DefaultLabel = "demo"

// Sink appends one row to durable storage. Implementations never update or
// delete existing rows.
type Sink interface {
	Name() string
	Append(ctx context.Context, row models.AuditRow) error
	Close() error
}

// Pinger is implemented by sinks that can check reachability without
// writing a row.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Auditor struct {
	sink  Sink
	label string
	model models.ModelInfo
	now   func() time.Time
}

type Option func(*Auditor)

// WithClock replaces the wall clock used for the date and time columns.
func WithClock(now func() time.Time) Option {
	return func(a *Auditor) {
		a.now = now
	}
}

func NewAuditor(sink Sink, label string, model models.ModelInfo, opts ...Option) *Auditor {
	if label == "" {
		label = DefaultLabel
	}
	a := &Auditor{
		sink:  sink,
		label: label,
		model: model,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Auditor) SinkName() string {
	return a.sink.Name()
}

// Record builds the row for rec and appends it exactly once.
func (a *Auditor) Record(ctx context.Context, rec models.AuditRecord) (models.AuditRow, error) {
	row := models.NewAuditRow(a.label, a.now().Local(), a.model, rec)

	if err := a.sink.Append(ctx, row); err != nil {
		metrics.AuditAppends.WithLabelValues(a.sink.Name(), metrics.StatusFailure).Inc()
		return row, apperrors.NewSinkError(a.sink.Name(), err)
	}

	metrics.AuditAppends.WithLabelValues(a.sink.Name(), metrics.StatusSuccess).Inc()
	return row, nil
}

// Ping checks the sink when it supports it. Sinks without a check report
// healthy.
func (a *Auditor) Ping(ctx context.Context) error {
	p, ok := a.sink.(Pinger)
	if !ok {
		return nil
	}
	return p.Ping(ctx)
}

func (a *Auditor) Close() error {
	return a.sink.Close()
}

package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "intent-classifier/internal/common/errors"
	"intent-classifier/internal/common/metrics"
	"intent-classifier/internal/models"
)

type recordingSink struct {
	name string
	rows []models.AuditRow
	err  error
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Append(ctx context.Context, row models.AuditRow) error {
	s.rows = append(s.rows, row)
	return s.err
}

func (s *recordingSink) Close() error { return nil }

func sampleRecord() models.AuditRecord {
	return models.AuditRecord{
		Input:    "hola, soy Juan de Madrid",
		Intents:  models.Taxonomy{"saludo": "Detectar saludos"},
		Entities: models.Taxonomy{"nombre": "Nombre propio"},
		Result: &models.Classification{
			Intents:     []string{"saludo"},
			Entities:    map[string]interface{}{"nombre": "Juan"},
			Explanation: "Saludo",
			Language:    "es",
		},
		ResponseTime: 1.234,
	}
}

func TestAuditor_Record(t *testing.T) {
	sink := &recordingSink{name: "recording-ok"}
	clock := func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.Local) }
	model := models.ModelInfo{Name: "llama3", Provider: "groq", Temperature: 0.3}

	a := NewAuditor(sink, "", model, WithClock(clock))
	row, err := a.Record(context.Background(), sampleRecord())
	require.NoError(t, err)

	require.Len(t, sink.rows, 1)
	assert.Equal(t, row, sink.rows[0])
	assert.Equal(t, DefaultLabel, row.Label)
	assert.Equal(t, "2025-01-02", row.Date)
	assert.Equal(t, "03:04:05", row.Time)
	assert.Equal(t, "1.23", row.ResponseTime)
	assert.Equal(t, "llama3", row.ModelName)
	assert.Equal(t, "groq", row.ModelProvider)
	assert.Equal(t, 0.3, row.Temperature)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AuditAppends.WithLabelValues("recording-ok", metrics.StatusSuccess)))
}

func TestAuditor_RepeatedRecordsAppendEachTime(t *testing.T) {
	sink := &recordingSink{name: "recording-repeat"}
	a := NewAuditor(sink, "demo", models.ModelInfo{})

	for i := 0; i < 2; i++ {
		_, err := a.Record(context.Background(), sampleRecord())
		require.NoError(t, err)
	}
	assert.Len(t, sink.rows, 2)
}

func TestAuditor_SinkFailure(t *testing.T) {
	sink := &recordingSink{name: "recording-fail", err: errors.New("quota exceeded")}
	a := NewAuditor(sink, "demo", models.ModelInfo{})

	_, err := a.Record(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.True(t, apperrors.IsSinkError(err))
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Len(t, sink.rows, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AuditAppends.WithLabelValues("recording-fail", metrics.StatusFailure)))
}

type pingingSink struct {
	recordingSink
	pingErr error
}

func (s *pingingSink) Ping(ctx context.Context) error { return s.pingErr }

func TestAuditor_Ping(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, NewAuditor(&recordingSink{name: "memory"}, "", models.ModelInfo{}).Ping(ctx))
	assert.NoError(t, NewAuditor(&pingingSink{recordingSink: recordingSink{name: "memory"}}, "", models.ModelInfo{}).Ping(ctx))

	down := &pingingSink{recordingSink: recordingSink{name: "memory"}, pingErr: errors.New("connection refused")}
	assert.EqualError(t, NewAuditor(down, "", models.ModelInfo{}).Ping(ctx), "connection refused")
	assert.Empty(t, down.rows)
}

// Package submission runs one operator request end to end: parse the
// taxonomies, classify, audit.
package submission

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "intent-classifier/internal/common/errors"
	"intent-classifier/internal/common/logger"
	"intent-classifier/internal/common/metrics"
	"intent-classifier/internal/common/observability"
	"intent-classifier/internal/models"
)

// Entry points, used as the source metric label.
const (
	SourceForm   = "form"
	SourceAPI    = "api"
	SourceWorker = "worker"
)

const codeOK = "OK"

type Classifier interface {
	Classify(ctx context.Context, userInput string, intents, entities models.Taxonomy) (*models.Classification, float64, error)
}

type Auditor interface {
	Record(ctx context.Context, rec models.AuditRecord) (models.AuditRow, error)
}

// Form is the raw operator input. Taxonomies are JSON text.
type Form struct {
	Input        string
	IntentsJSON  string
	EntitiesJSON string
	Source       string
}

type Result struct {
	SubmissionID   string                 `json:"submissionId"`
	Classification *models.Classification `json:"classification"`
	ResponseTime   float64                `json:"responseTime"`
}

type Dependencies struct {
	Classifier    Classifier
	Auditor       Auditor
	Logger        logger.Logger
	Observability *observability.Observability
	ProviderName  string
	ModelName     string
}

// Service processes one submission at a time.
type Service struct {
	classifier Classifier
	auditor    Auditor
	logger     logger.Logger
	obs        *observability.Observability
	provider   string
	model      string
	newID      func() string

	mu sync.Mutex
}

func NewService(deps Dependencies) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	obs := deps.Observability
	if obs == nil {
		obs = &observability.Observability{}
	}
	return &Service{
		classifier: deps.Classifier,
		auditor:    deps.Auditor,
		logger:     log.With(map[string]interface{}{"component": "submission"}),
		obs:        obs,
		provider:   deps.ProviderName,
		model:      deps.ModelName,
		newID:      uuid.NewString,
	}
}

// Submit parses both taxonomies and runs the submission. Parsing happens
// before any model call, so an INPUT_ERROR never reaches the provider or
// the audit sink.
func (s *Service) Submit(ctx context.Context, form Form) (*Result, error) {
	intents, err := models.ParseTaxonomy(form.IntentsJSON)
	if err != nil {
		return nil, s.reject(form.Source, apperrors.NewInputError("intents", err))
	}
	entities, err := models.ParseTaxonomy(form.EntitiesJSON)
	if err != nil {
		return nil, s.reject(form.Source, apperrors.NewInputError("entities", err))
	}

	return s.SubmitParsed(ctx, form.Source, models.Submission{
		Input:    form.Input,
		Intents:  intents,
		Entities: entities,
	})
}

// SubmitParsed classifies and audits an already-parsed submission. The
// audit row is written only after a successful classification.
func (s *Service) SubmitParsed(ctx context.Context, source string, sub models.Submission) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub.ID == "" {
		sub.ID = s.newID()
	}
	if source == "" {
		source = SourceAPI
	}
	start := time.Now()
	log := s.logger.With(map[string]interface{}{
		"submissionId": sub.ID,
		"source":       source,
	})

	ctx, span := s.obs.StartSpan(ctx, "submission.classify",
		attribute.String("submission.id", sub.ID),
		attribute.String("model.provider", s.provider),
		attribute.String("model.name", s.model),
	)
	defer span.End()

	result, latency, err := s.classifier.Classify(ctx, sub.Input, sub.Intents, sub.Entities)
	if err != nil {
		return nil, s.fail(ctx, log, span, source, start, err)
	}
	metrics.ModelLatency.WithLabelValues(s.provider, s.model).Observe(latency)
	span.SetAttributes(attribute.Float64("model.latency_seconds", latency))

	if _, err := s.auditor.Record(ctx, models.AuditRecord{
		Input:        sub.Input,
		Intents:      sub.Intents,
		Entities:     sub.Entities,
		Result:       result,
		ResponseTime: latency,
	}); err != nil {
		return nil, s.fail(ctx, log, span, source, start, err)
	}

	metrics.SubmissionsTotal.WithLabelValues(source, codeOK).Inc()
	s.obs.RecordSubmission(ctx, codeOK)
	s.obs.RecordSubmissionDuration(ctx, time.Since(start), codeOK)

	log.Info("submission classified", map[string]interface{}{
		"responseTime": latency,
		"intents":      result.Intents,
		"language":     result.Language,
	})

	return &Result{
		SubmissionID:   sub.ID,
		Classification: result,
		ResponseTime:   latency,
	}, nil
}

func (s *Service) reject(source string, err *apperrors.StandardError) error {
	if source == "" {
		source = SourceAPI
	}
	metrics.SubmissionsTotal.WithLabelValues(source, string(err.Code)).Inc()
	s.logger.Warn("submission rejected", map[string]interface{}{
		"source":    source,
		"errorCode": string(err.Code),
		"error":     err.Error(),
	})
	return err
}

func (s *Service) fail(ctx context.Context, log logger.Logger, span trace.Span, source string, start time.Time, err error) error {
	stdErr := apperrors.AsStandard(err)
	code := string(stdErr.Code)

	span.RecordError(stdErr)
	span.SetStatus(codes.Error, code)

	metrics.SubmissionsTotal.WithLabelValues(source, code).Inc()
	s.obs.RecordSubmission(ctx, code)
	s.obs.RecordSubmissionDuration(ctx, time.Since(start), code)

	log.Error("submission failed", map[string]interface{}{
		"errorCode":     code,
		"errorCategory": apperrors.GetErrorCategory(stdErr.Code),
		"error":         stdErr.Error(),
	})
	return stdErr
}

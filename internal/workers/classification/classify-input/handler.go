package classifyinput

import (
	"context"
	"encoding/json"
	"fmt"

	"intent-classifier/internal/common/camunda"
	"intent-classifier/internal/common/config"
	"intent-classifier/internal/common/errors"
	"intent-classifier/internal/common/logger"
	"intent-classifier/internal/common/metrics"
	"intent-classifier/internal/common/validation"
	"intent-classifier/internal/models"
	"intent-classifier/internal/submission"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "classify-input"

// Submitter runs one submission through classification and audit.
type Submitter interface {
	Submit(ctx context.Context, form submission.Form) (*submission.Result, error)
}

type Handler struct {
	config       *Config
	logger       logger.Logger
	camunda      *camunda.Client
	submitter    Submitter
	validator    *validation.Validator
	errorHandler *errors.ErrorHandler
	worker       *camunda.CamundaWorker
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Camunda      *camunda.Client
	CustomConfig *Config
	Submitter    Submitter
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Submitter == nil {
		return nil, fmt.Errorf("%s requires a submitter", TaskType)
	}

	validator, err := validation.NewValidator(GetInputSchema())
	if err != nil {
		return nil, err
	}

	loggerInstance := opts.Logger
	if loggerInstance == nil {
		loggerInstance = logger.NewStructured("info", "json")
	}
	loggerInstance = loggerInstance.With(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       workerConfig,
		logger:       loggerInstance,
		camunda:      opts.Camunda,
		submitter:    opts.Submitter,
		validator:    validator,
		errorHandler: errors.NewErrorHandler(loggerInstance),
	}, nil
}

// Handle processes one activated job. Failures are reported to Zeebe
// through the common error handler and also returned.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err != nil {
		return h.failJob(ctx, client, job, err)
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		return h.failJob(ctx, client, job, err)
	}

	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(output.ToVariables())
	if err != nil {
		return h.failJob(ctx, client, job, errors.NewInternalError(err))
	}
	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err,
		})
		return err
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":       job.GetKey(),
		"submissionId": output.SubmissionID,
		"responseTime": output.ResponseTime,
	})
	return nil
}

// Execute runs the submission for an already-parsed input.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	res, err := h.submitter.Submit(ctx, submission.Form{
		Input:        input.Input,
		IntentsJSON:  models.TaxonomyText(input.Intents),
		EntitiesJSON: models.TaxonomyText(input.Entities),
		Source:       submission.SourceWorker,
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		Classification: res.Classification,
		ResponseTime:   res.ResponseTime,
		SubmissionID:   res.SubmissionID,
	}, nil
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	raw := []byte(job.GetVariables())

	result, err := h.validator.Validate(raw)
	if err != nil {
		return nil, errors.NewInputError("job variables", err)
	}
	if !result.Valid {
		return nil, errors.NewInputError("job variables", fmt.Errorf("%s", result.String()))
	}

	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, errors.NewInputError("job variables", err)
	}
	return &input, nil
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) error {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.GetCode(err))).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
	return err
}

// Register opens a job worker on the Zeebe client when enabled.
func (h *Handler) Register() error {
	if !h.config.Enabled {
		h.logger.Info("worker is disabled, skipping registration", nil)
		return nil
	}
	if h.camunda == nil {
		return fmt.Errorf("%s: camunda client is not configured", TaskType)
	}

	h.worker = camunda.NewWorker(h.camunda.GetClient(), TaskType, camunda.WorkerOptions{
		MaxJobsActive: h.config.MaxJobsActive,
		Timeout:       h.config.Timeout,
	}, h, h.logger)
	h.worker.Start()
	return nil
}

func (h *Handler) Close(ctx context.Context) {
	if h.worker != nil {
		h.worker.Stop(ctx)
		h.worker = nil
	}
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) GetConfig() *Config {
	return h.config
}

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/sentinelsec/guardgate/pkg/cache"
	"github.com/sentinelsec/guardgate/pkg/config"
	guardprometheus "github.com/sentinelsec/guardgate/pkg/infra/prometheus"
	"github.com/sentinelsec/guardgate/pkg/registry"
	"github.com/sentinelsec/guardgate/pkg/types"
	"github.com/sentinelsec/guardgate/pkg/validators"
)

const DefaultGuardrailName = "default"

var (
	ErrEmptyText     = errors.New("text must not be empty")
	ErrEmptyBatch    = errors.New("batch must contain at least one text")
	ErrBatchTooLarge = errors.New("batch exceeds the maximum number of items")
)

// ResultCache is the slice of the report cache the orchestrator needs. A nil
// cache disables caching entirely.
type ResultCache interface {
	GetReport(ctx context.Context, key string) (*types.ValidationReport, bool)
	SetReport(ctx context.Context, key string, report *types.ValidationReport, ttl time.Duration)
	DefaultTTL() time.Duration
}

// Orchestrator resolves a guardrail, runs its validators in order, applies
// on-fail actions and aggregates the outcomes into a report.
type Orchestrator struct {
	logger       *logrus.Logger
	registry     *registry.Registry
	manager      validators.Manager
	cache        ResultCache
	maxBatch     int
	batchWorkers int
	maxTTL       time.Duration
}

func NewOrchestrator(
	logger *logrus.Logger,
	reg *registry.Registry,
	manager validators.Manager,
	resultCache ResultCache,
	cfg *config.Config,
) *Orchestrator {
	maxBatch := cfg.Batch.MaxItems
	if maxBatch <= 0 {
		maxBatch = 100
	}
	workers := cfg.Batch.Workers
	if workers <= 0 {
		workers = 4
	}
	return &Orchestrator{
		logger:       logger,
		registry:     reg,
		manager:      manager,
		cache:        resultCache,
		maxBatch:     maxBatch,
		batchWorkers: workers,
		maxTTL:       time.Duration(cfg.Cache.MaxTTL) * time.Second,
	}
}

// MaxBatchItems is the upper bound accepted by ValidateBatch.
func (o *Orchestrator) MaxBatchItems() int {
	return o.maxBatch
}

// Validate runs one text through the named guardrail. A guardrail that does
// not exist returns registry.ErrGuardrailNotFound without executing any
// validator.
func (o *Orchestrator) Validate(ctx context.Context, req types.ValidationRequest) (*types.ValidationReport, error) {
	if req.Text == "" {
		return nil, ErrEmptyText
	}
	name := req.GuardrailName
	if name == "" {
		name = DefaultGuardrailName
	}

	guardrail, err := o.registry.Get(name)
	if err != nil {
		return nil, err
	}

	key := cache.Key(req.Text, name)
	if o.cache != nil && !req.SkipCache {
		if report, ok := o.cache.GetReport(ctx, key); ok {
			report.Cached = true
			return report, nil
		}
	}

	start := time.Now()
	report := o.execute(ctx, guardrail, req.Text)
	report.ExecutionTimeMs = float64(time.Since(start).Microseconds()) / 1000.0

	if o.cache != nil && !req.SkipCache {
		o.cache.SetReport(ctx, key, report, o.cacheTTL(req.CacheTTL))
	}

	return report, nil
}

// ValidateBatch runs up to MaxBatchItems texts through one guardrail,
// concurrently under a bounded semaphore. The returned slice preserves input
// order; one item failing never disturbs its siblings.
func (o *Orchestrator) ValidateBatch(
	ctx context.Context,
	texts []string,
	guardrailName string,
) ([]*types.ValidationReport, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(texts) > o.maxBatch {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(texts), o.maxBatch)
	}
	if guardrailName == "" {
		guardrailName = DefaultGuardrailName
	}
	// Resolve once so an unknown guardrail fails before any work starts.
	if _, err := o.registry.Get(guardrailName); err != nil {
		return nil, err
	}

	reports := make([]*types.ValidationReport, len(texts))
	sem := semaphore.NewWeighted(int64(o.batchWorkers))

	for i, text := range texts {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		go func(i int, text string) {
			defer sem.Release(1)
			report, err := o.Validate(ctx, types.ValidationRequest{
				Text:          text,
				GuardrailName: guardrailName,
			})
			if err != nil {
				// Per-item degradation: an empty text (the only error still
				// possible here) becomes an invalid report, not a batch abort.
				report = &types.ValidationReport{
					Valid:     false,
					Guardrail: guardrailName,
					Validations: []types.ValidatorOutcome{{
						Validator:  "request",
						Passed:     false,
						Message:    err.Error(),
						Confidence: 0,
					}},
				}
			}
			reports[i] = report
		}(i, text)
	}

	// Draining the semaphore waits for every worker.
	if err := sem.Acquire(ctx, int64(o.batchWorkers)); err != nil {
		return nil, err
	}
	sem.Release(int64(o.batchWorkers))

	return reports, nil
}

func (o *Orchestrator) execute(ctx context.Context, guardrail *types.GuardrailConfig, text string) *types.ValidationReport {
	outcomes := make([]types.ValidatorOutcome, 0, len(guardrail.Validators))
	currentText := text
	valid := true

	// Every validator runs even after a reject failure, so the caller sees
	// the complete picture.
	for _, spec := range guardrail.Validators {
		outcome, processed := o.runValidator(ctx, spec, currentText)

		if !outcome.Passed {
			outcome.ActionTaken = spec.OnFail
			switch spec.OnFail {
			case types.OnFailReject:
				valid = false
			case types.OnFailFilter:
				if processed != "" {
					currentText = processed
				}
			case types.OnFailReask, types.OnFailIgnore:
				// Recorded on the outcome only.
			}
		}

		outcomes = append(outcomes, outcome)
	}

	report := &types.ValidationReport{
		Valid:       valid,
		Guardrail:   guardrail.Name,
		Validations: outcomes,
	}
	if currentText != text {
		report.ProcessedText = currentText
	}
	return report
}

// runValidator executes one validator, downgrading panics and errors to a
// failing outcome so a broken validator never takes down the request.
func (o *Orchestrator) runValidator(
	ctx context.Context,
	spec types.ValidatorSpec,
	text string,
) (outcome types.ValidatorOutcome, processedText string) {
	outcome = types.ValidatorOutcome{Validator: spec.Name}
	start := time.Now()

	defer func() {
		guardprometheus.ValidatorLatency.WithLabelValues(spec.Name).
			Observe(float64(time.Since(start).Microseconds()) / 1000.0)
		result := "passed"
		if !outcome.Passed {
			result = "failed"
		}
		guardprometheus.ValidationTotal.WithLabelValues(spec.Name, result).Inc()
	}()

	defer func() {
		if r := recover(); r != nil {
			o.logger.WithFields(logrus.Fields{
				"validator": spec.Name,
				"panic":     r,
			}).Error("validator panicked")
			outcome.Passed = false
			outcome.Message = fmt.Sprintf("validator execution error: %v", r)
			outcome.Confidence = 0
			processedText = ""
		}
	}()

	validator, err := o.manager.GetValidator(spec.Name)
	if err != nil {
		outcome.Passed = false
		outcome.Message = err.Error()
		outcome.Confidence = 0
		return outcome, ""
	}

	result, err := validator.Evaluate(ctx, text, spec.Params)
	if err != nil {
		o.logger.WithError(err).WithField("validator", spec.Name).Error("validator execution failed")
		outcome.Passed = false
		outcome.Message = fmt.Sprintf("validator execution error: %s", err.Error())
		outcome.Confidence = 0
		return outcome, ""
	}

	outcome.Passed = result.Passed
	outcome.Message = result.Message
	outcome.Confidence = result.Confidence
	return outcome, result.ProcessedText
}

func (o *Orchestrator) cacheTTL(override *int) time.Duration {
	if override == nil {
		return 0 // cache default
	}
	ttl := time.Duration(*override) * time.Second
	if ttl <= 0 {
		return 0
	}
	if o.maxTTL > 0 && ttl > o.maxTTL {
		return o.maxTTL
	}
	return ttl
}

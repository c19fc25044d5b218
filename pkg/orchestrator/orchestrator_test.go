package orchestrator

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelsec/guardgate/pkg/config"
	"github.com/sentinelsec/guardgate/pkg/infra/validatoriface"
	"github.com/sentinelsec/guardgate/pkg/registry"
	"github.com/sentinelsec/guardgate/pkg/types"
	"github.com/sentinelsec/guardgate/pkg/validators"
)

type stubValidator struct {
	mu        sync.Mutex
	name      string
	passed    bool
	message   string
	processed string
	err       error
	panics    bool
	calls     int
	seenTexts []string
}

func (v *stubValidator) Name() string { return v.name }

func (v *stubValidator) ValidateSpec(_ types.ValidatorSpec) error { return nil }

func (v *stubValidator) Evaluate(
	_ context.Context,
	text string,
	_ map[string]interface{},
) (*validatoriface.Result, error) {
	v.mu.Lock()
	v.calls++
	v.seenTexts = append(v.seenTexts, text)
	v.mu.Unlock()

	if v.panics {
		panic("stub exploded")
	}
	if v.err != nil {
		return nil, v.err
	}
	return &validatoriface.Result{
		Passed:        v.passed,
		Message:       v.message,
		Confidence:    1.0,
		ProcessedText: v.processed,
	}, nil
}

func (v *stubValidator) callCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls
}

func (v *stubValidator) texts() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]string, len(v.seenTexts))
	copy(out, v.seenTexts)
	return out
}

type recordingCache struct {
	mu      sync.Mutex
	store   map[string]*types.ValidationReport
	lastTTL time.Duration
	gets    int
	sets    int
	down    bool
}

func newRecordingCache() *recordingCache {
	return &recordingCache{store: make(map[string]*types.ValidationReport)}
}

func (c *recordingCache) GetReport(_ context.Context, key string) (*types.ValidationReport, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.down {
		return nil, false
	}
	report, ok := c.store[key]
	if !ok {
		return nil, false
	}
	clone := *report
	clone.Validations = append([]types.ValidatorOutcome(nil), report.Validations...)
	return &clone, true
}

func (c *recordingCache) SetReport(_ context.Context, key string, report *types.ValidationReport, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.lastTTL = ttl
	if c.down {
		return
	}
	clone := *report
	clone.Validations = append([]types.ValidatorOutcome(nil), report.Validations...)
	c.store[key] = &clone
}

func (c *recordingCache) DefaultTTL() time.Duration { return 5 * time.Minute }

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig() *config.Config {
	return &config.Config{
		Cache: config.CacheConfig{TTLSeconds: 300, MaxTTL: 60},
		Batch: config.BatchConfig{MaxItems: 10, Workers: 2},
	}
}

func buildOrchestrator(
	t *testing.T,
	resultCache ResultCache,
	guardrails []types.GuardrailConfig,
	stubs ...*stubValidator,
) *Orchestrator {
	t.Helper()
	logger := testLogger()
	manager := validators.NewEmptyManager(logger)
	for _, stub := range stubs {
		require.NoError(t, manager.RegisterValidator(stub))
	}
	reg, err := registry.NewRegistry(logger, guardrails, manager)
	require.NoError(t, err)
	return NewOrchestrator(logger, reg, manager, resultCache, testConfig())
}

func TestValidateRunsEveryValidatorInOrder(t *testing.T) {
	first := &stubValidator{name: "first", passed: true, message: "ok"}
	second := &stubValidator{name: "second", passed: false, message: "flagged"}
	third := &stubValidator{name: "third", passed: true, message: "ok"}

	orch := buildOrchestrator(t, nil, []types.GuardrailConfig{{
		Name: "default",
		Validators: []types.ValidatorSpec{
			{Name: "first"},
			{Name: "second", OnFail: types.OnFailReject},
			{Name: "third"},
		},
	}}, first, second, third)

	report, err := orch.Validate(context.Background(), types.ValidationRequest{Text: "hello"})
	require.NoError(t, err)

	require.Len(t, report.Validations, 3)
	assert.Equal(t, "first", report.Validations[0].Validator)
	assert.Equal(t, "second", report.Validations[1].Validator)
	assert.Equal(t, "third", report.Validations[2].Validator)

	assert.False(t, report.Valid)
	assert.Equal(t, types.OnFailReject, report.Validations[1].ActionTaken)
	assert.Empty(t, report.Validations[0].ActionTaken)

	// The failing reject does not short-circuit the remaining validators.
	assert.Equal(t, 1, third.callCount())
}

func TestValidateUnknownGuardrail(t *testing.T) {
	stub := &stubValidator{name: "noop", passed: true}
	orch := buildOrchestrator(t, nil, []types.GuardrailConfig{{
		Name:       "default",
		Validators: []types.ValidatorSpec{{Name: "noop"}},
	}}, stub)

	report, err := orch.Validate(context.Background(), types.ValidationRequest{
		Text:          "hello",
		GuardrailName: "missing",
	})
	assert.Nil(t, report)
	assert.ErrorIs(t, err, registry.ErrGuardrailNotFound)
	assert.Zero(t, stub.callCount())
}

func TestValidateEmptyText(t *testing.T) {
	stub := &stubValidator{name: "noop", passed: true}
	orch := buildOrchestrator(t, nil, []types.GuardrailConfig{{
		Name:       "default",
		Validators: []types.ValidatorSpec{{Name: "noop"}},
	}}, stub)

	_, err := orch.Validate(context.Background(), types.ValidationRequest{Text: ""})
	assert.ErrorIs(t, err, ErrEmptyText)
	assert.Zero(t, stub.callCount())
}

func TestValidateFilterActionFeedsRedactedText(t *testing.T) {
	redactor := &stubValidator{
		name:      "redactor",
		passed:    false,
		message:   "flagged content",
		processed: "clean [REDACTED] text",
	}
	downstream := &stubValidator{name: "downstream", passed: true}

	orch := buildOrchestrator(t, nil, []types.GuardrailConfig{{
		Name: "default",
		Validators: []types.ValidatorSpec{
			{Name: "redactor", OnFail: types.OnFailFilter},
			{Name: "downstream"},
		},
	}}, redactor, downstream)

	report, err := orch.Validate(context.Background(), types.ValidationRequest{Text: "clean dirty text"})
	require.NoError(t, err)

	assert.True(t, report.Valid)
	assert.Equal(t, "clean [REDACTED] text", report.ProcessedText)
	assert.Equal(t, types.OnFailFilter, report.Validations[0].ActionTaken)
	assert.Equal(t, []string{"clean [REDACTED] text"}, downstream.texts())
}

func TestValidateIgnoreAndReaskDoNotInvalidate(t *testing.T) {
	ignored := &stubValidator{name: "ignored", passed: false, message: "meh"}
	reasked := &stubValidator{name: "reasked", passed: false, message: "try again"}

	orch := buildOrchestrator(t, nil, []types.GuardrailConfig{{
		Name: "default",
		Validators: []types.ValidatorSpec{
			{Name: "ignored", OnFail: types.OnFailIgnore},
			{Name: "reasked", OnFail: types.OnFailReask},
		},
	}}, ignored, reasked)

	report, err := orch.Validate(context.Background(), types.ValidationRequest{Text: "hello"})
	require.NoError(t, err)

	assert.True(t, report.Valid)
	assert.Equal(t, types.OnFailIgnore, report.Validations[0].ActionTaken)
	assert.Equal(t, types.OnFailReask, report.Validations[1].ActionTaken)
	assert.Empty(t, report.ProcessedText)
}

func TestValidateCachesAndReplaysReports(t *testing.T) {
	stub := &stubValidator{name: "noop", passed: true, message: "ok"}
	resultCache := newRecordingCache()
	orch := buildOrchestrator(t, resultCache, []types.GuardrailConfig{{
		Name:       "default",
		Validators: []types.ValidatorSpec{{Name: "noop"}},
	}}, stub)

	first, err := orch.Validate(context.Background(), types.ValidationRequest{Text: "hello world"})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := orch.Validate(context.Background(), types.ValidationRequest{Text: "hello world"})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Valid, second.Valid)
	assert.Equal(t, first.Validations, second.Validations)

	// Whitespace-only differences hit the same entry.
	third, err := orch.Validate(context.Background(), types.ValidationRequest{Text: "  hello   world "})
	require.NoError(t, err)
	assert.True(t, third.Cached)

	assert.Equal(t, 1, stub.callCount())
	assert.Equal(t, 1, resultCache.sets)
}

func TestValidateSkipCache(t *testing.T) {
	stub := &stubValidator{name: "noop", passed: true}
	resultCache := newRecordingCache()
	orch := buildOrchestrator(t, resultCache, []types.GuardrailConfig{{
		Name:       "default",
		Validators: []types.ValidatorSpec{{Name: "noop"}},
	}}, stub)

	_, err := orch.Validate(context.Background(), types.ValidationRequest{Text: "hello", SkipCache: true})
	require.NoError(t, err)
	_, err = orch.Validate(context.Background(), types.ValidationRequest{Text: "hello", SkipCache: true})
	require.NoError(t, err)

	assert.Equal(t, 2, stub.callCount())
	assert.Zero(t, resultCache.gets)
	assert.Zero(t, resultCache.sets)
}

func TestValidateCacheTTLOverrideIsBounded(t *testing.T) {
	stub := &stubValidator{name: "noop", passed: true}
	resultCache := newRecordingCache()
	orch := buildOrchestrator(t, resultCache, []types.GuardrailConfig{{
		Name:       "default",
		Validators: []types.ValidatorSpec{{Name: "noop"}},
	}}, stub)

	ttl := 10
	_, err := orch.Validate(context.Background(), types.ValidationRequest{Text: "short ttl", CacheTTL: &ttl})
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, resultCache.lastTTL)

	huge := 999999
	_, err = orch.Validate(context.Background(), types.ValidationRequest{Text: "capped ttl", CacheTTL: &huge})
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, resultCache.lastTTL)

	_, err = orch.Validate(context.Background(), types.ValidationRequest{Text: "default ttl"})
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), resultCache.lastTTL)
}

func TestValidateSurvivesCacheOutage(t *testing.T) {
	stub := &stubValidator{name: "noop", passed: true, message: "ok"}
	resultCache := newRecordingCache()
	resultCache.down = true
	orch := buildOrchestrator(t, resultCache, []types.GuardrailConfig{{
		Name:       "default",
		Validators: []types.ValidatorSpec{{Name: "noop"}},
	}}, stub)

	report, err := orch.Validate(context.Background(), types.ValidationRequest{Text: "hello"})
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.False(t, report.Cached)
	require.Len(t, report.Validations, 1)
	assert.True(t, report.Validations[0].Passed)
}

func TestValidatePanickingValidatorDowngrades(t *testing.T) {
	bomb := &stubValidator{name: "bomb", panics: true}
	survivor := &stubValidator{name: "survivor", passed: true}

	orch := buildOrchestrator(t, nil, []types.GuardrailConfig{{
		Name: "default",
		Validators: []types.ValidatorSpec{
			{Name: "bomb", OnFail: types.OnFailReject},
			{Name: "survivor"},
		},
	}}, bomb, survivor)

	report, err := orch.Validate(context.Background(), types.ValidationRequest{Text: "hello"})
	require.NoError(t, err)

	assert.False(t, report.Valid)
	require.Len(t, report.Validations, 2)
	assert.False(t, report.Validations[0].Passed)
	assert.Contains(t, report.Validations[0].Message, "validator execution error")
	assert.Zero(t, report.Validations[0].Confidence)
	assert.True(t, report.Validations[1].Passed)
}

func TestValidateErroringValidatorDowngrades(t *testing.T) {
	broken := &stubValidator{name: "broken", err: context.DeadlineExceeded}

	orch := buildOrchestrator(t, nil, []types.GuardrailConfig{{
		Name:       "default",
		Validators: []types.ValidatorSpec{{Name: "broken", OnFail: types.OnFailReject}},
	}}, broken)

	report, err := orch.Validate(context.Background(), types.ValidationRequest{Text: "hello"})
	require.NoError(t, err)

	assert.False(t, report.Valid)
	assert.Contains(t, report.Validations[0].Message, "validator execution error")
}

func TestValidateBatchPreservesOrderAndIsolation(t *testing.T) {
	// Fails only for texts containing "bad".
	picky := &pickyValidator{needle: "bad"}
	logger := testLogger()
	manager := validators.NewEmptyManager(logger)
	require.NoError(t, manager.RegisterValidator(picky))
	reg, err := registry.NewRegistry(logger, []types.GuardrailConfig{{
		Name:       "default",
		Validators: []types.ValidatorSpec{{Name: "picky", OnFail: types.OnFailReject}},
	}}, manager)
	require.NoError(t, err)
	orch := NewOrchestrator(logger, reg, manager, nil, testConfig())

	reports, err := orch.ValidateBatch(context.Background(), []string{"good one", "a bad one", "another good"}, "")
	require.NoError(t, err)
	require.Len(t, reports, 3)

	assert.True(t, reports[0].Valid)
	assert.False(t, reports[1].Valid)
	assert.True(t, reports[2].Valid)
}

func TestValidateBatchEmptyItemBecomesInvalidReport(t *testing.T) {
	stub := &stubValidator{name: "noop", passed: true}
	orch := buildOrchestrator(t, nil, []types.GuardrailConfig{{
		Name:       "default",
		Validators: []types.ValidatorSpec{{Name: "noop"}},
	}}, stub)

	reports, err := orch.ValidateBatch(context.Background(), []string{"hello", "", "world"}, "default")
	require.NoError(t, err)
	require.Len(t, reports, 3)

	assert.True(t, reports[0].Valid)
	assert.False(t, reports[1].Valid)
	require.Len(t, reports[1].Validations, 1)
	assert.Equal(t, "request", reports[1].Validations[0].Validator)
	assert.True(t, reports[2].Valid)
}

func TestValidateBatchBounds(t *testing.T) {
	stub := &stubValidator{name: "noop", passed: true}
	orch := buildOrchestrator(t, nil, []types.GuardrailConfig{{
		Name:       "default",
		Validators: []types.ValidatorSpec{{Name: "noop"}},
	}}, stub)

	_, err := orch.ValidateBatch(context.Background(), nil, "default")
	assert.ErrorIs(t, err, ErrEmptyBatch)

	texts := make([]string, orch.MaxBatchItems()+1)
	for i := range texts {
		texts[i] = "x"
	}
	_, err = orch.ValidateBatch(context.Background(), texts, "default")
	assert.ErrorIs(t, err, ErrBatchTooLarge)

	_, err = orch.ValidateBatch(context.Background(), []string{"hello"}, "missing")
	assert.ErrorIs(t, err, registry.ErrGuardrailNotFound)
	assert.Zero(t, stub.callCount())
}

func TestValidateBatchPanickingSiblingIsolation(t *testing.T) {
	picky := &pickyValidator{needle: "boom", panics: true}
	logger := testLogger()
	manager := validators.NewEmptyManager(logger)
	require.NoError(t, manager.RegisterValidator(picky))
	reg, err := registry.NewRegistry(logger, []types.GuardrailConfig{{
		Name:       "default",
		Validators: []types.ValidatorSpec{{Name: "picky", OnFail: types.OnFailReject}},
	}}, manager)
	require.NoError(t, err)
	orch := NewOrchestrator(logger, reg, manager, nil, testConfig())

	reports, err := orch.ValidateBatch(context.Background(), []string{"fine", "boom here", "also fine"}, "default")
	require.NoError(t, err)
	require.Len(t, reports, 3)

	assert.True(t, reports[0].Valid)
	assert.False(t, reports[1].Valid)
	assert.Contains(t, reports[1].Validations[0].Message, "validator execution error")
	assert.True(t, reports[2].Valid)
}

// pickyValidator fails (or panics) only when the text contains its needle.
type pickyValidator struct {
	needle string
	panics bool
}

func (v *pickyValidator) Name() string { return "picky" }

func (v *pickyValidator) ValidateSpec(_ types.ValidatorSpec) error { return nil }

func (v *pickyValidator) Evaluate(
	_ context.Context,
	text string,
	_ map[string]interface{},
) (*validatoriface.Result, error) {
	if strings.Contains(text, v.needle) {
		if v.panics {
			panic("picky exploded")
		}
		return &validatoriface.Result{Passed: false, Message: "matched " + v.needle, Confidence: 1.0}, nil
	}
	return &validatoriface.Result{Passed: true, Message: "ok", Confidence: 1.0}, nil
}

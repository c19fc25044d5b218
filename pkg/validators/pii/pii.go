package pii

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sentinelsec/guardgate/pkg/infra/validatoriface"
	"github.com/sentinelsec/guardgate/pkg/types"
)

const ValidatorName = "pii"

type Config struct {
	// Entities restricts detection to the listed entity names. Empty means
	// all known entities.
	Entities []string `mapstructure:"entities"`
}

// PIIValidator detects personally identifiable information with regex entity
// patterns and produces a masked text for the filter action.
type PIIValidator struct {
	logger *logrus.Logger
}

func NewPIIValidator(logger *logrus.Logger) validatoriface.Validator {
	return &PIIValidator{logger: logger}
}

func (v *PIIValidator) Name() string {
	return ValidatorName
}

func (v *PIIValidator) ValidateSpec(spec types.ValidatorSpec) error {
	var cfg Config
	if err := validatoriface.DecodeParams(spec.Params, &cfg); err != nil {
		return fmt.Errorf("pii validator: %w", err)
	}
	for _, name := range cfg.Entities {
		if _, ok := entityPatterns[Entity(name)]; !ok {
			return fmt.Errorf("pii validator: unknown entity %q", name)
		}
	}
	return nil
}

func (v *PIIValidator) Evaluate(
	_ context.Context,
	text string,
	params map[string]interface{},
) (*validatoriface.Result, error) {
	var cfg Config
	if err := validatoriface.DecodeParams(params, &cfg); err != nil {
		return nil, err
	}

	enabled := v.enabledEntities(cfg)

	var found []string
	masked := text
	for _, entity := range entityOrder {
		if _, ok := enabled[entity]; !ok {
			continue
		}
		pattern := entityPatterns[entity]
		if !pattern.MatchString(masked) {
			continue
		}
		found = append(found, string(entity))
		masked = pattern.ReplaceAllString(masked, entityMasks[entity])
	}

	if len(found) == 0 {
		return &validatoriface.Result{
			Passed:     true,
			Message:    "no PII detected",
			Confidence: 1.0,
		}, nil
	}

	return &validatoriface.Result{
		Passed:        false,
		Message:       fmt.Sprintf("PII detected: %s", strings.Join(found, ", ")),
		Confidence:    0.95,
		ProcessedText: masked,
	}, nil
}

func (v *PIIValidator) enabledEntities(cfg Config) map[Entity]struct{} {
	enabled := make(map[Entity]struct{}, len(entityPatterns))
	if len(cfg.Entities) == 0 {
		for entity := range entityPatterns {
			enabled[entity] = struct{}{}
		}
		return enabled
	}
	for _, name := range cfg.Entities {
		enabled[Entity(name)] = struct{}{}
	}
	return enabled
}

package toxicity

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sentinelsec/guardgate/pkg/infra/validatoriface"
	"github.com/sentinelsec/guardgate/pkg/types"
)

const (
	ValidatorName    = "toxicity"
	DefaultThreshold = 0.7
)

type Config struct {
	Threshold  float64  `mapstructure:"threshold"`
	Categories []string `mapstructure:"categories"`
}

// ToxicityValidator scores a text through the configured moderation backend
// and fails when the score crosses the guardrail's threshold.
type ToxicityValidator struct {
	scorer Scorer
	logger *logrus.Logger
}

func NewToxicityValidator(logger *logrus.Logger, scorer Scorer) validatoriface.Validator {
	return &ToxicityValidator{
		scorer: scorer,
		logger: logger,
	}
}

func (v *ToxicityValidator) Name() string {
	return ValidatorName
}

func (v *ToxicityValidator) ValidateSpec(spec types.ValidatorSpec) error {
	var cfg Config
	if err := validatoriface.DecodeParams(spec.Params, &cfg); err != nil {
		return fmt.Errorf("toxicity validator: %w", err)
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return fmt.Errorf("toxicity validator: threshold must be in [0,1]")
	}
	return nil
}

func (v *ToxicityValidator) Evaluate(
	ctx context.Context,
	text string,
	params map[string]interface{},
) (*validatoriface.Result, error) {
	var cfg Config
	if err := validatoriface.DecodeParams(params, &cfg); err != nil {
		return nil, err
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}

	score, err := v.scorer.Score(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("toxicity scoring failed: %w", err)
	}

	observed := score.Max
	if len(cfg.Categories) > 0 {
		observed = 0
		for _, category := range cfg.Categories {
			if s, ok := score.Categories[category]; ok && s > observed {
				observed = s
			}
		}
	}

	if observed > cfg.Threshold {
		return &validatoriface.Result{
			Passed:     false,
			Message:    fmt.Sprintf("toxicity detected (confidence: %.3f)", observed),
			Confidence: observed,
		}, nil
	}

	return &validatoriface.Result{
		Passed:     true,
		Message:    "no toxicity detected",
		Confidence: 1.0 - observed,
	}, nil
}

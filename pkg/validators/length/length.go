package length

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/sentinelsec/guardgate/pkg/infra/validatoriface"
	"github.com/sentinelsec/guardgate/pkg/types"
)

const ValidatorName = "length"

type Config struct {
	MinLength int `mapstructure:"min_length"`
	MaxLength int `mapstructure:"max_length"`
}

// LengthValidator bounds the rune length of a text.
type LengthValidator struct{}

func NewLengthValidator() validatoriface.Validator {
	return &LengthValidator{}
}

func (v *LengthValidator) Name() string {
	return ValidatorName
}

func (v *LengthValidator) ValidateSpec(spec types.ValidatorSpec) error {
	var cfg Config
	if err := validatoriface.DecodeParams(spec.Params, &cfg); err != nil {
		return fmt.Errorf("length validator: %w", err)
	}
	if cfg.MinLength < 0 || cfg.MaxLength < 0 {
		return fmt.Errorf("length validator: bounds must not be negative")
	}
	if cfg.MaxLength > 0 && cfg.MinLength > cfg.MaxLength {
		return fmt.Errorf("length validator: min_length (%d) exceeds max_length (%d)", cfg.MinLength, cfg.MaxLength)
	}
	return nil
}

func (v *LengthValidator) Evaluate(
	_ context.Context,
	text string,
	params map[string]interface{},
) (*validatoriface.Result, error) {
	var cfg Config
	if err := validatoriface.DecodeParams(params, &cfg); err != nil {
		return nil, err
	}

	n := utf8.RuneCountInString(text)

	if cfg.MinLength > 0 && n < cfg.MinLength {
		return &validatoriface.Result{
			Passed:     false,
			Message:    fmt.Sprintf("text length (%d) below minimum (%d)", n, cfg.MinLength),
			Confidence: 1.0,
		}, nil
	}
	if cfg.MaxLength > 0 && n > cfg.MaxLength {
		return &validatoriface.Result{
			Passed:     false,
			Message:    fmt.Sprintf("text length (%d) exceeds maximum allowed (%d)", n, cfg.MaxLength),
			Confidence: 1.0,
		}, nil
	}

	return &validatoriface.Result{
		Passed:     true,
		Message:    "text length within bounds",
		Confidence: 1.0,
	}, nil
}

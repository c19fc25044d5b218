package validatoriface

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/sentinelsec/guardgate/pkg/types"
)

// Result is what a single validator produces for one text.
type Result struct {
	Passed     bool
	Message    string
	Confidence float64
	// ProcessedText carries the redacted text when the validator found
	// offending spans it knows how to mask. Empty otherwise.
	ProcessedText string
}

// Validator is a single check (length, profanity, toxicity, PII) applied to
// a text. Implementations must be safe for concurrent use: Evaluate may be
// called from many requests at once.
type Validator interface {
	Name() string
	// ValidateSpec rejects unusable parameters at startup, before any
	// request reaches the validator.
	ValidateSpec(spec types.ValidatorSpec) error
	Evaluate(ctx context.Context, text string, params map[string]interface{}) (*Result, error)
}

// DecodeParams decodes the loosely-typed params map (YAML or JSON sourced,
// so numbers may arrive as float64) into a validator's config struct.
func DecodeParams(params map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to build params decoder: %w", err)
	}
	if err := decoder.Decode(params); err != nil {
		return fmt.Errorf("failed to decode params: %w", err)
	}
	return nil
}

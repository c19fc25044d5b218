package types

// OnFailAction is the policy applied when a validator fails.
type OnFailAction string

const (
	// OnFailReject marks the whole report invalid.
	OnFailReject OnFailAction = "reject"
	// OnFailFilter replaces offending spans with a redaction marker and continues.
	OnFailFilter OnFailAction = "filter"
	// OnFailReask reports a hint to the caller to regenerate the content.
	OnFailReask OnFailAction = "reask"
	// OnFailIgnore records the failure without affecting overall validity.
	OnFailIgnore OnFailAction = "ignore"
)

func (a OnFailAction) IsValid() bool {
	switch a {
	case OnFailReject, OnFailFilter, OnFailReask, OnFailIgnore:
		return true
	}
	return false
}

// ValidatorSpec configures one validator inside a guardrail. Immutable once loaded.
type ValidatorSpec struct {
	Name   string                 `json:"name" mapstructure:"name"`
	Params map[string]interface{} `json:"params,omitempty" mapstructure:"params"`
	OnFail OnFailAction           `json:"on_fail" mapstructure:"on_fail"`
}

// GuardrailConfig is a named, ordered set of validators. Built at startup,
// read-only thereafter.
type GuardrailConfig struct {
	Name        string          `json:"name" mapstructure:"name"`
	Description string          `json:"description,omitempty" mapstructure:"description"`
	Validators  []ValidatorSpec `json:"validators" mapstructure:"validators"`
}

// ValidationRequest is one text to run through a guardrail.
type ValidationRequest struct {
	Text          string                 `json:"text"`
	GuardrailName string                 `json:"guardrail_name,omitempty"`
	Context       map[string]interface{} `json:"context,omitempty"`
	SkipCache     bool                   `json:"skip_cache,omitempty"`
	CacheTTL      *int                   `json:"cache_ttl,omitempty"` // seconds, bounded by config
}

// ValidatorOutcome is the result of a single validator execution.
type ValidatorOutcome struct {
	Validator   string       `json:"validator"`
	Passed      bool         `json:"passed"`
	Message     string       `json:"message"`
	Confidence  float64      `json:"confidence"`
	ActionTaken OnFailAction `json:"action_taken,omitempty"`
}

// ValidationReport aggregates the outcomes of one guardrail run. The outcome
// slice holds exactly one entry per configured validator, in configuration
// order.
type ValidationReport struct {
	Valid           bool               `json:"valid"`
	Guardrail       string             `json:"guardrail"`
	Validations     []ValidatorOutcome `json:"validations"`
	ProcessedText   string             `json:"processed_text,omitempty"`
	Cached          bool               `json:"cached"`
	ExecutionTimeMs float64            `json:"execution_time_ms"`
}

package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/sentinelsec/guardgate/pkg/types"
)

var ErrGuardrailNotFound = errors.New("guardrail not found")

// SpecValidator checks that a validator spec references a known validator
// with acceptable parameters. Implemented by the validators manager.
type SpecValidator interface {
	ValidateSpec(spec types.ValidatorSpec) error
}

// Registry holds the guardrail configurations loaded at startup. Read-only
// after construction, safe for concurrent use.
type Registry struct {
	logger     *logrus.Logger
	guardrails map[string]*types.GuardrailConfig
	names      []string
}

func NewRegistry(
	logger *logrus.Logger,
	configs []types.GuardrailConfig,
	specValidator SpecValidator,
) (*Registry, error) {
	guardrails := make(map[string]*types.GuardrailConfig, len(configs))
	names := make([]string, 0, len(configs))

	for i := range configs {
		cfg := configs[i]
		if cfg.Name == "" {
			return nil, fmt.Errorf("guardrail at position %d has no name", i)
		}
		if len(cfg.Validators) == 0 {
			return nil, fmt.Errorf("guardrail %q has no validators", cfg.Name)
		}
		if _, exists := guardrails[cfg.Name]; exists {
			return nil, fmt.Errorf("duplicate guardrail %q", cfg.Name)
		}
		for j := range cfg.Validators {
			spec := &cfg.Validators[j]
			if spec.OnFail == "" {
				spec.OnFail = types.OnFailReject
			}
			if !spec.OnFail.IsValid() {
				return nil, fmt.Errorf("guardrail %q: validator %q has invalid on_fail action %q",
					cfg.Name, spec.Name, spec.OnFail)
			}
			if err := specValidator.ValidateSpec(*spec); err != nil {
				return nil, fmt.Errorf("guardrail %q: %w", cfg.Name, err)
			}
		}
		guardrails[cfg.Name] = &cfg
		names = append(names, cfg.Name)
		logger.WithFields(logrus.Fields{
			"guardrail":  cfg.Name,
			"validators": len(cfg.Validators),
		}).Debug("guardrail registered")
	}

	sort.Strings(names)

	return &Registry{
		logger:     logger,
		guardrails: guardrails,
		names:      names,
	}, nil
}

// Get returns the guardrail with the given name, or ErrGuardrailNotFound.
func (r *Registry) Get(name string) (*types.GuardrailConfig, error) {
	cfg, ok := r.guardrails[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGuardrailNotFound, name)
	}
	return cfg, nil
}

// List returns all guardrail names in lexicographic order.
func (r *Registry) List() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// All returns every registered guardrail, ordered by name.
func (r *Registry) All() []*types.GuardrailConfig {
	out := make([]*types.GuardrailConfig, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.guardrails[name])
	}
	return out
}

package validators

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sentinelsec/guardgate/pkg/config"
	"github.com/sentinelsec/guardgate/pkg/infra/httpx"
	"github.com/sentinelsec/guardgate/pkg/infra/validatoriface"
	"github.com/sentinelsec/guardgate/pkg/types"
	"github.com/sentinelsec/guardgate/pkg/validators/length"
	"github.com/sentinelsec/guardgate/pkg/validators/pii"
	"github.com/sentinelsec/guardgate/pkg/validators/profanity"
	"github.com/sentinelsec/guardgate/pkg/validators/toxicity"
)

// Manager holds the registered validator implementations.
type Manager interface {
	RegisterValidator(validator validatoriface.Validator) error
	GetValidator(name string) (validatoriface.Validator, error)
	ValidateSpec(spec types.ValidatorSpec) error
	Names() []string
}

type manager struct {
	mu         sync.RWMutex
	logger     *logrus.Logger
	validators map[string]validatoriface.Validator
}

// NewManager builds a manager with every built-in validator registered. The
// toxicity backend is selected by the moderation config.
func NewManager(cfg *config.Config, logger *logrus.Logger) (Manager, error) {
	m := &manager{
		logger:     logger,
		validators: make(map[string]validatoriface.Validator),
	}

	client := httpx.NewFastHTTPClient(time.Duration(cfg.Moderation.TimeoutSeconds) * time.Second)
	scorer, err := toxicity.NewScorer(cfg.Moderation, client, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize moderation scorer: %w", err)
	}

	for _, v := range []validatoriface.Validator{
		length.NewLengthValidator(),
		profanity.NewProfanityValidator(logger),
		pii.NewPIIValidator(logger),
		toxicity.NewToxicityValidator(logger, scorer),
	} {
		if err := m.RegisterValidator(v); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// NewEmptyManager returns a manager without built-ins, for tests and custom
// validator sets.
func NewEmptyManager(logger *logrus.Logger) Manager {
	return &manager{
		logger:     logger,
		validators: make(map[string]validatoriface.Validator),
	}
}

func (m *manager) RegisterValidator(validator validatoriface.Validator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := validator.Name()
	if _, exists := m.validators[name]; exists {
		return fmt.Errorf("validator %s already registered", name)
	}
	m.validators[name] = validator
	m.logger.WithField("validator", name).Debug("validator registered")
	return nil
}

func (m *manager) GetValidator(name string) (validatoriface.Validator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	validator, exists := m.validators[name]
	if !exists {
		return nil, fmt.Errorf("unknown validator: %s", name)
	}
	return validator, nil
}

// ValidateSpec checks a guardrail's validator reference at startup.
func (m *manager) ValidateSpec(spec types.ValidatorSpec) error {
	validator, err := m.GetValidator(spec.Name)
	if err != nil {
		return err
	}
	if err := validator.ValidateSpec(spec); err != nil {
		m.logger.WithError(err).Errorf("validator %s spec validation failed", spec.Name)
		return err
	}
	return nil
}

func (m *manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.validators))
	for name := range m.validators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

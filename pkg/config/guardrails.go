package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/sentinelsec/guardgate/pkg/types"
)

type guardrailsFile struct {
	Guardrails []types.GuardrailConfig `mapstructure:"guardrails"`
}

// LoadGuardrails reads the guardrail definitions from guardrails.yaml in the
// given path. When no file exists the built-in definitions are returned.
func LoadGuardrails(configPath string) ([]types.GuardrailConfig, error) {
	v := viper.New()
	v.SetConfigName("guardrails")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return DefaultGuardrails(), nil
		}
		return nil, fmt.Errorf("error reading guardrails.yaml: %w", err)
	}

	var file guardrailsFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal guardrails config: %w", err)
	}
	if len(file.Guardrails) == 0 {
		return DefaultGuardrails(), nil
	}
	return file.Guardrails, nil
}

// DefaultGuardrails returns the guardrail set shipped with the service.
func DefaultGuardrails() []types.GuardrailConfig {
	return []types.GuardrailConfig{
		{
			Name:        "default",
			Description: "Default guardrail with basic content validation",
			Validators: []types.ValidatorSpec{
				{Name: "length", Params: map[string]interface{}{"max_length": 1000}, OnFail: types.OnFailReject},
				{Name: "toxicity", Params: map[string]interface{}{"threshold": 0.7}, OnFail: types.OnFailReject},
				{Name: "profanity", OnFail: types.OnFailIgnore},
			},
		},
		{
			Name:        "strict",
			Description: "Strict content moderation for sensitive applications",
			Validators: []types.ValidatorSpec{
				{Name: "length", Params: map[string]interface{}{"max_length": 500}, OnFail: types.OnFailReject},
				{Name: "toxicity", Params: map[string]interface{}{"threshold": 0.3}, OnFail: types.OnFailReject},
				{Name: "profanity", OnFail: types.OnFailReject},
				{Name: "pii", OnFail: types.OnFailFilter},
			},
		},
		{
			Name:        "permissive",
			Description: "Permissive content validation for open platforms",
			Validators: []types.ValidatorSpec{
				{Name: "length", Params: map[string]interface{}{"max_length": 2000}, OnFail: types.OnFailIgnore},
				{Name: "toxicity", Params: map[string]interface{}{"threshold": 0.9}, OnFail: types.OnFailIgnore},
			},
		},
		{
			Name:        "content_moderation",
			Description: "Comprehensive content moderation",
			Validators: []types.ValidatorSpec{
				{Name: "length", Params: map[string]interface{}{"max_length": 1500}, OnFail: types.OnFailReject},
				{Name: "toxicity", Params: map[string]interface{}{"threshold": 0.5}, OnFail: types.OnFailReject},
				{Name: "profanity", OnFail: types.OnFailFilter},
				{Name: "pii", OnFail: types.OnFailFilter},
			},
		},
		{
			Name:        "customer_service",
			Description: "Guardrails for customer service applications",
			Validators: []types.ValidatorSpec{
				{Name: "length", Params: map[string]interface{}{"max_length": 3000}, OnFail: types.OnFailReject},
				{Name: "toxicity", Params: map[string]interface{}{"threshold": 0.6}, OnFail: types.OnFailIgnore},
				{Name: "pii", OnFail: types.OnFailFilter},
			},
		},
	}
}

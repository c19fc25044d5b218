package length

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelsec/guardgate/pkg/types"
)

func TestEvaluateBounds(t *testing.T) {
	v := NewLengthValidator()

	tests := []struct {
		name   string
		text   string
		params map[string]interface{}
		passed bool
	}{
		{
			name:   "within bounds",
			text:   "hello world",
			params: map[string]interface{}{"max_length": 100},
			passed: true,
		},
		{
			name:   "too long",
			text:   strings.Repeat("a", 101),
			params: map[string]interface{}{"max_length": 100},
			passed: false,
		},
		{
			name:   "too short",
			text:   "hi",
			params: map[string]interface{}{"min_length": 5},
			passed: false,
		},
		{
			name:   "exactly at max",
			text:   strings.Repeat("a", 100),
			params: map[string]interface{}{"max_length": 100},
			passed: true,
		},
		{
			name:   "no bounds configured",
			text:   strings.Repeat("a", 100000),
			params: nil,
			passed: true,
		},
		{
			name: "float params from json",
			text: strings.Repeat("a", 11),
			// JSON decoding produces float64 numbers.
			params: map[string]interface{}{"max_length": float64(10)},
			passed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := v.Evaluate(context.Background(), tt.text, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.passed, result.Passed)
		})
	}
}

func TestEvaluateCountsRunesNotBytes(t *testing.T) {
	v := NewLengthValidator()

	// 5 runes, more than 5 bytes.
	result, err := v.Evaluate(context.Background(), "héllö", map[string]interface{}{"max_length": 5})
	require.NoError(t, err)
	assert.True(t, result.Passed)
}

func TestValidateSpec(t *testing.T) {
	v := NewLengthValidator()

	assert.NoError(t, v.ValidateSpec(types.ValidatorSpec{
		Name:   ValidatorName,
		Params: map[string]interface{}{"min_length": 1, "max_length": 100},
	}))

	err := v.ValidateSpec(types.ValidatorSpec{
		Name:   ValidatorName,
		Params: map[string]interface{}{"min_length": 100, "max_length": 10},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds max_length")

	err = v.ValidateSpec(types.ValidatorSpec{
		Name:   ValidatorName,
		Params: map[string]interface{}{"max_length": -1},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be negative")
}

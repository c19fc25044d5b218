package toxicity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sentinelsec/guardgate/pkg/config"
	"github.com/sentinelsec/guardgate/pkg/infra/breaker"
	"github.com/sentinelsec/guardgate/pkg/infra/httpx"
)

const openAIModerationURL = "https://api.openai.com/v1/moderations"

// Score is one moderation verdict for a text.
type Score struct {
	Flagged    bool
	Max        float64
	Categories map[string]float64
}

// Scorer abstracts the moderation backend so deployments can switch between
// OpenAI moderation, a generic external endpoint and the built-in mock.
type Scorer interface {
	Score(ctx context.Context, text string) (*Score, error)
}

// NewScorer selects the scorer for the configured provider.
func NewScorer(cfg config.ModerationConfig, client httpx.Client, logger *logrus.Logger) (Scorer, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	switch cfg.Provider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("moderation provider openai requires openai_key")
		}
		return &openAIScorer{
			client:  client,
			apiKey:  cfg.OpenAIKey,
			breaker: breaker.NewCircuitBreaker("openai-moderation", timeout, 5),
			logger:  logger,
		}, nil
	case "external":
		if cfg.ExternalURL == "" {
			return nil, fmt.Errorf("moderation provider external requires external_url")
		}
		return &externalScorer{
			client:  client,
			url:     cfg.ExternalURL,
			apiKey:  cfg.ExternalAPIKey,
			breaker: breaker.NewCircuitBreaker("external-moderation", timeout, 5),
			logger:  logger,
		}, nil
	case "mock":
		return NewMockScorer(), nil
	default:
		return nil, fmt.Errorf("unknown moderation provider %q", cfg.Provider)
	}
}

type openAIScorer struct {
	client  httpx.Client
	apiKey  string
	breaker breaker.CircuitBreaker
	logger  *logrus.Logger
}

type openAIModerationRequest struct {
	Input []openAIModerationInput `json:"input"`
	Model string                  `json:"model,omitempty"`
}

type openAIModerationInput struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type openAIModerationResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Results []struct {
		Flagged        bool               `json:"flagged"`
		Categories     map[string]bool    `json:"categories"`
		CategoryScores map[string]float64 `json:"category_scores"`
	} `json:"results"`
}

func (s *openAIScorer) Score(ctx context.Context, text string) (*Score, error) {
	payload, err := json.Marshal(openAIModerationRequest{
		Input: []openAIModerationInput{{Type: "text", Text: text}},
		Model: "omni-moderation-latest",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal moderation request: %w", err)
	}

	var body []byte
	err = s.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIModerationURL, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to create moderation request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.apiKey)

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("moderation request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read moderation response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("moderation API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var parsed openAIModerationResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal moderation response: %w", err)
	}
	if len(parsed.Results) == 0 {
		return nil, fmt.Errorf("moderation response contained no results")
	}

	result := parsed.Results[0]
	score := &Score{
		Flagged:    result.Flagged,
		Categories: result.CategoryScores,
	}
	for _, v := range result.CategoryScores {
		if v > score.Max {
			score.Max = v
		}
	}
	return score, nil
}

type externalScorer struct {
	client  httpx.Client
	url     string
	apiKey  string
	breaker breaker.CircuitBreaker
	logger  *logrus.Logger
}

type externalModerationResponse struct {
	Flagged    bool               `json:"flagged"`
	Score      float64            `json:"score"`
	Categories map[string]float64 `json:"categories,omitempty"`
}

func (s *externalScorer) Score(ctx context.Context, text string) (*Score, error) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal moderation request: %w", err)
	}

	var body []byte
	err = s.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to create moderation request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if s.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+s.apiKey)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("moderation request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read moderation response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("moderation API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var parsed externalModerationResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal moderation response: %w", err)
	}

	return &Score{
		Flagged:    parsed.Flagged,
		Max:        parsed.Score,
		Categories: parsed.Categories,
	}, nil
}

// mockScorer is a deterministic keyword scorer for development and tests.
type mockScorer struct {
	keywords map[string]float64
}

func NewMockScorer() Scorer {
	return &mockScorer{
		keywords: map[string]float64{
			"hate":      0.85,
			"kill":      0.9,
			"stupid":    0.6,
			"idiot":     0.65,
			"worthless": 0.7,
			"die":       0.8,
		},
	}
}

func (s *mockScorer) Score(_ context.Context, text string) (*Score, error) {
	lower := strings.ToLower(text)
	score := &Score{Categories: map[string]float64{}}
	for keyword, weight := range s.keywords {
		if strings.Contains(lower, keyword) {
			score.Categories[keyword] = weight
			if weight > score.Max {
				score.Max = weight
			}
		}
	}
	score.Flagged = score.Max >= 0.5
	return score, nil
}

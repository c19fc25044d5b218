package profanity

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sentinelsec/guardgate/pkg/infra/validatoriface"
	"github.com/sentinelsec/guardgate/pkg/types"
)

const (
	ValidatorName              = "profanity"
	DefaultRedactionMarker     = "[REDACTED]"
	DefaultSimilarityThreshold = 0.8
)

var wordPattern = regexp.MustCompile(`[a-zA-Z']+`)

type Config struct {
	Keywords            []string `mapstructure:"keywords"`
	Patterns            []string `mapstructure:"patterns"`
	SimilarityThreshold float64  `mapstructure:"similarity_threshold"`
	RedactionMarker     string   `mapstructure:"redaction_marker"`
}

// ProfanityValidator flags blocklisted tokens with exact, fuzzy
// (Levenshtein-similarity) and regex matching, and produces a redacted text
// for the filter action.
type ProfanityValidator struct {
	logger *logrus.Logger
}

func NewProfanityValidator(logger *logrus.Logger) validatoriface.Validator {
	return &ProfanityValidator{logger: logger}
}

func (v *ProfanityValidator) Name() string {
	return ValidatorName
}

func (v *ProfanityValidator) ValidateSpec(spec types.ValidatorSpec) error {
	var cfg Config
	if err := validatoriface.DecodeParams(spec.Params, &cfg); err != nil {
		return fmt.Errorf("profanity validator: %w", err)
	}
	if cfg.SimilarityThreshold < 0 || cfg.SimilarityThreshold > 1 {
		return fmt.Errorf("profanity validator: similarity_threshold must be in [0,1]")
	}
	for _, pattern := range cfg.Patterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("profanity validator: invalid pattern %q: %w", pattern, err)
		}
	}
	return nil
}

func (v *ProfanityValidator) Evaluate(
	_ context.Context,
	text string,
	params map[string]interface{},
) (*validatoriface.Result, error) {
	cfg, err := v.decode(params)
	if err != nil {
		return nil, err
	}

	matches, confidence := v.findMatches(text, cfg)
	if len(matches) == 0 {
		return &validatoriface.Result{
			Passed:     true,
			Message:    "no flagged content detected",
			Confidence: 1.0,
		}, nil
	}

	redacted := v.redact(text, matches, cfg.RedactionMarker)
	return &validatoriface.Result{
		Passed:        false,
		Message:       fmt.Sprintf("flagged content detected: %s", strings.Join(matches, ", ")),
		Confidence:    confidence,
		ProcessedText: redacted,
	}, nil
}

func (v *ProfanityValidator) decode(params map[string]interface{}) (Config, error) {
	var cfg Config
	if err := validatoriface.DecodeParams(params, &cfg); err != nil {
		return cfg, err
	}
	if len(cfg.Keywords) == 0 {
		cfg.Keywords = defaultKeywords
	}
	if cfg.SimilarityThreshold == 0 {
		cfg.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if cfg.RedactionMarker == "" {
		cfg.RedactionMarker = DefaultRedactionMarker
	}
	return cfg, nil
}

// findMatches returns the offending spans found in text and the highest
// match confidence.
func (v *ProfanityValidator) findMatches(text string, cfg Config) ([]string, float64) {
	var matches []string
	seen := make(map[string]struct{})
	best := 0.0

	add := func(span string, confidence float64) {
		key := strings.ToLower(span)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		matches = append(matches, span)
		if confidence > best {
			best = confidence
		}
	}

	lowerText := strings.ToLower(text)

	// Multi-word keywords match as substrings; single words match per token.
	for _, keyword := range cfg.Keywords {
		kw := strings.ToLower(keyword)
		if strings.Contains(kw, " ") && strings.Contains(lowerText, kw) {
			add(keyword, 1.0)
		}
	}

	for _, token := range wordPattern.FindAllString(text, -1) {
		lower := strings.ToLower(token)
		for _, keyword := range cfg.Keywords {
			kw := strings.ToLower(keyword)
			if strings.Contains(kw, " ") {
				continue
			}
			if lower == kw {
				add(token, 1.0)
				break
			}
			if similarity(lower, kw) >= cfg.SimilarityThreshold {
				add(token, similarity(lower, kw))
				break
			}
		}
	}

	for _, pattern := range cfg.Patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			// Spec validation rejects these at startup; keep the request alive.
			v.logger.WithError(err).WithField("pattern", pattern).Warn("skipping invalid profanity pattern")
			continue
		}
		for _, m := range re.FindAllString(text, -1) {
			add(m, 1.0)
		}
	}

	return matches, best
}

func (v *ProfanityValidator) redact(text string, matches []string, marker string) string {
	out := text
	for _, m := range matches {
		re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(m))
		if err != nil {
			continue
		}
		out = re.ReplaceAllString(out, marker)
	}
	return out
}

// levenshteinDistance is the edit distance between two strings.
func levenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// similarity maps edit distance into [0,1]; 1 means identical.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshteinDistance(a, b))/float64(longest)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

package scorer

import (
	"context"
	"math"
	"strings"
	"unicode"

	appI18n "github.com/Dhanushraagav/ai-interview-platform/internal/i18n"
	"github.com/Dhanushraagav/ai-interview-platform/internal/model"
)

// Result is one scored answer: a value on the 0-10 scale with one decimal of
// precision, plus human-readable feedback.
type Result struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// Scorer evaluates a free-text answer against a question. Implementations must
// keep Score within [0, 10].
type Scorer interface {
	Evaluate(ctx context.Context, q model.Question, answer string) (Result, error)
}

// Component weights. They sum to the 10-point scale.
const (
	keywordWeight   = 7.0
	depthWeight     = 2.0
	relevanceWeight = 1.0
)

// Defaults for the tunable thresholds.
const (
	DefaultDepthSaturation = 20 // tokens at which depth credit saturates
	DefaultMinAnswerChars  = 5  // characters below which relevance credit is withheld
)

// Feedback band boundaries.
const (
	excellentBand = 8.0
	goodBand      = 5.0
)

// Config holds the keyword scorer thresholds.
type Config struct {
	// DepthSaturation is the token count at which an answer earns full depth
	// credit. Shorter answers earn a proportional share.
	DepthSaturation int
	// MinAnswerChars is the relevance threshold used when a question does not
	// carry its own minimum answer length.
	MinAnswerChars int
}

// Keyword is the default deterministic scorer. Identical (question, answer)
// pairs always produce identical results: no randomness, no external calls.
type Keyword struct {
	cfg Config
}

// NewKeyword creates a keyword scorer, filling unset thresholds with defaults.
func NewKeyword(cfg Config) *Keyword {
	if cfg.DepthSaturation <= 0 {
		cfg.DepthSaturation = DefaultDepthSaturation
	}
	if cfg.MinAnswerChars <= 0 {
		cfg.MinAnswerChars = DefaultMinAnswerChars
	}
	return &Keyword{cfg: cfg}
}

// Evaluate scores an answer from three weighted components: keyword coverage
// (7 points), depth (2 points), and relevance (1 point). The total is rounded
// to one decimal and clamped to [0, 10]. Scoring is total over its input
// domain; an empty answer is a valid zero-score answer, not an error.
func (k *Keyword) Evaluate(ctx context.Context, q model.Question, answer string) (Result, error) {
	if strings.TrimSpace(answer) == "" {
		return Result{Score: 0, Feedback: k.feedback(ctx, 0, q.Keywords)}, nil
	}

	tokens := Tokenize(answer)
	tokenSet := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		tokenSet[tok] = true
	}

	var missing []string
	matched := 0
	for _, kw := range q.Keywords {
		if tokenSet[kw] {
			matched++
		} else {
			missing = append(missing, kw)
		}
	}

	// An empty expected set contributes its full weight.
	keywordScore := keywordWeight
	if len(q.Keywords) > 0 {
		keywordScore = keywordWeight * float64(matched) / float64(len(q.Keywords))
	}
	keywordScore = math.Min(keywordScore, keywordWeight)

	depthScore := depthWeight * math.Min(1, float64(len(tokens))/float64(k.cfg.DepthSaturation))

	minChars := q.MinAnswerLen
	if minChars <= 0 {
		minChars = k.cfg.MinAnswerChars
	}
	relevanceScore := 0.0
	if len(strings.TrimSpace(answer)) >= minChars {
		relevanceScore = relevanceWeight
	}

	total := round1(clamp(keywordScore+depthScore+relevanceScore, 0, 10))
	return Result{Score: total, Feedback: k.feedback(ctx, total, missing)}, nil
}

// feedback picks the band template for a score and lists the expected keywords
// the answer did not mention.
func (k *Keyword) feedback(ctx context.Context, score float64, missing []string) string {
	switch {
	case score >= excellentBand:
		return appI18n.T(ctx, "FeedbackExcellent")
	case score >= goodBand:
		if len(missing) == 0 {
			return appI18n.T(ctx, "FeedbackGoodShort")
		}
		return appI18n.Td(ctx, "FeedbackGood", map[string]any{"Missing": strings.Join(missing, ", ")})
	default:
		if len(missing) == 0 {
			return appI18n.T(ctx, "FeedbackPoorShort")
		}
		return appI18n.Td(ctx, "FeedbackPoor", map[string]any{"Missing": strings.Join(missing, ", ")})
	}
}

// Tokenize normalizes free text for keyword matching: lowercase, punctuation
// stripped, split on whitespace.
func Tokenize(s string) []string {
	normalized := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return unicode.ToLower(r)
		default:
			return ' '
		}
	}, s)
	return strings.Fields(normalized)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

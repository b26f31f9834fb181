package sentiment

import (
	"math"
	"strings"

	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"github.com/reviewhub/backend/internal/metrics"
	"github.com/reviewhub/backend/internal/storage/models"
	"github.com/reviewhub/backend/pkg/logger"
)

// Label thresholds are a fixed policy: strictly above 0.1 is positive,
// strictly below -0.1 is negative, everything else neutral.
const (
	positiveThreshold = 0.1
	negativeThreshold = -0.1
)

// negationWindow is how many tokens a negator reaches forward.
const negationWindow = 3

type Analyzer struct{}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Score maps free text to a polarity in [-1, 1] rounded to 3 decimal places
// plus a discrete label. It never fails: empty, unanalyzable or panicking
// input all come back as (0, neutral).
func (a *Analyzer) Score(text string) (score float64, label models.SentimentLabel) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Sentiment scoring panicked", zap.Any("cause", r))
			metrics.AnalyticsSilentFailures.WithLabelValues("sentiment").Inc()
			score, label = 0.0, models.SentimentNeutral
		}
	}()

	if strings.TrimSpace(text) == "" {
		return 0.0, models.SentimentNeutral
	}

	tokens, err := tokenize(text)
	if err != nil {
		logger.Warn("Sentiment tokenization failed", zap.Error(err))
		metrics.AnalyticsSilentFailures.WithLabelValues("sentiment").Inc()
		return 0.0, models.SentimentNeutral
	}

	polarity := scoreTokens(tokens)
	return polarity, labelFor(polarity)
}

func tokenize(text string) ([]string, error) {
	doc, err := prose.NewDocument(text,
		prose.WithExtraction(false),
		prose.WithTagging(false),
	)
	if err != nil {
		return nil, err
	}

	tokens := doc.Tokens()
	words := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		words = append(words, strings.ToLower(tok.Text))
	}
	return words, nil
}

func scoreTokens(words []string) float64 {
	var total float64
	var matched int
	negateUntil := -1

	for i, word := range words {
		if _, ok := negators[word]; ok {
			negateUntil = i + negationWindow
			continue
		}

		valence, ok := lexicon[word]
		if !ok {
			continue
		}

		if booster, ok := boosters[prev(words, i)]; ok {
			valence *= booster
		}
		if i <= negateUntil {
			valence = -valence
		}

		total += valence
		matched++
	}

	if matched == 0 {
		return 0.0
	}

	polarity := total / float64(matched)
	polarity = math.Max(-1, math.Min(1, polarity))
	return round3(polarity)
}

func labelFor(polarity float64) models.SentimentLabel {
	switch {
	case polarity > positiveThreshold:
		return models.SentimentPositive
	case polarity < negativeThreshold:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

func prev(words []string, i int) string {
	if i == 0 {
		return ""
	}
	return words[i-1]
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

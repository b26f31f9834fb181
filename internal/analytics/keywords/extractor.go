package keywords

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"github.com/reviewhub/backend/internal/metrics"
	"github.com/reviewhub/backend/pkg/logger"
)

const DefaultMaxTerms = 20

// Keyword is a scored unigram or bigram. Scores are TF-IDF weights relative
// to the corpus passed into a single Extract call and are not comparable
// across calls.
type Keyword struct {
	Term  string  `json:"keyword"`
	Score float64 `json:"score"`
}

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns up to maxTerms keywords ordered by descending score.
// Blank documents are dropped; an empty corpus or any internal failure
// yields nil rather than an error.
func (e *Extractor) Extract(documents []string, maxTerms int) (result []Keyword) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Keyword extraction panicked", zap.Any("cause", r))
			metrics.AnalyticsSilentFailures.WithLabelValues("keywords").Inc()
			result = nil
		}
	}()

	if maxTerms <= 0 {
		maxTerms = DefaultMaxTerms
	}

	docs := make([]string, 0, len(documents))
	for _, doc := range documents {
		if strings.TrimSpace(doc) != "" {
			docs = append(docs, doc)
		}
	}
	if len(docs) == 0 {
		return nil
	}

	termFreq := make(map[string]int)
	docFreq := make(map[string]int)

	for _, doc := range docs {
		terms := candidateTerms(doc)
		seen := make(map[string]struct{}, len(terms))
		for _, term := range terms {
			termFreq[term]++
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				docFreq[term]++
			}
		}
	}

	if len(termFreq) == 0 {
		return nil
	}

	n := float64(len(docs))
	scored := make([]Keyword, 0, len(termFreq))
	for term, tf := range termFreq {
		idf := math.Log((1+n)/(1+float64(docFreq[term]))) + 1
		scored = append(scored, Keyword{
			Term:  term,
			Score: round3(float64(tf) * idf),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Term < scored[j].Term
	})

	if len(scored) > maxTerms {
		scored = scored[:maxTerms]
	}
	return scored
}

// candidateTerms produces lowercase unigrams and bigrams with stop words and
// non-word tokens removed. A bigram is only kept when both halves survive
// filtering and were adjacent in the source text.
func candidateTerms(doc string) []string {
	parsed, err := prose.NewDocument(doc,
		prose.WithExtraction(false),
		prose.WithTagging(false),
	)
	if err != nil {
		logger.Debug("Keyword tokenization failed", zap.Error(err))
		return nil
	}

	tokens := parsed.Tokens()
	var terms []string
	prevWord := ""

	for _, tok := range tokens {
		word := strings.ToLower(tok.Text)
		if !isWord(word) || isStopWord(word) {
			prevWord = ""
			continue
		}

		terms = append(terms, word)
		if prevWord != "" {
			terms = append(terms, prevWord+" "+word)
		}
		prevWord = word
	}

	return terms
}

func isWord(s string) bool {
	if len(s) < 2 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && r != '-' && r != '\'' {
			return false
		}
	}
	return true
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

package sentiment

import (
	"math"
	"testing"

	"github.com/reviewhub/backend/internal/storage/models"
)

func TestScoreEmptyText(t *testing.T) {
	a := NewAnalyzer()

	for _, text := range []string{"", "   ", "\n\t"} {
		score, label := a.Score(text)
		if score != 0.0 {
			t.Errorf("Score(%q) score = %v, want 0.0", text, score)
		}
		if label != models.SentimentNeutral {
			t.Errorf("Score(%q) label = %v, want neutral", text, label)
		}
	}
}

func TestScoreKnownPhrases(t *testing.T) {
	a := NewAnalyzer()

	tests := []struct {
		name      string
		text      string
		wantScore float64
		wantLabel models.SentimentLabel
	}{
		{
			name:      "single positive word",
			text:      "great",
			wantScore: 0.6,
			wantLabel: models.SentimentPositive,
		},
		{
			name:      "single negative word",
			text:      "terrible",
			wantScore: -0.6,
			wantLabel: models.SentimentNegative,
		},
		{
			name:      "negation flips polarity",
			text:      "not great",
			wantScore: -0.6,
			wantLabel: models.SentimentNegative,
		},
		{
			name:      "booster scales the next word",
			text:      "very good",
			wantScore: 0.75,
			wantLabel: models.SentimentPositive,
		},
		{
			name:      "mixed words average out",
			text:      "great terrible good",
			wantScore: 0.2,
			wantLabel: models.SentimentPositive,
		},
		{
			name:      "no sentiment words",
			text:      "the chair arrived yesterday",
			wantScore: 0.0,
			wantLabel: models.SentimentNeutral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, label := a.Score(tt.text)
			if math.Abs(score-tt.wantScore) > 1e-9 {
				t.Errorf("score = %v, want %v", score, tt.wantScore)
			}
			if label != tt.wantLabel {
				t.Errorf("label = %v, want %v", label, tt.wantLabel)
			}
		})
	}
}

func TestScoreStaysInBounds(t *testing.T) {
	a := NewAnalyzer()

	// The booster pushes the raw valence past 1 before clamping.
	score, label := a.Score("extremely outstanding")
	if score != 1.0 {
		t.Errorf("score = %v, want 1.0", score)
	}
	if label != models.SentimentPositive {
		t.Errorf("label = %v, want positive", label)
	}

	texts := []string{
		"absolutely incredible superb outstanding",
		"scam fraud junk garbage terrible awful",
		"not bad not good hardly working very broken",
	}
	for _, text := range texts {
		score, _ := a.Score(text)
		if score < -1.0 || score > 1.0 {
			t.Errorf("Score(%q) = %v, out of [-1, 1]", text, score)
		}
	}
}

func TestScoreIsRounded(t *testing.T) {
	a := NewAnalyzer()

	// (0.6 - 0.4 + 0.2) / 3 = 0.1333... which must come back as 0.133.
	score, _ := a.Score("great poor okay")
	if score != 0.133 {
		t.Errorf("score = %v, want 0.133", score)
	}
}

func TestLabelThresholdsAreStrict(t *testing.T) {
	tests := []struct {
		polarity float64
		want     models.SentimentLabel
	}{
		{0.2, models.SentimentPositive},
		{0.101, models.SentimentPositive},
		{0.1, models.SentimentNeutral},
		{0.0, models.SentimentNeutral},
		{-0.1, models.SentimentNeutral},
		{-0.101, models.SentimentNegative},
		{-0.2, models.SentimentNegative},
	}

	for _, tt := range tests {
		if got := labelFor(tt.polarity); got != tt.want {
			t.Errorf("labelFor(%v) = %v, want %v", tt.polarity, got, tt.want)
		}
	}
}

func TestNegationWindowExpires(t *testing.T) {
	a := NewAnalyzer()

	// "good" sits four tokens after "not", outside the three-token window.
	score, _ := a.Score("not the fan but good")
	if score != 0.6 {
		t.Errorf("score = %v, want 0.6", score)
	}
}

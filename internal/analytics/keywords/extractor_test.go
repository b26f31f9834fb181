package keywords

import (
	"strings"
	"testing"
)

func TestExtractEmptyCorpus(t *testing.T) {
	e := NewExtractor()

	if got := e.Extract(nil, 10); got != nil {
		t.Errorf("Extract(nil) = %v, want nil", got)
	}
	if got := e.Extract([]string{}, 10); got != nil {
		t.Errorf("Extract(empty) = %v, want nil", got)
	}
	if got := e.Extract([]string{"", "   ", "\n"}, 10); got != nil {
		t.Errorf("Extract(blank docs) = %v, want nil", got)
	}
}

func TestExtractSingleDocument(t *testing.T) {
	e := NewExtractor()

	got := e.Extract([]string{"battery life"}, 10)
	if len(got) != 3 {
		t.Fatalf("got %d keywords, want 3: %v", len(got), got)
	}

	// Equal scores, so ordering falls back to the term itself.
	wantTerms := []string{"battery", "battery life", "life"}
	for i, want := range wantTerms {
		if got[i].Term != want {
			t.Errorf("keyword[%d] = %q, want %q", i, got[i].Term, want)
		}
	}

	// One doc, every term in it: idf = log(2/2)+1 = 1, tf = 1.
	for _, kw := range got {
		if kw.Score != 1.0 {
			t.Errorf("keyword %q score = %v, want 1.0", kw.Term, kw.Score)
		}
	}
}

func TestExtractSkipsStopWords(t *testing.T) {
	e := NewExtractor()

	got := e.Extract([]string{"the battery is great"}, 10)

	for _, kw := range got {
		for _, half := range strings.Split(kw.Term, " ") {
			if isStopWord(half) {
				t.Errorf("keyword %q contains stop word %q", kw.Term, half)
			}
		}
	}

	// "is" separates battery and great, so no bigram should survive.
	for _, kw := range got {
		if strings.Contains(kw.Term, " ") {
			t.Errorf("unexpected bigram %q across a stop word", kw.Term)
		}
	}
}

func TestExtractRespectsMaxTerms(t *testing.T) {
	e := NewExtractor()

	docs := []string{
		"battery life screen quality sound speakers keyboard trackpad hinge charger",
	}

	got := e.Extract(docs, 3)
	if len(got) > 3 {
		t.Errorf("got %d keywords, want at most 3", len(got))
	}

	got = e.Extract(docs, 0)
	if len(got) > DefaultMaxTerms {
		t.Errorf("got %d keywords, want at most %d with the default cap", len(got), DefaultMaxTerms)
	}
}

func TestExtractScoresNonIncreasing(t *testing.T) {
	e := NewExtractor()

	docs := []string{
		"battery drains fast and the battery gets hot",
		"screen looks sharp but battery disappoints",
		"keyboard feels mushy",
	}

	got := e.Extract(docs, 20)
	if len(got) == 0 {
		t.Fatal("expected keywords, got none")
	}

	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("scores not sorted: %q (%v) after %q (%v)",
				got[i].Term, got[i].Score, got[i-1].Term, got[i-1].Score)
		}
	}

	// "battery" appears in two of three docs and three times overall; it
	// should rank first.
	if got[0].Term != "battery" {
		t.Errorf("top keyword = %q, want battery", got[0].Term)
	}
}

func TestIsWordFiltersTokens(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"battery", true},
		{"well-made", true},
		{"a", false},
		{"123", false},
		{"50%", false},
		{"...", false},
	}

	for _, tt := range tests {
		if got := isWord(tt.in); got != tt.want {
			t.Errorf("isWord(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

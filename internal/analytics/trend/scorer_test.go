package trend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/reviewhub/backend/internal/storage/models"
)

type fakeStore struct {
	reviewCounts map[string]int
	snapshots    map[string][]models.ProductSnapshot
	productIDs   []string
	upserts      []models.TrendEntry
	failCounts   bool
	failUpsert   bool
}

func (f *fakeStore) CountApprovedReviewsBetween(ctx context.Context, productID string, from, to time.Time) (int, error) {
	if f.failCounts {
		return 0, errors.New("storage unavailable")
	}
	return f.reviewCounts[productID], nil
}

func (f *fakeStore) ListProductSnapshots(ctx context.Context, productID string, from, to time.Time) ([]models.ProductSnapshot, error) {
	return f.snapshots[productID], nil
}

func (f *fakeStore) ListProductIDs(ctx context.Context) ([]string, error) {
	return f.productIDs, nil
}

func (f *fakeStore) UpsertTrendEntry(ctx context.Context, e *models.TrendEntry) error {
	if f.failUpsert {
		return errors.New("storage unavailable")
	}
	f.upserts = append(f.upserts, *e)
	return nil
}

func TestComputeFullSaturation(t *testing.T) {
	store := &fakeStore{
		reviewCounts: map[string]int{"p1": 10},
		snapshots: map[string][]models.ProductSnapshot{
			"p1": {{Views: 100, AverageRating: 5.0, AverageSentiment: 1.0}},
		},
	}

	score := NewScorer(store).Compute(context.Background(), "p1", time.Now(), 7)
	if score != 1.0 {
		t.Errorf("score = %v, want 1.0 at full saturation", score)
	}
}

func TestComputeNoData(t *testing.T) {
	store := &fakeStore{reviewCounts: map[string]int{}, snapshots: map[string][]models.ProductSnapshot{}}

	// Zero reviews, views and rating score 0; the absent sentiment maps to
	// the neutral 0.5 sub-score, so 0.25 * 0.5 remains.
	score := NewScorer(store).Compute(context.Background(), "p1", time.Now(), 7)
	if score != 0.125 {
		t.Errorf("score = %v, want 0.125", score)
	}
}

func TestComputeWeightedMix(t *testing.T) {
	store := &fakeStore{
		reviewCounts: map[string]int{"p1": 5},
		snapshots: map[string][]models.ProductSnapshot{
			"p1": {
				{Views: 30, AverageRating: 4.0, AverageSentiment: 0.5},
				{Views: 20, AverageRating: 3.0, AverageSentiment: 0.1},
			},
		},
	}

	// reviews: 5/10 = 0.5, rating: 3.5/5 = 0.7, sentiment: 1.3/2 = 0.65,
	// views: 50/100 = 0.5.
	// 0.3*0.5 + 0.25*0.7 + 0.25*0.65 + 0.2*0.5 = 0.5875 -> 0.588
	score := NewScorer(store).Compute(context.Background(), "p1", time.Now(), 7)
	if score != 0.588 {
		t.Errorf("score = %v, want 0.588", score)
	}
}

func TestComputeClampsOversaturation(t *testing.T) {
	store := &fakeStore{
		reviewCounts: map[string]int{"p1": 500},
		snapshots: map[string][]models.ProductSnapshot{
			"p1": {{Views: 100000, AverageRating: 5.0, AverageSentiment: 1.0}},
		},
	}

	score := NewScorer(store).Compute(context.Background(), "p1", time.Now(), 7)
	if score != 1.0 {
		t.Errorf("score = %v, want 1.0", score)
	}
}

func TestComputeFailsSoftToZero(t *testing.T) {
	store := &fakeStore{failCounts: true}

	score := NewScorer(store).Compute(context.Background(), "p1", time.Now(), 7)
	if score != 0.0 {
		t.Errorf("score = %v, want 0.0 on store failure", score)
	}
}

func TestRankPeriodOrdersAndRanks(t *testing.T) {
	store := &fakeStore{
		productIDs: []string{"a", "b", "c"},
		reviewCounts: map[string]int{
			"a": 2,
			"b": 10,
			"c": 0,
		},
		snapshots: map[string][]models.ProductSnapshot{
			"b": {{Views: 100, AverageRating: 5.0, AverageSentiment: 1.0}},
		},
	}

	day := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	entries, err := NewScorer(store).RankPeriod(context.Background(), models.PeriodDaily, day, 1)
	if err != nil {
		t.Fatalf("RankPeriod: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].ProductID != "b" || entries[0].Rank != 1 {
		t.Errorf("top entry = %+v, want product b at rank 1", entries[0])
	}
	for i, e := range entries {
		if e.Rank != i+1 {
			t.Errorf("entry %d rank = %d, want %d", i, e.Rank, i+1)
		}
		if i > 0 && e.TrendScore > entries[i-1].TrendScore {
			t.Errorf("scores out of order at %d", i)
		}
		if !e.Date.Equal(day) {
			t.Errorf("entry date = %v, want %v", e.Date, day)
		}
	}

	if len(store.upserts) != 3 {
		t.Errorf("upserts = %d, want 3", len(store.upserts))
	}
}

func TestRankPeriodTieBreaksByProductID(t *testing.T) {
	// No data for anyone: every product scores the same 0.125 baseline.
	store := &fakeStore{
		productIDs:   []string{"zeta", "alpha", "mid"},
		reviewCounts: map[string]int{},
		snapshots:    map[string][]models.ProductSnapshot{},
	}

	entries, err := NewScorer(store).RankPeriod(context.Background(), models.PeriodWeekly, time.Now(), 7)
	if err != nil {
		t.Fatalf("RankPeriod: %v", err)
	}

	want := []string{"alpha", "mid", "zeta"}
	for i, id := range want {
		if entries[i].ProductID != id {
			t.Errorf("entry %d = %q, want %q", i, entries[i].ProductID, id)
		}
	}
}

func TestRankPeriodPropagatesUpsertErrors(t *testing.T) {
	store := &fakeStore{
		productIDs:   []string{"a"},
		reviewCounts: map[string]int{},
		snapshots:    map[string][]models.ProductSnapshot{},
		failUpsert:   true,
	}

	_, err := NewScorer(store).RankPeriod(context.Background(), models.PeriodDaily, time.Now(), 1)
	if err == nil {
		t.Fatal("expected an error when the upsert fails")
	}
}

func TestWindowForPeriod(t *testing.T) {
	tests := []struct {
		period models.TrendPeriod
		want   int
	}{
		{models.PeriodDaily, 1},
		{models.PeriodWeekly, 7},
		{models.PeriodMonthly, 30},
	}

	for _, tt := range tests {
		if got := WindowForPeriod(tt.period); got != tt.want {
			t.Errorf("WindowForPeriod(%s) = %d, want %d", tt.period, got, tt.want)
		}
	}
}

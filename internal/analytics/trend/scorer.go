package trend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/reviewhub/backend/internal/metrics"
	"github.com/reviewhub/backend/internal/storage/models"
	"github.com/reviewhub/backend/pkg/logger"
)

// Composite weights and saturation points. Review volume saturates at 10
// reviews in the window, views at 100; rating is normalized from [0,5] and
// sentiment from [-1,1].
const (
	weightReviews   = 0.30
	weightRating    = 0.25
	weightSentiment = 0.25
	weightViews     = 0.20

	reviewSaturation = 10.0
	viewSaturation   = 100.0

	DefaultWindowDays = 7
)

// Store is the read/upsert surface the scorer needs.
type Store interface {
	CountApprovedReviewsBetween(ctx context.Context, productID string, from, to time.Time) (int, error)
	ListProductSnapshots(ctx context.Context, productID string, from, to time.Time) ([]models.ProductSnapshot, error)
	ListProductIDs(ctx context.Context) ([]string, error)
	UpsertTrendEntry(ctx context.Context, e *models.TrendEntry) error
}

type Scorer struct {
	store Store
}

func NewScorer(store Store) *Scorer {
	return &Scorer{store: store}
}

// Compute returns the composite trend score in [0, 1] for one product as of
// the given date. Any failure along the way degrades to 0.0 instead of
// propagating.
func (s *Scorer) Compute(ctx context.Context, productID string, asOf time.Time, windowDays int) float64 {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	end := startOfDay(asOf).Add(24 * time.Hour)
	from := end.Add(-time.Duration(windowDays) * 24 * time.Hour)

	reviewCount, err := s.store.CountApprovedReviewsBetween(ctx, productID, from, end)
	if err != nil {
		logger.Warn("Trend review count failed", zap.String("product_id", productID), zap.Error(err))
		metrics.AnalyticsSilentFailures.WithLabelValues("trend").Inc()
		return 0.0
	}

	snapshots, err := s.store.ListProductSnapshots(ctx, productID, from, asOf)
	if err != nil {
		logger.Warn("Trend snapshot read failed", zap.String("product_id", productID), zap.Error(err))
		metrics.AnalyticsSilentFailures.WithLabelValues("trend").Inc()
		return 0.0
	}

	var totalViews int64
	var ratingSum, sentimentSum float64
	for _, snap := range snapshots {
		totalViews += snap.Views
		ratingSum += snap.AverageRating
		sentimentSum += snap.AverageSentiment
	}

	// With no snapshot data both averages default to 0, which maps rating to
	// a 0 sub-score and sentiment to the neutral 0.5 after the +1/2
	// transform. That asymmetry is the documented contract.
	var avgRating, avgSentiment float64
	if len(snapshots) > 0 {
		avgRating = ratingSum / float64(len(snapshots))
		avgSentiment = sentimentSum / float64(len(snapshots))
	}

	reviewScore := clamp01(float64(reviewCount) / reviewSaturation)
	ratingScore := clamp01(avgRating / 5.0)
	sentimentScore := clamp01((avgSentiment + 1) / 2)
	viewScore := clamp01(float64(totalViews) / viewSaturation)

	score := weightReviews*reviewScore +
		weightRating*ratingScore +
		weightSentiment*sentimentScore +
		weightViews*viewScore

	return round3(score)
}

// RankPeriod scores every product for a (period, date) partition, sorts by
// descending score with product ID ascending as the tie-break, assigns ranks
// starting at 1 and upserts the entries. Recomputing a partition overwrites
// the previous run.
func (s *Scorer) RankPeriod(ctx context.Context, period models.TrendPeriod, date time.Time, windowDays int) ([]models.TrendEntry, error) {
	start := time.Now()

	productIDs, err := s.store.ListProductIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	entries := make([]models.TrendEntry, 0, len(productIDs))
	for _, id := range productIDs {
		entries = append(entries, models.TrendEntry{
			ProductID:  id,
			Period:     period,
			Date:       startOfDay(date),
			TrendScore: s.Compute(ctx, id, date, windowDays),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TrendScore != entries[j].TrendScore {
			return entries[i].TrendScore > entries[j].TrendScore
		}
		return entries[i].ProductID < entries[j].ProductID
	})

	for i := range entries {
		entries[i].Rank = i + 1
		if err := s.store.UpsertTrendEntry(ctx, &entries[i]); err != nil {
			return nil, fmt.Errorf("failed to upsert trend entry: %w", err)
		}
	}

	metrics.TrendEntriesRanked.WithLabelValues(string(period)).Add(float64(len(entries)))
	metrics.TrendBatchDuration.WithLabelValues(string(period)).Observe(time.Since(start).Seconds())

	logger.Info("Trend partition ranked",
		zap.String("period", string(period)),
		zap.String("date", startOfDay(date).Format("2006-01-02")),
		zap.Int("entries", len(entries)),
	)
	return entries, nil
}

// WindowForPeriod maps a ranking period to its lookback in days.
func WindowForPeriod(period models.TrendPeriod) int {
	switch period {
	case models.PeriodWeekly:
		return 7
	case models.PeriodMonthly:
		return 30
	default:
		return 1
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

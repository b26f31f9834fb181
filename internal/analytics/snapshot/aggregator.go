package snapshot

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/reviewhub/backend/internal/metrics"
	"github.com/reviewhub/backend/internal/storage/models"
	"github.com/reviewhub/backend/pkg/logger"
)

// topProductsLimit caps the product IDs embedded in a category snapshot.
const topProductsLimit = 5

// Store is the read/upsert surface the aggregator needs. *sqlite.Client
// satisfies it; tests inject an in-memory fake.
type Store interface {
	ListApprovedReviewsOnDate(ctx context.Context, productID string, day time.Time) ([]models.Review, error)
	ViewsOnDate(ctx context.Context, productID string, day time.Time) (int64, error)
	UpsertProductSnapshot(ctx context.Context, s *models.ProductSnapshot) error

	ListCategoryProductIDs(ctx context.Context, categoryID string) ([]string, error)
	ListApprovedReviewsForProductsOnDate(ctx context.Context, productIDs []string, day time.Time) ([]models.Review, error)
	TopRatedProductsInCategory(ctx context.Context, categoryID string, minReviews, limit int) ([]models.ProductRating, error)
	UpsertCategorySnapshot(ctx context.Context, s *models.CategorySnapshot) error
}

type Aggregator struct {
	store Store
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// ProductDaily computes and upserts the snapshot for one product and one
// calendar day. Re-running it with unchanged data rewrites the same row with
// the same values; a day with no activity produces an all-zero snapshot.
func (a *Aggregator) ProductDaily(ctx context.Context, productID string, day time.Time) (*models.ProductSnapshot, error) {
	start := time.Now()

	reviews, err := a.store.ListApprovedReviewsOnDate(ctx, productID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}

	views, err := a.store.ViewsOnDate(ctx, productID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load views: %w", err)
	}

	snapshot := &models.ProductSnapshot{
		ProductID:        productID,
		Date:             truncateDay(day),
		Views:            views,
		ReviewCount:      len(reviews),
		AverageRating:    round2(averageRating(reviews)),
		AverageSentiment: round3(averageSentiment(reviews)),
	}

	// Reviews can legitimately outnumber recorded views (e.g. views counted
	// on one surface, reviews arriving from another), so the rate is not
	// clamped to 1.
	if views > 0 {
		snapshot.ConversionRate = round3(float64(len(reviews)) / float64(views))
	}

	if err := a.store.UpsertProductSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to upsert snapshot: %w", err)
	}

	metrics.SnapshotsComputed.WithLabelValues("product").Inc()
	metrics.SnapshotDuration.WithLabelValues("product").Observe(time.Since(start).Seconds())

	logger.Debug("Product snapshot computed",
		zap.String("product_id", productID),
		zap.Int("review_count", snapshot.ReviewCount),
		zap.Int64("views", snapshot.Views),
	)
	return snapshot, nil
}

// CategoryDaily rolls up one category for one day. The top_products list is
// the up-to-five best products by average approved rating (ties broken by
// product ID), not a sample.
func (a *Aggregator) CategoryDaily(ctx context.Context, categoryID string, day time.Time) (*models.CategorySnapshot, error) {
	start := time.Now()

	productIDs, err := a.store.ListCategoryProductIDs(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load category products: %w", err)
	}

	reviews, err := a.store.ListApprovedReviewsForProductsOnDate(ctx, productIDs, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load category reviews: %w", err)
	}

	topRated, err := a.store.TopRatedProductsInCategory(ctx, categoryID, 1, topProductsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load top rated products: %w", err)
	}

	topProducts := make([]string, 0, len(topRated))
	for _, p := range topRated {
		topProducts = append(topProducts, p.ProductID)
	}

	snapshot := &models.CategorySnapshot{
		CategoryID:       categoryID,
		Date:             truncateDay(day),
		TotalProducts:    len(productIDs),
		TotalReviews:     len(reviews),
		AverageRating:    round2(averageRating(reviews)),
		AverageSentiment: round3(averageSentiment(reviews)),
		TopProducts:      topProducts,
	}

	if err := a.store.UpsertCategorySnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to upsert snapshot: %w", err)
	}

	metrics.SnapshotsComputed.WithLabelValues("category").Inc()
	metrics.SnapshotDuration.WithLabelValues("category").Observe(time.Since(start).Seconds())

	return snapshot, nil
}

func averageRating(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}

	var total float64
	for _, r := range reviews {
		total += float64(r.Rating)
	}
	return total / float64(len(reviews))
}

// averageSentiment averages only the reviews that carry a sentiment score;
// reviews predating sentiment scoring are skipped, not counted as zero.
func averageSentiment(reviews []models.Review) float64 {
	var total float64
	var count int
	for _, r := range reviews {
		if r.SentimentScore != nil {
			total += *r.SentimentScore
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

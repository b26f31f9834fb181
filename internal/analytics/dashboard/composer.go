package dashboard

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/reviewhub/backend/internal/analytics/keywords"
	"github.com/reviewhub/backend/internal/metrics"
	"github.com/reviewhub/backend/internal/storage/models"
	"github.com/reviewhub/backend/pkg/logger"
	"github.com/reviewhub/backend/pkg/utils"
)

const (
	dashboardKeywordLimit = 15
	categoryKeywordLimit  = 10
	keywordCorpusLimit    = 500

	topProductsMinReviews = 3
	topProductsLimit      = 10
	categoryTopLimit      = 5
	categoryStatsLimit    = 10
)

// Store is the read surface the composer needs. *sqlite.Client satisfies it.
type Store interface {
	CountProducts(ctx context.Context) (int, error)
	CountApprovedReviews(ctx context.Context) (int, error)
	CountUsers(ctx context.Context) (int, error)
	CountCategories(ctx context.Context) (int, error)
	CountApprovedReviewsSince(ctx context.Context, since time.Time) (int, error)
	SentimentStatsSince(ctx context.Context, since time.Time) (float64, int, int, int, error)
	TopRatedProducts(ctx context.Context, minReviews, limit int) ([]models.ProductRating, error)
	CategoryPerformance(ctx context.Context, limit int) ([]models.CategoryPerformance, error)
	ReviewMonthStats(ctx context.Context, from, to time.Time) (models.MonthStats, error)
	ApprovedReviewContentsSince(ctx context.Context, since time.Time, limit int) ([]string, error)

	ListCategoryProductIDs(ctx context.Context, categoryID string) ([]string, error)
	CategoryReviewStatsSince(ctx context.Context, categoryID string, since time.Time) (models.CategoryReviewStats, error)
	TopRatedProductsInCategory(ctx context.Context, categoryID string, minReviews, limit int) ([]models.ProductRating, error)
	CategoryReviewContentsSince(ctx context.Context, categoryID string, since time.Time, limit int) ([]string, error)
}

// Cache is the subset of the redis client the composer uses. A nil Cache
// disables caching entirely.
type Cache interface {
	GetJSON(ctx context.Context, key string, value interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type Overview struct {
	TotalProducts   int `json:"total_products"`
	TotalReviews    int `json:"total_reviews"`
	TotalUsers      int `json:"total_users"`
	TotalCategories int `json:"total_categories"`
	RecentReviews   int `json:"recent_reviews"`
}

type SentimentDistribution struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

type SentimentSummary struct {
	Average      float64               `json:"average"`
	Distribution SentimentDistribution `json:"distribution"`
}

type ProductEntry struct {
	ProductID     string  `json:"product_id"`
	Name          string  `json:"name"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

type CategoryEntry struct {
	CategoryID    string  `json:"category_id"`
	Name          string  `json:"name"`
	ProductCount  int     `json:"product_count"`
	ReviewCount   int     `json:"review_count"`
	AverageRating float64 `json:"average_rating"`
}

type TimelineBucket struct {
	Month            string  `json:"month"`
	ReviewCount      int     `json:"review_count"`
	AverageRating    float64 `json:"average_rating"`
	AverageSentiment float64 `json:"average_sentiment"`
}

type Payload struct {
	Overview      Overview           `json:"overview"`
	Sentiment     SentimentSummary   `json:"sentiment"`
	TopProducts   []ProductEntry     `json:"top_products"`
	CategoryStats []CategoryEntry    `json:"category_stats"`
	Timeline      []TimelineBucket   `json:"review_timeline"`
	TopKeywords   []keywords.Keyword `json:"top_keywords"`
	GeneratedAt   time.Time          `json:"generated_at"`
}

type CategoryInsights struct {
	CategoryID            string                `json:"category_id"`
	TotalProducts         int                   `json:"total_products"`
	TotalReviews          int                   `json:"total_reviews"`
	AverageRating         float64               `json:"average_rating"`
	AverageSentiment      float64               `json:"average_sentiment"`
	SentimentDistribution SentimentDistribution `json:"sentiment_distribution"`
	TopRatedProducts      []ProductEntry        `json:"top_rated_products"`
	TopKeywords           []keywords.Keyword    `json:"top_keywords"`
	GeneratedAt           time.Time             `json:"generated_at"`
}

type Composer struct {
	store      Store
	cache      Cache
	extractor  *keywords.Extractor
	windowDays int
	months     int
	cacheTTL   time.Duration
}

func NewComposer(store Store, cache Cache, windowDays, timelineMonths, cacheTTLSeconds int) *Composer {
	if windowDays <= 0 {
		windowDays = 30
	}
	if timelineMonths <= 0 {
		timelineMonths = 12
	}
	return &Composer{
		store:      store,
		cache:      cache,
		extractor:  keywords.NewExtractor(),
		windowDays: windowDays,
		months:     timelineMonths,
		cacheTTL:   time.Duration(cacheTTLSeconds) * time.Second,
	}
}

// Dashboard composes the site-wide analytics payload. Cache errors fall
// through to recomputation; composition errors produce a nil payload, never
// an error. Callers render nil as an empty object.
func (c *Composer) Dashboard(ctx context.Context) *Payload {
	cacheKey := "analytics:" + utils.HashString("dashboard")

	if c.cache != nil {
		var cached Payload
		found, err := c.cache.GetJSON(ctx, cacheKey, &cached)
		if err != nil {
			logger.Warn("Dashboard cache read failed", zap.Error(err))
		}
		if found {
			metrics.CacheHits.WithLabelValues("dashboard").Inc()
			return &cached
		}
		metrics.CacheMisses.WithLabelValues("dashboard").Inc()
	}

	payload, err := c.composeDashboard(ctx)
	if err != nil {
		logger.Warn("Dashboard composition failed", zap.Error(err))
		metrics.AnalyticsSilentFailures.WithLabelValues("dashboard").Inc()
		return nil
	}

	if c.cache != nil {
		if err := c.cache.SetJSON(ctx, cacheKey, payload, c.cacheTTL); err != nil {
			logger.Warn("Dashboard cache write failed", zap.Error(err))
		}
	}
	return payload
}

func (c *Composer) composeDashboard(ctx context.Context) (*Payload, error) {
	now := time.Now().UTC()
	since := now.AddDate(0, 0, -c.windowDays)

	totalProducts, err := c.store.CountProducts(ctx)
	if err != nil {
		return nil, err
	}
	totalReviews, err := c.store.CountApprovedReviews(ctx)
	if err != nil {
		return nil, err
	}
	totalUsers, err := c.store.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	totalCategories, err := c.store.CountCategories(ctx)
	if err != nil {
		return nil, err
	}
	recentReviews, err := c.store.CountApprovedReviewsSince(ctx, since)
	if err != nil {
		return nil, err
	}

	avgSentiment, pos, neg, neu, err := c.store.SentimentStatsSince(ctx, since)
	if err != nil {
		return nil, err
	}

	topRated, err := c.store.TopRatedProducts(ctx, topProductsMinReviews, topProductsLimit)
	if err != nil {
		return nil, err
	}

	categoryStats, err := c.store.CategoryPerformance(ctx, categoryStatsLimit)
	if err != nil {
		return nil, err
	}

	timeline, err := c.timeline(ctx, now)
	if err != nil {
		return nil, err
	}

	contents, err := c.store.ApprovedReviewContentsSince(ctx, since, keywordCorpusLimit)
	if err != nil {
		return nil, err
	}

	return &Payload{
		Overview: Overview{
			TotalProducts:   totalProducts,
			TotalReviews:    totalReviews,
			TotalUsers:      totalUsers,
			TotalCategories: totalCategories,
			RecentReviews:   recentReviews,
		},
		Sentiment: SentimentSummary{
			Average:      round3(avgSentiment),
			Distribution: SentimentDistribution{Positive: pos, Negative: neg, Neutral: neu},
		},
		TopProducts:   productEntries(topRated),
		CategoryStats: categoryEntries(categoryStats),
		Timeline:      timeline,
		TopKeywords:   c.extractor.Extract(contents, dashboardKeywordLimit),
		GeneratedAt:   now,
	}, nil
}

// timeline returns one bucket per calendar month, oldest first, ending with
// the current month. Empty months appear as zero buckets rather than gaps.
func (c *Composer) timeline(ctx context.Context, now time.Time) ([]TimelineBucket, error) {
	buckets := make([]TimelineBucket, 0, c.months)

	for i := c.months - 1; i >= 0; i-- {
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		monthEnd := monthStart.AddDate(0, 1, 0)

		stats, err := c.store.ReviewMonthStats(ctx, monthStart, monthEnd)
		if err != nil {
			return nil, err
		}

		buckets = append(buckets, TimelineBucket{
			Month:            monthStart.Format("2006-01"),
			ReviewCount:      stats.ReviewCount,
			AverageRating:    round2(stats.AverageRating),
			AverageSentiment: round3(stats.AverageSentiment),
		})
	}
	return buckets, nil
}

// Insights composes the per-category analytics payload, with the same cache
// and fail-soft behavior as Dashboard.
func (c *Composer) Insights(ctx context.Context, categoryID string) *CategoryInsights {
	cacheKey := "analytics:" + utils.HashString("insights:"+categoryID)

	if c.cache != nil {
		var cached CategoryInsights
		found, err := c.cache.GetJSON(ctx, cacheKey, &cached)
		if err != nil {
			logger.Warn("Insights cache read failed", zap.String("category_id", categoryID), zap.Error(err))
		}
		if found {
			metrics.CacheHits.WithLabelValues("insights").Inc()
			return &cached
		}
		metrics.CacheMisses.WithLabelValues("insights").Inc()
	}

	insights, err := c.composeInsights(ctx, categoryID)
	if err != nil {
		logger.Warn("Insights composition failed", zap.String("category_id", categoryID), zap.Error(err))
		metrics.AnalyticsSilentFailures.WithLabelValues("dashboard").Inc()
		return nil
	}

	if c.cache != nil {
		if err := c.cache.SetJSON(ctx, cacheKey, insights, c.cacheTTL); err != nil {
			logger.Warn("Insights cache write failed", zap.String("category_id", categoryID), zap.Error(err))
		}
	}
	return insights
}

func (c *Composer) composeInsights(ctx context.Context, categoryID string) (*CategoryInsights, error) {
	now := time.Now().UTC()
	since := now.AddDate(0, 0, -c.windowDays)

	productIDs, err := c.store.ListCategoryProductIDs(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	stats, err := c.store.CategoryReviewStatsSince(ctx, categoryID, since)
	if err != nil {
		return nil, err
	}

	topRated, err := c.store.TopRatedProductsInCategory(ctx, categoryID, topProductsMinReviews, categoryTopLimit)
	if err != nil {
		return nil, err
	}

	contents, err := c.store.CategoryReviewContentsSince(ctx, categoryID, since, keywordCorpusLimit)
	if err != nil {
		return nil, err
	}

	return &CategoryInsights{
		CategoryID:       categoryID,
		TotalProducts:    len(productIDs),
		TotalReviews:     stats.ReviewCount,
		AverageRating:    round2(stats.AverageRating),
		AverageSentiment: round3(stats.AverageSentiment),
		SentimentDistribution: SentimentDistribution{
			Positive: stats.Positive,
			Negative: stats.Negative,
			Neutral:  stats.Neutral,
		},
		TopRatedProducts: productEntries(topRated),
		TopKeywords:      c.extractor.Extract(contents, categoryKeywordLimit),
		GeneratedAt:      now,
	}, nil
}

func productEntries(ratings []models.ProductRating) []ProductEntry {
	entries := make([]ProductEntry, 0, len(ratings))
	for _, r := range ratings {
		entries = append(entries, ProductEntry{
			ProductID:     r.ProductID,
			Name:          r.Name,
			AverageRating: round2(r.AverageRating),
			ReviewCount:   r.ReviewCount,
		})
	}
	return entries
}

func categoryEntries(stats []models.CategoryPerformance) []CategoryEntry {
	entries := make([]CategoryEntry, 0, len(stats))
	for _, s := range stats {
		entries = append(entries, CategoryEntry{
			CategoryID:    s.CategoryID,
			Name:          s.Name,
			ProductCount:  s.ProductCount,
			ReviewCount:   s.ReviewCount,
			AverageRating: round2(s.AverageRating),
		})
	}
	return entries
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

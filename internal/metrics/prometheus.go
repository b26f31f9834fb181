package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reviewhub_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"route", "status"},
	)

	ReviewsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reviewhub_reviews_created_total",
			Help: "Total reviews created",
		},
	)

	ReviewsModerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewhub_reviews_moderated_total",
			Help: "Total review moderation decisions",
		},
		[]string{"action"},
	)

	CommentsModerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewhub_comments_moderated_total",
			Help: "Total comment moderation decisions",
		},
		[]string{"action"},
	)

	SentimentScores = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reviewhub_sentiment_score",
			Help:    "Distribution of computed sentiment polarities",
			Buckets: []float64{-1, -0.6, -0.3, -0.1, 0.1, 0.3, 0.6, 1},
		},
	)

	ProductViews = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reviewhub_product_views_total",
			Help: "Total recorded product views",
		},
	)

	SnapshotsComputed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewhub_snapshots_computed_total",
			Help: "Total daily snapshots computed",
		},
		[]string{"entity_type"},
	)

	SnapshotDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reviewhub_snapshot_duration_seconds",
			Help:    "Daily snapshot computation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"entity_type"},
	)

	TrendBatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reviewhub_trend_batch_duration_seconds",
			Help:    "Trend ranking batch duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"period"},
	)

	TrendEntriesRanked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewhub_trend_entries_ranked_total",
			Help: "Total trend entries ranked and upserted",
		},
		[]string{"period"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewhub_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewhub_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	// AnalyticsSilentFailures counts errors that the analytics components
	// swallowed to honor their fail-soft contract. Operators cannot tell
	// "no data" from "failed" in the API responses, so this is the signal.
	AnalyticsSilentFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewhub_analytics_silent_failures_total",
			Help: "Analytics errors converted to empty results",
		},
		[]string{"component"},
	)
)

func Init() {
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ReviewsCreated)
	prometheus.MustRegister(ReviewsModerated)
	prometheus.MustRegister(CommentsModerated)
	prometheus.MustRegister(SentimentScores)
	prometheus.MustRegister(ProductViews)
	prometheus.MustRegister(SnapshotsComputed)
	prometheus.MustRegister(SnapshotDuration)
	prometheus.MustRegister(TrendBatchDuration)
	prometheus.MustRegister(TrendEntriesRanked)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(AnalyticsSilentFailures)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

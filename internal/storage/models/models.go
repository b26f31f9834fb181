package models

import "time"

type Category struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

type CanonicalProduct struct {
	ID            string
	CanonicalName string
	Description   string
	CategoryID    string
	CreatedAt     time.Time
}

type Product struct {
	ID          string
	Name        string
	Description string
	CanonicalID string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type User struct {
	ID        string
	Username  string
	Email     string
	IsStaff   bool
	CreatedAt time.Time
}

type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// Review carries its sentiment fields from the moment it is created; they are
// never recomputed, even when the content is edited later.
type Review struct {
	ID             string
	ProductID      string
	UserID         string
	Rating         int
	Content        string
	SentimentScore *float64
	SentimentLabel SentimentLabel
	IsApproved     bool
	HelpfulVotes   int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Comment struct {
	ID         string
	ProductID  string
	UserID     string
	Content    string
	IsApproved bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ProductSnapshot is the daily per-product aggregate, keyed by (product, date).
type ProductSnapshot struct {
	ProductID        string
	Date             time.Time
	Views            int64
	ReviewCount      int
	AverageRating    float64
	AverageSentiment float64
	ConversionRate   float64
}

// CategorySnapshot is the daily per-category aggregate, keyed by (category, date).
type CategorySnapshot struct {
	CategoryID       string
	Date             time.Time
	TotalProducts    int
	TotalReviews     int
	AverageRating    float64
	AverageSentiment float64
	TopProducts      []string
}

type TrendPeriod string

const (
	PeriodDaily   TrendPeriod = "daily"
	PeriodWeekly  TrendPeriod = "weekly"
	PeriodMonthly TrendPeriod = "monthly"
)

// TrendEntry is keyed by (product, period, date). Rank is dense, 1 = highest
// score within the partition.
type TrendEntry struct {
	ProductID  string
	Period     TrendPeriod
	Date       time.Time
	TrendScore float64
	Rank       int
}

// ProductRating is a read-model row for "top rated" style listings.
type ProductRating struct {
	ProductID     string
	Name          string
	AverageRating float64
	ReviewCount   int
}

// CategoryPerformance is a read-model row for per-category dashboard stats.
type CategoryPerformance struct {
	CategoryID    string
	Name          string
	ProductCount  int
	ReviewCount   int
	AverageRating float64
}

// CategoryReviewStats aggregates approved reviews in one category over a
// time window.
type CategoryReviewStats struct {
	ReviewCount      int
	AverageRating    float64
	AverageSentiment float64
	Positive         int
	Negative         int
	Neutral          int
}

// MonthStats aggregates approved reviews over one calendar month.
type MonthStats struct {
	ReviewCount      int
	AverageRating    float64
	AverageSentiment float64
}

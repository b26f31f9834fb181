package reviews

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reviewhub/backend/internal/analytics/sentiment"
	"github.com/reviewhub/backend/internal/metrics"
	"github.com/reviewhub/backend/internal/storage/models"
	"github.com/reviewhub/backend/pkg/logger"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateReview = errors.New("user has already reviewed this product")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrEmptyContent    = errors.New("content must not be empty")
)

const maxContentLength = 10000

// Store is the persistence surface the service needs. *sqlite.Client
// satisfies it.
type Store interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	HasUserReview(ctx context.Context, productID, userID string) (bool, error)
	InsertReview(ctx context.Context, r *models.Review) error
	GetReview(ctx context.Context, id string) (*models.Review, error)
	UpdateReviewContent(ctx context.Context, id, content string) error
	SetReviewApproval(ctx context.Context, id string, approved bool) error
	IncrementHelpfulVotes(ctx context.Context, id string) error
	ListPendingReviews(ctx context.Context, limit int) ([]models.Review, error)
	ListApprovedReviewsForProduct(ctx context.Context, productID string, limit int) ([]models.Review, error)
	ListUserApprovedReviews(ctx context.Context, userID string) ([]models.Review, error)

	InsertComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	SetCommentApproval(ctx context.Context, id string, approved bool) error
	ListPendingComments(ctx context.Context, limit int) ([]models.Comment, error)
	ListApprovedCommentsForProduct(ctx context.Context, productID string, limit int) ([]models.Comment, error)

	IncrementProductViews(ctx context.Context, productID string, day time.Time, delta int64) error
}

// Broadcaster pushes moderation events to connected dashboard clients. A nil
// Broadcaster disables the push path.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// CacheInvalidator drops cached analytics payloads after a change that
// affects them. A nil invalidator is a no-op.
type CacheInvalidator interface {
	InvalidateAnalyticsCache(ctx context.Context) error
}

type Service struct {
	store       Store
	analyzer    *sentiment.Analyzer
	broadcaster Broadcaster
	cache       CacheInvalidator
}

func NewService(store Store, broadcaster Broadcaster, cache CacheInvalidator) *Service {
	return &Service{
		store:       store,
		analyzer:    sentiment.NewAnalyzer(),
		broadcaster: broadcaster,
		cache:       cache,
	}
}

type CreateReviewInput struct {
	ProductID string `json:"product_id"`
	UserID    string `json:"user_id"`
	Rating    int    `json:"rating"`
	Content   string `json:"content"`
}

// CreateReview validates and stores a new review. The sentiment score and
// label are computed here, once, from the sanitized content; later edits do
// not touch them. New reviews start unapproved.
func (s *Service) CreateReview(ctx context.Context, input CreateReviewInput) (*models.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrInvalidRating
	}

	content := sanitizeContent(input.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	if _, err := s.store.GetProduct(ctx, input.ProductID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to verify product: %w", err)
	}

	exists, err := s.store.HasUserReview(ctx, input.ProductID, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if exists {
		return nil, ErrDuplicateReview
	}

	score, label := s.analyzer.Score(content)
	metrics.SentimentScores.Observe(score)

	now := time.Now().UTC()
	review := &models.Review{
		ID:             uuid.New().String(),
		ProductID:      input.ProductID,
		UserID:         input.UserID,
		Rating:         input.Rating,
		Content:        content,
		SentimentScore: &score,
		SentimentLabel: label,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.InsertReview(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	metrics.ReviewsCreated.Inc()
	logger.Info("Review created",
		zap.String("review_id", review.ID),
		zap.String("product_id", review.ProductID),
		zap.Float64("sentiment_score", score),
		zap.String("sentiment_label", string(label)),
	)

	s.broadcast("review_created", review)
	return review, nil
}

// UpdateContent replaces a review's text. Sentiment is not recomputed; the
// stored score reflects the original content.
func (s *Service) UpdateContent(ctx context.Context, reviewID, content string) (*models.Review, error) {
	content = sanitizeContent(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	if err := s.store.UpdateReviewContent(ctx, reviewID, content); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload review: %w", err)
	}
	return review, nil
}

func (s *Service) GetReview(ctx context.Context, reviewID string) (*models.Review, error) {
	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return review, nil
}

func (s *Service) ApproveReview(ctx context.Context, reviewID string) error {
	return s.moderateReview(ctx, reviewID, true)
}

func (s *Service) RejectReview(ctx context.Context, reviewID string) error {
	return s.moderateReview(ctx, reviewID, false)
}

func (s *Service) moderateReview(ctx context.Context, reviewID string, approved bool) error {
	if err := s.store.SetReviewApproval(ctx, reviewID, approved); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to moderate review: %w", err)
	}

	action := "rejected"
	if approved {
		action = "approved"
	}
	metrics.ReviewsModerated.WithLabelValues(action).Inc()
	logger.Info("Review moderated", zap.String("review_id", reviewID), zap.String("action", action))

	s.broadcast("review_moderated", map[string]interface{}{
		"review_id": reviewID,
		"action":    action,
	})
	s.invalidateAnalytics(ctx)
	return nil
}

func (s *Service) MarkHelpful(ctx context.Context, reviewID string) error {
	if err := s.store.IncrementHelpfulVotes(ctx, reviewID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to mark review helpful: %w", err)
	}
	return nil
}

func (s *Service) PendingReviews(ctx context.Context, limit int) ([]models.Review, error) {
	return s.store.ListPendingReviews(ctx, limit)
}

func (s *Service) ProductReviews(ctx context.Context, productID string, limit int) ([]models.Review, error) {
	return s.store.ListApprovedReviewsForProduct(ctx, productID, limit)
}

type CreateCommentInput struct {
	ProductID string `json:"product_id"`
	UserID    string `json:"user_id"`
	Content   string `json:"content"`
}

func (s *Service) CreateComment(ctx context.Context, input CreateCommentInput) (*models.Comment, error) {
	content := sanitizeContent(input.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	if _, err := s.store.GetProduct(ctx, input.ProductID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to verify product: %w", err)
	}

	now := time.Now().UTC()
	comment := &models.Comment{
		ID:        uuid.New().String(),
		ProductID: input.ProductID,
		UserID:    input.UserID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.InsertComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.broadcast("comment_created", comment)
	return comment, nil
}

func (s *Service) ApproveComment(ctx context.Context, commentID string) error {
	return s.moderateComment(ctx, commentID, true)
}

func (s *Service) RejectComment(ctx context.Context, commentID string) error {
	return s.moderateComment(ctx, commentID, false)
}

func (s *Service) moderateComment(ctx context.Context, commentID string, approved bool) error {
	if err := s.store.SetCommentApproval(ctx, commentID, approved); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to moderate comment: %w", err)
	}

	action := "rejected"
	if approved {
		action = "approved"
	}
	metrics.CommentsModerated.WithLabelValues(action).Inc()

	s.broadcast("comment_moderated", map[string]interface{}{
		"comment_id": commentID,
		"action":     action,
	})
	s.invalidateAnalytics(ctx)
	return nil
}

func (s *Service) PendingComments(ctx context.Context, limit int) ([]models.Comment, error) {
	return s.store.ListPendingComments(ctx, limit)
}

func (s *Service) ProductComments(ctx context.Context, productID string, limit int) ([]models.Comment, error) {
	return s.store.ListApprovedCommentsForProduct(ctx, productID, limit)
}

// RecordView bumps the durable daily view counter for a product.
func (s *Service) RecordView(ctx context.Context, productID string) error {
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to verify product: %w", err)
	}

	if err := s.store.IncrementProductViews(ctx, productID, time.Now().UTC(), 1); err != nil {
		return fmt.Errorf("failed to record view: %w", err)
	}

	metrics.ProductViews.Inc()
	return nil
}

type UserStats struct {
	UserID               string  `json:"user_id"`
	TotalReviews         int     `json:"total_reviews"`
	AverageRating        float64 `json:"average_rating"`
	TotalHelpfulVotes    int     `json:"total_helpful_votes"`
	PositiveReviews      int     `json:"positive_reviews"`
	NegativeReviews      int     `json:"negative_reviews"`
	NeutralReviews       int     `json:"neutral_reviews"`
	MeanDaysBetweenPosts float64 `json:"mean_days_between_posts"`
	FirstReviewAt        *string `json:"first_review_at,omitempty"`
	LastReviewAt         *string `json:"last_review_at,omitempty"`

	Timeline []UserMonthBucket `json:"timeline"`
}

// UserMonthBucket counts one user's approved reviews in one calendar month.
// Only months with activity appear, oldest first.
type UserMonthBucket struct {
	Month       string `json:"month"`
	ReviewCount int    `json:"review_count"`
}

// Stats summarizes one user's approved review history. A user with no
// approved reviews gets a zero-valued summary, not an error.
func (s *Service) Stats(ctx context.Context, userID string) (*UserStats, error) {
	reviews, err := s.store.ListUserApprovedReviews(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user reviews: %w", err)
	}

	stats := &UserStats{UserID: userID, TotalReviews: len(reviews)}
	if len(reviews) == 0 {
		return stats, nil
	}

	var ratingSum float64
	for _, r := range reviews {
		ratingSum += float64(r.Rating)
		stats.TotalHelpfulVotes += r.HelpfulVotes

		switch r.SentimentLabel {
		case models.SentimentPositive:
			stats.PositiveReviews++
		case models.SentimentNegative:
			stats.NegativeReviews++
		default:
			stats.NeutralReviews++
		}
	}
	stats.AverageRating = math.Round(ratingSum/float64(len(reviews))*100) / 100

	first := reviews[0].CreatedAt.Format(time.RFC3339)
	last := reviews[len(reviews)-1].CreatedAt.Format(time.RFC3339)
	stats.FirstReviewAt = &first
	stats.LastReviewAt = &last

	if len(reviews) > 1 {
		span := reviews[len(reviews)-1].CreatedAt.Sub(reviews[0].CreatedAt)
		days := span.Hours() / 24 / float64(len(reviews)-1)
		stats.MeanDaysBetweenPosts = math.Round(days*100) / 100
	}

	counts := make(map[string]int)
	for _, r := range reviews {
		counts[r.CreatedAt.UTC().Format("2006-01")]++
	}
	months := make([]string, 0, len(counts))
	for m := range counts {
		months = append(months, m)
	}
	sort.Strings(months)
	for _, m := range months {
		stats.Timeline = append(stats.Timeline, UserMonthBucket{Month: m, ReviewCount: counts[m]})
	}
	return stats, nil
}

func (s *Service) broadcast(event string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(event, payload)
	}
}

func (s *Service) invalidateAnalytics(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAnalyticsCache(ctx); err != nil {
		logger.Warn("Analytics cache invalidation failed", zap.Error(err))
	}
}

// sanitizeContent strips any HTML markup and collapses surrounding
// whitespace. Review text is stored and scored as plain text.
func sanitizeContent(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) > maxContentLength {
		trimmed = trimmed[:maxContentLength]
	}

	if !strings.ContainsRune(trimmed, '<') {
		return trimmed
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed))
	if err != nil {
		logger.Debug("HTML sanitization failed, keeping raw text", zap.Error(err))
		return trimmed
	}
	return strings.TrimSpace(doc.Text())
}

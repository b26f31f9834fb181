package reviews

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/reviewhub/backend/internal/storage/models"
)

type fakeStore struct {
	products map[string]*models.Product
	reviews  map[string]*models.Review
	comments map[string]*models.Comment
	views    map[string]int64

	userReviews []models.Review
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products: map[string]*models.Product{},
		reviews:  map[string]*models.Review{},
		comments: map[string]*models.Comment{},
		views:    map[string]int64{},
	}
}

func (f *fakeStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, fmt.Errorf("failed to get product: %w", sql.ErrNoRows)
	}
	return p, nil
}

func (f *fakeStore) HasUserReview(ctx context.Context, productID, userID string) (bool, error) {
	for _, r := range f.reviews {
		if r.ProductID == productID && r.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) InsertReview(ctx context.Context, r *models.Review) error {
	copied := *r
	f.reviews[r.ID] = &copied
	return nil
}

func (f *fakeStore) GetReview(ctx context.Context, id string) (*models.Review, error) {
	r, ok := f.reviews[id]
	if !ok {
		return nil, fmt.Errorf("failed to get review: %w", sql.ErrNoRows)
	}
	copied := *r
	return &copied, nil
}

func (f *fakeStore) UpdateReviewContent(ctx context.Context, id, content string) error {
	r, ok := f.reviews[id]
	if !ok {
		return sql.ErrNoRows
	}
	r.Content = content
	r.UpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) SetReviewApproval(ctx context.Context, id string, approved bool) error {
	r, ok := f.reviews[id]
	if !ok {
		return sql.ErrNoRows
	}
	r.IsApproved = approved
	return nil
}

func (f *fakeStore) IncrementHelpfulVotes(ctx context.Context, id string) error {
	r, ok := f.reviews[id]
	if !ok {
		return sql.ErrNoRows
	}
	r.HelpfulVotes++
	return nil
}

func (f *fakeStore) ListPendingReviews(ctx context.Context, limit int) ([]models.Review, error) {
	var out []models.Review
	for _, r := range f.reviews {
		if !r.IsApproved {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) ListApprovedReviewsForProduct(ctx context.Context, productID string, limit int) ([]models.Review, error) {
	var out []models.Review
	for _, r := range f.reviews {
		if r.ProductID == productID && r.IsApproved {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) ListUserApprovedReviews(ctx context.Context, userID string) ([]models.Review, error) {
	return f.userReviews, nil
}

func (f *fakeStore) InsertComment(ctx context.Context, c *models.Comment) error {
	copied := *c
	f.comments[c.ID] = &copied
	return nil
}

func (f *fakeStore) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	c, ok := f.comments[id]
	if !ok {
		return nil, fmt.Errorf("failed to get comment: %w", sql.ErrNoRows)
	}
	return c, nil
}

func (f *fakeStore) SetCommentApproval(ctx context.Context, id string, approved bool) error {
	c, ok := f.comments[id]
	if !ok {
		return sql.ErrNoRows
	}
	c.IsApproved = approved
	return nil
}

func (f *fakeStore) ListPendingComments(ctx context.Context, limit int) ([]models.Comment, error) {
	return nil, nil
}

func (f *fakeStore) ListApprovedCommentsForProduct(ctx context.Context, productID string, limit int) ([]models.Comment, error) {
	return nil, nil
}

func (f *fakeStore) IncrementProductViews(ctx context.Context, productID string, day time.Time, delta int64) error {
	f.views[productID] += delta
	return nil
}

func storeWithProduct(id string) *fakeStore {
	store := newFakeStore()
	store.products[id] = &models.Product{ID: id, Name: "Widget"}
	return store
}

func TestCreateReviewValidation(t *testing.T) {
	service := NewService(storeWithProduct("p1"), nil, nil)

	tests := []struct {
		name    string
		input   CreateReviewInput
		wantErr error
	}{
		{
			name:    "rating too low",
			input:   CreateReviewInput{ProductID: "p1", UserID: "u1", Rating: 0, Content: "fine"},
			wantErr: ErrInvalidRating,
		},
		{
			name:    "rating too high",
			input:   CreateReviewInput{ProductID: "p1", UserID: "u1", Rating: 6, Content: "fine"},
			wantErr: ErrInvalidRating,
		},
		{
			name:    "blank content",
			input:   CreateReviewInput{ProductID: "p1", UserID: "u1", Rating: 4, Content: "   "},
			wantErr: ErrEmptyContent,
		},
		{
			name:    "unknown product",
			input:   CreateReviewInput{ProductID: "missing", UserID: "u1", Rating: 4, Content: "fine"},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.CreateReview(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateReviewComputesSentiment(t *testing.T) {
	store := storeWithProduct("p1")
	service := NewService(store, nil, nil)

	review, err := service.CreateReview(context.Background(), CreateReviewInput{
		ProductID: "p1",
		UserID:    "u1",
		Rating:    5,
		Content:   "absolutely wonderful product",
	})
	if err != nil {
		t.Fatalf("CreateReview: %v", err)
	}

	if review.ID == "" {
		t.Error("review ID was not assigned")
	}
	if review.IsApproved {
		t.Error("new reviews must start unapproved")
	}
	if review.SentimentScore == nil {
		t.Fatal("sentiment score was not computed")
	}
	if *review.SentimentScore <= 0.1 {
		t.Errorf("sentiment score = %v, want > 0.1 for positive text", *review.SentimentScore)
	}
	if review.SentimentLabel != models.SentimentPositive {
		t.Errorf("sentiment label = %v, want positive", review.SentimentLabel)
	}
}

func TestCreateReviewStripsHTML(t *testing.T) {
	store := storeWithProduct("p1")
	service := NewService(store, nil, nil)

	review, err := service.CreateReview(context.Background(), CreateReviewInput{
		ProductID: "p1",
		UserID:    "u1",
		Rating:    5,
		Content:   "<p>great <b>product</b></p>",
	})
	if err != nil {
		t.Fatalf("CreateReview: %v", err)
	}

	if review.Content != "great product" {
		t.Errorf("content = %q, want %q", review.Content, "great product")
	}
}

func TestCreateReviewRejectsDuplicate(t *testing.T) {
	store := storeWithProduct("p1")
	service := NewService(store, nil, nil)

	input := CreateReviewInput{ProductID: "p1", UserID: "u1", Rating: 4, Content: "nice enough"}
	if _, err := service.CreateReview(context.Background(), input); err != nil {
		t.Fatalf("first review: %v", err)
	}

	_, err := service.CreateReview(context.Background(), input)
	if !errors.Is(err, ErrDuplicateReview) {
		t.Errorf("err = %v, want ErrDuplicateReview", err)
	}
}

func TestUpdateContentKeepsSentiment(t *testing.T) {
	store := storeWithProduct("p1")
	service := NewService(store, nil, nil)

	created, err := service.CreateReview(context.Background(), CreateReviewInput{
		ProductID: "p1",
		UserID:    "u1",
		Rating:    5,
		Content:   "wonderful product",
	})
	if err != nil {
		t.Fatalf("CreateReview: %v", err)
	}
	originalScore := *created.SentimentScore
	originalLabel := created.SentimentLabel

	updated, err := service.UpdateContent(context.Background(), created.ID, "terrible awful garbage")
	if err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}

	if updated.Content != "terrible awful garbage" {
		t.Errorf("content = %q, not updated", updated.Content)
	}
	if updated.SentimentScore == nil || *updated.SentimentScore != originalScore {
		t.Errorf("sentiment score changed on edit: %v", updated.SentimentScore)
	}
	if updated.SentimentLabel != originalLabel {
		t.Errorf("sentiment label changed on edit: %v", updated.SentimentLabel)
	}
}

func TestModerationBroadcasts(t *testing.T) {
	store := storeWithProduct("p1")
	broadcaster := &recordingBroadcaster{}
	service := NewService(store, broadcaster, nil)

	created, err := service.CreateReview(context.Background(), CreateReviewInput{
		ProductID: "p1",
		UserID:    "u1",
		Rating:    3,
		Content:   "works as described",
	})
	if err != nil {
		t.Fatalf("CreateReview: %v", err)
	}

	if err := service.ApproveReview(context.Background(), created.ID); err != nil {
		t.Fatalf("ApproveReview: %v", err)
	}

	stored, _ := store.GetReview(context.Background(), created.ID)
	if !stored.IsApproved {
		t.Error("review was not approved")
	}

	var sawModeration bool
	for _, e := range broadcaster.events {
		if e == "review_moderated" {
			sawModeration = true
		}
	}
	if !sawModeration {
		t.Errorf("broadcast events = %v, want review_moderated", broadcaster.events)
	}
}

func TestModerateMissingReview(t *testing.T) {
	service := NewService(newFakeStore(), nil, nil)

	if err := service.ApproveReview(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := service.RejectReview(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUserStats(t *testing.T) {
	store := newFakeStore()
	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	store.userReviews = []models.Review{
		{Rating: 5, HelpfulVotes: 3, SentimentLabel: models.SentimentPositive, CreatedAt: base},
		{Rating: 3, HelpfulVotes: 1, SentimentLabel: models.SentimentNeutral, CreatedAt: base.AddDate(0, 0, 4)},
		{Rating: 1, HelpfulVotes: 0, SentimentLabel: models.SentimentNegative, CreatedAt: base.AddDate(0, 0, 8)},
	}
	service := NewService(store, nil, nil)

	stats, err := service.Stats(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	if stats.TotalReviews != 3 {
		t.Errorf("TotalReviews = %d, want 3", stats.TotalReviews)
	}
	if stats.AverageRating != 3.0 {
		t.Errorf("AverageRating = %v, want 3.0", stats.AverageRating)
	}
	if stats.TotalHelpfulVotes != 4 {
		t.Errorf("TotalHelpfulVotes = %d, want 4", stats.TotalHelpfulVotes)
	}
	if stats.PositiveReviews != 1 || stats.NeutralReviews != 1 || stats.NegativeReviews != 1 {
		t.Errorf("distribution = (%d, %d, %d), want (1, 1, 1)",
			stats.PositiveReviews, stats.NeutralReviews, stats.NegativeReviews)
	}
	if stats.MeanDaysBetweenPosts != 4.0 {
		t.Errorf("MeanDaysBetweenPosts = %v, want 4.0", stats.MeanDaysBetweenPosts)
	}

	wantTimeline := []UserMonthBucket{
		{Month: "2026-08", ReviewCount: 1},
		{Month: "2026-09", ReviewCount: 2},
	}
	if !reflect.DeepEqual(stats.Timeline, wantTimeline) {
		t.Errorf("Timeline = %+v, want %+v", stats.Timeline, wantTimeline)
	}
}

func TestUserStatsEmpty(t *testing.T) {
	service := NewService(newFakeStore(), nil, nil)

	stats, err := service.Stats(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalReviews != 0 || stats.FirstReviewAt != nil {
		t.Errorf("expected zero-valued stats, got %+v", stats)
	}
}

type recordingBroadcaster struct {
	events []string
}

func (r *recordingBroadcaster) Broadcast(event string, payload interface{}) {
	r.events = append(r.events, event)
}

package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/reviewhub/backend/internal/storage/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	if err := client.InitSchema(); err != nil {
		t.Fatalf("InitSchema: %v", err)
	}
	// Schema creation must be re-runnable.
	if err := client.InitSchema(); err != nil {
		t.Fatalf("InitSchema (second run): %v", err)
	}
	return client
}

func seedProductAndUser(t *testing.T, c *Client, productID, userID string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	err := c.CreateProduct(ctx, &models.Product{
		ID: productID, Name: "Widget " + productID, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	err = c.CreateUser(ctx, &models.User{
		ID: userID, Username: "user-" + userID, CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
}

func TestReviewLifecycle(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	seedProductAndUser(t, client, "p1", "u1")

	score := 0.6
	now := time.Now().UTC()
	review := &models.Review{
		ID:             "r1",
		ProductID:      "p1",
		UserID:         "u1",
		Rating:         5,
		Content:        "works great",
		SentimentScore: &score,
		SentimentLabel: models.SentimentPositive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := client.InsertReview(ctx, review); err != nil {
		t.Fatalf("InsertReview: %v", err)
	}

	exists, err := client.HasUserReview(ctx, "p1", "u1")
	if err != nil {
		t.Fatalf("HasUserReview: %v", err)
	}
	if !exists {
		t.Error("HasUserReview = false after insert")
	}

	// One review per (product, user) is enforced by the schema.
	dup := *review
	dup.ID = "r2"
	if err := client.InsertReview(ctx, &dup); err == nil {
		t.Error("duplicate (product, user) insert succeeded, want constraint error")
	}

	if err := client.SetReviewApproval(ctx, "r1", true); err != nil {
		t.Fatalf("SetReviewApproval: %v", err)
	}

	count, err := client.CountApprovedReviews(ctx)
	if err != nil {
		t.Fatalf("CountApprovedReviews: %v", err)
	}
	if count != 1 {
		t.Errorf("approved count = %d, want 1", count)
	}

	// Editing content must leave the sentiment columns untouched.
	if err := client.UpdateReviewContent(ctx, "r1", "actually terrible"); err != nil {
		t.Fatalf("UpdateReviewContent: %v", err)
	}

	got, err := client.GetReview(ctx, "r1")
	if err != nil {
		t.Fatalf("GetReview: %v", err)
	}
	if got.Content != "actually terrible" {
		t.Errorf("content = %q, not updated", got.Content)
	}
	if got.SentimentScore == nil || *got.SentimentScore != 0.6 {
		t.Errorf("sentiment score = %v, want the original 0.6", got.SentimentScore)
	}
	if got.SentimentLabel != models.SentimentPositive {
		t.Errorf("sentiment label = %v, want the original positive", got.SentimentLabel)
	}
}

func TestProductViewsAccumulate(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	seedProductAndUser(t, client, "p1", "u1")

	day := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := client.IncrementProductViews(ctx, "p1", day, 1); err != nil {
			t.Fatalf("IncrementProductViews: %v", err)
		}
	}
	if err := client.IncrementProductViews(ctx, "p1", day, 5); err != nil {
		t.Fatalf("IncrementProductViews: %v", err)
	}

	views, err := client.ViewsOnDate(ctx, "p1", day)
	if err != nil {
		t.Fatalf("ViewsOnDate: %v", err)
	}
	if views != 8 {
		t.Errorf("views = %d, want 8", views)
	}

	other, err := client.ViewsOnDate(ctx, "p1", day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("ViewsOnDate: %v", err)
	}
	if other != 0 {
		t.Errorf("views on other day = %d, want 0", other)
	}
}

func TestProductSnapshotUpsert(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	seedProductAndUser(t, client, "p1", "u1")

	day := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	snap := &models.ProductSnapshot{
		ProductID: "p1", Date: day, Views: 10, ReviewCount: 2,
		AverageRating: 4.5, AverageSentiment: 0.3, ConversionRate: 0.2,
	}
	if err := client.UpsertProductSnapshot(ctx, snap); err != nil {
		t.Fatalf("UpsertProductSnapshot: %v", err)
	}

	// Recomputing the same day overwrites instead of duplicating.
	snap.Views = 20
	snap.ConversionRate = 0.1
	if err := client.UpsertProductSnapshot(ctx, snap); err != nil {
		t.Fatalf("UpsertProductSnapshot (second): %v", err)
	}

	got, err := client.GetProductSnapshot(ctx, "p1", day)
	if err != nil {
		t.Fatalf("GetProductSnapshot: %v", err)
	}
	if got.Views != 20 || got.ConversionRate != 0.1 {
		t.Errorf("snapshot = %+v, want the overwritten values", got)
	}

	list, err := client.ListProductSnapshots(ctx, "p1", day.AddDate(0, 0, -7), day)
	if err != nil {
		t.Fatalf("ListProductSnapshots: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("snapshots = %d, want 1", len(list))
	}
}

func TestCategorySnapshotRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	now := time.Now().UTC()

	err := client.CreateCategory(ctx, &models.Category{ID: "c1", Name: "Gadgets", CreatedAt: now})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	day := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	snap := &models.CategorySnapshot{
		CategoryID: "c1", Date: day, TotalProducts: 4, TotalReviews: 9,
		AverageRating: 4.1, AverageSentiment: 0.25,
		TopProducts: []string{"p2", "p1"},
	}
	if err := client.UpsertCategorySnapshot(ctx, snap); err != nil {
		t.Fatalf("UpsertCategorySnapshot: %v", err)
	}

	got, err := client.GetCategorySnapshot(ctx, "c1", day)
	if err != nil {
		t.Fatalf("GetCategorySnapshot: %v", err)
	}
	if got.TotalProducts != 4 || got.TotalReviews != 9 {
		t.Errorf("snapshot = %+v", got)
	}
	if len(got.TopProducts) != 2 || got.TopProducts[0] != "p2" {
		t.Errorf("TopProducts = %v, want [p2 p1]", got.TopProducts)
	}
}

func TestTrendEntryPartition(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	seedProductAndUser(t, client, "p1", "u1")
	seedProductAndUser(t, client, "p2", "u2")

	day := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	entries := []models.TrendEntry{
		{ProductID: "p1", Period: models.PeriodDaily, Date: day, TrendScore: 0.8, Rank: 1},
		{ProductID: "p2", Period: models.PeriodDaily, Date: day, TrendScore: 0.3, Rank: 2},
	}
	for i := range entries {
		if err := client.UpsertTrendEntry(ctx, &entries[i]); err != nil {
			t.Fatalf("UpsertTrendEntry: %v", err)
		}
	}

	// A rerun of the partition swaps the ranking in place.
	swapped := []models.TrendEntry{
		{ProductID: "p2", Period: models.PeriodDaily, Date: day, TrendScore: 0.9, Rank: 1},
		{ProductID: "p1", Period: models.PeriodDaily, Date: day, TrendScore: 0.4, Rank: 2},
	}
	for i := range swapped {
		if err := client.UpsertTrendEntry(ctx, &swapped[i]); err != nil {
			t.Fatalf("UpsertTrendEntry (rerun): %v", err)
		}
	}

	got, err := client.ListTrendEntries(ctx, models.PeriodDaily, day, 10)
	if err != nil {
		t.Fatalf("ListTrendEntries: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2", len(got))
	}
	if got[0].ProductID != "p2" || got[0].Rank != 1 {
		t.Errorf("top entry = %+v, want p2 at rank 1", got[0])
	}

	// Other periods stay separate partitions.
	weekly, err := client.ListTrendEntries(ctx, models.PeriodWeekly, day, 10)
	if err != nil {
		t.Fatalf("ListTrendEntries (weekly): %v", err)
	}
	if len(weekly) != 0 {
		t.Errorf("weekly entries = %d, want 0", len(weekly))
	}
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/reviewhub/backend/internal/storage/models"
	"github.com/reviewhub/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS canonical_products (
		id TEXT PRIMARY KEY,
		canonical_name TEXT UNIQUE NOT NULL,
		description TEXT,
		category_id TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (category_id) REFERENCES categories(id)
	);
	CREATE INDEX IF NOT EXISTS idx_canonical_category ON canonical_products(category_id);

	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		canonical_id TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		FOREIGN KEY (canonical_id) REFERENCES canonical_products(id)
	);
	CREATE INDEX IF NOT EXISTS idx_products_canonical ON products(canonical_id);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		email TEXT,
		is_staff INTEGER DEFAULT 0,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reviews (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		rating INTEGER NOT NULL,
		content TEXT NOT NULL,
		sentiment_score REAL,
		sentiment_label TEXT,
		is_approved INTEGER DEFAULT 0,
		helpful_votes INTEGER DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		UNIQUE(product_id, user_id),
		FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_reviews_product ON reviews(product_id);
	CREATE INDEX IF NOT EXISTS idx_reviews_user ON reviews(user_id);
	CREATE INDEX IF NOT EXISTS idx_reviews_created ON reviews(created_at);
	CREATE INDEX IF NOT EXISTS idx_reviews_approved ON reviews(is_approved);

	CREATE TABLE IF NOT EXISTS comments (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		content TEXT NOT NULL,
		is_approved INTEGER DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_comments_product ON comments(product_id);
	CREATE INDEX IF NOT EXISTS idx_comments_approved ON comments(is_approved);

	CREATE TABLE IF NOT EXISTS product_views (
		product_id TEXT NOT NULL,
		date TEXT NOT NULL,
		views INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (product_id, date),
		FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS product_snapshots (
		product_id TEXT NOT NULL,
		date TEXT NOT NULL,
		views INTEGER NOT NULL,
		review_count INTEGER NOT NULL,
		average_rating REAL NOT NULL,
		average_sentiment REAL NOT NULL,
		conversion_rate REAL NOT NULL,
		PRIMARY KEY (product_id, date),
		FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_product_snapshots_date ON product_snapshots(date);

	CREATE TABLE IF NOT EXISTS category_snapshots (
		category_id TEXT NOT NULL,
		date TEXT NOT NULL,
		total_products INTEGER NOT NULL,
		total_reviews INTEGER NOT NULL,
		average_rating REAL NOT NULL,
		average_sentiment REAL NOT NULL,
		top_products TEXT,
		PRIMARY KEY (category_id, date),
		FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS trend_entries (
		product_id TEXT NOT NULL,
		period TEXT NOT NULL,
		date TEXT NOT NULL,
		trend_score REAL NOT NULL,
		rank INTEGER NOT NULL,
		PRIMARY KEY (product_id, period, date),
		FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_trend_partition ON trend_entries(period, date, rank);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func dateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func dayBounds(t time.Time) (int64, int64) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start.Unix(), start.Add(24 * time.Hour).Unix()
}

func parseDateKey(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

// --- categories / products / users ---

func (c *Client) CreateCategory(ctx context.Context, cat *models.Category) error {
	query := `INSERT INTO categories (id, name, created_at) VALUES (?, ?, ?)`

	_, err := c.db.ExecContext(ctx, query, cat.ID, cat.Name, cat.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

func (c *Client) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	var cat models.Category
	var createdAt int64
	err := c.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM categories WHERE id = ?`, id,
	).Scan(&cat.ID, &cat.Name, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	cat.CreatedAt = time.Unix(createdAt, 0)
	return &cat, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, name, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var cats []models.Category
	for rows.Next() {
		var cat models.Category
		var createdAt int64
		if err := rows.Scan(&cat.ID, &cat.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		cat.CreatedAt = time.Unix(createdAt, 0)
		cats = append(cats, cat)
	}
	return cats, rows.Err()
}

func (c *Client) CreateCanonicalProduct(ctx context.Context, cp *models.CanonicalProduct) error {
	query := `INSERT INTO canonical_products (id, canonical_name, description, category_id, created_at) VALUES (?, ?, ?, ?, ?)`

	_, err := c.db.ExecContext(ctx, query, cp.ID, cp.CanonicalName, cp.Description, cp.CategoryID, cp.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert canonical product: %w", err)
	}
	return nil
}

func (c *Client) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `INSERT INTO products (id, name, description, canonical_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`

	canonical := sql.NullString{String: p.CanonicalID, Valid: p.CanonicalID != ""}
	_, err := c.db.ExecContext(ctx, query, p.ID, p.Name, p.Description, canonical, p.CreatedAt.Unix(), p.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	query := `SELECT id, name, description, COALESCE(canonical_id, ''), created_at, updated_at FROM products WHERE id = ?`

	var p models.Product
	var createdAt, updatedAt int64

	err := c.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Description, &p.CanonicalID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return &p, nil
}

func (c *Client) ListProducts(ctx context.Context, limit, offset int) ([]models.Product, error) {
	query := `
		SELECT id, name, description, COALESCE(canonical_id, ''), created_at, updated_at
		FROM products
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := c.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		var createdAt, updatedAt int64
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CanonicalID, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		p.CreatedAt = time.Unix(createdAt, 0)
		p.UpdatedAt = time.Unix(updatedAt, 0)
		products = append(products, p)
	}
	return products, rows.Err()
}

func (c *Client) ListProductIDs(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list product ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (c *Client) ListCategoryProductIDs(ctx context.Context, categoryID string) ([]string, error) {
	query := `
		SELECT p.id
		FROM products p
		JOIN canonical_products cp ON p.canonical_id = cp.id
		WHERE cp.category_id = ?
		ORDER BY p.id
	`

	rows, err := c.db.QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list category products: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (c *Client) ListCategoryIDs(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list category ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (c *Client) CreateUser(ctx context.Context, u *models.User) error {
	query := `INSERT INTO users (id, username, email, is_staff, created_at) VALUES (?, ?, ?, ?, ?)`

	isStaff := 0
	if u.IsStaff {
		isStaff = 1
	}

	_, err := c.db.ExecContext(ctx, query, u.ID, u.Username, u.Email, isStaff, u.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, username, COALESCE(email, ''), is_staff, created_at FROM users WHERE id = ?`

	var u models.User
	var isStaff int
	var createdAt int64

	err := c.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Username, &u.Email, &isStaff, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.IsStaff = isStaff == 1
	u.CreatedAt = time.Unix(createdAt, 0)
	return &u, nil
}

func (c *Client) CountProducts(ctx context.Context) (int, error) {
	return c.countQuery(ctx, `SELECT COUNT(*) FROM products`)
}

func (c *Client) CountUsers(ctx context.Context) (int, error) {
	return c.countQuery(ctx, `SELECT COUNT(*) FROM users`)
}

func (c *Client) CountCategories(ctx context.Context) (int, error) {
	return c.countQuery(ctx, `SELECT COUNT(*) FROM categories`)
}

func (c *Client) CountApprovedReviews(ctx context.Context) (int, error) {
	return c.countQuery(ctx, `SELECT COUNT(*) FROM reviews WHERE is_approved = 1`)
}

func (c *Client) countQuery(ctx context.Context, query string, args ...interface{}) (int, error) {
	var count int
	if err := c.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return count, nil
}

// --- reviews ---

func (c *Client) InsertReview(ctx context.Context, r *models.Review) error {
	query := `
		INSERT INTO reviews (id, product_id, user_id, rating, content, sentiment_score, sentiment_label,
			is_approved, helpful_votes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	isApproved := 0
	if r.IsApproved {
		isApproved = 1
	}

	var score sql.NullFloat64
	if r.SentimentScore != nil {
		score = sql.NullFloat64{Float64: *r.SentimentScore, Valid: true}
	}

	_, err := c.db.ExecContext(ctx, query,
		r.ID, r.ProductID, r.UserID, r.Rating, r.Content,
		score, string(r.SentimentLabel), isApproved, r.HelpfulVotes,
		r.CreatedAt.Unix(), r.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}

	logger.Debug("Review inserted", zap.String("review_id", r.ID), zap.String("product_id", r.ProductID))
	return nil
}

func (c *Client) GetReview(ctx context.Context, id string) (*models.Review, error) {
	query := `
		SELECT id, product_id, user_id, rating, content, sentiment_score, COALESCE(sentiment_label, ''),
			is_approved, helpful_votes, created_at, updated_at
		FROM reviews WHERE id = ?
	`

	row := c.db.QueryRowContext(ctx, query, id)
	review, err := scanReview(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

func (c *Client) HasUserReview(ctx context.Context, productID, userID string) (bool, error) {
	var count int
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE product_id = ? AND user_id = ?`,
		productID, userID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check existing review: %w", err)
	}
	return count > 0, nil
}

// UpdateReviewContent rewrites the review text only. Sentiment columns are
// deliberately left alone: they reflect the content at creation time.
func (c *Client) UpdateReviewContent(ctx context.Context, id, content string) error {
	query := `UPDATE reviews SET content = ?, updated_at = ? WHERE id = ?`

	res, err := c.db.ExecContext(ctx, query, content, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update review content: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (c *Client) SetReviewApproval(ctx context.Context, id string, approved bool) error {
	isApproved := 0
	if approved {
		isApproved = 1
	}

	res, err := c.db.ExecContext(ctx,
		`UPDATE reviews SET is_approved = ?, updated_at = ? WHERE id = ?`,
		isApproved, time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set review approval: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (c *Client) IncrementHelpfulVotes(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `UPDATE reviews SET helpful_votes = helpful_votes + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment helpful votes: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (c *Client) ListPendingReviews(ctx context.Context, limit int) ([]models.Review, error) {
	query := reviewSelect + ` WHERE is_approved = 0 ORDER BY created_at LIMIT ?`
	return c.queryReviews(ctx, query, limit)
}

func (c *Client) ListApprovedReviewsForProduct(ctx context.Context, productID string, limit int) ([]models.Review, error) {
	query := reviewSelect + ` WHERE product_id = ? AND is_approved = 1 ORDER BY created_at DESC LIMIT ?`
	return c.queryReviews(ctx, query, productID, limit)
}

func (c *Client) ListUserApprovedReviews(ctx context.Context, userID string) ([]models.Review, error) {
	query := reviewSelect + ` WHERE user_id = ? AND is_approved = 1 ORDER BY created_at`
	return c.queryReviews(ctx, query, userID)
}

func (c *Client) ListApprovedReviewsOnDate(ctx context.Context, productID string, day time.Time) ([]models.Review, error) {
	start, end := dayBounds(day)
	query := reviewSelect + ` WHERE product_id = ? AND is_approved = 1 AND created_at >= ? AND created_at < ? ORDER BY created_at`
	return c.queryReviews(ctx, query, productID, start, end)
}

func (c *Client) ListApprovedReviewsForProductsOnDate(ctx context.Context, productIDs []string, day time.Time) ([]models.Review, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	start, end := dayBounds(day)
	query := reviewSelect + ` WHERE is_approved = 1 AND created_at >= ? AND created_at < ? AND product_id IN (`
	args := []interface{}{start, end}
	for i, id := range productIDs {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += `) ORDER BY created_at`

	return c.queryReviews(ctx, query, args...)
}

func (c *Client) CountApprovedReviewsBetween(ctx context.Context, productID string, from, to time.Time) (int, error) {
	return c.countQuery(ctx,
		`SELECT COUNT(*) FROM reviews WHERE product_id = ? AND is_approved = 1 AND created_at >= ? AND created_at < ?`,
		productID, from.Unix(), to.Unix(),
	)
}

func (c *Client) CountApprovedReviewsSince(ctx context.Context, since time.Time) (int, error) {
	return c.countQuery(ctx,
		`SELECT COUNT(*) FROM reviews WHERE is_approved = 1 AND created_at >= ?`,
		since.Unix(),
	)
}

func (c *Client) SentimentStatsSince(ctx context.Context, since time.Time) (float64, int, int, int, error) {
	query := `
		SELECT
			COALESCE(AVG(sentiment_score), 0),
			COALESCE(SUM(CASE WHEN sentiment_label = 'positive' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN sentiment_label = 'negative' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN sentiment_label = 'neutral' THEN 1 ELSE 0 END), 0)
		FROM reviews
		WHERE is_approved = 1 AND created_at >= ?
	`

	var avg float64
	var pos, neg, neu int
	err := c.db.QueryRowContext(ctx, query, since.Unix()).Scan(&avg, &pos, &neg, &neu)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to get sentiment stats: %w", err)
	}
	return avg, pos, neg, neu, nil
}

func (c *Client) ApprovedReviewContentsSince(ctx context.Context, since time.Time, limit int) ([]string, error) {
	query := `
		SELECT content FROM reviews
		WHERE is_approved = 1 AND created_at >= ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := c.db.QueryContext(ctx, query, since.Unix(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get review contents: %w", err)
	}
	defer rows.Close()

	var contents []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		contents = append(contents, content)
	}
	return contents, rows.Err()
}

func (c *Client) ReviewMonthStats(ctx context.Context, from, to time.Time) (models.MonthStats, error) {
	query := `
		SELECT COUNT(*), COALESCE(AVG(rating), 0), COALESCE(AVG(sentiment_score), 0)
		FROM reviews
		WHERE is_approved = 1 AND created_at >= ? AND created_at < ?
	`

	var stats models.MonthStats
	err := c.db.QueryRowContext(ctx, query, from.Unix(), to.Unix()).Scan(
		&stats.ReviewCount, &stats.AverageRating, &stats.AverageSentiment,
	)
	if err != nil {
		return models.MonthStats{}, fmt.Errorf("failed to get month stats: %w", err)
	}
	return stats, nil
}

func (c *Client) TopRatedProducts(ctx context.Context, minReviews, limit int) ([]models.ProductRating, error) {
	query := `
		SELECT p.id, p.name, AVG(r.rating), COUNT(r.id)
		FROM products p
		JOIN reviews r ON r.product_id = p.id AND r.is_approved = 1
		GROUP BY p.id, p.name
		HAVING COUNT(r.id) >= ?
		ORDER BY AVG(r.rating) DESC, p.id
		LIMIT ?
	`
	return c.queryProductRatings(ctx, query, minReviews, limit)
}

func (c *Client) TopRatedProductsInCategory(ctx context.Context, categoryID string, minReviews, limit int) ([]models.ProductRating, error) {
	query := `
		SELECT p.id, p.name, AVG(r.rating), COUNT(r.id)
		FROM products p
		JOIN canonical_products cp ON p.canonical_id = cp.id
		JOIN reviews r ON r.product_id = p.id AND r.is_approved = 1
		WHERE cp.category_id = ?
		GROUP BY p.id, p.name
		HAVING COUNT(r.id) >= ?
		ORDER BY AVG(r.rating) DESC, p.id
		LIMIT ?
	`
	return c.queryProductRatings(ctx, query, categoryID, minReviews, limit)
}

func (c *Client) CategoryReviewStatsSince(ctx context.Context, categoryID string, since time.Time) (models.CategoryReviewStats, error) {
	query := `
		SELECT
			COUNT(r.id),
			COALESCE(AVG(r.rating), 0),
			COALESCE(AVG(r.sentiment_score), 0),
			COALESCE(SUM(CASE WHEN r.sentiment_label = 'positive' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN r.sentiment_label = 'negative' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN r.sentiment_label = 'neutral' THEN 1 ELSE 0 END), 0)
		FROM reviews r
		JOIN products p ON r.product_id = p.id
		JOIN canonical_products cp ON p.canonical_id = cp.id
		WHERE cp.category_id = ? AND r.is_approved = 1 AND r.created_at >= ?
	`

	var stats models.CategoryReviewStats
	err := c.db.QueryRowContext(ctx, query, categoryID, since.Unix()).Scan(
		&stats.ReviewCount, &stats.AverageRating, &stats.AverageSentiment,
		&stats.Positive, &stats.Negative, &stats.Neutral,
	)
	if err != nil {
		return models.CategoryReviewStats{}, fmt.Errorf("failed to get category review stats: %w", err)
	}
	return stats, nil
}

func (c *Client) CategoryReviewContentsSince(ctx context.Context, categoryID string, since time.Time, limit int) ([]string, error) {
	query := `
		SELECT r.content
		FROM reviews r
		JOIN products p ON r.product_id = p.id
		JOIN canonical_products cp ON p.canonical_id = cp.id
		WHERE cp.category_id = ? AND r.is_approved = 1 AND r.created_at >= ?
		ORDER BY r.created_at DESC
		LIMIT ?
	`

	rows, err := c.db.QueryContext(ctx, query, categoryID, since.Unix(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get category review contents: %w", err)
	}
	defer rows.Close()

	var contents []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		contents = append(contents, content)
	}
	return contents, rows.Err()
}

func (c *Client) queryProductRatings(ctx context.Context, query string, args ...interface{}) ([]models.ProductRating, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query product ratings: %w", err)
	}
	defer rows.Close()

	var ratings []models.ProductRating
	for rows.Next() {
		var r models.ProductRating
		if err := rows.Scan(&r.ProductID, &r.Name, &r.AverageRating, &r.ReviewCount); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

func (c *Client) CategoryPerformance(ctx context.Context, limit int) ([]models.CategoryPerformance, error) {
	query := `
		SELECT c.id, c.name,
			COUNT(DISTINCT p.id),
			COUNT(r.id),
			COALESCE(AVG(r.rating), 0)
		FROM categories c
		LEFT JOIN canonical_products cp ON cp.category_id = c.id
		LEFT JOIN products p ON p.canonical_id = cp.id
		LEFT JOIN reviews r ON r.product_id = p.id AND r.is_approved = 1
		GROUP BY c.id, c.name
		ORDER BY COUNT(r.id) DESC, c.id
		LIMIT ?
	`

	rows, err := c.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query category performance: %w", err)
	}
	defer rows.Close()

	var stats []models.CategoryPerformance
	for rows.Next() {
		var s models.CategoryPerformance
		if err := rows.Scan(&s.CategoryID, &s.Name, &s.ProductCount, &s.ReviewCount, &s.AverageRating); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

const reviewSelect = `
	SELECT id, product_id, user_id, rating, content, sentiment_score, COALESCE(sentiment_label, ''),
		is_approved, helpful_votes, created_at, updated_at
	FROM reviews
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReview(row rowScanner) (*models.Review, error) {
	var r models.Review
	var score sql.NullFloat64
	var label string
	var isApproved int
	var createdAt, updatedAt int64

	err := row.Scan(&r.ID, &r.ProductID, &r.UserID, &r.Rating, &r.Content,
		&score, &label, &isApproved, &r.HelpfulVotes, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if score.Valid {
		v := score.Float64
		r.SentimentScore = &v
	}
	r.SentimentLabel = models.SentimentLabel(label)
	r.IsApproved = isApproved == 1
	r.CreatedAt = time.Unix(createdAt, 0)
	r.UpdatedAt = time.Unix(updatedAt, 0)
	return &r, nil
}

func (c *Client) queryReviews(ctx context.Context, query string, args ...interface{}) ([]models.Review, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		reviews = append(reviews, *r)
	}
	return reviews, rows.Err()
}

// --- comments ---

func (c *Client) InsertComment(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (id, product_id, user_id, content, is_approved, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	isApproved := 0
	if comment.IsApproved {
		isApproved = 1
	}

	_, err := c.db.ExecContext(ctx, query,
		comment.ID, comment.ProductID, comment.UserID, comment.Content,
		isApproved, comment.CreatedAt.Unix(), comment.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

func (c *Client) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	query := `
		SELECT id, product_id, user_id, content, is_approved, created_at, updated_at
		FROM comments WHERE id = ?
	`

	var cm models.Comment
	var isApproved int
	var createdAt, updatedAt int64

	err := c.db.QueryRowContext(ctx, query, id).Scan(
		&cm.ID, &cm.ProductID, &cm.UserID, &cm.Content, &isApproved, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	cm.IsApproved = isApproved == 1
	cm.CreatedAt = time.Unix(createdAt, 0)
	cm.UpdatedAt = time.Unix(updatedAt, 0)
	return &cm, nil
}

func (c *Client) SetCommentApproval(ctx context.Context, id string, approved bool) error {
	isApproved := 0
	if approved {
		isApproved = 1
	}

	res, err := c.db.ExecContext(ctx,
		`UPDATE comments SET is_approved = ?, updated_at = ? WHERE id = ?`,
		isApproved, time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set comment approval: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (c *Client) ListPendingComments(ctx context.Context, limit int) ([]models.Comment, error) {
	return c.queryComments(ctx,
		`SELECT id, product_id, user_id, content, is_approved, created_at, updated_at
		 FROM comments WHERE is_approved = 0 ORDER BY created_at LIMIT ?`, limit)
}

func (c *Client) ListApprovedCommentsForProduct(ctx context.Context, productID string, limit int) ([]models.Comment, error) {
	return c.queryComments(ctx,
		`SELECT id, product_id, user_id, content, is_approved, created_at, updated_at
		 FROM comments WHERE product_id = ? AND is_approved = 1 ORDER BY created_at DESC LIMIT ?`, productID, limit)
}

func (c *Client) queryComments(ctx context.Context, query string, args ...interface{}) ([]models.Comment, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var cm models.Comment
		var isApproved int
		var createdAt, updatedAt int64
		if err := rows.Scan(&cm.ID, &cm.ProductID, &cm.UserID, &cm.Content, &isApproved, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		cm.IsApproved = isApproved == 1
		cm.CreatedAt = time.Unix(createdAt, 0)
		cm.UpdatedAt = time.Unix(updatedAt, 0)
		comments = append(comments, cm)
	}
	return comments, rows.Err()
}

// --- views ---

func (c *Client) IncrementProductViews(ctx context.Context, productID string, day time.Time, delta int64) error {
	query := `
		INSERT INTO product_views (product_id, date, views)
		VALUES (?, ?, ?)
		ON CONFLICT(product_id, date) DO UPDATE SET views = views + excluded.views
	`

	_, err := c.db.ExecContext(ctx, query, productID, dateKey(day), delta)
	if err != nil {
		return fmt.Errorf("failed to increment product views: %w", err)
	}
	return nil
}

func (c *Client) ViewsOnDate(ctx context.Context, productID string, day time.Time) (int64, error) {
	var views int64
	err := c.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(views), 0) FROM product_views WHERE product_id = ? AND date = ?`,
		productID, dateKey(day),
	).Scan(&views)
	if err != nil {
		return 0, fmt.Errorf("failed to get views: %w", err)
	}
	return views, nil
}

// --- snapshots ---

func (c *Client) UpsertProductSnapshot(ctx context.Context, s *models.ProductSnapshot) error {
	query := `
		INSERT INTO product_snapshots (product_id, date, views, review_count, average_rating, average_sentiment, conversion_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(product_id, date) DO UPDATE SET
			views = excluded.views,
			review_count = excluded.review_count,
			average_rating = excluded.average_rating,
			average_sentiment = excluded.average_sentiment,
			conversion_rate = excluded.conversion_rate
	`

	_, err := c.db.ExecContext(ctx, query,
		s.ProductID, dateKey(s.Date), s.Views, s.ReviewCount,
		s.AverageRating, s.AverageSentiment, s.ConversionRate,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert product snapshot: %w", err)
	}

	logger.Debug("Product snapshot upserted",
		zap.String("product_id", s.ProductID),
		zap.String("date", dateKey(s.Date)),
	)
	return nil
}

func (c *Client) GetProductSnapshot(ctx context.Context, productID string, day time.Time) (*models.ProductSnapshot, error) {
	query := `
		SELECT product_id, date, views, review_count, average_rating, average_sentiment, conversion_rate
		FROM product_snapshots WHERE product_id = ? AND date = ?
	`

	var s models.ProductSnapshot
	var date string
	err := c.db.QueryRowContext(ctx, query, productID, dateKey(day)).Scan(
		&s.ProductID, &date, &s.Views, &s.ReviewCount,
		&s.AverageRating, &s.AverageSentiment, &s.ConversionRate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get product snapshot: %w", err)
	}

	s.Date = parseDateKey(date)
	return &s, nil
}

func (c *Client) ListProductSnapshots(ctx context.Context, productID string, from, to time.Time) ([]models.ProductSnapshot, error) {
	query := `
		SELECT product_id, date, views, review_count, average_rating, average_sentiment, conversion_rate
		FROM product_snapshots
		WHERE product_id = ? AND date >= ? AND date <= ?
		ORDER BY date
	`

	rows, err := c.db.QueryContext(ctx, query, productID, dateKey(from), dateKey(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list product snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []models.ProductSnapshot
	for rows.Next() {
		var s models.ProductSnapshot
		var date string
		if err := rows.Scan(&s.ProductID, &date, &s.Views, &s.ReviewCount,
			&s.AverageRating, &s.AverageSentiment, &s.ConversionRate); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		s.Date = parseDateKey(date)
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

func (c *Client) UpsertCategorySnapshot(ctx context.Context, s *models.CategorySnapshot) error {
	topProductsJSON, _ := json.Marshal(s.TopProducts)

	query := `
		INSERT INTO category_snapshots (category_id, date, total_products, total_reviews, average_rating, average_sentiment, top_products)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(category_id, date) DO UPDATE SET
			total_products = excluded.total_products,
			total_reviews = excluded.total_reviews,
			average_rating = excluded.average_rating,
			average_sentiment = excluded.average_sentiment,
			top_products = excluded.top_products
	`

	_, err := c.db.ExecContext(ctx, query,
		s.CategoryID, dateKey(s.Date), s.TotalProducts, s.TotalReviews,
		s.AverageRating, s.AverageSentiment, string(topProductsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert category snapshot: %w", err)
	}
	return nil
}

func (c *Client) GetCategorySnapshot(ctx context.Context, categoryID string, day time.Time) (*models.CategorySnapshot, error) {
	query := `
		SELECT category_id, date, total_products, total_reviews, average_rating, average_sentiment, COALESCE(top_products, '[]')
		FROM category_snapshots WHERE category_id = ? AND date = ?
	`

	var s models.CategorySnapshot
	var date, topProductsJSON string
	err := c.db.QueryRowContext(ctx, query, categoryID, dateKey(day)).Scan(
		&s.CategoryID, &date, &s.TotalProducts, &s.TotalReviews,
		&s.AverageRating, &s.AverageSentiment, &topProductsJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get category snapshot: %w", err)
	}

	s.Date = parseDateKey(date)
	json.Unmarshal([]byte(topProductsJSON), &s.TopProducts)
	return &s, nil
}

// --- trend entries ---

func (c *Client) UpsertTrendEntry(ctx context.Context, e *models.TrendEntry) error {
	query := `
		INSERT INTO trend_entries (product_id, period, date, trend_score, rank)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(product_id, period, date) DO UPDATE SET
			trend_score = excluded.trend_score,
			rank = excluded.rank
	`

	_, err := c.db.ExecContext(ctx, query,
		e.ProductID, string(e.Period), dateKey(e.Date), e.TrendScore, e.Rank,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert trend entry: %w", err)
	}
	return nil
}

func (c *Client) ListTrendEntries(ctx context.Context, period models.TrendPeriod, day time.Time, limit int) ([]models.TrendEntry, error) {
	query := `
		SELECT product_id, period, date, trend_score, rank
		FROM trend_entries
		WHERE period = ? AND date = ?
		ORDER BY rank, product_id
		LIMIT ?
	`

	rows, err := c.db.QueryContext(ctx, query, string(period), dateKey(day), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list trend entries: %w", err)
	}
	defer rows.Close()

	var entries []models.TrendEntry
	for rows.Next() {
		var e models.TrendEntry
		var period, date string
		if err := rows.Scan(&e.ProductID, &period, &date, &e.TrendScore, &e.Rank); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		e.Period = models.TrendPeriod(period)
		e.Date = parseDateKey(date)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

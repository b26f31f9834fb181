package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/reviewhub/backend/internal/analytics/dashboard"
	"github.com/reviewhub/backend/internal/analytics/keywords"
	"github.com/reviewhub/backend/internal/analytics/sentiment"
	"github.com/reviewhub/backend/internal/storage/models"
	"github.com/reviewhub/backend/internal/storage/sqlite"
	"github.com/reviewhub/backend/pkg/logger"
)

type AnalyticsHandler struct {
	store     *sqlite.Client
	composer  *dashboard.Composer
	analyzer  *sentiment.Analyzer
	extractor *keywords.Extractor
}

func NewAnalyticsHandler(store *sqlite.Client, composer *dashboard.Composer) *AnalyticsHandler {
	return &AnalyticsHandler{
		store:     store,
		composer:  composer,
		analyzer:  sentiment.NewAnalyzer(),
		extractor: keywords.NewExtractor(),
	}
}

// GetDashboard always answers 200. When composition fails the body is an
// empty object; the silent-failure counter is the only distress signal.
func (h *AnalyticsHandler) GetDashboard(c *fiber.Ctx) error {
	payload := h.composer.Dashboard(c.Context())
	if payload == nil {
		return c.JSON(fiber.Map{})
	}
	return c.JSON(payload)
}

func (h *AnalyticsHandler) GetCategoryInsights(c *fiber.Ctx) error {
	categoryID := c.Params("id")

	category, err := h.store.GetCategory(c.Context(), categoryID)
	if err != nil {
		logger.Error("Failed to look up category", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to look up category",
		})
	}
	if category == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Category not found",
		})
	}

	insights := h.composer.Insights(c.Context(), categoryID)
	if insights == nil {
		return c.JSON(fiber.Map{})
	}
	return c.JSON(insights)
}

func (h *AnalyticsHandler) GetTrending(c *fiber.Ctx) error {
	period := models.TrendPeriod(c.Query("period", string(models.PeriodDaily)))
	switch period {
	case models.PeriodDaily, models.PeriodWeekly, models.PeriodMonthly:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "period must be daily, weekly or monthly",
		})
	}

	day := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "date must be formatted as YYYY-MM-DD",
			})
		}
		day = parsed
	}

	limit := c.QueryInt("limit", 10)
	if limit < 1 || limit > 100 {
		limit = 10
	}

	entries, err := h.store.ListTrendEntries(c.Context(), period, day, limit)
	if err != nil {
		logger.Error("Failed to list trend entries", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list trend entries",
		})
	}

	items := make([]fiber.Map, 0, len(entries))
	for _, e := range entries {
		items = append(items, fiber.Map{
			"product_id":  e.ProductID,
			"trend_score": e.TrendScore,
			"rank":        e.Rank,
		})
	}

	return c.JSON(fiber.Map{
		"period":   string(period),
		"date":     day.Format("2006-01-02"),
		"trending": items,
	})
}

// ScoreSentiment scores arbitrary text without persisting anything. Useful
// for previewing how a draft review will be classified.
func (h *AnalyticsHandler) ScoreSentiment(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	score, label := h.analyzer.Score(req.Text)
	return c.JSON(fiber.Map{
		"score": score,
		"label": string(label),
	})
}

func (h *AnalyticsHandler) ExtractKeywords(c *fiber.Ctx) error {
	var req struct {
		Documents []string `json:"documents"`
		MaxTerms  int      `json:"max_terms"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	terms := h.extractor.Extract(req.Documents, req.MaxTerms)
	if terms == nil {
		terms = []keywords.Keyword{}
	}

	return c.JSON(fiber.Map{
		"keywords": terms,
	})
}

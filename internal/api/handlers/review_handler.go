package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/reviewhub/backend/internal/reviews"
	"github.com/reviewhub/backend/internal/storage/models"
	"github.com/reviewhub/backend/pkg/logger"
)

type ReviewHandler struct {
	service *reviews.Service
}

func NewReviewHandler(service *reviews.Service) *ReviewHandler {
	return &ReviewHandler{
		service: service,
	}
}

func (h *ReviewHandler) CreateReview(c *fiber.Ctx) error {
	var req reviews.CreateReviewInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.ProductID == "" || req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "product_id and user_id are required",
		})
	}

	review, err := h.service.CreateReview(c.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, reviews.ErrInvalidRating), errors.Is(err, reviews.ErrEmptyContent):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		case errors.Is(err, reviews.ErrDuplicateReview):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		case errors.Is(err, reviews.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Product not found",
			})
		}
		logger.Error("Failed to create review", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create review",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(reviewJSON(review))
}

func (h *ReviewHandler) GetReview(c *fiber.Ctx) error {
	review, err := h.service.GetReview(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, reviews.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Review not found",
			})
		}
		logger.Error("Failed to get review", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get review",
		})
	}

	return c.JSON(reviewJSON(review))
}

func (h *ReviewHandler) UpdateReview(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	review, err := h.service.UpdateContent(c.Context(), c.Params("id"), req.Content)
	if err != nil {
		switch {
		case errors.Is(err, reviews.ErrEmptyContent):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		case errors.Is(err, reviews.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Review not found",
			})
		}
		logger.Error("Failed to update review", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update review",
		})
	}

	return c.JSON(reviewJSON(review))
}

func (h *ReviewHandler) ListProductReviews(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultPageSize)
	if limit < 1 || limit > 100 {
		limit = defaultPageSize
	}

	items, err := h.service.ProductReviews(c.Context(), c.Params("id"), limit)
	if err != nil {
		logger.Error("Failed to list reviews", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list reviews",
		})
	}

	return c.JSON(fiber.Map{
		"reviews": reviewsJSON(items),
	})
}

func (h *ReviewHandler) ListPendingReviews(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)

	items, err := h.service.PendingReviews(c.Context(), limit)
	if err != nil {
		logger.Error("Failed to list pending reviews", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list pending reviews",
		})
	}

	return c.JSON(fiber.Map{
		"reviews": reviewsJSON(items),
	})
}

func (h *ReviewHandler) ApproveReview(c *fiber.Ctx) error {
	return h.moderate(c, h.service.ApproveReview, "approved")
}

func (h *ReviewHandler) RejectReview(c *fiber.Ctx) error {
	return h.moderate(c, h.service.RejectReview, "rejected")
}

func (h *ReviewHandler) moderate(c *fiber.Ctx, fn func(ctx context.Context, id string) error, action string) error {
	if err := fn(c.Context(), c.Params("id")); err != nil {
		if errors.Is(err, reviews.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Review not found",
			})
		}
		logger.Error("Failed to moderate review", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to moderate review",
		})
	}

	return c.JSON(fiber.Map{
		"status": action,
	})
}

func (h *ReviewHandler) MarkHelpful(c *fiber.Ctx) error {
	if err := h.service.MarkHelpful(c.Context(), c.Params("id")); err != nil {
		if errors.Is(err, reviews.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Review not found",
			})
		}
		logger.Error("Failed to mark review helpful", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to mark review helpful",
		})
	}

	return c.JSON(fiber.Map{
		"status": "recorded",
	})
}

func (h *ReviewHandler) UserStats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.Context(), c.Params("id"))
	if err != nil {
		logger.Error("Failed to compute user stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute user stats",
		})
	}

	return c.JSON(stats)
}

func reviewsJSON(items []models.Review) []fiber.Map {
	out := make([]fiber.Map, 0, len(items))
	for i := range items {
		out = append(out, reviewJSON(&items[i]))
	}
	return out
}

func reviewJSON(r *models.Review) fiber.Map {
	m := fiber.Map{
		"id":              r.ID,
		"product_id":      r.ProductID,
		"user_id":         r.UserID,
		"rating":          r.Rating,
		"content":         r.Content,
		"sentiment_label": string(r.SentimentLabel),
		"is_approved":     r.IsApproved,
		"helpful_votes":   r.HelpfulVotes,
		"created_at":      r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.SentimentScore != nil {
		m["sentiment_score"] = *r.SentimentScore
	}
	return m
}

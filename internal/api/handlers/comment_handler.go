package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/reviewhub/backend/internal/reviews"
	"github.com/reviewhub/backend/internal/storage/models"
	"github.com/reviewhub/backend/pkg/logger"
)

type CommentHandler struct {
	service *reviews.Service
}

func NewCommentHandler(service *reviews.Service) *CommentHandler {
	return &CommentHandler{
		service: service,
	}
}

func (h *CommentHandler) CreateComment(c *fiber.Ctx) error {
	var req reviews.CreateCommentInput
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

	comment, err := h.service.CreateComment(c.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, reviews.ErrEmptyContent):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		case errors.Is(err, reviews.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Product not found",
			})
		}
		logger.Error("Failed to create comment", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create comment",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(commentJSON(comment))
}

func (h *CommentHandler) ListProductComments(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultPageSize)
	if limit < 1 || limit > 100 {
		limit = defaultPageSize
	}

	items, err := h.service.ProductComments(c.Context(), c.Params("id"), limit)
	if err != nil {
		logger.Error("Failed to list comments", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list comments",
		})
	}

	out := make([]fiber.Map, 0, len(items))
	for i := range items {
		out = append(out, commentJSON(&items[i]))
	}

	return c.JSON(fiber.Map{
		"comments": out,
	})
}

func (h *CommentHandler) ListPendingComments(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)

	items, err := h.service.PendingComments(c.Context(), limit)
	if err != nil {
		logger.Error("Failed to list pending comments", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list pending comments",
		})
	}

	out := make([]fiber.Map, 0, len(items))
	for i := range items {
		out = append(out, commentJSON(&items[i]))
	}

	return c.JSON(fiber.Map{
		"comments": out,
	})
}

func (h *CommentHandler) ApproveComment(c *fiber.Ctx) error {
	if err := h.service.ApproveComment(c.Context(), c.Params("id")); err != nil {
		return h.moderationError(c, err)
	}
	return c.JSON(fiber.Map{
		"status": "approved",
	})
}

func (h *CommentHandler) RejectComment(c *fiber.Ctx) error {
	if err := h.service.RejectComment(c.Context(), c.Params("id")); err != nil {
		return h.moderationError(c, err)
	}
	return c.JSON(fiber.Map{
		"status": "rejected",
	})
}

func (h *CommentHandler) moderationError(c *fiber.Ctx, err error) error {
	if errors.Is(err, reviews.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Comment not found",
		})
	}
	logger.Error("Failed to moderate comment", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to moderate comment",
	})
}

func commentJSON(cm *models.Comment) fiber.Map {
	return fiber.Map{
		"id":          cm.ID,
		"product_id":  cm.ProductID,
		"user_id":     cm.UserID,
		"content":     cm.Content,
		"is_approved": cm.IsApproved,
		"created_at":  cm.CreatedAt.UTC().Format(time.RFC3339),
	}
}

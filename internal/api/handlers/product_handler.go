package handlers

import (
	"database/sql"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reviewhub/backend/internal/reviews"
	"github.com/reviewhub/backend/internal/storage/models"
	"github.com/reviewhub/backend/internal/storage/sqlite"
	"github.com/reviewhub/backend/pkg/logger"
)

const defaultPageSize = 20

type ProductHandler struct {
	store   *sqlite.Client
	service *reviews.Service
}

func NewProductHandler(store *sqlite.Client, service *reviews.Service) *ProductHandler {
	return &ProductHandler{
		store:   store,
		service: service,
	}
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		CanonicalID string `json:"canonical_id"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}

	now := time.Now().UTC()
	product := &models.Product{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		CanonicalID: req.CanonicalID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.store.CreateProduct(c.Context(), product); err != nil {
		logger.Error("Failed to create product", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create product",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(productJSON(product))
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	product, err := h.store.GetProduct(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Product not found",
			})
		}
		logger.Error("Failed to get product", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get product",
		})
	}

	return c.JSON(productJSON(product))
}

func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultPageSize)
	offset := c.QueryInt("offset", 0)
	if limit < 1 || limit > 100 {
		limit = defaultPageSize
	}

	products, err := h.store.ListProducts(c.Context(), limit, offset)
	if err != nil {
		logger.Error("Failed to list products", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list products",
		})
	}

	items := make([]fiber.Map, 0, len(products))
	for i := range products {
		items = append(items, productJSON(&products[i]))
	}

	return c.JSON(fiber.Map{
		"products": items,
		"limit":    limit,
		"offset":   offset,
	})
}

// RecordView registers one product view for today's snapshot date.
func (h *ProductHandler) RecordView(c *fiber.Ctx) error {
	err := h.service.RecordView(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, reviews.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Product not found",
			})
		}
		logger.Error("Failed to record view", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record view",
		})
	}

	return c.JSON(fiber.Map{
		"status": "recorded",
	})
}

func (h *ProductHandler) CreateCategory(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}

	category := &models.Category{
		ID:        uuid.New().String(),
		Name:      req.Name,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.store.CreateCategory(c.Context(), category); err != nil {
		logger.Error("Failed to create category", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create category",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":   category.ID,
		"name": category.Name,
	})
}

func (h *ProductHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.store.ListCategories(c.Context())
	if err != nil {
		logger.Error("Failed to list categories", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list categories",
		})
	}

	items := make([]fiber.Map, 0, len(categories))
	for _, cat := range categories {
		items = append(items, fiber.Map{
			"id":   cat.ID,
			"name": cat.Name,
		})
	}

	return c.JSON(fiber.Map{
		"categories": items,
	})
}

func productJSON(p *models.Product) fiber.Map {
	return fiber.Map{
		"id":           p.ID,
		"name":         p.Name,
		"description":  p.Description,
		"canonical_id": p.CanonicalID,
		"created_at":   p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

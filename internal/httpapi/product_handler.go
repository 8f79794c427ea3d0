package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/service/catalog"
)

// ProductHandler обслуживает CRUD каталога товаров.
type ProductHandler struct {
	catalog *catalog.Service
	clock   domain.Clock
	logger  *log.Entry
}

// NewProductHandler создаёт handler каталога.
func NewProductHandler(service *catalog.Service, clock domain.Clock, logger *log.Entry) *ProductHandler {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if logger == nil {
		logger = log.WithField("component", "product-handler")
	}
	return &ProductHandler{catalog: service, clock: clock, logger: logger}
}

type productRequest struct {
	Name             string           `json:"name" binding:"required"`
	Price            decimal.Decimal  `json:"price"`
	Stock            int              `json:"stock"`
	TradeOfferMinQty *int             `json:"trade_offer_min_qty"`
	TradeOfferGetQty *int             `json:"trade_offer_get_qty"`
	DiscountPercent  *decimal.Decimal `json:"discount_percent"`
	OfferStartsAt    *time.Time       `json:"offer_starts_at"`
	OfferEndsAt      *time.Time       `json:"offer_ends_at"`
}

func (r *productRequest) toDomain(id string) domain.Product {
	return domain.Product{
		ID:               id,
		Name:             r.Name,
		Price:            r.Price,
		Stock:            r.Stock,
		TradeOfferMinQty: r.TradeOfferMinQty,
		TradeOfferGetQty: r.TradeOfferGetQty,
		DiscountPercent:  r.DiscountPercent,
		OfferStartsAt:    r.OfferStartsAt,
		OfferEndsAt:      r.OfferEndsAt,
	}
}

type productResponse struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Price            string           `json:"price"`
	Stock            int              `json:"stock"`
	TradeOfferMinQty *int             `json:"trade_offer_min_qty,omitempty"`
	TradeOfferGetQty *int             `json:"trade_offer_get_qty,omitempty"`
	DiscountPercent  *decimal.Decimal `json:"discount_percent,omitempty"`
	OfferStartsAt    *time.Time       `json:"offer_starts_at,omitempty"`
	OfferEndsAt      *time.Time       `json:"offer_ends_at,omitempty"`
	ActiveOfferType  string           `json:"active_offer_type"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func (h *ProductHandler) toResponse(p domain.Product) productResponse {
	return productResponse{
		ID:               p.ID,
		Name:             p.Name,
		Price:            p.Price.StringFixed(2),
		Stock:            p.Stock,
		TradeOfferMinQty: p.TradeOfferMinQty,
		TradeOfferGetQty: p.TradeOfferGetQty,
		DiscountPercent:  p.DiscountPercent,
		OfferStartsAt:    p.OfferStartsAt,
		OfferEndsAt:      p.OfferEndsAt,
		ActiveOfferType:  string(p.ActiveOfferType(h.clock.Now())),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// List обрабатывает GET /products.
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.catalog.List(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("failed to list products")
		respondError(c, http.StatusInternalServerError, "Failed to fetch products.", "internal_error")
		return
	}

	list := make([]productResponse, 0, len(products))
	for _, p := range products {
		list = append(list, h.toResponse(p))
	}
	respondSuccess(c, http.StatusOK, "Products fetched successfully.", list)
}

// Get обрабатывает GET /products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if domain.IsProductNotFound(err) {
			respondError(c, http.StatusNotFound, "Product not found.", "product_not_found")
			return
		}
		h.logger.WithError(err).Error("failed to fetch product")
		respondError(c, http.StatusInternalServerError, "Failed to fetch product.", "internal_error")
		return
	}

	respondSuccess(c, http.StatusOK, "Product fetched successfully.", h.toResponse(product))
}

// Create обрабатывает POST /products.
func (h *ProductHandler) Create(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "Validation failed.", "validation_error")
		return
	}

	product, err := h.catalog.Create(c.Request.Context(), req.toDomain(""))
	if err != nil {
		h.respondCatalogError(c, err, "failed to create product")
		return
	}

	respondSuccess(c, http.StatusCreated, "Product created successfully.", h.toResponse(product))
}

// Update обрабатывает PUT /products/:id.
func (h *ProductHandler) Update(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "Validation failed.", "validation_error")
		return
	}

	product, err := h.catalog.Update(c.Request.Context(), req.toDomain(c.Param("id")))
	if err != nil {
		h.respondCatalogError(c, err, "failed to update product")
		return
	}

	respondSuccess(c, http.StatusOK, "Product updated successfully.", h.toResponse(product))
}

func (h *ProductHandler) respondCatalogError(c *gin.Context, err error, logMsg string) {
	var offerErr *domain.InvalidOfferError
	switch {
	case errors.As(err, &offerErr):
		details := make([]string, 0, len(offerErr.Violations))
		for _, v := range offerErr.Violations {
			details = append(details, v.Error())
		}
		respondValidationError(c, http.StatusUnprocessableEntity, "Invalid offer configuration.", "invalid_offer", details)
	case domain.IsProductNotFound(err):
		respondError(c, http.StatusNotFound, "Product not found.", "product_not_found")
	default:
		h.logger.WithError(err).Error(logMsg)
		respondError(c, http.StatusInternalServerError, "Request failed.", "internal_error")
	}
}

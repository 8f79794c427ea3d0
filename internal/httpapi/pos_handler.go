package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/service/pos"
)

// POSHandler обслуживает обработку продаж и чтение истории.
type POSHandler struct {
	processor *pos.Processor
	sales     domain.SaleRepository
	logger    *log.Entry
}

// NewPOSHandler создаёт handler продаж.
func NewPOSHandler(processor *pos.Processor, sales domain.SaleRepository, logger *log.Entry) *POSHandler {
	if logger == nil {
		logger = log.WithField("component", "pos-handler")
	}
	return &POSHandler{processor: processor, sales: sales, logger: logger}
}

type saleLineRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type processSaleRequest struct {
	Items []saleLineRequest `json:"items" binding:"required,min=1,dive"`
}

type saleItemResponse struct {
	ProductID          string           `json:"product_id"`
	ProductName        string           `json:"product_name"`
	Quantity           int              `json:"quantity"`
	FreeQuantity       int              `json:"free_quantity"`
	TotalQuantity      int              `json:"total_quantity"`
	UnitPrice          string           `json:"unit_price"`
	EffectiveUnitPrice string           `json:"effective_unit_price"`
	DiscountPercent    *decimal.Decimal `json:"discount_percent,omitempty"`
	DiscountAmount     string           `json:"discount_amount"`
	Subtotal           string           `json:"subtotal"`
	OfferType          string           `json:"offer_type"`
	OfferDetails       string           `json:"offer_details"`
}

type saleResponse struct {
	ID            string             `json:"id"`
	UserID        string             `json:"user_id"`
	Subtotal      string             `json:"subtotal"`
	DiscountTotal string             `json:"discount_total"`
	Total         string             `json:"total"`
	CreatedAt     time.Time          `json:"created_at"`
	Items         []saleItemResponse `json:"items"`
}

func toSaleResponse(sale domain.Sale) saleResponse {
	items := make([]saleItemResponse, 0, len(sale.Items))
	for _, item := range sale.Items {
		items = append(items, saleItemResponse{
			ProductID:          item.ProductID,
			ProductName:        item.ProductName,
			Quantity:           item.Quantity,
			FreeQuantity:       item.FreeQuantity,
			TotalQuantity:      item.TotalQuantity(),
			UnitPrice:          item.UnitPrice.StringFixed(2),
			EffectiveUnitPrice: item.EffectiveUnitPrice.StringFixed(2),
			DiscountPercent:    item.DiscountPercent,
			DiscountAmount:     item.DiscountAmount.StringFixed(2),
			Subtotal:           item.Subtotal.StringFixed(2),
			OfferType:          string(item.OfferType),
			OfferDetails:       item.OfferDetails,
		})
	}
	return saleResponse{
		ID:            sale.ID,
		UserID:        sale.UserID,
		Subtotal:      sale.Subtotal.StringFixed(2),
		DiscountTotal: sale.DiscountTotal.StringFixed(2),
		Total:         sale.Total.StringFixed(2),
		CreatedAt:     sale.CreatedAt,
		Items:         items,
	}
}

// ProcessSale обрабатывает POST /pos.
func (h *POSHandler) ProcessSale(c *gin.Context) {
	var req processSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "Validation failed.", "validation_error")
		return
	}

	lines := make([]domain.SaleLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, domain.SaleLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	sale, err := h.processor.ProcessSale(c.Request.Context(), currentUserID(c), lines)
	if err != nil {
		h.respondSaleError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, "Sale completed successfully.", toSaleResponse(sale))
}

// ListSales обрабатывает GET /sales: продажи текущего пользователя.
func (h *POSHandler) ListSales(c *gin.Context) {
	sales, err := h.sales.ListByUser(c.Request.Context(), currentUserID(c), 50)
	if err != nil {
		h.logger.WithError(err).Error("failed to list sales")
		respondError(c, http.StatusInternalServerError, "Failed to fetch sales.", "internal_error")
		return
	}

	list := make([]saleResponse, 0, len(sales))
	for _, sale := range sales {
		list = append(list, toSaleResponse(sale))
	}
	respondSuccess(c, http.StatusOK, "Sales fetched successfully.", list)
}

// GetSale обрабатывает GET /sales/:id.
func (h *POSHandler) GetSale(c *gin.Context) {
	sale, err := h.sales.Get(c.Request.Context(), c.Param("id"))
	if err != nil || sale.UserID != currentUserID(c) {
		// Чужая продажа неотличима от несуществующей.
		respondError(c, http.StatusNotFound, "Sale not found.", "sale_not_found")
		return
	}

	respondSuccess(c, http.StatusOK, "Sale fetched successfully.", toSaleResponse(sale))
}

func (h *POSHandler) respondSaleError(c *gin.Context, err error) {
	switch {
	case domain.IsProductNotFound(err):
		respondError(c, http.StatusNotFound, err.Error(), "product_not_found")
	case domain.IsInsufficientStock(err):
		respondError(c, http.StatusUnprocessableEntity, err.Error(), "insufficient_stock")
	default:
		h.logger.WithError(err).Error("sale processing failed")
		respondError(c, http.StatusInternalServerError, "Sale processing failed.", "internal_error")
	}
}

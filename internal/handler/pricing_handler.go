package handler

import (
	"net/http"

	"scms/internal/middleware"
	"scms/internal/service"
	"scms/pkg/pagination"
	"scms/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PricingHandler struct {
	pricingService service.PricingService
	tierService    service.TierService
}

func NewPricingHandler(pricingService service.PricingService, tierService service.TierService) *PricingHandler {
	return &PricingHandler{pricingService: pricingService, tierService: tierService}
}

func (h *PricingHandler) RegisterRoutes(router *gin.RouterGroup) {
	tiers := router.Group("/api/pricing-tiers")
	{
		tiers.GET("", middleware.RequirePermission("pricing.read"), h.ListTiers)
		tiers.GET("/:id", middleware.RequirePermission("pricing.read"), h.GetTier)
		tiers.POST("", middleware.RequireRole("admin", "manager"), h.CreateTier)
		tiers.PUT("/:id", middleware.RequireRole("admin", "manager"), h.UpdateTier)
		tiers.DELETE("/:id", middleware.RequireRole("admin"), h.DeleteTier)
	}
	router.POST("/api/pricing/quote", middleware.RequirePermission("pricing.read"), h.Quote)
}

type QuoteRequest struct {
	ProductID  string          `json:"product_id" binding:"required"`
	RetailerID string          `json:"retailer_id" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
}

// Quote computes the unit price a retailer pays for a quantity of a product
// @Summary      Price quote
// @Description  Computes the tier discount and unit price for a retailer/product/quantity combination
// @Tags         pricing
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      QuoteRequest  true  "Quote Payload"
// @Success      200      {object}  response.Response{data=service.PriceQuote}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/pricing/quote [post]
func (h *PricingHandler) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product ID"))
		return
	}
	retailerID, err := uuid.Parse(req.RetailerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid retailer ID"))
		return
	}

	quote, err := h.pricingService.ComputePrice(c.Request.Context(), productID, retailerID, req.Quantity)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quote))
}

// ListTiers returns the configured pricing tiers
// @Summary      List pricing tiers
// @Tags         pricing
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Items per page"
// @Success      200  {object}  response.Response{data=response.ListData}
// @Failure      500  {object}  response.Response
// @Router       /api/pricing-tiers [get]
func (h *PricingHandler) ListTiers(c *gin.Context) {
	p := pagination.Parse(c)

	tiers, total, err := h.tierService.ListTiers(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve pricing tiers: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, tiers, total, p.Page, p.Limit))
}

// GetTier returns one pricing tier by ID
// @Summary      Get pricing tier
// @Tags         pricing
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Tier ID"
// @Success      200  {object}  response.Response{data=model.PricingTier}
// @Failure      400  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/pricing-tiers/{id} [get]
func (h *PricingHandler) GetTier(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid tier ID"))
		return
	}

	tier, err := h.tierService.GetTier(c.Request.Context(), id)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tier))
}

// CreateTier creates a pricing tier
// @Summary      Create pricing tier
// @Tags         pricing
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateTierRequest  true  "Create Tier Payload"
// @Success      201      {object}  response.Response{data=model.PricingTier}
// @Failure      400      {object}  response.Response
// @Router       /api/pricing-tiers [post]
func (h *PricingHandler) CreateTier(c *gin.Context) {
	var req service.CreateTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")

	tier, err := h.tierService.CreateTier(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tier))
}

// UpdateTier updates a pricing tier
// @Summary      Update pricing tier
// @Tags         pricing
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Tier ID"
// @Param        payload  body      service.UpdateTierRequest  true  "Update Tier Payload"
// @Success      200      {object}  response.Response{data=model.PricingTier}
// @Failure      400      {object}  response.Response
// @Router       /api/pricing-tiers/{id} [put]
func (h *PricingHandler) UpdateTier(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid tier ID"))
		return
	}

	var req service.UpdateTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")

	tier, err := h.tierService.UpdateTier(c.Request.Context(), userID, id, req)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tier))
}

// DeleteTier removes a pricing tier
// @Summary      Delete pricing tier
// @Tags         pricing
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Tier ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/pricing-tiers/{id} [delete]
func (h *PricingHandler) DeleteTier(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid tier ID"))
		return
	}

	userID := c.GetString("userID")

	if err := h.tierService.DeleteTier(c.Request.Context(), userID, id); err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Pricing tier deleted successfully"))
}

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

type OrderHandler struct {
	orderService      service.OrderService
	allocationService service.AllocationService
}

func NewOrderHandler(orderService service.OrderService, allocationService service.AllocationService) *OrderHandler {
	return &OrderHandler{orderService: orderService, allocationService: allocationService}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api")
	{
		api.POST("/orders", middleware.RequirePermission("orders.process"), h.ProcessOrder)
		api.GET("/orders", middleware.RequirePermission("orders.read"), h.ListOrders)
		api.POST("/allocations", middleware.RequirePermission("orders.process"), h.Allocate)
	}
}

// ProcessOrder prices and allocates a multi-line order atomically
// @Summary      Process order
// @Description  Validates, prices and allocates every line of the order; rejects the whole order if any line cannot be satisfied
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ProcessOrderRequest  true  "Process Order Payload"
// @Success      201      {object}  response.Response{data=service.ProcessOrderResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) ProcessOrder(c *gin.Context) {
	var req service.ProcessOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")

	result, err := h.orderService.ProcessOrder(c.Request.Context(), userID, req)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListOrders returns processed orders, newest first
// @Summary      List orders
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Items per page"
// @Success      200  {object}  response.Response{data=response.ListData}
// @Failure      500  {object}  response.Response
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	p := pagination.Parse(c)

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve orders: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, orders, total, p.Page, p.Limit))
}

type AllocateRequest struct {
	ProductID string          `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	Strategy  string          `json:"strategy" binding:"omitempty,oneof=FEFO FIFO"`
}

type AllocationSlice struct {
	BatchID        string          `json:"batch_id"`
	BatchNumber    string          `json:"batch_number"`
	ExpirationDate string          `json:"expiration_date"`
	QuantityTaken  decimal.Decimal `json:"quantity_taken"`
}

// Allocate draws stock for a single product directly, without an order
// @Summary      Allocate stock
// @Description  Allocates the requested quantity from available batches under the chosen rotation strategy (default FEFO)
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      AllocateRequest  true  "Allocate Payload"
// @Success      200      {object}  response.Response{data=[]AllocationSlice}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/allocations [post]
func (h *OrderHandler) Allocate(c *gin.Context) {
	var req AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product ID"))
		return
	}

	allocations, err := h.allocationService.Allocate(c.Request.Context(), productID, req.Quantity, req.Strategy)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	slices := make([]AllocationSlice, 0, len(allocations))
	for _, a := range allocations {
		slices = append(slices, AllocationSlice{
			BatchID:        a.Batch.ID.String(),
			BatchNumber:    a.Batch.ManufacturerBatchNumber,
			ExpirationDate: a.Batch.ExpirationDate.Format("2006-01-02"),
			QuantityTaken:  a.QuantityTaken,
		})
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, slices))
}

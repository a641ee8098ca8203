package handler

import (
	"net/http"

	"scms/internal/middleware"
	"scms/internal/service"
	"scms/pkg/pagination"
	"scms/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InventoryHandler struct {
	inventoryService service.InventoryService
}

func NewInventoryHandler(inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api")
	{
		api.POST("/batches", middleware.RequirePermission("inventory.write"), h.ReceiveBatch)
		api.GET("/batches", middleware.RequirePermission("inventory.read"), h.ListBatches)
		api.GET("/batches/:id", middleware.RequirePermission("inventory.read"), h.GetBatch)
		api.POST("/batches/:id/recall", middleware.RequireRole("admin", "manager"), h.RecallBatch)
		api.GET("/products/:id/batches", middleware.RequirePermission("inventory.read"), h.ListBatchesByProduct)
		api.GET("/inventory", middleware.RequirePermission("inventory.read"), h.ListInventory)
	}
}

// ReceiveBatch registers a goods receipt: the batch plus its stock record
// @Summary      Receive batch
// @Description  Registers a new production batch, creates its inventory record and puts it in stock
// @Tags         batches
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ReceiveBatchRequest  true  "Receive Batch Payload"
// @Success      201      {object}  response.Response{data=model.Batch}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/batches [post]
func (h *InventoryHandler) ReceiveBatch(c *gin.Context) {
	var req service.ReceiveBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")

	batch, err := h.inventoryService.ReceiveBatch(c.Request.Context(), userID, req)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, batch))
}

// ListBatches returns batches, optionally filtered by status
// @Summary      List batches
// @Tags         batches
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Items per page"
// @Param        status  query     string  false  "Batch status filter"
// @Success      200  {object}  response.Response{data=response.ListData}
// @Failure      500  {object}  response.Response
// @Router       /api/batches [get]
func (h *InventoryHandler) ListBatches(c *gin.Context) {
	p := pagination.Parse(c)
	status := c.Query("status")

	batches, total, err := h.inventoryService.ListBatches(c.Request.Context(), p.Page, p.Limit, status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve batches: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, batches, total, p.Page, p.Limit))
}

// GetBatch returns one batch by ID
// @Summary      Get batch
// @Tags         batches
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Batch ID"
// @Success      200  {object}  response.Response{data=model.Batch}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/batches/{id} [get]
func (h *InventoryHandler) GetBatch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid batch ID"))
		return
	}

	batch, err := h.inventoryService.GetBatch(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, batch))
}

// RecallBatch pulls a batch out of circulation and raises a recall alert
// @Summary      Recall batch
// @Tags         batches
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Batch ID"
// @Param        payload  body      service.RecallBatchRequest  true  "Recall Payload"
// @Success      200      {object}  response.Response{data=model.Batch}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/batches/{id}/recall [post]
func (h *InventoryHandler) RecallBatch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid batch ID"))
		return
	}

	var req service.RecallBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")

	batch, err := h.inventoryService.RecallBatch(c.Request.Context(), userID, id, req)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, batch))
}

// ListBatchesByProduct returns a product's batches in expiry order
// @Summary      List batches of a product
// @Tags         batches
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Product ID"
// @Param        page   query     int     false  "Page number"
// @Param        limit  query     int     false  "Items per page"
// @Success      200  {object}  response.Response{data=response.ListData}
// @Failure      400  {object}  response.Response
// @Router       /api/products/{id}/batches [get]
func (h *InventoryHandler) ListBatchesByProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product ID"))
		return
	}

	p := pagination.Parse(c)

	batches, total, err := h.inventoryService.ListBatchesByProduct(c.Request.Context(), productID, p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve batches: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, batches, total, p.Page, p.Limit))
}

// ListInventory returns per-location stock records
// @Summary      List inventory records
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        page      query     int     false  "Page number"
// @Param        limit     query     int     false  "Items per page"
// @Param        location  query     string  false  "Location filter"
// @Success      200  {object}  response.Response{data=response.ListData}
// @Failure      500  {object}  response.Response
// @Router       /api/inventory [get]
func (h *InventoryHandler) ListInventory(c *gin.Context) {
	p := pagination.Parse(c)
	location := c.Query("location")

	records, total, err := h.inventoryService.ListInventory(c.Request.Context(), p.Page, p.Limit, location)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve inventory: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, records, total, p.Page, p.Limit))
}

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

type RetailerHandler struct {
	retailerService service.RetailerService
}

func NewRetailerHandler(retailerService service.RetailerService) *RetailerHandler {
	return &RetailerHandler{retailerService: retailerService}
}

func (h *RetailerHandler) RegisterRoutes(router *gin.RouterGroup) {
	retailers := router.Group("/api/retailers")
	{
		retailers.GET("", middleware.RequirePermission("retailers.read"), h.ListRetailers)
		retailers.GET("/:id", middleware.RequirePermission("retailers.read"), h.GetRetailer)
		retailers.POST("", middleware.RequirePermission("retailers.write"), h.CreateRetailer)
		retailers.PUT("/:id", middleware.RequirePermission("retailers.write"), h.UpdateRetailer)
		retailers.DELETE("/:id", middleware.RequireRole("admin", "manager"), h.DeleteRetailer)
	}
}

// ListRetailers returns a paginated retailer directory
// @Summary      List retailers
// @Tags         retailers
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Items per page"
// @Param        search  query     string  false  "Search by name"
// @Success      200  {object}  response.Response{data=response.ListData}
// @Failure      500  {object}  response.Response
// @Router       /api/retailers [get]
func (h *RetailerHandler) ListRetailers(c *gin.Context) {
	p := pagination.Parse(c)
	search := c.Query("search")

	retailers, total, err := h.retailerService.ListRetailers(c.Request.Context(), p.Page, p.Limit, search)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve retailers: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, retailers, total, p.Page, p.Limit))
}

// GetRetailer returns one retailer by ID
// @Summary      Get retailer
// @Tags         retailers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Retailer ID"
// @Success      200  {object}  response.Response{data=model.Retailer}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/retailers/{id} [get]
func (h *RetailerHandler) GetRetailer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid retailer ID"))
		return
	}

	retailer, err := h.retailerService.GetRetailer(c.Request.Context(), id)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusBadRequest {
			status = http.StatusNotFound
		}
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, retailer))
}

// CreateRetailer registers a retailer account
// @Summary      Create retailer
// @Tags         retailers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateRetailerRequest  true  "Create Retailer Payload"
// @Success      201      {object}  response.Response{data=model.Retailer}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/retailers [post]
func (h *RetailerHandler) CreateRetailer(c *gin.Context) {
	var req service.CreateRetailerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")

	retailer, err := h.retailerService.CreateRetailer(c.Request.Context(), userID, req)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, retailer))
}

// UpdateRetailer updates a retailer account
// @Summary      Update retailer
// @Tags         retailers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Retailer ID"
// @Param        payload  body      service.UpdateRetailerRequest  true  "Update Retailer Payload"
// @Success      200      {object}  response.Response{data=model.Retailer}
// @Failure      400      {object}  response.Response
// @Router       /api/retailers/{id} [put]
func (h *RetailerHandler) UpdateRetailer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid retailer ID"))
		return
	}

	var req service.UpdateRetailerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")

	retailer, err := h.retailerService.UpdateRetailer(c.Request.Context(), userID, id, req)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, retailer))
}

// DeleteRetailer soft deletes a retailer
// @Summary      Delete retailer
// @Tags         retailers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Retailer ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/retailers/{id} [delete]
func (h *RetailerHandler) DeleteRetailer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid retailer ID"))
		return
	}

	userID := c.GetString("userID")

	if err := h.retailerService.DeleteRetailer(c.Request.Context(), userID, id); err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Retailer deleted successfully"))
}

package handler

import (
	"net/http"

	"scms/internal/middleware"
	"scms/internal/service"
	"scms/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/statistics/inventory", middleware.RequirePermission("inventory.read"), h.GetInventorySummary)
}

// GetInventorySummary returns the stock valuation and alert counts snapshot
// @Summary      Inventory summary
// @Description  Stock valuation at MRP plus batch, low-stock and open-alert counts
// @Tags         statistics
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.InventorySummary}
// @Failure      500  {object}  response.Response
// @Router       /api/statistics/inventory [get]
func (h *StatisticsHandler) GetInventorySummary(c *gin.Context) {
	summary, err := h.statisticsService.GetInventorySummary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to compute inventory summary: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

package handler

import (
	"net/http"
	"os"
	"strconv"

	"scms/internal/middleware"
	"scms/internal/service"
	"scms/pkg/pagination"
	"scms/pkg/response"

	"github.com/gin-gonic/gin"
)

const defaultExpiryDaysAhead = 7

type AlertHandler struct {
	alertService service.AlertService
}

func NewAlertHandler(alertService service.AlertService) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

func (h *AlertHandler) RegisterRoutes(router *gin.RouterGroup) {
	alerts := router.Group("/api/alerts")
	{
		alerts.GET("", middleware.RequirePermission("alerts.read"), h.ListAlerts)
		alerts.POST("/:id/acknowledge", middleware.RequirePermission("alerts.manage"), h.AcknowledgeAlert)
		alerts.POST("/:id/resolve", middleware.RequirePermission("alerts.manage"), h.ResolveAlert)
		// Sweep triggers are called by an external scheduler (cron), hence POST
		// endpoints rather than in-process timers.
		alerts.POST("/sweeps/expiration", middleware.RequireRole("admin", "manager"), h.RunExpirationSweep)
		alerts.POST("/sweeps/low-stock", middleware.RequireRole("admin", "manager"), h.RunLowStockSweep)
	}
}

// ListAlerts returns alerts filtered by type and status
// @Summary      List alerts
// @Tags         alerts
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Items per page"
// @Param        type    query     string  false  "Alert type filter"
// @Param        status  query     string  false  "Alert status filter"
// @Success      200  {object}  response.Response{data=response.ListData}
// @Failure      500  {object}  response.Response
// @Router       /api/alerts [get]
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	p := pagination.Parse(c)
	alertType := c.Query("type")
	status := c.Query("status")

	alerts, total, err := h.alertService.ListAlerts(c.Request.Context(), p.Page, p.Limit, alertType, status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve alerts: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, alerts, total, p.Page, p.Limit))
}

// AcknowledgeAlert marks a NEW alert as seen by the operator
// @Summary      Acknowledge alert
// @Tags         alerts
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Alert ID"
// @Success      200  {object}  response.Response{data=service.AlertResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/alerts/{id}/acknowledge [post]
func (h *AlertHandler) AcknowledgeAlert(c *gin.Context) {
	userID := c.GetString("userID")

	alert, err := h.alertService.AcknowledgeAlert(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, alert))
}

// ResolveAlert closes an open alert
// @Summary      Resolve alert
// @Tags         alerts
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Alert ID"
// @Success      200  {object}  response.Response{data=service.AlertResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/alerts/{id}/resolve [post]
func (h *AlertHandler) ResolveAlert(c *gin.Context) {
	userID := c.GetString("userID")

	alert, err := h.alertService.ResolveAlert(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, alert))
}

// RunExpirationSweep retires expired batches and raises expiration alerts
// @Summary      Run expiration sweep
// @Description  Transitions past-expiry batches to EXPIRED and creates one open alert per batch expiring within days_ahead
// @Tags         alerts
// @Security     BearerAuth
// @Produce      json
// @Param        days_ahead  query     int  false  "Look-ahead window in days (default 7)"
// @Success      200  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/alerts/sweeps/expiration [post]
func (h *AlertHandler) RunExpirationSweep(c *gin.Context) {
	daysAhead := defaultExpiryDaysAhead
	if v := os.Getenv("ALERT_EXPIRY_DAYS_AHEAD"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			daysAhead = parsed
		}
	}
	if v := c.Query("days_ahead"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "days_ahead must be a positive integer"))
			return
		}
		daysAhead = parsed
	}

	created, err := h.alertService.RunExpirationSweep(c.Request.Context(), daysAhead)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Expiration sweep failed: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"alerts_created": created, "days_ahead": daysAhead}))
}

// RunLowStockSweep raises alerts for stock below reorder points
// @Summary      Run low stock sweep
// @Tags         alerts
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/alerts/sweeps/low-stock [post]
func (h *AlertHandler) RunLowStockSweep(c *gin.Context) {
	created, err := h.alertService.RunLowStockSweep(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Low stock sweep failed: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"alerts_created": created}))
}

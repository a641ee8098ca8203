package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"scms/internal/model"
	"scms/internal/repository"
	ws "scms/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AlertResponse is the API shape of an alert
type AlertResponse struct {
	ID             string  `json:"id"`
	Type           string  `json:"type"`
	TargetType     string  `json:"target_type"`
	TargetID       string  `json:"target_id"`
	Priority       string  `json:"priority"`
	Message        string  `json:"message"`
	Status         string  `json:"status"`
	AcknowledgedBy *string `json:"acknowledged_by"`
	AcknowledgedAt *string `json:"acknowledged_at"`
	ResolvedBy     *string `json:"resolved_by"`
	ResolvedAt     *string `json:"resolved_at"`
	CreatedAt      string  `json:"created_at"`
}

// AlertEvent is the websocket payload pushed when a sweep creates an alert
type AlertEvent struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// AlertService generates alerts from ledger state and handles the operator
// lifecycle. Sweeps are idempotent: re-running with unchanged data creates no
// duplicate open alerts, and the sweeps never auto-resolve — clearing an
// alert is an explicit operator decision.
type AlertService interface {
	RunExpirationSweep(ctx context.Context, daysAhead int) (int, error)
	RunLowStockSweep(ctx context.Context) (int, error)
	ListAlerts(ctx context.Context, page, limit int, alertType, status string) ([]AlertResponse, int64, error)
	AcknowledgeAlert(ctx context.Context, id string, userID string) (AlertResponse, error)
	ResolveAlert(ctx context.Context, id string, userID string) (AlertResponse, error)
}

type alertService struct {
	alertRepo     repository.AlertRepository
	batchRepo     repository.BatchRepository
	inventoryRepo repository.InventoryRepository
	auditRepo     repository.AuditRepository
	hub           *ws.Hub
}

func NewAlertService(
	alertRepo repository.AlertRepository,
	batchRepo repository.BatchRepository,
	inventoryRepo repository.InventoryRepository,
	auditRepo repository.AuditRepository,
	hub *ws.Hub,
) AlertService {
	return &alertService{
		alertRepo:     alertRepo,
		batchRepo:     batchRepo,
		inventoryRepo: inventoryRepo,
		auditRepo:     auditRepo,
		hub:           hub,
	}
}

// RunExpirationSweep first retires past-expiry batches, then ensures exactly
// one open expiration alert exists for every IN_STOCK batch expiring within
// daysAhead. Returns the number of alerts created.
func (s *alertService) RunExpirationSweep(ctx context.Context, daysAhead int) (int, error) {
	now := time.Now()

	expired, err := s.batchRepo.MarkExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to mark expired batches: %w", err)
	}
	if expired > 0 {
		log.Printf("expiration sweep: %d batch(es) transitioned to EXPIRED", expired)
	}

	batches, err := s.batchRepo.ListExpiring(ctx, now, now.AddDate(0, 0, daysAhead))
	if err != nil {
		return 0, fmt.Errorf("failed to list expiring batches: %w", err)
	}

	created := 0
	for _, batch := range batches {
		if s.hasOpenAlert(ctx, model.AlertTypeExpiration, model.AlertTargetBatch, batch.ID) {
			continue
		}

		days := batch.DaysUntilExpiry(now)
		alert := &model.Alert{
			Type:       model.AlertTypeExpiration,
			TargetType: model.AlertTargetBatch,
			TargetID:   batch.ID,
			Priority:   expiryPriority(days),
			Status:     model.AlertStatusNew,
			Message: fmt.Sprintf("Batch %s of %s expires on %s (%d day(s) left). Current quantity: %s %s.",
				batch.ManufacturerBatchNumber, batch.Product.Name,
				batch.ExpirationDate.Format("2006-01-02"), days,
				batch.CurrentQuantity.String(), batch.Product.UnitOfMeasure),
		}

		// One failing write must not block the rest of the scan.
		if createErr := s.alertRepo.Create(ctx, alert); createErr != nil {
			log.Printf("expiration sweep: failed to create alert for batch %s: %v", batch.ID, createErr)
			continue
		}
		created++
		s.publishAlertEvent(alert)
	}

	return created, nil
}

// RunLowStockSweep ensures exactly one open low-stock alert exists for every
// inventory record strictly below its reorder point.
func (s *alertService) RunLowStockSweep(ctx context.Context) (int, error) {
	records, err := s.inventoryRepo.ListBelowReorderPoint(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list low stock records: %w", err)
	}

	created := 0
	for _, record := range records {
		if s.hasOpenAlert(ctx, model.AlertTypeLowStock, model.AlertTargetInventory, record.ID) {
			continue
		}

		deficit := record.ReorderPoint.Sub(record.QuantityOnHand)
		alert := &model.Alert{
			Type:       model.AlertTypeLowStock,
			TargetType: model.AlertTargetInventory,
			TargetID:   record.ID,
			Priority:   lowStockPriority(record),
			Status:     model.AlertStatusNew,
			Message: fmt.Sprintf("%s at %s has %s unit(s) on hand, below the reorder point of %s. Deficit: %s.",
				record.Batch.Product.Name, record.Location,
				record.QuantityOnHand.String(), record.ReorderPoint.String(), deficit.String()),
		}

		if createErr := s.alertRepo.Create(ctx, alert); createErr != nil {
			log.Printf("low stock sweep: failed to create alert for record %s: %v", record.ID, createErr)
			continue
		}
		created++
		s.publishAlertEvent(alert)
	}

	return created, nil
}

func (s *alertService) hasOpenAlert(ctx context.Context, alertType, targetType string, targetID uuid.UUID) bool {
	_, err := s.alertRepo.FindOpenByTarget(ctx, alertType, targetType, targetID)
	if err == nil {
		return true
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		// Fail closed: treat an unreadable state as "already alerted" rather
		// than risk a duplicate.
		log.Printf("alert sweep: failed to check open alert for %s/%s: %v", alertType, targetID, err)
		return true
	}
	return false
}

func (s *alertService) ListAlerts(ctx context.Context, page, limit int, alertType, status string) ([]AlertResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	alerts, total, err := s.alertRepo.List(ctx, page, limit, alertType, status)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list alerts: %w", err)
	}

	res := make([]AlertResponse, 0, len(alerts))
	for _, a := range alerts {
		res = append(res, toAlertResponse(a))
	}
	return res, total, nil
}

func (s *alertService) AcknowledgeAlert(ctx context.Context, id string, userID string) (AlertResponse, error) {
	alert, actor, err := s.loadAlertAndActor(ctx, id, userID)
	if err != nil {
		return AlertResponse{}, err
	}

	if alert.Status != model.AlertStatusNew {
		return AlertResponse{}, fmt.Errorf("alert cannot be acknowledged from status %s", alert.Status)
	}

	now := time.Now()
	alert.Status = model.AlertStatusAcknowledged
	alert.AcknowledgedBy = actor
	alert.AcknowledgedAt = &now

	if err := s.alertRepo.Update(ctx, alert); err != nil {
		return AlertResponse{}, fmt.Errorf("failed to acknowledge alert: %w", err)
	}

	s.writeAuditLog(ctx, actor, model.ActionAckAlert, alert)
	return toAlertResponse(*alert), nil
}

func (s *alertService) ResolveAlert(ctx context.Context, id string, userID string) (AlertResponse, error) {
	alert, actor, err := s.loadAlertAndActor(ctx, id, userID)
	if err != nil {
		return AlertResponse{}, err
	}

	if !alert.IsOpen() {
		return AlertResponse{}, fmt.Errorf("alert cannot be resolved from status %s", alert.Status)
	}

	now := time.Now()
	alert.Status = model.AlertStatusResolved
	alert.ResolvedBy = actor
	alert.ResolvedAt = &now
	if alert.AcknowledgedAt == nil {
		alert.AcknowledgedBy = actor
		alert.AcknowledgedAt = &now
	}

	if err := s.alertRepo.Update(ctx, alert); err != nil {
		return AlertResponse{}, fmt.Errorf("failed to resolve alert: %w", err)
	}

	s.writeAuditLog(ctx, actor, model.ActionResolveAlert, alert)
	return toAlertResponse(*alert), nil
}

func (s *alertService) loadAlertAndActor(ctx context.Context, id string, userID string) (*model.Alert, *uuid.UUID, error) {
	alertID, err := uuid.Parse(id)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid alert id: %w", err)
	}

	alert, err := s.alertRepo.FindByID(ctx, alertID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("alert not found")
		}
		return nil, nil, fmt.Errorf("failed to load alert: %w", err)
	}

	var actor *uuid.UUID
	if parsed, parseErr := uuid.Parse(userID); parseErr == nil {
		actor = &parsed
	}
	return alert, actor, nil
}

func (s *alertService) writeAuditLog(ctx context.Context, actor *uuid.UUID, action string, alert *model.Alert) {
	details, _ := json.Marshal(map[string]interface{}{
		"alert_type":  alert.Type,
		"target_type": alert.TargetType,
		"target_id":   alert.TargetID.String(),
		"status":      alert.Status,
	})
	entry := &model.AuditLog{
		UserID:   actor,
		Action:   action,
		EntityID: alert.ID.String(),
		Details:  string(details),
	}
	// Best-effort audit log — don't fail the operation if logging fails
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		log.Printf("failed to write audit log for alert %s: %v", alert.ID, err)
	}
}

func (s *alertService) publishAlertEvent(alert *model.Alert) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(AlertEvent{
		Event: "alert_created",
		Data: map[string]interface{}{
			"id":          alert.ID.String(),
			"type":        alert.Type,
			"priority":    alert.Priority,
			"target_type": alert.TargetType,
			"target_id":   alert.TargetID.String(),
			"message":     alert.Message,
		},
	})
	if err != nil {
		return
	}
	s.hub.Publish(payload)
}

// expiryPriority mirrors the escalation ladder used for near-expiry stock:
// critical within a day, high within three, medium otherwise.
func expiryPriority(daysUntilExpiry int) string {
	switch {
	case daysUntilExpiry <= 1:
		return model.AlertPriorityCritical
	case daysUntilExpiry <= 3:
		return model.AlertPriorityHigh
	default:
		return model.AlertPriorityMedium
	}
}

// lowStockPriority escalates with the size of the deficit relative to the
// reorder point.
func lowStockPriority(record model.InventoryRecord) string {
	deficit := record.ReorderPoint.Sub(record.QuantityOnHand)
	switch {
	case deficit.GreaterThanOrEqual(record.QuantityOnHand):
		return model.AlertPriorityCritical
	case deficit.GreaterThanOrEqual(record.ReorderPoint.Div(two)):
		return model.AlertPriorityHigh
	default:
		return model.AlertPriorityMedium
	}
}

var two = decimal.NewFromInt(2)

func toAlertResponse(a model.Alert) AlertResponse {
	res := AlertResponse{
		ID:         a.ID.String(),
		Type:       a.Type,
		TargetType: a.TargetType,
		TargetID:   a.TargetID.String(),
		Priority:   a.Priority,
		Message:    a.Message,
		Status:     a.Status,
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
	}
	if a.AcknowledgedBy != nil {
		v := a.AcknowledgedBy.String()
		res.AcknowledgedBy = &v
	}
	if a.AcknowledgedAt != nil {
		v := a.AcknowledgedAt.Format(time.RFC3339)
		res.AcknowledgedAt = &v
	}
	if a.ResolvedBy != nil {
		v := a.ResolvedBy.String()
		res.ResolvedBy = &v
	}
	if a.ResolvedAt != nil {
		v := a.ResolvedAt.Format(time.RFC3339)
		res.ResolvedAt = &v
	}
	return res
}

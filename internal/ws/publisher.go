package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"go_storefront/internal/db"
	"go_storefront/internal/model"

	"gorm.io/gorm"
)

const domainsTopic = "domains"

// PublishDomainEvent persists a domain event for one tenant and
// broadcasts it to that tenant's connections only.
// eventType: "verified", "failed", "health", "deleted"
// The event log gives reconnecting clients incremental catch-up.
func PublishDomainEvent(tenantID, eventType string, payload interface{}) error {
	if tenantID == "" {
		return fmt.Errorf("domain event without tenant")
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[WebSocket] Failed to marshal payload: %v", err)
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := model.WSEvent{
		Topic:     domainsTopic,
		TenantID:  tenantID,
		EventType: eventType,
		Payload:   string(payloadJSON),
	}

	if err := db.GetDB().Create(&event).Error; err != nil {
		log.Printf("[WebSocket] Failed to write event to database: %v", err)
		return fmt.Errorf("failed to write event to database: %w", err)
	}

	// Broadcast failure cannot affect the main flow
	BroadcastToTenant(tenantID, "domains:update", map[string]interface{}{
		"eventId": event.ID,
		"type":    eventType,
		"data":    payload,
	})

	return nil
}

// GetIncrementalEvents retrieves a tenant's domain events with
// id > lastEventId
func GetIncrementalEvents(tenantID string, lastEventId int64, maxCount int) ([]model.WSEvent, error) {
	var events []model.WSEvent

	err := db.GetDB().
		Where("topic = ? AND tenant_id = ? AND id > ?", domainsTopic, tenantID, lastEventId).
		Order("id ASC").
		Limit(maxCount).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query incremental events: %w", err)
	}

	return events, nil
}

// GetLatestEventId retrieves a tenant's latest domain event ID, 0 when
// none exist
func GetLatestEventId(tenantID string) (int64, error) {
	var event model.WSEvent

	err := db.GetDB().
		Where("topic = ? AND tenant_id = ?", domainsTopic, tenantID).
		Order("id DESC").
		Limit(1).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to query latest event: %w", err)
	}

	return event.ID, nil
}

package ws

import (
	"encoding/json"
	"log"

	socketio "github.com/googollee/go-socket.io"

	"go_storefront/internal/db"
	"go_storefront/internal/model"
)

// DomainListItem is the wire shape of a domain in the initial snapshot
type DomainListItem struct {
	ID          int    `json:"id"`
	StoreID     int    `json:"storeId"`
	Domain      string `json:"domain"`
	Status      string `json:"status"`
	IsPrimary   bool   `json:"isPrimary"`
	SSLEnabled  bool   `json:"sslEnabled"`
	DNSVerified bool   `json:"dnsVerified"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// connTenant returns the tenant the connection was bound to at connect
// time, empty when the binding is missing
func connTenant(s socketio.Conn) string {
	if tenantID, ok := s.Context().(string); ok {
		return tenantID
	}
	return ""
}

// handleRequestDomains handles the request:domains event. Clients send
// their lastEventId; when the gap is small we replay events, otherwise
// they get a fresh snapshot. Everything is scoped to the connection's
// tenant.
func handleRequestDomains(s socketio.Conn, data interface{}) {
	tenantID := connTenant(s)
	if tenantID == "" {
		log.Printf("[WebSocket] request:domains from unbound connection %s", s.ID())
		s.Emit("error", map[string]interface{}{
			"message": "Connection is not bound to a tenant",
		})
		return
	}

	var lastEventId int64
	if dataMap, ok := data.(map[string]interface{}); ok {
		if v, ok := dataMap["lastEventId"].(float64); ok {
			lastEventId = int64(v)
		}
	}

	if lastEventId > 0 {
		if sendIncrementalUpdates(s, tenantID, lastEventId) {
			return
		}
		log.Printf("[WebSocket] Incremental updates failed, falling back to full list")
	}

	sendFullDomainsList(s, tenantID)
}

// sendIncrementalUpdates replays the tenant's events after lastEventId.
// Returns false when the client should get a full snapshot instead.
func sendIncrementalUpdates(s socketio.Conn, tenantID string, lastEventId int64) bool {
	maxCount := 500
	events, err := GetIncrementalEvents(tenantID, lastEventId, maxCount)
	if err != nil {
		log.Printf("[WebSocket] Failed to query incremental events: %v", err)
		return false
	}

	// Too far behind, a snapshot is cheaper than the replay
	if len(events) >= maxCount {
		return false
	}

	if len(events) == 0 {
		latestEventId, _ := GetLatestEventId(tenantID)
		s.Emit("domains:initial", map[string]interface{}{
			"items":       []interface{}{},
			"total":       0,
			"lastEventId": latestEventId,
		})
		return true
	}

	for _, event := range events {
		var payload interface{}
		if err := json.Unmarshal([]byte(event.Payload), &payload); err != nil {
			log.Printf("[WebSocket] Failed to unmarshal event payload: %v", err)
			continue
		}

		s.Emit("domains:update", map[string]interface{}{
			"eventId": event.ID,
			"type":    event.EventType,
			"data":    payload,
		})
	}

	return true
}

// sendFullDomainsList sends a snapshot of the tenant's domains
func sendFullDomainsList(s socketio.Conn, tenantID string) {
	var total int64
	query := db.GetDB().Model(&model.StoreDomain{}).Where("tenant_id = ?", tenantID)

	if err := query.Count(&total).Error; err != nil {
		log.Printf("[WebSocket] Failed to count domains: %v", err)
		s.Emit("error", map[string]interface{}{
			"message": "Failed to query domains",
		})
		return
	}

	var domains []model.StoreDomain
	if err := query.Limit(10000).Find(&domains).Error; err != nil {
		log.Printf("[WebSocket] Failed to query domains: %v", err)
		s.Emit("error", map[string]interface{}{
			"message": "Failed to query domains",
		})
		return
	}

	items := make([]DomainListItem, 0, len(domains))
	for _, d := range domains {
		items = append(items, DomainListItem{
			ID:          d.ID,
			StoreID:     d.StoreID,
			Domain:      d.Domain,
			Status:      string(d.Status),
			IsPrimary:   d.IsPrimary,
			SSLEnabled:  d.SSLEnabled,
			DNSVerified: d.DNSVerified,
			CreatedAt:   d.CreatedAt.Format("2006-01-02 15:04:05"),
			UpdatedAt:   d.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	latestEventId, _ := GetLatestEventId(tenantID)

	s.Emit("domains:initial", map[string]interface{}{
		"items":       items,
		"total":       total,
		"lastEventId": latestEventId,
	})
}

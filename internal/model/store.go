package model

import "gorm.io/datatypes"

// StoreStatus represents store status
type StoreStatus string

const (
	StoreStatusActive   StoreStatus = "active"
	StoreStatusInactive StoreStatus = "inactive"
	StoreStatusArchived StoreStatus = "archived"
)

// Store represents a tenant's storefront
type Store struct {
	BaseModel
	TenantID  string      `gorm:"type:varchar(64);not null;index:idx_stores_tenant;uniqueIndex:uk_stores_tenant_slug,priority:1" json:"tenantId"`
	Name      string      `gorm:"type:varchar(255);not null" json:"name"`
	Slug      string      `gorm:"type:varchar(128);not null;uniqueIndex:uk_stores_tenant_slug,priority:2" json:"slug"` // unique per tenant
	Published bool        `gorm:"type:tinyint;default:0" json:"published"`
	Status    StoreStatus `gorm:"type:enum('active','inactive','archived');default:'active'" json:"status"`

	// Free-form theme/settings blob owned by the storefront editor
	Settings datatypes.JSONMap `gorm:"type:json" json:"settings,omitempty"`

	Domains []StoreDomain `gorm:"foreignKey:StoreID" json:"domains,omitempty"`
}

// TableName specifies the table name for Store model
func (Store) TableName() string {
	return "stores"
}

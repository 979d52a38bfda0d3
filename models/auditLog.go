package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog keeps a JSON snapshot of destructive operations. Voiding a payment
// voucher deletes its ledger entries, so the snapshot is the surviving trail.
type AuditLog struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	CompanyId  string         `json:"-" gorm:"index;not null"`
	Action     string         `json:"action" gorm:"size:40;not null"` // e.g. VOUCHER_VOIDED
	EntityType string         `json:"entity_type" gorm:"size:40"`
	EntityID   uint           `json:"entity_id"`
	Snapshot   datatypes.JSON `json:"snapshot" gorm:"type:jsonb"`
	UserID     string         `json:"user_id" gorm:"size:128"`
	CreatedAt  time.Time      `json:"created_at"`
}

package models

import (
	"time"
)

// ConsentLog is the append-only audit record proving a data subject's consent
// at submission time. Rows are never updated or deleted by the gateway; there
// is intentionally no UpdatedAt or soft-delete column.
type ConsentLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	LeadID    uint      `gorm:"index;not null" json:"lead_id"`
	Granted   bool      `gorm:"not null" json:"granted"`
	Scope     string    `gorm:"type:varchar(100)" json:"scope"`
	IP        string    `gorm:"type:varchar(45)" json:"ip"`
	UserAgent string    `gorm:"type:varchar(500)" json:"user_agent"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

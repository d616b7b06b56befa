package models

import (
	"time"

	"gorm.io/gorm"
)

// Organization is the tenant root. The gateway never mutates organizations;
// the table exists so landing pages, staff users and leads have a stable
// owner to reference.
type Organization struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(150);not null" json:"name"`
	Slug      string         `gorm:"type:varchar(100);uniqueIndex" json:"slug"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

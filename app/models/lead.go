package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Pipeline entry stage for freshly captured leads.
const STAGE_NEW = "novo"

// Lead is a captured prospect scoped to an organization. Interest fields are
// nullable on purpose: external callers are untrusted and a malformed amount
// must not block capture. LandingPageID is nil for leads created by internal
// CRM flows rather than the public gateway.
type Lead struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	UUID           string `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	OrganizationID uint   `gorm:"index;not null" json:"organization_id"`
	LandingPageID  *uint  `gorm:"index" json:"landing_page_id"`

	Name  string `gorm:"type:varchar(150);not null" json:"name"`
	Phone string `gorm:"type:varchar(30);not null" json:"phone"`
	Email string `gorm:"type:varchar(200)" json:"email"`

	InterestAmount *float64 `gorm:"type:decimal(14,2)" json:"interest_amount"`
	TermMonths     *int     `json:"term_months"`
	Goal           string   `gorm:"type:varchar(150)" json:"goal"`
	Profile        string   `gorm:"type:varchar(150)" json:"profile"`
	Notes          string   `gorm:"type:text" json:"notes"`

	Consent      bool       `gorm:"default:false" json:"consent"`
	ConsentScope string     `gorm:"type:varchar(100)" json:"consent_scope"`
	ConsentAt    *time.Time `gorm:"type:timestamp;default:null" json:"consent_at"`

	UTMSource   string `gorm:"type:varchar(100)" json:"utm_source"`
	UTMMedium   string `gorm:"type:varchar(100)" json:"utm_medium"`
	UTMCampaign string `gorm:"type:varchar(150)" json:"utm_campaign"`
	UTMTerm     string `gorm:"type:varchar(150)" json:"utm_term"`
	UTMContent  string `gorm:"type:varchar(150)" json:"utm_content"`
	ReferrerURL string `gorm:"type:varchar(500)" json:"referrer_url"`
	UserAgent   string `gorm:"type:varchar(500)" json:"user_agent"`
	SourceLabel string `gorm:"type:varchar(100)" json:"source_label"`
	FormLabel   string `gorm:"type:varchar(100)" json:"form_label"`
	Channel     string `gorm:"type:varchar(100)" json:"channel"`

	Stage     string         `gorm:"type:varchar(50);default:'novo';index" json:"stage"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns the public UUID and entry stage.
func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.UUID == "" {
		l.UUID = uuid.NewString()
	}
	if l.Stage == "" {
		l.Stage = STAGE_NEW
	}
	return nil
}

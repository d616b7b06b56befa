package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/autentika/leadgate/app/models"
)

// leadRepository implements the LeadRepository interface
type leadRepository struct {
	db *gorm.DB
}

// NewLeadRepository creates a new lead repository instance
func NewLeadRepository(db *gorm.DB) LeadRepository {
	return &leadRepository{db: db}
}

// CreateWithConsent writes the lead and its consent log entry atomically.
// The consent row is only written when the lead carries consent; callers pass
// entry=nil otherwise. A failure on either insert rolls back both.
func (r *leadRepository) CreateWithConsent(ctx context.Context, lead *models.Lead, entry *models.ConsentLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(lead).Error; err != nil {
			return err
		}
		if lead.Consent && entry != nil {
			entry.LeadID = lead.ID
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByUUID retrieves a lead by its public UUID
func (r *leadRepository) GetByUUID(uuid string) (*models.Lead, error) {
	var lead models.Lead
	err := r.db.Where("uuid = ?", uuid).First(&lead).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// CountByLandingPage counts leads captured through a landing page
func (r *leadRepository) CountByLandingPage(landingPageID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Lead{}).Where("landing_page_id = ?", landingPageID).Count(&count).Error
	return count, err
}

// ConsentLogForLead returns the audit entries linked to a lead
func (r *leadRepository) ConsentLogForLead(leadID uint) ([]models.ConsentLog, error) {
	var entries []models.ConsentLog
	err := r.db.Where("lead_id = ?", leadID).Order("created_at ASC").Find(&entries).Error
	return entries, err
}

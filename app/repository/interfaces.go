package repository

import (
	"context"

	"github.com/autentika/leadgate/app/models"
)

// LandingPageRepository defines the tenant-directory operations. Lookup
// methods on the ingestion hot path take a context so callers can bound the
// database round trip with a request-scoped timeout.
type LandingPageRepository interface {
	Create(page *models.LandingPage) error
	GetByID(id uint) (*models.LandingPage, error)
	GetByOrganization(orgID uint) ([]models.LandingPage, error)
	GetActiveByID(ctx context.Context, id uint) (*models.LandingPage, error)
	GetActiveByPublicHash(ctx context.Context, hash string) (*models.LandingPage, error)
	Update(page *models.LandingPage) error
	SetActive(id uint, active bool) error
	// InvalidateLookup drops the cached lookup entry for a public hash. Needed
	// when the hash itself is rotated and the old value must stop resolving.
	InvalidateLookup(hash string)
}

// LeadRepository is the persistence sink for externally sourced leads.
type LeadRepository interface {
	// CreateWithConsent creates the lead and, when lead.Consent is true, its
	// consent log row in a single transaction. Either both rows exist
	// afterwards or neither does.
	CreateWithConsent(ctx context.Context, lead *models.Lead, entry *models.ConsentLog) error
	GetByUUID(uuid string) (*models.Lead, error)
	CountByLandingPage(landingPageID uint) (int64, error)
	ConsentLogForLead(leadID uint) ([]models.ConsentLog, error)
}

// UserRepository resolves staff users for the admin surface's capability check.
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
}

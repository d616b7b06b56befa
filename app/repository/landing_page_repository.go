package repository

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/autentika/leadgate/app/models"
	"github.com/autentika/leadgate/internal/pkg/cache"
)

// Hot-path lookups are cached briefly; every admin mutation invalidates the
// cached entry so secret rotation and deactivation take effect immediately.
const pageCacheTTL = 60 * time.Second

// cachedLandingPage is the cache serialization of a landing page. The model's
// JSON tags hide the secret and allowlist from API responses, so the cache
// uses its own envelope that carries every field the pipeline needs.
type cachedLandingPage struct {
	ID                 uint   `json:"id"`
	OrganizationID     uint   `json:"organization_id"`
	Name               string `json:"name"`
	Slug               string `json:"slug"`
	PublicHash         string `json:"public_hash"`
	Active             bool   `json:"active"`
	AllowedDomains     string `json:"allowed_domains"`
	WebhookSecret      string `json:"webhook_secret"`
	DefaultUTMSource   string `json:"default_utm_source"`
	DefaultUTMMedium   string `json:"default_utm_medium"`
	DefaultUTMCampaign string `json:"default_utm_campaign"`
}

func toCached(page *models.LandingPage) *cachedLandingPage {
	return &cachedLandingPage{
		ID:                 page.ID,
		OrganizationID:     page.OrganizationID,
		Name:               page.Name,
		Slug:               page.Slug,
		PublicHash:         page.PublicHash,
		Active:             page.Active,
		AllowedDomains:     page.AllowedDomains,
		WebhookSecret:      page.WebhookSecret,
		DefaultUTMSource:   page.DefaultUTMSource,
		DefaultUTMMedium:   page.DefaultUTMMedium,
		DefaultUTMCampaign: page.DefaultUTMCampaign,
	}
}

func (c *cachedLandingPage) toModel() *models.LandingPage {
	return &models.LandingPage{
		ID:                 c.ID,
		OrganizationID:     c.OrganizationID,
		Name:               c.Name,
		Slug:               c.Slug,
		PublicHash:         c.PublicHash,
		Active:             c.Active,
		AllowedDomains:     c.AllowedDomains,
		WebhookSecret:      c.WebhookSecret,
		DefaultUTMSource:   c.DefaultUTMSource,
		DefaultUTMMedium:   c.DefaultUTMMedium,
		DefaultUTMCampaign: c.DefaultUTMCampaign,
	}
}

// landingPageRepository implements the LandingPageRepository interface
type landingPageRepository struct {
	db *gorm.DB
}

// NewLandingPageRepository creates a new landing page repository instance
func NewLandingPageRepository(db *gorm.DB) LandingPageRepository {
	return &landingPageRepository{db: db}
}

// Create creates a new landing page in the database
func (r *landingPageRepository) Create(page *models.LandingPage) error {
	return r.db.Create(page).Error
}

// GetByID retrieves a landing page by its ID, active or not
func (r *landingPageRepository) GetByID(id uint) (*models.LandingPage, error) {
	var page models.LandingPage
	err := r.db.First(&page, id).Error
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetByOrganization lists all landing pages owned by an organization
func (r *landingPageRepository) GetByOrganization(orgID uint) ([]models.LandingPage, error) {
	var pages []models.LandingPage
	err := r.db.Where("organization_id = ?", orgID).Order("created_at DESC").Find(&pages).Error
	return pages, err
}

// GetActiveByID retrieves an active landing page by its ID
func (r *landingPageRepository) GetActiveByID(ctx context.Context, id uint) (*models.LandingPage, error) {
	var page models.LandingPage
	err := r.db.WithContext(ctx).Where("id = ? AND active = ?", id, true).First(&page).Error
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetActiveByPublicHash resolves a caller-presented public token to its
// active landing page, consulting the cache first.
func (r *landingPageRepository) GetActiveByPublicHash(ctx context.Context, hash string) (*models.LandingPage, error) {
	hash = strings.TrimSpace(hash)
	if cached, err := cache.Get(pageCacheKey(hash)); err == nil && cached != "" {
		var entry cachedLandingPage
		if err := json.Unmarshal([]byte(cached), &entry); err == nil && entry.Active {
			return entry.toModel(), nil
		}
	}

	var page models.LandingPage
	err := r.db.WithContext(ctx).Where("public_hash = ? AND active = ?", hash, true).First(&page).Error
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(toCached(&page)); err == nil {
		if err := cache.Set(pageCacheKey(hash), payload, pageCacheTTL); err != nil {
			log.Printf("landing page cache set failed for page %d: %v", page.ID, err)
		}
	}

	return &page, nil
}

// Update saves a landing page and drops its cached lookup entry.
func (r *landingPageRepository) Update(page *models.LandingPage) error {
	if err := r.db.Save(page).Error; err != nil {
		return err
	}
	invalidatePageCache(page.PublicHash)
	return nil
}

// SetActive flips the activation flag without touching other fields.
func (r *landingPageRepository) SetActive(id uint, active bool) error {
	var page models.LandingPage
	if err := r.db.First(&page, id).Error; err != nil {
		return err
	}
	if err := r.db.Model(&page).Update("active", active).Error; err != nil {
		return err
	}
	invalidatePageCache(page.PublicHash)
	return nil
}

// InvalidateLookup drops the cached lookup entry for a public hash.
func (r *landingPageRepository) InvalidateLookup(hash string) {
	invalidatePageCache(hash)
}

func pageCacheKey(hash string) string {
	return "landing:hash:" + hash
}

func invalidatePageCache(hash string) {
	if hash == "" {
		return
	}
	if err := cache.Delete(pageCacheKey(hash)); err != nil {
		log.Printf("landing page cache invalidation failed for hash %s: %v", hash, err)
	}
}

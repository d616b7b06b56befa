package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/autentika/leadgate/app/models"
	"github.com/autentika/leadgate/app/repository"
	"github.com/autentika/leadgate/internal/pkg/usercontext"
)

// AdminLandingController administers landing pages: lifecycle, secret
// rotation and the origin allowlist. Every handler requires the caller to be
// an owner of the page's organization.
type AdminLandingController struct {
	pageRepo repository.LandingPageRepository
}

// NewAdminLandingController creates a new admin landing page controller
func NewAdminLandingController(pageRepo repository.LandingPageRepository) *AdminLandingController {
	return &AdminLandingController{pageRepo: pageRepo}
}

type createLandingRequest struct {
	Name               string `json:"name"`
	Slug               string `json:"slug"`
	DefaultUTMSource   string `json:"default_utm_source"`
	DefaultUTMMedium   string `json:"default_utm_medium"`
	DefaultUTMCampaign string `json:"default_utm_campaign"`
}

type allowlistRequest struct {
	// Domains accepts either an array of hostnames or a single comma/newline
	// delimited string.
	Domains any `json:"domains"`
}

type activeRequest struct {
	Active bool `json:"active"`
}

// HandleCreate creates a landing page for the caller's organization.
func (alc *AdminLandingController) HandleCreate(c *fiber.Ctx) error {
	staff := usercontext.GetStaffContext(c)
	if !staff.IsOwner {
		return forbidden(c)
	}

	var req createLandingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid body"})
	}

	page, err := models.CreateLandingPage(staff.OrganizationID, req.Name, req.Slug)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}
	page.DefaultUTMSource = req.DefaultUTMSource
	page.DefaultUTMMedium = req.DefaultUTMMedium
	page.DefaultUTMCampaign = req.DefaultUTMCampaign

	if err := alc.pageRepo.Create(page); err != nil {
		log.Printf("landing page create failed for org %d: %v", staff.OrganizationID, err)
		return internalError(c)
	}

	return c.Status(fiber.StatusCreated).JSON(page)
}

// HandleList lists the landing pages of the caller's organization.
func (alc *AdminLandingController) HandleList(c *fiber.Ctx) error {
	staff := usercontext.GetStaffContext(c)
	pages, err := alc.pageRepo.GetByOrganization(staff.OrganizationID)
	if err != nil {
		log.Printf("landing page list failed for org %d: %v", staff.OrganizationID, err)
		return internalError(c)
	}
	return c.JSON(fiber.Map{"landing_pages": pages})
}

// HandleGet returns one landing page. The webhook secret is never echoed.
func (alc *AdminLandingController) HandleGet(c *fiber.Ctx) error {
	page, ok := alc.resolveOwnedPage(c)
	if !ok {
		return nil
	}
	return c.JSON(page)
}

// HandleSetActive activates or deactivates intake for a landing page.
// Deactivation is the supported way to stop intake; pages are never deleted.
func (alc *AdminLandingController) HandleSetActive(c *fiber.Ctx) error {
	page, ok := alc.resolveOwnedPage(c)
	if !ok {
		return nil
	}

	var req activeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid body"})
	}

	if err := alc.pageRepo.SetActive(page.ID, req.Active); err != nil {
		log.Printf("landing page activation update failed for page %d: %v", page.ID, err)
		return internalError(c)
	}

	return c.JSON(fiber.Map{"id": page.ID, "active": req.Active})
}

// HandleRotateSecret issues a new webhook secret and returns it in plaintext
// exactly once. The old secret is invalid for all subsequent requests; there
// is no grace period and no way to retrieve the new value again.
func (alc *AdminLandingController) HandleRotateSecret(c *fiber.Ctx) error {
	page, ok := alc.resolveOwnedPage(c)
	if !ok {
		return nil
	}

	secret, serr := page.RotateWebhookSecret()
	if serr != nil {
		log.Printf("webhook secret generation failed for page %d: %v", page.ID, serr)
		return internalError(c)
	}

	if err := alc.pageRepo.Update(page); err != nil {
		log.Printf("webhook secret rotation failed for page %d: %v", page.ID, err)
		return internalError(c)
	}

	return c.JSON(fiber.Map{"id": page.ID, "webhook_secret": secret})
}

// HandleRotateHash regenerates the public hash. The old hash stops resolving
// immediately.
func (alc *AdminLandingController) HandleRotateHash(c *fiber.Ctx) error {
	page, ok := alc.resolveOwnedPage(c)
	if !ok {
		return nil
	}

	oldHash := page.PublicHash
	if err := page.RotatePublicHash(); err != nil {
		log.Printf("public hash generation failed for page %d: %v", page.ID, err)
		return internalError(c)
	}

	if err := alc.pageRepo.Update(page); err != nil {
		log.Printf("public hash rotation failed for page %d: %v", page.ID, err)
		return internalError(c)
	}
	alc.pageRepo.InvalidateLookup(oldHash)

	return c.JSON(fiber.Map{"id": page.ID, "public_hash": page.PublicHash})
}

// HandleReplaceAllowlist overwrites the origin allowlist with a normalized
// (trimmed, lowercased, deduplicated) set of hostnames. An empty list reopens
// the page to any origin; the response says so explicitly.
func (alc *AdminLandingController) HandleReplaceAllowlist(c *fiber.Ctx) error {
	page, ok := alc.resolveOwnedPage(c)
	if !ok {
		return nil
	}

	var req allowlistRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid body"})
	}

	domains, derr := domainsFromRequest(req.Domains)
	if derr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": derr.Error()})
	}

	normalized := page.SetDomainList(domains)
	if err := alc.pageRepo.Update(page); err != nil {
		log.Printf("allowlist update failed for page %d: %v", page.ID, err)
		return internalError(c)
	}

	resp := fiber.Map{"id": page.ID, "allowed_domains": normalized}
	if len(normalized) == 0 {
		resp["warning"] = "allowlist is empty: submissions are accepted from any origin"
	}
	return c.JSON(resp)
}

// resolveOwnedPage loads the addressed landing page and enforces the owner
// capability check: same organization, owner role. On failure the response is
// already written and ok is false.
func (alc *AdminLandingController) resolveOwnedPage(c *fiber.Ctx) (*models.LandingPage, bool) {
	staff := usercontext.GetStaffContext(c)
	if !staff.IsOwner {
		forbidden(c)
		return nil, false
	}

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid landing page id"})
		return nil, false
	}

	page, err := alc.pageRepo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Landing page not found"})
			return nil, false
		}
		log.Printf("landing page lookup failed for id %d: %v", id, err)
		internalError(c)
		return nil, false
	}

	if page.OrganizationID != staff.OrganizationID {
		// Cross-org access reads as not-found, not forbidden, to avoid
		// confirming the page exists.
		c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Landing page not found"})
		return nil, false
	}

	return page, true
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Owner capability required"})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
}

// domainsFromRequest accepts both supported allowlist payload shapes.
func domainsFromRequest(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return models.SplitDomainInput(v), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, errors.New("domains must be strings")
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, errors.New("domains must be a string or an array of strings")
	}
}

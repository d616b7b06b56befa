package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/autentika/leadgate/app/models"
	"github.com/autentika/leadgate/app/repository"
	"github.com/autentika/leadgate/internal/pkg/signature"
)

// Bound on directory lookup and persistence per request. A timeout surfaces
// as a retryable persistence failure, never a hung connection.
const defaultTimeout = 10 * time.Second

// Result is the success-shaped outcome of one submission. Spam results are
// indistinguishable from created leads on the wire except for the Spam flag.
type Result struct {
	Spam          bool
	Duplicate     bool
	LeadUUID      string
	LandingPageID uint
}

// Service is the ingestion orchestrator. Repositories are constructor
// injected so the pipeline is testable without a live database.
type Service struct {
	pages   repository.LandingPageRepository
	leads   repository.LeadRepository
	deduper Deduper
	timeout time.Duration
}

// NewService builds the orchestrator. deduper may be nil to disable the
// optional idempotency window.
func NewService(pages repository.LandingPageRepository, leads repository.LeadRepository, deduper Deduper) *Service {
	return &Service{
		pages:   pages,
		leads:   leads,
		deduper: deduper,
		timeout: defaultTimeout,
	}
}

// Process runs the submission through the pipeline in strict order: parse,
// honeypot, tenant resolution, origin guard, signature, normalization,
// persistence. The first failure short-circuits, except the honeypot, which
// short-circuits to a success-shaped result.
func (s *Service) Process(ctx context.Context, sub *Submission) (*Result, error) {
	fields, perr := sub.Fields()
	if perr != nil {
		return nil, perr
	}

	if IsSpam(fields) {
		// Success-shaped drop. The tenant directory is deliberately not
		// consulted so probers cannot learn anything past this gate.
		return &Result{Spam: true, LandingPageID: 0}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	page, rerr := s.resolveTenant(ctx, ExtractTenantRef(fields))
	if rerr != nil {
		return nil, rerr
	}

	if !MatchesAllowlist(sub.Origin, sub.Referer, page.DomainList()) {
		return nil, newError(KindOriginNotAllowed, nil)
	}

	// The secret is snapshotted from the directory read above; a rotation
	// racing this request cannot produce a mixed view.
	if sub.IsJSON() && page.HasWebhookSecret() {
		if !signature.Verify(sub.RawBody, sub.Signature, page.WebhookSecret) {
			return nil, newError(KindSignatureInvalid, nil)
		}
	}

	normalized, nerr := Normalize(fields)
	if nerr != nil {
		return nil, nerr
	}

	idemKey := sub.IdempotencyKey
	if idemKey == "" {
		idemKey = ExtractIdempotencyKey(fields)
	}
	if s.deduper != nil && idemKey != "" {
		if uuid, found := s.deduper.Lookup(page.ID, idemKey); found {
			return &Result{LeadUUID: uuid, LandingPageID: page.ID, Duplicate: true}, nil
		}
	}

	lead, entry := buildRecords(page, normalized, sub)
	if err := s.leads.CreateWithConsent(ctx, lead, entry); err != nil {
		// Landing page id gives operators enough context; never log lead PII.
		return nil, newError(KindPersistenceFailed, fmt.Errorf("landing page %d: %w", page.ID, err))
	}

	if s.deduper != nil && idemKey != "" {
		s.deduper.Remember(page.ID, idemKey, lead.UUID)
	}

	return &Result{LeadUUID: lead.UUID, LandingPageID: page.ID}, nil
}

func (s *Service) resolveTenant(ctx context.Context, ref TenantRef) (*models.LandingPage, *Error) {
	var (
		page *models.LandingPage
		err  error
	)
	switch {
	case ref.LandingID > 0:
		page, err = s.pages.GetActiveByID(ctx, uint(ref.LandingID))
	case ref.PublicHash != "":
		page, err = s.pages.GetActiveByPublicHash(ctx, ref.PublicHash)
	default:
		return nil, newError(KindTenantNotFound, errors.New("no tenant reference supplied"))
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindTenantNotFound, err)
		}
		// Directory outage or timeout is retryable, not a caller mistake.
		return nil, newError(KindPersistenceFailed, err)
	}

	if ref.OrganizationID > 0 && page.OrganizationID != uint(ref.OrganizationID) {
		return nil, newError(KindTenantNotFound, errors.New("organization mismatch"))
	}

	return page, nil
}

func buildRecords(page *models.LandingPage, n *NormalizedLead, sub *Submission) (*models.Lead, *models.ConsentLog) {
	pageID := page.ID
	lead := &models.Lead{
		OrganizationID: page.OrganizationID,
		LandingPageID:  &pageID,

		Name:  n.Name,
		Phone: n.Phone,
		Email: n.Email,

		InterestAmount: n.InterestAmount,
		TermMonths:     n.TermMonths,
		Goal:           n.Goal,
		Profile:        n.Profile,
		Notes:          n.Notes,

		Consent:      n.Consent,
		ConsentScope: n.ConsentScope,

		UTMSource:   fallback(n.UTMSource, page.DefaultUTMSource),
		UTMMedium:   fallback(n.UTMMedium, page.DefaultUTMMedium),
		UTMCampaign: fallback(n.UTMCampaign, page.DefaultUTMCampaign),
		UTMTerm:     n.UTMTerm,
		UTMContent:  n.UTMContent,
		ReferrerURL: sub.Referer,
		UserAgent:   sub.UserAgent,
		SourceLabel: n.SourceLabel,
		FormLabel:   n.FormLabel,
		Channel:     n.Channel,

		Stage: models.STAGE_NEW,
	}

	var entry *models.ConsentLog
	if n.Consent {
		now := time.Now()
		lead.ConsentAt = &now
		entry = &models.ConsentLog{
			Granted:   true,
			Scope:     n.ConsentScope,
			IP:        sub.IP,
			UserAgent: sub.UserAgent,
		}
	}

	return lead, entry
}

func fallback(value, def string) string {
	if value != "" {
		return value
	}
	return def
}

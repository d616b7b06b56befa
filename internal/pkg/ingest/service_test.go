package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/autentika/leadgate/app/models"
	"github.com/autentika/leadgate/internal/pkg/signature"
)

// fakePageRepo is an in-memory tenant directory.
type fakePageRepo struct {
	pages   map[string]*models.LandingPage // by public hash
	byID    map[uint]*models.LandingPage
	lookups int
}

func newFakePageRepo(pages ...*models.LandingPage) *fakePageRepo {
	r := &fakePageRepo{pages: map[string]*models.LandingPage{}, byID: map[uint]*models.LandingPage{}}
	for _, p := range pages {
		r.pages[p.PublicHash] = p
		r.byID[p.ID] = p
	}
	return r
}

func (r *fakePageRepo) Create(page *models.LandingPage) error { return nil }
func (r *fakePageRepo) GetByID(id uint) (*models.LandingPage, error) {
	if p, ok := r.byID[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (r *fakePageRepo) GetByOrganization(orgID uint) ([]models.LandingPage, error) {
	return nil, nil
}
func (r *fakePageRepo) GetActiveByID(ctx context.Context, id uint) (*models.LandingPage, error) {
	r.lookups++
	if p, ok := r.byID[id]; ok && p.Active {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (r *fakePageRepo) GetActiveByPublicHash(ctx context.Context, hash string) (*models.LandingPage, error) {
	r.lookups++
	if p, ok := r.pages[hash]; ok && p.Active {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (r *fakePageRepo) Update(page *models.LandingPage) error   { return nil }
func (r *fakePageRepo) SetActive(id uint, active bool) error    { return nil }
func (r *fakePageRepo) InvalidateLookup(hash string)            {}

// fakeLeadRepo records created leads and consent entries.
type fakeLeadRepo struct {
	leads   []*models.Lead
	entries []*models.ConsentLog
	fail    error
}

func (r *fakeLeadRepo) CreateWithConsent(ctx context.Context, lead *models.Lead, entry *models.ConsentLog) error {
	if r.fail != nil {
		return r.fail
	}
	lead.ID = uint(len(r.leads) + 1)
	if lead.UUID == "" {
		lead.UUID = fmt.Sprintf("uuid-%d", lead.ID)
	}
	r.leads = append(r.leads, lead)
	if lead.Consent && entry != nil {
		entry.LeadID = lead.ID
		r.entries = append(r.entries, entry)
	}
	return nil
}
func (r *fakeLeadRepo) GetByUUID(uuid string) (*models.Lead, error) { return nil, gorm.ErrRecordNotFound }
func (r *fakeLeadRepo) CountByLandingPage(id uint) (int64, error)   { return int64(len(r.leads)), nil }
func (r *fakeLeadRepo) ConsentLogForLead(id uint) ([]models.ConsentLog, error) {
	return nil, nil
}

// fakeDeduper is an in-memory idempotency window.
type fakeDeduper struct {
	seen map[string]string
}

func newFakeDeduper() *fakeDeduper { return &fakeDeduper{seen: map[string]string{}} }

func (d *fakeDeduper) Lookup(pageID uint, key string) (string, bool) {
	v, ok := d.seen[fmt.Sprintf("%d:%s", pageID, key)]
	return v, ok
}
func (d *fakeDeduper) Remember(pageID uint, key, uuid string) {
	d.seen[fmt.Sprintf("%d:%s", pageID, key)] = uuid
}

func testPage() *models.LandingPage {
	return &models.LandingPage{
		ID:             1,
		OrganizationID: 10,
		Name:           "Consórcio Imobiliário",
		PublicHash:     "abc123",
		Active:         true,
	}
}

func validForm(extra map[string]string) *Submission {
	values := map[string]string{
		"public_hash": "abc123",
		"nome":        gofakeit.Name(),
		"telefone":    "5511999999999",
	}
	for k, v := range extra {
		values[k] = v
	}
	return formSubmission(values)
}

func TestProcessFormHappyPathWithConsent(t *testing.T) {
	t.Parallel()

	pages := newFakePageRepo(testPage())
	leads := &fakeLeadRepo{}
	svc := NewService(pages, leads, nil)

	sub := validForm(map[string]string{"consentimento": "true"})
	sub.IP = "200.100.50.25"
	sub.UserAgent = "Mozilla/5.0"

	result, err := svc.Process(context.Background(), sub)
	require.NoError(t, err)
	assert.False(t, result.Spam)
	assert.NotEmpty(t, result.LeadUUID)
	assert.Equal(t, uint(1), result.LandingPageID)

	require.Len(t, leads.leads, 1)
	lead := leads.leads[0]
	assert.Equal(t, uint(10), lead.OrganizationID)
	require.NotNil(t, lead.LandingPageID)
	assert.Equal(t, uint(1), *lead.LandingPageID)
	assert.Equal(t, models.STAGE_NEW, lead.Stage)
	assert.True(t, lead.Consent)
	require.NotNil(t, lead.ConsentAt)

	// Exactly one consent log row, capturing IP and user agent.
	require.Len(t, leads.entries, 1)
	entry := leads.entries[0]
	assert.Equal(t, lead.ID, entry.LeadID)
	assert.True(t, entry.Granted)
	assert.Equal(t, DefaultConsentScope, entry.Scope)
	assert.Equal(t, "200.100.50.25", entry.IP)
	assert.Equal(t, "Mozilla/5.0", entry.UserAgent)
}

func TestProcessWithoutConsentWritesNoLogEntry(t *testing.T) {
	t.Parallel()

	leads := &fakeLeadRepo{}
	svc := NewService(newFakePageRepo(testPage()), leads, nil)

	result, err := svc.Process(context.Background(), validForm(map[string]string{"consentimento": "false"}))
	require.NoError(t, err)
	assert.NotEmpty(t, result.LeadUUID)

	require.Len(t, leads.leads, 1)
	assert.False(t, leads.leads[0].Consent)
	assert.Nil(t, leads.leads[0].ConsentAt)
	assert.Empty(t, leads.entries)
}

func TestProcessHoneypotShortCircuits(t *testing.T) {
	t.Parallel()

	pages := newFakePageRepo(testPage())
	leads := &fakeLeadRepo{}
	svc := NewService(pages, leads, nil)

	result, err := svc.Process(context.Background(), validForm(map[string]string{"company": "I am a bot"}))
	require.NoError(t, err)
	assert.True(t, result.Spam)

	// The drop happens before the directory is consulted and nothing persists.
	assert.Zero(t, pages.lookups)
	assert.Empty(t, leads.leads)
	assert.Empty(t, leads.entries)
}

func TestProcessTenantResolution(t *testing.T) {
	t.Parallel()

	inactive := testPage()
	inactive.ID = 2
	inactive.PublicHash = "sleepy"
	inactive.Active = false

	pages := newFakePageRepo(testPage(), inactive)
	svc := NewService(pages, &fakeLeadRepo{}, nil)

	t.Run("unknown hash", func(t *testing.T) {
		sub := validForm(map[string]string{"public_hash": "missing"})
		_, err := svc.Process(context.Background(), sub)
		assert.Equal(t, KindTenantNotFound, KindOf(err))
	})

	t.Run("inactive page", func(t *testing.T) {
		sub := validForm(map[string]string{"public_hash": "sleepy"})
		_, err := svc.Process(context.Background(), sub)
		assert.Equal(t, KindTenantNotFound, KindOf(err))
	})

	t.Run("no reference at all", func(t *testing.T) {
		sub := formSubmission(map[string]string{"nome": "Ana", "telefone": "5511999999999"})
		_, err := svc.Process(context.Background(), sub)
		assert.Equal(t, KindTenantNotFound, KindOf(err))
	})

	t.Run("legacy hash alias resolves", func(t *testing.T) {
		sub := formSubmission(map[string]string{"hash": "abc123", "nome": "Ana", "telefone": "5511999999999"})
		result, err := svc.Process(context.Background(), sub)
		require.NoError(t, err)
		assert.Equal(t, uint(1), result.LandingPageID)
	})

	t.Run("explicit landing id resolves", func(t *testing.T) {
		sub := formSubmission(map[string]string{"landing_id": "1", "nome": "Ana", "telefone": "5511999999999"})
		result, err := svc.Process(context.Background(), sub)
		require.NoError(t, err)
		assert.Equal(t, uint(1), result.LandingPageID)
	})

	t.Run("org mismatch rejected", func(t *testing.T) {
		sub := formSubmission(map[string]string{"landing_id": "1", "org_id": "99", "nome": "Ana", "telefone": "5511999999999"})
		_, err := svc.Process(context.Background(), sub)
		assert.Equal(t, KindTenantNotFound, KindOf(err))
	})
}

func TestProcessOriginGuard(t *testing.T) {
	t.Parallel()

	page := testPage()
	page.SetDomainList([]string{"autentika.com.br"})
	svc := NewService(newFakePageRepo(page), &fakeLeadRepo{}, nil)

	t.Run("disallowed origin rejected", func(t *testing.T) {
		sub := validForm(nil)
		sub.Origin = "https://evil.example"
		_, err := svc.Process(context.Background(), sub)
		assert.Equal(t, KindOriginNotAllowed, KindOf(err))
	})

	t.Run("allowlisted referer passes", func(t *testing.T) {
		sub := validForm(nil)
		sub.Origin = "https://evil.example"
		sub.Referer = "https://autentika.com.br/consorcio"
		_, err := svc.Process(context.Background(), sub)
		assert.NoError(t, err)
	})
}

func TestProcessSignature(t *testing.T) {
	t.Parallel()

	page := testPage()
	page.WebhookSecret = "s3cr3t"
	leads := &fakeLeadRepo{}
	svc := NewService(newFakePageRepo(page), leads, nil)

	body := []byte(`{"public_hash":"abc123","nome":"Bob","telefone":"5521888888888"}`)

	t.Run("correct signature over raw bytes succeeds", func(t *testing.T) {
		sub := jsonSubmission(string(body))
		sub.Signature = signature.Compute(body, "s3cr3t")
		result, err := svc.Process(context.Background(), sub)
		require.NoError(t, err)
		assert.NotEmpty(t, result.LeadUUID)
	})

	t.Run("missing signature rejected", func(t *testing.T) {
		sub := jsonSubmission(string(body))
		_, err := svc.Process(context.Background(), sub)
		assert.Equal(t, KindSignatureInvalid, KindOf(err))
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		sub := jsonSubmission(string(body))
		sub.Signature = signature.Compute(body, "wrong")
		_, err := svc.Process(context.Background(), sub)
		assert.Equal(t, KindSignatureInvalid, KindOf(err))
	})

	t.Run("signature over reencoded body rejected", func(t *testing.T) {
		var pretty map[string]any
		require.NoError(t, json.Unmarshal(body, &pretty))
		reencoded, err := json.MarshalIndent(pretty, "", "  ")
		require.NoError(t, err)

		sub := jsonSubmission(string(body))
		sub.Signature = signature.Compute(reencoded, "s3cr3t")
		_, perr := svc.Process(context.Background(), sub)
		assert.Equal(t, KindSignatureInvalid, KindOf(perr))
	})

	t.Run("form submissions never require a signature", func(t *testing.T) {
		sub := validForm(nil)
		_, err := svc.Process(context.Background(), sub)
		assert.NoError(t, err)
	})

	t.Run("rotation invalidates old signatures", func(t *testing.T) {
		sig := signature.Compute(body, page.WebhookSecret)
		_, err := page.RotateWebhookSecret()
		require.NoError(t, err)

		sub := jsonSubmission(string(body))
		sub.Signature = sig
		_, perr := svc.Process(context.Background(), sub)
		assert.Equal(t, KindSignatureInvalid, KindOf(perr))

		sub.Signature = signature.Compute(body, page.WebhookSecret)
		_, perr2 := svc.Process(context.Background(), sub)
		assert.Nil(t, perr2)
	})
}

func TestProcessSignatureNotRequiredWithoutSecret(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakePageRepo(testPage()), &fakeLeadRepo{}, nil)
	sub := jsonSubmission(`{"public_hash":"abc123","nome":"Bob","telefone":"5521888888888"}`)

	result, err := svc.Process(context.Background(), sub)
	require.NoError(t, err)
	assert.NotEmpty(t, result.LeadUUID)
}

func TestProcessValidationFailure(t *testing.T) {
	t.Parallel()

	leads := &fakeLeadRepo{}
	svc := NewService(newFakePageRepo(testPage()), leads, nil)

	sub := formSubmission(map[string]string{"public_hash": "abc123", "nome": "A", "telefone": "1"})
	_, err := svc.Process(context.Background(), sub)
	assert.Equal(t, KindValidationFailed, KindOf(err))
	assert.NotEmpty(t, FieldsOf(err))
	assert.Empty(t, leads.leads)
}

func TestProcessPersistenceFailure(t *testing.T) {
	t.Parallel()

	leads := &fakeLeadRepo{fail: errors.New("connection refused")}
	svc := NewService(newFakePageRepo(testPage()), leads, nil)

	_, err := svc.Process(context.Background(), validForm(nil))
	assert.Equal(t, KindPersistenceFailed, KindOf(err))
}

func TestProcessDefaultUTMAttribution(t *testing.T) {
	t.Parallel()

	page := testPage()
	page.DefaultUTMSource = "landing"
	page.DefaultUTMMedium = "organic"
	leads := &fakeLeadRepo{}
	svc := NewService(newFakePageRepo(page), leads, nil)

	sub := validForm(map[string]string{"utm_source": "facebook"})
	sub.Referer = "https://autentika.com.br/page"
	sub.UserAgent = "curl/8"
	_, err := svc.Process(context.Background(), sub)
	require.NoError(t, err)

	require.Len(t, leads.leads, 1)
	lead := leads.leads[0]
	assert.Equal(t, "facebook", lead.UTMSource) // explicit value wins
	assert.Equal(t, "organic", lead.UTMMedium)  // default fills the hole
	assert.Equal(t, "https://autentika.com.br/page", lead.ReferrerURL)
	assert.Equal(t, "curl/8", lead.UserAgent)
}

func TestProcessIdempotencyWindow(t *testing.T) {
	t.Parallel()

	leads := &fakeLeadRepo{}
	svc := NewService(newFakePageRepo(testPage()), leads, newFakeDeduper())

	sub := validForm(map[string]string{"idempotency_key": "retry-42"})
	first, err := svc.Process(context.Background(), sub)
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	replay, err := svc.Process(context.Background(), validForm(map[string]string{"idempotency_key": "retry-42"}))
	require.NoError(t, err)
	assert.True(t, replay.Duplicate)
	assert.Equal(t, first.LeadUUID, replay.LeadUUID)
	assert.Len(t, leads.leads, 1)

	// A fresh key creates a new lead as usual.
	again, err := svc.Process(context.Background(), validForm(map[string]string{"idempotency_key": "retry-43"}))
	require.NoError(t, err)
	assert.False(t, again.Duplicate)
	assert.Len(t, leads.leads, 2)
}

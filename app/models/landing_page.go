package models

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// domainSeparator joins the normalized allowlist for storage. Newline keeps
// the column readable in the admin UI and diffable in audits.
const domainSeparator = "\n"

var publicHashEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// LandingPage is a public intake point ("tenant" of the gateway) scoped to
// one organization. External callers select it by PublicHash; the hash is not
// a secret, it only routes the submission.
//
// AllowedDomains is stored as a newline-joined normalized list; an empty
// value means the page accepts submissions from any origin. WebhookSecret is
// empty for pages that only take plain HTML form posts.
type LandingPage struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	OrganizationID     uint           `gorm:"index;not null" json:"organization_id"`
	Name               string         `gorm:"type:varchar(150)" json:"name" validate:"required,min=2,max=150"`
	Slug               string         `gorm:"type:varchar(100);index" json:"slug" validate:"omitempty,max=100"`
	PublicHash         string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"public_hash"`
	Active             bool           `gorm:"default:true;index" json:"active"`
	AllowedDomains     string         `gorm:"type:text" json:"-"`
	WebhookSecret      string         `gorm:"type:varchar(128)" json:"-"`
	DefaultUTMSource   string         `gorm:"type:varchar(100)" json:"default_utm_source"`
	DefaultUTMMedium   string         `gorm:"type:varchar(100)" json:"default_utm_medium"`
	DefaultUTMCampaign string         `gorm:"type:varchar(150)" json:"default_utm_campaign"`
	IntakeCount        int64          `gorm:"default:0" json:"intake_count"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (lp *LandingPage) Validate() error {
	v := validator.New()

	return v.Struct(lp)
}

// CreateLandingPage builds a new active landing page with a fresh public hash.
func CreateLandingPage(orgID uint, name, slug string) (*LandingPage, error) {
	hash, err := GeneratePublicHash()
	if err != nil {
		return nil, err
	}

	lp := &LandingPage{
		OrganizationID: orgID,
		Name:           name,
		Slug:           slug,
		PublicHash:     hash,
		Active:         true,
	}

	if err := lp.Validate(); err != nil {
		return nil, err
	}

	return lp, nil
}

// GeneratePublicHash returns a short URL-safe token for public tenant selection.
func GeneratePublicHash() (string, error) {
	b := make([]byte, 10)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToLower(publicHashEncoding.EncodeToString(b)), nil
}

// GenerateWebhookSecret returns a high-entropy shared secret for HMAC signing.
func GenerateWebhookSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// RotatePublicHash replaces the public hash. The old hash stops resolving for
// all subsequent requests; in-flight requests keep the value they presented.
func (lp *LandingPage) RotatePublicHash() error {
	hash, err := GeneratePublicHash()
	if err != nil {
		return err
	}
	lp.PublicHash = hash
	return nil
}

// RotateWebhookSecret issues a new secret and returns it. There is no grace
// period: the previous secret is invalid as soon as the row is saved.
func (lp *LandingPage) RotateWebhookSecret() (string, error) {
	secret, err := GenerateWebhookSecret()
	if err != nil {
		return "", err
	}
	lp.WebhookSecret = secret
	return secret, nil
}

// HasWebhookSecret reports whether signed JSON submissions are required.
func (lp *LandingPage) HasWebhookSecret() bool {
	return lp.WebhookSecret != ""
}

// DomainList returns the stored allowlist as a slice. Empty slice = no
// origin restriction.
func (lp *LandingPage) DomainList() []string {
	if strings.TrimSpace(lp.AllowedDomains) == "" {
		return nil
	}
	return strings.Split(lp.AllowedDomains, domainSeparator)
}

// SetDomainList normalizes and stores the allowlist. An empty result clears
// the restriction entirely, reopening the page to any origin.
func (lp *LandingPage) SetDomainList(domains []string) []string {
	normalized := NormalizeAllowlist(domains)
	lp.AllowedDomains = strings.Join(normalized, domainSeparator)
	return normalized
}

// NormalizeAllowlist trims, lowercases and deduplicates hostnames, dropping
// empties. Order is stable (sorted) so stored values are comparable.
func NormalizeAllowlist(domains []string) []string {
	seen := make(map[string]struct{}, len(domains))
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// SplitDomainInput accepts the admin surface's free-form allowlist input
// (comma and/or newline delimited) and returns the raw entries.
func SplitDomainInput(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	return fields
}

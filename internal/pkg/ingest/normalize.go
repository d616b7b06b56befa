package ingest

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Honeypot field rendered invisibly on public forms. Humans never fill it.
const honeypotField = "company"

// DefaultConsentScope is recorded when the caller grants consent without
// naming a scope.
const DefaultConsentScope = "contato-comercial"

var validate = validator.New()

// fieldLabels maps struct fields back to the public wire names used in
// validation error responses.
var fieldLabels = map[string]string{
	"Name":  "nome",
	"Phone": "telefone",
	"Email": "email",
}

// NormalizedLead is the canonical, typed payload handed to the persistence
// sink. Interest fields are pointers: absent or unparsable input becomes nil
// instead of failing the submission.
type NormalizedLead struct {
	Name  string `validate:"required,min=2"`
	Phone string `validate:"required,min=6"`
	Email string `validate:"omitempty,email"`

	InterestAmount *float64
	TermMonths     *int
	Goal           string
	Profile        string
	Notes          string

	Consent      bool
	ConsentScope string

	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	UTMTerm     string
	UTMContent  string
	SourceLabel string
	FormLabel   string
	Channel     string
}

// TenantRef is the caller-supplied tenant selection: an explicit landing page
// id, a public hash (with legacy alias), optionally qualified by an org id.
type TenantRef struct {
	LandingID      uint64
	OrganizationID uint64
	PublicHash     string
}

// IsSpam evaluates the honeypot. Runs before any external state is touched so
// probers cannot fingerprint later pipeline stages.
func IsSpam(fields map[string]any) bool {
	return strings.TrimSpace(asString(fields[honeypotField])) != ""
}

// ExtractTenantRef pulls the tenant selection out of the field map. The
// canonical `public_hash` key wins over the legacy `hash` alias when both are
// present.
func ExtractTenantRef(fields map[string]any) TenantRef {
	ref := TenantRef{}
	ref.LandingID = asUint(fields["landing_id"])
	ref.OrganizationID = asUint(fields["org_id"])
	ref.PublicHash = strings.TrimSpace(asString(fields["public_hash"]))
	if ref.PublicHash == "" {
		ref.PublicHash = strings.TrimSpace(asString(fields["hash"]))
	}
	return ref
}

// ExtractIdempotencyKey returns the optional client-supplied dedupe token.
func ExtractIdempotencyKey(fields map[string]any) string {
	return strings.TrimSpace(asString(fields["idempotency_key"]))
}

// Normalize validates and coerces the remaining fields into the canonical
// payload. Contact fields are strict; interest fields are soft and degrade to
// nil on bad input.
func Normalize(fields map[string]any) (*NormalizedLead, *Error) {
	n := &NormalizedLead{
		Name:  strings.TrimSpace(asString(fields["nome"])),
		Phone: strings.TrimSpace(asString(fields["telefone"])),
		Email: strings.TrimSpace(asString(fields["email"])),

		InterestAmount: asFloat(fields["valorInteresse"]),
		TermMonths:     asInt(fields["prazoMeses"]),
		Goal:           strings.TrimSpace(asString(fields["objetivo"])),
		Profile:        strings.TrimSpace(asString(fields["perfil"])),
		Notes:          strings.TrimSpace(asString(fields["observacoes"])),

		Consent:      asBool(fields["consentimento"]),
		ConsentScope: strings.TrimSpace(asString(fields["escopo_consentimento"])),

		UTMSource:   strings.TrimSpace(asString(fields["utm_source"])),
		UTMMedium:   strings.TrimSpace(asString(fields["utm_medium"])),
		UTMCampaign: strings.TrimSpace(asString(fields["utm_campaign"])),
		UTMTerm:     strings.TrimSpace(asString(fields["utm_term"])),
		UTMContent:  strings.TrimSpace(asString(fields["utm_content"])),
		SourceLabel: strings.TrimSpace(asString(fields["source_label"])),
		FormLabel:   strings.TrimSpace(asString(fields["form_label"])),
		Channel:     strings.TrimSpace(asString(fields["channel"])),
	}

	if n.Consent && n.ConsentScope == "" {
		n.ConsentScope = DefaultConsentScope
	}

	if err := validate.Struct(n); err != nil {
		var fieldErrs []FieldError
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, ve := range verrs {
				label := fieldLabels[ve.StructField()]
				if label == "" {
					label = strings.ToLower(ve.StructField())
				}
				fieldErrs = append(fieldErrs, FieldError{Field: label, Msg: validationMessage(ve)})
			}
		}
		return nil, validationError(fieldErrs)
	}

	return n, nil
}

func validationMessage(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "min":
		return "min length " + ve.Param()
	case "email":
		return "must be a valid email address"
	}
	return ve.Tag()
}

func asString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	}
	return ""
}

func asFloat(v any) *float64 {
	switch val := v.(type) {
	case float64:
		return &val
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return &f
	}
	return nil
}

func asInt(v any) *int {
	switch val := v.(type) {
	case float64:
		i := int(val)
		return &i
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return nil
		}
		return &i
	}
	return nil
}

// asBool accepts a JSON boolean or the literal strings "true"/"false".
// Anything else means no consent.
func asBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return strings.TrimSpace(val) == "true"
	}
	return false
}

func asUint(v any) uint64 {
	switch val := v.(type) {
	case float64:
		if val > 0 {
			return uint64(val)
		}
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0
		}
		u, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0
		}
		return u
	}
	return 0
}

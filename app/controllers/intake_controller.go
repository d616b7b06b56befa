package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/autentika/leadgate/internal/pkg/ingest"
	"github.com/autentika/leadgate/internal/pkg/metrics/counter"
)

// Signature header for signed JSON submissions.
const authSignatureHeader = "X-Auth-Signature"

// IntakeController exposes the public lead ingestion endpoint.
type IntakeController struct {
	svc *ingest.Service
}

// NewIntakeController creates the controller around an ingestion service.
func NewIntakeController(svc *ingest.Service) *IntakeController {
	return &IntakeController{svc: svc}
}

// HandleIntake accepts an untrusted submission and runs it through the
// ingestion pipeline.
func (ic *IntakeController) HandleIntake(c *fiber.Ctx) error {
	return ic.process(c, "")
}

// HandleIntakeByHash serves the form-action alias route /l/:hash, where
// no-code HTML forms carry the tenant selection in the URL instead of a body
// field.
func (ic *IntakeController) HandleIntakeByHash(c *fiber.Ctx) error {
	return ic.process(c, c.Params("hash"))
}

func (ic *IntakeController) process(c *fiber.Ctx, hashOverride string) error {
	sub := ic.buildSubmission(c, hashOverride)

	result, err := ic.svc.Process(c.UserContext(), sub)
	if err != nil {
		return ic.renderFailure(c, err)
	}

	if result.Spam {
		// Deliberately success-shaped; probers must not learn the honeypot fired.
		if cerr := counter.AddSpam(); cerr != nil {
			log.Printf("spam counter increment failed: %v", cerr)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "spam": true})
	}

	if !result.Duplicate {
		if cerr := counter.AddIntake(result.LandingPageID); cerr != nil {
			log.Printf("intake counter increment failed for landing page %d: %v", result.LandingPageID, cerr)
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "id": result.LeadUUID})
}

func (ic *IntakeController) buildSubmission(c *fiber.Ctx, hashOverride string) *ingest.Submission {
	sub := &ingest.Submission{
		ContentType:    c.Get(fiber.HeaderContentType),
		RawBody:        c.Body(),
		Origin:         c.Get(fiber.HeaderOrigin),
		Referer:        c.Get(fiber.HeaderReferer),
		UserAgent:      c.Get(fiber.HeaderUserAgent),
		IP:             GetClientIP(c),
		Signature:      c.Get(authSignatureHeader),
		IdempotencyKey: c.Get("Idempotency-Key"),
	}

	if !sub.IsJSON() {
		sub.FormValues = collectFormValues(c)
	}

	if hashOverride != "" {
		if sub.FormValues == nil && !sub.IsJSON() {
			sub.FormValues = map[string]string{}
		}
		if sub.FormValues != nil {
			if _, ok := sub.FormValues["public_hash"]; !ok {
				sub.FormValues["public_hash"] = hashOverride
			}
		}
	}

	return sub
}

// renderFailure maps pipeline failures to HTTP responses. Only validation
// failures carry field detail; forbidden and unauthorized bodies stay generic
// so an adversarial caller cannot tell which gate rejected them.
func (ic *IntakeController) renderFailure(c *fiber.Ctx, err error) error {
	switch ingest.KindOf(err) {
	case ingest.KindMalformedBody:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "malformed_body"})
	case ingest.KindTenantNotFound:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "unknown_destination"})
	case ingest.KindOriginNotAllowed:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"ok": false, "error": "forbidden"})
	case ingest.KindSignatureInvalid:
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"ok": false, "error": "unauthorized"})
	case ingest.KindValidationFailed:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"ok":     false,
			"error":  "validation_failed",
			"fields": ingest.FieldsOf(err),
		})
	default:
		log.Printf("lead persistence failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "internal_server_error"})
	}
}

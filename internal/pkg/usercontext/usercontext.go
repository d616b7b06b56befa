package usercontext

import "github.com/gofiber/fiber/v2"

// Locals key for the staff context set by the owner auth middleware.
const ContextKey = "STAFF_CONTEXT"

// StaffContext carries the authenticated admin caller: their organization and
// whether they hold the owner capability required for tenant administration.
type StaffContext struct {
	UserID         uint   `json:"user_id"`
	OrganizationID uint   `json:"organization_id"`
	Name           string `json:"name"`
	IsOwner        bool   `json:"is_owner"`
}

// GetStaffContext retrieves the staff context from fiber context.
// Returns a zero (unauthenticated) context if none is set.
func GetStaffContext(c *fiber.Ctx) StaffContext {
	if ctx := c.Locals(ContextKey); ctx != nil {
		return ctx.(StaffContext)
	}
	return StaffContext{}
}

// IsAuthenticated reports whether the request carries a resolved staff user.
func IsAuthenticated(c *fiber.Ctx) bool {
	return GetStaffContext(c).UserID != 0
}

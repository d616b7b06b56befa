package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GetClientIP determines the caller IP, preferring the first X-Forwarded-For
// entry set by the edge proxy over the direct connection address.
func GetClientIP(c *fiber.Ctx) string {
	xff := c.Get("X-Forwarded-For")
	if xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	return c.IP()
}

// collectFormValues flattens the parsed form body into a string map. Handles
// both urlencoded and multipart transports; repeated keys keep the first
// value.
func collectFormValues(c *fiber.Ctx) map[string]string {
	values := make(map[string]string)

	if form, err := c.MultipartForm(); err == nil && form != nil {
		for key, vals := range form.Value {
			if _, ok := values[key]; !ok && len(vals) > 0 {
				values[key] = vals[0]
			}
		}
		return values
	}

	c.Request().PostArgs().VisitAll(func(key, val []byte) {
		k := string(key)
		if _, ok := values[k]; !ok {
			values[k] = string(val)
		}
	})
	return values
}

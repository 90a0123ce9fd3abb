package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/tably/internal/staff"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderStaffID        = "X-Staff-Id"
	HeaderStaffName      = "X-Staff-Name"
	HeaderStaffRole      = "X-Staff-Role"
	HeaderStaffCaps      = "X-Staff-Caps"
)

// StaffContext resolves the acting staff member from request headers.
// Authentication happens upstream; the engine trusts the forwarded identity
// and only enforces capabilities.
func StaffContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderStaffID))
		if id == "" {
			c.Next()
			return
		}

		actor := staff.NewActor(
			id,
			c.GetHeader(HeaderStaffName),
			c.GetHeader(HeaderStaffRole),
			c.GetHeader(HeaderStaffCaps),
		)
		ctx := staff.WithActor(c.Request.Context(), actor)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func idempotencyKey(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
}

func parseID(c *gin.Context, param string) (snowflake.ID, bool) {
	raw := strings.TrimSpace(c.Param(param))
	id, err := snowflake.ParseString(raw)
	if err != nil || raw == "" {
		AbortWithError(c, newValidationError(param, "invalid_id", "invalid identifier"))
		return 0, false
	}
	return id, true
}

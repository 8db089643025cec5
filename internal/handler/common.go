package handler // handler defines http handlers

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// RoleAdmin may refund any booking and inspect any booking's status.
const RoleAdmin = "ADMIN"

// getUserID extracts the user_id stored by the JWT middleware and
// converts it to uint64.  The claim round-trips through JSON, so it may
// arrive as any numeric type or a string.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// isAdmin reports whether the authenticated caller holds the ADMIN role.
func isAdmin(c echo.Context) bool {
	role, ok := c.Get("role").(string)
	return ok && role == RoleAdmin
}

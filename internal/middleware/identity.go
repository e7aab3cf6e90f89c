package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/studio-booking/internal/utils"
)

// ContextUserID is the echo context key holding the verified user id.
const ContextUserID = "user_id"

// JWTAuth verifies the Bearer identity token and stores its subject under
// ContextUserID.  Requests without a valid token are rejected with 401
// before reaching the handler.
func JWTAuth(secret, issuer string, log *zap.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token", "code": "UNAUTHENTICATED"})
			}
			sub, err := utils.ParseIdentityToken(secret, issuer, strings.TrimSpace(raw))
			if err != nil {
				log.Debug("identity token rejected", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token", "code": "UNAUTHENTICATED"})
			}
			c.Set(ContextUserID, sub)
			return next(c)
		}
	}
}

// UserID returns the verified user id, or "" when the request is
// anonymous.
func UserID(c echo.Context) string {
	if s, ok := c.Get(ContextUserID).(string); ok {
		return s
	}
	return ""
}

package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/voxkit/assistant-widget/internal/service"
)

const claimsContextKey = "session_claims"

// AuthMiddleware validates call-session tokens. Websocket clients that
// cannot set headers may pass the token as a query parameter instead.
func (s *Server) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := bearerToken(c)
		if token == "" {
			token = c.QueryParam("token")
		}
		if token == "" {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing session token"})
		}

		claims, err := s.sessions.Validate(token)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid session token"})
		}

		c.Set(claimsContextKey, claims)
		return next(c)
	}
}

// GetClaims extracts the validated session claims from the echo
// context.
func GetClaims(c echo.Context) *service.SessionClaims {
	claims, _ := c.Get(claimsContextKey).(*service.SessionClaims)
	return claims
}

func bearerToken(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if auth == "" {
		return ""
	}
	parts := strings.Fields(auth)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

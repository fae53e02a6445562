package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/pezhmanazar/phoenix-admin/pkg/util/errorutil"
)

const tokenKey = "admin_token"

// SessionMiddleware resolves the admin credential of a request from the
// session cookie, or from a bearer header when no cookie is present.
type SessionMiddleware struct {
	cookieName string
	tokens     *TokenInspector
}

// NewSessionMiddleware constructs middleware reading cookieName.
func NewSessionMiddleware(cookieName string, tokens *TokenInspector) *SessionMiddleware {
	return &SessionMiddleware{cookieName: cookieName, tokens: tokens}
}

// Handle rejects requests without a usable admin token.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	token := c.Cookies(m.cookieName)
	if token == "" {
		token = bearerToken(c.Get(fiber.HeaderAuthorization))
	}

	if err := m.tokens.Check(token); err != nil {
		if errors.Is(err, errTokenExpired) {
			return apperrors.NewUnauthorized("session_expired")
		}
		return apperrors.NewUnauthorized("not_authenticated")
	}

	c.Locals(tokenKey, token)
	return c.Next()
}

// TokenFromContext retrieves the admin token resolved by Handle.
func TokenFromContext(c *fiber.Ctx) (string, bool) {
	token, ok := c.Locals(tokenKey).(string)
	return token, ok && token != ""
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

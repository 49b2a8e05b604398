package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/invoice-dashboard/internal/domain"
	"github.com/totegamma/invoice-dashboard/internal/service"
)

var tracer = otel.Tracer("auth")

type AuthMiddleware struct {
	auth   *service.AuthService
	config domain.SessionConfig
}

func NewAuthMiddleware(
	auth *service.AuthService,
	config domain.SessionConfig,
) *AuthMiddleware {
	return &AuthMiddleware{
		auth:   auth,
		config: config,
	}
}

// token reads the session token from the session cookie, falling back to a
// Bearer authorization header.
func (s *AuthMiddleware) token(c echo.Context) (string, error) {
	if cookie, err := c.Cookie(s.config.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	authHeader := c.Request().Header.Get("authorization")
	if authHeader == "" {
		return "", nil
	}

	split := strings.Split(authHeader, " ")
	if len(split) != 2 {
		return "", fmt.Errorf("invalid authentication header")
	}

	authType, token := split[0], split[1]
	if authType != "Bearer" {
		return "", fmt.Errorf("only Bearer is acceptable")
	}
	return token, nil
}

// IdentifyIdentity stores the requester in the request context when a valid
// session is presented. It never rejects a request.
func (s *AuthMiddleware) IdentifyIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.IdentifyIdentity")
		defer span.End()

		token, err := s.token(c)
		if err != nil {
			span.RecordError(err)
			goto skipCheckAuthorization
		}

		if token != "" {
			result, err := s.auth.AuthJwt(ctx, token)
			if err != nil {
				span.RecordError(errors.Wrap(err, "AuthMiddleware.IdentifyIdentity: s.auth.AuthJwt failed"))
				goto skipCheckAuthorization
			}

			ctx = context.WithValue(ctx, domain.RequesterIdCtxKey, result.UserID)
			span.SetAttributes(attribute.String("RequesterId", result.UserID))
		}

	skipCheckAuthorization:
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// RequireSession lets only identified requesters through. Page loads are
// sent to the login form; everything else gets 401.
func (s *AuthMiddleware) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requester, _ := c.Request().Context().Value(domain.RequesterIdCtxKey).(string)
		if requester != "" {
			return next(c)
		}

		if c.Request().Method == http.MethodGet && !strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) {
			return c.Redirect(http.StatusSeeOther, domain.LoginRoute)
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
}

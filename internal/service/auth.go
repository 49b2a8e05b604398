package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/totegamma/invoice-dashboard/internal/domain"
)

var tracer = otel.Tracer("service")

const sessionIssuer = "invoice-dashboard"

// SessionClaims is the payload of the session cookie.
type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AuthService issues and checks session tokens.
type AuthService struct {
	config domain.SessionConfig
	now    func() time.Time
}

func NewAuthService(config domain.SessionConfig) *AuthService {
	return &AuthService{
		config: config,
		now:    time.Now,
	}
}

type AuthResult struct {
	UserID string
	Email  string
}

// Issue signs an HS256 session token for user.
func (s *AuthService) Issue(user domain.User) (domain.Session, error) {
	if len(s.config.Secret) == 0 {
		return domain.Session{}, fmt.Errorf("session secret is not configured")
	}

	now := s.now()
	expiresAt := now.Add(s.config.TTL)
	claims := SessionClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.Secret)
	if err != nil {
		return domain.Session{}, errors.Wrap(err, "failed to sign session")
	}

	return domain.Session{
		Token:     token,
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresAt: expiresAt,
	}, nil
}

// AuthJwt validates a session token and returns who it belongs to.
func (s *AuthService) AuthJwt(ctx context.Context, token string) (*AuthResult, error) {
	_, span := tracer.Start(ctx, "Auth.Service.AuthJwt")
	defer span.End()

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (any, error) {
			return s.config.Secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		span.RecordError(errors.Wrap(err, "jwt validation failed"))
		return nil, err
	}

	if claims.Subject == "" {
		err := fmt.Errorf("invalid subject")
		span.RecordError(err)
		return nil, err
	}

	return &AuthResult{UserID: claims.Subject, Email: claims.Email}, nil
}

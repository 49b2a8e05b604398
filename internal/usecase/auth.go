package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/totegamma/invoice-dashboard/internal/domain"
	"github.com/totegamma/invoice-dashboard/internal/validation"
)

// CredentialVerifier looks users up and checks their password hash.
type CredentialVerifier struct {
	users  UserRepository
	hasher PasswordHasher
}

func NewCredentialVerifier(users UserRepository, hasher PasswordHasher) *CredentialVerifier {
	return &CredentialVerifier{
		users:  users,
		hasher: hasher,
	}
}

// Lookup returns the user registered under email, or nil when there is none.
// Store failures are returned as errors and must not be read as "not found".
func (v *CredentialVerifier) Lookup(ctx context.Context, email string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Auth.Usecase.Lookup")
	defer span.End()

	user, err := v.users.GetByEmail(ctx, email)
	if err != nil {
		span.RecordError(err)
		if !errors.Is(err, domain.ErrLookupFailed) {
			err = fmt.Errorf("%w: %v", domain.ErrLookupFailed, err)
		}
		return nil, err
	}
	return user, nil
}

func (v *CredentialVerifier) Compare(password, hash string) (bool, error) {
	return v.hasher.Compare(password, hash)
}

// CompareUnknown spends the time of a real compare for an email with no
// account, so response times do not reveal which emails are registered.
func (v *CredentialVerifier) CompareUnknown(password string) {
	_, _ = v.hasher.Compare(password, v.hasher.DummyHash())
}

// CredentialsAuthorizer is the email/password provider.
type CredentialsAuthorizer struct {
	verifier *CredentialVerifier
}

func NewCredentialsAuthorizer(verifier *CredentialVerifier) *CredentialsAuthorizer {
	return &CredentialsAuthorizer{verifier: verifier}
}

func (p *CredentialsAuthorizer) Name() string {
	return domain.CredentialsProviderName
}

// Authorize returns the user when the credentials are well formed, the user
// exists and the password matches. Every rejection returns (nil, nil) so the
// caller cannot tell which check failed. Only a failed lookup is an error.
func (p *CredentialsAuthorizer) Authorize(ctx context.Context, credentials url.Values) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Auth.Usecase.Authorize")
	defer span.End()

	attempt := loginAttempt{span: span}
	defer attempt.finish()

	attempt.to(domain.LoginValidating)
	creds, ok := validation.ValidateCredentials(credentials)
	if !ok {
		attempt.to(domain.LoginRejected)
		return nil, nil
	}

	attempt.to(domain.LoginLookingUp)
	user, err := p.verifier.Lookup(ctx, creds.Email)
	if err != nil {
		attempt.to(domain.LoginSystemError)
		span.RecordError(err)
		return nil, err
	}
	if user == nil {
		p.verifier.CompareUnknown(creds.Password)
		attempt.to(domain.LoginRejected)
		return nil, nil
	}

	attempt.to(domain.LoginComparing)
	match, err := p.verifier.Compare(creds.Password, user.Password)
	if err != nil {
		// an unreadable hash cannot match anything
		span.RecordError(pkgerrors.Wrap(err, "password compare failed"))
	}
	if err != nil || !match {
		attempt.to(domain.LoginRejected)
		return nil, nil
	}

	attempt.to(domain.LoginAuthenticated)
	return user, nil
}

// loginAttempt follows one attempt through the login state machine and
// records where it ended on the span.
type loginAttempt struct {
	state domain.LoginState
	span  trace.Span
}

func (a *loginAttempt) to(next domain.LoginState) {
	if !a.state.CanTransition(next) {
		panic(fmt.Sprintf("invalid login transition %s -> %s", a.state, next))
	}
	a.state = next
}

func (a *loginAttempt) finish() {
	a.span.SetAttributes(attribute.String("login.state", a.state.String()))
}

// AuthConfig is built once at startup and handed to the AuthUsecase.
type AuthConfig struct {
	Providers []CredentialsProvider
	Sessions  SessionIssuer
}

func (c *AuthConfig) provider(name string) CredentialsProvider {
	for _, p := range c.Providers {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

type AuthUsecase struct {
	config *AuthConfig
}

func NewAuthUsecase(config *AuthConfig) *AuthUsecase {
	return &AuthUsecase{config: config}
}

// SignIn authorizes the form with the named provider and issues a session.
// Rejected credentials yield domain.ErrCredentialsSignin.
func (uc *AuthUsecase) SignIn(ctx context.Context, provider string, form url.Values) (*domain.Session, error) {
	ctx, span := tracer.Start(ctx, "Auth.Usecase.SignIn")
	defer span.End()

	p := uc.config.provider(provider)
	if p == nil {
		err := fmt.Errorf("unknown auth provider %q", provider)
		span.RecordError(err)
		return nil, err
	}

	user, err := p.Authorize(ctx, form)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "authorize failed")
	}
	if user == nil {
		return nil, domain.ErrCredentialsSignin
	}

	session, err := uc.config.Sessions.Issue(*user)
	if err != nil {
		span.RecordError(err)
		return nil, pkgerrors.Wrap(err, "session issue failed")
	}
	return &session, nil
}

// Authenticate is the login form entry point. Rejected credentials are
// reported as the "CredentialsSignin" code; any other failure is returned
// as an error for the caller to surface as a fatal one.
func (uc *AuthUsecase) Authenticate(ctx context.Context, _ string, form url.Values) (string, *domain.Session, error) {
	session, err := uc.SignIn(ctx, domain.CredentialsProviderName, form)
	if err != nil {
		if errors.Is(err, domain.ErrCredentialsSignin) {
			return domain.CredentialsSigninCode, nil, nil
		}
		return "", nil, err
	}
	return "", session, nil
}

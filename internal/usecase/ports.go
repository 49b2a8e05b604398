package usecase

import (
	"context"
	"net/url"

	"github.com/totegamma/invoice-dashboard/internal/domain"
)

// InvoiceRepository defines storage operations for invoices.
// Each write is a single statement.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice domain.Invoice) (domain.Invoice, error)
	Update(ctx context.Context, id string, customerID string, amount int64, status domain.InvoiceStatus) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, query string, page int) ([]domain.InvoiceRow, error)
	CountPages(ctx context.Context, query string) (int, error)
}

// UserRepository looks up accounts. GetByEmail returns (nil, nil) when no
// user matches and an error wrapping domain.ErrLookupFailed when the store
// cannot answer.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Revalidator discards cached output for a path.
type Revalidator interface {
	Revalidate(ctx context.Context, path string) error
}

// PasswordHasher compares a plaintext password with a stored hash.
// DummyHash is a hash no password matches, costing the same to compare.
type PasswordHasher interface {
	Compare(password, hash string) (bool, error)
	DummyHash() string
}

// SessionIssuer establishes a session for an authorized user.
type SessionIssuer interface {
	Issue(user domain.User) (domain.Session, error)
}

// CredentialsProvider authorizes a set of submitted credentials.
// A nil user with a nil error means the credentials were rejected.
type CredentialsProvider interface {
	Name() string
	Authorize(ctx context.Context, credentials url.Values) (*domain.User, error)
}

package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/totegamma/invoice-dashboard/internal/domain"
	"github.com/totegamma/invoice-dashboard/internal/infra/database/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByEmail runs SELECT * FROM users WHERE email = ? and decodes the row
// explicitly. It returns (nil, nil) when no user matches.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var rows []map[string]any
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", email).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLookupFailed, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	user, err := decodeUser(rows[0])
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func decodeUser(row map[string]any) (domain.User, error) {
	id, err := textColumn(row, "id", true)
	if err != nil {
		return domain.User{}, err
	}
	email, err := textColumn(row, "email", true)
	if err != nil {
		return domain.User{}, err
	}
	password, err := textColumn(row, "password", true)
	if err != nil {
		return domain.User{}, err
	}
	name, err := textColumn(row, "name", false)
	if err != nil {
		return domain.User{}, err
	}

	return domain.User{
		ID:       id,
		Name:     name,
		Email:    email,
		Password: password,
	}, nil
}

func textColumn(row map[string]any, column string, required bool) (string, error) {
	raw, ok := row[column]
	if !ok || raw == nil {
		if required {
			return "", domain.MalformedRowError{Table: "users", Column: column, Reason: "is missing"}
		}
		return "", nil
	}

	var value string
	switch v := raw.(type) {
	case string:
		value = v
	case []byte:
		value = string(v)
	case *string:
		if v != nil {
			value = *v
		}
	case fmt.Stringer:
		value = v.String()
	default:
		return "", domain.MalformedRowError{Table: "users", Column: column, Reason: fmt.Sprintf("has unexpected type %T", raw)}
	}

	if required && value == "" {
		return "", domain.MalformedRowError{Table: "users", Column: column, Reason: "is empty"}
	}
	return value, nil
}

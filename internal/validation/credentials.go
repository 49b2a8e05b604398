package validation

import (
	"net/url"
	"strings"
)

type credentialsSchema struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,min=6"`
}

type Credentials struct {
	Email    string
	Password string
}

// ValidateCredentials checks the shape of a login form. It only reports
// whether the shape is acceptable, never which rule failed.
func ValidateCredentials(form url.Values) (Credentials, bool) {
	schema := credentialsSchema{
		Email:    strings.TrimSpace(form.Get("email")),
		Password: form.Get("password"),
	}
	if err := validate.Struct(schema); err != nil {
		return Credentials{}, false
	}
	return Credentials{Email: schema.Email, Password: schema.Password}, true
}

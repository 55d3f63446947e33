package domain

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	Admin        bool
}

var nameAlpha = regexp.MustCompile("^[a-zA-Z]+$")

// ValidateRegistration checks the fields supplied at signup. The password
// hash is produced later and is not part of this check.
func ValidateRegistration(email, password, name string) error {
	return validation.Errors{
		"email": validation.Validate(email, validation.Required, is.Email),
		"password": validation.Validate(password,
			validation.Required,
			validation.Length(8, 128).Error("password must be 8-128 characters")),
		"name": validation.Validate(name,
			validation.Required,
			validation.Match(nameAlpha).Error("name must contain only letters")),
	}.Filter()
}

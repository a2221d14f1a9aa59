// Package validation provides input validation utilities
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	validate      = newValidator()
	usernameChars = regexp.MustCompile(`^[a-zA-Z0-9@.+_-]+$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Struct validates s against its `validate` tags and returns the first failure as a readable error.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	return describe(verrs[0])
}

func describe(fe validator.FieldError) error {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "max":
		return fmt.Errorf("%s must not exceed %s characters", field, fe.Param())
	case "min":
		return fmt.Errorf("%s must be at least %s characters long", field, fe.Param())
	case "email":
		return fmt.Errorf("invalid email format")
	default:
		return fmt.Errorf("%s is invalid", field)
	}
}

// ValidatePassword checks if a password meets security requirements.
func ValidatePassword(password string) error {
	if len(password) < 12 {
		return fmt.Errorf("password must be at least 12 characters long")
	}
	// bcrypt ignores everything past 72 bytes
	if len(password) > 72 {
		return fmt.Errorf("password must not exceed 72 characters")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return fmt.Errorf("password must contain at least one uppercase letter")
	case !hasLower:
		return fmt.Errorf("password must contain at least one lowercase letter")
	case !hasDigit:
		return fmt.Errorf("password must contain at least one digit")
	case !hasSpecial:
		return fmt.Errorf("password must contain at least one special character (!@#$%%^&*)")
	}
	return nil
}

// ValidateUsername checks if a username meets requirements.
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return fmt.Errorf("username must be at least 3 characters long")
	}
	if len(username) > 150 {
		return fmt.Errorf("username must not exceed 150 characters")
	}
	if !usernameChars.MatchString(username) {
		return fmt.Errorf("username can only contain letters, numbers, and @/./+/-/_ characters")
	}
	return nil
}

// ValidateEmail checks email format.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}
	if err := validate.Var(email, "email"); err != nil {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

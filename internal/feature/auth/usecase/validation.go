package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"natours_backend/internal/feature/auth/domain/entity"
	"natours_backend/internal/shared/apperr"
)

// Field rules. Every violation is reported, not just the first one.
type signupFields struct {
	Name            string `json:"name" validate:"required,min=3,max=25"`
	Email           string `json:"email" validate:"required,min=5,max=254,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type profileFields struct {
	Name  string `json:"name" validate:"required,min=3,max=25"`
	Email string `json:"email" validate:"required,min=5,max=254,email"`
}

type passwordFields struct {
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type roleFields struct {
	Role string `json:"role" validate:"required,oneof=user guide lead-guide admin"`
}

var fieldMessages = map[string]map[string]string{
	"name": {
		"required": "Name is required",
		"min":      "Name should be at least 3 characters",
		"max":      "Name should not be longer than 25 characters",
	},
	"email": {
		"required": "Email is required",
		"min":      "Email must be at least 5 characters long",
		"max":      "Email must be at most 254 characters long",
		"email":    "Please enter a valid email address",
	},
	"password": {
		"required": "Password is required",
		"min":      "Password must be at least 8 characters long",
	},
	"passwordConfirm": {
		"required": "Please confirm your password",
		"eqfield":  "Passwords do not match",
	},
	"role": {
		"required": "Role is required",
		"oneof":    "Role is either: " + roleList(),
	},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateFields runs the rules on s and folds every violation into one apperr.Validation.
func validateFields(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}
	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{
			Field:   fe.Field(),
			Message: messageFor(fe.Field(), fe.Tag()),
		})
	}
	return apperr.Validation(fields)
}

func messageFor(field, tag string) string {
	if msgs, ok := fieldMessages[field]; ok {
		if msg, ok := msgs[tag]; ok {
			return msg
		}
	}
	return fmt.Sprintf("%s is invalid", field)
}

func roleList() string {
	names := make([]string, 0, len(entity.Roles))
	for _, r := range entity.Roles {
		names = append(names, string(r))
	}
	return strings.Join(names, ", ")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

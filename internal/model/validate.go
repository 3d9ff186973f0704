package model

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var mapIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// NewValidator returns a validator with the catalog rules registered:
// "mapid" (safe to use as a directory name) and "tiletemplate" (each
// placeholder exactly once).
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("mapid", func(fl validator.FieldLevel) bool {
		return mapIDPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("tiletemplate", func(fl validator.FieldLevel) bool {
		return ValidateTemplate(fl.Field().String()) == nil
	})

	return v
}

// ValidateStruct runs v against s and folds field errors into a single
// ErrValidation-wrapped error.
func ValidateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, ", "))
}

package project

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError carries one human-readable message per failed field.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NewValidator returns a validator that reports fields by their JSON name.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks s against its struct tags and returns a *ValidationError
// on failure.
func Validate(v *validator.Validate, s interface{}) error {
	return formatErrors("", v.Struct(s))
}

// formatErrors turns validator output into a ValidationError. Errors that
// are not validation failures are returned unchanged.
func formatErrors(prefix string, err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if prefix != "" {
			field = prefix + "." + field
		}
		msg := fmt.Sprintf("Field '%s' failed on the '%s' tag", field, fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("%s (value: %s)", msg, fe.Param())
		}
		msgs = append(msgs, msg)
	}
	return &ValidationError{Errors: msgs}
}

// merge folds several validation results into one error.
func merge(errs ...error) error {
	var out ValidationError
	for _, err := range errs {
		if err == nil {
			continue
		}
		var ve *ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		out.Errors = append(out.Errors, ve.Errors...)
	}
	if len(out.Errors) == 0 {
		return nil
	}
	return &out
}

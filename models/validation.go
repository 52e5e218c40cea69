package models

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field error messages, shared by every payload.
const (
	MsgRequired   = "This field is required."
	MsgBlank      = "This field may not be blank."
	MsgTooLong    = "Ensure this field has no more than 255 characters."
	MsgInvalidInt = "A valid integer is required."
	MsgNoFile     = "No file was submitted."
	MsgBadImage   = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
)

// MaxNameLength bounds titles, names and emails.
const MaxNameLength = 255

// ValidationErrors maps a field name to its error messages. It is rendered
// as-is in 400 responses.
type ValidationErrors map[string][]string

// Add appends msg to the messages of field.
func (v ValidationErrors) Add(field, msg string) {
	v[field] = append(v[field], msg)
}

// Err returns v as an error, or nil when no field failed.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(v[f], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewFieldError returns a ValidationErrors holding a single message.
func NewFieldError(field, msg string) ValidationErrors {
	return ValidationErrors{field: {msg}}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// notblank rejects strings made only of whitespace.
	v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	// maxbytes bounds the encoded length, bcrypt reads at most 72 bytes.
	v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= n
	})
	return v
}

// validateStruct runs the struct tags of v and converts failures into
// ValidationErrors keyed by json field path, e.g. "timer_type[1].name".
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	errs := ValidationErrors{}
	for _, fe := range fieldErrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		errs.Add(field, fieldMessage(fe))
	}
	return errs.Err()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "notblank":
		return MsgBlank
	case "email":
		return "Enter a valid email address."
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "maxbytes":
		return fmt.Sprintf("Ensure this field has no more than %s bytes.", fe.Param())
	}
	return "Invalid value."
}

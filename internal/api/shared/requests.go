package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/taskboard/taskboard/internal/domain"
)

// MaxBodyBytes bounds the size of request bodies.
const MaxBodyBytes = 1 << 20

// Global validator instance for reuse. Field names are reported by their
// JSON name.
var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}()

// ErrEmptyBody is returned by DecodeJSON when the request has no body.
var ErrEmptyBody = errors.New("request body is empty")

// DecodeJSON decodes the request body into v. Syntax errors are reported as
// a validation error on the "body" field; errors produced by v's own
// UnmarshalJSON are returned unchanged.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	err := json.NewDecoder(body).Decode(v)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return domain.NewValidationError("body", "No data provided.", ErrEmptyBody)
	}

	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		tooLarge  *http.MaxBytesError
	)
	switch {
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return domain.NewValidationError("body", "JSON parse error.", domain.ErrInvalidFormat)
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return domain.NewValidationError(field, "Incorrect type.", domain.ErrInvalidFormat)
	case errors.As(err, &tooLarge):
		return domain.NewValidationError("body", "Request body too large.", domain.ErrInvalidFormat)
	}
	return err
}

// ValidateRequest validates the given struct using the validator package.
func ValidateRequest(v interface{}) error {
	// Check if the object implements the Validate interface
	if validator, ok := v.(interface{ Validate() error }); ok {
		return validator.Validate()
	}

	// Otherwise, use the struct validator
	err := validate.Struct(v)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		var out domain.ValidationErrors
		for _, fe := range verrs {
			out.Add(domain.NewValidationError(topField(fe), tagMessage(fe), domain.ErrValidation))
		}
		return out.Err()
	}
	return err
}

// topField names the request field a validation failure belongs to, so a
// failure on task_ids[2] is reported against task_ids.
func topField(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	if i := strings.IndexAny(ns, ".["); i >= 0 {
		ns = ns[:i]
	}
	return ns
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s elements.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s elements.", fe.Param())
	case "gt":
		return fmt.Sprintf("Ensure this value is greater than %s.", fe.Param())
	default:
		return "Invalid value."
	}
}

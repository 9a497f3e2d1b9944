package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/ghuser/itemsapi/pkg/httpx"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]

		// ignore unexported or explicitly ignored
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	if err := validate.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("validator: register notblank: %v", err))
	}
}

// Validate runs struct-level validation using go-playground/validator tags.
func Validate(s any) error {
	return validate.Struct(s)
}

// FormatValidationErrors converts validator.ValidationErrors into a map of
// field name → human-readable message.
func FormatValidationErrors(err error) map[string]string {
	errs := make(map[string]string)
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return errs
	}
	for _, e := range ve {
		errs[e.Field()] = formatFieldError(e)
	}
	return errs
}

func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "Is required"
	case "notblank":
		return "Must be a non-empty string"
	case "uuid", "uuid4":
		return "Must be a valid UUID"
	case "min":
		return fmt.Sprintf("Minimum length is %s", e.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", e.Param())
	case "boolean":
		return "Must be a boolean"
	default:
		return fmt.Sprintf("Validation failed on '%s'", e.Tag())
	}
}

// DecodeJSON decodes the request body into T. Malformed JSON and values of
// the wrong JSON type are answered with a 400 and (nil, false).
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDecodeError(w, err)
		return nil, false
	}
	return &req, true
}

// ValidateRequest decodes the JSON request body into T, validates it, and
// writes an appropriate error response if either step fails.
// Returns (parsedStruct, true) on success or (nil, false) on failure.
func ValidateRequest[T any](w http.ResponseWriter, r *http.Request) (*T, bool) {
	req, ok := DecodeJSON[T](w, r)
	if !ok {
		return nil, false
	}
	if err := Validate(req); err != nil {
		fields := FormatValidationErrors(err)
		httpx.JSONFieldErrors(w, summary(fields), fields)
		return nil, false
	}
	return req, true
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		fields := map[string]string{typeErr.Field: "Must be a " + JSONTypeName(typeErr.Type)}
		httpx.JSONFieldErrors(w, summary(fields), fields)
	case errors.As(err, &maxErr):
		httpx.JSONError(w, http.StatusRequestEntityTooLarge, "Request body too large")
	case errors.Is(err, io.EOF):
		httpx.JSONError(w, http.StatusBadRequest, "Request body is required")
	default:
		httpx.JSONError(w, http.StatusBadRequest, "Invalid JSON")
	}
}

// JSONTypeName names the JSON type a Go type decodes from.
func JSONTypeName(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "value"
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "object"
	}
}

func summary(fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	if len(names) == 0 {
		return "Validation failed"
	}
	slices.Sort(names)
	return "Validation failed: " + strings.Join(names, ", ")
}

// Package validators decodes and checks request input, returning
// VALIDATION_ERROR failures with per-field details.
package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/smartpos/smartpos-backend/pkg/errors"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	if err := v.RegisterValidation("non_negative_money", nonNegativeMoney); err != nil {
		panic(err)
	}
	return v
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// nonNegativeMoney accepts decimal strings >= 0. Money travels as strings
// so float rounding never touches prices.
func nonNegativeMoney(fl validator.FieldLevel) bool {
	field := reflect.Indirect(fl.Field())
	if !field.IsValid() {
		return true
	}
	if field.Kind() != reflect.String {
		return false
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(field.String()))
	return err == nil && !amount.IsNegative()
}

// DecodeJSONBody reads exactly one JSON object into dest, rejecting unknown
// fields and oversize bodies, then runs the validate tags.
func DecodeJSONBody(r *http.Request, dest any) error {
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	defer func() {
		_, _ = io.Copy(io.Discard, body)
	}()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return bodyError(err)
	}
	if dec.More() {
		return pkgerrors.New(pkgerrors.CodeValidation, "request body must hold a single JSON object")
	}

	err := validate.Struct(dest)
	var fieldErrs validator.ValidationErrors
	switch {
	case err == nil:
		return nil
	case errors.As(err, &fieldErrs):
		details := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			details[fe.Field()] = describe(fe)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
}

func bodyError(err error) error {
	var tooBig *http.MaxBytesError
	var syntax *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	detail := map[string]any{}
	switch {
	case errors.As(err, &tooBig):
		detail["limit_bytes"] = tooBig.Limit
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "request body too large").WithDetails(detail)
	case errors.Is(err, io.EOF):
		return pkgerrors.New(pkgerrors.CodeValidation, "request body is empty")
	case errors.As(err, &syntax):
		detail["offset"] = syntax.Offset
	case errors.As(err, &typeErr):
		detail["field"] = typeErr.Field
		detail["expected"] = typeErr.Type.String()
	default:
		detail["error"] = err.Error()
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").WithDetails(detail)
}

var tagMessages = map[string]string{
	"required":           "is required",
	"email":              "must be a valid email",
	"uuid":               "must be a valid uuid",
	"non_negative_money": "must be a non-negative amount",
	"min":                "must be at least %s",
	"max":                "must be at most %s",
	"gt":                 "must be greater than %s",
	"ne":                 "must not be %s",
	"oneof":              "must be one of [%s]",
}

func describe(fe validator.FieldError) string {
	msg, ok := tagMessages[fe.Tag()]
	if !ok {
		return "is invalid"
	}
	if strings.Contains(msg, "%s") {
		return fmt.Sprintf(msg, fe.Param())
	}
	return msg
}

package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mcdev12/eventrelay/go/internal/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// dateLayout is enforced on fields tagged format:"date" when strict dates are on.
const dateLayout = "datetime=2006-01-02"

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// decodeRecord fills record from a JSON object. Every declared field is required and
// must hold a value of its declared type; unknown keys are ignored. Date fields are free
// text unless strictDates is set.
func decodeRecord(body json.RawMessage, record models.Record, strictDates bool) error {
	var fields map[string]json.RawMessage
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return &SchemaValidationError{Errors: []FieldError{{Field: "body", Message: "field required"}}}
	}
	if err := json.Unmarshal(trimmed, &fields); err != nil || fields == nil {
		return &SchemaValidationError{Errors: []FieldError{{Field: "body", Message: "must be an object"}}}
	}

	v := reflect.ValueOf(record).Elem()
	t := v.Type()

	var errs []FieldError
	for i := 0; i < t.NumField(); i++ {
		name := jsonName(t.Field(i))
		if name == "" {
			continue
		}
		raw, ok := fields[name]
		if !ok {
			errs = append(errs, FieldError{Field: name, Message: "field required"})
			continue
		}
		if err := setField(v.Field(i), raw); err != nil {
			errs = append(errs, FieldError{Field: name, Message: err.Error()})
		}
	}
	if len(errs) > 0 {
		return &SchemaValidationError{Errors: errs}
	}

	if strictDates {
		errs = checkDates(v, t)
		if len(errs) > 0 {
			return &SchemaValidationError{Errors: errs}
		}
	}
	return nil
}

func checkDates(v reflect.Value, t reflect.Type) []FieldError {
	var errs []FieldError
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("format") != "date" {
			continue
		}
		if err := validate.Var(v.Field(i).String(), dateLayout); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				errs = append(errs, FieldError{Field: jsonName(t.Field(i)), Message: err.Error()})
				continue
			}
			errs = append(errs, FieldError{Field: jsonName(t.Field(i)), Message: constraintMessage(verrs[0])})
		}
	}
	return errs
}

func setField(f reflect.Value, raw json.RawMessage) error {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return errors.New("must not be null")
	}

	switch f.Kind() {
	case reflect.String:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return errors.New("must be a string")
		}
		f.SetString(s)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := parseInt(raw)
		if err != nil {
			return err
		}
		if f.OverflowInt(n) {
			return errors.New("integer out of range")
		}
		f.SetInt(n)
	case reflect.Float32, reflect.Float64:
		x, err := parseNumber(raw)
		if err != nil {
			return errors.New("must be a number")
		}
		f.SetFloat(x)
	default:
		return fmt.Errorf("unsupported field type %s", f.Kind())
	}
	return nil
}

// parseNumber accepts a JSON number or a string holding one.
func parseNumber(raw []byte) (float64, error) {
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return 0, err
	}
	x, err := num.Float64()
	if err != nil || math.IsInf(x, 0) || math.IsNaN(x) {
		return 0, fmt.Errorf("invalid number %q", num)
	}
	return x, nil
}

// parseInt accepts integral numbers, including ones written with a zero fraction.
func parseInt(raw []byte) (int64, error) {
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return 0, errors.New("must be an integer")
	}
	if n, err := num.Int64(); err == nil {
		return n, nil
	}
	x, err := num.Float64()
	if err != nil || x != math.Trunc(x) || math.Abs(x) > math.MaxInt64 {
		return 0, errors.New("must be an integer")
	}
	return int64(x), nil
}

func constraintMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "datetime":
		return "must be a date formatted as YYYY-MM-DD"
	default:
		return fmt.Sprintf("failed %q constraint", fe.Tag())
	}
}

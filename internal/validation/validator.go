package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/preschool-cms-api/internal/models"
)

const notBlankTag = "notblank"

// enumTags are custom tags accepting one value out of a fixed list
var enumTags = map[string][]string{
	"weekday":  models.Weekdays,
	"agegroup": models.AgeGroups,
	"program":  models.Programs,
	"childage": models.ChildAges,
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Validator checks form structs against their validate tags
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance that reports JSON field names
func NewValidator() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation(notBlankTag, notBlankValidation)
	for tag, values := range enumTags {
		_ = v.RegisterValidation(tag, enumValidation(values))
	}

	return &Validator{validate: v}
}

// Struct validates s and returns one error per failing field
func (v *Validator) Struct(s interface{}) []ValidationError {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []ValidationError{{Field: "", Message: err.Error()}}
	}

	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: message(fe),
			Value:   valueOf(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	if values, ok := enumTags[fe.Tag()]; ok {
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(values, ", "))
	}
	switch fe.Tag() {
	case "required", notBlankTag:
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "datetime":
		return fmt.Sprintf("%s must be a date in %s format", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func valueOf(fe validator.FieldError) interface{} {
	val := fe.Value()
	if s, ok := val.(string); ok && s == "" {
		return nil
	}
	return val
}

func enumValidation(values []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		for _, v := range values {
			if str == v {
				return true
			}
		}
		return false
	}
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

// Fields returns the names of the fields in errs, for logging
func Fields(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Field
	}
	return out
}

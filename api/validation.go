package api

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/warp/kpi-tracker/model"
)

// newValidator returns a validator that reports fields by their JSON name
// and knows the "isoweek" tag.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("isoweek", func(fl validator.FieldLevel) bool {
		_, err := model.ParseWeek(fl.Field().String())
		return err == nil
	})
	return v
}

// validationMessage turns the first validation failure into a sentence
// such as "Rating Justification is required".
func validationMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return "Invalid input"
	}
	e := errs[0]
	field := humanize(e.Field())

	switch e.Tag() {
	case "required":
		return field + " is required"
	case "min", "gte":
		if e.Kind() == reflect.Slice {
			return "At least " + e.Param() + " " + strings.ToLower(field) + " must be given"
		}
		return field + " must be at least " + e.Param()
	case "max", "lte":
		return field + " must be at most " + e.Param()
	case "oneof":
		return field + " must be one of: " + e.Param()
	case "isoweek":
		return field + " must be an ISO week like 2024-W10"
	}
	return field + " is invalid"
}

// humanize turns "ratingJustification" into "Rating Justification".
func humanize(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return cases.Title(language.English).String(b.String())
}

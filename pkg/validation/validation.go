// Package validation builds the shared struct validator with planner-specific tags.
package validation

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// New returns a validator with the hhmm and weeklabel tags registered.
// hexcolor ships with validator itself.
func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return IsClock(fl.Field().String())
	})
	_ = v.RegisterValidation("weeklabel", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "A" || s == "B"
	})
	return v
}

// IsClock reports whether s is a 24h HH:MM time.
func IsClock(s string) bool {
	return clockPattern.MatchString(s)
}

// Messages flattens validator errors into "field: tag" strings.
func Messages(err error) []string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(errs))
	for _, fe := range errs {
		msg := strings.ToLower(fe.Field()) + ": " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		out = append(out, msg)
	}
	return out
}

// Package validation validates request payloads with go-playground/validator and
// renders failures as English messages keyed by JSON field name.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"rocr/backend/internal/platform/apperror"
)

// FieldError describes one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// New returns a Validator reporting JSON tag names and English messages.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	locale := en.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)
	return &Validator{validate: v, trans: trans}
}

// Struct validates s. Validation failures come back as a 400 VALIDATION_ERROR
// whose details list every offending field.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldError{Field: fe.Field(), Message: fe.Translate(v.trans)})
	}
	return apperror.BadRequest(apperror.CodeValidation, "Validation failed").WithDetails(details)
}

// Var validates a single value against tag and reports failures under field,
// in the same shape as Struct.
func (v *Validator) Var(field string, value any, tag string) error {
	err := v.validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		// Var errors carry no field name, so the translation starts with an empty subject.
		msg := field + " " + strings.TrimSpace(fe.Translate(v.trans))
		details = append(details, FieldError{Field: field, Message: msg})
	}
	return apperror.BadRequest(apperror.CodeValidation, "Validation failed").WithDetails(details)
}

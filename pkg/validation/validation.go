package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	es_translations "github.com/go-playground/validator/v10/translations/es"
)

const notBlankTag = "notblank"

var (
	once       sync.Once
	validate   *validator.Validate
	translator ut.Translator
)

// Default returns the shared validator. Field names in errors are the JSON tag names
// and messages are registered in Spanish.
func Default() *validator.Validate {
	once.Do(func() {
		locale := es.New()
		uni := ut.New(locale, locale)
		translator, _ = uni.GetTranslator("es")

		validate = validator.New()
		_ = es_translations.RegisterDefaultTranslations(validate, translator)

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		_ = validate.RegisterValidation(notBlankTag, notBlank)
		_ = validate.RegisterTranslation(notBlankTag, translator,
			func(t ut.Translator) error { return t.Add(notBlankTag, "{0} no puede estar vacío", true) },
			func(t ut.Translator, fe validator.FieldError) string {
				s, _ := t.T(notBlankTag, fe.Field())
				return s
			})
	})
	return validate
}

// Describe renders a validation failure as a readable Spanish message.
func Describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Datos inválidos"
	}
	Default()
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(translator))
	}
	return strings.Join(msgs, "; ")
}

func notBlank(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

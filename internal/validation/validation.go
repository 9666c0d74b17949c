// Package validation общий валидатор форм с собственными правилами.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"rfpintake/models"
)

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// New создаёт валидатор. Имена полей в ошибках берутся из json-тегов.
//
// Дополнительные правила:
//
//	filled       строка не пустая после TrimSpace
//	emailshape   local@domain.tld
//	httpurl      начинается с http:// или https://
//	bcryptsafe   не длиннее 72 байт
//	rfpstatus    Draft, Active или Closed
//	reviewstatus статус рассмотрения заявки
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	rules := map[string]validator.Func{
		"filled": func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		},
		"emailshape": func(fl validator.FieldLevel) bool {
			return emailShape.MatchString(fl.Field().String())
		},
		"httpurl": func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
		},
		"bcryptsafe": func(fl validator.FieldLevel) bool {
			return len(fl.Field().String()) <= 72
		},
		"rfpstatus": func(fl validator.FieldLevel) bool {
			return models.ValidRFPStatus(models.RFPStatus(fl.Field().String()))
		},
		"reviewstatus": func(fl validator.FieldLevel) bool {
			return models.ValidReviewStatus(models.ReviewStatus(fl.Field().String()))
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	return v
}

// FieldErrors достаёт ошибки по полям, nil если err не от валидатора
func FieldErrors(err error) validator.ValidationErrors {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

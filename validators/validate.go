// Package validators holds the request validation shared by the per-area
// validator middlewares.
package validators

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"ninma/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "query", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
	})
	return validate
}

// Struct validates v and returns a field -> message map, empty when valid.
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)
	err := instance().Struct(v)
	if err == nil {
		return errs
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs["_"] = err.Error()
		return errs
	}
	for _, fe := range verrs {
		errs[fieldPath(fe)] = message(fe)
	}
	return errs
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Campo obrigatório!"
	case "email":
		return "Email inválido!"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Deve ter no mínimo %s caracteres!", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Deve conter pelo menos %s item(ns)!", fe.Param())
		}
		return fmt.Sprintf("Deve ser no mínimo %s!", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Deve ter no máximo %s caracteres!", fe.Param())
		}
		return fmt.Sprintf("Deve ser no máximo %s!", fe.Param())
	case "oneof":
		return fmt.Sprintf("Deve ser um dos valores: %s!", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url":
		return "URL inválida!"
	case "gtefield":
		return fmt.Sprintf("Não pode ser anterior a %s!", fe.Param())
	case "eqfield":
		return fmt.Sprintf("Deve ser igual a %s!", fe.Param())
	case "required_if", "required_without":
		return "Campo obrigatório!"
	}
	return fmt.Sprintf("Falhou na regra '%s'!", fe.Tag())
}

// ParseBody decodes the JSON body into dst and validates it. When it returns
// false the error response has already been written.
func ParseBody(c *fiber.Ctx, dst interface{}) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Corpo da requisição inválido!", nil)
	}
	if errs := Struct(dst); len(errs) > 0 {
		return false, middleware.ValidationErrorResponse(c, errs)
	}
	return true, nil
}

// ParseQuery is ParseBody for the query string.
func ParseQuery(c *fiber.Ctx, dst interface{}) (bool, error) {
	if err := c.QueryParser(dst); err != nil {
		return false, middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Parâmetros de consulta inválidos!", nil)
	}
	if errs := Struct(dst); len(errs) > 0 {
		return false, middleware.ValidationErrorResponse(c, errs)
	}
	return true, nil
}

// ParseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", s)
}

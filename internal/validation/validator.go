// Package validation plugs go-playground/validator into echo and converts its
// field errors into domain.ValidationError.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/travelco/travel-planner/internal/domain"
	"github.com/travelco/travel-planner/internal/model"
)

// Checker is implemented by models with rules beyond struct tags.
type Checker interface {
	Validate() error
}

// Validator satisfies echo.Validator.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	// a zero Date counts as missing for `required`
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(model.Date); ok {
			return d.String()
		}
		return nil
	}, model.Date{})
	return &Validator{v: v}
}

// Validate runs tag validation and then the model's own checks. Only the
// first failure is reported.
func (cv *Validator) Validate(i any) error {
	if err := cv.v.Struct(i); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return toDomain(fieldErrs[0])
		}
		return domain.ValidationError{Msg: err.Error()}
	}
	if c, ok := i.(Checker); ok {
		return c.Validate()
	}
	return nil
}

func toDomain(fe validator.FieldError) error {
	field := fe.Field()
	var msg string
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "email":
		msg = "must be a valid email"
	case "oneof":
		msg = "must be one of " + strings.ReplaceAll(fe.Param(), "'", "")
	case "min", "gte":
		if fe.Kind() == reflect.String {
			msg = fmt.Sprintf("must be at least %s characters", fe.Param())
		} else {
			msg = fmt.Sprintf("must be >= %s", fe.Param())
		}
	case "max", "lte":
		if fe.Kind() == reflect.String {
			msg = fmt.Sprintf("cannot exceed %s characters", fe.Param())
		} else {
			msg = fmt.Sprintf("must be <= %s", fe.Param())
		}
	case "len":
		msg = fmt.Sprintf("must be %s characters", fe.Param())
	case "numeric":
		msg = "must contain only digits"
	default:
		msg = "is invalid"
	}
	return domain.ValidationError{Field: field, Msg: msg}
}

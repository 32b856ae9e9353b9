package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Messages shared with the HTTP layer.
const (
	MsgRequired = "This field is required."
	MsgBlank    = "This field may not be blank."
)

// Validator applies struct tag rules and renders failures with the
// messages API clients already expect.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator with the custom tags used by the payloads.
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Decimals are validated in their textual form.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	validate.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if n, ok := field.Interface().(Number); ok {
			return n.text()
		}
		return nil
	}, Number{})

	validate.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if o, ok := field.Interface().(Optional[[]string]); ok && o.Set && !o.Null {
			return o.Value
		}
		return []string(nil)
	}, Optional[[]string]{})

	mustRegister(validate, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(validate, "countrycode", func(fl validator.FieldLevel) bool {
		code := fl.Field().String()
		return code == "" || validate.Var(code, "iso3166_1_alpha2") == nil
	})
	mustRegister(validate, "decimal", func(fl validator.FieldLevel) bool {
		_, err := decimal.NewFromString(fl.Field().String())
		return err == nil
	})
	mustRegister(validate, "maxdigits", decimalRule(func(whole, places int) int { return whole + places }))
	mustRegister(validate, "maxplaces", decimalRule(func(_, places int) int { return places }))
	mustRegister(validate, "maxwhole", decimalRule(func(whole, _ int) int { return whole }))

	return &Validator{validate: validate}
}

func mustRegister(validate *validator.Validate, tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %s: %v", tag, err))
	}
}

// decimalRule builds a validation comparing a digit count of a decimal
// string against the tag parameter.
func decimalRule(count func(whole, places int) int) validator.Func {
	return func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		whole, places := decimalDigits(fl.Field().String())
		return count(whole, places) <= limit
	}
}

// decimalDigits counts the digits before and after the decimal point,
// ignoring sign and leading zeros of the integer part.
func decimalDigits(s string) (whole, places int) {
	s = strings.TrimLeft(s, "+-")
	intPart, fracPart, _ := strings.Cut(s, ".")
	intPart = strings.TrimLeft(intPart, "0")
	return len(intPart), len(fracPart)
}

// Struct validates s and returns the failures keyed by JSON field name.
func (v *Validator) Struct(s any) (FieldErrors, error) {
	errs := FieldErrors{}

	err := v.validate.Struct(s)
	if err == nil {
		return errs, nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil, err
	}

	for _, fe := range validationErrors {
		errs.Add(fieldName(fe), message(fe))
	}

	return errs, nil
}

// fieldName drops the element index of dived slices, e.g.
// workflowlevel2_uuid[0] → workflowlevel2_uuid.
func fieldName(fe validator.FieldError) string {
	name, _, _ := strings.Cut(fe.Field(), "[")
	return name
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "notblank":
		return MsgBlank
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "countrycode":
		return fmt.Sprintf("%q is not a valid choice.", fe.Value())
	case "decimal":
		return MsgInvalidNumber
	case "maxdigits":
		return fmt.Sprintf("Ensure that there are no more than %s digits in total.", fe.Param())
	case "maxplaces":
		return fmt.Sprintf("Ensure that there are no more than %s decimal places.", fe.Param())
	case "maxwhole":
		return fmt.Sprintf("Ensure that there are no more than %s digits before the decimal point.", fe.Param())
	case "uuid", "uuid4":
		return "Must be a valid UUID."
	default:
		return fe.Error()
	}
}

package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"walletpay/pkg/utils"
)

type FieldErrors map[string]string

var BillingCycles = []string{"monthly", "yearly", "weekly", "daily"}

var registerOnce sync.Once

// RegisterValidators installs the payment tags on gin's binding engine. Safe to
// call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		Register(v)
	})
}

// Register installs the payment tags on v.
func Register(v *validator.Validate) {
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("amount_positive", func(fl validator.FieldLevel) bool {
		d, ok := fieldDecimal(fl)
		return ok && d.IsPositive()
	})
	_ = v.RegisterValidation("amount_max", func(fl validator.FieldLevel) bool {
		d, ok := fieldDecimal(fl)
		return ok && d.LessThanOrEqual(utils.MaxAmount)
	})
	_ = v.RegisterValidation("amount_scale", func(fl validator.FieldLevel) bool {
		d, ok := fieldDecimal(fl)
		return ok && d.Equal(d.Truncate(utils.AmountScale))
	})
	_ = v.RegisterValidation("currency_code", func(fl validator.FieldLevel) bool {
		return utils.IsSupportedCurrency(fl.Field().String())
	})
	_ = v.RegisterValidation("billing_cycle", func(fl validator.FieldLevel) bool {
		cycle := strings.ToLower(strings.TrimSpace(fl.Field().String()))
		for _, c := range BillingCycles {
			if c == cycle {
				return true
			}
		}
		return false
	})

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return strings.ToLower(f.Name)
		}
		return name
	})
}

func fieldDecimal(fl validator.FieldLevel) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// FromBindError turns a gin binding error into a field -> message map.
func FromBindError(err error) FieldErrors {
	out := FieldErrors{}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.Field()] = messageFor(fe.Field(), fe.Tag(), fe.Param())
		}
		return out
	}

	out["_"] = "Request body is not valid JSON or has fields of the wrong type."
	return out
}

func messageFor(field, tag, param string) string {
	switch field + "." + tag {
	case "token.min":
		return "Invalid payment token format."
	case "token.json":
		return "Payment token must be valid JSON."
	}

	switch tag {
	case "required":
		return "This field is required."
	case "amount_positive":
		return "Amount must be greater than zero."
	case "amount_max":
		return "Amount exceeds maximum limit."
	case "amount_scale":
		return "Ensure that there are no more than 2 decimal places."
	case "currency_code":
		return "Currency must be one of: " + strings.Join(utils.SupportedCurrencies, ", ")
	case "billing_cycle":
		return "Billing cycle must be one of: " + strings.Join(BillingCycles, ", ")
	case "uuid", "uuid4":
		return "Must be a valid UUID."
	case "min":
		return "Must be at least " + param + " characters."
	case "max":
		return "Must be at most " + param + " characters."
	default:
		return "Invalid value."
	}
}

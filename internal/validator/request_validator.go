package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"storefront/internal/usecase"

	playground "github.com/go-playground/validator/v10"
)

var (
	cepRe = regexp.MustCompile(`^\d{5}-?\d{3}$`)

	brStates = map[string]struct{}{
		"AC": {}, "AL": {}, "AP": {}, "AM": {}, "BA": {}, "CE": {}, "DF": {}, "ES": {}, "GO": {},
		"MA": {}, "MT": {}, "MS": {}, "MG": {}, "PA": {}, "PB": {}, "PR": {}, "PE": {}, "PI": {},
		"RJ": {}, "RN": {}, "RS": {}, "RO": {}, "RR": {}, "SC": {}, "SP": {}, "SE": {}, "TO": {},
	}
)

// echo.Validator の実装（c.Validate で呼ばれる）
type RequestValidator struct {
	v *playground.Validate
}

func NewRequestValidator() *RequestValidator {
	v := playground.New(playground.WithRequiredStructEnabled())

	//エラーメッセージはjsonのキー名で出す
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("cep", func(fl playground.FieldLevel) bool {
		return cepRe.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	_ = v.RegisterValidation("brstate", func(fl playground.FieldLevel) bool {
		_, ok := brStates[strings.ToUpper(strings.TrimSpace(fl.Field().String()))]
		return ok
	})

	return &RequestValidator{v: v}
}

// 失敗は usecase の ValidationError（400）
func (rv *RequestValidator) Validate(i interface{}) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}

	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return usecase.NewValidationError("invalid request")
	}
	return usecase.NewValidationError(formatFieldError(verrs[0]))
}

// メールなど単体の値
func (rv *RequestValidator) Var(field interface{}, tag string) error {
	return rv.v.Var(field, tag)
}

func formatFieldError(fe playground.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "url":
		return fmt.Sprintf("%s must be a valid url", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be <= %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be > %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "cep":
		return fmt.Sprintf("%s must be a valid CEP", field)
	case "brstate":
		return fmt.Sprintf("%s must be a valid state", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

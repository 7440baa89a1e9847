package dto

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"

	"orderledger/internal/core/apperror"
	"orderledger/internal/core/types"
	"orderledger/internal/domain/parties"
)

// RegisterValidators installs the "currency" and "phone" tags on gin's
// binding engine. Numbers without a country prefix are parsed in phoneRegion.
func RegisterValidators(phoneRegion string) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	return registerOn(v, phoneRegion)
}

func registerOn(v *validator.Validate, phoneRegion string) error {
	if phoneRegion == "" {
		phoneRegion = parties.DefaultPhoneRegion
	}
	if err := v.RegisterValidation("currency", validateCurrency); err != nil {
		return err
	}
	return v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		raw := strings.TrimSpace(fl.Field().String())
		if raw == "" {
			return true
		}
		num, err := libphonenumber.Parse(raw, phoneRegion)
		return err == nil && libphonenumber.IsValidNumber(num)
	})
}

// validateCurrency accepts an empty value (the default currency applies) or a
// 3-letter ISO code.
func validateCurrency(fl validator.FieldLevel) bool {
	_, err := types.ParseCurrency(fl.Field().String())
	return err == nil
}

// BindingError converts a binding failure into a validation AppError listing
// the offending fields.
func BindingError(message string, err error) *apperror.AppError {
	appErr := apperror.NewValidation(message)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErr.WithDetail("error", err.Error())
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldName(fe)] = fe.Tag()
	}
	return appErr.WithDetail("fields", fields)
}

// fieldName lowercases the first letter to match JSON field names.
func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}

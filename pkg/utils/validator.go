package utils

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

func ValidateStruct(s interface{}) error {
	return getValidator().Struct(s)
}

// GetValidationErrors แปลง validator error เป็น field -> message
func GetValidationErrors(err error) map[string]string {
	result := make(map[string]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		result["_"] = err.Error()
		return result
	}

	for _, fe := range verrs {
		field := lowerFirst(fe.Field())
		switch fe.Tag() {
		case "required":
			result[field] = fmt.Sprintf("%s is required", field)
		case "max":
			result[field] = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		case "min":
			result[field] = fmt.Sprintf("%s must be at least %s", field, fe.Param())
		case "oneof":
			result[field] = fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
		default:
			result[field] = fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
		}
	}
	return result
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

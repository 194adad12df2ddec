package utils

import (
	goerrors "errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/turtacn/uats/pkg/errors"
)

// defaultValidator holds the singleton instance of the validator.
var defaultValidator *validator.Validate

func init() {
	defaultValidator = validator.New()
	// positive_decimal accepts amounts typed into a form, e.g. "0.5" or "1200"
	_ = defaultValidator.RegisterValidation("positive_decimal", validatePositiveDecimal)
}

// ValidateStruct validates a struct using the default validator.
// It returns an invalid_request error listing every failing field.
func ValidateStruct(s interface{}) errors.UATSError {
	err := defaultValidator.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !goerrors.As(err, &validationErrors) {
		return errors.ErrInvalidRequest(err.Error())
	}

	details := make(map[string]interface{}, len(validationErrors))
	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		field := ToSnakeCase(fe.Field())
		msg := formatValidationError(fe)
		details[field] = msg
		messages = append(messages, field+" "+msg)
	}
	sort.Strings(messages)

	return errors.ErrInvalidRequest("Invalid request: " + strings.Join(messages, "; ")).
		WithMetadata("fields", details)
}

func validatePositiveDecimal(fl validator.FieldLevel) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(fl.Field().String()), 64)
	return err == nil && v > 0
}

// formatValidationError creates a user-friendly error message for a validation error.
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "nefield":
		return fmt.Sprintf("must differ from %s", ToSnakeCase(fe.Param()))
	case "positive_decimal":
		return "must be a positive number"
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed on the '%s' tag", fe.Tag())
	}
}

//Personal.AI order the ending

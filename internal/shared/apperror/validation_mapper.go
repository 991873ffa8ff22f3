package apperror

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func formatFieldName(s string) string {
	// recipient_phone -> Recipient Phone
	s = strings.ReplaceAll(s, "_", " ")
	caser := cases.Title(language.English)
	return caser.String(s)
}

// MapValidationError converts binding errors into a VALIDATION_ERROR whose
// details hold one message per json field.
func MapValidationError(err error) error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		details := make(map[string]string, len(errs))
		for _, e := range errs {
			// e.Field() is already the json name, see RegisterTagNameFunc in Init.
			field := e.Field()
			switch e.Tag() {
			case "required":
				details[field] = RequiredField(formatFieldName(field)).Message
			default:
				details[field] = InvalidField(formatFieldName(field)).Message
			}
		}

		first := errs[0]
		var base *AppError
		if first.Tag() == "required" {
			base = RequiredField(formatFieldName(first.Field()))
		} else {
			base = InvalidField(formatFieldName(first.Field()))
		}
		return base.WithDetails(details)
	}

	return New(
		CodeValidation,
		"Invalid input",
		http.StatusBadRequest,
	)
}

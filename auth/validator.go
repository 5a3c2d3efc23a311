package auth

import (
	"fmt"
	"space-chat/errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = validator.New()

// ValidateCommand checks the struct tags of a command or query.
// Failures are reported as invalid arguments, naming every offending field.
func ValidateCommand(cmd any) error {
	err := validate.Struct(cmd)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		fields := lo.Map(fieldErrors, func(fe validator.FieldError, _ int) string {
			return fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag())
		})
		return fmt.Errorf("%s: %w", strings.Join(fields, ", "), errors.ErrInvalidArgument)
	}
	return fmt.Errorf("%v: %w", err, errors.ErrInvalidArgument)
}

package validator

import (
	"errors"
	"fmt"
	"reserva/pkg/logger"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// SlotValidator checks request payloads before they reach the coordinator.
// State checks (availability, lock ownership) stay in the service layer; this
// only guards shape.
type SlotValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewSlotValidator(log *logger.Logger) *SlotValidator {
	v := validator.New()

	if err := v.RegisterValidation("slot_date", validateSlotDate); err != nil {
		log.Fatal("Failed to register 'slot_date' validator",
			"error", err,
		)
	}

	log.Info("Slot validator initialized successfully")

	return &SlotValidator{
		validate: v,
		logger:   log,
	}
}

// validateSlotDate accepts calendar dates in YYYY-MM-DD form. time.Parse
// alone admits entries like 2025-02-31 normalized away by some clients, so
// the round trip is checked too.
func validateSlotDate(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return false
	}
	return parsed.Format("2006-01-02") == value
}

func (v *SlotValidator) Validate(request any) error {
	if err := v.validate.Struct(request); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *SlotValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "slot_date":
			message = fmt.Sprintf("%s must be a calendar date in YYYY-MM-DD format", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}

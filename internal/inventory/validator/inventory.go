package validator

import (
	"errors"
	"fmt"
	"roomstay/pkg/logger"
	"roomstay/pkg/model"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxStayNights = 365

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

type InventoryValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewInventoryValidator(log *logger.Logger) *InventoryValidator {
	v := validator.New()

	log.Info("Inventory validator initialized successfully")

	return &InventoryValidator{
		validate: v,
		logger:   log,
	}
}

func (v *InventoryValidator) ValidateHoldRequest(req *model.HoldRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	nights := model.StayLength(req.CheckIn, req.CheckOut)
	if nights == 0 {
		return ValidationErrors{
			ValidationError{
				Field:   "CheckOut",
				Message: "check_out must be at least one night after check_in",
			},
		}
	}
	if nights > maxStayNights {
		return ValidationErrors{
			ValidationError{
				Field:   "CheckOut",
				Message: fmt.Sprintf("stay cannot exceed %d nights", maxStayNights),
			},
		}
	}

	return nil
}

func (v *InventoryValidator) ValidateLedgerUpdate(update *model.LedgerUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if update.MinStay != nil && update.MaxStay != nil && *update.MinStay > *update.MaxStay {
		return ValidationErrors{
			ValidationError{
				Field:   "MinStay",
				Message: "min_stay cannot exceed max_stay",
			},
		}
	}

	if update.MinStay == nil && update.MaxStay == nil &&
		update.ClosedToArrival == nil && update.ClosedToDeparture == nil &&
		update.StopSell == nil && update.OverbookingLimit == nil {
		return ValidationErrors{
			ValidationError{
				Field:   "Update",
				Message: "at least one restriction field must be set",
			},
		}
	}

	return nil
}

func (v *InventoryValidator) ValidateBlockedUpdate(update *model.BlockedUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return nil
}

func (v *InventoryValidator) ValidateSellingWindow(window *model.SellingWindow) error {
	if err := v.validate.Struct(window); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return nil
}

func (v *InventoryValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "uuid4":
			message = fmt.Sprintf("%s must be a valid UUID", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}

package validator

import (
	"errors"
	"expertconnect/pkg/model"
	"fmt"
	"reflect"
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
	return fmt.Sprintf("validation failed: %d error(s)", len(v))
}

type ReservationValidator struct {
	validate *validator.Validate
}

func NewReservationValidator() *ReservationValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("slot_date", validateSlotDate)
	_ = v.RegisterValidation("slot_time", validateSlotTime)

	return &ReservationValidator{
		validate: v,
	}
}

func validateSlotDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(model.DateLayout, fl.Field().String())
	return err == nil
}

func validateSlotTime(fl validator.FieldLevel) bool {
	return model.TimeLabelRegex.MatchString(fl.Field().String())
}

func (v *ReservationValidator) ValidateReservation(req *model.ReservationRequest) error {
	return v.check(req)
}

func (v *ReservationValidator) ValidateStatus(update *model.StatusUpdate) error {
	return v.check(update)
}

func (v *ReservationValidator) ValidateSlotBatch(batch *model.SlotBatch) error {
	return v.check(batch)
}

// ValidateDate checks an optional date filter.
func (v *ReservationValidator) ValidateDate(date string) error {
	if date == "" {
		return nil
	}
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return ValidationErrors{{Field: "date", Message: "must be a date in YYYY-MM-DD format"}}
	}
	return nil
}

func (v *ReservationValidator) check(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	validationErrors := make(ValidationErrors, 0, len(errs))

	for _, err := range errs {
		validationErrors = append(validationErrors, ValidationError{
			Field:   fieldPath(err.Namespace()),
			Message: message(err),
		})
	}

	return validationErrors
}

// fieldPath drops the root struct name: "ReservationRequest.contact.email" becomes "contact.email".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func message(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if err.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", err.Param())
		}
		return fmt.Sprintf("must be at least %s characters", err.Param())
	case "max":
		if err.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s item(s)", err.Param())
		}
		return fmt.Sprintf("must be at most %s characters", err.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(err.Param(), " ", ", "))
	case "slot_date":
		return "must be a date in YYYY-MM-DD format"
	case "slot_time":
		return "must be a time in HH:MM format"
	default:
		return fmt.Sprintf("failed %s validation", err.Tag())
	}
}

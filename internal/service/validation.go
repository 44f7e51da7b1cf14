package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-academic-core/internal/academic"
	"github.com/noah-isme/sma-academic-core/internal/models"
	"github.com/noah-isme/sma-academic-core/pkg/database"
	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
)

// NewValidator returns a validator that knows the academic field tags and
// reports fields by their JSON names.
func NewValidator() *validator.Validate {
	validate := validator.New()
	RegisterValidations(validate)
	return validate
}

// RegisterValidations installs the custom tags on an existing validator.
func RegisterValidations(validate *validator.Validate) {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		_, err := academic.ParseWeekday(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := academic.ParseClock(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		_, err := academic.ParseAttendanceStatus(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation("enrollment_status", func(fl validator.FieldLevel) bool {
		return models.EnrollmentStatus(strings.ToLower(fl.Field().String())).Valid()
	})
	_ = validate.RegisterValidation("task_type", func(fl validator.FieldLevel) bool {
		return models.TaskType(strings.ToLower(fl.Field().String())).Valid()
	})
	_ = validate.RegisterValidation("bulk_mode", func(fl validator.FieldLevel) bool {
		mode := models.BulkOperationMode(fl.Field().String())
		return mode == models.BulkModeAtomic || mode == models.BulkModePartialOnError
	})
}

// validationError turns a calculator ValidationError into an API error.
func validationError(err error, fallback string) error {
	var vErr *academic.ValidationError
	if errors.As(err, &vErr) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, vErr.Error())
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fallback)
}

func isUniqueViolation(err error) bool {
	return database.IsUniqueViolation(err)
}

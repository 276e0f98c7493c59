package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"pantry-api/internal/database"
	"pantry-api/internal/repository"
	"pantry-api/pkg/apierror"
)

// ErrValidation is matched by validation failures returned from services.
var ErrValidation = errors.New("validation failed")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("photo", func(fl validator.FieldLevel) bool {
		return validPhoto(fl.Field().String())
	})
	return v
}

// validPhoto accepts plain base64 or a data URL carrying base64.
func validPhoto(s string) bool {
	if s == "" {
		return true
	}
	if strings.HasPrefix(s, "data:") {
		_, payload, ok := strings.Cut(s, ";base64,")
		if !ok {
			return false
		}
		s = payload
	}
	_, err := base64.StdEncoding.DecodeString(s)
	return err == nil
}

// validationError is an apierror that also matches ErrValidation.
type validationError struct {
	api *apierror.Error
}

func (e validationError) Error() string   { return e.api.Error() }
func (e validationError) Unwrap() []error { return []error{e.api, ErrValidation} }

// checkStruct validates req and converts failures into a 400 with one detail
// per field.
func checkStruct(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return invalid(err.Error())
	}
	details := make([]apierror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, apierror.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return validationError{apierror.ValidationError(details[0].Field+" "+details[0].Message, details...)}
}

func invalid(msg string) error {
	return validationError{apierror.ValidationError(msg)}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "url":
		return "must be a valid URL"
	case "photo":
		return "must be base64 encoded"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// storeError maps a repository failure onto an API error. Details stay in
// the log.
func storeError(ctx context.Context, op, notFound string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apierror.NotFound(notFound)
	case errors.Is(err, database.ErrPoolExhausted), errors.Is(err, database.ErrConnectFailed):
		zerolog.Ctx(ctx).Error().Err(err).Str("op", op).Msg("database unavailable")
		return apierror.InternalError("Failed to connect to the database")
	case errors.Is(err, context.Canceled):
		// The client went away; nobody reads the response.
		zerolog.Ctx(ctx).Debug().Err(err).Str("op", op).Msg("request canceled")
		return apierror.InternalError("Request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		zerolog.Ctx(ctx).Error().Err(err).Str("op", op).Msg("database timeout")
		return apierror.InternalError("Database request timed out")
	default:
		zerolog.Ctx(ctx).Error().Err(err).Str("op", op).Msg("database operation failed")
		return apierror.InternalError("Failed to " + op)
	}
}

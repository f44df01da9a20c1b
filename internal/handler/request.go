package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/arnabmitra/topcap-index/internal/apierror"
	"github.com/arnabmitra/topcap-index/internal/index"
)

// RangeRequest is the body of POST /build-index and POST /export-data.
// EndDate defaults to StartDate.
type RangeRequest struct {
	StartDate string `json:"start_date" validate:"required,indexdate"`
	EndDate   string `json:"end_date" validate:"omitempty,indexdate"`
}

func (r *RangeRequest) End() string {
	if r.EndDate == "" {
		return r.StartDate
	}
	return r.EndDate
}

type rangeQuery struct {
	StartDate string `json:"start_date" validate:"required,indexdate"`
	EndDate   string `json:"end_date" validate:"required,indexdate"`
}

type dateQuery struct {
	Date string `json:"date" validate:"required,indexdate"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	_ = v.RegisterValidation("indexdate", func(fl validator.FieldLevel) bool {
		_, err := index.ParseDate(fl.Field().String())
		return err == nil
	})
	return v
}

// validationError turns validator output into a 400 response.
func validationError(err error) *apierror.APIError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apierror.InvalidRequest(err)
	}
	fields := make([]apierror.ValidationError, len(verrs))
	for i, fe := range verrs {
		msg := "invalid value"
		switch fe.Tag() {
		case "required":
			msg = "required"
		case "indexdate":
			msg = "must be a date such as 2024-01-31"
		}
		fields[i] = apierror.ValidationError{Field: fe.Field(), Message: msg}
	}
	return apierror.Validation(fields)
}

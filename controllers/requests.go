package controllers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "straphub-service/common/errors"
)

// AddItemRequest adds quantity of a variant of the product at ProductHandle.
type AddItemRequest struct {
	ProductHandle string `json:"productHandle" validate:"required,max=255"`
	VariantID     string `json:"variantId" validate:"required,max=255"`
	Quantity      int    `json:"quantity" validate:"omitempty,min=1,max=99"`
}

// UpdateQuantityRequest sets a line's quantity. Zero removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=99"`
}

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest runs the struct tags and turns failures into a bad
// request carrying one detail per field.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Wrap(apperrors.ErrBadRequest, err)
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, fieldMessage(fe))
	}
	return apperrors.Wrap(apperrors.ErrBadRequest, err, details...)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return field + " is invalid"
	}
}

package domain

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/swastisunder/Nivaas/errors"
)

// ListingPayload is the submission shape for creating or updating a listing.
type ListingPayload struct {
	Title       string      `json:"title" validate:"required"`
	Description string      `json:"description" validate:"required"`
	Price       int         `json:"price" validate:"required,gte=500"`
	Location    string      `json:"location" validate:"required"`
	Country     string      `json:"country" validate:"required"`
	Categories  CategorySet `json:"categories" validate:"dive,category"`
}

// ReviewPayload is the submission shape for creating a review.
type ReviewPayload struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"required"`
}

// RegisterPayload is the submission shape for user registration.
type RegisterPayload struct {
	Username string `json:"username" validate:"required,min=1,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// categories must come from the fixed catalogue
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return IsCategory(fl.Field().String())
	})
	return v
}

// ValidateStruct checks a submission payload against its field rules and
// returns a ValidationError carrying one message per violated field, joined
// for display.
func ValidateStruct(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	invalid, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	messages := make([]string, 0, len(invalid))
	for _, fieldErr := range invalid {
		messages = append(messages, fieldMessage(fieldErr))
	}
	return &apperrors.ValidationError{Message: strings.Join(messages, ", ")}
}

func fieldMessage(fieldErr validator.FieldError) string {
	field := strings.ToLower(fieldErr.Field())
	switch fieldErr.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fieldErr.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fieldErr.Param())
	case "min":
		return fmt.Sprintf("%s is too short", field)
	case "max":
		return fmt.Sprintf("%s is too long", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "category":
		return fmt.Sprintf("unrecognized category %q", fieldErr.Value())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

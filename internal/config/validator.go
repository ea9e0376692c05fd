package config

import (
	"SalonAssistant/internal/dialogue/slot"

	"github.com/go-playground/validator/v10"
)

func NewValidator() *validator.Validate {
	validate := validator.New()
	_ = slot.RegisterValidation(validate)
	return validate
}

package handlers

import (
	"fmt"

	"goodfit-api/internal/matching"
	"goodfit-api/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the domain binding rules to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}

	rules := map[string]validator.Func{
		"fitness_level": func(fl validator.FieldLevel) bool {
			return matching.IsFitnessLevel(fl.Field().String())
		},
		"activity_type": func(fl validator.FieldLevel) bool {
			return models.IsActivityType(fl.Field().String())
		},
		"swipe_action": func(fl validator.FieldLevel) bool {
			return models.IsSwipeAction(fl.Field().String())
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validator: %w", tag, err)
		}
	}
	return nil
}

package service

import (
	"fmt"
	"unicode/utf8"
)

// Column widths of the stored keys.
const (
	maxFarmIDLength    = 128
	maxThreadIDLength  = 64
	maxModelNameLength = 64
)

func validateFarmID(farmID string) error {
	if farmID == "" {
		return fmt.Errorf("%w: farm id is required", ErrInvalidInput)
	}
	return checkLength("farm id", farmID, maxFarmIDLength)
}

func checkLength(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%w: %s must be at most %d characters", ErrInvalidInput, field, max)
	}
	return nil
}

package utility

import (
	"fmt"
	"net/http"

	"github.com/gopub/errors"
)

// ReferenceYear is the fixed "current" year ages are computed against.
const ReferenceYear uint16 = 2025

const ErrInvalidInput errors.String = "Birth year cant be in the future"

type YearError struct {
	Year uint16
}

func (e *YearError) Error() string {
	return fmt.Sprintf("%s: %d > %d", ErrInvalidInput, e.Year, ReferenceYear)
}

func (e *YearError) Code() int {
	return http.StatusBadRequest
}

func (e *YearError) Is(target error) bool {
	return target == ErrInvalidInput
}

// CalculateAge returns ReferenceYear - birthYear.
func CalculateAge(birthYear uint16) (uint16, error) {
	if birthYear > ReferenceYear {
		return 0, &YearError{Year: birthYear}
	}
	return ReferenceYear - birthYear, nil
}

func AgeMessage(age uint16) string {
	return fmt.Sprintf("You are %d years old", age)
}

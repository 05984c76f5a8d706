package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rl1809/stockroom/internal/core/domain"
)

// Validate checks a create or edit submission and returns every violation
// at once, or nil. Fields are reported in a fixed order.
func Validate(p domain.Product) error {
	var errs ValidationErrors

	switch {
	case strings.TrimSpace(p.Name) == "":
		errs = append(errs, FieldError{Field: "name", Reason: "is required"})
	case utf8.RuneCountInString(p.Name) > domain.MaxNameLength:
		errs = append(errs, FieldError{Field: "name", Reason: fmt.Sprintf("must be at most %d characters", domain.MaxNameLength)})
	}

	if p.Price < 0 || p.Price > domain.MaxPrice {
		errs = append(errs, FieldError{Field: "price", Reason: fmt.Sprintf("must be between 0 and %d", domain.MaxPrice)})
	}

	if strings.TrimSpace(p.Shelf) == "" {
		errs = append(errs, FieldError{Field: "shelf", Reason: "is required"})
	}

	if p.Count < 0 || p.Count > domain.MaxCount {
		errs = append(errs, FieldError{Field: "count", Reason: fmt.Sprintf("must be between 0 and %d", domain.MaxCount)})
	}

	if utf8.RuneCountInString(p.Description) > domain.MaxDescriptionLength {
		errs = append(errs, FieldError{Field: "description", Reason: fmt.Sprintf("must be at most %d characters", domain.MaxDescriptionLength)})
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

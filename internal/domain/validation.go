package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxTitleLength    = 255
	MaxCategoryLength = 100
	MaxRemarkLength   = 2000
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Categories are the expense categories offered to submitters. Any non-empty
// category is accepted.
var Categories = []string{
	"Supplies",
	"Travel",
	"Equipment",
	"Software",
	"Training",
	"Other",
}

// ValidateTitle validates an expense title
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return NewValidationError("title", "title is required")
	}
	if len(title) > MaxTitleLength {
		return NewValidationError("title", "title is too long")
	}
	return nil
}

// ValidateCategory validates an expense category
func ValidateCategory(category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return NewValidationError("category", "category is required")
	}
	if len(category) > MaxCategoryLength {
		return NewValidationError("category", "category is too long")
	}
	return nil
}

// ParseAmount parses a positive finite decimal amount.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, NewValidationError("amount", "amount is required")
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, NewValidationError("amount", "amount must be a number")
	}
	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// Amounts are money: cents at most, and below one trillion.
const maxAmountScale = 2

var maxAmount = decimal.New(1, 12)

// ValidateAmount validates an expense amount
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return NewValidationError("amount", "amount must be a positive number")
	}
	if !amount.Equal(amount.Truncate(maxAmountScale)) {
		return NewValidationError("amount", "amount must have at most 2 decimal places")
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return NewValidationError("amount", "amount is too large")
	}
	return nil
}

// ParseDate parses a calendar date in DateLayout. Any well-formed date is accepted.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, NewValidationError("date", "date is required")
	}
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, NewValidationError("date", "date must be formatted as YYYY-MM-DD")
	}
	return d, nil
}

// ValidateRemark validates an optional decision remark
func ValidateRemark(remark *string) error {
	if remark != nil && len(*remark) > MaxRemarkLength {
		return NewValidationError("remark", "remark is too long")
	}
	return nil
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if !emailRegex.MatchString(email) {
		return NewValidationError("email", "invalid email format")
	}

	return nil
}

// NormalizeOptional trims s and maps blank text to nil.
func NormalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

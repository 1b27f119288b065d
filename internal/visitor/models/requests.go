package models

import (
	"strings"
	"time"
	"unicode/utf8"

	id "gatepass/pkg/domain"
	dErrors "gatepass/pkg/domain-errors"
)

const (
	maxNameLength    = 128
	maxPurposeLength = 512
	minPhoneDigits   = 7
	maxPhoneLength   = 20
	maxReasonLength  = 512
)

// CreateVisitorRequest carries the creation data for a visitor.
// HostHouseholdID is honoured only for admins.
type CreateVisitorRequest struct {
	Name            string
	Phone           string
	Purpose         string
	ScheduledTime   *time.Time
	HostHouseholdID *id.HouseholdID
}

// Normalize trims whitespace.
func (r *CreateVisitorRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Purpose = strings.TrimSpace(r.Purpose)
}

// Validate checks field shape. Authorization is not its concern.
func (r *CreateVisitorRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if utf8.RuneCountInString(r.Name) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name is too long")
	}
	if err := ValidatePhone(r.Phone); err != nil {
		return err
	}
	if utf8.RuneCountInString(r.Purpose) > maxPurposeLength {
		return dErrors.New(dErrors.CodeValidation, "purpose is too long")
	}
	return nil
}

// ValidatePhone accepts digits with optional +, spaces and dashes.
func ValidatePhone(phone string) error {
	if phone == "" {
		return dErrors.New(dErrors.CodeValidation, "phone is required")
	}
	if len(phone) > maxPhoneLength {
		return dErrors.New(dErrors.CodeValidation, "phone is too long")
	}
	digits := 0
	for i, c := range phone {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '+' && i == 0:
		case c == ' ' || c == '-':
		default:
			return dErrors.New(dErrors.CodeValidation, "phone may contain only digits, spaces, dashes and a leading +")
		}
	}
	if digits < minPhoneDigits {
		return dErrors.New(dErrors.CodeValidation, "phone is too short")
	}
	return nil
}

// NormalizeReason trims a denial reason and caps its length.
func NormalizeReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if runes := []rune(reason); len(runes) > maxReasonLength {
		reason = string(runes[:maxReasonLength])
	}
	return reason
}

// Package validation holds the input checks run before any store or
// identity call.
package validation

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// FieldErrors maps a form field to its messages.
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// Err returns fe as an error, or nil when it holds nothing.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(fe[f], "; "))
	}
	return strings.Join(parts, ", ")
}

// Required adds "<label> is required" when value is blank.
func (fe FieldErrors) Required(field, label, value string) {
	if strings.TrimSpace(value) == "" {
		fe.Add(field, label+" is required")
	}
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func ValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// Email checks presence and local@domain.tld shape.
func Email(fe FieldErrors, email string) {
	switch {
	case strings.TrimSpace(email) == "":
		fe.Add("email", "Email is required")
	case !ValidEmail(email):
		fe.Add("email", "Enter a valid email address")
	}
}

const (
	PasswordMinLength = 8
	PasswordSymbols   = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?`~"

	// PasswordStrengthMessage replaces any strength complaint coming back from
	// the identity provider.
	PasswordStrengthMessage = "Password must be at least 8 characters and include an uppercase letter, a lowercase letter, a number, and a symbol."
)

// Password returns one message per failed sign-up password rule.
func Password(password string) []string {
	var msgs []string
	if len([]rune(password)) < PasswordMinLength {
		msgs = append(msgs, "Password must be at least 8 characters")
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		}
	}
	if !upper {
		msgs = append(msgs, "Password must contain an uppercase letter")
	}
	if !lower {
		msgs = append(msgs, "Password must contain a lowercase letter")
	}
	if !digit {
		msgs = append(msgs, "Password must contain a number")
	}
	if !symbol {
		msgs = append(msgs, "Password must contain a symbol")
	}
	return msgs
}

var phonePattern = regexp.MustCompile(`^[+]?[(]?[0-9]{1,4}[)]?[-\s.]?[(]?[0-9]{1,4}[)]?[-\s.]?[0-9]{1,5}[-\s.]?[0-9]{1,6}$`)

// ValidPhone accepts an empty value. Otherwise the number needs 10 to 15
// digits and a loosely international layout.
func ValidPhone(phone string) bool {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return true
	}

	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 10 || digits > 15 {
		return false
	}
	return phonePattern.MatchString(phone)
}

// Classify attaches an identity provider message to a form field by keyword.
// An empty field means the message belongs in the generic banner.
func Classify(msg string) (field, message string) {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "email"):
		return "email", msg
	case strings.Contains(lower, "password"):
		if isStrengthComplaint(lower) {
			return "password", PasswordStrengthMessage
		}
		return "password", msg
	}
	return "", msg
}

func isStrengthComplaint(lower string) bool {
	for _, kw := range []string{"at least", "characters", "weak", "strength", "uppercase", "lowercase", "symbol", "number"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// LooksDuplicate reports whether a provider message describes an existing account.
func LooksDuplicate(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "already") ||
		strings.Contains(lower, "exists") ||
		strings.Contains(lower, "registered")
}

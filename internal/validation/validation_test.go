package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/validation"
)

func TestPassword(t *testing.T) {
	assert.Empty(t, validation.Password("Abc123!@"))

	msgs := validation.Password("abc12345")
	assert.Contains(t, msgs, "Password must contain an uppercase letter")
	assert.Contains(t, msgs, "Password must contain a symbol")
	assert.Len(t, msgs, 2)

	msgs = validation.Password("Ab1!")
	assert.Contains(t, msgs, "Password must be at least 8 characters")

	assert.Len(t, validation.Password(""), 5)
}

func TestValidPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"", true},
		{"+1 (555) 123-4567", true},
		{"555.123.4567", true},
		{"123", false},
		{"+1 555 CALL NOW", false},
		{"1234567890123456", false},
	}
	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			assert.Equal(t, tt.want, validation.ValidPhone(tt.phone))
		})
	}
}

func TestEmail(t *testing.T) {
	fe := validation.FieldErrors{}
	validation.Email(fe, "")
	assert.Equal(t, []string{"Email is required"}, fe["email"])

	fe = validation.FieldErrors{}
	validation.Email(fe, "not-an-email")
	assert.Equal(t, []string{"Enter a valid email address"}, fe["email"])

	fe = validation.FieldErrors{}
	validation.Email(fe, "pat@example.com")
	assert.NoError(t, fe.Err())
}

func TestFieldErrors(t *testing.T) {
	fe := validation.FieldErrors{}
	require.NoError(t, fe.Err())

	fe.Required("first_name", "First name", "  ")
	fe.Add("email", "bad")
	err := fe.Err()
	require.Error(t, err)
	assert.Equal(t, "email: bad, first_name: First name is required", err.Error())
}

func TestClassify(t *testing.T) {
	field, msg := validation.Classify("Unable to validate email address: invalid format")
	assert.Equal(t, "email", field)
	assert.Equal(t, "Unable to validate email address: invalid format", msg)

	field, msg = validation.Classify("Password should be at least 6 characters")
	assert.Equal(t, "password", field)
	assert.Equal(t, validation.PasswordStrengthMessage, msg)

	field, msg = validation.Classify("Password is incorrect")
	assert.Equal(t, "password", field)
	assert.Equal(t, "Password is incorrect", msg)

	field, _ = validation.Classify("Service unavailable")
	assert.Empty(t, field)
}

func TestLooksDuplicate(t *testing.T) {
	assert.True(t, validation.LooksDuplicate("User already registered"))
	assert.True(t, validation.LooksDuplicate("account exists"))
	assert.False(t, validation.LooksDuplicate("invalid credentials"))
}

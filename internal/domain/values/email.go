package values

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"
)

// Email is a validated, normalized email address
type Email struct {
	address string
}

// NewEmail validates and normalizes an email address
func NewEmail(address string) (Email, error) {
	normalized := strings.ToLower(strings.TrimSpace(address))
	if normalized == "" {
		return Email{}, fmt.Errorf("email address cannot be empty")
	}

	parsed, err := mail.ParseAddress(normalized)
	if err != nil {
		return Email{}, fmt.Errorf("invalid email format: %w", err)
	}
	if len(parsed.Address) > 254 {
		return Email{}, fmt.Errorf("email address too long (max 254 characters)")
	}

	return Email{address: parsed.Address}, nil
}

// MustNewEmail creates an Email and panics on error (for constants/tests)
func MustNewEmail(address string) Email {
	email, err := NewEmail(address)
	if err != nil {
		panic(err)
	}
	return email
}

// String returns the address
func (e Email) String() string {
	return e.address
}

// IsEmpty reports whether the email is the zero value
func (e Email) IsEmpty() bool {
	return e.address == ""
}

// Domain returns the part after the @
func (e Email) Domain() string {
	at := strings.LastIndex(e.address, "@")
	if at < 0 {
		return ""
	}
	return e.address[at+1:]
}

// MarshalJSON encodes the address as a JSON string
func (e Email) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.address)
}

// UnmarshalJSON decodes and validates a JSON string address
func (e *Email) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	email, err := NewEmail(s)
	if err != nil {
		return err
	}
	*e = email
	return nil
}

package auth

import (
	"fmt"
	"strings"
)

// NormalizePhone converts a Kenyan mobile number into +254XXXXXXXXX form.
// Accepted inputs: 07XXXXXXXX, 01XXXXXXXX, 7XXXXXXXX, 1XXXXXXXX, 254XXXXXXXXX
// and +254XXXXXXXXX, with optional spaces, dashes or parentheses.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return "", fmt.Errorf("%w: phone contains invalid characters", ErrInvalidInput)
		}
	}
	digits := b.String()
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "254"):
		digits = digits[3:]
	case len(digits) == 10 && digits[0] == '0':
		digits = digits[1:]
	}
	if len(digits) != 9 || (digits[0] != '7' && digits[0] != '1') {
		return "", fmt.Errorf("%w: phone must be a valid Kenyan mobile number", ErrInvalidInput)
	}
	return "+254" + digits, nil
}

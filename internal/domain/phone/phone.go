package phone

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// UserServer is the address suffix for personal accounts.
const UserServer = "s.whatsapp.net"

var ErrInvalidPhone = errors.New("invalid phone number")

var (
	onlyDigit = regexp.MustCompile(`^\d+$`)
	separator = strings.NewReplacer("-", "", "+", "", " ", "", "(", "", ")", "", ".", "")
)

// Normalize strips common separators and checks that what remains is a plain
// international number of 9 to 15 digits.
func Normalize(raw string) (string, error) {
	p := separator.Replace(strings.TrimSpace(raw))

	if p == "" {
		return "", fmt.Errorf("%w: phone number is required", ErrInvalidPhone)
	}
	if !onlyDigit.MatchString(p) {
		return "", fmt.Errorf("%w: phone must contain only digits", ErrInvalidPhone)
	}
	if len(p) < 9 || len(p) > 15 {
		return "", fmt.Errorf("%w: phone length must be between 9 and 15 digits", ErrInvalidPhone)
	}
	return p, nil
}

// UserAddress normalizes raw and appends the personal account server.
func UserAddress(raw string) (string, error) {
	p, err := Normalize(raw)
	if err != nil {
		return "", err
	}
	return p + "@" + UserServer, nil
}

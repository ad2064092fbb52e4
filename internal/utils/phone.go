package utils

import (
	"regexp"
	"strings"
)

// E.164-like: optional '+', leading digit 1-9, 2 to 15 digits in total.
var phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// NormalizePhoneNumber removes all whitespace from a phone number.
func NormalizePhoneNumber(phoneNumber string) string {
	return strings.Join(strings.Fields(phoneNumber), "")
}

// IsValidPhoneNumber reports whether phoneNumber looks like an E.164 number.
// Whitespace anywhere in the input is ignored.
func IsValidPhoneNumber(phoneNumber string) bool {
	return phoneRegex.MatchString(NormalizePhoneNumber(phoneNumber))
}

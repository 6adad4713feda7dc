package utility

import "regexp"

var emailRegexp = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail only checks the shape local@domain.tld, it does not resolve anything.
func ValidateEmail(s string) bool {
	return emailRegexp.MatchString(s)
}

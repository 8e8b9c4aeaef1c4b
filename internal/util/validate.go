package util

import "regexp"

var emailRegex = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// ValidateEmail checks that email looks like local@domain.tld.
func ValidateEmail(email string) bool {
	return len(email) <= 254 && emailRegex.MatchString(email)
}

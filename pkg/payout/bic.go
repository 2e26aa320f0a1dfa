package payout

import (
	"regexp"
	"strings"
)

// bicPattern: 4 letters bank code, 2 letters country code, 2 alphanumeric
// location code, optional 3 alphanumeric branch code.
var bicPattern = regexp.MustCompile(`^[A-Z]{4}[A-Z]{2}[A-Z0-9]{2}([A-Z0-9]{3})?$`)

// NormalizeBIC strips whitespace and upper-cases s.
func NormalizeBIC(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// ValidateBIC reports whether s is an 8 or 11 character BIC/SWIFT code.
func ValidateBIC(s string) bool {
	bic := NormalizeBIC(s)
	if len(bic) != 8 && len(bic) != 11 {
		return false
	}
	return bicPattern.MatchString(bic)
}

// Package rut validates and formats Chilean RUT (Rol Único Tributario)
// numbers used for recipient KYC on Chile-bound transfers.
package rut

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalid is returned by Parse for malformed or mistyped numbers.
var ErrInvalid = errors.New("invalid RUT")

// Clean strips dots, dashes and whitespace and upper-cases the check digit.
func Clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToUpper(s) {
		switch {
		case r >= '0' && r <= '9', r == 'K':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ComputeCheckDigit returns the mod-11 check digit of the numeric body:
// "0".."9", or "K" when the remainder maps to 10.
func ComputeCheckDigit(body string) (string, error) {
	if body == "" || !isDigits(body) {
		return "", ErrInvalid
	}
	sum, factor := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * factor
		factor++
		if factor > 7 {
			factor = 2
		}
	}
	switch dv := 11 - sum%11; dv {
	case 11:
		return "0", nil
	case 10:
		return "K", nil
	default:
		return strconv.Itoa(dv), nil
	}
}

// Parse splits a RUT into body and check digit after verifying it.
func Parse(s string) (body, dv string, err error) {
	clean := Clean(s)
	if len(clean) < 2 {
		return "", "", ErrInvalid
	}
	body, dv = clean[:len(clean)-1], clean[len(clean)-1:]
	body = strings.TrimLeft(body, "0")
	if body == "" || len(body) > 9 {
		return "", "", ErrInvalid
	}
	want, err := ComputeCheckDigit(body)
	if err != nil || want != dv {
		return "", "", ErrInvalid
	}
	return body, dv, nil
}

// Validate reports whether s is a well-formed RUT with a correct check digit.
func Validate(s string) bool {
	_, _, err := Parse(s)
	return err == nil
}

// Format renders a valid RUT as 12.345.678-5. Invalid input is returned cleaned.
func Format(s string) string {
	body, dv, err := Parse(s)
	if err != nil {
		return Clean(s)
	}
	var groups []string
	for len(body) > 3 {
		groups = append([]string{body[len(body)-3:]}, groups...)
		body = body[:len(body)-3]
	}
	groups = append([]string{body}, groups...)
	return strings.Join(groups, ".") + "-" + dv
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

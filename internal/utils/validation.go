package utils

import "strings"

// MobileLength is the number of digits in a local mobile number.
const MobileLength = 10

// NormalizeMobile trims surrounding whitespace.
func NormalizeMobile(raw string) string {
	return strings.TrimSpace(raw)
}

// IsValidMobile reports whether mobile is exactly ten ASCII digits.
func IsValidMobile(mobile string) bool {
	if len(mobile) != MobileLength {
		return false
	}
	for i := 0; i < len(mobile); i++ {
		if mobile[i] < '0' || mobile[i] > '9' {
			return false
		}
	}
	return true
}

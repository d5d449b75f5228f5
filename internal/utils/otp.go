package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	otpMin = 100000
	otpMax = 999999
)

// GenerateSecureOTP returns a cryptographically random 6-digit code,
// uniform over 100000-999999 inclusive.
func GenerateSecureOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+otpMin), nil
}

// GenerateSecureID returns prefix followed by digits random decimal digits,
// e.g. GenerateSecureID("SS", 8) -> "SS04718265".
func GenerateSecureID(prefix string, digits int) (string, error) {
	var b strings.Builder
	b.Grow(len(prefix) + digits)
	b.WriteString(prefix)
	ten := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("failed to generate id digit: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// MaskMobile hides the middle of a mobile number for messages and logs.
func MaskMobile(mobile string) string {
	if len(mobile) < 5 {
		return mobile
	}
	return mobile[:3] + "*****" + mobile[len(mobile)-2:]
}

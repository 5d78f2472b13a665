// Package credential implements the club's password policy and hashing
// boundary.
package credential

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	dErrors "clubroster/pkg/domain-errors"
)

// Policy constants. The initial temporary password (the member's call sign)
// is exempt from validation; everything set afterwards must pass.
const (
	MinLength         = 10
	TempLength        = 12
	symbolSet         = `!@#$%^&*(),.?":{}|<>`
	generatorAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"
)

// Validate checks a candidate password against the policy. The returned
// error carries CodeWeakPassword and a message naming the first missing
// requirement.
func Validate(password string) error {
	if len(password) < MinLength {
		return dErrors.Newf(dErrors.CodeWeakPassword, "password must be at least %d characters long", MinLength)
	}
	if !containsClass(password, isUpper) {
		return dErrors.New(dErrors.CodeWeakPassword, "password must contain at least one uppercase letter")
	}
	if !containsClass(password, isDigit) {
		return dErrors.New(dErrors.CodeWeakPassword, "password must contain at least one number")
	}
	if !strings.ContainsAny(password, symbolSet) {
		return dErrors.New(dErrors.CodeWeakPassword, "password must contain at least one special character")
	}
	return nil
}

// reservedPatchSlots is the number of trailing positions GenerateTemp may
// overwrite, one per character class.
const reservedPatchSlots = 3

// GenerateTemp produces a random temporary password that satisfies the
// policy by construction: draw TempLength characters from the generator
// alphabet, then patch the reserved trailing positions for any character
// class the draw missed. Class checks run against the unreserved prefix
// only and each class owns its own slot, so a patch can never overwrite
// the sole representative of another class.
func GenerateTemp() (string, error) {
	buf := make([]byte, TempLength)
	max := big.NewInt(int64(len(generatorAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate temporary password: %w", err)
		}
		buf[i] = generatorAlphabet[n.Int64()]
	}

	prefix := string(buf[:TempLength-reservedPatchSlots])
	if !containsClass(prefix, isUpper) {
		buf[TempLength-1] = 'A'
	}
	if !containsClass(prefix, isDigit) {
		buf[TempLength-2] = '1'
	}
	if !strings.ContainsAny(prefix, "!@#$%^&*") {
		buf[TempLength-3] = '!'
	}
	return string(buf), nil
}

func containsClass(s string, class func(byte) bool) bool {
	for i := 0; i < len(s); i++ {
		if class(s[i]) {
			return true
		}
	}
	return false
}

func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }
func isDigit(b byte) bool { return b >= '0' && b <= '9' }

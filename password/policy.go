package password

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"
)

// MinLength is the shortest password the backend accepts.
const MinLength = 8

var (
	// ErrMismatch indicates the confirmation differs from the password.
	ErrMismatch = errors.New("passwords do not match")
	// ErrPolicy indicates the password fails the policy.
	ErrPolicy = errors.New("password policy violation")
)

// Strength is a coarse strength rating.
type Strength uint8

const (
	Weak Strength = iota
	Medium
	Strong
)

func (s Strength) String() string {
	switch s {
	case Medium:
		return "medium"
	case Strong:
		return "strong"
	default:
		return "weak"
	}
}

// Score awards one point each for at least 8 characters, at least 12
// characters, mixed case, a digit, and a symbol.
func Score(pw string) int {
	var lower, upper, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsSpace(r):
			symbol = true
		}
	}

	n := utf8.RuneCountInString(pw)
	score := 0
	if n >= MinLength {
		score++
	}
	if n >= 12 {
		score++
	}
	if lower && upper {
		score++
	}
	if digit {
		score++
	}
	if symbol {
		score++
	}
	return score
}

// Rate maps Score onto a Strength.
func Rate(pw string) Strength {
	switch s := Score(pw); {
	case s <= 2:
		return Weak
	case s == 3:
		return Medium
	default:
		return Strong
	}
}

// Check enforces the length policy.
func Check(pw string) error {
	if utf8.RuneCountInString(pw) < MinLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrPolicy, MinLength)
	}
	return nil
}

// ValidateNew checks a new password and its confirmation.
func ValidateNew(pw, confirm string) error {
	if err := Check(pw); err != nil {
		return err
	}
	if pw != confirm {
		return ErrMismatch
	}
	return nil
}

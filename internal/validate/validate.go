// Package validate holds the input checks for every conversation step. The
// functions are pure: bad input is reported through returned values.
package validate

import (
	"fmt"
	"strconv"
	"strings"
)

// Reason classifies a numeric rejection.
type Reason int

const (
	NotNumber Reason = iota + 1
	TooLow
	TooHigh
)

func (r Reason) String() string {
	switch r {
	case NotNumber:
		return "not a number"
	case TooLow:
		return "too low"
	case TooHigh:
		return "too high"
	default:
		return "unknown"
	}
}

type RangeError struct {
	Reason Reason
	Input  string
	Min    int
	Max    int
}

func (e *RangeError) Error() string {
	switch e.Reason {
	case NotNumber:
		return fmt.Sprintf("%q is not a number", e.Input)
	case TooLow:
		return fmt.Sprintf("%s is lower than %d", e.Input, e.Min)
	default:
		return fmt.Sprintf("%s is higher than %d", e.Input, e.Max)
	}
}

// ParseIntInRange trims whitespace and punctuation, then accepts a decimal
// integer within [min, max]. Rejections are *RangeError.
func ParseIntInRange(text string, min, max int) (int, error) {
	digits := strings.Trim(text, " .,\t\r\n")
	if digits == "" || strings.IndexFunc(digits, notDigit) >= 0 {
		return 0, &RangeError{Reason: NotNumber, Input: text, Min: min, Max: max}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		// only overflow remains after the digit check
		return 0, &RangeError{Reason: TooHigh, Input: digits, Min: min, Max: max}
	}
	if n < min {
		return n, &RangeError{Reason: TooLow, Input: digits, Min: min, Max: max}
	}
	if n > max {
		return n, &RangeError{Reason: TooHigh, Input: digits, Min: min, Max: max}
	}
	return n, nil
}

func notDigit(r rune) bool {
	return r < '0' || r > '9'
}

// CityName normalizes a city query and reports whether every word is made
// of English letters only.
func CityName(text string) (string, bool) {
	text = strings.ToLower(strings.Trim(text, ",. \t\r\n"))
	words := strings.Fields(strings.ReplaceAll(text, ",", ""))
	if len(words) == 0 {
		return "", false
	}
	for _, w := range words {
		if !IsASCIILetters(w) {
			return "", false
		}
	}
	return strings.Join(words, " "), true
}

// IsASCIILetters reports whether s is non-empty and contains only a-z.
func IsASCIILetters(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}

// YesNo accepts "yes" or "no" in any case.
func YesNo(text string) (bool, bool) {
	switch strings.ToLower(strings.Trim(text, " .,!\t\r\n")) {
	case "yes":
		return true, true
	case "no":
		return false, true
	}
	return false, false
}

// Package validate holds the field format checks applied to user and phone
// number input before anything reaches the store.
package validate

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// MinPhoneDigits is the shortest digit run accepted as a phone number.
const MinPhoneDigits = 7

// phoneSeparators are stripped before the digit check, in any quantity and
// at any position.
var phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "+", "")

// Email reports whether s looks like local@domain.tld. Case and Unicode are
// passed through unchanged.
func Email(s string) bool {
	return emailPattern.MatchString(s)
}

// Phone reports whether s is a phone number: after removing spaces, hyphens,
// parentheses and plus signs, the rest must be at least MinPhoneDigits
// ASCII digits and nothing else.
func Phone(s string) bool {
	cleaned := phoneSeparators.Replace(s)
	if len(cleaned) < MinPhoneDigits {
		return false
	}
	for i := 0; i < len(cleaned); i++ {
		if cleaned[i] < '0' || cleaned[i] > '9' {
			return false
		}
	}
	return true
}

package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"ann@example.com", true},
		{"a@b.c", true},
		{"First.Last+tag@sub.example.org", true},
		{"ÄNN@exämple.de", true},
		{"", false},
		{"ann", false},
		{"ann@example", false},
		{"@example.com", false},
		{"ann@.com", false},
		{"ann@@example.com", false},
		{"an n@example.com", false},
		{"ann@exa mple.com", false},
		{"ann@example.com ", false},
		{"ann@example.", false},
		{"a@b@c.d", false},
		{"ann\t@example.com", false},
		// RE2 \s is ASCII only, so a non-breaking space is an ordinary character.
		{"ann\u00a0x@example.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Email(tt.in))
		})
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"+1 (555) 123-4567", true},
		{"5551234", true},
		{"555-1234", true},
		{"+++555 12 34---", true},
		{"(((1234567)))", true},
		{"123456", false},
		{"12 34 56", false},
		{"", false},
		{"   ", false},
		{"+-() ", false},
		{"555.123.4567", false},
		{"555-1234 ext 12", false},
		{"555123x4567", false},
		{"test1num", false},
		{"５５５１２３４", false},
		// Only the ASCII space is a separator.
		{"555\t1234567", false},
		{"555\n1234567", false},
		{"555\u00a01234567", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Phone(tt.in))
		})
	}
}

func TestPhoneLengthBoundary(t *testing.T) {
	for n := 0; n <= 12; n++ {
		digits := strings.Repeat("9", n)
		assert.Equal(t, n >= MinPhoneDigits, Phone(digits), "len=%d", n)
		assert.Equal(t, n >= MinPhoneDigits, Phone("+ "+digits+" -"), "separated len=%d", n)
	}
}

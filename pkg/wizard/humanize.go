package wizard

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// HumanizeKey converts a camelCase field key into a display label by
// inserting a space before every upper-case rune after the first and
// upper-casing the first rune: "dateOfBirth" becomes "Date Of Birth".
func HumanizeKey(key string) string {
	if key == "" {
		return ""
	}

	var out strings.Builder
	out.Grow(len(key) + 4)
	for i, r := range key {
		if i > 0 && unicode.IsUpper(r) {
			out.WriteRune(' ')
		}
		out.WriteRune(r)
	}

	label := out.String()
	first, size := utf8.DecodeRuneInString(label)
	return string(unicode.ToUpper(first)) + label[size:]
}

// RequiredMessage is the message emitted when a required field is absent.
func RequiredMessage(key string) string {
	return HumanizeKey(key) + " is required"
}

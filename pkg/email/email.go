package email

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize trims and lower-cases an address. Accounts are keyed by the
// normalized form.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// Initial picks the avatar fallback letter: username first, then e-mail,
// then "U".
func Initial(username, address string) string {
	for _, s := range []string{username, address} {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(s)
		return string(unicode.ToUpper(r))
	}
	return "U"
}

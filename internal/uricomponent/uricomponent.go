// Package uricomponent implements the single percent-encoding pass used for
// scan payloads and storage object paths.
//
// Escape leaves only the URI component unreserved set untouched
// (A-Z a-z 0-9 - _ . ! ~ * ' ( )) and escapes everything else, including
// '/', '%' and '+'. Its output never contains a raw '+', so it decodes
// identically under path and query unescaping.
package uricomponent

import (
	"net/url"
	"strings"
)

const upperhex = "0123456789ABCDEF"

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// Escape applies one percent-encoding pass over s as a whole.
func Escape(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !unreserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

// Unescape reverses exactly one pass of Escape. '+' is kept literally.
func Unescape(s string) (string, error) {
	return url.PathUnescape(s)
}

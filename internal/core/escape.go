package core

import "strings"

// specialChars are the characters the build engine gives meaning to inside
// item and property values.
const specialChars = "%*?@$();'"

const hexDigits = "0123456789abcdef"

// Escape replaces each special character in in with '%' followed by its
// two-digit lowercase hex code, as the build engine writes it. An empty in counts as missing.
func Escape(in string) (string, error) {
	if in == "" {
		return "", missing(InputInString)
	}
	if !strings.ContainsAny(in, specialChars) {
		return in, nil
	}

	var b strings.Builder
	b.Grow(len(in) + 8)
	for i := 0; i < len(in); i++ {
		c := in[i]
		if strings.IndexByte(specialChars, c) < 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0x0f])
	}
	return b.String(), nil
}

// Unescape decodes every "%XX" sequence whose XX are hex digits.
// A '%' not followed by two hex digits is kept as is.
func Unescape(s string) string {
	if strings.IndexByte(s, '%') < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, okHi := unhex(s[i+1])
			lo, okLo := unhex(s[i+2])
			if okHi && okLo {
				b.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

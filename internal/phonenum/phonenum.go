// Package phonenum canonicalizes French phone numbers entered in free form.
package phonenum

import (
	"regexp"
	"strings"
)

var (
	plusCountry = regexp.MustCompile(`^\+33(\d{9})$`)
	trunkZero   = regexp.MustCompile(`^0(\d{9})$`)
	bareCountry = regexp.MustCompile(`^33(\d{9})$`)
	national    = regexp.MustCompile(`^([1-7]\d{8})$`)
)

// Normalize rewrites French numbers into "+33 D DD DD DD DD". Foreign
// numbers with a leading "+" and anything unrecognized come back stripped
// of separators. Input that holds no digits at all is returned trimmed.
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	cleaned := clean(trimmed)
	for _, re := range []*regexp.Regexp{plusCountry, trunkZero, bareCountry, national} {
		if m := re.FindStringSubmatch(cleaned); m != nil {
			return format(m[1])
		}
	}

	if cleaned == "" || cleaned == "+" {
		return trimmed
	}
	return cleaned
}

// NormalizePtr is Normalize for optional values. Nil or blank input yields nil.
func NormalizePtr(raw *string) *string {
	if raw == nil {
		return nil
	}
	out := Normalize(*raw)
	if out == "" {
		return nil
	}
	return &out
}

// Digits returns only the digits of a number, keeping a leading "+". It is
// the form handed to the dialer.
func Digits(raw string) string {
	return clean(strings.TrimSpace(raw))
}

func clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	if strings.HasPrefix(s, "+") {
		b.WriteByte('+')
	}
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func format(d string) string {
	return "+33 " + d[0:1] + " " + d[1:3] + " " + d[3:5] + " " + d[5:7] + " " + d[7:9]
}

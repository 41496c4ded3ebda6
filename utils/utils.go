package utils

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	nonWordRe    = regexp.MustCompile(`[^\w\s-]`)
	spaceRe      = regexp.MustCompile(`[\s_]+`)
	dashRunRe    = regexp.MustCompile(`-+`)
	unsafeNameRe = regexp.MustCompile(`[^a-zA-Z0-9.-]`)
)

// Slugify turns a title into a URL-safe slug: accents are stripped, the
// result is lowercase and words are joined by single dashes.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, s)
	if err != nil {
		plain = s
	}

	plain = strings.ToLower(strings.TrimSpace(plain))
	plain = nonWordRe.ReplaceAllString(plain, "")
	plain = spaceRe.ReplaceAllString(plain, "-")
	plain = dashRunRe.ReplaceAllString(plain, "-")
	return strings.Trim(plain, "-")
}

// RandomString returns n characters drawn from [A-Z0-9] using crypto/rand.
func RandomString(n int) (string, error) {
	max := big.NewInt(int64(len(alphanumeric)))
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(alphanumeric[idx.Int64()])
	}
	return sb.String(), nil
}

// SanitizeFileName replaces anything outside [a-zA-Z0-9.-] and caps the length.
func SanitizeFileName(name string, maxLen int) string {
	safe := unsafeNameRe.ReplaceAllString(name, "_")
	if maxLen > 0 && len(safe) > maxLen {
		safe = safe[:maxLen]
	}
	return safe
}

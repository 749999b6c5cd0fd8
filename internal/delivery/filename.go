package delivery

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const fallbackPrefix = "download"

// asciiFold decomposes accented characters and drops the combining marks, so
// "Téléchargement" becomes "Telechargement".
var asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SanitizePrefix reduces a configured filename prefix to characters that are
// safe inside a quoted Content-Disposition value on every client.
func SanitizePrefix(prefix string) string {
	folded, _, err := transform.String(asciiFold, strings.TrimSpace(prefix))
	if err != nil {
		folded = prefix
	}
	var b strings.Builder
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return fallbackPrefix
	}
	return out
}

// BuildFilename derives the client-facing name <prefix>_<unix millis>.<ext>.
// The job identifier is deliberately absent.
func BuildFilename(prefix string, at time.Time, ext string) string {
	name := prefix + "_" + strconv.FormatInt(at.UnixMilli(), 10)
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		return name
	}
	return name + "." + ext
}

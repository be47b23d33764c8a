package utils

import (
	"strings"
	"unicode"
)

// DeriveSlug builds the public microsite slug from the groom and bride
// names, e.g. "José" + "María Paz" -> "jose-y-maria-paz". Accents are
// stripped, anything that is not a letter or digit becomes a hyphen and
// runs of hyphens collapse. An empty result falls back to "boda".
func DeriveSlug(groom, bride string) string {
	joined := strings.TrimSpace(groom) + " y " + strings.TrimSpace(bride)
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(joined) {
		r = stripAccent(r)
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" || slug == "y" {
		return "boda"
	}
	return slug
}

// stripAccent maps the accented letters common in Spanish names onto
// their ASCII base letter. Anything else passes through unchanged.
func stripAccent(r rune) rune {
	switch r {
	case 'á', 'à', 'ä', 'â', 'ã':
		return 'a'
	case 'é', 'è', 'ë', 'ê':
		return 'e'
	case 'í', 'ì', 'ï', 'î':
		return 'i'
	case 'ó', 'ò', 'ö', 'ô', 'õ':
		return 'o'
	case 'ú', 'ù', 'ü', 'û':
		return 'u'
	case 'ñ':
		return 'n'
	case 'ç':
		return 'c'
	}
	return r
}

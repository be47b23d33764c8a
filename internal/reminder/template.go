// Package reminder builds personalized reminder emails from a message
// template with placeholder tokens, one substitution pass per guest.
package reminder

import (
	"regexp"
	"strings"

	"github.com/invitame/wedding-invitation-service/internal/model"
)

// Fallback strings used when a replacement value is missing. The copy is
// Spanish because so are the templates couples write.
const (
	FallbackNotDefined = "no definido"
	FallbackNoTable    = "sin mesa"
	FallbackNoPlusOne  = "sin acompañante"
)

// tokenPattern matches every supported placeholder in one pass. The
// token set is closed: anything outside it is left untouched in the
// message rather than treated as an error.
var tokenPattern = regexp.MustCompile(`\{(nombre|acompañante|mesa|fecha|hora_ceremonia|lugar_ceremonia|direccion_ceremonia|hora_fiesta|lugar_fiesta|direccion_fiesta)\}`)

// Replacements maps token names (without braces) to their per-guest values.
type Replacements map[string]string

// BuildReplacements assembles the substitution dictionary for one guest
// from the guest record, the assigned table's name and the landing
// page's event fields. Every missing value gets a defined fallback so a
// template never renders a blank or a literal token.
func BuildReplacements(g model.Guest, tableName string, l model.LandingPage) Replacements {
	r := Replacements{
		"nombre":              orFallback(firstName(g.Name), FallbackNotDefined),
		"acompañante":         FallbackNoPlusOne,
		"mesa":                orFallback(tableName, FallbackNoTable),
		"fecha":               orFallback(l.EventDate, FallbackNotDefined),
		"hora_ceremonia":      orFallback(l.CeremonyTime, FallbackNotDefined),
		"lugar_ceremonia":     orFallback(l.CeremonyPlace, FallbackNotDefined),
		"direccion_ceremonia": orFallback(l.CeremonyAddress, FallbackNotDefined),
		"hora_fiesta":         orFallback(l.PartyTime, FallbackNotDefined),
		"lugar_fiesta":        orFallback(l.PartyPlace, FallbackNotDefined),
		"direccion_fiesta":    orFallback(l.PartyAddress, FallbackNotDefined),
	}
	if g.HasPlusOne && g.PlusOneName != nil && strings.TrimSpace(*g.PlusOneName) != "" {
		r["acompañante"] = strings.TrimSpace(*g.PlusOneName)
	}
	return r
}

// Substitute replaces every known token in the template with its value
// from r in a single regex pass.
func Substitute(template string, r Replacements) string {
	return tokenPattern.ReplaceAllStringFunc(template, func(tok string) string {
		name := strings.Trim(tok, "{}")
		if v, ok := r[name]; ok {
			return v
		}
		return tok
	})
}

// firstName returns the first word of a full name.
func firstName(full string) string {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func orFallback(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

package weapon

import (
	"regexp"
	"strconv"
	"strings"
)

// Special is a parsed weapon special rule such as "Tearing" or "Blast (4)".
type Special struct {
	// Name is the lower-case rule name with spaces replaced by '_'.
	Name string
	// Value is the parenthesised rating, or 0 when absent.
	Value int
}

var specialRE = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z \-_']*?)\s*(?:\((\d+)\))?\s*$`)

// ParseSpecial parses a special rule string. It returns false when s is not
// of the form "Name" or "Name (N)".
func ParseSpecial(s string) (Special, bool) {
	m := specialRE.FindStringSubmatch(s)
	if m == nil {
		return Special{}, false
	}
	name := strings.ReplaceAll(normalize(strings.ReplaceAll(m[1], "'", "")), " ", "_")
	sp := Special{Name: name}
	if m[2] != "" {
		v, err := strconv.Atoi(m[2])
		if err != nil {
			return Special{}, false
		}
		sp.Value = v
	}
	return sp, true
}

// ParsedSpecials returns the weapon's special rules that parse cleanly.
func (w *Weapon) ParsedSpecials() []Special {
	out := make([]Special, 0, len(w.Specials))
	for _, s := range w.Specials {
		if sp, ok := ParseSpecial(s); ok {
			out = append(out, sp)
		}
	}
	return out
}

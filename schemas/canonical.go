package schemas

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
	unorm "golang.org/x/text/unicode/norm"
)

// CanonicalText bringt Freitext in eine vergleichbare Form:
// NFKC, Whitespace zusammengefasst, Case-Folding.
// Duplikatprüfungen und Dedup-Keys müssen dieselbe Funktion verwenden.
func CanonicalText(s string) string {
	s, _, _ = transform.String(transform.Chain(unorm.NFKC), s)
	s = strings.Join(strings.Fields(s), " ")
	// cases.Caser ist zustandsbehaftet und darf nicht geteilt werden
	return cases.Fold().String(s)
}

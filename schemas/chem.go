package schemas

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// atomicNumbers bildet Elementsymbole auf Ordnungszahlen ab (H bis Xe).
var atomicNumbers = map[string]int{
	"H": 1, "He": 2, "Li": 3, "Be": 4, "B": 5, "C": 6, "N": 7, "O": 8, "F": 9, "Ne": 10,
	"Na": 11, "Mg": 12, "Al": 13, "Si": 14, "P": 15, "S": 16, "Cl": 17, "Ar": 18, "K": 19, "Ca": 20,
	"Sc": 21, "Ti": 22, "V": 23, "Cr": 24, "Mn": 25, "Fe": 26, "Co": 27, "Ni": 28, "Cu": 29, "Zn": 30,
	"Ga": 31, "Ge": 32, "As": 33, "Se": 34, "Br": 35, "Kr": 36, "Rb": 37, "Sr": 38, "Y": 39, "Zr": 40,
	"Nb": 41, "Mo": 42, "Tc": 43, "Ru": 44, "Rh": 45, "Pd": 46, "Ag": 47, "Cd": 48, "In": 49, "Sn": 50,
	"Sb": 51, "Te": 52, "I": 53, "Xe": 54,
}

// IsElement meldet, ob symbol ein bekanntes Elementsymbol ist.
func IsElement(symbol string) bool {
	_, ok := atomicNumbers[symbol]
	return ok
}

// Formula ist eine Summenformel als Element -> Anzahl.
type Formula map[string]int

// Atoms liefert die Gesamtzahl der Atome.
func (f Formula) Atoms() int {
	n := 0
	for _, c := range f {
		n += c
	}
	return n
}

// Electrons liefert die Elektronenzahl des neutralen Moleküls minus charge.
func (f Formula) Electrons(charge int) int {
	n := 0
	for el, c := range f {
		n += atomicNumbers[el] * c
	}
	return n - charge
}

// Hill gibt die Formel in Hill-Notation zurück (C, H, dann alphabetisch).
func (f Formula) Hill() string {
	var b strings.Builder
	write := func(el string) {
		b.WriteString(el)
		if f[el] > 1 {
			b.WriteString(strconv.Itoa(f[el]))
		}
	}
	rest := make([]string, 0, len(f))
	for el := range f {
		if f[el] == 0 {
			continue
		}
		if f["C"] > 0 && (el == "C" || el == "H") {
			continue
		}
		rest = append(rest, el)
	}
	sort.Strings(rest)
	if f["C"] > 0 {
		write("C")
		if f["H"] > 0 {
			write("H")
		}
	}
	for _, el := range rest {
		write(el)
	}
	return b.String()
}

// Equal vergleicht zwei Formeln elementweise.
func (f Formula) Equal(o Formula) bool {
	if f.Atoms() != o.Atoms() {
		return false
	}
	for el, c := range f {
		if o[el] != c {
			return false
		}
	}
	return true
}

// ParseFormula liest Summenformeln wie "CH4", "C2H5OH" oder "CH3(CH2)2OH".
// Mehrere Komponenten dürfen mit "." getrennt sein ("C2H6.2H2O").
func ParseFormula(s string) (Formula, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty formula")
	}
	out := Formula{}
	for _, part := range strings.Split(s, ".") {
		mult, rest := leadingInt(part)
		if mult == 0 {
			mult = 1
		}
		f, err := parseGroup(rest)
		if err != nil {
			return nil, err
		}
		for el, c := range f {
			out[el] += c * mult
		}
	}
	return out, nil
}

func parseGroup(s string) (Formula, error) {
	out := Formula{}
	stack := []Formula{out}
	i := 0
	for i < len(s) {
		r := rune(s[i])
		switch {
		case r == '(':
			stack = append(stack, Formula{})
			i++
		case r == ')':
			if len(stack) == 1 {
				return nil, fmt.Errorf("unbalanced ')' at position %d", i)
			}
			inner := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			n, rest := leadingInt(s[i+1:])
			if n == 0 {
				n = 1
			}
			for el, c := range inner {
				stack[len(stack)-1][el] += c * n
			}
			i = len(s) - len(rest)
		case unicode.IsUpper(r):
			j := i + 1
			for j < len(s) && unicode.IsLower(rune(s[j])) {
				j++
			}
			sym := s[i:j]
			if !IsElement(sym) {
				return nil, fmt.Errorf("unknown element %q", sym)
			}
			n, rest := leadingInt(s[j:])
			if n == 0 {
				n = 1
			}
			stack[len(stack)-1][sym] += n
			i = len(s) - len(rest)
		default:
			return nil, fmt.Errorf("unexpected character %q at position %d", r, i)
		}
	}
	if len(stack) != 1 {
		return nil, fmt.Errorf("unbalanced '('")
	}
	if out.Atoms() == 0 {
		return nil, fmt.Errorf("formula contains no atoms")
	}
	return out, nil
}

func leadingInt(s string) (int, string) {
	j := 0
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == 0 {
		return 0, s
	}
	n, err := strconv.Atoi(s[:j])
	if err != nil {
		return 0, s
	}
	return n, s[j:]
}

// FormulaFromInChI liest die Summenformel-Schicht eines InChI ("InChI=1S/CH4/h1H4").
func FormulaFromInChI(inchi string) (Formula, error) {
	inchi = strings.TrimSpace(inchi)
	if !strings.HasPrefix(inchi, "InChI=") {
		return nil, fmt.Errorf("InChI must start with \"InChI=\"")
	}
	layers := strings.Split(inchi, "/")
	if len(layers) < 2 || layers[1] == "" {
		return nil, fmt.Errorf("InChI has no formula layer")
	}
	return ParseFormula(layers[1])
}

// FormulaFromSymbols zählt die Elemente einer Koordinatenliste.
func FormulaFromSymbols(symbols []string) Formula {
	out := Formula{}
	for _, s := range symbols {
		out[s]++
	}
	return out
}

// linearityTolerance ist der maximale Sinus des Winkels zwischen Bindungsvektoren.
const linearityTolerance = 1e-3

// IsLinear prüft, ob alle Atome auf einer Geraden liegen.
func IsLinear(coords [][]float64) bool {
	if len(coords) <= 2 {
		return true
	}
	origin := coords[0]
	var axis []float64
	for _, p := range coords[1:] {
		v := sub(p, origin)
		if norm(v) > 1e-6 {
			axis = v
			break
		}
	}
	if axis == nil {
		return true
	}
	for _, p := range coords[1:] {
		v := sub(p, origin)
		n := norm(v)
		if n <= 1e-6 {
			continue
		}
		if norm(cross(axis, v))/(norm(axis)*n) > linearityTolerance {
			return false
		}
	}
	return true
}

func sub(a, b []float64) []float64 {
	return []float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func cross(a, b []float64) []float64 {
	return []float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func norm(v []float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// ExpectedFrequencies liefert 3N-6 (nichtlinear) bzw. 3N-5 (linear); 0 für Atome.
func ExpectedFrequencies(atoms int, linear bool) int {
	switch {
	case atoms <= 1:
		return 0
	case linear:
		return 3*atoms - 5
	default:
		return 3*atoms - 6
	}
}

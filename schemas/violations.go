package schemas

import (
	"fmt"
	"sort"
	"strings"
)

// Kind klassifiziert eine Regelverletzung.
type Kind string

const (
	KindMissing      Kind = "missing"
	KindType         Kind = "type"
	KindRange        Kind = "range"
	KindLength       Kind = "length"
	KindFormat       Kind = "format"
	KindEnum         Kind = "enum"
	KindUnknownField Kind = "unknown_field"
	KindConsistency  Kind = "consistency"
	KindDuplicate    Kind = "duplicate"
)

// Violation ist ein einzelner Verstoß: (Feldpfad, Art, Meldung).
type Violation struct {
	Path    string `json:"path"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// ValidationError enthält alle gefundenen Verstöße eines Payloads.
type ValidationError struct {
	Violations []Violation `json:"violations"`
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		v := e.Violations[0]
		return fmt.Sprintf("validation failed: %s: %s", v.Path, v.Message)
	}
	return fmt.Sprintf("validation failed with %d violations", len(e.Violations))
}

// ParseError wird geliefert, wenn der Body kein gültiges JSON ist.
type ParseError struct {
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("malformed JSON at offset %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("malformed JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// collector sammelt Verstöße; pro Pfad wird nur die erste Typ-/Pflichtverletzung gemeldet.
type collector struct {
	items []Violation
	seen  map[string]bool
}

func newCollector() *collector {
	return &collector{seen: map[string]bool{}}
}

func (c *collector) add(path string, kind Kind, format string, args ...any) {
	c.items = append(c.items, Violation{Path: path, Kind: kind, Message: fmt.Sprintf(format, args...)})
	c.seen[path] = true
}

// has meldet, ob der Pfad oder ein übergeordneter Pfad bereits einen Verstoß hat.
func (c *collector) has(path string) bool {
	for p := path; p != ""; p = parentPath(p) {
		if c.seen[p] {
			return true
		}
	}
	return false
}

// within meldet, ob der Pfad oder ein untergeordneter Pfad einen Verstoß hat.
func (c *collector) within(path string) bool {
	if c.has(path) {
		return true
	}
	for p := range c.seen {
		if strings.HasPrefix(p, path+".") || strings.HasPrefix(p, path+"[") {
			return true
		}
	}
	return false
}

func (c *collector) err() error {
	if len(c.items) == 0 {
		return nil
	}
	out := make([]Violation, len(c.items))
	copy(out, c.items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return &ValidationError{Violations: out}
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}

func indexPath(base string, i int) string {
	return fmt.Sprintf("%s[%d]", base, i)
}

func parentPath(p string) string {
	if strings.HasSuffix(p, "]") {
		if i := strings.LastIndex(p, "["); i > 0 {
			return p[:i]
		}
	}
	if i := strings.LastIndex(p, "."); i > 0 {
		return p[:i]
	}
	return ""
}

package schemas

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"sort"
	"strings"
)

// parse prüft die JSON-Syntax und dekodiert raw feldweise in dst.
// Typfehler und unbekannte Felder landen im collector, nicht im Fehlerwert;
// nur syntaktisch kaputtes JSON liefert einen *ParseError.
func parse(raw []byte, dst any, c *collector) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return &ParseError{Err: errors.New("empty body")}
	}
	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		var syn *json.SyntaxError
		if errors.As(err, &syn) {
			return &ParseError{Offset: syn.Offset, Err: err}
		}
		return &ParseError{Err: err}
	}
	decodeObject(raw, reflect.ValueOf(dst).Elem(), "", c)
	return nil
}

type jsonField struct {
	index int
	name  string
}

func jsonFields(t reflect.Type) map[string]jsonField {
	out := make(map[string]jsonField, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		out[name] = jsonField{index: i, name: name}
	}
	return out
}

func decodeObject(raw json.RawMessage, dst reflect.Value, path string, c *collector) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		c.add(rootOr(path), KindType, "expected object")
		return
	}
	fields := jsonFields(dst.Type())

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fieldPath := joinPath(path, key)
		f, ok := fields[key]
		if !ok {
			c.add(fieldPath, KindUnknownField, "unknown field %q", key)
			continue
		}
		val := obj[key]
		if isNull(val) {
			continue
		}
		decodeValue(val, dst.Field(f.index), fieldPath, c)
	}
}

func decodeValue(raw json.RawMessage, dst reflect.Value, path string, c *collector) {
	t := dst.Type()
	switch {
	case t.Kind() == reflect.Struct:
		decodeObject(raw, dst, path, c)
	case t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Struct:
		v := reflect.New(t.Elem())
		decodeObject(raw, v.Elem(), path, c)
		dst.Set(v)
	case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Struct:
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			c.add(path, KindType, "expected array")
			return
		}
		s := reflect.MakeSlice(t, len(items), len(items))
		for i, item := range items {
			decodeValue(item, s.Index(i), indexPath(path, i), c)
		}
		dst.Set(s)
	default:
		if err := json.Unmarshal(raw, dst.Addr().Interface()); err != nil {
			dst.Set(reflect.Zero(t))
			c.add(path, KindType, "expected %s", describeType(t))
		}
	}
}

func describeType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Ptr:
		return describeType(t.Elem())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "integer"
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "non-negative integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array of " + describeType(t.Elem())
	case reflect.Map:
		return "object of " + describeType(t.Elem())
	}
	return t.String()
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func rootOr(path string) string {
	if path == "" {
		return "$"
	}
	return path
}

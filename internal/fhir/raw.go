package fhir

import (
	"strconv"
	"strings"
)

// RawRecord is one clinical resource as returned by the server
type RawRecord map[string]interface{}

// Map returns the nested object at key
func (r RawRecord) Map(key string) RawRecord {
	if m, ok := r[key].(map[string]interface{}); ok {
		return RawRecord(m)
	}
	if m, ok := r[key].(RawRecord); ok {
		return m
	}
	return nil
}

// Slice returns the array at key
func (r RawRecord) Slice(key string) []interface{} {
	if s, ok := r[key].([]interface{}); ok {
		return s
	}
	return nil
}

// First returns the first array element at key as an object. A single object
// stored under key is returned as is.
func (r RawRecord) First(key string) RawRecord {
	if s := r.Slice(key); len(s) > 0 {
		return asRecord(s[0])
	}
	return r.Map(key)
}

// Str returns the trimmed string at key, empty when absent or not a string
func (r RawRecord) Str(key string) string {
	if r == nil {
		return ""
	}
	if s, ok := r[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// Path walks nested objects and returns the string at the end of the path
func (r RawRecord) Path(keys ...string) string {
	cur := r
	for i, key := range keys {
		if cur == nil {
			return ""
		}
		if i == len(keys)-1 {
			return cur.Str(key)
		}
		cur = cur.Map(key)
	}
	return ""
}

// Has reports whether key is present with a non-null value
func (r RawRecord) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// ID returns the record's own id, numeric ids included
func (r RawRecord) ID() string {
	switch v := r["id"].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func asRecord(v interface{}) RawRecord {
	switch m := v.(type) {
	case map[string]interface{}:
		return RawRecord(m)
	case RawRecord:
		return m
	}
	return nil
}

// formatNumber renders JSON numbers without a trailing ".0"
func formatNumber(v interface{}) (string, bool) {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64), true
	case int:
		return strconv.Itoa(n), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case string:
		n = strings.TrimSpace(n)
		return n, n != ""
	}
	return "", false
}

// referenceTail reduces "Practitioner/123" to "123"
func referenceTail(ref string) string {
	ref = strings.TrimSpace(ref)
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

// conceptText returns the display of a CodeableConcept: first coding display,
// then text, then first coding code.
func conceptText(c RawRecord) string {
	if c == nil {
		return ""
	}
	for _, coding := range c.Slice("coding") {
		if d := asRecord(coding).Str("display"); d != "" {
			return d
		}
	}
	if t := c.Str("text"); t != "" {
		return t
	}
	return c.First("coding").Str("code")
}

// conceptCodes lists every coding code of a CodeableConcept
func conceptCodes(c RawRecord) []string {
	var codes []string
	for _, coding := range c.Slice("coding") {
		if code := asRecord(coding).Str("code"); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

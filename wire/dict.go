package wire

import (
	"bytes"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Entry is a key/value pair of a Dict.
type Entry struct {
	Key   string
	Value interface{}
}

// Dict is a JSON object which keeps the order of its keys.
type Dict []Entry

// Set appends a key/value pair.
func (d *Dict) Set(key string, value interface{}) {
	*d = append(*d, Entry{Key: key, Value: value})
}

// MarshalJSON writes the entries in order.
func (d Dict) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Float is a float token. It is always written with a fractional part or an
// exponent, so that it will be read back as a float.
type Float float64

// MarshalJSON writes f as a JSON number.
func (f Float) MarshalJSON() ([]byte, error) {
	x := float64(f)
	switch {
	case math.IsInf(x, 1):
		return []byte("3.4E+38"), nil
	case math.IsInf(x, -1):
		return []byte("-3.4E+38"), nil
	case math.IsNaN(x):
		return []byte("0.0"), nil
	}
	s := strconv.FormatFloat(x, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return []byte(s), nil
}

// --- Reading token trees ---------------------------------------------------

// DecodeJSON parses JSON into a token tree. Numbers are kept as json.Number,
// so integers and floats stay distinct.
func DecodeJSON(b []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var tree interface{}
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// IsFloatToken is a predicate: is tok a floating point number?
func IsFloatToken(tok interface{}) bool {
	switch x := tok.(type) {
	case json.Number:
		return strings.ContainsAny(string(x), ".eE")
	case float32, float64, Float:
		return true
	}
	return false
}

// Int reads an integer from a token. Token trees from JSON hold json.Number,
// trees from CBOR hold int64 or uint64.
func Int(tok interface{}) (int, bool) {
	switch x := tok.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(string(x), 10, 64); err == nil {
			return int(i), true
		}
		if f, err := x.Float64(); err == nil {
			return int(f), true
		}
	case int:
		return x, true
	case int64:
		return int(x), true
	case uint64:
		return int(x), true
	case float64:
		return int(x), true
	}
	return 0, false
}

// Float64 reads a floating point number from a token.
func Float64(tok interface{}) (float64, bool) {
	switch x := tok.(type) {
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f, true
		}
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case Float:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}

// Bool reads a boolean from a token.
func Bool(tok interface{}) bool {
	b, _ := tok.(bool)
	return b
}

// String reads a string from a token.
func String(tok interface{}) (string, bool) {
	s, ok := tok.(string)
	return s, ok
}

// IntDict converts a map of ints to a Dict with sorted keys.
func IntDict(m map[string]int) Dict {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	d := make(Dict, 0, len(keys))
	for _, k := range keys {
		d = append(d, Entry{Key: k, Value: m[k]})
	}
	return d
}

// ReadIntDict reads a token object of ints.
func ReadIntDict(tok interface{}) map[string]int {
	m := make(map[string]int)
	if obj, ok := tok.(map[string]interface{}); ok {
		for k, v := range obj {
			if i, ok := Int(v); ok {
				m[k] = i
			}
		}
	}
	return m
}

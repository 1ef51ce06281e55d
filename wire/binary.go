package wire

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-json"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CanonicalEncOptions().EncMode(); err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		MaxNestedLevels: 256, // containers nest two levels per container
		IntDec:          cbor.IntDecConvertSigned,
		DefaultMapType:  reflect.TypeOf(map[string]interface{}(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// EncodeBinary writes a token tree as canonical CBOR. Canonical encoding
// sorts map keys, so equal trees always yield identical bytes.
func EncodeBinary(tree interface{}) ([]byte, error) {
	return encMode.Marshal(toPlainTree(tree))
}

// DecodeBinary reads a token tree from CBOR. Integers are read as int64,
// floats as float64 and maps as map[string]interface{}.
func DecodeBinary(b []byte) (interface{}, error) {
	var tree interface{}
	if err := decMode.Unmarshal(b, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// toPlainTree replaces Dicts by maps and typed numbers by Go numbers.
func toPlainTree(tok interface{}) interface{} {
	switch x := tok.(type) {
	case Dict:
		m := make(map[string]interface{}, len(x))
		for _, e := range x {
			m[e.Key] = toPlainTree(e.Value)
		}
		return m
	case map[string]interface{}:
		m := make(map[string]interface{}, len(x))
		for k, v := range x {
			m[k] = toPlainTree(v)
		}
		return m
	case []interface{}:
		arr := make([]interface{}, len(x))
		for i, v := range x {
			arr[i] = toPlainTree(v)
		}
		return arr
	case Float:
		return float64(x)
	case json.Number:
		if IsFloatToken(x) {
			f, _ := Float64(x)
			return f
		}
		i, _ := Int(x)
		return int64(i)
	}
	return tok
}

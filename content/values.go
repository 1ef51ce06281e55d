package content

import (
	"fmt"
	"math"
	"strconv"

	"github.com/npillmayer/goink"
)

// ValueType is the type of a value. The ordering of the numeric types is
// significant: binary operations coerce both operands to the higher type.
type ValueType int

// Value types. Bool sits below Int so that bools coerce to ints.
const (
	BoolType ValueType = iota - 1
	IntType
	FloatType
	ListType
	StringType
	DivertTargetType    // not used for coercion
	VariablePointerType // not used for coercion
)

func (vt ValueType) String() string {
	switch vt {
	case BoolType:
		return "Bool"
	case IntType:
		return "Int"
	case FloatType:
		return "Float"
	case ListType:
		return "List"
	case StringType:
		return "String"
	case DivertTargetType:
		return "DivertTarget"
	case VariablePointerType:
		return "VariablePointer"
	}
	return fmt.Sprintf("ValueType(%d)", int(vt))
}

// Value is the interface of all value objects, i.e. objects which may be
// pushed onto the evaluation stack.
type Value interface {
	Object
	Type() ValueType
	Truthy() (bool, error)
	// Cast converts a value to another type. For strings not parsable as
	// numbers, Cast returns (nil, nil).
	Cast(ValueType) (Value, error)
	// Native returns the Go representation of the value.
	Native() interface{}
	String() string
}

// CreateValue wraps a Go host value into a story value. It returns nil for
// unsupported Go types.
func CreateValue(v interface{}) Value {
	switch x := v.(type) {
	case bool:
		return &BoolValue{V: x}
	case int:
		return &IntValue{V: x}
	case int8:
		return &IntValue{V: int(x)}
	case int16:
		return &IntValue{V: int(x)}
	case int32:
		return &IntValue{V: int(x)}
	case int64:
		return &IntValue{V: int(x)}
	case uint8:
		return &IntValue{V: int(x)}
	case uint16:
		return &IntValue{V: int(x)}
	case uint32:
		return &IntValue{V: int(x)}
	case float32:
		return &FloatValue{V: float64(x)}
	case float64:
		return &FloatValue{V: x}
	case string:
		return &StringValue{V: x}
	case *Path:
		return &DivertTargetValue{Target: x}
	case *InkList:
		return NewListValue(x)
	case InkList:
		return NewListValue(&x)
	}
	return nil
}

// ValuesEqual is a predicate: are a and b of the same type and hold equal
// native values?
func ValuesEqual(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Type() != b.Type() {
		return false
	}
	switch x := a.(type) {
	case *ListValue:
		return x.List.Equal(b.(*ListValue).List)
	case *DivertTargetValue:
		return x.Target.Equal(b.(*DivertTargetValue).Target)
	case *VariablePointerValue:
		y := b.(*VariablePointerValue)
		return x.Name == y.Name && x.ContextIndex == y.ContextIndex
	}
	return a.Native() == b.Native()
}

func badCast(v Value, to ValueType) error {
	return goink.Errorf(goink.TypeCoercion, "Can't cast %v from %s to %s", v.Native(), v.Type(), to)
}

// --- Bool ------------------------------------------------------------------

// BoolValue is a boolean value.
type BoolValue struct {
	objectBase
	V bool
}

func (v *BoolValue) Type() ValueType       { return BoolType }
func (v *BoolValue) Truthy() (bool, error) { return v.V, nil }
func (v *BoolValue) Native() interface{}   { return v.V }

func (v *BoolValue) Cast(to ValueType) (Value, error) {
	switch to {
	case BoolType:
		return v, nil
	case IntType:
		if v.V {
			return &IntValue{V: 1}, nil
		}
		return &IntValue{V: 0}, nil
	case FloatType:
		if v.V {
			return &FloatValue{V: 1}, nil
		}
		return &FloatValue{V: 0}, nil
	case StringType:
		return &StringValue{V: v.String()}, nil
	}
	return nil, badCast(v, to)
}

func (v *BoolValue) String() string {
	if v.V {
		return "true"
	}
	return "false"
}

// --- Int -------------------------------------------------------------------

// IntValue is an integer value.
type IntValue struct {
	objectBase
	V int
}

func (v *IntValue) Type() ValueType       { return IntType }
func (v *IntValue) Truthy() (bool, error) { return v.V != 0, nil }
func (v *IntValue) Native() interface{}   { return v.V }
func (v *IntValue) String() string        { return strconv.Itoa(v.V) }

func (v *IntValue) Cast(to ValueType) (Value, error) {
	switch to {
	case IntType:
		return v, nil
	case BoolType:
		return &BoolValue{V: v.V != 0}, nil
	case FloatType:
		return &FloatValue{V: float64(v.V)}, nil
	case StringType:
		return &StringValue{V: v.String()}, nil
	}
	return nil, badCast(v, to)
}

// --- Float -----------------------------------------------------------------

// FloatValue is a floating point value. Floats are rendered to text in
// their shortest single precision form.
type FloatValue struct {
	objectBase
	V float64
}

func (v *FloatValue) Type() ValueType       { return FloatType }
func (v *FloatValue) Truthy() (bool, error) { return v.V != 0, nil }
func (v *FloatValue) Native() interface{}   { return v.V }

func (v *FloatValue) String() string {
	return FormatFloat(v.V)
}

// FormatFloat renders a float the way it appears in story text.
func FormatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(float64(float32(f)), 'f', -1, 32)
}

func (v *FloatValue) Cast(to ValueType) (Value, error) {
	switch to {
	case FloatType:
		return v, nil
	case BoolType:
		return &BoolValue{V: v.V != 0}, nil
	case IntType:
		return &IntValue{V: int(v.V)}, nil
	case StringType:
		return &StringValue{V: v.String()}, nil
	}
	return nil, badCast(v, to)
}

// --- String ----------------------------------------------------------------

// StringValue is a text value. Text is classified as a newline, as inline
// whitespace (spaces and tabs only, including the empty string), or as
// non-whitespace.
type StringValue struct {
	objectBase
	V string
}

func (v *StringValue) Type() ValueType       { return StringType }
func (v *StringValue) Truthy() (bool, error) { return len(v.V) > 0, nil }
func (v *StringValue) Native() interface{}   { return v.V }
func (v *StringValue) String() string        { return v.V }

// IsNewline is a predicate: is v a single newline?
func (v *StringValue) IsNewline() bool {
	return v.V == "\n"
}

// IsInlineWhitespace is a predicate: does v consist of spaces and tabs only?
func (v *StringValue) IsInlineWhitespace() bool {
	for _, c := range v.V {
		if c != ' ' && c != '\t' {
			return false
		}
	}
	return true
}

// IsNonWhitespace is a predicate: is v neither a newline nor inline whitespace?
func (v *StringValue) IsNonWhitespace() bool {
	return !v.IsNewline() && !v.IsInlineWhitespace()
}

func (v *StringValue) Cast(to ValueType) (Value, error) {
	switch to {
	case StringType:
		return v, nil
	case IntType:
		if i, err := strconv.Atoi(v.V); err == nil {
			return &IntValue{V: i}, nil
		}
		return nil, nil
	case FloatType:
		if f, err := strconv.ParseFloat(v.V, 32); err == nil {
			return &FloatValue{V: f}, nil
		}
		return nil, nil
	}
	return nil, badCast(v, to)
}

// --- Divert targets --------------------------------------------------------

// DivertTargetValue holds a path as a value, e.g. for `-> knot` parameters.
type DivertTargetValue struct {
	objectBase
	Target *Path
}

func (v *DivertTargetValue) Type() ValueType     { return DivertTargetType }
func (v *DivertTargetValue) Native() interface{} { return v.Target }

func (v *DivertTargetValue) Truthy() (bool, error) {
	return false, goink.Errorf(goink.TypeCoercion, "Shouldn't be checking the truthiness of a divert target")
}

func (v *DivertTargetValue) Cast(to ValueType) (Value, error) {
	if to == DivertTargetType {
		return v, nil
	}
	return nil, badCast(v, to)
}

func (v *DivertTargetValue) String() string {
	return "DivertTargetValue(" + v.Target.String() + ")"
}

// --- Variable pointers -----------------------------------------------------

// VariablePointerValue refers to a variable, for by-reference parameters.
// ContextIndex is -1 if yet to be determined, 0 for global scope, and
// callstack element index + 1 for temporaries.
type VariablePointerValue struct {
	objectBase
	Name         string
	ContextIndex int
}

func (v *VariablePointerValue) Type() ValueType     { return VariablePointerType }
func (v *VariablePointerValue) Native() interface{} { return v.Name }

func (v *VariablePointerValue) Truthy() (bool, error) {
	return false, goink.Errorf(goink.TypeCoercion, "Shouldn't be checking the truthiness of a variable pointer")
}

func (v *VariablePointerValue) Cast(to ValueType) (Value, error) {
	if to == VariablePointerType {
		return v, nil
	}
	return nil, badCast(v, to)
}

func (v *VariablePointerValue) String() string {
	return "VariablePointerValue(" + v.Name + ")"
}

// --- Lists -----------------------------------------------------------------

// ListValue holds a list as a value.
type ListValue struct {
	objectBase
	List *InkList
}

// NewListValue creates a list value holding a copy of l.
func NewListValue(l *InkList) *ListValue {
	if l == nil {
		return &ListValue{List: NewInkList()}
	}
	return &ListValue{List: l.Copy()}
}

// NewSingleItemListValue creates a list value with one item.
func NewSingleItemListValue(item ListItem, value int) *ListValue {
	l := NewInkList()
	l.Set(item, value)
	return &ListValue{List: l}
}

func (v *ListValue) Type() ValueType       { return ListType }
func (v *ListValue) Truthy() (bool, error) { return v.List.Len() > 0, nil }
func (v *ListValue) Native() interface{}   { return v.List }
func (v *ListValue) String() string        { return v.List.String() }

func (v *ListValue) Cast(to ValueType) (Value, error) {
	switch to {
	case ListType:
		return v, nil
	case IntType:
		if max, ok := v.List.MaxItem(); ok {
			return &IntValue{V: max.Value}, nil
		}
		return &IntValue{V: 0}, nil
	case FloatType:
		if max, ok := v.List.MaxItem(); ok {
			return &FloatValue{V: float64(max.Value)}, nil
		}
		return &FloatValue{V: 0}, nil
	case StringType:
		if max, ok := v.List.MaxItem(); ok {
			return &StringValue{V: max.Item.FullName()}, nil
		}
		return &StringValue{V: ""}, nil
	}
	return nil, badCast(v, to)
}

// RetainListOriginsForAssignment keeps the origin names of an old list value
// when an empty list is assigned in its place.
func RetainListOriginsForAssignment(oldValue, newValue Object) {
	oldList, ok1 := oldValue.(*ListValue)
	newList, ok2 := newValue.(*ListValue)
	if ok1 && ok2 && newList.List.Len() == 0 {
		newList.List.SetInitialOriginNames(oldList.List.OriginNames())
	}
}

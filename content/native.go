package content

import (
	"math"
	"strings"

	"github.com/npillmayer/goink"
)

// Names of native operators.
const (
	OpAdd                 = "+"
	OpSubtract            = "-"
	OpDivide              = "/"
	OpMultiply            = "*"
	OpMod                 = "%"
	OpNegate              = "_" // distinguished from "-" for subtraction
	OpEqual               = "=="
	OpGreater             = ">"
	OpLess                = "<"
	OpGreaterThanOrEquals = ">="
	OpLessThanOrEquals    = "<="
	OpNotEquals           = "!="
	OpNot                 = "!"
	OpAnd                 = "&&"
	OpOr                  = "||"
	OpMin                 = "MIN"
	OpMax                 = "MAX"
	OpPow                 = "POW"
	OpFloor               = "FLOOR"
	OpCeiling             = "CEILING"
	OpInt                 = "INT"
	OpFloat               = "FLOAT"
	OpHas                 = "?"
	OpHasnt               = "!?"
	OpIntersect           = "^"
	OpListMin             = "LIST_MIN"
	OpListMax             = "LIST_MAX"
	OpListAll             = "LIST_ALL"
	OpListCount           = "LIST_COUNT"
	OpListValue           = "LIST_VALUE"
	OpListInvert          = "LIST_INVERT"
)

// NativeFunctionCall is a built-in operator. The operation is selected by
// the type the operands are coerced to.
type NativeFunctionCall struct {
	objectBase
	Name  string
	proto *nativeOp
}

// opFunc operates on parameters of a single type. A result of type error
// signals a failed operation.
type opFunc func(params []Value) interface{}

type nativeOp struct {
	name  string
	arity int
	ops   map[ValueType]opFunc
}

var nativeOps = make(map[string]*nativeOp)

// NewNativeFunctionCall creates a call to a native operator. Returns nil if
// there is no operator with the given name.
func NewNativeFunctionCall(name string) *NativeFunctionCall {
	proto, ok := nativeOps[name]
	if !ok {
		return nil
	}
	return &NativeFunctionCall{Name: name, proto: proto}
}

// NativeCallExists is a predicate: is name the name of a native operator?
func NativeCallExists(name string) bool {
	_, ok := nativeOps[name]
	return ok
}

// Arity returns the number of parameters of the operator.
func (n *NativeFunctionCall) Arity() int {
	return n.proto.arity
}

func (n *NativeFunctionCall) String() string {
	return "Native '" + n.Name + "'"
}

// Call applies the operator to its parameters. Parameters are coerced to the
// highest type among them, with bools coerced to ints. Lists get special
// treatment for binary operations.
func (n *NativeFunctionCall) Call(params []Object) (Value, error) {
	if len(params) != n.proto.arity {
		return nil, goink.Errorf(goink.TypeCoercion, "Unexpected number of parameters to '%s': %d", n.Name, len(params))
	}
	hasList := false
	values := make([]Value, len(params))
	for i, p := range params {
		if _, ok := p.(*Void); ok {
			return nil, goink.Errorf(goink.RuntimeLogic,
				"Attempting to perform operation on a void value. Did you forget to 'return' a value from a function you called here?")
		}
		v, ok := p.(Value)
		if !ok {
			return nil, goink.Errorf(goink.TypeCoercion, "Cannot perform operation '%s' on %v", n.Name, p)
		}
		if _, ok := v.(*ListValue); ok {
			hasList = true
		}
		values[i] = v
	}
	if len(values) == 2 && hasList {
		return n.callBinaryListOperation(values)
	}
	coerced, err := n.coerceValuesToSingleType(values)
	if err != nil {
		return nil, err
	}
	return n.callTyped(coerced)
}

func (n *NativeFunctionCall) callTyped(params []Value) (Value, error) {
	valType := params[0].Type()
	op, ok := n.proto.ops[valType]
	if !ok {
		return nil, goink.Errorf(goink.TypeCoercion, "Cannot perform operation '%s' on %s", n.Name, valType)
	}
	result := op(params)
	if err, ok := result.(error); ok {
		return nil, err
	}
	v := CreateValue(result)
	if v == nil {
		return nil, goink.Errorf(goink.TypeCoercion, "Operation '%s' on %s produced no value", n.Name, valType)
	}
	return v, nil
}

func (n *NativeFunctionCall) callBinaryListOperation(params []Value) (Value, error) {
	v1, v2 := params[0], params[1]
	if n.Name == OpAdd || n.Name == OpSubtract {
		if l, ok := v1.(*ListValue); ok {
			if i, ok := v2.(*IntValue); ok {
				return n.callListIncrementOperation(l, i), nil
			}
		}
	}
	if (n.Name == OpAnd || n.Name == OpOr) && (v1.Type() != ListType || v2.Type() != ListType) {
		t1, err := v1.Truthy()
		if err != nil {
			return nil, err
		}
		t2, err := v2.Truthy()
		if err != nil {
			return nil, err
		}
		if n.Name == OpAnd {
			return &BoolValue{V: t1 && t2}, nil
		}
		return &BoolValue{V: t1 || t2}, nil
	}
	if v1.Type() == ListType && v2.Type() == ListType {
		return n.callTyped(params)
	}
	return nil, goink.Errorf(goink.TypeCoercion, "Can not call use '%s' operation on %s and %s", n.Name, v1.Type(), v2.Type())
}

// list + 1 moves every item to the item of its origin with the next value;
// items without a successor are dropped.
func (n *NativeFunctionCall) callListIncrementOperation(l *ListValue, i *IntValue) Value {
	result := NewInkList()
	for _, iv := range l.List.OrderedItems() {
		target := iv.Value + i.V
		if n.Name == OpSubtract {
			target = iv.Value - i.V
		}
		for _, origin := range l.List.Origins {
			if origin.Name == iv.Item.OriginName {
				if item, ok := origin.TryGetItemWithValue(target); ok {
					result.Set(item, target)
				}
				break
			}
		}
	}
	return &ListValue{List: result}
}

func (n *NativeFunctionCall) coerceValuesToSingleType(params []Value) ([]Value, error) {
	valType := IntType
	var specialCaseList *ListValue
	for _, v := range params {
		if v.Type() > valType {
			valType = v.Type()
		}
		if l, ok := v.(*ListValue); ok {
			specialCaseList = l
		}
	}
	out := make([]Value, 0, len(params))
	if valType == ListType {
		for _, v := range params {
			switch x := v.(type) {
			case *ListValue:
				out = append(out, x)
			case *IntValue:
				origin := specialCaseList.List.OriginOfMaxItem()
				if origin == nil {
					return nil, goink.Errorf(goink.TypeCoercion, "Could not find List item with the value %d in an unknown list", x.V)
				}
				item, ok := origin.TryGetItemWithValue(x.V)
				if !ok {
					return nil, goink.Errorf(goink.TypeCoercion, "Could not find List item with the value %d in %s", x.V, origin.Name)
				}
				out = append(out, NewSingleItemListValue(item, x.V))
			default:
				return nil, goink.Errorf(goink.TypeCoercion, "Cannot mix Lists and %s values in this operation", v.Type())
			}
		}
		return out, nil
	}
	for _, v := range params {
		c, err := v.Cast(valType)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, goink.Errorf(goink.TypeCoercion, "Cannot cast %v to %s", v.Native(), valType)
		}
		out = append(out, c)
	}
	return out, nil
}

// --- Operator table --------------------------------------------------------

func addOp(name string, arity int, valType ValueType, op opFunc) {
	proto, ok := nativeOps[name]
	if !ok {
		proto = &nativeOp{name: name, arity: arity, ops: make(map[ValueType]opFunc)}
		nativeOps[name] = proto
	}
	proto.ops[valType] = op
}

func addIntBinaryOp(name string, op func(x, y int) interface{}) {
	addOp(name, 2, IntType, func(p []Value) interface{} {
		return op(p[0].(*IntValue).V, p[1].(*IntValue).V)
	})
}

func addIntUnaryOp(name string, op func(x int) interface{}) {
	addOp(name, 1, IntType, func(p []Value) interface{} {
		return op(p[0].(*IntValue).V)
	})
}

func addFloatBinaryOp(name string, op func(x, y float64) interface{}) {
	addOp(name, 2, FloatType, func(p []Value) interface{} {
		return op(p[0].(*FloatValue).V, p[1].(*FloatValue).V)
	})
}

func addFloatUnaryOp(name string, op func(x float64) interface{}) {
	addOp(name, 1, FloatType, func(p []Value) interface{} {
		return op(p[0].(*FloatValue).V)
	})
}

func addStringBinaryOp(name string, op func(x, y string) interface{}) {
	addOp(name, 2, StringType, func(p []Value) interface{} {
		return op(p[0].(*StringValue).V, p[1].(*StringValue).V)
	})
}

func addListBinaryOp(name string, op func(x, y *InkList) interface{}) {
	addOp(name, 2, ListType, func(p []Value) interface{} {
		return op(p[0].(*ListValue).List, p[1].(*ListValue).List)
	})
}

func addListUnaryOp(name string, op func(x *InkList) interface{}) {
	addOp(name, 1, ListType, func(p []Value) interface{} {
		return op(p[0].(*ListValue).List)
	})
}

func divisionByZero(op string) error {
	return goink.Errorf(goink.RuntimeLogic, "Integer division by zero in operation '%s'", op)
}

func init() {
	// There are no operations on bools: bools are coerced to ints before.

	addIntBinaryOp(OpAdd, func(x, y int) interface{} { return x + y })
	addIntBinaryOp(OpSubtract, func(x, y int) interface{} { return x - y })
	addIntBinaryOp(OpMultiply, func(x, y int) interface{} { return x * y })
	addIntBinaryOp(OpDivide, func(x, y int) interface{} {
		if y == 0 {
			return divisionByZero(OpDivide)
		}
		return x / y
	})
	addIntBinaryOp(OpMod, func(x, y int) interface{} {
		if y == 0 {
			return divisionByZero(OpMod)
		}
		return x % y
	})
	addIntUnaryOp(OpNegate, func(x int) interface{} { return -x })
	addIntBinaryOp(OpEqual, func(x, y int) interface{} { return x == y })
	addIntBinaryOp(OpGreater, func(x, y int) interface{} { return x > y })
	addIntBinaryOp(OpLess, func(x, y int) interface{} { return x < y })
	addIntBinaryOp(OpGreaterThanOrEquals, func(x, y int) interface{} { return x >= y })
	addIntBinaryOp(OpLessThanOrEquals, func(x, y int) interface{} { return x <= y })
	addIntBinaryOp(OpNotEquals, func(x, y int) interface{} { return x != y })
	addIntUnaryOp(OpNot, func(x int) interface{} { return x == 0 })
	addIntBinaryOp(OpAnd, func(x, y int) interface{} { return x != 0 && y != 0 })
	addIntBinaryOp(OpOr, func(x, y int) interface{} { return x != 0 || y != 0 })
	addIntBinaryOp(OpMax, func(x, y int) interface{} {
		if x > y {
			return x
		}
		return y
	})
	addIntBinaryOp(OpMin, func(x, y int) interface{} {
		if x < y {
			return x
		}
		return y
	})
	// POW(2, -1) is not an integer
	addIntBinaryOp(OpPow, func(x, y int) interface{} { return math.Pow(float64(x), float64(y)) })
	addIntUnaryOp(OpFloor, func(x int) interface{} { return x })
	addIntUnaryOp(OpCeiling, func(x int) interface{} { return x })
	addIntUnaryOp(OpInt, func(x int) interface{} { return x })
	addIntUnaryOp(OpFloat, func(x int) interface{} { return float64(x) })

	addFloatBinaryOp(OpAdd, func(x, y float64) interface{} { return x + y })
	addFloatBinaryOp(OpSubtract, func(x, y float64) interface{} { return x - y })
	addFloatBinaryOp(OpMultiply, func(x, y float64) interface{} { return x * y })
	addFloatBinaryOp(OpDivide, func(x, y float64) interface{} { return x / y })
	addFloatBinaryOp(OpMod, func(x, y float64) interface{} { return math.Mod(x, y) })
	addFloatUnaryOp(OpNegate, func(x float64) interface{} { return -x })
	addFloatBinaryOp(OpEqual, func(x, y float64) interface{} { return x == y })
	addFloatBinaryOp(OpGreater, func(x, y float64) interface{} { return x > y })
	addFloatBinaryOp(OpLess, func(x, y float64) interface{} { return x < y })
	addFloatBinaryOp(OpGreaterThanOrEquals, func(x, y float64) interface{} { return x >= y })
	addFloatBinaryOp(OpLessThanOrEquals, func(x, y float64) interface{} { return x <= y })
	addFloatBinaryOp(OpNotEquals, func(x, y float64) interface{} { return x != y })
	addFloatUnaryOp(OpNot, func(x float64) interface{} { return x == 0 })
	addFloatBinaryOp(OpAnd, func(x, y float64) interface{} { return x != 0 && y != 0 })
	addFloatBinaryOp(OpOr, func(x, y float64) interface{} { return x != 0 || y != 0 })
	addFloatBinaryOp(OpMax, func(x, y float64) interface{} { return math.Max(x, y) })
	addFloatBinaryOp(OpMin, func(x, y float64) interface{} { return math.Min(x, y) })
	addFloatBinaryOp(OpPow, func(x, y float64) interface{} { return math.Pow(x, y) })
	addFloatUnaryOp(OpFloor, func(x float64) interface{} { return math.Floor(x) })
	addFloatUnaryOp(OpCeiling, func(x float64) interface{} { return math.Ceil(x) })
	addFloatUnaryOp(OpInt, func(x float64) interface{} { return int(x) })
	addFloatUnaryOp(OpFloat, func(x float64) interface{} { return x })

	addStringBinaryOp(OpAdd, func(x, y string) interface{} { return x + y })
	addStringBinaryOp(OpEqual, func(x, y string) interface{} { return x == y })
	addStringBinaryOp(OpNotEquals, func(x, y string) interface{} { return x != y })
	addStringBinaryOp(OpHas, func(x, y string) interface{} { return strings.Contains(x, y) })
	addStringBinaryOp(OpHasnt, func(x, y string) interface{} { return !strings.Contains(x, y) })

	addListBinaryOp(OpAdd, func(x, y *InkList) interface{} { return x.Union(y) })
	addListBinaryOp(OpSubtract, func(x, y *InkList) interface{} { return x.Without(y) })
	addListBinaryOp(OpHas, func(x, y *InkList) interface{} { return x.Contains(y) })
	addListBinaryOp(OpHasnt, func(x, y *InkList) interface{} { return !x.Contains(y) })
	addListBinaryOp(OpIntersect, func(x, y *InkList) interface{} { return x.Intersect(y) })
	addListBinaryOp(OpEqual, func(x, y *InkList) interface{} { return x.Equal(y) })
	addListBinaryOp(OpGreater, func(x, y *InkList) interface{} { return x.GreaterThan(y) })
	addListBinaryOp(OpLess, func(x, y *InkList) interface{} { return x.LessThan(y) })
	addListBinaryOp(OpGreaterThanOrEquals, func(x, y *InkList) interface{} { return x.GreaterThanOrEquals(y) })
	addListBinaryOp(OpLessThanOrEquals, func(x, y *InkList) interface{} { return x.LessThanOrEquals(y) })
	addListBinaryOp(OpNotEquals, func(x, y *InkList) interface{} { return !x.Equal(y) })
	addListBinaryOp(OpAnd, func(x, y *InkList) interface{} { return x.Len() > 0 && y.Len() > 0 })
	addListBinaryOp(OpOr, func(x, y *InkList) interface{} { return x.Len() > 0 || y.Len() > 0 })
	addListUnaryOp(OpNot, func(x *InkList) interface{} {
		if x.Len() == 0 {
			return 1
		}
		return 0
	})
	addListUnaryOp(OpListInvert, func(x *InkList) interface{} { return x.Inverse() })
	addListUnaryOp(OpListAll, func(x *InkList) interface{} { return x.All() })
	addListUnaryOp(OpListMin, func(x *InkList) interface{} { return x.MinAsList() })
	addListUnaryOp(OpListMax, func(x *InkList) interface{} { return x.MaxAsList() })
	addListUnaryOp(OpListCount, func(x *InkList) interface{} { return x.Len() })
	addListUnaryOp(OpListValue, func(x *InkList) interface{} {
		max, _ := x.MaxItem()
		return max.Value
	})

	// The only operations on divert targets
	addOp(OpEqual, 2, DivertTargetType, func(p []Value) interface{} {
		return p[0].(*DivertTargetValue).Target.Equal(p[1].(*DivertTargetValue).Target)
	})
	addOp(OpNotEquals, 2, DivertTargetType, func(p []Value) interface{} {
		return !p[0].(*DivertTargetValue).Target.Equal(p[1].(*DivertTargetValue).Target)
	})
}

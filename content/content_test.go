package content

import (
	"testing"

	"github.com/npillmayer/goink"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestPathParse(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.content")
	defer teardown()
	//
	p := ParsePath(".^.^.hello.5")
	if !p.IsRelative() {
		t.Errorf("expected path to be relative")
	}
	if p.Len() != 4 {
		t.Fatalf("expected 4 components, have %d", p.Len())
	}
	if !p.Component(0).IsParent() || !p.Component(3).IsIndex() || p.Component(3).Index != 5 {
		t.Errorf("components not parsed correctly: %v", p.components)
	}
	if p.String() != ".^.^.hello.5" {
		t.Errorf("expected string form to survive, have %q", p.String())
	}
	if ParsePath("knot.0").IsRelative() {
		t.Errorf("expected path without leading dot to be absolute")
	}
}

func TestPathAppending(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.content")
	defer teardown()
	//
	base := ParsePath("a.b.c")
	p := base.PathByAppendingPath(ParsePath(".^.^.x"))
	if p.String() != "a.x" {
		t.Errorf("expected a.x, have %s", p)
	}
	if tail := ParsePath("a").Tail(); !tail.IsRelative() || tail.Len() != 0 {
		t.Errorf("expected tail of single component path to be self path")
	}
	if !ParsePath("a.0").Equal(ParsePath("a.0")) {
		t.Errorf("expected paths to be equal")
	}
	if ParsePath("a.0").Equal(ParsePath(".a.0")) {
		t.Errorf("expected absolute and relative path to differ")
	}
}

func buildTree(t *testing.T) (*Container, *Container, *StringValue) {
	root := NewContainer()
	knot := NewContainer()
	knot.Name = "knot"
	text := &StringValue{V: "Hello"}
	if err := knot.AddContent(&StringValue{V: "first"}, text); err != nil {
		t.Fatal(err)
	}
	if err := root.AddContent(&StringValue{V: "root"}); err != nil {
		t.Fatal(err)
	}
	root.AddToNamedContentOnly(knot)
	return root, knot, text
}

func TestContainerAddressing(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.content")
	defer teardown()
	//
	root, knot, text := buildTree(t)
	if PathOf(text).String() != "knot.1" {
		t.Errorf("expected path knot.1, have %s", PathOf(text))
	}
	r := root.ContentAtPath(ParsePath("knot.1"))
	if r.Approximate || r.Obj != text {
		t.Errorf("expected exact resolution of knot.1")
	}
	r = root.ContentAtPath(ParsePath("knot.7"))
	if !r.Approximate || r.Obj != knot {
		t.Errorf("expected approximate resolution to knot, have %v", r.Obj)
	}
	if r.CorrectObj() != nil {
		t.Errorf("approximate result must not be correct")
	}
	r = ResolvePath(text, ParsePath(".^.0"))
	if r.Approximate || r.Obj != knot.Content[0] {
		t.Errorf("expected relative resolution to sibling")
	}
	r = root.ContentAtPartialPath(ParsePath("outer.knot.1"), 1, 2)
	if r.Approximate || r.Obj != text {
		t.Errorf("expected partial path knot.1 to resolve to text, have %v", r.Obj)
	}
	r = knot.ContentAtPartialPath(ParsePath("knot.1.x"), 1, 1)
	if r.Approximate || r.Obj != text {
		t.Errorf("expected single component 1 to resolve to text, have %v", r.Obj)
	}
	if names := root.NamedOnlyContentNames(); len(names) != 1 || names[0] != "knot" {
		t.Errorf("expected knot to be named-only content, have %v", names)
	}
	if err := root.AddContent(text); err == nil {
		t.Errorf("expected error when adding content with a parent")
	}
}

func TestCompactPath(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.content")
	defer teardown()
	//
	root, knot, text := buildTree(t)
	first := knot.Content[0]
	rel := ConvertPathToRelative(first, PathOf(text))
	if rel.String() != ".^.1" {
		t.Errorf("expected .^.1, have %s", rel)
	}
	if s := CompactPathString(first, PathOf(text)); s != ".^.1" {
		t.Errorf("expected shorter relative form .^.1, have %s", s)
	}
	if s := CompactPathString(root, ParsePath("knot.1")); s != "knot.1" {
		t.Errorf("expected absolute form knot.1, have %s", s)
	}
}

func TestPointerResolve(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.content")
	defer teardown()
	//
	_, knot, text := buildTree(t)
	if p := (Pointer{Container: knot, Index: -1}); p.Resolve() != knot {
		t.Errorf("expected index -1 to resolve to container")
	}
	if p := (Pointer{Container: knot, Index: 1}); p.Resolve() != text {
		t.Errorf("expected index 1 to resolve to text")
	}
	if p := (Pointer{Container: knot, Index: 2}); p.Resolve() != nil {
		t.Errorf("expected out of range pointer to resolve to nil")
	}
	if !NullPointer.IsNull() || NullPointer.Resolve() != nil {
		t.Errorf("expected null pointer to resolve to nothing")
	}
	if StartOf(knot).Path().String() != "knot.0" {
		t.Errorf("expected path knot.0, have %s", StartOf(knot).Path())
	}
}

func TestCountFlags(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.content")
	defer teardown()
	//
	c := NewContainer()
	c.SetCountFlags(CountStartOnly)
	if c.CountFlags() != 0 {
		t.Errorf("start-only flag alone should count as 0")
	}
	c.SetCountFlags(CountVisits | CountStartOnly)
	if c.CountFlags() != 5 {
		t.Errorf("expected flags 5, have %d", c.CountFlags())
	}
}

func TestValueCasts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.content")
	defer teardown()
	//
	v, err := (&BoolValue{V: true}).Cast(IntType)
	if err != nil || v.(*IntValue).V != 1 {
		t.Errorf("expected true to cast to 1")
	}
	v, _ = (&FloatValue{V: 3.7}).Cast(IntType)
	if v.(*IntValue).V != 3 {
		t.Errorf("expected float cast to truncate")
	}
	if v, err = (&StringValue{V: "abc"}).Cast(IntType); v != nil || err != nil {
		t.Errorf("expected unparsable string cast to yield nothing")
	}
	if _, err = (&DivertTargetValue{Target: ParsePath("x")}).Cast(IntType); goink.KindOf(err) != goink.TypeCoercion {
		t.Errorf("expected divert target cast to fail with TypeCoercion, have %v", err)
	}
	if s := (&FloatValue{V: 2.5}).String(); s != "2.5" {
		t.Errorf("expected 2.5, have %s", s)
	}
	if s := (&FloatValue{V: 3}).String(); s != "3" {
		t.Errorf("expected 3, have %s", s)
	}
	ws := &StringValue{V: " \t"}
	if !ws.IsInlineWhitespace() || ws.IsNonWhitespace() {
		t.Errorf("expected inline whitespace classification")
	}
	if !(&StringValue{V: "\n"}).IsNewline() {
		t.Errorf("expected newline classification")
	}
}

func colours() *ListDefinition {
	return NewListDefinition("colours", []string{"red", "green", "blue"}, []int{1, 2, 3})
}

func listOf(def *ListDefinition, names ...string) *InkList {
	l := NewInkList()
	l.Origins = []*ListDefinition{def}
	for _, n := range names {
		v, _ := def.ValueForItemName(n)
		l.Set(ListItem{OriginName: def.Name, ItemName: n}, v)
	}
	return l
}

func TestListOperations(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.content")
	defer teardown()
	//
	def := colours()
	rg := listOf(def, "red", "green")
	b := listOf(def, "blue")
	if s := rg.Union(b).String(); s != "red, green, blue" {
		t.Errorf("unexpected union %q", s)
	}
	if !rg.Contains(listOf(def, "red")) || rg.Contains(NewInkList()) {
		t.Errorf("contains does not work as expected")
	}
	if !b.GreaterThan(rg) || rg.GreaterThan(b) {
		t.Errorf("greater than does not work as expected")
	}
	if inv := rg.Inverse(); inv.String() != "blue" {
		t.Errorf("expected inverse to be blue, have %q", inv)
	}
	all := rg.Union(b)
	sub := all.ListWithSubRange(2, listOf(def, "green"))
	if sub.String() != "green" {
		t.Errorf("expected sub range green, have %q", sub)
	}
	if max, ok := rg.MaxItem(); !ok || max.Item.ItemName != "green" {
		t.Errorf("expected max item green")
	}
	if names := rg.OriginNames(); len(names) != 1 || names[0] != "colours" {
		t.Errorf("expected single origin name, have %v", names)
	}
}

func TestListDefinitionsCache(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.content")
	defer teardown()
	//
	defs := NewListDefinitionsOrigin([]*ListDefinition{colours()})
	lv := defs.FindSingleItemListWithName("colours.green")
	if lv == nil || lv.List.String() != "green" {
		t.Fatalf("expected single item list green")
	}
	lv.List.Set(ListItem{OriginName: "colours", ItemName: "red"}, 1)
	if again := defs.FindSingleItemListWithName("green"); again.List.Len() != 1 {
		t.Errorf("cached list must not be affected by modifications of a copy")
	}
}

func call(t *testing.T, op string, params ...Object) (Value, error) {
	n := NewNativeFunctionCall(op)
	if n == nil {
		t.Fatalf("no native function %s", op)
	}
	return n.Call(params)
}

func TestNativeArithmetic(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.content")
	defer teardown()
	//
	v, err := call(t, OpAdd, &IntValue{V: 2}, &FloatValue{V: 0.5})
	if err != nil || v.(*FloatValue).V != 2.5 {
		t.Errorf("expected 2.5, have %v (%v)", v, err)
	}
	v, _ = call(t, OpEqual, &BoolValue{V: true}, &IntValue{V: 1})
	if !v.(*BoolValue).V {
		t.Errorf("expected true == 1")
	}
	v, _ = call(t, OpAdd, &StringValue{V: "a"}, &IntValue{V: 1})
	if v.(*StringValue).V != "a1" {
		t.Errorf("expected string concatenation, have %v", v)
	}
	_, err = call(t, OpDivide, &IntValue{V: 1}, &IntValue{V: 0})
	if goink.KindOf(err) != goink.RuntimeLogic {
		t.Errorf("expected division by zero to be a RuntimeLogic error, have %v", err)
	}
	_, err = call(t, OpAdd, &Void{}, &IntValue{V: 0})
	if err == nil {
		t.Errorf("expected operation on void to fail")
	}
	_, err = call(t, OpMultiply, &DivertTargetValue{Target: ParsePath("a")}, &DivertTargetValue{Target: ParsePath("a")})
	if goink.KindOf(err) != goink.TypeCoercion {
		t.Errorf("expected multiplication of divert targets to fail, have %v", err)
	}
	v, _ = call(t, OpPow, &IntValue{V: 2}, &IntValue{V: -1})
	if v.(*FloatValue).V != 0.5 {
		t.Errorf("expected POW to yield float 0.5, have %v", v)
	}
}

func TestNativeLists(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.content")
	defer teardown()
	//
	def := colours()
	red := &ListValue{List: listOf(def, "red")}
	v, err := call(t, OpAdd, red, &IntValue{V: 1})
	if err != nil || v.String() != "green" {
		t.Errorf("expected red + 1 == green, have %v (%v)", v, err)
	}
	_, err = call(t, OpEqual, red, &IntValue{V: 1})
	if goink.KindOf(err) != goink.TypeCoercion {
		t.Errorf("expected list/int comparison to fail, have %v", err)
	}
	_, err = call(t, OpEqual, red, &StringValue{V: "red"})
	if goink.KindOf(err) != goink.TypeCoercion {
		t.Errorf("expected list/string comparison to fail, have %v", err)
	}
	v, _ = call(t, OpListValue, &ListValue{List: listOf(def, "red", "blue")})
	if v.(*IntValue).V != 3 {
		t.Errorf("expected LIST_VALUE 3, have %v", v)
	}
	v, _ = call(t, OpAnd, red, &IntValue{V: 0})
	if v.(*BoolValue).V {
		t.Errorf("expected list && 0 to be false")
	}
}

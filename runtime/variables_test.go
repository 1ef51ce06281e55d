package runtime

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/npillmayer/goink/content"
	"github.com/npillmayer/goink/wire"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func declare(vs *VariablesState, name string, v content.Value) {
	_ = vs.Assign(&content.VariableAssignment{Name: name, IsGlobal: true, IsNewDeclaration: true}, v)
}

func newVariables(t *testing.T) *VariablesState {
	defs := content.NewListDefinitionsOrigin([]*content.ListDefinition{
		content.NewListDefinition("colours", []string{"red", "green"}, []int{1, 2}),
	})
	vs := NewVariablesState(NewCallStack(storyTree(t)), defs)
	declare(vs, "gold", &content.IntValue{V: 10})
	declare(vs, "name", &content.StringValue{V: "Ann"})
	vs.SnapshotDefaultGlobals()
	return vs
}

func TestGlobalAccess(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.runtime")
	defer teardown()
	//
	vs := newVariables(t)
	if vs.Get("gold") != 10 {
		t.Errorf("expected gold = 10, have %v", vs.Get("gold"))
	}
	if err := vs.Set("silver", 3); err == nil {
		t.Errorf("expected assignment to undeclared global to fail")
	}
	if err := vs.Set("gold", struct{}{}); err == nil {
		t.Errorf("expected unsupported Go value to be rejected")
	}
	if err := vs.Set("gold", int64(12)); err != nil {
		t.Error(err)
	}
	if vs.Get("gold") != 12 {
		t.Errorf("expected gold = 12, have %v", vs.Get("gold"))
	}
	if names := vs.Names(); strings.Join(names, ",") != "gold,name" {
		t.Errorf("expected sorted names, have %v", names)
	}
	if v := vs.GetVariableWithName("red", -1); v == nil || v.Type() != content.ListType {
		t.Errorf("expected list item to be found as single item list, have %v", v)
	}
}

func TestVariableChangeHandlers(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.runtime")
	defer teardown()
	//
	vs := newVariables(t)
	var changes []string
	vs.AddChangeHandler(func(name string, v content.Value) {
		changes = append(changes, name+"="+v.String())
	})
	vs.SetGlobal("gold", &content.IntValue{V: 10})
	if len(changes) != 0 {
		t.Errorf("expected no notification for unchanged value")
	}
	vs.SetGlobal("gold", &content.IntValue{V: 11})
	if len(changes) != 1 || changes[0] != "gold=11" {
		t.Errorf("expected immediate notification, have %v", changes)
	}
	changes = nil
	vs.StartBatchObserving()
	vs.SetGlobal("gold", &content.IntValue{V: 12})
	vs.SetGlobal("gold", &content.IntValue{V: 13})
	vs.SetGlobal("name", &content.StringValue{V: "Bob"})
	if len(changes) != 0 {
		t.Errorf("expected notifications to be buffered")
	}
	vs.StopBatchObserving()
	if strings.Join(changes, ",") != "gold=13,name=Bob" {
		t.Errorf("expected one notification per variable, have %v", changes)
	}
}

func TestPatching(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.runtime")
	defer teardown()
	//
	vs := newVariables(t)
	vs.StartBatchObserving()
	var changes []string
	vs.AddChangeHandler(func(name string, v content.Value) {
		changes = append(changes, name)
	})
	vs.SetPatch(NewStatePatch(nil))
	vs.SetGlobal("gold", &content.IntValue{V: 99})
	if vs.Get("gold") != 99 {
		t.Errorf("expected patched value to be visible")
	}
	nested := NewStatePatch(vs.Patch())
	if v, ok := nested.Global("gold"); !ok || v.Native() != 99 {
		t.Errorf("expected nested patch to copy changes")
	}
	if v, _ := vs.globals.Resolve("gold"); v.Native() != 10 {
		t.Errorf("expected committed value to be untouched by patch")
	}
	vs.ApplyPatch()
	vs.StopBatchObserving()
	if vs.Patch() != nil || vs.Get("gold") != 99 {
		t.Errorf("expected patch to be applied")
	}
	if len(changes) != 1 || changes[0] != "gold" {
		t.Errorf("expected changed variable to be carried over from patch, have %v", changes)
	}
}

func TestVariablePointers(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.runtime")
	defer teardown()
	//
	vs := newVariables(t)
	cs := vs.CallStack()
	_ = vs.Assign(&content.VariableAssignment{Name: "t", IsNewDeclaration: true}, &content.IntValue{V: 1})
	cs.Push(content.Function, 0, 0)
	// parameter 'ref' points to temporary 't' of the caller
	ptr := &content.VariablePointerValue{Name: "t", ContextIndex: -1}
	if err := vs.Assign(&content.VariableAssignment{Name: "ref", IsNewDeclaration: true}, ptr); err != nil {
		t.Fatal(err)
	}
	raw := cs.GetTemporaryVariable("ref", -1).(*content.VariablePointerValue)
	if raw.ContextIndex != 1 {
		t.Errorf("expected pointer to be resolved to caller frame, have %d", raw.ContextIndex)
	}
	if err := vs.Assign(&content.VariableAssignment{Name: "ref"}, &content.IntValue{V: 5}); err != nil {
		t.Fatal(err)
	}
	if v := cs.GetTemporaryVariable("t", 1); v.Native() != 5 {
		t.Errorf("expected assignment through pointer, have %v", v)
	}
	if v := vs.GetVariableWithName("ref", -1); v.Native() != 5 {
		t.Errorf("expected pointer to be dereferenced, have %v", v)
	}
	gp := vs.ResolveVariablePointer(&content.VariablePointerValue{Name: "gold", ContextIndex: -1})
	if gp.ContextIndex != 0 {
		t.Errorf("expected pointer to global to have context 0")
	}
}

func TestVariablesToken(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.runtime")
	defer teardown()
	//
	vs := newVariables(t)
	vs.SetGlobal("name", &content.StringValue{V: "Bob"})
	tok, err := vs.Token()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := json.Marshal(tok)
	if string(b) != `{"name":"^Bob"}` {
		t.Errorf("expected only changed globals to be written, have %s", b)
	}
	tree, _ := wire.DecodeJSON([]byte(`{"name":"^Cid","obsolete":3}`))
	if err := vs.LoadToken(tree); err != nil {
		t.Fatal(err)
	}
	if vs.Get("name") != "Cid" || vs.Get("gold") != 10 || vs.GlobalVariableExistsWithName("obsolete") {
		t.Errorf("unexpected globals after loading: %v", vs.Names())
	}
}

package runtime

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/npillmayer/goink"
	"github.com/npillmayer/goink/content"
	"github.com/npillmayer/goink/wire"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

// storyTree creates a root container holding two strings and a named-only
// knot with a single string.
func storyTree(t *testing.T) *content.Container {
	root := content.NewContainer()
	if err := root.AddContent(&content.StringValue{V: "a"}, &content.StringValue{V: "b"}); err != nil {
		t.Fatal(err)
	}
	knot := content.NewContainer()
	knot.Name = "knot"
	if err := knot.AddContent(&content.StringValue{V: "in knot"}); err != nil {
		t.Fatal(err)
	}
	root.AddToNamedContentOnly(knot)
	return root
}

func TestCallStackPushPop(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.runtime")
	defer teardown()
	//
	cs := NewCallStack(storyTree(t))
	if cs.Depth() != 1 || cs.CanPop() {
		t.Fatalf("expected fresh call stack to hold a single frame")
	}
	cs.CurrentElement().InExpressionEvaluation = true
	cs.Push(content.Function, 3, 7)
	f := cs.CurrentElement()
	if f.InExpressionEvaluation || f.EvaluationStackHeightWhenPushed != 3 || f.FunctionStartInOutputStream != 7 {
		t.Errorf("pushed frame not initialized correctly: %+v", f)
	}
	if f.CurrentPointer.Index != 0 {
		t.Errorf("expected pushed frame to inherit current pointer")
	}
	if f.Type() != content.Function || cs.CurrentThread().Frames[0].Type() != content.Tunnel {
		t.Errorf("expected function frame on top of bottom tunnel frame, have %v", f)
	}
	if c := f.Copy(); c.Type() != content.Function {
		t.Errorf("expected copy to keep the push type, have %v", c.Type())
	}
	if err := cs.Pop(content.Tunnel); goink.KindOf(err) != goink.StackDiscipline {
		t.Errorf("expected mismatched pop to fail, have %v", err)
	}
	if err := cs.Pop(content.Function); err != nil {
		t.Error(err)
	}
	if err := cs.PopAny(); err == nil {
		t.Errorf("expected bottom frame to be protected")
	}
}

func TestThreads(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.runtime")
	defer teardown()
	//
	cs := NewCallStack(storyTree(t))
	if err := cs.PopThread(); err == nil {
		t.Errorf("expected last thread to be protected")
	}
	cs.PushThread()
	if cs.ThreadCount() != 2 || cs.CurrentThread().Index != 1 {
		t.Fatalf("expected second thread with index 1")
	}
	cs.Push(content.FunctionEvaluationFromGame, 0, 0)
	if cs.CanPopThread() {
		t.Errorf("expected thread anchored by host evaluation to be protected")
	}
	_ = cs.Pop(content.FunctionEvaluationFromGame)
	fork := cs.ForkThread()
	if fork.Index != 2 || cs.ThreadWithIndex(2) != nil {
		t.Errorf("expected fork not to be pushed")
	}
	if err := cs.PopThread(); err != nil {
		t.Error(err)
	}
	if cs.ThreadWithIndex(0) == nil {
		t.Errorf("expected thread 0 to be active")
	}
	if err := cs.SetCurrentThread(fork); err != nil {
		t.Error(err)
	}
	if !strings.Contains(cs.CallStackTrace(), "THREAD 1/1 (current)") {
		t.Errorf("unexpected call stack trace:\n%s", cs.CallStackTrace())
	}
}

func TestTemporaries(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.runtime")
	defer teardown()
	//
	cs := NewCallStack(storyTree(t))
	if err := cs.SetTemporaryVariable("x", &content.IntValue{V: 1}, false, -1); err == nil {
		t.Errorf("expected assignment to undeclared temporary to fail")
	}
	_ = cs.SetTemporaryVariable("x", &content.IntValue{V: 1}, true, -1)
	if cs.ContextForVariableNamed("x") != 1 || cs.ContextForVariableNamed("y") != 0 {
		t.Errorf("wrong variable contexts")
	}
	cs.Push(content.Function, 0, 0)
	if cs.GetTemporaryVariable("x", -1) != nil {
		t.Errorf("expected temporaries of outer frame to be invisible")
	}
	if v := cs.GetTemporaryVariable("x", 1); v == nil || v.Native() != 1 {
		t.Errorf("expected explicit context to reach outer frame, have %v", v)
	}
	clone := cs.Clone()
	_ = cs.SetTemporaryVariable("x", &content.IntValue{V: 2}, false, 1)
	if v := clone.GetTemporaryVariable("x", 1); v.Native() != 1 {
		t.Errorf("expected clone to be independent, have %v", v)
	}
}

func TestCallStackToken(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.runtime")
	defer teardown()
	//
	root := storyTree(t)
	cs := NewCallStack(root)
	cs.CurrentElement().CurrentPointer = content.StartOf(root.NamedContent["knot"])
	_ = cs.SetTemporaryVariable("s", &content.StringValue{V: "hello"}, true, -1)
	cs.PushThread()
	cs.CurrentThread().PreviousPointer = content.Pointer{Container: root, Index: 1}
	tok, err := cs.Token()
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(tok)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"cPath":"knot"`) {
		t.Errorf("expected frame path in %s", b)
	}
	tree, _ := wire.DecodeJSON(b)
	loaded := NewCallStack(root)
	if err := loaded.LoadToken(tree, nil); err != nil {
		t.Fatal(err)
	}
	if loaded.ThreadCount() != 2 || loaded.CurrentThread().Index != 1 {
		t.Fatalf("expected two threads after loading")
	}
	if loaded.CurrentThread().PreviousPointer.Resolve() != root.Content[1] {
		t.Errorf("expected previous pointer to be restored")
	}
	if v := loaded.GetTemporaryVariable("s", -1); v == nil || v.Native() != "hello" {
		t.Errorf("expected temporary to be restored, have %v", v)
	}
	if loaded.CurrentElement().CurrentPointer.Container != root.NamedContent["knot"] {
		t.Errorf("expected frame pointer to be restored")
	}
}

func TestLoadMissingLocation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.runtime")
	defer teardown()
	//
	root := storyTree(t)
	tree, _ := wire.DecodeJSON([]byte(`{"threads":[{"callstack":[{"cPath":"knot.7","idx":0,"exp":false,"type":0}],"threadIndex":0}],"threadCounter":0}`))
	var warnings []*goink.Error
	cs := NewCallStack(root)
	err := cs.LoadToken(tree, func(e *goink.Error) { warnings = append(warnings, e) })
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 1 || !warnings[0].Warning {
		t.Errorf("expected a warning for an approximated location, have %v", warnings)
	}
	if _, e := PointerAtPath(root, content.ParsePath("nowhere")); e == nil || e.Warning {
		t.Errorf("expected unresolvable path to be an error, have %v", e)
	}
	p, e := PointerAtPath(root, content.ParsePath("knot.0"))
	if e != nil || p.Resolve() == nil {
		t.Errorf("expected path to resolve to pointer, have %v", e)
	}
}

package story

import (
	"fmt"
	"strings"
	"testing"

	"github.com/npillmayer/goink"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

const helloWorld = `{"inkVersion":20,"root":[["^Hello, world!","\n",["done",{"#f":5,"#n":"g-0"}],null],"done",{"#f":1}],"listDefs":{}}`

const twoLines = `{"inkVersion":20,"root":[[{"#":"intro"},"^Line one","\n","^Line two","\n","done",null],"done",null],"listDefs":{}}`

const glued = `{"inkVersion":20,"root":[["^Hello","\n","<>","^ world","\n","done",null],"done",null],"listDefs":{}}`

const withChoice = `{"inkVersion":20,"root":[["ev","str","^Hello","/str","/ev",{"*":"0.c-0","flg":20},{"c-0":["^Hello","\n",{"->":"0.g-0"},{"#f":5}],"g-0":["^World","\n","done",null]}],"done",null],"listDefs":{}}`

const withGlobals = `{"inkVersion":20,"root":[["ev",{"VAR?":"x"},1,"+",{"VAR=":"x","re":true},"/ev","^x is ","ev",{"VAR?":"x"},"out","/ev","\n","done",null],"done",{"add":[{"temp=":"b"},{"temp=":"a"},"ev",{"VAR?":"a"},{"VAR?":"b"},"+","/ev","~ret",null],"greet":["^Hello from a function","\n","ev","void","/ev","~ret",null],"global decl":["ev",5,{"VAR=":"x"},"/ev","end",null]}],"listDefs":{}}`

const withExternal = `{"inkVersion":20,"root":[["ev",2,3,{"x()":"mult","exArgs":2},"out","/ev","\n","done",null],"done",null],"listDefs":{}}`

const withRandom = `{"inkVersion":20,"root":[["ev",1,100,"rnd","out","/ev","\n","ev",1,100,"rnd","out","/ev","\n","done",null],"done",null],"listDefs":{}}`

func TestHelloWorld(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.story")
	defer teardown()
	//
	s, err := New([]byte(helloWorld))
	if err != nil {
		t.Fatal(err)
	}
	if !s.CanContinue() {
		t.Fatalf("expected new story to be able to continue")
	}
	text, err := s.Continue()
	if err != nil {
		t.Fatal(err)
	}
	if text != "Hello, world!\n" {
		t.Errorf("expected 'Hello, world!', have %q", text)
	}
	if s.CanContinue() {
		t.Errorf("expected story to be finished")
	}
	if _, err = s.Continue(); goink.KindOf(err) != goink.RuntimeLogic {
		t.Errorf("expected continuing a finished story to fail, have %v", err)
	}
}

func TestLineByLine(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.story")
	defer teardown()
	//
	s, err := New([]byte(twoLines))
	if err != nil {
		t.Fatal(err)
	}
	text, err := s.Continue()
	if err != nil {
		t.Fatal(err)
	}
	if text != "Line one\n" {
		t.Errorf("expected first line only, have %q", text)
	}
	if tags := s.CurrentTags(); len(tags) != 1 || tags[0] != "intro" {
		t.Errorf("expected tag 'intro' on first line, have %v", tags)
	}
	if !s.CanContinue() {
		t.Fatalf("expected second line to be available")
	}
	text, err = s.Continue()
	if err != nil {
		t.Fatal(err)
	}
	if text != "Line two\n" {
		t.Errorf("expected second line, have %q", text)
	}
	if len(s.CurrentTags()) != 0 {
		t.Errorf("expected second line to be untagged, have %v", s.CurrentTags())
	}
	if tags := s.GlobalTags(); len(tags) != 1 || tags[0] != "intro" {
		t.Errorf("expected global tag 'intro', have %v", tags)
	}
}

func TestGlueJoinsLines(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.story")
	defer teardown()
	//
	s, err := New([]byte(glued))
	if err != nil {
		t.Fatal(err)
	}
	text, err := s.ContinueMaximally()
	if err != nil {
		t.Fatal(err)
	}
	if text != "Hello world\n" {
		t.Errorf("expected glue to join lines, have %q", text)
	}
}

func TestChoices(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.story")
	defer teardown()
	//
	s, err := New([]byte(withChoice))
	if err != nil {
		t.Fatal(err)
	}
	text, err := s.ContinueMaximally()
	if err != nil {
		t.Fatal(err)
	}
	if text != "" {
		t.Errorf("expected no text before choice, have %q", text)
	}
	choices := s.CurrentChoices()
	if len(choices) != 1 || choices[0].Text != "Hello" {
		t.Fatalf("expected a single choice 'Hello', have %v", choices)
	}
	if err = s.ChooseChoiceIndex(1); err == nil {
		t.Errorf("expected choice out of range to fail")
	}
	var made *Choice
	s.OnMakeChoice = func(c *Choice) { made = c }
	if err = s.ChooseChoiceIndex(0); err != nil {
		t.Fatal(err)
	}
	if made == nil || made.Text != "Hello" {
		t.Errorf("expected choice callback to be called")
	}
	text, err = s.ContinueMaximally()
	if err != nil {
		t.Fatal(err)
	}
	if text != "Hello\nWorld\n" {
		t.Errorf("expected text of choice and gather, have %q", text)
	}
	if n := s.VisitCountAtPathString("0.c-0"); n != 1 {
		t.Errorf("expected choice content to be visited once, have %d", n)
	}
	if n := s.VisitCountAtPathString("0.g-0"); n != 0 {
		t.Errorf("expected uncounted gather to report 0 visits, have %d", n)
	}
}

func TestGlobalsAndObservers(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.story")
	defer teardown()
	//
	s, err := New([]byte(withGlobals))
	if err != nil {
		t.Fatal(err)
	}
	if x := s.Variables().Get("x"); x != 5 {
		t.Errorf("expected x to be declared as 5, have %v", x)
	}
	var changes []interface{}
	if _, err = s.ObserveVariable("x", func(name string, v interface{}) {
		changes = append(changes, v)
	}); err != nil {
		t.Fatal(err)
	}
	if _, err = s.ObserveVariable("nope", func(string, interface{}) {}); err == nil {
		t.Errorf("expected observing an undeclared variable to fail")
	}
	text, err := s.Continue()
	if err != nil {
		t.Fatal(err)
	}
	if text != "x is 6\n" {
		t.Errorf("expected 'x is 6', have %q", text)
	}
	if len(changes) != 1 || changes[0] != 6 {
		t.Errorf("expected a single change notification with 6, have %v", changes)
	}
	if err = s.Variables().Set("x", 42); err != nil {
		t.Fatal(err)
	}
	if len(changes) != 2 || changes[1] != 42 {
		t.Errorf("expected host assignment to be observed, have %v", changes)
	}
	if err = s.Variables().Set("undeclared", 1); err == nil {
		t.Errorf("expected assignment to undeclared variable to fail")
	}
}

func TestEvaluateFunction(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.story")
	defer teardown()
	//
	s, err := New([]byte(withGlobals))
	if err != nil {
		t.Fatal(err)
	}
	if !s.HasFunction("add") {
		t.Fatalf("expected function 'add'")
	}
	result, text, err := s.EvaluateFunction("add", 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if result != 3 || text != "" {
		t.Errorf("expected add(1,2) = 3 without text, have %v and %q", result, text)
	}
	result, text, err = s.EvaluateFunction("greet")
	if err != nil {
		t.Fatal(err)
	}
	if result != nil || text != "Hello from a function\n" {
		t.Errorf("expected greet() to produce text only, have %v and %q", result, text)
	}
	if _, _, err = s.EvaluateFunction("nothing"); goink.KindOf(err) != goink.PathResolutionFailure {
		t.Errorf("expected unknown function to fail, have %v", err)
	}
	text, err = s.Continue() // the story itself is unaffected
	if err != nil {
		t.Fatal(err)
	}
	if text != "x is 6\n" {
		t.Errorf("expected story to start over unaffected, have %q", text)
	}
}

func TestExternalFunctions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.story")
	defer teardown()
	//
	s, err := New([]byte(withExternal))
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Continue()
	if goink.KindOf(err) != goink.UnboundExternal || !strings.Contains(err.Error(), "'mult'") {
		t.Errorf("expected missing binding to be reported, have %v", err)
	}
	s, _ = New([]byte(withExternal))
	mult := func(args []interface{}) (interface{}, error) {
		return args[0].(int) * args[1].(int), nil
	}
	if err = s.BindExternalFunction("mult", 2, true, mult); err != nil {
		t.Fatal(err)
	}
	if err = s.BindExternalFunction("mult", 2, true, mult); err == nil {
		t.Errorf("expected second binding to fail")
	}
	text, err := s.Continue()
	if err != nil {
		t.Fatal(err)
	}
	if text != "6\n" {
		t.Errorf("expected 2*3 = 6, have %q", text)
	}
}

func TestExternalArityMismatch(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.story")
	defer teardown()
	//
	s, err := New([]byte(withExternal))
	if err != nil {
		t.Fatal(err)
	}
	called := false
	s.BindExternalFunction("mult", 3, true, func(args []interface{}) (interface{}, error) {
		called = true
		return 0, nil
	})
	_, err = s.Continue()
	if goink.KindOf(err) != goink.TypeCoercion {
		t.Errorf("expected arity mismatch to be a type error, have %v", err)
	}
	if called {
		t.Errorf("expected host function not to be called")
	}
	if s.CanContinue() {
		t.Errorf("expected story to stop after error")
	}
}

func TestErrorHandler(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.story")
	defer teardown()
	//
	var reported []*goink.Error
	s, err := New([]byte(withExternal), WithErrorHandler(func(e *goink.Error) {
		reported = append(reported, e)
	}))
	if err != nil {
		t.Fatal(err)
	}
	s.BindExternalFunction("mult", 3, true, func(args []interface{}) (interface{}, error) {
		return 0, nil
	})
	if _, err = s.Continue(); err != nil {
		t.Errorf("expected errors to go to the handler, have %v", err)
	}
	if len(reported) != 1 || reported[0].Kind != goink.TypeCoercion {
		t.Errorf("expected one type error reported, have %v", reported)
	}
	if len(s.CurrentErrors()) != 0 {
		t.Errorf("expected reported errors to be reset")
	}
}

func TestRandomIsSeeded(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.story")
	defer teardown()
	//
	play := func(seed int) string {
		s, err := New([]byte(withRandom), WithSeed(seed))
		if err != nil {
			t.Fatal(err)
		}
		text, err := s.ContinueMaximally()
		if err != nil {
			t.Fatal(err)
		}
		return text
	}
	first := play(7)
	if second := play(7); first != second {
		t.Errorf("expected equal seeds to produce equal numbers, have %q and %q", first, second)
	}
	lines := strings.Split(strings.TrimSpace(first), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two random numbers, have %q", first)
	}
}

func TestFlows(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.story")
	defer teardown()
	//
	s, err := New([]byte(twoLines))
	if err != nil {
		t.Fatal(err)
	}
	if _, err = s.Continue(); err != nil {
		t.Fatal(err)
	}
	if err = s.SwitchFlow("side"); err != nil {
		t.Fatal(err)
	}
	if s.CurrentFlowName() != "side" {
		t.Errorf("expected flow 'side', have %s", s.CurrentFlowName())
	}
	text, err := s.Continue()
	if err != nil {
		t.Fatal(err)
	}
	if text != "Line one\n" {
		t.Errorf("expected new flow to start at the beginning, have %q", text)
	}
	if names := s.State().AliveFlowNames(); len(names) != 1 || names[0] != "side" {
		t.Errorf("expected flow 'side' to be alive, have %v", names)
	}
	if err = s.SwitchToDefaultFlow(); err != nil {
		t.Fatal(err)
	}
	text, err = s.Continue()
	if err != nil {
		t.Fatal(err)
	}
	if text != "Line two\n" {
		t.Errorf("expected default flow to resume, have %q", text)
	}
	if err = s.RemoveFlow("side"); err != nil {
		t.Fatal(err)
	}
	if err = s.RemoveFlow(DefaultFlowName); err == nil {
		t.Errorf("expected removal of default flow to fail")
	}
}

const withTunnel = `{"inkVersion":20,"root":[["^A","\n",{"->t->":"tun"},"^C","\n","done",null],"done",{"tun":["^B","\n","ev",{"^->":"other"},"/ev","->->",null],"other":["^D","\n","done",null]}],"listDefs":{}}`

func TestTunnelOnwardsOverride(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.story")
	defer teardown()
	//
	s, err := New([]byte(withTunnel))
	if err != nil {
		t.Fatal(err)
	}
	text, err := s.ContinueMaximally()
	if err != nil {
		t.Fatal(err)
	}
	if text != "A\nB\nD\n" {
		t.Errorf("expected tunnel return to divert to 'other', have %q", text)
	}
}

func TestShuffleIsDeterministic(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.story")
	defer teardown()
	//
	shuffle := func(seqCount int) string {
		doc := fmt.Sprintf(`{"inkVersion":20,"root":[["ev",%d,3,"seq","out","/ev","\n","done",null],"done",null],"listDefs":{}}`, seqCount)
		s, err := New([]byte(doc), WithSeed(11))
		if err != nil {
			t.Fatal(err)
		}
		text, err := s.ContinueMaximally()
		if err != nil {
			t.Fatal(err)
		}
		return strings.TrimSpace(text)
	}
	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		first, again := shuffle(i), shuffle(i)
		if first != again {
			t.Errorf("expected same shuffle index for same seed, have %s and %s", first, again)
		}
		seen[first] = true
	}
	for _, index := range []string{"0", "1", "2"} {
		if !seen[index] {
			t.Errorf("expected one loop of a shuffle to visit every element, missing %s in %v", index, seen)
		}
	}
}

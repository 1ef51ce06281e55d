package story

import (
	"errors"
	"strings"
	"testing"

	"github.com/npillmayer/goink"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestContinueKeepsTextOnIssues(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.story")
	defer teardown()
	//
	for _, c := range []struct {
		doc, text string
	}{
		{`{"inkVersion":20,"root":["^Hello","^ ","<>","^World",null],"listDefs":{}}`, "HelloWorld"},
		{`{"inkVersion":20,"root":["^Hello","^ ","^World",null],"listDefs":{}}`, "Hello World"},
	} {
		s, err := New([]byte(c.doc))
		if err != nil {
			t.Fatal(err)
		}
		text, err := s.Continue()
		if text != c.text {
			t.Errorf("expected %q, have %q", c.text, text)
		}
		var issues *goink.Issues
		if !errors.As(err, &issues) || !strings.Contains(err.Error(), "ran out of content") {
			t.Errorf("expected story without DONE to report running out of content, have %v", err)
		}
	}
	s, _ := New([]byte(`{"inkVersion":20,"root":["^Hello","^ ","<>","^World","done",null],"listDefs":{}}`))
	if text, err := s.Continue(); err != nil || text != "HelloWorld" {
		t.Errorf("expected clean 'HelloWorld', have %q, %v", text, err)
	}
}

func TestTrimGlueAtFunctionStart(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.story")
	defer teardown()
	//
	doc := `{"inkVersion":20,"root":[["^A",{"f()":"f"},"^B","\n","done",null],"done",{"f":["<>","^ ","~ret",null]}],"listDefs":{}}`
	s, err := New([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	text, err := s.ContinueMaximally()
	if err != nil {
		t.Fatal(err)
	}
	if text != "AB\n" {
		t.Errorf("expected glue at function start to trim the whitespace, have %q", text)
	}
}

// increments x after the first line, either on a line of its own or glued
const (
	writeAfterNewline = `{"inkVersion":20,"root":[["^A","\n","ev",{"VAR?":"x"},1,"+",{"VAR=":"x","re":true},"/ev","^B","\n","done",null],"done",{"global decl":["ev",0,{"VAR=":"x"},"/ev","end",null]}],"listDefs":{}}`
	writeBeforeGlue   = `{"inkVersion":20,"root":[["^A","\n","ev",{"VAR?":"x"},1,"+",{"VAR=":"x","re":true},"/ev","<>","^B","\n","done",null],"done",{"global decl":["ev",0,{"VAR=":"x"},"/ev","end",null]}],"listDefs":{}}`
)

func TestLookaheadWritesApplyOnce(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.story")
	defer teardown()
	//
	s, err := New([]byte(writeAfterNewline))
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range []string{"A\n", "B\n"} {
		text, err := s.Continue()
		if err != nil {
			t.Fatal(err)
		}
		if text != line {
			t.Errorf("expected %q, have %q", line, text)
		}
		if x := s.Variables().Get("x"); x != 1 {
			t.Errorf("expected x = 1 after %q, have %v", line, x)
		}
	}
	s, _ = New([]byte(writeBeforeGlue))
	text, err := s.ContinueMaximally()
	if err != nil {
		t.Fatal(err)
	}
	if text != "AB\n" {
		t.Errorf("expected glued line 'AB', have %q", text)
	}
	if x := s.Variables().Get("x"); x != 1 {
		t.Errorf("expected x = 1 after glued line, have %v", x)
	}
}

func TestUnsafeExternalWaitsForLine(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.story")
	defer teardown()
	//
	doc := `{"inkVersion":20,"root":[["^A","\n","ev",{"x()":"bump","exArgs":0},{"VAR=":"x","re":true},"/ev","^B","\n","done",null],"done",{"global decl":["ev",0,{"VAR=":"x"},"/ev","end",null]}],"listDefs":{}}`
	s, err := New([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	calls := 0
	if err = s.BindExternalFunction("bump", 0, false, func(args []interface{}) (interface{}, error) {
		calls++
		return calls, nil
	}); err != nil {
		t.Fatal(err)
	}
	text, err := s.Continue()
	if err != nil {
		t.Fatal(err)
	}
	if text != "A\n" || calls != 0 || s.Variables().Get("x") != 0 {
		t.Errorf("expected 'A' without calling bump, have %q, calls = %d, x = %v", text, calls, s.Variables().Get("x"))
	}
	if text, err = s.Continue(); err != nil {
		t.Fatal(err)
	}
	if text != "B\n" || calls != 1 || s.Variables().Get("x") != 1 {
		t.Errorf("expected 'B' after a single call, have %q, calls = %d, x = %v", text, calls, s.Variables().Get("x"))
	}
}

const withOnceOnly = `{"inkVersion":20,"root":[[{"->":"top"},null],"done",{"top":["ev","str","^Go","/str","/ev",{"*":"top.c-0","flg":20},"ev","str","^Stay","/str","/ev",{"*":"top.c-1","flg":4},"done",{"c-0":["^went","\n",{"->":"top"},{"#f":5}],"c-1":["^stayed","\n",{"->":"top"},{"#f":5}]}]}],"listDefs":{}}`

func choiceTexts(s *Story) []string {
	var texts []string
	for _, c := range s.CurrentChoices() {
		texts = append(texts, c.Text)
	}
	return texts
}

func TestOnceOnlyChoices(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.story")
	defer teardown()
	//
	s, err := New([]byte(withOnceOnly))
	if err != nil {
		t.Fatal(err)
	}
	if _, err = s.ContinueMaximally(); err != nil {
		t.Fatal(err)
	}
	if texts := choiceTexts(s); strings.Join(texts, " ") != "Go Stay" {
		t.Fatalf("expected choices [Go Stay], have %v", texts)
	}
	if err = s.ChooseChoiceIndex(0); err != nil {
		t.Fatal(err)
	}
	text, err := s.ContinueMaximally()
	if err != nil {
		t.Fatal(err)
	}
	if text != "went\n" {
		t.Errorf("expected 'went', have %q", text)
	}
	if texts := choiceTexts(s); strings.Join(texts, " ") != "Stay" {
		t.Errorf("expected once-only choice to be gone, have %v", texts)
	}
}

func TestInvisibleDefaultChoice(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.story")
	defer teardown()
	//
	doc := `{"inkVersion":20,"root":[["^A","\n",{"*":"0.c-0","flg":8},{"c-0":["^B","\n","done",{"#f":5}]}],"done",null],"listDefs":{}}`
	s, err := New([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	text, err := s.ContinueMaximally()
	if err != nil {
		t.Fatal(err)
	}
	if text != "A\nB\n" {
		t.Errorf("expected invisible default choice to be followed, have %q", text)
	}
	if len(s.CurrentChoices()) != 0 || s.CanContinue() {
		t.Errorf("expected story to end without choices, have %v", choiceTexts(s))
	}
}

const withThreadChoice = `{"inkVersion":20,"root":[["thread",{"->":"side"},"^main","\n","done",null],"done",{"side":["ev","str","^Pick","/str","/ev",{"*":"side.c-0","flg":4},"done",{"c-0":["^picked","\n","done",{"#f":5}]}]}],"listDefs":{}}`

func TestChoiceFromFinishedThread(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.story")
	defer teardown()
	//
	s, err := New([]byte(withThreadChoice))
	if err != nil {
		t.Fatal(err)
	}
	text, err := s.ContinueMaximally()
	if err != nil {
		t.Fatal(err)
	}
	if text != "main\n" {
		t.Errorf("expected 'main', have %q", text)
	}
	if texts := choiceTexts(s); len(texts) != 1 || texts[0] != "Pick" {
		t.Fatalf("expected choice 'Pick' from thread, have %v", texts)
	}
	saved, err := s.State().ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	restored, _ := New([]byte(withThreadChoice))
	if err = restored.State().LoadJSON(saved); err != nil {
		t.Fatal(err)
	}
	for _, story := range []*Story{s, restored} {
		if err = story.ChooseChoiceIndex(0); err != nil {
			t.Fatal(err)
		}
		if text, err = story.ContinueMaximally(); err != nil {
			t.Fatal(err)
		}
		if text != "picked\n" {
			t.Errorf("expected 'picked' after choosing in a finished thread, have %q", text)
		}
	}
}

package story

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/npillmayer/goink"
	"github.com/npillmayer/goink/wire"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestSaveAtChoice(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.story")
	defer teardown()
	//
	s, err := New([]byte(withChoice), WithSeed(3))
	if err != nil {
		t.Fatal(err)
	}
	if _, err = s.ContinueMaximally(); err != nil {
		t.Fatal(err)
	}
	saved, err := s.State().ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	t.Logf("saved state: %s", saved)
	for _, key := range []string{`"flows"`, `"inkSaveVersion":9`, `"currentChoices"`, `"storySeed":3`} {
		if !strings.Contains(string(saved), key) {
			t.Errorf("expected %s in saved state", key)
		}
	}
	restored, err := New([]byte(withChoice))
	if err != nil {
		t.Fatal(err)
	}
	if err = restored.State().LoadJSON(saved); err != nil {
		t.Fatal(err)
	}
	if restored.State().StorySeed() != 3 {
		t.Errorf("expected story seed to be restored, have %d", restored.State().StorySeed())
	}
	choices := restored.CurrentChoices()
	if len(choices) != 1 || choices[0].Text != "Hello" {
		t.Fatalf("expected restored choice 'Hello', have %v", choices)
	}
	if err = restored.ChooseChoiceIndex(0); err != nil {
		t.Fatal(err)
	}
	text, err := restored.ContinueMaximally()
	if err != nil {
		t.Fatal(err)
	}
	if text != "Hello\nWorld\n" {
		t.Errorf("expected restored story to go on, have %q", text)
	}
}

func TestSaveHeldBackOutput(t *testing.T) {
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
	saved, err := s.State().ToCBOR()
	if err != nil {
		t.Fatal(err)
	}
	restored, _ := New([]byte(twoLines))
	if err = restored.State().LoadCBOR(saved); err != nil {
		t.Fatal(err)
	}
	if restored.CurrentText() != "Line one\n" {
		t.Errorf("expected current line to be restored, have %q", restored.CurrentText())
	}
	text, err := restored.Continue()
	if err != nil {
		t.Fatal(err)
	}
	if text != "Line two\n" {
		t.Errorf("expected second line after restore, have %q", text)
	}
}

func TestSaveFlows(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.story")
	defer teardown()
	//
	s, err := New([]byte(twoLines))
	if err != nil {
		t.Fatal(err)
	}
	if err = s.SwitchFlow("side"); err != nil {
		t.Fatal(err)
	}
	if _, err = s.Continue(); err != nil {
		t.Fatal(err)
	}
	saved, err := s.State().ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	restored, _ := New([]byte(twoLines))
	if err = restored.State().LoadJSON(saved); err != nil {
		t.Fatal(err)
	}
	if restored.CurrentFlowName() != "side" {
		t.Errorf("expected flow 'side' to be current, have %s", restored.CurrentFlowName())
	}
	if err = restored.SwitchToDefaultFlow(); err != nil {
		t.Fatal(err)
	}
	text, err := restored.Continue()
	if err != nil {
		t.Fatal(err)
	}
	if text != "Line one\n" {
		t.Errorf("expected default flow to be untouched, have %q", text)
	}
}

func TestSaveWhilePatching(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.story")
	defer teardown()
	//
	s, err := New([]byte(twoLines))
	if err != nil {
		t.Fatal(err)
	}
	frozen, err := s.CopyStateForBackgroundSave()
	if err != nil {
		t.Fatal(err)
	}
	if _, err = s.CopyStateForBackgroundSave(); err == nil {
		t.Errorf("expected second background save to fail")
	}
	if _, err = frozen.ToJSON(); err != nil {
		t.Errorf("expected frozen state to be savable, have %v", err)
	}
	if _, err = s.State().ToJSON(); err == nil {
		t.Errorf("expected patched state not to be savable")
	}
	s.BackgroundSaveComplete()
	if _, err = s.State().ToJSON(); err != nil {
		t.Errorf("expected state to be savable after background save, have %v", err)
	}
}

func TestLoadIncompatible(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.story")
	defer teardown()
	//
	s, err := New([]byte(helloWorld))
	if err != nil {
		t.Fatal(err)
	}
	err = s.State().LoadJSON([]byte(`{"inkSaveVersion":7,"flows":{}}`))
	if goink.KindOf(err) != goink.MalformedDocument || !strings.Contains(err.Error(), "minimum is 8") {
		t.Errorf("expected old save version to be rejected, have %v", err)
	}
	if err = s.State().LoadJSON([]byte(`{"flows":{}}`)); err == nil {
		t.Errorf("expected save state without version to be rejected")
	}
}

func TestLoadLegacyLayout(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.story")
	defer teardown()
	//
	s, err := New([]byte(withChoice))
	if err != nil {
		t.Fatal(err)
	}
	if _, err = s.ContinueMaximally(); err != nil {
		t.Fatal(err)
	}
	saved, err := s.State().ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	// rewrite to the layout of save version 8, without named flows
	tree, err := wire.DecodeJSON(saved)
	if err != nil {
		t.Fatal(err)
	}
	obj := tree.(map[string]interface{})
	f := obj["flows"].(map[string]interface{})[DefaultFlowName].(map[string]interface{})
	obj["callstackThreads"] = f["callstack"]
	obj["outputStream"] = f["outputStream"]
	obj["currentChoices"] = f["currentChoices"]
	obj["choiceThreads"] = f["choiceThreads"]
	obj["inkSaveVersion"] = 8
	delete(obj, "flows")
	delete(obj, "currentFlowName")
	legacy, err := json.Marshal(obj)
	if err != nil {
		t.Fatal(err)
	}
	restored, _ := New([]byte(withChoice))
	if err = restored.State().LoadJSON(legacy); err != nil {
		t.Fatalf("cannot load legacy save state: %v\n%s", err, legacy)
	}
	if restored.CurrentFlowName() != DefaultFlowName {
		t.Errorf("expected default flow, have %s", restored.CurrentFlowName())
	}
	if len(restored.CurrentChoices()) != 1 {
		t.Fatalf("expected choice to be restored")
	}
	if err = restored.ChooseChoiceIndex(0); err != nil {
		t.Fatal(err)
	}
	if text, _ := restored.ContinueMaximally(); text != "Hello\nWorld\n" {
		t.Errorf("expected restored story to go on, have %q", text)
	}
}

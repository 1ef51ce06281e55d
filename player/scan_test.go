package player

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestScanCommands(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.player")
	defer teardown()
	//
	toks, err := scan(`:eval add 1 -2.5 "two words" knot.stitch`)
	if err != nil {
		t.Fatal(err)
	}
	types := []int{tokCommand, tokWord, tokNumber, tokFloat, tokString, tokWord}
	if len(toks) != len(types) {
		t.Fatalf("expected %d tokens, have %v", len(types), toks)
	}
	for i, typ := range types {
		if toks[i].Type != typ {
			t.Errorf("expected token %d to be a %s, have %v", i, tokenNames[typ], toks[i])
		}
	}
	if toks[0].Value != "eval" {
		t.Errorf("expected command name without colon, have %v", toks[0].Value)
	}
	if toks[2].Value != 1 || toks[3].Value != -2.5 {
		t.Errorf("expected numbers to be converted, have %v and %v", toks[2].Value, toks[3].Value)
	}
	if toks[4].Value != "two words" {
		t.Errorf("expected string without quotes, have %v", toks[4].Value)
	}
}

func TestScanChoiceNumber(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.player")
	defer teardown()
	//
	toks, err := scan("  3  ")
	if err != nil {
		t.Fatal(err)
	}
	if len(toks) != 1 || toks[0].Type != tokNumber || toks[0].Value != 3 {
		t.Errorf("expected a single number 3, have %v", toks)
	}
	if toks, _ = scan(""); len(toks) != 0 {
		t.Errorf("expected no tokens for empty input, have %v", toks)
	}
}

func TestScanUnterminatedString(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.player")
	defer teardown()
	//
	if _, err := scan(`:set name "Ann`); err == nil {
		t.Errorf("expected unterminated string to fail")
	}
}

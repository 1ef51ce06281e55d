package runtime

import (
	"testing"

	"github.com/npillmayer/goink/content"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestNewSymTab(t *testing.T) {
	symtab := NewSymbolTable()
	if symtab == nil || symtab.Size() != 0 {
		t.Error("no empty symbol table created")
	}
}

func TestDefineAndResolve(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "goink.runtime")
	defer teardown()
	//
	symtab := NewSymbolTable()
	if old := symtab.Define("x", &content.IntValue{V: 1}); old != nil {
		t.Errorf("expected no previous value, have %v", old)
	}
	old := symtab.Define("x", &content.IntValue{V: 2})
	if old == nil || old.Native() != 1 {
		t.Errorf("expected previous value 1, have %v", old)
	}
	if v, ok := symtab.Resolve("x"); !ok || v.Native() != 2 {
		t.Errorf("cannot find stored variable in table")
	}
	if _, ok := symtab.Resolve("y"); ok {
		t.Errorf("found variable never stored")
	}
	var nilTable *SymbolTable
	if nilTable.Contains("x") || nilTable.Size() != 0 {
		t.Errorf("expected nil table to be empty")
	}
}

func TestSymbolTableOrder(t *testing.T) {
	symtab := NewSymbolTable()
	for _, name := range []string{"c", "a", "b"} {
		symtab.Define(name, &content.StringValue{V: name})
	}
	var seen string
	symtab.Each(func(name string, v content.Value) {
		seen += name
	})
	if seen != "abc" {
		t.Errorf("expected iteration in order of names, have %q", seen)
	}
	c := symtab.Copy()
	c.Remove("a")
	if !symtab.Contains("a") || c.Contains("a") || c.Size() != 2 {
		t.Errorf("expected copy to be independent of original table")
	}
}

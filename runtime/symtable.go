package runtime

import (
	"fmt"

	"github.com/emirpasic/gods/utils"
	"github.com/npillmayer/goink/content"
)

// Symbol table for variables. Symbol tables hold the globals of a story,
// their default values and the temporaries of call stack frames.
//

// === Symbol Tables =========================================================

// SymbolTable is a symbol table to store variable values (map-like semantics).
type SymbolTable struct {
	Table map[string]content.Value
}

// NewSymbolTable creates an empty symbol table.
//
func NewSymbolTable() *SymbolTable {
	var symtab = SymbolTable{
		Table: make(map[string]content.Value),
	}
	return &symtab
}

// Resolve checks for a variable in the symbol table.
// Returns the value and a flag, signalling wether the variable is present.
//
func (t *SymbolTable) Resolve(name string) (content.Value, bool) {
	if t == nil {
		return nil, false
	}
	v, found := t.Table[name]
	return v, found
}

// Contains is a predicate: is a variable with this name present?
func (t *SymbolTable) Contains(name string) bool {
	_, found := t.Resolve(name)
	return found
}

// Define sets a variable. If a variable with this name has already been
// present, it is replaced and its previous value returned (nil otherwise).
//
func (t *SymbolTable) Define(name string, v content.Value) content.Value {
	old := t.Table[name]
	t.Table[name] = v
	return old
}

// Remove deletes a variable from the table.
func (t *SymbolTable) Remove(name string) {
	delete(t.Table, name)
}

// Size returns the number of variables in the table.
func (t *SymbolTable) Size() int {
	if t == nil {
		return 0
	}
	return len(t.Table)
}

// Names returns the names of all variables, sorted.
func (t *SymbolTable) Names() []string {
	if t.Size() == 0 {
		return nil
	}
	keys := make([]interface{}, 0, len(t.Table))
	for name := range t.Table {
		keys = append(keys, name)
	}
	utils.Sort(keys, utils.StringComparator)
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.(string)
	}
	return names
}

// Each iterates over all variables of the table, in order of their names.
func (t *SymbolTable) Each(f func(name string, v content.Value)) {
	for _, name := range t.Names() {
		f(name, t.Table[name])
	}
}

// Copy returns a shallow copy of the table. Values are shared, as they
// are treated as immutable.
func (t *SymbolTable) Copy() *SymbolTable {
	c := NewSymbolTable()
	if t != nil {
		for name, v := range t.Table {
			c.Table[name] = v
		}
	}
	return c
}

func (t *SymbolTable) String() string {
	return fmt.Sprintf("<symtab %v>", t.Names())
}

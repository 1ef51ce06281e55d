package runtime

import (
	"github.com/npillmayer/goink"
	"github.com/npillmayer/goink/content"
	"github.com/npillmayer/goink/wire"
)

// VariableChangeHandler is called whenever the value of a global variable
// changes.
type VariableChangeHandler func(name string, v content.Value)

// VariablesState holds the global variables of a story and gives access to
// temporaries on the call stack.
type VariablesState struct {
	globals     *SymbolTable
	defaults    *SymbolTable // nil until defaults have been snapshotted
	patch       *StatePatch
	callStack   *CallStack
	listDefs    *content.ListDefinitionsOrigin
	handlers    []VariableChangeHandler
	batching    bool
	batchedVars map[string]struct{}
}

// NewVariablesState creates a variables state with no globals.
func NewVariablesState(cs *CallStack, listDefs *content.ListDefinitionsOrigin) *VariablesState {
	return &VariablesState{
		globals:   NewSymbolTable(),
		callStack: cs,
		listDefs:  listDefs,
	}
}

// CallStack returns the call stack used for temporaries.
func (vs *VariablesState) CallStack() *CallStack {
	return vs.callStack
}

// SetCallStack replaces the call stack used for temporaries, e.g. when
// switching flows.
func (vs *VariablesState) SetCallStack(cs *CallStack) {
	vs.callStack = cs
}

// Patch returns the active state patch, if any.
func (vs *VariablesState) Patch() *StatePatch {
	return vs.patch
}

// SetPatch activates a state patch. Pass nil to deactivate patching without
// applying changes.
func (vs *VariablesState) SetPatch(p *StatePatch) {
	vs.patch = p
}

// AddChangeHandler registers a handler for changes of global variables.
func (vs *VariablesState) AddChangeHandler(h VariableChangeHandler) {
	vs.handlers = append(vs.handlers, h)
}

func (vs *VariablesState) notify(name string, v content.Value) {
	for _, h := range vs.handlers {
		h(name, v)
	}
}

// --- Batch observing -------------------------------------------------------

// Batching is a predicate: are change notifications currently buffered?
func (vs *VariablesState) Batching() bool {
	return vs.batching
}

// StartBatchObserving buffers change notifications until StopBatchObserving
// is called.
func (vs *VariablesState) StartBatchObserving() {
	vs.batching = true
	vs.batchedVars = make(map[string]struct{})
}

// StopBatchObserving ends buffering and notifies once per changed variable,
// with its current value.
func (vs *VariablesState) StopBatchObserving() {
	vs.batching = false
	changed := vs.batchedVars
	vs.batchedVars = nil
	if len(changed) == 0 {
		return
	}
	names := NewSymbolTable()
	for name := range changed {
		v, _ := vs.globals.Resolve(name)
		names.Define(name, v)
	}
	names.Each(vs.notify)
}

// --- Globals ---------------------------------------------------------------

// GlobalVariableExistsWithName is a predicate: is there a global variable
// of this name, either set or declared with a default value?
func (vs *VariablesState) GlobalVariableExistsWithName(name string) bool {
	return vs.globals.Contains(name) || vs.defaults.Contains(name)
}

// DefaultValue returns the declared default value of a global variable.
func (vs *VariablesState) DefaultValue(name string) content.Value {
	v, _ := vs.defaults.Resolve(name)
	return v
}

// SnapshotDefaultGlobals remembers the current globals as their default
// values. Called after the story's global declarations have been run.
func (vs *VariablesState) SnapshotDefaultGlobals() {
	vs.defaults = vs.globals.Copy()
	T().Debugf("snapshot of %d default globals", vs.defaults.Size())
}

// ApplyPatch commits the globals of the active patch and deactivates it.
func (vs *VariablesState) ApplyPatch() {
	if vs.patch == nil {
		return
	}
	for name, v := range vs.patch.Globals.Table {
		vs.globals.Define(name, v)
	}
	if vs.batchedVars != nil {
		for name := range vs.patch.ChangedVariables {
			vs.batchedVars[name] = struct{}{}
		}
	}
	vs.patch = nil
}

// SetGlobal sets a global variable. Change handlers are called immediately,
// or after batch observing has stopped.
func (vs *VariablesState) SetGlobal(name string, v content.Value) {
	var old content.Value
	found := false
	if vs.patch != nil {
		old, found = vs.patch.Global(name)
	}
	if !found {
		old, _ = vs.globals.Resolve(name)
	}
	content.RetainListOriginsForAssignment(old, v)
	if vs.patch != nil {
		vs.patch.SetGlobal(name, v)
	} else {
		vs.globals.Define(name, v)
	}
	if len(vs.handlers) == 0 || content.ValuesEqual(old, v) {
		return
	}
	if vs.batching {
		if vs.patch != nil {
			vs.patch.AddChangedVariable(name)
		} else if vs.batchedVars != nil {
			vs.batchedVars[name] = struct{}{}
		}
		return
	}
	vs.notify(name, v)
}

// --- Host access -----------------------------------------------------------

// Get returns the Go value of a global variable, or nil if there is no such
// variable.
func (vs *VariablesState) Get(name string) interface{} {
	if v := vs.Value(name); v != nil {
		return v.Native()
	}
	return nil
}

// Value returns the value of a global variable, or nil.
func (vs *VariablesState) Value(name string) content.Value {
	if vs.patch != nil {
		if v, ok := vs.patch.Global(name); ok {
			return v
		}
	}
	if v, ok := vs.globals.Resolve(name); ok {
		return v
	}
	v, _ := vs.defaults.Resolve(name)
	return v
}

// Set assigns a Go value to a global variable declared by the story.
// Accepted are the Go types of story values (see content.CreateValue) and
// content.Value itself.
func (vs *VariablesState) Set(name string, value interface{}) error {
	if !vs.defaults.Contains(name) {
		return goink.Errorf(goink.RuntimeLogic,
			"Cannot assign to a variable (%s) that hasn't been declared in the story", name)
	}
	if value == nil {
		return goink.Errorf(goink.TypeCoercion, "Cannot pass null to VariableState")
	}
	v, ok := value.(content.Value)
	if !ok {
		if v = content.CreateValue(value); v == nil {
			return goink.Errorf(goink.TypeCoercion, "Invalid value passed to VariableState: %v", value)
		}
	}
	vs.SetGlobal(name, v)
	return nil
}

// Names returns the names of all global variables, sorted.
func (vs *VariablesState) Names() []string {
	return vs.globals.Names()
}

// --- Story access ----------------------------------------------------------

// GetVariableWithName returns the value of a variable, dereferencing
// variable pointers.
func (vs *VariablesState) GetVariableWithName(name string, contextIndex int) content.Value {
	v := vs.getRawVariableWithName(name, contextIndex)
	if ptr, ok := v.(*content.VariablePointerValue); ok {
		v = vs.ValueAtVariablePointer(ptr)
	}
	return v
}

// ValueAtVariablePointer returns the value a variable pointer points to.
func (vs *VariablesState) ValueAtVariablePointer(ptr *content.VariablePointerValue) content.Value {
	return vs.GetVariableWithName(ptr.Name, ptr.ContextIndex)
}

func (vs *VariablesState) getRawVariableWithName(name string, contextIndex int) content.Value {
	if contextIndex == 0 || contextIndex == -1 {
		if v := vs.Value(name); v != nil {
			return v
		}
		if v := vs.listDefs.FindSingleItemListWithName(name); v != nil {
			return v
		}
	}
	return vs.callStack.GetTemporaryVariable(name, contextIndex)
}

// Assign executes a variable assignment of the story. New declarations go
// to the scope the assignment names, re-assignments go to where the variable
// has been declared. Re-assigning a variable holding a variable pointer
// assigns to the variable pointed to.
func (vs *VariablesState) Assign(va *content.VariableAssignment, v content.Value) error {
	name := va.Name
	contextIndex := -1
	var setGlobal bool
	if va.IsNewDeclaration {
		setGlobal = va.IsGlobal
		if ptr, ok := v.(*content.VariablePointerValue); ok {
			v = vs.ResolveVariablePointer(ptr)
		}
	} else {
		setGlobal = vs.GlobalVariableExistsWithName(name)
		for {
			ptr, ok := vs.getRawVariableWithName(name, contextIndex).(*content.VariablePointerValue)
			if !ok {
				break
			}
			name = ptr.Name
			contextIndex = ptr.ContextIndex
			setGlobal = contextIndex == 0
		}
	}
	if setGlobal {
		vs.SetGlobal(name, v)
		return nil
	}
	return vs.callStack.SetTemporaryVariable(name, v, va.IsNewDeclaration, contextIndex)
}

// ResolveVariablePointer makes a variable pointer point to an exact context:
// global, or a frame of the call stack. Pointers to pointers are collapsed.
func (vs *VariablesState) ResolveVariablePointer(ptr *content.VariablePointerValue) *content.VariablePointerValue {
	contextIndex := ptr.ContextIndex
	if contextIndex == -1 {
		contextIndex = vs.contextIndexOfVariableNamed(ptr.Name)
	}
	target := vs.getRawVariableWithName(ptr.Name, contextIndex)
	if double, ok := target.(*content.VariablePointerValue); ok {
		return double
	}
	return &content.VariablePointerValue{Name: ptr.Name, ContextIndex: contextIndex}
}

// A new pointer to a temporary is created by an assignment at the start of
// a function, so the temporary lives in the frame below the current one.
func (vs *VariablesState) contextIndexOfVariableNamed(name string) int {
	if vs.GlobalVariableExistsWithName(name) {
		return 0
	}
	return vs.callStack.CurrentElementIndex()
}

// --- Persistence -----------------------------------------------------------

// Token creates the token of the global variables. Variables holding their
// default value are skipped.
func (vs *VariablesState) Token() (wire.Dict, error) {
	changed := NewSymbolTable()
	vs.globals.Each(func(name string, v content.Value) {
		if def, ok := vs.defaults.Resolve(name); ok && content.ValuesEqual(def, v) {
			return
		}
		changed.Define(name, v)
	})
	return SymbolTableToken(changed)
}

// LoadToken replaces the globals by the values of a token. Variables missing
// from the token get their default value; variables unknown to the story
// are dropped.
func (vs *VariablesState) LoadToken(tok interface{}) error {
	loaded, err := SymbolTableFromToken(tok)
	if err != nil {
		return err
	}
	vs.globals = NewSymbolTable()
	vs.defaults.Each(func(name string, def content.Value) {
		if v, ok := loaded.Resolve(name); ok {
			if l, isList := v.(*content.ListValue); isList {
				vs.listDefs.ResolveOrigins(l.List)
			}
			vs.globals.Define(name, v)
		} else {
			vs.globals.Define(name, def)
		}
	})
	return nil
}

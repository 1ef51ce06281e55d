package runtime

import "github.com/npillmayer/goink/content"

// StatePatch records changes to globals, visit counts and turn indices made
// while evaluating content speculatively. Visit counts and turn indices are
// keyed by container path.
type StatePatch struct {
	Globals          *SymbolTable
	ChangedVariables map[string]struct{}
	VisitCounts      map[string]int
	TurnIndices      map[string]int
}

// NewStatePatch creates a patch. If toCopy is non-nil, the new patch starts
// with the changes of toCopy.
func NewStatePatch(toCopy *StatePatch) *StatePatch {
	p := &StatePatch{
		Globals:          NewSymbolTable(),
		ChangedVariables: make(map[string]struct{}),
		VisitCounts:      make(map[string]int),
		TurnIndices:      make(map[string]int),
	}
	if toCopy == nil {
		return p
	}
	p.Globals = toCopy.Globals.Copy()
	for name := range toCopy.ChangedVariables {
		p.ChangedVariables[name] = struct{}{}
	}
	for k, v := range toCopy.VisitCounts {
		p.VisitCounts[k] = v
	}
	for k, v := range toCopy.TurnIndices {
		p.TurnIndices[k] = v
	}
	return p
}

// Global returns the patched value of a global variable.
func (p *StatePatch) Global(name string) (content.Value, bool) {
	return p.Globals.Resolve(name)
}

// SetGlobal records a new value for a global variable.
func (p *StatePatch) SetGlobal(name string, v content.Value) {
	p.Globals.Define(name, v)
}

// AddChangedVariable remembers a global variable to notify observers about.
func (p *StatePatch) AddChangedVariable(name string) {
	p.ChangedVariables[name] = struct{}{}
}

// VisitCount returns the patched visit count of a container.
func (p *StatePatch) VisitCount(path string) (int, bool) {
	n, ok := p.VisitCounts[path]
	return n, ok
}

// SetVisitCount records a new visit count for a container.
func (p *StatePatch) SetVisitCount(path string, n int) {
	p.VisitCounts[path] = n
}

// TurnIndex returns the patched turn index of a container.
func (p *StatePatch) TurnIndex(path string) (int, bool) {
	n, ok := p.TurnIndices[path]
	return n, ok
}

// SetTurnIndex records a new turn index for a container.
func (p *StatePatch) SetTurnIndex(path string, index int) {
	p.TurnIndices[path] = index
}

package story

import (
	"fmt"

	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/npillmayer/goink"
	"github.com/npillmayer/goink/content"
	"github.com/npillmayer/goink/runtime"
)

// State is the complete mutable state of a story: flows, variables,
// evaluation stack, visit counts and turn indices, and the random seed.
// It can be saved and restored (see ToJSON and LoadJSON).
type State struct {
	root            *content.Container
	listDefs        *content.ListDefinitionsOrigin
	flow            *flow
	namedFlows      map[string]*flow // nil while there is only the default flow
	variables       *runtime.VariablesState
	evalStack       *arraystack.Stack // of content.Object
	divertedPointer content.Pointer
	visitCounts     map[string]int // by container path
	turnIndices     map[string]int // by container path
	turnIndex       int
	storySeed       int
	previousRandom  int
	didSafeExit     bool
	errors          []*goink.Error
	warnings        []*goink.Error
	patch           *runtime.StatePatch
}

func newState(root *content.Container, listDefs *content.ListDefinitionsOrigin, seed int) *State {
	s := &State{
		root:            root,
		listDefs:        listDefs,
		flow:            newFlow(DefaultFlowName, root),
		evalStack:       arraystack.New(),
		divertedPointer: content.NullPointer,
		visitCounts:     make(map[string]int),
		turnIndices:     make(map[string]int),
		turnIndex:       -1,
		storySeed:       seed,
	}
	s.variables = runtime.NewVariablesState(s.flow.callStack, listDefs)
	s.goToStart()
	return s
}

func (s *State) goToStart() {
	s.callStack().CurrentElement().CurrentPointer = content.StartOf(s.root)
}

// Variables gives access to the global variables.
func (s *State) Variables() *runtime.VariablesState {
	return s.variables
}

func (s *State) callStack() *runtime.CallStack {
	return s.flow.callStack
}

// --- Execution location ----------------------------------------------------

func (s *State) currentPointer() content.Pointer {
	return s.callStack().CurrentElement().CurrentPointer
}

func (s *State) setCurrentPointer(p content.Pointer) {
	s.callStack().CurrentElement().CurrentPointer = p
}

func (s *State) previousPointer() content.Pointer {
	return s.callStack().CurrentThread().PreviousPointer
}

func (s *State) setPreviousPointer(p content.Pointer) {
	s.callStack().CurrentThread().PreviousPointer = p
}

func (s *State) inExpressionEvaluation() bool {
	return s.callStack().CurrentElement().InExpressionEvaluation
}

func (s *State) setInExpressionEvaluation(on bool) {
	s.callStack().CurrentElement().InExpressionEvaluation = on
}

// canContinue is true if there is content left to step through.
func (s *State) canContinue() bool {
	return !s.currentPointer().IsNull() && !s.HasError()
}

// hasPendingOutput is true if output of the next line has already been
// produced.
func (s *State) hasPendingOutput() bool {
	return s.flow.pending >= 0 && !s.HasError()
}

// CanContinue is a predicate: is there more text to produce?
func (s *State) CanContinue() bool {
	return s.canContinue() || s.hasPendingOutput()
}

// TurnIndex returns the number of choices made so far, minus one.
func (s *State) TurnIndex() int {
	return s.turnIndex
}

// StorySeed returns the seed for random numbers and shuffles.
func (s *State) StorySeed() int {
	return s.storySeed
}

// CurrentPathString returns the current location in the story, or "" if
// the story has ended.
func (s *State) CurrentPathString() string {
	if p := s.currentPointer(); !p.IsNull() {
		return p.Path().String()
	}
	return ""
}

// --- Choices ---------------------------------------------------------------

// currentChoices returns the choices generated so far. While the story can
// continue, there are no choices to present.
func (s *State) currentChoices() []*Choice {
	if s.CanContinue() {
		return nil
	}
	return s.flow.choices
}

// --- Errors ----------------------------------------------------------------

// CurrentErrors returns the errors of the last continuation.
func (s *State) CurrentErrors() []*goink.Error {
	return s.errors
}

// CurrentWarnings returns the warnings of the last continuation.
func (s *State) CurrentWarnings() []*goink.Error {
	return s.warnings
}

// HasError is a predicate: has an error been recorded?
func (s *State) HasError() bool {
	return len(s.errors) > 0
}

// HasWarning is a predicate: has a warning been recorded?
func (s *State) HasWarning() bool {
	return len(s.warnings) > 0
}

func (s *State) addIssue(e *goink.Error) {
	if e.Warning {
		s.warnings = append(s.warnings, e)
	} else {
		s.errors = append(s.errors, e)
	}
}

func (s *State) resetErrors() {
	s.errors = nil
	s.warnings = nil
}

// --- Visit counts and turn indices -----------------------------------------

// VisitCountAtPathString returns the number of visits of the container at
// a path.
func (s *State) VisitCountAtPathString(path string) int {
	if s.patch != nil {
		if n, ok := s.patch.VisitCount(path); ok {
			return n
		}
	}
	return s.visitCounts[path]
}

// visitCountForContainer returns the visit count of a container. Containers
// which do not count visits always report 0.
func (s *State) visitCountForContainer(c *content.Container) int {
	if !c.VisitsShouldBeCounted {
		tracer().Debugf("read count for %s unknown, container does not count visits", content.PathOf(c))
		return 0
	}
	return s.VisitCountAtPathString(content.PathOf(c).String())
}

func (s *State) incrementVisitCountForContainer(c *content.Container) {
	path := content.PathOf(c).String()
	if s.patch != nil {
		s.patch.SetVisitCount(path, s.visitCountForContainer(c)+1)
		return
	}
	s.visitCounts[path]++
}

func (s *State) recordTurnIndexVisitToContainer(c *content.Container) {
	path := content.PathOf(c).String()
	if s.patch != nil {
		s.patch.SetTurnIndex(path, s.turnIndex)
		return
	}
	s.turnIndices[path] = s.turnIndex
}

// turnsSinceForContainer returns the number of turns since a container has
// last been visited, or -1 if it has never been visited.
func (s *State) turnsSinceForContainer(c *content.Container) (int, error) {
	if !c.TurnIndexShouldBeCounted {
		return 0, goink.Errorf(goink.RuntimeLogic, "TURNS_SINCE() for target (%s) unknown.", c.Name)
	}
	path := content.PathOf(c).String()
	if s.patch != nil {
		if index, ok := s.patch.TurnIndex(path); ok {
			return s.turnIndex - index, nil
		}
	}
	if index, ok := s.turnIndices[path]; ok {
		return s.turnIndex - index, nil
	}
	return -1, nil
}

// --- Evaluation stack ------------------------------------------------------

func (s *State) pushEvaluationStack(obj content.Object) {
	if lv, ok := obj.(*content.ListValue); ok {
		s.listDefs.ResolveOrigins(lv.List)
	}
	s.evalStack.Push(obj)
}

func (s *State) popEvaluationStack() (content.Object, error) {
	v, ok := s.evalStack.Pop()
	if !ok {
		return nil, goink.Errorf(goink.StackDiscipline, "trying to pop from an empty evaluation stack")
	}
	return v.(content.Object), nil
}

// popEvaluationStackN pops n objects, returned in the order they have been
// pushed.
func (s *State) popEvaluationStackN(n int) ([]content.Object, error) {
	if n > s.evalStack.Size() {
		return nil, goink.Errorf(goink.StackDiscipline, "trying to pop too many objects")
	}
	objs := make([]content.Object, n)
	for i := n - 1; i >= 0; i-- {
		v, _ := s.evalStack.Pop()
		objs[i] = v.(content.Object)
	}
	return objs, nil
}

func (s *State) peekEvaluationStack() (content.Object, error) {
	v, ok := s.evalStack.Peek()
	if !ok {
		return nil, goink.Errorf(goink.StackDiscipline, "trying to peek into an empty evaluation stack")
	}
	return v.(content.Object), nil
}

// evaluationStack returns the stack contents, bottom first.
func (s *State) evaluationStack() []content.Object {
	vals := s.evalStack.Values()
	objs := make([]content.Object, len(vals))
	for i, v := range vals {
		objs[len(vals)-1-i] = v.(content.Object)
	}
	return objs
}

func copyStack(st *arraystack.Stack) *arraystack.Stack {
	c := arraystack.New()
	vals := st.Values()
	for i := len(vals) - 1; i >= 0; i-- {
		c.Push(vals[i])
	}
	return c
}

// passArgumentsToEvaluationStack pushes host values as arguments for a
// function or knot.
func (s *State) passArgumentsToEvaluationStack(args []interface{}) error {
	for _, arg := range args {
		var v content.Value
		switch x := arg.(type) {
		case int, float64, float32, string, *content.InkList:
			v = content.CreateValue(x)
		}
		if v == nil {
			return goink.Errorf(goink.TypeCoercion,
				"ink arguments when calling EvaluateFunction / ChoosePathString must be int, float, string or InkList. Argument was %T", arg)
		}
		s.pushEvaluationStack(v)
	}
	return nil
}

// --- Call stack ------------------------------------------------------------

// forceEnd stops the current flow.
func (s *State) forceEnd() {
	s.callStack().Reset()
	s.flow.choices = nil
	s.setCurrentPointer(content.NullPointer)
	s.setPreviousPointer(content.NullPointer)
	s.didSafeExit = true
}

// popCallStack pops a frame, trimming trailing whitespace from the output of
// functions.
func (s *State) popCallStack(t content.PushPopType) error {
	if s.callStack().CurrentElement().Type() == content.Function {
		s.trimWhitespaceFromFunctionEnd()
	}
	return s.callStack().Pop(t)
}

func (s *State) setChosenPath(p *content.Path, incrementingTurnIndex bool) error {
	s.flow.choices = nil
	s.dropPendingOutput()
	ptr, e := runtime.PointerAtPath(s.root, p)
	if e != nil {
		if !e.Warning {
			return e
		}
		s.addIssue(e)
	}
	if !ptr.IsNull() && ptr.Index == -1 {
		ptr.Index = 0
	}
	s.setCurrentPointer(ptr)
	if incrementingTurnIndex {
		s.turnIndex++
	}
	return nil
}

func (s *State) startFunctionEvaluationFromGame(fn *content.Container, args []interface{}) error {
	s.callStack().Push(content.FunctionEvaluationFromGame, s.evalStack.Size(), 0)
	s.setCurrentPointer(content.StartOf(fn))
	return s.passArgumentsToEvaluationStack(args)
}

func (s *State) tryExitFunctionEvaluationFromGame() bool {
	if s.callStack().CurrentElement().Type() == content.FunctionEvaluationFromGame {
		s.setCurrentPointer(content.NullPointer)
		s.didSafeExit = true
		return true
	}
	return false
}

// completeFunctionEvaluationFromGame pops the frame of a function called by
// the host and returns the function's result as a Go value.
func (s *State) completeFunctionEvaluationFromGame() (interface{}, error) {
	top := s.callStack().CurrentElement()
	if top.Type() != content.FunctionEvaluationFromGame {
		return nil, goink.Errorf(goink.StackDiscipline,
			"Expected external function evaluation to be complete. Stack trace: %s", s.callStack().CallStackTrace())
	}
	var returned content.Object
	for s.evalStack.Size() > top.EvaluationStackHeightWhenPushed {
		obj, _ := s.popEvaluationStack()
		if returned == nil {
			returned = obj
		}
	}
	if err := s.popCallStack(content.FunctionEvaluationFromGame); err != nil {
		return nil, err
	}
	switch v := returned.(type) {
	case nil, *content.Void:
		return nil, nil
	case *content.DivertTargetValue:
		return v.Target.String(), nil
	case content.Value:
		return v.Native(), nil
	}
	return nil, goink.Errorf(goink.TypeCoercion, "function returned a non-value: %v", returned)
}

// --- Flows -----------------------------------------------------------------

// CurrentFlowName returns the name of the active flow.
func (s *State) CurrentFlowName() string {
	return s.flow.name
}

// CurrentFlowIsDefaultFlow is a predicate: is the default flow active?
func (s *State) CurrentFlowIsDefaultFlow() bool {
	return s.flow.name == DefaultFlowName
}

// AliveFlowNames returns the names of all flows but the default flow, sorted.
func (s *State) AliveFlowNames() []string {
	var names []string
	for _, name := range flowNames(s.namedFlows) {
		if name != DefaultFlowName {
			names = append(names, name)
		}
	}
	return names
}

func (s *State) switchFlow(name string) {
	if s.namedFlows == nil {
		s.namedFlows = map[string]*flow{DefaultFlowName: s.flow}
	}
	if name == s.flow.name {
		return
	}
	f, ok := s.namedFlows[name]
	if !ok {
		f = newFlow(name, s.root)
		s.namedFlows[name] = f
		tracer().Infof("created flow %s", name)
	}
	s.flow = f
	s.variables.SetCallStack(f.callStack)
	tracer().Debugf("switched to flow %s", name)
}

func (s *State) removeFlow(name string) error {
	if name == DefaultFlowName {
		return goink.Errorf(goink.RuntimeLogic, "Cannot destroy default flow")
	}
	if name == s.flow.name {
		s.switchFlow(DefaultFlowName)
	}
	delete(s.namedFlows, name)
	return nil
}

// --- Patching --------------------------------------------------------------

// copyAndStartPatching returns a copy of the state which records changes to
// globals, visit counts and turn indices in a new patch. The copy shares the
// committed variables and counts with s; the call stack of the current flow
// is copied.
func (s *State) copyAndStartPatching() *State {
	c := &State{
		root:            s.root,
		listDefs:        s.listDefs,
		flow:            s.flow.copy(),
		variables:       s.variables,
		evalStack:       copyStack(s.evalStack),
		divertedPointer: s.divertedPointer,
		visitCounts:     s.visitCounts,
		turnIndices:     s.turnIndices,
		turnIndex:       s.turnIndex,
		storySeed:       s.storySeed,
		previousRandom:  s.previousRandom,
		didSafeExit:     s.didSafeExit,
		patch:           runtime.NewStatePatch(s.patch),
	}
	if s.namedFlows != nil {
		c.namedFlows = make(map[string]*flow, len(s.namedFlows))
		for name, f := range s.namedFlows {
			c.namedFlows[name] = f
		}
		c.namedFlows[c.flow.name] = c.flow
	}
	c.errors = append(c.errors, s.errors...)
	c.warnings = append(c.warnings, s.warnings...)
	c.variables.SetCallStack(c.flow.callStack)
	c.variables.SetPatch(c.patch)
	tracer().Debugf("started patching state")
	return c
}

// restoreAfterPatch makes the variables refer to s again, after a copy has
// been patched.
func (s *State) restoreAfterPatch() {
	s.variables.SetCallStack(s.flow.callStack)
	s.variables.SetPatch(s.patch)
}

// applyAnyPatch commits the changes recorded in the patch of s.
func (s *State) applyAnyPatch() {
	if s.patch == nil {
		return
	}
	s.variables.ApplyPatch()
	for path, n := range s.patch.VisitCounts {
		s.visitCounts[path] = n
	}
	for path, index := range s.patch.TurnIndices {
		s.turnIndices[path] = index
	}
	tracer().Debugf("applied patch with %d changed globals", s.patch.Globals.Size())
	s.patch = nil
}

func (s *State) String() string {
	return fmt.Sprintf("<state flow=%s turn=%d @ %v>", s.flow.name, s.turnIndex, s.currentPointer())
}

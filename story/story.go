package story

import (
	"errors"
	"strings"
	"time"

	"github.com/npillmayer/goink"
	"github.com/npillmayer/goink/content"
	"github.com/npillmayer/goink/runtime"
	"github.com/npillmayer/goink/wire"
)

// Story is a compiled ink story together with its state.
//
// A story is not safe for concurrent use. Continuations may be split into
// several calls with ContinueAsync; until such a continuation is complete,
// other operations changing the state are refused.
type Story struct {
	doc       *wire.Document
	root      *content.Container
	listDefs  *content.ListDefinitionsOrigin
	state     *State
	snapshot  *State // state at the last newline, while looking ahead
	seed      int
	seedSet   bool
	externals map[string]*externalFunction
	observers observers
	//
	allowExternalFallbacks bool
	hasValidatedExternals  bool
	sawUnsafeExternal      bool // lookahead hit an external function which is not lookahead safe
	recursiveContinueCount int
	asyncContinueActive    bool
	asyncSaving            bool
	//
	OnError            ErrorHandler
	OnDidContinue      func()
	OnMakeChoice       func(c *Choice)
	OnEvaluateFunction func(name string, args []interface{})
	OnCompleteEvaluate func(name string, args []interface{}, text string, result interface{})
	OnChoosePathString func(path string, args []interface{})
}

// New creates a story from a compiled JSON document. The story's global
// variable declarations are run once.
func New(doc []byte, opts ...Option) (*Story, error) {
	d, err := wire.DecodeDocument(doc)
	if err != nil {
		return nil, err
	}
	return NewFromDocument(d, opts...)
}

// NewFromDocument creates a story from a decoded document.
func NewFromDocument(d *wire.Document, opts ...Option) (*Story, error) {
	if d == nil || d.Root == nil {
		return nil, goink.Errorf(goink.MalformedDocument, "story document without root container")
	}
	s := &Story{
		doc:       d,
		root:      d.Root,
		listDefs:  content.NewListDefinitionsOrigin(d.ListDefs),
		externals: make(map[string]*externalFunction),
	}
	s.configure(opts)
	if err := s.ResetState(); err != nil {
		return nil, err
	}
	tracer().Infof("created story with seed %d", s.state.storySeed)
	return s, nil
}

// ToJSON writes the story document as JSON.
func (s *Story) ToJSON() ([]byte, error) {
	return wire.EncodeDocument(s.doc)
}

// State returns the current state of the story.
func (s *Story) State() *State {
	return s.state
}

// Variables gives access to the global variables of the story.
func (s *Story) Variables() *runtime.VariablesState {
	return s.state.variables
}

// ListDefinitions returns the list definitions of the story.
func (s *Story) ListDefinitions() *content.ListDefinitionsOrigin {
	return s.listDefs
}

// Root returns the root container of the story.
func (s *Story) Root() *content.Container {
	return s.root
}

// --- Resetting -------------------------------------------------------------

// ResetState starts the story over. Global variables are reset to the values
// of their declarations.
func (s *Story) ResetState() error {
	if err := s.ifAsyncWeCant("ResetState"); err != nil {
		return err
	}
	s.state = newState(s.root, s.listDefs, s.seed)
	s.state.variables.AddChangeHandler(s.variableChanged)
	return s.resetGlobals()
}

func (s *Story) resetGlobals() error {
	if _, ok := s.root.NamedContent["global decl"]; ok {
		original := s.state.currentPointer()
		if err := s.choosePath(content.ParsePath("global decl"), false); err != nil {
			return err
		}
		if err := s.continueInternal(0); err != nil {
			return err
		}
		s.state.setCurrentPointer(original)
	}
	s.state.variables.SnapshotDefaultGlobals()
	return nil
}

// ResetErrors clears the errors and warnings of the story state.
func (s *Story) ResetErrors() {
	s.state.resetErrors()
}

// ResetCallstack drops all threads, tunnels and functions in progress.
func (s *Story) ResetCallstack() error {
	if err := s.ifAsyncWeCant("ResetCallstack"); err != nil {
		return err
	}
	s.state.forceEnd()
	return nil
}

// --- Continuation ----------------------------------------------------------

// CanContinue is a predicate: is there more text to produce?
func (s *Story) CanContinue() bool {
	return s.state.CanContinue()
}

// AsyncContinueComplete is a predicate: has the last continuation started
// with ContinueAsync been completed?
func (s *Story) AsyncContinueComplete() bool {
	return !s.asyncContinueActive
}

// Continue produces the next line of text. Issues raised while producing
// the line are returned as *goink.Issues together with the text.
func (s *Story) Continue() (string, error) {
	err := s.ContinueAsync(0)
	var issues *goink.Issues
	if err != nil && !errors.As(err, &issues) {
		return "", err
	}
	return s.CurrentText(), err
}

// ContinueMaximally continues until the story cannot continue any more, at
// a choice or at the end, and returns all the text produced.
func (s *Story) ContinueMaximally() (string, error) {
	if err := s.ifAsyncWeCant("ContinueMaximally"); err != nil {
		return "", err
	}
	var b strings.Builder
	for s.CanContinue() {
		line, err := s.Continue()
		b.WriteString(line)
		if err != nil {
			return b.String(), err
		}
	}
	return b.String(), nil
}

// ContinueAsync continues like Continue, but returns early if evaluation
// takes longer than budget. Check AsyncContinueComplete and call again until
// it returns true. A budget of 0 is unlimited.
func (s *Story) ContinueAsync(budget time.Duration) error {
	if !s.hasValidatedExternals {
		if err := s.validateExternalBindings(); err != nil {
			return err
		}
	}
	return s.continueInternal(budget)
}

func (s *Story) continueInternal(budget time.Duration) error {
	s.recursiveContinueCount++
	defer func() { s.recursiveContinueCount-- }()
	if !s.asyncContinueActive {
		s.asyncContinueActive = budget > 0
		if !s.CanContinue() {
			s.asyncContinueActive = false
			return goink.Errorf(goink.RuntimeLogic, "Can't continue - should check canContinue before calling Continue")
		}
		s.state.didSafeExit = false
		s.state.resetOutput()
		if s.recursiveContinueCount == 1 {
			s.state.variables.StartBatchObserving()
		}
	}
	start := time.Now()
	endsInNewline := false
	s.sawUnsafeExternal = false
	for s.state.canContinue() {
		var err error
		if endsInNewline, err = s.continueSingleStep(); err != nil {
			s.addError(err)
			break
		}
		if endsInNewline {
			break
		}
		if s.asyncContinueActive && time.Since(start) > budget {
			break
		}
	}
	if endsInNewline || !s.state.canContinue() {
		if s.snapshot != nil {
			s.restoreStateSnapshot()
		}
		if !s.state.canContinue() && !s.state.hasPendingOutput() && !s.state.HasError() {
			s.checkEndOfContent()
		}
		s.state.didSafeExit = false
		s.sawUnsafeExternal = false
		if s.recursiveContinueCount == 1 {
			s.state.variables.StopBatchObserving()
		}
		s.asyncContinueActive = false
		if s.OnDidContinue != nil {
			s.OnDidContinue()
		}
	}
	return s.reportIssues()
}

func (s *Story) checkEndOfContent() {
	cs := s.state.callStack()
	if cs.CanPopThread() {
		s.addError(goink.Errorf(goink.RuntimeLogic,
			"Thread available to pop, threads should always be flat by the end of evaluation?"))
	}
	if len(s.state.flow.choices) > 0 || s.state.didSafeExit {
		return
	}
	switch {
	case cs.CanPopType(content.Tunnel):
		s.addError(goink.Errorf(goink.RuntimeLogic,
			"unexpectedly reached end of content. Do you need a '->->' to return from a tunnel?"))
	case cs.CanPopType(content.Function):
		s.addError(goink.Errorf(goink.RuntimeLogic,
			"unexpectedly reached end of content. Do you need a '~ return'?"))
	case !cs.CanPop():
		s.addError(goink.Errorf(goink.RuntimeLogic,
			"ran out of content. Do you need a '-> DONE' or '-> END'?"))
	default:
		s.addError(goink.Errorf(goink.RuntimeLogic,
			"unexpectedly reached end of content for unknown reason. Please debug compiler!"))
	}
}

// continueSingleStep steps once and checks whether the current line is
// complete. Returns true if it is.
func (s *Story) continueSingleStep() (bool, error) {
	if err := s.step(); err != nil {
		return false, err
	}
	if !s.state.canContinue() && !s.state.callStack().ElementIsEvaluateFromGame() {
		if _, err := s.tryFollowDefaultInvisibleChoice(); err != nil {
			return false, err
		}
	}
	if s.state.inStringEvaluation() {
		return false, nil
	}
	if s.snapshot != nil {
		if s.sawUnsafeExternal {
			s.restoreStateSnapshot()
			return true, nil
		}
		switch s.newlineOutputStateChange() {
		case extendedBeyondNewline:
			// The line is complete. Keep the work done since, but hold back
			// its output for the next line.
			lineEnd := s.snapshot.flow.output.Size()
			s.discardSnapshot()
			s.state.holdBackOutput(lineEnd)
			return true, nil
		case newlineRemoved:
			s.discardSnapshot()
		}
	}
	if s.state.outputStreamEndsInNewline() {
		if s.state.canContinue() {
			if s.snapshot == nil {
				s.stateSnapshot()
			}
		} else {
			s.discardSnapshot()
		}
	}
	return false, nil
}

type outputStateChange int

const (
	noChange outputStateChange = iota
	extendedBeyondNewline
	newlineRemoved
)

// newlineOutputStateChange compares the output at the last newline with
// the current output.
func (s *Story) newlineOutputStateChange() outputStateChange {
	prevText, currText := s.snapshot.fullText(), s.state.fullText()
	prevTags, currTags := s.snapshot.tagCount(), s.state.tagCount()
	newlineStillExists := len(prevText) > 0 && len(currText) >= len(prevText) &&
		currText[len(prevText)-1] == '\n'
	if prevTags == currTags && len(prevText) == len(currText) && newlineStillExists {
		return noChange
	}
	if !newlineStillExists {
		return newlineRemoved
	}
	if currTags > prevTags {
		return extendedBeyondNewline
	}
	for i := len(prevText); i < len(currText); i++ {
		if c := currText[i]; c != ' ' && c != '\t' {
			return extendedBeyondNewline
		}
	}
	return noChange
}

// --- Snapshots -------------------------------------------------------------

func (s *Story) stateSnapshot() {
	s.snapshot = s.state
	s.state = s.state.copyAndStartPatching()
}

// restoreStateSnapshot throws away everything since the last snapshot.
// Errors recorded since are kept.
func (s *Story) restoreStateSnapshot() {
	s.snapshot.errors = s.state.errors
	s.snapshot.warnings = s.state.warnings
	s.snapshot.restoreAfterPatch()
	s.state = s.snapshot
	s.snapshot = nil
	if !s.asyncSaving {
		s.state.applyAnyPatch()
	}
	tracer().Debugf("restored state snapshot")
}

// discardSnapshot keeps the current state and commits its changes.
func (s *Story) discardSnapshot() {
	if !s.asyncSaving {
		s.state.applyAnyPatch()
	}
	s.snapshot = nil
}

// CopyStateForBackgroundSave returns a frozen copy of the state, for saving
// while the story goes on. Changes are not committed until
// BackgroundSaveComplete is called.
func (s *Story) CopyStateForBackgroundSave() (*State, error) {
	if err := s.ifAsyncWeCant("start saving on a background thread"); err != nil {
		return nil, err
	}
	if s.asyncSaving {
		return nil, goink.Errorf(goink.RuntimeLogic,
			"Story is already in background saving mode, can't call CopyStateForBackgroundSave again!")
	}
	frozen := s.state
	s.state = s.state.copyAndStartPatching()
	s.asyncSaving = true
	return frozen, nil
}

// BackgroundSaveComplete ends a background save, see
// CopyStateForBackgroundSave.
func (s *Story) BackgroundSaveComplete() {
	if s.snapshot == nil {
		s.state.applyAnyPatch()
	}
	s.asyncSaving = false
}

// --- Errors ----------------------------------------------------------------

// addError records an error or warning at the current location. Errors stop
// the current flow.
func (s *Story) addError(err error) {
	var e *goink.Error
	if !errors.As(err, &e) {
		e = goink.Errorf(goink.RuntimeLogic, "%v", err)
	}
	if e.Path == "" {
		if p := s.state.CurrentPathString(); p != "" {
			e = e.At(p)
		}
	}
	if e.Warning {
		tracer().Infof("%v", e)
	} else {
		tracer().Errorf("%v", e)
	}
	s.state.addIssue(e)
	if !e.Warning {
		s.state.forceEnd()
	}
}

func (s *Story) warning(kind goink.ErrorKind, format string, args ...interface{}) {
	s.addError(goink.Warningf(kind, format, args...))
}

// reportIssues passes errors and warnings to the error handler, if one is
// installed. Otherwise they are returned as *goink.Issues.
func (s *Story) reportIssues() error {
	if !s.state.HasError() && !s.state.HasWarning() {
		return nil
	}
	if s.OnError != nil {
		for _, e := range s.state.errors {
			s.OnError(e)
		}
		for _, w := range s.state.warnings {
			s.OnError(w)
		}
		s.state.resetErrors()
		return nil
	}
	return &goink.Issues{
		Errors:   append([]*goink.Error(nil), s.state.errors...),
		Warnings: append([]*goink.Error(nil), s.state.warnings...),
	}
}

// CurrentErrors returns the errors of the story state.
func (s *Story) CurrentErrors() []*goink.Error {
	return s.state.CurrentErrors()
}

// CurrentWarnings returns the warnings of the story state.
func (s *Story) CurrentWarnings() []*goink.Error {
	return s.state.CurrentWarnings()
}

func (s *Story) ifAsyncWeCant(activity string) error {
	if s.asyncContinueActive {
		return goink.Errorf(goink.RuntimeLogic,
			"Can't %s. Story is in the middle of a ContinueAsync(). Make more ContinueAsync() calls or a single Continue() call beforehand.", activity)
	}
	return nil
}

// --- Output ----------------------------------------------------------------

// CurrentText returns the text of the last line produced.
func (s *Story) CurrentText() string {
	return s.state.CurrentText()
}

// CurrentTags returns the tags of the last line produced.
func (s *Story) CurrentTags() []string {
	return s.state.CurrentTags()
}

// CurrentChoices returns the choices to present to the player. Invisible
// default choices are left out.
func (s *Story) CurrentChoices() []*Choice {
	var choices []*Choice
	for _, c := range s.state.currentChoices() {
		if !c.IsInvisibleDefault {
			c.Index = len(choices)
			choices = append(choices, c)
		}
	}
	return choices
}

// VisitCountAtPathString returns the number of visits of the container at
// a path.
func (s *Story) VisitCountAtPathString(path string) int {
	return s.state.VisitCountAtPathString(path)
}

// --- Tags ------------------------------------------------------------------

// GlobalTags returns the tags at the very start of the story.
func (s *Story) GlobalTags() []string {
	return s.tagsAtStartOfFlowContainer(s.root)
}

// TagsForContentAtPath returns the tags at the start of a knot or stitch.
func (s *Story) TagsForContentAtPath(path string) []string {
	c := s.root.ContentAtPath(content.ParsePath(path)).Container()
	if c == nil {
		return nil
	}
	return s.tagsAtStartOfFlowContainer(c)
}

func (s *Story) tagsAtStartOfFlowContainer(c *content.Container) []string {
	for len(c.Content) > 0 {
		first, ok := c.Content[0].(*content.Container)
		if !ok {
			break
		}
		c = first
	}
	var tags []string
	for _, o := range c.Content {
		tag, ok := o.(*content.Tag)
		if !ok {
			break
		}
		tags = append(tags, tag.Text)
	}
	return tags
}

// --- Flows -----------------------------------------------------------------

// SwitchFlow makes a named flow the active one, creating it if necessary.
func (s *Story) SwitchFlow(name string) error {
	if err := s.ifAsyncWeCant("switch flow"); err != nil {
		return err
	}
	if s.asyncSaving {
		return goink.Errorf(goink.RuntimeLogic,
			"Story is already in background saving mode, can't switch flow to %s", name)
	}
	s.state.switchFlow(name)
	return nil
}

// RemoveFlow destroys a flow. Removing the active flow switches to the
// default flow.
func (s *Story) RemoveFlow(name string) error {
	if err := s.ifAsyncWeCant("remove flow"); err != nil {
		return err
	}
	if s.asyncSaving {
		return goink.Errorf(goink.RuntimeLogic,
			"Story is already in background saving mode, can't remove flow %s", name)
	}
	return s.state.removeFlow(name)
}

// SwitchToDefaultFlow makes the default flow the active one.
func (s *Story) SwitchToDefaultFlow() error {
	return s.SwitchFlow(DefaultFlowName)
}

// CurrentFlowName returns the name of the active flow.
func (s *Story) CurrentFlowName() string {
	return s.state.CurrentFlowName()
}

package story

import (
	"sort"
	"strconv"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/npillmayer/goink"
	"github.com/npillmayer/goink/content"
	"github.com/npillmayer/goink/runtime"
	"github.com/npillmayer/goink/wire"
)

// DefaultFlowName is the name of the flow a story starts in.
const DefaultFlowName = "DEFAULT_FLOW"

// Choice is an option presented to the player.
type Choice struct {
	Text                string
	Index               int           // index within the current choices
	SourcePath          string        // path of the choice point
	TargetPath          *content.Path // where to go when chosen
	IsInvisibleDefault  bool
	OriginalThreadIndex int
	threadAtGeneration  *runtime.Thread
}

// PathStringOnChoice returns the target path as a string.
func (c *Choice) PathStringOnChoice() string {
	return c.TargetPath.String()
}

func (c *Choice) String() string {
	return "Choice '" + c.Text + "' -> " + c.PathStringOnChoice()
}

func (c *Choice) record() wire.ChoiceRecord {
	return wire.ChoiceRecord{
		Text:                c.Text,
		Index:               c.Index,
		OriginalChoicePath:  c.SourcePath,
		OriginalThreadIndex: c.OriginalThreadIndex,
		TargetPath:          c.PathStringOnChoice(),
	}
}

func choiceFromRecord(cr wire.ChoiceRecord) *Choice {
	return &Choice{
		Text:                cr.Text,
		Index:               cr.Index,
		SourcePath:          cr.OriginalChoicePath,
		TargetPath:          content.ParsePath(cr.TargetPath),
		OriginalThreadIndex: cr.OriginalThreadIndex,
	}
}

// --- Flows -----------------------------------------------------------------

// flow is an independently steppable strand of a story: a call stack, an
// output stream and the choices generated so far. Flows share the global
// variables.
type flow struct {
	name      string
	callStack *runtime.CallStack
	output    *arraylist.List // of content.Object
	choices   []*Choice
	// Start of output held back from the current line, -1 if none.
	pending int
}

func newFlow(name string, root *content.Container) *flow {
	return &flow{
		name:      name,
		callStack: runtime.NewCallStack(root),
		output:    arraylist.New(),
		pending:   -1,
	}
}

// copy returns a flow with a deep copy of the call stack. Output objects
// and choices are shared.
func (f *flow) copy() *flow {
	c := &flow{
		name:      f.name,
		callStack: f.callStack.Clone(),
		output:    arraylist.New(f.output.Values()...),
		pending:   f.pending,
	}
	c.choices = append(c.choices, f.choices...)
	return c
}

// token creates the save state token of a flow. Threads of choices which are
// no longer active on the call stack are saved along with the choices.
func (f *flow) token() (wire.Dict, error) {
	cs, err := f.callStack.Token()
	if err != nil {
		return nil, err
	}
	out, err := wire.ObjectsToTokens(objects(f.output))
	if err != nil {
		return nil, err
	}
	tok := wire.Dict{{Key: "callstack", Value: cs}, {Key: "outputStream", Value: out}}
	choiceThreads := wire.Dict{}
	seen := make(map[int]bool)
	choices := make([]interface{}, 0, len(f.choices))
	for _, c := range f.choices {
		c.OriginalThreadIndex = c.threadAtGeneration.Index
		if f.callStack.ThreadWithIndex(c.OriginalThreadIndex) == nil && !seen[c.OriginalThreadIndex] {
			seen[c.OriginalThreadIndex] = true
			th, err := c.threadAtGeneration.Token()
			if err != nil {
				return nil, err
			}
			choiceThreads.Set(strconv.Itoa(c.OriginalThreadIndex), th)
		}
		choices = append(choices, c.record().Token())
	}
	if len(choiceThreads) > 0 {
		tok.Set("choiceThreads", choiceThreads)
	}
	tok.Set("currentChoices", choices)
	if f.pending >= 0 {
		tok.Set("pendingOutput", f.pending)
	}
	return tok, nil
}

// loadFlow reads a flow from its save state token.
func loadFlow(name string, tok interface{}, root *content.Container, warn runtime.Warner) (*flow, error) {
	obj, ok := tok.(map[string]interface{})
	if !ok {
		return nil, goink.Errorf(goink.MalformedDocument, "flow %s: token is not an object", name)
	}
	f := newFlow(name, root)
	if err := f.callStack.LoadToken(obj["callstack"], warn); err != nil {
		return nil, err
	}
	if err := f.loadOutput(obj["outputStream"]); err != nil {
		return nil, err
	}
	if err := f.loadChoices(obj["currentChoices"]); err != nil {
		return nil, err
	}
	if err := f.loadChoiceThreads(obj["choiceThreads"], root, warn); err != nil {
		return nil, err
	}
	if p, ok := wire.Int(obj["pendingOutput"]); ok && p <= f.output.Size() {
		f.pending = p
	}
	return f, nil
}

func (f *flow) loadOutput(tok interface{}) error {
	toks, _ := tok.([]interface{})
	objs, err := wire.TokensToObjects(toks)
	if err != nil {
		return err
	}
	f.output.Clear()
	for _, o := range objs {
		f.output.Add(o)
	}
	return nil
}

func (f *flow) loadChoices(tok interface{}) error {
	toks, _ := tok.([]interface{})
	f.choices = f.choices[:0]
	for _, t := range toks {
		cr, err := wire.ChoiceFromToken(t)
		if err != nil {
			return err
		}
		f.choices = append(f.choices, choiceFromRecord(cr))
	}
	return nil
}

// loadChoiceThreads restores the threads choices have been generated in.
// Threads still active on the call stack are copied from there.
func (f *flow) loadChoiceThreads(tok interface{}, root *content.Container, warn runtime.Warner) error {
	saved, _ := tok.(map[string]interface{})
	for _, c := range f.choices {
		if th := f.callStack.ThreadWithIndex(c.OriginalThreadIndex); th != nil {
			c.threadAtGeneration = th.Copy()
			continue
		}
		thTok, ok := saved[strconv.Itoa(c.OriginalThreadIndex)]
		if !ok {
			return goink.Errorf(goink.MalformedDocument,
				"no thread %d saved for choice '%s'", c.OriginalThreadIndex, c.Text)
		}
		th, err := runtime.ThreadFromToken(thTok, root, warn)
		if err != nil {
			return err
		}
		c.threadAtGeneration = th
	}
	return nil
}

// flowNames returns the names of a set of flows, sorted.
func flowNames(flows map[string]*flow) []string {
	names := make([]string, 0, len(flows))
	for name := range flows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func objects(l *arraylist.List) []content.Object {
	objs := make([]content.Object, l.Size())
	for i, v := range l.Values() {
		objs[i] = v.(content.Object)
	}
	return objs
}

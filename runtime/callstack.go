package runtime

import (
	"fmt"
	"strings"

	"github.com/npillmayer/goink"
	"github.com/npillmayer/goink/content"
)

// This module implements a stack of call frames, organized in threads.
// Frames are used by the interpreter to allocate local storage (temporary
// variables) for tunnels and functions.

// Frame is a call stack element, representing a tunnel or function call
// in progress.
type Frame struct {
	CurrentPointer         content.Pointer
	pushType               content.PushPopType
	Temporaries            *SymbolTable
	InExpressionEvaluation bool
	// Height of the evaluation stack when a function was called by the host.
	// Used to find out whether the function produced a return value.
	EvaluationStackHeightWhenPushed int
	// Start of the function's output, for trimming whitespace around it.
	FunctionStartInOutputStream int
}

// NewFrame creates a frame with an empty set of temporaries.
func NewFrame(t content.PushPopType, p content.Pointer, inExpression bool) *Frame {
	return &Frame{
		CurrentPointer:         p,
		pushType:               t,
		Temporaries:            NewSymbolTable(),
		InExpressionEvaluation: inExpression,
	}
}

// Copy returns a copy of a frame, including a copy of its temporaries.
func (f *Frame) Copy() *Frame {
	c := *f
	c.Temporaries = f.Temporaries.Copy()
	return &c
}

// Type is the kind of push which created the frame. It never changes.
func (f *Frame) Type() content.PushPopType {
	return f.pushType
}

func (f *Frame) String() string {
	return fmt.Sprintf("<frame %s @ %v>", f.pushType, f.CurrentPointer)
}

// ---------------------------------------------------------------------------

// Thread is a stack of frames. Every thread carries an index, unique within
// its call stack.
type Thread struct {
	Frames          []*Frame
	Index           int
	PreviousPointer content.Pointer
}

// NewThread creates an empty thread.
func NewThread() *Thread {
	return &Thread{PreviousPointer: content.NullPointer}
}

// Copy returns a deep copy of a thread.
func (th *Thread) Copy() *Thread {
	c := &Thread{
		Frames:          make([]*Frame, len(th.Frames)),
		Index:           th.Index,
		PreviousPointer: th.PreviousPointer,
	}
	for i, f := range th.Frames {
		c.Frames[i] = f.Copy()
	}
	return c
}

// ---------------------------------------------------------------------------

// CallStack is a stack of threads, each holding a stack of frames. The
// topmost thread is the current one.
type CallStack struct {
	threads       []*Thread
	threadCounter int
	startOfRoot   content.Pointer
}

// NewCallStack creates a call stack with a single thread, positioned at the
// start of the root container.
func NewCallStack(root *content.Container) *CallStack {
	cs := &CallStack{startOfRoot: content.StartOf(root)}
	cs.Reset()
	return cs
}

// Clone returns a deep copy of a call stack.
func (cs *CallStack) Clone() *CallStack {
	c := &CallStack{
		threads:       make([]*Thread, len(cs.threads)),
		threadCounter: cs.threadCounter,
		startOfRoot:   cs.startOfRoot,
	}
	for i, th := range cs.threads {
		c.threads[i] = th.Copy()
	}
	return c
}

// Reset drops all threads and frames and starts over at the root container.
func (cs *CallStack) Reset() {
	th := NewThread()
	th.Frames = append(th.Frames, NewFrame(content.Tunnel, cs.startOfRoot, false))
	cs.threads = []*Thread{th}
}

// Elements returns the frames of the current thread.
func (cs *CallStack) Elements() []*Frame {
	return cs.CurrentThread().Frames
}

// Depth returns the number of frames of the current thread.
func (cs *CallStack) Depth() int {
	return len(cs.Elements())
}

// CurrentElement returns the topmost frame of the current thread.
func (cs *CallStack) CurrentElement() *Frame {
	frames := cs.Elements()
	return frames[len(frames)-1]
}

// CurrentElementIndex returns the (0-based) index of the topmost frame.
func (cs *CallStack) CurrentElementIndex() int {
	return len(cs.Elements()) - 1
}

// CurrentThread returns the topmost thread.
func (cs *CallStack) CurrentThread() *Thread {
	return cs.threads[len(cs.threads)-1]
}

// SetCurrentThread replaces the single thread of the call stack. It is an
// error to call it while more than one thread is active.
func (cs *CallStack) SetCurrentThread(th *Thread) error {
	if len(cs.threads) != 1 {
		return goink.Errorf(goink.StackDiscipline,
			"Shouldn't be directly setting the current thread when we have a stack of them")
	}
	cs.threads[0] = th
	return nil
}

// ThreadCount returns the number of active threads.
func (cs *CallStack) ThreadCount() int {
	return len(cs.threads)
}

// CanPop is a predicate: is there a frame above the bottom frame?
func (cs *CallStack) CanPop() bool {
	return len(cs.Elements()) > 1
}

// CanPopType is a predicate: is there a frame above the bottom frame and is
// the topmost frame of type t?
func (cs *CallStack) CanPopType(t content.PushPopType) bool {
	return cs.CanPop() && cs.CurrentElement().Type() == t
}

// ElementIsEvaluateFromGame is a predicate: is the topmost frame a function
// evaluation started by the host?
func (cs *CallStack) ElementIsEvaluateFromGame() bool {
	return cs.CurrentElement().Type() == content.FunctionEvaluationFromGame
}

// CanPopThread is a predicate: may the current thread be popped?
func (cs *CallStack) CanPopThread() bool {
	return len(cs.threads) > 1 && !cs.ElementIsEvaluateFromGame()
}

// Push pushes a new frame. The frame inherits the current pointer, but is
// never in expression evaluation mode.
func (cs *CallStack) Push(t content.PushPopType, evalStackHeight, outputStreamLength int) {
	f := NewFrame(t, cs.CurrentElement().CurrentPointer, false)
	f.EvaluationStackHeightWhenPushed = evalStackHeight
	f.FunctionStartInOutputStream = outputStreamLength
	th := cs.CurrentThread()
	th.Frames = append(th.Frames, f)
	T().P("frame", t).Debugf("pushing call frame, depth = %d", len(th.Frames))
}

// Pop removes the topmost frame, which has to be of type t.
func (cs *CallStack) Pop(t content.PushPopType) error {
	if !cs.CanPopType(t) {
		return goink.Errorf(goink.StackDiscipline, "Mismatched push/pop in Callstack")
	}
	return cs.pop()
}

// PopAny removes the topmost frame, regardless of its type.
func (cs *CallStack) PopAny() error {
	if !cs.CanPop() {
		return goink.Errorf(goink.StackDiscipline, "Mismatched push/pop in Callstack")
	}
	return cs.pop()
}

func (cs *CallStack) pop() error {
	th := cs.CurrentThread()
	T().P("frame", th.Frames[len(th.Frames)-1].Type()).Debugf("popping call frame")
	th.Frames[len(th.Frames)-1] = nil
	th.Frames = th.Frames[:len(th.Frames)-1]
	return nil
}

// PushThread pushes a copy of the current thread, with a new index.
func (cs *CallStack) PushThread() {
	th := cs.ForkThread()
	cs.threads = append(cs.threads, th)
	T().P("thread", th.Index).Debugf("pushing thread")
}

// ForkThread returns a copy of the current thread, with a new index. The
// copy is not pushed.
func (cs *CallStack) ForkThread() *Thread {
	th := cs.CurrentThread().Copy()
	cs.threadCounter++
	th.Index = cs.threadCounter
	return th
}

// PopThread removes the current thread.
func (cs *CallStack) PopThread() error {
	if !cs.CanPopThread() {
		return goink.Errorf(goink.StackDiscipline, "Can't pop thread")
	}
	T().P("thread", cs.CurrentThread().Index).Debugf("popping thread")
	cs.threads[len(cs.threads)-1] = nil
	cs.threads = cs.threads[:len(cs.threads)-1]
	return nil
}

// ThreadWithIndex finds an active thread by index. Returns nil if no thread
// with this index is active.
func (cs *CallStack) ThreadWithIndex(index int) *Thread {
	for _, th := range cs.threads {
		if th.Index == index {
			return th
		}
	}
	return nil
}

// --- Temporary variables ---------------------------------------------------

// frameForContext maps a context index to a frame of the current thread.
// Context indices are 1-based; -1 denotes the topmost frame.
func (cs *CallStack) frameForContext(contextIndex int) *Frame {
	frames := cs.Elements()
	if contextIndex == -1 {
		contextIndex = len(frames)
	}
	if contextIndex < 1 || contextIndex > len(frames) {
		return nil
	}
	return frames[contextIndex-1]
}

// GetTemporaryVariable returns the value of a temporary variable in a given
// context, or nil.
func (cs *CallStack) GetTemporaryVariable(name string, contextIndex int) content.Value {
	f := cs.frameForContext(contextIndex)
	if f == nil {
		return nil
	}
	v, _ := f.Temporaries.Resolve(name)
	return v
}

// SetTemporaryVariable sets a temporary variable in a given context. Unless
// declareNew is set, the variable has to exist already.
func (cs *CallStack) SetTemporaryVariable(name string, v content.Value, declareNew bool, contextIndex int) error {
	f := cs.frameForContext(contextIndex)
	if f == nil {
		return goink.Errorf(goink.StackDiscipline, "no call frame for context index %d", contextIndex)
	}
	old, found := f.Temporaries.Resolve(name)
	if !declareNew && !found {
		return goink.Errorf(goink.RuntimeLogic, "Could not find temporary variable to set: %s", name)
	}
	if found {
		content.RetainListOriginsForAssignment(old, v)
	}
	f.Temporaries.Define(name, v)
	return nil
}

// ContextForVariableNamed returns the context index of a variable: the
// topmost frame if it holds a temporary of this name, 0 (global) otherwise.
// Frames further down are never consulted.
func (cs *CallStack) ContextForVariableNamed(name string) int {
	if cs.CurrentElement().Temporaries.Contains(name) {
		return cs.CurrentElementIndex() + 1
	}
	return 0
}

// CallStackTrace returns a human readable dump of all threads and frames.
func (cs *CallStack) CallStackTrace() string {
	var b strings.Builder
	for t, th := range cs.threads {
		current := ""
		if t == len(cs.threads)-1 {
			current = "(current) "
		}
		fmt.Fprintf(&b, "=== THREAD %d/%d %s===\n", t+1, len(cs.threads), current)
		for _, f := range th.Frames {
			if f.Type() == content.Function {
				b.WriteString("  [FUNCTION] ")
			} else {
				b.WriteString("  [TUNNEL] ")
			}
			if !f.CurrentPointer.IsNull() {
				fmt.Fprintf(&b, "<SOMEWHERE IN %s>", content.PathOf(f.CurrentPointer.Container))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

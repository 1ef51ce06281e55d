package story

import (
	"math"
	"math/rand"
	"strings"

	"github.com/npillmayer/goink"
	"github.com/npillmayer/goink/content"
	"github.com/npillmayer/goink/runtime"
)

// step executes a single content object.
func (s *Story) step() error {
	ptr := s.state.currentPointer()
	if ptr.IsNull() {
		return nil
	}
	// step into containers, down to the first leaf
	c, _ := ptr.Resolve().(*content.Container)
	for c != nil {
		s.visitContainer(c, true)
		if len(c.Content) == 0 {
			break
		}
		ptr = content.StartOf(c)
		c, _ = ptr.Resolve().(*content.Container)
	}
	s.state.setCurrentPointer(ptr)
	obj := ptr.Resolve()
	tracer().Debugf("step %v", obj)
	isFlowControl, err := s.performLogicAndFlowControl(obj)
	if err != nil {
		return err
	}
	if s.state.currentPointer().IsNull() {
		return nil
	}
	addToStream := !isFlowControl
	switch x := obj.(type) {
	case *content.ChoicePoint:
		choice, err := s.processChoice(x)
		if err != nil {
			return err
		}
		if choice != nil {
			s.state.flow.choices = append(s.state.flow.choices, choice)
		}
		obj, addToStream = nil, false
	case *content.Container:
		addToStream = false
	}
	if addToStream {
		if vp, ok := obj.(*content.VariablePointerValue); ok && vp.ContextIndex == -1 {
			ctx := s.state.callStack().ContextForVariableNamed(vp.Name)
			obj = &content.VariablePointerValue{Name: vp.Name, ContextIndex: ctx}
		}
		if s.state.inExpressionEvaluation() {
			s.state.pushEvaluationStack(obj)
		} else {
			s.state.pushToOutputStream(obj)
		}
	}
	if err := s.nextContent(); err != nil {
		return err
	}
	// threads start after the increment, to return to the content after
	// the thread command
	if isCommand(obj, content.StartThread) {
		s.state.callStack().PushThread()
	}
	return nil
}

// --- Visit counting --------------------------------------------------------

func (s *Story) visitContainer(c *content.Container, atStart bool) {
	if c.CountingAtStartOnly && !atStart {
		return
	}
	if c.VisitsShouldBeCounted {
		s.state.incrementVisitCountForContainer(c)
	}
	if c.TurnIndexShouldBeCounted {
		s.state.recordTurnIndexVisitToContainer(c)
	}
}

// visitChangedContainersDueToDivert counts visits to all containers entered
// by a divert, i.e. ancestors of the new location which have not been
// ancestors of the previous one.
func (s *Story) visitChangedContainersDueToDivert() {
	prev, ptr := s.state.previousPointer(), s.state.currentPointer()
	if ptr.IsNull() || ptr.Index == -1 {
		return
	}
	prevContainers := make(map[*content.Container]bool)
	if !prev.IsNull() {
		ancestor, ok := prev.Resolve().(*content.Container)
		if !ok {
			ancestor = prev.Container
		}
		for ; ancestor != nil; ancestor = ancestor.Parent() {
			prevContainers[ancestor] = true
		}
	}
	child := ptr.Resolve()
	if child == nil {
		return
	}
	allEnteredAtStart := true
	for ancestor := child.Parent(); ancestor != nil && (!prevContainers[ancestor] || ancestor.CountingAtStartOnly); ancestor = ancestor.Parent() {
		atStart := len(ancestor.Content) > 0 && ancestor.Content[0] == child && allEnteredAtStart
		if !atStart {
			allEnteredAtStart = false
		}
		s.visitContainer(ancestor, atStart)
		child = ancestor
	}
}

// --- Moving on -------------------------------------------------------------

func (s *Story) nextContent() error {
	s.state.setPreviousPointer(s.state.currentPointer())
	if !s.state.divertedPointer.IsNull() {
		s.state.setCurrentPointer(s.state.divertedPointer)
		s.state.divertedPointer = content.NullPointer
		s.visitChangedContainersDueToDivert()
		if !s.state.currentPointer().IsNull() {
			return nil
		}
		// diverted to the end of a container: fall through and increment
	}
	if s.incrementContentPointer() {
		return nil
	}
	// ran out of content: auto-exit from a function, or finish a thread
	cs := s.state.callStack()
	didPop := false
	if cs.CanPopType(content.Function) {
		if err := s.state.popCallStack(content.Function); err != nil {
			return err
		}
		if s.state.inExpressionEvaluation() {
			s.state.pushEvaluationStack(&content.Void{})
		}
		didPop = true
	} else if cs.CanPopThread() {
		if err := cs.PopThread(); err != nil {
			return err
		}
		didPop = true
	} else {
		s.state.tryExitFunctionEvaluationFromGame()
	}
	if didPop && !s.state.currentPointer().IsNull() {
		return s.nextContent()
	}
	return nil
}

func (s *Story) incrementContentPointer() bool {
	frame := s.state.callStack().CurrentElement()
	ptr := frame.CurrentPointer
	ptr.Index++
	ok := true
	for ptr.Index >= len(ptr.Container.Content) {
		ok = false
		ancestor := ptr.Container.Parent()
		if ancestor == nil {
			break
		}
		i := ancestor.IndexOf(ptr.Container)
		if i == -1 {
			break
		}
		ptr = content.Pointer{Container: ancestor, Index: i + 1}
		ok = true
	}
	if !ok {
		ptr = content.NullPointer
	}
	frame.CurrentPointer = ptr
	return ok
}

// --- Choices ---------------------------------------------------------------

// processChoice creates a choice from a choice point. The choice's texts and
// condition are consumed from the evaluation stack, even if the choice is
// not shown. Returns nil for hidden choices.
func (s *Story) processChoice(cp *content.ChoicePoint) (*Choice, error) {
	show := true
	if cp.HasCondition {
		cond, err := s.state.popEvaluationStack()
		if err != nil {
			return nil, err
		}
		truthy, err := isTruthy(cond)
		if err != nil {
			return nil, err
		}
		show = truthy
	}
	var startText, choiceOnlyText string
	if cp.HasChoiceOnlyContent {
		obj, err := s.state.popEvaluationStack()
		if err != nil {
			return nil, err
		}
		if sv, ok := obj.(*content.StringValue); ok {
			choiceOnlyText = sv.V
		}
	}
	if cp.HasStartContent {
		obj, err := s.state.popEvaluationStack()
		if err != nil {
			return nil, err
		}
		if sv, ok := obj.(*content.StringValue); ok {
			startText = sv.V
		}
	}
	if cp.OnceOnly {
		if target := cp.ChoiceTarget(); target != nil && s.state.visitCountForContainer(target) > 0 {
			show = false
		}
	}
	if !show {
		return nil, nil
	}
	th := s.state.callStack().ForkThread()
	return &Choice{
		Text:                strings.Trim(startText+choiceOnlyText, " \t"),
		TargetPath:          cp.PathOnChoice(),
		SourcePath:          content.PathOf(cp).String(),
		IsInvisibleDefault:  cp.IsInvisibleDefault,
		OriginalThreadIndex: th.Index,
		threadAtGeneration:  th,
	}, nil
}

// tryFollowDefaultInvisibleChoice follows an invisible default choice, if it
// is the only kind of choice available.
func (s *Story) tryFollowDefaultInvisibleChoice() (bool, error) {
	choices := s.state.flow.choices
	if len(choices) == 0 {
		return false, nil
	}
	for _, c := range choices {
		if !c.IsInvisibleDefault {
			return false, nil
		}
	}
	choice := choices[0]
	cs := s.state.callStack()
	if err := cs.SetCurrentThread(choice.threadAtGeneration); err != nil {
		return false, err
	}
	// the choice thread must stay intact if the state may be rolled back
	if s.snapshot != nil {
		if err := cs.SetCurrentThread(cs.ForkThread()); err != nil {
			return false, err
		}
	}
	return true, s.choosePath(choice.TargetPath, false)
}

// isTruthy evaluates a condition.
func isTruthy(obj content.Object) (bool, error) {
	v, ok := obj.(content.Value)
	if !ok {
		return false, nil
	}
	if dt, ok := v.(*content.DivertTargetValue); ok {
		return false, goink.Errorf(goink.TypeCoercion,
			"Shouldn't use a divert target (to %s) as a conditional value. Did you intend a function call 'likeThis()' or a read count check 'likeThis'? (no arrows)", dt.Target)
	}
	return v.Truthy()
}

// --- Logic and flow control ------------------------------------------------

// performLogicAndFlowControl executes obj if it is a divert, command or other
// non-content object. Returns true in that case.
func (s *Story) performLogicAndFlowControl(obj content.Object) (bool, error) {
	switch x := obj.(type) {
	case nil:
		return false, nil
	case *content.Divert:
		return true, s.divert(x)
	case *content.ControlCommand:
		return true, s.command(x)
	case *content.VariableAssignment:
		v, err := s.state.popEvaluationStack()
		if err != nil {
			return true, err
		}
		val, ok := v.(content.Value)
		if !ok {
			return true, goink.Errorf(goink.TypeCoercion, "cannot assign %v to variable %s", v, x.Name)
		}
		return true, s.state.variables.Assign(x, val)
	case *content.VariableReference:
		var v content.Value
		if x.PathForCount != nil {
			c := x.ContainerForCount()
			if c == nil {
				return true, goink.Errorf(goink.PathResolutionFailure,
					"Failed to find container for read count at %s", x.PathStringForCount())
			}
			v = &content.IntValue{V: s.state.visitCountForContainer(c)}
		} else {
			v = s.state.variables.GetVariableWithName(x.Name, -1)
			if v == nil {
				s.warning(goink.RuntimeLogic,
					"Variable not found: '%s'. Using default value of 0 (false). This can happen with temporary variables if the declaration hasn't yet been hit. Globals are always given a default value on load if a value doesn't exist in the save state.", x.Name)
				v = &content.IntValue{V: 0}
			}
		}
		s.state.pushEvaluationStack(v)
		return true, nil
	case *content.NativeFunctionCall:
		params, err := s.state.popEvaluationStackN(x.Arity())
		if err != nil {
			return true, err
		}
		result, err := x.Call(params)
		if err != nil {
			return true, err
		}
		s.state.pushEvaluationStack(result)
		return true, nil
	}
	return false, nil
}

func (s *Story) divert(d *content.Divert) error {
	if d.IsConditional {
		cond, err := s.state.popEvaluationStack()
		if err != nil {
			return err
		}
		if truthy, err := isTruthy(cond); err != nil || !truthy {
			return err
		}
	}
	switch {
	case d.HasVariableTarget():
		name := d.VariableDivertName
		v := s.state.variables.GetVariableWithName(name, -1)
		target, ok := v.(*content.DivertTargetValue)
		if !ok {
			if v == nil {
				return goink.Errorf(goink.RuntimeLogic,
					"Tried to divert using a target from a variable that could not be found (%s)", name)
			}
			if iv, isInt := v.(*content.IntValue); isInt && iv.V == 0 {
				return goink.Errorf(goink.RuntimeLogic,
					"Tried to divert to a target from a variable, but the variable (%s) didn't contain a divert target, it was empty/null (the value 0).", name)
			}
			return goink.Errorf(goink.RuntimeLogic,
				"Tried to divert to a target from a variable, but the variable (%s) didn't contain a divert target, it contained '%v'.", name, v)
		}
		s.state.divertedPointer = s.pointerAtPath(target.Target)
	case d.IsExternal:
		return s.callExternalFunction(d.TargetPathString(), d.ExternalArgs)
	default:
		s.state.divertedPointer = d.TargetPointer()
	}
	if d.PushesToStack {
		s.state.callStack().Push(d.StackPushType, 0, s.state.flow.output.Size())
	}
	if s.state.divertedPointer.IsNull() {
		return goink.Errorf(goink.PathResolutionFailure, "Divert resolution failed: %v", d)
	}
	return nil
}

// pointerAtPath resolves a path from the root, warning about approximated
// content.
func (s *Story) pointerAtPath(p *content.Path) content.Pointer {
	ptr, e := runtime.PointerAtPath(s.root, p)
	if e != nil {
		s.addError(e)
	}
	return ptr
}

func (s *Story) command(cmd *content.ControlCommand) error {
	st := s.state
	switch cmd.Type {
	case content.EvalStart:
		st.setInExpressionEvaluation(true)
	case content.EvalEnd:
		st.setInExpressionEvaluation(false)
	case content.EvalOutput:
		if st.evalStack.Size() == 0 {
			break
		}
		out, _ := st.popEvaluationStack()
		if _, isVoid := out.(*content.Void); !isVoid {
			st.pushToOutputStream(&content.StringValue{V: stringOf(out)})
		}
	case content.NoOp:
	case content.Duplicate:
		top, err := st.peekEvaluationStack()
		if err != nil {
			return err
		}
		st.pushEvaluationStack(top)
	case content.PopEvaluatedValue:
		if _, err := st.popEvaluationStack(); err != nil {
			return err
		}
	case content.PopFunction, content.PopTunnel:
		return s.popFrame(cmd.Type)
	case content.BeginString:
		st.pushToOutputStream(cmd)
		st.setInExpressionEvaluation(false)
	case content.EndString:
		return s.endString()
	case content.ChoiceCount:
		st.pushEvaluationStack(&content.IntValue{V: len(st.flow.choices)})
	case content.Turns:
		st.pushEvaluationStack(&content.IntValue{V: st.turnIndex + 1})
	case content.TurnsSince, content.ReadCount:
		return s.countCommand(cmd)
	case content.Random:
		return s.random()
	case content.SeedRandom:
		seed, err := s.popInt("SEED_RANDOM")
		if err != nil {
			return err
		}
		st.storySeed = seed
		st.previousRandom = 0
		st.pushEvaluationStack(&content.Void{})
	case content.VisitIndex:
		n := st.visitCountForContainer(st.currentPointer().Container) - 1
		st.pushEvaluationStack(&content.IntValue{V: n})
	case content.SequenceShuffleIndex:
		index, err := s.nextSequenceShuffleIndex()
		if err != nil {
			return err
		}
		st.pushEvaluationStack(&content.IntValue{V: index})
	case content.StartThread:
		// done by step, after the pointer has moved on
	case content.Done:
		if st.callStack().CanPopThread() {
			return st.callStack().PopThread()
		}
		st.didSafeExit = true
		st.setCurrentPointer(content.NullPointer)
	case content.End:
		st.forceEnd()
	case content.ListFromInt:
		return s.listFromInt()
	case content.ListRange:
		return s.listRange()
	case content.ListRandom:
		return s.listRandom()
	default:
		return goink.Errorf(goink.MalformedDocument, "unhandled control command %v", cmd)
	}
	return nil
}

func stringOf(obj content.Object) string {
	if v, ok := obj.(content.Value); ok {
		return v.String()
	}
	return ""
}

var frameNames = map[content.PushPopType]string{
	content.Function: "function return statement (~ return)",
	content.Tunnel:   "tunnel onwards statement (->->)",
}

// popFrame returns from a function or tunnel. A tunnel return may divert
// to a target left on the evaluation stack.
func (s *Story) popFrame(t content.CommandType) error {
	st := s.state
	popType := content.Function
	if t == content.PopTunnel {
		popType = content.Tunnel
	}
	var override *content.DivertTargetValue
	if popType == content.Tunnel {
		obj, err := st.popEvaluationStack()
		if err != nil {
			return err
		}
		if dt, ok := obj.(*content.DivertTargetValue); ok {
			override = dt
		} else if _, isVoid := obj.(*content.Void); !isVoid {
			return goink.Errorf(goink.StackDiscipline, "Expected void if ->-> doesn't override target")
		}
	}
	if st.tryExitFunctionEvaluationFromGame() {
		return nil
	}
	cs := st.callStack()
	if top := cs.CurrentElement(); top.Type() != popType || !cs.CanPop() {
		found := "end of flow (-> END or choice)"
		if cs.CanPop() {
			found = frameNames[top.Type()]
		}
		return goink.Errorf(goink.StackDiscipline, "Found %s, when expected %s", found, frameNames[popType])
	}
	if err := st.popCallStack(popType); err != nil {
		return err
	}
	if override != nil {
		st.divertedPointer = s.pointerAtPath(override.Target)
	}
	return nil
}

// endString collects the output since the matching BeginString into a
// string value.
func (s *Story) endString() error {
	st := s.state
	out := st.flow.output
	var parts []string
	count := 0
	for i := out.Size() - 1; i >= 0; i-- {
		o, _ := out.Get(i)
		count++
		if isCommand(o, content.BeginString) {
			break
		}
		if sv, ok := o.(*content.StringValue); ok {
			parts = append(parts, sv.V)
		}
	}
	st.popFromOutputStream(count)
	var b strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteString(parts[i])
	}
	st.setInExpressionEvaluation(true)
	st.pushEvaluationStack(&content.StringValue{V: b.String()})
	return nil
}

func (s *Story) countCommand(cmd *content.ControlCommand) error {
	st := s.state
	obj, err := st.popEvaluationStack()
	if err != nil {
		return err
	}
	target, ok := obj.(*content.DivertTargetValue)
	if !ok {
		extra := ""
		if _, isInt := obj.(*content.IntValue); isInt {
			extra = ". Did you accidentally pass a read count ('knot_name') instead of a target ('-> knot_name')?"
		}
		return goink.Errorf(goink.TypeCoercion, "TURNS_SINCE / READ_COUNT expected a divert target (knot, stitch, label name), but saw %v%s", obj, extra)
	}
	c, _ := s.root.ContentAtPath(target.Target).CorrectObj().(*content.Container)
	n := 0
	if c == nil {
		if cmd.Type == content.TurnsSince {
			n = -1
		}
		s.warning(goink.PathResolutionFailure, "Failed to find container for %v lookup at %s", cmd, target.Target)
	} else if cmd.Type == content.TurnsSince {
		if n, err = st.turnsSinceForContainer(c); err != nil {
			return err
		}
	} else {
		n = st.visitCountForContainer(c)
	}
	st.pushEvaluationStack(&content.IntValue{V: n})
	return nil
}

// --- Randomness ------------------------------------------------------------

// newRandom creates a generator for a seed. Sequences are fully determined
// by the seed.
func newRandom(seed int) *rand.Rand {
	return rand.New(rand.NewSource(int64(seed)))
}

func (s *Story) popInt(what string) (int, error) {
	obj, err := s.state.popEvaluationStack()
	if err != nil {
		return 0, err
	}
	iv, ok := obj.(*content.IntValue)
	if !ok {
		return 0, goink.Errorf(goink.TypeCoercion, "Invalid value for %s: %v", what, obj)
	}
	return iv.V, nil
}

func (s *Story) random() error {
	st := s.state
	hi, err := s.popInt("maximum parameter of RANDOM(min, max)")
	if err != nil {
		return err
	}
	lo, err := s.popInt("minimum parameter of RANDOM(min, max)")
	if err != nil {
		return err
	}
	r := int64(hi) - int64(lo) + 1
	if r > math.MaxInt32 || r < math.MinInt32 {
		return goink.Errorf(goink.RuntimeLogic,
			"RANDOM was called with a range that exceeds the size that ink numbers can use.")
	}
	if r <= 0 {
		return goink.Errorf(goink.RuntimeLogic,
			"RANDOM was called with minimum as %d and maximum as %d. The maximum must be larger", lo, hi)
	}
	next := int(newRandom(st.storySeed + st.previousRandom).Int31())
	st.pushEvaluationStack(&content.IntValue{V: next%int(r) + lo})
	st.previousRandom = next
	return nil
}

// nextSequenceShuffleIndex picks the next element of a shuffle. The order of
// a shuffle is fixed by the path of its container, the number of loops
// through the shuffle and the story seed.
func (s *Story) nextSequenceShuffleIndex() (int, error) {
	st := s.state
	numElements, err := s.popInt("number of elements in sequence for shuffle index")
	if err != nil {
		return 0, err
	}
	seqCount, err := s.popInt("sequence count for shuffle index")
	if err != nil {
		return 0, err
	}
	if numElements <= 0 {
		return 0, goink.Errorf(goink.RuntimeLogic, "shuffle with %d elements", numElements)
	}
	loopIndex := seqCount / numElements
	iterationIndex := seqCount % numElements
	hash := 0
	for _, c := range content.PathOf(st.currentPointer().Container).String() {
		hash += int(c)
	}
	r := newRandom(hash + loopIndex + st.storySeed)
	unpicked := make([]int, numElements)
	for i := range unpicked {
		unpicked[i] = i
	}
	for i := 0; ; i++ {
		chosen := int(r.Int31()) % len(unpicked)
		index := unpicked[chosen]
		unpicked = append(unpicked[:chosen], unpicked[chosen+1:]...)
		if i == iterationIndex {
			return index, nil
		}
	}
}

// --- Lists -----------------------------------------------------------------

func (s *Story) listFromInt() error {
	st := s.state
	iobj, err := st.popEvaluationStack()
	if err != nil {
		return err
	}
	nobj, err := st.popEvaluationStack()
	if err != nil {
		return err
	}
	iv, ok := iobj.(*content.IntValue)
	if !ok {
		return goink.Errorf(goink.TypeCoercion, "Passed non-integer when creating a list element from a numerical value.")
	}
	name := stringOf(nobj)
	def, ok := s.listDefs.Definition(name)
	if !ok {
		return goink.Errorf(goink.RuntimeLogic, "Failed to find LIST called %s", name)
	}
	if item, found := def.TryGetItemWithValue(iv.V); found {
		st.pushEvaluationStack(content.NewSingleItemListValue(item, iv.V))
	} else {
		st.pushEvaluationStack(content.NewListValue(content.NewInkList()))
	}
	return nil
}

func (s *Story) listRange() error {
	st := s.state
	objs, err := st.popEvaluationStackN(3)
	if err != nil {
		return err
	}
	l, ok := objs[0].(*content.ListValue)
	lo, okMin := objs[1].(content.Value)
	hi, okMax := objs[2].(content.Value)
	if !ok || !okMin || !okMax {
		return goink.Errorf(goink.TypeCoercion, "Expected list, minimum and maximum for LIST_RANGE")
	}
	st.pushEvaluationStack(content.NewListValue(l.List.ListWithSubRange(lo.Native(), hi.Native())))
	return nil
}

func (s *Story) listRandom() error {
	st := s.state
	obj, err := st.popEvaluationStack()
	if err != nil {
		return err
	}
	lv, ok := obj.(*content.ListValue)
	if !ok {
		return goink.Errorf(goink.TypeCoercion, "Expected list for LIST_RANDOM")
	}
	if lv.List.Len() == 0 {
		st.pushEvaluationStack(content.NewListValue(content.NewInkList()))
		return nil
	}
	next := int(newRandom(st.storySeed + st.previousRandom).Int31())
	items := lv.List.OrderedItems()
	iv := items[next%len(items)]
	result := content.NewSingleItemListValue(iv.Item, iv.Value)
	result.List.SetInitialOriginName(iv.Item.OriginName)
	st.pushEvaluationStack(result)
	st.previousRandom = next
	return nil
}

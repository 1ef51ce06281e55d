package story

import (
	"sort"
	"strings"

	"github.com/npillmayer/goink"
	"github.com/npillmayer/goink/content"
)

// ExternalFunction is a host function bound to an EXTERNAL declaration of
// a story. Arguments are Go values as returned by content.Value.Native,
// in call order. A nil result returns nothing to the story; any other
// result must be convertible by content.CreateValue.
type ExternalFunction func(args []interface{}) (interface{}, error)

type externalFunction struct {
	fn            ExternalFunction
	arity         int // -1 for any number of arguments
	lookaheadSafe bool
}

// BindExternalFunction binds a host function to an EXTERNAL function of the
// story. If arity is not negative, calls with a different number of
// arguments are errors.
//
// The story may evaluate content beyond the current line before presenting
// it. Functions which are not lookaheadSafe are never called during such a
// lookahead; the lookahead is cut short instead.
func (s *Story) BindExternalFunction(name string, arity int, lookaheadSafe bool, fn ExternalFunction) error {
	if err := s.ifAsyncWeCant("bind an external function"); err != nil {
		return err
	}
	if _, ok := s.externals[name]; ok {
		return goink.Errorf(goink.RuntimeLogic, "Function '%s' has already been bound.", name)
	}
	s.externals[name] = &externalFunction{fn: fn, arity: arity, lookaheadSafe: lookaheadSafe}
	tracer().Debugf("bound external function %s/%d", name, arity)
	return nil
}

// UnbindExternalFunction removes the binding of an external function.
func (s *Story) UnbindExternalFunction(name string) error {
	if err := s.ifAsyncWeCant("unbind an external a function"); err != nil {
		return err
	}
	if _, ok := s.externals[name]; !ok {
		return goink.Errorf(goink.RuntimeLogic, "Function '%s' has not been bound.", name)
	}
	delete(s.externals, name)
	return nil
}

// callExternalFunction calls a bound host function, or diverts to the ink
// fallback function of the same name.
func (s *Story) callExternalFunction(name string, argc int) error {
	st := s.state
	ext, found := s.externals[name]
	if found && !ext.lookaheadSafe && s.snapshot != nil {
		s.sawUnsafeExternal = true
		return nil
	}
	if !found {
		if !s.allowExternalFallbacks {
			return goink.Errorf(goink.UnboundExternal,
				"Trying to call EXTERNAL function '%s' which has not been bound (and ink fallbacks disabled).", name)
		}
		fallback := s.knotContainerWithName(name)
		if fallback == nil {
			return goink.Errorf(goink.UnboundExternal,
				"Trying to call EXTERNAL function '%s' which has not been bound, and fallback ink function could not be found.", name)
		}
		st.callStack().Push(content.Function, 0, st.flow.output.Size())
		st.divertedPointer = content.StartOf(fallback)
		return nil
	}
	if ext.arity >= 0 && ext.arity != argc {
		return goink.Errorf(goink.TypeCoercion,
			"External function '%s' expects %d arguments, but is called with %d", name, ext.arity, argc)
	}
	objs, err := st.popEvaluationStackN(argc)
	if err != nil {
		return err
	}
	args := make([]interface{}, len(objs))
	for i, obj := range objs {
		v, ok := obj.(content.Value)
		if !ok {
			return goink.Errorf(goink.TypeCoercion, "argument %d of external function '%s' is not a value: %v", i, name, obj)
		}
		args[i] = v.Native()
	}
	tracer().Debugf("calling external %s%v", name, args)
	result, err := ext.fn(args)
	if err != nil {
		return goink.Errorf(goink.RuntimeLogic, "external function '%s': %v", name, err)
	}
	if result == nil {
		st.pushEvaluationStack(&content.Void{})
		return nil
	}
	v := content.CreateValue(result)
	if v == nil {
		return goink.Errorf(goink.TypeCoercion, "Could not create ink value from returned object of type %T", result)
	}
	st.pushEvaluationStack(v)
	return nil
}

// validateExternalBindings checks that every external function is either
// bound or backed by a fallback function.
func (s *Story) validateExternalBindings() error {
	missing := make(map[string]struct{})
	s.collectMissingExternals(s.root, missing)
	s.hasValidatedExternals = true
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, 0, len(missing))
	for name := range missing {
		names = append(names, name)
	}
	sort.Strings(names)
	plural := ""
	if len(names) > 1 {
		plural = "s"
	}
	reason := " (ink fallbacks disabled)"
	if s.allowExternalFallbacks {
		reason = ", and no fallback ink function found."
	}
	return goink.Errorf(goink.UnboundExternal, "ERROR: Missing function binding for external%s: '%s'%s",
		plural, strings.Join(names, "', '"), reason)
}

func (s *Story) collectMissingExternals(obj content.Object, missing map[string]struct{}) {
	switch x := obj.(type) {
	case *content.Container:
		for _, o := range x.Content {
			if c, ok := o.(*content.Container); ok && c.HasValidName() {
				continue // visited as named content
			}
			s.collectMissingExternals(o, missing)
		}
		for _, named := range x.NamedContent {
			s.collectMissingExternals(named, missing)
		}
	case *content.Divert:
		if !x.IsExternal {
			return
		}
		name := x.TargetPathString()
		if _, ok := s.externals[name]; ok {
			return
		}
		if s.allowExternalFallbacks && s.knotContainerWithName(name) != nil {
			return
		}
		missing[name] = struct{}{}
	}
}

package story

import (
	"strings"

	"github.com/npillmayer/goink"
	"github.com/npillmayer/goink/content"
)

// ChooseChoiceIndex chooses one of the current choices. Continue the story
// afterwards to produce the text of the choice.
func (s *Story) ChooseChoiceIndex(i int) error {
	choices := s.CurrentChoices()
	if i < 0 || i >= len(choices) {
		return goink.Errorf(goink.RuntimeLogic, "choice out of range")
	}
	choice := choices[i]
	tracer().Debugf("choosing %v", choice)
	if s.OnMakeChoice != nil {
		s.OnMakeChoice(choice)
	}
	if err := s.state.callStack().SetCurrentThread(choice.threadAtGeneration); err != nil {
		return err
	}
	return s.choosePath(choice.TargetPath, true)
}

// ChoosePathString moves the story to a knot, stitch or labelled gather.
// Arguments are passed to knots taking parameters. If resetCallstack is
// false, the current tunnels and threads are kept.
func (s *Story) ChoosePathString(path string, resetCallstack bool, args ...interface{}) error {
	if err := s.ifAsyncWeCant("call ChoosePathString right now"); err != nil {
		return err
	}
	if s.OnChoosePathString != nil {
		s.OnChoosePathString(path, args)
	}
	if resetCallstack {
		if err := s.ResetCallstack(); err != nil {
			return err
		}
	} else if top := s.state.callStack().CurrentElement(); top.Type() == content.Function {
		funcPath := ""
		if c := top.CurrentPointer.Container; c != nil {
			funcPath = content.PathOf(c).String()
		}
		return goink.Errorf(goink.StackDiscipline,
			"Story was running a function (%s) when you called ChoosePathString(%s) - this is almost certainly not not what you want! Full stack trace: \n%s",
			funcPath, path, s.state.callStack().CallStackTrace())
	}
	if err := s.state.passArgumentsToEvaluationStack(args); err != nil {
		return err
	}
	return s.choosePath(content.ParsePath(path), true)
}

func (s *Story) choosePath(p *content.Path, incrementingTurnIndex bool) error {
	if err := s.state.setChosenPath(p, incrementingTurnIndex); err != nil {
		return err
	}
	s.visitChangedContainersDueToDivert()
	return nil
}

// --- Functions -------------------------------------------------------------

// HasFunction is a predicate: does the story define a function of this name?
func (s *Story) HasFunction(name string) bool {
	return s.knotContainerWithName(name) != nil
}

func (s *Story) knotContainerWithName(name string) *content.Container {
	return s.root.NamedContent[name]
}

// EvaluateFunction calls an ink function from the host. It returns the
// function's return value, or nil, and the text the function produced.
// The output of the story is not changed.
func (s *Story) EvaluateFunction(name string, args ...interface{}) (interface{}, string, error) {
	if s.OnEvaluateFunction != nil {
		s.OnEvaluateFunction(name, args)
	}
	if err := s.ifAsyncWeCant("evaluate a function"); err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(name) == "" {
		return nil, "", goink.Errorf(goink.RuntimeLogic, "Function is empty or white space.")
	}
	fn := s.knotContainerWithName(name)
	if fn == nil {
		return nil, "", goink.Errorf(goink.PathResolutionFailure, "Function doesn't exist: '%s'", name)
	}
	f := s.state.flow
	savedOutput, savedPending := f.output.Values(), f.pending
	f.output.Clear()
	f.pending = -1
	restoreOutput := func() {
		f.output.Clear()
		f.output.Add(savedOutput...)
		f.pending = savedPending
	}
	if err := s.state.startFunctionEvaluationFromGame(fn, args); err != nil {
		restoreOutput()
		return nil, "", err
	}
	var text strings.Builder
	for s.CanContinue() {
		line, err := s.Continue()
		text.WriteString(line)
		if err != nil {
			restoreOutput()
			return nil, text.String(), err
		}
	}
	restoreOutput()
	result, err := s.state.completeFunctionEvaluationFromGame()
	if err != nil {
		return nil, text.String(), err
	}
	if s.OnCompleteEvaluate != nil {
		s.OnCompleteEvaluate(name, args, text.String(), result)
	}
	return result, text.String(), nil
}

package story

import (
	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/goccy/go-json"
	"github.com/npillmayer/goink"
	"github.com/npillmayer/goink/content"
	"github.com/npillmayer/goink/runtime"
	"github.com/npillmayer/goink/wire"
)

// Versions of the save state format.
const (
	SaveVersionCurrent           = 9
	SaveVersionMinimumCompatible = 8
)

// ToJSON saves the state as JSON.
func (s *State) ToJSON() ([]byte, error) {
	tok, err := s.token()
	if err != nil {
		return nil, err
	}
	return json.Marshal(tok)
}

// ToCBOR saves the state in a binary form. The token tree is the same as
// for JSON.
func (s *State) ToCBOR() ([]byte, error) {
	tok, err := s.token()
	if err != nil {
		return nil, err
	}
	return wire.EncodeBinary(tok)
}

func (s *State) token() (wire.Dict, error) {
	if s.patch != nil {
		return nil, goink.Errorf(goink.RuntimeLogic, "cannot save a state while changes are being patched")
	}
	flows := wire.Dict{}
	if s.namedFlows == nil {
		f, err := s.flow.token()
		if err != nil {
			return nil, err
		}
		flows.Set(s.flow.name, f)
	} else {
		for _, name := range flowNames(s.namedFlows) {
			f, err := s.namedFlows[name].token()
			if err != nil {
				return nil, err
			}
			flows.Set(name, f)
		}
	}
	vars, err := s.variables.Token()
	if err != nil {
		return nil, err
	}
	stack, err := wire.ObjectsToTokens(s.evaluationStack())
	if err != nil {
		return nil, err
	}
	tok := wire.Dict{
		{Key: "flows", Value: flows},
		{Key: "currentFlowName", Value: s.flow.name},
		{Key: "variablesState", Value: vars},
		{Key: "evalStack", Value: stack},
	}
	if !s.divertedPointer.IsNull() {
		tok.Set("currentDivertTarget", s.divertedPointer.Path().String())
	}
	tok.Set("visitCounts", wire.IntDict(s.visitCounts))
	tok.Set("turnIndices", wire.IntDict(s.turnIndices))
	tok.Set("turnIdx", s.turnIndex)
	tok.Set("storySeed", s.storySeed)
	tok.Set("previousRandom", s.previousRandom)
	tok.Set("inkSaveVersion", SaveVersionCurrent)
	tok.Set("inkFormatVersion", wire.InkVersionCurrent)
	return tok, nil
}

// LoadJSON restores a state saved with ToJSON. Both the current layout with
// named flows and the older single-flow layout are understood.
func (s *State) LoadJSON(b []byte) error {
	if _, ok := wire.PeekSaveVersion(b); !ok {
		return goink.Errorf(goink.MalformedDocument, "ink save format incorrect, can't load.")
	}
	tree, err := wire.DecodeJSON(b)
	if err != nil {
		return goink.Errorf(goink.MalformedDocument, "cannot parse save state: %v", err)
	}
	return s.load(tree)
}

// LoadCBOR restores a state saved with ToCBOR.
func (s *State) LoadCBOR(b []byte) error {
	tree, err := wire.DecodeBinary(b)
	if err != nil {
		return goink.Errorf(goink.MalformedDocument, "cannot decode save state: %v", err)
	}
	return s.load(tree)
}

func (s *State) load(tree interface{}) error {
	obj, ok := tree.(map[string]interface{})
	if !ok {
		return goink.Errorf(goink.MalformedDocument, "ink save format incorrect, can't load.")
	}
	version, ok := wire.Int(obj["inkSaveVersion"])
	if !ok {
		return goink.Errorf(goink.MalformedDocument, "ink save format incorrect, can't load.")
	}
	if version < SaveVersionMinimumCompatible {
		return goink.Errorf(goink.MalformedDocument,
			"Ink save format isn't compatible with the current version (saw '%d', but minimum is %d), so can't load.",
			version, SaveVersionMinimumCompatible)
	}
	var warn runtime.Warner = func(e *goink.Error) {
		s.warnings = append(s.warnings, e)
	}
	if err := s.loadFlows(obj, warn); err != nil {
		return err
	}
	s.variables.SetCallStack(s.flow.callStack)
	s.variables.SetPatch(nil)
	s.patch = nil
	if err := s.variables.LoadToken(obj["variablesState"]); err != nil {
		return err
	}
	stackToks, _ := obj["evalStack"].([]interface{})
	stack, err := wire.TokensToObjects(stackToks)
	if err != nil {
		return err
	}
	s.evalStack = arraystack.New()
	for _, o := range stack {
		s.pushEvaluationStack(o)
	}
	s.divertedPointer = content.NullPointer
	if target, ok := wire.String(obj["currentDivertTarget"]); ok {
		ptr, e := runtime.PointerAtPath(s.root, content.ParsePath(target))
		if e != nil {
			warn(e)
		}
		s.divertedPointer = ptr
	}
	s.visitCounts = wire.ReadIntDict(obj["visitCounts"])
	s.turnIndices = wire.ReadIntDict(obj["turnIndices"])
	if s.turnIndex, ok = wire.Int(obj["turnIdx"]); !ok {
		return goink.Errorf(goink.MalformedDocument, "save state without turn index")
	}
	if s.storySeed, ok = wire.Int(obj["storySeed"]); !ok {
		return goink.Errorf(goink.MalformedDocument, "save state without story seed")
	}
	s.previousRandom, _ = wire.Int(obj["previousRandom"])
	tracer().Infof("loaded save state version %d, flow %s", version, s.flow.name)
	return nil
}

func (s *State) loadFlows(obj map[string]interface{}, warn runtime.Warner) error {
	flowsTok, ok := obj["flows"].(map[string]interface{})
	if !ok {
		// single flow layout
		legacy := map[string]interface{}{
			"callstack":      obj["callstackThreads"],
			"outputStream":   obj["outputStream"],
			"currentChoices": obj["currentChoices"],
			"choiceThreads":  obj["choiceThreads"],
		}
		f, err := loadFlow(DefaultFlowName, legacy, s.root, warn)
		if err != nil {
			return err
		}
		s.flow, s.namedFlows = f, nil
		return nil
	}
	if len(flowsTok) == 0 {
		return goink.Errorf(goink.MalformedDocument, "save state without flows")
	}
	flows := make(map[string]*flow, len(flowsTok))
	for name, tok := range flowsTok {
		f, err := loadFlow(name, tok, s.root, warn)
		if err != nil {
			return err
		}
		flows[name] = f
	}
	if len(flows) == 1 {
		for _, f := range flows {
			s.flow = f
		}
		s.namedFlows = nil
		return nil
	}
	current, _ := wire.String(obj["currentFlowName"])
	f, ok := flows[current]
	if !ok {
		return goink.Errorf(goink.MalformedDocument, "save state: current flow '%s' not found", current)
	}
	s.flow, s.namedFlows = f, flows
	return nil
}

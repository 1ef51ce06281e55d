package player

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/npillmayer/goink"
	"github.com/npillmayer/goink/story"
)

// Line is a line of story text with its tags.
type Line struct {
	Text string
	Tags []string
}

// Turn is what a story produces between two player decisions.
type Turn struct {
	Lines    []Line
	Choices  []string
	Warnings []string
	Ended    bool // no choices left and story cannot continue
}

// Reply is the response of a session to a line of player input.
type Reply struct {
	Text string // informational text, e.g. the value of a variable
	Turn *Turn  // set if the story advanced
	Quit bool
}

// Session plays a story interactively.
type Session struct {
	story  *story.Story
	budget time.Duration
	slot   []byte // in-memory save slot
}

// NewSession creates a session for a story. A budget greater than 0 makes
// the session continue the story asynchronously, in time slices of the
// budget.
func NewSession(s *story.Story, budget time.Duration) *Session {
	return &Session{story: s, budget: budget}
}

// Story returns the story played.
func (sess *Session) Story() *story.Story {
	return sess.story
}

// Step continues the story as far as possible and collects the output.
func (sess *Session) Step() (*Turn, error) {
	t := &Turn{}
	s := sess.story
	for s.CanContinue() {
		err := sess.continueOnce(t)
		if text := s.CurrentText(); text != "" {
			t.Lines = append(t.Lines, Line{Text: strings.TrimRight(text, "\n"), Tags: s.CurrentTags()})
		}
		if err != nil {
			return t, err
		}
	}
	for _, c := range s.CurrentChoices() {
		t.Choices = append(t.Choices, c.Text)
	}
	t.Ended = len(t.Choices) == 0
	return t, nil
}

func (sess *Session) continueOnce(t *Turn) error {
	s := sess.story
	var err error
	if sess.budget <= 0 {
		_, err = s.Continue()
	} else {
		slices := 0
		for {
			if err = s.ContinueAsync(sess.budget); err != nil || s.AsyncContinueComplete() {
				break
			}
			slices++
		}
		if slices > 0 {
			tracer().Debugf("continuation took %d extra time slices", slices)
		}
	}
	var issues *goink.Issues
	if err != nil && errors.As(err, &issues) && !issues.HasErrors() {
		for _, w := range issues.Warnings {
			t.Warnings = append(t.Warnings, w.Error())
		}
		s.ResetErrors()
		return nil
	}
	return err
}

// Execute interprets a line of player input. A number chooses a choice,
// counting from 1. Other input has to be a command; see the package
// documentation.
func (sess *Session) Execute(line string) (*Reply, error) {
	toks, err := scan(line)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return &Reply{}, nil
	}
	switch toks[0].Type {
	case tokNumber:
		if len(toks) > 1 {
			return nil, syntaxError("a choice is a single number")
		}
		return sess.choose(toks[0].Value.(int))
	case tokCommand:
		return sess.command(toks[0].Value.(string), toks[1:])
	}
	return nil, syntaxError("expected a choice number or a command, have %s; try :help", toks[0].Lexeme)
}

func (sess *Session) choose(n int) (*Reply, error) {
	if err := sess.story.ChooseChoiceIndex(n - 1); err != nil {
		return nil, err
	}
	t, err := sess.Step()
	return &Reply{Turn: t}, err
}

func (sess *Session) command(cmd string, args []token) (*Reply, error) {
	s := sess.story
	switch cmd {
	case "quit", "q":
		return &Reply{Quit: true}, nil
	case "help":
		return &Reply{Text: helpText}, nil
	case "path":
		if len(args) < 1 {
			return nil, syntaxError(":path needs a path to go to")
		}
		if err := s.ChoosePathString(args[0].Lexeme, true, values(args[1:])...); err != nil {
			return nil, err
		}
		t, err := sess.Step()
		return &Reply{Turn: t}, err
	case "eval":
		if len(args) < 1 {
			return nil, syntaxError(":eval needs a function name")
		}
		result, text, err := s.EvaluateFunction(args[0].Lexeme, values(args[1:])...)
		if err != nil {
			return nil, err
		}
		return &Reply{Text: fmt.Sprintf("%s= %v", text, result)}, nil
	case "var":
		if len(args) == 0 {
			var b strings.Builder
			for _, name := range s.Variables().Names() {
				fmt.Fprintf(&b, "%s = %v\n", name, s.Variables().Get(name))
			}
			return &Reply{Text: strings.TrimRight(b.String(), "\n")}, nil
		}
		name := args[0].Lexeme
		if !s.Variables().GlobalVariableExistsWithName(name) {
			return nil, goink.Errorf(goink.RuntimeLogic, "no global variable named %s", name)
		}
		return &Reply{Text: fmt.Sprintf("%s = %v", name, s.Variables().Get(name))}, nil
	case "set":
		if len(args) != 2 {
			return nil, syntaxError(":set needs a variable name and a value")
		}
		if err := s.Variables().Set(args[0].Lexeme, args[1].Value); err != nil {
			return nil, err
		}
		return &Reply{Text: fmt.Sprintf("%s = %v", args[0].Lexeme, s.Variables().Get(args[0].Lexeme))}, nil
	case "flow":
		if len(args) != 1 {
			return nil, syntaxError(":flow needs a flow name")
		}
		if err := s.SwitchFlow(args[0].Lexeme); err != nil {
			return nil, err
		}
		t, err := sess.Step()
		return &Reply{Text: "flow " + s.CurrentFlowName(), Turn: t}, err
	case "flows":
		return &Reply{Text: strings.Join(s.State().AliveFlowNames(), " ")}, nil
	case "save":
		b, err := s.State().ToJSON()
		if err != nil {
			return nil, err
		}
		sess.slot = b
		return &Reply{Text: fmt.Sprintf("saved %d bytes", len(b))}, nil
	case "load":
		if sess.slot == nil {
			return nil, goink.Errorf(goink.RuntimeLogic, "nothing saved yet")
		}
		if err := s.State().LoadJSON(sess.slot); err != nil {
			return nil, err
		}
		return &Reply{Text: "restored", Turn: sess.current()}, nil
	}
	return nil, syntaxError("unknown command :%s; try :help", cmd)
}

// current describes the present situation without continuing the story.
func (sess *Session) current() *Turn {
	t := &Turn{}
	if text := sess.story.CurrentText(); text != "" {
		t.Lines = []Line{{Text: strings.TrimRight(text, "\n"), Tags: sess.story.CurrentTags()}}
	}
	for _, c := range sess.story.CurrentChoices() {
		t.Choices = append(t.Choices, c.Text)
	}
	t.Ended = len(t.Choices) == 0 && !sess.story.CanContinue()
	return t
}

func values(toks []token) []interface{} {
	vals := make([]interface{}, len(toks))
	for i, t := range toks {
		vals[i] = t.Value
	}
	return vals
}

func syntaxError(format string, args ...interface{}) error {
	return goink.Errorf(goink.RuntimeLogic, format, args...)
}

const helpText = `<n>               choose choice number n
:path <p> [args]  go to a knot or stitch
:eval <f> [args]  evaluate an ink function
:var [name]       show global variables
:set <name> <v>   set a global variable
:flow <name>      switch to a flow
:flows            list alive flows
:save             save state to memory
:load             restore state from memory
:quit             leave the player`

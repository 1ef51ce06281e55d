package content

import "fmt"

// CommandType is the opcode of a control command.
type CommandType int

// Control commands. The order matches the wire names in commandNames.
const (
	NotSet CommandType = iota - 1
	EvalStart
	EvalOutput
	EvalEnd
	Duplicate
	PopEvaluatedValue
	PopFunction
	PopTunnel
	BeginString
	EndString
	NoOp
	ChoiceCount
	Turns
	TurnsSince
	ReadCount
	Random
	SeedRandom
	VisitIndex
	SequenceShuffleIndex
	StartThread
	Done
	End
	ListFromInt
	ListRange
	ListRandom
)

var commandNames = [...]string{
	"ev", "out", "/ev", "du", "pop", "~ret", "->->", "str", "/str", "nop",
	"choiceCnt", "turn", "turns", "readc", "rnd", "srnd", "visit", "seq",
	"thread", "done", "end", "listInt", "range", "lrnd",
}

var commandsByName map[string]CommandType

func init() {
	commandsByName = make(map[string]CommandType, len(commandNames))
	for i, name := range commandNames {
		commandsByName[name] = CommandType(i)
	}
}

// Name returns the wire name of a command type.
func (ct CommandType) Name() string {
	if ct < 0 || int(ct) >= len(commandNames) {
		return ""
	}
	return commandNames[ct]
}

func (ct CommandType) String() string {
	if name := ct.Name(); name != "" {
		return name
	}
	return fmt.Sprintf("CommandType(%d)", int(ct))
}

// ControlCommand is an opcode in the content tree.
type ControlCommand struct {
	objectBase
	Type CommandType
}

// NewControlCommand creates a control command.
func NewControlCommand(t CommandType) *ControlCommand {
	return &ControlCommand{Type: t}
}

// CommandFromName creates a control command from its wire name. Returns nil
// if name is not a command name.
func CommandFromName(name string) *ControlCommand {
	if t, ok := commandsByName[name]; ok {
		return &ControlCommand{Type: t}
	}
	return nil
}

// IsCommandName is a predicate: is name the wire name of a control command?
func IsCommandName(name string) bool {
	_, ok := commandsByName[name]
	return ok
}

func (cc *ControlCommand) String() string {
	return cc.Type.String()
}

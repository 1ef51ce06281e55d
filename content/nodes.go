package content

import (
	"fmt"
	"strings"
)

// PushPopType is the kind of a call stack element.
type PushPopType int

// Kinds of call stack elements.
const (
	Tunnel PushPopType = iota
	Function
	FunctionEvaluationFromGame // anchors a function call made by the host
)

func (t PushPopType) String() string {
	switch t {
	case Tunnel:
		return "Tunnel"
	case Function:
		return "Function"
	case FunctionEvaluationFromGame:
		return "FunctionEvaluationFromGame"
	}
	return fmt.Sprintf("PushPopType(%d)", int(t))
}

// --- Diverts ---------------------------------------------------------------

// Divert is a jump to another location, either given by a literal path or
// by a variable holding a divert target. Diverts may push a tunnel or
// function frame, may be conditional, or may call an external function.
type Divert struct {
	objectBase
	targetPath         *Path
	targetPointer      Pointer // resolved lazily
	VariableDivertName string
	PushesToStack      bool
	StackPushType      PushPopType
	IsExternal         bool
	ExternalArgs       int
	IsConditional      bool
}

// NewDivert creates a divert without a target.
func NewDivert() *Divert {
	return &Divert{targetPointer: NullPointer}
}

// NewPushingDivert creates a divert which pushes a call stack element.
func NewPushingDivert(t PushPopType) *Divert {
	return &Divert{targetPointer: NullPointer, PushesToStack: true, StackPushType: t}
}

// HasVariableTarget is a predicate: is the target read from a variable?
func (d *Divert) HasVariableTarget() bool {
	return d.VariableDivertName != ""
}

// TargetPath returns the target path. Relative paths are converted to
// absolute paths on first use.
func (d *Divert) TargetPath() *Path {
	if d.targetPath != nil && d.targetPath.IsRelative() {
		if target := d.TargetPointer().Resolve(); target != nil {
			d.targetPath = PathOf(target)
		}
	}
	return d.targetPath
}

// SetTargetPath sets the target path and invalidates the target pointer.
func (d *Divert) SetTargetPath(p *Path) {
	d.targetPath = p
	d.targetPointer = NullPointer
}

// TargetPointer resolves the target path to a pointer.
func (d *Divert) TargetPointer() Pointer {
	if d.targetPointer.IsNull() && d.targetPath != nil {
		target := ResolvePath(d, d.targetPath).Obj
		if target == nil {
			return NullPointer
		}
		if last, ok := d.targetPath.LastComponent(); ok && last.IsIndex() {
			d.targetPointer = Pointer{Container: target.Parent(), Index: last.Index}
		} else if c, ok := target.(*Container); ok {
			d.targetPointer = StartOf(c)
		}
	}
	return d.targetPointer
}

// TargetPathString returns the compact string form of the target path.
func (d *Divert) TargetPathString() string {
	p := d.TargetPath()
	if p == nil {
		return ""
	}
	return CompactPathString(d, p)
}

func (d *Divert) String() string {
	if d.HasVariableTarget() {
		return "Divert(variable: " + d.VariableDivertName + ")"
	}
	if d.targetPath == nil {
		return "Divert(null)"
	}
	var b strings.Builder
	b.WriteString("Divert")
	if d.IsConditional {
		b.WriteString("?")
	}
	if d.PushesToStack {
		if d.StackPushType == Function {
			b.WriteString(" function")
		} else {
			b.WriteString(" tunnel")
		}
	}
	b.WriteString(" -> ")
	b.WriteString(d.targetPath.String())
	return b.String()
}

// --- Choice points ---------------------------------------------------------

// Flags of a choice point.
const (
	ChoiceHasCondition         = 1
	ChoiceHasStartContent      = 2
	ChoiceHasChoiceOnlyContent = 4
	ChoiceIsInvisibleDefault   = 8
	ChoiceOnceOnly             = 16
)

// ChoicePoint generates a choice when stepped over.
type ChoicePoint struct {
	objectBase
	pathOnChoice         *Path
	HasCondition         bool
	HasStartContent      bool
	HasChoiceOnlyContent bool
	IsInvisibleDefault   bool
	OnceOnly             bool
}

// NewChoicePoint creates a choice point with a target path.
func NewChoicePoint(p *Path) *ChoicePoint {
	return &ChoicePoint{pathOnChoice: p, OnceOnly: true}
}

// PathOnChoice returns the absolute path of the choice's target container.
func (cp *ChoicePoint) PathOnChoice() *Path {
	if cp.pathOnChoice != nil && cp.pathOnChoice.IsRelative() {
		if target := cp.ChoiceTarget(); target != nil {
			cp.pathOnChoice = PathOf(target)
		}
	}
	return cp.pathOnChoice
}

// SetPathOnChoice sets the target path.
func (cp *ChoicePoint) SetPathOnChoice(p *Path) {
	cp.pathOnChoice = p
}

// ChoiceTarget resolves the target container, or returns nil.
func (cp *ChoicePoint) ChoiceTarget() *Container {
	if cp.pathOnChoice == nil {
		return nil
	}
	return ResolvePath(cp, cp.pathOnChoice).Container()
}

// PathStringOnChoice returns the compact string form of the target path.
func (cp *ChoicePoint) PathStringOnChoice() string {
	return CompactPathString(cp, cp.PathOnChoice())
}

// Flags returns the flags as a bitmask.
func (cp *ChoicePoint) Flags() int {
	flags := 0
	if cp.HasCondition {
		flags |= ChoiceHasCondition
	}
	if cp.HasStartContent {
		flags |= ChoiceHasStartContent
	}
	if cp.HasChoiceOnlyContent {
		flags |= ChoiceHasChoiceOnlyContent
	}
	if cp.IsInvisibleDefault {
		flags |= ChoiceIsInvisibleDefault
	}
	if cp.OnceOnly {
		flags |= ChoiceOnceOnly
	}
	return flags
}

// SetFlags sets the flags from a bitmask.
func (cp *ChoicePoint) SetFlags(flags int) {
	cp.HasCondition = flags&ChoiceHasCondition > 0
	cp.HasStartContent = flags&ChoiceHasStartContent > 0
	cp.HasChoiceOnlyContent = flags&ChoiceHasChoiceOnlyContent > 0
	cp.IsInvisibleDefault = flags&ChoiceIsInvisibleDefault > 0
	cp.OnceOnly = flags&ChoiceOnceOnly > 0
}

func (cp *ChoicePoint) String() string {
	return "Choice: -> " + cp.pathOnChoice.String()
}

// --- Variables -------------------------------------------------------------

// VariableReference reads a variable, or the read count of a container if
// PathForCount is set.
type VariableReference struct {
	objectBase
	Name         string
	PathForCount *Path
}

// ContainerForCount resolves the container to read the count for.
func (vr *VariableReference) ContainerForCount() *Container {
	if vr.PathForCount == nil {
		return nil
	}
	return ResolvePath(vr, vr.PathForCount).Container()
}

// PathStringForCount returns the compact string form of the count path.
func (vr *VariableReference) PathStringForCount() string {
	if vr.PathForCount == nil {
		return ""
	}
	return CompactPathString(vr, vr.PathForCount)
}

func (vr *VariableReference) String() string {
	if vr.Name != "" {
		return fmt.Sprintf("var(%s)", vr.Name)
	}
	return fmt.Sprintf("read_count(%s)", vr.PathStringForCount())
}

// VariableAssignment pops a value off the evaluation stack and assigns it.
type VariableAssignment struct {
	objectBase
	Name             string
	IsNewDeclaration bool
	IsGlobal         bool
}

func (va *VariableAssignment) String() string {
	return "VarAssign to " + va.Name
}

// --- Markers ---------------------------------------------------------------

// Tag is a line tag.
type Tag struct {
	objectBase
	Text string
}

func (t *Tag) String() string {
	return "# " + t.Text
}

// Glue suppresses a line break.
type Glue struct {
	objectBase
}

func (g *Glue) String() string {
	return "Glue"
}

// Void is the return value of functions not returning anything.
type Void struct {
	objectBase
}

func (v *Void) String() string {
	return "Void"
}

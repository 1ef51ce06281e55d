package content

import (
	"strconv"
	"strings"
)

// ParentID is the name of a path component stepping up to the parent container.
const ParentID = "^"

// --- Components ------------------------------------------------------------

// Component is a single step of a path. It is either an index into the
// content of a container, or a name of a named sub-container (or the parent
// marker "^").
type Component struct {
	Index int    // valid if ≥ 0
	Name  string // valid if Index < 0
}

// IndexComponent creates a component for content index i.
func IndexComponent(i int) Component {
	return Component{Index: i}
}

// NameComponent creates a component for a named sub-container.
func NameComponent(name string) Component {
	return Component{Index: -1, Name: name}
}

// ParentComponent creates a component stepping up to the parent.
func ParentComponent() Component {
	return NameComponent(ParentID)
}

// IsIndex is a predicate: is c an index into content?
func (c Component) IsIndex() bool {
	return c.Index >= 0
}

// IsParent is a predicate: does c step up to the parent?
func (c Component) IsParent() bool {
	return c.Index < 0 && c.Name == ParentID
}

func (c Component) String() string {
	if c.IsIndex() {
		return strconv.Itoa(c.Index)
	}
	return c.Name
}

// --- Paths -----------------------------------------------------------------

// Path is an address of content within a story. Paths are either absolute
// (starting at the root container) or relative (starting at the nearest
// container of the object holding the path). Paths are immutable.
//
// The string form separates components by dots. Relative paths start with
// a dot, e.g.
//
//     .^.^.hello.5
//
// which is the equivalent of a file system path "../../hello/5".
//
type Path struct {
	components []Component
	relative   bool
	str        string // cached string form
}

// NewPath creates a path from components.
func NewPath(components []Component, relative bool) *Path {
	comps := make([]Component, len(components))
	copy(comps, components)
	return &Path{components: comps, relative: relative}
}

// SelfPath returns the empty relative path.
func SelfPath() *Path {
	return &Path{relative: true}
}

// ParsePath parses the string form of a path. The empty string denotes
// the (absolute) root path.
func ParsePath(s string) *Path {
	p := &Path{}
	if s == "" {
		return p
	}
	if s[0] == '.' {
		p.relative = true
		s = s[1:]
	}
	for _, part := range strings.Split(s, ".") {
		if i, err := strconv.Atoi(part); err == nil && i >= 0 {
			p.components = append(p.components, IndexComponent(i))
		} else {
			p.components = append(p.components, NameComponent(part))
		}
	}
	return p
}

// IsRelative is a predicate: is p relative to a container?
func (p *Path) IsRelative() bool {
	return p.relative
}

// Len returns the number of components.
func (p *Path) Len() int {
	return len(p.components)
}

// Component returns the i-th component.
func (p *Path) Component(i int) Component {
	return p.components[i]
}

// Head returns the first component and true, or false for an empty path.
func (p *Path) Head() (Component, bool) {
	if len(p.components) == 0 {
		return Component{}, false
	}
	return p.components[0], true
}

// Tail returns all components but the first. A path with less than two
// components has the relative self path as its tail.
func (p *Path) Tail() *Path {
	if len(p.components) >= 2 {
		return NewPath(p.components[1:], false)
	}
	return SelfPath()
}

// LastComponent returns the last component and true, or false for an empty path.
func (p *Path) LastComponent() (Component, bool) {
	if len(p.components) == 0 {
		return Component{}, false
	}
	return p.components[len(p.components)-1], true
}

// ContainsNamedComponent is a predicate: is at least one component a name?
func (p *Path) ContainsNamedComponent() bool {
	for _, c := range p.components {
		if !c.IsIndex() {
			return true
		}
	}
	return false
}

// PathByAppendingPath appends another path. Leading parent markers of the
// appended path consume trailing components of p. The result is absolute.
func (p *Path) PathByAppendingPath(other *Path) *Path {
	upwardMoves := 0
	for _, c := range other.components {
		if !c.IsParent() {
			break
		}
		upwardMoves++
	}
	var comps []Component
	for i := 0; i < len(p.components)-upwardMoves; i++ {
		comps = append(comps, p.components[i])
	}
	comps = append(comps, other.components[upwardMoves:]...)
	return &Path{components: comps}
}

// PathByAppendingComponent appends a single component. The result is absolute.
func (p *Path) PathByAppendingComponent(c Component) *Path {
	comps := make([]Component, len(p.components), len(p.components)+1)
	copy(comps, p.components)
	return &Path{components: append(comps, c)}
}

func (p *Path) String() string {
	if p == nil {
		return ""
	}
	if p.str == "" && (len(p.components) > 0 || p.relative) {
		parts := make([]string, len(p.components))
		for i, c := range p.components {
			parts[i] = c.String()
		}
		s := strings.Join(parts, ".")
		if p.relative {
			s = "." + s
		}
		p.str = s
	}
	return p.str
}

// Equal compares two paths component-wise, including the relative flag.
func (p *Path) Equal(other *Path) bool {
	if p == nil || other == nil {
		return p == other
	}
	if p.relative != other.relative || len(p.components) != len(other.components) {
		return false
	}
	for i, c := range p.components {
		if c != other.components[i] {
			return false
		}
	}
	return true
}

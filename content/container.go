package content

import (
	"fmt"
	"sort"
	"strings"
)

// Count flags of a container.
const (
	CountVisits    = 1
	CountTurns     = 2
	CountStartOnly = 4
)

// Container is the structural node of a story: an ordered sequence of owned
// child objects, plus a lookup for named sub-containers. Named sub-containers
// which are not part of the ordered content ("named-only content") are only
// reachable by name.
type Container struct {
	objectBase
	Name                     string
	Content                  []Object
	NamedContent             map[string]*Container
	VisitsShouldBeCounted    bool
	TurnIndexShouldBeCounted bool
	CountingAtStartOnly      bool
}

// NewContainer creates an empty container.
func NewContainer() *Container {
	return &Container{
		NamedContent: make(map[string]*Container),
	}
}

// HasValidName is a predicate: does c carry a non-empty name?
func (c *Container) HasValidName() bool {
	return c.Name != ""
}

// AddContent appends objects to the content of c. An object may only have
// one owner, adding an object which already has a parent is an error.
func (c *Container) AddContent(objs ...Object) error {
	for _, obj := range objs {
		if obj.Parent() != nil {
			return fmt.Errorf("content is already in %s", PathOf(obj.Parent()))
		}
		c.Content = append(c.Content, obj)
		obj.base().parent = c
		if named, ok := obj.(*Container); ok && named.HasValidName() {
			c.AddToNamedContentOnly(named)
		}
	}
	return nil
}

// AddToNamedContentOnly makes a named container reachable by name without
// adding it to the ordered content.
func (c *Container) AddToNamedContentOnly(named *Container) {
	if c.NamedContent == nil {
		c.NamedContent = make(map[string]*Container)
	}
	named.parent = c
	c.NamedContent[named.Name] = named
}

// NamedOnlyContent returns the named sub-containers which are not part of
// the ordered content, or nil if there are none.
func (c *Container) NamedOnlyContent() map[string]*Container {
	namedOnly := make(map[string]*Container, len(c.NamedContent))
	for k, v := range c.NamedContent {
		namedOnly[k] = v
	}
	for _, obj := range c.Content {
		if named, ok := obj.(*Container); ok && named.HasValidName() {
			delete(namedOnly, named.Name)
		}
	}
	if len(namedOnly) == 0 {
		return nil
	}
	return namedOnly
}

// NamedOnlyContentNames returns the sorted names of named-only content.
func (c *Container) NamedOnlyContentNames() []string {
	namedOnly := c.NamedOnlyContent()
	names := make([]string, 0, len(namedOnly))
	for name := range namedOnly {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CountFlags returns the count flags as a bitmask. A lone CountStartOnly flag
// is meaningless without the other two and reported as 0.
func (c *Container) CountFlags() int {
	flags := 0
	if c.VisitsShouldBeCounted {
		flags |= CountVisits
	}
	if c.TurnIndexShouldBeCounted {
		flags |= CountTurns
	}
	if c.CountingAtStartOnly {
		flags |= CountStartOnly
	}
	if flags == CountStartOnly {
		flags = 0
	}
	return flags
}

// SetCountFlags sets the count flags from a bitmask.
func (c *Container) SetCountFlags(flags int) {
	c.VisitsShouldBeCounted = flags&CountVisits > 0
	c.TurnIndexShouldBeCounted = flags&CountTurns > 0
	c.CountingAtStartOnly = flags&CountStartOnly > 0
}

// IndexOf returns the content index of a child object, or -1.
func (c *Container) IndexOf(obj Object) int {
	for i, o := range c.Content {
		if o == obj {
			return i
		}
	}
	return -1
}

func (c *Container) contentWithPathComponent(comp Component) Object {
	if comp.IsIndex() {
		if comp.Index < len(c.Content) {
			return c.Content[comp.Index]
		}
		return nil // out of range, e.g. when stepping forward
	}
	if comp.IsParent() {
		if c.parent == nil {
			return nil
		}
		return c.parent
	}
	if named, ok := c.NamedContent[comp.Name]; ok {
		return named
	}
	return nil
}

// ContentAtPath resolves a path starting at c. Resolution never fails
// outright: if a component cannot be resolved, the deepest object reached
// so far is returned, flagged as approximate.
func (c *Container) ContentAtPath(p *Path) SearchResult {
	return c.ContentAtPartialPath(p, 0, p.Len())
}

// ContentAtPartialPath resolves the components [start…start+length) of a path.
func (c *Container) ContentAtPartialPath(p *Path, start, length int) SearchResult {
	result := SearchResult{}
	current := c
	var currentObj Object = c
	for i := start; i < start+length; i++ {
		if current == nil {
			result.Approximate = true // path component was of wrong type
			break
		}
		found := current.contentWithPathComponent(p.Component(i))
		if found == nil {
			result.Approximate = true
			break
		}
		currentObj = found
		current, _ = found.(*Container)
	}
	result.Obj = currentObj
	return result
}

// PathToFirstLeafContent returns the absolute path of the first leaf
// reachable by descending into first children.
func (c *Container) PathToFirstLeafContent() *Path {
	var comps []Component
	for container := c; container != nil && len(container.Content) > 0; {
		comps = append(comps, IndexComponent(0))
		container, _ = container.Content[0].(*Container)
	}
	return PathOf(c).PathByAppendingPath(&Path{components: comps})
}

// String returns a short description of a container.
func (c *Container) String() string {
	if c.HasValidName() {
		return fmt.Sprintf("Container(%s)", c.Name)
	}
	return fmt.Sprintf("Container(%s)", PathOf(c))
}

// Dump returns a multi-line rendering of the container hierarchy, marking
// a pointed-to object with an arrow. Used for tracing.
func (c *Container) Dump(pointed Object) string {
	var b strings.Builder
	c.dump(&b, 0, pointed)
	return b.String()
}

func (c *Container) dump(b *strings.Builder, indent int, pointed Object) {
	pad := strings.Repeat("    ", indent)
	b.WriteString(pad + "[")
	if c.HasValidName() {
		fmt.Fprintf(b, " (%s)", c.Name)
	}
	if Object(c) == pointed {
		b.WriteString("  <---")
	}
	b.WriteString("\n")
	for i, obj := range c.Content {
		if sub, ok := obj.(*Container); ok {
			sub.dump(b, indent+1, pointed)
		} else {
			b.WriteString(pad + "    ")
			if s, ok := obj.(*StringValue); ok {
				fmt.Fprintf(b, "%q", s.V)
			} else {
				fmt.Fprintf(b, "%v", obj)
			}
		}
		if i != len(c.Content)-1 {
			b.WriteString(",")
		}
		if _, ok := obj.(*Container); !ok && obj == pointed {
			b.WriteString("  <---")
		}
		b.WriteString("\n")
	}
	if names := c.NamedOnlyContentNames(); len(names) > 0 {
		b.WriteString(pad + "    -- named: --\n")
		for _, name := range names {
			c.NamedContent[name].dump(b, indent+1, pointed)
			b.WriteString("\n")
		}
	}
	b.WriteString(pad + "]")
}

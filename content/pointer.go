package content

import "fmt"

// Pointer denotes a slot in a container: (container, index). Index -1
// denotes the container itself, used before stepping into its first child.
type Pointer struct {
	Container *Container
	Index     int
}

// NullPointer points nowhere.
var NullPointer = Pointer{Container: nil, Index: -1}

// StartOf returns a pointer to the first slot of a container.
func StartOf(c *Container) Pointer {
	return Pointer{Container: c, Index: 0}
}

// IsNull is a predicate: does p point nowhere?
func (p Pointer) IsNull() bool {
	return p.Container == nil
}

// Resolve returns the object p points to. A negative index or an empty
// container yields the container itself; an index past the end yields nil.
func (p Pointer) Resolve() Object {
	if p.Container == nil {
		return nil
	}
	if p.Index < 0 || len(p.Container.Content) == 0 {
		return p.Container
	}
	if p.Index >= len(p.Container.Content) {
		return nil
	}
	return p.Container.Content[p.Index]
}

// Path returns the absolute path of the slot, or nil for the null pointer.
func (p Pointer) Path() *Path {
	if p.IsNull() {
		return nil
	}
	if p.Index >= 0 {
		return PathOf(p.Container).PathByAppendingComponent(IndexComponent(p.Index))
	}
	return PathOf(p.Container)
}

func (p Pointer) String() string {
	if p.IsNull() {
		return "Pointer(null)"
	}
	return fmt.Sprintf("Pointer(%s, %d)", PathOf(p.Container), p.Index)
}

package content

// Object is the closed sum type of all nodes of a story's content tree.
// The set of variants is fixed by the document format:
//
//    *Container, *StringValue, *IntValue, *FloatValue, *BoolValue, *ListValue,
//    *DivertTargetValue, *VariablePointerValue, *Glue, *ControlCommand,
//    *Divert, *ChoicePoint, *VariableReference, *VariableAssignment,
//    *NativeFunctionCall, *Void, *Tag
//
// Clients switch over the concrete types. Objects are immutable once the
// tree has been built; the only state they carry is a back-reference to
// their parent container, which is used to compute addresses and never to
// extend lifetime.
//
type Object interface {
	Parent() *Container
	base() *objectBase
}

// objectBase is embedded in every node type.
type objectBase struct {
	parent *Container
	path   *Path // cached, computed on first use
}

// Parent returns the container owning an object, or nil for the root.
func (ob *objectBase) Parent() *Container {
	return ob.parent
}

func (ob *objectBase) base() *objectBase {
	return ob
}

// --- Addressing ------------------------------------------------------------

// PathOf returns the absolute path of an object within its content tree.
func PathOf(o Object) *Path {
	b := o.base()
	if b.path != nil {
		return b.path
	}
	if b.parent == nil {
		b.path = &Path{}
		return b.path
	}
	var comps []Component
	child := o
	container := b.parent
	for container != nil {
		if c, ok := child.(*Container); ok && c.HasValidName() {
			comps = append(comps, NameComponent(c.Name))
		} else {
			comps = append(comps, IndexComponent(container.IndexOf(child)))
		}
		child = container
		container = container.parent
	}
	for i, j := 0, len(comps)-1; i < j; i, j = i+1, j-1 {
		comps[i], comps[j] = comps[j], comps[i]
	}
	b.path = &Path{components: comps}
	return b.path
}

// RootContainer walks up the parent chain and returns the outermost container.
func RootContainer(o Object) *Container {
	var ancestor Object = o
	for ancestor.Parent() != nil {
		ancestor = ancestor.Parent()
	}
	c, _ := ancestor.(*Container)
	return c
}

// ResolvePath resolves a path relative to an object. Relative paths are
// resolved from the nearest container: the object itself if it is a
// container, its parent otherwise (in which case the path's first component
// is the parent marker and is skipped).
func ResolvePath(o Object, p *Path) SearchResult {
	if p.IsRelative() {
		nearest, ok := o.(*Container)
		if !ok {
			nearest = o.Parent()
			if nearest == nil {
				tracer().Errorf("cannot resolve relative path %s: object has no parent", p)
				return SearchResult{Approximate: true}
			}
			p = p.Tail()
		}
		return nearest.ContentAtPath(p)
	}
	root := RootContainer(o)
	if root == nil {
		return SearchResult{Approximate: true}
	}
	return root.ContentAtPath(p)
}

// ConvertPathToRelative converts an absolute path into a path relative to o.
// If there is no shared ancestor, the absolute path is returned.
func ConvertPathToRelative(o Object, global *Path) *Path {
	own := PathOf(o)
	minLen := own.Len()
	if global.Len() < minLen {
		minLen = global.Len()
	}
	lastShared := -1
	for i := 0; i < minLen; i++ {
		if own.Component(i) != global.Component(i) {
			break
		}
		lastShared = i
	}
	if lastShared == -1 {
		return global
	}
	upwardMoves := (own.Len() - 1) - lastShared
	var comps []Component
	for up := 0; up < upwardMoves; up++ {
		comps = append(comps, ParentComponent())
	}
	for down := lastShared + 1; down < global.Len(); down++ {
		comps = append(comps, global.Component(down))
	}
	return &Path{components: comps, relative: true}
}

// CompactPathString returns the shorter of the absolute and the relative
// string form of a path, as seen from o.
func CompactPathString(o Object, p *Path) string {
	var globalStr, relativeStr string
	if p.IsRelative() {
		relativeStr = p.String()
		globalStr = PathOf(o).PathByAppendingPath(p).String()
	} else {
		relativeStr = ConvertPathToRelative(o, p).String()
		globalStr = p.String()
	}
	if len(relativeStr) < len(globalStr) {
		return relativeStr
	}
	return globalStr
}

// --- Search results --------------------------------------------------------

// SearchResult is the result of resolving a path. If a path could not be
// resolved completely, Obj is the deepest object reached and Approximate is set.
type SearchResult struct {
	Obj         Object
	Approximate bool
}

// Container returns the result as a container, or nil.
func (sr SearchResult) Container() *Container {
	c, _ := sr.Obj.(*Container)
	return c
}

// CorrectObj returns the result object if the resolution was exact, nil otherwise.
func (sr SearchResult) CorrectObj() Object {
	if sr.Approximate {
		return nil
	}
	return sr.Obj
}

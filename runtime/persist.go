package runtime

import (
	"github.com/npillmayer/goink"
	"github.com/npillmayer/goink/content"
	"github.com/npillmayer/goink/wire"
)

// Warner receives warnings issued while loading saved state.
type Warner func(*goink.Error)

func (w Warner) warn(e *goink.Error) {
	if w != nil {
		w(e)
	}
}

// PointerAtPath resolves a path to a pointer, relative to a root container.
// A path ending in an index yields a pointer into the parent container.
// If the path could only be resolved approximately, a warning is returned
// together with the pointer; if it could not be resolved at all, the error
// is not a warning.
func PointerAtPath(root *content.Container, p *content.Path) (content.Pointer, *goink.Error) {
	if p == nil || p.Len() == 0 {
		return content.NullPointer, nil
	}
	var result content.SearchResult
	ptr := content.Pointer{Index: -1}
	length := p.Len()
	if last, _ := p.LastComponent(); last.IsIndex() {
		length--
		result = root.ContentAtPartialPath(p, 0, length)
		ptr.Index = last.Index
	} else {
		result = root.ContentAtPath(p)
	}
	ptr.Container = result.Container()
	if result.Obj == nil || (result.Obj == content.Object(root) && length > 0) {
		return ptr, goink.Errorf(goink.PathResolutionFailure,
			"Failed to find content at path '%s', and no approximation of it was possible.", p)
	}
	if result.Approximate {
		return ptr, goink.Warningf(goink.PathResolutionFailure,
			"Failed to find content at path '%s', so it was approximated to: '%s'.", p, content.PathOf(result.Obj))
	}
	return ptr, nil
}

// === Writing ===============================================================

// Token creates the token of a call stack: its threads and the thread counter.
func (cs *CallStack) Token() (wire.Dict, error) {
	threads := make([]interface{}, 0, len(cs.threads))
	for _, th := range cs.threads {
		tok, err := th.Token()
		if err != nil {
			return nil, err
		}
		threads = append(threads, tok)
	}
	return wire.Dict{{Key: "threads", Value: threads}, {Key: "threadCounter", Value: cs.threadCounter}}, nil
}

// Token creates the token of a thread.
func (th *Thread) Token() (wire.Dict, error) {
	frames := make([]interface{}, 0, len(th.Frames))
	for _, f := range th.Frames {
		tok := wire.Dict{}
		if !f.CurrentPointer.IsNull() {
			tok.Set("cPath", content.PathOf(f.CurrentPointer.Container).String())
			tok.Set("idx", f.CurrentPointer.Index)
		}
		tok.Set("exp", f.InExpressionEvaluation)
		tok.Set("type", int(f.Type()))
		if f.Temporaries.Size() > 0 {
			temps, err := SymbolTableToken(f.Temporaries)
			if err != nil {
				return nil, err
			}
			tok.Set("temp", temps)
		}
		frames = append(frames, tok)
	}
	tok := wire.Dict{{Key: "callstack", Value: frames}, {Key: "threadIndex", Value: th.Index}}
	if !th.PreviousPointer.IsNull() {
		if prev := th.PreviousPointer.Resolve(); prev != nil {
			tok.Set("previousContentObject", content.PathOf(prev).String())
		}
	}
	return tok, nil
}

// SymbolTableToken creates the token of a symbol table, keys in sorted order.
func SymbolTableToken(symtab *SymbolTable) (wire.Dict, error) {
	d := wire.Dict{}
	var err error
	symtab.Each(func(name string, v content.Value) {
		if err != nil {
			return
		}
		var tok interface{}
		if tok, err = wire.ObjectToToken(v); err == nil {
			d.Set(name, tok)
		}
	})
	return d, err
}

// === Reading ===============================================================

// LoadToken replaces the threads of a call stack by threads read from a
// token. Frame locations are resolved relative to the root container the
// call stack was created for.
func (cs *CallStack) LoadToken(tok interface{}, warn Warner) error {
	obj, ok := tok.(map[string]interface{})
	if !ok {
		return goink.Errorf(goink.MalformedDocument, "call stack token is not an object")
	}
	threadToks, _ := obj["threads"].([]interface{})
	threads := make([]*Thread, 0, len(threadToks))
	for _, t := range threadToks {
		th, err := ThreadFromToken(t, cs.startOfRoot.Container, warn)
		if err != nil {
			return err
		}
		threads = append(threads, th)
	}
	if len(threads) == 0 {
		return goink.Errorf(goink.MalformedDocument, "call stack token without threads")
	}
	cs.threads = threads
	cs.threadCounter, _ = wire.Int(obj["threadCounter"])
	return nil
}

// ThreadFromToken reads a thread token.
func ThreadFromToken(tok interface{}, root *content.Container, warn Warner) (*Thread, error) {
	obj, ok := tok.(map[string]interface{})
	if !ok {
		return nil, goink.Errorf(goink.MalformedDocument, "thread token is not an object")
	}
	th := NewThread()
	th.Index, _ = wire.Int(obj["threadIndex"])
	frameToks, _ := obj["callstack"].([]interface{})
	for _, ft := range frameToks {
		f, err := frameFromToken(ft, root, warn)
		if err != nil {
			return nil, err
		}
		th.Frames = append(th.Frames, f)
	}
	if prev, ok := wire.String(obj["previousContentObject"]); ok {
		ptr, e := PointerAtPath(root, content.ParsePath(prev))
		if e != nil {
			if !e.Warning {
				return nil, e
			}
			warn.warn(e)
		}
		th.PreviousPointer = ptr
	}
	return th, nil
}

func frameFromToken(tok interface{}, root *content.Container, warn Warner) (*Frame, error) {
	obj, ok := tok.(map[string]interface{})
	if !ok {
		return nil, goink.Errorf(goink.MalformedDocument, "call frame token is not an object")
	}
	t, _ := wire.Int(obj["type"])
	ptr := content.NullPointer
	if cPath, ok := wire.String(obj["cPath"]); ok {
		result := root.ContentAtPath(content.ParsePath(cPath))
		ptr.Container = result.Container()
		ptr.Index, _ = wire.Int(obj["idx"])
		if result.Obj == nil || ptr.Container == nil {
			return nil, goink.Errorf(goink.PathResolutionFailure,
				"When loading state, internal story location couldn't be found: %s. Has the story changed since this save data was created?", cPath)
		}
		if result.Approximate {
			warn.warn(goink.Warningf(goink.PathResolutionFailure,
				"When loading state, exact internal story location couldn't be found: '%s', so it was approximated to '%s' to recover. Has the story changed since this save data was created?",
				cPath, content.PathOf(ptr.Container)))
		}
	}
	f := NewFrame(content.PushPopType(t), ptr, wire.Bool(obj["exp"]))
	if temps, ok := obj["temp"]; ok {
		symtab, err := SymbolTableFromToken(temps)
		if err != nil {
			return nil, err
		}
		f.Temporaries = symtab
	}
	return f, nil
}

// SymbolTableFromToken reads a symbol table from a token.
func SymbolTableFromToken(tok interface{}) (*SymbolTable, error) {
	obj, ok := tok.(map[string]interface{})
	if !ok {
		return nil, goink.Errorf(goink.MalformedDocument, "variables token is not an object")
	}
	symtab := NewSymbolTable()
	for name, vt := range obj {
		o, err := wire.TokenToObject(vt)
		if err != nil {
			return nil, err
		}
		v, ok := o.(content.Value)
		if !ok {
			return nil, goink.Errorf(goink.MalformedDocument, "variable %s does not hold a value", name)
		}
		symtab.Define(name, v)
	}
	return symtab, nil
}

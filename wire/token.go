package wire

import (
	"fmt"
	"sort"
	"strings"

	"github.com/npillmayer/goink"
	"github.com/npillmayer/goink/content"
)

func malformed(format string, args ...interface{}) error {
	return goink.Errorf(goink.MalformedDocument, format, args...)
}

// === Tokens to objects ===

// TokenToObject creates a content object from a token. Arrays become
// containers. A nil token yields a nil object.
func TokenToObject(tok interface{}) (content.Object, error) {
	switch x := tok.(type) {
	case nil:
		return nil, nil
	case bool:
		return &content.BoolValue{V: x}, nil
	case string:
		return stringTokenToObject(x)
	case []interface{}:
		return TokenToContainer(x)
	case map[string]interface{}:
		return dictTokenToObject(x)
	}
	if IsFloatToken(tok) {
		f, _ := Float64(tok)
		return &content.FloatValue{V: f}, nil
	}
	if i, ok := Int(tok); ok {
		return &content.IntValue{V: i}, nil
	}
	return nil, malformed("failed to convert token to runtime object: %v", tok)
}

func stringTokenToObject(s string) (content.Object, error) {
	if strings.HasPrefix(s, "^") {
		return &content.StringValue{V: s[1:]}, nil
	}
	switch s {
	case "\n":
		return &content.StringValue{V: "\n"}, nil
	case "<>":
		return &content.Glue{}, nil
	case "void":
		return &content.Void{}, nil
	case "L^": // '^' would be read as a string
		return content.NewNativeFunctionCall(content.OpIntersect), nil
	}
	if cmd := content.CommandFromName(s); cmd != nil {
		return cmd, nil
	}
	if call := content.NewNativeFunctionCall(s); call != nil {
		return call, nil
	}
	return nil, malformed("failed to convert token to runtime object: %q", s)
}

func dictTokenToObject(obj map[string]interface{}) (content.Object, error) {
	if p, ok := obj["^->"]; ok {
		s, _ := String(p)
		return &content.DivertTargetValue{Target: content.ParsePath(s)}, nil
	}
	if v, ok := obj["^var"]; ok {
		name, _ := String(v)
		vp := &content.VariablePointerValue{Name: name, ContextIndex: -1}
		if ci, ok := obj["ci"]; ok {
			vp.ContextIndex, _ = Int(ci)
		}
		return vp, nil
	}
	if d := divertFromToken(obj); d != nil {
		return d, nil
	}
	if p, ok := obj["*"]; ok {
		s, _ := String(p)
		cp := content.NewChoicePoint(content.ParsePath(s))
		if flg, ok := obj["flg"]; ok {
			f, _ := Int(flg)
			cp.SetFlags(f)
		}
		return cp, nil
	}
	if v, ok := obj["VAR?"]; ok {
		name, _ := String(v)
		return &content.VariableReference{Name: name}, nil
	}
	if v, ok := obj["CNT?"]; ok {
		s, _ := String(v)
		return &content.VariableReference{PathForCount: content.ParsePath(s)}, nil
	}
	isGlobal := false
	v, isAssignment := obj["VAR="]
	if isAssignment {
		isGlobal = true
	} else {
		v, isAssignment = obj["temp="]
	}
	if isAssignment {
		name, _ := String(v)
		return &content.VariableAssignment{
			Name:             name,
			IsGlobal:         isGlobal,
			IsNewDeclaration: !Bool(obj["re"]),
		}, nil
	}
	if v, ok := obj["#"]; ok {
		text, _ := String(v)
		return &content.Tag{Text: text}, nil
	}
	if v, ok := obj["list"]; ok {
		return listTokenToValue(v, obj["origins"])
	}
	if _, ok := obj["originalChoicePath"]; ok {
		return nil, malformed("choice token in content; choices are read with ChoiceFromToken")
	}
	return nil, malformed("failed to convert token to runtime object: %v", obj)
}

func divertFromToken(obj map[string]interface{}) *content.Divert {
	var d *content.Divert
	var target interface{}
	if t, ok := obj["->"]; ok {
		d, target = content.NewDivert(), t
	} else if t, ok := obj["f()"]; ok {
		d, target = content.NewPushingDivert(content.Function), t
	} else if t, ok := obj["->t->"]; ok {
		d, target = content.NewPushingDivert(content.Tunnel), t
	} else if t, ok := obj["x()"]; ok {
		d, target = content.NewDivert(), t
		d.IsExternal = true
		if n, ok := obj["exArgs"]; ok {
			d.ExternalArgs, _ = Int(n)
		}
	} else {
		return nil
	}
	s, _ := String(target)
	if Bool(obj["var"]) {
		d.VariableDivertName = s
	} else {
		d.SetTargetPath(content.ParsePath(s))
	}
	d.IsConditional = Bool(obj["c"])
	return d
}

func listTokenToValue(items interface{}, origins interface{}) (content.Object, error) {
	l := content.NewInkList()
	obj, ok := items.(map[string]interface{})
	if !ok && items != nil {
		return nil, malformed("list token is not an object: %v", items)
	}
	for fullName, v := range obj {
		i, ok := Int(v)
		if !ok {
			return nil, malformed("list item %s has no integer value", fullName)
		}
		l.Set(content.ParseListItem(fullName), i)
	}
	if names, ok := origins.([]interface{}); ok {
		var originNames []string
		for _, n := range names {
			if s, ok := String(n); ok {
				originNames = append(originNames, s)
			}
		}
		l.SetInitialOriginNames(originNames)
	}
	return &content.ListValue{List: l}, nil
}

// TokenToContainer reads a container token: content items followed by a
// terminator, which is either null or an object holding named-only
// sub-containers, count flags ("#f") and a name ("#n").
func TokenToContainer(arr []interface{}) (*content.Container, error) {
	c := content.NewContainer()
	if len(arr) == 0 {
		return c, nil
	}
	objs, err := TokensToObjects(arr[:len(arr)-1])
	if err != nil {
		return nil, err
	}
	for _, o := range objs {
		if o == nil {
			continue
		}
		if err := c.AddContent(o); err != nil {
			return nil, malformed(err.Error())
		}
	}
	terminator, ok := arr[len(arr)-1].(map[string]interface{})
	if !ok {
		return c, nil
	}
	for key, v := range terminator {
		switch key {
		case "#f":
			flags, _ := Int(v)
			c.SetCountFlags(flags)
		case "#n":
			c.Name, _ = String(v)
		default:
			sub, ok := v.([]interface{})
			if !ok {
				return nil, malformed("named content %s is not a container", key)
			}
			named, err := TokenToContainer(sub)
			if err != nil {
				return nil, err
			}
			named.Name = key
			c.AddToNamedContentOnly(named)
		}
	}
	return c, nil
}

// TokensToObjects converts an array of tokens.
func TokensToObjects(toks []interface{}) ([]content.Object, error) {
	objs := make([]content.Object, 0, len(toks))
	for _, tok := range toks {
		o, err := TokenToObject(tok)
		if err != nil {
			return nil, err
		}
		objs = append(objs, o)
	}
	return objs, nil
}

// === Objects to tokens ===

// ObjectToToken creates the token of a content object.
func ObjectToToken(o content.Object) (interface{}, error) {
	switch x := o.(type) {
	case *content.Container:
		return ContainerToToken(x, false)
	case *content.Divert:
		return divertToToken(x), nil
	case *content.ChoicePoint:
		return Dict{{"*", x.PathStringOnChoice()}, {"flg", x.Flags()}}, nil
	case *content.BoolValue:
		return x.V, nil
	case *content.IntValue:
		return x.V, nil
	case *content.FloatValue:
		return Float(x.V), nil
	case *content.StringValue:
		if x.IsNewline() {
			return "\n", nil
		}
		return "^" + x.V, nil
	case *content.ListValue:
		return listToToken(x.List), nil
	case *content.DivertTargetValue:
		return Dict{{"^->", x.Target.String()}}, nil
	case *content.VariablePointerValue:
		return Dict{{"^var", x.Name}, {"ci", x.ContextIndex}}, nil
	case *content.Glue:
		return "<>", nil
	case *content.ControlCommand:
		return x.Type.Name(), nil
	case *content.NativeFunctionCall:
		if x.Name == content.OpIntersect {
			return "L^", nil
		}
		return x.Name, nil
	case *content.VariableReference:
		if x.Name != "" {
			return Dict{{"VAR?", x.Name}}, nil
		}
		return Dict{{"CNT?", x.PathStringForCount()}}, nil
	case *content.VariableAssignment:
		key := "temp="
		if x.IsGlobal {
			key = "VAR="
		}
		d := Dict{{key, x.Name}}
		if !x.IsNewDeclaration {
			d.Set("re", true)
		}
		return d, nil
	case *content.Void:
		return "void", nil
	case *content.Tag:
		return Dict{{"#", x.Text}}, nil
	}
	return nil, fmt.Errorf("failed to write runtime object to token: %v", o)
}

func divertToToken(d *content.Divert) Dict {
	key := "->"
	if d.IsExternal {
		key = "x()"
	} else if d.PushesToStack {
		if d.StackPushType == content.Function {
			key = "f()"
		} else if d.StackPushType == content.Tunnel {
			key = "->t->"
		}
	}
	var target string
	if d.HasVariableTarget() {
		target = d.VariableDivertName
	} else {
		target = d.TargetPathString()
	}
	tok := Dict{{key, target}}
	if d.HasVariableTarget() {
		tok.Set("var", true)
	}
	if d.IsConditional {
		tok.Set("c", true)
	}
	if d.ExternalArgs > 0 {
		tok.Set("exArgs", d.ExternalArgs)
	}
	return tok
}

func listToToken(l *content.InkList) Dict {
	items := Dict{}
	for _, iv := range l.OrderedItems() {
		items.Set(iv.Item.FullName(), iv.Value)
	}
	tok := Dict{{"list", items}}
	if l.Len() == 0 {
		if names := l.OriginNames(); len(names) > 0 {
			origins := make([]interface{}, len(names))
			for i, n := range names {
				origins[i] = n
			}
			tok.Set("origins", origins)
		}
	}
	return tok
}

// ContainerToToken creates the token of a container. Named-only
// sub-containers are written without their name, as it is the key they
// are stored under.
func ContainerToToken(c *content.Container, withoutName bool) ([]interface{}, error) {
	arr := make([]interface{}, 0, len(c.Content)+1)
	for _, o := range c.Content {
		tok, err := ObjectToToken(o)
		if err != nil {
			return nil, err
		}
		arr = append(arr, tok)
	}
	namedOnly := c.NamedOnlyContent()
	countFlags := c.CountFlags()
	hasName := c.HasValidName() && !withoutName
	if namedOnly == nil && countFlags == 0 && !hasName {
		return append(arr, nil), nil
	}
	terminator := Dict{}
	names := make([]string, 0, len(namedOnly))
	for name := range namedOnly {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sub, err := ContainerToToken(namedOnly[name], true)
		if err != nil {
			return nil, err
		}
		terminator.Set(name, sub)
	}
	if countFlags > 0 {
		terminator.Set("#f", countFlags)
	}
	if hasName {
		terminator.Set("#n", c.Name)
	}
	return append(arr, terminator), nil
}

// ObjectsToTokens converts a slice of objects.
func ObjectsToTokens(objs []content.Object) ([]interface{}, error) {
	toks := make([]interface{}, 0, len(objs))
	for _, o := range objs {
		tok, err := ObjectToToken(o)
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
	}
	return toks, nil
}

package wire

import (
	"github.com/goccy/go-json"
	"github.com/npillmayer/goink"
	"github.com/npillmayer/goink/content"
	"github.com/tidwall/gjson"
)

// Versions of the document format this package is able to read.
const (
	InkVersionCurrent           = 20
	InkVersionMinimumCompatible = 18
)

// Document is a compiled story.
type Document struct {
	Version  int
	Root     *content.Container
	ListDefs []*content.ListDefinition
}

// DecodeDocument reads a compiled story from JSON. It checks the document
// version and the presence of a root container.
func DecodeDocument(b []byte) (*Document, error) {
	version, ok := PeekInkVersion(b)
	if !ok {
		return nil, malformed("ink version number not found. Are you sure it's a valid .ink.json file?")
	}
	if version > InkVersionCurrent {
		return nil, malformed("Version of ink used to build story was newer than the current version of the engine")
	}
	if version < InkVersionMinimumCompatible {
		return nil, malformed("Version of ink used to build story is too old to be loaded by this version of the engine")
	}
	if version != InkVersionCurrent {
		tracer().Infof("WARNING: Version of ink used to build story doesn't match current version of engine. Non-critical, but recommend synchronising.")
	}
	tree, err := DecodeJSON(b)
	if err != nil {
		return nil, goink.Errorf(goink.MalformedDocument, "cannot parse story document: %v", err)
	}
	obj, ok := tree.(map[string]interface{})
	if !ok {
		return nil, malformed("story document is not a JSON object")
	}
	rootToken, ok := obj["root"].([]interface{})
	if !ok {
		return nil, malformed("Root node for ink not found. Are you sure it's a valid .ink.json file?")
	}
	root, err := TokenToContainer(rootToken)
	if err != nil {
		return nil, err
	}
	doc := &Document{Version: version, Root: root}
	doc.ListDefs, err = decodeListDefs(b)
	if err != nil {
		return nil, err
	}
	tracer().Debugf("decoded story document version %d with %d list definitions", version, len(doc.ListDefs))
	return doc, nil
}

// List items have to be read in document order, which is lost by Go maps.
func decodeListDefs(b []byte) ([]*content.ListDefinition, error) {
	var defs []*content.ListDefinition
	var err error
	gjson.GetBytes(b, "listDefs").ForEach(func(name, items gjson.Result) bool {
		if !items.IsObject() {
			err = malformed("list definition %s is not an object", name.String())
			return false
		}
		var itemNames []string
		var values []int
		items.ForEach(func(item, value gjson.Result) bool {
			itemNames = append(itemNames, item.String())
			values = append(values, int(value.Int()))
			return true
		})
		defs = append(defs, content.NewListDefinition(name.String(), itemNames, values))
		return true
	})
	return defs, err
}

// EncodeDocument writes a compiled story as JSON.
func EncodeDocument(doc *Document) ([]byte, error) {
	root, err := ContainerToToken(doc.Root, false)
	if err != nil {
		return nil, err
	}
	version := doc.Version
	if version == 0 {
		version = InkVersionCurrent
	}
	tok := Dict{{"inkVersion", version}, {"root", root}}
	if len(doc.ListDefs) > 0 {
		tok.Set("listDefs", ListDefsToken(doc.ListDefs))
	}
	return json.Marshal(tok)
}

// ListDefsToken creates the token of a story's list definitions.
func ListDefsToken(defs []*content.ListDefinition) Dict {
	lists := Dict{}
	for _, def := range defs {
		items := Dict{}
		for _, iv := range def.Items() {
			items.Set(iv.Item.ItemName, iv.Value)
		}
		lists.Set(def.Name, items)
	}
	return lists
}

// === Version peeking ===

// PeekInkVersion reads the version of a story document without parsing
// the whole document.
func PeekInkVersion(b []byte) (int, bool) {
	return peekInt(b, "inkVersion")
}

// PeekSaveVersion reads the version of a save state without parsing it.
func PeekSaveVersion(b []byte) (int, bool) {
	return peekInt(b, "inkSaveVersion")
}

func peekInt(b []byte, key string) (int, bool) {
	if !gjson.ValidBytes(b) {
		return 0, false
	}
	r := gjson.GetBytes(b, key)
	if !r.Exists() || r.Type != gjson.Number {
		return 0, false
	}
	return int(r.Int()), true
}

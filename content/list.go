package content

import (
	"fmt"
	"math"
	"strings"

	"github.com/emirpasic/gods/utils"
	"github.com/npillmayer/goink"
)

// ListItem is an item of a list definition. OriginName is empty if the
// origin is unknown.
type ListItem struct {
	OriginName string
	ItemName   string
}

// ParseListItem creates an item from its full name "Origin.Item".
func ParseListItem(fullName string) ListItem {
	if i := strings.IndexByte(fullName, '.'); i >= 0 {
		return ListItem{OriginName: fullName[:i], ItemName: fullName[i+1:]}
	}
	return ListItem{ItemName: fullName}
}

// IsNull is a predicate: is item the zero item?
func (item ListItem) IsNull() bool {
	return item.OriginName == "" && item.ItemName == ""
}

// FullName returns "Origin.Item", with "?" for an unknown origin.
func (item ListItem) FullName() string {
	origin := item.OriginName
	if origin == "" {
		origin = "?"
	}
	return origin + "." + item.ItemName
}

func (item ListItem) String() string {
	return item.FullName()
}

// ItemValue pairs a list item with its integer value.
type ItemValue struct {
	Item  ListItem
	Value int
}

// === Ink lists ===

// InkList is a set of list items with their values, together with the list
// definitions its items stem from. Origins are needed for operations which
// have to find items by value, e.g. list + 1.
type InkList struct {
	items       map[ListItem]int
	Origins     []*ListDefinition
	originNames []string // kept for empty lists
}

// NewInkList creates an empty list.
func NewInkList() *InkList {
	return &InkList{items: make(map[ListItem]int)}
}

// Copy returns a copy of l. Origins are shared.
func (l *InkList) Copy() *InkList {
	c := NewInkList()
	for k, v := range l.items {
		c.items[k] = v
	}
	if l.Origins != nil {
		c.Origins = append([]*ListDefinition(nil), l.Origins...)
	}
	c.originNames = l.OriginNames()
	return c
}

// Len returns the number of items.
func (l *InkList) Len() int {
	return len(l.items)
}

// Set adds an item with a value, replacing an existing entry.
func (l *InkList) Set(item ListItem, value int) {
	l.items[item] = value
}

// Remove removes an item.
func (l *InkList) Remove(item ListItem) {
	delete(l.items, item)
}

// Has is a predicate: is item a member of l?
func (l *InkList) Has(item ListItem) bool {
	_, ok := l.items[item]
	return ok
}

// ValueOf returns the value of an item of l.
func (l *InkList) ValueOf(item ListItem) (int, bool) {
	v, ok := l.items[item]
	return v, ok
}

// AddItem adds an item of a list definition already known to l. If the
// item has no origin, it is searched by name.
func (l *InkList) AddItem(item ListItem) error {
	if item.OriginName == "" {
		return l.AddItemNamed(item.ItemName)
	}
	for _, origin := range l.Origins {
		if origin.Name == item.OriginName {
			if v, ok := origin.ValueForItemName(item.ItemName); ok {
				l.items[item] = v
				return nil
			}
			return fmt.Errorf("could not add the item %s to this list because it doesn't exist in the original list definition", item)
		}
	}
	return fmt.Errorf("failed to add item %s to list: the item is from a list definition unknown to this list", item)
}

// AddItemNamed adds an item by its short name, searching the known origins.
func (l *InkList) AddItemNamed(itemName string) error {
	var found *ListDefinition
	for _, origin := range l.Origins {
		if origin.ContainsItemWithName(itemName) {
			if found != nil {
				return fmt.Errorf("could not add the item %s to this list because it could come from either %s or %s",
					itemName, origin.Name, found.Name)
			}
			found = origin
		}
	}
	if found == nil {
		return fmt.Errorf("could not add the item %s to this list because it isn't known to any list definitions previously associated with this list", itemName)
	}
	v, _ := found.ValueForItemName(itemName)
	l.items[ListItem{OriginName: found.Name, ItemName: itemName}] = v
	return nil
}

// ContainsItemNamed is a predicate: is there an item with a given short name?
func (l *InkList) ContainsItemNamed(itemName string) bool {
	for item := range l.items {
		if item.ItemName == itemName {
			return true
		}
	}
	return false
}

// OriginOfMaxItem returns the list definition of the item with the highest
// value, if known.
func (l *InkList) OriginOfMaxItem() *ListDefinition {
	max, ok := l.MaxItem()
	if !ok {
		return nil
	}
	for _, origin := range l.Origins {
		if origin.Name == max.Item.OriginName {
			return origin
		}
	}
	return nil
}

// OriginNames returns the sorted names of the definitions the items stem
// from. For an empty list these are the initial origin names, if any.
func (l *InkList) OriginNames() []string {
	if len(l.items) == 0 {
		if l.originNames == nil {
			return nil
		}
		return append([]string(nil), l.originNames...)
	}
	seen := make(map[string]bool)
	names := make([]interface{}, 0, 1)
	for item := range l.items {
		if !seen[item.OriginName] {
			seen[item.OriginName] = true
			names = append(names, item.OriginName)
		}
	}
	utils.Sort(names, utils.StringComparator)
	result := make([]string, len(names))
	for i, n := range names {
		result[i] = n.(string)
	}
	return result
}

// SetInitialOriginName sets the origin of an empty list.
func (l *InkList) SetInitialOriginName(name string) {
	l.originNames = []string{name}
}

// SetInitialOriginNames sets the origins of an empty list.
func (l *InkList) SetInitialOriginNames(names []string) {
	if names == nil {
		l.originNames = nil
		return
	}
	l.originNames = append([]string(nil), names...)
}

// OrderedItems returns the items sorted by value, ties broken by origin name.
func (l *InkList) OrderedItems() []ItemValue {
	entries := make([]interface{}, 0, len(l.items))
	for k, v := range l.items {
		entries = append(entries, ItemValue{Item: k, Value: v})
	}
	utils.Sort(entries, func(a, b interface{}) int {
		x, y := a.(ItemValue), b.(ItemValue)
		if x.Value == y.Value {
			if c := utils.StringComparator(x.Item.OriginName, y.Item.OriginName); c != 0 {
				return c
			}
			return utils.StringComparator(x.Item.ItemName, y.Item.ItemName)
		}
		return utils.IntComparator(x.Value, y.Value)
	})
	ordered := make([]ItemValue, len(entries))
	for i, e := range entries {
		ordered[i] = e.(ItemValue)
	}
	return ordered
}

// MaxItem returns the item with the highest value. Returns false for an
// empty list.
func (l *InkList) MaxItem() (ItemValue, bool) {
	var max ItemValue
	found := false
	for _, iv := range l.OrderedItems() {
		if !found || iv.Value > max.Value {
			max, found = iv, true
		}
	}
	return max, found
}

// MinItem returns the item with the lowest value. Returns false for an
// empty list.
func (l *InkList) MinItem() (ItemValue, bool) {
	var min ItemValue
	found := false
	for _, iv := range l.OrderedItems() {
		if !found || iv.Value < min.Value {
			min, found = iv, true
		}
	}
	return min, found
}

func (l *InkList) maxValue() int {
	max, _ := l.MaxItem()
	return max.Value
}

func (l *InkList) minValue() int {
	min, _ := l.MinItem()
	return min.Value
}

// Inverse returns all items of l's origins which are not in l (LIST_INVERT).
func (l *InkList) Inverse() *InkList {
	inv := NewInkList()
	for _, origin := range l.Origins {
		for _, iv := range origin.Items() {
			if !l.Has(iv.Item) {
				inv.items[iv.Item] = iv.Value
			}
		}
	}
	return inv
}

// All returns all items of l's origins (LIST_ALL).
func (l *InkList) All() *InkList {
	all := NewInkList()
	for _, origin := range l.Origins {
		for _, iv := range origin.Items() {
			all.items[iv.Item] = iv.Value
		}
	}
	return all
}

// Union returns l + other.
func (l *InkList) Union(other *InkList) *InkList {
	union := l.Copy()
	for k, v := range other.items {
		union.items[k] = v
	}
	return union
}

// Intersect returns l ^ other.
func (l *InkList) Intersect(other *InkList) *InkList {
	intersection := NewInkList()
	for k, v := range l.items {
		if other.Has(k) {
			intersection.items[k] = v
		}
	}
	return intersection
}

// Without returns l - other.
func (l *InkList) Without(other *InkList) *InkList {
	result := l.Copy()
	for k := range other.items {
		delete(result.items, k)
	}
	return result
}

// Contains is a predicate: does l contain all items of other (l ? other)?
// Nothing contains the empty list.
func (l *InkList) Contains(other *InkList) bool {
	if other.Len() == 0 || l.Len() == 0 {
		return false
	}
	for k := range other.items {
		if !l.Has(k) {
			return false
		}
	}
	return true
}

// GreaterThan is a predicate: are all values of l greater than all values of other?
func (l *InkList) GreaterThan(other *InkList) bool {
	if l.Len() == 0 {
		return false
	}
	if other.Len() == 0 {
		return true
	}
	return l.minValue() > other.maxValue()
}

// GreaterThanOrEquals is LIST_MIN(l) >= LIST_MIN(other) && LIST_MAX(l) >= LIST_MAX(other).
func (l *InkList) GreaterThanOrEquals(other *InkList) bool {
	if l.Len() == 0 {
		return false
	}
	if other.Len() == 0 {
		return true
	}
	return l.minValue() >= other.minValue() && l.maxValue() >= other.maxValue()
}

// LessThan is a predicate: are all values of l less than all values of other?
func (l *InkList) LessThan(other *InkList) bool {
	if other.Len() == 0 {
		return false
	}
	if l.Len() == 0 {
		return true
	}
	return l.maxValue() < other.minValue()
}

// LessThanOrEquals is LIST_MAX(l) <= LIST_MAX(other) && LIST_MIN(l) <= LIST_MIN(other).
func (l *InkList) LessThanOrEquals(other *InkList) bool {
	if other.Len() == 0 {
		return false
	}
	if l.Len() == 0 {
		return true
	}
	return l.maxValue() <= other.maxValue() && l.minValue() <= other.minValue()
}

// MaxAsList returns the item with the highest value as a single-item list.
func (l *InkList) MaxAsList() *InkList {
	result := NewInkList()
	if max, ok := l.MaxItem(); ok {
		result.items[max.Item] = max.Value
	}
	return result
}

// MinAsList returns the item with the lowest value as a single-item list.
func (l *InkList) MinAsList() *InkList {
	result := NewInkList()
	if min, ok := l.MinItem(); ok {
		result.items[min.Item] = min.Value
	}
	return result
}

// ListWithSubRange returns the items with values inside a range. Bounds are
// either ints or lists; for lists the minimum of minBound and the maximum of
// maxBound are used.
func (l *InkList) ListWithSubRange(minBound, maxBound interface{}) *InkList {
	if l.Len() == 0 {
		return NewInkList()
	}
	minValue, maxValue := 0, math.MaxInt32
	switch b := minBound.(type) {
	case int:
		minValue = b
	case *InkList:
		if b.Len() > 0 {
			minValue = b.minValue()
		}
	}
	switch b := maxBound.(type) {
	case int:
		maxValue = b
	case *InkList:
		if b.Len() > 0 {
			maxValue = b.maxValue()
		}
	}
	sub := NewInkList()
	sub.SetInitialOriginNames(l.OriginNames())
	for _, iv := range l.OrderedItems() {
		if iv.Value >= minValue && iv.Value <= maxValue {
			sub.items[iv.Item] = iv.Value
		}
	}
	return sub
}

// Equal is a predicate: do l and other hold the same items?
func (l *InkList) Equal(other *InkList) bool {
	if l == nil || other == nil {
		return l == other
	}
	if l.Len() != other.Len() {
		return false
	}
	for k := range l.items {
		if !other.Has(k) {
			return false
		}
	}
	return true
}

// String returns the short item names, ordered by value and separated by commas.
func (l *InkList) String() string {
	var b strings.Builder
	for i, iv := range l.OrderedItems() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(iv.Item.ItemName)
	}
	return b.String()
}

// === List definitions ===

// ListDefinition is a named enumeration of items with integer values, as
// declared by LIST.
type ListDefinition struct {
	Name      string
	itemNames []string // in declaration order
	values    map[string]int
}

// NewListDefinition creates a list definition. names and values are
// parallel slices.
func NewListDefinition(name string, names []string, values []int) *ListDefinition {
	def := &ListDefinition{
		Name:      name,
		itemNames: append([]string(nil), names...),
		values:    make(map[string]int, len(names)),
	}
	for i, n := range names {
		def.values[n] = values[i]
	}
	return def
}

// Items returns the items of the definition in declaration order.
func (def *ListDefinition) Items() []ItemValue {
	items := make([]ItemValue, len(def.itemNames))
	for i, n := range def.itemNames {
		items[i] = ItemValue{Item: ListItem{OriginName: def.Name, ItemName: n}, Value: def.values[n]}
	}
	return items
}

// ValueForItem returns the value of an item, or 0.
func (def *ListDefinition) ValueForItem(item ListItem) int {
	return def.values[item.ItemName]
}

// ValueForItemName returns the value of an item given its short name.
func (def *ListDefinition) ValueForItemName(name string) (int, bool) {
	v, ok := def.values[name]
	return v, ok
}

// ContainsItem is a predicate: is item an item of def?
func (def *ListDefinition) ContainsItem(item ListItem) bool {
	if item.OriginName != def.Name {
		return false
	}
	_, ok := def.values[item.ItemName]
	return ok
}

// ContainsItemWithName is a predicate: does def have an item with a short name?
func (def *ListDefinition) ContainsItemWithName(name string) bool {
	_, ok := def.values[name]
	return ok
}

// TryGetItemWithValue finds the first item (in declaration order) with a value.
func (def *ListDefinition) TryGetItemWithValue(v int) (ListItem, bool) {
	for _, n := range def.itemNames {
		if def.values[n] == v {
			return ListItem{OriginName: def.Name, ItemName: n}, true
		}
	}
	return ListItem{}, false
}

// ListDefinitionsOrigin holds all list definitions of a story.
type ListDefinitionsOrigin struct {
	lists map[string]*ListDefinition
	order []*ListDefinition
	cache map[string]*ListValue // single-item lists by short and full item name
}

// NewListDefinitionsOrigin creates the lookup structure for a story's lists.
func NewListDefinitionsOrigin(defs []*ListDefinition) *ListDefinitionsOrigin {
	o := &ListDefinitionsOrigin{
		lists: make(map[string]*ListDefinition, len(defs)),
		order: defs,
		cache: make(map[string]*ListValue),
	}
	for _, def := range defs {
		o.lists[def.Name] = def
		for _, iv := range def.Items() {
			lv := NewSingleItemListValue(iv.Item, iv.Value)
			o.cache[iv.Item.ItemName] = lv
			o.cache[iv.Item.FullName()] = lv
		}
	}
	return o
}

// Lists returns the definitions in document order.
func (o *ListDefinitionsOrigin) Lists() []*ListDefinition {
	return o.order
}

// Definition looks up a definition by name.
func (o *ListDefinitionsOrigin) Definition(name string) (*ListDefinition, bool) {
	if o == nil {
		return nil, false
	}
	def, ok := o.lists[name]
	return def, ok
}

// FindSingleItemListWithName returns a fresh single-item list value for an
// item given by its short or full name, or nil.
func (o *ListDefinitionsOrigin) FindSingleItemListWithName(name string) *ListValue {
	if o == nil {
		return nil
	}
	if lv, ok := o.cache[name]; ok {
		return NewListValue(lv.List)
	}
	return nil
}

// ListFromString creates a list holding a single item given by name.
func (o *ListDefinitionsOrigin) ListFromString(name string) (*InkList, error) {
	lv := o.FindSingleItemListWithName(name)
	if lv == nil {
		return nil, goink.Errorf(goink.TypeCoercion,
			"Could not find the list item '%s' because it doesn't exist in the original list definition", name)
	}
	return lv.List, nil
}

// ResolveOrigins sets the origins of a list from its origin names.
func (o *ListDefinitionsOrigin) ResolveOrigins(l *InkList) {
	names := l.OriginNames()
	if names == nil {
		return
	}
	origins := make([]*ListDefinition, 0, len(names))
	for _, n := range names {
		if def, ok := o.Definition(n); ok {
			origins = append(origins, def)
		}
	}
	l.Origins = origins
}

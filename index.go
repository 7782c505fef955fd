package kura

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"unsafe"

	"github.com/RoaringBitmap/roaring/v2"
)

// componentIndex is the secondary index of one indexed component type. add is
// called after every write with the address of the new value, remove when the
// component leaves the entity.
type componentIndex interface {
	add(id uint32, ptr unsafe.Pointer)
	remove(id uint32)
}

// valueLookup returns the live set of entities holding value v, or nil.
type valueLookup[V comparable] interface {
	lookup(v V) *roaring.Bitmap
}

// linkSources returns the ids of all entities whose link component points to
// target, in the order the links were set.
type linkSources interface {
	sources(target uint32) []uint32
}

// valueIndex maps each distinct value to the set of entities holding it and
// each entity to its current value.
type valueIndex[T IndexedComponent[V], V comparable] struct {
	sets   map[V]*roaring.Bitmap
	values map[uint32]V
	// onKey is called when a value gains its first or loses its last entity.
	onKey func(v V, added bool)
}

func newValueIndex[T IndexedComponent[V], V comparable](s *Store) *valueIndex[T, V] {
	return &valueIndex[T, V]{
		sets:   make(map[V]*roaring.Bitmap),
		values: make(map[uint32]V),
	}
}

func (x *valueIndex[T, V]) add(id uint32, ptr unsafe.Pointer) {
	x.set(id, (*(*T)(ptr)).IndexedValue())
}

// set associates id with v. It reports false if id already held v.
//
// Values unequal to themselves (NaN, or structs holding one) are not indexed:
// no lookup or range could ever match them, and as map keys they would never
// be found again for removal.
func (x *valueIndex[T, V]) set(id uint32, v V) bool {
	old, had := x.values[id]
	if had && old == v {
		return false
	}
	if v != v {
		if !had {
			return false
		}
		delete(x.values, id)
		x.unset(id, old)
		return true
	}
	if had {
		x.unset(id, old)
	}
	x.values[id] = v
	bm, ok := x.sets[v]
	if !ok {
		bm = roaring.New()
		x.sets[v] = bm
		if x.onKey != nil {
			x.onKey(v, true)
		}
	}
	bm.Add(id)
	return true
}

func (x *valueIndex[T, V]) remove(id uint32) {
	if old, ok := x.values[id]; ok {
		delete(x.values, id)
		x.unset(id, old)
	}
}

func (x *valueIndex[T, V]) unset(id uint32, v V) {
	bm := x.sets[v]
	if bm == nil {
		return
	}
	bm.Remove(id)
	if bm.IsEmpty() {
		delete(x.sets, v)
		if x.onKey != nil {
			x.onKey(v, false)
		}
	}
}

func (x *valueIndex[T, V]) lookup(v V) *roaring.Bitmap { return x.sets[v] }

func (x *valueIndex[T, V]) distinct() []V {
	values := make([]V, 0, len(x.sets))
	for v := range x.sets {
		values = append(values, v)
	}
	return values
}

// rangeIndex is a valueIndex over ordered values that keeps its distinct keys
// sorted to answer range queries.
type rangeIndex[T IndexedComponent[V], V cmp.Ordered] struct {
	*valueIndex[T, V]
	keys []V
}

func newRangeIndex[T IndexedComponent[V], V cmp.Ordered](s *Store) *rangeIndex[T, V] {
	r := &rangeIndex[T, V]{valueIndex: newValueIndex[T, V](s)}
	r.onKey = func(v V, added bool) {
		i, found := slices.BinarySearch(r.keys, v)
		switch {
		case added && !found:
			r.keys = slices.Insert(r.keys, i, v)
		case !added && found:
			r.keys = slices.Delete(r.keys, i, i+1)
		}
	}
	return r
}

func (r *rangeIndex[T, V]) distinct() []V { return slices.Clone(r.keys) }

// between returns the union of all sets with keys in [lo, hi].
func (r *rangeIndex[T, V]) between(lo, hi V) *roaring.Bitmap {
	if cmp.Less(hi, lo) {
		return roaring.New()
	}
	from, _ := slices.BinarySearch(r.keys, lo)
	to, found := slices.BinarySearch(r.keys, hi)
	if found {
		to++
	}
	if from >= to {
		return roaring.New()
	}
	sets := make([]*roaring.Bitmap, 0, to-from)
	for _, k := range r.keys[from:to] {
		sets = append(sets, r.sets[k])
	}
	return roaring.FastOr(sets...)
}

// linkIndex indexes a component referencing another entity. In addition to
// the target value index it keeps, per target, the source entities in the
// order their link was set.
type linkIndex[T IndexedComponent[Entity]] struct {
	*valueIndex[T, Entity]
	refs map[uint32][]uint32
}

func newLinkIndex[T IndexedComponent[Entity]](s *Store) *linkIndex[T] {
	return &linkIndex[T]{
		valueIndex: newValueIndex[T, Entity](s),
		refs:       make(map[uint32][]uint32),
	}
}

func (l *linkIndex[T]) add(id uint32, ptr unsafe.Pointer) {
	target := (*(*T)(ptr)).IndexedValue()
	old, had := l.values[id]
	if !l.set(id, target) {
		return
	}
	if had {
		l.unlink(id, old.Id)
	}
	if !target.IsNull() {
		l.refs[target.Id] = append(l.refs[target.Id], id)
	}
}

func (l *linkIndex[T]) remove(id uint32) {
	if old, ok := l.values[id]; ok {
		l.unlink(id, old.Id)
	}
	l.valueIndex.remove(id)
}

func (l *linkIndex[T]) unlink(source, target uint32) {
	refs := l.refs[target]
	if i := slices.Index(refs, source); i >= 0 {
		refs = slices.Delete(refs, i, i+1)
	}
	if len(refs) == 0 {
		delete(l.refs, target)
		return
	}
	l.refs[target] = refs
}

func (l *linkIndex[T]) sources(target uint32) []uint32 { return l.refs[target] }

// index returns the index of info, creating it on first use and filling it
// with the values already stored in the store's archetypes.
func (s *Store) index(info *componentInfo) componentIndex {
	if idx := s.indexes[info.id]; idx != nil {
		return idx
	}
	idx := info.newIndex(s)
	s.indexes[info.id] = idx
	if info.index == indexLink {
		s.linkTypes = append(s.linkTypes, info)
	}
	for _, a := range s.archetypes {
		c := a.column(info.id)
		if c == nil {
			continue
		}
		for row := 0; row < a.count; row++ {
			idx.add(a.entityIds[row], c.ptr(row))
		}
	}
	return idx
}

// removeLinksTo removes every link component pointing at target.
func (s *Store) removeLinksTo(target uint32) {
	for _, info := range s.linkTypes {
		refs := s.indexes[info.id].(linkSources).sources(target)
		if len(refs) == 0 {
			continue
		}
		for _, src := range slices.Clone(refs) {
			if s.alive(src) {
				s.removeComponent(src, info)
			}
		}
	}
}

func indexedInfo[T any](kind ...indexKind) *componentInfo {
	info := componentInfoOf(reflect.TypeFor[T]())
	if info.index == indexNone {
		panic(fmt.Sprintf("kura: component %s is not indexed", info.name))
	}
	if len(kind) > 0 && !slices.Contains(kind, info.index) {
		panic(fmt.Sprintf("kura: component %s does not support this index query", info.name))
	}
	return info
}

func lookupIndex[V comparable](s *Store, info *componentInfo) valueLookup[V] {
	idx, ok := s.index(info).(valueLookup[V])
	if !ok {
		panic(fmt.Sprintf("kura: component %s is not indexed by %s", info.name, reflect.TypeFor[V]()))
	}
	return idx
}

// GetEntitiesWithComponentValue returns the entities whose component `T`
// currently has the indexed value v. The result is a snapshot.
func GetEntitiesWithComponentValue[T IndexedComponent[V], V comparable](s *Store, v V) EntitySet {
	bm := lookupIndex[V](s, indexedInfo[T]()).lookup(v)
	if bm == nil {
		return EntitySet{store: s}
	}
	return EntitySet{store: s, bits: bm.Clone()}
}

// ValueInRange returns the entities whose indexed value of `T` lies in
// [lo, hi], both inclusive. T must be registered with
// RegisterRangeIndexedComponent.
func ValueInRange[T IndexedComponent[V], V cmp.Ordered](s *Store, lo, hi V) EntitySet {
	info := indexedInfo[T](indexRange)
	r, ok := s.index(info).(*rangeIndex[T, V])
	if !ok {
		panic(fmt.Sprintf("kura: component %s is not range indexed by %s", info.name, reflect.TypeFor[V]()))
	}
	return EntitySet{store: s, bits: r.between(lo, hi)}
}

// GetAllIndexedComponentValues returns the distinct values of `T` currently
// held by at least one entity. Range indexed values are returned in ascending
// order, other values in no particular order.
func GetAllIndexedComponentValues[T IndexedComponent[V], V comparable](s *Store) []V {
	info := indexedInfo[T]()
	idx, ok := s.index(info).(interface{ distinct() []V })
	if !ok {
		panic(fmt.Sprintf("kura: component %s is not indexed by %s", info.name, reflect.TypeFor[V]()))
	}
	return idx.distinct()
}

// EntityLink is one source entity referencing a target through a link
// component, together with the component value.
type EntityLink[T any] struct {
	Source    Entity
	Component T
}

// GetEntityReferences returns the entities linking to target through the link
// component `T`, in the order the links were set.
func GetEntityReferences[T IndexedComponent[Entity]](target Entity) []EntityLink[T] {
	if target.store == nil {
		return nil
	}
	s := target.store
	info := indexedInfo[T](indexLink)
	refs := s.index(info).(linkSources).sources(target.Id)
	links := make([]EntityLink[T], 0, len(refs))
	for _, id := range refs {
		node := s.nodes[id]
		links = append(links, EntityLink[T]{
			Source:    Entity{store: s, Id: id},
			Component: *(*T)(node.archetype.column(info.id).ptr(node.row)),
		})
	}
	return links
}

// GetLinkedEntities returns the entities linking to target through `T`.
func GetLinkedEntities[T IndexedComponent[Entity]](target Entity) EntitySet {
	if target.store == nil {
		return EntitySet{}
	}
	return GetEntitiesWithComponentValue[T, Entity](target.store, target)
}

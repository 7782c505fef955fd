package kura

import (
	"iter"
	"reflect"

	"github.com/RoaringBitmap/roaring/v2"
)

// Query selects the archetypes whose signature contains a required set of
// component types and tags. Matching is incremental: each access classifies
// only the archetypes created since the previous access, and a classification
// never changes afterwards.
//
// A Query holds no entity data. Iterators returned by a query are invalidated
// by any structural change of the store.
type Query struct {
	store       *Store
	required    ComponentTypes
	without     ComponentTypes
	readOnly    ComponentTypes
	tags        Tags
	withoutTags Tags
	filters     []valueFilter
	matched     []*Archetype
	isMatched   []bool // by archetype index, for classified archetypes
}

type valueFilter struct {
	info   *componentInfo
	lookup func() *roaring.Bitmap
}

// NewQuery creates a query for all archetypes containing sig.
func NewQuery(s *Store, sig Signature) *Query {
	return &Query{
		store:    s,
		required: sig.components,
		tags:     sig.tags,
	}
}

// Query creates a query for all archetypes containing sig.
func (s *Store) Query(sig Signature) *Query { return NewQuery(s, sig) }

// Store returns the store the query observes.
func (q *Query) Store() *Store { return q.store }

// Signature returns the required component types and tags.
func (q *Query) Signature() Signature { return Signature{components: q.required, tags: q.tags} }

// WithoutTags excludes archetypes having any of tags.
func (q *Query) WithoutTags(tags Tags) *Query {
	q.withoutTags = q.withoutTags.With(tags)
	q.reset()
	return q
}

// WithoutComponents excludes archetypes having any of types.
func (q *Query) WithoutComponents(types ...ComponentType) *Query {
	q.without = q.without.With(types...)
	q.reset()
	return q
}

// ReadOnly declares that the query only reads components of the given types.
// The declaration is informational; spans always refer to live storage.
func (q *Query) ReadOnly(types ...ComponentType) *Query {
	q.readOnly = q.readOnly.With(types...)
	return q
}

// IsReadOnly reports whether t was declared read-only.
func (q *Query) IsReadOnly(t ComponentType) bool { return q.readOnly.Has(t) }

// HasValue restricts the entities of q to those whose indexed component `T`
// currently has value v. Multiple predicates are combined with AND. Value
// predicates apply to Entities and EntityCount; chunk iteration visits all
// entities of the matching archetypes.
func HasValue[T IndexedComponent[V], V comparable](q *Query, v V) *Query {
	info := indexedInfo[T]()
	s := q.store
	q.filters = append(q.filters, valueFilter{
		info: info,
		lookup: func() *roaring.Bitmap {
			return lookupIndex[V](s, info).lookup(v)
		},
	})
	q.required = q.required.With(ComponentType{info: info})
	q.reset()
	return q
}

func (q *Query) reset() {
	q.matched = q.matched[:0]
	q.isMatched = q.isMatched[:0]
}

// update classifies the archetypes created since the last call.
func (q *Query) update() {
	all := q.store.archetypes
	for i := len(q.isMatched); i < len(all); i++ {
		a := all[i]
		ok := q.matches(a.sig)
		q.isMatched = append(q.isMatched, ok)
		if ok {
			q.matched = append(q.matched, a)
		}
	}
}

func (q *Query) matches(sig Signature) bool {
	return sig.components.mask.contains(q.required.mask) &&
		sig.tags.mask.contains(q.tags.mask) &&
		!sig.components.mask.intersects(q.without.mask) &&
		!sig.tags.mask.intersects(q.withoutTags.mask)
}

// Archetypes returns the matching archetypes in creation order. The slice is
// owned by the query.
func (q *Query) Archetypes() []*Archetype {
	q.update()
	return q.matched
}

// Matches reports whether the archetype is selected by the query.
func (q *Query) Matches(a *Archetype) bool {
	if a == nil || a.store != q.store {
		return false
	}
	q.update()
	return q.isMatched[a.index]
}

// EntityCount returns the number of entities selected by the query,
// including value predicates.
func (q *Query) EntityCount() int {
	q.update()
	if len(q.filters) == 0 {
		n := 0
		for _, a := range q.matched {
			n += a.count
		}
		return n
	}
	n := 0
	for range q.Entities() {
		n++
	}
	return n
}

// Entities iterates the selected entities. Without value predicates entities
// are visited in archetype and row order, otherwise in ascending id order.
func (q *Query) Entities() iter.Seq[Entity] {
	q.update()
	return func(yield func(Entity) bool) {
		if len(q.filters) == 0 {
			for _, a := range q.matched {
				for _, id := range a.entityIds[:a.count] {
					if !yield(Entity{store: q.store, Id: id}) {
						return
					}
				}
			}
			return
		}
		sets := make([]*roaring.Bitmap, len(q.filters))
		for i, f := range q.filters {
			if sets[i] = f.lookup(); sets[i] == nil {
				return
			}
		}
		ids := sets[0]
		if len(sets) > 1 {
			ids = roaring.FastAnd(sets...)
		}
		it := ids.Iterator()
		for it.HasNext() {
			id := it.Next()
			if !q.store.alive(id) {
				continue
			}
			idx := q.store.nodes[id].archetype.index
			if idx >= len(q.isMatched) {
				q.update()
			}
			if !q.isMatched[idx] {
				continue
			}
			if !yield(Entity{store: q.store, Id: id}) {
				return
			}
		}
	}
}

// Chunks returns an iterator over all chunks of the matching archetypes.
func (q *Query) Chunks() ChunkIter {
	q.update()
	return ChunkIter{cursor: newChunkCursor(q.matched)}
}

// chunkCursor walks the chunks of a list of archetypes. Empty archetypes are
// skipped.
type chunkCursor struct {
	matched []*Archetype
	arch    *Archetype
	archIdx int
	chunk   int
	chunks  int
	n       int
}

func newChunkCursor(matched []*Archetype) chunkCursor {
	return chunkCursor{matched: matched, archIdx: -1}
}

func (c *chunkCursor) next() bool {
	c.chunk++
	for c.chunk >= c.chunks {
		c.archIdx++
		if c.archIdx >= len(c.matched) {
			c.arch = nil
			return false
		}
		c.arch = c.matched[c.archIdx]
		c.chunks = c.arch.ChunkCount()
		c.chunk = 0
	}
	c.n = chunkLen(c.arch, c.chunk)
	return true
}

func (c *chunkCursor) entities() ChunkEntities { return chunkEntities(c.arch, c.chunk, c.n) }

// ChunkIter iterates the chunks of an untyped query. It is a value type;
// iterating allocates nothing.
type ChunkIter struct {
	cursor chunkCursor
}

// Next advances to the next chunk.
func (it *ChunkIter) Next() bool { return it.cursor.next() }

// Archetype returns the archetype of the current chunk.
func (it *ChunkIter) Archetype() *Archetype { return it.cursor.arch }

// Len returns the number of entities in the current chunk.
func (it *ChunkIter) Len() int { return it.cursor.n }

// Entities returns the entity ids of the current chunk.
func (it *ChunkIter) Entities() ChunkEntities { return it.cursor.entities() }

// ChunkOf returns the column of `T` for the current chunk. It panics if the
// archetype lacks `T`.
func ChunkOf[T any](it *ChunkIter) Chunk[T] {
	info := componentInfoOf(reflect.TypeFor[T]())
	c := it.cursor.arch.column(info.id)
	if c == nil {
		panic("kura: archetype " + it.cursor.arch.sig.String() + " has no component " + info.name)
	}
	return newChunk[T](c, it.cursor.chunk, it.cursor.n)
}

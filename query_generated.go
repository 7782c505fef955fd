package kura

import "reflect"

// Query1 is a query over entities with the component: T1. Its chunk
// iterator exposes one span per component type.
type Query1[T1 any] struct {
	*Query
	ids [1]uint8
}

// NewQuery1 creates a query for entities with T1 and all of tags.
func NewQuery1[T1 any](s *Store, tags ...TagType) *Query1[T1] {
	sig := Signature1[T1]().WithTags(tags...)
	q := &Query1[T1]{Query: NewQuery(s, sig)}
	q.ids[0] = componentInfoOf(reflect.TypeFor[T1]()).id
	return q
}

// Chunks returns an iterator over the chunks of all matching archetypes.
// Iterating allocates nothing.
func (q *Query1[T1]) Chunks() ChunkIter1[T1] {
	q.update()
	return ChunkIter1[T1]{cursor: newChunkCursor(q.matched), ids: q.ids}
}

// ForEach calls fn for every entity of the matching archetypes with pointers
// to its components. fn must not change the structure of the store.
func (q *Query1[T1]) ForEach(fn func(e Entity, c1 *T1)) {
	it := q.Chunks()
	for it.Next() {
		ch := it.Chunk()
		s1 := ch.Chunk1.Span()
		for i, id := range ch.Entities.Ids {
			fn(Entity{store: q.store, Id: id}, &s1[i])
		}
	}
}

// Chunks1 holds the component spans and entity ids of one chunk. All spans
// have the same length.
type Chunks1[T1 any] struct {
	Chunk1   Chunk[T1]
	Entities ChunkEntities
}

// ChunkIter1 iterates the chunks of a Query1.
type ChunkIter1[T1 any] struct {
	cursor chunkCursor
	ids    [1]uint8
}

// Next advances to the next chunk.
func (it *ChunkIter1[T1]) Next() bool { return it.cursor.next() }

// Archetype returns the archetype of the current chunk.
func (it *ChunkIter1[T1]) Archetype() *Archetype { return it.cursor.arch }

// Chunk returns the current chunk. Call Next first.
func (it *ChunkIter1[T1]) Chunk() Chunks1[T1] {
	a, k, n := it.cursor.arch, it.cursor.chunk, it.cursor.n
	return Chunks1[T1]{
		Chunk1:   newChunk[T1](a.column(it.ids[0]), k, n),
		Entities: chunkEntities(a, k, n),
	}
}

// Query2 is a query over entities with the 2 components: T1, T2. Its chunk
// iterator exposes one span per component type.
type Query2[T1, T2 any] struct {
	*Query
	ids [2]uint8
}

// NewQuery2 creates a query for entities with T1, T2 and all of tags.
func NewQuery2[T1, T2 any](s *Store, tags ...TagType) *Query2[T1, T2] {
	sig := Signature2[T1, T2]().WithTags(tags...)
	q := &Query2[T1, T2]{Query: NewQuery(s, sig)}
	q.ids[0] = componentInfoOf(reflect.TypeFor[T1]()).id
	q.ids[1] = componentInfoOf(reflect.TypeFor[T2]()).id
	if q.ids[0] == q.ids[1] {
		panic("kura: duplicate component types in Query2")
	}
	return q
}

// Chunks returns an iterator over the chunks of all matching archetypes.
// Iterating allocates nothing.
func (q *Query2[T1, T2]) Chunks() ChunkIter2[T1, T2] {
	q.update()
	return ChunkIter2[T1, T2]{cursor: newChunkCursor(q.matched), ids: q.ids}
}

// ForEach calls fn for every entity of the matching archetypes with pointers
// to its components. fn must not change the structure of the store.
func (q *Query2[T1, T2]) ForEach(fn func(e Entity, c1 *T1, c2 *T2)) {
	it := q.Chunks()
	for it.Next() {
		ch := it.Chunk()
		s1 := ch.Chunk1.Span()
		s2 := ch.Chunk2.Span()
		for i, id := range ch.Entities.Ids {
			fn(Entity{store: q.store, Id: id}, &s1[i], &s2[i])
		}
	}
}

// Chunks2 holds the component spans and entity ids of one chunk. All spans
// have the same length.
type Chunks2[T1, T2 any] struct {
	Chunk1   Chunk[T1]
	Chunk2   Chunk[T2]
	Entities ChunkEntities
}

// ChunkIter2 iterates the chunks of a Query2.
type ChunkIter2[T1, T2 any] struct {
	cursor chunkCursor
	ids    [2]uint8
}

// Next advances to the next chunk.
func (it *ChunkIter2[T1, T2]) Next() bool { return it.cursor.next() }

// Archetype returns the archetype of the current chunk.
func (it *ChunkIter2[T1, T2]) Archetype() *Archetype { return it.cursor.arch }

// Chunk returns the current chunk. Call Next first.
func (it *ChunkIter2[T1, T2]) Chunk() Chunks2[T1, T2] {
	a, k, n := it.cursor.arch, it.cursor.chunk, it.cursor.n
	return Chunks2[T1, T2]{
		Chunk1:   newChunk[T1](a.column(it.ids[0]), k, n),
		Chunk2:   newChunk[T2](a.column(it.ids[1]), k, n),
		Entities: chunkEntities(a, k, n),
	}
}

// Query3 is a query over entities with the 3 components: T1, T2, T3. Its chunk
// iterator exposes one span per component type.
type Query3[T1, T2, T3 any] struct {
	*Query
	ids [3]uint8
}

// NewQuery3 creates a query for entities with T1, T2, T3 and all of tags.
func NewQuery3[T1, T2, T3 any](s *Store, tags ...TagType) *Query3[T1, T2, T3] {
	sig := Signature3[T1, T2, T3]().WithTags(tags...)
	q := &Query3[T1, T2, T3]{Query: NewQuery(s, sig)}
	q.ids[0] = componentInfoOf(reflect.TypeFor[T1]()).id
	q.ids[1] = componentInfoOf(reflect.TypeFor[T2]()).id
	q.ids[2] = componentInfoOf(reflect.TypeFor[T3]()).id
	if q.ids[0] == q.ids[1] || q.ids[0] == q.ids[2] || q.ids[1] == q.ids[2] {
		panic("kura: duplicate component types in Query3")
	}
	return q
}

// Chunks returns an iterator over the chunks of all matching archetypes.
// Iterating allocates nothing.
func (q *Query3[T1, T2, T3]) Chunks() ChunkIter3[T1, T2, T3] {
	q.update()
	return ChunkIter3[T1, T2, T3]{cursor: newChunkCursor(q.matched), ids: q.ids}
}

// ForEach calls fn for every entity of the matching archetypes with pointers
// to its components. fn must not change the structure of the store.
func (q *Query3[T1, T2, T3]) ForEach(fn func(e Entity, c1 *T1, c2 *T2, c3 *T3)) {
	it := q.Chunks()
	for it.Next() {
		ch := it.Chunk()
		s1 := ch.Chunk1.Span()
		s2 := ch.Chunk2.Span()
		s3 := ch.Chunk3.Span()
		for i, id := range ch.Entities.Ids {
			fn(Entity{store: q.store, Id: id}, &s1[i], &s2[i], &s3[i])
		}
	}
}

// Chunks3 holds the component spans and entity ids of one chunk. All spans
// have the same length.
type Chunks3[T1, T2, T3 any] struct {
	Chunk1   Chunk[T1]
	Chunk2   Chunk[T2]
	Chunk3   Chunk[T3]
	Entities ChunkEntities
}

// ChunkIter3 iterates the chunks of a Query3.
type ChunkIter3[T1, T2, T3 any] struct {
	cursor chunkCursor
	ids    [3]uint8
}

// Next advances to the next chunk.
func (it *ChunkIter3[T1, T2, T3]) Next() bool { return it.cursor.next() }

// Archetype returns the archetype of the current chunk.
func (it *ChunkIter3[T1, T2, T3]) Archetype() *Archetype { return it.cursor.arch }

// Chunk returns the current chunk. Call Next first.
func (it *ChunkIter3[T1, T2, T3]) Chunk() Chunks3[T1, T2, T3] {
	a, k, n := it.cursor.arch, it.cursor.chunk, it.cursor.n
	return Chunks3[T1, T2, T3]{
		Chunk1:   newChunk[T1](a.column(it.ids[0]), k, n),
		Chunk2:   newChunk[T2](a.column(it.ids[1]), k, n),
		Chunk3:   newChunk[T3](a.column(it.ids[2]), k, n),
		Entities: chunkEntities(a, k, n),
	}
}

// Query4 is a query over entities with the 4 components: T1, T2, T3, T4. Its chunk
// iterator exposes one span per component type.
type Query4[T1, T2, T3, T4 any] struct {
	*Query
	ids [4]uint8
}

// NewQuery4 creates a query for entities with T1, T2, T3, T4 and all of tags.
func NewQuery4[T1, T2, T3, T4 any](s *Store, tags ...TagType) *Query4[T1, T2, T3, T4] {
	sig := Signature4[T1, T2, T3, T4]().WithTags(tags...)
	q := &Query4[T1, T2, T3, T4]{Query: NewQuery(s, sig)}
	q.ids[0] = componentInfoOf(reflect.TypeFor[T1]()).id
	q.ids[1] = componentInfoOf(reflect.TypeFor[T2]()).id
	q.ids[2] = componentInfoOf(reflect.TypeFor[T3]()).id
	q.ids[3] = componentInfoOf(reflect.TypeFor[T4]()).id
	if q.ids[0] == q.ids[1] || q.ids[0] == q.ids[2] || q.ids[0] == q.ids[3] || q.ids[1] == q.ids[2] || q.ids[1] == q.ids[3] || q.ids[2] == q.ids[3] {
		panic("kura: duplicate component types in Query4")
	}
	return q
}

// Chunks returns an iterator over the chunks of all matching archetypes.
// Iterating allocates nothing.
func (q *Query4[T1, T2, T3, T4]) Chunks() ChunkIter4[T1, T2, T3, T4] {
	q.update()
	return ChunkIter4[T1, T2, T3, T4]{cursor: newChunkCursor(q.matched), ids: q.ids}
}

// ForEach calls fn for every entity of the matching archetypes with pointers
// to its components. fn must not change the structure of the store.
func (q *Query4[T1, T2, T3, T4]) ForEach(fn func(e Entity, c1 *T1, c2 *T2, c3 *T3, c4 *T4)) {
	it := q.Chunks()
	for it.Next() {
		ch := it.Chunk()
		s1 := ch.Chunk1.Span()
		s2 := ch.Chunk2.Span()
		s3 := ch.Chunk3.Span()
		s4 := ch.Chunk4.Span()
		for i, id := range ch.Entities.Ids {
			fn(Entity{store: q.store, Id: id}, &s1[i], &s2[i], &s3[i], &s4[i])
		}
	}
}

// Chunks4 holds the component spans and entity ids of one chunk. All spans
// have the same length.
type Chunks4[T1, T2, T3, T4 any] struct {
	Chunk1   Chunk[T1]
	Chunk2   Chunk[T2]
	Chunk3   Chunk[T3]
	Chunk4   Chunk[T4]
	Entities ChunkEntities
}

// ChunkIter4 iterates the chunks of a Query4.
type ChunkIter4[T1, T2, T3, T4 any] struct {
	cursor chunkCursor
	ids    [4]uint8
}

// Next advances to the next chunk.
func (it *ChunkIter4[T1, T2, T3, T4]) Next() bool { return it.cursor.next() }

// Archetype returns the archetype of the current chunk.
func (it *ChunkIter4[T1, T2, T3, T4]) Archetype() *Archetype { return it.cursor.arch }

// Chunk returns the current chunk. Call Next first.
func (it *ChunkIter4[T1, T2, T3, T4]) Chunk() Chunks4[T1, T2, T3, T4] {
	a, k, n := it.cursor.arch, it.cursor.chunk, it.cursor.n
	return Chunks4[T1, T2, T3, T4]{
		Chunk1:   newChunk[T1](a.column(it.ids[0]), k, n),
		Chunk2:   newChunk[T2](a.column(it.ids[1]), k, n),
		Chunk3:   newChunk[T3](a.column(it.ids[2]), k, n),
		Chunk4:   newChunk[T4](a.column(it.ids[3]), k, n),
		Entities: chunkEntities(a, k, n),
	}
}

// Query5 is a query over entities with the 5 components: T1, T2, T3, T4, T5. Its chunk
// iterator exposes one span per component type.
type Query5[T1, T2, T3, T4, T5 any] struct {
	*Query
	ids [5]uint8
}

// NewQuery5 creates a query for entities with T1, T2, T3, T4, T5 and all of tags.
func NewQuery5[T1, T2, T3, T4, T5 any](s *Store, tags ...TagType) *Query5[T1, T2, T3, T4, T5] {
	sig := Signature5[T1, T2, T3, T4, T5]().WithTags(tags...)
	q := &Query5[T1, T2, T3, T4, T5]{Query: NewQuery(s, sig)}
	q.ids[0] = componentInfoOf(reflect.TypeFor[T1]()).id
	q.ids[1] = componentInfoOf(reflect.TypeFor[T2]()).id
	q.ids[2] = componentInfoOf(reflect.TypeFor[T3]()).id
	q.ids[3] = componentInfoOf(reflect.TypeFor[T4]()).id
	q.ids[4] = componentInfoOf(reflect.TypeFor[T5]()).id
	if q.ids[0] == q.ids[1] || q.ids[0] == q.ids[2] || q.ids[0] == q.ids[3] || q.ids[0] == q.ids[4] || q.ids[1] == q.ids[2] || q.ids[1] == q.ids[3] || q.ids[1] == q.ids[4] || q.ids[2] == q.ids[3] || q.ids[2] == q.ids[4] || q.ids[3] == q.ids[4] {
		panic("kura: duplicate component types in Query5")
	}
	return q
}

// Chunks returns an iterator over the chunks of all matching archetypes.
// Iterating allocates nothing.
func (q *Query5[T1, T2, T3, T4, T5]) Chunks() ChunkIter5[T1, T2, T3, T4, T5] {
	q.update()
	return ChunkIter5[T1, T2, T3, T4, T5]{cursor: newChunkCursor(q.matched), ids: q.ids}
}

// ForEach calls fn for every entity of the matching archetypes with pointers
// to its components. fn must not change the structure of the store.
func (q *Query5[T1, T2, T3, T4, T5]) ForEach(fn func(e Entity, c1 *T1, c2 *T2, c3 *T3, c4 *T4, c5 *T5)) {
	it := q.Chunks()
	for it.Next() {
		ch := it.Chunk()
		s1 := ch.Chunk1.Span()
		s2 := ch.Chunk2.Span()
		s3 := ch.Chunk3.Span()
		s4 := ch.Chunk4.Span()
		s5 := ch.Chunk5.Span()
		for i, id := range ch.Entities.Ids {
			fn(Entity{store: q.store, Id: id}, &s1[i], &s2[i], &s3[i], &s4[i], &s5[i])
		}
	}
}

// Chunks5 holds the component spans and entity ids of one chunk. All spans
// have the same length.
type Chunks5[T1, T2, T3, T4, T5 any] struct {
	Chunk1   Chunk[T1]
	Chunk2   Chunk[T2]
	Chunk3   Chunk[T3]
	Chunk4   Chunk[T4]
	Chunk5   Chunk[T5]
	Entities ChunkEntities
}

// ChunkIter5 iterates the chunks of a Query5.
type ChunkIter5[T1, T2, T3, T4, T5 any] struct {
	cursor chunkCursor
	ids    [5]uint8
}

// Next advances to the next chunk.
func (it *ChunkIter5[T1, T2, T3, T4, T5]) Next() bool { return it.cursor.next() }

// Archetype returns the archetype of the current chunk.
func (it *ChunkIter5[T1, T2, T3, T4, T5]) Archetype() *Archetype { return it.cursor.arch }

// Chunk returns the current chunk. Call Next first.
func (it *ChunkIter5[T1, T2, T3, T4, T5]) Chunk() Chunks5[T1, T2, T3, T4, T5] {
	a, k, n := it.cursor.arch, it.cursor.chunk, it.cursor.n
	return Chunks5[T1, T2, T3, T4, T5]{
		Chunk1:   newChunk[T1](a.column(it.ids[0]), k, n),
		Chunk2:   newChunk[T2](a.column(it.ids[1]), k, n),
		Chunk3:   newChunk[T3](a.column(it.ids[2]), k, n),
		Chunk4:   newChunk[T4](a.column(it.ids[3]), k, n),
		Chunk5:   newChunk[T5](a.column(it.ids[4]), k, n),
		Entities: chunkEntities(a, k, n),
	}
}

package kura

import (
	"fmt"

	"go.uber.org/zap"
)

// Archetype is the container of all entities sharing one exact Signature.
// It owns one chunked column per component type and a dense array mapping
// row to entity ID.
//
// Invariant: for every row < EntityCount, entityIds[row] and the components
// at row in every column belong to the same entity. Entities are appended at
// the end and removed by swap-with-last, so a row index must never be cached
// across a structural mutation.
type Archetype struct {
	store      *Store
	edges      map[Signature]*edge
	columns    []*column
	entityIds  []uint32 // len == capacity
	sig        Signature
	index      int
	count      int
	capacity   int
	chunkSize  int
	chunkShift uint
	slots      [MaxComponentTypes]int16 // column index per component ID; -1 if absent
}

// edge is a cached archetype transition. moves is the copy table computed
// once per (source, target) pair: one entry per column present in both.
type edge struct {
	target  *Archetype
	moves   []columnMove
	dropped []*componentInfo // component types present in source only
	added   []*componentInfo // component types present in target only
}

type columnMove struct {
	src, dst *column
}

func newArchetype(s *Store, sig Signature, index int) *Archetype {
	a := &Archetype{
		store:      s,
		sig:        sig,
		index:      index,
		chunkSize:  s.chunkSize,
		chunkShift: s.chunkShift,
		capacity:   s.chunkSize,
		entityIds:  make([]uint32, s.chunkSize),
		edges:      make(map[Signature]*edge, 4),
	}
	for i := range a.slots {
		a.slots[i] = -1
	}
	a.columns = make([]*column, 0, sig.components.Count())
	sig.components.mask.forEach(func(id uint8) {
		a.slots[id] = int16(len(a.columns))
		a.columns = append(a.columns, newColumn(componentInfoById(id), s.chunkShift, 1))
	})
	return a
}

// Store returns the store owning the archetype.
func (a *Archetype) Store() *Store { return a.store }

// Index returns the position of the archetype in its store's registry.
func (a *Archetype) Index() int { return a.index }

// Signature returns the immutable signature of the archetype.
func (a *Archetype) Signature() Signature { return a.sig }

// ComponentTypes returns the component types stored in the archetype.
func (a *Archetype) ComponentTypes() ComponentTypes { return a.sig.components }

// Tags returns the tags of the archetype.
func (a *Archetype) Tags() Tags { return a.sig.tags }

// EntityCount returns the number of entities stored in the archetype.
func (a *Archetype) EntityCount() int { return a.count }

// Capacity returns the number of rows allocated. It is always a power of two
// multiple of the chunk size.
func (a *Archetype) Capacity() int { return a.capacity }

// ChunkSize returns the number of rows per chunk.
func (a *Archetype) ChunkSize() int { return a.chunkSize }

// ChunkCount returns the number of chunks holding at least one entity.
func (a *Archetype) ChunkCount() int {
	return (a.count + a.chunkSize - 1) >> a.chunkShift
}

// EntityIds returns the IDs of all entities in row order. The slice is owned
// by the archetype and invalidated by the next structural mutation.
func (a *Archetype) EntityIds() []uint32 { return a.entityIds[:a.count] }

func (a *Archetype) String() string {
	return fmt.Sprintf("Archetype%s entities: %d", a.sig, a.count)
}

// column returns the column of the given component ID or nil.
func (a *Archetype) column(id uint8) *column {
	slot := a.slots[id]
	if slot < 0 {
		return nil
	}
	return a.columns[slot]
}

// createRow appends an entity and returns its row. The new row holds zero
// values in every column.
func (a *Archetype) createRow(id uint32) int {
	if a.count == a.capacity {
		a.resize(a.capacity * 2)
	}
	row := a.count
	a.entityIds[row] = id
	a.count++
	return row
}

// deleteRow removes row by copying the last row into it. It returns the ID of
// the entity that was moved into row, or 0 if row was the last row.
func (a *Archetype) deleteRow(row int) (moved uint32) {
	last := a.count - 1
	if row < last {
		for _, c := range a.columns {
			c.copyRow(row, c, last)
		}
		moved = a.entityIds[last]
		a.entityIds[row] = moved
	}
	for _, c := range a.columns {
		c.zeroRow(last)
	}
	a.entityIds[last] = 0
	a.count--
	a.shrink()
	return moved
}

// shrink halves the capacity while the entity count is at or below a quarter
// of it, but never below one chunk. The hysteresis avoids grow/shrink
// thrashing around a chunk boundary.
func (a *Archetype) shrink() {
	newCap := a.capacity
	for newCap > a.chunkSize && a.count <= newCap/4 {
		newCap /= 2
	}
	if newCap != a.capacity {
		a.resize(newCap)
	}
}

// resize reallocates the backing storage to newCap rows. It is the only
// operation that allocates or frees chunks.
func (a *Archetype) resize(newCap int) {
	chunks := newCap >> a.chunkShift
	for _, c := range a.columns {
		c.resize(chunks)
	}
	ids := make([]uint32, newCap)
	copy(ids, a.entityIds[:a.count])
	a.entityIds = ids
	if ce := a.store.log.Check(zap.DebugLevel, "archetype resized"); ce != nil {
		ce.Write(
			zap.Stringer("archetype", a.sig),
			zap.Int("old_capacity", a.capacity),
			zap.Int("new_capacity", newCap),
			zap.Int("entities", a.count),
		)
	}
	a.capacity = newCap
}

// edgeTo returns the cached transition to the archetype with signature sig,
// creating the target archetype and the copy table on first use.
func (a *Archetype) edgeTo(sig Signature) *edge {
	if e, ok := a.edges[sig]; ok {
		return e
	}
	target := a.store.archetypeFor(sig)
	e := &edge{target: target}
	for _, c := range a.columns {
		if dst := target.column(c.info.id); dst != nil {
			e.moves = append(e.moves, columnMove{src: c, dst: dst})
		} else {
			e.dropped = append(e.dropped, c.info)
		}
	}
	for _, c := range target.columns {
		if a.slots[c.info.id] < 0 {
			e.added = append(e.added, c.info)
		}
	}
	a.edges[sig] = e
	return e
}

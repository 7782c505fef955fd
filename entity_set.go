package kura

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// EntitySet is an immutable set of entity ids returned by index lookups.
// The zero value is an empty set.
type EntitySet struct {
	store *Store
	bits  *roaring.Bitmap
}

// Count returns the number of ids in the set.
func (es EntitySet) Count() int {
	if es.bits == nil {
		return 0
	}
	return int(es.bits.GetCardinality())
}

// IsEmpty reports whether the set has no ids.
func (es EntitySet) IsEmpty() bool { return es.bits == nil || es.bits.IsEmpty() }

// Contains reports whether id is in the set.
func (es EntitySet) Contains(id uint32) bool { return es.bits != nil && es.bits.Contains(id) }

// ContainsEntity reports whether e is in the set.
func (es EntitySet) ContainsEntity(e Entity) bool {
	return e.store == es.store && es.Contains(e.Id)
}

// Ids returns the ids in ascending order.
func (es EntitySet) Ids() []uint32 {
	if es.bits == nil {
		return nil
	}
	return es.bits.ToArray()
}

// Entities iterates the set in ascending id order.
func (es EntitySet) Entities() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		if es.bits == nil {
			return
		}
		it := es.bits.Iterator()
		for it.HasNext() {
			if !yield(Entity{store: es.store, Id: it.Next()}) {
				return
			}
		}
	}
}

// Intersect returns the ids present in both sets.
func (es EntitySet) Intersect(other EntitySet) EntitySet {
	if es.bits == nil || other.bits == nil {
		return EntitySet{store: es.store}
	}
	return EntitySet{store: es.store, bits: roaring.And(es.bits, other.bits)}
}

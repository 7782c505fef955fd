package kura

import "github.com/rotisserie/eris"

// CreateEntities creates count entities in the archetype and appends them to
// dst. Capacity is grown once for the whole batch. The archetype must have
// been created by this store.
func (s *Store) CreateEntities(a *Archetype, count int, dst []Entity) ([]Entity, error) {
	if a == nil {
		return dst, eris.Wrap(ErrForeignArchetype, "archetype is nil")
	}
	if a.store != s {
		return dst, eris.Wrapf(ErrForeignArchetype, "archetype %v (index %d)", a.sig, a.index)
	}
	if count <= 0 {
		return dst, nil
	}
	a.reserve(a.count + count)
	s.ensureNode(s.sequenceId + uint32(count))
	dst = growEntities(dst, count)
	indexed := a.hasIndexedColumns()
	for range count {
		e := s.createEntity(a, s.nextId(), 0)
		if indexed {
			s.indexRow(a, s.nodes[e.Id].row)
		}
		dst = append(dst, e)
		Publish(&s.bus, EntityCreated{Entity: e})
	}
	return dst, nil
}

// DeleteEntities deletes all entities of the archetype.
func (s *Store) DeleteEntities(a *Archetype) {
	if a == nil || a.store != s {
		return
	}
	for a.count > 0 {
		s.DeleteEntity(a.entityIds[a.count-1])
	}
}

// reserve grows the capacity by doubling until n rows fit.
func (a *Archetype) reserve(n int) {
	newCap := a.capacity
	for newCap < n {
		newCap *= 2
	}
	if newCap != a.capacity {
		a.resize(newCap)
	}
}

func (a *Archetype) hasIndexedColumns() bool {
	for _, c := range a.columns {
		if c.info.index != indexNone {
			return true
		}
	}
	return false
}

func growEntities(dst []Entity, n int) []Entity {
	if cap(dst)-len(dst) >= n {
		return dst
	}
	grown := make([]Entity, len(dst), len(dst)+n)
	copy(grown, dst)
	return grown
}

package kura

import "github.com/rotisserie/eris"

// CloneEntity creates a new entity in the same store with a copy of the
// components, tags and scripts of e. The child list is not copied. It fails
// with ErrScriptNotClonable, creating nothing, if a script of e does not
// implement ScriptCloner.
func CloneEntity(e Entity) (Entity, error) {
	if !e.IsAlive() {
		return Entity{}, eris.Wrapf(ErrEntityDeleted, "entity %d", e.Id)
	}
	return e.store.copyEntity(e, e.store)
}

// CopyEntity creates a copy of e in dst. Link components are not copied to a
// different store since their targets live in the source store.
func CopyEntity(e Entity, dst *Store) (Entity, error) {
	if !e.IsAlive() {
		return Entity{}, eris.Wrapf(ErrEntityDeleted, "entity %d", e.Id)
	}
	if dst == nil {
		return Entity{}, eris.New("destination store is nil")
	}
	return e.store.copyEntity(e, dst)
}

func (s *Store) copyEntity(e Entity, dst *Store) (Entity, error) {
	var scripts []Script
	if set, ok := s.scripts[e.Id]; ok {
		var err error
		if scripts, err = cloneScripts(set); err != nil {
			return Entity{}, err
		}
	}
	node := s.nodes[e.Id]
	src := node.archetype
	sig := src.sig
	sig.components.mask.unset(treeNodeInfo.id)
	if dst != s {
		for _, c := range src.columns {
			if c.info.index == indexLink {
				sig.components.mask.unset(c.info.id)
			}
		}
	}
	a := dst.archetypeFor(sig)
	clone := dst.createEntity(a, dst.nextId(), 0)
	row := dst.nodes[clone.Id].row
	for _, c := range a.columns {
		c.copyRow(row, src.column(c.info.id), node.row)
	}
	dst.indexRow(a, row)
	Publish(&dst.bus, EntityCreated{Entity: clone})
	for _, sc := range scripts {
		clone.AddScript(sc)
	}
	return clone, nil
}

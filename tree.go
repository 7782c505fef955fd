package kura

import (
	"reflect"
	"slices"

	"github.com/rotisserie/eris"
)

// TreeNode is the component holding the ordered child list of a parent
// entity. It is added by AddChild; its fields are maintained by the store.
// AddComponentValue, SetComponent and Entity.AddComponentOf refuse it.
type TreeNode struct {
	childIds []uint32
}

// ChildIds returns the ids of the children in insertion order.
func (t *TreeNode) ChildIds() []uint32 { return t.childIds }

var treeNodeInfo = componentInfoOf(reflect.TypeFor[TreeNode]())

// AddChild appends child to the children of e. A child that already has a
// different parent is moved. It fails with ErrInvalidTree if the entities
// belong to different stores or the link would create a cycle.
func (e Entity) AddChild(child Entity) error {
	if !e.IsAlive() || !child.IsAlive() {
		return eris.Wrapf(ErrEntityDeleted, "parent %d, child %d", e.Id, child.Id)
	}
	if e.store != child.store {
		return eris.Wrapf(ErrInvalidTree, "entities %d and %d belong to different stores", e.Id, child.Id)
	}
	s := e.store
	for id := e.Id; id != 0; id = s.nodes[id].parentId {
		if id == child.Id {
			return eris.Wrapf(ErrInvalidTree, "entity %d is an ancestor of %d", child.Id, e.Id)
		}
	}
	old := s.nodes[child.Id].parentId
	if old == e.Id && slices.Contains(e.ChildIds(), child.Id) {
		return nil
	}
	if old != 0 {
		s.unlinkChild(old, child.Id)
	}
	ptr, added := s.addComponent(e.Id, treeNodeInfo)
	tn := (*TreeNode)(ptr)
	tn.childIds = append(tn.childIds, child.Id)
	s.nodes[child.Id].parentId = e.Id
	if added {
		s.componentWritten(e.Id, treeNodeInfo, ptr, Added)
	}
	Publish(&s.bus, ChildEntitiesChanged{Parent: e, Child: child, Index: len(tn.childIds) - 1, Action: Added})
	return nil
}

// RemoveChild removes child from the children of e. It returns false if child
// is not a child of e.
func (e Entity) RemoveChild(child Entity) bool {
	if !e.IsAlive() || !child.IsAlive() || e.store != child.store {
		return false
	}
	if e.store.nodes[child.Id].parentId != e.Id {
		return false
	}
	e.store.unlinkChild(e.Id, child.Id)
	return true
}

// Parent returns the parent of e or the null entity.
func (e Entity) Parent() Entity {
	if !e.IsAlive() {
		return Entity{}
	}
	if p := e.store.nodes[e.Id].parentId; e.store.alive(p) {
		return Entity{store: e.store, Id: p}
	}
	return Entity{}
}

// ChildIds returns the ids of the children of e in insertion order. The slice
// is owned by the store.
func (e Entity) ChildIds() []uint32 {
	if tn, ok := TryGetComponent[TreeNode](e); ok {
		return tn.childIds
	}
	return nil
}

// ChildCount returns the number of children of e.
func (e Entity) ChildCount() int { return len(e.ChildIds()) }

// unlinkChild clears the parent link of child and removes it from the child
// list of parent, if parent is alive and still lists it.
func (s *Store) unlinkChild(parent, child uint32) {
	s.nodes[child].parentId = 0
	if !s.alive(parent) {
		return
	}
	node := s.nodes[parent]
	c := node.archetype.column(treeNodeInfo.id)
	if c == nil {
		return
	}
	tn := (*TreeNode)(c.ptr(node.row))
	i := slices.Index(tn.childIds, child)
	if i < 0 {
		return
	}
	tn.childIds = slices.Delete(tn.childIds, i, i+1)
	Publish(&s.bus, ChildEntitiesChanged{
		Parent: Entity{store: s, Id: parent},
		Child:  Entity{store: s, Id: child},
		Index:  i,
		Action: Removed,
	})
}

// detachTree removes id from its parent and orphans its children.
func (s *Store) detachTree(id uint32) {
	if p := s.nodes[id].parentId; p != 0 {
		s.unlinkChild(p, id)
	}
	s.orphanChildren(id)
}

// orphanChildren unlinks all children of id, last first.
func (s *Store) orphanChildren(id uint32) {
	node := s.nodes[id]
	c := node.archetype.column(treeNodeInfo.id)
	if c == nil {
		return
	}
	tn := (*TreeNode)(c.ptr(node.row))
	for len(tn.childIds) > 0 {
		s.unlinkChild(id, tn.childIds[len(tn.childIds)-1])
	}
}

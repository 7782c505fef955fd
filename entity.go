package kura

import (
	"fmt"
	"reflect"

	"github.com/rotisserie/eris"
)

// Entity is a handle to an entity of a Store. The zero Entity is the null
// entity. A handle stays valid across structural changes; it never caches the
// entity's archetype row.
type Entity struct {
	store *Store
	Id    uint32
}

// Store returns the store the entity belongs to, or nil for the null entity.
func (e Entity) Store() *Store { return e.store }

// IsNull reports whether e is the null entity.
func (e Entity) IsNull() bool { return e.store == nil || e.Id == 0 }

// IsAlive reports whether the entity exists and was not deleted.
func (e Entity) IsAlive() bool { return e.store != nil && e.store.alive(e.Id) }

// Pid returns the persistent id of the entity.
func (e Entity) Pid() int64 { return e.store.IdToPid(e.Id) }

// Archetype returns the archetype currently holding the entity, or nil if
// the entity is deleted.
func (e Entity) Archetype() *Archetype {
	if !e.IsAlive() {
		return nil
	}
	return e.store.nodes[e.Id].archetype
}

// Signature returns the current signature of the entity.
func (e Entity) Signature() Signature {
	if a := e.Archetype(); a != nil {
		return a.sig
	}
	return Signature{}
}

// ComponentTypes returns the component types present on the entity.
func (e Entity) ComponentTypes() ComponentTypes { return e.Signature().components }

// Tags returns the tags of the entity.
func (e Entity) Tags() Tags { return e.Signature().tags }

// Delete deletes the entity. Deleting twice is a no-op.
func (e Entity) Delete() {
	if e.store != nil {
		e.store.DeleteEntity(e.Id)
	}
}

// HasComponentOf reports whether the entity has a component of type t.
func (e Entity) HasComponentOf(t ComponentType) bool {
	return e.IsAlive() && e.store.nodes[e.Id].archetype.column(t.info.id) != nil
}

// GetComponentOf returns a copy of the component of type t boxed in an
// interface. It returns false if the entity lacks the component.
func (e Entity) GetComponentOf(t ComponentType) (any, bool) {
	if !e.IsAlive() {
		return nil, false
	}
	node := e.store.nodes[e.Id]
	c := node.archetype.column(t.info.id)
	if c == nil {
		return nil, false
	}
	return reflect.NewAt(t.info.typ, c.ptr(node.row)).Elem().Interface(), true
}

// AddComponentOf adds or overwrites the component of type t with value.
// value must be of type t or a pointer to it. TreeNode values fail with
// ErrInvalidTree; use AddChild.
func (e Entity) AddComponentOf(t ComponentType, value any) error {
	if !e.IsAlive() {
		return eris.Wrapf(ErrEntityDeleted, "entity %d", e.Id)
	}
	if t.info == treeNodeInfo {
		return eris.Wrapf(ErrInvalidTree, "entity %d: %s is maintained by AddChild", e.Id, t.info.name)
	}
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Pointer && v.Type().Elem() == t.info.typ {
		if v.IsNil() {
			return eris.Wrapf(ErrComponentType, "nil %s for component %s", v.Type(), t.info.name)
		}
		v = v.Elem()
	}
	if !v.IsValid() || v.Type() != t.info.typ {
		return eris.Wrapf(ErrComponentType, "%T for component %s", value, t.info.name)
	}
	ptr, added := e.store.addComponent(e.Id, t.info)
	reflect.NewAt(t.info.typ, ptr).Elem().Set(v)
	action := Updated
	if added {
		action = Added
	}
	e.store.componentWritten(e.Id, t.info, ptr, action)
	return nil
}

// RemoveComponentOf removes the component of type t. It returns false if the
// entity lacks the component.
func (e Entity) RemoveComponentOf(t ComponentType) bool {
	if !e.IsAlive() {
		return false
	}
	return e.store.removeComponent(e.Id, t.info)
}

// AddTags adds all tags in tags. It returns false if nothing changed.
func (e Entity) AddTags(tags Tags) bool {
	if !e.IsAlive() {
		return false
	}
	return e.store.changeTags(e.Id, tags, Tags{})
}

// RemoveTags removes all tags in tags. It returns false if nothing changed.
func (e Entity) RemoveTags(tags Tags) bool {
	if !e.IsAlive() {
		return false
	}
	return e.store.changeTags(e.Id, Tags{}, tags)
}

func (e Entity) String() string {
	if e.IsNull() {
		return "null"
	}
	if !e.IsAlive() {
		return fmt.Sprintf("id: %d  (detached)", e.Id)
	}
	return fmt.Sprintf("id: %d  %s", e.Id, e.Signature())
}

package kura

import (
	"fmt"
	"reflect"
)

// AddComponent adds a zero valued component of type `T` to the entity.
//
// If the entity already has the component its value is preserved and false is
// returned. Adding a component moves the entity to a different archetype,
// which invalidates pointers previously returned for this entity.
func AddComponent[T any](e Entity) bool {
	if !e.IsAlive() {
		return false
	}
	info := componentInfoOf(reflect.TypeFor[T]())
	ptr, added := e.store.addComponent(e.Id, info)
	if !added {
		return false
	}
	e.store.componentWritten(e.Id, info, ptr, Added)
	return true
}

// AddComponentValue adds a component of type `T` with the given value, or
// overwrites the value if the component already exists. It returns false if
// the entity is not alive or `T` is TreeNode.
func AddComponentValue[T any](e Entity, val T) bool {
	if !e.IsAlive() {
		return false
	}
	info := componentInfoOf(reflect.TypeFor[T]())
	if info == treeNodeInfo {
		return false
	}
	ptr, added := e.store.addComponent(e.Id, info)
	*(*T)(ptr) = val
	action := Updated
	if added {
		action = Added
	}
	e.store.componentWritten(e.Id, info, ptr, action)
	return true
}

// SetComponent overwrites the value of an existing component. It returns
// false if the entity does not have the component or `T` is TreeNode. Unlike
// writing through the pointer of GetComponent, SetComponent keeps value
// indexes up to date.
func SetComponent[T any](e Entity, val T) bool {
	if !e.IsAlive() {
		return false
	}
	info := componentInfoOf(reflect.TypeFor[T]())
	if info == treeNodeInfo {
		return false
	}
	node := e.store.nodes[e.Id]
	c := node.archetype.column(info.id)
	if c == nil {
		return false
	}
	ptr := c.ptr(node.row)
	*(*T)(ptr) = val
	e.store.componentWritten(e.Id, info, ptr, Updated)
	return true
}

// RemoveComponent removes the component of type `T` from the entity. It
// returns false, changing nothing, if the entity does not have it.
func RemoveComponent[T any](e Entity) bool {
	if !e.IsAlive() {
		return false
	}
	return e.store.removeComponent(e.Id, componentInfoOf(reflect.TypeFor[T]()))
}

// HasComponent reports whether the entity has a component of type `T`.
func HasComponent[T any](e Entity) bool {
	if !e.IsAlive() {
		return false
	}
	info := componentInfoOf(reflect.TypeFor[T]())
	return e.store.nodes[e.Id].archetype.column(info.id) != nil
}

// TryGetComponent returns a pointer to the component of type `T`.
//
// The pointer refers to archetype storage and is valid until the next
// structural change of the store.
func TryGetComponent[T any](e Entity) (*T, bool) {
	if !e.IsAlive() {
		return nil, false
	}
	info := componentInfoOf(reflect.TypeFor[T]())
	node := e.store.nodes[e.Id]
	c := node.archetype.column(info.id)
	if c == nil {
		return nil, false
	}
	return (*T)(c.ptr(node.row)), true
}

// GetComponent returns a pointer to the component of type `T`. The caller
// must guarantee that the entity is alive and has the component; otherwise it
// panics.
func GetComponent[T any](e Entity) *T {
	p, ok := TryGetComponent[T](e)
	if !ok {
		panic(fmt.Sprintf("kura: entity %d has no component %s", e.Id, reflect.TypeFor[T]()))
	}
	return p
}

// AddTag adds the tag `T` to the entity. It returns false if the entity
// already has the tag.
func AddTag[T any](e Entity) bool {
	return e.AddTags(TagsOf[T]())
}

// RemoveTag removes the tag `T` from the entity. It returns false if the
// entity does not have the tag.
func RemoveTag[T any](e Entity) bool {
	return e.RemoveTags(TagsOf[T]())
}

// HasTag reports whether the entity has the tag `T`.
func HasTag[T any](e Entity) bool {
	return e.IsAlive() && e.Tags().Has(TagTypeOf[T]())
}

package kura

import (
	"cmp"
	"fmt"
	"reflect"
	"sync"
)

// MaxComponentTypes defines the maximum number of unique component types that
// can be registered in a process. This value is fixed at 256.
const MaxComponentTypes = 256

// MaxTagTypes defines the maximum number of unique tag types.
const MaxTagTypes = 256

type indexKind uint8

const (
	indexNone indexKind = iota
	indexValue
	indexRange
	indexLink
)

// componentInfo is the registry entry of one component type. Entries are
// never removed, so pointers to them stay valid for the process lifetime.
type componentInfo struct {
	typ         reflect.Type
	name        string
	newIndex    func(s *Store) componentIndex
	size        uintptr
	id          uint8
	index       indexKind
	pointerFree bool
}

type tagInfo struct {
	typ  reflect.Type
	name string
	id   uint8
}

// schema is the process wide type registry. Component and tag IDs are dense
// and assigned on first use, so the same Go type maps to the same ID in every
// Store. That is what allows entities to be copied between stores.
var schema = struct {
	mu         sync.RWMutex
	components []*componentInfo
	compByType map[reflect.Type]*componentInfo
	compByName map[string]*componentInfo
	tags       []*tagInfo
	tagByType  map[reflect.Type]*tagInfo
	tagByName  map[string]*tagInfo
}{
	compByType: make(map[reflect.Type]*componentInfo, 64),
	compByName: make(map[string]*componentInfo, 64),
	tagByType:  make(map[reflect.Type]*tagInfo, 32),
	tagByName:  make(map[string]*tagInfo, 32),
}

// ComponentType is a handle to a registered component type.
type ComponentType struct {
	info *componentInfo
}

// Id returns the dense ID of the component type.
func (c ComponentType) Id() uint8 { return c.info.id }

// Type returns the Go type of the component.
func (c ComponentType) Type() reflect.Type { return c.info.typ }

// Name returns the qualified Go type name, e.g. "kura.TreeNode".
func (c ComponentType) Name() string { return c.info.name }

// Size returns the size in bytes of one component value.
func (c ComponentType) Size() uintptr { return c.info.size }

// Indexed reports whether values of this type are tracked by a value index.
func (c ComponentType) Indexed() bool { return c.info.index != indexNone }

// Link reports whether the component references another entity.
func (c ComponentType) Link() bool { return c.info.index == indexLink }

// IsValid reports whether the handle refers to a registered type.
func (c ComponentType) IsValid() bool { return c.info != nil }

func (c ComponentType) String() string {
	if c.info == nil {
		return "ComponentType(invalid)"
	}
	return c.info.name
}

// TagType is a handle to a registered tag type. Tags carry no data.
type TagType struct {
	info *tagInfo
}

// Id returns the dense ID of the tag type.
func (t TagType) Id() uint8 { return t.info.id }

// Type returns the Go type of the tag.
func (t TagType) Type() reflect.Type { return t.info.typ }

// Name returns the qualified Go type name of the tag.
func (t TagType) Name() string { return t.info.name }

func (t TagType) String() string {
	if t.info == nil {
		return "TagType(invalid)"
	}
	return t.info.name
}

// ComponentTypeOf returns the component type for T, registering it on first
// use. It panics if more than MaxComponentTypes types are registered.
func ComponentTypeOf[T any]() ComponentType {
	return ComponentType{info: componentInfoOf(reflect.TypeFor[T]())}
}

// ComponentTypeByReflect returns the component type for a runtime type token,
// registering it on first use.
func ComponentTypeByReflect(t reflect.Type) ComponentType {
	return ComponentType{info: componentInfoOf(t)}
}

// ComponentTypeByName looks up an already registered component type by its
// qualified name.
func ComponentTypeByName(name string) (ComponentType, bool) {
	schema.mu.RLock()
	defer schema.mu.RUnlock()
	info, ok := schema.compByName[name]
	return ComponentType{info: info}, ok
}

// RegisteredComponentTypes returns all registered component types ordered by ID.
func RegisteredComponentTypes() []ComponentType {
	schema.mu.RLock()
	defer schema.mu.RUnlock()
	types := make([]ComponentType, len(schema.components))
	for i, info := range schema.components {
		types[i] = ComponentType{info: info}
	}
	return types
}

func componentInfoOf(t reflect.Type) *componentInfo {
	schema.mu.RLock()
	info, ok := schema.compByType[t]
	schema.mu.RUnlock()
	if ok {
		return info
	}
	schema.mu.Lock()
	defer schema.mu.Unlock()
	return registerComponentLocked(t)
}

func registerComponentLocked(t reflect.Type) *componentInfo {
	if info, ok := schema.compByType[t]; ok {
		return info
	}
	if len(schema.components) >= MaxComponentTypes {
		panic(fmt.Sprintf("kura: cannot register component %s: maximum number of component types (%d) reached", t, MaxComponentTypes))
	}
	info := &componentInfo{
		typ:         t,
		name:        t.String(),
		size:        t.Size(),
		id:          uint8(len(schema.components)),
		pointerFree: isPointerFree(t),
	}
	schema.components = append(schema.components, info)
	schema.compByType[t] = info
	schema.compByName[info.name] = info
	return info
}

func componentInfoById(id uint8) *componentInfo {
	schema.mu.RLock()
	defer schema.mu.RUnlock()
	return schema.components[id]
}

// TagTypeOf returns the tag type for T, registering it on first use.
func TagTypeOf[T any]() TagType {
	return TagType{info: tagInfoOf(reflect.TypeFor[T]())}
}

// TagTypeByName looks up an already registered tag type by name.
func TagTypeByName(name string) (TagType, bool) {
	schema.mu.RLock()
	defer schema.mu.RUnlock()
	info, ok := schema.tagByName[name]
	return TagType{info: info}, ok
}

func tagInfoOf(t reflect.Type) *tagInfo {
	schema.mu.RLock()
	info, ok := schema.tagByType[t]
	schema.mu.RUnlock()
	if ok {
		return info
	}
	schema.mu.Lock()
	defer schema.mu.Unlock()
	if info, ok := schema.tagByType[t]; ok {
		return info
	}
	if len(schema.tags) >= MaxTagTypes {
		panic(fmt.Sprintf("kura: cannot register tag %s: maximum number of tag types (%d) reached", t, MaxTagTypes))
	}
	info = &tagInfo{typ: t, name: t.String(), id: uint8(len(schema.tags))}
	schema.tags = append(schema.tags, info)
	schema.tagByType[t] = info
	schema.tagByName[info.name] = info
	return info
}

func tagInfoById(id uint8) *tagInfo {
	schema.mu.RLock()
	defer schema.mu.RUnlock()
	return schema.tags[id]
}

// IndexedComponent is implemented by components whose value is tracked by a
// secondary index. IndexedValue must be a pure function of the component.
type IndexedComponent[V any] interface {
	IndexedValue() V
}

// RegisterIndexedComponent marks T as indexed by its IndexedValue. Indexed
// values support exact-match lookups and query value predicates.
//
// Indexed components must be written with AddComponentValue or SetComponent.
// Writes through a pointer returned by GetComponent bypass the index.
func RegisterIndexedComponent[T IndexedComponent[V], V comparable]() ComponentType {
	return registerIndexed[T](indexValue, func(s *Store) componentIndex {
		return newValueIndex[T, V](s)
	})
}

// RegisterRangeIndexedComponent marks T as indexed by an ordered value.
// In addition to exact matches the index answers ValueInRange queries.
func RegisterRangeIndexedComponent[T IndexedComponent[V], V cmp.Ordered]() ComponentType {
	return registerIndexed[T](indexRange, func(s *Store) componentIndex {
		return newRangeIndex[T, V](s)
	})
}

// RegisterLinkComponent marks T as a link component: a component referencing
// another entity. Link components are indexed by target and support
// GetEntityReferences. Deleting a target removes the link from its sources.
func RegisterLinkComponent[T IndexedComponent[Entity]]() ComponentType {
	return registerIndexed[T](indexLink, func(s *Store) componentIndex {
		return newLinkIndex[T](s)
	})
}

func registerIndexed[T any](kind indexKind, factory func(s *Store) componentIndex) ComponentType {
	t := reflect.TypeFor[T]()
	schema.mu.Lock()
	defer schema.mu.Unlock()
	info := registerComponentLocked(t)
	if info.index != indexNone && info.index != kind {
		panic(fmt.Sprintf("kura: component %s already registered with a different index kind", t))
	}
	info.index = kind
	info.newIndex = factory
	return ComponentType{info: info}
}

// isPointerFree reports whether values of t can be copied with a plain memory
// move without involving the garbage collector's write barriers.
func isPointerFree(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return t.Len() == 0 || isPointerFree(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !isPointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

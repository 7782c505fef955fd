package kura

import "reflect"

// CreateEntity1 creates an entity with the given component values. The
// entity is placed directly into its final archetype.
func CreateEntity1[T1 any](s *Store, c1 T1) Entity {
	a := s.archetypeFor(Signature1[T1]())
	e := s.createEntity(a, s.nextId(), 0)
	row := s.nodes[e.Id].row
	*(*T1)(a.column(componentInfoOf(reflect.TypeFor[T1]()).id).ptr(row)) = c1
	s.indexRow(a, row)
	Publish(&s.bus, EntityCreated{Entity: e})
	return e
}

// CreateEntity2 creates an entity with the given component values. The
// entity is placed directly into its final archetype.
func CreateEntity2[T1, T2 any](s *Store, c1 T1, c2 T2) Entity {
	a := s.archetypeFor(Signature2[T1, T2]())
	e := s.createEntity(a, s.nextId(), 0)
	row := s.nodes[e.Id].row
	*(*T1)(a.column(componentInfoOf(reflect.TypeFor[T1]()).id).ptr(row)) = c1
	*(*T2)(a.column(componentInfoOf(reflect.TypeFor[T2]()).id).ptr(row)) = c2
	s.indexRow(a, row)
	Publish(&s.bus, EntityCreated{Entity: e})
	return e
}

// CreateEntity3 creates an entity with the given component values. The
// entity is placed directly into its final archetype.
func CreateEntity3[T1, T2, T3 any](s *Store, c1 T1, c2 T2, c3 T3) Entity {
	a := s.archetypeFor(Signature3[T1, T2, T3]())
	e := s.createEntity(a, s.nextId(), 0)
	row := s.nodes[e.Id].row
	*(*T1)(a.column(componentInfoOf(reflect.TypeFor[T1]()).id).ptr(row)) = c1
	*(*T2)(a.column(componentInfoOf(reflect.TypeFor[T2]()).id).ptr(row)) = c2
	*(*T3)(a.column(componentInfoOf(reflect.TypeFor[T3]()).id).ptr(row)) = c3
	s.indexRow(a, row)
	Publish(&s.bus, EntityCreated{Entity: e})
	return e
}

// CreateEntity4 creates an entity with the given component values. The
// entity is placed directly into its final archetype.
func CreateEntity4[T1, T2, T3, T4 any](s *Store, c1 T1, c2 T2, c3 T3, c4 T4) Entity {
	a := s.archetypeFor(Signature4[T1, T2, T3, T4]())
	e := s.createEntity(a, s.nextId(), 0)
	row := s.nodes[e.Id].row
	*(*T1)(a.column(componentInfoOf(reflect.TypeFor[T1]()).id).ptr(row)) = c1
	*(*T2)(a.column(componentInfoOf(reflect.TypeFor[T2]()).id).ptr(row)) = c2
	*(*T3)(a.column(componentInfoOf(reflect.TypeFor[T3]()).id).ptr(row)) = c3
	*(*T4)(a.column(componentInfoOf(reflect.TypeFor[T4]()).id).ptr(row)) = c4
	s.indexRow(a, row)
	Publish(&s.bus, EntityCreated{Entity: e})
	return e
}

// CreateEntity5 creates an entity with the given component values. The
// entity is placed directly into its final archetype.
func CreateEntity5[T1, T2, T3, T4, T5 any](s *Store, c1 T1, c2 T2, c3 T3, c4 T4, c5 T5) Entity {
	a := s.archetypeFor(Signature5[T1, T2, T3, T4, T5]())
	e := s.createEntity(a, s.nextId(), 0)
	row := s.nodes[e.Id].row
	*(*T1)(a.column(componentInfoOf(reflect.TypeFor[T1]()).id).ptr(row)) = c1
	*(*T2)(a.column(componentInfoOf(reflect.TypeFor[T2]()).id).ptr(row)) = c2
	*(*T3)(a.column(componentInfoOf(reflect.TypeFor[T3]()).id).ptr(row)) = c3
	*(*T4)(a.column(componentInfoOf(reflect.TypeFor[T4]()).id).ptr(row)) = c4
	*(*T5)(a.column(componentInfoOf(reflect.TypeFor[T5]()).id).ptr(row)) = c5
	s.indexRow(a, row)
	Publish(&s.bus, EntityCreated{Entity: e})
	return e
}

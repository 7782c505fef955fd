package kura

import "strings"

// ComponentTypes is an immutable, order independent set of component types.
type ComponentTypes struct {
	mask bitmask256
}

// NewComponentTypes creates a set from the given component types.
func NewComponentTypes(types ...ComponentType) ComponentTypes {
	var c ComponentTypes
	for _, t := range types {
		c.mask.set(t.info.id)
	}
	return c
}

// Has reports whether the set contains t.
func (c ComponentTypes) Has(t ComponentType) bool { return c.mask.containsBit(t.info.id) }

// HasAll reports whether c is a superset of other.
func (c ComponentTypes) HasAll(other ComponentTypes) bool { return c.mask.contains(other.mask) }

// Count returns the number of component types in the set.
func (c ComponentTypes) Count() int { return c.mask.count() }

// With returns a copy of c that also contains the given types.
func (c ComponentTypes) With(types ...ComponentType) ComponentTypes {
	for _, t := range types {
		c.mask.set(t.info.id)
	}
	return c
}

// Without returns a copy of c without the given types.
func (c ComponentTypes) Without(types ...ComponentType) ComponentTypes {
	for _, t := range types {
		c.mask.unset(t.info.id)
	}
	return c
}

// Types returns the component types ordered by ID.
func (c ComponentTypes) Types() []ComponentType {
	types := make([]ComponentType, 0, c.mask.count())
	c.mask.forEach(func(id uint8) {
		types = append(types, ComponentType{info: componentInfoById(id)})
	})
	return types
}

func (c ComponentTypes) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	first := true
	c.mask.forEach(func(id uint8) {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(componentInfoById(id).name)
	})
	sb.WriteByte(']')
	return sb.String()
}

// Tags is an immutable, order independent set of tag types.
type Tags struct {
	mask bitmask256
}

// NewTags creates a tag set from the given tag types.
func NewTags(tags ...TagType) Tags {
	var t Tags
	for _, tag := range tags {
		t.mask.set(tag.info.id)
	}
	return t
}

// TagsOf returns the tag set containing T.
func TagsOf[T any]() Tags {
	return NewTags(TagTypeOf[T]())
}

// TagsOf2 returns the tag set containing T1 and T2.
func TagsOf2[T1, T2 any]() Tags {
	return NewTags(TagTypeOf[T1](), TagTypeOf[T2]())
}

// TagsOf3 returns the tag set containing T1, T2 and T3.
func TagsOf3[T1, T2, T3 any]() Tags {
	return NewTags(TagTypeOf[T1](), TagTypeOf[T2](), TagTypeOf[T3]())
}

// Has reports whether the set contains tag.
func (t Tags) Has(tag TagType) bool { return t.mask.containsBit(tag.info.id) }

// HasAll reports whether t is a superset of other.
func (t Tags) HasAll(other Tags) bool { return t.mask.contains(other.mask) }

// HasAny reports whether t and other share at least one tag.
func (t Tags) HasAny(other Tags) bool { return t.mask.intersects(other.mask) }

// Count returns the number of tags in the set.
func (t Tags) Count() int { return t.mask.count() }

// With returns a copy of t that also contains other.
func (t Tags) With(other Tags) Tags { return Tags{mask: t.mask.or(other.mask)} }

// Without returns a copy of t without the tags in other.
func (t Tags) Without(other Tags) Tags { return Tags{mask: t.mask.andNot(other.mask)} }

// Types returns the tag types ordered by ID.
func (t Tags) Types() []TagType {
	types := make([]TagType, 0, t.mask.count())
	t.mask.forEach(func(id uint8) {
		types = append(types, TagType{info: tagInfoById(id)})
	})
	return types
}

func (t Tags) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	first := true
	t.mask.forEach(func(id uint8) {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString("#" + tagInfoById(id).name)
	})
	sb.WriteByte(']')
	return sb.String()
}

// Signature identifies an archetype: a unique combination of component types
// and tags. Two signatures are equal iff their sets are equal, independent of
// the order types were added in. Signature is comparable and is used as the
// key that interns archetypes within a Store.
type Signature struct {
	components ComponentTypes
	tags       Tags
}

// NewSignature creates a signature from any number of component types.
func NewSignature(types ...ComponentType) Signature {
	return Signature{components: NewComponentTypes(types...)}
}

// Signature1 returns the signature for a single component type.
func Signature1[T1 any]() Signature {
	return NewSignature(ComponentTypeOf[T1]())
}

// Signature2 returns the signature for two component types.
func Signature2[T1, T2 any]() Signature {
	return NewSignature(ComponentTypeOf[T1](), ComponentTypeOf[T2]())
}

// Signature3 returns the signature for three component types.
func Signature3[T1, T2, T3 any]() Signature {
	return NewSignature(ComponentTypeOf[T1](), ComponentTypeOf[T2](), ComponentTypeOf[T3]())
}

// Signature4 returns the signature for four component types.
func Signature4[T1, T2, T3, T4 any]() Signature {
	return NewSignature(ComponentTypeOf[T1](), ComponentTypeOf[T2](), ComponentTypeOf[T3](), ComponentTypeOf[T4]())
}

// Signature5 returns the signature for five component types.
func Signature5[T1, T2, T3, T4, T5 any]() Signature {
	return NewSignature(ComponentTypeOf[T1](), ComponentTypeOf[T2](), ComponentTypeOf[T3](), ComponentTypeOf[T4](), ComponentTypeOf[T5]())
}

// WithTags returns a copy of the signature that additionally requires tags.
func (s Signature) WithTags(tags ...TagType) Signature {
	for _, t := range tags {
		s.tags.mask.set(t.info.id)
	}
	return s
}

// WithTagSet returns a copy of the signature including the tag set.
func (s Signature) WithTagSet(tags Tags) Signature {
	s.tags = s.tags.With(tags)
	return s
}

// Components returns the component type set of the signature.
func (s Signature) Components() ComponentTypes { return s.components }

// Tags returns the tag set of the signature.
func (s Signature) Tags() Tags { return s.tags }

// IsEmpty reports whether the signature has neither components nor tags.
func (s Signature) IsEmpty() bool { return s.components.mask.isZero() && s.tags.mask.isZero() }

// Contains reports whether s is a superset of other, both for components and tags.
func (s Signature) Contains(other Signature) bool {
	return s.components.mask.contains(other.components.mask) && s.tags.mask.contains(other.tags.mask)
}

func (s Signature) String() string {
	if s.tags.mask.isZero() {
		return s.components.String()
	}
	return s.components.String() + s.tags.String()
}

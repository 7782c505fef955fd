package kura

// ChangeAction describes what happened to a component, script or child link.
type ChangeAction uint8

const (
	Added ChangeAction = iota
	Updated
	Removed
)

func (a ChangeAction) String() string {
	switch a {
	case Added:
		return "Added"
	case Updated:
		return "Updated"
	case Removed:
		return "Removed"
	default:
		return "Unknown"
	}
}

// EntityCreated is published after an entity was created.
type EntityCreated struct {
	Entity Entity
}

// EntityDeleted is published after an entity was deleted. The entity is no
// longer alive when handlers run.
type EntityDeleted struct {
	Id  uint32
	Pid int64
}

// ComponentChanged is published after a component was added, updated or removed.
type ComponentChanged struct {
	Entity Entity
	Type   ComponentType
	Action ChangeAction
}

// TagsChanged is published after the tags of an entity changed.
type TagsChanged struct {
	Entity  Entity
	Added   Tags
	Removed Tags
}

// ScriptChanged is published after a script was added, replaced or removed.
type ScriptChanged struct {
	Entity Entity
	Script Script
	Action ChangeAction
}

// ChildEntitiesChanged is published after a child was added to or removed
// from a parent entity.
type ChildEntitiesChanged struct {
	Parent Entity
	Child  Entity
	Index  int
	Action ChangeAction
}

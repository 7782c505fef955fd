package kura

import "github.com/rotisserie/eris"

var (
	// ErrForeignArchetype is returned when an archetype created by one Store is
	// passed to another Store.
	ErrForeignArchetype = eris.New("archetype belongs to a different store")
	// ErrInvalidId is returned for entity id 0 or ids that cannot be assigned.
	ErrInvalidId = eris.New("invalid entity id")
	// ErrIdInUse is returned when an explicitly requested id is already alive.
	ErrIdInUse = eris.New("entity id already in use")
	// ErrInvalidPid is returned for pids <= 0 or pids out of range for the pid mode.
	ErrInvalidPid = eris.New("invalid pid")
	// ErrPidInUse is returned when an explicitly requested pid is already mapped.
	ErrPidInUse = eris.New("pid already in use")
	// ErrEntityDeleted is returned by operations requiring a live entity.
	ErrEntityDeleted = eris.New("entity is deleted")
	// ErrComponentType is returned when a runtime value does not match its component type.
	ErrComponentType = eris.New("value does not match component type")
	// ErrInvalidConfig is returned by NewStore and LoadConfig for invalid settings.
	ErrInvalidConfig = eris.New("invalid store config")
	// ErrScriptNotClonable is returned when copying an entity with a script
	// that does not implement ScriptCloner.
	ErrScriptNotClonable = eris.New("script does not implement ScriptCloner")
	// ErrInvalidTree is returned for parent/child operations that would
	// create a cycle or link entities of different stores.
	ErrInvalidTree = eris.New("invalid entity tree operation")
)

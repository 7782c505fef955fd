package kura

import (
	"reflect"
	"slices"

	"github.com/rotisserie/eris"
)

// Script is per-entity behavior stored beside the entity's components. An
// entity holds at most one script per concrete type.
type Script interface {
	// Start is called once before the first Update.
	Start(e Entity)
	Update(e Entity)
}

// ScriptCloner is implemented by scripts that can be copied to another
// entity by CloneEntity and CopyEntity.
type ScriptCloner interface {
	Script
	CloneScript() Script
}

type scriptSlot struct {
	script  Script
	started bool
}

// scriptSet holds the scripts of one entity in insertion order.
type scriptSet struct {
	items []scriptSlot
	types map[reflect.Type]int
}

// put adds sc, replacing a script of the same type in place. It returns the
// replaced script or nil.
func (r *scriptSet) put(sc Script) Script {
	t := reflect.TypeOf(sc)
	if r.types == nil {
		r.types = make(map[reflect.Type]int)
	}
	if i, ok := r.types[t]; ok {
		old := r.items[i].script
		r.items[i] = scriptSlot{script: sc}
		return old
	}
	r.types[t] = len(r.items)
	r.items = append(r.items, scriptSlot{script: sc})
	return nil
}

func (r *scriptSet) get(t reflect.Type) (Script, bool) {
	if i, ok := r.types[t]; ok {
		return r.items[i].script, true
	}
	return nil, false
}

// remove deletes the script of type t and returns it, keeping the order of
// the remaining scripts.
func (r *scriptSet) remove(t reflect.Type) (Script, bool) {
	i, ok := r.types[t]
	if !ok {
		return nil, false
	}
	sc := r.items[i].script
	delete(r.types, t)
	r.items = slices.Delete(r.items, i, i+1)
	for j := i; j < len(r.items); j++ {
		r.types[reflect.TypeOf(r.items[j].script)] = j
	}
	return sc, true
}

func (r *scriptSet) len() int { return len(r.items) }

// clear removes all scripts.
func (r *scriptSet) clear() {
	clear(r.items)
	r.items = r.items[:0]
	clear(r.types)
}

func (r *scriptSet) scripts() []Script {
	out := make([]Script, len(r.items))
	for i, it := range r.items {
		out[i] = it.script
	}
	return out
}

// AddScript attaches sc to the entity. A script of the same concrete type is
// replaced. It returns false if a script was replaced or the entity is not
// alive.
func (e Entity) AddScript(sc Script) bool {
	if sc == nil {
		panic("kura: cannot add nil script")
	}
	if !e.IsAlive() {
		return false
	}
	s := e.store
	set, ok := s.scripts[e.Id]
	if !ok {
		set = &scriptSet{}
		s.scripts[e.Id] = set
		i, _ := slices.BinarySearch(s.scriptIds, e.Id)
		s.scriptIds = slices.Insert(s.scriptIds, i, e.Id)
	}
	if old := set.put(sc); old != nil {
		Publish(&s.bus, ScriptChanged{Entity: e, Script: sc, Action: Updated})
		return false
	}
	Publish(&s.bus, ScriptChanged{Entity: e, Script: sc, Action: Added})
	return true
}

// Scripts returns the scripts of the entity in insertion order.
func (e Entity) Scripts() []Script {
	if !e.IsAlive() {
		return nil
	}
	if set, ok := e.store.scripts[e.Id]; ok {
		return set.scripts()
	}
	return nil
}

// RemoveScriptOf removes the script of type t. It returns false if the entity
// has no such script.
func (e Entity) RemoveScriptOf(t reflect.Type) bool {
	if !e.IsAlive() {
		return false
	}
	s := e.store
	set, ok := s.scripts[e.Id]
	if !ok {
		return false
	}
	sc, ok := set.remove(t)
	if !ok {
		return false
	}
	if set.len() == 0 {
		s.dropScriptSet(e.Id)
	}
	Publish(&s.bus, ScriptChanged{Entity: e, Script: sc, Action: Removed})
	return true
}

// GetScript returns the script of type `T`.
func GetScript[T Script](e Entity) (T, bool) {
	var zero T
	if !e.IsAlive() {
		return zero, false
	}
	set, ok := e.store.scripts[e.Id]
	if !ok {
		return zero, false
	}
	sc, ok := set.get(reflect.TypeFor[T]())
	if !ok {
		return zero, false
	}
	return sc.(T), true
}

// RemoveScript removes the script of type `T`. It returns false if the entity
// has no such script.
func RemoveScript[T Script](e Entity) bool {
	return e.RemoveScriptOf(reflect.TypeFor[T]())
}

func (s *Store) dropScriptSet(id uint32) {
	delete(s.scripts, id)
	if i, found := slices.BinarySearch(s.scriptIds, id); found {
		s.scriptIds = slices.Delete(s.scriptIds, i, i+1)
	}
}

// UpdateScripts calls Update on every script, ordered by entity id and then
// by insertion order. Scripts not started yet are started first. Scripts may
// mutate the store; entities deleted during the pass are skipped.
func (s *Store) UpdateScripts() {
	ids := slices.Clone(s.scriptIds)
	for _, id := range ids {
		for i := 0; ; i++ {
			set, ok := s.scripts[id]
			if !ok || i >= len(set.items) {
				break
			}
			e := Entity{store: s, Id: id}
			slot := &set.items[i]
			sc := slot.script
			if !slot.started {
				slot.started = true
				sc.Start(e)
			}
			sc.Update(e)
		}
	}
}

// ScriptCount returns the number of entities with at least one script.
func (s *Store) ScriptCount() int { return len(s.scriptIds) }

// cloneScripts copies the scripts of src into dst. All scripts must implement
// ScriptCloner; otherwise nothing is copied.
func cloneScripts(src *scriptSet) ([]Script, error) {
	out := make([]Script, 0, len(src.items))
	for _, it := range src.items {
		c, ok := it.script.(ScriptCloner)
		if !ok {
			return nil, eris.Wrapf(ErrScriptNotClonable, "%T", it.script)
		}
		out = append(out, c.CloneScript())
	}
	return out, nil
}

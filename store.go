// Package kura implements an archetype-based entity/component store.
//
// Entities sharing the same set of component types live together in an
// Archetype, one chunked column per component type, so queries iterate
// dense typed slices. Features:
// - Up to 256 component types and 256 tag types per store.
// - Cached archetype transitions for add/remove migrations.
// - Persistent ids (pids) alongside dense entity ids.
// - Value, range and link indexes backed by roaring bitmaps.
// - Chunk iteration with padded 128/256/512 bit lane views.
// - Synchronous change events, per-entity scripts and parent/child trees.
package kura

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"
	"unsafe"

	"github.com/google/uuid"
	"github.com/kamstrup/intmap"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

type nodeFlags uint8

const (
	nodeCreated nodeFlags = 1 << iota
	nodeDeleted
)

// entityNode is the per-id record of the entity directory. It is owned
// exclusively by the Store.
type entityNode struct {
	archetype *Archetype // nil if the entity is not alive
	row       int
	pid       int64
	parentId  uint32
	flags     nodeFlags
}

// Store is the entity directory. It maps entity ids and pids to archetype
// rows, owns the archetype registry and the transition graph, and is the only
// place entities are created and deleted.
//
// A Store is not safe for concurrent use. Read-only query iteration from
// several goroutines is safe only while no goroutine mutates the store.
type Store struct {
	log         *zap.Logger
	pids        *intmap.Map[int64, uint32] // RandomPids only
	archByKey   map[Signature]*Archetype
	scripts     map[uint32]*scriptSet
	scriptIds   []uint32 // sorted keys of scripts
	defaultArch *Archetype
	nodes       []entityNode
	archetypes  []*Archetype
	linkTypes   []*componentInfo
	config      Config
	bus         EventBus
	indexes     [MaxComponentTypes]componentIndex
	chunkSize   int
	count       int
	chunkShift  uint
	sequenceId  uint32
}

// NewStore creates an empty store. It fails with ErrInvalidConfig for
// invalid settings.
//
// Without WithLogger the store is silent unless the configured Logging
// section is set and differs from the default, in which case NewLogger
// builds one.
func NewStore(opts ...Option) (*Store, error) {
	o := options{config: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.config.Validate(); err != nil {
		return nil, err
	}
	cfg := o.config
	if o.logger == nil {
		if cfg.Logging == (LoggingConfig{}) || cfg.Logging == DefaultConfig().Logging {
			o.logger = zap.NewNop()
		} else {
			l, err := NewLogger(cfg.Logging)
			if err != nil {
				return nil, eris.Wrap(err, "build logger")
			}
			o.logger = l
		}
	}
	s := &Store{
		log:        o.logger,
		config:     cfg,
		chunkSize:  cfg.ChunkSize,
		chunkShift: uint(bits.TrailingZeros(uint(cfg.ChunkSize))),
		archByKey:  make(map[Signature]*Archetype, 16),
		archetypes: make([]*Archetype, 0, 16),
		scripts:    make(map[uint32]*scriptSet),
		nodes:      make([]entityNode, 1, cfg.InitialEntityCapacity+1), // id 0 is reserved
	}
	if cfg.PidType == RandomPids {
		s.pids = intmap.New[int64, uint32](cfg.InitialEntityCapacity)
	}
	s.defaultArch = s.archetypeFor(Signature{})
	return s, nil
}

// Config returns the settings the store was created with.
func (s *Store) Config() Config { return s.config }

// PidType returns the pid mode of the store.
func (s *Store) PidType() PidType { return s.config.PidType }

// ChunkSize returns the number of rows per chunk of every archetype.
func (s *Store) ChunkSize() int { return s.chunkSize }

// Events returns the observer list of the store.
func (s *Store) Events() *EventBus { return &s.bus }

// EntityCount returns the number of live entities.
func (s *Store) EntityCount() int { return s.count }

// Archetypes returns all archetypes in creation order. The slice is owned by
// the store; archetypes are never removed.
func (s *Store) Archetypes() []*Archetype { return s.archetypes }

// ArchetypeOf returns the archetype for sig, creating it if needed.
func (s *Store) ArchetypeOf(sig Signature) *Archetype { return s.archetypeFor(sig) }

func (s *Store) archetypeFor(sig Signature) *Archetype {
	if a, ok := s.archByKey[sig]; ok {
		return a
	}
	a := newArchetype(s, sig, len(s.archetypes))
	s.archetypes = append(s.archetypes, a)
	s.archByKey[sig] = a
	if ce := s.log.Check(zap.DebugLevel, "archetype created"); ce != nil {
		ce.Write(zap.Stringer("signature", sig), zap.Int("index", a.index))
	}
	return a
}

// ---- entity creation ----

// CreateEntity creates an entity without components or tags.
func (s *Store) CreateEntity() Entity {
	e := s.createEntity(s.defaultArch, s.nextId(), 0)
	Publish(&s.bus, EntityCreated{Entity: e})
	return e
}

// CreateEntityIn creates an entity in the given archetype. The archetype must
// have been created by this store.
func (s *Store) CreateEntityIn(a *Archetype) (Entity, error) {
	if a == nil {
		return Entity{}, eris.Wrap(ErrForeignArchetype, "archetype is nil")
	}
	if a.store != s {
		s.log.Warn("rejected foreign archetype", zap.Stringer("signature", a.sig), zap.Int("index", a.index))
		return Entity{}, eris.Wrapf(ErrForeignArchetype, "archetype %v (index %d)", a.sig, a.index)
	}
	e := s.createEntity(a, s.nextId(), 0)
	s.indexRow(a, s.nodes[e.Id].row)
	Publish(&s.bus, EntityCreated{Entity: e})
	return e, nil
}

// MaxIdGap bounds how far an explicit id may lie beyond the highest id the
// store has allocated bookkeeping for.
const MaxIdGap = 1 << 16

// CreateEntityWithId creates an entity with an explicit id. A deleted id may
// be reused this way; an alive id fails with ErrIdInUse. Ids further than
// MaxIdGap past the allocated range fail with ErrInvalidId.
func (s *Store) CreateEntityWithId(id uint32) (Entity, error) {
	if id == 0 {
		return Entity{}, eris.Wrapf(ErrInvalidId, "id %d", id)
	}
	if !s.idInReach(uint64(id)) {
		return Entity{}, eris.Wrapf(ErrInvalidId, "id %d exceeds %d", id, len(s.nodes)+MaxIdGap-1)
	}
	if int(id) < len(s.nodes) && s.nodes[id].archetype != nil {
		return Entity{}, eris.Wrapf(ErrIdInUse, "id %d", id)
	}
	e := s.createEntity(s.defaultArch, id, 0)
	Publish(&s.bus, EntityCreated{Entity: e})
	return e, nil
}

// CreateEntityWithPid creates an entity with an externally supplied pid. With
// UsePidAsId the pid is used as entity id and the MaxIdGap limit of
// CreateEntityWithId applies.
func (s *Store) CreateEntityWithPid(pid int64) (Entity, error) {
	if pid <= 0 {
		return Entity{}, eris.Wrapf(ErrInvalidPid, "pid %d", pid)
	}
	if s.pids == nil {
		if pid > math.MaxUint32 || !s.idInReach(uint64(pid)) {
			return Entity{}, eris.Wrapf(ErrInvalidPid, "pid %d exceeds %d", pid, len(s.nodes)+MaxIdGap-1)
		}
		return s.CreateEntityWithId(uint32(pid))
	}
	if _, used := s.pids.Get(pid); used {
		s.log.Warn("rejected pid in use", zap.Int64("pid", pid))
		return Entity{}, eris.Wrapf(ErrPidInUse, "pid %d", pid)
	}
	e := s.createEntity(s.defaultArch, s.nextId(), pid)
	Publish(&s.bus, EntityCreated{Entity: e})
	return e, nil
}

// nextId returns the next sequence id. Ids are never silently recycled: ids
// that were ever used, including deleted ones, are skipped.
func (s *Store) nextId() uint32 {
	for {
		s.sequenceId++
		id := s.sequenceId
		if id == 0 {
			panic("kura: entity id space exhausted")
		}
		if int(id) >= len(s.nodes) || s.nodes[id].flags == 0 {
			return id
		}
	}
}

func (s *Store) idInReach(id uint64) bool {
	return id < uint64(len(s.nodes))+MaxIdGap
}

func (s *Store) ensureNode(id uint32) {
	if int(id) < len(s.nodes) {
		return
	}
	n := max(2*len(s.nodes), int(id)+1)
	if n <= cap(s.nodes) {
		s.nodes = s.nodes[:n]
		return
	}
	nodes := make([]entityNode, n)
	copy(nodes, s.nodes)
	s.nodes = nodes
}

// createEntity appends a row for id to a. A pid of 0 assigns one according to
// the pid mode.
func (s *Store) createEntity(a *Archetype, id uint32, pid int64) Entity {
	s.ensureNode(id)
	if s.pids == nil {
		pid = int64(id)
	} else {
		if pid == 0 {
			pid = s.newRandomPid()
		}
		s.pids.Put(pid, id)
	}
	row := a.createRow(id)
	s.nodes[id] = entityNode{archetype: a, row: row, pid: pid, flags: nodeCreated}
	s.count++
	return Entity{store: s, Id: id}
}

func (s *Store) newRandomPid() int64 {
	for {
		u := uuid.New()
		pid := int64(binary.LittleEndian.Uint64(u[:8]) & math.MaxInt64)
		if pid == 0 {
			continue
		}
		if _, used := s.pids.Get(pid); !used {
			return pid
		}
	}
}

// indexRow registers the values of all indexed components at row with their
// indexes. A TreeNode copied in with the values is cleared; only AddChild
// fills it.
func (s *Store) indexRow(a *Archetype, row int) {
	id := a.entityIds[row]
	for _, c := range a.columns {
		if c.info == treeNodeInfo {
			*(*TreeNode)(c.ptr(row)) = TreeNode{}
			continue
		}
		if c.info.index != indexNone {
			s.index(c.info).add(id, c.ptr(row))
		}
	}
}

// ---- entity lookup ----

// GetEntityById returns the entity handle for id. It is an unchecked fast
// path: it panics for id 0 or ids never allocated. Use TryGetEntityById when
// the id may be invalid.
func (s *Store) GetEntityById(id uint32) Entity {
	if id == 0 || int(id) >= len(s.nodes) {
		panic(fmt.Sprintf("kura: entity id %d out of range", id))
	}
	return Entity{store: s, Id: id}
}

// TryGetEntityById returns the live entity with the given id.
func (s *Store) TryGetEntityById(id uint32) (Entity, bool) {
	if !s.alive(id) {
		return Entity{}, false
	}
	return Entity{store: s, Id: id}, true
}

// TryGetEntityByPid returns the live entity with the given pid. It returns
// false for pid 0, negative pids, unassigned pids and deleted entities.
func (s *Store) TryGetEntityByPid(pid int64) (Entity, bool) {
	if pid <= 0 {
		return Entity{}, false
	}
	if s.pids == nil {
		if pid > math.MaxUint32 || !s.alive(uint32(pid)) {
			return Entity{}, false
		}
		return Entity{store: s, Id: uint32(pid)}, true
	}
	id, ok := s.pids.Get(pid)
	if !ok || !s.alive(id) {
		return Entity{}, false
	}
	return Entity{store: s, Id: id}, true
}

// PidToId maps a pid to its entity id. It is an unchecked projection: in
// RandomPids mode it panics for unmapped pids.
func (s *Store) PidToId(pid int64) uint32 {
	if s.pids == nil {
		return uint32(pid)
	}
	id, ok := s.pids.Get(pid)
	if !ok {
		panic(fmt.Sprintf("kura: pid %d is not mapped to an entity", pid))
	}
	return id
}

// IdToPid maps an entity id to its pid.
func (s *Store) IdToPid(id uint32) int64 {
	if s.pids == nil {
		return int64(id)
	}
	return s.nodes[id].pid
}

func (s *Store) alive(id uint32) bool {
	return id != 0 && int(id) < len(s.nodes) && s.nodes[id].archetype != nil
}

// ---- deletion ----

// DeleteEntity deletes the entity with the given id. Deleting an entity that
// is already deleted or was never created is a no-op.
func (s *Store) DeleteEntity(id uint32) {
	if !s.alive(id) {
		return
	}
	s.removeLinksTo(id)
	s.detachTree(id)
	if set, ok := s.scripts[id]; ok {
		s.dropScriptSet(id)
		set.clear()
	}
	node := &s.nodes[id]
	a := node.archetype
	for _, c := range a.columns {
		if c.info.index != indexNone {
			s.valueRemoved(id, c.info)
		}
	}
	if moved := a.deleteRow(node.row); moved != 0 {
		s.nodes[moved].row = node.row
	}
	pid := node.pid
	if s.pids != nil {
		s.pids.Del(pid)
	}
	*node = entityNode{flags: nodeDeleted}
	s.count--
	Publish(&s.bus, EntityDeleted{Id: id, Pid: pid})
}

// ---- structural changes ----

// migrate moves the entity to the archetype with signature sig. Component
// values present in both archetypes are copied, components only present in
// the target are zero, and components only present in the source are dropped
// together with their index entries.
func (s *Store) migrate(id uint32, sig Signature) *edge {
	node := &s.nodes[id]
	src := node.archetype
	e := src.edgeTo(sig)
	dst := e.target
	srcRow := node.row
	row := dst.createRow(id)
	for _, m := range e.moves {
		m.dst.copyRow(row, m.src, srcRow)
	}
	if moved := src.deleteRow(srcRow); moved != 0 {
		s.nodes[moved].row = srcRow
	}
	node.archetype = dst
	node.row = row
	for _, info := range e.dropped {
		if info.index != indexNone {
			s.valueRemoved(id, info)
		}
	}
	return e
}

// addComponent ensures the entity has a component of type info and returns
// its address. added is false if the component was already present.
func (s *Store) addComponent(id uint32, info *componentInfo) (ptr unsafe.Pointer, added bool) {
	node := &s.nodes[id]
	if c := node.archetype.column(info.id); c != nil {
		return c.ptr(node.row), false
	}
	sig := node.archetype.sig
	sig.components.mask.set(info.id)
	s.migrate(id, sig)
	node = &s.nodes[id]
	return node.archetype.column(info.id).ptr(node.row), true
}

func (s *Store) removeComponent(id uint32, info *componentInfo) bool {
	node := &s.nodes[id]
	if node.archetype.column(info.id) == nil {
		return false
	}
	if info == treeNodeInfo {
		s.orphanChildren(id)
	}
	sig := node.archetype.sig
	sig.components.mask.unset(info.id)
	s.migrate(id, sig)
	Publish(&s.bus, ComponentChanged{Entity: Entity{store: s, Id: id}, Type: ComponentType{info: info}, Action: Removed})
	return true
}

// componentWritten updates the value index of info and notifies observers.
func (s *Store) componentWritten(id uint32, info *componentInfo, ptr unsafe.Pointer, action ChangeAction) {
	if info.index != indexNone {
		s.index(info).add(id, ptr)
	}
	Publish(&s.bus, ComponentChanged{Entity: Entity{store: s, Id: id}, Type: ComponentType{info: info}, Action: action})
}

func (s *Store) valueRemoved(id uint32, info *componentInfo) {
	if idx := s.indexes[info.id]; idx != nil {
		idx.remove(id)
	}
}

func (s *Store) changeTags(id uint32, add, remove Tags) bool {
	node := &s.nodes[id]
	cur := node.archetype.sig.tags
	next := cur.With(add).Without(remove)
	if next == cur {
		return false
	}
	sig := node.archetype.sig
	sig.tags = next
	s.migrate(id, sig)
	Publish(&s.bus, TagsChanged{
		Entity:  Entity{store: s, Id: id},
		Added:   next.Without(cur),
		Removed: cur.Without(next),
	})
	return true
}

// ---- invariants ----

// CheckInvariants verifies the row bookkeeping of every archetype and entity
// node. It returns an error describing the first violation. Intended for
// tests and debug builds.
func (s *Store) CheckInvariants() error {
	total := 0
	for _, a := range s.archetypes {
		if a.count > a.capacity {
			return eris.Errorf("archetype %v: count %d exceeds capacity %d", a.sig, a.count, a.capacity)
		}
		if a.capacity%a.chunkSize != 0 || a.capacity < a.chunkSize {
			return eris.Errorf("archetype %v: capacity %d is not a chunk multiple", a.sig, a.capacity)
		}
		for _, c := range a.columns {
			if len(c.chunks) != a.capacity/a.chunkSize {
				return eris.Errorf("archetype %v: column %s has %d chunks, want %d", a.sig, c.info.name, len(c.chunks), a.capacity/a.chunkSize)
			}
		}
		for row := 0; row < a.count; row++ {
			id := a.entityIds[row]
			if int(id) >= len(s.nodes) {
				return eris.Errorf("archetype %v row %d: id %d out of range", a.sig, row, id)
			}
			node := s.nodes[id]
			if node.archetype != a || node.row != row {
				return eris.Errorf("archetype %v row %d: entity %d points to %v row %d", a.sig, row, id, node.archetype, node.row)
			}
		}
		total += a.count
	}
	if total != s.count {
		return eris.Errorf("store count %d differs from archetype total %d", s.count, total)
	}
	for id := 1; id < len(s.nodes); id++ {
		node := s.nodes[id]
		if node.archetype == nil {
			continue
		}
		if node.archetype.entityIds[node.row] != uint32(id) {
			return eris.Errorf("entity %d: row %d of %v holds %d", id, node.row, node.archetype.sig, node.archetype.entityIds[node.row])
		}
	}
	return nil
}

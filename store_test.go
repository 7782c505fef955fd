package kura

import (
	"math"
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// go test -run ^TestCreateEntity$ . -count 1
func TestCreateEntity(t *testing.T) {
	s := newTestStore(t)
	e1 := s.CreateEntity()
	e2 := s.CreateEntity()

	assert.Equal(t, uint32(1), e1.Id, "id 0 is reserved")
	assert.Equal(t, uint32(2), e2.Id)
	assert.True(t, e1.IsAlive())
	assert.False(t, e1.IsNull())
	assert.Equal(t, 2, s.EntityCount())
	assert.Equal(t, Signature{}, e1.Signature())
	requireInvariants(t, s)
}

func TestNullEntity(t *testing.T) {
	var e Entity
	assert.True(t, e.IsNull())
	assert.False(t, e.IsAlive())
	assert.Equal(t, "null", e.String())
	assert.False(t, AddComponent[Position](e))
	e.Delete()
}

// go test -run ^TestDeleteEntity$ . -count 1
func TestDeleteEntity(t *testing.T) {
	s := newTestStore(t)
	e := CreateEntity1(s, Position{X: 1})
	other := CreateEntity1(s, Position{X: 2})

	s.DeleteEntity(e.Id)
	assert.False(t, e.IsAlive())
	assert.Equal(t, 1, s.EntityCount())
	_, ok := s.TryGetEntityById(e.Id)
	assert.False(t, ok)

	t.Run("Idempotent", func(t *testing.T) {
		s.DeleteEntity(e.Id)
		e.Delete()
		assert.Equal(t, 1, s.EntityCount())
		requireInvariants(t, s)
	})

	t.Run("NeverCreated", func(t *testing.T) {
		s.DeleteEntity(0)
		s.DeleteEntity(10_000)
		assert.Equal(t, 1, s.EntityCount())
	})

	assert.Equal(t, float32(2), GetComponent[Position](other).X)
}

func TestIdsAreNotRecycled(t *testing.T) {
	s := newTestStore(t)
	a := s.CreateEntity()
	a.Delete()
	b := s.CreateEntity()
	assert.NotEqual(t, a.Id, b.Id)

	t.Run("ExplicitReuse", func(t *testing.T) {
		e, err := s.CreateEntityWithId(a.Id)
		require.NoError(t, err)
		assert.Equal(t, a.Id, e.Id)
		assert.True(t, a.IsAlive(), "old handle refers to the reused id")
	})

	t.Run("ExplicitIdSkippedBySequence", func(t *testing.T) {
		e, err := s.CreateEntityWithId(b.Id + 1)
		require.NoError(t, err)
		next := s.CreateEntity()
		assert.Equal(t, e.Id+1, next.Id)
	})

	t.Run("Errors", func(t *testing.T) {
		_, err := s.CreateEntityWithId(0)
		assert.ErrorIs(t, err, ErrInvalidId)
		_, err = s.CreateEntityWithId(b.Id)
		assert.ErrorIs(t, err, ErrIdInUse)
	})

	t.Run("IdBeyondGap", func(t *testing.T) {
		far := uint32(len(s.nodes) + MaxIdGap)
		_, err := s.CreateEntityWithId(far)
		assert.ErrorIs(t, err, ErrInvalidId)
		assert.Contains(t, err.Error(), strconv.FormatUint(uint64(far), 10))
		_, err = s.CreateEntityWithId(math.MaxUint32)
		assert.ErrorIs(t, err, ErrInvalidId)

		e, err := s.CreateEntityWithId(far - 1)
		require.NoError(t, err)
		assert.Equal(t, far-1, e.Id)
	})
	requireInvariants(t, s)
}

func TestGetEntityById(t *testing.T) {
	s := newTestStore(t)
	e := s.CreateEntity()
	assert.Equal(t, e, s.GetEntityById(e.Id))
	assert.Panics(t, func() { s.GetEntityById(0) })
	assert.Panics(t, func() { s.GetEntityById(1 << 20) })
}

// go test -run ^TestPidRoundTrip$ . -count 1
func TestPidRoundTrip(t *testing.T) {
	for _, mode := range []PidType{UsePidAsId, RandomPids} {
		t.Run(mode.String(), func(t *testing.T) {
			s := newTestStore(t, WithPidType(mode))
			entities := make([]Entity, 100)
			seen := make(map[int64]bool)
			for i := range entities {
				entities[i] = s.CreateEntity()
				pid := entities[i].Pid()
				assert.Positive(t, pid)
				assert.False(t, seen[pid], "duplicate pid %d", pid)
				seen[pid] = true
			}
			for _, e := range entities {
				pid := s.IdToPid(e.Id)
				assert.Equal(t, e.Id, s.PidToId(pid))
				got, ok := s.TryGetEntityByPid(pid)
				require.True(t, ok)
				assert.Equal(t, e, got)
			}
			if mode == UsePidAsId {
				assert.Equal(t, int64(entities[3].Id), entities[3].Pid())
			}

			entities[0].Delete()
			_, ok := s.TryGetEntityByPid(entities[0].Pid())
			assert.False(t, ok)
			_, ok = s.TryGetEntityByPid(0)
			assert.False(t, ok)
			_, ok = s.TryGetEntityByPid(-5)
			assert.False(t, ok)
		})
	}
}

func TestCreateEntityWithPid(t *testing.T) {
	t.Run("RandomPids", func(t *testing.T) {
		s := newTestStore(t, WithPidType(RandomPids))
		e, err := s.CreateEntityWithPid(123456789)
		require.NoError(t, err)
		assert.Equal(t, int64(123456789), e.Pid())
		assert.Equal(t, e.Id, s.PidToId(123456789))

		_, err = s.CreateEntityWithPid(123456789)
		assert.ErrorIs(t, err, ErrPidInUse)
		_, err = s.CreateEntityWithPid(0)
		assert.ErrorIs(t, err, ErrInvalidPid)
		assert.Panics(t, func() { s.PidToId(42) })

		e.Delete()
		_, err = s.CreateEntityWithPid(123456789)
		assert.NoError(t, err, "pid of a deleted entity is free again")
	})

	t.Run("UsePidAsId", func(t *testing.T) {
		s := newTestStore(t)
		e, err := s.CreateEntityWithPid(77)
		require.NoError(t, err)
		assert.Equal(t, uint32(77), e.Id)
		_, err = s.CreateEntityWithPid(1 << 40)
		assert.ErrorIs(t, err, ErrInvalidPid)

		_, err = s.CreateEntityWithPid(math.MaxUint32)
		assert.ErrorIs(t, err, ErrInvalidPid)
		assert.Contains(t, err.Error(), "4294967295")
		_, err = s.CreateEntityWithPid(int64(len(s.nodes) + MaxIdGap))
		assert.ErrorIs(t, err, ErrInvalidPid)
		assert.Equal(t, 1, s.EntityCount())
	})
}

// go test -run ^TestCrossStoreRejection$ . -count 1
func TestCrossStoreRejection(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s1 := newTestStore(t, WithLogger(zap.New(core)))
	s2 := newTestStore(t)
	foreign := s2.ArchetypeOf(Signature1[Position]())

	_, err := s1.CreateEntityIn(foreign)
	require.ErrorIs(t, err, ErrForeignArchetype)
	assert.Contains(t, err.Error(), "index")
	assert.Equal(t, 0, s1.EntityCount())
	assert.Equal(t, 0, foreign.EntityCount())
	assert.Equal(t, 1, logs.FilterMessage("rejected foreign archetype").Len())

	_, err = s1.CreateEntityIn(nil)
	assert.ErrorIs(t, err, ErrForeignArchetype)

	_, err = s1.CreateEntities(foreign, 10, nil)
	assert.ErrorIs(t, err, ErrForeignArchetype)
}

func TestCreateEntityIn(t *testing.T) {
	s := newTestStore(t)
	a := s.ArchetypeOf(Signature2[Position, Velocity]().WithTags(TagTypeOf[Enemy]()))
	e, err := s.CreateEntityIn(a)
	require.NoError(t, err)
	assert.Same(t, a, e.Archetype())
	assert.Equal(t, Position{}, *GetComponent[Position](e))
	assert.True(t, HasTag[Enemy](e))
	assert.Same(t, a, s.ArchetypeOf(a.Signature()), "archetypes are interned by signature")
}

func TestCreateEntities(t *testing.T) {
	s := newTestStore(t, WithChunkSize(64))
	a := s.ArchetypeOf(Signature1[Level]())
	entities, err := s.CreateEntities(a, 200, nil)
	require.NoError(t, err)
	assert.Len(t, entities, 200)
	assert.Equal(t, 256, a.Capacity())
	assert.Equal(t, 200, GetEntitiesWithComponentValue[Level, int](s, 0).Count())
	requireInvariants(t, s)

	s.DeleteEntities(a)
	assert.Equal(t, 0, a.EntityCount())
	assert.Equal(t, 0, s.EntityCount())
	requireInvariants(t, s)
}

func TestNewStoreConfigErrors(t *testing.T) {
	_, err := NewStore(WithChunkSize(100))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewStore(WithChunkSize(32))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewStore(WithInitialCapacity(-1))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	s, err := NewStore(WithConfig(Config{ChunkSize: 128, PidType: RandomPids}), WithLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, 128, s.ChunkSize())
	assert.Equal(t, RandomPids, s.PidType())
}

// go test -run ^TestRandomOperationsKeepInvariants$ . -count 1
func TestRandomOperationsKeepInvariants(t *testing.T) {
	s := newTestStore(t, WithChunkSize(64))
	rng := rand.New(rand.NewPCG(1, 2))
	var alive []Entity
	for step := range 5000 {
		switch op := rng.IntN(8); {
		case op < 3 || len(alive) == 0:
			alive = append(alive, CreateEntity1(s, Health{Current: step}))
		case op == 3:
			i := rng.IntN(len(alive))
			alive[i].Delete()
			alive[i] = alive[len(alive)-1]
			alive = alive[:len(alive)-1]
		case op == 4:
			AddComponentValue(alive[rng.IntN(len(alive))], Position{X: float32(step)})
		case op == 5:
			RemoveComponent[Position](alive[rng.IntN(len(alive))])
		case op == 6:
			AddTag[Frozen](alive[rng.IntN(len(alive))])
		default:
			AddComponentValue(alive[rng.IntN(len(alive))], Level{Value: rng.IntN(10)})
		}
		if step%250 == 0 {
			requireInvariants(t, s)
		}
	}
	requireInvariants(t, s)
	assert.Equal(t, len(alive), s.EntityCount())

	n := 0
	for v := range 10 {
		n += GetEntitiesWithComponentValue[Level, int](s, v).Count()
	}
	withLevel := 0
	for _, e := range alive {
		if HasComponent[Level](e) {
			withLevel++
		}
	}
	assert.Equal(t, withLevel, n)
}

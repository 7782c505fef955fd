package kura

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterScript struct {
	log     *[]uint32
	starts  int
	updates int
}

func (c *counterScript) Start(Entity) { c.starts++ }

func (c *counterScript) Update(e Entity) {
	c.updates++
	if c.log != nil {
		*c.log = append(*c.log, e.Id)
	}
}

func (c *counterScript) CloneScript() Script {
	clone := *c
	return &clone
}

type moverScript struct{}

func (moverScript) Start(Entity) {}

func (moverScript) Update(e Entity) {
	if p, ok := TryGetComponent[Position](e); ok {
		p.X++
	}
}

// go test -run ^TestScripts$ . -count 1
func TestScripts(t *testing.T) {
	s := newTestStore(t)
	e := CreateEntity1(s, Position{})

	c := &counterScript{}
	require.True(t, e.AddScript(c))
	require.True(t, e.AddScript(moverScript{}))
	assert.Len(t, e.Scripts(), 2)

	got, ok := GetScript[*counterScript](e)
	require.True(t, ok)
	assert.Same(t, c, got)

	t.Run("ReplaceSameType", func(t *testing.T) {
		c2 := &counterScript{}
		assert.False(t, e.AddScript(c2))
		scripts := e.Scripts()
		require.Len(t, scripts, 2)
		assert.Same(t, c2, scripts[0], "replacement keeps the position")
		c = c2
	})

	t.Run("Update", func(t *testing.T) {
		s.UpdateScripts()
		s.UpdateScripts()
		assert.Equal(t, 1, c.starts)
		assert.Equal(t, 2, c.updates)
		assert.Equal(t, float32(2), GetComponent[Position](e).X)
	})

	t.Run("RemoveIdempotent", func(t *testing.T) {
		require.True(t, RemoveScript[*counterScript](e))
		assert.Len(t, e.Scripts(), 1)
		assert.False(t, RemoveScript[*counterScript](e))
		assert.Len(t, e.Scripts(), 1)
		assert.False(t, e.RemoveScriptOf(reflect.TypeFor[*counterScript]()))
		_, ok := GetScript[*counterScript](e)
		assert.False(t, ok)
	})

	t.Run("DeleteClearsScripts", func(t *testing.T) {
		e.Delete()
		assert.Nil(t, e.Scripts())
		assert.Equal(t, 0, s.ScriptCount())
		assert.False(t, e.AddScript(moverScript{}))
	})

	assert.Panics(t, func() { s.CreateEntity().AddScript(nil) })
}

func TestUpdateScriptsOrder(t *testing.T) {
	s := newTestStore(t)
	var order []uint32
	entities := make([]Entity, 5)
	for i := range entities {
		entities[i] = s.CreateEntity()
	}
	for _, i := range []int{3, 0, 4, 1} {
		entities[i].AddScript(&counterScript{log: &order})
	}
	s.UpdateScripts()
	assert.Equal(t, []uint32{entities[0].Id, entities[1].Id, entities[3].Id, entities[4].Id}, order)
}

type deleterScript struct{ victim Entity }

func (d deleterScript) Start(Entity) {}

func (d deleterScript) Update(Entity) { d.victim.Delete() }

func TestUpdateScriptsSkipsDeleted(t *testing.T) {
	s := newTestStore(t)
	victim := s.CreateEntity()
	killer := s.CreateEntity()
	var order []uint32
	victim.AddScript(&counterScript{log: &order})
	killer.AddScript(deleterScript{victim: victim})
	later := s.CreateEntity()
	later.AddScript(deleterScript{victim: victim})

	s.UpdateScripts()
	assert.Equal(t, []uint32{victim.Id}, order)
	s.UpdateScripts()
	assert.Equal(t, []uint32{victim.Id}, order)
}

// go test -run ^TestCloneEntity$ . -count 1
func TestCloneEntity(t *testing.T) {
	s := newTestStore(t)
	target := s.CreateEntity()
	e := CreateEntity3(s, Position{X: 1}, Label{Text: "orig"}, Level{Value: 3})
	AddComponentValue(e, Follows{Target: target})
	AddTag[Enemy](e)
	child := s.CreateEntity()
	require.NoError(t, e.AddChild(child))
	e.AddScript(&counterScript{starts: 7})

	clone, err := CloneEntity(e)
	require.NoError(t, err)
	assert.NotEqual(t, e.Id, clone.Id)
	assert.Equal(t, Position{X: 1}, *GetComponent[Position](clone))
	assert.Equal(t, "orig", GetComponent[Label](clone).Text)
	assert.True(t, HasTag[Enemy](clone))
	assert.False(t, HasComponent[TreeNode](clone), "children are not cloned")
	assert.Equal(t, 2, GetEntitiesWithComponentValue[Level, int](s, 3).Count())
	assert.Len(t, GetEntityReferences[Follows](target), 2)

	sc, ok := GetScript[*counterScript](clone)
	require.True(t, ok)
	orig, _ := GetScript[*counterScript](e)
	assert.NotSame(t, orig, sc)
	assert.Equal(t, 7, sc.starts)

	GetComponent[Position](clone).X = 5
	assert.Equal(t, float32(1), GetComponent[Position](e).X)
	requireInvariants(t, s)

	t.Run("NotClonable", func(t *testing.T) {
		e.AddScript(moverScript{})
		before := s.EntityCount()
		_, err := CloneEntity(e)
		assert.ErrorIs(t, err, ErrScriptNotClonable)
		assert.Equal(t, before, s.EntityCount(), "nothing is created")
	})
}

func TestCopyEntityToOtherStore(t *testing.T) {
	src := newTestStore(t)
	dst := newTestStore(t, WithChunkSize(64))
	target := src.CreateEntity()
	e := CreateEntity3(src, Position{X: 9}, Team{Name: "red"}, Follows{Target: target})

	cp, err := CopyEntity(e, dst)
	require.NoError(t, err)
	assert.Same(t, dst, cp.Store())
	assert.Equal(t, float32(9), GetComponent[Position](cp).X)
	assert.False(t, HasComponent[Follows](cp), "links do not cross stores")
	assert.True(t, GetEntitiesWithComponentValue[Team, string](dst, "red").ContainsEntity(cp))
	requireInvariants(t, dst)

	e.Delete()
	_, err = CopyEntity(e, dst)
	assert.ErrorIs(t, err, ErrEntityDeleted)
}

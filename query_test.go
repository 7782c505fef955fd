package kura

import (
	"fmt"
	"testing"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// go test -run ^TestQueryCompleteness$ . -count 1
func TestQueryCompleteness(t *testing.T) {
	s := newTestStore(t)
	q := NewQuery2[Position, Velocity](s)
	assert.Empty(t, q.Archetypes())

	e := s.CreateEntity()
	AddComponent[Position](e)
	AddComponent[Velocity](e)
	AddComponent[Health](e)

	arch := e.Archetype()
	n := 0
	for _, a := range q.Archetypes() {
		if a == arch {
			n++
		}
	}
	assert.Equal(t, 1, n, "archetype matched exactly once")
	assert.True(t, q.Matches(arch))

	t.Run("RemovingRequiredComponent", func(t *testing.T) {
		RemoveComponent[Velocity](e)
		assert.False(t, q.Matches(e.Archetype()))
		assert.Equal(t, 0, q.EntityCount())
		for range q.Entities() {
			t.Fatal("entity without Velocity yielded")
		}
	})

	t.Run("ClassificationIsStable", func(t *testing.T) {
		before := len(q.Archetypes())
		assert.Equal(t, before, len(q.Archetypes()))
		assert.True(t, q.Matches(arch), "a matched archetype stays matched")
	})
}

func TestQueryIsIncremental(t *testing.T) {
	s := newTestStore(t)
	q := s.Query(Signature1[Position]())
	CreateEntity1(s, Position{})
	require.Len(t, q.Archetypes(), 1)
	classified := len(q.isMatched)

	CreateEntity2(s, Position{}, Velocity{})
	CreateEntity1(s, Velocity{})
	assert.Len(t, q.Archetypes(), 2)
	assert.Equal(t, classified+2, len(q.isMatched), "only new archetypes are classified")
}

func TestQueryTags(t *testing.T) {
	s := newTestStore(t)
	plain := CreateEntity1(s, Position{})
	enemy := CreateEntity1(s, Position{})
	AddTag[Enemy](enemy)
	frozen := CreateEntity1(s, Position{})
	AddTag[Enemy](frozen)
	AddTag[Frozen](frozen)

	collect := func(q *Query) []Entity {
		var out []Entity
		for e := range q.Entities() {
			out = append(out, e)
		}
		return out
	}

	assert.ElementsMatch(t, []Entity{plain, enemy, frozen}, collect(s.Query(Signature1[Position]())))
	assert.ElementsMatch(t, []Entity{enemy, frozen}, collect(NewQuery1[Position](s, TagTypeOf[Enemy]()).Query))
	assert.ElementsMatch(t, []Entity{enemy},
		collect(s.Query(Signature1[Position]().WithTags(TagTypeOf[Enemy]())).WithoutTags(TagsOf[Frozen]())))

	AddComponent[Velocity](plain)
	assert.ElementsMatch(t, []Entity{enemy, frozen},
		collect(s.Query(Signature1[Position]()).WithoutComponents(ComponentTypeOf[Velocity]())))
}

// go test -run ^TestQueryValuePredicates$ . -count 1
func TestQueryValuePredicates(t *testing.T) {
	s := newTestStore(t)
	redLow := CreateEntity2(s, Team{Name: "red"}, Level{Value: 1})
	redHigh := CreateEntity2(s, Team{Name: "red"}, Level{Value: 5})
	CreateEntity2(s, Team{Name: "blue"}, Level{Value: 5})
	redMoving := CreateEntity3(s, Team{Name: "red"}, Level{Value: 5}, Velocity{})

	q := s.Query(Signature{})
	HasValue[Team](q, "red")
	assert.Equal(t, 3, q.EntityCount())

	HasValue[Level](q, 5)
	var got []Entity
	for e := range q.Entities() {
		got = append(got, e)
	}
	assert.Equal(t, []Entity{redHigh, redMoving}, got)

	SetComponent(redLow, Level{Value: 5})
	assert.Equal(t, 3, q.EntityCount(), "predicates observe index updates")

	q.WithoutComponents(ComponentTypeOf[Velocity]())
	assert.Equal(t, 2, q.EntityCount())

	HasValue[Team](q, "green")
	assert.Equal(t, 0, q.EntityCount())
}

// go test -run ^TestQueryChunkCoverage$ . -count 1
func TestQueryChunkCoverage(t *testing.T) {
	const c = 64
	for _, n := range []int{0, 1, c - 1, c, c + 1, 2 * c, 2*c + 1} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			s := newTestStore(t, WithChunkSize(c))
			for i := range n {
				CreateEntity2(s, Position{X: float32(i)}, Velocity{})
			}
			// a second archetype whose chunks must be covered as well
			for range 3 {
				CreateEntity3(s, Position{}, Velocity{}, Health{})
			}
			q := NewQuery2[Position, Velocity](s)

			total, chunks := 0, 0
			it := q.Chunks()
			for it.Next() {
				ch := it.Chunk()
				l := ch.Entities.Len()
				require.Equal(t, l, ch.Chunk1.Len())
				require.Equal(t, l, ch.Chunk2.Len())
				require.Positive(t, l)
				require.LessOrEqual(t, l, c)
				assert.Len(t, ch.Chunk1.Padded(), c)
				for i, p := range ch.Chunk1.Span() {
					assert.Equal(t, p, *GetComponent[Position](ch.Entities.EntityAt(i)))
				}
				total += l
				chunks++
			}
			assert.Equal(t, q.EntityCount(), total)
			assert.Equal(t, n+3, total)
			assert.Equal(t, (n+c-1)/c+1, chunks)

			untyped := 0
			uit := q.Query.Chunks()
			for uit.Next() {
				untyped += uit.Len()
				assert.Equal(t, uit.Len(), ChunkOf[Velocity](&uit).Len())
			}
			assert.Equal(t, total, untyped)
		})
	}
}

func TestChunkPaddingIsZero(t *testing.T) {
	s := newTestStore(t, WithChunkSize(64))
	for i := range 70 {
		CreateEntity1(s, Health{Current: i + 1})
	}
	it := NewQuery1[Health](s).Chunks()
	require.True(t, it.Next())
	require.True(t, it.Next())
	ch := it.Chunk().Chunk1
	assert.Equal(t, 6, ch.Len())
	for _, h := range ch.Padded()[ch.Len():] {
		assert.Equal(t, Health{}, h)
	}
	assert.False(t, it.Next())
}

// go test -run ^TestQueryZeroAlloc$ . -count 1
func TestQueryZeroAlloc(t *testing.T) {
	s := newTestStore(t, WithChunkSize(64))
	for i := range 500 {
		CreateEntity2(s, Position{X: float32(i)}, Velocity{VX: 1})
		if i%5 == 0 {
			CreateEntity3(s, Position{}, Velocity{}, Health{})
		}
	}
	q := NewQuery2[Position, Velocity](s)
	run := func() {
		it := q.Chunks()
		for it.Next() {
			ch := it.Chunk()
			pos, vel := ch.Chunk1.Span(), ch.Chunk2.Span()
			for i := range pos {
				pos[i].X += vel[i].VX
			}
		}
	}
	run()
	allocs := testing.AllocsPerRun(100, run)
	assert.Zero(t, allocs)

	count := testing.AllocsPerRun(100, func() { _ = q.EntityCount() })
	assert.Zero(t, count)
}

func TestQueryForEach(t *testing.T) {
	s := newTestStore(t)
	for i := range 10 {
		CreateEntity2(s, Position{X: float32(i)}, Velocity{VX: 1, VY: 2})
	}
	q := NewQuery2[Position, Velocity](s)
	q.ForEach(func(_ Entity, p *Position, v *Velocity) {
		p.X += v.VX
		p.Y += v.VY
	})
	n := 0
	q.ForEach(func(e Entity, p *Position, _ *Velocity) {
		assert.Equal(t, *GetComponent[Position](e), *p)
		assert.Equal(t, float32(2), p.Y)
		n++
	})
	assert.Equal(t, 10, n)
}

func TestQueryDuplicateTypesPanics(t *testing.T) {
	s := newTestStore(t)
	assert.Panics(t, func() { NewQuery2[Position, Position](s) })
	assert.Panics(t, func() { NewQuery3[Position, Velocity, Position](s) })
}

func TestQueryReadOnly(t *testing.T) {
	s := newTestStore(t)
	q := NewQuery2[Position, Velocity](s)
	q.ReadOnly(ComponentTypeOf[Velocity]())
	assert.True(t, q.IsReadOnly(ComponentTypeOf[Velocity]()))
	assert.False(t, q.IsReadOnly(ComponentTypeOf[Position]()))
}

func TestGeneratedQueries(t *testing.T) {
	s := newTestStore(t)
	e := s.CreateEntity()
	AddComponentValue(e, Position{X: 1})
	AddComponentValue(e, Velocity{VX: 2})
	AddComponentValue(e, Health{Current: 3})
	AddComponentValue(e, Label{Text: "x"})
	AddComponentValue(e, Level{Value: 4})

	n := 0
	NewQuery5[Position, Velocity, Health, Label, Level](s).ForEach(
		func(got Entity, p *Position, v *Velocity, h *Health, l *Label, lv *Level) {
			assert.Equal(t, e, got)
			assert.Equal(t, float32(1), p.X)
			assert.Equal(t, float32(2), v.VX)
			assert.Equal(t, 3, h.Current)
			assert.Equal(t, "x", l.Text)
			assert.Equal(t, 4, lv.Value)
			n++
		})
	assert.Equal(t, 1, n)

	it := NewQuery4[Position, Velocity, Health, Label](s).Chunks()
	require.True(t, it.Next())
	assert.Same(t, e.Archetype(), it.Archetype())
	assert.Equal(t, "x", it.Chunk().Chunk4.Span()[0].Text)
}

// go test -run ^TestChunkLanes$ . -count 1
func TestChunkLanes(t *testing.T) {
	s := newTestStore(t, WithChunkSize(64))
	for i := range 23 {
		CreateEntity2(s, Transform{Pos: mgl32.Vec3{float32(i), 0, 0}, Scale: mgl32.Vec3{1, 1, 1}}, Health{Current: i})
	}
	it := NewQuery2[Transform, Health](s).Chunks()
	require.True(t, it.Next())
	ch := it.Chunk()

	tr := ch.Chunk1
	require.Equal(t, 24, int(unsafe.Sizeof(Transform{})))
	assert.Equal(t, 22, len(tr.Span128()), "24 byte elements pair up into 16 byte lanes")
	assert.Equal(t, 20, len(tr.Span256()))
	assert.Equal(t, 16, len(tr.Span512()))
	assert.Len(t, tr.Vec128(), 22*24/16)
	assert.Len(t, tr.Vec256(), 20*24/32)
	assert.Len(t, tr.Vec512(), 16*24/64)
	assert.Equal(t, mgl32.Vec3{5, 0, 0}, tr.Span256()[5].Pos)

	h := ch.Chunk2
	require.Equal(t, 16, int(unsafe.Sizeof(Health{})))
	assert.Equal(t, 23, len(h.Span128()))
	assert.Equal(t, 22, len(h.Span256()))
	assert.Equal(t, 20, len(h.Span512()))
	assert.Contains(t, [][]Health{h.Span128(), h.Span256(), h.Span512()}, h.PreferredSpan())

	for _, span := range [][]Health{h.Span128(), h.Span256(), h.Span512()} {
		for i, v := range span {
			assert.Equal(t, i, v.Current)
		}
	}

	vec := mgl32.Vec3{}
	for _, x := range tr.Span() {
		vec = vec.Add(x.Pos)
	}
	assert.Equal(t, float32(22*23/2), vec.X())
}

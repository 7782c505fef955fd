package kura

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

// --- Test Components ---
type Position struct{ X, Y float32 }
type Velocity struct{ VX, VY float32 }
type Health struct{ Current, Max int }
type Transform struct {
	Pos   mgl32.Vec3
	Scale mgl32.Vec3
}
type Label struct{ Text string }

// Level is range indexed.
type Level struct{ Value int }

func (l Level) IndexedValue() int { return l.Value }

// Score is range indexed by a float.
type Score struct{ Value float64 }

func (s Score) IndexedValue() float64 { return s.Value }

// Team is value indexed.
type Team struct{ Name string }

func (t Team) IndexedValue() string { return t.Name }

// Follows links an entity to another entity.
type Follows struct{ Target Entity }

func (f Follows) IndexedValue() Entity { return f.Target }

// --- Test Tags ---
type Enemy struct{}
type Frozen struct{}
type Visible struct{}

func init() {
	RegisterRangeIndexedComponent[Level, int]()
	RegisterRangeIndexedComponent[Score, float64]()
	RegisterIndexedComponent[Team, string]()
	RegisterLinkComponent[Follows]()
}

func newTestStore(t testing.TB, opts ...Option) *Store {
	t.Helper()
	s, err := NewStore(opts...)
	require.NoError(t, err)
	return s
}

func requireInvariants(t testing.TB, s *Store) {
	t.Helper()
	require.NoError(t, s.CheckInvariants())
}

package kura

import (
	"unsafe"

	"github.com/edwinsyarief/kura/internal/simd"
)

// Lane128, Lane256 and Lane512 are the raw bytes of one SIMD register.
type (
	Lane128 [16]byte
	Lane256 [32]byte
	Lane512 [64]byte
)

// Chunk is the slice of one component column covering one chunk of an
// archetype. Its length is the number of entities in the chunk; its capacity
// always reaches the chunk boundary, and the rows past the length are zero.
type Chunk[T any] struct {
	span []T
}

func newChunk[T any](c *column, k, n int) Chunk[T] {
	return Chunk[T]{span: unsafe.Slice((*T)(c.chunkBase(k)), 1<<c.shift)[:n]}
}

// Span returns the components of the chunk.
func (c Chunk[T]) Span() []T { return c.span }

// Len returns the number of entities in the chunk.
func (c Chunk[T]) Len() int { return len(c.span) }

// Padded returns the whole chunk, including the zeroed rows past Len.
func (c Chunk[T]) Padded() []T { return c.span[:cap(c.span)] }

// Span128 returns the longest prefix of Span whose byte size is a multiple of
// 16. Remaining elements must be processed from Span.
func (c Chunk[T]) Span128() []T { return c.span[:c.laneLen(16)] }

// Span256 is like Span128 for 32 byte lanes.
func (c Chunk[T]) Span256() []T { return c.span[:c.laneLen(32)] }

// Span512 is like Span128 for 64 byte lanes.
func (c Chunk[T]) Span512() []T { return c.span[:c.laneLen(64)] }

// Vec128 reinterprets Span128 as 16 byte lanes.
func (c Chunk[T]) Vec128() []Lane128 { return lanes[T, Lane128](c.Span128()) }

// Vec256 reinterprets Span256 as 32 byte lanes.
func (c Chunk[T]) Vec256() []Lane256 { return lanes[T, Lane256](c.Span256()) }

// Vec512 reinterprets Span512 as 64 byte lanes.
func (c Chunk[T]) Vec512() []Lane512 { return lanes[T, Lane512](c.Span512()) }

// PreferredSpan returns Span128, Span256 or Span512 matching the widest
// vector unit of the CPU.
func (c Chunk[T]) PreferredSpan() []T {
	switch simd.PreferredLaneBits() {
	case 512:
		return c.Span512()
	case 256:
		return c.Span256()
	default:
		return c.Span128()
	}
}

// laneLen rounds the chunk length down to the element count step for which
// step*size is a multiple of width bytes.
func (c Chunk[T]) laneLen(width uintptr) int {
	var zero T
	size := unsafe.Sizeof(zero)
	if size == 0 {
		return 0
	}
	step := int(width / gcd(width, size))
	return len(c.span) - len(c.span)%step
}

func lanes[T, L any](span []T) []L {
	var zt T
	var zl L
	bytes := uintptr(len(span)) * unsafe.Sizeof(zt)
	if bytes == 0 {
		return nil
	}
	return unsafe.Slice((*L)(unsafe.Pointer(unsafe.SliceData(span))), bytes/unsafe.Sizeof(zl))
}

func gcd(a, b uintptr) uintptr {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// ChunkEntities is the slice of entity ids parallel to the component spans of
// a chunk.
type ChunkEntities struct {
	store *Store
	Ids   []uint32
}

// Len returns the number of entities in the chunk.
func (c ChunkEntities) Len() int { return len(c.Ids) }

// EntityAt returns the entity at position i of the chunk.
func (c ChunkEntities) EntityAt(i int) Entity { return Entity{store: c.store, Id: c.Ids[i]} }

func chunkEntities(a *Archetype, k, n int) ChunkEntities {
	start := k << a.chunkShift
	return ChunkEntities{store: a.store, Ids: a.entityIds[start : start+n]}
}

// chunkLen returns the number of entities in chunk k of a.
func chunkLen(a *Archetype, k int) int {
	return min(a.count-(k<<a.chunkShift), a.chunkSize)
}

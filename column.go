package kura

import (
	"reflect"
	"unsafe"
)

// column holds the values of one component type for all entities of an
// archetype. Storage is split into fixed-size chunks. A chunk is always fully
// allocated and zero padded, so a chunk slice can be taken up to the chunk
// boundary without bounds checks against the entity count.
type column struct {
	info   *componentInfo
	chunks []unsafe.Pointer
	size   uintptr
	shift  uint
	mask   int
}

func newColumn(info *componentInfo, chunkShift uint, chunkCount int) *column {
	c := &column{
		info:   info,
		chunks: make([]unsafe.Pointer, 0, chunkCount),
		size:   info.size,
		shift:  chunkShift,
		mask:   1<<chunkShift - 1,
	}
	c.resize(chunkCount)
	return c
}

// newChunk allocates a zeroed chunk. The memory is allocated as a typed Go
// slice so the garbage collector scans pointers stored in components.
func (c *column) newChunk() unsafe.Pointer {
	slice := reflect.MakeSlice(reflect.SliceOf(c.info.typ), 1<<c.shift, 1<<c.shift)
	return slice.UnsafePointer()
}

// resize grows or shrinks the column to chunkCount chunks. Existing chunks
// are kept, so growth never moves live rows.
func (c *column) resize(chunkCount int) {
	if chunkCount < len(c.chunks) {
		clear(c.chunks[chunkCount:])
		c.chunks = c.chunks[:chunkCount]
		return
	}
	for len(c.chunks) < chunkCount {
		c.chunks = append(c.chunks, c.newChunk())
	}
}

// ptr returns the address of the component at row.
func (c *column) ptr(row int) unsafe.Pointer {
	return unsafe.Add(c.chunks[row>>c.shift], uintptr(row&c.mask)*c.size)
}

// copyRow copies the component at srcRow of src into dstRow of c.
func (c *column) copyRow(dstRow int, src *column, srcRow int) {
	c.info.copy(c.ptr(dstRow), src.ptr(srcRow))
}

// zeroRow resets the component at row to its zero value.
func (c *column) zeroRow(row int) {
	c.info.zero(c.ptr(row))
}

// chunkBase returns the address of the first element of chunk k.
func (c *column) chunkBase(k int) unsafe.Pointer {
	return c.chunks[k]
}

// copy copies one component value from src to dst. Pointer free types are
// moved as raw bytes, other types go through reflect so that the write
// barrier sees the stored pointers.
func (info *componentInfo) copy(dst, src unsafe.Pointer) {
	if info.size == 0 {
		return
	}
	if info.pointerFree {
		memCopy(dst, src, info.size)
		return
	}
	reflect.NewAt(info.typ, dst).Elem().Set(reflect.NewAt(info.typ, src).Elem())
}

func (info *componentInfo) zero(p unsafe.Pointer) {
	if info.size == 0 {
		return
	}
	if info.pointerFree {
		clear(unsafe.Slice((*byte)(p), info.size))
		return
	}
	reflect.NewAt(info.typ, p).Elem().SetZero()
}

// memCopy copies size bytes from src to dst using built-in copy for performance.
func memCopy(dst, src unsafe.Pointer, size uintptr) {
	if size == 0 {
		return
	}
	dstBytes := unsafe.Slice((*byte)(dst), size)
	srcBytes := unsafe.Slice((*byte)(src), size)
	copy(dstBytes, srcBytes)
}

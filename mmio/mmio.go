// Package mmio gives word-granular access to 32-bit memory-mapped device
// registers. A Block is a window of registers addressed by byte offset; the
// gpio package lays its register map over one. Mem backs a Block with plain
// memory for simulators and tests, and Map (Linux) backs one with physical
// device memory.
package mmio

import "sync/atomic"

// Block is read/write access to a window of 32-bit device registers.
// Offsets are byte offsets from the start of the window and must be
// word-aligned.
type Block interface {
	Load(off uintptr) uint32
	Store(off uintptr, v uint32)
}

// Mem is a Block backed by ordinary memory.
type Mem struct {
	words []uint32
}

// NewMem returns a zeroed Block covering size bytes.
func NewMem(size uintptr) *Mem { return &Mem{words: make([]uint32, size/4)} }

// Atomic accessors keep Mem safe to share between a test body and the
// goroutine standing in for interrupt context.
func (m *Mem) Load(off uintptr) uint32     { return atomic.LoadUint32(&m.words[off/4]) }
func (m *Mem) Store(off uintptr, v uint32) { atomic.StoreUint32(&m.words[off/4], v) }

// Words exposes the backing storage so tests can seed register contents.
func (m *Mem) Words() []uint32 { return m.words }

// Field is a contiguous bit range within a 32-bit register.
type Field struct {
	mask  uint32
	shift uint32
}

// NewField describes width bits starting at bit shift.
func NewField(width, shift uint32) Field {
	return Field{mask: ((1 << width) - 1) << shift, shift: shift}
}

// Extract reads the field out of a register value.
func (f Field) Extract(reg uint32) uint32 { return (reg & f.mask) >> f.shift }

// Insert returns reg with the field replaced by v.
func (f Field) Insert(reg, v uint32) uint32 { return (reg &^ f.mask) | ((v << f.shift) & f.mask) }

// RW32 is a read/write register.
type RW32 struct {
	b   Block
	off uintptr
}

func RW(b Block, off uintptr) RW32 { return RW32{b: b, off: off} }

func (r RW32) Get() uint32  { return r.b.Load(r.off) }
func (r RW32) Set(v uint32) { r.b.Store(r.off, v) }

// Modify read-modify-writes one field, leaving the other bits alone.
func (r RW32) Modify(f Field, v uint32) { r.b.Store(r.off, f.Insert(r.b.Load(r.off), v)) }

// RO32 is a read-only register.
type RO32 struct {
	b   Block
	off uintptr
}

func RO(b Block, off uintptr) RO32 { return RO32{b: b, off: off} }

func (r RO32) Get() uint32 { return r.b.Load(r.off) }

// WO32 is a write-only register.
type WO32 struct {
	b   Block
	off uintptr
}

func WO(b Block, off uintptr) WO32 { return WO32{b: b, off: off} }

func (r WO32) Set(v uint32) { r.b.Store(r.off, v) }

package gpio

import "rpigpio-go/mmio"

// traceBlock wraps a memory-backed block and logs every access so tests can
// assert ordering between register traffic and callback invocations.
// Single-goroutine use only.
type traceBlock struct {
	mem *mmio.Mem
	ops []traceOp
}

// Fields are exported so deep.Equal can compare logged operations.
type traceOp struct {
	Kind string // "load", "store", "mark"
	Off  uintptr
	Val  uint32
	Note string
}

func newTraceBlock(size uintptr) *traceBlock {
	return &traceBlock{mem: mmio.NewMem(size)}
}

func (b *traceBlock) Load(off uintptr) uint32 {
	v := b.mem.Load(off)
	b.ops = append(b.ops, traceOp{Kind: "load", Off: off, Val: v})
	return v
}

func (b *traceBlock) Store(off uintptr, v uint32) {
	b.ops = append(b.ops, traceOp{Kind: "store", Off: off, Val: v})
	b.mem.Store(off, v)
}

// mark injects a named waypoint into the log (e.g. from inside a callback).
func (b *traceBlock) mark(note string) {
	b.ops = append(b.ops, traceOp{Kind: "mark", Note: note})
}

func (b *traceBlock) words() []uint32 { return b.mem.Words() }

// stores filters the log down to writes.
func (b *traceBlock) stores() []traceOp {
	var out []traceOp
	for _, op := range b.ops {
		if op.Kind == "store" {
			out = append(out, op)
		}
	}
	return out
}

// indexOfStore finds the first write to off; -1 when absent.
func (b *traceBlock) indexOfStore(off uintptr) int {
	for i, op := range b.ops {
		if op.Kind == "store" && op.Off == off {
			return i
		}
	}
	return -1
}

// indexOfMark finds the first waypoint with the given note; -1 when absent.
func (b *traceBlock) indexOfMark(note string) int {
	for i, op := range b.ops {
		if op.Kind == "mark" && op.Note == note {
			return i
		}
	}
	return -1
}

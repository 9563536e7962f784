//go:build linux

package mmio

import (
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Region is a Block over physical device memory.
type Region struct {
	mem   []byte
	words []uint32
}

// Map maps size bytes of the register window at physical address base.
// /dev/gpiomem is preferred: it needs no root and is already pinned to the
// GPIO block, so the map offset is zero. /dev/mem at the board's base address
// is the fallback.
func Map(base int64, size int) (*Region, error) {
	if f, err := os.OpenFile("/dev/gpiomem", os.O_RDWR|os.O_SYNC, 0); err == nil {
		defer f.Close()
		return mapFile(f, 0, size)
	}
	f, err := os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return mapFile(f, base, size)
}

func mapFile(f *os.File, offset int64, size int) (*Region, error) {
	mem, err := unix.Mmap(int(f.Fd()), offset, size,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	r := &Region{mem: mem}
	r.words = unsafe.Slice((*uint32)(unsafe.Pointer(&mem[0])), len(mem)/4)
	return r, nil
}

// Atomic accessors so the compiler cannot cache, elide, or reorder device
// accesses.
func (r *Region) Load(off uintptr) uint32     { return atomic.LoadUint32(&r.words[off/4]) }
func (r *Region) Store(off uintptr, v uint32) { atomic.StoreUint32(&r.words[off/4], v) }

// Close unmaps the window; the Region must not be used afterwards.
func (r *Region) Close() error {
	if r.mem == nil {
		return nil
	}
	err := unix.Munmap(r.mem)
	r.mem, r.words = nil, nil
	return err
}

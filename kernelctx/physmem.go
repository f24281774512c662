package kernelctx

import (
	"sync"

	"github.com/samanthadoran/redox/wire"
)

// PageSize is the fixed architectural page size backing this simulation's
// address-space arithmetic.
const PageSize = wire.PageSize

// physPage is a registered chunk of "physical" memory: the actual backing
// bytes, plus the byte offset within the page at which those bytes start.
// Two different virtual addresses (one per context) can each resolve,
// independently, to the same physPage -- that's what makes the
// buffer-marshaling protocol in package scheme an aliasing scheme rather
// than a copy.
type physPage struct {
	buf        []byte
	pageOffset int
}

// physMem is the simulation's stand-in for physical RAM: a table shared by
// every Context produced by the same Scheduler, keyed by page-aligned
// "physical address". There is no real memory controller behind it --
// Alloc just hands out addresses at varying offsets within a page so that
// callers exercise the same offset/span arithmetic a real MMU-backed
// implementation would need.
type physMem struct {
	mu    sync.Mutex
	pages map[uintptr]physPage
	next  uintptr
	calls int
}

func newPhysMem() *physMem {
	return &physMem{pages: make(map[uintptr]physPage), next: PageSize}
}

// Alloc registers buf as backing storage and returns a fresh, unaligned
// physical address for it (i.e. one whose value modulo PageSize is usually
// nonzero), the address a real caller would get back from translating a
// buffer's starting pointer.
func (p *physMem) Alloc(buf []byte) uintptr {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Cycle the intra-page offset across allocations so tests see both
	// aligned and unaligned buffers over time, rather than only one case.
	offset := (p.calls * 37) % PageSize
	p.calls++

	span := wire.PageAlign(len(buf) + offset)
	base := p.next
	p.next += uintptr(span) + PageSize

	p.pages[base] = physPage{buf: buf, pageOffset: offset}
	return base + uintptr(offset)
}

// at resolves a page-aligned physical address (as stored in a
// MappingRecord.Phys field) back to its backing buffer and the intra-page
// offset at which the buffer's first byte actually lives.
func (p *physMem) at(pageAligned uintptr) (buf []byte, pageOffset int, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	page, ok := p.pages[pageAligned]
	if !ok {
		return nil, 0, false
	}
	return page.buf, page.pageOffset, true
}

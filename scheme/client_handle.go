package scheme

import (
	"context"

	"github.com/samanthadoran/redox/kernelctx"
	"github.com/samanthadoran/redox/wire"
)

// ClientHandle is the descriptor a caller holds after a successful Open. It
// holds only a weak reference to the scheme's SharedState: if the provider
// dies, the handle dangles, and every operation on it fails with EBADF
// rather than panicking or blocking forever.
type ClientHandle struct {
	state  *SharedState
	fileID uintptr
}

// SeekWhence selects the reference point for ClientHandle.Seek.
type SeekWhence int

const (
	SeekStart SeekWhence = iota
	SeekCurrent
	SeekEnd
)

func (w SeekWhence) encode() (uintptr, bool) {
	switch w {
	case SeekStart:
		return wire.SeekSet, true
	case SeekCurrent:
		return wire.SeekCur, true
	case SeekEnd:
		return wire.SeekEnd, true
	default:
		return 0, false
	}
}

// marshal implements the buffer-marshaling protocol of spec §4.2 for a
// single virtual address already registered in the caller's address space
// (via kernelctx.Context.Alloc). It returns the pointer the provider should
// see and a teardown func that must run on every exit path, success or
// failure, before the caller returns.
func (c *ClientHandle) marshal(
	ctx context.Context, virt uintptr, length int, writable bool) (
	provPtr uintptr, teardown func(), err error) {
	teardown = func() {}

	callerCtx := kernelctx.FromContext(ctx)
	phys, ok := callerCtx.Translate(virt)
	if !ok {
		return 0, teardown, EFAULT
	}

	pageOffset := int(phys % wire.PageSize)
	span := wire.PageAlign(length + pageOffset)

	providerCtx := c.state.providerCtx
	v := providerCtx.NextMem()
	if v == 0 {
		return 0, teardown, EBADF
	}

	providerCtx.PushMem(kernelctx.MappingRecord{
		Phys:      phys - uintptr(pageOffset),
		Virt:      v,
		Size:      uintptr(span),
		Writable:  writable,
		Allocated: false,
	})

	teardown = func() {
		providerCtx.RetireMapping(v)
	}

	return v + uintptr(pageOffset), teardown, nil
}

// Read fills buf from the provider, returning the number of bytes the
// provider wrote.
func (c *ClientHandle) Read(ctx context.Context, buf []byte) (int, error) {
	if !c.state.alive() {
		return 0, EBADF
	}

	callerCtx := kernelctx.FromContext(ctx)
	virt := callerCtx.Alloc(buf)

	provPtr, teardown, err := c.marshal(ctx, virt, len(buf), true)
	if err != nil {
		return 0, err
	}
	defer teardown()

	n, err := c.state.Submit(ctx, wire.SysRead, c.fileID, provPtr, uintptr(len(buf)))
	return int(n), err
}

// Write sends buf to the provider, returning the number of bytes the
// provider accepted.
func (c *ClientHandle) Write(ctx context.Context, buf []byte) (int, error) {
	if !c.state.alive() {
		return 0, EBADF
	}

	callerCtx := kernelctx.FromContext(ctx)
	virt := callerCtx.Alloc(buf)

	provPtr, teardown, err := c.marshal(ctx, virt, len(buf), false)
	if err != nil {
		return 0, err
	}
	defer teardown()

	n, err := c.state.Submit(ctx, wire.SysWrite, c.fileID, provPtr, uintptr(len(buf)))
	return int(n), err
}

// Path asks the provider to fill buf with this handle's canonical URL,
// returning the number of bytes written.
func (c *ClientHandle) Path(ctx context.Context, buf []byte) (int, error) {
	if !c.state.alive() {
		return 0, EBADF
	}

	callerCtx := kernelctx.FromContext(ctx)
	virt := callerCtx.Alloc(buf)

	provPtr, teardown, err := c.marshal(ctx, virt, len(buf), true)
	if err != nil {
		return 0, err
	}
	defer teardown()

	n, err := c.state.Submit(ctx, wire.SysFpath, c.fileID, provPtr, uintptr(len(buf)))
	return int(n), err
}

// Seek repositions the file, returning the new absolute offset.
func (c *ClientHandle) Seek(ctx context.Context, offset int64, whence SeekWhence) (int64, error) {
	w, ok := whence.encode()
	if !ok {
		return 0, EINVAL
	}

	n, err := c.state.Submit(ctx, wire.SysLseek, c.fileID, uintptr(offset), w)
	return int64(n), err
}

// Sync asks the provider to flush this file to stable storage.
func (c *ClientHandle) Sync(ctx context.Context) error {
	_, err := c.state.Submit(ctx, wire.SysFsync, c.fileID, 0, 0)
	return err
}

// Truncate resizes the file to length bytes.
func (c *ClientHandle) Truncate(ctx context.Context, length int64) error {
	_, err := c.state.Submit(ctx, wire.SysFtruncate, c.fileID, uintptr(length), 0)
	return err
}

// Dup is unsupported on a client handle: duplication would require a
// provider-side protocol this core does not define.
func (c *ClientHandle) Dup() (*ClientHandle, error) {
	return nil, EBADF
}

// Close issues SYS_CLOSE to the provider and discards its result: per spec
// §7, a late close against a dead provider is silent. Go has no destructors,
// so unlike the original's Drop impl, callers must invoke Close explicitly
// exactly once when they are done with the handle.
func (c *ClientHandle) Close(ctx context.Context) error {
	if c.state.alive() {
		_, _ = c.state.Submit(ctx, wire.SysClose, c.fileID, 0, 0)
	}
	return nil
}

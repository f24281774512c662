package scheme

import (
	"context"
	"fmt"

	"github.com/samanthadoran/redox/kernelctx"
	"github.com/samanthadoran/redox/wire"
	"github.com/jacobsa/reqtrace"
)

// ProviderHandle is the strong-owning descriptor a scheme provider holds:
// the collaborator that calls Recv in a loop and answers each request with
// Reply. Per spec §3, the provider's ProviderHandle (and its Dup'd clones)
// are the only strong references to a scheme's SharedState; every
// ClientHandle and the SchemeRegistration itself hold weak references that
// simply stop working once the last ProviderHandle is closed.
//
// This is the Go counterpart of Redox's SchemeServerResource
// (original_source/kernel/fs/scheme.rs).
type ProviderHandle struct {
	state *SharedState
}

// Recv removes the smallest pending client request and decodes it into buf,
// which must be exactly wire.Size bytes -- the provider's counterpart of
// SchemeServerResource::read. It never blocks: if the queue is momentarily
// empty it writes a packet with id 0 and returns at once; a provider loop is
// expected to retry on a zero id.
//
// Recv opens a reqtrace span per call, the same as SharedState.Submit, so a
// -trace-by-pid run can see a provider's poll cadence alongside the
// Submit/reply spans its clients open.
func (p *ProviderHandle) Recv(ctx context.Context, buf []byte) (int, error) {
	_, report := reqtrace.StartSpan(ctx, fmt.Sprintf("scheme(%s).Recv", p.state.name))

	var err error
	defer func() { report(err) }()

	if len(buf) != wire.Size {
		err = EINVAL
		return 0, err
	}

	id, regs := p.state.recv()
	pkt := wire.Packet{ID: uintptr(id), A: regs[0], B: regs[1], C: regs[2], D: regs[3]}
	copy(buf, pkt.Bytes())
	return wire.Size, nil
}

// Reply answers the request named by buf's id word with its a/b/c/d words,
// waking whichever Submit call (if any) is still waiting on that id. buf
// must be exactly wire.Size bytes, the counterpart of
// SchemeServerResource::write rejecting any other length.
//
// Reply opens a reqtrace span per call, matching Recv and Submit.
func (p *ProviderHandle) Reply(ctx context.Context, buf []byte) (int, error) {
	_, report := reqtrace.StartSpan(ctx, fmt.Sprintf("scheme(%s).Reply", p.state.name))

	var err error
	defer func() { report(err) }()

	var pkt wire.Packet
	if !wire.FromBytes(buf, &pkt) {
		err = EINVAL
		return 0, err
	}

	p.state.reply(uint64(pkt.ID), fourWords{pkt.A, pkt.B, pkt.C, pkt.D})
	return wire.Size, nil
}

// Path fills buf with this handle's own scheme name, formatted as
// ":<name>" -- the provider knows its own path without any marshaling,
// unlike ClientHandle.Path which must round-trip through the provider.
func (p *ProviderHandle) Path(ctx context.Context, buf []byte) (int, error) {
	full := ":" + p.state.name
	n := copy(buf, full)
	return n, nil
}

// Seek is never meaningful on a provider handle: the provider is a request
// queue, not a seekable file.
func (p *ProviderHandle) Seek(ctx context.Context, offset int64, whence SeekWhence) (int64, error) {
	return 0, ESPIPE
}

// Sync is never meaningful on a provider handle; it always fails with EINVAL.
func (p *ProviderHandle) Sync(ctx context.Context) error {
	return EINVAL
}

// Truncate is never meaningful on a provider handle.
func (p *ProviderHandle) Truncate(ctx context.Context, length int64) error {
	return EINVAL
}

// Context returns the kernelctx.Context a request's pointer arguments are
// aliased into, so a provider loop can turn a request's B/C word back into
// the actual client bytes via Context().Deref.
func (p *ProviderHandle) Context() *kernelctx.Context {
	return p.state.providerCtx
}

// Dup returns a second ProviderHandle over the same SharedState, adding a
// strong reference. Both handles must eventually be Closed; the state is
// torn down only once the last one is.
func (p *ProviderHandle) Dup() (*ProviderHandle, error) {
	p.state.addStrongRef()
	return &ProviderHandle{state: p.state}, nil
}

// Close releases this handle's strong reference. Once the last
// ProviderHandle over a SharedState is closed, the scheme is unregistered
// from the VFS and every outstanding or future ClientHandle operation
// starts failing with EBADF.
//
// Close implements io.Closer so a ProviderHandle can be registered directly
// with vfsreg.Registry.
func (p *ProviderHandle) Close() error {
	p.state.releaseStrongRef()
	return nil
}

package scheme

import (
	"context"

	"github.com/samanthadoran/redox/kernelctx"
	"github.com/samanthadoran/redox/vfsreg"
	"github.com/samanthadoran/redox/wire"
)

// SchemeRegistration is the VFS-facing side of a registered scheme: the
// weak-referencing collaborator that turns a URL into an Open/Mkdir/Unlink
// request against whatever ProviderHandle is (or no longer is) on the other
// end. It is the Go counterpart of Redox's Scheme/KScheme impl in
// original_source/kernel/fs/scheme.rs.
type SchemeRegistration struct {
	name  string
	sched *kernelctx.Scheduler
	state *SharedState
}

// New registers name with registry and returns the SchemeRegistration a VFS
// layer uses to open URLs under it, alongside the ProviderHandle its
// provider loop uses to service them. It is an error to register a name
// that is already registered.
func New(
	registry *vfsreg.Registry,
	sched *kernelctx.Scheduler,
	name string) (*SchemeRegistration, *ProviderHandle, error) {

	providerCtx := sched.NewContext()
	state := newSharedState(name, sched, registry, providerCtx)
	provider := &ProviderHandle{state: state}

	if err := registry.Register(name, provider); err != nil {
		return nil, nil, err
	}

	return &SchemeRegistration{name: name, sched: sched, state: state}, provider, nil
}

// marshalURL registers a NUL-terminated copy of url directly in the shared
// physical table (it is the kernel's own buffer, not a caller's) and aliases
// it into the provider's address space, exactly as ClientHandle.marshal
// aliases a caller's buffer. It returns ok=false if the provider has no
// virtual window available.
func (r *SchemeRegistration) marshalURL(url string) (provPtr uintptr, teardown func(), ok bool) {
	teardown = func() {}

	cstr := []byte(url + "\x00")
	phys := r.sched.AllocPhys(cstr)

	pageOffset := int(phys % wire.PageSize)
	span := wire.PageAlign(len(cstr) + pageOffset)

	providerCtx := r.state.providerCtx
	v := providerCtx.NextMem()
	if v == 0 {
		return 0, teardown, false
	}

	providerCtx.PushMem(kernelctx.MappingRecord{
		Phys:      phys - uintptr(pageOffset),
		Virt:      v,
		Size:      uintptr(span),
		Writable:  false,
		Allocated: false,
	})

	teardown = func() {
		providerCtx.RetireMapping(v)
	}

	return v + uintptr(pageOffset), teardown, true
}

// Open marshals url as a read-only buffer, submits SYS_OPEN with flags, and
// wraps the returned file id in a new ClientHandle. A window-allocation
// failure at the VFS level reports ENOENT (no such entry can be opened),
// distinct from the EBADF a ClientHandle reports when the same failure
// happens against an already-open file.
func (r *SchemeRegistration) Open(ctx context.Context, url string, flags int) (*ClientHandle, error) {
	provPtr, teardown, ok := r.marshalURL(url)
	if !ok {
		return nil, ENOENT
	}
	defer teardown()

	id, err := r.state.Submit(ctx, wire.SysOpen, provPtr, uintptr(flags), 0)
	if err != nil {
		return nil, err
	}
	return &ClientHandle{state: r.state, fileID: id}, nil
}

// Mkdir marshals url the same way as Open and submits SYS_MKDIR.
func (r *SchemeRegistration) Mkdir(ctx context.Context, url string, flags int) error {
	provPtr, teardown, ok := r.marshalURL(url)
	if !ok {
		return ENOENT
	}
	defer teardown()

	_, err := r.state.Submit(ctx, wire.SysMkdir, provPtr, uintptr(flags), 0)
	return err
}

// Unlink marshals url the same way as Open and submits SYS_UNLINK.
func (r *SchemeRegistration) Unlink(ctx context.Context, url string) error {
	provPtr, teardown, ok := r.marshalURL(url)
	if !ok {
		return ENOENT
	}
	defer teardown()

	_, err := r.state.Submit(ctx, wire.SysUnlink, provPtr, 0, 0)
	return err
}

// OnIRQ and OnPoll are the hooks a device-backed scheme's interrupt or
// polling path would call into; this IPC core has no interrupt source of
// its own, so both are no-ops a provider may call freely.
func (r *SchemeRegistration) OnIRQ(irq byte) {}
func (r *SchemeRegistration) OnPoll()        {}

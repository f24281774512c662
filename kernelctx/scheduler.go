package kernelctx

import (
	"context"
	"runtime"
	"time"

	"github.com/jacobsa/timeutil"
)

// Scheduler is the cooperative-multitasking collaborator scheme.SharedState
// depends on: something that can yield the calling goroutine so another
// schedulable context (in practice, another goroutine standing in for the
// provider) gets a chance to run.
//
// There is exactly one suspension point in the whole core: the yield inside
// SharedState.Submit. Scheduler.ContextSwitch is that suspension point's
// implementation.
type Scheduler struct {
	clock timeutil.Clock
	phys  *physMem
}

// NewScheduler returns a Scheduler backed by the real wall clock. Tests that
// need to control timing wire in a timeutil.SimulatedClock instead via
// NewSchedulerWithClock.
func NewScheduler() *Scheduler {
	return NewSchedulerWithClock(timeutil.RealClock())
}

// NewSchedulerWithClock returns a Scheduler whose ContextSwitch debug
// timestamps (nothing load-bearing) come from clock instead of the wall
// clock; tests use it with a timeutil.SimulatedClock to control what Now
// reports, without sleeping in real time.
func NewSchedulerWithClock(clock timeutil.Clock) *Scheduler {
	return &Scheduler{clock: clock, phys: newPhysMem()}
}

// NewContext creates a fresh schedulable Context whose Alloc/Translate calls
// resolve against this Scheduler's shared physical-memory table -- the same
// table every other Context from this Scheduler shares, which is what makes
// cross-context buffer aliasing possible.
func (s *Scheduler) NewContext() *Context {
	return newContext(s.phys)
}

// AllocPhys registers buf directly in the shared physical-memory table and
// returns its physical address, without installing any virtual mapping for
// it in a particular Context.
//
// It exists for the handful of marshaled buffers that belong to neither the
// caller's nor the provider's address space: the URL string built inside
// SchemeRegistration.Open/Mkdir/Unlink, which (per
// original_source/kernel/fs/scheme.rs's Scheme::open) the kernel already
// holds at an address it can hand straight to the provider, with no
// Context.Translate step in between.
func (s *Scheduler) AllocPhys(buf []byte) uintptr {
	return s.phys.Alloc(buf)
}

// ContextSwitch cooperatively yields the CPU. Force has no effect in this
// user-space simulation (there is no pending-signal state to re-check); it
// is accepted only so callers translated from the original kernel's call
// sites don't need special-casing.
//
// A short sleep follows the Go scheduler yield so that a tight Submit/Recv
// busy-poll loop doesn't pin a CPU core at 100% the way it harmlessly would
// inside a real single-core cooperative kernel. Entry and exit are logged
// with s.clock's notion of the current time, so a -kernelctx.debug run (or a
// test wired to a timeutil.SimulatedClock) can see exactly when each yield
// happened without depending on wall-clock time.
func (s *Scheduler) ContextSwitch(force bool) {
	start := s.clock.Now()
	getLogger().Printf("ContextSwitch(force=%v) begin at %s", force, start)

	runtime.Gosched()
	time.Sleep(50 * time.Microsecond)

	getLogger().Printf("ContextSwitch(force=%v) end at %s", force, s.clock.Now())
}

// Now reports the scheduler's notion of the current time, for debug logging.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

type contextKeyType struct{}

var contextKey = contextKeyType{}

// WithContext returns a copy of parent carrying kctx, recoverable later with
// FromContext. This is the same trick Connection.ReadOp uses in the teacher
// to stuff per-op state into a context.Context: rather than a global
// "current context" pointer (which would make Scheduler's state implicitly
// goroutine-global and untestable), each goroutine carries its own Context
// explicitly on the context.Context it was handed.
func WithContext(parent context.Context, kctx *Context) context.Context {
	return context.WithValue(parent, contextKey, kctx)
}

// FromContext recovers the Context stuffed in by WithContext. It panics if
// none is present, mirroring Connection.Reply's panic on a context.Context
// it didn't itself construct: callers of scheme operations are always
// expected to be running with a Context attached.
func FromContext(ctx context.Context) *Context {
	kctx, ok := ctx.Value(contextKey).(*Context)
	if !ok {
		panic("kernelctx: no Context attached to this context.Context")
	}
	return kctx
}

// Current is the Context::current() collaborator: the Context of whichever
// goroutine is asking, recovered from ctx.
func (s *Scheduler) Current(ctx context.Context) *Context {
	return FromContext(ctx)
}

// CurrentMut is Context::current_mut(); in this simulation a Context's
// memory map is independently lock-guarded, so mutable and immutable access
// are the same operation.
func (s *Scheduler) CurrentMut(ctx context.Context) *Context {
	return FromContext(ctx)
}

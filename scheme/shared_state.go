package scheme

import (
	"context"
	"fmt"
	"sync"

	"github.com/samanthadoran/redox/kernelctx"
	"github.com/samanthadoran/redox/vfsreg"
	"github.com/jacobsa/reqtrace"
	"github.com/jacobsa/syncutil"
)

// fourWords is the (a,b,c,d) argument tuple shared by pending requests and
// completed replies.
type fourWords [4]uintptr

// SharedState is the per-scheme state shared by a provider and every client
// that has opened a URL under its scheme: the request id generator and the
// pending/completed request maps described in spec §3.
//
// pending and completed are independently lock-guarded. Holding one lock
// while acquiring the other is forbidden throughout this package; each
// guarded critical section performs a single map operation.
type SharedState struct {
	name string

	sched       *kernelctx.Scheduler
	registry    *vfsreg.Registry
	providerCtx *kernelctx.Context // unowned; valid only while alive() is true

	// nextID shares pending's lock, per spec §4.1: "the id-generator counter
	// is accessed under the same discipline as the pending map".
	pendingMu syncutil.InvariantMutex
	pending   map[uint64]fourWords // GUARDED_BY(pendingMu)
	nextID    uint64               // GUARDED_BY(pendingMu)

	completedMu syncutil.InvariantMutex
	completed   map[uint64]fourWords // GUARDED_BY(completedMu)

	strongMu    sync.Mutex
	strongCount int // GUARDED_BY(strongMu); 0 means torn down
	torn        bool

	logger logFunc
}

type logFunc func(format string, v ...interface{})

func newSharedState(
	name string,
	sched *kernelctx.Scheduler,
	registry *vfsreg.Registry,
	providerCtx *kernelctx.Context) *SharedState {
	s := &SharedState{
		name:        name,
		sched:       sched,
		registry:    registry,
		providerCtx: providerCtx,
		pending:     make(map[uint64]fourWords),
		completed:   make(map[uint64]fourWords),
		nextID:      1,
		strongCount: 1, // the ProviderHandle returned alongside this state
		logger:      getLogger().Printf,
	}

	s.pendingMu = syncutil.NewInvariantMutex(s.checkPendingInvariants)
	s.completedMu = syncutil.NewInvariantMutex(s.checkCompletedInvariants)

	return s
}

// checkPendingInvariants is deliberately shallow: it must never touch
// completed, because pendingMu and completedMu may never be held together.
func (s *SharedState) checkPendingInvariants() {
	if s.pending == nil {
		panic("SharedState.pending is nil")
	}
}

func (s *SharedState) checkCompletedInvariants() {
	if s.completed == nil {
		panic("SharedState.completed is nil")
	}
}

// alive reports whether this SharedState still has a live strong owner
// (i.e. whether "upgrading" a weak reference to it would succeed).
func (s *SharedState) alive() bool {
	s.strongMu.Lock()
	defer s.strongMu.Unlock()
	return !s.torn
}

// addStrongRef records a new ProviderHandle over this state (used by Dup).
func (s *SharedState) addStrongRef() {
	s.strongMu.Lock()
	defer s.strongMu.Unlock()
	s.strongCount++
}

// releaseStrongRef drops one ProviderHandle's claim on this state. When the
// last one is dropped, the registration is removed from the VFS registry,
// per spec invariant 3, and every blocked or future Submit starts failing
// with EBADF, per spec invariant 6.
func (s *SharedState) releaseStrongRef() {
	s.strongMu.Lock()
	defer s.strongMu.Unlock()

	s.strongCount--
	if s.strongCount > 0 {
		return
	}

	s.torn = true
	s.registry.Unregister(s.name)
	s.providerCtx.Kill()
}

// allocateID returns the next request id and advances the generator,
// wrapping to 1 (never 0) past overflow. Caller must hold pendingMu.
func (s *SharedState) allocateID() uint64 {
	id := s.nextID
	next := id + 1
	if next == 0 {
		next = 1
	}
	s.nextID = next
	return id
}

// Submit is the single cross-context rendezvous described in spec §4.1: it
// enqueues (a,b,c,d) as a new pending request, cooperatively yields until a
// matching completion appears, and decodes the completion's first word as a
// Result.
//
// ctx must carry the caller's kernelctx.Context (see kernelctx.WithContext);
// Submit does not itself touch the caller's address space, but callers that
// need to cancel a long wait can do so by cancelling ctx.
func (s *SharedState) Submit(ctx context.Context, a, b, c, d uintptr) (uintptr, error) {
	ctx, report := reqtrace.StartSpan(ctx, fmt.Sprintf("scheme(%s).Submit", s.name))

	var err error
	defer func() { report(err) }()

	if !s.alive() {
		err = EBADF
		return 0, err
	}

	s.pendingMu.Lock()
	id := s.allocateID()
	s.pending[id] = fourWords{a, b, c, d}
	s.pendingMu.Unlock()

	s.logger("Submit scheme(%s) id=%d a=%#x b=%#x c=%#x d=%#x", s.name, id, a, b, c, d)

	for {
		if !s.alive() {
			// The provider may have died while our request sat in pending or
			// while we were asleep between polls; either way we can't recover
			// the completion and must report failure.
			err = EBADF
			return 0, err
		}

		s.completedMu.Lock()
		regs, ok := s.completed[id]
		if ok {
			delete(s.completed, id)
		}
		s.completedMu.Unlock()

		if ok {
			var val uintptr
			val, err = decodeResult(regs[0])
			s.logger("Submit scheme(%s) id=%d complete val=%#x err=%v", s.name, id, val, err)
			return val, err
		}

		select {
		case <-ctx.Done():
			err = ctx.Err()
			return 0, err
		default:
		}

		s.sched.ContextSwitch(false)
	}
}

// recv is ProviderHandle.Recv's implementation: it removes and returns the
// smallest pending id, or reports id==0 if pending is empty. Go map
// iteration order is unspecified, so fairness (spec invariant 4) comes from
// scanning every pending key for the minimum.
func (s *SharedState) recv() (id uint64, regs fourWords) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()

	var found bool
	for candidate := range s.pending {
		if !found || candidate < id {
			id = candidate
			found = true
		}
	}

	if !found {
		return 0, fourWords{}
	}

	regs = s.pending[id]
	delete(s.pending, id)
	return id, regs
}

// reply is ProviderHandle.Reply's implementation: it inserts (id -> regs)
// into completed unconditionally, even if id does not match any request
// currently pending or awaited. Per spec §4.4, an id with no matching
// Submit waiter stays in completed as unreachable garbage; nothing removes
// it. This is acceptable because only the provider can author such an id.
func (s *SharedState) reply(id uint64, regs fourWords) {
	s.completedMu.Lock()
	defer s.completedMu.Unlock()
	s.completed[id] = regs
}

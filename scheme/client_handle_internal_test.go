package scheme

import (
	"context"
	"testing"

	. "github.com/jacobsa/ogletest"

	"github.com/samanthadoran/redox/kernelctx"
	"github.com/samanthadoran/redox/vfsreg"
)

func TestClientHandleInternal(t *testing.T) { RunTests(t) }

type ClientHandleInternalTest struct {
	sched *kernelctx.Scheduler
}

func init() { RegisterTestSuite(&ClientHandleInternalTest{}) }

func (t *ClientHandleInternalTest) SetUp(ti *TestInfo) {
	t.sched = kernelctx.NewScheduler()
}

func (t *ClientHandleInternalTest) MarshalFailsWithBadAddressOnAnUntranslatableBuffer() {
	registry := vfsreg.New()
	state := newSharedState("pipe", t.sched, registry, t.sched.NewContext())
	client := &ClientHandle{state: state, fileID: 1}

	ctx := kernelctx.WithContext(context.Background(), t.sched.NewContext())

	// virt 0xbad was never handed out by the caller Context's Alloc, so it
	// cannot translate: marshal must fail before any mapping is pushed into
	// the provider's memory map and before any request is ever queued.
	_, _, err := client.marshal(ctx, 0xbad, 16, true)
	ExpectEq(EFAULT, err)

	ExpectEq(0, len(state.providerCtx.Memory()))
	ExpectEq(0, len(state.pending))
}

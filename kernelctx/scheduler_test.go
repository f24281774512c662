package kernelctx_test

import (
	"context"
	"testing"
	"time"

	. "github.com/jacobsa/ogletest"
	"github.com/jacobsa/timeutil"

	"github.com/samanthadoran/redox/kernelctx"
)

func TestScheduler(t *testing.T) { RunTests(t) }

type SchedulerTest struct {
}

func init() { RegisterTestSuite(&SchedulerTest{}) }

func (t *SchedulerTest) WithContextThenFromContextRoundTrips() {
	sched := kernelctx.NewScheduler()
	kctx := sched.NewContext()

	ctx := kernelctx.WithContext(context.Background(), kctx)
	ExpectEq(kctx, kernelctx.FromContext(ctx))
	ExpectEq(kctx, sched.Current(ctx))
	ExpectEq(kctx, sched.CurrentMut(ctx))
}

func (t *SchedulerTest) FromContextPanicsWithoutOne() {
	defer func() {
		ExpectNe(nil, recover())
	}()

	kernelctx.FromContext(context.Background())
}

func (t *SchedulerTest) TwoContextsFromSameSchedulerShareAllocAddressSpace() {
	sched := kernelctx.NewScheduler()
	a := sched.NewContext()
	b := sched.NewContext()

	buf := []byte("shared physical table")
	virt := a.Alloc(buf)
	phys, ok := a.Translate(virt)
	AssertTrue(ok)

	v := b.NextMem()
	b.PushMem(kernelctx.MappingRecord{Phys: phys, Virt: v, Size: uintptr(len(buf))})

	got, ok := b.Deref(v, len(buf))
	AssertTrue(ok)
	ExpectEq(string(buf), string(got))
}

func (t *SchedulerTest) NowReflectsAnInjectedSimulatedClock() {
	simulated := &timeutil.SimulatedClock{}
	want := time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)
	simulated.SetTime(want)

	sched := kernelctx.NewSchedulerWithClock(simulated)
	ExpectEq(want, sched.Now())

	// ContextSwitch logs s.clock.Now() on entry and exit rather than the
	// wall clock; advancing the simulated clock and switching again must
	// not panic or otherwise depend on real time passing.
	simulated.AdvanceTime(time.Second)
	sched.ContextSwitch(false)
	ExpectEq(want.Add(time.Second), sched.Now())
}

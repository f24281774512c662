package scheme_test

import (
	"context"
	"testing"

	. "github.com/jacobsa/ogletest"

	"github.com/samanthadoran/redox/kernelctx"
	"github.com/samanthadoran/redox/scheme"
	"github.com/samanthadoran/redox/vfsreg"
	"github.com/samanthadoran/redox/wire"
)

func TestProviderHandle(t *testing.T) { RunTests(t) }

type ProviderHandleTest struct {
	sched        *kernelctx.Scheduler
	registry     *vfsreg.Registry
	registration *scheme.SchemeRegistration
	provider     *scheme.ProviderHandle
}

func init() { RegisterTestSuite(&ProviderHandleTest{}) }

func (t *ProviderHandleTest) SetUp(ti *TestInfo) {
	t.sched = kernelctx.NewScheduler()
	t.registry = vfsreg.New()

	var err error
	t.registration, t.provider, err = scheme.New(t.registry, t.sched, "test")
	AssertEq(nil, err)
}

func (t *ProviderHandleTest) RecvRejectsAWrongSizedBuffer() {
	_, err := t.provider.Recv(context.Background(), make([]byte, wire.Size-1))
	ExpectEq(scheme.EINVAL, err)
}

func (t *ProviderHandleTest) ReplyRejectsAWrongSizedBuffer() {
	_, err := t.provider.Reply(context.Background(), make([]byte, wire.Size+1))
	ExpectEq(scheme.EINVAL, err)
}

func (t *ProviderHandleTest) RecvOnEmptyQueueReportsIDZero() {
	buf := make([]byte, wire.Size)
	n, err := t.provider.Recv(context.Background(), buf)
	AssertEq(nil, err)
	AssertEq(wire.Size, n)

	var pkt wire.Packet
	AssertTrue(wire.FromBytes(buf, &pkt))
	ExpectEq(uintptr(0), pkt.ID)
}

func (t *ProviderHandleTest) PathReportsTheSchemeNameWithALeadingColon() {
	buf := make([]byte, 32)
	n, err := t.provider.Path(context.Background(), buf)
	AssertEq(nil, err)
	ExpectEq(":test", string(buf[:n]))
}

func (t *ProviderHandleTest) SeekAlwaysFailsWithESPIPE() {
	_, err := t.provider.Seek(context.Background(), 0, scheme.SeekStart)
	ExpectEq(scheme.ESPIPE, err)
}

func (t *ProviderHandleTest) SyncAndTruncateAlwaysFailWithEINVAL() {
	ExpectEq(scheme.EINVAL, t.provider.Sync(context.Background()))
	ExpectEq(scheme.EINVAL, t.provider.Truncate(context.Background(), 0))
}

func (t *ProviderHandleTest) DupAddsAStrongRefAndBothMustBeClosed() {
	dup, err := t.provider.Dup()
	AssertEq(nil, err)

	ExpectEq(nil, t.provider.Close())

	_, ok := t.registry.LookupByScheme("test")
	ExpectTrue(ok) // dup still holds a strong ref

	ExpectEq(nil, dup.Close())
	_, ok = t.registry.LookupByScheme("test")
	ExpectFalse(ok)
}

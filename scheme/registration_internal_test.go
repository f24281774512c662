package scheme

import (
	"context"
	"testing"

	. "github.com/jacobsa/ogletest"

	"github.com/samanthadoran/redox/kernelctx"
	"github.com/samanthadoran/redox/vfsreg"
)

func TestRegistrationInternal(t *testing.T) { RunTests(t) }

type RegistrationInternalTest struct {
	sched *kernelctx.Scheduler
}

func init() { RegisterTestSuite(&RegistrationInternalTest{}) }

func (t *RegistrationInternalTest) SetUp(ti *TestInfo) {
	t.sched = kernelctx.NewScheduler()
}

func (t *RegistrationInternalTest) OpenFailsWithENOENTWhenNoWindowIsAvailable() {
	registry := vfsreg.New()
	registration, provider, err := New(registry, t.sched, "full")
	AssertEq(nil, err)
	defer provider.Close()

	registration.state.providerCtx.SetWindowsExhausted(true)

	ctx := kernelctx.WithContext(context.Background(), t.sched.NewContext())
	_, err = registration.Open(ctx, "full:/a", 0)
	ExpectEq(ENOENT, err)
}

package vfsreg_test

import (
	"testing"

	. "github.com/jacobsa/oglematchers"
	. "github.com/jacobsa/ogletest"

	"github.com/samanthadoran/redox/vfsreg"
)

func TestRegistry(t *testing.T) { RunTests(t) }

type RegistryTest struct {
	registry *vfsreg.Registry
}

func init() { RegisterTestSuite(&RegistryTest{}) }

func (t *RegistryTest) SetUp(ti *TestInfo) {
	t.registry = vfsreg.New()
}

type fakeCloser struct {
	closed bool
}

func (f *fakeCloser) Close() error {
	f.closed = true
	return nil
}

func (t *RegistryTest) RegisterThenLookupSucceeds() {
	h := &fakeCloser{}
	AssertEq(nil, t.registry.Register("pipe", h))

	got, ok := t.registry.LookupByScheme("pipe")
	AssertTrue(ok)
	ExpectEq(h, got)
}

func (t *RegistryTest) RegisterTwiceFails() {
	AssertEq(nil, t.registry.Register("pipe", &fakeCloser{}))

	err := t.registry.Register("pipe", &fakeCloser{})
	AssertNe(nil, err)
}

func (t *RegistryTest) UnregisterAbsentNameIsANoOp() {
	t.registry.Unregister("nonexistent")
}

func (t *RegistryTest) UnregisterRemovesTheEntry() {
	AssertEq(nil, t.registry.Register("pipe", &fakeCloser{}))
	t.registry.Unregister("pipe")

	_, ok := t.registry.LookupByScheme("pipe")
	ExpectFalse(ok)
}

func (t *RegistryTest) NamesIsSorted() {
	AssertEq(nil, t.registry.Register("zzz", &fakeCloser{}))
	AssertEq(nil, t.registry.Register("aaa", &fakeCloser{}))

	ExpectThat(t.registry.Names(), ElementsAre("aaa", "zzz"))
}

package wire_test

import (
	"testing"

	. "github.com/jacobsa/ogletest"

	"github.com/samanthadoran/redox/wire"
)

func TestWire(t *testing.T) { RunTests(t) }

type PacketTest struct {
}

func init() { RegisterTestSuite(&PacketTest{}) }

func (t *PacketTest) RoundTripsThroughBytes() {
	in := wire.Packet{ID: 7, A: 1, B: 2, C: 3, D: 4}

	var out wire.Packet
	AssertTrue(wire.FromBytes(in.Bytes(), &out))

	ExpectEq(in.ID, out.ID)
	ExpectEq(in.A, out.A)
	ExpectEq(in.B, out.B)
	ExpectEq(in.C, out.C)
	ExpectEq(in.D, out.D)
}

func (t *PacketTest) BytesIsExactlySize() {
	var p wire.Packet
	ExpectEq(wire.Size, len(p.Bytes()))
}

func (t *PacketTest) FromBytesRejectsWrongLength() {
	var out wire.Packet
	ExpectFalse(wire.FromBytes(make([]byte, wire.Size-1), &out))
	ExpectFalse(wire.FromBytes(make([]byte, wire.Size+1), &out))
}

func (t *PacketTest) PageAlignRoundsUp() {
	ExpectEq(0, wire.PageAlign(0))
	ExpectEq(wire.PageSize, wire.PageAlign(1))
	ExpectEq(wire.PageSize, wire.PageAlign(wire.PageSize))
	ExpectEq(2*wire.PageSize, wire.PageAlign(wire.PageSize+1))
}

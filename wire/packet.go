// Package wire defines the fixed five-word record exchanged between a
// scheme provider and the core, and the syscall-like opcodes carried in it.
//
// A Packet is always exactly Size bytes: five machine words, packed, in
// native order, with no padding and no version byte. The provider reads and
// writes these as opaque bytes through ProviderHandle.Recv and
// ProviderHandle.Reply; it never sees the Go struct directly.
package wire

import "unsafe"

// Packet is the wire record exchanged with a scheme provider.
//
//	{id: uword, a,b,c,d: uword}
type Packet struct {
	ID uintptr
	A  uintptr
	B  uintptr
	C  uintptr
	D  uintptr
}

// Size is the exact byte length of a marshaled Packet.
const Size = int(unsafe.Sizeof(Packet{}))

// Bytes returns p's packed, native-order representation. The returned slice
// aliases p; callers that need an independent copy must clone it.
func (p *Packet) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), Size)
}

// FromBytes decodes a Packet previously produced by Bytes. It returns false
// if b is not exactly Size bytes long.
func FromBytes(b []byte, p *Packet) bool {
	if len(b) != Size {
		return false
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(p)), Size), b)
	return true
}

// Syscall opcodes carried in a Packet's A word when submitted by a client.
// Numeric values are inherited unchanged from the host ABI this core was
// distilled from; callers must not renumber them.
const (
	SysRead      = 0
	SysWrite     = 1
	SysOpen      = 2
	SysClose     = 3
	SysLseek     = 8
	SysFsync     = 74
	SysFtruncate = 77
	SysMkdir     = 83
	SysFpath     = 151
	SysUnlink    = 87
)

// Seek-whence constants, as passed in a SysLseek request's D word.
const (
	SeekSet = 0
	SeekCur = 1
	SeekEnd = 2
)

// PageSize is the fixed architectural page size used by the buffer
// marshaling protocol to compute aligned mapping windows.
const PageSize = 4096

// PageAlign rounds n up to the next multiple of PageSize.
func PageAlign(n int) int {
	return (n + PageSize - 1) / PageSize * PageSize
}

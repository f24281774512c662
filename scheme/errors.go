package scheme

import "golang.org/x/sys/unix"

// Errors corresponding to kernel error numbers, aliased from
// golang.org/x/sys/unix rather than redefined by hand. These are the errors
// the core itself can raise; a provider may additionally encode any errno it
// likes in a reply's first word, and that value is surfaced to the caller
// unchanged.
const (
	EBADF  = unix.EBADF  // dead scheme, unsupported dup, or provider bug
	EFAULT = unix.EFAULT // client buffer not mapped in the caller
	EINVAL = unix.EINVAL // recv/reply called with a wrong-sized buffer; sync/truncate on a provider handle
	ENOENT = unix.ENOENT // no virtual window available for an open/mkdir/unlink URL string
	ESPIPE = unix.ESPIPE // seek on a provider handle
)

// EncodeOK packs a successful result word. Redox calls this the first word
// of the (a,b,c,d) completion tuple; non-negative values are successes. A
// provider's Serve loop uses this (trivially, since val is simply copied
// into the reply's A word) when the call itself is the whole point of
// having an encoder in the first place: keeping the encode/decode pair
// symmetric so a provider never has to hand-roll Result's sign convention.
func EncodeOK(val uintptr) uintptr {
	return val
}

// EncodeErrno packs errno as the negative-encoded first result word, the Go
// counterpart of Redox's Error::new(...).into() used on the completion
// path. A provider's Serve loop calls this whenever a request fails.
func EncodeErrno(errno unix.Errno) uintptr {
	return uintptr(int64(-int64(errno)))
}

// decodeResult is the Go counterpart of Redox's Error::demux: the first word
// of a completion tuple is reinterpreted as a signed machine word; negative
// means -errno, non-negative means success.
func decodeResult(word uintptr) (uintptr, error) {
	signed := int64(word)
	if signed < 0 {
		return 0, unix.Errno(-signed)
	}
	return word, nil
}

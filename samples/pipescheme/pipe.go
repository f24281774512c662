// Package pipescheme is a minimal, fully in-memory scheme provider: every
// opened URL under it gets its own growable byte buffer, with no backing
// store beyond the process's heap. It exists to exercise the scheme,
// kernelctx, vfsreg and wire packages end to end, the way samples/hellofs
// exercises the fuse package in the teacher repo.
package pipescheme

import (
	"context"
	"sync"

	"github.com/samanthadoran/redox/kernelctx"
	"github.com/samanthadoran/redox/scheme"
	"github.com/samanthadoran/redox/wire"
)

// PipeFS is the provider-side state: a table of open files keyed by a
// locally-assigned file id.
type PipeFS struct {
	mu         sync.Mutex
	files      map[uintptr]*pipeFile
	nextFileID uintptr
}

type pipeFile struct {
	name   string
	data   []byte
	offset int64
}

// NewPipeFS returns an empty PipeFS, ready to Serve.
func NewPipeFS() *PipeFS {
	return &PipeFS{files: make(map[uintptr]*pipeFile), nextFileID: 1}
}

// Serve runs the provider's Recv/Reply loop until stop is closed. It is
// meant to run on its own goroutine, the counterpart of a fuse sample's
// serve method running on the connection's goroutine.
func (fs *PipeFS) Serve(provider *scheme.ProviderHandle, stop <-chan struct{}) {
	ctx := context.Background()
	buf := make([]byte, wire.Size)
	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := provider.Recv(ctx, buf)
		if err != nil || n == 0 {
			continue
		}

		var req wire.Packet
		if !wire.FromBytes(buf, &req) || req.ID == 0 {
			continue
		}

		result := fs.dispatch(provider.Context(), req)

		reply := wire.Packet{ID: req.ID, A: result}
		copy(buf, reply.Bytes())
		provider.Reply(ctx, buf)
	}
}

func (fs *PipeFS) dispatch(ctx *kernelctx.Context, req wire.Packet) uintptr {
	switch req.A {
	case wire.SysOpen:
		return fs.open(ctx, req.B)
	case wire.SysRead:
		return fs.read(ctx, req.B, req.C, int(req.D))
	case wire.SysWrite:
		return fs.write(ctx, req.B, req.C, int(req.D))
	case wire.SysFpath:
		return fs.path(ctx, req.B, req.C, int(req.D))
	case wire.SysLseek:
		return fs.seek(req.B, int64(req.C), int(req.D))
	case wire.SysFsync:
		return 0
	case wire.SysFtruncate:
		return fs.truncate(req.B, int64(req.C))
	case wire.SysClose:
		return fs.close(req.B)
	case wire.SysMkdir, wire.SysUnlink:
		// A flat namespace has no directories to create and unlinking a
		// never-created name is harmless; both just acknowledge.
		return 0
	default:
		return scheme.EncodeErrno(scheme.EINVAL)
	}
}

func readCString(ctx *kernelctx.Context, provPtr uintptr) (string, bool) {
	var s []byte
	for i := 0; i < wire.PageSize; i++ {
		b, ok := ctx.Deref(provPtr+uintptr(i), 1)
		if !ok {
			return "", false
		}
		if b[0] == 0 {
			return string(s), true
		}
		s = append(s, b[0])
	}
	return "", false
}

func (fs *PipeFS) open(ctx *kernelctx.Context, provPtr uintptr) uintptr {
	url, ok := readCString(ctx, provPtr)
	if !ok {
		return scheme.EncodeErrno(scheme.EFAULT)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	id := fs.nextFileID
	fs.nextFileID++
	fs.files[id] = &pipeFile{name: url}
	return scheme.EncodeOK(id)
}

func (fs *PipeFS) lookup(fileID uintptr) (*pipeFile, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	f, ok := fs.files[fileID]
	return f, ok
}

func (fs *PipeFS) read(ctx *kernelctx.Context, fileID, provPtr uintptr, length int) uintptr {
	f, ok := fs.lookup(fileID)
	if !ok {
		return scheme.EncodeErrno(scheme.EBADF)
	}

	dest, ok := ctx.Deref(provPtr, length)
	if !ok {
		return scheme.EncodeErrno(scheme.EFAULT)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	remaining := int64(len(f.data)) - f.offset
	if remaining < 0 {
		remaining = 0
	}
	n := int64(length)
	if n > remaining {
		n = remaining
	}

	copy(dest, f.data[f.offset:f.offset+n])
	f.offset += n
	return scheme.EncodeOK(uintptr(n))
}

func (fs *PipeFS) write(ctx *kernelctx.Context, fileID, provPtr uintptr, length int) uintptr {
	f, ok := fs.lookup(fileID)
	if !ok {
		return scheme.EncodeErrno(scheme.EBADF)
	}

	src, ok := ctx.Deref(provPtr, length)
	if !ok {
		return scheme.EncodeErrno(scheme.EFAULT)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	end := f.offset + int64(length)
	if end > int64(len(f.data)) {
		grown := make([]byte, end)
		copy(grown, f.data)
		f.data = grown
	}
	copy(f.data[f.offset:end], src)
	f.offset = end
	return scheme.EncodeOK(uintptr(length))
}

func (fs *PipeFS) path(ctx *kernelctx.Context, fileID, provPtr uintptr, length int) uintptr {
	f, ok := fs.lookup(fileID)
	if !ok {
		return scheme.EncodeErrno(scheme.EBADF)
	}

	dest, ok := ctx.Deref(provPtr, length)
	if !ok {
		return scheme.EncodeErrno(scheme.EFAULT)
	}

	n := copy(dest, f.name)
	return scheme.EncodeOK(uintptr(n))
}

func (fs *PipeFS) seek(fileID uintptr, offset int64, whence int) uintptr {
	f, ok := fs.lookup(fileID)
	if !ok {
		return scheme.EncodeErrno(scheme.EBADF)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	switch whence {
	case wire.SeekSet:
		f.offset = offset
	case wire.SeekCur:
		f.offset += offset
	case wire.SeekEnd:
		f.offset = int64(len(f.data)) + offset
	default:
		return scheme.EncodeErrno(scheme.EINVAL)
	}
	if f.offset < 0 {
		f.offset = 0
	}
	return scheme.EncodeOK(uintptr(f.offset))
}

func (fs *PipeFS) truncate(fileID uintptr, length int64) uintptr {
	f, ok := fs.lookup(fileID)
	if !ok {
		return scheme.EncodeErrno(scheme.EBADF)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if length <= int64(len(f.data)) {
		f.data = f.data[:length]
		return 0
	}
	grown := make([]byte, length)
	copy(grown, f.data)
	f.data = grown
	return 0
}

func (fs *PipeFS) close(fileID uintptr) uintptr {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.files, fileID)
	return 0
}

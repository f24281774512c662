// Package scheme implements the kernel mechanism that lets a user-space
// process act as a scheme provider: it owns the semantics of a URL
// namespace (such as "pipe:" or "tcp:") and answers file-like syscalls
// (open, read, write, seek, mkdir, unlink, sync, ftruncate, fpath, close)
// issued against URLs under that prefix.
//
// The primary elements of interest are:
//
//   - SharedState, the per-scheme request/reply rendezvous shared by a
//     provider and every client that has opened a URL under its scheme.
//
//   - ClientHandle, the descriptor a caller holds after a successful Open;
//     its methods marshal buffers into the provider's address space, submit
//     a request, and block until the provider replies.
//
//   - ProviderHandle, the descriptor the provider holds; Recv/Reply drive
//     the request/reply loop from the provider's side.
//
//   - SchemeRegistration, the VFS-facing object returned alongside a
//     ProviderHandle by New.
package scheme

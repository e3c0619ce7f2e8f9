// Package hygiene reduces how long secrets stay readable on the local machine.
//
// Everything here is best effort. The Go runtime may copy byte slices during
// garbage collection or stack growth, and strings cannot be overwritten at all,
// so wiping is defense in depth and never a security boundary. Callers keep
// secrets in []byte end to end and wipe them as soon as they are no longer
// needed; longer lived secrets are held in memguard enclaves.
package hygiene

//go:build !unix

package persist

// Advisory locking is only wired up on unix-like systems; elsewhere the
// single-user no-locking behavior stands.

func (f *File) Lock() error   { return nil }
func (f *File) Unlock() error { return nil }

//go:build !unix

package tracker

// fileLock is a no-op where flock(2) is unavailable; the in-process mutex
// still serializes mutations.
type fileLock struct {
	path string
}

func newFileLock(path string) *fileLock {
	return &fileLock{path: path}
}

func (fl *fileLock) Lock() error   { return nil }
func (fl *fileLock) Unlock() error { return nil }

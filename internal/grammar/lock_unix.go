//go:build unix

package grammar

import (
	"os"
	"syscall"
)

// cacheLock holds an advisory flock on a sidecar file, serializing grammar
// builds across processes that share the cache directory.
type cacheLock struct {
	f *os.File
}

// acquireLock opens (creating if absent) the lock file and blocks until an
// exclusive lock is held.
func acquireLock(path string) (*cacheLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, err
	}
	return &cacheLock{f: f}, nil
}

func (l *cacheLock) release() {
	_ = syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
	_ = l.f.Close()
}

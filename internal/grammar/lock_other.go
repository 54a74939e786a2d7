//go:build !unix

package grammar

import "os"

// cacheLock is a no-op on platforms without flock. The provisioner's
// in-process mutex still serializes builds within one process.
type cacheLock struct {
	f *os.File
}

func acquireLock(path string) (*cacheLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	return &cacheLock{f: f}, nil
}

func (l *cacheLock) release() {
	_ = l.f.Close()
}

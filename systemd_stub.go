//go:build !linux

package scc

func newSystemdManager(_ Config) (Manager, error) {
	return nil, ErrUnsupportedBackend
}

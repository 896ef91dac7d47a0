//go:build !linux && !darwin

package scc

func newSvdirManager(_ Config) (Manager, error) {
	return nil, ErrUnsupportedBackend
}

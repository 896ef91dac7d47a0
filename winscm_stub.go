//go:build !windows

package scc

func newWinSCMManager(_ Config) (Manager, error) {
	return nil, ErrUnsupportedBackend
}

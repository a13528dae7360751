//go:build !freebsd && !linux

package monitor

func dial(path string) (int, error) { return -1, ErrNotSupported }

func closeFD(fd int) error { return nil }

func shutdownFD(fd int) error { return nil }

type fdReader int

func (r fdReader) Read(p []byte) (int, error) { return 0, ErrNotSupported }

func newPoller(sock int) (poller, error) { return nil, ErrNotSupported }

//go:build !freebsd

package devinfo

func DevicePath(fd int) (string, error) { return "", ErrNotSupported }

func DRMDriverName(fd int) (string, int, error) { return "", -1, ErrNotSupported }

func PCIIDFromFD(fd int) (PCIID, error) { return PCIID{}, ErrNotSupported }

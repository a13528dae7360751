//go:build freebsd || linux

package monitor

import (
	"io"

	"golang.org/x/sys/unix"
)

func dial(path string) (int, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, err
	}
	if err := unix.Connect(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

func closeFD(fd int) error {
	return unix.Close(fd)
}

// shutdownFD 关闭两个方向，阻塞在 read 上的线程会读到 EOF
func shutdownFD(fd int) error {
	err := unix.Shutdown(fd, unix.SHUT_RDWR)
	if err == unix.ENOTCONN {
		// 对端已经断开
		return nil
	}
	return err
}

// fdReader 阻塞读取 socket，对端关闭时返回 io.EOF
type fdReader int

func (r fdReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		n, err := unix.Read(int(r), p)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	}
}

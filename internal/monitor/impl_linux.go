//go:build linux

package monitor

import (
	"encoding/binary"
	"time"

	"golang.org/x/sys/unix"
)

// epollPoller 用 eventfd 实现唤醒
type epollPoller struct {
	epfd   int
	wakefd int
	events [2]unix.EpollEvent
}

func newPoller(sock int) (poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}

	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, err
	}

	for _, fd := range []int{sock, wakefd} {
		ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
		if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
			unix.Close(wakefd)
			unix.Close(epfd)
			return nil, err
		}
	}
	return &epollPoller{epfd: epfd, wakefd: wakefd}, nil
}

func (p *epollPoller) wait(timeout time.Duration) (bool, error) {
	msec := -1
	if timeout >= 0 {
		msec = int(timeout / time.Millisecond)
	}

	for {
		n, err := unix.EpollWait(p.epfd, p.events[:], msec)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, err
		}

		readable := false
		for _, ev := range p.events[:n] {
			if int(ev.Fd) == p.wakefd {
				var buf [8]byte
				unix.Read(p.wakefd, buf[:])
				return false, ErrInterrupted
			}
			readable = true
		}
		return readable, nil
	}
}

func (p *epollPoller) wake() error {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	_, err := unix.Write(p.wakefd, buf[:])
	return err
}

func (p *epollPoller) fd() int { return p.epfd }

func (p *epollPoller) close() error {
	err := unix.Close(p.wakefd)
	if cerr := unix.Close(p.epfd); err == nil {
		err = cerr
	}
	return err
}

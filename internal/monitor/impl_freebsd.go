//go:build freebsd

package monitor

import (
	"time"

	"golang.org/x/sys/unix"
)

// EVFILT_USER 的 ident，与 socket 的 EVFILT_READ 不在同一个命名空间
const wakeIdent = 1

type kqueuePoller struct {
	kq     int
	events [2]unix.Kevent_t
}

func newPoller(sock int) (poller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(kq)

	changes := make([]unix.Kevent_t, 2)
	unix.SetKevent(&changes[0], sock, unix.EVFILT_READ, unix.EV_ADD|unix.EV_ENABLE)
	unix.SetKevent(&changes[1], wakeIdent, unix.EVFILT_USER, unix.EV_ADD|unix.EV_CLEAR)
	if _, err := unix.Kevent(kq, changes, nil, nil); err != nil {
		unix.Close(kq)
		return nil, err
	}
	return &kqueuePoller{kq: kq}, nil
}

func (p *kqueuePoller) wait(timeout time.Duration) (bool, error) {
	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(int64(timeout))
		ts = &t
	}

	for {
		n, err := unix.Kevent(p.kq, nil, p.events[:], ts)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, err
		}

		readable := false
		for _, ev := range p.events[:n] {
			switch {
			case ev.Filter == unix.EVFILT_USER:
				return false, ErrInterrupted
			case ev.Flags&unix.EV_ERROR != 0:
				return false, unix.Errno(ev.Data)
			case ev.Filter == unix.EVFILT_READ:
				readable = true
			}
		}
		return readable, nil
	}
}

func (p *kqueuePoller) wake() error {
	changes := make([]unix.Kevent_t, 1)
	unix.SetKevent(&changes[0], wakeIdent, unix.EVFILT_USER, 0)
	changes[0].Fflags = unix.NOTE_TRIGGER
	_, err := unix.Kevent(p.kq, changes, nil, nil)
	return err
}

func (p *kqueuePoller) fd() int { return p.kq }

// 关闭 kqueue 时内核会自动删除上面注册的事件
func (p *kqueuePoller) close() error {
	return unix.Close(p.kq)
}

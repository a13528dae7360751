// Package monitor 连接 devd 的通知 socket，按行读取并分类设备事件。
//
// Monitor 只能由一个 goroutine 使用：Poll 等待 socket 可读，Read 返回一条事件。
// 其他 goroutine 只能调用 Interrupt 唤醒阻塞中的 Poll。
package monitor

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Hara602/devq/internal/event"
	"github.com/Hara602/devq/internal/sysutil"
	"go.uber.org/zap"
)

// DefaultSocketPath devd 的通知 socket
const DefaultSocketPath = "/var/run/devd.pipe"

// poller 等待 socket 可读的多路复用器 (FreeBSD 上是 kqueue)
type poller interface {
	// wait 超时返回 (false, nil)；timeout < 0 表示一直等待
	wait(timeout time.Duration) (bool, error)
	wake() error
	fd() int
	close() error
}

type options struct {
	socketPath string
	resolver   event.NameResolver
}

type Option func(*options)

// WithSocketPath 连接其他路径的 socket
func WithSocketPath(path string) Option {
	return func(o *options) { o.socketPath = path }
}

// WithResolver 设置 USB 名称查询，事件的 Device() 会使用它
func WithResolver(r event.NameResolver) Option {
	return func(o *options) { o.resolver = r }
}

type Monitor struct {
	sock     int
	mux      poller
	framer   *LineFramer
	resolver event.NameResolver

	// ioMu 在 Wait/Read 期间持有，Close 等它释放后才回收 fd 和缓冲区
	ioMu sync.Mutex

	mu          sync.Mutex
	closed      bool
	interrupted bool
}

// Open 连接 devd 并注册可读事件。任何一步失败都会释放已经申请的资源。
func Open(opts ...Option) (*Monitor, error) {
	o := options{socketPath: DefaultSocketPath}
	for _, opt := range opts {
		opt(&o)
	}

	sock, err := dial(o.socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: connect %s: %w", ErrConnection, o.socketPath, err)
	}

	mux, err := newPoller(sock)
	if err != nil {
		closeFD(sock)
		return nil, fmt.Errorf("%w: register socket: %w", ErrConnection, err)
	}

	sysutil.Log.Debug("devd monitor connected", zap.String("socket", o.socketPath))
	return &Monitor{
		sock:     sock,
		mux:      mux,
		framer:   NewLineFramer(fdReader(sock)),
		resolver: o.resolver,
	}, nil
}

// FD 返回多路复用器的描述符，调用方可以把它放进自己的事件循环
func (m *Monitor) FD() int {
	if m == nil {
		return -1
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return -1
	}
	return m.mux.fd()
}

// Poll 阻塞直到 socket 可读。出错、被 Interrupt 或已关闭时返回 false，调用方应当结束循环。
func (m *Monitor) Poll() bool {
	ready, err := m.Wait(-1)
	if err != nil {
		sysutil.Log.Debug("devd poll stopped", zap.Error(err))
		return false
	}
	return ready
}

// Wait 与 Poll 相同，但最多等待 timeout；超时返回 (false, nil)
func (m *Monitor) Wait(timeout time.Duration) (bool, error) {
	if m == nil {
		return false, ErrClosed
	}
	m.ioMu.Lock()
	defer m.ioMu.Unlock()
	if err := m.state(); err != nil {
		return false, err
	}

	// 上一次批量读取可能已经缓冲了完整的行
	if m.framer.Buffered() {
		return true, nil
	}

	ready, err := m.mux.wait(timeout)
	if errors.Is(err, ErrInterrupted) {
		m.mu.Lock()
		m.interrupted = true
		m.mu.Unlock()
		return false, err
	}
	// shutdown 之后 socket 也会变成可读，这里以 Interrupt/Close 为准
	if serr := m.state(); serr != nil {
		return false, serr
	}
	return ready, err
}

// state 返回 ErrClosed 或 ErrInterrupted，正常时返回 nil
func (m *Monitor) state() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.closed:
		return ErrClosed
	case m.interrupted:
		return ErrInterrupted
	}
	return nil
}

// Read 读取一行并分类。连接断开时返回 nil 和 ErrConnection，Monitor 之后只能 Close。
// 阻塞在半行上的 Read 会被其他 goroutine 的 Interrupt 或 Close 打断，返回 ErrConnection。
func (m *Monitor) Read() (*event.Event, error) {
	if m == nil {
		return nil, ErrClosed
	}
	m.ioMu.Lock()
	defer m.ioMu.Unlock()
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	line, err := m.framer.ReadLine()
	if err != nil {
		return nil, err
	}

	ev := event.New(line, m.resolver)
	sysutil.Log.Debug("devd event", zap.Stringer("kind", ev.Kind()), zap.String("raw", line))
	return ev, nil
}

// Interrupt 唤醒阻塞中的 Poll 和 Read，之后 Poll 一直返回 false。可以在其他 goroutine 调用。
// socket 会被 shutdown，已经缓冲的完整行仍然可以 Read。
func (m *Monitor) Interrupt() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.interrupted {
		return
	}
	m.interrupted = true
	m.wakeLocked()
}

// wakeLocked 让阻塞中的 read 返回 EOF，并唤醒多路复用器。调用方持有 mu。
func (m *Monitor) wakeLocked() {
	if err := shutdownFD(m.sock); err != nil {
		sysutil.Log.Debug("devd socket shutdown failed", zap.Error(err))
	}
	if err := m.mux.wake(); err != nil {
		sysutil.Log.Debug("devd wake failed", zap.Error(err))
	}
}

// Close 释放 socket、多路复用器和缓冲区。重复调用或 nil 调用不做任何事。
// 可以在其他 goroutine 调用：先打断进行中的 Wait/Read，等它们返回后再释放资源。
func (m *Monitor) Close() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	if !m.interrupted {
		m.wakeLocked()
	}
	m.mu.Unlock()

	m.ioMu.Lock()
	defer m.ioMu.Unlock()

	err := m.mux.close()
	if cerr := closeFD(m.sock); err == nil {
		err = cerr
	}
	m.framer.Release()
	sysutil.Log.Debug("devd monitor closed")
	return err
}

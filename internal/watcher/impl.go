package watcher

import (
	"errors"
	"sync"

	"github.com/Hara602/devq/internal/event"
	"github.com/Hara602/devq/internal/monitor"
	"github.com/Hara602/devq/internal/sysutil"
	"go.uber.org/zap"
)

type devdWatcher struct {
	opts   []monitor.Option
	events chan *event.Event
	stop   chan struct{}

	mu       sync.Mutex
	mon      *monitor.Monitor
	err      error
	stopOnce sync.Once
}

func newWatcher(opts ...monitor.Option) DeviceWatcher {
	return &devdWatcher{
		opts:   opts,
		events: make(chan *event.Event, 10),
		stop:   make(chan struct{}),
	}
}

func (w *devdWatcher) Start() (<-chan *event.Event, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mon != nil {
		return w.events, nil
	}

	// 连接 devd.pipe
	mon, err := monitor.Open(w.opts...)
	if err != nil {
		return nil, err
	}
	w.mon = mon

	// 启动监听 goroutine，Monitor 归它所有
	go w.loop(mon)
	return w.events, nil
}

func (w *devdWatcher) loop(mon *monitor.Monitor) {
	// 确保退出时关闭连接
	defer close(w.events)
	defer mon.Close()

	for mon.Poll() {
		ev, err := mon.Read()
		if err != nil {
			select {
			case <-w.stop:
			default:
				w.setErr(err)
				sysutil.Log.Warn("devd stream ended", zap.Error(err))
			}
			return
		}

		select {
		case w.events <- ev:
		case <-w.stop:
			return
		}
	}

	select {
	case <-w.stop:
	default:
		w.setErr(errors.New("devd poll failed"))
	}
}

func (w *devdWatcher) setErr(err error) {
	w.mu.Lock()
	w.err = err
	w.mu.Unlock()
}

func (w *devdWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		w.mu.Lock()
		mon := w.mon
		w.mu.Unlock()
		// 唤醒 Poll，并让阻塞在半行上的 Read 返回
		mon.Interrupt()
	})
}

func (w *devdWatcher) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

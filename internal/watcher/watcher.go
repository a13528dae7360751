package watcher

import (
	"github.com/Hara602/devq/internal/event"
	"github.com/Hara602/devq/internal/monitor"
)

// DeviceWatcher 定义接口
type DeviceWatcher interface {
	// Start 连接 devd 并在后台读取事件，流结束时关闭返回的 channel
	Start() (<-chan *event.Event, error)
	// Stop 唤醒后台循环并关闭连接，可以重复调用
	Stop()
	// Err 流结束后返回读取错误，Stop 导致的结束返回 nil
	Err() error
}

func New(opts ...monitor.Option) DeviceWatcher {
	return newWatcher(opts...)
}

package monitor

import "errors"

var (
	// ErrConnection devd 连接失败或已断开，Monitor 不能再使用，只能 Close
	ErrConnection = errors.New("devd connection failed")

	// ErrClosed Monitor 已经 Close
	ErrClosed = errors.New("devd monitor closed")

	// ErrInterrupted Poll 被 Interrupt 唤醒
	ErrInterrupted = errors.New("devd poll interrupted")

	// ErrNotSupported 当前平台没有实现
	ErrNotSupported = errors.New("devd monitor not supported on this platform")
)

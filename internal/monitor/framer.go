package monitor

import (
	"bytes"
	"fmt"
	"io"
)

// 缓冲区每次增长的大小
const growStep = 1024

// 连续读到 0 字节且没有错误的次数上限
const maxEmptyReads = 100

// LineFramer 从字节流中切出以 \n 结尾的行。
// 读取可以是批量的，但只按 \n 切分，不去掉 \r。
type LineFramer struct {
	r          io.Reader
	buf        []byte
	start, end int   // buf[start:end] 是尚未返回的数据
	pending    error // 读到数据的同时返回的错误，等缓冲的完整行交付后再报告
	err        error // 终止状态
}

func NewLineFramer(r io.Reader) *LineFramer {
	return &LineFramer{r: r}
}

// ReadLine 返回下一行（不含 \n）。连接在一行中间关闭时返回错误而不是半行。
func (f *LineFramer) ReadLine() (string, error) {
	if f.err != nil {
		return "", f.err
	}

	empty := 0
	for {
		if i := bytes.IndexByte(f.buf[f.start:f.end], '\n'); i >= 0 {
			line := string(f.buf[f.start : f.start+i])
			f.start += i + 1
			if f.start == f.end {
				f.start, f.end = 0, 0
			}
			return line, nil
		}
		if f.pending != nil {
			return "", f.fail(f.pending)
		}

		f.makeRoom()
		n, err := f.r.Read(f.buf[f.end:])
		f.end += n
		if err != nil {
			f.pending = err
			continue
		}
		if n == 0 {
			empty++
			if empty >= maxEmptyReads {
				return "", f.fail(io.ErrNoProgress)
			}
		}
	}
}

// Buffered 缓冲区里是否已经有一整行
func (f *LineFramer) Buffered() bool {
	return f.err == nil && bytes.IndexByte(f.buf[f.start:f.end], '\n') >= 0
}

// Release 释放缓冲区，之后 ReadLine 返回 ErrClosed
func (f *LineFramer) Release() {
	f.buf = nil
	f.start, f.end = 0, 0
	if f.err == nil {
		f.err = ErrClosed
	}
}

// makeRoom 保证 buf[end:] 非空：先把未读数据移到开头，仍然满时按 growStep 扩容
func (f *LineFramer) makeRoom() {
	if f.end < len(f.buf) {
		return
	}
	if f.start > 0 {
		n := copy(f.buf, f.buf[f.start:f.end])
		f.start, f.end = 0, n
		return
	}
	grown := make([]byte, len(f.buf)+growStep)
	copy(grown, f.buf[:f.end])
	f.buf = grown
}

func (f *LineFramer) fail(err error) error {
	if err == io.EOF {
		f.err = fmt.Errorf("%w: connection closed by peer", ErrConnection)
	} else {
		f.err = fmt.Errorf("%w: %w", ErrConnection, err)
	}
	f.pending = nil
	return f.err
}

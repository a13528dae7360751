package usbid

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/h2non/filetype"
)

// 读取文件头 (262 bytes 是 filetype 库建议的最佳长度)
const headerSize = 262

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() error {
	var first error
	for i := len(rc.closers) - 1; i >= 0; i-- {
		if err := rc.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openDatabase 打开 usb.ids，根据文件头识别 gzip/bzip2 压缩并透明解压
func openDatabase(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(file)
	head, _ := br.Peek(headerSize)

	kind, _ := filetype.Match(head)
	switch kind.Extension {
	case "gz":
		zr, err := gzip.NewReader(br)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("open gzip database %s: %w", path, err)
		}
		return &readCloser{Reader: zr, closers: []io.Closer{file, zr}}, nil
	case "bz2":
		return &readCloser{Reader: bzip2.NewReader(br), closers: []io.Closer{file}}, nil
	default:
		return &readCloser{Reader: br, closers: []io.Closer{file}}, nil
	}
}

package monitor

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

// chunkReader 按给定大小循环切分数据
type chunkReader struct {
	data  []byte
	sizes []int
	i     int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := r.sizes[r.i%len(r.sizes)]
	r.i++
	if n > len(p) {
		n = len(p)
	}
	if n > len(r.data) {
		n = len(r.data)
	}
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

func readAll(t *testing.T, f *LineFramer) ([]string, error) {
	t.Helper()
	var lines []string
	for {
		line, err := f.ReadLine()
		if err != nil {
			return lines, err
		}
		lines = append(lines, line)
	}
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

const stream = "+ums0 at bus=0 sernum=\"\" on uhub0 vendor=0x0e8f product=0x0021\n" +
	"-ums0 at bus=0\n" +
	"\n" +
	"!system=DEVFS subsystem=CDEV type=CREATE cdev=ums0\r\n" +
	"?odd line\n"

func TestReadLineSplitsOnNewlineOnly(t *testing.T) {
	f := NewLineFramer(strings.NewReader(stream))
	lines, err := readAll(t, f)
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("expected ErrConnection at end of stream, got %v", err)
	}

	want := []string{
		"+ums0 at bus=0 sernum=\"\" on uhub0 vendor=0x0e8f product=0x0021",
		"-ums0 at bus=0",
		"",
		"!system=DEVFS subsystem=CDEV type=CREATE cdev=ums0\r",
		"?odd line",
	}
	if !equalLines(lines, want) {
		t.Errorf("lines = %q, want %q", lines, want)
	}
}

func TestReadLineChunkingInvariance(t *testing.T) {
	want, _ := readAll(t, NewLineFramer(strings.NewReader(stream)))

	readers := map[string]io.Reader{
		"one byte":  iotest.OneByteReader(strings.NewReader(stream)),
		"half":      iotest.HalfReader(strings.NewReader(stream)),
		"data err":  iotest.DataErrReader(strings.NewReader(stream)),
		"chunks 3":  &chunkReader{data: []byte(stream), sizes: []int{3}},
		"chunks 7":  &chunkReader{data: []byte(stream), sizes: []int{7, 1, 13}},
		"chunks 64": &chunkReader{data: []byte(stream), sizes: []int{64, 2}},
	}
	for name, r := range readers {
		t.Run(name, func(t *testing.T) {
			got, err := readAll(t, NewLineFramer(r))
			if !errors.Is(err, ErrConnection) {
				t.Errorf("expected ErrConnection, got %v", err)
			}
			if !equalLines(got, want) {
				t.Errorf("lines = %q, want %q", got, want)
			}
		})
	}
}

func TestReadLineLongLineGrowsBuffer(t *testing.T) {
	long := strings.Repeat("x", 5000)
	f := NewLineFramer(iotest.HalfReader(strings.NewReader("+" + long + "\nshort\n")))

	line, err := f.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine failed: %v", err)
	}
	if line != "+"+long {
		t.Errorf("long line length = %d, want %d", len(line), len(long)+1)
	}
	if len(f.buf)%growStep != 0 {
		t.Errorf("buffer size %d is not a multiple of %d", len(f.buf), growStep)
	}

	line, err = f.ReadLine()
	if err != nil || line != "short" {
		t.Errorf("ReadLine = (%q, %v), want (\"short\", nil)", line, err)
	}
}

func TestReadLineClosedMidLine(t *testing.T) {
	f := NewLineFramer(strings.NewReader("+ums0 at bus=0\n-ums0 at b"))

	if line, err := f.ReadLine(); err != nil || line != "+ums0 at bus=0" {
		t.Fatalf("first ReadLine = (%q, %v)", line, err)
	}
	line, err := f.ReadLine()
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("expected ErrConnection, got (%q, %v)", line, err)
	}
	if line != "" {
		t.Errorf("truncated line returned: %q", line)
	}

	// 错误是终止状态
	if _, err2 := f.ReadLine(); !errors.Is(err2, ErrConnection) {
		t.Errorf("second call error = %v, want ErrConnection", err2)
	}
}

func TestReadLineReadError(t *testing.T) {
	boom := errors.New("boom")
	f := NewLineFramer(iotest.ErrReader(boom))
	_, err := f.ReadLine()
	if !errors.Is(err, ErrConnection) || !errors.Is(err, boom) {
		t.Errorf("error = %v, want ErrConnection wrapping boom", err)
	}
}

// zeroReader 永远返回 (0, nil)
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) { return 0, nil }

func TestReadLineNoProgress(t *testing.T) {
	_, err := NewLineFramer(zeroReader{}).ReadLine()
	if !errors.Is(err, io.ErrNoProgress) {
		t.Errorf("error = %v, want io.ErrNoProgress", err)
	}
}

func TestBufferedAndRelease(t *testing.T) {
	f := NewLineFramer(strings.NewReader("a\nb\npartial"))
	if f.Buffered() {
		t.Error("nothing read yet, Buffered should be false")
	}
	if line, _ := f.ReadLine(); line != "a" {
		t.Fatalf("line = %q", line)
	}
	if !f.Buffered() {
		t.Error("second line should already be buffered")
	}
	if line, _ := f.ReadLine(); line != "b" {
		t.Fatalf("line = %q", line)
	}
	if f.Buffered() {
		t.Error("only a partial line is buffered")
	}

	f.Release()
	if _, err := f.ReadLine(); !errors.Is(err, ErrClosed) {
		t.Errorf("after Release error = %v, want ErrClosed", err)
	}
}

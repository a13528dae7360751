//go:build freebsd || linux

package watcher

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Hara602/devq/internal/model"
	"github.com/Hara602/devq/internal/monitor"
)

func listen(t *testing.T) (string, net.Listener) {
	t.Helper()
	dir, err := os.MkdirTemp("", "devqw")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "devd.pipe")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	return path, ln
}

func TestWatcherDeliversEventsUntilEOF(t *testing.T) {
	path, ln := listen(t)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		c.Write([]byte("+ukbd0 at bus=0\n!system=USB\n-ukbd0 at bus=0\n"))
		c.Close()
	}()

	w := New(monitor.WithSocketPath(path))
	events, err := w.Start()
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	var kinds []model.EventKind
	timeout := time.After(5 * time.Second)
	for done := false; !done; {
		select {
		case ev, ok := <-events:
			if !ok {
				done = true
				continue
			}
			kinds = append(kinds, ev.Kind())
		case <-timeout:
			t.Fatal("timed out waiting for events")
		}
	}

	want := []model.EventKind{model.KindAttached, model.KindNotice, model.KindDetached}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, kinds[i], want[i])
		}
	}
	if !errors.Is(w.Err(), monitor.ErrConnection) {
		t.Errorf("Err() = %v, want ErrConnection", w.Err())
	}
}

func TestWatcherStop(t *testing.T) {
	path, ln := listen(t)
	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	w := New(monitor.WithSocketPath(path))
	events, err := w.Start()
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	select {
	case c := <-accepted:
		defer c.Close()
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not connect")
	}

	w.Stop()
	w.Stop()

	select {
	case _, ok := <-events:
		if ok {
			t.Error("no events were sent, channel should just close")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not end the event stream")
	}
	if w.Err() != nil {
		t.Errorf("Err() after Stop = %v, want nil", w.Err())
	}
}

func TestWatcherStopDuringPartialLine(t *testing.T) {
	path, ln := listen(t)
	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	w := New(monitor.WithSocketPath(path))
	events, err := w.Start()
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	select {
	case c := <-accepted:
		defer c.Close()
		// 后台循环会阻塞在 Read 上等待行尾
		c.Write([]byte("+ums0 at bus=0"))
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not connect")
	}
	time.Sleep(50 * time.Millisecond)

	w.Stop()

	select {
	case ev, ok := <-events:
		if ok {
			t.Errorf("unexpected event %q", ev.Raw())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not end the event stream")
	}
	if w.Err() != nil {
		t.Errorf("Err() after Stop = %v, want nil", w.Err())
	}
}

func TestWatcherStartFailure(t *testing.T) {
	w := New(monitor.WithSocketPath("/nonexistent/devd.pipe"))
	if _, err := w.Start(); !errors.Is(err, monitor.ErrConnection) {
		t.Errorf("Start error = %v, want ErrConnection", err)
	}
	w.Stop()
}

package usbid

import (
	"fmt"
	"path/filepath"

	"github.com/Hara602/devq/internal/sysutil"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch 监听数据库文件所在目录，文件被写入、替换或删除时丢弃缓存。
// 监听目录而不是文件本身，这样原子替换 (rename) 也能被捕获。
func (db *Database) Watch() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create usb.ids watcher: %w", err)
	}

	watched := make(map[string]bool)
	for _, path := range db.paths {
		dir := filepath.Dir(path)
		if watched[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			sysutil.Log.Debug("skip usb.ids directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		watched[dir] = true
	}
	if len(watched) == 0 {
		watcher.Close()
		return fmt.Errorf("no usb.ids directory could be watched")
	}

	db.watcher = watcher
	db.done = make(chan struct{})
	go db.watchLoop(watcher, db.done)
	return nil
}

func (db *Database) watchLoop(watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)

	targets := make(map[string]bool, len(db.paths))
	for _, path := range db.paths {
		targets[filepath.Clean(path)] = true
	}

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !targets[filepath.Clean(ev.Name)] {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) ||
				ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				sysutil.Log.Debug("usb.ids changed, dropping cache",
					zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
				db.Invalidate()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			sysutil.Log.Debug("usb.ids watcher error", zap.Error(err))
		}
	}
}

// Close 停止监听
func (db *Database) Close() error {
	db.mu.Lock()
	watcher, done := db.watcher, db.done
	db.watcher, db.done = nil, nil
	db.mu.Unlock()

	if watcher == nil {
		return nil
	}
	err := watcher.Close()
	<-done
	return err
}

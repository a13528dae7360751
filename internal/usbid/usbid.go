// Package usbid 把 USB 厂商/产品 ID 解析为 usb.ids 数据库中的名称。
//
// 默认每次查询都重新打开并顺序扫描数据库文件；EnableCache 之后整个文件只解析一次，
// Watch 会在文件变化时丢弃缓存。数据库不可用时查询返回空名称，不是错误。
package usbid

import (
	"sync"

	"github.com/Hara602/devq/internal/sysutil"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultPaths usb.ids 的常见位置，按顺序使用第一个能打开的文件
var DefaultPaths = []string{
	"/usr/local/share/usbids/usb.ids",
	"/usr/share/misc/usb.ids",
	"/usr/share/hwdata/usb.ids",
	"/var/lib/usbutils/usb.ids",
	"/usr/local/share/usbids/usb.ids.gz",
	"/usr/share/hwdata/usb.ids.gz",
}

// Database USB ID 数据库
type Database struct {
	paths []string

	mu      sync.RWMutex
	caching bool
	cache   *table
	gen     uint64 // 每次 Invalidate 递增，防止旧内容覆盖新缓存
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// New 使用默认路径
func New() *Database {
	return NewWithPaths(DefaultPaths)
}

// NewWithPaths 使用指定路径
func NewWithPaths(paths []string) *Database {
	return &Database{paths: append([]string(nil), paths...)}
}

// EnableCache 打开缓存：第一次查询时解析整个数据库并保留在内存中
func (db *Database) EnableCache() {
	db.mu.Lock()
	db.caching = true
	db.mu.Unlock()
}

// Invalidate 丢弃已解析的缓存，下一次查询重新读取文件
func (db *Database) Invalidate() {
	db.mu.Lock()
	db.cache = nil
	db.gen++
	db.mu.Unlock()
}

// Lookup 返回厂商名和产品名，找不到的字段为空字符串
func (db *Database) Lookup(vid, pid uint16) (vendor, product string) {
	db.mu.RLock()
	caching, cache := db.caching, db.cache
	db.mu.RUnlock()

	if caching {
		if cache == nil {
			cache = db.load()
			if cache == nil {
				return "", ""
			}
		}
		return cache.lookup(vid, pid)
	}

	for _, path := range db.paths {
		rc, err := openDatabase(path)
		if err != nil {
			continue
		}
		vendor, product = scan(rc, vid, pid)
		rc.Close()
		return vendor, product
	}
	sysutil.Log.Debug("usb.ids not available", zap.Strings("paths", db.paths))
	return "", ""
}

// load 解析第一个能打开的数据库文件并存入缓存
func (db *Database) load() *table {
	db.mu.RLock()
	gen := db.gen
	db.mu.RUnlock()

	for _, path := range db.paths {
		rc, err := openDatabase(path)
		if err != nil {
			continue
		}
		t := parseTable(rc)
		rc.Close()

		db.mu.Lock()
		if db.gen == gen {
			db.cache = t
		}
		db.mu.Unlock()
		sysutil.Log.Debug("usb.ids loaded",
			zap.String("path", path),
			zap.Int("vendors", len(t.vendors)),
			zap.Int("products", len(t.products)))
		return t
	}
	sysutil.Log.Debug("usb.ids not available", zap.Strings("paths", db.paths))
	return nil
}

// Available 是否至少有一个数据库文件可以打开
func (db *Database) Available() bool {
	for _, path := range db.paths {
		rc, err := openDatabase(path)
		if err == nil {
			rc.Close()
			return true
		}
	}
	return false
}

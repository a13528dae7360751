// Package journal 把设备事件记录到 SQLite，并提供按厂商/产品 ID 忽略设备的规则。
package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Hara602/devq/internal/model"
	_ "modernc.org/sqlite"
)

// Entry 一条事件记录
type Entry struct {
	ID        int64
	Kind      model.EventKind
	Raw       string
	Path      string
	Driver    string
	Type      model.DeviceType
	Class     model.DeviceClass
	VendorID  string // vvvv，没有 ID 时为空
	ProductID string
	Vendor    string
	Product   string
	Time      time.Time
}

type Journal struct {
	db *sql.DB
}

// Open 打开数据库并初始化表结构
func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// 只有一个写入者，避免 database is locked
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind INTEGER NOT NULL,
		raw TEXT NOT NULL,
		path TEXT,
		driver TEXT,
		type INTEGER,
		class INTEGER,
		vid TEXT,
		pid TEXT,
		vendor TEXT,
		product TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_path ON events(path);

	-- 联合主键 (vid, pid) 防止重复
	CREATE TABLE IF NOT EXISTS ignore_rules (
		vid TEXT,
		pid TEXT,
		reason TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (vid, pid)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &Journal{db: db}, nil
}

// Record 写入一条事件，dev 可以为 nil
func (j *Journal) Record(kind model.EventKind, raw string, dev *model.Device, at time.Time) error {
	var path, driver, vid, pid, vendor, product string
	var typ model.DeviceType
	var class model.DeviceClass
	if dev != nil {
		path, driver = dev.Path, dev.Driver
		typ, class = dev.Type, dev.Class
		vendor, product = dev.Vendor, dev.Product
		if dev.HasIDs {
			vid, pid = hexID(dev.VendorID), hexID(dev.ProductID)
		}
	}

	_, err := j.db.Exec(
		`INSERT INTO events(kind, raw, path, driver, type, class, vid, pid, vendor, product, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int(kind), raw, path, driver, int(typ), int(class), vid, pid, vendor, product, at.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// Recent 按时间倒序返回最近的 limit 条记录
func (j *Journal) Recent(limit int) ([]Entry, error) {
	rows, err := j.db.Query(
		`SELECT id, kind, raw, path, driver, type, class, vid, pid, vendor, product, created_at
		FROM events ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kind, typ, class int
		var nanos int64
		if err := rows.Scan(&e.ID, &kind, &e.Raw, &e.Path, &e.Driver, &typ, &class,
			&e.VendorID, &e.ProductID, &e.Vendor, &e.Product, &nanos); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Kind = model.EventKind(kind)
		e.Type = model.DeviceType(typ)
		e.Class = model.DeviceClass(class)
		e.Time = time.Unix(0, nanos)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AddIgnoreRule 添加忽略规则，已存在时不覆盖
func (j *Journal) AddIgnoreRule(vid, pid uint16, reason string) error {
	_, err := j.db.Exec(
		"INSERT OR IGNORE INTO ignore_rules(vid, pid, reason) VALUES (?, ?, ?)",
		hexID(vid), hexID(pid), reason,
	)
	if err != nil {
		return fmt.Errorf("failed to add ignore rule: %w", err)
	}
	return nil
}

// IsIgnored 设备是否命中忽略规则，没有数字 ID 的设备不会被忽略
func (j *Journal) IsIgnored(dev *model.Device) (bool, string) {
	if dev == nil || !dev.HasIDs {
		return false, ""
	}

	var reason string
	err := j.db.QueryRow(
		"SELECT reason FROM ignore_rules WHERE vid = ? AND pid = ?",
		hexID(dev.VendorID), hexID(dev.ProductID),
	).Scan(&reason)
	if err != nil {
		// sql.ErrNoRows 或查询失败都按不忽略处理
		return false, ""
	}
	return true, reason
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func hexID(v uint16) string {
	return fmt.Sprintf("%04x", v)
}

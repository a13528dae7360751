package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Hara602/devq/internal/usbid"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.SocketPath != "/var/run/devd.pipe" {
		t.Errorf("SocketPath = %q", cfg.SocketPath)
	}
	if !reflect.DeepEqual(cfg.USBIDsFiles, usbid.DefaultPaths) {
		t.Errorf("USBIDsFiles = %v", cfg.USBIDsFiles)
	}
	if cfg.JournalFile != "" || cfg.LogLevel != "info" || cfg.USBIDsCache {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	// 修改副本不能影响包级默认值
	cfg.USBIDsFiles[0] = "changed"
	if usbid.DefaultPaths[0] == "changed" {
		t.Error("DefaultConfig shares the usbid.DefaultPaths slice")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devq.ini")
	content := `; devq configuration
Socket = /tmp/devd.pipe
usbids = /a/usb.ids, /b/usb.ids.gz
USBIDSCACHE = true
usbidswatch = yes
journal = /var/db/devq.db
loglevel = debug
dridir = /dev/drm
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.SocketPath != "/tmp/devd.pipe" {
		t.Errorf("SocketPath = %q", cfg.SocketPath)
	}
	if want := []string{"/a/usb.ids", "/b/usb.ids.gz"}; !reflect.DeepEqual(cfg.USBIDsFiles, want) {
		t.Errorf("USBIDsFiles = %q, want %q", cfg.USBIDsFiles, want)
	}
	if !cfg.USBIDsCache || !cfg.USBIDsWatch {
		t.Errorf("cache/watch = %v/%v, want true/true", cfg.USBIDsCache, cfg.USBIDsWatch)
	}
	if cfg.JournalFile != "/var/db/devq.db" || cfg.LogLevel != "debug" {
		t.Errorf("journal/loglevel = %q/%q", cfg.JournalFile, cfg.LogLevel)
	}
	if cfg.DRIDir != "/dev/drm" {
		t.Errorf("DRIDir = %q", cfg.DRIDir)
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.LoadFromFile("/nonexistent/devq.ini"); err == nil {
		t.Error("expected an error for a missing file")
	}
	if cfg.SocketPath != "/var/run/devd.pipe" {
		t.Error("defaults should survive a failed load")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devq.ini")
	if err := os.WriteFile(path, []byte("socket = /from/file\njournal = /from/file.db\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DEVQ_SOCKET", "/from/env")
	t.Setenv("DEVQ_USBIDS", "/x/usb.ids,, /y/usb.ids ")
	t.Setenv("DEVQ_USBIDSCACHE", "true")
	t.Setenv("DEVQ_LOGLEVEL", "warn")

	cfg, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SocketPath != "/from/env" {
		t.Errorf("SocketPath = %q, want env value", cfg.SocketPath)
	}
	if cfg.JournalFile != "/from/file.db" {
		t.Errorf("JournalFile = %q, want file value", cfg.JournalFile)
	}
	if want := []string{"/x/usb.ids", "/y/usb.ids"}; !reflect.DeepEqual(cfg.USBIDsFiles, want) {
		t.Errorf("USBIDsFiles = %q, want %q", cfg.USBIDsFiles, want)
	}
	if !cfg.USBIDsCache || cfg.LogLevel != "warn" {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestNewWithoutFile(t *testing.T) {
	cfg, err := New("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DRIDir != "/dev/dri" || cfg.USBIDsWatch {
		t.Errorf("unexpected config without file: %+v", cfg)
	}
}

func TestNewMissingFileUsesDefaults(t *testing.T) {
	cfg, err := New(filepath.Join(t.TempDir(), "absent.ini"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if cfg.SocketPath != "/var/run/devd.pipe" {
		t.Errorf("SocketPath = %q", cfg.SocketPath)
	}
}

func TestNewMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devq.ini")
	if err := os.WriteFile(path, []byte("[unclosed\nsocket = /x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path); err == nil {
		t.Error("expected an error for a malformed file")
	}
}

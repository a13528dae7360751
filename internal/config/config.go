package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/Hara602/devq/internal/sysutil"
	"github.com/Hara602/devq/internal/usbid"
	"go.uber.org/zap"
	"gopkg.in/ini.v1"
)

// DefaultFile 默认配置文件
const DefaultFile = "/usr/local/etc/devq.ini"

// Config holds all application configuration
type Config struct {
	// devd 通知 socket
	SocketPath string

	// usb.ids 查找路径，按顺序使用第一个能打开的
	USBIDsFiles []string
	USBIDsCache bool
	USBIDsWatch bool

	// 事件日志数据库，空字符串表示不记录
	JournalFile string

	LogLevel string

	// lsdri 默认扫描的目录
	DRIDir string
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		SocketPath:  "/var/run/devd.pipe",
		USBIDsFiles: append([]string(nil), usbid.DefaultPaths...),
		USBIDsCache: false,
		USBIDsWatch: false,
		JournalFile: "",
		LogLevel:    "info",
		DRIDir:      "/dev/dri",
	}
}

// LoadFromFile loads configuration from INI file
func (c *Config) LoadFromFile(filename string) error {
	cfg, err := ini.LoadSources(ini.LoadOptions{Insensitive: true}, filename)
	if err != nil {
		sysutil.Log.Debug("skipping config file", zap.String("file", filename), zap.Error(err))
		return err
	}

	section := cfg.Section("")
	c.SocketPath = section.Key("socket").MustString(c.SocketPath)
	if files := section.Key("usbids").Strings(","); len(files) > 0 {
		c.USBIDsFiles = files
	}
	c.USBIDsCache = section.Key("usbidscache").MustBool(c.USBIDsCache)
	c.USBIDsWatch = section.Key("usbidswatch").MustBool(c.USBIDsWatch)
	c.JournalFile = section.Key("journal").MustString(c.JournalFile)
	c.LogLevel = section.Key("loglevel").MustString(c.LogLevel)
	c.DRIDir = section.Key("dridir").MustString(c.DRIDir)

	return nil
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("DEVQ_SOCKET"); v != "" {
		c.SocketPath = v
	}
	if v := os.Getenv("DEVQ_USBIDS"); v != "" {
		c.USBIDsFiles = splitList(v)
	}
	if v := os.Getenv("DEVQ_USBIDSCACHE"); v != "" {
		c.USBIDsCache, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("DEVQ_USBIDSWATCH"); v != "" {
		c.USBIDsWatch, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("DEVQ_JOURNAL"); v != "" {
		c.JournalFile = v
	}
	if v := os.Getenv("DEVQ_LOGLEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("DEVQ_DRIDIR"); v != "" {
		c.DRIDir = v
	}
}

// New creates a new configuration instance
func New(configFile string) (*Config, error) {
	cfg := DefaultConfig()

	// 配置文件不存在不是错误，格式错误才是
	if configFile != "" {
		if err := cfg.LoadFromFile(configFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", configFile, err)
		}
	}

	// Override with environment variables
	cfg.LoadFromEnv()

	return cfg, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

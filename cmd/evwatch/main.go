package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Hara602/devq/internal/config"
	"github.com/Hara602/devq/internal/event"
	"github.com/Hara602/devq/internal/journal"
	"github.com/Hara602/devq/internal/model"
	"github.com/Hara602/devq/internal/monitor"
	"github.com/Hara602/devq/internal/sysutil"
	"github.com/Hara602/devq/internal/usbid"
	"github.com/Hara602/devq/internal/watcher"
	"go.uber.org/zap"
)

func main() {
	verbose := flag.Bool("v", false, "print the raw devd line")
	details := flag.Bool("d", false, "print the parsed device record")
	configFile := flag.String("config", config.DefaultFile, "configuration file")
	journalFile := flag.String("journal", "", "record events to this SQLite database")
	ignore := flag.String("ignore", "", "add an ignore rule vvvv:pppp to the journal")
	flag.Parse()

	cfg, err := config.New(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *journalFile != "" {
		cfg.JournalFile = *journalFile
	}

	// 初始化日志
	sysutil.InitLogger(cfg.LogLevel)
	defer sysutil.Log.Sync()

	ids := usbid.NewWithPaths(cfg.USBIDsFiles)
	if cfg.USBIDsCache {
		ids.EnableCache()
	}
	if cfg.USBIDsWatch {
		if err := ids.Watch(); err != nil {
			sysutil.Log.Warn("usb.ids watch disabled", zap.Error(err))
		}
	}
	defer ids.Close()

	var jr *journal.Journal
	if cfg.JournalFile != "" {
		var err error
		jr, err = journal.Open(cfg.JournalFile)
		if err != nil {
			sysutil.Log.Fatal("Journal init failed", zap.Error(err))
		}
		defer jr.Close()
	}

	if *ignore != "" {
		if jr == nil {
			sysutil.Log.Fatal("-ignore requires a journal")
		}
		vid, pid, err := parseIDPair(*ignore)
		if err != nil {
			sysutil.Log.Fatal("Bad ignore rule", zap.String("rule", *ignore), zap.Error(err))
		}
		if err := jr.AddIgnoreRule(vid, pid, "added by evwatch"); err != nil {
			sysutil.Log.Fatal("Adding ignore rule failed", zap.Error(err))
		}
	}

	devWatcher := watcher.New(
		monitor.WithSocketPath(cfg.SocketPath),
		monitor.WithResolver(ids),
	)
	events, err := devWatcher.Start()
	if err != nil {
		sysutil.Log.Fatal("Watcher init failed", zap.Error(err))
	}
	defer devWatcher.Stop()

	// 捕获操作系统信号，优雅退出
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				if err := devWatcher.Err(); err != nil {
					sysutil.Log.Info("devd stream ended", zap.Error(err))
				}
				return
			}
			handle(ev, jr, *verbose, *details)

		case <-sigCh:
			sysutil.Log.Info("Shutting down...")
			return
		}
	}
}

func handle(ev *event.Event, jr *journal.Journal, verbose, details bool) {
	dev, hasDev := ev.Device()

	if jr != nil {
		if ignored, reason := jr.IsIgnored(dev); ignored {
			sysutil.Log.Debug("ignored device", zap.String("path", dev.Path), zap.String("reason", reason))
			return
		}
		if err := jr.Record(ev.Kind(), ev.Raw(), dev, time.Now()); err != nil {
			sysutil.Log.Error("Journal write failed", zap.Error(err))
		}
	}

	switch ev.Kind() {
	case model.KindAttached:
		fmt.Println("New device attached")
	case model.KindDetached:
		fmt.Println("A device has been detached")
	case model.KindNotice:
		fmt.Println("Notice received")
	default:
		fmt.Println("Unknown event")
	}

	if verbose {
		fmt.Println(ev.Raw())
	}
	if details && hasDev {
		fmt.Printf("    path=%s driver=%s class=%s type=%s", dev.Path, dev.Driver, dev.Class, dev.Type)
		if dev.HasIDs {
			fmt.Printf(" id=%s", dev.IDString())
		}
		if dev.Vendor != "" {
			fmt.Printf(" vendor=%q", dev.Vendor)
		}
		if dev.Product != "" {
			fmt.Printf(" product=%q", dev.Product)
		}
		fmt.Println()
	}
}

// parseIDPair 解析 "046d:c52b"
func parseIDPair(s string) (uint16, uint16, error) {
	v, p, found := strings.Cut(s, ":")
	if !found {
		return 0, 0, fmt.Errorf("expected vvvv:pppp")
	}
	vid, err := strconv.ParseUint(strings.TrimPrefix(v, "0x"), 16, 16)
	if err != nil {
		return 0, 0, err
	}
	pid, err := strconv.ParseUint(strings.TrimPrefix(p, "0x"), 16, 16)
	if err != nil {
		return 0, 0, err
	}
	return uint16(vid), uint16(pid), nil
}

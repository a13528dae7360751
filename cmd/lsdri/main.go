package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Hara602/devq/internal/config"
	"github.com/Hara602/devq/internal/devinfo"
	"github.com/Hara602/devq/internal/sysutil"
	"go.uber.org/zap"
)

func main() {
	configFile := flag.String("config", config.DefaultFile, "configuration file")
	flag.Parse()

	cfg, err := config.New(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	sysutil.InitLogger(cfg.LogLevel)
	defer sysutil.Log.Sync()

	paths := flag.Args()
	if len(paths) == 0 {
		entries, err := os.ReadDir(cfg.DRIDir)
		if err != nil {
			sysutil.Log.Fatal("Cannot list DRI devices", zap.String("dir", cfg.DRIDir), zap.Error(err))
		}
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), ".") {
				continue
			}
			paths = append(paths, filepath.Join(cfg.DRIDir, e.Name()))
		}
	}

	for _, path := range paths {
		if err := printDRMInfo(path); err != nil {
			sysutil.Log.Error("Query failed", zap.String("device", path), zap.Error(err))
		}
	}
}

func printDRMInfo(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	fd := int(f.Fd())

	devPath, err := devinfo.DevicePath(fd)
	if err != nil {
		return fmt.Errorf("device path: %w", err)
	}
	fmt.Printf("%s:\n", devPath)

	name, _, err := devinfo.DRMDriverName(fd)
	if err != nil {
		return fmt.Errorf("driver name: %w", err)
	}
	fmt.Printf("    Driver name:   %s\n", name)

	id, err := devinfo.PCIIDFromFD(fd)
	if err != nil {
		return fmt.Errorf("pci id: %w", err)
	}
	fmt.Printf("    PCI vendor ID: %04x\n", id.Vendor)
	fmt.Printf("    PCI device ID: %04x\n", id.Device)
	if id.SubVendor != 0 || id.SubDevice != 0 {
		fmt.Printf("    PCI subsystem: %04x:%04x\n", id.SubVendor, id.SubDevice)
	}
	return nil
}

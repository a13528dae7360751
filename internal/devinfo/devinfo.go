// Package devinfo 通过 sysctl 和 fstat 查询文件描述符对应的设备信息：
// 设备路径、DRM 驱动名和 PCI ID。只在 FreeBSD 上实现。
package devinfo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxDevs hw.dri.N 和 dev.vgapci.N 的遍历上限
const MaxDevs = 16

var (
	ErrNotSupported = errors.New("device query not supported on this platform")
	ErrNotFound     = errors.New("device not found")
	ErrNotCharDev   = errors.New("not a character device")
)

// PCIID PCI 设备标识
type PCIID struct {
	Vendor    uint16
	Device    uint16
	SubVendor uint16
	SubDevice uint16
}

// BusID hw.dri.N.busid 中的 PCI 位置
type BusID struct {
	Domain, Bus, Slot, Function int
}

// ParseDRMName 解析 hw.dri.N.name，例如 "radeon 0x9b" 或 "i915 0xe200 pci:0000:00:02.0"
func ParseDRMName(v string) (name string, rdev uint64, ok bool) {
	fields := strings.Fields(v)
	if len(fields) < 2 {
		return "", 0, false
	}
	// 与 strtol(..., 16) 一样，0x 前缀可有可无
	dev, err := strconv.ParseUint(strings.TrimPrefix(fields[1], "0x"), 16, 64)
	if err != nil {
		return "", 0, false
	}
	return fields[0], dev, true
}

// ParseBusID 解析 "pci:%d:%d:%d.%d"
func ParseBusID(v string) (BusID, error) {
	var b BusID
	n, err := fmt.Sscanf(v, "pci:%d:%d:%d.%d", &b.Domain, &b.Bus, &b.Slot, &b.Function)
	if err != nil || n != 4 {
		return BusID{}, fmt.Errorf("%w: bad busid %q", ErrNotFound, v)
	}
	return b, nil
}

// ParseLocation 解析 dev.vgapci.N.%location，例如 "slot=2 function=0 dbsf=pci0:0:2:0"
func ParseLocation(v string) (slot, function int, ok bool) {
	n, err := fmt.Sscanf(v, "slot=%d function=%d", &slot, &function)
	return slot, function, err == nil && n == 2
}

// ParseParent 解析 dev.vgapci.N.%parent，例如 "pci1"
func ParseParent(v string) (bus int, ok bool) {
	n, err := fmt.Sscanf(v, "pci%d", &bus)
	return bus, err == nil && n == 1
}

// ParsePNPInfo 解析 dev.vgapci.N.%pnpinfo。vendor 和 device 必须存在，subvendor/subdevice 可选。
func ParsePNPInfo(v string) (PCIID, error) {
	var id PCIID
	var haveVendor, haveDevice bool
	for _, field := range strings.Fields(v) {
		key, value, found := strings.Cut(field, "=")
		if !found {
			continue
		}
		var x uint16
		if _, err := fmt.Sscanf(value, "0x%x", &x); err != nil {
			continue
		}
		switch key {
		case "vendor":
			id.Vendor, haveVendor = x, true
		case "device":
			id.Device, haveDevice = x, true
		case "subvendor":
			id.SubVendor = x
		case "subdevice":
			id.SubDevice = x
		}
	}
	if !haveVendor || !haveDevice {
		return PCIID{}, fmt.Errorf("%w: bad pnpinfo %q", ErrNotFound, v)
	}
	return id, nil
}

//go:build freebsd

package devinfo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Hara602/devq/internal/sysutil"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// 按顺序扫描，/dev/dri 下的节点通常指向 /dev/drm
var devDirs = []string{"/dev/dri", "/dev/drm", "/dev"}

func charDevRdev(fd int) (uint64, error) {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return 0, err
	}
	if st.Mode&unix.S_IFMT != unix.S_IFCHR {
		return 0, ErrNotCharDev
	}
	return uint64(st.Rdev), nil
}

// DevicePath 在 /dev 下查找与 fd 相同 rdev 的字符设备
func DevicePath(fd int) (string, error) {
	rdev, err := charDevRdev(fd)
	if err != nil {
		return "", err
	}

	for _, dir := range devDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			path := filepath.Join(dir, e.Name())
			var st unix.Stat_t
			if err := unix.Stat(path, &st); err != nil {
				continue
			}
			if st.Mode&unix.S_IFMT == unix.S_IFCHR && uint64(st.Rdev) == rdev {
				return path, nil
			}
		}
	}
	return "", fmt.Errorf("%w: no /dev node for rdev %#x", ErrNotFound, rdev)
}

// DRMDriverName 遍历 hw.dri.N.name，返回驱动名和 N
func DRMDriverName(fd int) (string, int, error) {
	rdev, err := charDevRdev(fd)
	if err != nil {
		return "", -1, err
	}

	for i := 0; i < MaxDevs; i++ {
		v, err := unix.Sysctl(fmt.Sprintf("hw.dri.%d.name", i))
		if err != nil {
			continue
		}
		name, dev, ok := ParseDRMName(v)
		if !ok {
			sysutil.Log.Debug("unparsable drm name", zap.Int("index", i), zap.String("value", v))
			continue
		}
		if dev == rdev {
			return name, i, nil
		}
	}
	return "", -1, fmt.Errorf("%w: no hw.dri entry for rdev %#x", ErrNotFound, rdev)
}

// PCIIDFromFD 通过 hw.dri.N.busid 找到对应的 dev.vgapci.M，读取 pnpinfo
func PCIIDFromFD(fd int) (PCIID, error) {
	_, dri, err := DRMDriverName(fd)
	if err != nil {
		return PCIID{}, err
	}

	v, err := unix.Sysctl(fmt.Sprintf("hw.dri.%d.busid", dri))
	if err != nil {
		return PCIID{}, err
	}
	bus, err := ParseBusID(v)
	if err != nil {
		return PCIID{}, err
	}

	for i := 0; i < MaxDevs; i++ {
		loc, err := unix.Sysctl(fmt.Sprintf("dev.vgapci.%d.%%location", i))
		if err != nil {
			continue
		}
		slot, function, ok := ParseLocation(loc)
		if !ok || slot != bus.Slot || function != bus.Function {
			continue
		}

		parent, err := unix.Sysctl(fmt.Sprintf("dev.vgapci.%d.%%parent", i))
		if err != nil {
			continue
		}
		if pbus, ok := ParseParent(parent); !ok || pbus != bus.Bus {
			continue
		}

		pnp, err := unix.Sysctl(fmt.Sprintf("dev.vgapci.%d.%%pnpinfo", i))
		if err != nil {
			return PCIID{}, err
		}
		return ParsePNPInfo(pnp)
	}
	return PCIID{}, fmt.Errorf("%w: no vgapci device at %+v", ErrNotFound, bus)
}

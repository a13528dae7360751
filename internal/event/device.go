package event

import (
	"strconv"
	"strings"

	"github.com/Hara602/devq/internal/model"
	"github.com/Hara602/devq/internal/sysutil"
	"go.uber.org/zap"
)

// driverType 驱动名前缀到设备类型的映射
type driverType struct {
	prefix string
	typ    model.DeviceType
	class  model.DeviceClass
}

// 按顺序匹配，第一个命中的生效
var driverTypes = []driverType{
	{"atkbd", model.TypeKeyboard, model.ClassInput},
	{"kbdmux", model.TypeKeyboard, model.ClassInput},
	{"ukbd", model.TypeKeyboard, model.ClassInput},
	{"hkbd", model.TypeKeyboard, model.ClassInput},
	{"psm", model.TypeMouse, model.ClassInput},
	{"ums", model.TypeMouse, model.ClassInput},
	{"hms", model.TypeMouse, model.ClassInput},
	{"mse", model.TypeMouse, model.ClassInput},
	{"sysmouse", model.TypeMouse, model.ClassInput},
	{"joy", model.TypeJoystick, model.ClassInput},
	{"hgame", model.TypeJoystick, model.ClassInput},
	{"xb360gp", model.TypeJoystick, model.ClassInput},
	{"atp", model.TypeTouchpad, model.ClassInput},
	{"wsp", model.TypeTouchpad, model.ClassInput},
	{"hmt", model.TypeTouchscreen, model.ClassInput},
	{"uep", model.TypeTouchscreen, model.ClassInput},
}

const (
	devPrefix     = "/dev/"
	vendorMarker  = "vendor="
	productMarker = "product="
)

// extract 解析 attach/detach 行，其他事件返回 nil。格式异常只会导致字段缺失，不会失败。
func extract(kind model.EventKind, raw string, resolver NameResolver) *model.Device {
	if kind != model.KindAttached && kind != model.KindDetached {
		return nil
	}

	// 去掉行首字符，取到第一个空白为止
	body := raw[1:]
	token := body
	if i := strings.IndexAny(body, " \t\r\n\v\f"); i >= 0 {
		token = body[:i]
	}
	if token == "" {
		return nil
	}

	dev := &model.Device{Path: devPrefix + token}
	dev.Driver, dev.Type, dev.Class = classifyDriver(token)

	// 在整行里查找，而不仅是设备名部分
	vid, vok := parseID(raw, vendorMarker)
	pid, pok := parseID(raw, productMarker)
	if vok && pok {
		dev.VendorID, dev.ProductID, dev.HasIDs = vid, pid, true
	}

	// 以 u 开头的是 USB 驱动
	if dev.HasIDs && resolver != nil && strings.HasPrefix(dev.Driver, "u") {
		dev.Vendor, dev.Product = resolver.Lookup(vid, pid)
		sysutil.Log.Debug("usb names resolved",
			zap.String("driver", dev.Driver),
			zap.String("id", dev.IDString()),
			zap.String("vendor", dev.Vendor),
			zap.String("product", dev.Product))
	}
	return dev
}

// classifyDriver 查表，前缀后面必须紧跟数字；没有命中时去掉末尾数字作为驱动名
func classifyDriver(token string) (string, model.DeviceType, model.DeviceClass) {
	for _, row := range driverTypes {
		if strings.HasPrefix(token, row.prefix) &&
			len(token) > len(row.prefix) && isDigit(token[len(row.prefix)]) {
			return row.prefix, row.typ, row.class
		}
	}

	driver := strings.TrimRight(token, "0123456789")
	if driver == "" {
		// 全是数字时保留原样，驱动名不能为空
		driver = token
	}
	return driver, model.TypeUnknown, model.ClassUnknown
}

// parseID 读取 marker 后面的 0x 十六进制值，必须能放进 16 位
func parseID(raw, marker string) (uint16, bool) {
	i := strings.Index(raw, marker)
	if i < 0 {
		return 0, false
	}
	rest := raw[i+len(marker):]
	if len(rest) < 2 || rest[0] != '0' || (rest[1] != 'x' && rest[1] != 'X') {
		return 0, false
	}
	rest = rest[2:]

	n := 0
	for n < len(rest) && isHex(rest[n]) {
		n++
	}
	if n == 0 {
		return 0, false
	}
	v, err := strconv.ParseUint(rest[:n], 16, 16)
	if err != nil {
		return 0, false
	}
	return uint16(v), true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

package model

import "fmt"

// EventKind devd 通知行的事件类型，由行首字符决定
type EventKind int

const (
	KindUnknown EventKind = iota
	KindAttached
	KindDetached
	KindNotice
)

func (k EventKind) String() string {
	switch k {
	case KindAttached:
		return "attached"
	case KindDetached:
		return "detached"
	case KindNotice:
		return "notice"
	default:
		return "unknown"
	}
}

// DeviceType 输入设备的具体类型
type DeviceType int

const (
	TypeUnknown DeviceType = iota
	TypeKeyboard
	TypeMouse
	TypeJoystick
	TypeTouchpad
	TypeTouchscreen
)

func (t DeviceType) String() string {
	switch t {
	case TypeKeyboard:
		return "keyboard"
	case TypeMouse:
		return "mouse"
	case TypeJoystick:
		return "joystick"
	case TypeTouchpad:
		return "touchpad"
	case TypeTouchscreen:
		return "touchscreen"
	default:
		return "unknown"
	}
}

// DeviceClass 设备大类
type DeviceClass int

const (
	ClassUnknown DeviceClass = iota
	ClassInput
)

func (c DeviceClass) String() string {
	if c == ClassInput {
		return "input"
	}
	return "unknown"
}

// Device 从 attach/detach 事件中解析出的设备信息
type Device struct {
	Type   DeviceType
	Class  DeviceClass
	Path   string // e.g., /dev/ums0
	Driver string // e.g., ums

	// 行内同时出现 vendor=0x.... 和 product=0x.... 时 HasIDs 为 true
	VendorID  uint16
	ProductID uint16
	HasIDs    bool

	// usb.ids 中查到的名称，空字符串表示没有
	Vendor  string
	Product string
}

// IDString 以 vvvv:pppp 形式返回数字 ID，没有 ID 时返回空字符串
func (d *Device) IDString() string {
	if d == nil || !d.HasIDs {
		return ""
	}
	return fmt.Sprintf("%04x:%04x", d.VendorID, d.ProductID)
}

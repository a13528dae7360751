package event

import (
	"github.com/Hara602/devq/internal/model"
)

// devd 通知行的行首字符
const (
	sigilAttach = '+'
	sigilDetach = '-'
	sigilNotice = '!'
)

// NameResolver 把 USB 厂商/产品 ID 解析为名称，usbid.Database 实现了这个接口
type NameResolver interface {
	Lookup(vid, pid uint16) (vendor, product string)
}

// Event 一条 devd 通知，原始行创建后不再修改
type Event struct {
	kind     model.EventKind
	raw      string
	resolver NameResolver

	device    *model.Device
	extracted bool
}

// New 对一行通知分类。resolver 可以为 nil，此时不做 USB 名称查询。
func New(line string, resolver NameResolver) *Event {
	return &Event{
		kind:     Classify(line),
		raw:      line,
		resolver: resolver,
	}
}

// Classify 只看第一个字符
func Classify(line string) model.EventKind {
	if line == "" {
		return model.KindUnknown
	}
	switch line[0] {
	case sigilAttach:
		return model.KindAttached
	case sigilDetach:
		return model.KindDetached
	case sigilNotice:
		return model.KindNotice
	default:
		return model.KindUnknown
	}
}

func (e *Event) Kind() model.EventKind { return e.kind }

// Raw 返回原始通知行（不含换行符）
func (e *Event) Raw() string { return e.raw }

// Device 第一次调用时解析设备信息并缓存，之后直接返回缓存的结果。
// 只有 attach/detach 事件才有设备。
func (e *Event) Device() (*model.Device, bool) {
	if !e.extracted {
		e.device = extract(e.kind, e.raw, e.resolver)
		e.extracted = true
	}
	return e.device, e.device != nil
}

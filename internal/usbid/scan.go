package usbid

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// parseEntry 解析 "xxxx  Name" 形式的记录（已去掉行首缩进）
func parseEntry(s string) (uint16, string, bool) {
	if len(s) < 5 {
		return 0, "", false
	}
	id, err := strconv.ParseUint(s[:4], 16, 16)
	if err != nil {
		return 0, "", false
	}
	if s[4] != ' ' && s[4] != '\t' {
		return 0, "", false
	}
	name := strings.TrimSpace(s[5:])
	if name == "" {
		return 0, "", false
	}
	return uint16(id), name, true
}

// isIndented 产品行以空白开头
func isIndented(line string) bool {
	return line[0] == '\t' || line[0] == ' '
}

// scan 顺序扫描数据库：先匹配厂商行，再在该厂商范围内匹配产品行。
// 两者都找到、厂商范围结束或文件结束时停止。
func scan(r io.Reader, vid, pid uint16) (vendor, product string) {
	scanner := bufio.NewScanner(r)
	inVendor := false

	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		if !isIndented(line) {
			// 顶格行开始一个新的范围，已匹配的厂商范围到此结束
			if inVendor {
				return vendor, product
			}
			if id, name, ok := parseEntry(line); ok && id == vid {
				vendor = name
				inVendor = true
			}
			continue
		}

		if !inVendor {
			continue
		}
		if id, name, ok := parseEntry(strings.TrimLeft(line, " \t")); ok && id == pid {
			product = name
			return vendor, product
		}
	}
	return vendor, product
}

// table 是整个数据库解析后的缓存
type table struct {
	vendors  map[uint16]string // VID -> vendor name
	products map[uint32]string // (VID<<16)|PID -> product name
}

func (t *table) lookup(vid, pid uint16) (string, string) {
	vendor, ok := t.vendors[vid]
	if !ok {
		return "", ""
	}
	return vendor, t.products[uint32(vid)<<16|uint32(pid)]
}

// parseTable 解析全部记录。重复的厂商块只保留第一个，与 scan 的首个匹配语义一致。
func parseTable(r io.Reader) *table {
	t := &table{
		vendors:  make(map[uint16]string),
		products: make(map[uint32]string),
	}
	scanner := bufio.NewScanner(r)
	var currentVID uint16
	active := false

	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		if !isIndented(line) {
			active = false
			id, name, ok := parseEntry(line)
			if !ok {
				continue
			}
			if _, seen := t.vendors[id]; seen {
				continue
			}
			t.vendors[id] = name
			currentVID = id
			active = true
			continue
		}

		if !active {
			continue
		}
		id, name, ok := parseEntry(strings.TrimLeft(line, " \t"))
		if !ok {
			continue
		}
		key := uint32(currentVID)<<16 | uint32(id)
		if _, seen := t.products[key]; !seen {
			t.products[key] = name
		}
	}
	return t
}

// Package idgen 生成进程内严格递增的时间戳 ID，用于存储文件名与对比报告 ID。
package idgen

import (
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Generator 以纳秒时间戳为基础生成 ID；时钟回拨或同一纳秒内的多次调用退化为 +1。
type Generator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// New 创建一个使用系统时钟的 Generator。
func New() *Generator {
	return &Generator{now: time.Now}
}

// NewWithClock 创建一个使用指定时钟的 Generator，主要用于测试。
func NewWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Next 返回下一个 ID，保证大于此前返回的所有值。
func (g *Generator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := g.now().UnixNano()
	if n <= g.last {
		n = g.last + 1
	}
	g.last = n
	return n
}

// NextString 返回十进制字符串形式的下一个 ID。
func (g *Generator) NextString() string {
	return strconv.FormatInt(g.Next(), 10)
}

// StorageID 以下一个 ID 加上原文件扩展名（小写）组成存储名，
// 同名文件多次上传也不会冲突。
func (g *Generator) StorageID(originalName string) string {
	return g.NextString() + strings.ToLower(filepath.Ext(originalName))
}

var defaultGenerator = New()

// Default 返回进程级默认 Generator。
func Default() *Generator {
	return defaultGenerator
}

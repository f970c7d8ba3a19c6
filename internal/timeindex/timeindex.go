// Package timeindex 提供序列资源时间索引的构建与解析
package timeindex

import (
	"fmt"
	"strings"
	"time"
)

// Layout 时间索引的统一文本格式
const Layout = "2006-01-02 15:04:05"

// Parse 解析时间戳，接受完整格式或仅日期
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(Layout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %q", s)
}

// Format 输出统一格式的时间戳
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Hourly 生成小时分辨率时间索引：含起点的半开区间，共 periods 个点
func Hourly(start time.Time, periods int) []string {
	return Range(start, time.Hour, periods)
}

// Range 从起点按固定步长生成 n 个时间戳
func Range(start time.Time, step time.Duration, n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Format(start.Add(time.Duration(i)*step)))
	}
	return out
}

// ParseResolution 解析分辨率标记
// 支持常用缩写（h/min/d 等），其余交给 time.ParseDuration
func ParseResolution(s string) (time.Duration, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "h", "1h", "hour", "hourly":
		return time.Hour, nil
	case "min", "t", "minute":
		return time.Minute, nil
	case "15min":
		return 15 * time.Minute, nil
	case "30min":
		return 30 * time.Minute, nil
	case "d", "day", "daily":
		return 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("unsupported resolution %q", s)
	}
	return d, nil
}

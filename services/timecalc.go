package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseTimeToMinutes đổi chuỗi thời lượng ("2h", "1.5h", "90min", "1h 30min") ra phút.
// Định dạng không nhận ra trả về 0.
func ParseTimeToMinutes(s string) int {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0
	}

	if i := strings.Index(s, "h"); i >= 0 {
		hours, err := strconv.ParseFloat(strings.TrimSpace(s[:i]), 64)
		if err != nil || hours < 0 {
			return 0
		}
		minutes := int(math.Floor(hours*60 + 1e-9))
		return minutes + leadingMinutes(s[i+1:])
	}

	if strings.Contains(s, "min") {
		return leadingMinutes(s)
	}
	return 0
}

// leadingMinutes đọc "<n>min" ở đầu chuỗi, không khớp thì trả về 0.
func leadingMinutes(s string) int {
	s = strings.TrimSpace(s)
	i := strings.Index(s, "min")
	if i < 0 {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(s[:i]))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// FormatMinutes: dưới 60 phút là "<m>min", còn lại "<h>h" hoặc "<h>h <m>min".
func FormatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dmin", minutes)
	}
	h, m := minutes/60, minutes%60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dmin", h, m)
}

// EstimatedSpentMinutes ước lượng thời gian đã học bằng 80% thời lượng dự kiến.
func EstimatedSpentMinutes(estimatedMinutes int) int {
	return int(float64(estimatedMinutes) * 0.8)
}

// ProgressPercent làm tròn kiểu banker (half-to-even), 0 khi chưa có topic.
func ProgressPercent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.RoundToEven(float64(completed) / float64(total) * 100))
}

const (
	StatusCompleted  = "completed"
	StatusNotStarted = "not started"
	StatusDelayed    = "delayed"
	StatusInProgress = "in progress"
)

func StatusFromProgress(progress int) string {
	switch {
	case progress >= 100:
		return StatusCompleted
	case progress <= 0:
		return StatusNotStarted
	case progress < 50:
		return StatusDelayed
	default:
		return StatusInProgress
	}
}

package intgen

import "time"

// Clock 毫秒时间源
// Sleep 只在同一毫秒的序列号耗尽时被调用，用于等待下一毫秒
type Clock interface {
	UnixMilli() int64
	Sleep(d time.Duration)
}

// SystemClock 使用系统墙上时钟
type SystemClock struct{}

func (SystemClock) UnixMilli() int64 {
	return time.Now().UnixMilli()
}

func (SystemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

package logic

import "time"

// Option 业务逻辑可选配置
type Option func(*settings)

type settings struct {
	now func() time.Time
}

// WithClock 替换时间来源，测试使用
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

func applyOptions(opts []Option) settings {
	s := settings{now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/gowvp/vigil/internal/conf"
)

var (
	// ErrDeviceUnavailable 采集设备无法打开（无设备、无权限或被占用），监控流程致命错误
	ErrDeviceUnavailable = errors.New("monitor: device unavailable")
	// ErrAlreadyRunning 每个编排器实例同时只允许一个采集会话
	ErrAlreadyRunning = errors.New("monitor: capture already running")
	// ErrNotRunning 监控未启动
	ErrNotRunning = errors.New("monitor: capture not running")
)

// CaptureSource 采集源，只负责打开与关闭
type CaptureSource interface {
	Open(ctx context.Context) (CaptureSession, error)
}

// CaptureSession 被单个录制器独占的采集会话
type CaptureSession interface {
	// Record 录制一段定长片段并返回编码后的字节
	Record(ctx context.Context, dur time.Duration) ([]byte, error)
	Close() error
}

// Verdict 单个片段的检测结论
type Verdict struct {
	Violent    bool  `json:"violent"`
	AnalysisID int64 `json:"analysis_id"`
}

// Analyzer 将片段送检并返回结论，解耦监控域与分析域
type Analyzer interface {
	AnalyzeSegment(ctx context.Context, seg *Segment) (Verdict, error)
}

type Option func(*Core)

// WithAnalyzer 注入片段分析器
func WithAnalyzer(a Analyzer) Option {
	return func(c *Core) {
		c.analyzer = a
	}
}

// WithConfig 注入监控配置
func WithConfig(cfg *conf.Monitor) Option {
	return func(c *Core) {
		c.conf = cfg
	}
}

// NewCore create business domain
// 告警驻留时间取自配置，告警状态由本实例独占，不存在进程级全局状态
func NewCore(source CaptureSource, opts ...Option) *Core {
	c := Core{
		source: source,
		conf: &conf.Monitor{
			Period:   conf.Duration(6 * time.Second),
			Record:   conf.Duration(5 * time.Second),
			Dwell:    conf.Duration(5 * time.Second),
			MimeType: "video/mp4",
		},
	}
	for _, opt := range opts {
		opt(&c)
	}
	c.alert = NewAlertController(c.conf.Dwell.Duration())
	return &c
}

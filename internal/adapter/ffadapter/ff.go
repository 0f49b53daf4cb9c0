package ffadapter

import (
	"context"
	"strings"
	"time"

	"github.com/gowvp/vigil/internal/conf"
	"github.com/gowvp/vigil/internal/core/monitor"
	"github.com/gowvp/vigil/pkg/ffclip"
)

var _ monitor.CaptureSource = (*Adapter)(nil)

// Adapter 将 ffclip 采集能力适配给 monitor 领域使用
// Wire 通过 NewAdapter 自动绑定 ffclip.Source -> monitor.CaptureSource
type Adapter struct {
	src *ffclip.Source
}

func NewAdapter(cfg *conf.Bootstrap) (*Adapter, error) {
	src, err := ffclip.New(ffclip.Config{
		Source: cfg.Monitor.Source,
		Format: guessFormat(cfg.Monitor.Source),
		Name:   "monitor",
	})
	if err != nil {
		return nil, err
	}
	return &Adapter{src: src}, nil
}

// Open 打开采集源，探测失败返回错误
func (a *Adapter) Open(ctx context.Context) (monitor.CaptureSession, error) {
	sess, err := a.src.Open(ctx)
	if err != nil {
		return nil, err
	}
	return captureSession{sess: sess}, nil
}

type captureSession struct {
	sess *ffclip.Session
}

func (s captureSession) Record(ctx context.Context, dur time.Duration) ([]byte, error) {
	return s.sess.Record(ctx, dur)
}

func (s captureSession) Close() error {
	return s.sess.Close()
}

// guessFormat 根据输入源推断 ffmpeg 输入格式
// 本地设备走 v4l2，网络流由 ffmpeg 自行识别
func guessFormat(source string) string {
	switch {
	case strings.HasPrefix(source, "/dev/video"):
		return "v4l2"
	case strings.HasPrefix(source, "rtsp://"),
		strings.HasPrefix(source, "rtmp://"),
		strings.HasPrefix(source, "http://"),
		strings.HasPrefix(source, "https://"):
		return ""
	default:
		return ""
	}
}

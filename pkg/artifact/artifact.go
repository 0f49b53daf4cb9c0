// Package artifact 负责标注视频等大文件的下载、进度上报与本地落盘
package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/ixugo/goddd/pkg/conc"
)

var (
	// ErrDownloadInProgress 同一地址已有下载在进行中
	ErrDownloadInProgress = errors.New("artifact: download already in progress")
	// ErrDownloadCancelled 调用方主动取消，进度清零，不保留部分数据
	ErrDownloadCancelled = errors.New("artifact: download cancelled")
)

// Progress 单次下载的进度快照
type Progress struct {
	ReceivedBytes uint64   `json:"received_bytes"`
	TotalBytes    int64    `json:"total_bytes"` // -1 表示服务端未声明长度
	Percent       *float64 `json:"percent"`     // 总长未知时为 nil
}

func newProgress(received uint64, total int64) Progress {
	p := Progress{ReceivedBytes: received, TotalBytes: total}
	if total > 0 {
		pct := float64(received) / float64(total) * 100
		p.Percent = &pct
	}
	return p
}

type Downloader struct {
	cli      *http.Client
	dir      string
	inflight *conc.Map[string, struct{}]
}

// NewDownloader 创建下载器，dir 为落盘目录
func NewDownloader(dir string) *Downloader {
	return &Downloader{
		cli: &http.Client{
			// 大文件下载不设整体超时，取消由 ctx 控制
			Transport: &http.Transport{
				MaxIdleConns:          10,
				ResponseHeaderTimeout: 30 * time.Second,
			},
		},
		dir:      dir,
		inflight: conc.NewMap[string, struct{}](),
	}
}

// Download 流式下载 url 指向的文件
// 同一 url 同时只允许一次下载；取消时丢弃已收数据并把进度清零
func (d *Downloader) Download(ctx context.Context, url string, onProgress func(Progress)) ([]byte, error) {
	if _, loaded := d.inflight.LoadOrStore(url, struct{}{}); loaded {
		return nil, ErrDownloadInProgress
	}
	defer d.inflight.Delete(url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("artifact: build request: %w", err)
	}

	resp, err := d.cli.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrDownloadCancelled
		}
		return nil, fmt.Errorf("artifact: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("artifact: unexpected status %d", resp.StatusCode)
	}

	total := resp.ContentLength // -1 未知
	notify := func(current, total int64) {
		if onProgress != nil {
			onProgress(newProgress(uint64(current), total))
		}
	}

	var buf bytes.Buffer
	if total > 0 {
		buf.Grow(int(total))
	}

	pr := NewProgressReader(total, resp.Body, notify)
	if _, err := io.Copy(&buf, pr); err != nil {
		if ctx.Err() != nil {
			// 取消：丢弃部分数据，进度归零
			if onProgress != nil {
				reset := Progress{ReceivedBytes: 0, TotalBytes: total}
				if total > 0 {
					zero := 0.0
					reset.Percent = &zero
				}
				onProgress(reset)
			}
			return nil, ErrDownloadCancelled
		}
		return nil, fmt.Errorf("artifact: read body: %w", err)
	}

	return buf.Bytes(), nil
}

// Save 将下载完成的文件写入落盘目录，返回完整路径
// name 为空时生成随机文件名
func (d *Downloader) Save(name string, data []byte) (string, error) {
	if name == "" {
		name = uuid.NewString() + ".mp4"
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("artifact: create dir: %w", err)
	}
	path := filepath.Join(d.dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("artifact: write file: %w", err)
	}
	return path, nil
}

// Dir 返回落盘目录
func (d *Downloader) Dir() string { return d.dir }

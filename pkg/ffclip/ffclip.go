// Package ffclip 通过 ffmpeg 子进程从采集源录制定长视频片段
package ffclip

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/ixugo/goddd/pkg/queue"
)

type Config struct {
	Source    string // 设备路径（/dev/video0）或 RTSP 地址
	Format    string // 输入格式，如 v4l2，留空自动探测
	Transport string // RTSP 传输方式，默认 tcp
	Name      string
}

// Source 一个可打开的采集源
type Source struct {
	cfg Config
}

func New(cfg Config) (*Source, error) {
	if cfg.Source == "" {
		return nil, fmt.Errorf("source is required")
	}
	if cfg.Transport == "" {
		cfg.Transport = "tcp"
	}
	return &Source{cfg: cfg}, nil
}

// Open 打开采集源并返回会话
// 先抓一帧做探测，设备被占用、无权限或不存在时立刻失败，而不是等到首次录制
func (s *Source) Open(ctx context.Context) (*Session, error) {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	args := s.inputArgs()
	args = append(args, "-frames:v", "1", "-f", "null", "-")
	cmd := exec.CommandContext(probeCtx, "ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("open %s: %w: %s", s.cfg.Source, err, lastLine(stderr.String()))
	}

	return &Session{cfg: s.cfg, ffmpegLog: queue.NewCirQueue[string](100)}, nil
}

// inputArgs 构建 ffmpeg 输入参数
func (s *Source) inputArgs() []string {
	args := []string{"-hide_banner", "-loglevel", "warning"}
	if s.cfg.Format != "" {
		args = append(args, "-f", s.cfg.Format)
	}
	if strings.HasPrefix(s.cfg.Source, "rtsp://") {
		args = append(args, "-rtsp_transport", s.cfg.Transport, "-timeout", "10000000")
	}
	return append(args, "-i", s.cfg.Source)
}

// Session 独占采集源的录制会话
// 同一会话同时只允许一次录制，重复调用 Record 返回错误而不是叠加
type Session struct {
	cfg       Config
	m         sync.Mutex
	recording bool
	closed    bool
	ffmpegLog *queue.CirQueue[string]
}

// Record 录制一段时长为 dur 的片段，输出 fragmented MP4 字节流
func (s *Session) Record(ctx context.Context, dur time.Duration) ([]byte, error) {
	s.m.Lock()
	if s.closed {
		s.m.Unlock()
		return nil, fmt.Errorf("session closed")
	}
	if s.recording {
		s.m.Unlock()
		return nil, fmt.Errorf("recording already in progress")
	}
	s.recording = true
	s.m.Unlock()

	defer func() {
		s.m.Lock()
		s.recording = false
		s.m.Unlock()
	}()

	// 录制时长之外留出编码收尾余量
	recCtx, cancel := context.WithTimeout(ctx, dur+5*time.Second)
	defer cancel()

	src := Source{cfg: s.cfg}
	args := src.inputArgs()
	args = append(args,
		"-t", fmt.Sprintf("%.1f", dur.Seconds()),
		"-c:v", "libx264", "-preset", "ultrafast",
		"-an",
		// MP4 无法流式写入，fragmented 模式可以直接写管道
		"-movflags", "frag_keyframe+empty_moov",
		"-f", "mp4", "pipe:1",
	)

	cmd := exec.CommandContext(recCtx, "ffmpeg", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	go s.readStderr(stderr)

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, stdout); err != nil {
		_ = cmd.Wait()
		return nil, fmt.Errorf("read clip: %w", err)
	}
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, lastLine(strings.Join(s.ffmpegLog.Range(), "\n")))
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced empty clip")
	}
	return buf.Bytes(), nil
}

// readStderr 收集 ffmpeg 告警输出用于排障
func (s *Session) readStderr(stderr io.Reader) {
	scan := bufio.NewScanner(stderr)
	for scan.Scan() {
		s.ffmpegLog.Push(scan.Text())
	}
}

func (s *Session) Log() []string {
	return s.ffmpegLog.Range()
}

func (s *Session) Close() error {
	s.m.Lock()
	defer s.m.Unlock()
	s.closed = true
	return nil
}

func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

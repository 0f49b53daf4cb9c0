package artifact

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// chunkReader 每次 Read 固定吐出一块
type chunkReader struct {
	chunks [][]byte
	idx    int
}

func (r *chunkReader) Read(b []byte) (int, error) {
	if r.idx >= len(r.chunks) {
		return 0, io.EOF
	}
	n := copy(b, r.chunks[r.idx])
	r.idx++
	return n, nil
}

func TestProgressReaderSequence(t *testing.T) {
	chunk := bytes.Repeat([]byte{0xAB}, 250_000)
	src := &chunkReader{chunks: [][]byte{chunk, chunk, chunk, chunk}}

	var percents []float64
	pr := NewProgressReader(1_000_000, src, func(current, total int64) {
		percents = append(percents, float64(current)/float64(total)*100)
	})

	data, err := io.ReadAll(pr)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(data) != 1_000_000 {
		t.Fatalf("read %d bytes", len(data))
	}

	want := []float64{25, 50, 75, 100}
	if len(percents) != len(want) {
		t.Fatalf("percents = %v, want %v", percents, want)
	}
	for i := range want {
		if percents[i] != want[i] {
			t.Fatalf("percents = %v, want %v", percents, want)
		}
	}
}

func TestDownloadKnownLength(t *testing.T) {
	payload := bytes.Repeat([]byte{0xCD}, 64_000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "64000")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	var events []Progress
	d := NewDownloader(t.TempDir())
	data, err := d.Download(context.Background(), srv.URL+"/a.mp4", func(p Progress) {
		events = append(events, p)
	})
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Fatalf("downloaded %d bytes", len(data))
	}

	if len(events) == 0 {
		t.Fatal("no progress events")
	}
	var last uint64
	for _, p := range events {
		if p.Percent == nil {
			t.Fatalf("percent should be known, event = %+v", p)
		}
		if p.ReceivedBytes < last {
			t.Fatalf("progress went backwards: %+v", events)
		}
		last = p.ReceivedBytes
	}
	final := events[len(events)-1]
	if final.ReceivedBytes != 64_000 || *final.Percent != 100 {
		t.Fatalf("final progress = %+v", final)
	}
}

// 服务端未声明长度时百分比为 null，字节数仍然递增
func TestDownloadUnknownLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for range 4 {
			_, _ = w.Write(bytes.Repeat([]byte{0xEF}, 1000))
			flusher.Flush()
		}
	}))
	defer srv.Close()

	var events []Progress
	d := NewDownloader(t.TempDir())
	data, err := d.Download(context.Background(), srv.URL, func(p Progress) {
		events = append(events, p)
	})
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if len(data) != 4000 {
		t.Fatalf("downloaded %d bytes", len(data))
	}

	if len(events) == 0 {
		t.Fatal("no progress events")
	}
	for _, p := range events {
		if p.Percent != nil {
			t.Fatalf("percent should be unknown, event = %+v", p)
		}
		if p.TotalBytes != -1 {
			t.Fatalf("total should be -1, event = %+v", p)
		}
	}
	if events[len(events)-1].ReceivedBytes != 4000 {
		t.Fatalf("final progress = %+v", events[len(events)-1])
	}
}

// 取消丢弃部分数据，最后一次进度回调把字节数清零
func TestDownloadCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100000")
		_, _ = w.Write(bytes.Repeat([]byte{0x01}, 1000))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())

	var m sync.Mutex
	var events []Progress
	d := NewDownloader(t.TempDir())
	_, err := d.Download(ctx, srv.URL, func(p Progress) {
		m.Lock()
		events = append(events, p)
		m.Unlock()
		cancel()
	})
	if !errors.Is(err, ErrDownloadCancelled) {
		t.Fatalf("err = %v, want ErrDownloadCancelled", err)
	}

	m.Lock()
	defer m.Unlock()
	if len(events) < 2 {
		t.Fatalf("events = %+v, want at least progress and reset", events)
	}
	final := events[len(events)-1]
	if final.ReceivedBytes != 0 {
		t.Fatalf("final progress not reset: %+v", final)
	}
	if final.Percent == nil || *final.Percent != 0 {
		t.Fatalf("final percent not reset: %+v", final)
	}
}

// 同一地址同时只允许一次下载
func TestDownloadSingleFlight(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte("done"))
	}))
	defer srv.Close()

	d := NewDownloader(t.TempDir())

	errCh := make(chan error, 1)
	go func() {
		_, err := d.Download(context.Background(), srv.URL, nil)
		errCh <- err
	}()

	// 等首个下载进入在途集合
	time.Sleep(50 * time.Millisecond)
	if _, err := d.Download(context.Background(), srv.URL, nil); !errors.Is(err, ErrDownloadInProgress) {
		t.Fatalf("err = %v, want ErrDownloadInProgress", err)
	}

	close(release)
	if err := <-errCh; err != nil {
		t.Fatalf("first download error = %v", err)
	}

	// 首个下载结束后同一地址可以再次下载
	if _, err := d.Download(context.Background(), srv.URL, nil); err != nil {
		t.Fatalf("retry after completion error = %v", err)
	}
}

func TestDownloadBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	d := NewDownloader(t.TempDir())
	if _, err := d.Download(context.Background(), srv.URL, nil); err == nil {
		t.Fatal("want error for 404")
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	d := NewDownloader(dir)

	path, err := d.Save("clip_annotated.mp4", []byte("video"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("saved outside dir: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "video" {
		t.Fatalf("read back: %v %q", err, data)
	}

	// 空文件名生成随机名
	path, err = d.Save("", []byte("x"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !strings.HasSuffix(path, ".mp4") {
		t.Fatalf("generated name = %s", path)
	}

	// 路径穿越只保留文件名部分
	path, err = d.Save("../../etc/evil.mp4", []byte("x"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("path traversal not neutralized: %s", path)
	}
}

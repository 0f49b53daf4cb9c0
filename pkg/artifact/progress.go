package artifact

import (
	"io"
	"sync/atomic"
)

// ProgressReader 包装 io.Reader，每读一块回调一次进度
// Total 为 -1 表示服务端未声明长度，回调方按不确定进度处理
type ProgressReader struct {
	Total   int64
	Current atomic.Int64
	io.Reader
	OnProgress func(current, total int64)
}

func NewProgressReader(total int64, reader io.Reader, onProgress func(current, total int64)) *ProgressReader {
	return &ProgressReader{
		Total:      total,
		Reader:     reader,
		OnProgress: onProgress,
	}
}

func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.Reader.Read(b)
	if n > 0 {
		cur := p.Current.Add(int64(n))
		if p.OnProgress != nil {
			p.OnProgress(cur, p.Total)
		}
	}
	return n, err
}

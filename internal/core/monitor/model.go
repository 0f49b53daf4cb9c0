package monitor

import "time"

// Segment 一次采集周期产出的编码片段
// 创建后不可变，被推理消费一次后即丢弃
type Segment struct {
	ID         string    `json:"id"`
	Seq        uint64    `json:"seq"` // 会话内单调递增
	Bytes      []byte    `json:"-"`
	MimeType   string    `json:"mime_type"`
	CapturedAt time.Time `json:"captured_at"`
}

// State 监控编排器的运行快照
type State struct {
	Running   bool       `json:"running"`
	Source    string     `json:"source"`
	StartedAt *time.Time `json:"started_at"` // 未运行时为 nil
	Segments  uint64     `json:"segments"`   // 已完成片段数
	Failures  uint64     `json:"failures"`   // 推理失败片段数
	Coalesced uint64     `json:"coalesced"`  // 迟到触发被合并的次数
	LastError string     `json:"last_error"`
	Alert     AlertState `json:"alert"`
}

package analysis

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/ixugo/goddd/pkg/orm"
)

// Interval 一段被分析的子区间
// Probability 为模型原始输出，保持全精度；Confidence 为展示用百分比，保留一位小数
type Interval struct {
	StartLabel  string  `json:"start_label"` // 区间标签，单值模型留空
	Probability float64 `json:"probability"` // 0.0 - 1.0
	Confidence  float64 `json:"confidence"`  // 0.0 - 100.0，一位小数
	IsViolent   bool    `json:"is_violent"`
}

// Intervals 以 JSON 存入单列
type Intervals []Interval

func (v Intervals) Value() (driver.Value, error) {
	data, err := json.Marshal(v)
	return string(data), err
}

func (v *Intervals) Scan(src any) error {
	switch data := src.(type) {
	case []byte:
		return json.Unmarshal(data, v)
	case string:
		return json.Unmarshal([]byte(data), v)
	case nil:
		*v = nil
		return nil
	}
	return fmt.Errorf("unsupported intervals type %T", src)
}

// Result 模型无关的规范化检测结果
// 单值模型产出恰好一个区间，分段模型每个子区间一个元素
type Result struct {
	SourceLabel  string    `json:"source_label"`  // 来源文件名或片段标识
	Model        string    `json:"model"`         // 产生该结果的模型
	Intervals    Intervals `json:"intervals"`     // 成功时绝不为空
	AnnotatedURL string    `json:"annotated_url"` // 标注视频完整地址，无则为空
	Violent      bool      `json:"violent"`       // 任一区间为暴力即为 true
}

// Analysis 持久化的分析记录
type Analysis struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SourceLabel  string    `gorm:"column:source_label;index" json:"source_label"`
	Model        string    `gorm:"column:model" json:"model"`
	Intervals    Intervals `gorm:"column:intervals;type:text" json:"intervals"`
	AnnotatedURL string    `gorm:"column:annotated_url" json:"annotated_url"`
	Violent      bool      `gorm:"column:violent;index" json:"violent"`
	CreatedAt    orm.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    orm.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (*Analysis) TableName() string {
	return "analyses"
}

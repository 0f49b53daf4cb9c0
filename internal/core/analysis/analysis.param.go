package analysis

import (
	"github.com/ixugo/goddd/pkg/web"
)

type FindAnalysesInput struct {
	web.PagerFilter
	Model       string `form:"model"`        // 模型选择器筛选
	Violent     *bool  `form:"violent"`      // 是否只看暴力/非暴力
	SourceLabel string `form:"source_label"` // 来源标识筛选
}

package adapter

import (
	"bytes"
	"context"
	"fmt"

	"github.com/gowvp/vigil/internal/core/analysis"
	"github.com/gowvp/vigil/internal/core/monitor"
)

var _ monitor.Analyzer = (*AnalysisAdapter)(nil)

// AnalysisAdapter 实现 monitor.Analyzer 接口
// 将 analysis.Core 的检测能力适配给 monitor 领域使用
type AnalysisAdapter struct {
	analysisCore analysis.Core
}

// NewAnalysisAdapter 创建分析适配器，返回 monitor.Analyzer 接口
// Wire 通过此函数自动绑定 analysis.Core -> monitor.Analyzer
func NewAnalysisAdapter(analysisCore analysis.Core) monitor.Analyzer {
	return &AnalysisAdapter{analysisCore: analysisCore}
}

// AnalyzeSegment 提交片段检测并归一化结果
func (a *AnalysisAdapter) AnalyzeSegment(ctx context.Context, seg *monitor.Segment) (monitor.Verdict, error) {
	filename := fmt.Sprintf("segment_%d.mp4", seg.Seq)
	out, err := a.analysisCore.Analyze(ctx, bytes.NewReader(seg.Bytes), filename, a.analysisCore.DefaultModel())
	if err != nil {
		return monitor.Verdict{}, err
	}
	return monitor.Verdict{
		Violent:    out.Violent,
		AnalysisID: out.ID,
	}, nil
}

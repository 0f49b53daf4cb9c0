package analysis

import (
	"context"
	"io"
	"log/slog"

	"github.com/gowvp/vigil/pkg/vds"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/jinzhu/copier"
)

// FindAnalyses 分页查询分析记录，支持模型与是否暴力筛选
func (c Core) FindAnalyses(ctx context.Context, in *FindAnalysesInput) ([]*Analysis, int64, error) {
	query := orm.NewQuery(3).OrderBy("created_at DESC")

	if in.Model != "" {
		query.Where("model = ?", in.Model)
	}
	if in.Violent != nil {
		query.Where("violent = ?", *in.Violent)
	}
	if in.SourceLabel != "" {
		query.Where("source_label = ?", in.SourceLabel)
	}

	items := make([]*Analysis, 0, in.Limit())
	total, err := c.store.Analysis().Find(ctx, &items, in, query.Encode()...)
	if err != nil {
		return nil, 0, reason.ErrDB.Withf(`Find in[%+v] err[%s]`, in, err.Error())
	}
	return items, total, nil
}

// GetAnalysis Query a single object
func (c Core) GetAnalysis(ctx context.Context, id int64) (*Analysis, error) {
	out := Analysis{ID: id}
	if err := c.store.Analysis().Get(ctx, &out, orm.Where("id=?", id)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`Get id[%v] err[%s]`, id, err.Error())
		}
		return nil, reason.ErrDB.Withf(`Get id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// DelAnalysis Delete object
func (c Core) DelAnalysis(ctx context.Context, id int64) (*Analysis, error) {
	var out Analysis
	if err := c.store.Analysis().Del(ctx, &out, orm.Where("id=?", id)); err != nil {
		return nil, reason.ErrDB.Withf(`Del id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// SaveResult 将规范化结果持久化为一条分析记录
func (c Core) SaveResult(ctx context.Context, res *Result) (*Analysis, error) {
	var out Analysis
	if err := copier.Copy(&out, res); err != nil {
		slog.ErrorContext(ctx, "Copy", "err", err)
	}

	if err := c.store.Analysis().Add(ctx, &out); err != nil {
		return nil, reason.ErrDB.Withf(`Add err[%s]`, err.Error())
	}
	return &out, nil
}

// Analyze 提交一段视频并落库规范化结果
// 单次请求，不重试；vds 的错误原样上抛，由调用方决定呈现方式
func (c Core) Analyze(ctx context.Context, file io.Reader, filename string, model vds.Model) (*Analysis, error) {
	if model == "" {
		model = c.model
	}

	resp, err := c.engine.Predict(ctx, file, filename, model)
	if err != nil {
		return nil, err
	}

	res, err := Normalize(resp, c.engine.ArtifactURL)
	if err != nil {
		return nil, err
	}

	return c.SaveResult(ctx, res)
}

// GenerateAnnotated 触发服务端生成标注视频，返回完整下载地址
func (c Core) GenerateAnnotated(ctx context.Context) (string, error) {
	resp, err := c.engine.GenerateAnnotated(ctx)
	if err != nil {
		return "", err
	}
	if resp.AnnotatedVideoPath == "" {
		return "", nil
	}
	return c.engine.ArtifactURL(resp.AnnotatedVideoPath), nil
}

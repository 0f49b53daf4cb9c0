package analysisdb

import (
	"context"

	"github.com/gowvp/vigil/internal/core/analysis"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

var _ analysis.AnalysisStorer = Analysis{}

type Analysis struct {
	db *gorm.DB
}

func NewAnalysis(db *gorm.DB) Analysis {
	return Analysis{db: db}
}

func (d Analysis) apply(ctx context.Context, opts ...orm.QueryOption) *gorm.DB {
	db := d.db.WithContext(ctx).Model(&analysis.Analysis{})
	for _, opt := range opts {
		db = opt(db)
	}
	return db
}

func (d Analysis) Find(ctx context.Context, out *[]*analysis.Analysis, pager orm.Pager, opts ...orm.QueryOption) (int64, error) {
	db := d.apply(ctx, opts...)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return 0, err
	}
	if err := db.Offset(pager.Offset()).Limit(pager.Limit()).Find(out).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (d Analysis) Get(ctx context.Context, out *analysis.Analysis, opts ...orm.QueryOption) error {
	return d.apply(ctx, opts...).First(out).Error
}

func (d Analysis) Add(ctx context.Context, in *analysis.Analysis) error {
	return d.db.WithContext(ctx).Create(in).Error
}

// Del 删除单条记录并返回被删除的内容
func (d Analysis) Del(ctx context.Context, out *analysis.Analysis, opts ...orm.QueryOption) error {
	if err := d.apply(ctx, opts...).First(out).Error; err != nil {
		return err
	}
	return d.db.WithContext(ctx).Delete(out).Error
}

func (d Analysis) Count(ctx context.Context, opts ...orm.QueryOption) (int64, error) {
	var total int64
	err := d.apply(ctx, opts...).Count(&total).Error
	return total, err
}

// DelBatch 批量删除，返回删除行数，清理协程使用
func (d Analysis) DelBatch(ctx context.Context, opts ...orm.QueryOption) (int64, error) {
	db := d.apply(ctx, opts...)
	ret := db.Delete(&analysis.Analysis{})
	return ret.RowsAffected, ret.Error
}

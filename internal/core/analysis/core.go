package analysis

import (
	"context"

	"github.com/gowvp/vigil/pkg/vds"
	"github.com/ixugo/goddd/pkg/orm"
)

// Storer data persistence
type Storer interface {
	Analysis() AnalysisStorer
}

// AnalysisStorer Instantiation interface
type AnalysisStorer interface {
	Find(context.Context, *[]*Analysis, orm.Pager, ...orm.QueryOption) (int64, error)
	Get(context.Context, *Analysis, ...orm.QueryOption) error
	Add(context.Context, *Analysis) error
	Del(context.Context, *Analysis, ...orm.QueryOption) error
	Count(context.Context, ...orm.QueryOption) (int64, error)
	DelBatch(context.Context, ...orm.QueryOption) (int64, error)
}

// Core business domain
type Core struct {
	store  Storer
	engine vds.Engine
	model  vds.Model
}

type Option func(*Core)

// WithEngine 注入检测服务客户端
func WithEngine(engine vds.Engine) Option {
	return func(c *Core) {
		c.engine = engine
	}
}

// WithDefaultModel 注入默认模型选择器
func WithDefaultModel(m vds.Model) Option {
	return func(c *Core) {
		c.model = m
	}
}

// NewCore create business domain
func NewCore(store Storer, opts ...Option) Core {
	c := Core{store: store, model: vds.ModelTwoStream}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// DefaultModel 返回配置的默认模型
func (c Core) DefaultModel() vds.Model {
	return c.model
}

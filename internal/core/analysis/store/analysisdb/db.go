package analysisdb

import (
	"github.com/gowvp/vigil/internal/core/analysis"
	"gorm.io/gorm"
)

// DB 分析记录存储层
type DB struct {
	db *gorm.DB
}

func NewDB(db *gorm.DB) DB {
	return DB{db: db}
}

// AutoMigrate 按需建表
func (d DB) AutoMigrate(ok bool) DB {
	if ok {
		if err := d.db.AutoMigrate(&analysis.Analysis{}); err != nil {
			panic(err)
		}
	}
	return d
}

func (d DB) Analysis() analysis.AnalysisStorer {
	return NewAnalysis(d.db)
}

package analysis

import (
	"context"
	"log/slog"
	"time"

	"github.com/ixugo/goddd/pkg/orm"
)

// StartCleanupWorker 启动定时清理协程，按天滚动删除过期分析记录
// days 参数指定保留的天数，超过该天数的记录将被删除
func (c Core) StartCleanupWorker(days int) {
	if days <= 0 {
		slog.Info("analysis cleanup disabled", "days", days)
		return
	}

	slog.Info("analysis cleanup worker started", "retain_days", days)

	// 启动时先执行一次清理
	c.cleanupExpired(days)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		c.cleanupExpired(days)
	}
}

// cleanupExpired 删除超出保留期的分析记录
func (c Core) cleanupExpired(days int) {
	ctx := context.Background()
	cutoff := time.Now().AddDate(0, 0, -days)

	deleted, err := c.store.Analysis().DelBatch(ctx,
		orm.Where("created_at < ?", orm.Time{Time: cutoff}),
	)
	if err != nil {
		slog.Error("analysis cleanup failed", "err", err)
		return
	}
	if deleted > 0 {
		slog.Info("analysis cleanup done", "deleted", deleted,
			"cutoff", cutoff.Format(time.DateTime), "retain_days", days)
	}
}

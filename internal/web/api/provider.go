package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"github.com/gowvp/vigil/internal/adapter/ffadapter"
	"github.com/gowvp/vigil/internal/conf"
	"github.com/gowvp/vigil/internal/core/analysis"
	"github.com/gowvp/vigil/internal/core/analysis/store/analysisdb"
	"github.com/gowvp/vigil/internal/core/monitor"
	monitoradapter "github.com/gowvp/vigil/internal/core/monitor/adapter"
	"github.com/gowvp/vigil/pkg/artifact"
	"github.com/gowvp/vigil/pkg/vds"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

var ProviderSet = wire.NewSet(
	wire.Struct(new(Usecase), "*"),
	NewHTTPHandler,
	NewVDSEngine,
	NewAnalysisStore, NewAnalysisCore, NewAnalysisAPI,
	NewCaptureSource, NewSegmentAnalyzer, NewMonitorCore, NewMonitorAPI,
	NewDownloader, NewArtifactAPI,
)

type Usecase struct {
	Conf        *conf.Bootstrap
	DB          *gorm.DB
	AnalysisAPI AnalysisAPI
	MonitorAPI  MonitorAPI
	ArtifactAPI ArtifactAPI
}

// NewHTTPHandler 生成Gin框架路由内容
func NewHTTPHandler(uc *Usecase) http.Handler {
	if !uc.Conf.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	g := gin.New()
	setupRouter(g, uc)
	return g
}

// NewVDSEngine 创建远端检测服务客户端
func NewVDSEngine(cfg *conf.Bootstrap) vds.Engine {
	return vds.NewEngine().SetConfig(vds.Config{
		Addr:    cfg.Detect.Addr,
		Timeout: cfg.Detect.Timeout.Duration(),
	})
}

// NewAnalysisStore 创建分析结果存储层
func NewAnalysisStore(db *gorm.DB) analysis.Storer {
	return analysisdb.NewDB(db).AutoMigrate(orm.GetEnabledAutoMigrate())
}

// NewAnalysisCore 创建分析核心服务并启动过期清理协程
func NewAnalysisCore(store analysis.Storer, engine vds.Engine, cfg *conf.Bootstrap) analysis.Core {
	core := analysis.NewCore(store,
		analysis.WithEngine(engine),
		analysis.WithDefaultModel(vds.Model(cfg.Detect.Model)),
	)
	go core.StartCleanupWorker(cfg.Artifact.RetainDay)
	return core
}

// NewCaptureSource 创建采集源
func NewCaptureSource(cfg *conf.Bootstrap) (monitor.CaptureSource, error) {
	return ffadapter.NewAdapter(cfg)
}

// NewSegmentAnalyzer 创建片段分析器
// 依赖 monitor.Analyzer 接口而非 analysis.Core，避免循环依赖
func NewSegmentAnalyzer(core analysis.Core) monitor.Analyzer {
	return monitoradapter.NewAnalysisAdapter(core)
}

// NewMonitorCore 创建监控编排核心服务
func NewMonitorCore(source monitor.CaptureSource, analyzer monitor.Analyzer, cfg *conf.Bootstrap) *monitor.Core {
	return monitor.NewCore(source,
		monitor.WithAnalyzer(analyzer),
		monitor.WithConfig(&cfg.Monitor),
	)
}

// NewDownloader 创建标注视频下载器
func NewDownloader(cfg *conf.Bootstrap) *artifact.Downloader {
	return artifact.NewDownloader(cfg.Artifact.Dir)
}

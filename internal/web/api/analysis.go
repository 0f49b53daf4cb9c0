package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gowvp/vigil/internal/core/analysis"
	"github.com/gowvp/vigil/pkg/vds"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/ixugo/goddd/pkg/web"
)

// AnalysisAPI 为 http 提供业务方法
type AnalysisAPI struct {
	analysisCore analysis.Core
}

func NewAnalysisAPI(core analysis.Core) AnalysisAPI {
	return AnalysisAPI{analysisCore: core}
}

func registerAnalysis(g gin.IRouter, api AnalysisAPI, handler ...gin.HandlerFunc) {
	group := g.Group("/analyses", handler...)
	group.POST("", api.uploadAnalysis)
	group.GET("", web.WrapH(api.findAnalyses))
	group.GET("/:id", web.WrapH(api.getAnalysis))
	group.DELETE("/:id", web.WrapH(api.delAnalysis))

	g.POST("/annotated", web.WrapH(api.generateAnnotated))
}

// uploadAnalysis 上传视频片段并送检
// multipart 字段: file 视频文件，model 可选模型名，缺省用配置的默认模型
func (a AnalysisAPI) uploadAnalysis(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		web.Fail(c, reason.ErrBadRequest.SetMsg("缺少 file 字段"))
		return
	}

	model := vds.Model(c.PostForm("model"))
	if model == "" {
		model = a.analysisCore.DefaultModel()
	}
	if !model.Valid() {
		web.Fail(c, reason.ErrBadRequest.SetMsg("不支持的模型: "+string(model)))
		return
	}

	f, err := fh.Open()
	if err != nil {
		web.Fail(c, reason.ErrBadRequest.SetMsg(err.Error()))
		return
	}
	defer f.Close()

	out, err := a.analysisCore.Analyze(c.Request.Context(), f, fh.Filename, model)
	if err != nil {
		web.Fail(c, asDetectErr(err))
		return
	}
	c.JSON(http.StatusOK, out)
}

// findAnalyses 分页查询分析结果列表
func (a AnalysisAPI) findAnalyses(c *gin.Context, in *analysis.FindAnalysesInput) (any, error) {
	items, total, err := a.analysisCore.FindAnalyses(c.Request.Context(), in)
	return gin.H{"items": items, "total": total}, err
}

func (a AnalysisAPI) getAnalysis(c *gin.Context, _ *struct{}) (*analysis.Analysis, error) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	return a.analysisCore.GetAnalysis(c.Request.Context(), id)
}

func (a AnalysisAPI) delAnalysis(c *gin.Context, _ *struct{}) (*analysis.Analysis, error) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	return a.analysisCore.DelAnalysis(c.Request.Context(), id)
}

type generateAnnotatedOutput struct {
	AnnotatedURL string `json:"annotated_url"`
}

// generateAnnotated 请求检测服务基于最近一次分析生成标注视频
func (a AnalysisAPI) generateAnnotated(c *gin.Context, _ *struct{}) (generateAnnotatedOutput, error) {
	url, err := a.analysisCore.GenerateAnnotated(c.Request.Context())
	if err != nil {
		return generateAnnotatedOutput{}, asDetectErr(err)
	}
	return generateAnnotatedOutput{AnnotatedURL: url}, nil
}

// asDetectErr 将检测服务客户端错误映射为业务错误
func asDetectErr(err error) error {
	var netErr *vds.NetworkError
	var svcErr *vds.ServiceError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &netErr):
		return reason.ErrServer.Withf("检测服务不可达: %s", netErr.Err)
	case errors.As(err, &svcErr):
		return reason.ErrServer.Withf("检测服务异常: status %d", svcErr.StatusCode)
	case errors.Is(err, vds.ErrMalformedResponse):
		return reason.ErrServer.SetMsg("检测服务响应无法解析")
	}
	return err
}

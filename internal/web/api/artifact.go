package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/gowvp/vigil/internal/conf"
	"github.com/gowvp/vigil/pkg/artifact"
	"github.com/ixugo/goddd/pkg/web"
)

// ArtifactAPI 为 http 提供业务方法
type ArtifactAPI struct {
	downloader *artifact.Downloader
	conf       *conf.Bootstrap
}

func NewArtifactAPI(downloader *artifact.Downloader, conf *conf.Bootstrap) ArtifactAPI {
	return ArtifactAPI{downloader: downloader, conf: conf}
}

func registerArtifact(g gin.IRouter, api ArtifactAPI, handler ...gin.HandlerFunc) {
	group := g.Group("/artifacts", handler...)
	group.POST("", api.downloadArtifact)

	// 静态文件服务，用于回放已落盘的标注视频
	// Gin Static 支持 HTTP Range 请求，实现边下载边播放
	if api.conf != nil && api.conf.Artifact.Dir != "" {
		slog.Info("注册标注视频静态文件服务", "path", "/static/artifacts", "dir", api.conf.Artifact.Dir)
		g.Static("/static/artifacts", api.conf.Artifact.Dir)
	}
}

type downloadArtifactInput struct {
	URL  string `form:"url" json:"url" binding:"required"` // 标注视频完整地址
	Name string `form:"name" json:"name"`                  // 落盘文件名，缺省取地址尾段
}

// downloadArtifact 下载标注视频并落盘
// 通过 SSE 返回下载进度，客户端断开视为取消，进度清零且不保留部分数据
func (a ArtifactAPI) downloadArtifact(c *gin.Context) {
	var in downloadArtifactInput
	if err := c.ShouldBind(&in); err != nil {
		web.Fail(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "不支持 SSE"})
		return
	}

	sendEvent := func(event string, data any) {
		b, _ := json.Marshal(data)
		fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, b)
		flusher.Flush()
	}

	sendEvent("start", gin.H{"url": in.URL})

	data, err := a.downloader.Download(c.Request.Context(), in.URL, func(p artifact.Progress) {
		sendEvent("progress", p)
	})
	if err != nil {
		switch {
		case errors.Is(err, artifact.ErrDownloadInProgress):
			sendEvent("error", gin.H{"kind": "download_in_progress", "msg": "该地址已有下载在进行中"})
		case errors.Is(err, artifact.ErrDownloadCancelled):
			sendEvent("error", gin.H{"kind": "download_cancelled", "msg": "下载已取消"})
		default:
			sendEvent("error", gin.H{"kind": "download_failed", "msg": err.Error()})
		}
		return
	}

	name := in.Name
	if name == "" {
		name = path.Base(in.URL)
	}
	saved, err := a.downloader.Save(name, data)
	if err != nil {
		sendEvent("error", gin.H{"kind": "save_failed", "msg": err.Error()})
		return
	}

	sendEvent("complete", gin.H{"path": saved, "size": len(data)})
}

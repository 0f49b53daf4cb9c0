package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gowvp/vigil/internal/core/monitor"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/ixugo/goddd/pkg/web"
)

// MonitorAPI 为 http 提供业务方法
type MonitorAPI struct {
	monitorCore *monitor.Core
}

func NewMonitorAPI(core *monitor.Core) MonitorAPI {
	return MonitorAPI{monitorCore: core}
}

func registerMonitor(g gin.IRouter, api MonitorAPI, handler ...gin.HandlerFunc) {
	group := g.Group("/monitor", handler...)
	group.POST("/start", web.WrapH(api.startMonitor))
	group.POST("/stop", web.WrapH(api.stopMonitor))
	group.GET("", web.WrapH(api.getState))
	group.GET("/alerts", api.streamAlerts)
}

// startMonitor 启动实时监控采集循环
func (a MonitorAPI) startMonitor(c *gin.Context, _ *struct{}) (monitor.State, error) {
	if err := a.monitorCore.Start(c.Request.Context()); err != nil {
		switch {
		case errors.Is(err, monitor.ErrAlreadyRunning):
			return monitor.State{}, reason.ErrBadRequest.SetMsg("监控已在运行")
		case errors.Is(err, monitor.ErrDeviceUnavailable):
			return monitor.State{}, reason.ErrServer.Withf("采集设备不可用: %s", err)
		}
		return monitor.State{}, err
	}
	return a.monitorCore.State(), nil
}

// stopMonitor 停止监控并清除告警
func (a MonitorAPI) stopMonitor(c *gin.Context, _ *struct{}) (monitor.State, error) {
	if err := a.monitorCore.Stop(); err != nil {
		if errors.Is(err, monitor.ErrNotRunning) {
			return monitor.State{}, reason.ErrBadRequest.SetMsg("监控未启动")
		}
		return monitor.State{}, err
	}
	return a.monitorCore.State(), nil
}

// getState 查询监控运行快照
func (a MonitorAPI) getState(_ *gin.Context, _ *struct{}) (monitor.State, error) {
	return a.monitorCore.State(), nil
}

// streamAlerts 通过 SSE 推送告警状态变化
// 连接建立时先推送一次当前状态，之后仅在状态变化时推送
func (a MonitorAPI) streamAlerts(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "不支持 SSE"})
		return
	}

	sendEvent := func(state monitor.AlertState) {
		data, _ := json.Marshal(state)
		fmt.Fprintf(c.Writer, "event: alert\ndata: %s\n\n", data)
		flusher.Flush()
	}

	ch, unsubscribe := a.monitorCore.Alert().Subscribe()
	defer unsubscribe()

	sendEvent(a.monitorCore.Alert().State())

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case state, open := <-ch:
			if !open {
				return
			}
			sendEvent(state)
		}
	}
}

package statapi

import (
	"github.com/gin-gonic/gin"
	"github.com/gowvp/vigil/plugin/stat"
	"github.com/ixugo/goddd/pkg/system"
	"github.com/ixugo/goddd/pkg/web"
)

// Register 注册主机资源统计接口
func Register(g gin.IRouter, handler ...gin.HandlerFunc) {
	g.GET("/app/stats", append(handler, web.WrapH(getStats))...)
}

func getStats(_ *gin.Context, _ *struct{}) (*stat.Snapshot, error) {
	return stat.Collect(system.Getwd()), nil
}

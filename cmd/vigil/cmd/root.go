package cmd

import (
	"fmt"
	"os"

	"github.com/ixugo/goddd/pkg/system"
	"github.com/spf13/cobra"
)

var (
	confDir      string
	buildVersion string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vigil",
	Short: "实时暴力检测客户端",
	Long: `采集视频片段送远端检测服务推理，归一化检测结论并维护告警状态，
也可以单独分析视频文件或下载标注视频。`,
}

func Execute(version string) {
	buildVersion = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&confDir, "conf", "c", system.Getwd(), "配置文件所在目录")
}

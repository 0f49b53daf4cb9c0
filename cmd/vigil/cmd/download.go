package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/gowvp/vigil/pkg/artifact"
	"github.com/spf13/cobra"
)

var (
	downloadDir  string
	downloadName string
)

var downloadCmd = &cobra.Command{
	Use:   "download <url>",
	Short: "下载标注视频",
	Long:  `下载检测服务生成的标注视频并落盘，Ctrl+C 取消下载且不保留部分数据。`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		d := artifact.NewDownloader(downloadDir)
		data, err := d.Download(ctx, args[0], func(p artifact.Progress) {
			if p.Percent != nil {
				fmt.Printf("\r%6.1f%%  %d bytes", *p.Percent, p.ReceivedBytes)
			} else {
				fmt.Printf("\r%d bytes", p.ReceivedBytes)
			}
		})
		fmt.Println()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		name := downloadName
		if name == "" {
			name = path.Base(args[0])
		}
		saved, err := d.Save(name, data)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("saved: %s (%d bytes)\n", saved, len(data))
	},
}

func init() {
	downloadCmd.Flags().StringVar(&downloadDir, "dir", "artifacts", "落盘目录")
	downloadCmd.Flags().StringVar(&downloadName, "name", "", "落盘文件名，缺省取地址尾段")
	rootCmd.AddCommand(downloadCmd)
}

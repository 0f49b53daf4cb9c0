package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/gowvp/vigil/internal/core/analysis"
	"github.com/gowvp/vigil/pkg/artifact"
	"github.com/gowvp/vigil/pkg/vds"
	"github.com/spf13/cobra"
)

var (
	analyzeAddr     string
	analyzeModel    string
	analyzeTimeout  time.Duration
	analyzeJSON     bool
	analyzeDownload bool
	analyzeDir      string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <video>",
	Short: "分析单个视频文件",
	Long:  `把视频文件上传到检测服务推理，输出归一化后的区间结论，不写数据库。`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		model := vds.Model(analyzeModel)
		if !model.Valid() {
			fmt.Printf("Error: unsupported model %q\n", analyzeModel)
			os.Exit(1)
		}

		f, err := os.Open(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()

		engine := vds.NewEngine().SetConfig(vds.Config{
			Addr:    analyzeAddr,
			Timeout: analyzeTimeout,
		})

		ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
		defer cancel()

		resp, err := engine.Predict(ctx, f, filepath.Base(args[0]), model)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		out, err := analysis.Normalize(resp, engine.ArtifactURL)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		if analyzeJSON {
			data, _ := json.MarshalIndent(out, "", "  ")
			fmt.Println(string(data))
		} else {
			printResult(out)
		}

		if analyzeDownload && out.AnnotatedURL != "" {
			if err := saveAnnotated(cmd.Context(), out.AnnotatedURL); err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
		}
	},
}

func saveAnnotated(ctx context.Context, url string) error {
	d := artifact.NewDownloader(analyzeDir)
	data, err := d.Download(ctx, url, func(p artifact.Progress) {
		if p.Percent != nil {
			fmt.Printf("\r%6.1f%%  %d bytes", *p.Percent, p.ReceivedBytes)
		} else {
			fmt.Printf("\r%d bytes", p.ReceivedBytes)
		}
	})
	fmt.Println()
	if err != nil {
		return err
	}
	saved, err := d.Save(path.Base(url), data)
	if err != nil {
		return err
	}
	fmt.Printf("saved: %s (%d bytes)\n", saved, len(data))
	return nil
}

func printResult(out *analysis.Result) {
	verdict := "无暴力"
	if out.Violent {
		verdict = "检出暴力"
	}
	fmt.Printf("%s  model=%s  %s\n", out.SourceLabel, out.Model, verdict)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INTERVAL\tCONFIDENCE\tVIOLENT")
	for _, iv := range out.Intervals {
		label := iv.StartLabel
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(w, "%s\t%.1f%%\t%v\n", label, iv.Confidence, iv.IsViolent)
	}
	w.Flush()

	if out.AnnotatedURL != "" {
		fmt.Printf("annotated: %s\n", out.AnnotatedURL)
	}
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeAddr, "addr", "http://127.0.0.1:8000", "检测服务地址")
	analyzeCmd.Flags().StringVar(&analyzeModel, "model", string(vds.ModelTwoStream), "推理模型: i3d_two_streams / i3d / cnn_lstm")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 30*time.Second, "推理请求超时")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "以 JSON 输出结果")
	analyzeCmd.Flags().BoolVar(&analyzeDownload, "download", false, "分析后下载标注视频")
	analyzeCmd.Flags().StringVar(&analyzeDir, "dir", "artifacts", "标注视频落盘目录")
	rootCmd.AddCommand(analyzeCmd)
}

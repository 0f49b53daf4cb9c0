package cmd

import (
	"fmt"
	"os"

	"github.com/gowvp/vigil/internal/app"
	"github.com/gowvp/vigil/internal/conf"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务",
	Run: func(cmd *cobra.Command, args []string) {
		bc, err := conf.SetupConfig(confDir)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		bc.BuildVersion = buildVersion

		if err := app.Run(bc); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

package cmd

import (
	"voxshare/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动VoxShare服务器",
	Long:  `启动VoxShare音频分享系统的HTTP服务器，提供API服务和Web界面`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

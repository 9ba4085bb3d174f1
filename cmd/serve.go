package cmd

import (
	"github.com/spf13/cobra"

	"github.com/shouni/go-insert-image-kit/internal/pipeline"
)

var flagPort string

// serveCmd は、Studio を HTTP JSON API として公開するのだ。
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "HTTP JSON API サーバーを起動するのだ。",
	Long: `/api/v1 以下に画像案の作成、編集、調整、生成、書き出しの API を公開するのだ。
状態はプロセス内の 1 つのスタジオで共有され、Ctrl+C でグレースフルに停止するのだ。`,
	RunE: serveCommand,
}

func init() {
	serveCmd.Flags().StringVar(&flagPort, "port", "", "待ち受けるポートなのだ。省略すると環境変数 PORT（既定 8080）なのだ。")
}

func serveCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	if flagPort != "" {
		cfg.Port = flagPort
	}
	return pipeline.ExecuteServe(cmd.Context(), cfg)
}

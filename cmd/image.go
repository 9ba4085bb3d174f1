package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shouni/go-insert-image-kit/internal/pipeline"
)

// imageCmd は、セッション内の画像案から画像を生成するためのサブコマンドなのだ。
// --id を省略するとすべての画像案をまとめて並列に生成するのだ。
var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "セッションの画像案から画像を生成するのだ。",
	Long: `セッションファイルを読み込み、--id で指定した画像案、または全件の画像を生成するのだ。
全件生成では 1 件でもプロンプトが空なら何も生成しないのだ。
一部が失敗しても成功した画像はセッションに残るので、export で書き出せるのだ。`,
	RunE: imageCommand,
}

func init() {
	imageCmd.Flags().StringVar(&opts.IdeaID, "id", "", "生成する画像案なのだ。省略すると全件なのだ。")
}

func imageCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)

	slog.Info("画像生成モードを起動するのだ！",
		"session", cfg.Options.SessionFile,
		"image_backend", cfg.Library.ImageBackend,
		"image_model", cfg.Library.ImageModel)

	return pipeline.ExecuteImage(cmd.Context(), cfg, cmd.OutOrStdout())
}

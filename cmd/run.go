package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shouni/go-insert-image-kit/internal/pipeline"
)

// runCmd は、画像案の生成から ZIP の書き出しまでを一気に実行するのだ。
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "画像案の生成、全画像の生成、書き出しを一度に行うのだ。",
	Long: `文字起こしを読み込んで画像案を作り、そのまますべての画像を生成して ZIP に書き出すのだ。
途中の状態はセッションファイルにも保存されるので、失敗した画像は image --id で作り直せるのだ。`,
	RunE: runCommand,
}

func init() {
	runCmd.Flags().StringVarP(&opts.Source, "source", "i", "", "文字起こしの入力元なのだ（'-' で標準入力）。")
	addExportFlags(runCmd)
}

func runCommand(cmd *cobra.Command, args []string) error {
	if err := resolveSource(); err != nil {
		return err
	}
	cfg := loadConfig(cmd)

	slog.Info("挿絵生成パイプラインを起動するのだ！",
		"source", cfg.Options.Source,
		"count", cfg.Options.Count,
		"text_model", cfg.Library.TextModel,
		"image_model", cfg.Library.ImageModel,
		"output_dir", cfg.Options.OutputDir)

	if err := pipeline.ExecuteRun(cmd.Context(), cfg, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}
	return nil
}

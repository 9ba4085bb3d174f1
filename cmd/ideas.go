package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shouni/go-insert-image-kit/internal/pipeline"
	"github.com/shouni/go-insert-image-kit/pkg/ingest"
)

// ideasCmd は、文字起こしから画像案を作ってセッションファイルに保存するのだ。
var ideasCmd = &cobra.Command{
	Use:   "ideas",
	Short: "文字起こしから画像案を作ってセッションに保存するのだ。",
	Long: `--source で指定した文字起こし（ファイル / gs:// / URL / PDF / '-' で標準入力）を読み込み、
指定した数の画像案（日本語タイトルと英語プロンプト）を作ってセッションファイルに書き出すのだ。
以前のセッションは上書きされるのだ。`,
	RunE: ideasCommand,
}

func init() {
	ideasCmd.Flags().StringVarP(&opts.Source, "source", "i", "", "文字起こしの入力元なのだ（'-' で標準入力）。")
}

func ideasCommand(cmd *cobra.Command, args []string) error {
	if err := resolveSource(); err != nil {
		return err
	}
	cfg := loadConfig(cmd)

	slog.Info("画像案の生成を開始するのだ！",
		"source", cfg.Options.Source,
		"count", cfg.Options.Count,
		"aspect_ratio", cfg.Options.AspectRatio,
		"text_backend", cfg.Library.TextBackend,
		"text_model", cfg.Library.TextModel)

	return pipeline.ExecuteIdeas(cmd.Context(), cfg, cmd.OutOrStdout())
}

// resolveSource は --source が未指定で標準入力がパイプなら '-' を使うのだ。
func resolveSource() error {
	if opts.Source != "" {
		return nil
	}
	if isStdin() {
		opts.Source = ingest.StdinSource
		return nil
	}
	return fmt.Errorf("文字起こしの入力元（--source）を指定してほしいのだ")
}

func isStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shouni/go-insert-image-kit/internal/config"
	"github.com/shouni/go-insert-image-kit/internal/pipeline"
)

// studioCmd は、画像案の編集と生成を対話的に行うターミナル UI を起動するのだ。
var studioCmd = &cobra.Command{
	Use:   "studio",
	Short: "対話型のターミナル UI で画像案を編集・生成するのだ。",
	Long: `文字起こしの入力から画像案の編集、AI による調整、画像生成、書き出しまでを 1 つの画面で行うのだ。
画面を崩さないよう、ログは ` + config.DefaultLogFileName + ` に書き出されるのだ。
終了時の状態はセッションファイルに保存され、--resume で続きから再開できるのだ。`,
	RunE: studioCommand,
}

func init() {
	studioCmd.Flags().StringVarP(&opts.Source, "source", "i", "", "最初に読み込む文字起こしの入力元なのだ。")
	studioCmd.Flags().BoolVar(&opts.Resume, "resume", false, "セッションファイルから状態を復元するのだ。")
}

func studioCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)

	logFile, err := os.OpenFile(config.DefaultLogFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("ログファイルを開けなかったのだ: %w", err)
	}
	defer logFile.Close()
	slog.SetDefault(config.NewLogger(logFile, cfg.LogLevel))

	return pipeline.ExecuteStudio(cmd.Context(), cfg)
}

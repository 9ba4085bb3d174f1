package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shouni/go-insert-image-kit/internal/config"
	libcfg "github.com/shouni/go-insert-image-kit/pkg/config"
	"github.com/shouni/go-insert-image-kit/pkg/domain"
)

const appName = "insert-image"

// skipAPIKeyCheck を付けたコマンドは API キーなしで動くのだ。
const skipAPIKeyCheck = "skip-api-key-check"

var (
	opts config.GenerateOptions

	flagTextBackend  string
	flagImageBackend string
	flagTextModel    string
	flagImageModel   string
	flagLogLevel     string
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "文字起こしから記事の挿絵を AI で作るのだ。",
	Long: `文字起こしを読み込んで Text Oracle に画像案（タイトルと英語プロンプト）を考えてもらい、
プロンプトを調整しながら Image Oracle で画像を生成して ZIP にまとめるのだ。
ideas → edit/refine → image → export の順に、セッションファイルを介して少しずつ進められるのだ。`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: preRunAppE,
}

func init() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(
		ideasCmd,
		editCmd,
		refineCmd,
		imageCmd,
		exportCmd,
		runCmd,
		studioCmd,
		serveCmd,
		ratiosCmd,
	)
}

// addAppFlags は、すべてのサブコマンドに共通するフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	pf := rootCmd.PersistentFlags()

	// --- セッションと出力 ---
	pf.StringVarP(&opts.SessionFile, "session", "s", config.DefaultSessionFile, "セッションファイルのパス（ローカル or gs://...）なのだ。")
	pf.StringVarP(&opts.OutputDir, "output-dir", "d", config.DefaultOutputDir, "画像と ZIP の保存先ディレクトリ（ローカル or gs://...）なのだ。")

	// --- 画像案 ---
	pf.IntVarP(&opts.Count, "count", "n", domain.DefaultImageCount, fmt.Sprintf("画像案の数（%d〜%d）なのだ。", domain.MinImageCount, domain.MaxImageCount))
	pf.StringVarP(&opts.AspectRatio, "aspect", "a", domain.DefaultAspectRatio.Value, "アスペクト比（16:9 / 1:1 / 3:2）なのだ。")

	// --- AI バックエンド ---
	pf.StringVar(&flagTextBackend, "text-backend", libcfg.TextBackendGemini, "画像案とプロンプト調整に使うバックエンド（gemini / claude）なのだ。")
	pf.StringVar(&flagImageBackend, "image-backend", libcfg.ImageBackendImagen, "画像生成に使うバックエンド（imagen / gemini）なのだ。")
	pf.StringVar(&flagTextModel, "text-model", "", "テキスト生成モデル名なのだ。空ならバックエンドの既定値なのだ。")
	pf.StringVar(&flagImageModel, "image-model", "", "画像生成モデル名なのだ。空ならバックエンドの既定値なのだ。")
	pf.DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "Web リクエストのタイムアウトなのだ。")
	pf.StringVar(&flagLogLevel, "log-level", "", "ログレベル（debug / info / warn / error）なのだ。")
}

// preRunAppE は、ロガーを設定して API キーの有無を確かめるのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	config.SetupLogger(cfg.LogLevel)

	if cmd.Annotations[skipAPIKeyCheck] == "true" {
		return nil
	}
	// 画像生成はどちらのバックエンドでも Gemini API を使うのだ
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。画像生成には必須なのだ")
	}
	if cfg.Library.TextBackend == libcfg.TextBackendClaude && cfg.AnthropicAPIKey == "" {
		return fmt.Errorf("エラー: --text-backend=claude には環境変数 ANTHROPIC_API_KEY が必要なのだ")
	}
	return nil
}

// loadConfig は環境変数の設定に、明示的に指定されたフラグを上書きするのだ。
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.LoadConfig()
	flags := cmd.Flags()

	if flags.Changed("text-backend") {
		cfg.Library.TextBackend = flagTextBackend
	}
	if flags.Changed("image-backend") {
		cfg.Library.ImageBackend = flagImageBackend
	}
	if flagTextModel != "" {
		cfg.Library.TextModel = flagTextModel
	}
	if flagImageModel != "" {
		cfg.Library.ImageModel = flagImageModel
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	cfg.ResolveModels()

	cfg.Options = opts
	return cfg
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// SIGINT / SIGTERM でコンテキストをキャンセルしてからコマンドを実行するのだ。
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("コマンドの実行に失敗したのだ", "error", err)
		fmt.Fprintln(os.Stderr, domain.Message(err))
		stop()
		os.Exit(1)
	}
}

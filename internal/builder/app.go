package builder

import (
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"

	"github.com/shouni/go-insert-image-kit/internal/config"
	"github.com/shouni/go-insert-image-kit/pkg/ingest"
	"github.com/shouni/go-insert-image-kit/pkg/publisher"
	"github.com/shouni/go-insert-image-kit/pkg/workflow"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各 Execute 関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config     *config.Config          // Configは、環境変数から読み込まれたグローバルな設定です（APIキー、モデル名など）。
	Options    config.GenerateOptions  // Optionsは、コマンドラインから渡された実行時の設定です（枚数、アスペクト比など）。
	Reader     remoteio.InputReader    // Readerは、文字起こしやセッションファイルの読み込みに使用する入力元です。
	Writer     remoteio.OutputWriter   // Writerは、アーカイブや画像、セッションを保存するための出力先です。
	Studio     *workflow.Studio        // Studioは、画像案の状態と 2 つの Oracle への呼び出しを管理します。
	Loader     *ingest.Loader          // Loaderは、文字起こしの入力元を解決して読み込みます。
	Publisher  *publisher.Publisher    // Publisherは、生成済み画像の保存を担当します。
	httpClient httpkit.ClientInterface // httpClient は外部との通信に使う共通クライアント
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(
	cfg *config.Config,
	httpClient httpkit.ClientInterface,
	reader remoteio.InputReader,
	writer remoteio.OutputWriter,
	studio *workflow.Studio,
	loader *ingest.Loader,
	pub *publisher.Publisher,
) AppContext {
	return AppContext{
		Config:     cfg,
		Options:    cfg.Options,
		Reader:     reader,
		Writer:     writer,
		Studio:     studio,
		Loader:     loader,
		Publisher:  pub,
		httpClient: httpClient,
	}
}

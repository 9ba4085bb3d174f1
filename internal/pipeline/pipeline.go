package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"

	"github.com/shouni/go-insert-image-kit/internal/builder"
	"github.com/shouni/go-insert-image-kit/internal/config"
	"github.com/shouni/go-insert-image-kit/internal/server"
	"github.com/shouni/go-insert-image-kit/internal/tui"
	"github.com/shouni/go-insert-image-kit/pkg/domain"
	"github.com/shouni/go-insert-image-kit/pkg/ingest"
	"github.com/shouni/go-insert-image-kit/pkg/publisher"
	"github.com/shouni/go-insert-image-kit/pkg/workflow"
)

// ExecuteIdeas は文字起こしを読み込んで画像案を生成し、セッションファイルに保存するのだ。
func ExecuteIdeas(ctx context.Context, cfg *config.Config, out io.Writer) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	if err := requestConcepts(ctx, appCtx); err != nil {
		return err
	}

	snap := appCtx.Studio.Snapshot()
	PrintSnapshot(out, snap)
	return SaveSession(ctx, appCtx.Writer, appCtx.Options.SessionFile, snap)
}

// ExecuteEdit はセッション内の画像案のプロンプトを書き換えるのだ。
func ExecuteEdit(ctx context.Context, cfg *config.Config, out io.Writer) error {
	appCtx, err := setupSessionContext(ctx, cfg)
	if err != nil {
		return err
	}
	if err := applyEdit(appCtx.Studio, appCtx.Options); err != nil {
		return err
	}
	return finishSession(ctx, appCtx, out, nil)
}

// applyEdit は --aspect と --prompt の指定を画像案に反映するのだ。
// --prompt は明示されていれば空文字でもそのまま書き込むのだ。
func applyEdit(studio *workflow.Studio, opts config.GenerateOptions) error {
	id, err := ResolveIdeaID(studio.Snapshot().Ideas, opts.IdeaID)
	if err != nil {
		return err
	}
	if opts.AspectRatio != "" {
		ar, err := domain.ParseAspectRatio(opts.AspectRatio)
		if err != nil {
			return err
		}
		if err := studio.SetAspectRatio(id, ar); err != nil {
			return err
		}
	}
	if opts.PromptSet {
		if err := studio.EditPrompt(id, opts.Prompt); err != nil {
			return err
		}
	}
	return nil
}

// ExecuteRefine はセッション内の画像案 1 件のプロンプトを Text Oracle に調整させるのだ。
func ExecuteRefine(ctx context.Context, cfg *config.Config, out io.Writer) error {
	appCtx, err := setupSessionContext(ctx, cfg)
	if err != nil {
		return err
	}
	id, err := ResolveIdeaID(appCtx.Studio.Snapshot().Ideas, appCtx.Options.IdeaID)
	if err != nil {
		return err
	}

	slog.Info("プロンプトの調整を開始するのだ...", "idea_id", id)
	runErr := appCtx.Studio.RefinePrompt(ctx, id, appCtx.Options.Instruction)
	return finishSession(ctx, appCtx, out, runErr)
}

// ExecuteImage は --id が指定されていればその画像案だけ、なければ全件の画像を生成するのだ。
func ExecuteImage(ctx context.Context, cfg *config.Config, out io.Writer) error {
	appCtx, err := setupSessionContext(ctx, cfg)
	if err != nil {
		return err
	}

	var runErr error
	if appCtx.Options.IdeaID != "" {
		id, err := ResolveIdeaID(appCtx.Studio.Snapshot().Ideas, appCtx.Options.IdeaID)
		if err != nil {
			return err
		}
		slog.Info("画像を1枚生成するのだ...", "idea_id", id)
		runErr = appCtx.Studio.GenerateOne(ctx, id)
	} else {
		slog.Info("すべての画像を生成するのだ...", "ideas", len(appCtx.Studio.Snapshot().Ideas))
		_, runErr = appCtx.Studio.GenerateAll(ctx)
	}
	return finishSession(ctx, appCtx, out, runErr)
}

// ExecuteExport はセッション内の生成済み画像を ZIP にまとめて保存するのだ。
func ExecuteExport(ctx context.Context, cfg *config.Config, out io.Writer) error {
	appCtx, err := setupSessionContext(ctx, cfg)
	if err != nil {
		return err
	}
	return exportImages(ctx, appCtx, out)
}

// ExecuteRun は画像案の生成、全画像の生成、書き出しまでを一気に実行するのだ！
func ExecuteRun(ctx context.Context, cfg *config.Config, out io.Writer) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	slog.Info("Phase 1: 画像案の生成を開始するのだ...")
	if err := requestConcepts(ctx, appCtx); err != nil {
		return err
	}

	slog.Info("Phase 2: 画像生成を開始するのだ...")
	proceed, genErr := generateAllAndSave(ctx, appCtx.Studio, appCtx.Writer, appCtx.Options.SessionFile, out)
	if !proceed {
		return genErr
	}

	slog.Info("Phase 3: 書き出しを開始するのだ...")
	if err := exportImages(ctx, appCtx, out); err != nil {
		return err
	}
	if genErr != nil {
		return genErr
	}
	slog.Info("すべての処理が完了したのだ！")
	return nil
}

// ExecuteStudio は対話型のターミナル UI を起動するのだ。
func ExecuteStudio(ctx context.Context, cfg *config.Config) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	opts := appCtx.Options

	var transcript string
	if opts.Source != "" {
		t, err := appCtx.Loader.Load(ctx, opts.Source)
		if err != nil {
			return err
		}
		transcript = t.Text
	}
	if opts.Resume {
		snap, err := LoadSession(ctx, appCtx.Reader, opts.SessionFile)
		if err != nil {
			return err
		}
		if err := appCtx.Studio.Restore(snap); err != nil {
			return err
		}
		if transcript == "" {
			transcript = snap.Transcript
		}
	}

	aspect, err := domain.ParseAspectRatio(opts.AspectRatio)
	if err != nil {
		return err
	}
	return tui.Run(ctx, appCtx.Studio, tui.Options{
		Transcript:  transcript,
		Count:       opts.Count,
		AspectRatio: aspect,
		OutputDir:   opts.OutputDir,
		Publisher:   appCtx.Publisher,
		SaveSession: func(ctx context.Context, snap workflow.Snapshot) error {
			return SaveSession(ctx, appCtx.Writer, opts.SessionFile, snap)
		},
	})
}

// ExecuteServe は HTTP JSON API サーバーを起動し、ctx がキャンセルされるまで待つのだ。
func ExecuteServe(ctx context.Context, cfg *config.Config) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	srv := server.New(appCtx.Studio, appCtx.Loader, server.Options{
		GinMode:      appCtx.Config.GinMode,
		DefaultCount: appCtx.Options.Count,
		AllowOrigins: appCtx.Config.AllowOrigins,
	})
	addr := ":" + appCtx.Config.Port
	return srv.Run(ctx, addr)
}

// setupAppContext は、提供された設定と共有コンポーネントを使用して、アプリケーションコンテキストを初期化して返すのだ。
func setupAppContext(ctx context.Context, cfg *config.Config) (*builder.AppContext, error) {
	httpClient := httpkit.New(cfg.Options.HTTPTimeout)

	gcsFactory, err := gcsfactory.NewGCSClientFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client factory: %w", err)
	}
	reader, err := gcsFactory.NewInputReader()
	if err != nil {
		return nil, err
	}
	writer, err := gcsFactory.NewOutputWriter()
	if err != nil {
		return nil, err
	}

	studio, err := builder.BuildStudio(ctx, cfg, httpClient, reader)
	if err != nil {
		return nil, err
	}

	loader := ingest.NewLoader(httpClient, reader, os.Stdin)
	pub := publisher.NewPublisher(writer)

	appCtx := builder.NewAppContext(cfg, httpClient, reader, writer, studio, loader, pub)
	return &appCtx, nil
}

// setupSessionContext は AppContext を作ったうえで、セッションファイルから Studio を復元するのだ。
func setupSessionContext(ctx context.Context, cfg *config.Config) (*builder.AppContext, error) {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return nil, err
	}
	snap, err := LoadSession(ctx, appCtx.Reader, appCtx.Options.SessionFile)
	if err != nil {
		return nil, err
	}
	if err := appCtx.Studio.Restore(snap); err != nil {
		return nil, fmt.Errorf("セッションの復元に失敗しました: %w", err)
	}
	return appCtx, nil
}

func requestConcepts(ctx context.Context, appCtx *builder.AppContext) error {
	opts := appCtx.Options
	transcript, err := appCtx.Loader.Load(ctx, opts.Source)
	if err != nil {
		return err
	}
	aspect, err := domain.ParseAspectRatio(opts.AspectRatio)
	if err != nil {
		return err
	}
	return appCtx.Studio.RequestConcepts(ctx, transcript.Text, opts.Count, aspect)
}

// generateAllAndSave は全画像を生成し、成否にかかわらずセッションを保存するのだ。
// 一部の画像だけが失敗したときは ErrSomeImagesFailed を返しつつ proceed を true にして書き出しを続けさせるのだ。
func generateAllAndSave(ctx context.Context, studio *workflow.Studio, writer SessionWriter, sessionFile string, out io.Writer) (proceed bool, err error) {
	_, genErr := studio.GenerateAll(ctx)
	snap := studio.Snapshot()
	PrintSnapshot(out, snap)
	if saveErr := SaveSession(ctx, writer, sessionFile, snap); saveErr != nil {
		return false, errors.Join(genErr, saveErr)
	}
	if genErr != nil && !errors.Is(genErr, domain.ErrSomeImagesFailed) {
		return false, genErr
	}
	return true, genErr
}

// finishSession は結果を表示してセッションを保存し、操作のエラーを返すのだ。
// 操作が失敗しても画像案ごとのエラーを残すためにセッションは保存するのだ。
func finishSession(ctx context.Context, appCtx *builder.AppContext, out io.Writer, runErr error) error {
	snap := appCtx.Studio.Snapshot()
	PrintSnapshot(out, snap)
	if err := SaveSession(ctx, appCtx.Writer, appCtx.Options.SessionFile, snap); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

func exportImages(ctx context.Context, appCtx *builder.AppContext, out io.Writer) error {
	opts := appCtx.Options
	images := appCtx.Studio.GeneratedImages()
	if len(images) == 0 {
		return domain.ErrNoImages
	}

	dest := opts.OutputFile
	if dest == "" {
		dest = opts.OutputDir
	}
	path, err := appCtx.Publisher.PublishArchive(ctx, images, dest)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d 枚の画像を %s に保存しました\n", len(images), path)

	if opts.SaveEach {
		for _, idea := range images {
			p, err := appCtx.Publisher.SaveImage(ctx, idea, opts.OutputDir)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, p)
		}
	}
	return nil
}

package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/shouni/go-insert-image-kit/pkg/workflow"
)

// Run は TUI を起動し、終了するまでブロックするのだ。
// 終了時に SaveSession が設定されていれば最後の状態を保存するのだ。
func Run(ctx context.Context, studio Studio, opts Options) error {
	if opts.Publisher == nil {
		return errors.New("tui: Publisher は必須です")
	}

	p := tea.NewProgram(NewModel(ctx, studio, opts), tea.WithAltScreen(), tea.WithContext(ctx))

	// Send は Update の中から呼ばれると詰まるので、通知は別ゴルーチンから送るのだ。
	// 順序の逆転は Snapshot.Version で吸収するのだ。
	unsubscribe := studio.Subscribe(func(snap workflow.Snapshot) {
		go p.Send(snapshotMsg(snap))
	})
	defer unsubscribe()

	_, runErr := p.Run()
	if errors.Is(runErr, tea.ErrProgramKilled) && ctx.Err() != nil {
		runErr = nil
	}

	if opts.SaveSession != nil {
		if err := opts.SaveSession(context.WithoutCancel(ctx), studio.Snapshot()); err != nil {
			slog.Error("セッションの保存に失敗しました", "error", err)
			return errors.Join(runErr, fmt.Errorf("セッションの保存に失敗しました: %w", err))
		}
		slog.Info("セッションを保存したのだ")
	}
	return runErr
}

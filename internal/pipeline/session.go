package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/shouni/go-insert-image-kit/pkg/workflow"
)

const sessionContentType = "application/json; charset=utf-8"

// SessionReader は remoteio.InputReader のうち読み込みだけを使うのだ。
type SessionReader interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// SessionWriter は remoteio.OutputWriter のうち書き込みだけを使うのだ。
type SessionWriter interface {
	Write(ctx context.Context, uri string, r io.Reader, contentType string) error
}

// LoadSession はセッションファイル（Studio のスナップショット JSON）を読み込むのだ。
func LoadSession(ctx context.Context, reader SessionReader, path string) (workflow.Snapshot, error) {
	rc, err := reader.Open(ctx, path)
	if err != nil {
		return workflow.Snapshot{}, fmt.Errorf("セッションファイル '%s' の読み込みに失敗しました: %w", path, err)
	}
	defer rc.Close()

	var snap workflow.Snapshot
	if err := json.NewDecoder(rc).Decode(&snap); err != nil {
		return workflow.Snapshot{}, fmt.Errorf("セッションファイル '%s' のデコードに失敗しました: %w", path, err)
	}
	return snap, nil
}

// SaveSession はスナップショットを JSON としてセッションファイルに書き出すのだ。
func SaveSession(ctx context.Context, writer SessionWriter, path string, snap workflow.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("セッションのエンコードに失敗しました: %w", err)
	}
	if err := writer.Write(ctx, path, bytes.NewReader(data), sessionContentType); err != nil {
		return fmt.Errorf("セッションファイル '%s' の保存に失敗しました: %w", path, err)
	}
	slog.InfoContext(ctx, "セッションを保存したのだ", "path", path, "ideas", len(snap.Ideas))
	return nil
}

package publisher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/shouni/go-insert-image-kit/pkg/domain"
)

const (
	zipContentType  = "application/zip"
	jpegContentType = "image/jpeg"
	gcsScheme       = "gs://"
)

// Writer は remoteio.OutputWriter のうち書き込みだけを切り出したものです。
type Writer interface {
	Write(ctx context.Context, uri string, r io.Reader, contentType string) error
}

// Publisher は生成済み画像をローカルまたは GCS に保存します。
type Publisher struct {
	writer Writer
}

// NewPublisher は Publisher を初期化します。
func NewPublisher(writer Writer) *Publisher {
	return &Publisher{writer: writer}
}

// PublishArchive は画像を ZIP にまとめて dest に書き込み、書き込んだパスを返します。
// dest がディレクトリ（末尾が .zip でない）の場合は DefaultArchiveName を付けます。
func (p *Publisher) PublishArchive(ctx context.Context, ideas []domain.Idea, dest string) (string, error) {
	target, err := ResolveArchivePath(dest)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	names, err := WriteArchive(&buf, ideas)
	if err != nil {
		return "", err
	}
	if err := p.writer.Write(ctx, target, &buf, zipContentType); err != nil {
		return "", fmt.Errorf("アーカイブの保存に失敗しました (%s): %w", target, err)
	}
	slog.InfoContext(ctx, "アーカイブを保存しました", "path", target, "images", len(names))
	return target, nil
}

// SaveImage は画像 1 枚を dir に保存し、保存先のパスを返します。
func (p *Publisher) SaveImage(ctx context.Context, idea domain.Idea, dir string) (string, error) {
	if !idea.HasImage() {
		return "", fmt.Errorf("idea %s: %w", idea.ShortID(), domain.ErrNoImages)
	}
	target, err := ResolveOutputPath(dir, ImageFileName(idea))
	if err != nil {
		return "", err
	}
	if err := p.writer.Write(ctx, target, bytes.NewReader(idea.Image.Data), jpegContentType); err != nil {
		return "", fmt.Errorf("画像の保存に失敗しました (%s): %w", target, err)
	}
	slog.InfoContext(ctx, "画像を保存しました", "path", target, "idea_id", idea.ID)
	return target, nil
}

// ResolveArchivePath は出力先がディレクトリならアーカイブ名を付けたパスを返します。
func ResolveArchivePath(dest string) (string, error) {
	if dest == "" {
		return DefaultArchiveName, nil
	}
	if strings.HasSuffix(strings.ToLower(dest), ".zip") {
		return dest, nil
	}
	return ResolveOutputPath(dest, DefaultArchiveName)
}

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から、
// GCS/ローカルを考慮した最終的な出力パスを生成します。
// GCS の場合は日本語のファイル名がエスケープされないよう文字列のまま結合します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	if strings.HasPrefix(strings.ToLower(baseDir), gcsScheme) {
		rest := strings.TrimPrefix(baseDir[len(gcsScheme):], "/")
		bucket, _, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return "", fmt.Errorf("無効なGCS URIです: バケット名がありません (%s)", baseDir)
		}
		return gcsScheme + path.Join(rest, fileName), nil
	}
	return filepath.Join(baseDir, fileName), nil
}

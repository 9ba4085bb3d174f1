package publisher

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/shouni/go-insert-image-kit/pkg/domain"
)

// BuildArchive は画像を持つ画像案を 1 件ずつ JPEG として ZIP に詰めます。
// 画像が 1 枚も無い場合は domain.ErrNoImages を返します。
func BuildArchive(ideas []domain.Idea) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := WriteArchive(&buf, ideas); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteArchive は ZIP を w に書き出し、格納したエントリ名を返します。
func WriteArchive(w io.Writer, ideas []domain.Idea) ([]string, error) {
	images := withImages(ideas)
	if len(images) == 0 {
		return nil, domain.ErrNoImages
	}

	zw := zip.NewWriter(w)
	names := make([]string, 0, len(images))
	used := make(map[string]int, len(images))
	modified := time.Now()
	for i, idea := range images {
		name := uniqueName(ArchiveName(idea, i), used)
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Store, // JPEG は圧縮済み
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("ZIP エントリ %s の作成に失敗しました: %w", name, err)
		}
		if _, err := fw.Write(idea.Image.Data); err != nil {
			return nil, fmt.Errorf("ZIP エントリ %s の書き込みに失敗しました: %w", name, err)
		}
		names = append(names, name)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("ZIP の書き込みに失敗しました: %w", err)
	}
	return names, nil
}

func withImages(ideas []domain.Idea) []domain.Idea {
	out := make([]domain.Idea, 0, len(ideas))
	for _, idea := range ideas {
		if idea.HasImage() {
			out = append(out, idea)
		}
	}
	return out
}

// uniqueName は同名のエントリが既にある場合に連番を付けます。
func uniqueName(name string, used map[string]int) string {
	n := used[name]
	used[name] = n + 1
	if n == 0 {
		return name
	}
	ext := imageExt
	base := name[:len(name)-len(ext)]
	return fmt.Sprintf("%s(%d)%s", base, n, ext)
}

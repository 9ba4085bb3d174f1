package ingest

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/ledongthuc/pdf"
)

// loadPDF は PDF（ローカル、GCS、URL）からプレーンテキストを抽出します。
// 抽出に失敗したページは読み飛ばします。
func (l *Loader) loadPDF(ctx context.Context, source string) (*Transcript, error) {
	data, err := l.readSource(ctx, source)
	if err != nil {
		return nil, err
	}
	text, err := extractPDFText(data)
	if err != nil {
		return nil, fmt.Errorf("could not read PDF %s: %w", source, err)
	}
	if text == "" {
		return nil, fmt.Errorf("could not extract text from PDF %s (it may be scanned or image-based): %w", source, ErrEmptyContent)
	}
	return &Transcript{Text: text, Source: path.Base(source)}, nil
}

func extractPDFText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String()), nil
}

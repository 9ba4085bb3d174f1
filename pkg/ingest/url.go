package ingest

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	readability "github.com/go-shiori/go-readability"
)

// loadURL は Web ページを取得し、本文だけを抽出します。
func (l *Loader) loadURL(ctx context.Context, source string) (*Transcript, error) {
	parsed, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %s: %w", source, err)
	}
	data, err := l.readSource(ctx, source)
	if err != nil {
		return nil, err
	}

	article, err := readability.FromReader(bytes.NewReader(data), parsed)
	if err != nil {
		return nil, fmt.Errorf("could not extract article from %s: %w", source, err)
	}
	return &Transcript{
		Text:   article.TextContent,
		Title:  article.Title,
		Source: source,
	}, nil
}

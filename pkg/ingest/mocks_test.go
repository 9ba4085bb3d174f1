package ingest

import (
	"context"
	"errors"
	"io"
	"strings"
)

type mockFetcher struct {
	pages map[string][]byte
	calls int
}

func (m *mockFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.calls++
	data, ok := m.pages[url]
	if !ok {
		return nil, errors.New("404 not found")
	}
	return data, nil
}

type mockReader struct {
	files map[string]string
}

func (m *mockReader) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	content, ok := m.files[uri]
	if !ok {
		return nil, errors.New("no such file")
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

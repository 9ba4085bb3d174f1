package publisher

import (
	"context"
	"io"
)

type writeCall struct {
	uri         string
	data        []byte
	contentType string
}

type mockWriter struct {
	calls []writeCall
	err   error
}

func (m *mockWriter) Write(ctx context.Context, uri string, r io.Reader, contentType string) error {
	if m.err != nil {
		return m.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.calls = append(m.calls, writeCall{uri: uri, data: data, contentType: contentType})
	return nil
}

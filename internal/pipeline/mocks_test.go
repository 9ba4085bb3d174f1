package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"

	"github.com/shouni/go-insert-image-kit/pkg/domain"
	"github.com/shouni/go-insert-image-kit/pkg/oracle"
)

// --- Mocks ---

type fakeText struct{}

func (fakeText) ProposeConcepts(_ context.Context, req oracle.ConceptRequest) ([]domain.Concept, error) {
	return nil, errors.New("not used")
}

func (fakeText) RefinePrompt(_ context.Context, req oracle.RefineRequest) (string, error) {
	return req.CurrentPrompt, nil
}

type fakeImage struct {
	calls atomic.Int32
}

func (f *fakeImage) GenerateImage(_ context.Context, req oracle.ImageRequest) (*domain.Image, error) {
	f.calls.Add(1)
	if strings.Contains(req.Prompt, "broken") {
		return nil, errors.New("quota exceeded")
	}
	return &domain.Image{Data: []byte("jpeg:" + req.Prompt), MimeType: "image/jpeg"}, nil
}

type failingWriter struct {
	err error
}

func (f failingWriter) Write(context.Context, string, io.Reader, string) error {
	return f.err
}

package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/shouni/go-insert-image-kit/pkg/domain"
	"github.com/shouni/go-insert-image-kit/pkg/ingest"
	"github.com/shouni/go-insert-image-kit/pkg/oracle"
)

// --- Mocks ---

type fakeText struct {
	refineErr error
}

func (f *fakeText) ProposeConcepts(_ context.Context, req oracle.ConceptRequest) ([]domain.Concept, error) {
	out := make([]domain.Concept, req.Count)
	for i := range out {
		out[i] = domain.Concept{Title: fmt.Sprintf("場面%d", i+1), Prompt: fmt.Sprintf("scene %d", i+1)}
	}
	return out, nil
}

func (f *fakeText) RefinePrompt(_ context.Context, req oracle.RefineRequest) (string, error) {
	if f.refineErr != nil {
		return "", f.refineErr
	}
	return req.CurrentPrompt + ", " + req.Instruction, nil
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

type fakeLoader struct {
	text    string
	err     error
	sources []string
}

func (f *fakeLoader) Load(_ context.Context, source string) (*ingest.Transcript, error) {
	f.sources = append(f.sources, source)
	if f.err != nil {
		return nil, f.err
	}
	return &ingest.Transcript{Text: f.text, Source: source, Type: ingest.SourceText}, nil
}

package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shouni/go-insert-image-kit/pkg/domain"
	"github.com/shouni/go-insert-image-kit/pkg/oracle"
	"github.com/shouni/go-insert-image-kit/pkg/workflow"
)

// --- Mocks ---

type fakeText struct{}

func (fakeText) ProposeConcepts(_ context.Context, req oracle.ConceptRequest) ([]domain.Concept, error) {
	out := make([]domain.Concept, req.Count)
	for i := range out {
		out[i] = domain.Concept{Title: fmt.Sprintf("場面%d", i+1), Prompt: fmt.Sprintf("scene %d", i+1)}
	}
	return out, nil
}

func (fakeText) RefinePrompt(_ context.Context, req oracle.RefineRequest) (string, error) {
	return req.CurrentPrompt + ", " + req.Instruction, nil
}

type fakeImage struct{ fail bool }

func (f fakeImage) GenerateImage(_ context.Context, req oracle.ImageRequest) (*domain.Image, error) {
	if f.fail {
		return nil, errors.New("quota exceeded")
	}
	return &domain.Image{Data: []byte(req.Prompt), MimeType: "image/jpeg"}, nil
}

type fakeExporter struct {
	mu       sync.Mutex
	archives [][]domain.Idea
	saved    []string
}

func (f *fakeExporter) PublishArchive(_ context.Context, ideas []domain.Idea, dest string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archives = append(f.archives, ideas)
	return dest + "/AI_Generated_Images.zip", nil
}

func (f *fakeExporter) SaveImage(_ context.Context, idea domain.Idea, dir string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, idea.ID)
	return dir + "/" + idea.Title + ".jpg", nil
}

type sessionRecorder struct {
	mu    sync.Mutex
	snaps []workflow.Snapshot
}

func (r *sessionRecorder) save(_ context.Context, snap workflow.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
	return nil
}

package workflow

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/shouni/go-insert-image-kit/pkg/domain"
	"github.com/shouni/go-insert-image-kit/pkg/oracle"
)

// --- Mocks ---

type mockTextOracle struct {
	mu          sync.Mutex
	conceptErr  error
	refineErr   error
	refined     string
	conceptHook chan struct{} // 非 nil なら ProposeConcepts はここから受信するまで待つ
	refineHook  chan struct{}
	conceptReqs []oracle.ConceptRequest
	refineReqs  []oracle.RefineRequest
}

func (m *mockTextOracle) ProposeConcepts(ctx context.Context, req oracle.ConceptRequest) ([]domain.Concept, error) {
	m.mu.Lock()
	m.conceptReqs = append(m.conceptReqs, req)
	hook, err := m.conceptHook, m.conceptErr
	m.mu.Unlock()
	if hook != nil {
		<-hook
	}
	if err != nil {
		return nil, err
	}
	concepts := make([]domain.Concept, req.Count)
	for i := range concepts {
		concepts[i] = domain.Concept{Title: fmt.Sprintf("場面%d", i+1), Prompt: fmt.Sprintf("Scene number %d", i+1)}
	}
	return concepts, nil
}

func (m *mockTextOracle) RefinePrompt(ctx context.Context, req oracle.RefineRequest) (string, error) {
	m.mu.Lock()
	m.refineReqs = append(m.refineReqs, req)
	hook, err, refined := m.refineHook, m.refineErr, m.refined
	m.mu.Unlock()
	if hook != nil {
		<-hook
	}
	if err != nil {
		return "", err
	}
	return refined, nil
}

func (m *mockTextOracle) conceptCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conceptReqs)
}

type mockImageOracle struct {
	mu       sync.Mutex
	calls    atomic.Int32
	failFor  map[string]error // プロンプトごとのエラー
	hook     chan struct{}
	started  chan string
	requests []oracle.ImageRequest
}

func (m *mockImageOracle) GenerateImage(ctx context.Context, req oracle.ImageRequest) (*domain.Image, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.requests = append(m.requests, req)
	err := m.failFor[req.Prompt]
	hook, started := m.hook, m.started
	m.mu.Unlock()
	if started != nil {
		started <- req.Prompt
	}
	if hook != nil {
		<-hook
	}
	if err != nil {
		return nil, err
	}
	return &domain.Image{Data: []byte("jpeg:" + req.Prompt), MimeType: "image/jpeg"}, nil
}

func sequentialIDs() func() string {
	var n atomic.Int32
	return func() string {
		return fmt.Sprintf("idea-%02d", n.Add(1))
	}
}

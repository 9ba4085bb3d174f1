package workflow

import (
	"fmt"

	"github.com/shouni/go-insert-image-kit/pkg/domain"
)

// Snapshot はある時点の Studio の不変なビューです。描画やセッションファイルの保存に使います。
// Version は変更のたびに増えるので、購読者は古いスナップショットを捨てられます。
type Snapshot struct {
	Version    uint64               `json:"version"`
	Transcript string               `json:"transcript"`
	Ideas      []domain.Idea        `json:"ideas"`
	State      domain.WorkflowState `json:"state"`
	Error      string               `json:"error,omitempty"`
	Notice     string               `json:"notice,omitempty"`
}

// Snapshot は現在の状態のスナップショットを返します。
func (s *Studio) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Studio) snapshotLocked() Snapshot {
	ideas := s.ideas
	if ideas == nil {
		ideas = []domain.Idea{}
	}
	return Snapshot{
		Version:    s.version,
		Transcript: s.transcript,
		Ideas:      ideas,
		State:      s.state,
		Error:      s.lastErr,
		Notice:     s.notice,
	}
}

// Restore は保存済みのスナップショットから状態を復元します。
// 処理中のまま保存された画像案は待機状態に戻し、欠けている ID は払い出し直します。
func (s *Studio) Restore(snap Snapshot) error {
	s.mu.Lock()
	if s.state.IsBatchBusy() {
		s.mu.Unlock()
		return domain.ErrBatchBusy
	}

	ideas := make([]domain.Idea, 0, len(snap.Ideas))
	index := make(map[string]int, len(snap.Ideas))
	for _, idea := range snap.Ideas {
		if _, dup := index[idea.ID]; dup || idea.ID == "" {
			idea.ID = s.uniqueID(index)
		}
		if idea.AspectRatio.Value == "" {
			idea.AspectRatio = domain.DefaultAspectRatio
		} else if ar, err := domain.ParseAspectRatio(idea.AspectRatio.Value); err == nil {
			idea.AspectRatio = ar
		} else {
			s.mu.Unlock()
			return fmt.Errorf("idea %s: %w", idea.ID, err)
		}
		index[idea.ID] = len(ideas)
		ideas = append(ideas, idea.Settled())
	}

	state := snap.State
	switch {
	case len(ideas) == 0:
		state = domain.WorkflowIdle
	case state.IsBatchBusy() || state == domain.WorkflowIdle:
		state = domain.WorkflowIdeasLoaded
	}

	s.epoch++
	s.transcript = snap.Transcript
	s.ideas = ideas
	s.index = index
	s.state = state
	s.lastErr = snap.Error
	s.notice = snap.Notice
	s.version++
	s.mu.Unlock()
	s.notify()
	return nil
}

// Subscribe は状態が変わるたびに fn を呼び出すよう登録し、解除用の関数を返します。
// fn はロックの外で、変更を行ったゴルーチンから呼ばれます。
func (s *Studio) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Studio) notify() {
	s.mu.Lock()
	if len(s.subscribers) == 0 {
		s.mu.Unlock()
		return
	}
	snap := s.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

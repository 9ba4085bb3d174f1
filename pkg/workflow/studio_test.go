package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-insert-image-kit/pkg/domain"
)

const transcript = "Intro. Middle. Outro."

func newTestStudio(t *testing.T, text *mockTextOracle, img *mockImageOracle) *Studio {
	t.Helper()
	s, err := New(Args{TextOracle: text, ImageOracle: img, NewID: sequentialIDs()})
	require.NoError(t, err)
	return s
}

func loadedStudio(t *testing.T, count int) (*Studio, *mockTextOracle, *mockImageOracle) {
	t.Helper()
	text := &mockTextOracle{refined: "A refined prompt"}
	img := &mockImageOracle{}
	s := newTestStudio(t, text, img)
	require.NoError(t, s.RequestConcepts(context.Background(), transcript, count, domain.AspectRatioSquare))
	return s, text, img
}

func TestNew(t *testing.T) {
	_, err := New(Args{ImageOracle: &mockImageOracle{}})
	assert.Error(t, err)
	_, err = New(Args{TextOracle: &mockTextOracle{}})
	assert.Error(t, err)
}

func TestRequestConcepts(t *testing.T) {
	ctx := context.Background()

	t.Run("件数ぶんの画像案が作られる", func(t *testing.T) {
		for _, n := range []int{domain.MinImageCount, 10, domain.MaxImageCount} {
			s, _, _ := loadedStudio(t, n)
			snap := s.Snapshot()
			require.Len(t, snap.Ideas, n)
			assert.Equal(t, domain.WorkflowIdeasLoaded, snap.State)

			seen := map[string]bool{}
			for _, idea := range snap.Ideas {
				assert.False(t, seen[idea.ID], "ID は一意")
				seen[idea.ID] = true
				assert.NotEmpty(t, idea.Prompt)
				assert.Equal(t, domain.StatusIdle, idea.Status)
				assert.Equal(t, domain.AspectRatioSquare, idea.AspectRatio)
			}
		}
	})

	t.Run("入力検証は Oracle に届かない", func(t *testing.T) {
		text := &mockTextOracle{}
		s := newTestStudio(t, text, &mockImageOracle{})

		assert.ErrorIs(t, s.RequestConcepts(ctx, "   ", 3, domain.AspectRatioWide), domain.ErrEmptyTranscript)
		assert.ErrorIs(t, s.RequestConcepts(ctx, transcript, 2, domain.AspectRatioWide), domain.ErrCountOutOfRange)
		assert.ErrorIs(t, s.RequestConcepts(ctx, transcript, 31, domain.AspectRatioWide), domain.ErrCountOutOfRange)
		assert.Equal(t, 0, text.conceptCalls())
		assert.NotEmpty(t, s.Snapshot().Error, "トップレベルのエラーが記録される")
	})

	t.Run("Oracle 失敗でリストは空のまま", func(t *testing.T) {
		text := &mockTextOracle{conceptErr: errors.New("503")}
		s := newTestStudio(t, text, &mockImageOracle{})

		err := s.RequestConcepts(ctx, transcript, 3, domain.AspectRatioWide)
		require.Error(t, err)
		snap := s.Snapshot()
		assert.Empty(t, snap.Ideas)
		assert.Equal(t, domain.WorkflowIdle, snap.State)
		assert.Contains(t, snap.Error, "503")
	})

	t.Run("アスペクト比未指定は既定値", func(t *testing.T) {
		s := newTestStudio(t, &mockTextOracle{}, &mockImageOracle{})
		require.NoError(t, s.RequestConcepts(ctx, transcript, 3, domain.AspectRatio{}))
		assert.Equal(t, domain.DefaultAspectRatio, s.Snapshot().Ideas[0].AspectRatio)
	})

	t.Run("読み込み中は多重実行できない", func(t *testing.T) {
		hook := make(chan struct{})
		text := &mockTextOracle{conceptHook: hook}
		s := newTestStudio(t, text, &mockImageOracle{})

		done := make(chan error, 1)
		go func() { done <- s.RequestConcepts(ctx, transcript, 3, domain.AspectRatioWide) }()
		require.Eventually(t, func() bool {
			return s.Snapshot().State == domain.WorkflowLoadingInitialIdeas
		}, time.Second, time.Millisecond)

		assert.ErrorIs(t, s.RequestConcepts(ctx, transcript, 3, domain.AspectRatioWide), domain.ErrBatchBusy)
		close(hook)
		require.NoError(t, <-done)
	})
}

func TestEditPrompt(t *testing.T) {
	s, _, _ := loadedStudio(t, 3)
	before := s.Snapshot()
	target := before.Ideas[1].ID

	require.NoError(t, s.EditPrompt(target, "A brand new prompt"))

	after := s.Snapshot()
	assert.Equal(t, "A brand new prompt", after.Ideas[1].Prompt)
	assert.Equal(t, before.Ideas[0], after.Ideas[0], "他の画像案は変わらない")
	assert.Equal(t, before.Ideas[2], after.Ideas[2])
	assert.Equal(t, "Scene number 2", before.Ideas[1].Prompt, "公開済みのスナップショットは書き換わらない")

	assert.ErrorIs(t, s.EditPrompt("missing", "x"), domain.ErrIdeaNotFound)
}

func TestEditPromptClearsError(t *testing.T) {
	s, _, _ := loadedStudio(t, 3)
	id := s.Snapshot().Ideas[0].ID
	require.NoError(t, s.EditPrompt(id, ""))
	require.ErrorIs(t, s.GenerateOne(context.Background(), id), domain.ErrEmptyPrompt)
	idea, err := s.Idea(id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, idea.Status)

	require.NoError(t, s.EditPrompt(id, "fixed"))
	idea, _ = s.Idea(id)
	assert.Empty(t, idea.Error)
	assert.Equal(t, domain.StatusIdle, idea.Status)
}

func TestSetAspectRatio(t *testing.T) {
	s, _, img := loadedStudio(t, 3)
	id := s.Snapshot().Ideas[2].ID
	require.NoError(t, s.SetAspectRatio(id, domain.AspectRatioPhoto))
	assert.Error(t, s.SetAspectRatio(id, domain.AspectRatio{Value: "5:4"}))

	require.NoError(t, s.GenerateOne(context.Background(), id))
	require.Len(t, img.requests, 1)
	assert.Equal(t, "3:2", img.requests[0].AspectRatio.Value)
}

func TestRefinePrompt(t *testing.T) {
	ctx := context.Background()

	t.Run("成功するとプロンプトが置き換わる", func(t *testing.T) {
		s, text, _ := loadedStudio(t, 3)
		id := s.Snapshot().Ideas[0].ID

		require.NoError(t, s.RefinePrompt(ctx, id, "make it night"))
		idea, _ := s.Idea(id)
		assert.Equal(t, "A refined prompt", idea.Prompt)
		assert.Equal(t, domain.StatusIdle, idea.Status)

		require.Len(t, text.refineReqs, 1)
		assert.Equal(t, transcript, text.refineReqs[0].Transcript)
		assert.Equal(t, "Scene number 1", text.refineReqs[0].CurrentPrompt)
		assert.Equal(t, "make it night", text.refineReqs[0].Instruction)
	})

	t.Run("空の指示は Oracle に届かない", func(t *testing.T) {
		s, text, _ := loadedStudio(t, 3)
		id := s.Snapshot().Ideas[0].ID
		assert.ErrorIs(t, s.RefinePrompt(ctx, id, "  "), domain.ErrEmptyInstruction)
		assert.Empty(t, text.refineReqs)
	})

	t.Run("失敗は画像案ごとのエラーになる", func(t *testing.T) {
		s, text, _ := loadedStudio(t, 3)
		text.refineErr = errors.New("timeout")
		id := s.Snapshot().Ideas[1].ID

		require.Error(t, s.RefinePrompt(ctx, id, "brighter"))
		snap := s.Snapshot()
		assert.Equal(t, domain.StatusFailed, snap.Ideas[1].Status)
		assert.Contains(t, snap.Ideas[1].Error, "timeout")
		assert.Equal(t, "Scene number 2", snap.Ideas[1].Prompt)
		assert.Empty(t, snap.Error, "トップレベルのエラーには影響しない")
		assert.Empty(t, snap.Ideas[0].Error)
	})

	t.Run("調整中は他の画像案を操作できる", func(t *testing.T) {
		s, text, _ := loadedStudio(t, 3)
		hook := make(chan struct{})
		text.refineHook = hook
		ids := []string{s.Snapshot().Ideas[0].ID, s.Snapshot().Ideas[1].ID}

		done := make(chan error, 1)
		go func() { done <- s.RefinePrompt(ctx, ids[0], "x") }()
		require.Eventually(t, func() bool {
			idea, _ := s.Idea(ids[0])
			return idea.IsRefining()
		}, time.Second, time.Millisecond)

		assert.ErrorIs(t, s.EditPrompt(ids[0], "y"), domain.ErrIdeaBusy)
		assert.NoError(t, s.EditPrompt(ids[1], "independent"))
		assert.NoError(t, s.GenerateOne(ctx, ids[1]))

		close(hook)
		require.NoError(t, <-done)
	})
}

func TestGenerateOne(t *testing.T) {
	ctx := context.Background()

	t.Run("成功すると画像が入る", func(t *testing.T) {
		s, _, img := loadedStudio(t, 3)
		id := s.Snapshot().Ideas[0].ID
		require.NoError(t, s.GenerateOne(ctx, id))

		idea, _ := s.Idea(id)
		assert.Equal(t, domain.StatusReady, idea.Status)
		assert.Equal(t, []byte("jpeg:Scene number 1"), idea.Image.Data)
		assert.EqualValues(t, 1, img.calls.Load())
	})

	t.Run("空のプロンプトは検証エラー", func(t *testing.T) {
		s, _, img := loadedStudio(t, 3)
		before := s.Snapshot()
		id := before.Ideas[1].ID
		require.NoError(t, s.EditPrompt(id, ""))

		err := s.GenerateOne(ctx, id)
		require.ErrorIs(t, err, domain.ErrEmptyPrompt)
		assert.Equal(t, "prompt is empty", err.Error())
		assert.EqualValues(t, 0, img.calls.Load())

		after := s.Snapshot()
		assert.NotEmpty(t, after.Ideas[1].Error)
		assert.Equal(t, before.Ideas[0], after.Ideas[0])
		assert.Equal(t, before.Ideas[2], after.Ideas[2])
	})

	t.Run("失敗すると古い画像は消える", func(t *testing.T) {
		s, _, img := loadedStudio(t, 3)
		id := s.Snapshot().Ideas[0].ID
		require.NoError(t, s.GenerateOne(ctx, id))

		img.failFor = map[string]error{"Scene number 1": errors.New("blocked")}
		require.Error(t, s.GenerateOne(ctx, id))
		idea, _ := s.Idea(id)
		assert.Nil(t, idea.Image)
		assert.Equal(t, domain.StatusFailed, idea.Status)
		assert.Contains(t, idea.Error, "blocked")
	})

	t.Run("開始時にトップレベルのエラーを消す", func(t *testing.T) {
		s, _, _ := loadedStudio(t, 3)
		require.NoError(t, s.EditPrompt(s.Snapshot().Ideas[2].ID, ""))
		_, err := s.GenerateAll(ctx)
		require.ErrorIs(t, err, domain.ErrEmptyPrompts)
		require.NotEmpty(t, s.Snapshot().Error)

		require.NoError(t, s.GenerateOne(ctx, s.Snapshot().Ideas[0].ID))
		assert.Empty(t, s.Snapshot().Error)
	})
}

func TestGenerateAll(t *testing.T) {
	ctx := context.Background()

	t.Run("全件成功", func(t *testing.T) {
		s, _, img := loadedStudio(t, 5)
		res, err := s.GenerateAll(ctx)
		require.NoError(t, err)
		assert.Len(t, res.Succeeded, 5)
		assert.Empty(t, res.Failed)
		assert.EqualValues(t, 5, img.calls.Load())

		snap := s.Snapshot()
		assert.Equal(t, domain.WorkflowAllGenerated, snap.State)
		assert.Equal(t, AllGeneratedNotice, snap.Notice)
		for _, idea := range snap.Ideas {
			assert.False(t, idea.IsGenerating())
			assert.True(t, idea.HasImage())
			assert.Empty(t, idea.Error)
		}
		assert.Len(t, s.GeneratedImages(), 5)
	})

	t.Run("空のプロンプトがあれば Oracle を呼ばない", func(t *testing.T) {
		s, _, img := loadedStudio(t, 3)
		require.NoError(t, s.EditPrompt(s.Snapshot().Ideas[1].ID, " "))
		_, err := s.GenerateAll(ctx)
		assert.ErrorIs(t, err, domain.ErrEmptyPrompts)
		assert.EqualValues(t, 0, img.calls.Load())
		assert.Equal(t, domain.WorkflowIdeasLoaded, s.Snapshot().State)
	})

	t.Run("一部失敗", func(t *testing.T) {
		s, _, img := loadedStudio(t, 4)
		require.NoError(t, s.GenerateOne(ctx, s.Snapshot().Ideas[2].ID))
		img.failFor = map[string]error{"Scene number 3": errors.New("safety filter")}

		res, err := s.GenerateAll(ctx)
		require.ErrorIs(t, err, domain.ErrSomeImagesFailed)
		require.Len(t, res.Failed, 1)
		assert.Len(t, res.Succeeded, 3)

		snap := s.Snapshot()
		assert.Equal(t, res.Failed[0], snap.Ideas[2].ID)
		assert.Nil(t, snap.Ideas[2].Image, "古い画像は残らない")
		assert.Contains(t, snap.Ideas[2].Error, "safety filter")
		assert.Equal(t, domain.WorkflowAllGenerated, snap.State)
		assert.NotEmpty(t, snap.Error)
		for i, idea := range snap.Ideas {
			assert.False(t, idea.IsGenerating())
			if i != 2 {
				assert.True(t, idea.HasImage())
				assert.Empty(t, idea.Error)
			}
		}
	})

	t.Run("結果は完了順ではなく ID でマージされる", func(t *testing.T) {
		s, _, img := loadedStudio(t, 3)
		img.hook = make(chan struct{})
		img.started = make(chan string, 3)

		done := make(chan error, 1)
		go func() {
			_, err := s.GenerateAll(ctx)
			done <- err
		}()
		for i := 0; i < 3; i++ {
			<-img.started
		}
		assert.Equal(t, domain.WorkflowGeneratingAll, s.Snapshot().State)
		assert.ErrorIs(t, s.EditPrompt(s.Snapshot().Ideas[0].ID, "x"), domain.ErrBatchBusy)
		_, err := s.GenerateAll(ctx)
		assert.ErrorIs(t, err, domain.ErrBatchBusy)

		close(img.hook)
		require.NoError(t, <-done)
		for i, idea := range s.Snapshot().Ideas {
			assert.Equal(t, []byte("jpeg:Scene number "+string(rune('1'+i))), idea.Image.Data)
		}
	})

	t.Run("同時実行数の上限", func(t *testing.T) {
		text := &mockTextOracle{}
		img := &mockImageOracle{}
		s, err := New(Args{TextOracle: text, ImageOracle: img, MaxConcurrency: 2, NewID: sequentialIDs()})
		require.NoError(t, err)
		require.NoError(t, s.RequestConcepts(ctx, transcript, 6, domain.AspectRatioWide))

		res, err := s.GenerateAll(ctx)
		require.NoError(t, err)
		assert.Len(t, res.Succeeded, 6)
	})

	t.Run("画像案が無い", func(t *testing.T) {
		s := newTestStudio(t, &mockTextOracle{}, &mockImageOracle{})
		_, err := s.GenerateAll(ctx)
		assert.ErrorIs(t, err, domain.ErrNoIdeas)
	})
}

func TestReset(t *testing.T) {
	ctx := context.Background()

	t.Run("すべて破棄して初期状態に戻る", func(t *testing.T) {
		s, _, _ := loadedStudio(t, 3)
		s.Reset()
		snap := s.Snapshot()
		assert.Empty(t, snap.Ideas)
		assert.Equal(t, domain.WorkflowIdle, snap.State)
		assert.Empty(t, snap.Transcript)
	})

	t.Run("遅れて届いた結果は破棄される", func(t *testing.T) {
		s, _, img := loadedStudio(t, 3)
		img.hook = make(chan struct{})
		img.started = make(chan string, 3)

		done := make(chan error, 1)
		go func() {
			_, err := s.GenerateAll(ctx)
			done <- err
		}()
		for i := 0; i < 3; i++ {
			<-img.started
		}
		s.Reset()
		require.NoError(t, s.RequestConcepts(ctx, transcript, 3, domain.AspectRatioWide))

		close(img.hook)
		assert.ErrorIs(t, <-done, domain.ErrDiscarded)

		snap := s.Snapshot()
		assert.Equal(t, domain.WorkflowIdeasLoaded, snap.State)
		for _, idea := range snap.Ideas {
			assert.Nil(t, idea.Image)
			assert.Equal(t, domain.StatusIdle, idea.Status)
		}
	})

	t.Run("画像案の取得中にリセット", func(t *testing.T) {
		hook := make(chan struct{})
		text := &mockTextOracle{conceptHook: hook}
		s := newTestStudio(t, text, &mockImageOracle{})

		done := make(chan error, 1)
		go func() { done <- s.RequestConcepts(ctx, transcript, 3, domain.AspectRatioWide) }()
		require.Eventually(t, func() bool { return text.conceptCalls() == 1 }, time.Second, time.Millisecond)
		s.Reset()
		close(hook)

		assert.ErrorIs(t, <-done, domain.ErrDiscarded)
		assert.Empty(t, s.Snapshot().Ideas)
	})
}

func TestSnapshotRestore(t *testing.T) {
	s, _, _ := loadedStudio(t, 3)
	require.NoError(t, s.GenerateOne(context.Background(), s.Snapshot().Ideas[0].ID))
	saved := s.Snapshot()
	saved.Ideas = append([]domain.Idea(nil), saved.Ideas...)
	saved.Ideas[1].Status = domain.StatusGenerating
	saved.Ideas[2].ID = ""
	saved.State = domain.WorkflowGeneratingAll

	restored := newTestStudio(t, &mockTextOracle{}, &mockImageOracle{})
	require.NoError(t, restored.Restore(saved))

	snap := restored.Snapshot()
	assert.Equal(t, transcript, snap.Transcript)
	assert.Equal(t, domain.WorkflowIdeasLoaded, snap.State)
	assert.Equal(t, domain.StatusReady, snap.Ideas[0].Status)
	assert.Equal(t, domain.StatusIdle, snap.Ideas[1].Status)
	assert.NotEmpty(t, snap.Ideas[2].ID)

	bad := saved
	bad.Ideas = []domain.Idea{{ID: "x", Prompt: "p", AspectRatio: domain.AspectRatio{Value: "9:9"}}}
	assert.Error(t, restored.Restore(bad))
}

func TestSubscribe(t *testing.T) {
	s := newTestStudio(t, &mockTextOracle{}, &mockImageOracle{})

	var mu sync.Mutex
	var versions []uint64
	unsubscribe := s.Subscribe(func(snap Snapshot) {
		mu.Lock()
		versions = append(versions, snap.Version)
		mu.Unlock()
	})

	require.NoError(t, s.RequestConcepts(context.Background(), transcript, 3, domain.AspectRatioWide))
	mu.Lock()
	got := len(versions)
	mu.Unlock()
	assert.GreaterOrEqual(t, got, 2, "読み込み開始と完了で通知される")

	unsubscribe()
	s.Reset()
	mu.Lock()
	assert.Equal(t, got, len(versions))
	mu.Unlock()
}

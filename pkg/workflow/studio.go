package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/shouni/go-insert-image-kit/pkg/domain"
	"github.com/shouni/go-insert-image-kit/pkg/oracle"
)

// Args は Studio の初期化に必要な依存関係です。
type Args struct {
	TextOracle  oracle.TextOracle
	ImageOracle oracle.ImageOracle
	// MaxConcurrency は GenerateAll で同時に実行する Image Oracle 呼び出しの上限です。0 で無制限。
	MaxConcurrency int
	// NewID は画像案の識別子を払い出します。nil の場合は UUID を使います。
	NewID func() string
}

// Studio は画像案のリストとワークフロー状態を所有し、2 つの Oracle への呼び出しを調停します。
//
// 画像案のリストは変更のたびに新しいスライスとして公開され、公開済みのスライスが書き換わることはありません。
// Oracle 呼び出しはロックの外で行われ、結果は画像案の ID をキーにマージされます。
// Reset 等でエポックが進んだ後に届いた結果は破棄されます。
type Studio struct {
	text           oracle.TextOracle
	image          oracle.ImageOracle
	maxConcurrency int
	newID          func() string

	mu          sync.Mutex
	transcript  string
	ideas       []domain.Idea
	index       map[string]int
	state       domain.WorkflowState
	lastErr     string
	notice      string
	epoch       uint64
	version     uint64
	subscribers map[int]func(Snapshot)
	nextSubID   int
}

// New は Studio を初期化します。
func New(args Args) (*Studio, error) {
	if args.TextOracle == nil {
		return nil, fmt.Errorf("TextOracle は必須です")
	}
	if args.ImageOracle == nil {
		return nil, fmt.Errorf("ImageOracle は必須です")
	}
	newID := args.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Studio{
		text:           args.TextOracle,
		image:          args.ImageOracle,
		maxConcurrency: args.MaxConcurrency,
		newID:          newID,
		index:          map[string]int{},
		state:          domain.WorkflowIdle,
		subscribers:    map[int]func(Snapshot){},
	}, nil
}

// RequestConcepts は文字起こしから count 件の画像案を取得し、リストを丸ごと置き換えます。
// 失敗した場合リストは空のまま、トップレベルのエラーが記録されます。
func (s *Studio) RequestConcepts(ctx context.Context, transcript string, count int, aspect domain.AspectRatio) error {
	if err := domain.ValidateTranscript(transcript); err != nil {
		return s.failTopLevel(err)
	}
	if err := domain.ValidateCount(count); err != nil {
		return s.failTopLevel(err)
	}
	if aspect.Value == "" {
		aspect = domain.DefaultAspectRatio
	}

	s.mu.Lock()
	if s.state.IsBatchBusy() {
		s.mu.Unlock()
		return domain.ErrBatchBusy
	}
	s.epoch++
	epoch := s.epoch
	s.transcript = transcript
	s.ideas = nil
	s.index = map[string]int{}
	s.state = domain.WorkflowLoadingInitialIdeas
	s.lastErr = ""
	s.notice = ""
	s.version++
	s.mu.Unlock()
	s.notify()

	slog.InfoContext(ctx, "画像案の生成を開始します", "count", count, "aspect_ratio", aspect.Value, "transcript_len", len(transcript))
	concepts, err := s.text.ProposeConcepts(ctx, oracle.ConceptRequest{Transcript: transcript, Count: count})

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		slog.InfoContext(ctx, "リセット済みのため画像案の結果を破棄しました")
		return domain.ErrDiscarded
	}
	if err == nil && len(concepts) != count {
		err = fmt.Errorf("expected %d concepts, got %d", count, len(concepts))
	}
	if err != nil {
		s.state = domain.WorkflowIdle
		s.lastErr = "画像案の生成に失敗しました: " + domain.Message(err)
		s.version++
		s.mu.Unlock()
		s.notify()
		slog.ErrorContext(ctx, "画像案の生成に失敗しました", "error", err)
		return fmt.Errorf("画像案の生成に失敗しました: %w", err)
	}

	ideas := make([]domain.Idea, 0, len(concepts))
	index := make(map[string]int, len(concepts))
	for _, c := range concepts {
		id := s.uniqueID(index)
		index[id] = len(ideas)
		ideas = append(ideas, domain.NewIdea(id, c, aspect))
	}
	s.ideas = ideas
	s.index = index
	s.state = domain.WorkflowIdeasLoaded
	s.version++
	s.mu.Unlock()
	s.notify()

	slog.InfoContext(ctx, "画像案の生成が完了しました", "count", len(ideas))
	return nil
}

// EditPrompt はプロンプトをローカルで書き換え、その画像案のエラーを消します。
func (s *Studio) EditPrompt(id, text string) error {
	return s.updateIdle(id, func(idea domain.Idea) domain.Idea {
		idea.Prompt = text
		idea.Error = ""
		return idea
	})
}

// SetAspectRatio は画像案ごとのアスペクト比を変更します。
func (s *Studio) SetAspectRatio(id string, aspect domain.AspectRatio) error {
	if _, err := domain.ParseAspectRatio(aspect.Value); err != nil || aspect.Value == "" {
		return fmt.Errorf("invalid aspect ratio %q", aspect.Value)
	}
	return s.updateIdle(id, func(idea domain.Idea) domain.Idea {
		idea.AspectRatio = aspect
		return idea
	})
}

// updateIdle は処理中でない画像案に同期的な変更を適用します。
func (s *Studio) updateIdle(id string, apply func(domain.Idea) domain.Idea) error {
	s.mu.Lock()
	idx, err := s.lookupIdleLocked(id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.publishLocked(idx, apply(s.ideas[idx]).Settled())
	s.mu.Unlock()
	s.notify()
	return nil
}

// RefinePrompt は指示に従って Text Oracle にプロンプトを書き直してもらいます。
// 他の画像案の操作を妨げることはありません。
func (s *Studio) RefinePrompt(ctx context.Context, id, instruction string) error {
	s.mu.Lock()
	idx, err := s.lookupIdleLocked(id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if strings.TrimSpace(instruction) == "" {
		s.failItemLocked(idx, domain.ErrEmptyInstruction)
		s.mu.Unlock()
		s.notify()
		return domain.ErrEmptyInstruction
	}

	idea := s.ideas[idx]
	idea.Status = domain.StatusRefining
	idea.Error = ""
	s.lastErr = ""
	s.publishLocked(idx, idea)
	epoch := s.epoch
	req := oracle.RefineRequest{
		Transcript:    s.transcript,
		CurrentPrompt: idea.Prompt,
		Instruction:   instruction,
	}
	s.mu.Unlock()
	s.notify()

	logger := slog.With("idea_id", id)
	logger.InfoContext(ctx, "プロンプトの調整を開始します")
	refined, callErr := s.text.RefinePrompt(ctx, req)

	applied := s.settle(epoch, id, func(idea domain.Idea) domain.Idea {
		if callErr != nil {
			idea.Error = "プロンプトの調整に失敗しました: " + domain.Message(callErr)
			return idea
		}
		idea.Prompt = refined
		idea.Error = ""
		return idea
	})
	if !applied {
		logger.InfoContext(ctx, "リセット済みのため調整結果を破棄しました")
		return domain.ErrDiscarded
	}
	if callErr != nil {
		logger.ErrorContext(ctx, "プロンプトの調整に失敗しました", "error", callErr)
		return fmt.Errorf("プロンプトの調整に失敗しました: %w", callErr)
	}
	logger.InfoContext(ctx, "プロンプトの調整が完了しました")
	return nil
}

// GenerateOne は 1 件の画像案について画像を生成します。
// プロンプトが空の場合は Oracle を呼ばずに画像案へエラーを記録します。
func (s *Studio) GenerateOne(ctx context.Context, id string) error {
	s.mu.Lock()
	idx, err := s.lookupIdleLocked(id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if !s.ideas[idx].HasPrompt() {
		s.failItemLocked(idx, domain.ErrEmptyPrompt)
		s.mu.Unlock()
		s.notify()
		return domain.ErrEmptyPrompt
	}

	idea := s.ideas[idx]
	idea.Status = domain.StatusGenerating
	idea.Image = nil
	idea.Error = ""
	s.lastErr = ""
	s.publishLocked(idx, idea)
	epoch := s.epoch
	req := oracle.ImageRequest{Prompt: idea.Prompt, AspectRatio: idea.AspectRatio}
	s.mu.Unlock()
	s.notify()

	logger := slog.With("idea_id", id, "aspect_ratio", req.AspectRatio.Value)
	logger.InfoContext(ctx, "画像生成を開始します")
	img, callErr := s.image.GenerateImage(ctx, req)
	if callErr == nil && (img == nil || len(img.Data) == 0) {
		callErr = fmt.Errorf("no image data")
	}

	if !s.settle(epoch, id, applyGenerated(img, callErr)) {
		logger.InfoContext(ctx, "リセット済みのため生成結果を破棄しました")
		return domain.ErrDiscarded
	}
	if callErr != nil {
		logger.ErrorContext(ctx, "画像生成に失敗しました", "error", callErr)
		return fmt.Errorf("画像生成に失敗しました: %w", callErr)
	}
	logger.InfoContext(ctx, "画像生成が完了しました")
	return nil
}

// applyGenerated は Image Oracle の結果を画像案に反映する関数を返します。
// err が nil なら img は空でないこと。失敗時は古い画像を残しません。
func applyGenerated(img *domain.Image, err error) func(domain.Idea) domain.Idea {
	return func(idea domain.Idea) domain.Idea {
		if err != nil {
			idea.Image = nil
			idea.Error = "画像の生成に失敗しました: " + domain.Message(err)
			return idea
		}
		idea.Image = img
		idea.Error = ""
		return idea
	}
}

// Reset はすべての画像案を破棄してワークフローを初期状態に戻します。
// 進行中の Oracle 呼び出しは止めず、その結果を捨てます。
func (s *Studio) Reset() {
	s.mu.Lock()
	s.epoch++
	s.transcript = ""
	s.ideas = nil
	s.index = map[string]int{}
	s.state = domain.WorkflowIdle
	s.lastErr = ""
	s.notice = ""
	s.version++
	s.mu.Unlock()
	s.notify()
	slog.Info("画像案をリセットしました")
}

// Idea は ID で画像案を引き当てます。
func (s *Studio) Idea(id string) (domain.Idea, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.index[id]
	if !ok {
		return domain.Idea{}, domain.ErrIdeaNotFound
	}
	return s.ideas[idx], nil
}

// GeneratedImages は画像を保持している画像案をリストの順に返します。
func (s *Studio) GeneratedImages() []domain.Idea {
	s.mu.Lock()
	ideas := s.ideas
	s.mu.Unlock()

	out := make([]domain.Idea, 0, len(ideas))
	for _, idea := range ideas {
		if idea.HasImage() {
			out = append(out, idea)
		}
	}
	return out
}

// --- internal helpers (s.mu を保持した状態で呼ぶものは Locked サフィックス) ---

func (s *Studio) lookupIdleLocked(id string) (int, error) {
	if s.state.IsBatchBusy() {
		return 0, domain.ErrBatchBusy
	}
	idx, ok := s.index[id]
	if !ok {
		return 0, domain.ErrIdeaNotFound
	}
	if s.ideas[idx].IsBusy() {
		return 0, domain.ErrIdeaBusy
	}
	return idx, nil
}

// publishLocked は idx の画像案を差し替えた新しいスライスを公開します。
func (s *Studio) publishLocked(idx int, idea domain.Idea) {
	next := make([]domain.Idea, len(s.ideas))
	copy(next, s.ideas)
	next[idx] = idea
	s.ideas = next
	s.version++
}

func (s *Studio) failItemLocked(idx int, err error) {
	idea := s.ideas[idx]
	idea.Error = domain.Message(err)
	s.publishLocked(idx, idea.Settled())
}

// settle は Oracle の結果を ID をキーにマージします。
// エポックが変わっているか画像案が消えている場合は何もせず false を返します。
func (s *Studio) settle(epoch uint64, id string, apply func(domain.Idea) domain.Idea) bool {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return false
	}
	idx, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.publishLocked(idx, apply(s.ideas[idx]).Settled())
	s.mu.Unlock()
	s.notify()
	return true
}

func (s *Studio) failTopLevel(err error) error {
	s.mu.Lock()
	s.lastErr = domain.Message(err)
	s.notice = ""
	s.version++
	s.mu.Unlock()
	s.notify()
	return err
}

func (s *Studio) uniqueID(taken map[string]int) string {
	for {
		id := s.newID()
		if _, dup := taken[id]; !dup && id != "" {
			return id
		}
	}
}

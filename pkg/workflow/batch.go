package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shouni/go-insert-image-kit/pkg/domain"
	"github.com/shouni/go-insert-image-kit/pkg/oracle"
)

// AllGeneratedNotice は一括生成がすべて成功したときに表示するメッセージです。
const AllGeneratedNotice = "すべての画像が正常に生成されました。"

// BatchResult は一括生成の結果を画像案の ID ごとにまとめたものです。順序はリストの順です。
type BatchResult struct {
	Succeeded []string
	Failed    []string
}

// HasFailures は失敗した画像案があるかを返します。
func (r BatchResult) HasFailures() bool { return len(r.Failed) > 0 }

type batchJob struct {
	id  string
	req oracle.ImageRequest
}

// GenerateAll はすべての画像案について並列に画像を生成します。
//
// 空のプロンプトが 1 件でもあれば Oracle を一切呼ばずに中止します。
// 各結果は完了した順に ID をキーにマージされ、全件の完了を待ってから
// ワークフロー状態が AllGenerated に遷移します。一部が失敗した場合は
// domain.ErrSomeImagesFailed を返します。
func (s *Studio) GenerateAll(ctx context.Context) (BatchResult, error) {
	s.mu.Lock()
	if s.state.IsBatchBusy() {
		s.mu.Unlock()
		return BatchResult{}, domain.ErrBatchBusy
	}
	if len(s.ideas) == 0 {
		s.mu.Unlock()
		return BatchResult{}, domain.ErrNoIdeas
	}
	for _, idea := range s.ideas {
		if idea.IsBusy() {
			s.mu.Unlock()
			return BatchResult{}, domain.ErrIdeaBusy
		}
	}
	for _, idea := range s.ideas {
		if !idea.HasPrompt() {
			s.mu.Unlock()
			return BatchResult{}, s.failTopLevel(domain.ErrEmptyPrompts)
		}
	}

	next := make([]domain.Idea, len(s.ideas))
	jobs := make([]batchJob, len(s.ideas))
	for i, idea := range s.ideas {
		idea.Status = domain.StatusGenerating
		idea.Image = nil
		idea.Error = ""
		next[i] = idea
		jobs[i] = batchJob{id: idea.ID, req: oracle.ImageRequest{Prompt: idea.Prompt, AspectRatio: idea.AspectRatio}}
	}
	s.ideas = next
	s.state = domain.WorkflowGeneratingAll
	s.lastErr = ""
	s.notice = ""
	s.version++
	epoch := s.epoch
	s.mu.Unlock()
	s.notify()

	slog.InfoContext(ctx, "一括画像生成を開始します", "count", len(jobs), "max_concurrency", s.maxConcurrency)
	startTime := time.Now()

	errs := make([]error, len(jobs))
	var eg errgroup.Group
	if s.maxConcurrency > 0 {
		eg.SetLimit(s.maxConcurrency)
	}
	for i, job := range jobs {
		eg.Go(func() error {
			logger := slog.With("idea_index", i+1, "idea_id", job.id)
			img, err := s.image.GenerateImage(ctx, job.req)
			if err == nil && (img == nil || len(img.Data) == 0) {
				err = fmt.Errorf("no image data")
			}
			errs[i] = err
			if err != nil {
				logger.WarnContext(ctx, "画像生成に失敗しました", "error", err)
			} else {
				logger.InfoContext(ctx, "画像生成が完了しました")
			}
			// 1 件の失敗で他を止めないよう、常に nil を返す
			s.settle(epoch, job.id, applyGenerated(img, err))
			return nil
		})
	}
	_ = eg.Wait()

	var result BatchResult
	for i, job := range jobs {
		if errs[i] != nil {
			result.Failed = append(result.Failed, job.id)
		} else {
			result.Succeeded = append(result.Succeeded, job.id)
		}
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		slog.InfoContext(ctx, "リセット済みのため一括生成の結果を破棄しました")
		return result, domain.ErrDiscarded
	}
	s.state = domain.WorkflowAllGenerated
	if result.HasFailures() {
		s.lastErr = domain.Message(domain.ErrSomeImagesFailed)
	} else {
		s.notice = AllGeneratedNotice
	}
	s.version++
	s.mu.Unlock()
	s.notify()

	slog.InfoContext(ctx, "一括画像生成が終了しました",
		"succeeded", len(result.Succeeded),
		"failed", len(result.Failed),
		"duration", time.Since(startTime).Round(time.Millisecond),
	)
	if result.HasFailures() {
		return result, domain.ErrSomeImagesFailed
	}
	return result, nil
}

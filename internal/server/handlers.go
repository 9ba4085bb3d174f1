package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shouni/go-insert-image-kit/pkg/domain"
	"github.com/shouni/go-insert-image-kit/pkg/ingest"
	"github.com/shouni/go-insert-image-kit/pkg/publisher"
)

type createIdeasReq struct {
	Transcript  string `json:"transcript"`
	Source      string `json:"source"`
	Count       *int   `json:"count"`
	AspectRatio string `json:"aspect_ratio"`
}

type editPromptReq struct {
	Prompt string `json:"prompt"`
}

type aspectRatioReq struct {
	AspectRatio string `json:"aspect_ratio"`
}

type refineReq struct {
	Instruction string `json:"instruction"`
}

type batchResultResp struct {
	Succeeded []string `json:"succeeded"`
	Failed    []string `json:"failed"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": "healthy"})
}

func (s *Server) state(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "state": s.studio.Snapshot()})
}

func (s *Server) aspectRatios(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "aspect_ratios": domain.AspectRatios()})
}

func (s *Server) createIdeas(c *gin.Context) {
	var req createIdeasReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	aspect, err := domain.ParseAspectRatio(req.AspectRatio)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	count := s.opts.DefaultCount
	if req.Count != nil {
		count = *req.Count
	}

	// 処理中にクライアントが切断しても Oracle 呼び出しは最後まで待つのだ。
	ctx := context.WithoutCancel(c.Request.Context())

	transcript := req.Transcript
	if strings.TrimSpace(transcript) == "" && req.Source != "" {
		if s.loader == nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "source loading is not available"})
			return
		}
		// リモートの呼び出し元にはホスト上のファイルや GCS を読ませないのだ。
		if !ingest.IsWebURL(req.Source) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "source must be an http(s) URL"})
			return
		}
		t, err := s.loader.Load(ctx, req.Source)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
			return
		}
		transcript = t.Text
	}

	if err := s.studio.RequestConcepts(ctx, transcript, count, aspect); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "state": s.studio.Snapshot()})
}

func (s *Server) editPrompt(c *gin.Context) {
	var req editPromptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if err := s.studio.EditPrompt(c.Param("id"), req.Prompt); err != nil {
		s.fail(c, err)
		return
	}
	s.respondIdea(c, c.Param("id"))
}

func (s *Server) setAspectRatio(c *gin.Context) {
	var req aspectRatioReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.AspectRatio) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	aspect, err := domain.ParseAspectRatio(req.AspectRatio)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if err := s.studio.SetAspectRatio(c.Param("id"), aspect); err != nil {
		s.fail(c, err)
		return
	}
	s.respondIdea(c, c.Param("id"))
}

func (s *Server) refine(c *gin.Context) {
	var req refineReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	id := c.Param("id")
	if err := s.studio.RefinePrompt(context.WithoutCancel(c.Request.Context()), id, req.Instruction); err != nil {
		s.fail(c, err)
		return
	}
	s.respondIdea(c, id)
}

func (s *Server) generateOne(c *gin.Context) {
	id := c.Param("id")
	if err := s.studio.GenerateOne(context.WithoutCancel(c.Request.Context()), id); err != nil {
		s.fail(c, err)
		return
	}
	s.respondIdea(c, id)
}

func (s *Server) generateAll(c *gin.Context) {
	result, err := s.studio.GenerateAll(context.WithoutCancel(c.Request.Context()))
	resp := batchResultResp{Succeeded: orEmpty(result.Succeeded), Failed: orEmpty(result.Failed)}
	if err != nil {
		status, msg := statusFor(err)
		c.JSON(status, gin.H{"ok": false, "error": msg, "result": resp, "state": s.studio.Snapshot()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "result": resp, "state": s.studio.Snapshot()})
}

func (s *Server) image(c *gin.Context) {
	idea, err := s.studio.Idea(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if !idea.HasImage() {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": domain.Message(domain.ErrNoImages)})
		return
	}
	mimeType := idea.Image.MimeType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	if c.Query("download") != "" {
		c.Header("Content-Disposition", contentDisposition(publisher.ImageFileName(idea)))
	}
	c.Data(http.StatusOK, mimeType, idea.Image.Data)
}

func (s *Server) export(c *gin.Context) {
	images := s.studio.GeneratedImages()
	if len(images) == 0 {
		s.fail(c, domain.ErrNoImages)
		return
	}
	data, err := publisher.BuildArchive(images)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.Header("Content-Disposition", contentDisposition(publisher.DefaultArchiveName))
	c.Data(http.StatusOK, "application/zip", data)
}

func (s *Server) reset(c *gin.Context) {
	s.studio.Reset()
	c.JSON(http.StatusOK, gin.H{"ok": true, "state": s.studio.Snapshot()})
}

func (s *Server) respondIdea(c *gin.Context, id string) {
	idea, err := s.studio.Idea(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "idea": idea})
}

// fail はエラーをステータスコードに対応付けて返すのだ。
// 画像案ごとのエラーも見えるように最新の状態を添えるのだ。
func (s *Server) fail(c *gin.Context, err error) {
	status, msg := statusFor(err)
	c.JSON(status, gin.H{"ok": false, "error": msg, "state": s.studio.Snapshot()})
}

func statusFor(err error) (int, string) {
	msg := domain.Message(err)
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest, msg
	case errors.Is(err, domain.ErrIdeaNotFound), errors.Is(err, domain.ErrNoImages):
		return http.StatusNotFound, msg
	case errors.Is(err, domain.ErrIdeaBusy), errors.Is(err, domain.ErrBatchBusy),
		errors.Is(err, domain.ErrNoIdeas), errors.Is(err, domain.ErrDiscarded):
		return http.StatusConflict, msg
	default:
		return http.StatusBadGateway, msg
	}
}

func contentDisposition(name string) string {
	return `attachment; filename="` + strings.ReplaceAll(name, `"`, "") + `"`
}

func orEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

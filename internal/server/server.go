// Package server は Studio を HTTP JSON API として公開するのだ。
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/shouni/go-insert-image-kit/pkg/domain"
	"github.com/shouni/go-insert-image-kit/pkg/ingest"
	"github.com/shouni/go-insert-image-kit/pkg/workflow"
)

const shutdownTimeout = 10 * time.Second

// Studio は API が操作する Studio のメソッドなのだ。
type Studio interface {
	RequestConcepts(ctx context.Context, transcript string, count int, aspect domain.AspectRatio) error
	EditPrompt(id, text string) error
	SetAspectRatio(id string, aspect domain.AspectRatio) error
	RefinePrompt(ctx context.Context, id, instruction string) error
	GenerateOne(ctx context.Context, id string) error
	GenerateAll(ctx context.Context) (workflow.BatchResult, error)
	Reset()
	Idea(id string) (domain.Idea, error)
	GeneratedImages() []domain.Idea
	Snapshot() workflow.Snapshot
}

// TranscriptLoader は source 指定から文字起こしを読み込むのだ。
type TranscriptLoader interface {
	Load(ctx context.Context, source string) (*ingest.Transcript, error)
}

// Options はサーバーの設定なのだ。
type Options struct {
	GinMode      string
	DefaultCount int
	// AllowOrigins は CORS で許可するオリジンなのだ。"*" で全許可、空なら他オリジンをすべて拒否するのだ。
	AllowOrigins []string
}

// Server は gin のルーターと Studio を束ねたものなのだ。
type Server struct {
	studio Studio
	loader TranscriptLoader
	opts   Options
	router *gin.Engine
}

// New はルーティングを組み立てた Server を返すのだ。
func New(studio Studio, loader TranscriptLoader, opts Options) *Server {
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}
	if opts.DefaultCount == 0 {
		opts.DefaultCount = domain.DefaultImageCount
	}
	s := &Server{studio: studio, loader: loader, opts: opts}
	s.router = s.buildRouter()
	return s
}

// Router は http.Handler として使えるルーターを返すのだ。
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) buildRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	// 許可していないオリジンからのリクエストは cors が 403 で止めるのだ。
	corsCfg := cors.DefaultConfig()
	origins := webOrigins(s.opts.AllowOrigins)
	switch {
	case slices.Contains(s.opts.AllowOrigins, "*"):
		corsCfg.AllowAllOrigins = true
	case len(origins) == 0:
		corsCfg.AllowOriginFunc = func(string) bool { return false }
	default:
		corsCfg.AllowOrigins = origins
	}
	corsCfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions}
	r.Use(cors.New(corsCfg))

	r.GET("/health", s.health)

	api := r.Group("/api/v1")
	api.GET("/state", s.state)
	api.GET("/aspect-ratios", s.aspectRatios)
	api.POST("/ideas", s.createIdeas)
	api.PATCH("/ideas/:id", s.editPrompt)
	api.PUT("/ideas/:id/aspect-ratio", s.setAspectRatio)
	api.POST("/ideas/:id/refine", s.refine)
	api.POST("/ideas/:id/generate", s.generateOne)
	api.GET("/ideas/:id/image", s.image)
	api.POST("/generate-all", s.generateAll)
	api.GET("/export", s.export)
	api.POST("/reset", s.reset)

	return r
}

// Run は addr で待ち受け、ctx がキャンセルされたらグレースフルに停止するのだ。
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API サーバーを起動したのだ", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("サーバーの起動に失敗しました: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("API サーバーを停止するのだ...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("サーバーの停止に失敗しました: %w", err)
	}
	return <-errCh
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

// webOrigins は http(s) のオリジンだけを残すのだ。
func webOrigins(origins []string) []string {
	var out []string
	for _, o := range origins {
		if strings.HasPrefix(o, "http://") || strings.HasPrefix(o, "https://") {
			out = append(out, strings.TrimSuffix(o, "/"))
			continue
		}
		if o != "*" {
			slog.Warn("CORS の許可オリジンとして使えない値を無視するのだ", "origin", o)
		}
	}
	return out
}

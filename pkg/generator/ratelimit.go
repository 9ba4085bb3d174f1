package generator

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/shouni/go-insert-image-kit/pkg/domain"
	"github.com/shouni/go-insert-image-kit/pkg/oracle"
)

// RateLimited は Image Oracle の呼び出し間隔をトークンバケットで制限するデコレーターです。
type RateLimited struct {
	next    oracle.ImageOracle
	limiter *rate.Limiter
}

// NewRateLimited は interval ごとに 1 トークン、最大 burst 個まで溜まるリミッターで next を包みます。
// interval が 0 以下の場合は next をそのまま返します。
func NewRateLimited(next oracle.ImageOracle, interval time.Duration, burst int) oracle.ImageOracle {
	if interval <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(interval), burst),
	}
}

// GenerateImage はトークンを待ってから next に委譲します。
func (r *RateLimited) GenerateImage(ctx context.Context, req oracle.ImageRequest) (*domain.Image, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.GenerateImage(ctx, req)
}

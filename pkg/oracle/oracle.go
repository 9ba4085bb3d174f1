// Package oracle は生成 AI サービスを不透明な Oracle として扱うためのインターフェースと、
// Text Oracle のアダプター実装を提供します。
package oracle

import (
	"context"

	"github.com/shouni/go-insert-image-kit/pkg/domain"
)

// ConceptRequest は文字起こしから画像案を提案してもらうためのリクエストです。
type ConceptRequest struct {
	Transcript string
	Count      int
}

// RefineRequest は既存のプロンプトを自然言語の指示で調整してもらうためのリクエストです。
type RefineRequest struct {
	Transcript    string
	CurrentPrompt string
	Instruction   string
}

// ImageRequest は Image Oracle への 1 枚分の生成リクエストです。
// Prompt は品質タグを付ける前の、画像案が保持しているプロンプトです。
type ImageRequest struct {
	Prompt      string
	AspectRatio domain.AspectRatio
}

// TextOracle は文字起こしを画像案に、指示を調整済みプロンプトに変換します。
type TextOracle interface {
	// ProposeConcepts はちょうど req.Count 件の画像案を返すのだ。
	ProposeConcepts(ctx context.Context, req ConceptRequest) ([]domain.Concept, error)
	// RefinePrompt は調整後のプロンプト文字列を返すのだ。
	RefinePrompt(ctx context.Context, req RefineRequest) (string, error)
}

// ImageOracle は仕上げ済みプロンプトとアスペクト比から 1 枚の画像を生成します。
type ImageOracle interface {
	GenerateImage(ctx context.Context, req ImageRequest) (*domain.Image, error)
}

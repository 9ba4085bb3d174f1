package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// MinImageCount は一度に要求できる画像案の最小数です。
	MinImageCount = 3
	// MaxImageCount は一度に要求できる画像案の最大数です。
	MaxImageCount = 30
	// DefaultImageCount はフォームの初期値です。
	DefaultImageCount = 3
)

// 入力検証や状態遷移で返されるエラーです。Oracle には到達しません。
var (
	ErrEmptyTranscript  = errors.New("transcript is empty")
	ErrCountOutOfRange  = fmt.Errorf("image count must be an integer between %d and %d", MinImageCount, MaxImageCount)
	ErrEmptyInstruction = errors.New("refine instruction is empty")
	ErrEmptyPrompt      = errors.New("prompt is empty")
	ErrEmptyPrompts     = errors.New("every prompt must be filled in before generating all images")
	ErrIdeaNotFound     = errors.New("idea not found")
	ErrIdeaBusy         = errors.New("idea is busy")
	ErrBatchBusy        = errors.New("a batch operation is in progress")
	ErrNoIdeas          = errors.New("there are no ideas yet")
	ErrNoImages         = errors.New("no generated images to export")
)

// 処理結果として返されるエラーです。
var (
	// ErrDiscarded はリセット等で対象が消えた後に届いた結果を破棄したことを示します。
	ErrDiscarded = errors.New("result discarded because the idea list was reset")
	// ErrSomeImagesFailed は一括生成の一部が失敗したことを示すトップレベルの要約です。
	ErrSomeImagesFailed = errors.New("some images failed to generate; check each idea's error")
)

var userMessages = map[error]string{
	ErrEmptyTranscript:  "文字起こしを入力してください。",
	ErrCountOutOfRange:  fmt.Sprintf("画像枚数は%d枚から%d枚の間で指定してください。", MinImageCount, MaxImageCount),
	ErrEmptyInstruction: "調整内容を入力してください。",
	ErrEmptyPrompt:      "プロンプトが空です。入力してください。",
	ErrEmptyPrompts:     "画像を生成する前に、すべてのプロンプトが入力されていることを確認してください。",
	ErrIdeaNotFound:     "指定された画像案が見つかりません。",
	ErrIdeaBusy:         "この画像案は処理中です。",
	ErrBatchBusy:        "一括処理の実行中です。完了までお待ちください。",
	ErrNoIdeas:          "画像案がまだありません。",
	ErrNoImages:         "保存できる生成済み画像がありません。",
	ErrSomeImagesFailed: "一部の画像の生成に失敗しました。各画像のエラーメッセージを確認してください。",
}

// Message はエラーを画面表示用のメッセージに変換します。
// 既知のエラーは日本語の定型文、それ以外は err.Error() をそのまま使います。
func Message(err error) string {
	if err == nil {
		return ""
	}
	for target, msg := range userMessages {
		if errors.Is(err, target) {
			return msg
		}
	}
	return err.Error()
}

// IsValidation は Oracle 呼び出し前の同期的な入力検証エラーかどうかを返します。
func IsValidation(err error) bool {
	for _, target := range []error{ErrEmptyTranscript, ErrCountOutOfRange, ErrEmptyInstruction, ErrEmptyPrompt, ErrEmptyPrompts} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ValidateCount は要求枚数が許容範囲内かを確認します。
func ValidateCount(n int) error {
	if n < MinImageCount || n > MaxImageCount {
		return ErrCountOutOfRange
	}
	return nil
}

// ParseCount はユーザー入力の枚数を検証付きで整数に変換します。
func ParseCount(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrCountOutOfRange
	}
	if err := ValidateCount(n); err != nil {
		return 0, err
	}
	return n, nil
}

// ValidateTranscript は文字起こしが空白のみでないことを確認します。
func ValidateTranscript(transcript string) error {
	if strings.TrimSpace(transcript) == "" {
		return ErrEmptyTranscript
	}
	return nil
}

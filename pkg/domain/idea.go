package domain

import "strings"

// ItemStatus は画像案ひとつ分の非同期ライフサイクルを表すタグ付き状態です。
type ItemStatus int

const (
	// StatusIdle はまだ画像が無く、処理中でもない状態です。
	StatusIdle ItemStatus = iota
	// StatusRefining は Text Oracle にプロンプト調整を依頼している最中です。
	StatusRefining
	// StatusGenerating は Image Oracle に画像生成を依頼している最中です。
	StatusGenerating
	// StatusReady は画像が生成済みの状態です。
	StatusReady
	// StatusFailed は直前の操作が失敗し、Error にメッセージが入っている状態です。
	StatusFailed
)

var statusNames = map[ItemStatus]string{
	StatusIdle:       "idle",
	StatusRefining:   "refining",
	StatusGenerating: "generating",
	StatusReady:      "ready",
	StatusFailed:     "failed",
}

func (s ItemStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText は JSON 等で状態名を文字列として出力します。
func (s ItemStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText は状態名から ItemStatus を復元します。未知の名前は idle 扱いです。
func (s *ItemStatus) UnmarshalText(b []byte) error {
	for k, v := range statusNames {
		if v == string(b) {
			*s = k
			return nil
		}
	}
	*s = StatusIdle
	return nil
}

// Image は Image Oracle が返した生の画像データです。
type Image struct {
	Data     []byte `json:"data"`
	MimeType string `json:"mime_type"`
}

// Concept は Text Oracle が提案する画像案（タイトルと生成プロンプト）です。
type Concept struct {
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

// Idea は画像案ひとつ分の状態です。
// Title は表示用（既定では日本語）、Prompt は編集可能な英語の生成プロンプトです。
type Idea struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Prompt      string      `json:"prompt"`
	Image       *Image      `json:"image,omitempty"`
	Status      ItemStatus  `json:"status"`
	Error       string      `json:"error,omitempty"`
	AspectRatio AspectRatio `json:"aspect_ratio"`
}

// NewIdea は Concept から待機状態の Idea を作成します。
func NewIdea(id string, c Concept, ar AspectRatio) Idea {
	return Idea{
		ID:          id,
		Title:       c.Title,
		Prompt:      c.Prompt,
		Status:      StatusIdle,
		AspectRatio: ar,
	}
}

func (i Idea) IsRefining() bool   { return i.Status == StatusRefining }
func (i Idea) IsGenerating() bool { return i.Status == StatusGenerating }

// IsBusy は Oracle 呼び出しが進行中かどうかを返します。
func (i Idea) IsBusy() bool {
	return i.Status == StatusRefining || i.Status == StatusGenerating
}

// HasImage は生成済み画像を保持しているかを返します。
func (i Idea) HasImage() bool {
	return i.Image != nil && len(i.Image.Data) > 0
}

// HasPrompt は空白以外の文字を含むプロンプトがあるかを返します。
func (i Idea) HasPrompt() bool {
	return strings.TrimSpace(i.Prompt) != ""
}

// Settled は処理中でない場合の状態を Error と Image から導出して設定したコピーを返します。
func (i Idea) Settled() Idea {
	switch {
	case i.Error != "":
		i.Status = StatusFailed
	case i.HasImage():
		i.Status = StatusReady
	default:
		i.Status = StatusIdle
	}
	return i
}

// ShortID は ID の先頭8文字を返します。
func (i Idea) ShortID() string {
	if len(i.ID) <= 8 {
		return i.ID
	}
	return i.ID[:8]
}

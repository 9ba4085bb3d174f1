package domain

import (
	"fmt"
	"strings"
)

// AspectRatio は画像生成時に指定するアスペクト比の定義です。
// Value は Image Oracle にそのまま渡すコード（例: "16:9"）です。
type AspectRatio struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Description string `json:"description"`
}

var (
	// AspectRatioWide は動画サムネイルやブログのアイキャッチ向けの横長比率です。
	AspectRatioWide = AspectRatio{
		Label:       "16:9 横長",
		Value:       "16:9",
		Width:       1920,
		Height:      1080,
		Description: "動画サムネイルやブログのアイキャッチに最適な横長フォーマット",
	}
	// AspectRatioSquare は SNS 投稿向けの正方形比率です。
	AspectRatioSquare = AspectRatio{
		Label:       "1:1 正方形",
		Value:       "1:1",
		Width:       1024,
		Height:      1024,
		Description: "SNS 投稿やアイコンに使いやすい正方形フォーマット",
	}
	// AspectRatioPhoto は一眼レフ写真に近い 3:2 比率です。
	AspectRatioPhoto = AspectRatio{
		Label:       "3:2 写真",
		Value:       "3:2",
		Width:       1536,
		Height:      1024,
		Description: "一眼レフカメラの写真に近い標準的な横長フォーマット",
	}

	// DefaultAspectRatio はアスペクト比が未指定の場合に使われます。
	DefaultAspectRatio = AspectRatioWide
)

var aspectRatios = []AspectRatio{AspectRatioWide, AspectRatioSquare, AspectRatioPhoto}

// AspectRatios は選択可能なアスペクト比を表示順で返します。
func AspectRatios() []AspectRatio {
	out := make([]AspectRatio, len(aspectRatios))
	copy(out, aspectRatios)
	return out
}

// ParseAspectRatio はコード（"16:9" 等）から AspectRatio を引き当てます。
// 空文字の場合は DefaultAspectRatio を返します。
func ParseAspectRatio(value string) (AspectRatio, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return DefaultAspectRatio, nil
	}
	for _, ar := range aspectRatios {
		if ar.Value == v {
			return ar, nil
		}
	}
	return AspectRatio{}, fmt.Errorf("unsupported aspect ratio %q (want one of %s)", value, strings.Join(AspectRatioValues(), ", "))
}

// AspectRatioValues はサポートしているコードの一覧です。
func AspectRatioValues() []string {
	values := make([]string, 0, len(aspectRatios))
	for _, ar := range aspectRatios {
		values = append(values, ar.Value)
	}
	return values
}

// Next は表示順で次のアスペクト比を返します。末尾の次は先頭に戻ります。
func (a AspectRatio) Next() AspectRatio {
	for i, ar := range aspectRatios {
		if ar.Value == a.Value {
			return aspectRatios[(i+1)%len(aspectRatios)]
		}
	}
	return DefaultAspectRatio
}

func (a AspectRatio) String() string {
	return fmt.Sprintf("%s (%dx%d)", a.Value, a.Width, a.Height)
}

package publisher

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shouni/go-insert-image-kit/pkg/domain"
)

const (
	// MaxTitleRunes はファイル名に使うタイトルの最大文字数です。
	MaxTitleRunes = 50
	// DefaultArchiveName は一括ダウンロード時のアーカイブ名です。
	DefaultArchiveName = "AI_Generated_Images.zip"
	imageExt           = ".jpg"
)

var (
	// hostileCharsRegex はパス区切りや予約文字など、ファイル名に使えない文字にマッチします。
	hostileCharsRegex = regexp.MustCompile(`[\\/:*?"<>|#%&{}]`)
	whitespaceRegex   = regexp.MustCompile(`\s+`)
)

// SanitizeFilename はタイトルを先頭 50 文字に切り詰め、使えない文字を取り除き、
// 連続する空白をアンダースコア 1 つにまとめます。
func SanitizeFilename(title string) string {
	s := strings.TrimSpace(title)
	if utf8.RuneCountInString(s) > MaxTitleRunes {
		s = string([]rune(s)[:MaxTitleRunes])
	}
	s = hostileCharsRegex.ReplaceAllString(s, "")
	s = strings.Trim(whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), "_"), "_.")
	return s
}

// ArchiveName はアーカイブ内のエントリ名を返します。index は 0 始まりで、名前には 1 始まりで付きます。
func ArchiveName(idea domain.Idea, index int) string {
	if name := SanitizeFilename(idea.Title); name != "" {
		return fmt.Sprintf("%s_%d%s", name, index+1, imageExt)
	}
	return fmt.Sprintf("image_%d%s", index+1, imageExt)
}

// ImageFileName は画像 1 枚を保存するときのファイル名を返します。
func ImageFileName(idea domain.Idea) string {
	if name := SanitizeFilename(idea.Title); name != "" {
		return name + imageExt
	}
	return fmt.Sprintf("generated_image_%s%s", idea.ShortID(), imageExt)
}

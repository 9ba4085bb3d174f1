package prompts

import "strings"

// DefaultImagePromptSuffix は画像生成プロンプトの末尾に必ず付ける品質タグです。
const DefaultImagePromptSuffix = "high detail, sharp focus, professional photography, cinematic lighting, 8k"

// FinalizeImagePrompt は Oracle 提案のプロンプトに品質タグを付け足して Image Oracle 用に仕上げます。
func FinalizeImagePrompt(prompt, suffix string) string {
	p := strings.TrimRight(strings.TrimSpace(prompt), " ,.")
	s := strings.TrimSpace(suffix)
	if s == "" {
		return p
	}
	if p == "" {
		return s
	}
	return p + ", " + s
}

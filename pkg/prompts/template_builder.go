package prompts

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"text/template"
)

// PromptBuilder は、Text Oracle へ送るプロンプトを構築する契約です。
type PromptBuilder interface {
	Build(mode string, data TemplateData) (string, error)
}

// TextPromptBuilder はテンプレートの解析結果を保持し、モードごとにプロンプトを組み立てます。
type TextPromptBuilder struct {
	templates     map[string]*template.Template
	titleLanguage string
}

// NewTextPromptBuilder は TextPromptBuilder を初期化します。
// titleLanguage が空の場合は DefaultTitleLanguage を使います。
func NewTextPromptBuilder(titleLanguage string) (*TextPromptBuilder, error) {
	parsed := make(map[string]*template.Template, len(allTemplates))
	for mode, content := range allTemplates {
		if strings.TrimSpace(content) == "" {
			return nil, fmt.Errorf("プロンプトテンプレート '%s' (go:embed) の読み込みに失敗しました: 内容が空です", mode)
		}
		tmpl, err := template.New(mode).Option("missingkey=error").Parse(content)
		if err != nil {
			return nil, fmt.Errorf("プロンプト '%s' の解析に失敗: %w", mode, err)
		}
		parsed[mode] = tmpl
	}
	if strings.TrimSpace(titleLanguage) == "" {
		titleLanguage = DefaultTitleLanguage
	}
	return &TextPromptBuilder{templates: parsed, titleLanguage: titleLanguage}, nil
}

// Build は、要求されたモードに応じて適切なテンプレートを実行します。
func (b *TextPromptBuilder) Build(mode string, data TemplateData) (string, error) {
	tmpl, ok := b.templates[mode]
	if !ok {
		supported := slices.Sorted(maps.Keys(b.templates))
		return "", fmt.Errorf("不明なモードです: '%s' (対応: %s)", mode, strings.Join(supported, ", "))
	}
	if data.TitleLanguage == "" {
		data.TitleLanguage = b.titleLanguage
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("プロンプトテンプレートの実行に失敗しました: %w", err)
	}
	return strings.TrimSpace(sb.String()), nil
}

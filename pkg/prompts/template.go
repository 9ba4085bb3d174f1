package prompts

import _ "embed"

const (
	ModeConceptsSystem = "concepts_system"
	ModeConcepts       = "concepts"
	ModeRefineSystem   = "refine_system"
	ModeRefine         = "refine"
)

//go:embed templates/concepts_system.md
var conceptsSystemTemplate string

//go:embed templates/concepts_user.md
var conceptsTemplate string

//go:embed templates/refine_system.md
var refineSystemTemplate string

//go:embed templates/refine_user.md
var refineTemplate string

// allTemplates はモードとテンプレート文字列を紐づけるマップなのだ。
var allTemplates = map[string]string{
	ModeConceptsSystem: conceptsSystemTemplate,
	ModeConcepts:       conceptsTemplate,
	ModeRefineSystem:   refineSystemTemplate,
	ModeRefine:         refineTemplate,
}

// DefaultTitleLanguage はタイトルの既定の記述言語です。
const DefaultTitleLanguage = "Japanese"

// TemplateData はプロンプトテンプレートに渡すデータ構造です。
type TemplateData struct {
	Transcript    string
	Count         int
	TitleLanguage string
	CurrentPrompt string
	Instruction   string
}

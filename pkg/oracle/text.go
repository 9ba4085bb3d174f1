package oracle

import (
	"fmt"

	"github.com/shouni/go-insert-image-kit/pkg/prompts"
)

// promptPair は System Prompt とユーザー入力の組です。
type promptPair struct {
	system string
	user   string
}

func buildConceptPrompts(pb prompts.PromptBuilder, req ConceptRequest) (promptPair, error) {
	data := prompts.TemplateData{Transcript: req.Transcript, Count: req.Count}
	return buildPair(pb, prompts.ModeConceptsSystem, prompts.ModeConcepts, data)
}

func buildRefinePrompts(pb prompts.PromptBuilder, req RefineRequest) (promptPair, error) {
	data := prompts.TemplateData{
		Transcript:    req.Transcript,
		CurrentPrompt: req.CurrentPrompt,
		Instruction:   req.Instruction,
	}
	return buildPair(pb, prompts.ModeRefineSystem, prompts.ModeRefine, data)
}

func buildPair(pb prompts.PromptBuilder, systemMode, userMode string, data prompts.TemplateData) (promptPair, error) {
	system, err := pb.Build(systemMode, data)
	if err != nil {
		return promptPair{}, fmt.Errorf("システムプロンプトの構築に失敗しました: %w", err)
	}
	user, err := pb.Build(userMode, data)
	if err != nil {
		return promptPair{}, fmt.Errorf("ユーザープロンプトの構築に失敗しました: %w", err)
	}
	return promptPair{system: system, user: user}, nil
}

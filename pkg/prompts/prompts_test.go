package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextPromptBuilder_Build(t *testing.T) {
	b, err := NewTextPromptBuilder("")
	require.NoError(t, err)

	t.Run("コンセプトのシステムプロンプト", func(t *testing.T) {
		got, err := b.Build(ModeConceptsSystem, TemplateData{Count: 5})
		require.NoError(t, err)
		assert.Contains(t, got, "exactly 5")
		assert.Contains(t, got, "Japanese")
		assert.Contains(t, got, `"imageSuggestions"`)
	})

	t.Run("調整のユーザープロンプト", func(t *testing.T) {
		got, err := b.Build(ModeRefine, TemplateData{
			Transcript:    "Intro. Middle. Outro.",
			CurrentPrompt: "A quiet library",
			Instruction:   "make it night",
		})
		require.NoError(t, err)
		assert.Contains(t, got, "A quiet library")
		assert.Contains(t, got, "make it night")
		assert.Contains(t, got, "Intro. Middle. Outro.")
	})

	t.Run("不明なモード", func(t *testing.T) {
		_, err := b.Build("unknown", TemplateData{})
		assert.Error(t, err)
	})
}

func TestTextPromptBuilder_TitleLanguage(t *testing.T) {
	b, err := NewTextPromptBuilder("English")
	require.NoError(t, err)
	got, err := b.Build(ModeConceptsSystem, TemplateData{Count: 3})
	require.NoError(t, err)
	assert.Contains(t, got, "written in English")
}

func TestFinalizeImagePrompt(t *testing.T) {
	assert.Equal(t, "A red fox, "+DefaultImagePromptSuffix, FinalizeImagePrompt(" A red fox. ", DefaultImagePromptSuffix))
	assert.Equal(t, "A red fox", FinalizeImagePrompt("A red fox", ""))
	assert.Equal(t, "8k", FinalizeImagePrompt("", "8k"))
}

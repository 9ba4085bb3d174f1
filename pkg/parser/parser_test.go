package parser

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"コードフェンス", "前置き\n```json\n{\"a\":1}\n```\n後書き", `{"a":1}`},
		{"言語なしフェンス", "```\n{\"a\":2}\n```", `{"a":2}`},
		{"外側の波括弧", `Sure! {"a":3} hope it helps`, `{"a":3}`},
		{"そのまま", `  [1,2]  `, `[1,2]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.raw))
		})
	}
}

func TestParseConcepts(t *testing.T) {
	body := `{"imageSuggestions":[
		{"title":"朝の海","prompt":"A calm sea at dawn"},
		{"title":"市場","prompt":"A busy market"},
		{"title":"夜景","prompt":"City lights at night"},
		{"title":"余分","prompt":"Extra one"}
	]}`

	t.Run("超過分は切り捨てる", func(t *testing.T) {
		concepts, err := ParseConcepts(body, 3)
		require.NoError(t, err)
		require.Len(t, concepts, 3)
		assert.Equal(t, "朝の海", concepts[0].Title)
		assert.Equal(t, "City lights at night", concepts[2].Prompt)
	})

	t.Run("不足はエラー", func(t *testing.T) {
		_, err := ParseConcepts(body, 5)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("JSONでない", func(t *testing.T) {
		_, err := ParseConcepts("I cannot help with that.", 3)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("配列が無い", func(t *testing.T) {
		_, err := ParseConcepts(`{"ideas":[]}`, 3)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("文字列以外の要素", func(t *testing.T) {
		bad := `{"imageSuggestions":[{"title":"a","prompt":"p"},{"title":1,"prompt":"p"},{"title":"c","prompt":"p"}]}`
		_, err := ParseConcepts(bad, 3)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("空のプロンプト", func(t *testing.T) {
		bad := `{"imageSuggestions":[{"title":"a","prompt":"p"},{"title":"b","prompt":"  "},{"title":"c","prompt":"p"}]}`
		_, err := ParseConcepts(bad, 3)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("要素がオブジェクトでない", func(t *testing.T) {
		_, err := ParseConcepts(`{"imageSuggestions":["a","b","c"]}`, 3)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})
}

func TestParseRefinedPrompt(t *testing.T) {
	got, err := ParseRefinedPrompt("```json\n{\"refinedPrompt\": \" A moody rainy street \"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "A moody rainy street", got)

	_, err = ParseRefinedPrompt(`{"refinedPrompt": 42}`)
	assert.ErrorIs(t, err, ErrMalformedResponse)

	_, err = ParseRefinedPrompt(`{"prompt": "x"}`)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestMalformedExcerptIsTruncated(t *testing.T) {
	_, err := ParseRefinedPrompt(strings.Repeat("x", 500))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "...")
	assert.Less(t, len(err.Error()), 400)
}

func TestTruncateString(t *testing.T) {
	t.Run("日本語はルーン単位で切り詰める", func(t *testing.T) {
		s := strings.Repeat("灯台守の物語", 50)
		got := truncateString(s, excerptLen)
		assert.True(t, utf8.ValidString(got))
		assert.Equal(t, excerptLen+3, utf8.RuneCountInString(got))
		assert.True(t, strings.HasSuffix(got, "..."))
	})

	t.Run("短い文字列はそのまま", func(t *testing.T) {
		assert.Equal(t, "場面", truncateString("場面", excerptLen))
	})

	t.Run("不正な応答の抜粋も UTF-8 として正しい", func(t *testing.T) {
		_, err := ParseRefinedPrompt(strings.Repeat("あ", 500))
		require.Error(t, err)
		assert.True(t, utf8.ValidString(err.Error()))
	})
}

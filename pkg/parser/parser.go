package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shouni/go-insert-image-kit/pkg/domain"
)

// ErrMalformedResponse は Text Oracle の応答が期待した JSON の形をしていないことを示します。
var ErrMalformedResponse = errors.New("could not parse the text model response")

const excerptLen = 200

// ExtractJSON はモデルの応答テキストから JSON 部分を取り出すのだ。
// コードフェンス、最も外側の {...}、応答全体の順に試すのだ。
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if matches := jsonBlockRegex.FindStringSubmatch(raw); len(matches) > 1 {
		return matches[1]
	}
	first := strings.Index(raw, "{")
	last := strings.LastIndex(raw, "}")
	if first != -1 && last > first {
		return raw[first : last+1]
	}
	return raw
}

// ParseConcepts は {"imageSuggestions":[{"title","prompt"}...]} 形式の応答を解析します。
// 要素数が count 未満ならエラー、超過分は切り捨てます。
func ParseConcepts(raw string, count int) ([]domain.Concept, error) {
	var envelope struct {
		ImageSuggestions []json.RawMessage `json:"imageSuggestions"`
	}
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &envelope); err != nil {
		return nil, malformed(raw, err)
	}
	if envelope.ImageSuggestions == nil {
		return nil, malformed(raw, errors.New(`missing "imageSuggestions" array`))
	}
	if len(envelope.ImageSuggestions) < count {
		return nil, malformed(raw, fmt.Errorf("expected %d suggestions, got %d", count, len(envelope.ImageSuggestions)))
	}

	concepts := make([]domain.Concept, 0, count)
	for i, item := range envelope.ImageSuggestions[:count] {
		c, err := parseConcept(item)
		if err != nil {
			return nil, malformed(raw, fmt.Errorf("suggestion %d: %w", i+1, err))
		}
		concepts = append(concepts, c)
	}
	return concepts, nil
}

// parseConcept は要素が title / prompt の両方を文字列として持つオブジェクトかを厳密に確認します。
func parseConcept(item json.RawMessage) (domain.Concept, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
		return domain.Concept{}, errors.New("element is not an object")
	}
	title, err := stringField(fields, "title")
	if err != nil {
		return domain.Concept{}, err
	}
	prompt, err := stringField(fields, "prompt")
	if err != nil {
		return domain.Concept{}, err
	}
	if strings.TrimSpace(prompt) == "" {
		return domain.Concept{}, errors.New(`"prompt" is blank`)
	}
	return domain.Concept{Title: strings.TrimSpace(title), Prompt: strings.TrimSpace(prompt)}, nil
}

// ParseRefinedPrompt は {"refinedPrompt": "..."} 形式の応答を解析します。
func ParseRefinedPrompt(raw string) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &fields); err != nil {
		return "", malformed(raw, err)
	}
	refined, err := stringField(fields, "refinedPrompt")
	if err != nil {
		return "", malformed(raw, err)
	}
	refined = strings.TrimSpace(refined)
	if refined == "" {
		return "", malformed(raw, errors.New(`"refinedPrompt" is blank`))
	}
	return refined, nil
}

func stringField(fields map[string]json.RawMessage, key string) (string, error) {
	v, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("missing %q", key)
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", fmt.Errorf("%q is not a string", key)
	}
	return s, nil
}

func malformed(raw string, cause error) error {
	return fmt.Errorf("%w (応答抜粋: %q): %v", ErrMalformedResponse, truncateString(raw, excerptLen), cause)
}

// truncateString は maxLen 文字（ルーン単位）を超える部分を省略します。
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

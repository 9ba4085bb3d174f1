package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shouni/go-insert-image-kit/pkg/domain"
)

// ResolveIdeaID は完全な ID、1 始まりの番号、一意な ID の前方一致のいずれかから画像案の ID を求めるのだ。
func ResolveIdeaID(ideas []domain.Idea, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("画像案の ID を指定してください: %w", domain.ErrIdeaNotFound)
	}
	for _, idea := range ideas {
		if idea.ID == ref {
			return idea.ID, nil
		}
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 1 && n <= len(ideas) {
			return ideas[n-1].ID, nil
		}
		return "", fmt.Errorf("番号 %d は範囲外です (1-%d): %w", n, len(ideas), domain.ErrIdeaNotFound)
	}

	var found string
	for _, idea := range ideas {
		if strings.HasPrefix(idea.ID, ref) {
			if found != "" {
				return "", fmt.Errorf("'%s' に一致する画像案が複数あります", ref)
			}
			found = idea.ID
		}
	}
	if found == "" {
		return "", fmt.Errorf("'%s': %w", ref, domain.ErrIdeaNotFound)
	}
	return found, nil
}

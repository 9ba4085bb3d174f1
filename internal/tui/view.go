package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/shouni/go-insert-image-kit/pkg/domain"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	spinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	cardStyle     = lipgloss.NewStyle().PaddingLeft(2)
	activeCard    = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("205")).
			PaddingLeft(1)
)

const promptPreviewRunes = 120

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("AI 挿絵スタジオ"))
	b.WriteString(subtleStyle.Render(fmt.Sprintf("  [%s]", m.snap.State)))
	b.WriteString("\n\n")

	switch m.mode {
	case modeTranscript:
		b.WriteString(m.viewTranscript())
	case modeEditPrompt:
		b.WriteString(m.viewIdeas())
		b.WriteString("\nプロンプトを編集 (ctrl+s で確定 / esc で戻る)\n")
		b.WriteString(m.prompt.View())
		b.WriteString("\n")
	case modeRefine:
		b.WriteString(m.viewIdeas())
		b.WriteString("\n")
		b.WriteString(m.refine.View())
		b.WriteString("\n")
	default:
		b.WriteString(m.viewIdeas())
	}

	b.WriteString("\n")
	if line := m.viewStatus(); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if m.mode == modeList {
		b.WriteString(m.help.View(listKeys{m.keys}))
	} else {
		b.WriteString(m.help.View(formKeys{m.keys}))
	}
	return b.String()
}

func (m Model) viewTranscript() string {
	var b strings.Builder
	b.WriteString("文字起こし\n")
	b.WriteString(m.transcript.View())
	b.WriteString("\n\n")
	b.WriteString(m.count.View())
	b.WriteString(subtleStyle.Render(fmt.Sprintf("  (%d〜%d 枚)", domain.MinImageCount, domain.MaxImageCount)))
	b.WriteString("\n")
	b.WriteString("アスペクト比: " + m.aspect.Label)
	b.WriteString("\n")
	if m.snap.State == domain.WorkflowLoadingInitialIdeas {
		b.WriteString(m.spinner.View() + " 画像案を考えています...\n")
	}
	return b.String()
}

func (m Model) viewIdeas() string {
	if len(m.snap.Ideas) == 0 {
		return subtleStyle.Render("画像案がありません") + "\n"
	}
	var b strings.Builder
	for i, idea := range m.snap.Ideas {
		b.WriteString(m.viewCard(i, idea))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewCard(i int, idea domain.Idea) string {
	title := idea.Title
	if strings.TrimSpace(title) == "" {
		title = "(無題)"
	}
	label := fmt.Sprintf("%d. %s", i+1, title)
	if i == m.cursor {
		label = selectedStyle.Render(label)
	}
	header := fmt.Sprintf("%s  %s  %s", label, subtleStyle.Render(idea.AspectRatio.Value), m.statusBadge(idea))

	lines := []string{header, subtleStyle.Render(truncate(idea.Prompt, promptPreviewRunes))}
	if idea.Error != "" {
		lines = append(lines, errorStyle.Render("! "+idea.Error))
	}
	body := strings.Join(lines, "\n")
	if i == m.cursor {
		return activeCard.Render(body)
	}
	return cardStyle.Render(body)
}

func (m Model) statusBadge(idea domain.Idea) string {
	switch idea.Status {
	case domain.StatusRefining:
		return m.spinner.View() + " 調整中"
	case domain.StatusGenerating:
		return m.spinner.View() + " 生成中"
	case domain.StatusReady:
		return okStyle.Render("✓ 生成済み")
	case domain.StatusFailed:
		return errorStyle.Render("✗ 失敗")
	default:
		if idea.HasImage() {
			return okStyle.Render("✓ 生成済み")
		}
		return subtleStyle.Render("待機中")
	}
}

func (m Model) viewStatus() string {
	switch {
	case m.status != "" && !m.statusOK:
		return errorStyle.Render(m.status)
	case m.status != "":
		return okStyle.Render(m.status)
	case m.snap.Error != "":
		return errorStyle.Render(m.snap.Error)
	case m.snap.Notice != "":
		return okStyle.Render(m.snap.Notice)
	}
	return ""
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

package pipeline

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/shouni/go-insert-image-kit/pkg/domain"
	"github.com/shouni/go-insert-image-kit/pkg/workflow"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("105"))
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

var statusStyles = map[domain.ItemStatus]lipgloss.Style{
	domain.StatusIdle:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	domain.StatusRefining:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	domain.StatusGenerating: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	domain.StatusReady:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	domain.StatusFailed:     lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
}

// PrintSnapshot は画像案の一覧を人が読める形で出力するのだ。
func PrintSnapshot(w io.Writer, snap workflow.Snapshot) {
	for i, idea := range snap.Ideas {
		title := idea.Title
		if title == "" {
			title = "画像案"
		}
		fmt.Fprintf(w, "%2d. %s %s [%s] %s\n",
			i+1,
			titleStyle.Render(title),
			idStyle.Render(idea.ShortID()),
			statusStyles[idea.Status].Render(idea.Status.String()),
			idStyle.Render(idea.AspectRatio.Value),
		)
		fmt.Fprintf(w, "    %s\n", promptStyle.Render(strings.TrimSpace(idea.Prompt)))
		if idea.Error != "" {
			fmt.Fprintf(w, "    %s\n", errorStyle.Render(idea.Error))
		}
	}
	if snap.Error != "" {
		fmt.Fprintln(w, errorStyle.Render(snap.Error))
	}
	if snap.Notice != "" {
		fmt.Fprintln(w, noticeStyle.Render(snap.Notice))
	}
}

// PrintAspectRatios は選択可能なアスペクト比を出力するのだ。
func PrintAspectRatios(w io.Writer) {
	for _, ar := range domain.AspectRatios() {
		fmt.Fprintf(w, "%-5s %-12s %4dx%-4d %s\n", ar.Value, ar.Label, ar.Width, ar.Height, ar.Description)
	}
}

// Package tui は Studio を操作する対話型のターミナル UI なのだ。
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/shouni/go-insert-image-kit/pkg/domain"
	"github.com/shouni/go-insert-image-kit/pkg/workflow"
)

// Studio は TUI が操作する Studio のメソッドなのだ。
type Studio interface {
	RequestConcepts(ctx context.Context, transcript string, count int, aspect domain.AspectRatio) error
	EditPrompt(id, text string) error
	SetAspectRatio(id string, aspect domain.AspectRatio) error
	RefinePrompt(ctx context.Context, id, instruction string) error
	GenerateOne(ctx context.Context, id string) error
	GenerateAll(ctx context.Context) (workflow.BatchResult, error)
	Reset()
	GeneratedImages() []domain.Idea
	Snapshot() workflow.Snapshot
	Subscribe(fn func(workflow.Snapshot)) (unsubscribe func())
}

// Exporter は画像の保存先なのだ。*publisher.Publisher が満たすのだ。
type Exporter interface {
	PublishArchive(ctx context.Context, ideas []domain.Idea, dest string) (string, error)
	SaveImage(ctx context.Context, idea domain.Idea, dir string) (string, error)
}

// Options は TUI の初期値と保存先なのだ。
type Options struct {
	Transcript  string
	Count       int
	AspectRatio domain.AspectRatio
	OutputDir   string
	Publisher   Exporter
	SaveSession func(ctx context.Context, snap workflow.Snapshot) error
}

type mode int

const (
	modeTranscript mode = iota
	modeList
	modeEditPrompt
	modeRefine
)

type focusField int

const (
	focusTranscript focusField = iota
	focusCount
)

// snapshotMsg は Studio の変更通知なのだ。
type snapshotMsg workflow.Snapshot

// opDoneMsg は非同期操作の完了を知らせるのだ。
type opDoneMsg struct {
	info string
	err  error
}

// Model は Bubble Tea のモデルなのだ。
type Model struct {
	ctx    context.Context
	studio Studio
	opts   Options
	keys   keyMap

	snap   workflow.Snapshot
	mode   mode
	focus  focusField
	cursor int
	aspect domain.AspectRatio

	transcript textarea.Model
	count      textinput.Model
	prompt     textarea.Model
	refine     textinput.Model
	spinner    spinner.Model
	help       help.Model

	status   string
	statusOK bool
	width    int
}

// NewModel は Studio の現在の状態から Model を作るのだ。
// 画像案が既にあれば一覧から、なければ文字起こしの入力から始まるのだ。
func NewModel(ctx context.Context, studio Studio, opts Options) Model {
	if opts.Count == 0 {
		opts.Count = domain.DefaultImageCount
	}
	if opts.AspectRatio.Value == "" {
		opts.AspectRatio = domain.DefaultAspectRatio
	}

	transcript := textarea.New()
	transcript.Placeholder = "ここに文字起こしを貼り付けてください"
	transcript.ShowLineNumbers = false
	transcript.CharLimit = 0
	transcript.MaxHeight = 0
	transcript.SetHeight(10)
	transcript.SetWidth(80)
	transcript.SetValue(opts.Transcript)

	count := textinput.New()
	count.Prompt = "枚数: "
	count.CharLimit = 2
	count.SetValue(strconv.Itoa(opts.Count))

	prompt := textarea.New()
	prompt.ShowLineNumbers = false
	prompt.CharLimit = 4096
	prompt.SetHeight(6)
	prompt.SetWidth(80)

	refine := textinput.New()
	refine.Prompt = "調整内容 > "
	refine.Placeholder = "例: もっと明るく、夕暮れの雰囲気で"
	refine.CharLimit = 512

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = spinnerStyle

	m := Model{
		ctx:        ctx,
		studio:     studio,
		opts:       opts,
		keys:       newKeyMap(),
		snap:       studio.Snapshot(),
		aspect:     opts.AspectRatio,
		transcript: transcript,
		count:      count,
		prompt:     prompt,
		refine:     refine,
		spinner:    sp,
		help:       help.New(),
	}
	if len(m.snap.Ideas) > 0 {
		m.mode = modeList
	} else {
		m.mode = modeTranscript
		m.transcript.Focus()
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		w := max(msg.Width-4, 20)
		m.transcript.SetWidth(w)
		m.prompt.SetWidth(w)
		m.help.Width = msg.Width
		return m, nil

	case snapshotMsg:
		m.applySnapshot(workflow.Snapshot(msg))
		return m, nil

	case opDoneMsg:
		m.applySnapshot(m.studio.Snapshot())
		switch {
		case isDiscarded(msg.err):
		case msg.err != nil:
			m.setStatus(domain.Message(msg.err), false)
		case msg.info != "":
			m.setStatus(msg.info, true)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeTranscript:
			return m.updateTranscript(msg)
		case modeEditPrompt:
			return m.updateEditPrompt(msg)
		case modeRefine:
			return m.updateRefine(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m Model) updateTranscript(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.submit):
		if m.snap.State == domain.WorkflowLoadingInitialIdeas {
			return m, nil
		}
		n, err := domain.ParseCount(m.count.Value())
		if err != nil {
			m.setStatus(domain.Message(err), false)
			return m, nil
		}
		if err := domain.ValidateTranscript(m.transcript.Value()); err != nil {
			m.setStatus(domain.Message(err), false)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("%d 件の画像案を考えています...", n), true)
		return m, m.requestConcepts(m.transcript.Value(), n, m.aspect)

	case key.Matches(msg, m.keys.nextField):
		if m.focus == focusTranscript {
			m.focus = focusCount
			m.transcript.Blur()
			return m, m.count.Focus()
		}
		m.focus = focusTranscript
		m.count.Blur()
		return m, m.transcript.Focus()

	case key.Matches(msg, m.keys.formAspect):
		m.aspect = m.aspect.Next()
		return m, nil

	case key.Matches(msg, m.keys.cancel):
		if len(m.snap.Ideas) > 0 {
			m.enterList()
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == focusCount {
		m.count, cmd = m.count.Update(msg)
	} else {
		m.transcript, cmd = m.transcript.Update(msg)
	}
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	idea, ok := m.current()
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.down):
		if m.cursor < len(m.snap.Ideas)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.edit):
		if !ok || m.rejectBusy(idea) {
			return m, nil
		}
		m.mode = modeEditPrompt
		m.prompt.SetValue(idea.Prompt)
		return m, m.prompt.Focus()

	case key.Matches(msg, m.keys.refine):
		if !ok || m.rejectBusy(idea) {
			return m, nil
		}
		m.mode = modeRefine
		m.refine.SetValue("")
		return m, m.refine.Focus()

	case key.Matches(msg, m.keys.aspect):
		if !ok {
			return m, nil
		}
		if err := m.studio.SetAspectRatio(idea.ID, idea.AspectRatio.Next()); err != nil {
			m.setStatus(domain.Message(err), false)
		}
		m.applySnapshot(m.studio.Snapshot())

	case key.Matches(msg, m.keys.generate):
		if !ok || m.rejectBusy(idea) {
			return m, nil
		}
		return m, m.run(func(ctx context.Context) (string, error) {
			return "", m.studio.GenerateOne(ctx, idea.ID)
		})

	case key.Matches(msg, m.keys.generateAll):
		if m.snap.State.IsBatchBusy() {
			m.setStatus(domain.Message(domain.ErrBatchBusy), false)
			return m, nil
		}
		m.setStatus("すべての画像を生成しています...", true)
		return m, m.run(func(ctx context.Context) (string, error) {
			_, err := m.studio.GenerateAll(ctx)
			if err != nil {
				return "", err
			}
			return workflow.AllGeneratedNotice, nil
		})

	case key.Matches(msg, m.keys.saveImage):
		if !ok || !idea.HasImage() {
			m.setStatus(domain.Message(domain.ErrNoImages), false)
			return m, nil
		}
		return m, m.run(func(ctx context.Context) (string, error) {
			path, err := m.opts.Publisher.SaveImage(ctx, idea, m.opts.OutputDir)
			if err != nil {
				return "", err
			}
			return "保存しました: " + path, nil
		})

	case key.Matches(msg, m.keys.export):
		images := m.studio.GeneratedImages()
		if len(images) == 0 {
			m.setStatus(domain.Message(domain.ErrNoImages), false)
			return m, nil
		}
		return m, m.run(func(ctx context.Context) (string, error) {
			path, err := m.opts.Publisher.PublishArchive(ctx, images, m.opts.OutputDir)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d 枚の画像を書き出しました: %s", len(images), path), nil
		})

	case key.Matches(msg, m.keys.saveSession):
		if m.opts.SaveSession == nil {
			return m, nil
		}
		snap := m.studio.Snapshot()
		return m, m.run(func(ctx context.Context) (string, error) {
			if err := m.opts.SaveSession(ctx, snap); err != nil {
				return "", err
			}
			return "セッションを保存しました", nil
		})

	case key.Matches(msg, m.keys.reset):
		m.studio.Reset()
		m.applySnapshot(m.studio.Snapshot())
		m.cursor = 0
		m.mode = modeTranscript
		m.focus = focusTranscript
		m.transcript.SetValue("")
		m.setStatus("", true)
		return m, m.transcript.Focus()
	}
	return m, nil
}

func (m Model) updateEditPrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.submit):
		if idea, ok := m.current(); ok {
			if err := m.studio.EditPrompt(idea.ID, m.prompt.Value()); err != nil {
				m.setStatus(domain.Message(err), false)
			}
		}
		m.enterList()
		return m, nil
	case key.Matches(msg, m.keys.cancel):
		m.enterList()
		return m, nil
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m Model) updateRefine(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		idea, ok := m.current()
		instruction := m.refine.Value()
		m.enterList()
		if !ok {
			return m, nil
		}
		return m, m.run(func(ctx context.Context) (string, error) {
			return "", m.studio.RefinePrompt(ctx, idea.ID, instruction)
		})
	case tea.KeyEsc:
		m.enterList()
		return m, nil
	}
	var cmd tea.Cmd
	m.refine, cmd = m.refine.Update(msg)
	return m, cmd
}

// run は Studio の操作をゴルーチンで実行する tea.Cmd を返すのだ。
func (m Model) run(op func(ctx context.Context) (string, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		info, err := op(ctx)
		return opDoneMsg{info: info, err: err}
	}
}

func (m Model) requestConcepts(transcript string, count int, aspect domain.AspectRatio) tea.Cmd {
	return m.run(func(ctx context.Context) (string, error) {
		if err := m.studio.RequestConcepts(ctx, transcript, count, aspect); err != nil {
			return "", err
		}
		return fmt.Sprintf("%d 件の画像案を作成しました", count), nil
	})
}

// applySnapshot は新しいスナップショットだけを反映するのだ。
func (m *Model) applySnapshot(snap workflow.Snapshot) {
	if snap.Version < m.snap.Version {
		return
	}
	hadIdeas := len(m.snap.Ideas) > 0
	m.snap = snap
	if m.cursor >= len(snap.Ideas) {
		m.cursor = max(len(snap.Ideas)-1, 0)
	}
	if !hadIdeas && len(snap.Ideas) > 0 && m.mode == modeTranscript {
		m.enterList()
	}
}

func (m *Model) enterList() {
	m.mode = modeList
	m.transcript.Blur()
	m.count.Blur()
	m.prompt.Blur()
	m.refine.Blur()
}

func (m Model) current() (domain.Idea, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Ideas) {
		return domain.Idea{}, false
	}
	return m.snap.Ideas[m.cursor], true
}

func (m *Model) rejectBusy(idea domain.Idea) bool {
	switch {
	case m.snap.State.IsBatchBusy():
		m.setStatus(domain.Message(domain.ErrBatchBusy), false)
	case idea.IsBusy():
		m.setStatus(domain.Message(domain.ErrIdeaBusy), false)
	default:
		return false
	}
	return true
}

func (m *Model) setStatus(text string, ok bool) {
	m.status = text
	m.statusOK = ok
}

// isDiscarded はリセット後に届いた結果かどうかなのだ。表示には出さないのだ。
func isDiscarded(err error) bool {
	return errors.Is(err, domain.ErrDiscarded)
}

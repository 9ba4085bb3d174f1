package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	up          key.Binding
	down        key.Binding
	edit        key.Binding
	refine      key.Binding
	generate    key.Binding
	generateAll key.Binding
	aspect      key.Binding
	formAspect  key.Binding
	saveImage   key.Binding
	export      key.Binding
	saveSession key.Binding
	reset       key.Binding
	submit      key.Binding
	nextField   key.Binding
	cancel      key.Binding
	toggleHelp  key.Binding
	quit        key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "上へ"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "下へ"),
		),
		edit: key.NewBinding(
			key.WithKeys("e", "enter"),
			key.WithHelp("e", "プロンプト編集"),
		),
		refine: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "AI で調整"),
		),
		generate: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "画像生成"),
		),
		generateAll: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "すべて生成"),
		),
		aspect: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "比率切替"),
		),
		formAspect: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "比率切替"),
		),
		saveImage: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "画像を保存"),
		),
		export: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "ZIP 書き出し"),
		),
		saveSession: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "セッション保存"),
		),
		reset: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "リセット"),
		),
		submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "確定"),
		),
		nextField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "入力欄切替"),
		),
		cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "キャンセル"),
		),
		toggleHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "ヘルプ"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "終了"),
		),
	}
}

// listKeys は画像案一覧で使うキーの help.KeyMap なのだ。
type listKeys struct{ keyMap }

func (k listKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.edit, k.refine, k.generate, k.generateAll, k.aspect, k.export, k.toggleHelp, k.quit}
}

func (k listKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.edit, k.refine},
		{k.generate, k.generateAll, k.aspect},
		{k.saveImage, k.export, k.saveSession},
		{k.reset, k.toggleHelp, k.quit},
	}
}

// formKeys は文字起こし入力とプロンプト編集で使うキーなのだ。
type formKeys struct{ keyMap }

func (k formKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.submit, k.nextField, k.formAspect, k.cancel}
}

func (k formKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

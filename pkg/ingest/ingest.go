// Package ingest は文字起こしの入力元（標準入力、URL、PDF、ローカル/GCS のテキスト）を読み込みます。
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"unicode/utf8"
)

// MaxInputSize は読み込める入力の上限 (25 MiB) です。
const MaxInputSize = 25 * 1024 * 1024

const (
	// StdinSource は標準入力を表すソース指定です。
	StdinSource   = "-"
	titleMaxRunes = 80
)

var (
	ErrEmptyContent = errors.New("no readable text found in the source")
	ErrTooLarge     = fmt.Errorf("input exceeds the %d MiB limit", MaxInputSize/1024/1024)
)

// SourceType は入力元の種類です。
type SourceType string

const (
	SourceStdin SourceType = "stdin"
	SourceURL   SourceType = "url"
	SourcePDF   SourceType = "pdf"
	SourceText  SourceType = "text"
)

// Transcript は読み込んだ文字起こしです。
type Transcript struct {
	Text      string
	Title     string
	Source    string
	Type      SourceType
	WordCount int
}

// Fetcher は httpkit.ClientInterface のうち取得処理だけを切り出したものです。
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Reader は remoteio.InputReader のうちオープン処理だけを切り出したものです。
type Reader interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// Loader はソース指定に応じて文字起こしを読み込みます。
type Loader struct {
	fetcher Fetcher
	reader  Reader
	stdin   io.Reader
}

// NewLoader は Loader を初期化します。stdin が nil の場合、"-" の読み込みはエラーになります。
func NewLoader(fetcher Fetcher, reader Reader, stdin io.Reader) *Loader {
	return &Loader{fetcher: fetcher, reader: reader, stdin: stdin}
}

// DetectSource はソース指定から入力元の種類を判定します。
func DetectSource(source string) SourceType {
	lower := strings.ToLower(strings.TrimSpace(source))
	switch {
	case lower == StdinSource:
		return SourceStdin
	case strings.HasSuffix(lower, ".pdf"):
		return SourcePDF
	case strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://"):
		return SourceURL
	default:
		return SourceText
	}
}

// Load はソースを読み込み、空でない文字起こしを返します。
func (l *Loader) Load(ctx context.Context, source string) (*Transcript, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("transcript source is empty")
	}
	kind := DetectSource(source)
	slog.InfoContext(ctx, "文字起こしを読み込んでいます", "source", source, "type", kind)

	var (
		t   *Transcript
		err error
	)
	switch kind {
	case SourceStdin:
		t, err = l.loadStdin()
	case SourceURL:
		t, err = l.loadURL(ctx, source)
	case SourcePDF:
		t, err = l.loadPDF(ctx, source)
	default:
		t, err = l.loadText(ctx, source)
	}
	if err != nil {
		return nil, err
	}

	t.Text = strings.TrimSpace(t.Text)
	if t.Text == "" {
		return nil, fmt.Errorf("%s: %w", source, ErrEmptyContent)
	}
	t.Type = kind
	if t.Title == "" {
		t.Title = titleFromText(t.Text, titleMaxRunes)
	}
	t.WordCount = wordCount(t.Text)
	slog.InfoContext(ctx, "文字起こしを読み込みました", "source", source, "chars", utf8.RuneCountInString(t.Text), "words", t.WordCount)
	return t, nil
}

func (l *Loader) loadStdin() (*Transcript, error) {
	if l.stdin == nil {
		return nil, fmt.Errorf("standard input is not available")
	}
	data, err := readLimited(l.stdin)
	if err != nil {
		return nil, fmt.Errorf("標準入力の読み込みに失敗しました: %w", err)
	}
	return &Transcript{Text: string(data), Source: "stdin"}, nil
}

func (l *Loader) loadText(ctx context.Context, source string) (*Transcript, error) {
	data, err := l.readSource(ctx, source)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s is not valid UTF-8 text", source)
	}
	return &Transcript{Text: string(data), Source: path.Base(source)}, nil
}

// readSource は URL なら HTTP で、それ以外は remoteio でバイト列を取得します。
func (l *Loader) readSource(ctx context.Context, source string) ([]byte, error) {
	if isHTTP(source) {
		if l.fetcher == nil {
			return nil, fmt.Errorf("HTTP client is not configured")
		}
		data, err := l.fetcher.FetchBytes(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("could not fetch %s: %w", source, err)
		}
		if len(data) > MaxInputSize {
			return nil, ErrTooLarge
		}
		return data, nil
	}

	if l.reader == nil {
		return nil, fmt.Errorf("input reader is not configured")
	}
	rc, err := l.reader.Open(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("ファイルのオープンに失敗しました (%s): %w", source, err)
	}
	defer rc.Close()
	data, err := readLimited(rc)
	if err != nil {
		return nil, fmt.Errorf("ファイルの読み込みに失敗しました (%s): %w", source, err)
	}
	return data, nil
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxInputSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxInputSize {
		return nil, ErrTooLarge
	}
	return data, nil
}

func isHTTP(source string) bool {
	u, err := url.Parse(source)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// IsWebURL はソース指定がホスト名付きの http(s) URL かどうかを返します。
func IsWebURL(source string) bool {
	u, err := url.Parse(strings.TrimSpace(source))
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func titleFromText(text string, maxRunes int) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	line = strings.TrimSpace(line)
	if utf8.RuneCountInString(line) > maxRunes {
		line = string([]rune(line)[:maxRunes]) + "..."
	}
	return line
}

// wordCount は空白区切りの語数を数えます。
func wordCount(text string) int {
	return len(strings.Fields(text))
}

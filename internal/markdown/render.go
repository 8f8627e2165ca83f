// Package markdown renders the synthesized plan for the document view.
//
// Render produces a line-oriented block model for the dashboard client, HTML uses
// goldmark for the browser document view and Terminal uses glamour for the CLI.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

type BlockKind string

const (
	KindHeading   BlockKind = "heading"
	KindBullet    BlockKind = "bullet"
	KindParagraph BlockKind = "paragraph"
	KindSpacer    BlockKind = "spacer"
)

// Fragment is a run of text that is either plain or bold.
type Fragment struct {
	Text string `json:"text"`
	Bold bool   `json:"bold,omitempty"`
}

// Block is one rendered source line.
type Block struct {
	Kind      BlockKind  `json:"kind"`
	Level     int        `json:"level,omitempty"`
	Text      string     `json:"text,omitempty"`
	Fragments []Fragment `json:"fragments,omitempty"`
}

var (
	boldRe   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	bulletRe = regexp.MustCompile(`^[*-]\s`)
)

// Render converts content into one block per line. Headings are only recognised at
// column zero; bullets may be indented.
func Render(content string) []Block {
	lines := strings.Split(content, "\n")
	blocks := make([]Block, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "### "):
			blocks = append(blocks, Block{Kind: KindHeading, Level: 3, Text: strings.TrimPrefix(line, "### ")})
		case strings.HasPrefix(line, "## "):
			blocks = append(blocks, Block{Kind: KindHeading, Level: 2, Text: strings.TrimPrefix(line, "## ")})
		case trimmed == "":
			blocks = append(blocks, Block{Kind: KindSpacer})
		case strings.HasPrefix(trimmed, "* ") || strings.HasPrefix(trimmed, "- "):
			blocks = append(blocks, textBlock(KindBullet, bulletRe.ReplaceAllString(trimmed, "")))
		default:
			blocks = append(blocks, textBlock(KindParagraph, line))
		}
	}
	return blocks
}

func textBlock(kind BlockKind, text string) Block {
	frags := SplitBold(text)
	var plain strings.Builder
	for _, f := range frags {
		plain.WriteString(f.Text)
	}
	return Block{Kind: kind, Text: plain.String(), Fragments: frags}
}

// SplitBold splits text on **bold** markers into alternating plain and bold runs.
// Empty plain runs are omitted.
func SplitBold(text string) []Fragment {
	var frags []Fragment
	last := 0
	for _, m := range boldRe.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > last {
			frags = append(frags, Fragment{Text: text[last:m[0]]})
		}
		frags = append(frags, Fragment{Text: text[m[2]:m[3]], Bold: true})
		last = m[1]
	}
	if last < len(text) {
		frags = append(frags, Fragment{Text: text[last:]})
	}
	return frags
}

var htmlRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// HTML renders content as an HTML fragment. Raw HTML in the source is not passed through.
func HTML(content string) (string, error) {
	var buf bytes.Buffer
	if err := htmlRenderer.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

// Terminal renders content for a terminal. style is a glamour standard style such as
// "dark" or "light"; width <= 0 disables wrapping.
func Terminal(content string, style string, width int) (string, error) {
	if style == "" {
		style = "dark"
	}
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle(style)}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create terminal renderer: %w", err)
	}
	out, err := r.Render(content)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

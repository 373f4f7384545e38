// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// markdownParser is shared: the configuration never changes and the
// goldmark parser is safe for concurrent Parse calls.
var (
	markdownParser goldmark.Markdown
	markdownOnce   sync.Once
)

func getMarkdownParser() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownParser = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		)
	})
	return markdownParser
}

// RenderMarkdown renders a task description as styled terminal text
// wrapped to width. Soft line breaks inside paragraphs become spaces
// so hard-wrapped source reflows at any width; fenced code blocks
// are syntax-highlighted when the fence names a language.
func RenderMarkdown(input string, theme Theme, width int) string {
	if input == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}
	source := []byte(input)
	document := getMarkdownParser().Parser().Parse(text.NewReader(source))

	r := &markdownRenderer{source: source, theme: theme, width: width}
	ast.Walk(document, r.walk)
	return strings.TrimRight(r.out.String(), "\n")
}

// markdownRenderer walks the goldmark AST with accumulate-then-wrap
// semantics: inline content collects in a buffer and is word-wrapped
// as a unit when its block closes.
type markdownRenderer struct {
	source []byte
	theme  Theme
	width  int

	out    strings.Builder
	inline strings.Builder

	// indent is the running prefix for nested lists and quotes.
	indent string
	// bullet replaces the indent on the next flushed first line.
	bullet string

	listDepth   int
	orderedNext []int
}

func (r *markdownRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch typed := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		if entering {
			r.inline.Reset()
		} else {
			r.flushInline(lipgloss.NewStyle().Foreground(r.theme.NormalText))
			r.blankLine()
		}

	case *ast.Heading:
		if entering {
			r.inline.Reset()
		} else {
			style := lipgloss.NewStyle().Bold(true).Foreground(r.theme.Header)
			r.flushInline(style)
			r.blankLine()
		}

	case *ast.FencedCodeBlock:
		if entering {
			r.writeCodeBlock(typed)
			return ast.WalkSkipChildren, nil
		}

	case *ast.Blockquote:
		if entering {
			r.indent += "│ "
		} else {
			r.indent = strings.TrimSuffix(r.indent, "│ ")
			r.blankLine()
		}

	case *ast.List:
		if entering {
			r.listDepth++
			start := 0
			if typed.IsOrdered() {
				start = typed.Start
			}
			r.orderedNext = append(r.orderedNext, start)
		} else {
			r.listDepth--
			r.orderedNext = r.orderedNext[:len(r.orderedNext)-1]
			if r.listDepth == 0 {
				r.blankLine()
			}
		}

	case *ast.ListItem:
		if entering {
			next := &r.orderedNext[len(r.orderedNext)-1]
			if *next > 0 {
				r.bullet = r.indent + fmt.Sprintf("%d. ", *next)
				*next++
				r.indent += "   "
			} else {
				r.bullet = r.indent + "- "
				r.indent += "  "
			}
		} else {
			r.indent = r.indent[:len(r.indent)-listIndentWidth(r.orderedNext)]
		}

	case *ast.Text:
		if entering {
			r.inline.Write(typed.Segment.Value(r.source))
			if typed.SoftLineBreak() {
				r.inline.WriteString(" ")
			}
			if typed.HardLineBreak() {
				r.inline.WriteString("\n")
			}
		}

	case *ast.CodeSpan:
		if entering {
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				if textNode, ok := child.(*ast.Text); ok {
					r.inline.Write(textNode.Segment.Value(r.source))
				}
			}
			return ast.WalkSkipChildren, nil
		}

	case *ast.AutoLink:
		if entering {
			r.inline.Write(typed.URL(r.source))
		}

	case *ast.Link:
		if !entering {
			if url := string(typed.Destination); url != "" {
				r.inline.WriteString(" (" + url + ")")
			}
		}
	}
	return ast.WalkContinue, nil
}

// listIndentWidth returns how many indent bytes the innermost list
// level added: 3 for ordered ("1. "), 2 for bullets.
func listIndentWidth(orderedNext []int) int {
	if len(orderedNext) > 0 && orderedNext[len(orderedNext)-1] > 0 {
		return 3
	}
	return 2
}

// flushInline wraps the accumulated inline text and writes it with
// the current indent, consuming a pending bullet for the first line.
func (r *markdownRenderer) flushInline(style lipgloss.Style) {
	content := strings.TrimSpace(r.inline.String())
	r.inline.Reset()
	if content == "" {
		return
	}
	wrapped := ansi.Wrap(style.Render(content), r.width-len(r.indent), " ,.;-")
	for i, line := range strings.Split(wrapped, "\n") {
		if i == 0 && r.bullet != "" {
			r.out.WriteString(r.bullet)
			r.bullet = ""
		} else {
			r.out.WriteString(r.indent)
		}
		r.out.WriteString(line)
		r.out.WriteString("\n")
	}
}

// writeCodeBlock emits a fenced code block, syntax-highlighted by
// chroma when the language is known; plain faint text otherwise.
func (r *markdownRenderer) writeCodeBlock(node *ast.FencedCodeBlock) {
	var code strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(r.source))
	}

	rendered := ""
	if language := string(node.Language(r.source)); language != "" {
		var highlighted strings.Builder
		if err := quick.Highlight(&highlighted, code.String(), language, "terminal256", "monokai"); err == nil {
			rendered = highlighted.String()
		}
	}
	if rendered == "" {
		faint := lipgloss.NewStyle().Foreground(r.theme.FaintText)
		rendered = faint.Render(strings.TrimRight(code.String(), "\n"))
	}

	for _, line := range strings.Split(strings.TrimRight(rendered, "\n"), "\n") {
		r.out.WriteString(r.indent + "  " + line + "\n")
	}
	r.blankLine()
}

// blankLine ensures exactly one empty line separates blocks.
func (r *markdownRenderer) blankLine() {
	current := r.out.String()
	if current == "" || strings.HasSuffix(current, "\n\n") {
		return
	}
	if !strings.HasSuffix(current, "\n") {
		r.out.WriteString("\n")
	}
	r.out.WriteString("\n")
}

// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

// stripped renders markdown and returns the ANSI-stripped visible
// text.
func stripped(input string, width int) string {
	return ansi.Strip(RenderMarkdown(input, DefaultTheme(), width))
}

func TestRenderMarkdownEmpty(t *testing.T) {
	if out := RenderMarkdown("", DefaultTheme(), 80); out != "" {
		t.Errorf("expected empty output for empty input, got %q", out)
	}
}

func TestRenderMarkdownParagraphReflow(t *testing.T) {
	// Source hard-wrapped at a narrow width; soft breaks should
	// become spaces and the text reflow at the render width.
	input := "a description that was\nwritten narrow with hard\nbreaks embedded in it"
	out := stripped(input, 120)

	if strings.Contains(out, "\n") {
		t.Errorf("expected single line at width 120, got:\n%s", out)
	}
	if !strings.Contains(out, "was written narrow") {
		t.Errorf("expected soft breaks converted to spaces, got:\n%s", out)
	}
}

func TestRenderMarkdownWrapsToWidth(t *testing.T) {
	input := "this paragraph is long enough that it must wrap at the requested render width"
	out := stripped(input, 30)

	for _, line := range strings.Split(out, "\n") {
		if len(line) > 30 {
			t.Errorf("line exceeds width 30: %q", line)
		}
	}
}

func TestRenderMarkdownHeading(t *testing.T) {
	out := stripped("# Plan\n\nbody text", 80)
	if !strings.Contains(out, "Plan") {
		t.Errorf("missing heading text:\n%s", out)
	}
	if !strings.Contains(out, "body text") {
		t.Errorf("missing paragraph text:\n%s", out)
	}
}

func TestRenderMarkdownBulletList(t *testing.T) {
	out := stripped("- first\n- second\n- third", 80)
	for _, want := range []string{"- first", "- second", "- third"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing list entry %q in:\n%s", want, out)
		}
	}
}

func TestRenderMarkdownOrderedList(t *testing.T) {
	out := stripped("1. alpha\n2. beta", 80)
	if !strings.Contains(out, "1. alpha") || !strings.Contains(out, "2. beta") {
		t.Errorf("missing ordered list numbering in:\n%s", out)
	}
}

func TestRenderMarkdownBlockquote(t *testing.T) {
	out := stripped("> quoted line", 80)
	if !strings.Contains(out, "│ quoted line") {
		t.Errorf("missing quote prefix in:\n%s", out)
	}
}

func TestRenderMarkdownFencedCode(t *testing.T) {
	input := "```go\nfunc main() {}\n```"
	out := stripped(input, 80)
	if !strings.Contains(out, "func main() {}") {
		t.Errorf("missing code content in:\n%s", out)
	}
	if strings.Contains(out, "```") {
		t.Errorf("fence markers should not render:\n%s", out)
	}
}

func TestRenderMarkdownFencedCodeUnknownLanguage(t *testing.T) {
	input := "```\nplain block\n```"
	out := stripped(input, 80)
	if !strings.Contains(out, "plain block") {
		t.Errorf("missing unhighlighted code content in:\n%s", out)
	}
}

func TestRenderMarkdownCodeSpan(t *testing.T) {
	out := stripped("run `make check` before pushing", 80)
	if !strings.Contains(out, "make check") {
		t.Errorf("missing code span text in:\n%s", out)
	}
}

func TestRenderMarkdownLinkShowsDestination(t *testing.T) {
	out := stripped("see [the docs](https://example.com/docs)", 80)
	if !strings.Contains(out, "the docs") {
		t.Errorf("missing link text in:\n%s", out)
	}
	if !strings.Contains(out, "https://example.com/docs") {
		t.Errorf("missing link destination in:\n%s", out)
	}
}

func TestRenderMarkdownBlankLineBetweenBlocks(t *testing.T) {
	out := stripped("first paragraph\n\nsecond paragraph", 80)
	if !strings.Contains(out, "first paragraph\n\nsecond paragraph") {
		t.Errorf("expected one blank line between paragraphs, got:\n%s", out)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// SpanKind classifies an inline fragment of block content.
type SpanKind string

const (
	// SpanText is a run of plain text.
	SpanText SpanKind = "text"

	// SpanInlineMath is a LaTeX expression delimited by $...$ in the source.
	SpanInlineMath SpanKind = "inline_math"

	// SpanBlockMath is a LaTeX expression delimited by $$...$$ in the source.
	// Inside a paragraph it is promoted to a standalone equation block.
	SpanBlockMath SpanKind = "block_math"
)

// Span is one inline fragment: plain text or a LaTeX expression. Spans are
// the unit of chunking; equation spans are never split across blocks.
type Span struct {
	Kind SpanKind
	Text string
}

// Len returns the serialized character length of the span.
func (s Span) Len() int {
	return len(s.Text)
}

// IsMath reports whether the span is an equation (inline or block).
func (s Span) IsMath() bool {
	return s.Kind == SpanInlineMath || s.Kind == SpanBlockMath
}

// BlockKind classifies a structural unit of the output document.
type BlockKind string

const (
	BlockHeading   BlockKind = "heading"
	BlockParagraph BlockKind = "paragraph"
	BlockBullet    BlockKind = "bulleted_list_item"
	BlockEquation  BlockKind = "equation"
	BlockCode      BlockKind = "code"
)

// Block is one structural unit of the output document. Heading, paragraph,
// and bullet blocks carry a span sequence; equation and code blocks carry
// raw content.
type Block struct {
	Kind BlockKind

	// Level is the heading level (1-3). Zero for non-headings.
	Level int

	// Spans holds the inline content for heading/paragraph/bullet blocks.
	Spans []Span

	// Content holds the raw LaTeX of an equation block or the text of a
	// code block.
	Content string

	// Language is the fence tag of a code block ("plain text" when absent).
	Language string

	// Fallback marks a code block produced by demoting content that could
	// not be delivered in structured form (oversized equation, rejected
	// rich text). Fidelity of the source text is preserved; rendering is not.
	Fallback bool
}

// Len returns the serialized character length of the block: the sum of span
// lengths for rich-text blocks, or the raw content length otherwise.
func (b Block) Len() int {
	if b.Kind == BlockEquation || b.Kind == BlockCode {
		return len(b.Content)
	}
	n := 0
	for _, s := range b.Spans {
		n += s.Len()
	}
	return n
}

// RawText reconstructs the block's content as markdown-flavored plain text,
// with math delimiters restored. Used for the code-block delivery fallback
// and for lossless-decomposition checks.
func (b Block) RawText() string {
	switch b.Kind {
	case BlockEquation:
		return b.Content
	case BlockCode:
		return b.Content
	}
	var sb strings.Builder
	for _, s := range b.Spans {
		switch s.Kind {
		case SpanInlineMath:
			sb.WriteString("$")
			sb.WriteString(s.Text)
			sb.WriteString("$")
		case SpanBlockMath:
			sb.WriteString("$$")
			sb.WriteString(s.Text)
			sb.WriteString("$$")
		default:
			sb.WriteString(s.Text)
		}
	}
	return sb.String()
}

// Document is the ordered block sequence produced by one pipeline run.
// It is built in a single pass, consumed once by delivery, and never
// mutated after construction.
type Document struct {
	Blocks []Block
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compose converts segmented line groups into delivery-ready blocks,
// enforcing the remote store's per-block character ceiling.
package compose

import (
	"github.com/pdiddy/scribe/internal/markdown"
	"github.com/pdiddy/scribe/pkg/types"
)

// DefaultBlockLimit is the Notion per-block character ceiling.
const DefaultBlockLimit = 2000

// fallbackLanguage tags code blocks produced by demoting LaTeX content.
const fallbackLanguage = "latex"

// Build composes the whole document. Pure: identical groups always produce
// identical block sequences, which delivery retries rely on.
func Build(groups []markdown.Group, limit int) types.Document {
	var doc types.Document
	for _, g := range groups {
		doc.Blocks = append(doc.Blocks, Compose(g, limit)...)
	}
	return doc
}

// Compose converts one line group into one or more blocks, each within the
// character ceiling. Block-math spans found inside a text group are promoted
// to standalone equation blocks, splitting the surrounding text.
func Compose(g markdown.Group, limit int) []types.Block {
	if limit <= 0 {
		limit = DefaultBlockLimit
	}

	switch g.Kind {
	case markdown.GroupEquation:
		return equationBlocks(g.Text, limit)
	case markdown.GroupCode:
		return codeBlocks(g.Text, g.Language, limit, false)
	}

	kind, level := blockKind(g)

	var out []types.Block
	var run []types.Span

	flush := func() {
		if len(run) > 0 {
			out = append(out, textBlocks(kind, level, run, limit)...)
			run = nil
		}
	}

	for s := range markdown.Tokenize(g.Text) {
		if s.Kind == types.SpanBlockMath {
			flush()
			out = append(out, equationBlocks(s.Text, limit)...)
			continue
		}
		run = append(run, s)
	}
	flush()

	return out
}

func blockKind(g markdown.Group) (types.BlockKind, int) {
	switch g.Kind {
	case markdown.GroupHeading:
		return types.BlockHeading, g.Level
	case markdown.GroupBullet:
		return types.BlockBullet, 0
	default:
		return types.BlockParagraph, 0
	}
}

// textBlocks wraps a span run into same-kind blocks, chunking when the run
// exceeds the ceiling. A chunk consisting of a single oversized equation
// span is demoted to a code block so its content survives intact.
func textBlocks(kind types.BlockKind, level int, spans []types.Span, limit int) []types.Block {
	var out []types.Block
	for _, chunk := range chunkSpans(spans, limit) {
		if len(chunk) == 1 && chunk[0].IsMath() && chunk[0].Len() > limit {
			out = append(out, codeBlocks(chunk[0].Text, fallbackLanguage, limit, true)...)
			continue
		}
		out = append(out, types.Block{Kind: kind, Level: level, Spans: chunk})
	}
	return out
}

// equationBlocks emits a single equation block, or demotes the LaTeX to
// code-block fallback when it alone exceeds the ceiling. Equations are
// never split: a broken half-expression renders as garbage, while a code
// block keeps every character readable.
func equationBlocks(latex string, limit int) []types.Block {
	if latex == "" {
		return nil
	}
	if len(latex) <= limit {
		return []types.Block{{Kind: types.BlockEquation, Content: latex}}
	}
	return codeBlocks(latex, fallbackLanguage, limit, true)
}

// CodeFallback wraps raw text into ceiling-compliant fallback code blocks.
// Delivery uses it when a structured append is rejected: restoring math
// delimiters can push a block's raw text past the ceiling even when its
// serialized span form was within it.
func CodeFallback(text, language string, limit int) []types.Block {
	if limit <= 0 {
		limit = DefaultBlockLimit
	}
	return codeBlocks(text, language, limit, true)
}

// codeBlocks wraps text into code blocks, splitting oversized content at
// line or word boundaries.
func codeBlocks(text, language string, limit int, fallback bool) []types.Block {
	if language == "" {
		language = "plain text"
	}
	var out []types.Block
	for _, chunk := range chunkText(text, limit) {
		out = append(out, types.Block{
			Kind:     types.BlockCode,
			Content:  chunk,
			Language: language,
			Fallback: fallback,
		})
	}
	return out
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compose

import (
	"strings"

	"github.com/pdiddy/scribe/pkg/types"
)

// chunkSpans splits a span run into ordered chunks whose serialized length
// fits the ceiling, without losing or reordering content. Split points are
// chosen in priority order: last paragraph or sentence boundary within the
// ceiling, then last span boundary, then a word boundary inside an
// oversized text span. An equation span wider than the ceiling is emitted
// as its own oversized chunk; the composer demotes it to a code block.
func chunkSpans(spans []types.Span, limit int) [][]types.Span {
	if len(spans) == 0 {
		return nil
	}
	if spanLen(spans) <= limit {
		return [][]types.Span{spans}
	}

	head, tail := splitOnce(spans, limit)
	if len(tail) == 0 {
		return [][]types.Span{head}
	}
	return append([][]types.Span{head}, chunkSpans(tail, limit)...)
}

func spanLen(spans []types.Span) int {
	n := 0
	for _, s := range spans {
		n += s.Len()
	}
	return n
}

// splitOnce cuts one compliant chunk off the front of the run. The head is
// never empty; the tail may be.
func splitOnce(spans []types.Span, limit int) (head, tail []types.Span) {
	if p := lastBoundary(spans, limit); p > 0 {
		return splitAt(spans, p)
	}

	if p := lastSpanBoundary(spans, limit); p > 0 {
		return splitAt(spans, p)
	}

	// The first span alone exceeds the ceiling.
	first, rest := spans[0], spans[1:]
	if first.Kind == types.SpanText {
		cut := strings.LastIndexByte(first.Text[:limit], ' ')
		if cut <= 0 {
			cut = limit
		}
		return splitAt(spans, cut)
	}

	// Oversized equation span: emit standalone for fallback handling.
	return []types.Span{first}, rest
}

// lastBoundary returns the largest serialized offset p in (0, limit] that
// lands on a paragraph boundary (blank line) or sentence boundary (./!/?
// followed by whitespace) inside a plain-text span. Zero means none found.
func lastBoundary(spans []types.Span, limit int) int {
	best := 0
	offset := 0
	for _, s := range spans {
		if s.Kind == types.SpanText {
			for _, p := range boundaries(s.Text) {
				g := offset + p
				if g > 0 && g <= limit {
					best = max(best, g)
				}
			}
		}
		offset += s.Len()
	}
	return best
}

// boundaries lists split offsets within text: the start of each blank line
// run, and the position after sentence-ending punctuation when whitespace
// follows.
func boundaries(text string) []int {
	var out []int
	for i := 0; i+1 < len(text); i++ {
		if text[i] == '\n' && text[i+1] == '\n' {
			out = append(out, i)
		}
		if (text[i] == '.' || text[i] == '!' || text[i] == '?') && isSpace(text[i+1]) {
			out = append(out, i+1)
		}
	}
	return out
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n'
}

// lastSpanBoundary returns the largest cumulative offset at a span edge
// within (0, limit), or zero.
func lastSpanBoundary(spans []types.Span, limit int) int {
	best := 0
	offset := 0
	for i := 0; i < len(spans)-1; i++ {
		offset += spans[i].Len()
		if offset <= limit {
			best = offset
		}
	}
	return best
}

// splitAt divides the run at serialized offset p. When p falls inside a
// plain-text span, that span is divided into two plain-text spans.
// Concatenating head and tail reproduces the input exactly: chunking never
// drops a character.
func splitAt(spans []types.Span, p int) (head, tail []types.Span) {
	offset := 0
	for _, s := range spans {
		end := offset + s.Len()
		switch {
		case p >= end:
			head = append(head, s)
		case p <= offset:
			tail = append(tail, s)
		default:
			// p falls inside this span; only text spans are divisible.
			cut := p - offset
			head = append(head, types.Span{Kind: types.SpanText, Text: s.Text[:cut]})
			tail = append(tail, types.Span{Kind: types.SpanText, Text: s.Text[cut:]})
		}
		offset = end
	}
	return head, tail
}

// chunkText splits raw text (code, fallback LaTeX) into ceiling-compliant
// pieces, cutting after the last line break within the ceiling, then after
// the last space, then hard at the ceiling. Concatenating the pieces
// reproduces the input exactly.
func chunkText(text string, limit int) []string {
	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndexByte(text[:limit], '\n') + 1
		if cut <= 1 {
			cut = strings.LastIndexByte(text[:limit], ' ') + 1
		}
		if cut <= 1 {
			cut = limit
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

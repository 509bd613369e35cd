// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package markdown

import (
	"iter"
	"strings"

	"github.com/pdiddy/scribe/pkg/types"
)

// Tokenize scans text left to right and yields typed spans covering the
// whole input, with no gaps or overlaps. $$...$$ takes precedence over
// $...$ when both could match; dollars nested inside a $$ body belong to
// the equation. An unmatched $ is emitted as literal text and an empty
// equation is dropped, so malformed math never aborts the pipeline.
//
// The sequence is finite and restartable: ranging over it twice yields
// identical spans.
func Tokenize(text string) iter.Seq[types.Span] {
	return func(yield func(types.Span) bool) {
		var plain strings.Builder

		flush := func() bool {
			if plain.Len() == 0 {
				return true
			}
			ok := yield(types.Span{Kind: types.SpanText, Text: plain.String()})
			plain.Reset()
			return ok
		}

		i := 0
		for i < len(text) {
			if strings.HasPrefix(text[i:], "$$") {
				if end := strings.Index(text[i+2:], "$$"); end >= 0 {
					body := strings.TrimSpace(text[i+2 : i+2+end])
					if body != "" {
						if !flush() {
							return
						}
						if !yield(types.Span{Kind: types.SpanBlockMath, Text: body}) {
							return
						}
					}
					i += end + 4
					continue
				}
				// No closing $$: fall through to inline handling, which
				// sees an empty $...$ pair and drops it.
			}

			if text[i] == '$' {
				if end := strings.Index(text[i+1:], "$"); end >= 0 {
					body := text[i+1 : i+1+end]
					if strings.TrimSpace(body) != "" {
						if !flush() {
							return
						}
						if !yield(types.Span{Kind: types.SpanInlineMath, Text: body}) {
							return
						}
					}
					i += end + 2
					continue
				}
				// Unmatched dollar: literal character.
				plain.WriteByte('$')
				i++
				continue
			}

			next := strings.IndexByte(text[i:], '$')
			if next < 0 {
				next = len(text) - i
			}
			plain.WriteString(text[i : i+next])
			i += next
		}

		flush()
	}
}

// Spans collects the token sequence for text into a slice.
func Spans(text string) []types.Span {
	var spans []types.Span
	for s := range Tokenize(text) {
		spans = append(spans, s)
	}
	return spans
}

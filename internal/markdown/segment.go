// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package markdown splits a transcription into structural line groups and
// tokenizes inline content into typed spans.
package markdown

import "strings"

// GroupKind classifies a line group produced by the segmenter.
type GroupKind string

const (
	GroupHeading   GroupKind = "heading"
	GroupParagraph GroupKind = "paragraph"
	GroupBullet    GroupKind = "bullet"
	GroupEquation  GroupKind = "equation"
	GroupCode      GroupKind = "code"
)

// Group is one structural unit of the source document. Inline content
// (math spans) is left raw; the tokenizer handles it.
type Group struct {
	Kind GroupKind

	// Level is the heading level (1-3). Zero otherwise.
	Level int

	// Text is the group's raw content: heading text, bullet text,
	// paragraph body (lines joined with \n), equation LaTeX, or code text.
	Text string

	// Language is the fence tag of a code group, if any.
	Language string
}

// Segment splits a markdown document into classified line groups. A blank
// line always terminates the current group. Classification is by line
// prefix: #/##/### headings, -/*/digit-dot bullets, ``` fences, a line of
// $$ opening a multi-line equation. Everything else accumulates into
// paragraphs.
//
// A $$ block that never closes before end of input is replaced by a
// paragraph holding the literal text. Malformed input never aborts
// segmentation.
func Segment(doc string) []Group {
	lines := strings.Split(doc, "\n")
	var groups []Group

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])

		switch {
		case line == "":
			i++

		case strings.HasPrefix(line, "### "):
			groups = append(groups, Group{Kind: GroupHeading, Level: 3, Text: line[4:]})
			i++
		case strings.HasPrefix(line, "## "):
			groups = append(groups, Group{Kind: GroupHeading, Level: 2, Text: line[3:]})
			i++
		case strings.HasPrefix(line, "# "):
			groups = append(groups, Group{Kind: GroupHeading, Level: 1, Text: line[2:]})
			i++

		case line == "$$":
			g, next, ok := scanEquation(lines, i)
			if !ok {
				// Unclosed block: keep the literal text as a paragraph.
				groups = append(groups, Group{
					Kind: GroupParagraph,
					Text: strings.TrimSpace(strings.Join(lines[i:], "\n")),
				})
				return groups
			}
			groups = append(groups, g)
			i = next

		case strings.HasPrefix(line, "```"):
			g, next := scanFence(lines, i)
			groups = append(groups, g)
			i = next

		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
			groups = append(groups, Group{Kind: GroupBullet, Text: line[2:]})
			i++

		case isNumberedItem(line):
			_, content, _ := strings.Cut(line, ". ")
			groups = append(groups, Group{Kind: GroupBullet, Text: content})
			i++

		default:
			var para []string
			for i < len(lines) {
				l := strings.TrimSpace(lines[i])
				if l == "" || isSpecialLine(l) {
					break
				}
				para = append(para, l)
				i++
			}
			if len(para) > 0 {
				groups = append(groups, Group{Kind: GroupParagraph, Text: strings.Join(para, "\n")})
			}
		}
	}

	return groups
}

// scanEquation consumes a $$ ... $$ block starting at the opening line.
// Returns ok=false when no closing delimiter exists.
func scanEquation(lines []string, start int) (Group, int, bool) {
	var body []string
	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "$$" {
			return Group{
				Kind: GroupEquation,
				Text: strings.TrimSpace(strings.Join(body, "\n")),
			}, i + 1, true
		}
		body = append(body, lines[i])
	}
	return Group{}, 0, false
}

// scanFence consumes a fenced code block starting at the opening ``` line.
// An unclosed fence runs to end of input rather than failing.
func scanFence(lines []string, start int) (Group, int) {
	lang := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[start]), "```"))
	var body []string
	for i := start + 1; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
			return Group{Kind: GroupCode, Text: strings.Join(body, "\n"), Language: lang}, i + 1
		}
		body = append(body, lines[i])
	}
	return Group{Kind: GroupCode, Text: strings.Join(body, "\n"), Language: lang}, len(lines)
}

// isNumberedItem reports whether the line starts with digits followed by ". ".
func isNumberedItem(line string) bool {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	return i > 0 && strings.HasPrefix(line[i:], ". ")
}

// isSpecialLine reports whether the line starts a non-paragraph group.
func isSpecialLine(line string) bool {
	return strings.HasPrefix(line, "# ") ||
		strings.HasPrefix(line, "## ") ||
		strings.HasPrefix(line, "### ") ||
		line == "$$" ||
		strings.HasPrefix(line, "```") ||
		strings.HasPrefix(line, "- ") ||
		strings.HasPrefix(line, "* ") ||
		isNumberedItem(line)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notion

import (
	"fmt"

	"github.com/pdiddy/scribe/pkg/types"
)

// richText is one element of a Notion rich_text array.
type richText struct {
	Type     string       `json:"type"`
	Text     *textBody    `json:"text,omitempty"`
	Equation *equationRef `json:"equation,omitempty"`
}

type textBody struct {
	Content string `json:"content"`
}

type equationRef struct {
	Expression string `json:"expression"`
}

// richBody wraps a rich_text array for paragraph/heading/bullet payloads.
type richBody struct {
	RichText []richText `json:"rich_text"`
}

// codePayload is the body of a code block.
type codePayload struct {
	RichText []richText `json:"rich_text"`
	Language string     `json:"language"`
}

// apiBlock is the wire form of one block. Exactly one payload field is set,
// matching the Type discriminator.
type apiBlock struct {
	Object    string       `json:"object"`
	Type      string       `json:"type"`
	Paragraph *richBody    `json:"paragraph,omitempty"`
	Heading1  *richBody    `json:"heading_1,omitempty"`
	Heading2  *richBody    `json:"heading_2,omitempty"`
	Heading3  *richBody    `json:"heading_3,omitempty"`
	Bulleted  *richBody    `json:"bulleted_list_item,omitempty"`
	Equation  *equationRef `json:"equation,omitempty"`
	Code      *codePayload `json:"code,omitempty"`
}

// renderBlock converts a composed block to its Notion wire form.
func renderBlock(b types.Block) (apiBlock, error) {
	out := apiBlock{Object: "block"}

	switch b.Kind {
	case types.BlockParagraph:
		out.Type = "paragraph"
		out.Paragraph = &richBody{RichText: renderSpans(b.Spans)}

	case types.BlockBullet:
		out.Type = "bulleted_list_item"
		out.Bulleted = &richBody{RichText: renderSpans(b.Spans)}

	case types.BlockHeading:
		body := &richBody{RichText: renderSpans(b.Spans)}
		switch b.Level {
		case 1:
			out.Type, out.Heading1 = "heading_1", body
		case 2:
			out.Type, out.Heading2 = "heading_2", body
		case 3:
			out.Type, out.Heading3 = "heading_3", body
		default:
			return apiBlock{}, fmt.Errorf("unsupported heading level %d", b.Level)
		}

	case types.BlockEquation:
		out.Type = "equation"
		out.Equation = &equationRef{Expression: b.Content}

	case types.BlockCode:
		out.Type = "code"
		out.Code = &codePayload{
			RichText: []richText{{Type: "text", Text: &textBody{Content: b.Content}}},
			Language: b.Language,
		}

	default:
		return apiBlock{}, fmt.Errorf("unsupported block kind %q", b.Kind)
	}

	return out, nil
}

// renderSpans maps spans to rich_text elements: plain runs and native
// inline equations. Block-math spans do not reach this point; the composer
// promotes them to equation blocks.
func renderSpans(spans []types.Span) []richText {
	out := make([]richText, 0, len(spans))
	for _, s := range spans {
		if s.IsMath() {
			out = append(out, richText{Type: "equation", Equation: &equationRef{Expression: s.Text}})
			continue
		}
		out = append(out, richText{Type: "text", Text: &textBody{Content: s.Text}})
	}
	return out
}

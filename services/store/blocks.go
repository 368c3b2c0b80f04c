package store

import (
	"strings"
)

// maxTextLength is the per-element text limit of the page API
const maxTextLength = 2000

// Block is one content block of a report page
type Block struct {
	Object           string     `json:"object"`
	Type             string     `json:"type"`
	Paragraph        *blockText `json:"paragraph,omitempty"`
	Heading1         *blockText `json:"heading_1,omitempty"`
	Heading2         *blockText `json:"heading_2,omitempty"`
	Heading3         *blockText `json:"heading_3,omitempty"`
	BulletedListItem *blockText `json:"bulleted_list_item,omitempty"`
	NumberedListItem *blockText `json:"numbered_list_item,omitempty"`
	Divider          *struct{}  `json:"divider,omitempty"`
}

type blockText struct {
	RichText []richText `json:"rich_text"`
}

// MarkdownBlocks converts a markdown report into page blocks. Only the
// structures the analysis reports actually produce are mapped: headings,
// bullet and numbered lists, dividers and plain paragraphs. Inline
// formatting is left as written.
func MarkdownBlocks(content string) []Block {
	var blocks []Block

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		switch {
		case trimmed == "---":
			blocks = append(blocks, Block{Object: "block", Type: "divider", Divider: &struct{}{}})
		case strings.HasPrefix(trimmed, "### "):
			blocks = append(blocks, textBlock("heading_3", strings.TrimPrefix(trimmed, "### ")))
		case strings.HasPrefix(trimmed, "## "):
			blocks = append(blocks, textBlock("heading_2", strings.TrimPrefix(trimmed, "## ")))
		case strings.HasPrefix(trimmed, "# "):
			blocks = append(blocks, textBlock("heading_1", strings.TrimPrefix(trimmed, "# ")))
		case strings.HasPrefix(trimmed, "- "):
			blocks = append(blocks, textBlock("bulleted_list_item", strings.TrimPrefix(trimmed, "- ")))
		case strings.HasPrefix(trimmed, "* "):
			blocks = append(blocks, textBlock("bulleted_list_item", strings.TrimPrefix(trimmed, "* ")))
		case numberedItem(trimmed) != "":
			blocks = append(blocks, textBlock("numbered_list_item", numberedItem(trimmed)))
		default:
			blocks = append(blocks, textBlock("paragraph", trimmed))
		}
	}

	return blocks
}

// textBlock builds a block of the given type, splitting text that
// exceeds the per-element limit into several rich text elements
func textBlock(blockType, text string) Block {
	content := &blockText{RichText: splitRichText(text)}

	b := Block{Object: "block", Type: blockType}
	switch blockType {
	case "heading_1":
		b.Heading1 = content
	case "heading_2":
		b.Heading2 = content
	case "heading_3":
		b.Heading3 = content
	case "bulleted_list_item":
		b.BulletedListItem = content
	case "numbered_list_item":
		b.NumberedListItem = content
	default:
		b.Type = "paragraph"
		b.Paragraph = content
	}
	return b
}

func splitRichText(text string) []richText {
	runes := []rune(text)

	var parts []richText
	for len(runes) > 0 {
		n := len(runes)
		if n > maxTextLength {
			n = maxTextLength
		}
		parts = append(parts, richText{Text: &textContent{Content: string(runes[:n])}})
		runes = runes[n:]
	}
	return parts
}

// numberedItem returns the text of a "1. item" style line, or an empty
// string when the line is not one
func numberedItem(line string) string {
	dot := strings.Index(line, ". ")
	if dot <= 0 {
		return ""
	}
	for _, c := range line[:dot] {
		if c < '0' || c > '9' {
			return ""
		}
	}
	return strings.TrimSpace(line[dot+2:])
}

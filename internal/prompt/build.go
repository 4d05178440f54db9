package prompt

import (
	"strings"

	"github.com/tallyrus/pergi-api/internal/models"
)

// Build reduces the block sequence plus fill state into one prompt string.
// Header blocks contribute their context verbatim, textboxes their fill
// value (empty if never filled), selectors the comma-joined selected tags in
// the tag order of the block's context, never toggle order. Each contribution
// is followed by a single space; the result is trimmed.
func Build(blocks models.BlockList, fill *FillState) string {
	if fill == nil {
		fill = NewFillState()
	}

	var builder strings.Builder
	for index, block := range blocks {
		switch b := block.(type) {
		case models.HeaderBlock:
			builder.WriteString(b.Context)
			builder.WriteString(" ")
		case models.TextboxBlock:
			builder.WriteString(fill.Text(index))
			builder.WriteString(" ")
		case models.SelectorBlock:
			selected := make([]string, 0, len(b.Context))
			for _, tag := range b.Context {
				if fill.Selected(index, tag) {
					selected = append(selected, tag)
				}
			}
			builder.WriteString(strings.Join(selected, ", "))
			builder.WriteString(" ")
		}
	}

	return strings.TrimSpace(builder.String())
}

package prompt

import "github.com/tallyrus/pergi-api/internal/models"

// Mode selects how blocks are rendered.
type Mode string

const (
	// ModePreview renders every block read-only, for live authoring preview.
	ModePreview Mode = "preview"
	// ModeFill renders interactive controls bound to the fill state.
	ModeFill Mode = "fill"
)

// ControlKind names the UI control a rendered block maps to.
type ControlKind string

const (
	ControlStatic   ControlKind = "static"
	ControlInput    ControlKind = "input"
	ControlToggles  ControlKind = "toggles"
	ControlReadOnly ControlKind = "readonly"
)

// TagState is one selector tag with its current toggle state.
type TagState struct {
	Tag      string `json:"tag"`
	Selected bool   `json:"selected"`
}

// Control is the rendered form of one block.
type Control struct {
	Index       int         `json:"index"`
	Kind        ControlKind `json:"kind"`
	Text        string      `json:"text,omitempty"`
	Placeholder string      `json:"placeholder,omitempty"`
	Value       string      `json:"value,omitempty"`
	Tags        []TagState  `json:"tags,omitempty"`
}

// Render maps the block sequence into controls. It is a pure function of
// (blocks, fill, mode): rendering the same input twice yields identical
// output. Blocks of unknown type are skipped silently.
func Render(blocks models.BlockList, fill *FillState, mode Mode) []Control {
	if fill == nil {
		fill = NewFillState()
	}

	controls := make([]Control, 0, len(blocks))
	for index, block := range blocks {
		switch b := block.(type) {
		case models.HeaderBlock:
			controls = append(controls, Control{
				Index: index,
				Kind:  ControlStatic,
				Text:  b.Context,
			})
		case models.TextboxBlock:
			if mode == ModePreview {
				controls = append(controls, Control{
					Index:       index,
					Kind:        ControlReadOnly,
					Placeholder: b.Context,
				})
				continue
			}
			controls = append(controls, Control{
				Index:       index,
				Kind:        ControlInput,
				Placeholder: b.Context,
				Value:       fill.Text(index),
			})
		case models.SelectorBlock:
			tags := make([]TagState, 0, len(b.Context))
			for _, tag := range b.Context {
				selected := mode == ModeFill && fill.Selected(index, tag)
				tags = append(tags, TagState{Tag: tag, Selected: selected})
			}
			kind := ControlToggles
			if mode == ModePreview {
				kind = ControlReadOnly
			}
			controls = append(controls, Control{
				Index: index,
				Kind:  kind,
				Tags:  tags,
			})
		}
	}

	return controls
}

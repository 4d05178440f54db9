// Package prompt turns a template's ordered block sequence plus its fill
// state into rendered form controls and, ultimately, a single prompt string.
package prompt

import "github.com/tallyrus/pergi-api/internal/models"

// FillState holds the per-block-index values a user has entered while
// filling a template. Values are keyed by position in the block sequence, so
// the state must be rebuilt whenever the sequence itself changes.
type FillState struct {
	texts      map[int]string
	selections map[int]map[string]struct{}
}

// NewFillState returns an empty fill state.
func NewFillState() *FillState {
	return &FillState{
		texts:      make(map[int]string),
		selections: make(map[int]map[string]struct{}),
	}
}

// SetText records the current value of the textbox at the given block index.
func (f *FillState) SetText(index int, value string) {
	f.texts[index] = value
}

// Text returns the textbox value at the index, empty if never filled.
func (f *FillState) Text(index int) string {
	return f.texts[index]
}

// Toggle flips a tag's membership in the selector at the given block index.
// Toggle order does not matter; only the final selected set does.
func (f *FillState) Toggle(index int, tag string) {
	selected, ok := f.selections[index]
	if !ok {
		selected = make(map[string]struct{})
		f.selections[index] = selected
	}
	if _, on := selected[tag]; on {
		delete(selected, tag)
	} else {
		selected[tag] = struct{}{}
	}
}

// Selected reports whether the tag is toggled on for the selector at index.
func (f *FillState) Selected(index int, tag string) bool {
	selected, ok := f.selections[index]
	if !ok {
		return false
	}
	_, on := selected[tag]
	return on
}

// Rebuild clears all values. Callers invoke it whenever the template's block
// sequence changes so index-keyed state never drifts out of sync with the
// sequence length.
func (f *FillState) Rebuild(blocks models.BlockList) {
	f.texts = make(map[int]string, len(blocks))
	f.selections = make(map[int]map[string]struct{}, len(blocks))
}

package prompt

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tallyrus/pergi-api/internal/models"
)

func sampleBlocks() models.BlockList {
	return models.BlockList{
		models.HeaderBlock{Context: "H"},
		models.TextboxBlock{Context: "Enter text"},
		models.SelectorBlock{Context: []string{"a", "b", "c"}},
	}
}

func TestBuildConcatenatesInContextOrder(t *testing.T) {
	blocks := sampleBlocks()

	fill := NewFillState()
	fill.SetText(1, "X")
	// Toggle in reverse order; output must follow the block's tag order.
	fill.Toggle(2, "c")
	fill.Toggle(2, "a")

	require.Equal(t, "H X a, c", Build(blocks, fill))
}

func TestBuildEmptyTextboxContributesNothing(t *testing.T) {
	blocks := sampleBlocks()

	fill := NewFillState()
	fill.Toggle(2, "b")

	require.Equal(t, "H b", Build(blocks, fill))
}

func TestBuildToggleTwiceDeselects(t *testing.T) {
	blocks := sampleBlocks()

	fill := NewFillState()
	fill.Toggle(2, "a")
	fill.Toggle(2, "a")

	require.Equal(t, "H", Build(blocks, fill))
}

func TestBuildSkipsUnknownBlocks(t *testing.T) {
	blocks := models.BlockList{
		models.HeaderBlock{Context: "H"},
		models.UnknownBlock{Kind: "carousel"},
		models.HeaderBlock{Context: "T"},
	}

	require.Equal(t, "H T", Build(blocks, nil))
}

func TestBuildNilFill(t *testing.T) {
	require.Equal(t, "H", Build(sampleBlocks(), nil))
}

func TestRebuildClearsState(t *testing.T) {
	blocks := sampleBlocks()

	fill := NewFillState()
	fill.SetText(1, "X")
	fill.Toggle(2, "a")

	fill.Rebuild(blocks)

	require.Equal(t, "H", Build(blocks, fill))
	require.False(t, fill.Selected(2, "a"))
	require.Empty(t, fill.Text(1))
}

func TestRenderIsPure(t *testing.T) {
	blocks := sampleBlocks()

	fill := NewFillState()
	fill.SetText(1, "hello")
	fill.Toggle(2, "b")

	first := Render(blocks, fill, ModeFill)
	second := Render(blocks, fill, ModeFill)
	require.Equal(t, first, second)

	require.Len(t, first, 3)
	require.Equal(t, ControlStatic, first[0].Kind)
	require.Equal(t, "hello", first[1].Value)
	require.Equal(t, []TagState{{Tag: "a"}, {Tag: "b", Selected: true}, {Tag: "c"}}, first[2].Tags)
}

func TestRenderSkipsUnknownBlocks(t *testing.T) {
	blocks := models.BlockList{
		models.UnknownBlock{Kind: "widget"},
		models.HeaderBlock{Context: "H"},
	}

	controls := Render(blocks, nil, ModePreview)
	require.Len(t, controls, 1)
	require.Equal(t, 1, controls[0].Index)
}

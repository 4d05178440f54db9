package models

import (
	"encoding/json"
	"fmt"
)

// BlockType discriminates the variants a template block can take.
type BlockType string

const (
	// BlockHeader is a static display string, not editable at fill time.
	BlockHeader BlockType = "header"
	// BlockTextbox is a free-text input; its context is the placeholder.
	BlockTextbox BlockType = "textbox"
	// BlockSelector is a toggleable tag set; its context lists the tags in order.
	BlockSelector BlockType = "selector"
)

// Block is one typed unit within a template. The set of variants is closed:
// HeaderBlock, TextboxBlock and SelectorBlock. Blocks of any other type are
// preserved through persistence but render nothing and contribute nothing
// to prompt concatenation.
type Block interface {
	BlockType() BlockType
}

// HeaderBlock displays its context verbatim.
type HeaderBlock struct {
	Context string
}

// BlockType implements Block.
func (HeaderBlock) BlockType() BlockType { return BlockHeader }

// TextboxBlock is filled with free text; Context holds the placeholder.
type TextboxBlock struct {
	Context string
}

// BlockType implements Block.
func (TextboxBlock) BlockType() BlockType { return BlockTextbox }

// SelectorBlock offers its Context tags as toggles. Tag order is significant
// and is the order used when selected tags are concatenated.
type SelectorBlock struct {
	Context []string
}

// BlockType implements Block.
func (SelectorBlock) BlockType() BlockType { return BlockSelector }

// UnknownBlock carries a block of an unrecognised type through storage
// untouched. It is skipped by rendering and concatenation.
type UnknownBlock struct {
	Kind    string
	Context json.RawMessage
}

// BlockType implements Block.
func (u UnknownBlock) BlockType() BlockType { return BlockType(u.Kind) }

// BlockList is an ordered block sequence. Order is significant and survives
// JSON round trips.
type BlockList []Block

type blockEnvelope struct {
	Type    string          `json:"type"`
	Context json.RawMessage `json:"context"`
}

// MarshalJSON encodes each block as a {"type", "context"} pair.
func (l BlockList) MarshalJSON() ([]byte, error) {
	envelopes := make([]blockEnvelope, 0, len(l))
	for _, block := range l {
		envelope, err := encodeBlock(block)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, envelope)
	}
	return json.Marshal(envelopes)
}

// UnmarshalJSON decodes the tagged block sequence, preserving order.
// Unrecognised types decode into UnknownBlock rather than failing.
func (l *BlockList) UnmarshalJSON(data []byte) error {
	var envelopes []blockEnvelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return err
	}

	blocks := make(BlockList, 0, len(envelopes))
	for _, envelope := range envelopes {
		block, err := decodeBlock(envelope)
		if err != nil {
			return err
		}
		blocks = append(blocks, block)
	}

	*l = blocks
	return nil
}

func encodeBlock(block Block) (blockEnvelope, error) {
	switch b := block.(type) {
	case HeaderBlock:
		context, err := json.Marshal(b.Context)
		if err != nil {
			return blockEnvelope{}, err
		}
		return blockEnvelope{Type: string(BlockHeader), Context: context}, nil
	case TextboxBlock:
		context, err := json.Marshal(b.Context)
		if err != nil {
			return blockEnvelope{}, err
		}
		return blockEnvelope{Type: string(BlockTextbox), Context: context}, nil
	case SelectorBlock:
		tags := b.Context
		if tags == nil {
			tags = []string{}
		}
		context, err := json.Marshal(tags)
		if err != nil {
			return blockEnvelope{}, err
		}
		return blockEnvelope{Type: string(BlockSelector), Context: context}, nil
	case UnknownBlock:
		return blockEnvelope{Type: b.Kind, Context: b.Context}, nil
	default:
		return blockEnvelope{}, fmt.Errorf("unsupported block value %T", block)
	}
}

func decodeBlock(envelope blockEnvelope) (Block, error) {
	switch BlockType(envelope.Type) {
	case BlockHeader:
		var context string
		if err := json.Unmarshal(envelope.Context, &context); err != nil {
			return nil, fmt.Errorf("header block context: %w", err)
		}
		return HeaderBlock{Context: context}, nil
	case BlockTextbox:
		var context string
		if err := json.Unmarshal(envelope.Context, &context); err != nil {
			return nil, fmt.Errorf("textbox block context: %w", err)
		}
		return TextboxBlock{Context: context}, nil
	case BlockSelector:
		var context []string
		if err := json.Unmarshal(envelope.Context, &context); err != nil {
			return nil, fmt.Errorf("selector block context: %w", err)
		}
		return SelectorBlock{Context: context}, nil
	default:
		return UnknownBlock{Kind: envelope.Type, Context: envelope.Context}, nil
	}
}

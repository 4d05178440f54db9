package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Template is a reusable, user-authored prompt form made of ordered blocks
// plus its AI conversation history. Owned by the authoring user; other users
// only ever see it through the read-only public gallery.
type Template struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Image       string         `gorm:"size:512" json:"image"`
	Icon        string         `gorm:"size:512" json:"icon"`
	Public      bool           `gorm:"index;not null;default:false" json:"public"`
	UserID      string         `gorm:"size:64;index;not null" json:"user_id"`
	BlocksRaw   datatypes.JSON `gorm:"column:blocks;type:json" json:"-"`
	ConvosRaw   datatypes.JSON `gorm:"column:convos;type:json" json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Blocks      BlockList      `gorm:"-" json:"template"`
	Convos      TurnList       `gorm:"-" json:"convos"`
}

// BeforeSave serialises the block sequence and transcript into their JSON
// columns, keeping order intact.
func (t *Template) BeforeSave(tx *gorm.DB) error {
	blocks := t.Blocks
	if blocks == nil {
		blocks = BlockList{}
	}
	encodedBlocks, err := json.Marshal(blocks)
	if err != nil {
		return err
	}
	t.BlocksRaw = datatypes.JSON(encodedBlocks)

	convos := t.Convos
	if convos == nil {
		convos = TurnList{}
	}
	encodedConvos, err := json.Marshal(convos)
	if err != nil {
		return err
	}
	t.ConvosRaw = datatypes.JSON(encodedConvos)

	return nil
}

// AfterFind hydrates the typed block sequence and transcript after retrieval.
func (t *Template) AfterFind(tx *gorm.DB) error {
	t.Blocks = BlockList{}
	if len(t.BlocksRaw) > 0 {
		if err := json.Unmarshal(t.BlocksRaw, &t.Blocks); err != nil {
			return err
		}
	}

	t.Convos = TurnList{}
	if len(t.ConvosRaw) > 0 {
		if err := json.Unmarshal(t.ConvosRaw, &t.Convos); err != nil {
			return err
		}
	}

	return nil
}

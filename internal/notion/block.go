package notion

import (
	"encoding/json"
)

// BlockType names the kind of a block as reported by the API.
type BlockType string

const (
	BlockTypeParagraph     BlockType = "paragraph"
	BlockTypeHeading1      BlockType = "heading_1"
	BlockTypeHeading2      BlockType = "heading_2"
	BlockTypeHeading3      BlockType = "heading_3"
	BlockTypeBulletedItem  BlockType = "bulleted_list_item"
	BlockTypeNumberedItem  BlockType = "numbered_list_item"
	BlockTypeCode          BlockType = "code"
	BlockTypeTodo          BlockType = "to_do"
	BlockTypeToggle        BlockType = "toggle"
	BlockTypeImage         BlockType = "image"
	BlockTypeChildPage     BlockType = "child_page"
	BlockTypeChildDatabase BlockType = "child_database"
)

// Block is one content unit of a page. The set of implementations is closed to this package.
type Block interface {
	BlockID() string
	Type() BlockType
	isBlock()
}

// Paragraph is a plain text block.
type Paragraph struct {
	ID   string
	Text string
}

// Heading is a heading block of level 1 to 3.
type Heading struct {
	ID    string
	Level int
	Text  string
}

// BulletedItem is an unordered list entry.
type BulletedItem struct {
	ID   string
	Text string
}

// NumberedItem is an ordered list entry.
type NumberedItem struct {
	ID   string
	Text string
}

// Code is a source code block.
type Code struct {
	ID       string
	Language string
	Text     string
}

// Todo is a checkbox entry.
type Todo struct {
	ID      string
	Checked bool
	Text    string
}

// Toggle is a collapsible entry; only its summary line is retained.
type Toggle struct {
	ID   string
	Text string
}

// Image is an uploaded or externally hosted image.
type Image struct {
	ID          string
	Caption     string
	FileURL     string
	ExternalURL string
}

// ChildReference points at a nested page or database. Its ID is the child's ID.
type ChildReference struct {
	ID       string
	Database bool
	Title    string
}

// Unknown is any block type without a dedicated representation, or a block that failed to decode.
type Unknown struct {
	ID   string
	Kind string
}

func (block Paragraph) BlockID() string      { return block.ID }
func (block Heading) BlockID() string        { return block.ID }
func (block BulletedItem) BlockID() string   { return block.ID }
func (block NumberedItem) BlockID() string   { return block.ID }
func (block Code) BlockID() string           { return block.ID }
func (block Todo) BlockID() string           { return block.ID }
func (block Toggle) BlockID() string         { return block.ID }
func (block Image) BlockID() string          { return block.ID }
func (block ChildReference) BlockID() string { return block.ID }
func (block Unknown) BlockID() string        { return block.ID }

func (Paragraph) Type() BlockType    { return BlockTypeParagraph }
func (BulletedItem) Type() BlockType { return BlockTypeBulletedItem }
func (NumberedItem) Type() BlockType { return BlockTypeNumberedItem }
func (Code) Type() BlockType         { return BlockTypeCode }
func (Todo) Type() BlockType         { return BlockTypeTodo }
func (Toggle) Type() BlockType       { return BlockTypeToggle }
func (Image) Type() BlockType        { return BlockTypeImage }
func (block Unknown) Type() BlockType {
	return BlockType(block.Kind)
}

func (block Heading) Type() BlockType {
	switch block.Level {
	case 1:
		return BlockTypeHeading1
	case 2:
		return BlockTypeHeading2
	default:
		return BlockTypeHeading3
	}
}

func (block ChildReference) Type() BlockType {
	if block.Database {
		return BlockTypeChildDatabase
	}
	return BlockTypeChildPage
}

func (Paragraph) isBlock()      {}
func (Heading) isBlock()        {}
func (BulletedItem) isBlock()   {}
func (NumberedItem) isBlock()   {}
func (Code) isBlock()           {}
func (Todo) isBlock()           {}
func (Toggle) isBlock()         {}
func (Image) isBlock()          {}
func (ChildReference) isBlock() {}
func (Unknown) isBlock()        {}

type blockHeader struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type rawBlock struct {
	blockHeader
	Paragraph     *textPayload  `json:"paragraph"`
	Heading1      *textPayload  `json:"heading_1"`
	Heading2      *textPayload  `json:"heading_2"`
	Heading3      *textPayload  `json:"heading_3"`
	BulletedItem  *textPayload  `json:"bulleted_list_item"`
	NumberedItem  *textPayload  `json:"numbered_list_item"`
	Toggle        *textPayload  `json:"toggle"`
	Code          *codePayload  `json:"code"`
	Todo          *todoPayload  `json:"to_do"`
	Image         *imagePayload `json:"image"`
	ChildPage     *childPayload `json:"child_page"`
	ChildDatabase *childPayload `json:"child_database"`
}

type textPayload struct {
	RichText []RichText `json:"rich_text"`
}

type codePayload struct {
	RichText []RichText `json:"rich_text"`
	Language string     `json:"language"`
}

type todoPayload struct {
	RichText []RichText `json:"rich_text"`
	Checked  bool       `json:"checked"`
}

type imagePayload struct {
	Caption  []RichText `json:"caption"`
	File     *fileRef   `json:"file"`
	External *fileRef   `json:"external"`
}

type childPayload struct {
	Title string `json:"title"`
}

// DecodeBlock converts one API block object into its typed representation.
// Malformed input never fails: it yields an Unknown block carrying whatever header could be read.
func DecodeBlock(data []byte) Block {
	var raw rawBlock
	if unmarshalErr := json.Unmarshal(data, &raw); unmarshalErr != nil {
		var header blockHeader
		_ = json.Unmarshal(data, &header)
		return Unknown{ID: header.ID, Kind: header.Type}
	}
	unknown := Unknown{ID: raw.ID, Kind: raw.Type}

	switch BlockType(raw.Type) {
	case BlockTypeParagraph:
		if raw.Paragraph == nil {
			return unknown
		}
		return Paragraph{ID: raw.ID, Text: PlainText(raw.Paragraph.RichText)}
	case BlockTypeHeading1:
		return decodeHeading(raw.ID, 1, raw.Heading1, unknown)
	case BlockTypeHeading2:
		return decodeHeading(raw.ID, 2, raw.Heading2, unknown)
	case BlockTypeHeading3:
		return decodeHeading(raw.ID, 3, raw.Heading3, unknown)
	case BlockTypeBulletedItem:
		if raw.BulletedItem == nil {
			return unknown
		}
		return BulletedItem{ID: raw.ID, Text: PlainText(raw.BulletedItem.RichText)}
	case BlockTypeNumberedItem:
		if raw.NumberedItem == nil {
			return unknown
		}
		return NumberedItem{ID: raw.ID, Text: PlainText(raw.NumberedItem.RichText)}
	case BlockTypeToggle:
		if raw.Toggle == nil {
			return unknown
		}
		return Toggle{ID: raw.ID, Text: PlainText(raw.Toggle.RichText)}
	case BlockTypeCode:
		if raw.Code == nil {
			return unknown
		}
		return Code{ID: raw.ID, Language: raw.Code.Language, Text: PlainText(raw.Code.RichText)}
	case BlockTypeTodo:
		if raw.Todo == nil {
			return unknown
		}
		return Todo{ID: raw.ID, Checked: raw.Todo.Checked, Text: PlainText(raw.Todo.RichText)}
	case BlockTypeImage:
		if raw.Image == nil {
			return unknown
		}
		image := Image{ID: raw.ID, Caption: PlainText(raw.Image.Caption)}
		if raw.Image.File != nil {
			image.FileURL = raw.Image.File.URL
		}
		if raw.Image.External != nil {
			image.ExternalURL = raw.Image.External.URL
		}
		return image
	case BlockTypeChildPage:
		reference := ChildReference{ID: raw.ID}
		if raw.ChildPage != nil {
			reference.Title = raw.ChildPage.Title
		}
		return reference
	case BlockTypeChildDatabase:
		reference := ChildReference{ID: raw.ID, Database: true}
		if raw.ChildDatabase != nil {
			reference.Title = raw.ChildDatabase.Title
		}
		return reference
	default:
		return unknown
	}
}

func decodeHeading(id string, level int, payload *textPayload, fallback Unknown) Block {
	if payload == nil {
		return fallback
	}
	return Heading{ID: id, Level: level, Text: PlainText(payload.RichText)}
}

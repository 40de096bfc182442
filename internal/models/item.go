// Package models defines the domain types for the marginalia engine.
package models

// Direction is the margin side a note renders on.
type Direction int

const (
	// DirectionRight is the legacy %%> form.
	DirectionRight Direction = iota
	// DirectionLeft is the %%< variant.
	DirectionLeft
)

// String returns the wire marker for the direction.
func (d Direction) String() string {
	if d == DirectionLeft {
		return "<"
	}
	return ">"
}

// Tag associates an annotation prefix with a display color.
// Tag order is load-bearing: the first configured prefix that matches
// wins, even when a later prefix is longer.
type Tag struct {
	Prefix string `json:"prefix" yaml:"prefix"`
	Color  string `json:"color" yaml:"color"`
}

// MarginaliaItem is one indexed annotation: a node in the thread graph.
//
// RawText retains the pre-strip annotation content so text mutations can
// locate the exact substring to rewrite without corrupting embedded
// links or images. BlockID is empty until first assigned by a stitch.
type MarginaliaItem struct {
	Text          string   `json:"text"`
	RawText       string   `json:"raw_text"`
	Color         string   `json:"color,omitempty"`
	Document      string   `json:"document"`
	Line          int      `json:"line"`
	BlockID       string   `json:"block_id,omitempty"`
	OutgoingLinks []string `json:"outgoing_links,omitempty"`
	Images        []string `json:"images,omitempty"`
	IsFlashcard   bool     `json:"is_flashcard,omitempty"`
}

// Equal reports graph-equality for deduplication: same raw content in
// the same document.
func (m *MarginaliaItem) Equal(other *MarginaliaItem) bool {
	return m.RawText == other.RawText && m.Document == other.Document
}

// PinboardEntryKind discriminates the pinboard entry union.
type PinboardEntryKind string

const (
	EntryTitle PinboardEntryKind = "title"
	EntryNote  PinboardEntryKind = "note"
)

// PinboardEntry is either a section title or a pinned item.
// Exactly one of the variant fields is populated, selected by Kind.
type PinboardEntry struct {
	Kind PinboardEntryKind `json:"kind"`

	// Title variant.
	Title string `json:"title,omitempty"`
	Level int    `json:"level,omitempty"`

	// Note variant.
	Item   *MarginaliaItem `json:"item,omitempty"`
	Indent int             `json:"indent,omitempty"`
}

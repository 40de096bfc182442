// Package pinboard holds the session-scoped, user-curated collection of
// marginalia items and section titles, with export to markdown, an
// indented outline (clipboard), and a canvas graph file.
package pinboard

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/atotto/clipboard"

	"github.com/latazadehomero/cornell-marginalia/internal/graph"
	"github.com/latazadehomero/cornell-marginalia/internal/models"
)

// Clipboard abstracts the host clipboard write primitive.
type Clipboard interface {
	WriteText(text string) error
}

// SystemClipboard writes to the OS clipboard.
type SystemClipboard struct{}

// WriteText implements Clipboard.
func (SystemClipboard) WriteText(text string) error {
	return clipboard.WriteAll(text)
}

// Board is one session's pinboard. Not persisted across sessions.
type Board struct {
	mu      sync.Mutex
	entries []models.PinboardEntry
}

// NewBoard creates an empty pinboard.
func NewBoard() *Board {
	return &Board{}
}

// PinTitle appends a section title marker.
func (b *Board) PinTitle(text string, level int) {
	if level < 1 {
		level = 1
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, models.PinboardEntry{
		Kind:  models.EntryTitle,
		Title: text,
		Level: level,
	})
}

// PinItem appends an item reference at the given hierarchy depth.
func (b *Board) PinItem(item models.MarginaliaItem, indent int) {
	if indent < 0 {
		indent = 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, models.PinboardEntry{
		Kind:   models.EntryNote,
		Item:   &item,
		Indent: indent,
	})
}

// Entries returns a copy of the current entry list.
func (b *Board) Entries() []models.PinboardEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.PinboardEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Clear empties the board, the explicit post-export reset.
func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = nil
}

// ExportMarkdown renders titles as headings and pinned notes as
// blockquote sections with a source reference.
func (b *Board) ExportMarkdown() string {
	var sb strings.Builder
	for _, e := range b.Entries() {
		switch e.Kind {
		case models.EntryTitle:
			sb.WriteString(strings.Repeat("#", e.Level))
			sb.WriteString(" ")
			sb.WriteString(e.Title)
			sb.WriteString("\n\n")
		case models.EntryNote:
			sb.WriteString("> ")
			sb.WriteString(e.Item.Text)
			sb.WriteString("\n>\n> — [[")
			sb.WriteString(models.DocumentName(e.Item.Document))
			sb.WriteString("]]\n\n")
		}
	}
	return sb.String()
}

// ExportOutline renders an indented bullet list with embedded links.
func (b *Board) ExportOutline() string {
	var sb strings.Builder
	for _, e := range b.Entries() {
		switch e.Kind {
		case models.EntryTitle:
			sb.WriteString(e.Title)
			sb.WriteString("\n")
		case models.EntryNote:
			sb.WriteString(strings.Repeat("\t", e.Indent))
			sb.WriteString("- ")
			sb.WriteString(e.Item.Text)
			if ref := graph.Ref(e.Item); ref != "" {
				sb.WriteString(" [[")
				sb.WriteString(ref)
				sb.WriteString("]]")
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// CopyOutline writes the outline export to the clipboard.
func (b *Board) CopyOutline(clip Clipboard) error {
	if err := clip.WriteText(b.ExportOutline()); err != nil {
		return fmt.Errorf("pinboard: clipboard write: %w", err)
	}
	return nil
}

const (
	canvasNodeWidth  = 360
	canvasNodeHeight = 120
	canvasGapY       = 40
	canvasIndentX    = 200
)

type canvasNode struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Text   string `json:"text"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type canvasEdge struct {
	ID       string `json:"id"`
	FromNode string `json:"fromNode"`
	ToNode   string `json:"toNode"`
	FromSide string `json:"fromSide"`
	ToSide   string `json:"toSide"`
}

type canvasFile struct {
	Nodes []canvasNode `json:"nodes"`
	Edges []canvasEdge `json:"edges"`
}

// ExportCanvas renders the board as a directed-graph canvas file:
// positioned text nodes plus one edge per thread link between two
// pinned items.
func (b *Board) ExportCanvas() ([]byte, error) {
	entries := b.Entries()
	file := canvasFile{Nodes: []canvasNode{}, Edges: []canvasEdge{}}
	nodeByRef := make(map[string]string)

	y := 0
	for _, e := range entries {
		var text string
		x := 0
		switch e.Kind {
		case models.EntryTitle:
			text = strings.Repeat("#", e.Level) + " " + e.Title
		case models.EntryNote:
			text = e.Item.Text
			x = e.Indent * canvasIndentX
		}
		id := hexID()
		file.Nodes = append(file.Nodes, canvasNode{
			ID:     id,
			Type:   "text",
			Text:   text,
			X:      x,
			Y:      y,
			Width:  canvasNodeWidth,
			Height: canvasNodeHeight,
		})
		if e.Kind == models.EntryNote {
			if ref := graph.Ref(e.Item); ref != "" {
				if _, exists := nodeByRef[ref]; !exists {
					nodeByRef[ref] = id
				}
			}
		}
		y += canvasNodeHeight + canvasGapY
	}

	// Edges between pinned items only; links leaving the board are not
	// drawn.
	nodeIdx := 0
	for _, e := range entries {
		id := file.Nodes[nodeIdx].ID
		nodeIdx++
		if e.Kind != models.EntryNote {
			continue
		}
		for _, target := range e.Item.OutgoingLinks {
			doc, blockID, ok := graph.ParseTarget(target)
			if !ok {
				continue
			}
			if to, pinned := nodeByRef[doc+"#^"+blockID]; pinned {
				file.Edges = append(file.Edges, canvasEdge{
					ID:       hexID(),
					FromNode: id,
					ToNode:   to,
					FromSide: "right",
					ToSide:   "left",
				})
			}
		}
	}

	return json.MarshalIndent(file, "", "\t")
}

// hexID generates a 16-character hex identifier for canvas nodes/edges.
func hexID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("pinboard: rand: %v", err))
	}
	return hex.EncodeToString(buf)
}

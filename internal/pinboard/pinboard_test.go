package pinboard

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/latazadehomero/cornell-marginalia/internal/models"
)

type memClipboard struct {
	text string
}

func (m *memClipboard) WriteText(text string) error {
	m.text = text
	return nil
}

func pinned(doc, blockID, text string, links ...string) models.MarginaliaItem {
	return models.MarginaliaItem{
		Text:          text,
		RawText:       " " + text + " ",
		Document:      doc,
		BlockID:       blockID,
		OutgoingLinks: links,
	}
}

func TestBoard_ExportMarkdown(t *testing.T) {
	b := NewBoard()
	b.PinTitle("Chapter One", 2)
	b.PinItem(pinned("notes/a.md", "x1", "a key insight"), 0)

	out := b.ExportMarkdown()
	if !strings.Contains(out, "## Chapter One") {
		t.Errorf("missing title: %q", out)
	}
	if !strings.Contains(out, "> a key insight") {
		t.Errorf("missing blockquote: %q", out)
	}
	if !strings.Contains(out, "[[a]]") {
		t.Errorf("missing source link: %q", out)
	}
}

func TestBoard_ExportOutlineIndent(t *testing.T) {
	b := NewBoard()
	b.PinTitle("Topic", 1)
	b.PinItem(pinned("a.md", "p1", "parent"), 0)
	b.PinItem(pinned("b.md", "c1", "child"), 1)

	out := b.ExportOutline()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %v", lines)
	}
	if lines[1] != "- parent [[a#^p1]]" {
		t.Errorf("lines[1] = %q", lines[1])
	}
	if lines[2] != "\t- child [[b#^c1]]" {
		t.Errorf("lines[2] = %q", lines[2])
	}
}

func TestBoard_CopyOutline(t *testing.T) {
	b := NewBoard()
	b.PinItem(pinned("a.md", "", "loose note"), 0)
	clip := &memClipboard{}
	if err := b.CopyOutline(clip); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(clip.text, "- loose note") {
		t.Errorf("clipboard = %q", clip.text)
	}
	// No block id, no link suffix.
	if strings.Contains(clip.text, "[[") {
		t.Errorf("unexpected link in %q", clip.text)
	}
}

func TestBoard_ExportCanvas(t *testing.T) {
	b := NewBoard()
	b.PinItem(pinned("a.md", "aa", "first", "b#^bb"), 0)
	b.PinItem(pinned("b.md", "bb", "second"), 1)

	data, err := b.ExportCanvas()
	if err != nil {
		t.Fatal(err)
	}
	var file struct {
		Nodes []struct {
			ID     string `json:"id"`
			Type   string `json:"type"`
			Text   string `json:"text"`
			X      int    `json:"x"`
			Y      int    `json:"y"`
			Width  int    `json:"width"`
			Height int    `json:"height"`
		} `json:"nodes"`
		Edges []struct {
			ID       string `json:"id"`
			FromNode string `json:"fromNode"`
			ToNode   string `json:"toNode"`
		} `json:"edges"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		t.Fatal(err)
	}
	if len(file.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(file.Nodes))
	}
	for _, n := range file.Nodes {
		if n.Type != "text" {
			t.Errorf("node type = %q", n.Type)
		}
		if len(n.ID) != 16 {
			t.Errorf("node id %q not 16 hex chars", n.ID)
		}
	}
	if file.Nodes[0].Y == file.Nodes[1].Y {
		t.Error("nodes not vertically positioned")
	}
	if len(file.Edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(file.Edges))
	}
	if file.Edges[0].FromNode != file.Nodes[0].ID || file.Edges[0].ToNode != file.Nodes[1].ID {
		t.Errorf("edge = %+v", file.Edges[0])
	}
}

func TestBoard_CanvasSkipsUnpinnedTargets(t *testing.T) {
	b := NewBoard()
	b.PinItem(pinned("a.md", "aa", "only", "elsewhere#^zz"), 0)
	data, err := b.ExportCanvas()
	if err != nil {
		t.Fatal(err)
	}
	var file struct {
		Edges []any `json:"edges"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		t.Fatal(err)
	}
	if len(file.Edges) != 0 {
		t.Errorf("edges = %v, want none", file.Edges)
	}
}

func TestBoard_Clear(t *testing.T) {
	b := NewBoard()
	b.PinTitle("t", 1)
	b.Clear()
	if len(b.Entries()) != 0 {
		t.Error("entries survive Clear")
	}
}

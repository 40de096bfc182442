package graph

import (
	"testing"

	"github.com/latazadehomero/cornell-marginalia/internal/models"
)

var scanTags = []models.Tag{
	{Prefix: "!", Color: "#ffea00"},
	{Prefix: "?", Color: "#ff9900"},
}

func TestScanDocument_Basic(t *testing.T) {
	doc := models.Document{
		Path: "notes/a.md",
		Text: "intro\nCause %%> ! Effect;;%% ^ab1\nplain line\n%%< left note %%\n",
	}
	items := ScanDocument(doc, scanTags)
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}

	first := items[0]
	if first.Text != "Effect" {
		t.Errorf("text = %q, want %q", first.Text, "Effect")
	}
	if first.RawText != " ! Effect;;" {
		t.Errorf("raw = %q", first.RawText)
	}
	if first.Color != "#ffea00" {
		t.Errorf("color = %q", first.Color)
	}
	if !first.IsFlashcard {
		t.Error("IsFlashcard = false")
	}
	if first.BlockID != "ab1" {
		t.Errorf("block id = %q, want ab1", first.BlockID)
	}
	if first.Line != 2 {
		t.Errorf("line = %d, want 2", first.Line)
	}

	if items[1].Text != "left note" {
		t.Errorf("second text = %q", items[1].Text)
	}
}

func TestScanDocument_SuppressedAndLinks(t *testing.T) {
	doc := models.Document{
		Path: "b.md",
		Text: "x %%> see [[Other#^z9]] also %%\ny %%> [[LinkOnly]] %%\n",
	}
	items := ScanDocument(doc, nil)
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1 (link-only note suppressed)", len(items))
	}
	if len(items[0].OutgoingLinks) != 1 || items[0].OutgoingLinks[0] != "Other#^z9" {
		t.Errorf("links = %v", items[0].OutgoingLinks)
	}
	if items[0].Text != "see also" {
		t.Errorf("text = %q", items[0].Text)
	}
}

func TestScan_IgnoredPrefix(t *testing.T) {
	docs := []models.Document{
		{Path: "Templates/x.md", Text: "a %%> note %%\n"},
		{Path: "real.md", Text: "b %%> kept %%\n"},
	}
	items := Scan(docs, []string{"Templates"}, nil)
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	if items[0].Document != "real.md" {
		t.Errorf("document = %q", items[0].Document)
	}
}

func TestScan_EmptyCorpus(t *testing.T) {
	docs := []models.Document{{Path: "empty.md", Text: "no annotations here\n"}}
	if items := Scan(docs, nil, nil); len(items) != 0 {
		t.Errorf("items = %v, want none", items)
	}
}

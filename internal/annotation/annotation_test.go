package annotation

import (
	"testing"

	"github.com/latazadehomero/cornell-marginalia/internal/models"
)

var testTags = []models.Tag{
	{Prefix: "!", Color: "#ffea00"},
	{Prefix: "?", Color: "#ff9900"},
	{Prefix: "X-", Color: "#ff4d4d"},
}

func TestScan_Basic(t *testing.T) {
	spans := Scan("Cause %%> Effect %% and %%< other %%")
	if len(spans) != 2 {
		t.Fatalf("len(spans) = %d, want 2", len(spans))
	}
	if spans[0].Direction != models.DirectionRight {
		t.Errorf("spans[0].Direction = %v, want right", spans[0].Direction)
	}
	if spans[0].RawContent != " Effect " {
		t.Errorf("spans[0].RawContent = %q", spans[0].RawContent)
	}
	if spans[1].Direction != models.DirectionLeft {
		t.Errorf("spans[1].Direction = %v, want left", spans[1].Direction)
	}
}

func TestScan_Unterminated(t *testing.T) {
	if spans := Scan("text %%> never closed"); spans != nil {
		t.Errorf("expected no spans, got %v", spans)
	}
}

func TestScan_Multiline(t *testing.T) {
	spans := Scan("a %%> first\nsecond %% b")
	if len(spans) != 1 {
		t.Fatalf("len(spans) = %d, want 1", len(spans))
	}
	if spans[0].RawContent != " first\nsecond " {
		t.Errorf("RawContent = %q", spans[0].RawContent)
	}
}

func TestScan_Offsets(t *testing.T) {
	text := "ab %%> x %% cd"
	spans := Scan(text)
	if len(spans) != 1 {
		t.Fatalf("len(spans) = %d, want 1", len(spans))
	}
	if text[spans[0].Start:spans[0].End] != "%%> x %%" {
		t.Errorf("span bounds cover %q", text[spans[0].Start:spans[0].End])
	}
}

func TestParseNote_FirstTagWins(t *testing.T) {
	tags := []models.Tag{
		{Prefix: "!", Color: "red"},
		{Prefix: "!!", Color: "blue"},
	}
	note, ok := ParseNote("!!note", tags)
	if !ok {
		t.Fatal("note suppressed")
	}
	// First configured tag matches, even though "!!" is longer.
	if note.Color != "red" {
		t.Errorf("color = %q, want %q", note.Color, "red")
	}
	if note.DisplayText != "!note" {
		t.Errorf("display = %q, want %q", note.DisplayText, "!note")
	}
}

func TestParseNote_FlashcardAndTag(t *testing.T) {
	note, ok := ParseNote(" ! Effect;;", testTags)
	if !ok {
		t.Fatal("note suppressed")
	}
	if !note.IsFlashcard {
		t.Error("IsFlashcard = false, want true")
	}
	if note.Color != "#ffea00" {
		t.Errorf("color = %q", note.Color)
	}
	if note.DisplayText != "Effect" {
		t.Errorf("display = %q, want %q", note.DisplayText, "Effect")
	}
}

func TestParseNote_ImageAndLink(t *testing.T) {
	note, ok := ParseNote(" img:[[cat.png]] [[Note#^abc]] ", testTags)
	if !ok {
		t.Fatal("note suppressed")
	}
	if note.DisplayText != ImagePlaceholder {
		t.Errorf("display = %q, want placeholder", note.DisplayText)
	}
	if len(note.Images) != 1 || note.Images[0] != "cat.png" {
		t.Errorf("images = %v", note.Images)
	}
	if len(note.Links) != 1 || note.Links[0] != "Note#^abc" {
		t.Errorf("links = %v", note.Links)
	}
}

func TestParseNote_ImageKeywordCaseInsensitive(t *testing.T) {
	note, ok := ParseNote("IMG:[[photo.jpg]] caption", testTags)
	if !ok {
		t.Fatal("note suppressed")
	}
	if len(note.Images) != 1 || note.Images[0] != "photo.jpg" {
		t.Errorf("images = %v", note.Images)
	}
	if note.DisplayText != "caption" {
		t.Errorf("display = %q", note.DisplayText)
	}
}

func TestParseNote_EmbedNotCollected(t *testing.T) {
	note, ok := ParseNote("see ![[diagram.png]] here", testTags)
	if !ok {
		t.Fatal("note suppressed")
	}
	if len(note.Links) != 0 {
		t.Errorf("links = %v, want none", note.Links)
	}
	// Embed token stays for the renderer.
	if note.DisplayText != "see ![[diagram.png]] here" {
		t.Errorf("display = %q", note.DisplayText)
	}
}

func TestParseNote_SuppressedEmpty(t *testing.T) {
	if _, ok := ParseNote("  [[OnlyALink]] ", testTags); ok {
		t.Error("expected suppression for link-only note")
	}
	if _, ok := ParseNote("   ", testTags); ok {
		t.Error("expected suppression for blank note")
	}
}

func TestParseNote_StripIdempotent(t *testing.T) {
	inputs := []string{
		" ! Effect;;",
		"? question [[T]]",
		"plain text",
		"X- img:[[a.png]] rest",
	}
	for _, raw := range inputs {
		first, ok := ParseNote(raw, testTags)
		if !ok {
			t.Fatalf("ParseNote(%q) suppressed", raw)
		}
		spans := Scan(Wrap(first.DisplayText))
		if len(spans) != 1 {
			t.Fatalf("rewrapped %q: %d spans", first.DisplayText, len(spans))
		}
		second, ok := ParseNote(spans[0].RawContent, nil)
		if !ok {
			t.Fatalf("reparse of %q suppressed", first.DisplayText)
		}
		if second.DisplayText != first.DisplayText {
			t.Errorf("reparse(%q) = %q, not idempotent", first.DisplayText, second.DisplayText)
		}
	}
}

func TestReadBlockID(t *testing.T) {
	cases := []struct {
		line string
		want string
	}{
		{"Some text %%> note %% ^abc123", "abc123"},
		{"Some text ^id9  ", "id9"},
		{"No id here", ""},
		{"caret ^ but empty", ""},
	}
	for _, c := range cases {
		if got := ReadBlockID(c.line); got != c.want {
			t.Errorf("ReadBlockID(%q) = %q, want %q", c.line, got, c.want)
		}
	}
}

func TestWrap(t *testing.T) {
	if got := Wrap("idea"); got != "%%> idea %%" {
		t.Errorf("Wrap = %q", got)
	}
	if got := Wrap(""); got != "%%>  %%" {
		t.Errorf("Wrap empty = %q", got)
	}
}

// Package annotation extracts marginalia spans and notes from Markdown text.
//
// The wire syntax is %%<marker>content%% where marker is > (right margin)
// or < (left margin). Content may carry a trailing ;; flashcard flag, a
// leading color-tag prefix, img:[[name]] image references, and [[target]]
// thread links.
package annotation

import (
	"regexp"
	"strings"

	"github.com/latazadehomero/cornell-marginalia/internal/models"
)

var (
	// Non-greedy, dot-matches-newline: content stops at the first %%
	// terminator, so spans may cross lines but never nest.
	spanRe = regexp.MustCompile(`(?s)%%([<>])(.*?)%%`)

	imageRe    = regexp.MustCompile(`(?i)img:\[\[(.*?)\]\]`)
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	blockIDRe  = regexp.MustCompile(`\^([A-Za-z0-9]+)\s*$`)
)

// ImagePlaceholder is shown when a note's text is empty after stripping
// but an image reference was extracted.
const ImagePlaceholder = "(image)"

// FlashcardMarker is the trailing flag that marks a note for spaced
// repetition extraction.
const FlashcardMarker = ";;"

// Span is one raw annotation match. Offsets are byte positions into the
// scanned text.
type Span struct {
	Start      int
	End        int
	Direction  models.Direction
	RawContent string
}

// Note is the parsed, display-ready form of a span's content.
type Note struct {
	DisplayText string
	Color       string
	IsFlashcard bool
	Images      []string
	Links       []string
}

// Scan returns every non-overlapping annotation span in text.
// A span with no terminator simply does not match.
func Scan(text string) []Span {
	locs := spanRe.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	spans := make([]Span, 0, len(locs))
	for _, loc := range locs {
		dir := models.DirectionRight
		if text[loc[2]:loc[3]] == "<" {
			dir = models.DirectionLeft
		}
		spans = append(spans, Span{
			Start:      loc[0],
			End:        loc[1],
			Direction:  dir,
			RawContent: text[loc[4]:loc[5]],
		})
	}
	return spans
}

// ParseNote runs the strip pipeline over raw span content, in order:
// flashcard marker, first-matching tag prefix, image references, thread
// links. The second return is false when the note is suppressed (empty
// after stripping with no image reference).
func ParseNote(raw string, tags []models.Tag) (Note, bool) {
	var note Note
	text := strings.TrimSpace(raw)

	if strings.HasSuffix(text, FlashcardMarker) {
		note.IsFlashcard = true
		text = strings.TrimSpace(strings.TrimSuffix(text, FlashcardMarker))
	}

	// First configured prefix wins, not the longest match. Iteration
	// order here must follow the configured tag order exactly.
	for _, tag := range tags {
		if tag.Prefix != "" && strings.HasPrefix(text, tag.Prefix) {
			note.Color = tag.Color
			text = strings.TrimSpace(strings.TrimPrefix(text, tag.Prefix))
			break
		}
	}

	for _, m := range imageRe.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if name != "" {
			note.Images = append(note.Images, name)
		}
	}
	text = strings.TrimSpace(imageRe.ReplaceAllString(text, ""))

	text = extractLinks(text, &note)

	if text == "" {
		if len(note.Images) == 0 {
			return Note{}, false
		}
		text = ImagePlaceholder
	}
	note.DisplayText = text
	return note, true
}

// extractLinks collects [[target]] references that are not image embeds
// (preceded by !) and removes their tokens from the display text.
// Embeds stay in the text for the markdown renderer.
func extractLinks(text string, note *Note) string {
	locs := wikilinkRe.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		if loc[0] > 0 && text[loc[0]-1] == '!' {
			continue
		}
		target := strings.TrimSpace(text[loc[2]:loc[3]])
		if target != "" {
			note.Links = append(note.Links, target)
		}
		b.WriteString(text[last:loc[0]])
		last = loc[1]
	}
	b.WriteString(text[last:])
	return strings.TrimSpace(b.String())
}

// ReadBlockID returns the trailing ^token stable identifier of a source
// line, or empty string when the line has none.
func ReadBlockID(line string) string {
	m := blockIDRe.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return m[1]
}

// Wrap surrounds selected text with annotation delimiters, the editor
// insert-note affordance.
func Wrap(selection string) string {
	if selection == "" {
		return "%%>  %%"
	}
	return "%%> " + selection + " %%"
}

// Package decor builds the visual overlay set for a document view.
//
// Build is a pure function of the snapshot: no incremental diff state.
// The host re-invokes it on every content, viewport, or selection
// change and swaps the whole overlay set.
package decor

import (
	"sort"
	"strings"

	"github.com/latazadehomero/cornell-marginalia/internal/annotation"
	"github.com/latazadehomero/cornell-marginalia/internal/graph"
	"github.com/latazadehomero/cornell-marginalia/internal/models"
	"github.com/latazadehomero/cornell-marginalia/internal/syntax"
)

// Range is a half-open [From, To) byte range.
type Range struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// OverlayKind orders overlays at equal offsets: line markers first, then
// widgets, then hide marks. The overlay structure's internal invariants
// depend on this ordering; getting it wrong is a correctness bug.
type OverlayKind int

const (
	KindLineMarker OverlayKind = iota
	KindWidget
	KindHide
)

// ImageElement is one resolved (or missing) image reference of a widget.
type ImageElement struct {
	Name  string `json:"name"`
	Path  string `json:"path,omitempty"`
	Found bool   `json:"found"`
}

// Widget is the margin-note replacement rendered over a hidden span.
type Widget struct {
	Markdown   string           `json:"markdown"`
	HTML       string           `json:"html,omitempty"`
	Color      string           `json:"color,omitempty"`
	Direction  models.Direction `json:"direction"`
	Images     []ImageElement   `json:"images,omitempty"`
	NavTargets []string         `json:"nav_targets,omitempty"`
}

// Overlay is one entry of the overlay set.
type Overlay struct {
	From   int         `json:"from"`
	To     int         `json:"to"`
	Kind   OverlayKind `json:"kind"`
	Widget *Widget     `json:"widget,omitempty"`
}

// OverlaySet is the ordered, conflict-free overlay collection for one
// rebuild.
type OverlaySet []Overlay

// Snapshot carries everything Build needs about the current view.
type Snapshot struct {
	Path       string
	Text       string
	Viewport   []Range
	Cursors    []Range
	RecallMode bool
}

// Config is the decoration-relevant slice of settings.
type Config struct {
	Tags            []models.Tag
	IgnoredPrefixes []string
}

// ImageLookup resolves a document-name image reference to a vault path.
type ImageLookup interface {
	Resolve(name string) (string, bool)
}

// Renderer converts a widget's markdown to HTML.
type Renderer interface {
	Render(markdown string) (string, error)
}

// Build produces the overlay set for one snapshot. Documents under an
// ignored folder produce an empty set.
func Build(snap Snapshot, cfg Config, images ImageLookup, render Renderer) OverlaySet {
	if graph.Ignored(snap.Path, cfg.IgnoredPrefixes) {
		return nil
	}

	doc := syntax.NewDocument(snap.Text)
	var set OverlaySet

	for _, vr := range snap.Viewport {
		from, to := clamp(vr, len(snap.Text))
		for _, span := range annotation.Scan(snap.Text[from:to]) {
			start := from + span.Start
			end := from + span.End

			if doc.ClassifyAt(start) != syntax.KindText {
				continue
			}

			lineFrom, lineTo := lineBounds(snap.Text, start)
			if cursorInside(snap.Cursors, lineFrom, lineTo) {
				// Editing affordance only; the span stays indexed.
				continue
			}

			note, ok := annotation.ParseNote(span.RawContent, cfg.Tags)
			if !ok {
				continue
			}

			if note.IsFlashcard && snap.RecallMode {
				set = append(set, Overlay{From: lineFrom, To: lineFrom, Kind: KindLineMarker})
			}
			set = append(set, Overlay{
				From:   start,
				To:     end,
				Kind:   KindWidget,
				Widget: buildWidget(note, span.Direction, images, render),
			})
			set = append(set, Overlay{From: start, To: end, Kind: KindHide})
		}
	}

	sort.SliceStable(set, func(i, j int) bool {
		if set[i].From != set[j].From {
			return set[i].From < set[j].From
		}
		return set[i].Kind < set[j].Kind
	})
	return set
}

// buildWidget assembles a margin widget: rendered text, one image
// element per reference (placeholder on miss), one navigation target
// per extracted link. All failures here are display-only.
func buildWidget(note annotation.Note, dir models.Direction, images ImageLookup, render Renderer) *Widget {
	w := &Widget{
		Markdown:   note.DisplayText,
		Color:      note.Color,
		Direction:  dir,
		NavTargets: note.Links,
	}
	if render != nil {
		if html, err := render.Render(note.DisplayText); err == nil {
			w.HTML = html
		}
	}
	for _, name := range note.Images {
		el := ImageElement{Name: name}
		if images != nil {
			if path, ok := images.Resolve(name); ok {
				el.Path = path
				el.Found = true
			}
		}
		w.Images = append(w.Images, el)
	}
	return w
}

func clamp(r Range, max int) (int, int) {
	from, to := r.From, r.To
	if from < 0 {
		from = 0
	}
	if to > max {
		to = max
	}
	if from > to {
		from = to
	}
	return from, to
}

// lineBounds returns the [from, to) bounds of the line containing offset.
func lineBounds(text string, offset int) (int, int) {
	from := strings.LastIndexByte(text[:offset], '\n') + 1
	to := len(text)
	if i := strings.IndexByte(text[offset:], '\n'); i >= 0 {
		to = offset + i
	}
	return from, to
}

// cursorInside reports whether any cursor range sits within the line.
func cursorInside(cursors []Range, lineFrom, lineTo int) bool {
	for _, c := range cursors {
		if c.From >= lineFrom && c.To <= lineTo {
			return true
		}
	}
	return false
}

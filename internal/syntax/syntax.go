// Package syntax classifies byte offsets of a Markdown document as
// plain text, code, or math. The decoration engine uses it to skip
// annotation spans inside fenced code blocks, inline code, and math
// regions.
package syntax

import (
	"sort"
	"strings"
)

// Kind is the classification of a document offset.
type Kind int

const (
	KindText Kind = iota
	KindCode
	KindMath
)

// Classifier resolves an offset to its region kind.
type Classifier interface {
	ClassifyAt(offset int) Kind
}

type region struct {
	start, end int
	kind       Kind
}

// Document holds the classified regions of one text snapshot.
// Build once per snapshot; ClassifyAt is a binary search.
type Document struct {
	regions []region
}

// NewDocument scans text and records code and math regions.
func NewDocument(text string) *Document {
	d := &Document{}
	d.scanFences(text)
	d.scanInline(text)
	sort.Slice(d.regions, func(i, j int) bool {
		return d.regions[i].start < d.regions[j].start
	})
	return d
}

// scanFences records ``` fenced blocks and $$ display-math blocks.
// An unterminated fence extends to end of text, matching editor
// behaviour while the closing fence is still being typed.
func (d *Document) scanFences(text string) {
	d.scanDelimited(text, "```", KindCode)
	d.scanDelimited(text, "$$", KindMath)
}

func (d *Document) scanDelimited(text, delim string, kind Kind) {
	pos := 0
	for {
		open := strings.Index(text[pos:], delim)
		if open < 0 {
			return
		}
		open += pos
		close := strings.Index(text[open+len(delim):], delim)
		if close < 0 {
			d.regions = append(d.regions, region{start: open, end: len(text), kind: kind})
			return
		}
		end := open + len(delim) + close + len(delim)
		d.regions = append(d.regions, region{start: open, end: end, kind: kind})
		pos = end
	}
}

// scanInline records single-backtick code and single-$ math spans,
// scoped to one line each.
func (d *Document) scanInline(text string) {
	offset := 0
	for _, line := range strings.Split(text, "\n") {
		d.scanInlineLine(line, offset, "`", KindCode)
		d.scanInlineLine(line, offset, "$", KindMath)
		offset += len(line) + 1
	}
}

func (d *Document) scanInlineLine(line string, base int, delim string, kind Kind) {
	pos := 0
	for {
		open := strings.Index(line[pos:], delim)
		if open < 0 {
			return
		}
		open += pos
		if covered := d.lookup(base + open); covered != KindText {
			pos = open + len(delim)
			continue
		}
		close := strings.Index(line[open+len(delim):], delim)
		if close < 0 {
			return
		}
		end := open + len(delim) + close + len(delim)
		d.regions = append(d.regions, region{start: base + open, end: base + end, kind: kind})
		pos = end
	}
}

func (d *Document) lookup(offset int) Kind {
	for _, r := range d.regions {
		if offset >= r.start && offset < r.end {
			return r.kind
		}
	}
	return KindText
}

// ClassifyAt returns the kind of the region containing offset.
func (d *Document) ClassifyAt(offset int) Kind {
	i := sort.Search(len(d.regions), func(i int) bool {
		return d.regions[i].end > offset
	})
	if i < len(d.regions) && offset >= d.regions[i].start {
		return d.regions[i].kind
	}
	return KindText
}

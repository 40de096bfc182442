// Package flashcards extracts spaced-repetition cards from annotated
// documents and maintains the generated section at end of document.
package flashcards

import (
	"regexp"
	"strings"

	"github.com/latazadehomero/cornell-marginalia/internal/annotation"
	"github.com/latazadehomero/cornell-marginalia/internal/models"
)

// Header is the designated section heading for generated cards.
const Header = "### Flashcards"

// One card per line: the answer is the text before the annotation, the
// question is the ;;-flagged note content. Only the simple right-margin
// form qualifies.
var cardRe = regexp.MustCompile(`^(.*?)\s*%%>\s*(.*?);;\s*%%`)

// Result reports the outcome of an Apply.
type Result struct {
	Found int    `json:"found"`
	Added int    `json:"added"`
	Text  string `json:"-"`
}

// Extract returns every "question :: answer" card found in content, in
// first-seen order, case-sensitively deduplicated. The question side is
// the note's display text, so tag prefixes and link tokens are stripped
// the same way the margin renders them.
func Extract(content string, tags []models.Tag) []string {
	seen := make(map[string]struct{})
	var cards []string
	for _, line := range strings.Split(content, "\n") {
		m := cardRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		answer := strings.TrimSpace(m[1])
		note, ok := annotation.ParseNote(m[2], tags)
		if !ok || answer == "" {
			continue
		}
		card := note.DisplayText + " :: " + answer
		if _, dup := seen[card]; dup {
			continue
		}
		seen[card] = struct{}{}
		cards = append(cards, card)
	}
	return cards
}

// Apply appends missing cards under the Header section. When the header
// already exists, each candidate is compared against the verbatim text
// following it and only absent cards are appended at end of document.
// No candidates means no mutation; running Apply twice adds nothing the
// second time.
func Apply(content string, tags []models.Tag) Result {
	cards := Extract(content, tags)
	res := Result{Found: len(cards), Text: content}
	if len(cards) == 0 {
		return res
	}

	lines := strings.Split(content, "\n")
	headerAt := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == Header {
			headerAt = i
			break
		}
	}

	if headerAt >= 0 {
		existing := strings.Join(lines[headerAt+1:], "\n")
		var missing []string
		for _, card := range cards {
			if !strings.Contains(existing, card) {
				missing = append(missing, card)
			}
		}
		if len(missing) == 0 {
			return res
		}
		res.Added = len(missing)
		res.Text = content + "\n" + strings.Join(missing, "\n")
		return res
	}

	res.Added = len(cards)
	res.Text = content + "\n\n" + Header + "\n" + strings.Join(cards, "\n")
	return res
}

package graph

import (
	"testing"

	"github.com/latazadehomero/cornell-marginalia/internal/models"
)

func item(doc string, line int, blockID, text string, links ...string) models.MarginaliaItem {
	return models.MarginaliaItem{
		Text:          text,
		RawText:       " " + text + " ",
		Document:      doc,
		Line:          line,
		BlockID:       blockID,
		OutgoingLinks: links,
	}
}

func TestParseTarget(t *testing.T) {
	doc, id, ok := ParseTarget("Note#^abc")
	if !ok || doc != "Note" || id != "abc" {
		t.Errorf("ParseTarget = %q %q %v", doc, id, ok)
	}
	if _, _, ok := ParseTarget("Note"); ok {
		t.Error("expected not-ok for anchor-less target")
	}
	if _, _, ok := ParseTarget("#^abc"); ok {
		t.Error("expected not-ok for empty doc name")
	}
}

func TestRoots_TrueGraphRoots(t *testing.T) {
	items := []models.MarginaliaItem{
		item("a.md", 1, "r1", "root", "b#^c1"),
		item("b.md", 1, "c1", "child", "b#^c2"),
		item("b.md", 2, "c2", "leaf"),
		item("c.md", 1, "", "unlinked"),
	}
	roots := Roots(items, nil)
	if len(roots) != 1 {
		t.Fatalf("len(roots) = %d, want 1", len(roots))
	}
	if roots[0].Text != "root" {
		t.Errorf("root = %q", roots[0].Text)
	}
}

func TestRoots_FilterPromotes(t *testing.T) {
	items := []models.MarginaliaItem{
		item("a.md", 1, "r1", "alpha root", "b#^c1"),
		item("b.md", 1, "c1", "beta child", "b#^c2"),
		item("b.md", 2, "c2", "beta leaf"),
	}
	// Filter matches both "beta" items; the child links to the leaf, so
	// only the child is promoted to a root.
	roots := Roots(items, TextFilter("beta"))
	if len(roots) != 1 {
		t.Fatalf("len(roots) = %d, want 1", len(roots))
	}
	if roots[0].Text != "beta child" {
		t.Errorf("promoted root = %q", roots[0].Text)
	}
}

func TestForest_ResolvesChildren(t *testing.T) {
	items := []models.MarginaliaItem{
		item("a.md", 1, "r1", "root", "b#^c1", "missing#^zz"),
		item("b.md", 1, "c1", "child"),
	}
	forest := Forest(items, nil)
	if len(forest) != 1 {
		t.Fatalf("len(forest) = %d, want 1", len(forest))
	}
	root := forest[0]
	if len(root.Children) != 2 {
		t.Fatalf("len(children) = %d, want 2", len(root.Children))
	}
	if root.Children[0].Kind != NodeItem || root.Children[0].Item.Text != "child" {
		t.Errorf("first child = %+v", root.Children[0])
	}
	if root.Children[1].Kind != NodeBroken || root.Children[1].Target != "missing#^zz" {
		t.Errorf("second child = %+v", root.Children[1])
	}
}

func TestBuild_CycleTerminates(t *testing.T) {
	items := []models.MarginaliaItem{
		item("a.md", 1, "aa", "A", "b#^bb"),
		item("b.md", 1, "bb", "B", "a#^aa"),
	}
	r := NewResolver(items)

	countLoops := func(n *Node) int {
		var walk func(*Node) int
		walk = func(n *Node) int {
			total := 0
			if n.Kind == NodeLoop {
				total++
			}
			for _, c := range n.Children {
				total += walk(c)
			}
			return total
		}
		return walk(n)
	}

	for i := range items {
		tree := Build(&items[i], r)
		if got := countLoops(tree); got != 1 {
			t.Errorf("tree from %s: %d loop leaves, want exactly 1", items[i].Text, got)
		}
	}
}

func TestBuild_SelfReference(t *testing.T) {
	items := []models.MarginaliaItem{
		item("a.md", 1, "aa", "A", "a#^aa"),
	}
	tree := Build(&items[0], NewResolver(items))
	if len(tree.Children) != 1 || tree.Children[0].Kind != NodeLoop {
		t.Errorf("self reference tree = %+v", tree.Children)
	}
}

func TestNewResolver_FirstItemWinsOnDuplicateRef(t *testing.T) {
	items := []models.MarginaliaItem{
		item("a.md", 1, "dup", "first"),
		item("a.md", 5, "dup", "second"),
	}
	r := NewResolver(items)
	got := r.Resolve("a#^dup")
	if got == nil || got.Text != "first" {
		t.Errorf("Resolve = %+v, want first item", got)
	}
}

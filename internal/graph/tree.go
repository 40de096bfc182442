package graph

import (
	"fmt"
	"strings"

	"github.com/latazadehomero/cornell-marginalia/internal/models"
)

// NodeKind discriminates rendered tree nodes.
type NodeKind string

const (
	// NodeItem is a resolved marginalia item.
	NodeItem NodeKind = "item"
	// NodeBroken is an unresolvable link reference.
	NodeBroken NodeKind = "broken"
	// NodeLoop marks a reference back onto the current traversal path.
	NodeLoop NodeKind = "loop"
)

// Node is one node of a constructed thread tree. Construction is pure
// data; rendering happens elsewhere.
type Node struct {
	Kind     NodeKind               `json:"kind"`
	Item     *models.MarginaliaItem `json:"item,omitempty"`
	Target   string                 `json:"target,omitempty"`
	Children []*Node                `json:"children,omitempty"`
}

// Resolver maps an outgoing-link target string to an item. Isolated as
// an interface so the matching strategy (exact block-id match today)
// can be swapped without touching tree building.
type Resolver interface {
	Resolve(target string) *models.MarginaliaItem
}

// ParseTarget splits a "docName#^blockId" reference. ok is false when
// the reference carries no block anchor.
func ParseTarget(target string) (doc, blockID string, ok bool) {
	i := strings.Index(target, "#^")
	if i < 0 {
		return "", "", false
	}
	doc = strings.TrimSpace(target[:i])
	blockID = strings.TrimSpace(target[i+2:])
	if doc == "" || blockID == "" {
		return "", "", false
	}
	return doc, blockID, true
}

// Ref returns the canonical link reference for an item, empty when the
// item has no stable identifier yet.
func Ref(item *models.MarginaliaItem) string {
	if item.BlockID == "" {
		return ""
	}
	return models.DocumentName(item.Document) + "#^" + item.BlockID
}

type exactResolver struct {
	byRef map[string]*models.MarginaliaItem
}

// NewResolver builds the flat-lookup resolver over one scan pass.
// Later items with a duplicate reference do not shadow earlier ones.
func NewResolver(items []models.MarginaliaItem) Resolver {
	r := &exactResolver{byRef: make(map[string]*models.MarginaliaItem, len(items))}
	for i := range items {
		ref := Ref(&items[i])
		if ref == "" {
			continue
		}
		if _, exists := r.byRef[ref]; !exists {
			r.byRef[ref] = &items[i]
		}
	}
	return r
}

func (r *exactResolver) Resolve(target string) *models.MarginaliaItem {
	doc, blockID, ok := ParseTarget(target)
	if !ok {
		return nil
	}
	return r.byRef[doc+"#^"+blockID]
}

// Filter is a presentation predicate over items; nil means no filter.
type Filter func(*models.MarginaliaItem) bool

// TextFilter matches items whose display text contains q
// (case-insensitive) or whose color equals q exactly.
func TextFilter(q string) Filter {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	lower := strings.ToLower(q)
	return func(item *models.MarginaliaItem) bool {
		return strings.Contains(strings.ToLower(item.Text), lower) || item.Color == q
	}
}

// Roots computes the entry points of the thread forest.
//
// Without a filter: items with at least one outgoing link whose own
// block identifier is not the target of any other item's links.
//
// With a filter, matched items are promoted to roots unless another
// matched item already links to them, so a matched subtree renders once.
func Roots(items []models.MarginaliaItem, filter Filter) []*models.MarginaliaItem {
	if filter == nil {
		targeted := targetSet(items)
		var roots []*models.MarginaliaItem
		for i := range items {
			item := &items[i]
			if len(item.OutgoingLinks) == 0 {
				continue
			}
			if ref := Ref(item); ref != "" && targeted[ref] {
				continue
			}
			roots = append(roots, item)
		}
		return roots
	}

	var matched []*models.MarginaliaItem
	for i := range items {
		if filter(&items[i]) {
			matched = append(matched, &items[i])
		}
	}
	targeted := make(map[string]bool)
	for _, m := range matched {
		for _, t := range m.OutgoingLinks {
			if doc, id, ok := ParseTarget(t); ok {
				targeted[doc+"#^"+id] = true
			}
		}
	}
	var roots []*models.MarginaliaItem
	for _, m := range matched {
		if ref := Ref(m); ref != "" && targeted[ref] {
			continue
		}
		roots = append(roots, m)
	}
	return roots
}

func targetSet(items []models.MarginaliaItem) map[string]bool {
	targeted := make(map[string]bool)
	for i := range items {
		for _, t := range items[i].OutgoingLinks {
			if doc, id, ok := ParseTarget(t); ok {
				targeted[doc+"#^"+id] = true
			}
		}
	}
	return targeted
}

// Forest builds one tree per root. Traversal terminates on cyclic
// graphs: a reference back onto the current path becomes a loop leaf.
func Forest(items []models.MarginaliaItem, filter Filter) []*Node {
	r := NewResolver(items)
	var forest []*Node
	for _, root := range Roots(items, filter) {
		forest = append(forest, Build(root, r))
	}
	return forest
}

// Build constructs the thread tree rooted at item.
func Build(item *models.MarginaliaItem, r Resolver) *Node {
	return build(item, r, map[string]bool{})
}

func build(item *models.MarginaliaItem, r Resolver, path map[string]bool) *Node {
	n := &Node{Kind: NodeItem, Item: item}
	key := itemKey(item)
	path[key] = true
	for _, target := range item.OutgoingLinks {
		child := r.Resolve(target)
		if child == nil {
			n.Children = append(n.Children, &Node{Kind: NodeBroken, Target: target})
			continue
		}
		if path[itemKey(child)] {
			n.Children = append(n.Children, &Node{Kind: NodeLoop, Target: target})
			continue
		}
		n.Children = append(n.Children, build(child, r, path))
	}
	delete(path, key)
	return n
}

// itemKey identifies an item along a traversal path. Items with a block
// identifier use their reference; others cannot be link targets and get
// a positional key.
func itemKey(item *models.MarginaliaItem) string {
	if ref := Ref(item); ref != "" {
		return ref
	}
	return fmt.Sprintf("%s:%d", item.Document, item.Line)
}

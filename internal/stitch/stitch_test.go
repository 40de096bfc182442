package stitch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"github.com/latazadehomero/cornell-marginalia/internal/apperr"
	"github.com/latazadehomero/cornell-marginalia/internal/graph"
	"github.com/latazadehomero/cornell-marginalia/internal/models"
	"github.com/latazadehomero/cornell-marginalia/internal/storage"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seed(t *testing.T, files map[string]string) *storage.FS {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	for path, text := range files {
		if err := store.Write(path, []byte(text)); err != nil {
			t.Fatal(err)
		}
	}
	return store
}

func scanAll(t *testing.T, store storage.Provider) []models.MarginaliaItem {
	t.Helper()
	metas, err := store.List("")
	if err != nil {
		t.Fatal(err)
	}
	var docs []models.Document
	for _, m := range metas {
		data, err := store.Read(m.Path)
		if err != nil {
			t.Fatal(err)
		}
		docs = append(docs, models.Document{Path: m.Path, Text: string(data)})
	}
	return graph.Scan(docs, nil, nil)
}

func find(t *testing.T, items []models.MarginaliaItem, text string) models.MarginaliaItem {
	t.Helper()
	for _, it := range items {
		if it.Text == text {
			return it
		}
	}
	t.Fatalf("no item with text %q in %+v", text, items)
	return models.MarginaliaItem{}
}

func TestStitch_SingleEdgeAssignsIDAndLink(t *testing.T) {
	store := seed(t, map[string]string{
		"src.md": "fact %%> source note %%\n",
		"tgt.md": "other %%> target note %%\n",
	})
	items := scanAll(t, store)
	src := find(t, items, "source note")
	tgt := find(t, items, "target note")

	s := New(store, discard())
	res, err := s.Stitch(context.Background(), []models.MarginaliaItem{src}, []models.MarginaliaItem{tgt}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Edges != 1 || res.AssignedIDs != 1 || res.LinkedSources != 1 {
		t.Errorf("result = %+v", res)
	}

	tgtText, _ := store.Read("tgt.md")
	idRe := regexp.MustCompile(`\^([a-z0-9]{6})\s*$`)
	m := idRe.FindStringSubmatch(strings.Split(string(tgtText), "\n")[0])
	if m == nil {
		t.Fatalf("target line carries no block id: %q", tgtText)
	}

	srcText, _ := store.Read("src.md")
	wantLink := "[[tgt#^" + m[1] + "]]"
	if !strings.Contains(string(srcText), wantLink) {
		t.Errorf("source = %q, want link %q", srcText, wantLink)
	}
	// Link lands inside the annotation span so the next scan indexes it.
	if !strings.Contains(string(srcText), wantLink+"%%") {
		t.Errorf("link not inside span: %q", srcText)
	}

	// Rescan resolves the new edge.
	after := scanAll(t, store)
	srcAfter := find(t, after, "source note")
	if len(srcAfter.OutgoingLinks) != 1 {
		t.Fatalf("outgoing links after rescan = %v", srcAfter.OutgoingLinks)
	}
	r := graph.NewResolver(after)
	if got := r.Resolve(srcAfter.OutgoingLinks[0]); got == nil || got.Text != "target note" {
		t.Errorf("resolved = %+v", got)
	}
}

func TestStitch_BatchDistribution(t *testing.T) {
	store := seed(t, map[string]string{
		"s.md": "one %%> a %%\ntwo %%> b %%\n",
		"t.md": "three %%> x %%\nfour %%> y %%\n",
	})
	items := scanAll(t, store)
	sources := []models.MarginaliaItem{find(t, items, "a"), find(t, items, "b")}
	targets := []models.MarginaliaItem{find(t, items, "x"), find(t, items, "y")}

	s := New(store, discard())
	res, err := s.Stitch(context.Background(), sources, targets, func(edges int) bool {
		if edges != 4 {
			t.Errorf("confirm edges = %d, want 4", edges)
		}
		return true
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Edges != 4 || res.LinkedSources != 2 {
		t.Errorf("result = %+v", res)
	}

	srcText, _ := store.Read("s.md")
	for _, line := range strings.Split(strings.TrimSpace(string(srcText)), "\n") {
		if got := strings.Count(line, "[["); got != 2 {
			t.Errorf("line %q has %d links, want 2", line, got)
		}
	}
}

func TestStitch_SelfPairProducesNothing(t *testing.T) {
	store := seed(t, map[string]string{
		"a.md": "x %%> self %%\n",
	})
	items := scanAll(t, store)
	self := find(t, items, "self")

	before, _ := store.Read("a.md")
	s := New(store, discard())
	res, err := s.Stitch(context.Background(), []models.MarginaliaItem{self}, []models.MarginaliaItem{self}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Edges != 0 || res.LinkedSources != 0 || res.AssignedIDs != 0 {
		t.Errorf("result = %+v, want zeroes", res)
	}
	after, _ := store.Read("a.md")
	if string(before) != string(after) {
		t.Error("self-stitch mutated the document")
	}
}

func TestStitch_DeclinedAbortsWithZeroMutations(t *testing.T) {
	store := seed(t, map[string]string{
		"s.md": "one %%> a %%\n",
		"t.md": "x %%> p %%\ny %%> q %%\n",
	})
	items := scanAll(t, store)
	sources := []models.MarginaliaItem{find(t, items, "a")}
	targets := []models.MarginaliaItem{find(t, items, "p"), find(t, items, "q")}

	beforeS, _ := store.Read("s.md")
	beforeT, _ := store.Read("t.md")

	s := New(store, discard())
	_, err := s.Stitch(context.Background(), sources, targets, func(int) bool { return false })
	if !errors.Is(err, apperr.ErrDeclined) {
		t.Fatalf("err = %v, want ErrDeclined", err)
	}

	afterS, _ := store.Read("s.md")
	afterT, _ := store.Read("t.md")
	if string(beforeS) != string(afterS) || string(beforeT) != string(afterT) {
		t.Error("declined stitch still mutated documents")
	}
}

func TestStitch_ConcurrentEditSkipsSource(t *testing.T) {
	store := seed(t, map[string]string{
		"s.md": "one %%> a %%\n",
		"t.md": "x %%> p %%\n",
	})
	items := scanAll(t, store)
	src := find(t, items, "a")
	tgt := find(t, items, "p")

	// Concurrent edit removes the source annotation before the stitch.
	if err := store.Write("s.md", []byte("rewritten elsewhere\n")); err != nil {
		t.Fatal(err)
	}

	s := New(store, discard())
	res, err := s.Stitch(context.Background(), []models.MarginaliaItem{src}, []models.MarginaliaItem{tgt}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.LinkedSources != 0 {
		t.Errorf("LinkedSources = %d, want 0", res.LinkedSources)
	}
	if len(res.SkippedSources) != 1 || res.SkippedSources[0] != "s.md" {
		t.Errorf("SkippedSources = %v", res.SkippedSources)
	}
	// Target keeps its freshly assigned id (best-effort, no rollback).
	if res.AssignedIDs != 1 {
		t.Errorf("AssignedIDs = %d, want 1", res.AssignedIDs)
	}
}

func TestStitch_ExistingTargetIDReused(t *testing.T) {
	store := seed(t, map[string]string{
		"s.md": "one %%> a %%\n",
		"t.md": "x %%> p %% ^keep42\n",
	})
	items := scanAll(t, store)
	src := find(t, items, "a")
	tgt := find(t, items, "p")
	if tgt.BlockID != "keep42" {
		t.Fatalf("scan block id = %q", tgt.BlockID)
	}

	s := New(store, discard())
	res, err := s.Stitch(context.Background(), []models.MarginaliaItem{src}, []models.MarginaliaItem{tgt}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.AssignedIDs != 0 {
		t.Errorf("AssignedIDs = %d, want 0", res.AssignedIDs)
	}
	srcText, _ := store.Read("s.md")
	if !strings.Contains(string(srcText), "[[t#^keep42]]") {
		t.Errorf("source = %q", srcText)
	}
}

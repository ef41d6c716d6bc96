package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/okvist/stele/internal/apperr"
	"github.com/okvist/stele/internal/storage"
)

func doc(path, frontmatter, body string) Document {
	return Document{Path: path, Data: []byte("---\n" + frontmatter + "---\n" + body)}
}

func mustBuild(t *testing.T, docs ...Document) *Snapshot {
	t.Helper()
	snap, err := Build(docs)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return snap
}

func publishedSlugs(snap *Snapshot) []string {
	var out []string
	for p := range snap.ListPublished() {
		out = append(out, p.Slug)
	}
	return out
}

func TestBuild_GetBySlugRoundTrip(t *testing.T) {
	snap := mustBuild(t,
		doc("a.md", "title: A\ndate: 2020-01-01\n", "body a"),
		doc("nested/b.md", "title: B\ndate: 2020-02-01\ncategories:\n  - testing\n", "body b"),
	)

	a, err := snap.GetBySlug("a")
	if err != nil {
		t.Fatalf("GetBySlug(a): %v", err)
	}
	if a.Title != "A" || a.Body != "body a" || !a.Published {
		t.Errorf("record a = %+v", a)
	}

	b, err := snap.GetBySlug("nested/b")
	if err != nil {
		t.Fatalf("GetBySlug(nested/b): %v", err)
	}
	if b.SourcePath != "nested/b.md" || len(b.Categories) != 1 {
		t.Errorf("record b = %+v", b)
	}

	if _, err := snap.GetBySlug("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing slug err = %v, want ErrNotFound", err)
	}
}

func TestBuild_DuplicateSlug(t *testing.T) {
	_, err := Build([]Document{
		doc("a.md", "title: First\ndate: 2020-01-01\n", ""),
		doc("a.md", "title: Second\ndate: 2020-01-02\n", ""),
	})
	if !errors.Is(err, ErrDuplicateSlug) {
		t.Fatalf("err = %v, want ErrDuplicateSlug", err)
	}
	var le *LoadError
	if !errors.As(err, &le) || le.Path != "a.md" {
		t.Errorf("LoadError = %+v", le)
	}
}

func TestBuild_DuplicateAlias(t *testing.T) {
	_, err := Build([]Document{
		doc("a.md", "title: A\ndate: 2020-01-01\nredirect_from:\n  - /legacy\n", ""),
		doc("b.md", "title: B\ndate: 2020-01-02\nredirect_from:\n  - /legacy\n", ""),
	})
	if !errors.Is(err, ErrDuplicateAlias) {
		t.Fatalf("err = %v, want ErrDuplicateAlias", err)
	}
}

func TestBuild_AliasShadowsSlug(t *testing.T) {
	_, err := Build([]Document{
		doc("a.md", "title: A\ndate: 2020-01-01\n", ""),
		doc("b.md", "title: B\ndate: 2020-01-02\nredirect_from:\n  - /a\n", ""),
	})
	if !errors.Is(err, ErrDuplicateAlias) {
		t.Fatalf("err = %v, want ErrDuplicateAlias", err)
	}
}

func TestBuild_MalformedMetadata(t *testing.T) {
	_, err := Build([]Document{
		{Path: "bad.md", Data: []byte("no front-matter at all")},
	})
	if !errors.Is(err, ErrMalformedMetadata) {
		t.Fatalf("err = %v, want ErrMalformedMetadata", err)
	}

	_, err = Build([]Document{
		doc("nodate.md", "title: T\n", ""),
	})
	if !errors.Is(err, ErrMalformedMetadata) {
		t.Fatalf("missing date err = %v, want ErrMalformedMetadata", err)
	}
}

func TestListPublished_FiltersAndOrders(t *testing.T) {
	snap := mustBuild(t,
		doc("old.md", "title: Old\ndate: 2019-06-01\n", ""),
		doc("draft.md", "title: Draft\ndate: 2021-01-01\npublished: false\n", ""),
		doc("new.md", "title: New\ndate: 2021-03-01\n", ""),
		doc("same-a.md", "title: SA\ndate: 2020-05-05\n", ""),
		doc("same-b.md", "title: SB\ndate: 2020-05-05\n", ""),
	)

	got := publishedSlugs(snap)
	want := []string{"new", "same-a", "same-b", "old"}
	if len(got) != len(want) {
		t.Fatalf("published = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("published = %v, want %v", got, want)
		}
	}
}

func TestListPublished_Restartable(t *testing.T) {
	snap := mustBuild(t,
		doc("a.md", "title: A\ndate: 2020-01-01\n", ""),
		doc("b.md", "title: B\ndate: 2020-02-01\n", ""),
	)

	first := publishedSlugs(snap)
	second := publishedSlugs(snap)
	if fmt.Sprint(first) != fmt.Sprint(second) {
		t.Errorf("two ranges differ: %v vs %v", first, second)
	}

	// Early break must not affect a later range.
	for range snap.ListPublished() {
		break
	}
	third := publishedSlugs(snap)
	if fmt.Sprint(first) != fmt.Sprint(third) {
		t.Errorf("range after early break differs: %v vs %v", first, third)
	}
}

func TestBuild_Idempotent(t *testing.T) {
	docs := []Document{
		doc("a.md", "title: A\ndate: 2020-01-01\n", "body"),
		doc("b.md", "title: B\ndate: 2020-02-01\npublished: false\nredirect_from:\n  - /old-b\n", ""),
	}
	s1, err := Build(docs)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := Build(docs)
	if err != nil {
		t.Fatal(err)
	}

	if fmt.Sprint(publishedSlugs(s1)) != fmt.Sprint(publishedSlugs(s2)) {
		t.Error("published listings differ between identical builds")
	}
	for p := range s1.All() {
		q, err := s2.GetBySlug(p.Slug)
		if err != nil {
			t.Fatalf("second snapshot missing %q", p.Slug)
		}
		if q.Checksum != p.Checksum || q.Title != p.Title {
			t.Errorf("record %q differs between builds", p.Slug)
		}
	}
}

func TestAliasClaimants(t *testing.T) {
	snap := mustBuild(t,
		doc("b.md", "title: B\ndate: 2020-02-01\npublished: false\nredirect_from:\n  - /old-b\n", ""),
	)

	claimants := snap.AliasClaimants("/old-b")
	if len(claimants) != 1 || claimants[0].Slug != "b" {
		t.Fatalf("claimants = %v", claimants)
	}
	// Normalised forms hit the same entry.
	if len(snap.AliasClaimants("old-b")) != 1 || len(snap.AliasClaimants("old-b/")) != 1 {
		t.Error("alias lookup should normalise slashes")
	}
	if len(snap.AliasClaimants("unknown")) != 0 {
		t.Error("unknown alias should have no claimants")
	}
}

func TestSlugFromPath(t *testing.T) {
	cases := map[string]string{
		"a.md":              "a",
		"nested/post.md":    "nested/post",
		"nested\\win.md":    "nested/win",
		"/leading/slash.md": "leading/slash",
	}
	for in, want := range cases {
		if got := SlugFromPath(in); got != want {
			t.Errorf("SlugFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoad_FromProvider(t *testing.T) {
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := fs.Write("posts/a.md", []byte("---\ntitle: A\ndate: 2020-01-01\n---\nbody")); err != nil {
		t.Fatal(err)
	}
	if err := fs.Write("posts/b.md", []byte("---\ntitle: B\ndate: 2020-02-01\n---\n")); err != nil {
		t.Fatal(err)
	}

	snap, err := Load(fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.Len() != 2 {
		t.Fatalf("Len = %d, want 2", snap.Len())
	}
	if _, err := snap.GetBySlug("posts/a"); err != nil {
		t.Errorf("GetBySlug(posts/a): %v", err)
	}
}

func TestHolder_AtomicSwap(t *testing.T) {
	s1 := mustBuild(t, doc("a.md", "title: A\ndate: 2020-01-01\n", ""))
	s2 := mustBuild(t, doc("b.md", "title: B\ndate: 2020-02-01\n", ""))

	h := NewHolder(s1)
	captured := h.Current()

	h.Replace(s2)

	if h.Current() != s2 {
		t.Error("Current should return the new snapshot after Replace")
	}
	// An in-flight reader keeps the snapshot it captured.
	if _, err := captured.GetBySlug("a"); err != nil {
		t.Error("captured snapshot should still serve the old records")
	}
}

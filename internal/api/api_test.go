package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okvist/stele/internal/postservice"
	"github.com/okvist/stele/internal/storage"
	"github.com/okvist/stele/internal/store"
	"github.com/okvist/stele/internal/testutil"
)

// testEnv sets up a temp content dir, SQLite DB, service, and router.
// authToken == "" means auth disabled.
func testEnv(t *testing.T, authToken string) (*postservice.Service, storage.Provider, http.Handler) {
	t.Helper()

	_, files := testutil.TestContentDir(t)
	db := testutil.TestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	snap, err := store.Load(files)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	svc := postservice.NewService(files, store.NewHolder(snap), db, nil, logger)

	router := NewRouter(svc, authToken != "", authToken, nil)
	return svc, files, router
}

// seedAndReload writes a source file and reloads the snapshot.
func seedAndReload(t *testing.T, svc *postservice.Service, files storage.Provider, path, content string) {
	t.Helper()
	if err := files.Write(path, []byte(content)); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if _, err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
}

func get(t *testing.T, router http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListPosts_PublishedOnly(t *testing.T) {
	svc, files, router := testEnv(t, "")
	seedAndReload(t, svc, files, "a.md", "---\ntitle: A\ndate: 2020-01-01\n---\nbody a")
	seedAndReload(t, svc, files, "b.md", "---\ntitle: B\ndate: 2020-02-01\npublished: false\n---\nbody b")

	w := get(t, router, "/posts")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp PostListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 || len(resp.Posts) != 1 || resp.Posts[0].Slug != "a" {
		t.Errorf("resp = %+v, want only a", resp)
	}

	w = get(t, router, "/posts?preview=1")
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 {
		t.Errorf("preview total = %d, want 2", resp.Total)
	}
}

func TestGetPost_PreviewGating(t *testing.T) {
	svc, files, router := testEnv(t, "")
	seedAndReload(t, svc, files, "draft.md", "---\ntitle: Draft\ndate: 2021-01-01\npublished: false\n---\nwip")

	if w := get(t, router, "/posts/draft"); w.Code != http.StatusNotFound {
		t.Errorf("outside preview status = %d, want 404", w.Code)
	}

	w := get(t, router, "/posts/draft?preview=1")
	if w.Code != http.StatusOK {
		t.Fatalf("preview status = %d", w.Code)
	}
	var post PostDetail
	_ = json.Unmarshal(w.Body.Bytes(), &post)
	if post.Slug != "draft" || post.Title != "Draft" || post.Body != "wip" {
		t.Errorf("post = %+v", post)
	}
}

func TestGetPost_NestedSlug(t *testing.T) {
	svc, files, router := testEnv(t, "")
	seedAndReload(t, svc, files, "topics/redux.md", "---\ntitle: Redux\ndate: 2020-01-01\n---\n")

	if w := get(t, router, "/posts/topics/redux"); w.Code != http.StatusOK {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
	// Encoded slash form used by generated clients.
	if w := get(t, router, "/posts/topics%2Fredux"); w.Code != http.StatusOK {
		t.Errorf("encoded status = %d", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	svc, files, router := testEnv(t, "")
	seedAndReload(t, svc, files, "s.md", "---\ntitle: S\ndate: 2020-01-01\n---\nxylophone lessons")

	w := get(t, router, "/search?q=xylophone")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 || resp.Results[0].Slug != "s" {
		t.Errorf("results = %+v", resp.Results)
	}

	if w := get(t, router, "/search"); w.Code != http.StatusBadRequest {
		t.Errorf("missing q status = %d, want 400", w.Code)
	}
}

func TestResolveEndpoint(t *testing.T) {
	svc, files, router := testEnv(t, "")
	seedAndReload(t, svc, files, "b.md", "---\ntitle: B\ndate: 2020-02-01\npublished: false\nredirect_from:\n  - /old-b\n---\n")

	w := get(t, router, "/resolve?path=/old-b")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ResolveResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Kind != "redirect" || resp.Target != "b" || !resp.Permanent {
		t.Errorf("resp = %+v", resp)
	}

	w = get(t, router, "/resolve?path=b")
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Kind != "not_found" {
		t.Errorf("unpublished target kind = %q, want not_found", resp.Kind)
	}

	w = get(t, router, "/resolve?path=b&preview=1")
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Kind != "content" || resp.Slug != "b" {
		t.Errorf("preview resp = %+v", resp)
	}
}

func TestReloadEndpoint(t *testing.T) {
	_, files, router := testEnv(t, "")

	if err := files.Write("late.md", []byte("---\ntitle: Late\ndate: 2020-03-01\n---\n")); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/reload", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("reload status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp ReloadResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Posts != 1 {
		t.Errorf("posts = %d, want 1", resp.Posts)
	}

	if w := get(t, router, "/posts/late"); w.Code != http.StatusOK {
		t.Errorf("post not visible after reload: %d", w.Code)
	}
}

func TestReloadEndpoint_MalformedSource(t *testing.T) {
	_, files, router := testEnv(t, "")

	if err := files.Write("bad.md", []byte("no front-matter")); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/reload", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	svc, files, router := testEnv(t, "secret")
	seedAndReload(t, svc, files, "a.md", "---\ntitle: A\ndate: 2020-01-01\n---\n")

	if w := get(t, router, "/posts"); w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token status = %d, want 200", w.Code)
	}
}

func TestContentHandler(t *testing.T) {
	svc, files, _ := testEnv(t, "")
	seedAndReload(t, svc, files, "a.md", "---\ntitle: A\ndate: 2020-01-01\n---\nbody a")
	seedAndReload(t, svc, files, "b.md", "---\ntitle: B\ndate: 2020-02-01\npublished: false\nredirect_from:\n  - /old-b\n---\n")

	serve := NewContentHandler(svc)

	w := httptest.NewRecorder()
	serve(w, httptest.NewRequest(http.MethodGet, "/a", nil))
	if w.Code != http.StatusOK {
		t.Errorf("published slug status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	serve(w, httptest.NewRequest(http.MethodGet, "/old-b", nil))
	if w.Code != http.StatusMovedPermanently {
		t.Fatalf("alias status = %d, want 301", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/b" {
		t.Errorf("Location = %q, want /b", loc)
	}

	// The redirect target is unpublished: public delivery yields 404.
	w = httptest.NewRecorder()
	serve(w, httptest.NewRequest(http.MethodGet, "/b", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("unpublished slug status = %d, want 404", w.Code)
	}

	w = httptest.NewRecorder()
	serve(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want 404", w.Code)
	}
}

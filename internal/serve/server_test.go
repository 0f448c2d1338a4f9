package serve

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crosspost/internal/domain/config"
	"crosspost/internal/format"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	dir := t.TempDir()
	src := filepath.Join(dir, "source")
	require.NoError(t, os.MkdirAll(src, 0o755))
	post := "---\ntitle: Hello Post\nslug: hello\ntags: [go, blog]\n---\n\n## Intro\n\nhello **world**, see #golang\n"
	require.NoError(t, os.WriteFile(filepath.Join(src, "hello.md"), []byte(post), 0o644))

	cfg := config.Default()
	cfg.Serve.SourceDir = src
	cfg.Serve.CachePath = filepath.Join(dir, "cache.db")

	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.rebuild())
	return s
}

func TestHandleIndex(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handleIndex(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Posts []struct {
			Slug  string `json:"slug"`
			Title string `json:"title"`
		} `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Posts, 1)
	assert.Equal(t, "hello", body.Posts[0].Slug)
	assert.Equal(t, "Hello Post", body.Posts[0].Title)
}

func TestHandleBlogView(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handlePost(rec, httptest.NewRequest(http.MethodGet, "/post/hello", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	html := rec.Body.String()
	assert.Contains(t, html, "<h1>Hello Post</h1>")
	assert.Contains(t, html, "<strong>world</strong>")
}

func TestHandlePlatformPayload(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handlePost(rec, httptest.NewRequest(http.MethodGet, "/post/hello/jike", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var out format.Output
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, format.PlatformJike, out.Platform)
	assert.Equal(t, format.JikeLimit, out.Budget)
	assert.Contains(t, out.Text, "hello")
	assert.Contains(t, out.Topics, "golang")
}

func TestHandleThreadQueryParams(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handlePost(rec, httptest.NewRequest(http.MethodGet, "/post/hello/x?thread=false", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var out format.Output
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Thread, 1)
	assert.Equal(t, 1, out.Thread[0].Total)
}

func TestHandleUnknownPlatform(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handlePost(rec, httptest.NewRequest(http.MethodGet, "/post/hello/weibo", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleUnknownSlug(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handlePost(rec, httptest.NewRequest(http.MethodGet, "/post/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleCardImage(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handlePost(rec, httptest.NewRequest(http.MethodGet, "/post/hello/card.png?scale=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestHandleCardImageBadScale(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handlePost(rec, httptest.NewRequest(http.MethodGet, "/post/hello/card.png?scale=99", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleOutline(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handleOutline(rec, httptest.NewRequest(http.MethodGet, "/outline/hello", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Headings []struct {
			Level int    `json:"Level"`
			ID    string `json:"ID"`
		} `json:"headings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Headings, 1)
	assert.Equal(t, 2, out.Headings[0].Level)
	assert.Equal(t, "intro", out.Headings[0].ID)
}

func TestHandleUnknownPreset(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handlePost(rec, httptest.NewRequest(http.MethodGet, "/post/hello/xiaohongshu?preset=nope", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

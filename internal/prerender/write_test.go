package prerender

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lerrors "git.home.luguber.info/inful/litho/internal/errors"
	"git.home.luguber.info/inful/litho/internal/site"
)

func TestDocumentPath(t *testing.T) {
	tests := []struct {
		url      string
		suppress bool
		want     string
	}{
		{url: "/", suppress: false, want: "index.html"},
		{url: "/", suppress: true, want: "index.html"},
		{url: "/blog", suppress: false, want: "blog/index.html"},
		{url: "/blog", suppress: true, want: "blog.html"},
		{url: "/blog/", suppress: false, want: "blog/index.html"},
		{url: "/movie/42", suppress: false, want: "movie/42/index.html"},
		{url: "/movie/42", suppress: true, want: "movie/42.html"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, DocumentPath(tc.url, tc.suppress), "url=%s suppress=%v", tc.url, tc.suppress)
	}
}

func TestContextPath(t *testing.T) {
	assert.Equal(t, "index.pageContext.json", ContextPath("/"))
	assert.Equal(t, "blog.pageContext.json", ContextPath("/blog"))
	assert.Equal(t, "movie/42.pageContext.json", ContextPath("/movie/42"))
}

func TestWriter_WritesDocumentAndSidecar(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil, slog.Default())

	doc := &site.RenderedDocument{
		URL:               "/movie/42",
		Body:              []byte("<html>Brazil</html>"),
		SerializedContext: []byte(`{"url":"/movie/42"}`),
	}
	n, err := w.Write(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	body, err := os.ReadFile(filepath.Join(dir, "movie", "42", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<html>Brazil</html>", string(body))

	sidecar, err := os.ReadFile(filepath.Join(dir, "movie", "42.pageContext.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"url":"/movie/42"}`, string(sidecar))
}

func TestWriter_SuppressedNestingWritesSingleFile(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil, slog.Default())

	doc := &site.RenderedDocument{URL: "/404", Body: []byte("missing"), SuppressNesting: true}
	n, err := w.Write(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = os.Stat(filepath.Join(dir, "404.html"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "404"))
	assert.True(t, os.IsNotExist(err), "no directory should be created for a suppressed document")
}

func TestWriter_SinkReplacesStorage(t *testing.T) {
	dir := t.TempDir()
	var got []SinkFile
	sink := func(_ context.Context, _ *site.RenderedDocument, f SinkFile) error {
		got = append(got, f)
		return nil
	}
	w := NewWriter(dir, sink, slog.Default())

	doc := &site.RenderedDocument{
		URL:               "/blog",
		Body:              []byte("<html>blog</html>"),
		SerializedContext: []byte(`{}`),
	}
	n, err := w.Write(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, got, 2)
	assert.Equal(t, "blog/index.html", got[0].Path)
	assert.Equal(t, "blog.pageContext.json", got[1].Path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "sink mode must not touch storage")
}

func TestWriter_SinkErrorIsWrapped(t *testing.T) {
	boom := errors.New("upload failed")
	sink := func(context.Context, *site.RenderedDocument, SinkFile) error { return boom }
	w := NewWriter(t.TempDir(), sink, slog.Default())

	_, err := w.Write(context.Background(), &site.RenderedDocument{URL: "/a", Body: []byte("x")})
	require.Error(t, err)
	assert.True(t, lerrors.IsCategory(err, lerrors.CategoryOutput))
	assert.ErrorIs(t, err, boom)
}

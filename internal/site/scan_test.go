package site

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestScan_BuildsInventoryFromMarkdown(t *testing.T) {
	dir := writeSite(t, map[string]string{
		"index.md":         "# Home\n",
		"blog/Post One.md": "---\ntitle: First Post\ndata:\n  hero: true\n---\n# Post\n",
		"404.md":           "# Not Found\n",
		"about.md":         "---\nroute: /company/about\n---\nAbout us.\n",
	})

	inv, err := Scan(context.Background(), ScanOptions{Dir: dir})
	require.NoError(t, err)
	require.Equal(t, 4, inv.Len())

	home, ok := inv.Get("/index")
	require.True(t, ok)
	route, static := home.StaticRoute()
	require.True(t, static)
	assert.Equal(t, "/", route)
	assert.Equal(t, KindStandard, home.Kind())

	post, ok := inv.Get("/blog/post-one")
	require.True(t, ok)
	route, _ = post.StaticRoute()
	assert.Equal(t, "/blog/post-one", route)

	exports, err := post.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, exports.Data)
	data, err := exports.Data(context.Background(), &RenderContext{URL: "/blog/post-one"})
	require.NoError(t, err)
	assert.Equal(t, "First Post", data["title"])
	assert.Equal(t, true, data["hero"])
	assert.Contains(t, data["_markdown"], "# Post")
	assert.NotEmpty(t, data["_fingerprint"])

	notFound := inv.ErrorPage()
	require.NotNil(t, notFound)
	assert.Equal(t, "/404", notFound.ID())
	assert.Equal(t, KindError, notFound.Kind())

	about, ok := inv.Get("/about")
	require.True(t, ok)
	route, _ = about.StaticRoute()
	assert.Equal(t, "/company/about", route)

	assert.NotEmpty(t, inv.Fingerprint())
}

func TestScan_PrerenderFrontMatterBecomesHook(t *testing.T) {
	dir := writeSite(t, map[string]string{
		"movies.md": "---\nroute: /movie/{id}\nprerender:\n  - /movie/1\n  - url: /movie/2\n    pageContext:\n      hero: true\n---\nMovie page.\n",
	})

	inv, err := Scan(context.Background(), ScanOptions{Dir: dir})
	require.NoError(t, err)

	page, ok := inv.Get("/movies")
	require.True(t, ok)
	require.True(t, page.DeclaresHooks())
	_, static := page.StaticRoute()
	assert.False(t, static, "parameterized routes are not static")

	exports, err := page.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, exports.Prerender)

	raw, err := exports.Prerender(context.Background(), nil)
	require.NoError(t, err)
	list, ok := raw.([]any)
	require.True(t, ok)
	assert.Len(t, list, 2)
}

func TestScan_DoNotPrerenderAndEmitContext(t *testing.T) {
	dir := writeSite(t, map[string]string{
		"draft.md":    "---\ndoNotPrerender: true\n---\nDraft.\n",
		"app.md":      "---\nemitContext: true\n---\nApp shell.\n",
		"_partial.md": "ignored\n",
		".hidden.md":  "ignored\n",
	})

	inv, err := Scan(context.Background(), ScanOptions{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, 2, inv.Len(), "underscore and dot files are skipped")

	draft, ok := inv.Get("/draft")
	require.True(t, ok)
	require.True(t, draft.DeclaresHooks())
	exports, err := draft.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, exports.DoNotPrerender)

	app, ok := inv.Get("/app")
	require.True(t, ok)
	exports, err = app.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, exports.EmitContext)
	assert.False(t, app.DeclaresHooks(), "emitContext alone is not a hook")
}

func TestScan_RejectsMalformedFrontMatter(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unclosed front matter", "---\ntitle: x\nbody without close\n"},
		{"bad route type", "---\nroute: 42\n---\nx\n"},
		{"bad flag type", "---\ndoNotPrerender: sometimes\n---\nx\n"},
		{"bad data type", "---\ndata: just a string\n---\nx\n"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dir := writeSite(t, map[string]string{"page.md": test.content})
			_, err := Scan(context.Background(), ScanOptions{Dir: dir})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "page")
		})
	}
}

func TestScan_MissingDirectoryFails(t *testing.T) {
	_, err := Scan(context.Background(), ScanOptions{Dir: filepath.Join(t.TempDir(), "absent")})
	require.Error(t, err)
}

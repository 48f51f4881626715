package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	website "github.com/focusondelaine/website"
)

func TestDefaultCopy(t *testing.T) {
	site, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "Focus On Delaine Development & Consulting LLC", site.Business.LegalName)
	assert.Equal(t, "info@focusondelaine.com", site.Business.Email)
	assert.Len(t, site.Home.Badges, 3)
	assert.Len(t, site.Home.Highlights, 6)
	assert.Len(t, site.Portfolio.Projects, 4)
	assert.Len(t, site.Book.Checklist, 5)

	require.Len(t, site.Pricing.Tiers, 3)
	assert.True(t, site.Pricing.Tiers[1].Popular)
	assert.Equal(t, "$$", site.Pricing.Tiers[1].Price)

	require.Len(t, site.Home.Shortcuts, 2)
	assert.Equal(t, website.About, site.Home.Shortcuts[0].Page)
	assert.Equal(t, website.Portfolio, site.Home.Shortcuts[1].Page)
}

func TestMarkdownFieldsRendered(t *testing.T) {
	site, err := Default()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(site.Home.Lede.HTML), "<p>"))
	assert.Contains(t, string(site.Home.Next.HTML), "<strong>Next:</strong>")
	assert.Contains(t, site.Home.Next.Source, "**Next:**")
}

func TestRenderMarkdownDropsRawHTML(t *testing.T) {
	html, err := RenderMarkdown("hello <script>alert(1)</script>")
	require.NoError(t, err)
	assert.NotContains(t, string(html), "<script>")
}

func TestLoadRejectsUnknownShortcutPage(t *testing.T) {
	fsys := fstest.MapFS{
		FileName: &fstest.MapFile{Data: []byte(`
business: {name: X}
home:
  shortcuts:
    - page: blog
pricing:
  tiers: [{name: One}]
`)},
	}

	_, err := Load(fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown page "blog"`)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"no business name", "pricing: {tiers: [{name: A}]}", "business.name"},
		{"no tiers", "business: {name: X}", "at least one tier"},
		{"two popular", "business: {name: X}\npricing: {tiers: [{name: A, popular: true}, {name: B, popular: true}]}", "at most one"},
		{"untitled project", "business: {name: X}\npricing: {tiers: [{name: A}]}\nportfolio: {projects: [{title: ''}]}", "projects[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(fstest.MapFS{FileName: &fstest.MapFile{Data: []byte(tt.yaml)}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadDir(t *testing.T) {
	site, err := LoadDir("")
	require.NoError(t, err)
	assert.Equal(t, "Focus On Delaine", site.Business.Name)

	empty := t.TempDir()
	site, err = LoadDir(empty)
	require.NoError(t, err)
	assert.Equal(t, "Focus On Delaine", site.Business.Name, "falls back to built-in copy")

	custom := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(custom, FileName),
		[]byte("business: {name: Custom Co}\npricing: {tiers: [{name: Only}]}\n"), 0644))
	site, err = LoadDir(custom)
	require.NoError(t, err)
	assert.Equal(t, "Custom Co", site.Business.Name)
}

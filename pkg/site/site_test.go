package site_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jlrickert/halopub/pkg/site"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare host", "example.com", "https://example.com"},
		{"trailing slash", "https://example.com/", "https://example.com"},
		{"many slashes", "https://example.com///", "https://example.com"},
		{"keeps path", "https://example.com/blog/", "https://example.com/blog"},
		{"keeps http", "http://localhost:8090", "http://localhost:8090"},
		{"trims space", "  https://example.com  ", "https://example.com"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"no host", "https://", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, site.NormalizeURL(tc.in))
		})
	}
}

func TestRegistry_DropsInvalidSites(t *testing.T) {
	t.Parallel()

	r := site.NewRegistry([]site.Site{
		{URL: "https://a.example.com", Token: "tok-a"},
		{URL: "", Token: "tok-b"},
		{URL: "https://c.example.com", Token: ""},
	})

	require.Equal(t, 1, r.Len())
	s, ok := r.ByURL("https://a.example.com")
	require.True(t, ok)
	require.NotEmpty(t, s.ID)
}

func TestRegistry_ExactlyOneDefault(t *testing.T) {
	t.Parallel()

	t.Run("none marked promotes first", func(t *testing.T) {
		t.Parallel()
		r := site.NewRegistry([]site.Site{
			{URL: "https://a.example.com", Token: "t"},
			{URL: "https://b.example.com", Token: "t"},
		})
		d, ok := r.Default()
		require.True(t, ok)
		require.Equal(t, "https://a.example.com", d.URL)
	})

	t.Run("first marked wins", func(t *testing.T) {
		t.Parallel()
		r := site.NewRegistry([]site.Site{
			{URL: "https://a.example.com", Token: "t"},
			{URL: "https://b.example.com", Token: "t", Default: true},
			{URL: "https://c.example.com", Token: "t", Default: true},
		})
		defaults := 0
		for _, s := range r.Sites() {
			if s.Default {
				defaults++
			}
		}
		require.Equal(t, 1, defaults)
		d, _ := r.Default()
		require.Equal(t, "https://b.example.com", d.URL)
	})
}

func TestRegistry_AddReplacesByURL(t *testing.T) {
	t.Parallel()

	r := site.NewRegistry([]site.Site{
		{URL: "https://a.example.com", Token: "old"},
	})
	first, _ := r.ByURL("https://a.example.com")

	require.True(t, r.Add(site.Site{URL: "a.example.com/", Token: "new", Name: "blog"}))
	require.Equal(t, 1, r.Len())

	s, ok := r.ByURL("https://a.example.com")
	require.True(t, ok)
	require.Equal(t, "new", s.Token)
	require.Equal(t, "blog", s.Name)
	require.Equal(t, first.ID, s.ID)
}

func TestRegistry_LookupByNameThenURL(t *testing.T) {
	t.Parallel()

	r := site.NewRegistry([]site.Site{
		{Name: "blog", URL: "https://a.example.com", Token: "t"},
		{URL: "https://b.example.com", Token: "t"},
	})

	s, ok := r.Lookup("blog")
	require.True(t, ok)
	require.Equal(t, "https://a.example.com", s.URL)

	s, ok = r.Lookup("b.example.com")
	require.True(t, ok)
	require.Equal(t, "https://b.example.com", s.URL)

	_, ok = r.Lookup("nope")
	require.False(t, ok)
}

func TestRegistry_RemoveReassignsDefault(t *testing.T) {
	t.Parallel()

	r := site.NewRegistry([]site.Site{
		{URL: "https://a.example.com", Token: "t", Default: true},
		{URL: "https://b.example.com", Token: "t"},
	})

	require.True(t, r.Remove("a.example.com"))
	require.Equal(t, 1, r.Len())
	d, ok := r.Default()
	require.True(t, ok)
	require.Equal(t, "https://b.example.com", d.URL)
}

func TestConfig_LoadMissingFileGivesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := site.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.True(t, cfg.PublishByDefault)
	require.Empty(t, cfg.Sites)
}

func TestConfig_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := site.Config{
		PublishByDefault: false,
		Sites: []site.Site{
			{ID: "id-1", Name: "blog", URL: "https://a.example.com", Token: "tok", Default: true},
		},
	}

	require.NoError(t, site.Save(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := site.Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestDefaultPath_EnvOverride(t *testing.T) {
	t.Setenv(site.EnvConfigPath, "/tmp/custom.yaml")
	path, err := site.DefaultPath()
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom.yaml", path)
}

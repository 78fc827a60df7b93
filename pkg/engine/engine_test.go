package engine_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jlrickert/halopub/pkg/engine"
	"github.com/jlrickert/halopub/pkg/frontmatter"
	"github.com/jlrickert/halopub/pkg/halo"
	"github.com/jlrickert/halopub/pkg/site"
)

// fakeClient is an in-memory remote. Posts are keyed by metadata name; terms
// resolve display names to "id:<lower-name>" identifiers.
type fakeClient struct {
	posts    map[string]*halo.Post
	contents map[string]*halo.Content

	createErr    error
	updateErr    error
	publishErr   error
	ensureErr    error
	displayErr   error
	publishCalls []string
	ensureCalls  [][]string
	nextName     string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		posts:    map[string]*halo.Post{},
		contents: map[string]*halo.Content{},
		nextName: "generated-1",
	}
}

func (f *fakeClient) GetPost(ctx context.Context, name string) (*halo.Post, *halo.Content, error) {
	post, ok := f.posts[name]
	if !ok {
		return nil, nil, nil
	}
	clone := *post
	content := *f.contents[name]
	return &clone, &content, nil
}

func (f *fakeClient) CreatePost(ctx context.Context, post *halo.Post, content *halo.Content, fallbackTitle string) (*halo.Post, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	created := *post
	created.Metadata.Name = f.nextName
	if created.Spec.Title == "" {
		created.Spec.Title = fallbackTitle
	}
	if created.Spec.Slug == "" {
		created.Spec.Slug = halo.Slugify(created.Spec.Title)
	}
	f.posts[created.Metadata.Name] = &created
	c := *content
	f.contents[created.Metadata.Name] = &c
	return &created, nil
}

func (f *fakeClient) UpdatePost(ctx context.Context, post *halo.Post, content *halo.Content) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	clone := *post
	f.posts[post.Metadata.Name] = &clone
	c := *content
	f.contents[post.Metadata.Name] = &c
	return nil
}

func (f *fakeClient) SetPublished(ctx context.Context, name string, publish bool) error {
	f.publishCalls = append(f.publishCalls, fmt.Sprintf("%s=%t", name, publish))
	if f.publishErr != nil {
		return f.publishErr
	}
	if post, ok := f.posts[name]; ok {
		post.Spec.Publish = publish
	}
	return nil
}

func (f *fakeClient) EnsureTerms(ctx context.Context, kind halo.TermKind, displayNames []string) ([]string, error) {
	if f.ensureErr != nil {
		return nil, f.ensureErr
	}
	f.ensureCalls = append(f.ensureCalls, append([]string(nil), displayNames...))
	ids := make([]string, len(displayNames))
	for i, name := range displayNames {
		ids[i] = "id:" + strings.ToLower(name)
	}
	return ids, nil
}

func (f *fakeClient) TermDisplayNames(ctx context.Context, kind halo.TermKind, ids []string) ([]string, error) {
	if f.displayErr != nil {
		return nil, f.displayErr
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = strings.TrimPrefix(id, "id:")
	}
	return names, nil
}

func testConfig() site.Config {
	return site.Config{
		PublishByDefault: true,
		Sites: []site.Site{
			{ID: "id-a", Name: "blog", URL: "https://a.example.com", Token: "tok", Default: true},
			{ID: "id-b", Name: "notes", URL: "https://b.example.com", Token: "tok"},
		},
	}
}

func newTestEngine(cfg site.Config, fake *fakeClient) *engine.Engine {
	return engine.New(cfg,
		engine.WithClientFactory(func(site.Site) engine.Client { return fake }),
	)
}

func TestPublish_CreatesAndLinksNewDocument(t *testing.T) {
	t.Parallel()

	fake := newFakeClient()
	eng := newTestEngine(testConfig(), fake)

	text := "# Hello\n\nWorld\n"
	res, err := eng.Publish(context.Background(), text, engine.PublishOptions{UseDefault: true})
	require.NoError(t, err)
	require.Equal(t, "generated-1", res.PostName)
	require.True(t, res.Published)
	require.Equal(t, "https://a.example.com", res.Site.URL)

	doc := frontmatter.Parse(res.Text)
	require.True(t, doc.HasFrontMatter)
	require.Equal(t, "Hello", doc.FrontMatter.String("title"))
	require.Equal(t, "hello", doc.FrontMatter.String("slug"))

	remote := doc.FrontMatter.Map("remote")
	require.NotNil(t, remote)
	require.Equal(t, "https://a.example.com", remote.String("site"))
	require.Equal(t, "generated-1", remote.String("name"))
	publish, ok := remote.Bool("publish")
	require.True(t, ok)
	require.True(t, publish)

	// The body is untouched.
	require.Equal(t, "# Hello\n\nWorld\n", strings.TrimLeft(doc.Body, "\n"))

	stored := fake.contents["generated-1"]
	require.Equal(t, text, stored.Raw)
	require.Contains(t, stored.Content, "<h1")
}

func TestPublish_EmptyBodyRefused(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(testConfig(), newFakeClient())
	_, err := eng.Publish(context.Background(), "---\ntitle: T\n---\n\n   \n", engine.PublishOptions{UseDefault: true})
	require.ErrorIs(t, err, engine.ErrEmptyDocument)
}

func TestPublish_NoSitesConfigured(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(site.Config{PublishByDefault: true}, newFakeClient())
	_, err := eng.Publish(context.Background(), "body", engine.PublishOptions{})
	require.ErrorIs(t, err, engine.ErrNoSites)
}

func TestPublish_SiteMismatchStopsBeforeRemoteWrite(t *testing.T) {
	t.Parallel()

	fake := newFakeClient()
	eng := newTestEngine(testConfig(), fake)

	text := strings.Join([]string{
		"---",
		"remote:",
		"  site: https://b.example.com",
		"  name: post-1",
		"---",
		"",
		"Body",
	}, "\n")

	_, err := eng.Publish(context.Background(), text, engine.PublishOptions{SiteName: "blog"})

	var mismatch *engine.SiteMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, "https://a.example.com", mismatch.Target)
	require.Empty(t, fake.posts)
}

func TestPublish_LinkedSiteResolvesWithoutSelection(t *testing.T) {
	t.Parallel()

	fake := newFakeClient()
	eng := newTestEngine(testConfig(), fake)

	text := strings.Join([]string{
		"---",
		"remote:",
		"  site: https://b.example.com",
		"---",
		"",
		"Body",
	}, "\n")

	res, err := eng.Publish(context.Background(), text, engine.PublishOptions{})
	require.NoError(t, err)
	require.Equal(t, "https://b.example.com", res.Site.URL)
}

func TestPublish_UpdatesExistingPost(t *testing.T) {
	t.Parallel()

	fake := newFakeClient()
	existing := halo.NewPost()
	existing.Metadata.Name = "post-1"
	existing.Spec.Title = "Old Title"
	existing.Spec.Publish = true
	fake.posts["post-1"] = existing
	fake.contents["post-1"] = &halo.Content{RawType: "markdown", Raw: "old"}

	eng := newTestEngine(testConfig(), fake)

	text := strings.Join([]string{
		"---",
		"title: New Title",
		"remote:",
		"  site: https://a.example.com",
		"  name: post-1",
		"  publish: true",
		"---",
		"",
		"New body",
	}, "\n")

	res, err := eng.Publish(context.Background(), text, engine.PublishOptions{})
	require.NoError(t, err)
	require.Equal(t, "post-1", res.PostName)
	require.Equal(t, "New Title", fake.posts["post-1"].Spec.Title)
	require.Equal(t, "New body", strings.TrimLeft(fake.contents["post-1"].Raw, "\n"))
	// Already published and desired published: no state call at all.
	require.Empty(t, fake.publishCalls)
}

func TestPublish_ClearedTagsAreClearedRemotely(t *testing.T) {
	t.Parallel()

	fake := newFakeClient()
	existing := halo.NewPost()
	existing.Metadata.Name = "post-1"
	existing.Spec.Tags = []string{"id:old"}
	existing.Spec.Publish = true
	fake.posts["post-1"] = existing
	fake.contents["post-1"] = &halo.Content{RawType: "markdown"}

	eng := newTestEngine(testConfig(), fake)

	text := strings.Join([]string{
		"---",
		"remote:",
		"  site: https://a.example.com",
		"  name: post-1",
		"  publish: true",
		"---",
		"",
		"Body",
	}, "\n")

	res, err := eng.Publish(context.Background(), text, engine.PublishOptions{})
	require.NoError(t, err)
	require.Empty(t, fake.posts["post-1"].Spec.Tags)

	doc := frontmatter.Parse(res.Text)
	_, hasTags := doc.FrontMatter.Get("tags")
	require.False(t, hasTags)
}

func TestPublish_CategoriesAndTagsDeduplicated(t *testing.T) {
	t.Parallel()

	fake := newFakeClient()
	eng := newTestEngine(testConfig(), fake)

	text := strings.Join([]string{
		"---",
		"categories:",
		"  - Tech",
		"  - tech",
		"tags: go, Go, http",
		"---",
		"",
		"Body",
	}, "\n")

	_, err := eng.Publish(context.Background(), text, engine.PublishOptions{UseDefault: true})
	require.NoError(t, err)

	post := fake.posts["generated-1"]
	require.Equal(t, []string{"id:tech"}, post.Spec.Categories)
	require.Equal(t, []string{"id:go", "id:http"}, post.Spec.Tags)
}

func TestPublish_BareTaxonomyKeysResolveNoTerms(t *testing.T) {
	t.Parallel()

	fake := newFakeClient()
	eng := newTestEngine(testConfig(), fake)

	// A bare key parses to an empty mapping, not a sequence. It must clear
	// the term lists, never reach the remote taxonomy.
	text := strings.Join([]string{
		"---",
		"tags:",
		"categories:",
		"---",
		"",
		"Body",
	}, "\n")

	res, err := eng.Publish(context.Background(), text, engine.PublishOptions{UseDefault: true})
	require.NoError(t, err)
	require.Empty(t, fake.ensureCalls)

	post := fake.posts["generated-1"]
	require.Empty(t, post.Spec.Tags)
	require.Empty(t, post.Spec.Categories)

	doc := frontmatter.Parse(res.Text)
	_, hasTags := doc.FrontMatter.Get("tags")
	require.False(t, hasTags)
	_, hasCategories := doc.FrontMatter.Get("categories")
	require.False(t, hasCategories)
}

func TestPublish_PublishFalseUnpublishes(t *testing.T) {
	t.Parallel()

	fake := newFakeClient()
	existing := halo.NewPost()
	existing.Metadata.Name = "post-1"
	existing.Spec.Publish = true
	fake.posts["post-1"] = existing
	fake.contents["post-1"] = &halo.Content{RawType: "markdown"}

	eng := newTestEngine(testConfig(), fake)

	text := strings.Join([]string{
		"---",
		"remote:",
		"  site: https://a.example.com",
		"  name: post-1",
		"  publish: false",
		"---",
		"",
		"Body",
	}, "\n")

	res, err := eng.Publish(context.Background(), text, engine.PublishOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"post-1=false"}, fake.publishCalls)
	require.False(t, res.Published)
}

func TestPublish_PublishStateFailureIsWarning(t *testing.T) {
	t.Parallel()

	fake := newFakeClient()
	fake.publishErr = errors.New("boom")
	eng := newTestEngine(testConfig(), fake)

	res, err := eng.Publish(context.Background(), "Body\n", engine.PublishOptions{UseDefault: true})
	require.NoError(t, err)
	require.NotEmpty(t, res.Warnings)
	require.False(t, res.Published)
}

func TestPublish_TaxonomyFailureIsFatal(t *testing.T) {
	t.Parallel()

	fake := newFakeClient()
	fake.ensureErr = errors.New("boom")
	eng := newTestEngine(testConfig(), fake)

	text := "---\ntags:\n  - go\n---\n\nBody\n"
	_, err := eng.Publish(context.Background(), text, engine.PublishOptions{UseDefault: true})
	require.Error(t, err)
	require.Empty(t, fake.posts)
}

func TestPublish_DisplayNameFailureFallsBackToRequested(t *testing.T) {
	t.Parallel()

	fake := newFakeClient()
	fake.displayErr = errors.New("boom")
	eng := newTestEngine(testConfig(), fake)

	text := "---\ntags:\n  - Go\n---\n\nBody\n"
	res, err := eng.Publish(context.Background(), text, engine.PublishOptions{UseDefault: true})
	require.NoError(t, err)
	require.NotEmpty(t, res.Warnings)

	doc := frontmatter.Parse(res.Text)
	tags, _ := doc.FrontMatter.Get("tags")
	require.Equal(t, []any{"Go"}, tags)
}

func TestPublish_SelectorCancelReturnsErrCanceled(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(testConfig(), newFakeClient())
	opts := engine.PublishOptions{
		Selector: func(sites []site.Site) (*site.Site, error) {
			require.Len(t, sites, 2)
			return nil, nil
		},
	}
	// No linkage and two sites: the selector decides, and it cancels.
	_, err := eng.Publish(context.Background(), "Body\n", opts)
	require.ErrorIs(t, err, engine.ErrCanceled)
}

func TestPublish_UnknownSiteName(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(testConfig(), newFakeClient())
	_, err := eng.Publish(context.Background(), "Body\n", engine.PublishOptions{SiteName: "nope"})

	var notConfigured *engine.SiteNotConfiguredError
	require.ErrorAs(t, err, &notConfigured)
}

func TestPublish_UnrelatedFrontMatterSurvives(t *testing.T) {
	t.Parallel()

	fake := newFakeClient()
	eng := newTestEngine(testConfig(), fake)

	text := strings.Join([]string{
		"---",
		"custom: keep me",
		"title: T",
		"---",
		"",
		"Body",
	}, "\n")

	res, err := eng.Publish(context.Background(), text, engine.PublishOptions{UseDefault: true})
	require.NoError(t, err)

	doc := frontmatter.Parse(res.Text)
	require.Equal(t, "keep me", doc.FrontMatter.String("custom"))
	// Pre-existing keys keep their positions.
	require.Equal(t, "custom", doc.FrontMatter.Keys()[0])
}

func TestPull_ReplacesBodyAndFrontMatter(t *testing.T) {
	t.Parallel()

	fake := newFakeClient()
	post := halo.NewPost()
	post.Metadata.Name = "post-1"
	post.Spec.Title = "Remote Title"
	post.Spec.Slug = "remote-title"
	post.Spec.Publish = true
	post.Spec.Tags = []string{"id:go"}
	fake.posts["post-1"] = post
	fake.contents["post-1"] = &halo.Content{RawType: "markdown", Raw: "Remote body\n"}

	eng := newTestEngine(testConfig(), fake)

	text := strings.Join([]string{
		"---",
		"remote:",
		"  site: https://a.example.com",
		"  name: post-1",
		"---",
		"",
		"Local body",
	}, "\n")

	res, err := eng.Pull(context.Background(), text)
	require.NoError(t, err)

	doc := frontmatter.Parse(res.Text)
	require.Equal(t, "Remote Title", doc.FrontMatter.String("title"))
	tags, _ := doc.FrontMatter.Get("tags")
	require.Equal(t, []any{"go"}, tags)
	require.Equal(t, "Remote body\n", strings.TrimLeft(doc.Body, "\n"))
}

func TestPull_KeepsLocalBodyWhenRemoteEmpty(t *testing.T) {
	t.Parallel()

	fake := newFakeClient()
	post := halo.NewPost()
	post.Metadata.Name = "post-1"
	post.Spec.Title = "T"
	fake.posts["post-1"] = post
	fake.contents["post-1"] = &halo.Content{RawType: "markdown", Raw: ""}

	eng := newTestEngine(testConfig(), fake)

	text := strings.Join([]string{
		"---",
		"remote:",
		"  site: https://a.example.com",
		"  name: post-1",
		"---",
		"",
		"Local body",
	}, "\n")

	res, err := eng.Pull(context.Background(), text)
	require.NoError(t, err)
	require.Equal(t, "Local body", strings.TrimLeft(frontmatter.Parse(res.Text).Body, "\n"))
}

func TestPull_UnlinkedDocument(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(testConfig(), newFakeClient())
	_, err := eng.Pull(context.Background(), "just a body")
	require.ErrorIs(t, err, engine.ErrNotLinked)
}

func TestPull_MissingRemotePost(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(testConfig(), newFakeClient())
	text := strings.Join([]string{
		"---",
		"remote:",
		"  site: https://a.example.com",
		"  name: gone",
		"---",
		"",
		"Body",
	}, "\n")

	_, err := eng.Pull(context.Background(), text)

	var notFound *engine.PostNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "gone", notFound.Name)
}

// Package engine reconciles local markdown documents with remote posts: it
// resolves the target site, pushes or pulls post state, and rewrites the
// document front matter to reflect what the server actually stored.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/jlrickert/halopub/pkg/frontmatter"
	"github.com/jlrickert/halopub/pkg/halo"
	"github.com/jlrickert/halopub/pkg/log"
	"github.com/jlrickert/halopub/pkg/render"
	"github.com/jlrickert/halopub/pkg/site"
)

// linkageKey is the front-matter key tying a document to its remote post.
const linkageKey = "remote"

// Client is the remote API surface the engine consumes. *halo.Client
// implements it; tests substitute fakes.
type Client interface {
	GetPost(ctx context.Context, name string) (*halo.Post, *halo.Content, error)
	CreatePost(ctx context.Context, post *halo.Post, content *halo.Content, fallbackTitle string) (*halo.Post, error)
	UpdatePost(ctx context.Context, post *halo.Post, content *halo.Content) error
	SetPublished(ctx context.Context, name string, publish bool) error
	EnsureTerms(ctx context.Context, kind halo.TermKind, displayNames []string) ([]string, error)
	TermDisplayNames(ctx context.Context, kind halo.TermKind, ids []string) ([]string, error)
}

// ClientFactory builds the client for a resolved site.
type ClientFactory func(site.Site) Client

// Engine runs the publish and pull flows against the configured sites.
type Engine struct {
	cfg      site.Config
	registry *site.Registry
	renderer render.Renderer
	clients  ClientFactory
}

// Option configures an Engine.
type Option func(*Engine)

// WithRenderer replaces the markdown renderer.
func WithRenderer(r render.Renderer) Option {
	return func(e *Engine) { e.renderer = r }
}

// WithClientFactory replaces the remote client constructor. Tests use this
// to inject fakes.
func WithClientFactory(f ClientFactory) Option {
	return func(e *Engine) { e.clients = f }
}

// New builds an engine over the given configuration.
func New(cfg site.Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		registry: cfg.Registry(),
		renderer: render.NewGoldmark(),
		clients: func(s site.Site) Client {
			return halo.NewClient(s)
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PublishOptions controls site resolution for one publish. Selector, when
// set, is consulted if no other rule picks a site; returning a nil site
// cancels the publish.
type PublishOptions struct {
	SiteName   string
	UseDefault bool
	Selector   func([]site.Site) (*site.Site, error)
}

// Result is the outcome of a publish or pull: the rewritten document text
// and the post state it now reflects. Warnings list the best-effort steps
// that failed without aborting the operation.
type Result struct {
	Text      string
	PostName  string
	Published bool
	Site      site.Site
	Warnings  []string
}

// linkage is the decoded remote block of a document's front matter.
type linkage struct {
	Site    string
	Name    string
	Publish *bool
}

func linkageFrom(fm *frontmatter.Map) linkage {
	block := fm.Map(linkageKey)
	if block == nil {
		return linkage{}
	}
	link := linkage{
		Site: block.String("site"),
		Name: block.String("name"),
	}
	if b, ok := block.Bool("publish"); ok {
		link.Publish = &b
	}
	return link
}

// Publish pushes the document to its target site and returns the document
// rewritten to match the stored post.
//
// Creation, update, and taxonomy resolution failures abort the publish.
// Publish-state changes, the post-save refresh, and display-name lookups
// are best effort: their failures become Result warnings.
func (e *Engine) Publish(ctx context.Context, text string, opts PublishOptions) (*Result, error) {
	lg := log.FromContext(ctx)

	doc := frontmatter.Parse(text)
	if strings.TrimSpace(doc.Body) == "" {
		return nil, ErrEmptyDocument
	}
	if e.registry.Len() == 0 {
		return nil, ErrNoSites
	}

	link := linkageFrom(doc.FrontMatter)
	target, err := e.resolveSite(link, opts)
	if err != nil {
		return nil, err
	}
	if link.Site != "" && site.NormalizeURL(link.Site) != target.URL {
		return nil, &SiteMismatchError{Linked: link.Site, Target: target.URL}
	}

	client := e.clients(target)

	post := halo.NewPost()
	content := halo.NewContent()
	if link.Name != "" {
		if p, c, err := client.GetPost(ctx, link.Name); err == nil && p != nil {
			post, content = p, c
		}
	}

	content.Raw = doc.Body
	content.RawType = "markdown"
	rendered, err := e.renderer.Render(doc.Body)
	if err != nil {
		return nil, err
	}
	content.Content = rendered

	applyFrontMatter(doc.FrontMatter, post)

	categories := normalizeStringList(doc.FrontMatter, "categories")
	tags := normalizeStringList(doc.FrontMatter, "tags")

	post.Spec.Categories = []string{}
	if len(categories) > 0 {
		ids, err := client.EnsureTerms(ctx, halo.Categories, categories)
		if err != nil {
			return nil, fmt.Errorf("resolve categories: %w", err)
		}
		post.Spec.Categories = ids
	}
	post.Spec.Tags = []string{}
	if len(tags) > 0 {
		ids, err := client.EnsureTerms(ctx, halo.Tags, tags)
		if err != nil {
			return nil, fmt.Errorf("resolve tags: %w", err)
		}
		post.Spec.Tags = ids
	}

	if post.Metadata.Name != "" {
		if err := client.UpdatePost(ctx, post, content); err != nil {
			return nil, fmt.Errorf("update post: %w", err)
		}
	} else {
		created, err := client.CreatePost(ctx, post, content, ExtractTitle(doc.Body))
		if err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
		post = created
	}

	res := &Result{Site: target, PostName: post.Metadata.Name}

	desired := e.cfg.PublishByDefault
	if link.Publish != nil {
		desired = *link.Publish
	}
	if desired != post.Spec.Publish {
		if err := client.SetPublished(ctx, post.Metadata.Name, desired); err != nil {
			lg.Warn("change publish state failed", "post", post.Metadata.Name, "error", err)
			res.Warnings = append(res.Warnings, "failed to change publish state: "+err.Error())
		} else {
			post.Spec.Publish = desired
		}
	}

	if p, _, err := client.GetPost(ctx, post.Metadata.Name); err == nil && p != nil {
		post = p
	} else {
		res.Warnings = append(res.Warnings, "could not refresh the remote post; front matter reflects the local view")
	}

	catNames := e.termNames(ctx, client, halo.Categories, post.Spec.Categories, categories, res)
	tagNames := e.termNames(ctx, client, halo.Tags, post.Spec.Tags, tags, res)

	merged := mergeFrontMatter(doc.FrontMatter, post, target.URL, catNames, tagNames)
	res.Published = post.Spec.Publish
	res.Text = frontmatter.Serialize(merged, doc.Body)
	return res, nil
}

// Pull replaces the document with the remote post's state: front matter is
// merged from the post and the body is replaced with the remote raw
// markdown when the remote has any.
func (e *Engine) Pull(ctx context.Context, text string) (*Result, error) {
	doc := frontmatter.Parse(text)

	if e.registry.Len() == 0 {
		return nil, ErrNoSites
	}
	link := linkageFrom(doc.FrontMatter)
	if link.Name == "" || link.Site == "" {
		return nil, ErrNotLinked
	}
	target, ok := e.registry.ByURL(link.Site)
	if !ok {
		return nil, &SiteNotConfiguredError{Ref: link.Site}
	}

	client := e.clients(target)
	post, content, err := client.GetPost(ctx, link.Name)
	if err != nil || post == nil {
		return nil, &PostNotFoundError{Name: link.Name}
	}

	res := &Result{Site: target, PostName: post.Metadata.Name, Published: post.Spec.Publish}

	catNames := e.termNames(ctx, client, halo.Categories, post.Spec.Categories, nil, res)
	tagNames := e.termNames(ctx, client, halo.Tags, post.Spec.Tags, nil, res)

	body := doc.Body
	if strings.TrimSpace(content.Raw) != "" {
		body = content.Raw
	}

	merged := mergeFrontMatter(doc.FrontMatter, post, target.URL, catNames, tagNames)
	res.Text = frontmatter.Serialize(merged, body)
	return res, nil
}

// resolveSite picks the target site in precedence order: explicit name or
// URL, the default-site request, the document's linkage, the only
// configured site, an interactive selection, then the default site.
func (e *Engine) resolveSite(link linkage, opts PublishOptions) (site.Site, error) {
	if opts.SiteName != "" {
		s, ok := e.registry.Lookup(opts.SiteName)
		if !ok {
			return site.Site{}, &SiteNotConfiguredError{Ref: opts.SiteName}
		}
		return s, nil
	}
	if opts.UseDefault {
		s, ok := e.registry.Default()
		if !ok {
			return site.Site{}, ErrNoDefaultSite
		}
		return s, nil
	}
	if link.Site != "" {
		s, ok := e.registry.ByURL(link.Site)
		if !ok {
			return site.Site{}, &SiteNotConfiguredError{Ref: link.Site}
		}
		return s, nil
	}
	if e.registry.Len() == 1 {
		return e.registry.Sites()[0], nil
	}
	if opts.Selector != nil {
		chosen, err := opts.Selector(e.registry.Sites())
		if err != nil {
			return site.Site{}, err
		}
		if chosen == nil {
			return site.Site{}, ErrCanceled
		}
		return *chosen, nil
	}
	if s, ok := e.registry.Default(); ok {
		return s, nil
	}
	return e.registry.Sites()[0], nil
}

// termNames resolves term identifiers back to display names for the merged
// front matter. A failed lookup is non-fatal: the requested names (when
// known) stand in, with a warning.
func (e *Engine) termNames(ctx context.Context, client Client, kind halo.TermKind, ids, requested []string, res *Result) []string {
	if len(ids) == 0 {
		return nil
	}
	names, err := client.TermDisplayNames(ctx, kind, ids)
	if err != nil {
		log.FromContext(ctx).Warn("resolve term display names failed", "kind", string(kind), "error", err)
		res.Warnings = append(res.Warnings, fmt.Sprintf("could not resolve %s names: %v", kind, err))
		return requested
	}
	return names
}

// applyFrontMatter copies author-editable fields onto the post. An absent
// excerpt switches the post back to auto-generation.
func applyFrontMatter(fm *frontmatter.Map, post *halo.Post) {
	if title := fm.String("title"); title != "" {
		post.Spec.Title = title
	}
	if slug := fm.String("slug"); slug != "" {
		post.Spec.Slug = slug
	}
	if cover := fm.String("cover"); cover != "" {
		post.Spec.Cover = cover
	}
	if excerpt := fm.String("excerpt"); excerpt != "" {
		post.Spec.Excerpt = halo.Excerpt{AutoGenerate: false, Raw: excerpt}
	} else {
		post.Spec.Excerpt = halo.Excerpt{AutoGenerate: true}
	}
}

// mergeFrontMatter rewrites the reconciled keys onto a copy of the original
// front matter. Unrelated keys keep their position and value; reconciled
// keys with nothing to show are removed so serialization omits them.
func mergeFrontMatter(fm *frontmatter.Map, post *halo.Post, siteURL string, categories, tags []string) *frontmatter.Map {
	out := fm.Clone()

	out.Set("title", post.Spec.Title)
	out.Set("slug", post.Spec.Slug)
	if post.Spec.Cover != "" {
		out.Set("cover", post.Spec.Cover)
	} else {
		out.Delete("cover")
	}
	if post.Spec.Excerpt.AutoGenerate || post.Spec.Excerpt.Raw == "" {
		out.Delete("excerpt")
	} else {
		out.Set("excerpt", post.Spec.Excerpt.Raw)
	}
	setStringList(out, "categories", categories)
	setStringList(out, "tags", tags)

	remote := frontmatter.NewMap()
	remote.Set("site", siteURL)
	remote.Set("name", post.Metadata.Name)
	remote.Set("publish", post.Spec.Publish)
	out.Set(linkageKey, remote)

	return out
}

func setStringList(fm *frontmatter.Map, key string, values []string) {
	if len(values) == 0 {
		fm.Delete(key)
		return
	}
	items := make([]any, len(values))
	for i, v := range values {
		items[i] = v
	}
	fm.Set(key, items)
}

// normalizeStringList reads a front-matter value as a list of names:
// sequences and comma-separated strings normalize to trimmed,
// case-insensitively deduplicated names in first-seen order. Any other
// shape, such as the empty mapping a bare `tags:` key parses to, is an
// empty list.
func normalizeStringList(fm *frontmatter.Map, key string) []string {
	v, ok := fm.Get(key)
	if !ok || v == nil {
		return nil
	}

	var raw []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			raw = append(raw, stringify(item))
		}
	case []string:
		raw = append(raw, t...)
	case string:
		raw = strings.Split(t, ",")
	default:
		return nil
	}

	var out []string
	seen := map[string]bool{}
	for _, item := range raw {
		name := strings.TrimSpace(item)
		if name == "" {
			continue
		}
		lower := strings.ToLower(name)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		out = append(out, name)
	}
	return out
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Package halo is the HTTP client for the Halo uc/content APIs: post and
// content read/write, publish state changes, and category/tag management.
package halo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jlrickert/halopub/pkg/log"
	"github.com/jlrickert/halopub/pkg/site"
)

const (
	ucAPIBase      = "/apis/uc.api.content.halo.run/v1alpha1"
	contentAPIBase = "/apis/content.halo.run/v1alpha1"

	contentAPIVersion = "content.halo.run/v1alpha1"

	// Annotation written on create/update so the console editor can recover
	// the markdown source.
	annotationContentJSON = "content.halo.run/content-json"
	// Annotations read back from the patched draft snapshot.
	annotationPatchedRaw     = "content.halo.run/patched-raw"
	annotationPatchedContent = "content.halo.run/patched-content"

	maxErrorBody   = 512
	defaultTimeout = 30 * time.Second
)

// Client talks to one configured Halo site.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Used by tests and by
// callers that need custom transport behavior.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// NewClient builds a client for the given site. Requests carry the site's
// bearer token and time out after 30 seconds unless the context expires
// first.
func NewClient(s site.Site, opts ...Option) *Client {
	c := &Client{
		baseURL: s.URL,
		token:   s.Token,
		httpc:   &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// snapshot is the draft content snapshot resource. Only the fields the sync
// flow reads are decoded.
type snapshot struct {
	Metadata Metadata `json:"metadata"`
	Spec     struct {
		RawType string `json:"rawType"`
	} `json:"spec"`
}

// GetPost fetches a post and its draft content. Any failure, including a
// missing post, yields (nil, nil, nil) with a logged warning: callers treat
// an unreachable post exactly like an absent one and fall back to creating
// a fresh post or keeping their local view.
func (c *Client) GetPost(ctx context.Context, name string) (*Post, *Content, error) {
	lg := log.FromContext(ctx)

	var post Post
	if err := c.do(ctx, http.MethodGet, ucAPIBase+"/posts/"+name, nil, &post); err != nil {
		lg.Warn("fetch post failed", "post", name, "error", err)
		return nil, nil, nil
	}

	var snap snapshot
	if err := c.do(ctx, http.MethodGet, ucAPIBase+"/posts/"+name+"/draft?patched=true", nil, &snap); err != nil {
		lg.Warn("fetch post draft failed", "post", name, "error", err)
		return nil, nil, nil
	}

	content := &Content{
		RawType: snap.Spec.RawType,
		Raw:     snap.Metadata.Annotations[annotationPatchedRaw],
		Content: snap.Metadata.Annotations[annotationPatchedContent],
	}
	if content.RawType == "" {
		content.RawType = "markdown"
	}
	return &post, content, nil
}

// CreatePost creates a new post from the given template and content. The
// post name is a fresh UUID; title and slug fall back to fallbackTitle when
// the template does not set them. Returns the created post as stored by the
// server.
func (c *Client) CreatePost(ctx context.Context, post *Post, content *Content, fallbackTitle string) (*Post, error) {
	payload := *post
	payload.Metadata.Name = uuid.NewString()
	payload.Metadata.Annotations = cloneAnnotations(post.Metadata.Annotations)

	if payload.Spec.Title == "" {
		payload.Spec.Title = fallbackTitle
	}
	if payload.Spec.Title == "" {
		payload.Spec.Title = "Untitled post"
	}
	if payload.Spec.Slug == "" {
		payload.Spec.Slug = Slugify(payload.Spec.Title)
	}
	if err := setContentAnnotation(&payload.Metadata, content); err != nil {
		return nil, err
	}

	var created Post
	if err := c.do(ctx, http.MethodPost, ucAPIBase+"/posts", &payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdatePost saves post changes and then replaces the draft content: the
// post resource is updated first, then the patched draft snapshot is
// fetched, annotated with the new content, and written back. The snapshot
// round-trips as a raw object so server-side fields survive untouched.
func (c *Client) UpdatePost(ctx context.Context, post *Post, content *Content) error {
	name := post.Metadata.Name
	if err := c.do(ctx, http.MethodPut, ucAPIBase+"/posts/"+name, post, nil); err != nil {
		return err
	}

	draftPath := ucAPIBase + "/posts/" + name + "/draft?patched=true"
	var draft map[string]any
	if err := c.do(ctx, http.MethodGet, draftPath, nil, &draft); err != nil {
		return err
	}

	contentJSON, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	meta, ok := draft["metadata"].(map[string]any)
	if !ok {
		meta = map[string]any{}
		draft["metadata"] = meta
	}
	annotations, ok := meta["annotations"].(map[string]any)
	if !ok {
		annotations = map[string]any{}
		meta["annotations"] = annotations
	}
	annotations[annotationContentJSON] = string(contentJSON)

	return c.do(ctx, http.MethodPut, draftPath, draft, nil)
}

// SetPublished publishes or unpublishes a post.
func (c *Client) SetPublished(ctx context.Context, name string, publish bool) error {
	action := "/unpublish"
	if publish {
		action = "/publish"
	}
	return c.do(ctx, http.MethodPut, ucAPIBase+"/posts/"+name+action, nil, nil)
}

func setContentAnnotation(meta *Metadata, content *Content) error {
	b, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	if meta.Annotations == nil {
		meta.Annotations = map[string]string{}
	}
	meta.Annotations[annotationContentJSON] = string(b)
	return nil
}

func cloneAnnotations(in map[string]string) map[string]string {
	out := make(map[string]string, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

// do performs one API request. Non-2xx responses become an *APIError with a
// body excerpt; transport failures are wrapped with the request identity.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return &APIError{
			Op:         method + " " + path,
			StatusCode: res.StatusCode,
			Body:       string(bytes.TrimSpace(excerpt)),
		}
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

package halo

// Resource shapes for the Halo uc/content APIs. Field sets mirror what the
// server accepts on create/update; unknown server-side fields are dropped on
// decode, which is fine because every write starts from a freshly fetched
// post.

// Metadata is the common resource metadata envelope.
type Metadata struct {
	Name         string            `json:"name"`
	GenerateName string            `json:"generateName,omitempty"`
	Annotations  map[string]string `json:"annotations,omitempty"`
}

// Post is the remote post resource.
type Post struct {
	APIVersion string   `json:"apiVersion"`
	Kind       string   `json:"kind"`
	Metadata   Metadata `json:"metadata"`
	Spec       PostSpec `json:"spec"`
}

// PostSpec carries the author-visible post fields plus the snapshot
// bookkeeping the server maintains.
type PostSpec struct {
	AllowComment    bool                `json:"allowComment"`
	BaseSnapshot    string              `json:"baseSnapshot"`
	Categories      []string            `json:"categories"`
	Cover           string              `json:"cover"`
	Deleted         bool                `json:"deleted"`
	Excerpt         Excerpt             `json:"excerpt"`
	HeadSnapshot    string              `json:"headSnapshot"`
	HTMLMetas       []map[string]string `json:"htmlMetas"`
	Owner           string              `json:"owner"`
	Pinned          bool                `json:"pinned"`
	Priority        int                 `json:"priority"`
	Publish         bool                `json:"publish"`
	PublishTime     string              `json:"publishTime,omitempty"`
	ReleaseSnapshot string              `json:"releaseSnapshot"`
	Slug            string              `json:"slug"`
	Tags            []string            `json:"tags"`
	Template        string              `json:"template"`
	Title           string              `json:"title"`
	Visible         string              `json:"visible"`
}

// Excerpt is either auto-generated by the server or set verbatim.
type Excerpt struct {
	AutoGenerate bool   `json:"autoGenerate"`
	Raw          string `json:"raw"`
}

// Content is the markdown source paired with its rendered HTML.
type Content struct {
	RawType string `json:"rawType"`
	Raw     string `json:"raw"`
	Content string `json:"content"`
}

// NewPost returns the empty post template used for a first publish. The
// explicit defaults match what the server expects on create.
func NewPost() *Post {
	return &Post{
		APIVersion: contentAPIVersion,
		Kind:       "Post",
		Metadata: Metadata{
			Annotations: map[string]string{},
		},
		Spec: PostSpec{
			AllowComment: true,
			Categories:   []string{},
			Excerpt:      Excerpt{AutoGenerate: true},
			HTMLMetas:    []map[string]string{},
			Tags:         []string{},
			Visible:      "PUBLIC",
		},
	}
}

// NewContent returns an empty markdown content payload.
func NewContent() *Content {
	return &Content{RawType: "markdown"}
}

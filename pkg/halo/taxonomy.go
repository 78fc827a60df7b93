package halo

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// TermKind selects one of the two taxonomy collections.
type TermKind string

const (
	Categories TermKind = "categories"
	Tags       TermKind = "tags"
)

type termItem struct {
	Metadata Metadata `json:"metadata"`
	Spec     struct {
		DisplayName string `json:"displayName"`
	} `json:"spec"`
}

type termList struct {
	Items []termItem `json:"items"`
}

type categoryPayload struct {
	APIVersion string       `json:"apiVersion"`
	Kind       string       `json:"kind"`
	Metadata   Metadata     `json:"metadata"`
	Spec       categorySpec `json:"spec"`
}

type categorySpec struct {
	DisplayName string   `json:"displayName"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Cover       string   `json:"cover"`
	Template    string   `json:"template"`
	Priority    int      `json:"priority"`
	Children    []string `json:"children"`
}

type tagPayload struct {
	APIVersion string   `json:"apiVersion"`
	Kind       string   `json:"kind"`
	Metadata   Metadata `json:"metadata"`
	Spec       tagSpec  `json:"spec"`
}

type tagSpec struct {
	DisplayName string `json:"displayName"`
	Slug        string `json:"slug"`
	Color       string `json:"color"`
	Cover       string `json:"cover"`
}

type termCatalog struct {
	path    string
	newTerm func(displayName string, existing int) any
}

var termCatalogs = map[TermKind]termCatalog{
	Categories: {
		path: contentAPIBase + "/categories",
		newTerm: func(displayName string, existing int) any {
			return &categoryPayload{
				APIVersion: contentAPIVersion,
				Kind:       "Category",
				Metadata:   Metadata{GenerateName: "category-"},
				Spec: categorySpec{
					DisplayName: displayName,
					Slug:        Slugify(displayName),
					// New categories sort after everything already present.
					Priority: existing,
					Children: []string{},
				},
			}
		},
	},
	Tags: {
		path: contentAPIBase + "/tags",
		newTerm: func(displayName string, existing int) any {
			return &tagPayload{
				APIVersion: contentAPIVersion,
				Kind:       "Tag",
				Metadata:   Metadata{GenerateName: "tag-"},
				Spec: tagSpec{
					DisplayName: displayName,
					Slug:        Slugify(displayName),
					Color:       "#ffffff",
				},
			}
		},
	},
}

// EnsureTerms resolves display names to term identifiers, creating any term
// that does not exist yet. Matching against existing terms is
// case-insensitive. The result lists identifiers for matched terms first, in
// catalog order of discovery, followed by newly created ones; creations
// happen one at a time so repeated names within a call resolve to a single
// new term.
func (c *Client) EnsureTerms(ctx context.Context, kind TermKind, displayNames []string) ([]string, error) {
	catalog, ok := termCatalogs[kind]
	if !ok {
		return nil, fmt.Errorf("unknown term kind %q", kind)
	}

	var list termList
	if err := c.do(ctx, http.MethodGet, catalog.path, nil, &list); err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}

	var matched []string
	var pending []string
	for _, name := range displayNames {
		if id, ok := findTerm(list.Items, name); ok {
			matched = append(matched, id)
		} else {
			pending = append(pending, name)
		}
	}

	var created []string
	createdByName := map[string]string{}
	for _, name := range pending {
		lower := strings.ToLower(name)
		if id, ok := createdByName[lower]; ok {
			created = append(created, id)
			continue
		}
		payload := catalog.newTerm(name, len(list.Items)+len(createdByName))
		var out termItem
		if err := c.do(ctx, http.MethodPost, catalog.path, payload, &out); err != nil {
			return nil, fmt.Errorf("create %s %q: %w", kind, name, err)
		}
		created = append(created, out.Metadata.Name)
		createdByName[lower] = out.Metadata.Name
	}

	return append(matched, created...), nil
}

// TermDisplayNames maps term identifiers back to display names. Identifiers
// no longer present on the server are dropped from the result.
func (c *Client) TermDisplayNames(ctx context.Context, kind TermKind, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	catalog, ok := termCatalogs[kind]
	if !ok {
		return nil, fmt.Errorf("unknown term kind %q", kind)
	}

	var list termList
	if err := c.do(ctx, http.MethodGet, catalog.path, nil, &list); err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}

	byID := make(map[string]string, len(list.Items))
	for _, item := range list.Items {
		byID[item.Metadata.Name] = item.Spec.DisplayName
	}

	var names []string
	for _, id := range ids {
		if name, ok := byID[id]; ok {
			names = append(names, name)
		}
	}
	return names, nil
}

func findTerm(items []termItem, displayName string) (string, bool) {
	for _, item := range items {
		if strings.EqualFold(item.Spec.DisplayName, displayName) {
			return item.Metadata.Name, true
		}
	}
	return "", false
}

package site

import "strings"

// Registry is the validated, read-only view of the configured sites that
// the engine consumes. Construction drops invalid sites and enforces the
// single-default invariant; mutators re-enforce it.
type Registry struct {
	sites []Site
}

// NewRegistry builds a registry from raw configured sites. Sites without a
// valid URL or token are excluded. When at least one site remains, exactly
// one ends up marked default: the first marked site wins, and when none is
// marked the first site becomes default.
func NewRegistry(sites []Site) *Registry {
	r := &Registry{}
	for _, s := range sites {
		if valid, ok := normalize(s); ok {
			r.sites = append(r.sites, valid)
		}
	}
	r.ensureDefault()
	return r
}

// Sites returns a copy of the registered sites in configuration order.
func (r *Registry) Sites() []Site {
	return append([]Site(nil), r.sites...)
}

// Len returns the number of registered sites.
func (r *Registry) Len() int { return len(r.sites) }

// Default returns the default site.
func (r *Registry) Default() (Site, bool) {
	for _, s := range r.sites {
		if s.Default {
			return s, true
		}
	}
	return Site{}, false
}

// ByURL returns the site whose canonical URL matches raw (normalized
// before comparison).
func (r *Registry) ByURL(raw string) (Site, bool) {
	want := NormalizeURL(raw)
	if want == "" {
		return Site{}, false
	}
	for _, s := range r.sites {
		if s.URL == want {
			return s, true
		}
	}
	return Site{}, false
}

// Lookup resolves a site by name first, then by URL.
func (r *Registry) Lookup(nameOrURL string) (Site, bool) {
	needle := strings.TrimSpace(nameOrURL)
	if needle == "" {
		return Site{}, false
	}
	for _, s := range r.sites {
		if s.Name != "" && s.Name == needle {
			return s, true
		}
	}
	return r.ByURL(needle)
}

// Add registers a site, replacing any existing entry with the same
// canonical URL. Returns false when the site is invalid.
func (r *Registry) Add(s Site) bool {
	valid, ok := normalize(s)
	if !ok {
		return false
	}
	replaced := false
	for i, existing := range r.sites {
		if existing.URL == valid.URL {
			if valid.ID == "" {
				valid.ID = existing.ID
			}
			r.sites[i] = valid
			replaced = true
			break
		}
	}
	if !replaced {
		r.sites = append(r.sites, valid)
	}
	r.ensureDefault()
	return true
}

// Remove drops the site matching nameOrURL. Returns false when no site
// matched.
func (r *Registry) Remove(nameOrURL string) bool {
	target, ok := r.Lookup(nameOrURL)
	if !ok {
		return false
	}
	out := r.sites[:0]
	for _, s := range r.sites {
		if s.ID != target.ID {
			out = append(out, s)
		}
	}
	r.sites = out
	r.ensureDefault()
	return true
}

// SetDefault marks the site matching nameOrURL as the default and clears
// the flag on every other site. Returns false when no site matched.
func (r *Registry) SetDefault(nameOrURL string) bool {
	target, ok := r.Lookup(nameOrURL)
	if !ok {
		return false
	}
	for i := range r.sites {
		r.sites[i].Default = r.sites[i].ID == target.ID
	}
	return true
}

// ensureDefault enforces the invariant: with at least one site, exactly one
// carries the default flag.
func (r *Registry) ensureDefault() {
	if len(r.sites) == 0 {
		return
	}
	seen := false
	for i := range r.sites {
		if !r.sites[i].Default {
			continue
		}
		if seen {
			r.sites[i].Default = false
			continue
		}
		seen = true
	}
	if !seen {
		r.sites[0].Default = true
	}
}

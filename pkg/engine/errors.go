package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrCanceled is returned when an interactive site selection is
	// abandoned. It signals a clean stop, not a failure.
	ErrCanceled = errors.New("publish canceled")

	// ErrNoSites is returned when no sites are configured at all.
	ErrNoSites = errors.New("no sites configured")

	// ErrNoDefaultSite is returned when the default site was requested but
	// none is configured.
	ErrNoDefaultSite = errors.New("no default site configured")

	// ErrEmptyDocument is returned when the document body is blank.
	ErrEmptyDocument = errors.New("document body is empty")

	// ErrNotLinked is returned by Pull when the document carries no remote
	// linkage to pull from.
	ErrNotLinked = errors.New("document is not linked to a remote post")
)

// SiteMismatchError is returned when the document's linked site differs from
// the explicitly selected target site. Publishing would silently relink the
// document, so the operation stops before any remote write.
type SiteMismatchError struct {
	Linked string
	Target string
}

func (e *SiteMismatchError) Error() string {
	return fmt.Sprintf("document is linked to %s, not %s", e.Linked, e.Target)
}

// SiteNotConfiguredError is returned when a referenced site is not in the
// registry.
type SiteNotConfiguredError struct {
	Ref string
}

func (e *SiteNotConfiguredError) Error() string {
	return fmt.Sprintf("site %q is not configured", e.Ref)
}

// PostNotFoundError is returned by Pull when the linked post cannot be
// fetched from the remote site.
type PostNotFoundError struct {
	Name string
}

func (e *PostNotFoundError) Error() string {
	return fmt.Sprintf("post %q not found on the remote site", e.Name)
}

package overlay

import (
	"net/url"
	"path"
	"strings"
)

// SpineItem is a reading-order entry of the publication.
type SpineItem struct {
	IDRef string
	Href  string
}

// Resolver is the manifest collaborator used to tie text leaves to spine
// items. Both resolve methods must produce references comparable with ==.
type Resolver interface {
	// ResolveMediaOverlayRef turns a reference already made relative to
	// the package root into an absolute reference.
	ResolveMediaOverlayRef(ref string) string
	// ResolveItemHref resolves a spine item's href the same way.
	ResolveItemHref(href string) string
	SpineItems() []SpineItem
}

// ResolveContentRef resolves ref, found inside the document at sourceHref,
// into a reference relative to the package root. Absolute URLs and
// root-relative paths are returned unchanged.
func ResolveContentRef(ref, sourceHref string) string {
	if sourceHref == "" || ref == "" {
		return ref
	}
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		return ref
	}
	if strings.HasPrefix(ref, "/") {
		return ref
	}

	dir := path.Dir(sourceHref)
	if dir == "." {
		return path.Clean(ref)
	}
	return path.Join(dir, ref)
}

// resolveText sets the manifest item id of a text leaf from the spine item
// whose resolved href equals the leaf's resolved source. It reports false
// when no spine item matched.
func (m *Model) resolveText(t *Text) bool {
	if m.Href == "" {
		// Blank placeholder document, nothing to resolve against.
		return true
	}
	if m.resolver == nil {
		return false
	}

	src := t.SrcFile
	if src == "" {
		src = t.Src
	}
	full := m.resolver.ResolveMediaOverlayRef(ResolveContentRef(src, m.Href))

	for _, item := range m.resolver.SpineItems() {
		if m.resolver.ResolveItemHref(item.Href) == full {
			t.ManifestItemID = item.IDRef
			return true
		}
	}
	return false
}

package overlay

import "strings"

// AddSync registers every whitespace-separated token of epubTypes as a
// declared synchronization category, preserving first-seen order.
func (m *Model) AddSync(epubTypes string) {
	for _, tag := range strings.Fields(epubTypes) {
		if !m.HasSync(tag) {
			m.syncs = append(m.syncs, tag)
		}
	}
}

// HasSync reports whether tag was declared by any node of the document.
func (m *Model) HasSync(tag string) bool {
	for _, s := range m.syncs {
		if s == tag {
			return true
		}
	}
	return false
}

// Syncs returns the declared categories in first-seen order.
func (m *Model) Syncs() []string {
	out := make([]string, len(m.syncs))
	copy(out, m.syncs)
	return out
}

package overlay

import "strings"

// IsEscapable reports whether playback may jump out of the structure that
// node belongs to. override replaces the context's default vocabulary when
// non-empty.
func (m *Model) IsEscapable(id NodeID, override []string) bool {
	return m.matchesCategory(id, override, func(c *Context) []string { return c.Escapables })
}

// IsSkippable reports whether playback may skip node entirely. override
// replaces the context's default vocabulary when non-empty.
func (m *Model) IsSkippable(id NodeID, override []string) bool {
	return m.matchesCategory(id, override, func(c *Context) []string { return c.Skippables })
}

// matchesCategory uses substring containment, not token equality: a node
// typed "footnote" matches the candidate "note".
func (m *Model) matchesCategory(id NodeID, override []string, defaults func(*Context) []string) bool {
	n := m.Node(id)
	if n == nil || n.EpubType == "" {
		return false
	}
	if m.ctx == nil {
		return false
	}

	candidates := defaults(m.ctx)
	if len(override) > 0 {
		candidates = override
	}
	for _, c := range candidates {
		if strings.Contains(n.EpubType, c) {
			return true
		}
	}
	return false
}

// FirstAncestorWithEpubType walks up from id (or from its parent when
// includeSelf is false) and returns the first node whose category tags
// contain epubType.
func (m *Model) FirstAncestorWithEpubType(id NodeID, epubType string, includeSelf bool) (NodeID, bool) {
	n := m.Node(id)
	if n == nil || epubType == "" {
		return NoNode, false
	}

	cur := n.Parent
	if includeSelf {
		cur = n.ID
	}
	for cur != NoNode {
		node := &m.nodes[cur]
		if node.EpubType != "" && strings.Contains(node.EpubType, epubType) {
			return cur, true
		}
		cur = node.Parent
	}
	return NoNode, false
}

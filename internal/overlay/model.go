package overlay

// Context is the media-overlay context shared by every document of a
// publication: default category vocabularies and importer switches.
type Context struct {
	Escapables     []string
	Skippables     []string
	Debug          bool // emit verbose diagnostics
	ForceSynthetic bool // replace every audio leaf with a synthetic one
}

// Model is an imported media overlay document. It owns every node of the
// tree and is read-only once FromDTO returns.
type Model struct {
	ID          string   // manifest item id of the SMIL file
	SpineItemID string   // reading-order item this overlay narrates
	Href        string   // href of the SMIL file; empty for placeholders
	SmilVersion string
	Duration    *float64 // declared duration in seconds, nil if absent
	Children    []NodeID // top-level nodes; the first is the body seq

	nodes    []Node
	syncs    []string
	ctx      *Context
	resolver Resolver
}

// Context returns the media-overlay context, or nil when the model was
// imported without one.
func (m *Model) Context() *Context {
	return m.ctx
}

// Resolver returns the manifest collaborator used during import.
func (m *Model) Resolver() Resolver {
	return m.resolver
}

// Len returns the number of nodes in the model.
func (m *Model) Len() int {
	return len(m.nodes)
}

// Node returns the node with the given id, or nil if id is out of range.
// The returned node must not be modified.
func (m *Model) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(m.nodes) {
		return nil
	}
	return &m.nodes[id]
}

// Seq returns the payload of a seq node.
func (m *Model) Seq(id NodeID) (*Seq, bool) {
	n := m.Node(id)
	if n == nil {
		return nil, false
	}
	s, ok := n.Data.(*Seq)
	return s, ok
}

// Par returns the payload of a par node.
func (m *Model) Par(id NodeID) (*Par, bool) {
	n := m.Node(id)
	if n == nil {
		return nil, false
	}
	p, ok := n.Data.(*Par)
	return p, ok
}

// Text returns the payload of a text leaf.
func (m *Model) Text(id NodeID) (*Text, bool) {
	n := m.Node(id)
	if n == nil {
		return nil, false
	}
	t, ok := n.Data.(*Text)
	return t, ok
}

// Audio returns the payload of an audio leaf.
func (m *Model) Audio(id NodeID) (*Audio, bool) {
	n := m.Node(id)
	if n == nil {
		return nil, false
	}
	a, ok := n.Data.(*Audio)
	return a, ok
}

// FindByXMLID returns the first node, in creation order, carrying the given
// source id attribute.
func (m *Model) FindByXMLID(xmlID string) (NodeID, bool) {
	if xmlID == "" {
		return NoNode, false
	}
	for i := range m.nodes {
		if m.nodes[i].XMLID == xmlID && m.attached(m.nodes[i].ID) {
			return m.nodes[i].ID, true
		}
	}
	return NoNode, false
}

// attached reports whether no ancestor of id, id included, was dropped
// during import.
func (m *Model) attached(id NodeID) bool {
	for id != NoNode {
		if m.nodes[id].dropped {
			return false
		}
		id = m.nodes[id].Parent
	}
	return true
}

// Root walks parent links up from id and returns the top-most node.
func (m *Model) Root(id NodeID) NodeID {
	n := m.Node(id)
	if n == nil {
		return NoNode
	}
	for n.Parent != NoNode {
		n = &m.nodes[n.Parent]
	}
	return n.ID
}

// HasAncestor reports whether anc appears on the parent chain of id.
func (m *Model) HasAncestor(id, anc NodeID) bool {
	n := m.Node(id)
	if n == nil {
		return false
	}
	for p := n.Parent; p != NoNode; p = m.nodes[p].Parent {
		if p == anc {
			return true
		}
	}
	return false
}

// body returns the first top-level node, which all whole-document queries
// delegate to.
func (m *Model) body() (NodeID, bool) {
	if len(m.Children) == 0 {
		return NoNode, false
	}
	return m.Children[0], true
}

// DurationMillisecondsCalculated sums the clip durations of the document
// body, counting only audio that narrates this document's spine item.
func (m *Model) DurationMillisecondsCalculated() float64 {
	body, ok := m.body()
	if !ok {
		return 0
	}
	return m.DurationMilliseconds(body)
}

// ParallelAt returns the par playing at the given offset into the document.
func (m *Model) ParallelAt(timeMs float64) (NodeID, bool) {
	body, ok := m.body()
	if !ok {
		return NoNode, false
	}
	return m.SeqParallelAt(body, timeMs)
}

// NthParallel returns the par with the given 0-based ordinal in document
// order.
func (m *Model) NthParallel(index int) (NodeID, bool) {
	body, ok := m.body()
	if !ok {
		return NoNode, false
	}
	found, _ := m.nthParallel(body, index, -1)
	return found, found != NoNode
}

// ClipOffset returns the offset, in milliseconds, at which par starts
// playing within the document. ok is false when par is not in the body.
func (m *Model) ClipOffset(par NodeID) (float64, bool) {
	body, ok := m.body()
	if !ok {
		return 0, false
	}
	offset, found := m.clipOffset(body, par, 0)
	if !found {
		return 0, false
	}
	return offset, true
}

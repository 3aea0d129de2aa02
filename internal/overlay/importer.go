package overlay

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/smilq/internal/dto"
)

// DefaultMaxDepth bounds the nesting accepted from untrusted input.
const DefaultMaxDepth = 256

// ErrNilDocument is returned by FromDTO when there is nothing to import.
var ErrNilDocument = errors.New("overlay: nil document")

// Options configures FromDTO.
type Options struct {
	Context  *Context // media-overlay context; nil disables escapability
	Resolver Resolver // manifest collaborator; nil leaves text leaves unresolved
	Sink     Sink     // diagnostics; nil discards them
	MaxDepth int      // 0 means DefaultMaxDepth
}

type importer struct {
	m        *Model
	sink     Sink
	debug    bool
	force    bool
	maxDepth int
}

// FromDTO builds a Model from an untrusted input tree. Content problems
// never fail the import: they are reported to opts.Sink and the affected
// field or subtree is defaulted or dropped.
func FromDTO(doc *dto.Document, opts Options) (*Model, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}

	imp := &importer{
		m: &Model{
			ID:          doc.ID,
			SpineItemID: doc.SpineItemID,
			Href:        doc.Href,
			SmilVersion: doc.SmilVersion,
			ctx:         opts.Context,
			resolver:    opts.Resolver,
		},
		sink:     opts.Sink,
		maxDepth: opts.MaxDepth,
	}
	if imp.sink == nil {
		imp.sink = discard{}
	}
	if imp.maxDepth <= 0 {
		imp.maxDepth = DefaultMaxDepth
	}
	if opts.Context != nil {
		imp.debug = opts.Context.Debug
		imp.force = opts.Context.ForceSynthetic
	}

	if doc.Duration != nil {
		d, coerced, ok := coerceNumber(doc.Duration)
		if coerced {
			imp.report(DiagCoerced, slog.LevelWarn, "", "duration is %T, parsed as number (%v)", doc.Duration, doc.Duration)
		}
		if ok {
			imp.m.Duration = &d
		}
	}

	for i := range doc.Children {
		id := imp.build(&doc.Children[i], NoNode, i, 1, "")
		if id != NoNode {
			imp.m.Children = append(imp.m.Children, id)
		}
	}

	return imp.m, nil
}

func (imp *importer) report(kind DiagKind, level slog.Level, path, format string, args ...any) {
	imp.sink.Report(Diagnostic{
		Kind:   kind,
		Level:  level,
		Path:   path,
		Detail: fmt.Sprintf(format, args...),
	})
}

// verbose reports a diagnostic only when the context asks for debug output.
func (imp *importer) verbose(kind DiagKind, path, format string, args ...any) {
	if imp.debug {
		imp.report(kind, slog.LevelDebug, path, format, args...)
	}
}

func (imp *importer) add(n Node) NodeID {
	n.ID = NodeID(len(imp.m.nodes))
	imp.m.nodes = append(imp.m.nodes, n)
	return n.ID
}

// build creates the node for in under parent and returns its id, or NoNode
// when the subtree was dropped.
func (imp *importer) build(in *dto.Node, parent NodeID, index, depth int, parentPath string) NodeID {
	path := fmt.Sprintf("%s[%d]", in.NodeType, index)
	if in.NodeType == "" {
		path = fmt.Sprintf("?[%d]", index)
	}
	if parentPath != "" {
		path = parentPath + "/" + path
	}

	if depth > imp.maxDepth {
		imp.report(DiagTooDeep, slog.LevelError, path, "nesting exceeds %d levels, subtree dropped", imp.maxDepth)
		return NoNode
	}

	switch in.NodeType {
	case dto.TypeSeq:
		return imp.buildSeq(in, parent, index, depth, path)
	case dto.TypePar:
		return imp.buildPar(in, parent, index, depth, path)
	case dto.TypeText:
		return imp.buildText(in, parent, index, path)
	case dto.TypeAudio:
		return imp.buildAudio(in, parent, index, path)
	default:
		imp.report(DiagUnexpectedKind, slog.LevelError, path, "unexpected smil node type %q", in.NodeType)
		return NoNode
	}
}

func (imp *importer) buildSeq(in *dto.Node, parent NodeID, index, depth int, path string) NodeID {
	seq := &Seq{}
	n := Node{Kind: KindSeq, Parent: parent, Index: index, Data: seq}

	switch {
	case in.TextRef != nil:
		seq.TextRef = *in.TextRef
	case parent != NoNode:
		// Only the body seq may omit its textref.
		imp.report(DiagMissingRequired, slog.LevelInfo, path, "required property textref not found")
	}
	if in.ID != nil {
		n.XMLID = *in.ID
	}
	if in.EpubType != nil {
		n.EpubType = *in.EpubType
	}

	id := imp.add(n)
	if n.EpubType != "" {
		imp.m.AddSync(n.EpubType)
	}

	for i := range in.Children {
		child := imp.build(&in.Children[i], id, i, depth+1, path)
		if child == NoNode {
			continue
		}
		// Misplaced leaves are built for their diagnostics, then left
		// unreachable in the arena.
		if k := imp.m.nodes[child].Kind; k == KindText || k == KindAudio {
			imp.report(DiagUnexpectedChild, slog.LevelError, path, "seq cannot contain %s[%d], child dropped", k, i)
			imp.m.nodes[child].dropped = true
			continue
		}
		seq.Children = append(seq.Children, child)
	}
	return id
}

func (imp *importer) buildPar(in *dto.Node, parent NodeID, index, depth int, path string) NodeID {
	par := &Par{Text: NoNode, Audio: NoNode}
	n := Node{Kind: KindPar, Parent: parent, Index: index, Data: par}
	if in.ID != nil {
		n.XMLID = *in.ID
	}
	if in.EpubType != nil {
		n.EpubType = *in.EpubType
	}

	id := imp.add(n)
	if n.EpubType != "" {
		imp.m.AddSync(n.EpubType)
	}

	for i := range in.Children {
		child := imp.build(&in.Children[i], id, i, depth+1, path)
		if child == NoNode {
			continue
		}
		switch k := imp.m.nodes[child].Kind; k {
		case KindText:
			if par.Text != NoNode {
				imp.m.nodes[par.Text].dropped = true
			}
			par.Text = child
		case KindAudio:
			if par.Audio != NoNode {
				imp.m.nodes[par.Audio].dropped = true
			}
			par.Audio = child
		default:
			// Built so that its sync tags and diagnostics are recorded.
			imp.report(DiagUnexpectedChild, slog.LevelError, path, "unexpected smil node type %s[%d] inside par, child dropped", k, i)
			imp.m.nodes[child].dropped = true
		}
	}

	if imp.force || par.Audio == NoNode {
		// Synthetic speech, embedded media or blank page.
		par.Audio = imp.add(Node{
			Kind:   KindAudio,
			Parent: id,
			Index:  len(in.Children),
			Data:   &Audio{ClipBegin: 0, ClipEnd: ClipEndOpen, Synthetic: true},
		})
	}
	return id
}

func (imp *importer) buildText(in *dto.Node, parent NodeID, index int, path string) NodeID {
	text := &Text{}
	n := Node{Kind: KindText, Parent: parent, Index: index, Data: text}

	if in.Src != nil {
		text.Src = *in.Src
	} else {
		imp.report(DiagMissingRequired, slog.LevelWarn, path, "required property src not found")
	}
	if in.SrcFile != nil {
		text.SrcFile = *in.SrcFile
	} else {
		imp.report(DiagMissingRequired, slog.LevelInfo, path, "required property srcFile not found")
	}
	if in.SrcFragmentID != nil {
		text.SrcFragmentID = *in.SrcFragmentID
	}
	if in.ID != nil {
		n.XMLID = *in.ID
	}

	id := imp.add(n)
	if !imp.m.resolveText(text) {
		imp.report(DiagUnresolvedText, slog.LevelError, path, "cannot set the manifest item id of %q in %q", text.Src, imp.m.Href)
	}
	return id
}

func (imp *importer) buildAudio(in *dto.Node, parent NodeID, index int, path string) NodeID {
	audio := &Audio{ClipBegin: 0, ClipEnd: ClipEndOpen}
	n := Node{Kind: KindAudio, Parent: parent, Index: index, Data: audio}

	if in.Src != nil {
		audio.Src = *in.Src
	} else {
		imp.report(DiagMissingRequired, slog.LevelWarn, path, "required property src not found")
	}
	if in.ID != nil {
		n.XMLID = *in.ID
	}

	if in.ClipBegin != nil {
		audio.ClipBegin = imp.clipValue(in.ClipBegin, "clipBegin", 0, path)
	}
	if audio.ClipBegin < 0 {
		imp.verbose(DiagNormalized, path, "clipBegin %v adjusted to zero", audio.ClipBegin)
		audio.ClipBegin = 0
	}

	if in.ClipEnd != nil {
		audio.ClipEnd = imp.clipValue(in.ClipEnd, "clipEnd", ClipEndOpen, path)
	}
	if audio.ClipEnd <= audio.ClipBegin {
		imp.verbose(DiagNormalized, path, "clipEnd %v adjusted to open end", audio.ClipEnd)
		audio.ClipEnd = ClipEndOpen
	}

	return imp.add(n)
}

// clipValue reads a clip field, falling back to def when no number can be
// read from it.
func (imp *importer) clipValue(v any, field string, def float64, path string) float64 {
	f, coerced, ok := coerceNumber(v)
	if coerced {
		imp.report(DiagCoerced, slog.LevelWarn, path, "%s is %T, parsed as number (%v)", field, v, v)
	}
	if !ok {
		imp.report(DiagCoerced, slog.LevelWarn, path, "%s %v is not a number, using %v", field, v, def)
		return def
	}
	return f
}

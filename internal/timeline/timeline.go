// Package timeline flattens an imported media overlay into the ordered list
// of pars a player steps through, with their offsets on the document clock.
package timeline

import (
	"sort"

	"github.com/dgallion1/smilq/internal/overlay"
)

// Entry is one par of the flattened document.
type Entry struct {
	Ordinal    int // 0-based, every par counted, as NthParallel
	Par        overlay.NodeID
	XMLID      string
	BeginMs    float64
	EndMs      float64
	Qualifies  bool     // contributes to the document clock
	Breadcrumb []string // labels of the enclosing seqs, outermost first

	TextSrc  string // package-relative content document, empty without text
	Fragment string
	Text     string // fragment text, filled when Options.TextSource is set

	AudioSrc  string
	ClipBegin float64 // seconds
	ClipEnd   float64
	Synthetic bool

	Escapable bool
	Skippable bool
}

// DurationMs returns the span the entry occupies on the document clock.
func (e Entry) DurationMs() float64 { return e.EndMs - e.BeginMs }

// TextSource looks up the text of a fragment in a content document.
type TextSource func(src, fragment string) (string, bool)

// Options controls Build.
type Options struct {
	Escapables  []string // override the context vocabulary when non-empty
	Skippables  []string
	AudibleOnly bool // drop entries that do not advance the clock
	TextSource  TextSource
}

// Timeline is the flattened document.
type Timeline struct {
	SpineItemID string
	Entries     []Entry
	DurationMs  float64
}

// Build walks the model body in document order.
func Build(m *overlay.Model, opts Options) *Timeline {
	tl := &Timeline{SpineItemID: m.SpineItemID}
	if len(m.Children) == 0 {
		return tl
	}

	w := walker{m: m, opts: opts, tl: tl}
	w.walkSeq(m.Children[0], nil, false, false, 0)
	tl.DurationMs = m.DurationMillisecondsCalculated()

	if opts.AudibleOnly {
		kept := tl.Entries[:0]
		for _, e := range tl.Entries {
			if e.Qualifies && e.DurationMs() > 0 {
				kept = append(kept, e)
			}
		}
		tl.Entries = kept
	}
	return tl
}

type walker struct {
	m       *overlay.Model
	opts    Options
	tl      *Timeline
	ordinal int
}

// walkSeq visits the children of seq and returns the clock offset after
// them. escapable and skippable carry the flags inherited from enclosing
// seqs.
func (w *walker) walkSeq(seq overlay.NodeID, breadcrumb []string, escapable, skippable bool, offset float64) float64 {
	s, ok := w.m.Seq(seq)
	if !ok {
		return offset
	}

	for _, child := range s.Children {
		n := w.m.Node(child)
		switch n.Kind {
		case overlay.KindSeq:
			bc := breadcrumb
			if label := seqLabel(n); label != "" {
				bc = append(copyBreadcrumb(breadcrumb), label)
			}
			offset = w.walkSeq(child, bc,
				escapable || w.m.IsEscapable(child, w.opts.Escapables),
				skippable || w.m.IsSkippable(child, w.opts.Skippables),
				offset)
		case overlay.KindPar:
			offset = w.visitPar(n, breadcrumb, escapable, skippable, offset)
		}
	}
	return offset
}

func (w *walker) visitPar(n *overlay.Node, breadcrumb []string, escapable, skippable bool, offset float64) float64 {
	par, _ := w.m.Par(n.ID)

	e := Entry{
		Ordinal:    w.ordinal,
		Par:        n.ID,
		XMLID:      n.XMLID,
		BeginMs:    offset,
		EndMs:      offset,
		Qualifies:  w.m.Qualifies(n.ID),
		Breadcrumb: copyBreadcrumb(breadcrumb),
		Escapable:  escapable || w.m.IsEscapable(n.ID, w.opts.Escapables),
		Skippable:  skippable || w.m.IsSkippable(n.ID, w.opts.Skippables),
	}
	w.ordinal++

	if audio, ok := w.m.Audio(par.Audio); ok {
		e.AudioSrc = audio.Src
		e.ClipBegin = audio.ClipBegin
		e.ClipEnd = audio.ClipEnd
		e.Synthetic = audio.Synthetic
		if e.Qualifies {
			e.EndMs = offset + audio.ClipDurationMilliseconds()
		}
	}

	if text, ok := w.m.Text(par.Text); ok {
		src := text.SrcFile
		if src == "" {
			src = text.Src
		}
		e.TextSrc = overlay.ResolveContentRef(src, w.m.Href)
		e.Fragment = text.SrcFragmentID
		if w.opts.TextSource != nil && e.TextSrc != "" {
			if s, ok := w.opts.TextSource(e.TextSrc, e.Fragment); ok {
				e.Text = s
			}
		}
	}

	w.tl.Entries = append(w.tl.Entries, e)
	return e.EndMs
}

// At returns the entry playing at timeMs. Spans are half-open; the end of
// the document belongs to the last audible entry.
func (t *Timeline) At(timeMs float64) (Entry, bool) {
	audible := t.audible()
	i := sort.Search(len(audible), func(i int) bool { return audible[i].EndMs > timeMs })
	if i < len(audible) && audible[i].BeginMs <= timeMs {
		return audible[i], true
	}
	if len(audible) > 0 && timeMs == audible[len(audible)-1].EndMs {
		return audible[len(audible)-1], true
	}
	return Entry{}, false
}

// Find returns the entry for the par carrying xmlID.
func (t *Timeline) Find(xmlID string) (Entry, bool) {
	for _, e := range t.Entries {
		if e.XMLID == xmlID {
			return e, true
		}
	}
	return Entry{}, false
}

func (t *Timeline) audible() []Entry {
	var out []Entry
	for _, e := range t.Entries {
		if e.Qualifies && e.DurationMs() > 0 {
			out = append(out, e)
		}
	}
	return out
}

func seqLabel(n *overlay.Node) string {
	if n.EpubType != "" {
		return n.EpubType
	}
	return n.XMLID
}

func copyBreadcrumb(bc []string) []string {
	if len(bc) == 0 {
		return nil
	}
	out := make([]string, len(bc))
	copy(out, bc)
	return out
}

package overlay

import (
	"log/slog"
	"testing"

	"github.com/dgallion1/smilq/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDTO_NilDocument(t *testing.T) {
	_, err := FromDTO(nil, Options{})
	require.ErrorIs(t, err, ErrNilDocument)
}

func TestFromDTO_Fixture(t *testing.T) {
	m, diags := importFixture(Options{Context: testContext()})

	assert.Equal(t, "mo-chap1", m.ID)
	assert.Equal(t, "chap1", m.SpineItemID)
	assert.Equal(t, "3.0", m.SmilVersion)
	require.NotNil(t, m.Duration)
	assert.InDelta(t, 7.5, *m.Duration, 1e-9)
	require.Len(t, m.Children, 1)
	assert.Empty(t, diags.Diagnostics, "fixture imports cleanly")

	p2 := mustFind(m, "p2")
	par, ok := m.Par(p2)
	require.True(t, ok)
	text, ok := m.Text(par.Text)
	require.True(t, ok)
	assert.Equal(t, "chap1", text.ManifestItemID)
	assert.Equal(t, "b", text.SrcFragmentID)

	s1 := mustFind(m, "s1")
	assert.Equal(t, 1, m.Node(s1).Index)
	assert.Equal(t, 0, m.Node(p2).Index)
	assert.Equal(t, "../text/chap1.xhtml#sec", mustSeq(t, m, s1).TextRef)
}

func mustSeq(t *testing.T, m *Model, id NodeID) *Seq {
	t.Helper()
	s, ok := m.Seq(id)
	require.True(t, ok)
	return s
}

func TestFromDTO_SynthesizesMissingAudio(t *testing.T) {
	m, _ := importFixture(Options{})

	par, ok := m.Par(mustFind(m, "p5"))
	require.True(t, ok)
	audio, ok := m.Audio(par.Audio)
	require.True(t, ok, "audio leaf is never absent after import")
	assert.True(t, audio.Synthetic)
	assert.Zero(t, audio.ClipBegin)
	assert.Equal(t, ClipEndOpen, audio.ClipEnd)
	assert.Equal(t, mustFind(m, "p5"), m.Node(par.Audio).Parent)
}

func TestFromDTO_ForceSynthetic(t *testing.T) {
	m, _ := importFixture(Options{Context: &Context{ForceSynthetic: true}})

	for _, xmlID := range []string{"p1", "p2", "p3", "p4", "p5"} {
		par, _ := m.Par(mustFind(m, xmlID))
		audio, ok := m.Audio(par.Audio)
		require.True(t, ok)
		assert.True(t, audio.Synthetic, xmlID)
	}
	assert.Zero(t, m.DurationMillisecondsCalculated())
}

func TestFromDTO_DegenerateClip(t *testing.T) {
	c := &Collector{}
	doc := &dto.Document{
		SpineItemID: "chap1",
		Children: []dto.Node{{
			NodeType: dto.TypeSeq,
			Children: []dto.Node{parNode("p", audioNode(3.0, 1.0))},
		}},
	}
	m, err := FromDTO(doc, Options{Sink: c})
	require.NoError(t, err)

	par, _ := m.Par(mustFind(m, "p"))
	audio, _ := m.Audio(par.Audio)
	assert.False(t, audio.Synthetic)
	assert.Equal(t, 3.0, audio.ClipBegin)
	assert.Equal(t, ClipEndOpen, audio.ClipEnd)
	assert.Zero(t, audio.ClipDurationMilliseconds())
	assert.Zero(t, c.Count(DiagNormalized), "normalization is only reported in debug mode")
}

func TestFromDTO_NormalizationVerbose(t *testing.T) {
	c := &Collector{}
	doc := &dto.Document{
		Children: []dto.Node{{
			NodeType: dto.TypeSeq,
			Children: []dto.Node{parNode("p", audioNode(-1.0, -0.5))},
		}},
	}
	m, err := FromDTO(doc, Options{Sink: c, Context: &Context{Debug: true}})
	require.NoError(t, err)

	par, _ := m.Par(mustFind(m, "p"))
	audio, _ := m.Audio(par.Audio)
	assert.Zero(t, audio.ClipBegin, "negative clipBegin clamps to zero")
	assert.Equal(t, ClipEndOpen, audio.ClipEnd)
	assert.Equal(t, 2, c.Count(DiagNormalized))
	for _, d := range c.Diagnostics {
		assert.Equal(t, slog.LevelDebug, d.Level)
	}
}

func TestFromDTO_CoercesStringNumbers(t *testing.T) {
	c := &Collector{}
	doc := &dto.Document{
		Duration: "12.5",
		Children: []dto.Node{{
			NodeType: dto.TypeSeq,
			Children: []dto.Node{parNode("p", audioNode("2.0", "5.0s"))},
		}},
	}
	m, err := FromDTO(doc, Options{Sink: c})
	require.NoError(t, err)

	require.NotNil(t, m.Duration)
	assert.Equal(t, 12.5, *m.Duration)
	par, _ := m.Par(mustFind(m, "p"))
	audio, _ := m.Audio(par.Audio)
	assert.Equal(t, 2.0, audio.ClipBegin)
	assert.Equal(t, 5.0, audio.ClipEnd)
	assert.InDelta(t, 3000, audio.ClipDurationMilliseconds(), 1e-9)
	assert.Equal(t, 3, c.Count(DiagCoerced))
}

func TestFromDTO_UnparseableClipFallsBack(t *testing.T) {
	c := &Collector{}
	doc := &dto.Document{
		Children: []dto.Node{{
			NodeType: dto.TypeSeq,
			Children: []dto.Node{parNode("p", audioNode("soon", "later"))},
		}},
	}
	m, err := FromDTO(doc, Options{Sink: c})
	require.NoError(t, err)

	par, _ := m.Par(mustFind(m, "p"))
	audio, _ := m.Audio(par.Audio)
	assert.Zero(t, audio.ClipBegin)
	assert.Equal(t, ClipEndOpen, audio.ClipEnd)
	assert.Equal(t, 4, c.Count(DiagCoerced))
}

func TestFromDTO_UnknownKindDropsSubtree(t *testing.T) {
	c := &Collector{}
	doc := &dto.Document{
		Children: []dto.Node{{
			NodeType: dto.TypeSeq,
			Children: []dto.Node{
				parNode("a", audioNode(0.0, 1.0)),
				{NodeType: "video", Children: []dto.Node{parNode("hidden", audioNode(1.0, 2.0))}},
				parNode("b", audioNode(1.0, 2.0)),
			},
		}},
	}
	m, err := FromDTO(doc, Options{Sink: c})
	require.NoError(t, err)

	body := mustSeq(t, m, m.Children[0])
	require.Len(t, body.Children, 2)
	assert.Equal(t, 2, m.Node(body.Children[1]).Index, "index keeps the source position")
	_, found := m.FindByXMLID("hidden")
	assert.False(t, found)

	require.Equal(t, 1, c.Count(DiagUnexpectedKind))
	assert.Equal(t, "seq[0]/video[1]", c.Diagnostics[0].Path)
	assert.Equal(t, slog.LevelError, c.Diagnostics[0].Level)
}

func TestFromDTO_MisplacedChildren(t *testing.T) {
	c := &Collector{}
	doc := &dto.Document{
		Children: []dto.Node{{
			NodeType: dto.TypeSeq,
			Children: []dto.Node{
				audioNode(0.0, 1.0),
				parNode("p", dto.Node{NodeType: dto.TypeSeq}, audioNode(0.0, 1.0)),
			},
		}},
	}
	m, err := FromDTO(doc, Options{Sink: c})
	require.NoError(t, err)

	assert.Equal(t, 2, c.Count(DiagUnexpectedChild))
	body := mustSeq(t, m, m.Children[0])
	require.Len(t, body.Children, 1)
	par, _ := m.Par(body.Children[0])
	assert.Equal(t, NoNode, par.Text)
	audio, _ := m.Audio(par.Audio)
	assert.False(t, audio.Synthetic)
}

func TestFromDTO_MisplacedChildrenStillDeclareSyncTags(t *testing.T) {
	c := &Collector{}
	aside := dto.Node{
		NodeType: dto.TypeSeq,
		ID:       dto.String("dup"),
		EpubType: dto.String("aside"),
		TextRef:  dto.String("chap1.xhtml#x"),
		Children: []dto.Node{parNode("inner", audioNode(0.0, 1.0))},
	}
	doc := &dto.Document{
		Children: []dto.Node{{
			NodeType: dto.TypeSeq,
			Children: []dto.Node{
				parNode("p", aside, audioNode(0.0, 1.0)),
				parNode("dup", audioNode(1.0, 2.0)),
			},
		}},
	}
	m, err := FromDTO(doc, Options{Sink: c})
	require.NoError(t, err)

	assert.True(t, m.HasSync("aside"))
	require.Equal(t, 1, c.Count(DiagUnexpectedChild))
	for _, d := range c.Diagnostics {
		if d.Kind == DiagUnexpectedChild {
			assert.Equal(t, "seq[0]/par[0]", d.Path)
		}
	}

	body := mustSeq(t, m, m.Children[0])
	require.Len(t, body.Children, 2)
	assert.Equal(t, 2, m.ParallelCount(m.Children[0]))
	assert.InDelta(t, 2000, m.DurationMillisecondsCalculated(), 1e-9)

	// Dropped subtrees are not searchable.
	dup, ok := m.FindByXMLID("dup")
	require.True(t, ok)
	assert.Equal(t, body.Children[1], dup)
	_, ok = m.FindByXMLID("inner")
	assert.False(t, ok)
}

func TestFromDTO_TextRefRequiredBelowTopLevel(t *testing.T) {
	c := &Collector{}
	doc := &dto.Document{
		Children: []dto.Node{{
			NodeType: dto.TypeSeq,
			Children: []dto.Node{{NodeType: dto.TypeSeq}},
		}},
	}
	_, err := FromDTO(doc, Options{Sink: c})
	require.NoError(t, err)

	require.Equal(t, 1, c.Count(DiagMissingRequired))
	assert.Equal(t, "seq[0]/seq[0]", c.Diagnostics[0].Path)
}

func TestFromDTO_UnresolvedTextIsNotFatal(t *testing.T) {
	c := &Collector{}
	doc := &dto.Document{
		SpineItemID: "chap1",
		Href:        "smil/chap1.smil",
		Children: []dto.Node{{
			NodeType: dto.TypeSeq,
			Children: []dto.Node{parNode("p", textNode("../text/missing.xhtml", "x"), audioNode(0.0, 1.0))},
		}},
	}
	m, err := FromDTO(doc, Options{Sink: c, Resolver: testResolver()})
	require.NoError(t, err)

	par, _ := m.Par(mustFind(m, "p"))
	text, _ := m.Text(par.Text)
	assert.Empty(t, text.ManifestItemID)
	assert.Equal(t, 1, c.Count(DiagUnresolvedText))
	assert.Zero(t, m.DurationMillisecondsCalculated(), "unresolved text never matches the spine item")
}

func TestFromDTO_PlaceholderSkipsResolution(t *testing.T) {
	c := &Collector{}
	doc := &dto.Document{
		SpineItemID: "blank",
		Children: []dto.Node{{
			NodeType: dto.TypeSeq,
			Children: []dto.Node{parNode("p", textNode("blank.xhtml", "x"))},
		}},
	}
	_, err := FromDTO(doc, Options{Sink: c, Resolver: testResolver()})
	require.NoError(t, err)
	assert.Zero(t, c.Count(DiagUnresolvedText))
}

func TestFromDTO_MissingRequiredLeafFields(t *testing.T) {
	c := &Collector{}
	doc := &dto.Document{
		Children: []dto.Node{{
			NodeType: dto.TypeSeq,
			Children: []dto.Node{parNode("p",
				dto.Node{NodeType: dto.TypeText},
				dto.Node{NodeType: dto.TypeAudio, ClipBegin: 0.0, ClipEnd: 1.0},
			)},
		}},
	}
	m, err := FromDTO(doc, Options{Sink: c})
	require.NoError(t, err)

	assert.Equal(t, 3, c.Count(DiagMissingRequired))
	par, _ := m.Par(mustFind(m, "p"))
	text, ok := m.Text(par.Text)
	require.True(t, ok, "leaf is still constructed")
	assert.Empty(t, text.Src)
}

func TestFromDTO_MaxDepth(t *testing.T) {
	c := &Collector{}
	deep := dto.Node{NodeType: dto.TypeSeq, TextRef: dto.String("x")}
	for range 5 {
		deep = dto.Node{NodeType: dto.TypeSeq, TextRef: dto.String("x"), Children: []dto.Node{deep}}
	}
	doc := &dto.Document{Children: []dto.Node{deep}}

	_, err := FromDTO(doc, Options{Sink: c, MaxDepth: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Count(DiagTooDeep))
}

func TestSyncs(t *testing.T) {
	m, _ := importFixture(Options{})
	assert.Equal(t, []string{"aside", "footnote"}, m.Syncs())

	m.AddSync("body-nav body-nav  pagebreak")
	assert.True(t, m.HasSync("body-nav"))
	assert.True(t, m.HasSync("pagebreak"))
	assert.False(t, m.HasSync("missing"))
	assert.False(t, m.HasSync("aside footnote"), "membership is per token")

	count := 0
	for _, s := range m.Syncs() {
		if s == "body-nav" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

package overlay

import (
	"path"

	"github.com/dgallion1/smilq/internal/dto"
)

type fakeResolver struct {
	items []SpineItem
}

func (r fakeResolver) ResolveMediaOverlayRef(ref string) string { return "/pkg/" + path.Clean(ref) }
func (r fakeResolver) ResolveItemHref(href string) string       { return "/pkg/" + path.Clean(href) }
func (r fakeResolver) SpineItems() []SpineItem                  { return r.items }

func testResolver() fakeResolver {
	return fakeResolver{items: []SpineItem{
		{IDRef: "chap1", Href: "text/chap1.xhtml"},
		{IDRef: "chap2", Href: "text/chap2.xhtml"},
	}}
}

func testContext() *Context {
	return &Context{
		Escapables: []string{"sidebar", "footnote", "table"},
		Skippables: []string{"pagebreak", "note"},
	}
}

func textNode(file, frag string) dto.Node {
	return dto.Node{
		NodeType:      dto.TypeText,
		Src:           dto.String(file + "#" + frag),
		SrcFile:       dto.String(file),
		SrcFragmentID: dto.String(frag),
	}
}

func audioNode(begin, end any) dto.Node {
	return dto.Node{NodeType: dto.TypeAudio, Src: dto.String("../audio/book.mp3"), ClipBegin: begin, ClipEnd: end}
}

func parNode(id string, children ...dto.Node) dto.Node {
	return dto.Node{NodeType: dto.TypePar, ID: dto.String(id), Children: children}
}

// fixtureDoc is the chapter-one overlay used across tests:
//
//	body
//	  p1  chap1#a  0-2s      (2000ms)
//	  s1  aside footnote
//	    p2  chap1#b  2-5s    (3000ms)
//	    p3  chap2#c  5-6s    (other spine item)
//	  p4  no text  6-7.5s    (1500ms)
//	  p5  chap1#d  no audio  (synthetic)
func fixtureDoc() *dto.Document {
	return &dto.Document{
		ID:          "mo-chap1",
		SpineItemID: "chap1",
		Href:        "smil/chap1.smil",
		SmilVersion: "3.0",
		Duration:    7.5,
		Children: []dto.Node{{
			NodeType: dto.TypeSeq,
			ID:       dto.String("body"),
			Children: []dto.Node{
				parNode("p1", textNode("../text/chap1.xhtml", "a"), audioNode(0.0, 2.0)),
				{
					NodeType: dto.TypeSeq,
					ID:       dto.String("s1"),
					EpubType: dto.String("aside footnote"),
					TextRef:  dto.String("../text/chap1.xhtml#sec"),
					Children: []dto.Node{
						parNode("p2", textNode("../text/chap1.xhtml", "b"), audioNode(2.0, 5.0)),
						parNode("p3", textNode("../text/chap2.xhtml", "c"), audioNode(5.0, 6.0)),
					},
				},
				parNode("p4", audioNode(6.0, 7.5)),
				parNode("p5", textNode("../text/chap1.xhtml", "d")),
			},
		}},
	}
}

func importFixture(opts Options) (*Model, *Collector) {
	c := &Collector{}
	if opts.Sink == nil {
		opts.Sink = c
	}
	if opts.Resolver == nil {
		opts.Resolver = testResolver()
	}
	m, err := FromDTO(fixtureDoc(), opts)
	if err != nil {
		panic(err)
	}
	return m, c
}

func mustFind(m *Model, xmlID string) NodeID {
	id, ok := m.FindByXMLID(xmlID)
	if !ok {
		panic("node not found: " + xmlID)
	}
	return id
}

package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/smilq/internal/dto"
)

const (
	smilNS = "http://www.w3.org/ns/SMIL"
	epubNS = "http://www.idpf.org/2007/ops"
)

// ErrNotSMIL is returned when the root element is not <smil>.
var ErrNotSMIL = errors.New("not a smil document")

// SMILParser reads EPUB 3 media overlay documents. The <body> element
// becomes the top-level seq; every element below it is passed through by
// local name so that the importer can report kinds it does not know.
type SMILParser struct{}

func (p *SMILParser) Parse(r io.Reader, href string) (*dto.Document, error) {
	dec := xml.NewDecoder(r)
	doc := &dto.Document{Href: href}

	var stack []*dto.Node
	sawRoot := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse smil: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case !sawRoot:
				if t.Name.Local != "smil" {
					return nil, fmt.Errorf("parse smil: root element <%s>: %w", t.Name.Local, ErrNotSMIL)
				}
				sawRoot = true
				doc.SmilVersion = attr(t, "version")
			case len(stack) == 0:
				if t.Name.Local != "body" {
					// <head> and anything else outside the body carries no timing.
					if err := dec.Skip(); err != nil {
						return nil, fmt.Errorf("parse smil: %w", err)
					}
					continue
				}
				n := elementNode(t)
				n.NodeType = dto.TypeSeq
				stack = append(stack, n)
			default:
				stack = append(stack, elementNode(t))
			}

		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				doc.Children = append(doc.Children, *n)
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, *n)
			}
		}
	}

	if !sawRoot {
		return nil, fmt.Errorf("parse smil: %w", ErrNotSMIL)
	}
	return doc, nil
}

func elementNode(t xml.StartElement) *dto.Node {
	n := &dto.Node{NodeType: t.Name.Local}
	for _, a := range t.Attr {
		v := a.Value
		switch a.Name.Local {
		case "id":
			n.ID = dto.String(v)
		case "type":
			if isEpubNS(a.Name.Space) {
				n.EpubType = dto.String(v)
			}
		case "textref":
			n.TextRef = dto.String(v)
		case "src":
			n.Src = dto.String(v)
			if n.NodeType == dto.TypeText {
				file, frag, _ := strings.Cut(v, "#")
				n.SrcFile = dto.String(file)
				n.SrcFragmentID = dto.String(frag)
			}
		case "clipBegin":
			n.ClipBegin = clockAttr(v)
		case "clipEnd":
			n.ClipEnd = clockAttr(v)
		}
	}
	return n
}

// clockAttr returns the clip value in seconds, or the raw text when it is
// not a valid clock value so the importer can diagnose it.
func clockAttr(v string) any {
	secs, err := ParseClockValue(v)
	if err != nil {
		return v
	}
	return secs
}

func isEpubNS(space string) bool {
	return space == epubNS || space == "epub"
}

func attr(t xml.StartElement, local string) string {
	for _, a := range t.Attr {
		if a.Name.Local == local && (a.Name.Space == "" || a.Name.Space == smilNS) {
			return a.Value
		}
	}
	return ""
}

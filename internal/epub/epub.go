// Package epub loads the parts of an EPUB 3 package document needed to
// import media overlays: the manifest, the spine, media-overlay links and
// media:* metadata.
package epub

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/dgallion1/smilq/internal/overlay"
	"github.com/dgallion1/smilq/internal/parser"
)

// ErrNoRootfile is returned when META-INF/container.xml names no package
// document.
var ErrNoRootfile = errors.New("epub: container has no rootfile")

// ManifestItem is one <item> of the package manifest.
type ManifestItem struct {
	ID           string
	Href         string // relative to the package document
	MediaType    string
	MediaOverlay string // id of the SMIL item narrating this item
	Properties   string
}

// SpineEntry is one <itemref> of the spine.
type SpineEntry struct {
	IDRef  string
	Linear bool
}

// Overlay links a spine item to the SMIL document that narrates it.
type Overlay struct {
	SpineItemID string
	SMILID      string
	Href        string   // relative to the package document
	Path        string   // relative to the container root
	Duration    *float64 // media:duration refining the SMIL item, seconds
}

// Package is a parsed package document. It implements overlay.Resolver.
type Package struct {
	Path        string // package document path within the container
	Manifest    map[string]ManifestItem
	Spine       []SpineEntry
	ActiveClass string
	Narrator    string
	Duration    *float64 // whole-publication media:duration, seconds

	durations map[string]float64
}

var _ overlay.Resolver = (*Package)(nil)

type opfDoc struct {
	Metadata struct {
		Meta []struct {
			Property string `xml:"property,attr"`
			Refines  string `xml:"refines,attr"`
			Value    string `xml:",chardata"`
		} `xml:"meta"`
	} `xml:"metadata"`
	Manifest struct {
		Items []struct {
			ID           string `xml:"id,attr"`
			Href         string `xml:"href,attr"`
			MediaType    string `xml:"media-type,attr"`
			MediaOverlay string `xml:"media-overlay,attr"`
			Properties   string `xml:"properties,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		ItemRefs []struct {
			IDRef  string `xml:"idref,attr"`
			Linear string `xml:"linear,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

// Parse reads a package document located at opfPath within the container.
func Parse(r io.Reader, opfPath string) (*Package, error) {
	var doc opfDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse package document: %w", err)
	}

	pkg := &Package{
		Path:      opfPath,
		Manifest:  make(map[string]ManifestItem, len(doc.Manifest.Items)),
		durations: make(map[string]float64),
	}
	for _, it := range doc.Manifest.Items {
		pkg.Manifest[it.ID] = ManifestItem{
			ID:           it.ID,
			Href:         it.Href,
			MediaType:    it.MediaType,
			MediaOverlay: it.MediaOverlay,
			Properties:   it.Properties,
		}
	}
	for _, ref := range doc.Spine.ItemRefs {
		pkg.Spine = append(pkg.Spine, SpineEntry{
			IDRef:  ref.IDRef,
			Linear: ref.Linear != "no",
		})
	}

	for _, m := range doc.Metadata.Meta {
		value := strings.TrimSpace(m.Value)
		switch m.Property {
		case "media:duration":
			secs, err := parser.ParseClockValue(value)
			if err != nil {
				continue
			}
			if m.Refines == "" {
				pkg.Duration = &secs
			} else {
				pkg.durations[strings.TrimPrefix(m.Refines, "#")] = secs
			}
		case "media:active-class":
			pkg.ActiveClass = value
		case "media:narrator":
			pkg.Narrator = value
		}
	}

	return pkg, nil
}

// Load reads the package document at opfPath from fsys.
func Load(fsys fs.FS, opfPath string) (*Package, error) {
	f, err := fsys.Open(opfPath)
	if err != nil {
		return nil, fmt.Errorf("open package document: %w", err)
	}
	defer f.Close()

	pkg, err := Parse(f, opfPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opfPath, err)
	}
	return pkg, nil
}

// Rootfile returns the package document path declared in
// META-INF/container.xml.
func Rootfile(fsys fs.FS) (string, error) {
	data, err := fs.ReadFile(fsys, "META-INF/container.xml")
	if err != nil {
		return "", fmt.Errorf("read container: %w", err)
	}

	var container struct {
		Rootfiles []struct {
			FullPath  string `xml:"full-path,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"rootfiles>rootfile"`
	}
	if err := xml.Unmarshal(data, &container); err != nil {
		return "", fmt.Errorf("parse container: %w", err)
	}
	for _, rf := range container.Rootfiles {
		if rf.FullPath != "" && (rf.MediaType == "" || rf.MediaType == "application/oebps-package+xml") {
			return rf.FullPath, nil
		}
	}
	return "", ErrNoRootfile
}

// Dir returns the directory of the package document within the container.
func (p *Package) Dir() string {
	dir := path.Dir(p.Path)
	if dir == "." {
		return ""
	}
	return dir
}

// resolve turns a package-relative href into a container path without
// fragment.
func (p *Package) resolve(href string) string {
	href, _, _ = strings.Cut(href, "#")
	if href == "" {
		return ""
	}
	return path.Join(p.Dir(), href)
}

// ResolveMediaOverlayRef implements overlay.Resolver.
func (p *Package) ResolveMediaOverlayRef(ref string) string {
	return p.resolve(ref)
}

// ResolveItemHref implements overlay.Resolver.
func (p *Package) ResolveItemHref(href string) string {
	return p.resolve(href)
}

// SpineItems implements overlay.Resolver. Entries whose idref has no
// manifest item are skipped.
func (p *Package) SpineItems() []overlay.SpineItem {
	items := make([]overlay.SpineItem, 0, len(p.Spine))
	for _, s := range p.Spine {
		it, ok := p.Manifest[s.IDRef]
		if !ok {
			continue
		}
		items = append(items, overlay.SpineItem{IDRef: s.IDRef, Href: it.Href})
	}
	return items
}

// Overlays lists, in spine order, every spine item narrated by a media
// overlay.
func (p *Package) Overlays() []Overlay {
	var out []Overlay
	for _, s := range p.Spine {
		it, ok := p.Manifest[s.IDRef]
		if !ok || it.MediaOverlay == "" {
			continue
		}
		smil, ok := p.Manifest[it.MediaOverlay]
		if !ok {
			continue
		}
		o := Overlay{
			SpineItemID: s.IDRef,
			SMILID:      smil.ID,
			Href:        smil.Href,
			Path:        p.resolve(smil.Href),
		}
		if d, ok := p.durations[smil.ID]; ok {
			o.Duration = &d
		}
		out = append(out, o)
	}
	return out
}

// Overlay returns the overlay narrating the given spine item.
func (p *Package) Overlay(spineItemID string) (Overlay, bool) {
	for _, o := range p.Overlays() {
		if o.SpineItemID == spineItemID {
			return o, true
		}
	}
	return Overlay{}, false
}

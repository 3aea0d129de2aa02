package pipeline

import (
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/dgallion1/smilq/internal/config"
	"github.com/dgallion1/smilq/internal/epub"
)

const testContainer = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles><rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/></rootfiles>
</container>`

const testOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata>
    <meta property="media:duration" refines="#mo1">0:00:05.500</meta>
  </metadata>
  <manifest>
    <item id="chap1" href="text/chap1.xhtml" media-type="application/xhtml+xml" media-overlay="mo1"/>
    <item id="chap2" href="text/chap2.xhtml" media-type="application/xhtml+xml" media-overlay="mo2"/>
    <item id="chap3" href="text/chap3.xhtml" media-type="application/xhtml+xml" media-overlay="mo3"/>
    <item id="mo1" href="smil/chap1.smil" media-type="application/smil+xml"/>
    <item id="mo2" href="smil/chap2.smil" media-type="application/smil+xml"/>
    <item id="mo3" href="smil/missing.smil" media-type="application/smil+xml"/>
  </manifest>
  <spine>
    <itemref idref="chap1"/>
    <itemref idref="chap2"/>
    <itemref idref="chap3"/>
  </spine>
</package>`

const chap1SMIL = `<smil xmlns="http://www.w3.org/ns/SMIL" xmlns:epub="http://www.idpf.org/2007/ops" version="3.0">
  <body>
    <par id="p1">
      <text src="../text/chap1.xhtml#a"/>
      <audio src="../audio/c1.mp3" clipBegin="0s" clipEnd="2s"/>
    </par>
    <seq id="s1" epub:type="footnote" epub:textref="../text/chap1.xhtml#n">
      <par id="p2">
        <text src="../text/chap1.xhtml#b"/>
        <audio src="../audio/c1.mp3" clipBegin="0:00:02" clipEnd="0:00:05.500"/>
      </par>
    </seq>
  </body>
</smil>`

// chap2 narrates a fragment of a document that is not in the spine.
const chap2SMIL = `<smil xmlns="http://www.w3.org/ns/SMIL" version="3.0">
  <body>
    <par id="q1">
      <text src="../text/extra.xhtml#x"/>
      <audio src="../audio/c2.mp3" clipBegin="0s" clipEnd="1s"/>
    </par>
  </body>
</smil>`

func testPublication(t *testing.T) *epub.Container {
	t.Helper()
	fsys := fstest.MapFS{
		"META-INF/container.xml": {Data: []byte(testContainer)},
		"OEBPS/content.opf":      {Data: []byte(testOPF)},
		"OEBPS/smil/chap1.smil":  {Data: []byte(chap1SMIL)},
		"OEBPS/smil/chap2.smil":  {Data: []byte(chap2SMIL)},
	}
	pub, err := epub.OpenFS(fsys)
	if err != nil {
		t.Fatalf("OpenFS: %v", err)
	}
	return pub
}

func testConfig() config.Config {
	return config.Config{
		WorkerCount: 2,
		MaxDepth:    32,
		LogFormat:   "text",
		Escapables:  []string{"footnote"},
		Skippables:  []string{"note"},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

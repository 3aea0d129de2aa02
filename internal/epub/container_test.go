package epub

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
)

func writeTree(t *testing.T, root string) {
	t.Helper()
	for name, f := range testFS() {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, f.Data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestOpenDirectory(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root)

	c, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if got := len(c.Package.Overlays()); got != 2 {
		t.Errorf("overlays = %d, want 2", got)
	}
}

func TestOpenPackageDocument(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root)

	c, err := Open(filepath.Join(root, "OEBPS", "content.opf"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if c.Package.Dir() != "" {
		t.Errorf("Dir = %q, want package-relative root", c.Package.Dir())
	}
	if _, err := c.ReadFile("content.opf"); err != nil {
		t.Errorf("ReadFile: %v", err)
	}
}

func TestOpenArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.epub")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for _, name := range []string{"META-INF/container.xml", "OEBPS/content.opf"} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(testFS()[name].Data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if c.Package.Path != "OEBPS/content.opf" {
		t.Errorf("Path = %q", c.Package.Path)
	}
	if got := len(c.Package.Overlays()); got != 2 {
		t.Errorf("overlays = %d, want 2", got)
	}
}

func TestOpenMissing(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.epub")); err == nil {
		t.Error("expected error for missing publication")
	}
}

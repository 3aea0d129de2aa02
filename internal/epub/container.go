package epub

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Container is an opened publication: its file system and package document.
type Container struct {
	FS      fs.FS
	Package *Package

	closer func() error
}

// Open opens a publication from an unpacked directory, a .epub archive, or
// a package document path inside an unpacked directory.
func Open(location string) (*Container, error) {
	info, err := os.Stat(location)
	if err != nil {
		return nil, fmt.Errorf("open publication: %w", err)
	}

	switch {
	case info.IsDir():
		return openFS(os.DirFS(location), nil)

	case strings.EqualFold(filepath.Ext(location), ".epub"):
		zr, err := zip.OpenReader(location)
		if err != nil {
			return nil, fmt.Errorf("open archive %s: %w", location, err)
		}
		c, err := openFS(zr, zr.Close)
		if err != nil {
			zr.Close()
			return nil, err
		}
		return c, nil

	default:
		dir := filepath.Dir(location)
		fsys := os.DirFS(dir)
		pkg, err := Load(fsys, filepath.ToSlash(filepath.Base(location)))
		if err != nil {
			return nil, err
		}
		return &Container{FS: fsys, Package: pkg}, nil
	}
}

// OpenFS opens a publication from an arbitrary file system.
func OpenFS(fsys fs.FS) (*Container, error) {
	return openFS(fsys, nil)
}

func openFS(fsys fs.FS, closer func() error) (*Container, error) {
	opf, err := Rootfile(fsys)
	if err != nil {
		return nil, err
	}
	pkg, err := Load(fsys, opf)
	if err != nil {
		return nil, err
	}
	return &Container{FS: fsys, Package: pkg, closer: closer}, nil
}

// ReadFile reads a container-relative file.
func (c *Container) ReadFile(name string) ([]byte, error) {
	return fs.ReadFile(c.FS, name)
}

// Close releases the archive, if any.
func (c *Container) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/smilq/internal/dto"
)

// Parser converts a raw media overlay file into the importer's input tree.
// href is the file's location relative to the package root.
type Parser interface {
	Parse(r io.Reader, href string) (*dto.Document, error)
}

// SupportedExtensions lists file extensions this tool can read.
var SupportedExtensions = map[string]bool{
	".smil":  true,
	".xml":   true,
	".json":  true,
	".jsonc": true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".smil", ".xml":
		return &SMILParser{}, nil
	case ".json", ".jsonc":
		return &JSONParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// JSONParser reads an already-built input tree serialized as JSON.
type JSONParser struct{}

func (p *JSONParser) Parse(r io.Reader, href string) (*dto.Document, error) {
	doc, err := dto.DecodeJSON(r)
	if err != nil {
		return nil, err
	}
	if doc.Href == "" {
		doc.Href = href
	}
	return doc, nil
}

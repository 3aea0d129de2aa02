package dto

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/jsonc"
)

// Node types recognized by the overlay importer.
const (
	TypeSeq   = "seq"
	TypePar   = "par"
	TypeText  = "text"
	TypeAudio = "audio"
)

// Document is the untrusted input tree for one SMIL file.
type Document struct {
	ID          string `json:"id"`
	SpineItemID string `json:"spineItemId"`
	Href        string `json:"href"`
	SmilVersion string `json:"smilVersion"`
	Duration    any    `json:"duration,omitempty"` // float64 or numeric string
	Children    []Node `json:"children"`
}

// Node is a single element of the input tree. Optional string fields are
// pointers so that absent and empty can be told apart; clip values may
// arrive as numbers or as strings.
type Node struct {
	NodeType      string  `json:"nodeType"`
	ID            *string `json:"id,omitempty"`
	EpubType      *string `json:"epubtype,omitempty"`
	TextRef       *string `json:"textref,omitempty"`
	Src           *string `json:"src,omitempty"`
	SrcFile       *string `json:"srcFile,omitempty"`
	SrcFragmentID *string `json:"srcFragmentId,omitempty"`
	ClipBegin     any     `json:"clipBegin,omitempty"`
	ClipEnd       any     `json:"clipEnd,omitempty"`
	Children      []Node  `json:"children,omitempty"`
}

// String returns a pointer to s, for building optional fields.
func String(s string) *string {
	return &s
}

// DecodeJSON parses a JSON document tree. Comments and trailing commas are
// accepted so fixtures can be annotated.
func DecodeJSON(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return nil, fmt.Errorf("decode overlay dto: %w", err)
	}
	return &doc, nil
}

// ReadFile reads and decodes a JSON document tree from disk.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	doc, err := DecodeJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

package dto

import (
	"strings"
	"testing"
)

func TestDecodeJSON_CommentsAndMixedClipTypes(t *testing.T) {
	input := `{
		// chapter one
		"id": "mo-1",
		"spineItemId": "chap1",
		"href": "smil/chap1.smil",
		"duration": "12.5",
		"children": [{
			"nodeType": "seq",
			"children": [{
				"nodeType": "par",
				"children": [
					{"nodeType": "text", "src": "chap1.xhtml#p1", "srcFile": "chap1.xhtml", "srcFragmentId": "p1"},
					{"nodeType": "audio", "src": "a.mp3", "clipBegin": 1.5, "clipEnd": "3.0"},
				],
			}],
		}],
	}`

	doc, err := DecodeJSON(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.SpineItemID != "chap1" {
		t.Errorf("expected spineItemId %q, got %q", "chap1", doc.SpineItemID)
	}
	if d, ok := doc.Duration.(string); !ok || d != "12.5" {
		t.Errorf("expected string duration %q, got %#v", "12.5", doc.Duration)
	}

	par := doc.Children[0].Children[0]
	if len(par.Children) != 2 {
		t.Fatalf("expected 2 par children, got %d", len(par.Children))
	}
	audio := par.Children[1]
	if b, ok := audio.ClipBegin.(float64); !ok || b != 1.5 {
		t.Errorf("expected numeric clipBegin 1.5, got %#v", audio.ClipBegin)
	}
	if e, ok := audio.ClipEnd.(string); !ok || e != "3.0" {
		t.Errorf("expected string clipEnd %q, got %#v", "3.0", audio.ClipEnd)
	}
	if par.Children[0].ID != nil {
		t.Errorf("expected absent id to decode as nil, got %q", *par.Children[0].ID)
	}
}

func TestDecodeJSON_Malformed(t *testing.T) {
	if _, err := DecodeJSON(strings.NewReader(`{"children": [`)); err == nil {
		t.Fatal("expected error for truncated input")
	}
}

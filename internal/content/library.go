package content

import (
	"bytes"
	"sync"
)

// Library parses content documents on first use and keeps them.
type Library struct {
	read func(name string) ([]byte, error)

	mu   sync.Mutex
	docs map[string]*Document // nil entry: unreadable or unparsable
}

// NewLibrary returns a Library loading documents through read.
func NewLibrary(read func(name string) ([]byte, error)) *Library {
	return &Library{read: read, docs: make(map[string]*Document)}
}

// Document returns the parsed document called name.
func (l *Library) Document(name string) (*Document, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if doc, seen := l.docs[name]; seen {
		return doc, doc != nil
	}
	var doc *Document
	if data, err := l.read(name); err == nil {
		doc, _ = Parse(bytes.NewReader(data))
	}
	l.docs[name] = doc
	return doc, doc != nil
}

// Fragment returns the text of fragment id in document name.
func (l *Library) Fragment(name, id string) (string, bool) {
	doc, ok := l.Document(name)
	if !ok {
		return "", false
	}
	return doc.Fragment(id)
}

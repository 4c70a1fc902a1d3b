// Package store provides the in-memory document store backing the read
// API. Documents are JSON-like maps keyed by collection slug and id,
// with draft visibility tracked per document.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Document is one stored record. Data holds the document fields; Draft
// marks versions visible only to draft-enabled reads.
type Document struct {
	ID    string
	Data  map[string]any
	Draft bool
}

// Memory is a concurrency-safe in-memory store. Reads return deep
// copies so the read pipeline can mutate results freely.
type Memory struct {
	mu          sync.RWMutex
	collections map[string][]*Document
	byID        map[string]map[string]*Document // collection -> id -> doc
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string][]*Document),
		byID:        make(map[string]map[string]*Document),
	}
}

// Insert stores data as a new document in the collection and returns
// its id. When data carries an "id" string it is kept; otherwise a
// fresh uuid is assigned and written into the stored copy.
func (m *Memory) Insert(ctx context.Context, collection string, data map[string]any, draft bool) (string, error) {
	id, _ := data["id"].(string)
	if id == "" {
		id = uuid.NewString()
	}
	stored := copyMap(data)
	stored["id"] = id

	m.mu.Lock()
	defer m.mu.Unlock()
	if byID, ok := m.byID[collection]; ok {
		if _, exists := byID[id]; exists {
			return "", fmt.Errorf("store: duplicate id %q in collection %q", id, collection)
		}
	} else {
		m.byID[collection] = make(map[string]*Document)
	}
	doc := &Document{ID: id, Data: stored, Draft: draft}
	m.collections[collection] = append(m.collections[collection], doc)
	m.byID[collection][id] = doc
	return id, nil
}

// Get loads one document by id. It returns (nil, nil) when the id is
// unknown or the document is a draft and draft visibility was not
// requested.
func (m *Memory) Get(ctx context.Context, collection, id string, draft bool) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.byID[collection][id]
	if !ok || (doc.Draft && !draft) {
		return nil, nil
	}
	return copyMap(doc.Data), nil
}

// List returns one page of a collection's documents in insertion order
// along with the total count of visible documents. limit <= 0 returns
// everything; page is 1-based.
func (m *Memory) List(ctx context.Context, collection string, draft bool, limit, page int) ([]map[string]any, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	visible := make([]*Document, 0, len(m.collections[collection]))
	for _, doc := range m.collections[collection] {
		if doc.Draft && !draft {
			continue
		}
		visible = append(visible, doc)
	}
	total := len(visible)

	if limit > 0 {
		if page < 1 {
			page = 1
		}
		start := (page - 1) * limit
		if start > total {
			start = total
		}
		end := start + limit
		if end > total {
			end = total
		}
		visible = visible[start:end]
	}

	out := make([]map[string]any, len(visible))
	for i, doc := range visible {
		out[i] = copyMap(doc.Data)
	}
	return out, total, nil
}

// copyMap deep-copies the JSON-like shapes the store holds: maps,
// slices and scalars. Anything else is shared by reference.
func copyMap(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}

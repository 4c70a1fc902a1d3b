package afterread

import (
	"context"
	"fmt"
	"sync"

	field "github.com/quillcms/quill/internal/field"
)

// MockResolver implements Resolver from an in-memory fixture set and
// records every resolve call. Tests register documents per collection
// and assert on the call log.
type MockResolver struct {
	mu     sync.Mutex
	fields map[string][]*field.Field
	docs   map[string]map[string]any // "collection/id" -> doc
	errs   map[string]error
	calls  []ResolveCall
}

// ResolveCall is one recorded ResolveDocument invocation.
type ResolveCall struct {
	Collection string
	ID         any
	Draft      bool
	Locale     string
}

// NewMockResolver creates an empty MockResolver.
func NewMockResolver() *MockResolver {
	return &MockResolver{
		fields: map[string][]*field.Field{},
		docs:   map[string]map[string]any{},
		errs:   map[string]error{},
	}
}

// AddCollection registers the schema used for documents of collection.
func (m *MockResolver) AddCollection(collection string, fields []*field.Field) *MockResolver {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fields[collection] = fields
	return m
}

// AddDoc registers one resolvable document.
func (m *MockResolver) AddDoc(collection, id string, doc map[string]any) *MockResolver {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[collection+"/"+id] = doc
	return m
}

// FailWith makes resolving the given reference return err.
func (m *MockResolver) FailWith(collection, id string, err error) *MockResolver {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[collection+"/"+id] = err
	return m
}

func (m *MockResolver) ResolveDocument(ctx context.Context, req ResolveRequest) (*ResolvedDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, ResolveCall{Collection: req.Collection, ID: req.ID, Draft: req.Draft, Locale: req.Locale})

	id, ok := req.ID.(string)
	if !ok {
		return nil, fmt.Errorf("mock resolver: non-string id %v", req.ID)
	}
	key := req.Collection + "/" + id
	if err := m.errs[key]; err != nil {
		return nil, err
	}
	doc, ok := m.docs[key]
	if !ok {
		return nil, nil
	}
	// Copy so the pipeline's mutations never leak into the fixture.
	return &ResolvedDocument{Doc: copyFixture(doc), Fields: m.fields[req.Collection]}, nil
}

// Calls returns the recorded resolve calls.
func (m *MockResolver) Calls() []ResolveCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ResolveCall(nil), m.calls...)
}

func copyFixture(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		switch t := v.(type) {
		case map[string]any:
			out[k] = copyFixture(t)
		case []any:
			s := make([]any, len(t))
			for i, e := range t {
				if m, ok := e.(map[string]any); ok {
					s[i] = copyFixture(m)
				} else {
					s[i] = e
				}
			}
			out[k] = s
		default:
			out[k] = v
		}
	}
	return out
}

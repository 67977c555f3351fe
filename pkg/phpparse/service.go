// Package phpparse turns PHP source text into the typed AST pkg/phpast
// defines, using tree-sitter's PHP grammar as the concrete syntax tree
// producer. It is the external parser collaborator the taint core depends
// on — the core never looks at a sitter.Node directly.
package phpparse

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"

	"github.com/taintwave/phpsentinel/pkg/phpast"
)

// Service owns a pool of reusable tree-sitter parsers and an LRU cache of
// already-extracted ASTs.
type Service struct {
	pool  sync.Pool
	cache *cache
}

// NewService creates a parser service with the given cache capacity (number
// of files); a non-positive size disables caching.
func NewService(cacheEntries int) *Service {
	s := &Service{}
	s.pool.New = func() interface{} {
		p := sitter.NewParser()
		p.SetLanguage(php.GetLanguage())
		return p
	}
	if cacheEntries > 0 {
		s.cache = newCache(cacheEntries)
	}
	return s
}

// ParseError wraps a tree-sitter parse failure for callers that want to
// distinguish parse failures from other errors.
type ParseError struct {
	FilePath string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("phpparse: parse failure in %s: %v", e.FilePath, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse extracts the ordered top-level statement list of a PHP source
// buffer. filePath is used only for cache keys and error messages.
func (s *Service) Parse(filePath string, source []byte) ([]phpast.Node, error) {
	if s.cache != nil {
		if nodes, ok := s.cache.get(filePath, source); ok {
			return nodes, nil
		}
	}

	parser := s.pool.Get().(*sitter.Parser)
	defer s.pool.Put(parser)

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, &ParseError{FilePath: filePath, Err: err}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		if root == nil {
			return nil, &ParseError{FilePath: filePath, Err: fmt.Errorf("empty parse tree")}
		}
		// A syntax error node can still carry a usable partial tree, so
		// a best-effort partial extraction is attempted below; only a
		// total parse failure yields an empty result.
	}

	ex := &extractor{src: source}
	nodes := ex.statements(root)

	if s.cache != nil {
		s.cache.put(filePath, source, nodes)
	}
	return nodes, nil
}

// ParseString is a convenience wrapper for callers with no file path; all
// such calls share the empty cache key "".
func (s *Service) ParseString(source string) ([]phpast.Node, error) {
	return s.Parse("", []byte(source))
}

// cache is a tiny LRU keyed on file path + a content fingerprint, sized in
// entries only since our values (typed AST slices) don't carry the raw CST
// memory cost tree-sitter nodes do.
type cache struct {
	mu    sync.Mutex
	max   int
	items map[string]*list.Element
	order *list.List
}

type cacheEntry struct {
	key         string
	fingerprint uint64
	nodes       []phpast.Node
}

func newCache(max int) *cache {
	return &cache{max: max, items: make(map[string]*list.Element, max), order: list.New()}
}

func (c *cache) get(key string, source []byte) ([]phpast.Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)
	if entry.fingerprint != fnv64(source) {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return entry.nodes, true
}

func (c *cache) put(key string, source []byte, nodes []phpast.Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		elem.Value.(*cacheEntry).fingerprint = fnv64(source)
		elem.Value.(*cacheEntry).nodes = nodes
		c.order.MoveToFront(elem)
		return
	}
	for c.order.Len() >= c.max {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
	}
	elem := c.order.PushFront(&cacheEntry{key: key, fingerprint: fnv64(source), nodes: nodes})
	c.items[key] = elem
}

// fnv64 is a cheap non-cryptographic content fingerprint, sufficient to
// invalidate a cache entry when a file changes between scans.
func fnv64(data []byte) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	for _, b := range data {
		h ^= uint64(b)
		h *= prime64
	}
	return h
}

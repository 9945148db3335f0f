package network

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dd0wney/cluso-bowtie/pkg/bowtie"
)

// NodeID derives the identifier for a label of the given type: the type
// prefix followed by the label with every run of non-alphanumeric
// characters replaced by a single underscore.
func NodeID(t NodeType, label string) string {
	return t.Prefix() + sanitize(bowtie.NormalizeLabel(label))
}

func sanitize(label string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range label {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	if b.Len() == 0 {
		// punctuation-only labels still need distinct identifiers
		h := fnv.New32a()
		h.Write([]byte(label))
		return fmt.Sprintf("x%08x", h.Sum32())
	}
	return b.String()
}

type idKey struct {
	t     NodeType
	label string
}

// IDCache memoizes label → identifier derivation. It is owned by the
// caller and passed to Build explicitly, so concurrent analyses each use
// their own cache or deliberately share one. Safe for concurrent use.
type IDCache struct {
	cache *lru.Cache[idKey, string]
}

// NewIDCache creates a cache holding at most size entries.
func NewIDCache(size int) (*IDCache, error) {
	c, err := lru.New[idKey, string](size)
	if err != nil {
		return nil, fmt.Errorf("create id cache: %w", err)
	}
	return &IDCache{cache: c}, nil
}

// NodeID returns the cached identifier, deriving it on a miss. A nil
// cache derives every time.
func (c *IDCache) NodeID(t NodeType, label string) string {
	if c == nil {
		return NodeID(t, label)
	}
	k := idKey{t: t, label: label}
	if id, ok := c.cache.Get(k); ok {
		return id
	}
	id := NodeID(t, label)
	c.cache.Add(k, id)
	return id
}

// Len returns the number of cached identifiers.
func (c *IDCache) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.Len()
}

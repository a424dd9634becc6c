package core

import "maps"

// Item is a single build item.
//
// Identity is the primary matching key (a file path or logical name).
// Equality, ordering and membership are always decided on Identity using
// ordinal byte comparison. Metadata is carried through transformations
// verbatim and is never consulted.
type Item struct {
	Identity string            `json:"identity" yaml:"identity"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// NewItem creates an item with the given identity and no metadata.
func NewItem(identity string) Item {
	return Item{Identity: identity}
}

// Clone returns a copy of the item whose metadata map does not alias the
// receiver's.
func (it Item) Clone() Item {
	return Item{Identity: it.Identity, Metadata: maps.Clone(it.Metadata)}
}

// MetadataValue returns the metadata value for key, or "" if absent.
func (it Item) MetadataValue(key string) string {
	return it.Metadata[key]
}

// Collection is an ordered sequence of Items.
//
// Order is insertion order unless an operation re-sorts. Duplicate identities
// are permitted. A nil *Collection represents an absent input and is distinct
// from an empty collection.
type Collection struct {
	items []Item
}

// NewCollection builds a collection from items. The items are copied.
func NewCollection(items ...Item) *Collection {
	c := &Collection{items: make([]Item, 0, len(items))}
	for _, it := range items {
		c.items = append(c.items, it.Clone())
	}
	return c
}

// CollectionOf builds a collection of metadata-free items from identities.
func CollectionOf(identities ...string) *Collection {
	c := &Collection{items: make([]Item, 0, len(identities))}
	for _, id := range identities {
		c.items = append(c.items, NewItem(id))
	}
	return c
}

func newCollectionCap(n int) *Collection {
	return &Collection{items: make([]Item, 0, n)}
}

// Len returns the number of items. A nil collection has length zero.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// At returns the item at position i. The caller is responsible for bounds.
func (c *Collection) At(i int) Item {
	return c.items[i]
}

// Items returns a copy of the items in order.
func (c *Collection) Items() []Item {
	if c == nil {
		return nil
	}
	out := make([]Item, len(c.items))
	for i, it := range c.items {
		out[i] = it.Clone()
	}
	return out
}

// Identities returns the identities in collection order.
func (c *Collection) Identities() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.items))
	for i, it := range c.items {
		out[i] = it.Identity
	}
	return out
}

// append adds a copy of it. Only used while building fresh outputs.
func (c *Collection) append(it Item) {
	c.items = append(c.items, it.Clone())
}

// identityIndex is a hashed membership index over identities.
type identityIndex map[string]struct{}

func indexIdentities(c *Collection) identityIndex {
	idx := make(identityIndex, c.Len())
	for _, it := range c.items {
		idx[it.Identity] = struct{}{}
	}
	return idx
}

func (idx identityIndex) has(identity string) bool {
	_, ok := idx[identity]
	return ok
}

package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"sort"
)

// CollectionHash is a deterministic identifier for a collection or for the
// complete input of one operation.
//
//	Includes: identities in order, metadata key/value pairs, presence of each input
//	Excludes: map iteration order, pointer identity
type CollectionHash string

// CollectionHasher computes deterministic hashes of collections.
//
// The hash computation is designed to be:
//   - Deterministic: identical collections always produce identical hashes
//   - Order-sensitive: collection order is part of the identity
//   - Unambiguous: every field is length-prefixed
type CollectionHasher struct{}

// NewCollectionHasher creates a new CollectionHasher.
func NewCollectionHasher() *CollectionHasher {
	return &CollectionHasher{}
}

// HashInput contains all components of one operation's input.
type HashInput struct {
	// Action is the operation name.
	Action string

	// Items1 and Items2 are the collection inputs; nil means absent.
	Items1 *Collection
	Items2 *Collection

	// Scalars holds the scalar inputs (position, itemString, separator, ...).
	// Keys are sorted before hashing.
	Scalars map[string]string
}

// ComputeHash computes the hash of a single collection.
func (h *CollectionHasher) ComputeHash(c *Collection) CollectionHash {
	hasher := sha256.New()
	writeCollection(hasher, c)
	return CollectionHash(hex.EncodeToString(hasher.Sum(nil)))
}

// ComputeInputHash computes the hash of an operation input.
//
// Components are written in a fixed order:
//  1. Action
//  2. Items1 (presence marker, then items)
//  3. Items2 (presence marker, then items)
//  4. Sorted scalar key/value pairs
func (h *CollectionHasher) ComputeInputHash(in HashInput) CollectionHash {
	hasher := sha256.New()

	writeField(hasher, []byte(in.Action))
	writeCollection(hasher, in.Items1)
	writeCollection(hasher, in.Items2)

	keys := make([]string, 0, len(in.Scalars))
	for k := range in.Scalars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	writeLen(hasher, len(keys))
	for _, k := range keys {
		writeField(hasher, []byte(k))
		writeField(hasher, []byte(in.Scalars[k]))
	}

	return CollectionHash(hex.EncodeToString(hasher.Sum(nil)))
}

// String returns the string representation of the CollectionHash.
func (c CollectionHash) String() string {
	return string(c)
}

func writeCollection(w hash.Hash, c *Collection) {
	if c == nil {
		w.Write([]byte{0})
		return
	}
	w.Write([]byte{1})
	writeLen(w, c.Len())
	for _, it := range c.items {
		writeField(w, []byte(it.Identity))

		// Metadata MUST be sorted for determinism.
		keys := make([]string, 0, len(it.Metadata))
		for k := range it.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		writeLen(w, len(keys))
		for _, k := range keys {
			writeField(w, []byte(k))
			writeField(w, []byte(it.Metadata[k]))
		}
	}
}

// writeField writes data with an 8-byte big-endian length prefix.
func writeField(w hash.Hash, data []byte) {
	writeLen(w, len(data))
	w.Write(data)
}

func writeLen(w hash.Hash, n int) {
	var prefix [8]byte
	binary.BigEndian.PutUint64(prefix[:], uint64(n))
	w.Write(prefix[:])
}

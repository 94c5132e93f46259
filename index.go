package kvdoc

import (
	"strings"
)

// Index addresses one stored item: a key within a collection.
type Index struct {
	Collection string
	Key        string
}

func (idx Index) String() string {
	return idx.Collection + ":" + idx.Key
}

// ParseIndex is the inverse of Index.String. The collection name must not
// contain a colon; the key may.
func ParseIndex(s string) (Index, bool) {
	coll, key, ok := strings.Cut(s, ":")
	if !ok {
		return Index{}, false
	}
	return Index{coll, key}, true
}

// Persistable is implemented by every type stored through this package.
//
// Collection must return the same constant for every value of the type and
// must be callable on the zero value (a nil pointer for pointer types), because
// the collection of a type is obtained without an instance.
//
// Identifier returns the string form of the instance identifier. Two
// instances with equal identifiers address the same slot.
type Persistable interface {
	Collection() string
	Identifier() string
}

// MetadataPersistable is a Persistable that carries an optional metadata
// value of type M, stored next to the payload at the same index.
//
// WithMetadata returns the item with its metadata replaced; value types return
// a modified copy, pointer types may update the receiver and return it.
type MetadataPersistable[T any, M any] interface {
	Persistable
	Metadata() *M
	WithMetadata(m *M) T
}

// CollectionOf returns the collection name of T.
func CollectionOf[T Persistable]() string {
	var zero T
	return zero.Collection()
}

// KeyOf returns the key of the given item.
func KeyOf[T Persistable](item T) string {
	return item.Identifier()
}

// IndexOf returns the index of the given item.
func IndexOf[T Persistable](item T) Index {
	return Index{item.Collection(), item.Identifier()}
}

// IndexWithKey returns the index of key within T's collection.
func IndexWithKey[T Persistable](key string) Index {
	return Index{CollectionOf[T](), key}
}

// IndexesWithKeys maps keys to indexes within T's collection. Duplicate keys
// are dropped, and the order of the result does not follow the order of keys.
func IndexesWithKeys[T Persistable](keys []string) []Index {
	coll := CollectionOf[T]()
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	result := make([]Index, 0, len(set))
	for k := range set {
		result = append(result, Index{coll, k})
	}
	return result
}

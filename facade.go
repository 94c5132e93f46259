package kvdoc

// ReadTransaction is the read side of a transaction, independent of the
// engine behind it. Objects are the values the engine stores natively: either
// registered object types or the coders of value types.
type ReadTransaction interface {
	// KeysInCollection returns all keys of a collection.
	KeysInCollection(collection string) []string

	// ReadAtIndex returns the object stored at idx, or nil.
	ReadAtIndex(idx Index) any

	// ReadMetadataAtIndex returns the metadata object stored at idx, or nil.
	ReadMetadataAtIndex(idx Index) any
}

// WriteTransaction is the read/write side of a transaction.
type WriteTransaction interface {
	ReadTransaction

	// WriteAtIndex stores obj and meta at idx, replacing whatever was stored
	// there. A nil meta clears the metadata slot.
	WriteAtIndex(idx Index, obj, meta any)

	// RemoveAtIndexes removes the objects and metadata stored at the given
	// indexes. Missing indexes are ignored.
	RemoveAtIndexes(indexes ...Index)
}

type collectionRemover interface {
	RemoveAllInCollection(collection string)
}

var (
	_ WriteTransaction  = (*Tx)(nil)
	_ collectionRemover = (*Tx)(nil)
)

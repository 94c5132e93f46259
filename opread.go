package kvdoc

// Read returns the item stored at idx. It returns false if nothing is stored
// there or the stored object does not reconstruct a T.
func (c *Collection[T]) Read(tx ReadTransaction, idx Index) (T, bool) {
	obj := tx.ReadAtIndex(idx)
	if obj == nil {
		var zero T
		return zero, false
	}
	var meta any
	if c.codec.Shape().HasMetadata() {
		meta = tx.ReadMetadataAtIndex(idx)
	}
	return c.codec.FromPrimitive(obj, meta)
}

func (c *Collection[T]) ReadByKey(tx ReadTransaction, key string) (T, bool) {
	return c.Read(tx, c.IndexWithKey(key))
}

// ReadMany returns the items that could be read at the given indexes, in
// order. Failed reads are skipped.
func (c *Collection[T]) ReadMany(tx ReadTransaction, indexes []Index) []T {
	result := make([]T, 0, len(indexes))
	for _, idx := range indexes {
		if item, ok := c.Read(tx, idx); ok {
			result = append(result, item)
		}
	}
	return result
}

func (c *Collection[T]) ReadByKeys(tx ReadTransaction, keys []string) []T {
	return c.ReadMany(tx, c.indexesWithKeys(keys))
}

// ReadAll returns every readable item of the collection.
func (c *Collection[T]) ReadAll(tx ReadTransaction) []T {
	return c.ReadByKeys(tx, tx.KeysInCollection(c.name))
}

func (c *Collection[T]) Exists(tx ReadTransaction, key string) bool {
	_, ok := c.ReadByKey(tx, key)
	return ok
}

// Count returns the number of keys stored in the collection, readable or not.
func (c *Collection[T]) Count(tx ReadTransaction) int {
	return len(tx.KeysInCollection(c.name))
}

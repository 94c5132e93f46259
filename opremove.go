package kvdoc

func (c *Collection[T]) Remove(tx WriteTransaction, item T) {
	tx.RemoveAtIndexes(c.indexOf(item))
}

func (c *Collection[T]) RemoveMany(tx WriteTransaction, items []T) {
	indexes := make([]Index, len(items))
	for i, item := range items {
		indexes[i] = c.indexOf(item)
	}
	tx.RemoveAtIndexes(indexes...)
}

func (c *Collection[T]) RemoveAtIndexes(tx WriteTransaction, indexes []Index) {
	tx.RemoveAtIndexes(indexes...)
}

func (c *Collection[T]) RemoveByKey(tx WriteTransaction, key string) {
	tx.RemoveAtIndexes(c.IndexWithKey(key))
}

func (c *Collection[T]) RemoveByKeys(tx WriteTransaction, keys []string) {
	tx.RemoveAtIndexes(c.indexesWithKeys(keys)...)
}

// RemoveAll removes every item of the collection.
func (c *Collection[T]) RemoveAll(tx WriteTransaction) {
	if r, ok := tx.(collectionRemover); ok {
		r.RemoveAllInCollection(c.name)
		return
	}
	c.RemoveByKeys(tx, tx.KeysInCollection(c.name))
}

// Removing returns a block that removes items, for use with WriteOperation.
func (c *Collection[T]) Removing(items ...T) func(tx WriteTransaction) error {
	return func(tx WriteTransaction) error {
		c.RemoveMany(tx, items)
		return nil
	}
}

package kvdoc

// Write stores item at its index, replacing the payload and metadata stored
// there, and returns it.
func (c *Collection[T]) Write(tx WriteTransaction, item T) T {
	obj, meta := c.codec.ToPrimitive(item)
	tx.WriteAtIndex(c.indexOf(item), obj, meta)
	return item
}

func (c *Collection[T]) WriteMany(tx WriteTransaction, items []T) []T {
	for _, item := range items {
		c.Write(tx, item)
	}
	return items
}

// Writing returns a block that writes items, for use with WriteOperation.
func (c *Collection[T]) Writing(items ...T) func(tx WriteTransaction) error {
	return func(tx WriteTransaction) error {
		c.WriteMany(tx, items)
		return nil
	}
}

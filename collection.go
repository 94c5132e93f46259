package kvdoc

// Collection gives typed access to the items of type T stored in one
// collection. Declare collections once, next to the schema, with Objects,
// Values and the other shape constructors.
//
// The plain methods take a transaction; On binds a Handle instead.
type Collection[T Persistable] struct {
	name  string
	codec StorageCodec[T]
}

// NewCollection declares the collection of T with a custom storage codec.
func NewCollection[T Persistable](scm *Schema, codec StorageCodec[T]) *Collection[T] {
	name := CollectionOf[T]()
	if !codec.Shape().IsValid() {
		panic("kvdoc: invalid shape for collection " + name)
	}
	scm.addCollection(name, typeOf[T](), codec.Shape())
	return &Collection[T]{
		name:  name,
		codec: codec,
	}
}

func (c *Collection[T]) Name() string {
	return c.name
}

func (c *Collection[T]) Shape() Shape {
	return c.codec.Shape()
}

func (c *Collection[T]) Codec() StorageCodec[T] {
	return c.codec
}

// IndexWithKey returns the index of key within this collection.
func (c *Collection[T]) IndexWithKey(key string) Index {
	return Index{c.name, key}
}

func (c *Collection[T]) indexOf(item T) Index {
	return Index{c.name, item.Identifier()}
}

func (c *Collection[T]) indexesWithKeys(keys []string) []Index {
	result := make([]Index, len(keys))
	for i, k := range keys {
		result[i] = Index{c.name, k}
	}
	return result
}

func (c *Collection[T]) String() string {
	return c.name + "(" + c.codec.Shape().String() + ")"
}

package kvdoc

// Shape is one of the six ways a collection stores its items: the payload is
// an object or a value, and it has no metadata, object metadata or value
// metadata.
type Shape int

const (
	ObjectNoMetadata Shape = iota + 1
	ObjectWithObjectMetadata
	ObjectWithValueMetadata
	ValueNoMetadata
	ValueWithObjectMetadata
	ValueWithValueMetadata
)

var shapeNames = map[Shape]string{
	ObjectNoMetadata:         "object",
	ObjectWithObjectMetadata: "object+object-meta",
	ObjectWithValueMetadata:  "object+value-meta",
	ValueNoMetadata:          "value",
	ValueWithObjectMetadata:  "value+object-meta",
	ValueWithValueMetadata:   "value+value-meta",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return "invalid"
}

func (s Shape) IsValid() bool {
	return s >= ObjectNoMetadata && s <= ValueWithValueMetadata
}

func (s Shape) PayloadIsValue() bool {
	return s >= ValueNoMetadata
}

func (s Shape) HasMetadata() bool {
	return s != ObjectNoMetadata && s != ValueNoMetadata
}

func (s Shape) MetadataIsValue() bool {
	return s == ObjectWithValueMetadata || s == ValueWithValueMetadata
}

// StorageCodec converts items to and from the pair of objects stored at their
// index. FromPrimitive returns false when obj does not reconstruct an item;
// undecodable metadata only leaves the item's metadata unset.
type StorageCodec[T any] interface {
	Shape() Shape
	ToPrimitive(item T) (obj, meta any)
	FromPrimitive(obj, meta any) (T, bool)
}

type plainCodec[T any] struct {
	shape   Shape
	payload Codec[T]
}

func (c plainCodec[T]) Shape() Shape { return c.shape }

func (c plainCodec[T]) ToPrimitive(item T) (any, any) {
	return c.payload.Encode(item), nil
}

func (c plainCodec[T]) FromPrimitive(obj, _ any) (T, bool) {
	if obj == nil {
		var zero T
		return zero, false
	}
	return c.payload.Decode(obj)
}

type metadataCodec[T MetadataPersistable[T, M], M any] struct {
	shape    Shape
	payload  Codec[T]
	metadata Codec[M]
}

func (c metadataCodec[T, M]) Shape() Shape { return c.shape }

func (c metadataCodec[T, M]) ToPrimitive(item T) (obj, meta any) {
	obj = c.payload.Encode(item)
	if m := item.Metadata(); m != nil {
		meta = c.metadata.Encode(*m)
	}
	return obj, meta
}

func (c metadataCodec[T, M]) FromPrimitive(obj, meta any) (T, bool) {
	if obj == nil {
		var zero T
		return zero, false
	}
	item, ok := c.payload.Decode(obj)
	if !ok {
		return item, false
	}
	var mp *M
	if meta != nil {
		if m, ok := c.metadata.Decode(meta); ok {
			mp = &m
		}
	}
	return item.WithMetadata(mp), true
}

// Objects declares a collection of objects without metadata.
func Objects[T Persistable](scm *Schema) *Collection[T] {
	return NewCollection(scm, StorageCodec[T](plainCodec[T]{ObjectNoMetadata, ObjectCodec[T](scm)}))
}

// ObjectsWithObjectMetadata declares a collection of objects whose metadata
// M is an object too.
func ObjectsWithObjectMetadata[T MetadataPersistable[T, M], M any](scm *Schema) *Collection[T] {
	return NewCollection(scm, StorageCodec[T](metadataCodec[T, M]{ObjectWithObjectMetadata, ObjectCodec[T](scm), ObjectCodec[M](scm)}))
}

// ObjectsWithValueMetadata declares a collection of objects whose metadata
// M is a value stored through the coder MC.
func ObjectsWithValueMetadata[T MetadataPersistable[T, M], M ValueCoding[MC], MC Coding[M]](scm *Schema) *Collection[T] {
	return NewCollection(scm, StorageCodec[T](metadataCodec[T, M]{ObjectWithValueMetadata, ObjectCodec[T](scm), ValueCodec[M, MC](scm)}))
}

// Values declares a collection of values stored through the coder C.
func Values[T interface {
	Persistable
	ValueCoding[C]
}, C Coding[T]](scm *Schema) *Collection[T] {
	return NewCollection(scm, StorageCodec[T](plainCodec[T]{ValueNoMetadata, ValueCodec[T, C](scm)}))
}

// ValuesWithObjectMetadata declares a collection of values stored through
// the coder C, whose metadata M is an object.
func ValuesWithObjectMetadata[T interface {
	MetadataPersistable[T, M]
	ValueCoding[C]
}, C Coding[T], M any](scm *Schema) *Collection[T] {
	return NewCollection(scm, StorageCodec[T](metadataCodec[T, M]{ValueWithObjectMetadata, ValueCodec[T, C](scm), ObjectCodec[M](scm)}))
}

// ValuesWithValueMetadata declares a collection of values stored through the
// coder C, whose metadata M is a value stored through the coder MC.
func ValuesWithValueMetadata[T interface {
	MetadataPersistable[T, M]
	ValueCoding[C]
}, C Coding[T], M ValueCoding[MC], MC Coding[M]](scm *Schema) *Collection[T] {
	return NewCollection(scm, StorageCodec[T](metadataCodec[T, M]{ValueWithValueMetadata, ValueCodec[T, C](scm), ValueCodec[M, MC](scm)}))
}

package kvdoc

import (
	"reflect"
)

// Codec converts between a Go type and the object the engine stores for it.
type Codec[T any] interface {
	Encode(v T) any
	Decode(obj any) (T, bool)
}

// ValueCoding is implemented by value types that are stored through a coder
// of type C rather than directly.
type ValueCoding[C any] interface {
	Encoded() C
}

// Coding is implemented by coders: registered object types wrapping a value
// of type V. DecodedValue returns false if the coder does not hold a valid V.
type Coding[V any] interface {
	DecodedValue() (V, bool)
}

// ObjectCodec stores T directly, registering it in the schema under its
// default name unless it has already been registered.
func ObjectCodec[T any](scm *Schema) Codec[T] {
	scm.ensureType(typeOf[T]())
	return objectCodec[T]{}
}

type objectCodec[T any] struct{}

func (objectCodec[T]) Encode(v T) any {
	return v
}

func (objectCodec[T]) Decode(obj any) (T, bool) {
	v, ok := obj.(T)
	if !ok || isNil(obj) {
		var zero T
		return zero, false
	}
	return v, true
}

// ValueCodec stores V through its coder C, registering C in the schema unless
// it has already been registered.
func ValueCodec[V ValueCoding[C], C Coding[V]](scm *Schema) Codec[V] {
	scm.ensureType(typeOf[C]())
	return valueCodec[V, C]{}
}

type valueCodec[V ValueCoding[C], C Coding[V]] struct{}

func (valueCodec[V, C]) Encode(v V) any {
	return v.Encoded()
}

func (valueCodec[V, C]) Decode(obj any) (v V, ok bool) {
	c, ok := obj.(C)
	if !ok || isNil(obj) {
		return v, false
	}
	defer func() {
		if e := recover(); e != nil {
			var zero V
			v, ok = zero, false
		}
	}()
	return c.DecodedValue()
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

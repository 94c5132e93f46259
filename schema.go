package kvdoc

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// Schema knows which Go types may be stored as objects, under which names,
// and which collections have been declared.
//
// Object names are persisted next to every stored object, so renaming a Go
// type is harmless as long as its registered name stays the same.
//
// The default name of T and *T is the same, so a type is stored either by
// value or by pointer within one schema, not both. Register one of them under
// an explicit name to use both.
type Schema struct {
	typesByName     *xsync.MapOf[string, reflect.Type]
	namesByType     *xsync.MapOf[reflect.Type, string]
	collections     *xsync.MapOf[string, collectionInfo]
	collectionOrder *xsync.MapOf[string, int64]
	lastOrder       atomic.Int64
}

type collectionInfo struct {
	name     string
	itemType reflect.Type
	shape    Shape
}

func NewSchema() *Schema {
	return &Schema{
		typesByName:     xsync.NewMapOf[string, reflect.Type](),
		namesByType:     xsync.NewMapOf[reflect.Type, string](),
		collections:     xsync.NewMapOf[string, collectionInfo](),
		collectionOrder: xsync.NewMapOf[string, int64](),
	}
}

// RegisterObject makes T storable as an object under the given name.
// Registering the same type under the same name twice is a no-op; any other
// conflict panics.
func RegisterObject[T any](scm *Schema, name string) {
	scm.registerType(reflect.TypeOf((*T)(nil)).Elem(), name)
}

func (scm *Schema) registerType(rt reflect.Type, name string) {
	if name == "" {
		panic(fmt.Errorf("empty object name for %v", rt))
	}
	if rt.Kind() == reflect.Interface {
		panic(fmt.Errorf("cannot register interface type %v as an object", rt))
	}
	if existing, loaded := scm.typesByName.LoadOrStore(name, rt); loaded && existing != rt {
		if isPointerPair(existing, rt) {
			panic(fmt.Errorf("object name %q already registered for %v, cannot register %v: store the type either by value or by pointer, or register one of them under another name", name, existing, rt))
		}
		panic(fmt.Errorf("object name %q already registered for %v, cannot register %v", name, existing, rt))
	}
	if existing, loaded := scm.namesByType.LoadOrStore(rt, name); loaded && existing != name {
		panic(fmt.Errorf("%v already registered as object %q, cannot register as %q", rt, existing, name))
	}
}

// ensureType registers rt under its default name unless it is already known.
func (scm *Schema) ensureType(rt reflect.Type) string {
	if name, ok := scm.namesByType.Load(rt); ok {
		return name
	}
	scm.registerType(rt, defaultObjectName(rt))
	name, _ := scm.namesByType.Load(rt)
	return name
}

func defaultObjectName(rt reflect.Type) string {
	return strings.TrimLeft(rt.String(), "*")
}

func isPointerPair(a, b reflect.Type) bool {
	return (a.Kind() == reflect.Pointer && a.Elem() == b) || (b.Kind() == reflect.Pointer && b.Elem() == a)
}

// ObjectName returns the registered name of v's dynamic type.
func (scm *Schema) ObjectName(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	return scm.namesByType.Load(reflect.TypeOf(v))
}

func (scm *Schema) objectType(name string) (reflect.Type, bool) {
	return scm.typesByName.Load(name)
}

// ObjectNames returns the names of all registered object types, sorted.
func (scm *Schema) ObjectNames() []string {
	var result []string
	scm.typesByName.Range(func(name string, _ reflect.Type) bool {
		result = append(result, name)
		return true
	})
	slices.Sort(result)
	return result
}

func (scm *Schema) addCollection(name string, itemType reflect.Type, shape Shape) {
	if name == "" {
		panic(fmt.Errorf("%v: empty collection name", itemType))
	}
	info := collectionInfo{name, itemType, shape}
	if existing, loaded := scm.collections.LoadOrStore(name, info); loaded && existing.itemType != itemType {
		panic(fmt.Errorf("collection %q already declared for %v, cannot declare for %v", name, existing.itemType, itemType))
	} else if !loaded {
		scm.collectionOrder.Store(name, scm.lastOrder.Add(1))
	}
}

// CollectionNames returns the declared collections in declaration order.
func (scm *Schema) CollectionNames() []string {
	var result []string
	scm.collections.Range(func(name string, _ collectionInfo) bool {
		result = append(result, name)
		return true
	})
	slices.SortFunc(result, func(a, b string) int {
		pa, _ := scm.collectionOrder.Load(a)
		pb, _ := scm.collectionOrder.Load(b)
		return cmp.Compare(pa, pb)
	})
	return result
}

// CollectionShape returns the storage shape declared for the collection.
func (scm *Schema) CollectionShape(name string) (Shape, bool) {
	info, ok := scm.collections.Load(name)
	return info.shape, ok
}

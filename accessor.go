package kvdoc

// Accessor binds a collection to a Handle.
type Accessor[T Persistable] struct {
	c *Collection[T]
	h Handle
}

// On binds the collection to h.
func (c *Collection[T]) On(h Handle) Accessor[T] {
	return Accessor[T]{c, h}
}

// Found is the result of a single-item read. OK is false when nothing
// readable is stored at the index.
type Found[T any] struct {
	Item T
	OK   bool
}

func (a Accessor[T]) Read(idx Index) (T, bool) {
	r := readVia(a.h, func(tx ReadTransaction) Found[T] {
		item, ok := a.c.Read(tx, idx)
		return Found[T]{item, ok}
	})
	return r.Item, r.OK
}

func (a Accessor[T]) ReadByKey(key string) (T, bool) {
	return a.Read(a.c.IndexWithKey(key))
}

func (a Accessor[T]) ReadMany(indexes []Index) []T {
	return readVia(a.h, func(tx ReadTransaction) []T {
		return a.c.ReadMany(tx, indexes)
	})
}

func (a Accessor[T]) ReadByKeys(keys []string) []T {
	return readVia(a.h, func(tx ReadTransaction) []T {
		return a.c.ReadByKeys(tx, keys)
	})
}

func (a Accessor[T]) ReadAll() []T {
	return readVia(a.h, a.c.ReadAll)
}

func (a Accessor[T]) FilterExisting(keys []string) (existing []T, missing []string) {
	a.h.withRead(func(tx ReadTransaction) {
		existing, missing = a.c.FilterExisting(tx, keys)
	})
	return
}

func (a Accessor[T]) Exists(key string) bool {
	return readVia(a.h, func(tx ReadTransaction) bool {
		return a.c.Exists(tx, key)
	})
}

func (a Accessor[T]) Count() int {
	return readVia(a.h, a.c.Count)
}

func (a Accessor[T]) Write(item T) T {
	return writeVia(a.h, func(tx WriteTransaction) T {
		return a.c.Write(tx, item)
	})
}

func (a Accessor[T]) WriteMany(items []T) []T {
	return writeVia(a.h, func(tx WriteTransaction) []T {
		return a.c.WriteMany(tx, items)
	})
}

func (a Accessor[T]) Remove(item T) {
	a.h.withWrite(func(tx WriteTransaction) {
		a.c.Remove(tx, item)
	})
}

func (a Accessor[T]) RemoveMany(items []T) {
	a.h.withWrite(func(tx WriteTransaction) {
		a.c.RemoveMany(tx, items)
	})
}

func (a Accessor[T]) RemoveAtIndexes(indexes []Index) {
	a.h.withWrite(func(tx WriteTransaction) {
		a.c.RemoveAtIndexes(tx, indexes)
	})
}

func (a Accessor[T]) RemoveByKey(key string) {
	a.h.withWrite(func(tx WriteTransaction) {
		a.c.RemoveByKey(tx, key)
	})
}

func (a Accessor[T]) RemoveByKeys(keys []string) {
	a.h.withWrite(func(tx WriteTransaction) {
		a.c.RemoveByKeys(tx, keys)
	})
}

func (a Accessor[T]) RemoveAll() {
	a.h.withWrite(a.c.RemoveAll)
}

// WriteOperation returns an unstarted operation writing items. Panics when
// bound to a transaction.
func (a Accessor[T]) WriteOperation(items ...T) *Operation {
	conn, release := a.h.connection()
	op := conn.WriteOperation(a.c.Writing(items...))
	op.release = release
	return op
}

// RemoveOperation returns an unstarted operation removing items. Panics when
// bound to a transaction.
func (a Accessor[T]) RemoveOperation(items ...T) *Operation {
	conn, release := a.h.connection()
	op := conn.WriteOperation(a.c.Removing(items...))
	op.release = release
	return op
}

// Async returns the asynchronous form of this accessor.
func (a Accessor[T]) Async() AsyncAccessor[T] {
	return AsyncAccessor[T](a)
}

// AsyncAccessor is an Accessor whose operations run on a connection's worker
// and return futures. Operations panic when bound to a transaction.
type AsyncAccessor[T Persistable] struct {
	c *Collection[T]
	h Handle
}

func (a AsyncAccessor[T]) Read(idx Index) *Future[Found[T]] {
	return readAsync(a.h, func(tx ReadTransaction) Found[T] {
		item, ok := a.c.Read(tx, idx)
		return Found[T]{item, ok}
	})
}

func (a AsyncAccessor[T]) ReadByKey(key string) *Future[Found[T]] {
	return a.Read(a.c.IndexWithKey(key))
}

func (a AsyncAccessor[T]) ReadMany(indexes []Index) *Future[[]T] {
	return readAsync(a.h, func(tx ReadTransaction) []T {
		return a.c.ReadMany(tx, indexes)
	})
}

func (a AsyncAccessor[T]) ReadByKeys(keys []string) *Future[[]T] {
	return readAsync(a.h, func(tx ReadTransaction) []T {
		return a.c.ReadByKeys(tx, keys)
	})
}

func (a AsyncAccessor[T]) ReadAll() *Future[[]T] {
	return readAsync(a.h, a.c.ReadAll)
}

// Filtered is the result of an asynchronous FilterExisting.
type Filtered[T any] struct {
	Existing []T
	Missing  []string
}

func (a AsyncAccessor[T]) FilterExisting(keys []string) *Future[Filtered[T]] {
	return readAsync(a.h, func(tx ReadTransaction) Filtered[T] {
		existing, missing := a.c.FilterExisting(tx, keys)
		return Filtered[T]{existing, missing}
	})
}

func (a AsyncAccessor[T]) Exists(key string) *Future[bool] {
	return readAsync(a.h, func(tx ReadTransaction) bool {
		return a.c.Exists(tx, key)
	})
}

func (a AsyncAccessor[T]) Count() *Future[int] {
	return readAsync(a.h, a.c.Count)
}

func (a AsyncAccessor[T]) Write(item T) *Future[T] {
	return writeAsync(a.h, func(tx WriteTransaction) T {
		return a.c.Write(tx, item)
	})
}

func (a AsyncAccessor[T]) WriteMany(items []T) *Future[[]T] {
	return writeAsync(a.h, func(tx WriteTransaction) []T {
		return a.c.WriteMany(tx, items)
	})
}

func (a AsyncAccessor[T]) Remove(item T) *Future[struct{}] {
	return writeAsync(a.h, func(tx WriteTransaction) struct{} {
		a.c.Remove(tx, item)
		return struct{}{}
	})
}

func (a AsyncAccessor[T]) RemoveMany(items []T) *Future[struct{}] {
	return writeAsync(a.h, func(tx WriteTransaction) struct{} {
		a.c.RemoveMany(tx, items)
		return struct{}{}
	})
}

func (a AsyncAccessor[T]) RemoveAtIndexes(indexes []Index) *Future[struct{}] {
	return writeAsync(a.h, func(tx WriteTransaction) struct{} {
		a.c.RemoveAtIndexes(tx, indexes)
		return struct{}{}
	})
}

func (a AsyncAccessor[T]) RemoveByKeys(keys []string) *Future[struct{}] {
	return writeAsync(a.h, func(tx WriteTransaction) struct{} {
		a.c.RemoveByKeys(tx, keys)
		return struct{}{}
	})
}

func (a AsyncAccessor[T]) RemoveByKey(key string) *Future[struct{}] {
	return writeAsync(a.h, func(tx WriteTransaction) struct{} {
		a.c.RemoveByKey(tx, key)
		return struct{}{}
	})
}

func (a AsyncAccessor[T]) RemoveAll() *Future[struct{}] {
	return writeAsync(a.h, func(tx WriteTransaction) struct{} {
		a.c.RemoveAll(tx)
		return struct{}{}
	})
}

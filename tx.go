package kvdoc

import (
	"encoding/json"
	"fmt"
	"reflect"
	"runtime/debug"
	"time"
)

const (
	dataBucketName = "data"
	metaBucketName = "meta"
)

// Tx is a transaction on a DB. It implements ReadTransaction, and also
// WriteTransaction when writable.
type Tx struct {
	db        *DB
	stx       storageTx
	closed    bool
	committed bool
	written   bool
	startTime time.Time
}

func newTx(db *DB, stx storageTx) *Tx {
	return &Tx{
		db:        db,
		stx:       stx,
		startTime: time.Now(),
	}
}

func (tx *Tx) DB() *DB {
	return tx.db
}

func (tx *Tx) Schema() *Schema {
	return tx.db.schema
}

func (tx *Tx) IsWritable() bool {
	return tx.stx.Writable()
}

func (tx *Tx) isVerboseLoggingEnabled() bool {
	return tx.db.verbose
}

// Collections returns the names of all collections that have ever been
// written to, in key order.
func (tx *Tx) Collections() []string {
	return tx.stx.RootBuckets()
}

func (tx *Tx) KeysInCollection(collection string) []string {
	b := tx.stx.Bucket(collection, dataBucketName)
	if b == nil {
		return nil
	}
	var keys []string
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		keys = append(keys, string(k))
	}
	return keys
}

func (tx *Tx) ReadAtIndex(idx Index) any {
	return tx.readObject(idx, dataBucketName, "GET")
}

func (tx *Tx) ReadMetadataAtIndex(idx Index) any {
	return tx.readObject(idx, metaBucketName, "META")
}

// readRawAtIndex returns the raw bytes stored in the given slot.
func (tx *Tx) readRawAtIndex(idx Index, sub string) []byte {
	b := tx.stx.Bucket(idx.Collection, sub)
	if b == nil {
		return nil
	}
	return b.Get([]byte(idx.Key))
}

func (tx *Tx) readObject(idx Index, sub string, op string) any {
	raw := tx.readRawAtIndex(idx, sub)
	if raw == nil {
		if tx.isVerboseLoggingEnabled() {
			tx.db.logf("db: %s.NOTFOUND %v", op, idx)
		}
		return nil
	}
	obj, err := decodeObject(raw, tx.db.schema)
	if err != nil {
		tx.db.metrics.unreadable.Inc()
		if tx.isVerboseLoggingEnabled() {
			tx.db.logf("db: %s.UNREADABLE %v: %v", op, idx, err)
		}
		return nil
	}
	tx.db.metrics.objectsRead.Inc()
	if tx.isVerboseLoggingEnabled() {
		tx.db.logf("db: %s %v => %s", op, idx, loggableObject(obj))
	}
	return obj
}

func (tx *Tx) WriteAtIndex(idx Index, obj, meta any) {
	tx.ensureWritable("WriteAtIndex")
	if isNil(obj) {
		panic(fmt.Errorf("kvdoc: attempt to write nil object at %v", idx))
	}
	if idx.Key == "" {
		panic(fmt.Errorf("kvdoc: attempt to write %T with empty key into %s", obj, idx.Collection))
	}
	key := []byte(idx.Key)

	dataBuck, err := tx.stx.CreateBucket(idx.Collection, dataBucketName)
	if err != nil {
		panic(collErrf(idx, err, "creating data bucket"))
	}
	tx.markWritten()
	ensureColl(idx, dataBuck.Put(key, tx.encode(idx, obj)), "put")

	if isNil(meta) {
		if metaBuck := tx.stx.Bucket(idx.Collection, metaBucketName); metaBuck != nil {
			ensureColl(idx, metaBuck.Delete(key), "delete metadata")
		}
	} else {
		metaBuck, err := tx.stx.CreateBucket(idx.Collection, metaBucketName)
		if err != nil {
			panic(collErrf(idx, err, "creating metadata bucket"))
		}
		ensureColl(idx, metaBuck.Put(key, tx.encode(idx, meta)), "put metadata")
	}

	tx.db.metrics.objectsWritten.Inc()
	if tx.isVerboseLoggingEnabled() {
		if isNil(meta) {
			tx.db.logf("db: PUT %v => %s", idx, loggableObject(obj))
		} else {
			tx.db.logf("db: PUT %v => %s meta=%s", idx, loggableObject(obj), loggableObject(meta))
		}
	}
}

// writeRawAtIndex stores raw bytes in the given slot, bypassing encoding.
func (tx *Tx) writeRawAtIndex(idx Index, sub string, raw []byte) {
	tx.ensureWritable("writeRawAtIndex")
	b, err := tx.stx.CreateBucket(idx.Collection, sub)
	if err != nil {
		panic(collErrf(idx, err, "creating %s bucket", sub))
	}
	tx.markWritten()
	ensureColl(idx, b.Put([]byte(idx.Key), raw), "put raw")
}

func (tx *Tx) encode(idx Index, obj any) []byte {
	name, ok := tx.db.schema.ObjectName(obj)
	if !ok {
		panic(collErrf(idx, nil, "%T is not a registered object type", obj))
	}
	return tx.db.encoding.encodeObject(nil, name, reflect.ValueOf(obj))
}

func (tx *Tx) RemoveAtIndexes(indexes ...Index) {
	tx.ensureWritable("RemoveAtIndexes")
	for _, idx := range indexes {
		dataBuck := tx.stx.Bucket(idx.Collection, dataBucketName)
		if dataBuck == nil {
			tx.logDelete(idx, false)
			continue
		}
		key := []byte(idx.Key)
		found := dataBuck.Get(key) != nil
		if found {
			tx.markWritten()
			ensureColl(idx, dataBuck.Delete(key), "delete")
		}
		if metaBuck := tx.stx.Bucket(idx.Collection, metaBucketName); metaBuck != nil {
			if metaBuck.Get(key) != nil {
				tx.markWritten()
				ensureColl(idx, metaBuck.Delete(key), "delete metadata")
			}
		}
		if found {
			tx.db.metrics.objectsRemoved.Inc()
		}
		tx.logDelete(idx, found)
	}
}

func (tx *Tx) logDelete(idx Index, found bool) {
	if !tx.isVerboseLoggingEnabled() {
		return
	}
	if found {
		tx.db.logf("db: DELETE %v", idx)
	} else {
		tx.db.logf("db: DELETE.NOOP %v", idx)
	}
}

// RemoveAllInCollection removes every object and metadata of a collection.
func (tx *Tx) RemoveAllInCollection(collection string) {
	tx.ensureWritable("RemoveAllInCollection")
	for _, sub := range []string{dataBucketName, metaBucketName} {
		err := tx.stx.DeleteBucket(collection, sub)
		if err != nil && err != ErrBucketNotFound {
			panic(collErrf(Index{Collection: collection}, err, "deleting %s bucket", sub))
		}
		if err == nil {
			tx.markWritten()
		}
	}
	if tx.isVerboseLoggingEnabled() {
		tx.db.logf("db: DELETE.ALL %s", collection)
	}
}

func (tx *Tx) ensureWritable(op string) {
	if tx.closed {
		panic(fmt.Errorf("kvdoc: %s on a closed transaction", op))
	}
	if !tx.stx.Writable() {
		panic(fmt.Errorf("kvdoc: %s on a read-only transaction", op))
	}
}

func (tx *Tx) markWritten() {
	tx.written = true
}

func (tx *Tx) Commit() error {
	if tx.closed {
		return fmt.Errorf("kvdoc: commit of a closed transaction")
	}
	size := tx.stx.Size()
	err := tx.stx.Commit()
	if err != nil {
		return err
	}
	tx.committed = true
	if tx.written {
		tx.db.lastSize.Store(size)
	}
	return nil
}

// Close rolls back the transaction unless it has been committed. Safe to
// call multiple times.
func (tx *Tx) Close() {
	if tx.closed {
		return
	}
	tx.closed = true
	if !tx.committed {
		// The only error Rollback returns after a commit is ErrTxClosed,
		// which the storage layer already swallows.
		err := tx.stx.Rollback()
		if err != nil {
			panic(err) // not expected to happen unless the engine API changes
		}
	}
	if tx.stx.Writable() {
		tx.db.WriterCount.Add(-1)
	} else {
		tx.db.ReaderCount.Add(-1)
	}
}

type panicked struct {
	reason any
	stack  string
}

func (p panicked) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", p.reason, p.stack)
}

func (p panicked) Unwrap() error {
	err, _ := p.reason.(error)
	return err
}

func safelyCall(fn func(*Tx) error, tx *Tx) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicked{p, string(debug.Stack())}
		}
	}()
	return fn(tx)
}

// safelyBegin starts a transaction, returning a failure to begin as a
// panicked error.
func safelyBegin(db *DB, writable bool) (tx *Tx, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicked{p, string(debug.Stack())}
		}
	}()
	return db.beginTx(writable), nil
}

func ensureColl(idx Index, err error, op string) {
	if err != nil {
		panic(collErrf(idx, err, "%s", op))
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

func loggableObject(obj any) string {
	if obj == nil {
		return "<none>"
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return fmt.Sprintf("<%T>", obj)
	}
	return string(raw)
}

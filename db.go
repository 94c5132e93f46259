package kvdoc

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/puzpuzpuz/xsync/v3"
	"go.etcd.io/bbolt"
)

// DB is an open database: an engine instance plus the schema describing what
// is stored in it. Use NewConnection to read and write.
type DB struct {
	stor     storage
	schema   *Schema
	encoding Encoding
	logf     func(format string, args ...any)
	verbose  bool

	lastSize           atomic.Int64
	ReaderCount        atomic.Int64
	WriterCount        atomic.Int64
	PendingWriterCount atomic.Int64
	ReadCount          atomic.Uint64
	WriteCount         atomic.Uint64

	metrics *dbMetrics

	workers sync.WaitGroup
	conns   *xsync.MapOf[*Connection, struct{}]
	closed  atomic.Bool
}

type Options struct {
	Logf      func(format string, args ...any)
	Verbose   bool
	IsTesting bool
	MmapSize  int

	// ReadOnly opens the Bolt file with a shared lock; write transactions fail.
	ReadOnly bool

	// Encoding of newly written objects. Existing data remains readable
	// regardless of this setting.
	Encoding Encoding

	// MetricsName labels the metrics of this database (db="...").
	MetricsName string
}

// Open opens (creating if needed) a Bolt database file.
func Open(path string, schema *Schema, opt Options) (*DB, error) {
	bopt := &bbolt.Options{}
	*bopt = *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
		bopt.InitialMmapSize = 1024 * 1024 * 5
	} else {
		bopt.InitialMmapSize = 1024 * 1024 * 1024
		bopt.FreelistType = bbolt.FreelistMapType
	}
	if opt.MmapSize != 0 {
		bopt.InitialMmapSize = opt.MmapSize
	}
	bopt.ReadOnly = opt.ReadOnly

	bdb, err := bbolt.Open(path, 0666, bopt)
	if err != nil {
		return nil, fmt.Errorf("kvdoc: %w", err)
	}
	return newDB(newBoltStorage(bdb), schema, opt), nil
}

// OpenMemory returns a transient database kept entirely in memory.
func OpenMemory(schema *Schema, opt Options) *DB {
	return newDB(newMemStorage(), schema, opt)
}

func newDB(stor storage, schema *Schema, opt Options) *DB {
	if schema == nil {
		panic("nil schema")
	}
	logf := opt.Logf
	if logf == nil {
		logf = func(format string, args ...any) {
			slog.Debug(fmt.Sprintf(format, args...))
		}
	}
	db := &DB{
		stor:     stor,
		schema:   schema,
		encoding: opt.Encoding,
		logf:     logf,
		verbose:  opt.Verbose,
		conns:    xsync.NewMapOf[*Connection, struct{}](),
	}
	db.metrics = newDBMetrics(db, opt.MetricsName)
	return db
}

func (db *DB) Schema() *Schema {
	return db.schema
}

func (db *DB) Size() int64 {
	return db.lastSize.Load()
}

// NewConnection returns a new connection. Each connection runs its
// transactions one at a time and owns a worker for asynchronous operations.
func (db *DB) NewConnection() *Connection {
	if db.closed.Load() {
		panic("kvdoc: NewConnection on a closed DB")
	}
	conn := newConnection(db)
	db.conns.Store(conn, struct{}{})
	return conn
}

// Close closes all connections, waits for pending asynchronous operations
// and closes the engine.
func (db *DB) Close() {
	if !db.closed.CompareAndSwap(false, true) {
		return
	}
	var conns []*Connection
	db.conns.Range(func(conn *Connection, _ struct{}) bool {
		conns = append(conns, conn)
		return true
	})
	for _, conn := range conns {
		conn.Close()
	}
	db.workers.Wait()

	err := db.stor.Close()
	if err != nil {
		panic(fmt.Errorf("kvdoc: closing: %w", err))
	}
}

func (db *DB) removeConn(conn *Connection) {
	db.conns.Delete(conn)
}

func (db *DB) beginTx(writable bool) *Tx {
	if writable {
		db.PendingWriterCount.Add(1)
	}
	stx, err := db.stor.BeginTx(writable)
	if writable {
		db.PendingWriterCount.Add(-1)
	}
	if err != nil {
		panic(fmt.Errorf("kvdoc: begin(writable=%v) failed: %w", writable, err))
	}
	if writable {
		db.WriterCount.Add(1)
		db.WriteCount.Add(1)
		db.metrics.writeTxns.Inc()
	} else {
		db.ReaderCount.Add(1)
		db.ReadCount.Add(1)
		db.metrics.readTxns.Inc()
	}
	return newTx(db, stx)
}

func (db *DB) String() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "kvdoc.DB(readers=%d writers=%d reads=%d writes=%d)", db.ReaderCount.Load(), db.WriterCount.Load(), db.ReadCount.Load(), db.WriteCount.Load())
	return buf.String()
}

// Metrics returns the metrics set of this database. The set is not
// registered globally; pass it to metrics.RegisterSet or call WritePrometheus.
func (db *DB) Metrics() *metrics.Set {
	return db.metrics.set
}

package kvdoc

import (
	"fmt"
	"sync"
)

// Connection runs transactions against a DB one at a time. Synchronous calls
// block the caller; asynchronous ones are queued on the connection's worker
// and complete a Future.
//
// A transaction block must not start another transaction on the same
// connection.
type Connection struct {
	db *DB
	mu sync.Mutex

	qmu    sync.Mutex
	qcond  *sync.Cond
	queue  []func()
	closed bool
}

func newConnection(db *DB) *Connection {
	conn := &Connection{db: db}
	conn.qcond = sync.NewCond(&conn.qmu)
	db.workers.Add(1)
	go conn.work()
	return conn
}

func (conn *Connection) DB() *DB {
	return conn.db
}

func (conn *Connection) work() {
	defer conn.db.workers.Done()
	for {
		conn.qmu.Lock()
		for len(conn.queue) == 0 && !conn.closed {
			conn.qcond.Wait()
		}
		if len(conn.queue) == 0 {
			conn.qmu.Unlock()
			return
		}
		job := conn.queue[0]
		conn.queue[0] = nil
		conn.queue = conn.queue[1:]
		conn.qmu.Unlock()

		job()
	}
}

func (conn *Connection) enqueue(job func()) {
	conn.qmu.Lock()
	defer conn.qmu.Unlock()
	if conn.closed {
		panic("kvdoc: operation on a closed connection")
	}
	conn.queue = append(conn.queue, job)
	conn.qcond.Signal()
	conn.db.metrics.asyncOps.Inc()
}

// Close stops accepting asynchronous operations. Operations already queued
// still run; DB.Close waits for them.
func (conn *Connection) Close() {
	conn.qmu.Lock()
	already := conn.closed
	conn.closed = true
	conn.qcond.Signal()
	conn.qmu.Unlock()
	if !already {
		conn.db.removeConn(conn)
	}
}

func (conn *Connection) ensureOpen() {
	conn.qmu.Lock()
	closed := conn.closed
	conn.qmu.Unlock()
	if closed {
		panic("kvdoc: operation on a closed connection")
	}
}

// Read runs f in a read-only transaction.
func (conn *Connection) Read(f func(tx *Tx)) {
	conn.ensureOpen()
	conn.mu.Lock()
	defer conn.mu.Unlock()
	tx := conn.db.beginTx(false)
	defer tx.Close()
	f(tx)
}

// Write runs f in a read/write transaction and commits it. If f panics, the
// transaction is rolled back and the panic propagates.
func (conn *Connection) Write(f func(tx *Tx)) {
	conn.ensureOpen()
	conn.mu.Lock()
	defer conn.mu.Unlock()
	tx := conn.db.beginTx(true)
	defer tx.Close()
	f(tx)
	err := tx.Commit()
	if err != nil {
		panic(fmt.Errorf("kvdoc: commit failed: %w", err))
	}
}

// Tx runs f in a transaction, committing a writable one if f returns nil.
// An error or panic in f rolls the transaction back and is returned, as is a
// failure to begin the transaction.
func (conn *Connection) Tx(writable bool, f func(tx *Tx) error) error {
	conn.ensureOpen()
	return conn.runTx(writable, f)
}

func (conn *Connection) runTx(writable bool, f func(tx *Tx) error) error {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	tx, err := safelyBegin(conn.db, writable)
	if err != nil {
		return err
	}
	defer tx.Close()
	err = safelyCall(f, tx)
	if err != nil {
		return err
	}
	if writable {
		return tx.Commit()
	}
	return nil
}

// ReadValue runs f in a read-only transaction and returns its result.
func ReadValue[R any](conn *Connection, f func(tx *Tx) R) (result R) {
	conn.Read(func(tx *Tx) {
		result = f(tx)
	})
	return
}

// WriteValue runs f in a read/write transaction and returns its result.
func WriteValue[R any](conn *Connection, f func(tx *Tx) R) (result R) {
	conn.Write(func(tx *Tx) {
		result = f(tx)
	})
	return
}

// AsyncRead queues f to run in a read-only transaction on the connection's
// worker.
func AsyncRead[R any](conn *Connection, f func(tx *Tx) R) *Future[R] {
	return asyncTx(conn, false, f)
}

// AsyncWrite queues f to run in a read/write transaction on the connection's
// worker. The future resolves after the commit.
func AsyncWrite[R any](conn *Connection, f func(tx *Tx) R) *Future[R] {
	return asyncTx(conn, true, f)
}

func asyncTx[R any](conn *Connection, writable bool, f func(tx *Tx) R) *Future[R] {
	fut := newFuture[R]()
	conn.enqueue(func() {
		var result R
		err := conn.runTx(writable, func(tx *Tx) error {
			result = f(tx)
			return nil
		})
		if err != nil {
			var zero R
			result = zero
		}
		fut.resolve(result, err)
	})
	return fut
}

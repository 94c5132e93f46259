package kvdoc

import (
	"errors"
	"sync/atomic"
)

var ErrOperationStarted = errors.New("kvdoc: operation already started")

// Operation is a unit of work: a list of blocks run in order inside one
// read/write transaction. Either all of their writes are committed or none.
// An operation runs at most once.
type Operation struct {
	conn    *Connection
	blocks  []func(tx WriteTransaction) error
	started atomic.Bool
	release func()
}

// WriteOperation creates an operation that runs blocks on this connection.
func (conn *Connection) WriteOperation(blocks ...func(tx WriteTransaction) error) *Operation {
	return &Operation{
		conn:   conn,
		blocks: blocks,
	}
}

// Add appends more blocks. Panics if the operation has been started.
func (op *Operation) Add(blocks ...func(tx WriteTransaction) error) *Operation {
	if op.started.Load() {
		panic(ErrOperationStarted)
	}
	op.blocks = append(op.blocks, blocks...)
	return op
}

// Run executes the operation on the calling goroutine.
func (op *Operation) Run() error {
	if !op.started.CompareAndSwap(false, true) {
		return ErrOperationStarted
	}
	defer op.finish()
	op.conn.ensureOpen()
	return op.exec()
}

// Start queues the operation on the connection's worker.
func (op *Operation) Start() *Future[struct{}] {
	if !op.started.CompareAndSwap(false, true) {
		return Failed[struct{}](ErrOperationStarted)
	}
	fut := newFuture[struct{}]()
	op.conn.enqueue(func() {
		err := op.exec()
		op.finish()
		fut.resolve(struct{}{}, err)
	})
	return fut
}

func (op *Operation) exec() error {
	return op.conn.runTx(true, func(tx *Tx) error {
		for _, block := range op.blocks {
			if err := block(tx); err != nil {
				return err
			}
		}
		return nil
	})
}

func (op *Operation) finish() {
	if op.release != nil {
		op.release()
	}
}

package kvdoc

// Handle is anything a collection can be accessed through: a *Tx, a
// *Connection or a *DB.
//
// Through a *Tx, operations join that transaction and asynchronous
// operations are unavailable. Through a *Connection, each operation runs in a
// transaction of its own. Through a *DB, each operation uses a temporary
// connection.
type Handle interface {
	withRead(f func(tx ReadTransaction))
	withWrite(f func(tx WriteTransaction))
	connection() (conn *Connection, release func())
}

var (
	_ Handle = (*Tx)(nil)
	_ Handle = (*Connection)(nil)
	_ Handle = (*DB)(nil)
)

func (tx *Tx) withRead(f func(tx ReadTransaction)) {
	f(tx)
}

func (tx *Tx) withWrite(f func(tx WriteTransaction)) {
	tx.ensureWritable("write")
	f(tx)
}

func (tx *Tx) connection() (*Connection, func()) {
	panic("kvdoc: attempting to get connection from a transaction")
}

func (conn *Connection) withRead(f func(tx ReadTransaction)) {
	conn.Read(func(tx *Tx) { f(tx) })
}

func (conn *Connection) withWrite(f func(tx WriteTransaction)) {
	conn.Write(func(tx *Tx) { f(tx) })
}

func (conn *Connection) connection() (*Connection, func()) {
	return conn, func() {}
}

func (db *DB) withRead(f func(tx ReadTransaction)) {
	conn := db.NewConnection()
	defer conn.Close()
	conn.withRead(f)
}

func (db *DB) withWrite(f func(tx WriteTransaction)) {
	conn := db.NewConnection()
	defer conn.Close()
	conn.withWrite(f)
}

func (db *DB) connection() (*Connection, func()) {
	conn := db.NewConnection()
	return conn, conn.Close
}

func readVia[R any](h Handle, f func(tx ReadTransaction) R) (result R) {
	h.withRead(func(tx ReadTransaction) {
		result = f(tx)
	})
	return
}

func writeVia[R any](h Handle, f func(tx WriteTransaction) R) (result R) {
	h.withWrite(func(tx WriteTransaction) {
		result = f(tx)
	})
	return
}

func readAsync[R any](h Handle, f func(tx ReadTransaction) R) *Future[R] {
	conn, release := h.connection()
	defer release()
	return AsyncRead(conn, func(tx *Tx) R { return f(tx) })
}

func writeAsync[R any](h Handle, f func(tx WriteTransaction) R) *Future[R] {
	conn, release := h.connection()
	defer release()
	return AsyncWrite(conn, func(tx *Tx) R { return f(tx) })
}

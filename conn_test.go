package kvdoc

import (
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"go.etcd.io/bbolt"
)

func TestConnection_ReadWriteValue(t *testing.T) {
	db := setup(t, testSchema)
	conn := db.NewConnection()

	p := WriteValue(conn, func(tx *Tx) *Person {
		return people.Write(tx, &Person{ID: "a", Name: "Ann"})
	})
	deepEqual(t, p, &Person{ID: "a", Name: "Ann"})

	n := ReadValue(conn, func(tx *Tx) int {
		return people.Count(tx)
	})
	deepEqual(t, n, 1)
}

func TestConnection_AsyncReadWrite(t *testing.T) {
	db := setup(t, testSchema)
	conn := db.NewConnection()

	var calls atomic.Int32
	fut := AsyncWrite(conn, func(tx *Tx) *Person {
		return people.Write(tx, &Person{ID: "a"})
	})
	fut.OnComplete(func(p *Person, err error) {
		calls.Add(1)
		if err != nil {
			t.Errorf("** async write failed: %v", err)
		}
	})
	p, err := fut.Wait()
	ensure(err)
	deepEqual(t, p, &Person{ID: "a"})

	keys, err := AsyncRead(conn, func(tx *Tx) []string {
		return tx.KeysInCollection("People")
	}).Wait()
	ensure(err)
	deepEqual(t, keys, []string{"a"})

	// the worker runs jobs in order, so the callback has fired by now
	deepEqual(t, calls.Load(), int32(1))
	deepEqual(t, db.metrics.asyncOps.Get(), uint64(2))
}

func TestConnection_AsyncPanicBecomesError(t *testing.T) {
	db := setup(t, testSchema)
	conn := db.NewConnection()

	_, err := AsyncWrite(conn, func(tx *Tx) int {
		people.Write(tx, &Person{ID: "a"})
		panic("boom")
	}).Wait()
	var p panicked
	if !errors.As(err, &p) {
		t.Fatalf("** err = %v, wanted panicked", err)
	}
	isfalse(t, people.On(conn).Exists("a"))

	// the worker survives
	_, err = people.On(conn).Async().Write(&Person{ID: "b"}).Wait()
	ensure(err)
	istrue(t, people.On(conn).Exists("b"))
}

func TestConnection_ClosedConnectionPanics(t *testing.T) {
	db := setup(t, testSchema)
	conn := db.NewConnection()
	conn.Close()
	conn.Close()

	assertPanics(t, func() {
		conn.Read(func(tx *Tx) {})
	})
	assertPanics(t, func() {
		conn.Write(func(tx *Tx) {})
	})
	assertPanics(t, func() {
		AsyncRead(conn, func(tx *Tx) int { return 0 })
	})
	assertPanics(t, func() {
		conn.WriteOperation().Run()
	})
}

func TestHandles_SameResults(t *testing.T) {
	handles := map[string]func(db *DB, f func(h Handle)){
		"db": func(db *DB, f func(h Handle)) {
			f(db)
		},
		"connection": func(db *DB, f func(h Handle)) {
			f(db.NewConnection())
		},
		"tx": func(db *DB, f func(h Handle)) {
			db.NewConnection().Write(func(tx *Tx) {
				f(tx)
			})
		},
	}
	for name, with := range handles {
		t.Run(name, func(t *testing.T) {
			db := setup(t, testSchema)
			with(db, func(h Handle) {
				a := products.On(h)
				a.WriteMany([]*Product{
					{ID: "a", Name: "A", Meta: &ProductMetadata{CategoryID: 1}},
					{ID: "b", Name: "B"},
					{ID: "c", Name: "C"},
				})
				a.Remove(&Product{ID: "c"})
				a.RemoveByKey("nope")
				a.Write(&Product{ID: "d", Name: "D"})
				a.RemoveByKeys([]string{"d"})
				a.RemoveMany(nil)
				a.RemoveAtIndexes(nil)
			})
			with(db, func(h Handle) {
				a := products.On(h)
				p, ok := a.Read(Index{"Products", "a"})
				istrue(t, ok)
				deepEqual(t, p, &Product{ID: "a", Name: "A", Meta: &ProductMetadata{CategoryID: 1}})
				deepEqual(t, a.ReadMany([]Index{{"Products", "b"}, {"Products", "c"}}), []*Product{{ID: "b", Name: "B"}})
				deepEqual(t, len(a.ReadByKeys([]string{"a", "b", "c", "d"})), 2)
				deepEqual(t, a.Count(), 2)
				istrue(t, a.Exists("b"))
				existing, missing := a.FilterExisting([]string{"a", "z"})
				deepEqual(t, len(existing), 1)
				deepEqual(t, missing, []string{"z"})
				_, ok = a.ReadByKey("c")
				isfalse(t, ok)
			})
		})
	}
}

func TestHandles_AsyncAccessor(t *testing.T) {
	for _, name := range []string{"db", "connection"} {
		t.Run(name, func(t *testing.T) {
			db := setup(t, testSchema)
			var h Handle = db
			if name == "connection" {
				h = db.NewConnection()
			}
			a := employees.On(h).Async()

			e1 := NewEmployee("e1", "Eve", &EmployeeMetadata{Desk: "1"})
			e2 := NewEmployee("e2", "Ed", nil)
			e3 := NewEmployee("e3", "Em", nil)
			_, err := a.WriteMany([]Employee{e1, e2, e3}).Wait()
			ensure(err)
			_, err = a.Write(e2).Wait()
			ensure(err)

			got, err := a.ReadByKey("e1").Wait()
			ensure(err)
			deepEqual(t, got, Found[Employee]{e1, true})
			got, err = a.ReadByKey("nope").Wait()
			ensure(err)
			deepEqual(t, got, Found[Employee]{})

			exists, err := a.Exists("e2").Wait()
			ensure(err)
			istrue(t, exists)
			exists, err = a.Exists("nope").Wait()
			ensure(err)
			isfalse(t, exists)
			n, err := a.Count().Wait()
			ensure(err)
			deepEqual(t, n, 3)

			many, err := a.ReadMany([]Index{IndexOf(e2), {"Employees", "nope"}}).Wait()
			ensure(err)
			deepEqual(t, many, []Employee{e2})

			filtered, err := a.FilterExisting([]string{"e3", "e9"}).Wait()
			ensure(err)
			deepEqual(t, filtered, Filtered[Employee]{[]Employee{e3}, []string{"e9"}})

			_, err = a.Remove(e3).Wait()
			ensure(err)
			_, err = a.RemoveByKeys([]string{"e9"}).Wait()
			ensure(err)
			_, err = a.RemoveAtIndexes([]Index{IndexOf(e2)}).Wait()
			ensure(err)

			all, err := a.ReadAll().Wait()
			ensure(err)
			deepEqual(t, all, []Employee{e1})

			_, err = a.RemoveMany([]Employee{e1}).Wait()
			ensure(err)
			keys, err := a.ReadByKeys([]string{"e1", "e2", "e3"}).Wait()
			ensure(err)
			isempty(t, keys)

			_, err = a.WriteMany([]Employee{e1, e2, e3}).Wait()
			ensure(err)
			_, err = a.RemoveByKey("e1").Wait()
			ensure(err)
			n, err = a.Count().Wait()
			ensure(err)
			deepEqual(t, n, 2)
			_, err = a.RemoveAll().Wait()
			ensure(err)
			n, err = a.Count().Wait()
			ensure(err)
			deepEqual(t, n, 0)
		})
	}
}

func TestHandles_AsyncReadOfAbsentValue(t *testing.T) {
	db := setup(t, testSchema)
	a := barcodes.On(db)

	_, ok := a.ReadByKey("nope")
	isfalse(t, ok)
	got, err := a.Async().ReadByKey("nope").Wait()
	ensure(err)
	isfalse(t, got.OK)
	deepEqual(t, got.Item, Barcode{})

	bc := QRCode("x")
	a.Write(bc)
	got, err = a.Async().ReadByKey(bc.Identifier()).Wait()
	ensure(err)
	deepEqual(t, got, Found[Barcode]{bc, true})
}

func TestConnection_BeginFailureResolvesFuture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ro.db")
	db := must(Open(path, testSchema, Options{IsTesting: true}))
	people.On(db).Write(&Person{ID: "a"})
	db.Close()

	db = must(Open(path, testSchema, Options{IsTesting: true, ReadOnly: true}))
	defer db.Close()
	conn := db.NewConnection()

	var calls atomic.Int32
	fut := people.On(conn).Async().Write(&Person{ID: "x"})
	fut.OnComplete(func(_ *Person, err error) {
		calls.Add(1)
	})
	p, err := fut.Wait()
	if !errors.Is(err, bbolt.ErrDatabaseReadOnly) {
		t.Fatalf("** async write err = %v, wanted %v", err, bbolt.ErrDatabaseReadOnly)
	}
	deepEqual(t, p, (*Person)(nil))

	_, err = people.On(conn).WriteOperation(&Person{ID: "y"}).Start().Wait()
	if !errors.Is(err, bbolt.ErrDatabaseReadOnly) {
		t.Fatalf("** Start().Wait() err = %v, wanted %v", err, bbolt.ErrDatabaseReadOnly)
	}
	deepEqual(t, calls.Load(), int32(1))

	err = conn.Tx(true, func(tx *Tx) error { return nil })
	if !errors.Is(err, bbolt.ErrDatabaseReadOnly) {
		t.Fatalf("** Tx(true) err = %v, wanted %v", err, bbolt.ErrDatabaseReadOnly)
	}

	// the worker survives and reads still work
	got, err := people.On(conn).Async().ReadByKey("a").Wait()
	ensure(err)
	deepEqual(t, got, Found[*Person]{&Person{ID: "a"}, true})
	deepEqual(t, db.WriterCount.Load(), int64(0))
	deepEqual(t, db.PendingWriterCount.Load(), int64(0))
}

func TestOperation_CommitsAllBlocksTogether(t *testing.T) {
	db := setup(t, testSchema)
	conn := db.NewConnection()

	bc := QRCode("combo")
	op := conn.WriteOperation(people.Writing(&Person{ID: "a"}, &Person{ID: "b"}))
	op.Add(barcodes.Writing(bc))
	ensure(op.Run())

	deepEqual(t, people.On(conn).Count(), 2)
	istrue(t, barcodes.On(conn).Exists(bc.Identifier()))

	deepEqual(t, op.Run(), ErrOperationStarted)
	assertPanics(t, func() {
		op.Add(people.Writing(&Person{ID: "c"}))
	})
}

func TestOperation_FailureWritesNothing(t *testing.T) {
	db := setup(t, testSchema)
	conn := db.NewConnection()
	simulated := errors.New("simulated failure")

	err := conn.WriteOperation(
		people.Writing(&Person{ID: "a"}, &Person{ID: "b"}),
		func(tx WriteTransaction) error { return simulated },
		people.Writing(&Person{ID: "c"}),
	).Run()
	deepEqual(t, err, simulated)

	_, err = conn.WriteOperation(
		people.Writing(&Person{ID: "a"}),
		func(tx WriteTransaction) error { panic("mid-batch") },
	).Start().Wait()
	if err == nil {
		t.Fatalf("** Start().Wait() err = nil, wanted error")
	}

	deepEqual(t, people.On(conn).Count(), 0)
}

func TestOperation_Start(t *testing.T) {
	db := setup(t, testSchema)
	conn := db.NewConnection()

	op := people.On(conn).WriteOperation(&Person{ID: "a"}, &Person{ID: "b"})
	_, err := op.Start().Wait()
	ensure(err)
	deepEqual(t, people.On(conn).Count(), 2)

	_, err = op.Start().Wait()
	deepEqual(t, err, ErrOperationStarted)

	_, err = people.On(db).RemoveOperation(&Person{ID: "a"}).Start().Wait()
	ensure(err)
	ensure(people.On(db).RemoveOperation(&Person{ID: "b"}).Run())
	deepEqual(t, people.On(conn).Count(), 0)
}

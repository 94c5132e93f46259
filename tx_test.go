package kvdoc

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestTx_WriteAndReadObjects(t *testing.T) {
	db := setup(t, testSchema)
	conn := db.NewConnection()
	idx := Index{"Products", "tea"}

	conn.Write(func(tx *Tx) {
		tx.WriteAtIndex(idx, &Product{ID: "tea", Name: "Tea"}, &ProductMetadataCoder{CategoryID: 3})
	})
	conn.Read(func(tx *Tx) {
		deepEqual(t, tx.ReadAtIndex(idx), any(&Product{ID: "tea", Name: "Tea"}))
		deepEqual(t, tx.ReadMetadataAtIndex(idx), any(&ProductMetadataCoder{CategoryID: 3}))
		deepEqual(t, tx.KeysInCollection("Products"), []string{"tea"})
		deepEqual(t, tx.Collections(), []string{"Products"})
	})

	conn.Write(func(tx *Tx) {
		tx.WriteAtIndex(idx, &Product{ID: "tea", Name: "Green Tea"}, nil)
	})
	conn.Read(func(tx *Tx) {
		deepEqual(t, tx.ReadAtIndex(idx), any(&Product{ID: "tea", Name: "Green Tea"}))
		deepEqual(t, tx.ReadMetadataAtIndex(idx), nil)
	})
}

func TestTx_RemoveAtIndexes(t *testing.T) {
	db := setup(t, testSchema)
	conn := db.NewConnection()
	tea := &Product{ID: "tea", Meta: &ProductMetadata{CategoryID: 1}}
	products.On(conn).WriteMany([]*Product{tea, {ID: "milk"}})

	conn.Write(func(tx *Tx) {
		tx.RemoveAtIndexes(Index{"Products", "tea"}, Index{"Products", "nope"}, Index{"Nowhere", "x"})
	})
	conn.Read(func(tx *Tx) {
		deepEqual(t, tx.KeysInCollection("Products"), []string{"milk"})
		deepEqual(t, tx.ReadMetadataAtIndex(Index{"Products", "tea"}), nil)
		deepEqual(t, tx.CollectionStats("Products").Metadatas, 0)
	})
	deepEqual(t, db.metrics.objectsRemoved.Get(), uint64(1))
}

func TestTx_RemoveAllInCollection(t *testing.T) {
	db := setup(t, testSchema)
	conn := db.NewConnection()
	people.On(conn).WriteMany([]*Person{{ID: "a"}, {ID: "b"}})
	products.On(conn).Write(&Product{ID: "tea", Meta: &ProductMetadata{CategoryID: 1}})

	people.On(conn).RemoveAll()
	products.On(conn).RemoveAll()
	products.On(conn).RemoveAll()

	deepEqual(t, people.On(conn).Count(), 0)
	deepEqual(t, products.On(conn).Count(), 0)
	conn.Read(func(tx *Tx) {
		deepEqual(t, tx.CollectionStats("Products"), CollectionStats{})
	})
}

func TestTx_UnreadableBytesReadAsAbsent(t *testing.T) {
	db := setup(t, testSchema)
	conn := db.NewConnection()
	good := &Person{ID: "good", Name: "Good"}
	people.On(conn).Write(good)

	conn.Write(func(tx *Tx) {
		tx.writeRawAtIndex(Index{"People", "garbage"}, dataBucketName, []byte{0xFF, 1, 2, 3})
		tx.writeRawAtIndex(Index{"People", "unknown"}, dataBucketName, MsgPack.encodeObject(nil, "NoSuchType", reflect.ValueOf(good)))
	})

	conn.Read(func(tx *Tx) {
		deepEqual(t, tx.ReadAtIndex(Index{"People", "garbage"}), nil)
		deepEqual(t, tx.ReadAtIndex(Index{"People", "unknown"}), nil)

		_, ok := people.ReadByKey(tx, "garbage")
		isfalse(t, ok)
		deepEqual(t, people.ReadAll(tx), []*Person{good})
		deepEqual(t, people.Count(tx), 3)
	})
	deepEqual(t, db.metrics.unreadable.Get(), uint64(5))
}

func TestTx_CorruptMetadataLeavesMetadataUnset(t *testing.T) {
	db := setup(t, testSchema)
	conn := db.NewConnection()
	products.On(conn).WriteMany([]*Product{
		{ID: "garbage", Name: "A", Meta: &ProductMetadata{CategoryID: 1}},
		{ID: "unrelated", Name: "B", Meta: &ProductMetadata{CategoryID: 1}},
		{ID: "invalid", Name: "C", Meta: &ProductMetadata{CategoryID: 1}},
	})

	conn.Write(func(tx *Tx) {
		tx.writeRawAtIndex(Index{"Products", "garbage"}, metaBucketName, []byte{0x81, 0xC1})
		tx.WriteAtIndex(Index{"Products", "unrelated"}, &Product{ID: "unrelated", Name: "B"}, &Person{ID: "x"})
		tx.WriteAtIndex(Index{"Products", "invalid"}, &Product{ID: "invalid", Name: "C"}, &ProductMetadataCoder{CategoryID: -1})
	})

	all := products.On(conn).ReadAll()
	deepEqual(t, all, []*Product{
		{ID: "garbage", Name: "A"},
		{ID: "invalid", Name: "C"},
		{ID: "unrelated", Name: "B"},
	})
}

func TestTx_MismatchedPayloadIsDropped(t *testing.T) {
	db := setup(t, testSchema)
	conn := db.NewConnection()
	conn.Write(func(tx *Tx) {
		tx.WriteAtIndex(Index{"People", "impostor"}, &Manager{ID: "impostor"}, nil)
		tx.WriteAtIndex(Index{"Barcodes", "bad"}, &BarcodeCoder{Kind: "upca", UPC: []int{1}}, nil)
	})
	isempty(t, people.On(conn).ReadAll())
	isempty(t, barcodes.On(conn).ReadAll())
	isfalse(t, people.On(conn).Exists("impostor"))
}

func TestTx_Misuse(t *testing.T) {
	db := setup(t, testSchema)
	conn := db.NewConnection()

	conn.Read(func(tx *Tx) {
		assertPanics(t, func() {
			people.Write(tx, &Person{ID: "a"})
		})
		assertPanics(t, func() {
			people.On(tx).Remove(&Person{ID: "a"})
		})
		assertPanics(t, func() {
			people.On(tx).Async().ReadAll()
		})
	})
	conn.Write(func(tx *Tx) {
		assertPanics(t, func() {
			tx.WriteAtIndex(Index{"People", "nil"}, nil, nil)
		})
		assertPanics(t, func() {
			tx.WriteAtIndex(Index{"People", "nil"}, (*Person)(nil), nil)
		})
		assertPanics(t, func() {
			tx.WriteAtIndex(Index{"People", ""}, &Person{}, nil)
		})
		assertPanics(t, func() {
			tx.WriteAtIndex(Index{"People", "x"}, struct{ A int }{1}, nil)
		})
		assertPanics(t, func() {
			people.On(tx).WriteOperation(&Person{ID: "a"})
		})
	})
}

func TestTx_UnregisteredTypeError(t *testing.T) {
	db := setup(t, testSchema)
	conn := db.NewConnection()
	err := conn.Tx(true, func(tx *Tx) error {
		tx.WriteAtIndex(Index{"Things", "x"}, struct{ A int }{1}, nil)
		return nil
	})
	var ce *CollectionError
	if !errors.As(err, &ce) {
		t.Fatalf("** err = %v, wanted *CollectionError", err)
	}
	deepEqual(t, ce.Collection, "Things")
	deepEqual(t, ce.Key, "x")
}

func TestConnectionTx_RollsBackOnError(t *testing.T) {
	db := setup(t, testSchema)
	conn := db.NewConnection()

	err := conn.Tx(true, func(tx *Tx) error {
		people.Write(tx, &Person{ID: "a"})
		return errors.New("boom")
	})
	if err == nil || err.Error() != "boom" {
		t.Fatalf("** conn.Tx err = %v, wanted boom", err)
	}
	isfalse(t, people.On(conn).Exists("a"))
}

func TestConnectionTx_PanicBecomesError(t *testing.T) {
	db := setup(t, testSchema)
	conn := db.NewConnection()

	err := conn.Tx(true, func(tx *Tx) error {
		people.Write(tx, &Person{ID: "a"})
		panic("boom")
	})
	if err == nil {
		t.Fatalf("conn.Tx err = nil, wanted error")
	}
	if !strings.Contains(err.Error(), "panic: boom") {
		t.Fatalf("conn.Tx err = %q, wanted it to include %q", err.Error(), "panic: boom")
	}
	isfalse(t, people.On(conn).Exists("a"))

	wrapped := errors.New("inner")
	err = conn.Tx(false, func(tx *Tx) error {
		panic(wrapped)
	})
	istrue(t, errors.Is(err, wrapped))
}

func TestConnectionWrite_PanicRollsBack(t *testing.T) {
	db := setup(t, testSchema)
	conn := db.NewConnection()

	assertPanics(t, func() {
		conn.Write(func(tx *Tx) {
			people.Write(tx, &Person{ID: "a"})
			panic("boom")
		})
	})
	isfalse(t, people.On(conn).Exists("a"))
	deepEqual(t, db.WriterCount.Load(), int64(0))

	people.On(conn).Write(&Person{ID: "b"})
	istrue(t, people.On(conn).Exists("b"))
}

func TestTx_SizeAndCounters(t *testing.T) {
	db := setup(t, testSchema)
	conn := db.NewConnection()
	people.On(conn).Write(&Person{ID: "a"})
	people.On(conn).ReadAll()

	deepEqual(t, db.ReaderCount.Load(), int64(0))
	deepEqual(t, db.WriterCount.Load(), int64(0))
	istrue(t, db.ReadCount.Load() >= 1)
	istrue(t, db.WriteCount.Load() >= 1)
	if !testing.Short() {
		istrue(t, db.Size() > 0)
	}
	istrue(t, strings.HasPrefix(db.String(), "kvdoc.DB("))
}

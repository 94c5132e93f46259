package kvdoc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

type DumpFlags uint64

const (
	DumpCollectionHeaders = DumpFlags(1 << iota)
	DumpItems
	DumpStats
	DumpMetadata

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

var (
	dumpSep1 = strings.Repeat("=", 80)
	dumpSep2 = strings.Repeat("-", 60)
)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// RawObject is a stored object decoded without its Go type.
type RawObject struct {
	Type  string `json:"type" yaml:"type"`
	Value any    `json:"value,omitempty" yaml:"value,omitempty"`
	Err   error  `json:"-" yaml:"-"`
}

func (ro *RawObject) String() string {
	if ro.Err != nil {
		return "** ERROR: " + ro.Err.Error()
	}
	raw, err := json.Marshal(ro.Value)
	if err != nil {
		return fmt.Sprintf("%s <%v>", ro.Type, err)
	}
	return ro.Type + " " + string(raw)
}

// Describe decodes the payload and metadata stored at idx without using the
// schema. Either result is nil if the slot is empty.
func (tx *Tx) Describe(idx Index) (obj, meta *RawObject) {
	return describeRaw(tx.readRawAtIndex(idx, dataBucketName)), describeRaw(tx.readRawAtIndex(idx, metaBucketName))
}

func describeRaw(raw []byte) *RawObject {
	if raw == nil {
		return nil
	}
	name, v, err := describeObject(raw)
	return &RawObject{name, v, err}
}

// Dump renders every collection present in the database, declared or not.
func (tx *Tx) Dump(f DumpFlags) string {
	var buf strings.Builder
	for _, coll := range tx.Collections() {
		tx.dumpCollection(&buf, f, coll)
	}
	return buf.String()
}

func (tx *Tx) DumpCollection(f DumpFlags, coll string) string {
	var buf strings.Builder
	tx.dumpCollection(&buf, f, coll)
	return buf.String()
}

func (tx *Tx) dumpCollection(w *strings.Builder, f DumpFlags, coll string) {
	s := tx.CollectionStats(coll)

	if f.Contains(DumpCollectionHeaders) {
		fmt.Fprintln(w, dumpSep1)
		shape, ok := tx.db.schema.CollectionShape(coll)
		if ok {
			fmt.Fprintf(w, "%s (%d items, %s)\n", coll, s.Items, shape)
		} else {
			fmt.Fprintf(w, "%s (%d items, undeclared)\n", coll, s.Items)
		}
	}
	if f.Contains(DumpStats) {
		fmt.Fprintf(w, "%s.stats: metadatas = %d, data_size = %d, data_alloc = %d, meta_size = %d, meta_alloc = %d, total_alloc = %d\n", coll, s.Metadatas, s.DataSize, s.DataAlloc, s.MetaSize, s.MetaAlloc, s.TotalAlloc())
	}
	if f.Contains(DumpItems) {
		if f.Contains(DumpStats) {
			fmt.Fprintln(w, dumpSep2)
		}
		for _, key := range tx.KeysInCollection(coll) {
			obj, meta := tx.Describe(Index{coll, key})
			fmt.Fprintf(w, "%s:%s = %s\n", coll, key, obj)
			if meta != nil && f.Contains(DumpMetadata) {
				fmt.Fprintf(w, "%s:%s.meta = %s\n", coll, key, meta)
			}
		}
	}
}

// Digest returns a hash of the raw contents of a collection: keys, payloads
// and metadata, in key order. Equal collections have equal digests
// regardless of the engine, but not across encodings.
func (tx *Tx) Digest(coll string) uint64 {
	h := xxhash.New()
	var lenbuf [binary.MaxVarintLen64]byte
	write := func(b []byte) {
		n := binary.PutUvarint(lenbuf[:], uint64(len(b)))
		h.Write(lenbuf[:n])
		h.Write(b)
	}
	for _, key := range tx.KeysInCollection(coll) {
		idx := Index{coll, key}
		write([]byte(key))
		write(tx.readRawAtIndex(idx, dataBucketName))
		write(tx.readRawAtIndex(idx, metaBucketName))
	}
	return h.Sum64()
}

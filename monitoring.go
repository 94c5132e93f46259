package kvdoc

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"
)

type CollectionStats struct {
	Items     int
	Metadatas int

	DataSize  int64
	DataAlloc int64
	MetaSize  int64
	MetaAlloc int64
}

func (cs *CollectionStats) TotalSize() int64 {
	return cs.DataSize + cs.MetaSize
}

func (cs *CollectionStats) TotalAlloc() int64 {
	return cs.DataAlloc + cs.MetaAlloc
}

func (tx *Tx) CollectionStats(collection string) CollectionStats {
	var result CollectionStats
	if b := tx.stx.Bucket(collection, dataBucketName); b != nil {
		bs := b.Stats()
		result.Items = bs.KeyN
		result.DataSize = bs.LeafInuse
		result.DataAlloc = bs.TotalAlloc()
	}
	if b := tx.stx.Bucket(collection, metaBucketName); b != nil {
		bs := b.Stats()
		result.Metadatas = bs.KeyN
		result.MetaSize = bs.LeafInuse
		result.MetaAlloc = bs.TotalAlloc()
	}
	return result
}

type dbMetrics struct {
	set *metrics.Set

	readTxns       *metrics.Counter
	writeTxns      *metrics.Counter
	objectsRead    *metrics.Counter
	objectsWritten *metrics.Counter
	objectsRemoved *metrics.Counter
	unreadable     *metrics.Counter
	asyncOps       *metrics.Counter
}

func newDBMetrics(db *DB, name string) *dbMetrics {
	if name == "" {
		name = "default"
	}
	set := metrics.NewSet()
	m := &dbMetrics{
		set:            set,
		readTxns:       set.NewCounter(metricName("kvdoc_read_transactions_total", name)),
		writeTxns:      set.NewCounter(metricName("kvdoc_write_transactions_total", name)),
		objectsRead:    set.NewCounter(metricName("kvdoc_objects_read_total", name)),
		objectsWritten: set.NewCounter(metricName("kvdoc_objects_written_total", name)),
		objectsRemoved: set.NewCounter(metricName("kvdoc_objects_removed_total", name)),
		unreadable:     set.NewCounter(metricName("kvdoc_unreadable_objects_total", name)),
		asyncOps:       set.NewCounter(metricName("kvdoc_async_operations_total", name)),
	}
	set.NewGauge(metricName("kvdoc_open_readers", name), func() float64 {
		return float64(db.ReaderCount.Load())
	})
	set.NewGauge(metricName("kvdoc_open_writers", name), func() float64 {
		return float64(db.WriterCount.Load())
	})
	set.NewGauge(metricName("kvdoc_pending_writers", name), func() float64 {
		return float64(db.PendingWriterCount.Load())
	})
	set.NewGauge(metricName("kvdoc_open_connections", name), func() float64 {
		return float64(db.conns.Size())
	})
	set.NewGauge(metricName("kvdoc_size_bytes", name), func() float64 {
		return float64(db.lastSize.Load())
	})
	return m
}

func metricName(base, db string) string {
	return fmt.Sprintf("%s{db=%q}", base, db)
}

package parquet

import (
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/osmparquet/osm-parquet/entity"
	"github.com/osmparquet/osm-parquet/io/format"
	"github.com/osmparquet/osm-parquet/storage/schema"
)

var _ format.EntityWriter = (*EntityWriter)(nil)

// EntityWriter encodes entities into a parquet file. Rows are accumulated in
// a record builder and written out every batchSize rows and on Close.
type EntityWriter struct {
	writer    format.Writer
	builder   *array.RecordBuilder
	encoder   *rowEncoder
	batchSize int
	pending   int
}

func NewEntityWriter(writer format.Writer, sc *schema.Schema, batchSize int) *EntityWriter {
	if batchSize < 1 {
		batchSize = 1
	}
	builder := array.NewRecordBuilder(memory.DefaultAllocator, sc.Schema())
	return &EntityWriter{
		writer:    writer,
		builder:   builder,
		encoder:   &rowEncoder{builder: builder, schema: sc},
		batchSize: batchSize,
	}
}

func (w *EntityWriter) Append(e entity.Entity) error {
	if err := w.encoder.encode(e); err != nil {
		return err
	}
	w.pending++
	if w.pending >= w.batchSize {
		return w.flush()
	}
	return nil
}

func (w *EntityWriter) flush() error {
	if w.pending == 0 {
		return nil
	}
	rec := w.builder.NewRecord()
	defer rec.Release()
	w.pending = 0
	return w.writer.Write(rec)
}

// Count includes rows not yet flushed.
func (w *EntityWriter) Count() int64 {
	return w.writer.Count() + int64(w.pending)
}

// Close flushes pending rows and closes the file even if the flush failed.
func (w *EntityWriter) Close() error {
	err := w.flush()
	if closeErr := w.writer.Close(); err == nil {
		err = closeErr
	}
	w.builder.Release()
	return err
}

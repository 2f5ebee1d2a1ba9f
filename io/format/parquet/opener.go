package parquet

import (
	"github.com/apache/arrow/go/v12/parquet"
	"github.com/osmparquet/osm-parquet/entity"
	"github.com/osmparquet/osm-parquet/io/format"
	"github.com/osmparquet/osm-parquet/io/fs"
	"github.com/osmparquet/osm-parquet/storage/options"
	"github.com/osmparquet/osm-parquet/storage/schema"
)

var _ format.Opener = (*Opener)(nil)

// Opener opens parquet entity writers on a file system.
type Opener struct {
	fs   fs.Fs
	opts *options.WriteOptions
}

func NewOpener(f fs.Fs, opts *options.WriteOptions) *Opener {
	if opts == nil {
		opts = options.NewWriteOptions()
	}
	return &Opener{fs: f, opts: opts}
}

func (o *Opener) Open(path string, entityType entity.EntityType, excludeMetadata bool) (format.EntityWriter, error) {
	sc, err := schema.NewSchema(entityType, excludeMetadata)
	if err != nil {
		return nil, err
	}
	props := parquet.NewWriterProperties(
		parquet.WithCompression(o.opts.Compression),
		parquet.WithCreatedBy("osm-parquet"),
	)
	fw, err := NewFileWriter(sc.Schema(), o.fs, path, props)
	if err != nil {
		return nil, err
	}
	return NewEntityWriter(fw, sc, o.opts.BatchSize), nil
}

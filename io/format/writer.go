package format

import (
	"github.com/apache/arrow/go/v12/arrow"
	"github.com/osmparquet/osm-parquet/entity"
)

type Writer interface {
	Write(record arrow.Record) error
	Count() int64
	Close() error
}

// EntityWriter encodes entities into one output file.
type EntityWriter interface {
	Append(e entity.Entity) error
	Count() int64
	Close() error
}

// Opener creates the writer behind one partition file.
type Opener interface {
	Open(path string, entityType entity.EntityType, excludeMetadata bool) (EntityWriter, error)
}

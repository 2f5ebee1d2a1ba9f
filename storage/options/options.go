package options

import (
	"path/filepath"
	"strings"

	"github.com/apache/arrow/go/v12/parquet/compress"
	"github.com/osmparquet/osm-parquet/common/constant"
	"github.com/osmparquet/osm-parquet/common/errors"
	"github.com/osmparquet/osm-parquet/entity"
	perrors "github.com/pkg/errors"
)

type FsType int8

const (
	InMemory FsType = iota
	LocalFS
	S3
)

// SinkOptions configures one sink, bound to a single entity type.
type SinkOptions struct {
	// Source names the input; its base name prefixes every partition file.
	Source string
	// Destination is the root directory inside the sink's file system.
	Destination     string
	ExcludeMetadata bool
	EntityType      entity.EntityType
	Partitions      int
}

func NewSinkOptions(source, destination string, entityType entity.EntityType) *SinkOptions {
	return &SinkOptions{
		Source:      source,
		Destination: destination,
		EntityType:  entityType,
		Partitions:  constant.DefaultPartitions,
	}
}

func (o *SinkOptions) Validate() error {
	if o.Partitions < 1 {
		return perrors.Wrapf(errors.ErrInvalidPartitionCount, "got %d", o.Partitions)
	}
	if !o.EntityType.Valid() {
		return perrors.Wrapf(errors.ErrUnknownEntityType, "%d", o.EntityType)
	}
	if o.SourceBaseName() == "" || o.SourceBaseName() == "." || o.SourceBaseName() == "/" {
		return perrors.Wrap(errors.ErrInvalidPath, "source name is empty")
	}
	if o.Destination == "" {
		return perrors.Wrap(errors.ErrInvalidPath, "destination is empty")
	}
	return nil
}

func (o *SinkOptions) SourceBaseName() string {
	return filepath.Base(o.Source)
}

// WriteOptions tune the parquet encoder behind every partition.
type WriteOptions struct {
	// BatchSize is the number of rows buffered by the encoder before a
	// record is handed to the parquet writer.
	BatchSize   int
	Compression compress.Compression
}

func NewWriteOptions() *WriteOptions {
	return &WriteOptions{
		BatchSize:   constant.DefaultWriteBatchSize,
		Compression: compress.Codecs.Snappy,
	}
}

func ParseCompression(name string) (compress.Compression, error) {
	switch strings.ToLower(name) {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "brotli":
		return compress.Codecs.Brotli, nil
	default:
		return compress.Codecs.Uncompressed, perrors.Wrapf(errors.ErrUnknownCompression, "%q", name)
	}
}

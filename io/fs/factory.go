package fs

import (
	"net/url"

	"github.com/osmparquet/osm-parquet/storage/options"
)

type Factory struct {
}

func (f *Factory) Create(fsType options.FsType, uri *url.URL) (Fs, error) {
	switch fsType {
	case options.InMemory:
		return NewMemoryFs(), nil
	case options.LocalFS:
		return NewLocalFs(), nil
	case options.S3:
		return NewMinioFs(uri)
	default:
		panic("unknown fs type")
	}
}

func NewFsFactory() *Factory {
	return &Factory{}
}

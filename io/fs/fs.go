package fs

import (
	"github.com/osmparquet/osm-parquet/io/fs/file"
)

type Fs interface {
	// OpenFile creates or truncates path for writing. The parent directory
	// must exist.
	OpenFile(path string) (file.File, error)
	Rename(src string, dst string) error
	DeleteFile(path string) error
	// CreateDir creates a single directory level. An existing directory is
	// not an error; a missing parent is.
	CreateDir(path string) error
	List(path string) ([]FileEntry, error)
	ReadFile(path string) ([]byte, error)
	Exist(path string) (bool, error)
}

type FileEntry struct {
	Path string
}

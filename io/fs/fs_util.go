package fs

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/osmparquet/osm-parquet/common/errors"
	"github.com/osmparquet/osm-parquet/storage/options"
	perrors "github.com/pkg/errors"
)

// BuildFileSystem resolves a destination uri into a file system and the root
// path inside it. Supported forms:
//
//	/data/out or file:///data/out
//	mem:///out
//	s3://user:password@bucket/out?endpoint_override=localhost%3A9000
func BuildFileSystem(uri string) (Fs, string, error) {
	if !strings.Contains(uri, "://") {
		abs, err := filepath.Abs(uri)
		if err != nil {
			return nil, "", err
		}
		return NewLocalFs(), abs, nil
	}
	parsedUri, err := url.Parse(uri)
	if err != nil {
		return nil, "", perrors.Wrapf(errors.ErrInvalidPath, "%s: %v", uri, err)
	}
	factory := NewFsFactory()
	var fsType options.FsType
	switch parsedUri.Scheme {
	case "file":
		fsType = options.LocalFS
	case "mem":
		fsType = options.InMemory
	case "s3":
		fsType = options.S3
	default:
		return nil, "", perrors.Wrapf(errors.ErrUnknownFsScheme, "%q", parsedUri.Scheme)
	}
	f, err := factory.Create(fsType, parsedUri)
	if err != nil {
		return nil, "", err
	}
	root := parsedUri.Path
	if root == "" {
		root = "/"
	}
	return f, root, nil
}

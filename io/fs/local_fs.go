package fs

import (
	"os"
	"path/filepath"

	"github.com/osmparquet/osm-parquet/io/fs/file"
)

type LocalFS struct{}

func (l *LocalFS) OpenFile(path string) (file.File, error) {
	open, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return nil, err
	}
	return file.NewLocalFile(open), nil
}

func (l *LocalFS) Rename(src string, dst string) error {
	return os.Rename(src, dst)
}

func (l *LocalFS) DeleteFile(path string) error {
	return os.Remove(path)
}

func (l *LocalFS) CreateDir(path string) error {
	err := os.Mkdir(path, os.ModePerm)
	if err != nil && os.IsExist(err) {
		if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
			return nil
		}
	}
	return err
}

func (l *LocalFS) List(path string) ([]FileEntry, error) {
	ret := make([]FileEntry, 0)
	err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			ret = append(ret, FileEntry{Path: p})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (l *LocalFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (l *LocalFS) Exist(path string) (bool, error) {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func NewLocalFs() *LocalFS {
	return &LocalFS{}
}

package fs

import (
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/osmparquet/osm-parquet/common/errors"
	"github.com/osmparquet/osm-parquet/io/fs/file"
	perrors "github.com/pkg/errors"
)

// MemoryFs keeps files in memory and tracks directories so that writes into
// a missing directory fail the way they do on disk.
type MemoryFs struct {
	mu    sync.Mutex
	files map[string]*file.MemoryFile
	dirs  map[string]struct{}
}

func (m *MemoryFs) dirExists(dir string) bool {
	dir = path.Clean(dir)
	if dir == "/" || dir == "." {
		return true
	}
	_, ok := m.dirs[dir]
	return ok
}

func (m *MemoryFs) OpenFile(p string) (file.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = path.Clean(p)
	if !m.dirExists(path.Dir(p)) {
		return nil, perrors.Wrapf(errors.ErrDirNotExist, "open %s", p)
	}
	f := file.NewMemoryFile(nil)
	m.files[p] = f
	return f, nil
}

func (m *MemoryFs) Rename(src string, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, dst = path.Clean(src), path.Clean(dst)
	f, ok := m.files[src]
	if !ok {
		return perrors.Wrapf(errors.ErrFileNotExist, "rename %s", src)
	}
	m.files[dst] = f
	delete(m.files, src)
	return nil
}

func (m *MemoryFs) DeleteFile(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path.Clean(p))
	return nil
}

func (m *MemoryFs) CreateDir(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = path.Clean(p)
	if !m.dirExists(path.Dir(p)) {
		return perrors.Wrapf(errors.ErrDirNotExist, "mkdir %s", p)
	}
	m.dirs[p] = struct{}{}
	return nil
}

func (m *MemoryFs) List(p string) ([]FileEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := path.Clean(p) + "/"
	ret := make([]FileEntry, 0)
	for name := range m.files {
		if strings.HasPrefix(name, prefix) {
			ret = append(ret, FileEntry{Path: name})
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Path < ret[j].Path })
	return ret, nil
}

func (m *MemoryFs) ReadFile(p string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[path.Clean(p)]
	if !ok {
		return nil, perrors.Wrapf(errors.ErrFileNotExist, "read %s", p)
	}
	b := f.Bytes()
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (m *MemoryFs) Exist(p string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = path.Clean(p)
	if _, ok := m.files[p]; ok {
		return true, nil
	}
	_, ok := m.dirs[p]
	return ok, nil
}

func NewMemoryFs() *MemoryFs {
	return &MemoryFs{
		files: make(map[string]*file.MemoryFile),
		dirs:  make(map[string]struct{}),
	}
}

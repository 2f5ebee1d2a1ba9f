package storage

import (
	"sync"

	"github.com/osmparquet/osm-parquet/entity"
	"github.com/osmparquet/osm-parquet/io/format"
	"github.com/osmparquet/osm-parquet/io/fs/file"
	perrors "github.com/pkg/errors"
)

var (
	errDiskFull   = perrors.New("disk full")
	errOpenFailed = perrors.New("permission denied")
	errCloseFail  = perrors.New("close failed")
)

type mockWriter struct {
	mu        sync.Mutex
	path      string
	ids       []int64
	closes    int
	failAfter int // appends allowed before failing, -1 never fails
	closeErr  error
}

func (w *mockWriter) Append(e entity.Entity) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closes > 0 {
		return perrors.New("append after close")
	}
	if w.failAfter >= 0 && len(w.ids) >= w.failAfter {
		return errDiskFull
	}
	w.ids = append(w.ids, e.GetID())
	return nil
}

func (w *mockWriter) Count() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return int64(len(w.ids))
}

func (w *mockWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closes++
	return w.closeErr
}

func (w *mockWriter) written() []int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]int64(nil), w.ids...)
}

func (w *mockWriter) closeCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closes
}

// mockOpener hands out mockWriters and can fail the n-th open, a given
// partition's appends or a given partition's close.
type mockOpener struct {
	mu           sync.Mutex
	writers      []*mockWriter
	failOpenAt   int
	failWriteAt  int
	failAfter    int
	failCloseAt  int
	entityTypes  []entity.EntityType
	excludeFlags []bool
}

func newMockOpener() *mockOpener {
	return &mockOpener{failOpenAt: -1, failWriteAt: -1, failAfter: -1, failCloseAt: -1}
}

func (o *mockOpener) Open(path string, entityType entity.EntityType, excludeMetadata bool) (format.EntityWriter, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	idx := len(o.writers)
	if idx == o.failOpenAt {
		return nil, errOpenFailed
	}
	w := &mockWriter{path: path, failAfter: -1}
	if idx == o.failWriteAt {
		w.failAfter = o.failAfter
	}
	if idx == o.failCloseAt {
		w.closeErr = errCloseFail
	}
	o.writers = append(o.writers, w)
	o.entityTypes = append(o.entityTypes, entityType)
	o.excludeFlags = append(o.excludeFlags, excludeMetadata)
	return w, nil
}

// fileCreatingOpener leaves a real file behind for every writer it opens.
type fileCreatingOpener struct {
	fs interface {
		OpenFile(path string) (file.File, error)
	}
	next format.Opener
}

func (o *fileCreatingOpener) Open(path string, entityType entity.EntityType, excludeMetadata bool) (format.EntityWriter, error) {
	f, err := o.fs.OpenFile(path)
	if err != nil {
		return nil, err
	}
	if _, err := f.Write([]byte("PAR1")); err != nil {
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return o.next.Open(path, entityType, excludeMetadata)
}

package storage

import (
	"sync"

	"github.com/osmparquet/osm-parquet/common/errors"
	"github.com/osmparquet/osm-parquet/common/log"
	"github.com/osmparquet/osm-parquet/common/utils"
	"github.com/osmparquet/osm-parquet/entity"
	"github.com/osmparquet/osm-parquet/io/format"
	"github.com/osmparquet/osm-parquet/io/fs"
	"github.com/osmparquet/osm-parquet/storage/options"
	perrors "github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// WriterPool owns one writer per partition of a single entity type.
type WriterPool struct {
	fs     fs.Fs
	opener format.Opener
	opts   *options.SinkOptions

	// lifecycle is held shared by writes and exclusively by Initialize and
	// CompleteAll, so completion waits for in-flight writes.
	lifecycle  sync.RWMutex
	handles    []*writerHandle
	completing *atomic.Bool
}

func NewWriterPool(f fs.Fs, opener format.Opener, opts *options.SinkOptions) *WriterPool {
	return &WriterPool{
		fs:         f,
		opener:     opener,
		opts:       opts,
		completing: atomic.NewBool(false),
	}
}

// Initialize opens every partition writer. If any of them cannot be opened
// the ones already opened are closed and their files removed before an
// *errors.InitializationError is returned.
func (p *WriterPool) Initialize() error {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	if p.handles != nil || p.completing.Load() {
		return errors.ErrPoolInitialized
	}

	dir := utils.GetEntityDir(p.opts.Destination, p.opts.EntityType)
	if err := p.fs.CreateDir(dir); err != nil {
		p.completing.Store(true)
		return &errors.InitializationError{Path: dir, Err: err}
	}

	paths := utils.GetPartitionFilePaths(p.opts.Destination, p.opts.EntityType, p.opts.SourceBaseName(), p.opts.Partitions)
	handles := make([]*writerHandle, 0, len(paths))
	for i, path := range paths {
		h := newWriterHandle(i, path)
		handles = append(handles, h)
		if err := h.open(p.opener, p.opts.EntityType, p.opts.ExcludeMetadata); err != nil {
			log.Error("unable to build writer", log.String("path", path), zap.Error(err))
			p.handles = handles
			p.completing.Store(true)
			if _, closeErr := closeHandles(handles); closeErr != nil {
				log.Warn("release writers after failed initialization", zap.Error(closeErr))
			}
			p.removeFiles(paths[:i+1])
			return &errors.InitializationError{Path: path, Err: err}
		}
		log.Debug("opened partition writer", log.String("path", path), log.Int("partition", i))
	}
	p.handles = handles
	return nil
}

// Write appends e to the writer of the given partition.
func (p *WriterPool) Write(partition int, e entity.Entity) error {
	p.lifecycle.RLock()
	defer p.lifecycle.RUnlock()
	if p.completing.Load() {
		return errors.ErrPoolCompleted
	}
	if p.handles == nil {
		return perrors.Wrap(errors.ErrWriterClosed, "pool is not initialized")
	}
	if partition < 0 || partition >= len(p.handles) {
		return perrors.Wrapf(errors.ErrPartitionOutOfRange, "%d not in [0, %d)", partition, len(p.handles))
	}
	h := p.handles[partition]
	if err := h.write(e); err != nil {
		if perrors.Is(err, errors.ErrWriterClosed) {
			return err
		}
		return &errors.WriteError{Partition: partition, Path: h.path, Err: err}
	}
	return nil
}

// CompleteAll closes every writer exactly once. All closes are attempted;
// the first failure is reported in an *errors.CloseError and the files of
// the writers that failed to close are removed.
func (p *WriterPool) CompleteAll() error {
	p.completing.Store(true)
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	failed, err := closeHandles(p.handles)
	p.removeFiles(failed)
	return err
}

// Abort completes the pool and removes the files it produced.
func (p *WriterPool) Abort() error {
	err := p.CompleteAll()
	p.removeFiles(p.Paths())
	return err
}

func (p *WriterPool) removeFiles(paths []string) {
	for _, path := range paths {
		exist, err := p.fs.Exist(path)
		if err != nil || !exist {
			continue
		}
		if err := p.fs.DeleteFile(path); err != nil {
			log.Warn("unable to remove partial file", log.String("path", path), zap.Error(err))
		}
	}
}

// closeHandles returns the paths of the writers that failed to close.
func closeHandles(handles []*writerHandle) ([]string, error) {
	var closeErr *errors.CloseError
	var failed []string
	for _, h := range handles {
		closed, err := h.close()
		if err != nil {
			log.Warn("unable to close writer", log.String("path", h.path), zap.Error(err))
			if closeErr == nil {
				closeErr = &errors.CloseError{Path: h.path, Err: err}
			}
			closeErr.Failed++
			failed = append(failed, h.path)
			continue
		}
		if closed {
			log.Debug("closed partition writer", log.String("path", h.path), log.Int64("rows", h.count()))
		}
	}
	if closeErr != nil {
		return failed, closeErr
	}
	return nil, nil
}

func (p *WriterPool) Partitions() int {
	return p.opts.Partitions
}

func (p *WriterPool) Paths() []string {
	p.lifecycle.RLock()
	defer p.lifecycle.RUnlock()
	paths := make([]string, 0, len(p.handles))
	for _, h := range p.handles {
		paths = append(paths, h.path)
	}
	return paths
}

// Counts returns the rows written to each partition.
func (p *WriterPool) Counts() []int64 {
	p.lifecycle.RLock()
	defer p.lifecycle.RUnlock()
	counts := make([]int64, 0, len(p.handles))
	for _, h := range p.handles {
		counts = append(counts, h.count())
	}
	return counts
}

func (p *WriterPool) states() []handleState {
	p.lifecycle.RLock()
	defer p.lifecycle.RUnlock()
	states := make([]handleState, 0, len(p.handles))
	for _, h := range p.handles {
		states = append(states, h.currentState())
	}
	return states
}

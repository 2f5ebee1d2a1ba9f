package storage

import (
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bitset"
	"github.com/google/uuid"
	"github.com/osmparquet/osm-parquet/common/errors"
	"github.com/osmparquet/osm-parquet/common/log"
	"github.com/osmparquet/osm-parquet/entity"
	"github.com/osmparquet/osm-parquet/filter"
	"github.com/osmparquet/osm-parquet/io/format"
	"github.com/osmparquet/osm-parquet/io/fs"
	"github.com/osmparquet/osm-parquet/partition"
	"github.com/osmparquet/osm-parquet/storage/options"
	perrors "github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Stats counts what a sink did with the entities it received.
type Stats struct {
	Received uint64
	Skipped  uint64
	Filtered uint64
	// Failed counts entities dropped because a filter panicked on them.
	Failed   uint64
	Written  uint64
}

// Sink writes the entities of one type into round-robin partitioned parquet
// files. Entities of other types are ignored.
//
// Initialize must be called before any entity is processed and Complete once
// the stream ends. Close releases the writers if Complete was never reached,
// so callers may always defer it.
type Sink struct {
	opts    *options.SinkOptions
	router  *partition.Router
	filters *filter.Chain
	pool    *WriterPool
	runID   string
	logger  *zap.Logger

	initialized *atomic.Bool
	completed   *atomic.Bool

	failMu    sync.Mutex
	failure   error
	abortOnce sync.Once

	received *atomic.Uint64
	skipped  *atomic.Uint64
	filtered *atomic.Uint64
	panicked *atomic.Uint64
	written  *atomic.Uint64
}

// NewSink builds a sink writing through opener onto f. router may be shared
// with the caller; a nil router gets a fresh one sized for opts.Partitions.
func NewSink(f fs.Fs, opener format.Opener, router *partition.Router, opts *options.SinkOptions) (*Sink, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if router == nil {
		var err error
		if router, err = partition.NewRouter(opts.Partitions); err != nil {
			return nil, err
		}
	} else if router.Partitions() != opts.Partitions {
		return nil, perrors.Wrapf(errors.ErrInvalidPartitionCount, "router has %d partitions, sink wants %d", router.Partitions(), opts.Partitions)
	}
	runID := uuid.NewString()
	return &Sink{
		opts:        opts,
		router:      router,
		filters:     filter.NewChain(),
		pool:        NewWriterPool(f, opener, opts),
		runID:       runID,
		logger:      log.With(log.String("run", runID), log.String("entity", opts.EntityType.Name())),
		initialized: atomic.NewBool(false),
		completed:   atomic.NewBool(false),
		received:    atomic.NewUint64(0),
		skipped:     atomic.NewUint64(0),
		filtered:    atomic.NewUint64(0),
		panicked:    atomic.NewUint64(0),
		written:     atomic.NewUint64(0),
	}, nil
}

func (s *Sink) AddFilter(p *filter.Predicate) {
	s.filters.Add(p)
}

func (s *Sink) RemoveFilter(p *filter.Predicate) bool {
	return s.filters.Remove(p)
}

// Initialize opens all partition writers. The metadata values are not used.
func (s *Sink) Initialize(metadata map[string]any) error {
	if err := s.pool.Initialize(); err != nil {
		if !perrors.Is(err, errors.ErrPoolInitialized) {
			s.setFailure(err)
		}
		return err
	}
	s.initialized.Store(true)
	s.logger.Info("sink initialized",
		log.String("destination", s.opts.Destination),
		log.Int("partitions", s.opts.Partitions),
		log.Bool("excludeMetadata", s.opts.ExcludeMetadata),
		log.Int("metadataEntries", len(metadata)))
	return nil
}

// Process writes e if it has the sink's entity type and no filter rejects
// it. A failed write aborts the sink: every writer is closed and the partial
// files are removed.
func (s *Sink) Process(e entity.Entity) error {
	if err := s.check(); err != nil {
		return err
	}
	s.received.Inc()
	if !s.matches(e) {
		s.skipped.Inc()
		return nil
	}
	ok, err := s.filters.Accepts(e)
	if err != nil {
		s.panicked.Inc()
		return err
	}
	if !ok {
		s.filtered.Inc()
		return nil
	}
	return s.write(e)
}

// ProcessBatch is Process over a slice, evaluating the filters in one pass.
// Entities are written in slice order. An entity on which a filter panics is
// dropped like in Process; the rest of the batch is still written and the
// first filter error is returned afterwards.
func (s *Sink) ProcessBatch(entities []entity.Entity) error {
	if err := s.check(); err != nil {
		return err
	}
	s.received.Add(uint64(len(entities)))
	matched := make([]entity.Entity, 0, len(entities))
	for _, e := range entities {
		if s.matches(e) {
			matched = append(matched, e)
		}
	}
	s.skipped.Add(uint64(len(entities) - len(matched)))

	rejected := bitset.New(uint(len(matched)))
	failed := bitset.New(uint(len(matched)))
	filterErr := s.filters.Apply(matched, rejected, failed)
	s.filtered.Add(uint64(rejected.Count()))
	s.panicked.Add(uint64(failed.Count()))
	for i, e := range matched {
		if rejected.Test(uint(i)) || failed.Test(uint(i)) {
			continue
		}
		if err := s.write(e); err != nil {
			return err
		}
	}
	return filterErr
}

func (s *Sink) check() error {
	if err := s.failed(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrSinkFailed, err)
	}
	if !s.initialized.Load() {
		return errors.ErrSinkNotInitialized
	}
	return nil
}

func (s *Sink) matches(e entity.Entity) bool {
	entityType, ok := entity.TypeOf(e)
	return ok && entityType == s.opts.EntityType
}

func (s *Sink) write(e entity.Entity) error {
	if err := s.pool.Write(s.router.Next(), e); err != nil {
		var writeErr *errors.WriteError
		if perrors.As(err, &writeErr) {
			s.abort(err)
		}
		return err
	}
	s.written.Inc()
	return nil
}

func (s *Sink) setFailure(err error) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	if s.failure == nil {
		s.failure = err
	}
}

func (s *Sink) failed() error {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	return s.failure
}

func (s *Sink) abort(cause error) {
	s.setFailure(cause)
	s.abortOnce.Do(func() {
		s.logger.Error("aborting sink", zap.Error(cause))
		if err := s.pool.Abort(); err != nil {
			s.logger.Warn("release writers after failure", zap.Error(err))
		}
	})
}

// Complete closes every partition writer. After a failure it returns the
// original error, the writers having been released already.
func (s *Sink) Complete() error {
	if err := s.failed(); err != nil {
		return err
	}
	if !s.initialized.Load() {
		return errors.ErrSinkNotInitialized
	}
	if !s.completed.CompareAndSwap(false, true) {
		return nil
	}
	err := s.pool.CompleteAll()
	stats := s.Stats()
	s.logger.Info("sink completed",
		log.Uint64("received", stats.Received),
		log.Uint64("skipped", stats.Skipped),
		log.Uint64("filtered", stats.Filtered),
		log.Uint64("failed", stats.Failed),
		log.Uint64("written", stats.Written),
		zap.Int64s("partitionRows", s.pool.Counts()))
	if err != nil {
		s.setFailure(err)
	}
	return err
}

// Close releases the writers of a sink that did not complete and removes its
// partial files. It is a no-op after Complete.
func (s *Sink) Close() error {
	if s.completed.Load() || !s.initialized.Load() {
		return nil
	}
	var err error
	s.abortOnce.Do(func() {
		s.logger.Warn("sink closed before completion, discarding output")
		err = s.pool.Abort()
	})
	s.setFailure(perrors.New("sink closed before completion"))
	return err
}

func (s *Sink) Stats() Stats {
	return Stats{
		Received: s.received.Load(),
		Skipped:  s.skipped.Load(),
		Filtered: s.filtered.Load(),
		Failed:   s.panicked.Load(),
		Written:  s.written.Load(),
	}
}

// Paths lists the partition files in partition order.
func (s *Sink) Paths() []string {
	return s.pool.Paths()
}

func (s *Sink) EntityType() entity.EntityType {
	return s.opts.EntityType
}

func (s *Sink) RunID() string {
	return s.runID
}

package storage

import (
	"sync"
	"testing"

	"github.com/osmparquet/osm-parquet/common/arrow_util"
	"github.com/osmparquet/osm-parquet/common/errors"
	"github.com/osmparquet/osm-parquet/entity"
	"github.com/osmparquet/osm-parquet/filter"
	"github.com/osmparquet/osm-parquet/io/format/parquet"
	"github.com/osmparquet/osm-parquet/io/fs"
	"github.com/osmparquet/osm-parquet/partition"
	"github.com/osmparquet/osm-parquet/storage/options"
	"github.com/osmparquet/osm-parquet/storage/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SinkTestSuite struct {
	suite.Suite
	fs     *fs.MemoryFs
	opener *mockOpener
	opts   *options.SinkOptions
}

func (suite *SinkTestSuite) SetupTest() {
	suite.fs = fs.NewMemoryFs()
	suite.Require().NoError(suite.fs.CreateDir("/out"))
	suite.opener = newMockOpener()
	suite.opts = options.NewSinkOptions("/data/monaco.osm.pbf", "/out", entity.NodeType)
}

func (suite *SinkTestSuite) newSink(partitions int) *Sink {
	suite.opts.Partitions = partitions
	sink, err := NewSink(suite.fs, suite.opener, nil, suite.opts)
	suite.Require().NoError(err)
	return sink
}

func nodeRange(from, to int64) []entity.Entity {
	ret := make([]entity.Entity, 0, to-from+1)
	for id := from; id <= to; id++ {
		ret = append(ret, &entity.Node{ID: id})
	}
	return ret
}

func (suite *SinkTestSuite) TestRoundRobinAssignment() {
	for n := 1; n <= 5; n++ {
		suite.SetupTest()
		sink := suite.newSink(n)
		suite.Require().NoError(sink.Initialize(nil))
		for _, e := range nodeRange(0, 22) {
			suite.Require().NoError(sink.Process(e))
		}
		suite.Require().NoError(sink.Complete())

		suite.Require().Len(suite.opener.writers, n)
		for p, w := range suite.opener.writers {
			ids := w.written()
			for _, id := range ids {
				suite.Equal(int64(p), id%int64(n), "id %d in partition %d", id, p)
			}
			suite.InDelta(23/n, len(ids), 1)
		}
	}
}

func (suite *SinkTestSuite) TestFilteredRecordsNeverWritten() {
	sink := suite.newSink(2)
	sink.AddFilter(filter.IDIn(7))
	suite.Require().NoError(sink.Initialize(map[string]any{"source": "test"}))
	for _, e := range nodeRange(1, 10) {
		suite.Require().NoError(sink.Process(e))
	}
	suite.Require().NoError(sink.Complete())

	var all []int64
	for _, w := range suite.opener.writers {
		all = append(all, w.written()...)
	}
	suite.Len(all, 9)
	suite.NotContains(all, int64(7))
	suite.Equal(Stats{Received: 10, Filtered: 1, Written: 9}, sink.Stats())
}

func (suite *SinkTestSuite) TestRemoveFilterRestoresAcceptance() {
	sink := suite.newSink(1)
	p := filter.IDIn(7)
	sink.AddFilter(p)
	suite.True(sink.RemoveFilter(p))
	suite.Require().NoError(sink.Initialize(nil))
	for _, e := range nodeRange(1, 10) {
		suite.Require().NoError(sink.Process(e))
	}
	suite.Require().NoError(sink.Complete())
	suite.Len(suite.opener.writers[0].written(), 10)
}

func (suite *SinkTestSuite) TestOtherEntityTypesAreSkipped() {
	suite.opts.EntityType = entity.WayType
	sink := suite.newSink(3)
	suite.Require().NoError(sink.Initialize(nil))

	stream := []entity.Entity{
		&entity.Node{ID: 1}, &entity.Way{ID: 2}, &entity.Relation{ID: 3},
		&entity.Node{ID: 4}, &entity.Relation{ID: 5}, &entity.Way{ID: 6},
		nil, (*entity.Way)(nil),
	}
	for _, e := range stream {
		suite.NoError(sink.Process(e))
	}
	suite.Require().NoError(sink.Complete())

	suite.Equal([]int64{2}, suite.opener.writers[0].written())
	suite.Equal([]int64{6}, suite.opener.writers[1].written())
	suite.Empty(suite.opener.writers[2].written())
	suite.Equal(Stats{Received: 8, Skipped: 6, Written: 2}, sink.Stats())
}

func (suite *SinkTestSuite) TestOnlyForeignTypesWriteNothing() {
	suite.opts.EntityType = entity.RelationType
	sink := suite.newSink(2)
	suite.Require().NoError(sink.Initialize(nil))
	for i := int64(0); i < 30; i++ {
		var e entity.Entity = &entity.Node{ID: i}
		if i%2 == 0 {
			e = &entity.Way{ID: i}
		}
		suite.NoError(sink.Process(e))
	}
	suite.Require().NoError(sink.Complete())
	for _, w := range suite.opener.writers {
		suite.Empty(w.written())
	}
}

func (suite *SinkTestSuite) TestProcessBeforeInitialize() {
	sink := suite.newSink(1)
	suite.ErrorIs(sink.Process(&entity.Node{ID: 1}), errors.ErrSinkNotInitialized)
	suite.ErrorIs(sink.Complete(), errors.ErrSinkNotInitialized)
}

func (suite *SinkTestSuite) TestWriteErrorClosesEveryWriter() {
	suite.opener.failWriteAt = 1
	suite.opener.failAfter = 2
	sink := suite.newSink(3)
	suite.Require().NoError(sink.Initialize(nil))

	var err error
	for _, e := range nodeRange(0, 20) {
		if err = sink.Process(e); err != nil {
			break
		}
	}
	var writeErr *errors.WriteError
	suite.Require().ErrorAs(err, &writeErr)
	suite.Equal(1, writeErr.Partition)
	suite.ErrorIs(err, errDiskFull)

	for _, w := range suite.opener.writers {
		suite.Equal(1, w.closeCount())
	}
	suite.NotContains(sink.pool.states(), stateOpen)

	suite.ErrorIs(sink.Process(&entity.Node{ID: 99}), errors.ErrSinkFailed)
	suite.ErrorAs(sink.Complete(), &writeErr)
	suite.NoError(sink.Close())
	for _, w := range suite.opener.writers {
		suite.Equal(1, w.closeCount())
	}
}

func (suite *SinkTestSuite) TestInitializeFailure() {
	suite.opener.failOpenAt = 1
	sink := suite.newSink(3)
	err := sink.Initialize(nil)
	var initErr *errors.InitializationError
	suite.Require().ErrorAs(err, &initErr)
	suite.Equal(1, suite.opener.writers[0].closeCount())
	suite.ErrorIs(sink.Process(&entity.Node{ID: 1}), errors.ErrSinkFailed)
	suite.NoError(sink.Close())
}

func (suite *SinkTestSuite) TestCloseWithoutComplete() {
	sink := suite.newSink(2)
	suite.Require().NoError(sink.Initialize(nil))
	suite.Require().NoError(sink.Process(&entity.Node{ID: 1}))
	suite.NoError(sink.Close())
	suite.NoError(sink.Close())
	for _, w := range suite.opener.writers {
		suite.Equal(1, w.closeCount())
	}
	suite.ErrorIs(sink.Process(&entity.Node{ID: 2}), errors.ErrSinkFailed)
}

func (suite *SinkTestSuite) TestCloseAfterComplete() {
	sink := suite.newSink(2)
	suite.Require().NoError(sink.Initialize(nil))
	suite.Require().NoError(sink.Complete())
	suite.NoError(sink.Complete())
	suite.NoError(sink.Close())
	for _, w := range suite.opener.writers {
		suite.Equal(1, w.closeCount())
	}
}

func (suite *SinkTestSuite) TestFilterPanicIsReturned() {
	sink := suite.newSink(1)
	sink.AddFilter(filter.NewPredicate("broken", func(entity.Entity) bool { panic("nil tags") }))
	suite.Require().NoError(sink.Initialize(nil))
	suite.ErrorIs(sink.Process(&entity.Node{ID: 1}), errors.ErrFilterPanic)
	suite.Empty(suite.opener.writers[0].written())
	suite.Equal(Stats{Received: 1, Failed: 1}, sink.Stats())
	suite.Require().NoError(sink.Complete())
}

func (suite *SinkTestSuite) TestProcessBatchFilterPanicDropsOnlyThatEntity() {
	sink := suite.newSink(2)
	sink.AddFilter(filter.NewPredicate("broken", func(e entity.Entity) bool {
		if e.GetID() == 3 {
			panic("nil tags")
		}
		return false
	}))
	suite.Require().NoError(sink.Initialize(nil))

	suite.ErrorIs(sink.ProcessBatch(nodeRange(1, 5)), errors.ErrFilterPanic)
	suite.Equal([]int64{1, 4}, suite.opener.writers[0].written())
	suite.Equal([]int64{2, 5}, suite.opener.writers[1].written())
	suite.Equal(Stats{Received: 5, Failed: 1, Written: 4}, sink.Stats())

	suite.NoError(sink.Process(&entity.Node{ID: 6}))
	suite.Require().NoError(sink.Complete())
}

func (suite *SinkTestSuite) TestProcessBatch() {
	sink := suite.newSink(3)
	sink.AddFilter(filter.IDIn(3, 5))
	suite.Require().NoError(sink.Initialize(nil))

	batch := append(nodeRange(1, 6), &entity.Way{ID: 100})
	suite.Require().NoError(sink.ProcessBatch(batch))
	suite.Require().NoError(sink.Complete())

	suite.Equal([]int64{1, 6}, suite.opener.writers[0].written())
	suite.Equal([]int64{2}, suite.opener.writers[1].written())
	suite.Equal([]int64{4}, suite.opener.writers[2].written())
	suite.Equal(Stats{Received: 7, Skipped: 1, Filtered: 2, Written: 4}, sink.Stats())
}

func (suite *SinkTestSuite) TestSharedRouter() {
	router, err := partition.NewRouter(2)
	suite.Require().NoError(err)
	suite.opts.Partitions = 3
	_, err = NewSink(suite.fs, suite.opener, router, suite.opts)
	suite.ErrorIs(err, errors.ErrInvalidPartitionCount)

	suite.opts.Partitions = 2
	sink, err := NewSink(suite.fs, suite.opener, router, suite.opts)
	suite.Require().NoError(err)
	suite.Require().NoError(sink.Initialize(nil))
	suite.Require().NoError(sink.Process(&entity.Node{ID: 1}))
	suite.Equal(uint64(1), router.Sequence())
	suite.Require().NoError(sink.Complete())
}

func (suite *SinkTestSuite) TestConcurrentProcess() {
	sink := suite.newSink(4)
	suite.Require().NoError(sink.Initialize(nil))

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for _, e := range nodeRange(int64(w*100), int64(w*100+99)) {
				suite.NoError(sink.Process(e))
			}
		}(w)
	}
	wg.Wait()
	suite.Require().NoError(sink.Complete())

	total := 0
	for _, w := range suite.opener.writers {
		suite.Len(w.written(), 200)
		total += len(w.written())
	}
	suite.Equal(800, total)
}

func TestSinkSuite(t *testing.T) {
	suite.Run(t, &SinkTestSuite{})
}

func TestSinkEndToEnd(t *testing.T) {
	m := fs.NewMemoryFs()
	require.NoError(t, m.CreateDir("/out"))
	opts := options.NewSinkOptions("/data/monaco.osm.pbf", "/out", entity.NodeType)
	opts.Partitions = 4
	writeOpts := options.NewWriteOptions()
	writeOpts.BatchSize = 8
	sink, err := NewSink(m, parquet.NewOpener(m, writeOpts), nil, opts)
	require.NoError(t, err)
	defer sink.Close()
	sink.AddFilter(filter.IDIn(10, 50, 90))

	require.NoError(t, sink.Initialize(nil))
	var survivors []int64
	for id := int64(1); id <= 100; id++ {
		n := &entity.Node{ID: id, Lat: 43.7, Lon: 7.4}
		if id%3 == 0 {
			n.Tags = []entity.Tag{{Key: "k", Value: "v"}}
		}
		require.NoError(t, sink.Process(n))
		if id != 10 && id != 50 && id != 90 {
			survivors = append(survivors, id)
		}
	}
	require.NoError(t, sink.Complete())

	paths := sink.Paths()
	require.Len(t, paths, 4)
	counts := make([]int64, 0, 4)
	for p, path := range paths {
		ids, err := arrow_util.ReadInt64Column(m, path, schema.IDColumn)
		require.NoError(t, err)
		counts = append(counts, int64(len(ids)))

		var want []int64
		for k := p; k < len(survivors); k += 4 {
			want = append(want, survivors[k])
		}
		assert.Equal(t, want, ids, "partition %d", p)
	}
	assert.Equal(t, []int64{25, 24, 24, 24}, counts)
}

func TestSinkUntaggedNodesOnly(t *testing.T) {
	m := fs.NewMemoryFs()
	require.NoError(t, m.CreateDir("/out"))
	opts := options.NewSinkOptions("a.pbf", "/out", entity.NodeType)
	opts.Partitions = 2
	sink, err := NewSink(m, parquet.NewOpener(m, nil), nil, opts)
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.Initialize(nil))
	require.NoError(t, sink.ProcessBatch(nodeRange(1, 5)))
	require.NoError(t, sink.Complete())

	ids, err := arrow_util.ReadInt64Column(m, sink.Paths()[0], schema.IDColumn)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 5}, ids)
	ids, err = arrow_util.ReadInt64Column(m, sink.Paths()[1], schema.IDColumn)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4}, ids)
}

func TestSinkInitializeMissingDestination(t *testing.T) {
	m := fs.NewMemoryFs()
	opts := options.NewSinkOptions("a.pbf", "/missing", entity.WayType)
	opts.Partitions = 3
	sink, err := NewSink(m, parquet.NewOpener(m, nil), nil, opts)
	require.NoError(t, err)

	var initErr *errors.InitializationError
	assert.ErrorAs(t, sink.Initialize(nil), &initErr)
	entries, err := m.List("/")
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSinkWriteFailureRemovesFiles(t *testing.T) {
	m := fs.NewMemoryFs()
	require.NoError(t, m.CreateDir("/out"))
	opts := options.NewSinkOptions("a.pbf", "/out", entity.NodeType)
	opts.Partitions = 2
	opener := newMockOpener()
	opener.failWriteAt = 0
	opener.failAfter = 1
	sink, err := NewSink(m, &fileCreatingOpener{fs: m, next: opener}, nil, opts)
	require.NoError(t, err)

	require.NoError(t, sink.Initialize(nil))
	assert.NoError(t, sink.Process(&entity.Node{ID: 1}))
	assert.NoError(t, sink.Process(&entity.Node{ID: 2}))
	var writeErr *errors.WriteError
	assert.ErrorAs(t, sink.Process(&entity.Node{ID: 3}), &writeErr)

	for _, path := range sink.Paths() {
		exist, err := m.Exist(path)
		assert.NoError(t, err)
		assert.False(t, exist, path)
	}
}

package storage

import (
	"sync"

	"github.com/osmparquet/osm-parquet/common/errors"
	"github.com/osmparquet/osm-parquet/entity"
	"github.com/osmparquet/osm-parquet/io/format"
	perrors "github.com/pkg/errors"
)

type handleState int32

const (
	stateUnopened handleState = iota
	stateOpen
	stateClosed
)

func (s handleState) String() string {
	switch s {
	case stateUnopened:
		return "unopened"
	case stateOpen:
		return "open"
	default:
		return "closed"
	}
}

// writerHandle owns the writer of one partition. Appends are serialized and
// the writer is closed at most once.
type writerHandle struct {
	mu        sync.Mutex
	partition int
	path      string
	state     handleState
	writer    format.EntityWriter
}

func newWriterHandle(partition int, path string) *writerHandle {
	return &writerHandle{partition: partition, path: path}
}

func (h *writerHandle) open(opener format.Opener, entityType entity.EntityType, excludeMetadata bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != stateUnopened {
		return perrors.Errorf("partition %d is %s", h.partition, h.state)
	}
	w, err := opener.Open(h.path, entityType, excludeMetadata)
	if err != nil {
		return err
	}
	h.writer = w
	h.state = stateOpen
	return nil
}

func (h *writerHandle) write(e entity.Entity) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != stateOpen {
		return perrors.Wrapf(errors.ErrWriterClosed, "partition %d is %s", h.partition, h.state)
	}
	return h.writer.Append(e)
}

// close reports whether the underlying writer was closed by this call.
func (h *writerHandle) close() (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != stateOpen {
		return false, nil
	}
	h.state = stateClosed
	return true, h.writer.Close()
}

func (h *writerHandle) currentState() handleState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *writerHandle) count() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.writer == nil {
		return 0
	}
	return h.writer.Count()
}

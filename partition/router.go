// Package partition assigns records to output partitions in round-robin order.
package partition

import (
	"github.com/osmparquet/osm-parquet/common/errors"
	perrors "github.com/pkg/errors"
	"go.uber.org/atomic"
)

// Router maps the k-th call of Next to partition k mod N. It is safe for
// concurrent use; the sequence wraps around on overflow.
type Router struct {
	partitions uint64
	sequence   *atomic.Uint64
}

func NewRouter(partitions int) (*Router, error) {
	return newRouterAt(partitions, 0)
}

func newRouterAt(partitions int, start uint64) (*Router, error) {
	if partitions < 1 {
		return nil, perrors.Wrapf(errors.ErrInvalidPartitionCount, "got %d", partitions)
	}
	return &Router{
		partitions: uint64(partitions),
		sequence:   atomic.NewUint64(start),
	}, nil
}

func (r *Router) Next() int {
	seq := r.sequence.Inc() - 1
	return int(seq % r.partitions)
}

func (r *Router) Partitions() int {
	return int(r.partitions)
}

// Sequence is the number of partitions handed out so far.
func (r *Router) Sequence() uint64 {
	return r.sequence.Load()
}

package filter

import (
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bitset"
	"github.com/osmparquet/osm-parquet/common/errors"
	"github.com/osmparquet/osm-parquet/entity"
	perrors "github.com/pkg/errors"
)

// Predicate is an exclusion rule: an entity it matches is dropped.
// Predicates are compared by pointer, so two registrations of identical
// logic stay distinct.
type Predicate struct {
	name   string
	reject func(entity.Entity) bool
}

func NewPredicate(name string, reject func(entity.Entity) bool) *Predicate {
	return &Predicate{name: name, reject: reject}
}

func (p *Predicate) Name() string {
	return p.name
}

func (p *Predicate) Test(e entity.Entity) bool {
	return p.reject(e)
}

// Chain holds predicates in registration order. An entity is accepted when
// no predicate matches it.
type Chain struct {
	mu         sync.RWMutex
	predicates []*Predicate
}

func NewChain(predicates ...*Predicate) *Chain {
	c := &Chain{}
	for _, p := range predicates {
		c.Add(p)
	}
	return c
}

func (c *Chain) Add(p *Predicate) {
	if p == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.predicates = append(c.predicates, p)
}

// Remove drops the earliest registration of p and reports whether one existed.
func (c *Chain) Remove(p *Predicate) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, registered := range c.predicates {
		if registered == p {
			c.predicates = append(c.predicates[:i:i], c.predicates[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.predicates)
}

func (c *Chain) snapshot() []*Predicate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.predicates
}

// Accepts reports whether e survives every predicate. A panicking predicate
// is turned into an ErrFilterPanic error.
func (c *Chain) Accepts(e entity.Entity) (bool, error) {
	return accepts(c.snapshot(), e)
}

// Apply evaluates a batch and sets bit i in rejected for every entity that
// some predicate matches, and in failed for every entity on which a predicate
// panicked. Evaluation continues past a panic; the first one is returned.
func (c *Chain) Apply(entities []entity.Entity, rejected, failed *bitset.BitSet) error {
	predicates := c.snapshot()
	if len(predicates) == 0 {
		return nil
	}
	var first error
	for i, e := range entities {
		ok, err := accepts(predicates, e)
		if err != nil {
			failed.Set(uint(i))
			if first == nil {
				first = err
			}
			continue
		}
		if !ok {
			rejected.Set(uint(i))
		}
	}
	return first
}

func accepts(predicates []*Predicate, e entity.Entity) (ok bool, err error) {
	var current *Predicate
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = perrors.Wrapf(errors.ErrFilterPanic, "%s on entity %d: %v", current.Name(), e.GetID(), r)
		}
	}()
	for _, p := range predicates {
		current = p
		if p.Test(e) {
			return false, nil
		}
	}
	return true, nil
}

func (p *Predicate) String() string {
	return fmt.Sprintf("filter(%s)", p.name)
}

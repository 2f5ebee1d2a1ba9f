package main

import (
	"context"

	"github.com/osmparquet/osm-parquet/entity"
	"github.com/osmparquet/osm-parquet/storage"
	perrors "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// pipeline fans batches of scanned entities out to every sink. Each sink
// consumes its own channel, so sinks progress concurrently while a single
// sink sees batches in scan order.
type pipeline struct {
	sinks     []*storage.Sink
	batchSize int
}

func (p *pipeline) run(ctx context.Context, scanner objectScanner) error {
	g, ctx := errgroup.WithContext(ctx)
	channels := make([]chan []entity.Entity, len(p.sinks))
	for i, sink := range p.sinks {
		ch := make(chan []entity.Entity, 4)
		channels[i] = ch
		sink := sink
		g.Go(func() error {
			for batch := range ch {
				if err := sink.ProcessBatch(batch); err != nil {
					return perrors.Wrapf(err, "%s sink", sink.EntityType().Name())
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer func() {
			for _, ch := range channels {
				close(ch)
			}
		}()
		send := func(batch []entity.Entity) error {
			for _, ch := range channels {
				select {
				case ch <- batch:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		}

		batch := make([]entity.Entity, 0, p.batchSize)
		for scanner.Scan() {
			e := toEntity(scanner.Object())
			if e == nil {
				continue
			}
			batch = append(batch, e)
			if len(batch) < p.batchSize {
				continue
			}
			if err := send(batch); err != nil {
				return err
			}
			batch = make([]entity.Entity, 0, p.batchSize)
		}
		if err := scanner.Err(); err != nil {
			return perrors.Wrap(err, "scan pbf")
		}
		if len(batch) > 0 {
			return send(batch)
		}
		return nil
	})
	return g.Wait()
}

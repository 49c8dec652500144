package stress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/obinnaokechukwu/gcroots"
	"github.com/obinnaokechukwu/gcroots/hostrt"
	"github.com/obinnaokechukwu/gcroots/internal/ctxlog"
)

// ErrLivenessViolated means a retained object was reclaimed by the collector.
var ErrLivenessViolated = errors.New("gcroots: retained object was collected")

const objectType = "stress.object"

// store is what the runner needs beyond gcroots.Store.
type store interface {
	gcroots.Store
	Len() int
	Stats() gcroots.Stats
	DebugDump(w io.Writer) error
}

// Report summarises a finished run.
type Report struct {
	Scenario    Scenario
	Duration    time.Duration
	Collections uint64
	Violations  uint64
	// Remaining is the number of tracked entries after every worker released
	// its references; anything but 0 is a leak.
	Remaining int
	// Leaked counts stress objects that survived the final collection.
	Leaked int
	Stats  gcroots.Stats
	Dump   string
}

func newStore(ctx context.Context, sc Scenario, heap *hostrt.Heap) store {
	opts := []gcroots.Option{
		gcroots.WithTypeNamer(heap.TypeName),
		gcroots.WithLogger(ctxlog.FromContext(ctx)),
	}
	if sc.Shards > 1 {
		return gcroots.NewSharded(sc.Shards, opts...)
	}
	return gcroots.New(opts...)
}

// Run executes sc against a fresh heap. Workers retain objects, check they
// stay live across concurrent collections, and release them; a collector
// goroutine runs cycles until the workers finish. The heap is shut down
// before Run returns, which tears the store down.
func Run(ctx context.Context, sc Scenario) (*Report, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx)
	logger.Info("Starting stress run", "scenario", sc.Name, "workers", sc.Workers, "shards", sc.Shards)

	heap := hostrt.NewHeap(hostrt.WithLogger(logger))
	defer heap.Shutdown()

	st := newStore(ctx, sc, heap)
	gcroots.Install(heap, st)
	guard := gcroots.NewForkGuard(st)

	var (
		collections atomic.Uint64
		violations  atomic.Uint64
	)
	start := time.Now()
	done := make(chan struct{})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(sc.CollectEvery)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				guard.Check()
				heap.Collect()
				collections.Add(1)
			}
		}
	})
	g.Go(func() error {
		defer close(done)
		workers, wctx := errgroup.WithContext(gctx)
		for id := 0; id < sc.Workers; id++ {
			id := id
			workers.Go(func() error {
				return runWorker(wctx, id, sc, heap, st, &violations)
			})
		}
		return workers.Wait()
	})
	err := g.Wait()

	// Two cycles: one to notice the releases, one to confirm nothing lingers.
	heap.Collect()
	heap.Collect()

	var dump strings.Builder
	_ = st.DebugDump(&dump)

	report := &Report{
		Scenario:    sc,
		Duration:    time.Since(start),
		Collections: collections.Load() + 2,
		Violations:  violations.Load(),
		Remaining:   st.Len(),
		Leaked:      heap.Len() - 1, // the store wrapper stays rooted
		Stats:       st.Stats(),
		Dump:        dump.String(),
	}
	logger.Info("Stress run finished",
		"duration", report.Duration, "collections", report.Collections,
		"violations", report.Violations, "remaining", report.Remaining, "leaked", report.Leaked)

	if err != nil {
		return report, err
	}
	if report.Violations > 0 {
		return report, fmt.Errorf("%w: %d violations", ErrLivenessViolated, report.Violations)
	}
	if report.Remaining != 0 || report.Leaked != 0 {
		return report, fmt.Errorf("gcroots: %d entries and %d objects left after balanced release", report.Remaining, report.Leaked)
	}
	return report, nil
}

func runWorker(ctx context.Context, id int, sc Scenario, heap *hostrt.Heap, st store, violations *atomic.Uint64) error {
	logger := ctxlog.FromContext(ctx)

	objs := make([]gcroots.Value, 0, sc.ObjectsPerWorker)
	for i := 0; i < sc.ObjectsPerWorker; i++ {
		// Pinned until retained, like a fresh object on the native stack.
		v, unpin := heap.AllocPinned(objectType)
		st.Retain(v)
		unpin()
		objs = append(objs, v)
	}

	check := func(v gcroots.Value) {
		if !heap.IsLive(v) {
			violations.Add(1)
			logger.Error("Retained object was collected", "worker", id, "object", v)
		}
	}

	for i := 0; i < sc.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		v := objs[i%len(objs)]
		st.Retain(v)
		st.Retain(gcroots.Nil)
		check(v)
		st.Release(gcroots.Nil)
		st.Release(v)
	}

	for _, v := range objs {
		check(v)
		st.Release(v)
	}
	logger.Debug("Worker finished", "worker", id, "objects", len(objs))
	return nil
}

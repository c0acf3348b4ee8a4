package notification

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Handler processes one update.
type Handler interface {
	ProcessUpdate(ctx context.Context, upd BusUpdate)
}

// WorkerPool runs notification processing off the reporting path. Each bus maps to one
// shard, so updates for a bus are handled in order by a single worker.
type WorkerPool struct {
	handler   Handler
	shards    []chan BusUpdate
	startWait time.Duration
	wg        sync.WaitGroup
}

// DefaultStartWait bounds how long Dispatch holds a start transition for a full shard.
const DefaultStartWait = 250 * time.Millisecond

func NewWorkerPool(handler Handler, workers, queueSize int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	shards := make([]chan BusUpdate, workers)
	for i := range shards {
		shards[i] = make(chan BusUpdate, queueSize)
	}
	return &WorkerPool{handler: handler, shards: shards, startWait: DefaultStartWait}
}

// Start launches one goroutine per shard. They exit when ctx is cancelled.
func (wp *WorkerPool) Start(ctx context.Context) {
	for _, jobs := range wp.shards {
		wp.wg.Add(1)
		go wp.worker(ctx, jobs)
	}
	logrus.WithField("workers", len(wp.shards)).Info("Notification worker pool started.")
}

func (wp *WorkerPool) worker(ctx context.Context, jobs <-chan BusUpdate) {
	defer wp.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case upd := <-jobs:
			wp.handler.ProcessUpdate(ctx, upd)
		}
	}
}

// Wait blocks until every worker has returned.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Dispatch queues an update. A full shard drops ordinary updates at once. A start
// transition is not repeated by later updates, so it waits up to startWait for room first.
func (wp *WorkerPool) Dispatch(upd BusUpdate) {
	jobs := wp.shards[wp.shardFor(upd)]
	select {
	case jobs <- upd:
		return
	default:
	}

	if upd.JustStarted && wp.startWait > 0 {
		timer := time.NewTimer(wp.startWait)
		defer timer.Stop()
		select {
		case jobs <- upd:
			return
		case <-timer.C:
		}
	}

	logrus.WithFields(logrus.Fields{
		"bus_id":       upd.BusID,
		"just_started": upd.JustStarted,
	}).Warn("Notification queue full, dropping update.")
}

func (wp *WorkerPool) shardFor(upd BusUpdate) int {
	h := fnv.New32a()
	_, _ = h.Write(upd.BusID[:])
	return int(h.Sum32() % uint32(len(wp.shards)))
}

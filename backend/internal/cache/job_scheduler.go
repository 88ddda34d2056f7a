package cache

import (
	"context"
	"log"
	"sync"
	"time"
)

type intervalTrigger struct {
	name     string
	interval time.Duration
	job      func() WarmupJob
}

// JobScheduler periodically submits warm-up jobs to a worker pool.
type JobScheduler struct {
	workerPool *WorkerPool
	triggers   []intervalTrigger
	running    bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.Mutex

	runCount int64
}

func NewJobScheduler(workerPool *WorkerPool) *JobScheduler {
	return &JobScheduler{workerPool: workerPool}
}

// AddIntervalTrigger registers job to be submitted every interval. Triggers
// added after Start are ignored until the next Start.
func (js *JobScheduler) AddIntervalTrigger(name string, interval time.Duration, job func() WarmupJob) {
	if interval <= 0 {
		return
	}

	js.mu.Lock()
	defer js.mu.Unlock()

	js.triggers = append(js.triggers, intervalTrigger{name: name, interval: interval, job: job})
	log.Printf("📅 Added interval trigger '%s' with interval %v", name, interval)
}

func (js *JobScheduler) Start() {
	js.mu.Lock()
	defer js.mu.Unlock()

	if js.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	js.cancel = cancel
	js.running = true

	for _, trigger := range js.triggers {
		js.wg.Add(1)
		go js.loop(ctx, trigger)
	}

	log.Printf("📅 Job scheduler started with %d triggers", len(js.triggers))
}

func (js *JobScheduler) loop(ctx context.Context, trigger intervalTrigger) {
	defer js.wg.Done()

	ticker := time.NewTicker(trigger.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if js.workerPool.SubmitJob(trigger.job()) {
				js.mu.Lock()
				js.runCount++
				js.mu.Unlock()
			}
		case <-ctx.Done():
			return
		}
	}
}

func (js *JobScheduler) Stop() {
	js.mu.Lock()
	if !js.running {
		js.mu.Unlock()
		return
	}
	js.running = false
	js.cancel()
	js.mu.Unlock()

	js.wg.Wait()
	log.Printf("📅 Job scheduler stopped")
}

func (js *JobScheduler) GetStats() map[string]interface{} {
	js.mu.Lock()
	defer js.mu.Unlock()

	return map[string]interface{}{
		"running":   js.running,
		"triggers":  len(js.triggers),
		"run_count": js.runCount,
	}
}

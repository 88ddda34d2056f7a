package cache

import (
	"context"
	"log"
	"sync"
	"time"
)

// WarmupJob recomputes one cache entry. Load runs on a pool worker and its
// result is stored under Key for TTL.
type WarmupJob struct {
	Key  string
	TTL  time.Duration
	Load func(ctx context.Context) (interface{}, error)
}

type JobResult struct {
	Job      WarmupJob
	Error    error
	Duration time.Duration
}

type WorkerPool struct {
	workers    int
	jobTimeout time.Duration
	jobCh      chan WarmupJob
	resultCh   chan JobResult
	cache      Cache
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	collector  sync.WaitGroup
	running    bool
	mu         sync.RWMutex

	statsMu       sync.Mutex
	jobsProcessed int64
	totalDuration time.Duration
	errors        int64
}

func NewWorkerPool(workers int, cache Cache) *WorkerPool {
	if workers <= 0 {
		workers = 2
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		workers:    workers,
		jobTimeout: 10 * time.Second,
		jobCh:      make(chan WarmupJob, workers*4),
		resultCh:   make(chan JobResult, workers),
		cache:      cache,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (wp *WorkerPool) Start() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.running {
		return
	}

	wp.running = true

	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}

	wp.collector.Add(1)
	go wp.resultCollector()

	log.Printf("🏃 Worker pool started with %d workers", wp.workers)
}

// Stop drains queued jobs, then waits for the workers to exit.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if !wp.running {
		return
	}

	wp.running = false

	close(wp.jobCh)
	wp.wg.Wait()

	close(wp.resultCh)
	wp.collector.Wait()
	wp.cancel()

	log.Printf("🛑 Worker pool stopped")
}

// SubmitJob enqueues job without blocking; it reports false when the pool
// is stopped or the queue is full.
func (wp *WorkerPool) SubmitJob(job WarmupJob) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if !wp.running {
		return false
	}

	select {
	case wp.jobCh <- job:
		return true
	default:
		log.Printf("⚠️  Worker pool queue full, dropping job: %s", job.Key)
		return false
	}
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for job := range wp.jobCh {
		wp.resultCh <- wp.processJob(job)
	}
}

func (wp *WorkerPool) processJob(job WarmupJob) JobResult {
	start := time.Now()

	ctx, cancel := context.WithTimeout(wp.ctx, wp.jobTimeout)
	defer cancel()

	value, err := job.Load(ctx)
	if err == nil {
		err = wp.cache.Set(job.Key, value, job.TTL)
	}
	duration := time.Since(start)

	if err != nil {
		log.Printf("❌ Failed to warm cache key %s: %v", job.Key, err)
	}

	return JobResult{
		Job:      job,
		Error:    err,
		Duration: duration,
	}
}

func (wp *WorkerPool) resultCollector() {
	defer wp.collector.Done()

	for result := range wp.resultCh {
		wp.statsMu.Lock()
		wp.jobsProcessed++
		wp.totalDuration += result.Duration
		if result.Error != nil {
			wp.errors++
		}
		wp.statsMu.Unlock()
	}
}

func (wp *WorkerPool) GetStats() map[string]interface{} {
	wp.mu.RLock()
	running := wp.running
	wp.mu.RUnlock()

	wp.statsMu.Lock()
	defer wp.statsMu.Unlock()

	avgDuration := time.Duration(0)
	if wp.jobsProcessed > 0 {
		avgDuration = wp.totalDuration / time.Duration(wp.jobsProcessed)
	}

	return map[string]interface{}{
		"workers":        wp.workers,
		"running":        running,
		"jobs_processed": wp.jobsProcessed,
		"total_errors":   wp.errors,
		"avg_duration":   avgDuration.String(),
		"queue_length":   len(wp.jobCh),
		"queue_capacity": cap(wp.jobCh),
	}
}

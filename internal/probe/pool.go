package probe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"imgbundle/pkg/logger"
	"imgbundle/pkg/models"
)

// Job is one image to probe. Index is its position in document order.
type Job struct {
	Index int
	URL   string
}

// Result is the outcome of one probe job
type Result struct {
	Job      Job
	Record   models.ImageRecord
	Err      error
	Duration time.Duration
}

// WorkerPool probes images concurrently with a fixed number of workers
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	prober      *Prober
	logger      logger.Logger
}

// NewWorkerPool creates a pool bound to ctx; cancelling ctx stops the workers
func NewWorkerPool(ctx context.Context, numWorkers int, prober *Prober, log logger.Logger) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		prober:      prober,
		logger:      log,
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("Starting probe workers", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the job queue, waits for in-flight probes and closes Results
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()
}

// Submit queues a job, blocking while the queue is full
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("probe pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the channel probe results are delivered on
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		if wp.ctx.Err() != nil {
			return
		}

		start := time.Now()
		rec, err := wp.prober.Probe(wp.ctx, job.URL)
		result := Result{Job: job, Record: rec, Err: err, Duration: time.Since(start)}

		if err != nil {
			wp.logger.WithError(err).DebugWithFields("Probe failed", map[string]interface{}{
				"worker_id": id,
				"url":       job.URL,
			})
		}

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

// Run probes every URL and returns one record per URL in input order plus
// the failures, also in input order. It returns only after every probe has
// settled. A cancelled ctx yields its error.
func Run(ctx context.Context, urls []string, workers int, prober *Prober, log logger.Logger) ([]models.ImageRecord, []models.ProbeFailure, error) {
	records := make([]models.ImageRecord, len(urls))
	errs := make([]error, len(urls))
	for i, u := range urls {
		records[i] = models.ImageRecord{SourceURL: u}
	}
	if len(urls) == 0 {
		return records, nil, nil
	}

	if workers > len(urls) {
		workers = len(urls)
	}
	pool := NewWorkerPool(ctx, workers, prober, log)
	pool.Start()

	go func() {
		defer pool.Stop()
		for i, u := range urls {
			if err := pool.Submit(Job{Index: i, URL: u}); err != nil {
				return
			}
		}
	}()

	for res := range pool.Results() {
		records[res.Job.Index] = res.Record
		errs[res.Job.Index] = res.Err
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var failures []models.ProbeFailure
	for i, err := range errs {
		if err != nil {
			failures = append(failures, models.ProbeFailure{URL: urls[i], Err: err.Error()})
		}
	}
	return records, failures, nil
}
